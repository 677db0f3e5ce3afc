// Package api serves the bot's read-only HTTP status surface.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"CoinSentinel/internal/logger"
	"CoinSentinel/internal/metrics"
	"CoinSentinel/internal/model"
	"CoinSentinel/internal/recorder"
)

// CoinSource provides the stored coin list.
type CoinSource interface {
	Coins(ctx context.Context) (model.CoinsDataMap, error)
}

// Server exposes health, holdings, run history and Prometheus metrics.
type Server struct {
	coins     CoinSource
	recorder  recorder.Recorder
	metrics   *metrics.Metrics
	startedAt time.Time
	engine    *gin.Engine
	srv       *http.Server
}

// NewServer builds the router. metrics may be nil, in which case /metrics is not mounted.
func NewServer(addr string, coins CoinSource, rec recorder.Recorder, m *metrics.Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		coins:     coins,
		recorder:  rec,
		metrics:   m,
		startedAt: time.Now(),
		engine:    engine,
	}
	s.setupRoutes()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	api := s.engine.Group("/api")
	{
		api.GET("/holdings", s.handleHoldings)
		api.GET("/runs/last", s.handleLastRun)
	}
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
		"timestamp": time.Now().Unix(),
	})
}

type coinView struct {
	model.CoinRecord
	Key string `json:"key"`
}

func (s *Server) handleHoldings(c *gin.Context) {
	coins, err := s.coins.Coins(c.Request.Context())
	if err != nil {
		logger.Error("api holdings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	held := coins.Held()
	list := make([]coinView, 0, len(held))
	for _, k := range held.Symbols() {
		list = append(list, coinView{CoinRecord: held[k], Key: k})
	}
	c.JSON(http.StatusOK, gin.H{
		"tracked": len(coins),
		"held":    list,
	})
}

func (s *Server) handleLastRun(c *gin.Context) {
	job := c.DefaultQuery("job", "daily")
	run, err := s.recorder.LastRun(job)
	if errors.Is(err, recorder.ErrNoRuns) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no runs recorded", "job": job})
		return
	}
	if err != nil {
		logger.Error("api last run: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, run)
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		logger.Info("http server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
