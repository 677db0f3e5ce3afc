package holdings

import (
	"fmt"

	"CoinSentinel/internal/config"
)

// Open builds the configured store. The returned func releases its connections.
func Open(cfg *config.Config) (Store, func(), error) {
	noop := func() {}
	switch cfg.Storage.Backend {
	case "jsonbin":
		j := cfg.Storage.JSONBin
		return NewJSONBinStore(j.BaseURL, j.MasterKey, j.CoinsBinID, j.HeldBinID, cfg.Proxy), noop, nil
	case "redis":
		r := cfg.Storage.Redis
		rs, err := NewRedisStore(RedisConfig{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
			CoinsKey: r.CoinsKey,
			HeldKey:  r.HeldKey,
		})
		if err != nil {
			return nil, noop, err
		}
		return rs, func() { rs.Close() }, nil
	case "file", "":
		fs, err := NewFileStore(cfg.Storage.CoinsFile, cfg.Storage.HeldFile)
		if err != nil {
			return nil, noop, err
		}
		return fs, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
