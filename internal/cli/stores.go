package cli

import (
	"fmt"
	"time"

	"github.com/aretw0/tendril/pkg/adapters/bolt"
	"github.com/aretw0/tendril/pkg/adapters/file"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/adapters/redis"
	"github.com/aretw0/tendril/pkg/ports"
)

// OpenStore builds a snapshot store from config. The returned close
// function releases backend resources and is safe to call once.
func OpenStore(cfg StoreConfig) (ports.SnapshotStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "", "memory":
		return memory.NewStore(), noop, nil

	case "file":
		if cfg.Path == "" {
			return nil, nil, fmt.Errorf("file store requires store.path")
		}
		return file.New(cfg.Path), noop, nil

	case "redis":
		if cfg.Address == "" {
			return nil, nil, fmt.Errorf("redis store requires store.address")
		}
		var opts []redis.Option
		if cfg.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Prefix))
		}
		if cfg.TTL != "" {
			ttl, err := time.ParseDuration(cfg.TTL)
			if err != nil {
				return nil, nil, fmt.Errorf("parse store.ttl: %w", err)
			}
			opts = append(opts, redis.WithTTL(ttl))
		}
		store := redis.New(cfg.Address, cfg.Password, cfg.DB, opts...)
		return store, store.Close, nil

	case "bolt":
		if cfg.Path == "" {
			return nil, nil, fmt.Errorf("bolt store requires store.path")
		}
		store, err := bolt.Open(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open bolt store: %w", err)
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
