package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AlanRandon/subdivisions-game/internal/besttime"
)

// openBestTimeStore opens the backend named by cfg.BestTimeBackend. The
// returned closer is nil for backends that hold no resources.
func openBestTimeStore(ctx context.Context, cfg Config) (besttime.Store, io.Closer, error) {
	switch strings.ToLower(cfg.BestTimeBackend) {
	case "", BackendMemory:
		logInfo("Keeping best times in memory")
		return besttime.NewMemoryStore(), nil, nil

	case BackendFile:
		store, err := besttime.NewFileStore(cfg.BestTimeDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open file store: %w", err)
		}
		logInfo("Keeping best times in %s", cfg.BestTimeDir)
		return store, nil, nil

	case BackendRedis:
		store := besttime.NewRedisStore(besttime.OpenRedisFromEnv())
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		logInfo("Keeping best times in redis")
		return store, store, nil

	case BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.BestTimeSQLitePath), 0755); err != nil {
			return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		store, err := besttime.OpenSQLite(cfg.BestTimeSQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logInfo("Keeping best times in %s", cfg.BestTimeSQLitePath)
		return store, store, nil

	default:
		return nil, nil, fmt.Errorf("unknown best time backend %q", cfg.BestTimeBackend)
	}
}
