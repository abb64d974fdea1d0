package snapshot

import (
	"context"
	"fmt"

	"github.com/reacthost/console/api/internal/config"
	"github.com/reacthost/console/api/internal/core/domain"
)

// Open builds the backend selected by SNAPSHOT_BACKEND.
func Open(ctx context.Context, cfg *config.Config) (domain.SnapshotStore, error) {
	switch cfg.SnapshotBackend {
	case "file", "":
		return NewFileStore(cfg.SnapshotDir)
	case "sql":
		return OpenSQL(ctx, cfg.DatabaseURL)
	case "redis":
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
	}
}
