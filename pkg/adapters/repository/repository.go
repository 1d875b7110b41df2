package repository

import (
	"context"
	"strings"

	"github.com/wadjakorntonsri/funnel-gateway/pkg/adapters/repository/postgres"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/adapters/repository/redis"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/ports"
)

// Backend names the storage implementation selected for a DATABASE_URL.
func Backend(dbURL string) string {
	switch {
	case strings.HasPrefix(dbURL, "redis://"), strings.HasPrefix(dbURL, "rediss://"):
		return "redis"
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		return "postgres"
	default:
		return "sqlite"
	}
}

// Open returns the link store for dbURL. SQLite (and libsql) is the default.
func Open(ctx context.Context, dbURL string) (ports.LinkStore, error) {
	switch Backend(dbURL) {
	case "redis":
		return redis.NewRedisRepository(ctx, dbURL)
	case "postgres":
		return postgres.NewPostgresRepository(dbURL)
	default:
		return sqlite.NewSQLiteRepository(dbURL)
	}
}
