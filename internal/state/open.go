package state

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alecgard/tripboard/internal/redisclient"
)

// Options selects and configures a backend.
type Options struct {
	Driver      string // file, postgres, redis or memory
	Path        string
	DatabaseURL string
	RedisURL    string
	Namespace   string
}

// Open returns the configured store and a function releasing its
// connections.
func Open(ctx context.Context, opts Options) (Store, func(), error) {
	switch opts.Driver {
	case "", "file":
		return NewFileStore(opts.Path), func() {}, nil
	case "memory":
		return NewMemoryStore(), func() {}, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pinging database: %w", err)
		}
		return NewPostgresStore(pool), pool.Close, nil
	case "redis":
		rc, err := redisclient.New(ctx, opts.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(rc, opts.Namespace), func() { rc.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown state driver %q", opts.Driver)
	}
}
