// Package backend opens the catalog store and optional services selected by
// configuration, so both binaries wire the same stack.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/catalogio/internal/config"
	"github.com/JonMunkholm/catalogio/internal/core"
	"github.com/JonMunkholm/catalogio/internal/results"
	"github.com/JonMunkholm/catalogio/internal/store/memory"
	"github.com/JonMunkholm/catalogio/internal/store/postgres"
	"github.com/JonMunkholm/catalogio/internal/store/sqlite"
	"github.com/JonMunkholm/catalogio/internal/store/supabase"
)

// Backend is an opened catalog with everything a Service needs.
type Backend struct {
	Name      string
	Catalog   core.Catalog
	Publisher core.ExportPublisher
	Results   core.ResultStore

	// SQLite is set for the sqlite backend, which supports seeding.
	SQLite *sqlite.Catalog

	closers []func()
}

// Close releases connections in reverse order of opening.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

// Open connects the backend named by cfg.Store.Backend and, when REDIS_URL
// is set, the Redis result store.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{Name: cfg.Store.Backend}

	switch strings.ToLower(cfg.Store.Backend) {
	case config.BackendPostgres:
		pool, err := openPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		b.Catalog = postgres.New(pool)

	case config.BackendSupabase:
		client, err := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.Key)
		if err != nil {
			return nil, err
		}
		b.Catalog = supabase.New(client)
		if cfg.Supabase.ExportBucket != "" {
			b.Publisher = supabase.NewPublisher(client, cfg.Supabase.ExportBucket)
		}
		slog.Info("using supabase backend", "url", cfg.Supabase.URL, "export_bucket", cfg.Supabase.ExportBucket)

	case config.BackendSQLite:
		c, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { c.Close() })
		b.Catalog = c
		b.SQLite = c
		slog.Info("using sqlite backend", "path", cfg.SQLite.Path)

	case config.BackendMemory:
		// Seeded so imports can run as a dry run.
		b.Catalog = memory.Seeded("Local Store", "General")
		slog.Warn("using in-memory backend; nothing is persisted")

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if cfg.Redis.URL != "" {
		client, err := results.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() { client.Close() })
		b.Results = results.NewRedis(client, cfg.Redis.KeyPrefix, cfg.Import.ResultTTL)
		slog.Info("import results stored in redis", "prefix", cfg.Redis.KeyPrefix, "ttl", cfg.Import.ResultTTL)
	}

	return b, nil
}

// openPool parses and applies the pool settings, then verifies the
// connection.
func openPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

// ServiceOptions translates configuration into core.Options using the
// backend's result store and publisher.
func (b *Backend) ServiceOptions(cfg *config.Config) core.Options {
	return core.Options{
		MaxFileSize:   cfg.Import.MaxFileSize,
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWaitTime:   cfg.Import.MaxWaitTime,
		Timeout:       cfg.Import.Timeout,
		ResultTTL:     cfg.Import.ResultTTL,
		Importer: core.ImporterOptions{
			RatePerSecond: cfg.Import.RatePerSecond,
			Burst:         cfg.Import.Burst,
			Fallback:      core.CategoryFallback(cfg.Import.CategoryFallback),
		},
		Results:   b.Results,
		Publisher: b.Publisher,
	}
}
