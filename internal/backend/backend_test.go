package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/catalogio/internal/config"
	"github.com/JonMunkholm/catalogio/internal/core"
)

func TestOpen_Memory(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Backend: config.BackendMemory}}

	b, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer b.Close()

	store, err := b.Catalog.FirstStore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Local Store", store.Name)
	assert.Nil(t, b.Publisher)
	assert.Nil(t, b.Results)
	assert.Nil(t, b.SQLite)
}

func TestOpen_SQLite(t *testing.T) {
	cfg := &config.Config{
		Store:  config.StoreConfig{Backend: config.BackendSQLite},
		SQLite: config.SQLiteConfig{Path: ":memory:"},
	}

	b, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer b.Close()

	require.NotNil(t, b.SQLite)
	_, _, err = b.SQLite.Seed(context.Background(), "Glow", "General")
	require.NoError(t, err)

	store, err := b.Catalog.FirstStore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Glow", store.Name)
}

func TestOpen_Supabase(t *testing.T) {
	cfg := &config.Config{
		Store:    config.StoreConfig{Backend: config.BackendSupabase},
		Supabase: config.SupabaseConfig{URL: "https://project.supabase.co", Key: "anon", ExportBucket: "exports"},
	}

	b, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer b.Close()

	assert.NotNil(t, b.Publisher, "supabase publishes exports to storage")
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Store: config.StoreConfig{Backend: "mongo"}})
	assert.ErrorContains(t, err, `unknown store backend "mongo"`)
}

func TestServiceOptions(t *testing.T) {
	cfg := &config.Config{Import: config.ImportConfig{
		MaxFileSize:      1 << 20,
		MaxConcurrent:    4,
		MaxWaitTime:      5 * time.Second,
		Timeout:          time.Minute,
		RatePerSecond:    50,
		Burst:            5,
		CategoryFallback: config.FallbackStoreID,
		ResultTTL:        2 * time.Hour,
	}}

	opts := (&Backend{}).ServiceOptions(cfg)
	assert.Equal(t, int64(1<<20), opts.MaxFileSize)
	assert.Equal(t, 4, opts.MaxConcurrent)
	assert.Equal(t, 50.0, opts.Importer.RatePerSecond)
	assert.Equal(t, core.FallbackStoreID, opts.Importer.Fallback)
	assert.Equal(t, 2*time.Hour, opts.ResultTTL)
	assert.Nil(t, opts.Results)
}
