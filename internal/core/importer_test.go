package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/JonMunkholm/catalogio/internal/catalog"
)

func testProducts(n int) []catalog.Product {
	products := make([]catalog.Product, n)
	for i := range products {
		products[i] = catalog.Product{
			Name:   fmt.Sprintf("Serum %d", i+1),
			Slug:   fmt.Sprintf("serum-%d", i+1),
			Price:  decimal.NewFromInt(int64(10 + i)),
			Status: catalog.StatusActive,
		}
	}
	return products
}

func TestImporterRun_AllRowsSucceed(t *testing.T) {
	store := newFakeCatalog()
	im := NewImporter(store, ImporterOptions{})

	outcome, err := im.Run(context.Background(), testProducts(5), nil)
	require.NoError(t, err)

	assert.Equal(t, 5, outcome.SuccessCount)
	assert.Equal(t, 0, outcome.SkippedCount)
	assert.Empty(t, outcome.Errors)
	assert.Equal(t, 5, outcome.TotalRows)

	records, _ := store.ListProducts(context.Background())
	for _, r := range records {
		assert.Equal(t, "store-1", r.StoreID)
		assert.Equal(t, "cat-1", r.CategoryID)
	}
}

func TestImporterRun_PartialFailure(t *testing.T) {
	store := newFakeCatalog()
	store.failSlugs["serum-3"] = errors.New("value too long for type character varying(255)")
	store.failSlugs["serum-7"] = errors.New("null value in column \"price\"")

	im := NewImporter(store, ImporterOptions{})
	outcome, err := im.Run(context.Background(), testProducts(10), nil)
	require.NoError(t, err)

	assert.Equal(t, 8, outcome.SuccessCount)
	require.Len(t, outcome.Errors, 2)
	assert.Equal(t, "Row 4: value too long for type character varying(255)", outcome.Errors[0])
	assert.Contains(t, outcome.Errors[1], "Row 8:")
	assert.Equal(t, 8, store.productCount())
}

func TestImporterRun_ExistingSlugsAreSkipped(t *testing.T) {
	store := newFakeCatalog()
	im := NewImporter(store, ImporterOptions{})
	ctx := context.Background()

	first, err := im.Run(ctx, testProducts(4), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, first.SuccessCount)

	second, err := im.Run(ctx, testProducts(4), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.SuccessCount)
	assert.Equal(t, 4, second.SkippedCount)
	assert.Empty(t, second.Errors)
	assert.Equal(t, 4, store.productCount())
}

func TestImporterRun_NoStores(t *testing.T) {
	store := newFakeCatalog()
	store.stores = nil

	outcome, err := NewImporter(store, ImporterOptions{}).Run(context.Background(), testProducts(3), nil)
	require.ErrorIs(t, err, ErrNoStores)
	assert.Equal(t, "No stores available. Please create a store before importing products.", err.Error())
	assert.Zero(t, outcome.SuccessCount)
	assert.Zero(t, store.productCount())
}

func TestImporterRun_NoCategories(t *testing.T) {
	store := newFakeCatalog()
	store.categories = nil

	_, err := NewImporter(store, ImporterOptions{}).Run(context.Background(), testProducts(3), nil)
	require.ErrorIs(t, err, ErrNoCategories)
	assert.Zero(t, store.productCount())
}

func TestImporterRun_CreatesMissingCategory(t *testing.T) {
	store := newFakeCatalog()
	products := testProducts(2)
	products[0].ProductCategory = "Lip Care & Balms"
	products[1].ProductCategory = "Lip Care & Balms"

	outcome, err := NewImporter(store, ImporterOptions{}).Run(context.Background(), products, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.SuccessCount)

	require.Len(t, store.categories, 2, "category should be created once")
	created := store.categories[1]
	assert.Equal(t, "Lip Care & Balms", created.Name)
	assert.Equal(t, "lip-care-balms", created.Slug)

	records, _ := store.ListProducts(context.Background())
	for _, r := range records {
		assert.Equal(t, created.ID, r.CategoryID)
	}
}

func TestImporterRun_RLSMessages(t *testing.T) {
	t.Run("category", func(t *testing.T) {
		store := newFakeCatalog()
		store.denyCategoryCreate = true
		products := testProducts(1)
		products[0].ProductCategory = "Fragrance"

		outcome, err := NewImporter(store, ImporterOptions{}).Run(context.Background(), products, nil)
		require.NoError(t, err)
		require.Len(t, outcome.Errors, 1)
		assert.Equal(t,
			`Row 2: Failed to create category "Fragrance": RLS policy prevents category creation. Please check database permissions.`,
			outcome.Errors[0])
	})

	t.Run("product", func(t *testing.T) {
		store := newFakeCatalog()
		store.denyProductInsert = true

		outcome, err := NewImporter(store, ImporterOptions{}).Run(context.Background(), testProducts(1), nil)
		require.NoError(t, err)
		require.Len(t, outcome.Errors, 1)
		assert.Equal(t,
			`Row 2: RLS policy prevents product creation for "Serum 1". Please check database permissions.`,
			outcome.Errors[0])
	})
}

func TestImporterRun_CategoryCreateFailureKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	store := newFakeCatalog()
	store.createCategoryErr = cause
	products := testProducts(1)
	products[0].ProductCategory = "Nails"

	im := NewImporter(store, ImporterOptions{})
	_, err := im.resolveCategory(context.Background(), "Nails")
	require.ErrorIs(t, err, cause)
	assert.Equal(t, `Failed to create category "Nails": disk full`, err.Error())

	outcome, err := im.Run(context.Background(), products, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{`Row 2: Failed to create category "Nails": disk full`}, outcome.Errors)
}

func TestImportMessagesSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("import products.csv: %w", ErrNoStores)
	require.ErrorIs(t, wrapped, ErrNoStores)
	assert.NotErrorIs(t, wrapped, ErrNoCategories)
	assert.Equal(t, "import products.csv: No stores available. Please create a store before importing products.", wrapped.Error())

	var display *displayError
	require.ErrorAs(t, wrapped, &display)
	assert.Nil(t, display.Unwrap())
}

func TestImporterRun_FallbackStoreID(t *testing.T) {
	store := newFakeCatalog()
	im := NewImporter(store, ImporterOptions{Fallback: FallbackStoreID})

	_, err := im.Run(context.Background(), testProducts(1), nil)
	require.NoError(t, err)

	records, _ := store.ListProducts(context.Background())
	require.Len(t, records, 1)
	assert.Equal(t, "store-1", records[0].CategoryID)
}

func TestImporterRun_Progress(t *testing.T) {
	store := newFakeCatalog()
	store.failSlugs["serum-2"] = errors.New("boom")

	var updates []ImportProgress
	_, err := NewImporter(store, ImporterOptions{}).Run(context.Background(), testProducts(3), func(p ImportProgress) {
		updates = append(updates, p)
	})
	require.NoError(t, err)

	require.Len(t, updates, 3)
	last := updates[2]
	assert.Equal(t, PhaseImporting, last.Phase)
	assert.Equal(t, 3, last.CurrentRow)
	assert.Equal(t, 2, last.Succeeded)
	assert.Equal(t, 1, last.Failed)
	assert.Equal(t, 100, last.Percent())
}

func TestImporterRun_Throttled(t *testing.T) {
	store := newFakeCatalog()
	im := NewImporter(store, ImporterOptions{RatePerSecond: 100, Burst: 10})

	start := time.Now()
	outcome, err := im.Run(context.Background(), testProducts(30), nil)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 30, outcome.SuccessCount)
	// 10 rows go through at once, the other 20 wait 10ms each.
	assert.GreaterOrEqual(t, elapsed, 180*time.Millisecond)
}

func TestImporterRun_ZeroRateIsUnthrottled(t *testing.T) {
	store := newFakeCatalog()
	im := NewImporter(store, ImporterOptions{RatePerSecond: 0, Burst: 10})
	assert.Equal(t, rate.Inf, im.limit)

	start := time.Now()
	outcome, err := im.Run(context.Background(), testProducts(30), nil)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 30, outcome.SuccessCount)
	assert.Less(t, elapsed, 100*time.Millisecond)
}

func TestImporterRun_ThrottleHonoursContext(t *testing.T) {
	store := newFakeCatalog()
	im := NewImporter(store, ImporterOptions{RatePerSecond: 1, Burst: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := im.Run(ctx, testProducts(5), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, outcome.SuccessCount, 5)
}
