package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/catalogio/internal/core"
)

func TestCatalog_EmptyPrechecks(t *testing.T) {
	c := New()
	ctx := context.Background()

	_, err := c.FirstStore(ctx)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = c.FirstCategory(ctx)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCatalog_UniqueSlug(t *testing.T) {
	c := Seeded("Glow", "Skincare")
	ctx := context.Background()

	np := core.NewProduct{}
	np.Name, np.Slug = "Rose Toner", "rose-toner"

	ref, err := c.InsertProduct(ctx, np)
	require.NoError(t, err)
	assert.NotEmpty(t, ref.ID)

	found, err := c.FindProductBySlug(ctx, "rose-toner")
	require.NoError(t, err)
	assert.Equal(t, ref.ID, found.ID)

	_, err = c.InsertProduct(ctx, np)
	require.Error(t, err)
	assert.Equal(t, "DB001", core.MapError(err).Code)
}

// The import pipeline end to end against the memory catalog.
func TestImport_IdempotentAgainstMemoryCatalog(t *testing.T) {
	var b strings.Builder
	b.WriteString("name,slug,price,status\n")
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&b, "\"Lip Oil %d\",,%d.50,active\n", i, i)
	}

	c := Seeded("Glow", "Lips")
	svc := core.NewService(c, core.Options{})
	ctx := context.Background()

	first, err := svc.Import(ctx, "lips.csv", []byte(b.String()), nil)
	require.NoError(t, err)
	assert.Equal(t, 10, first.SuccessCount)

	second, err := svc.Import(ctx, "lips.csv", []byte(b.String()), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.SuccessCount)
	assert.Equal(t, 10, second.SkippedCount)
	assert.Empty(t, second.Errors)

	products, _ := c.ListProducts(ctx)
	assert.Len(t, products, 10)
	assert.Equal(t, "lip-oil-1", products[0].Slug)
}

func TestImport_NoStoreLeavesCatalogUntouched(t *testing.T) {
	c := New()
	c.AddCategory("Lips", "lips")
	svc := core.NewService(c, core.Options{})

	_, err := svc.Import(context.Background(), "lips.csv", []byte("name\nBalm\n"), nil)
	require.True(t, errors.Is(err, core.ErrNoStores))

	products, _ := c.ListProducts(context.Background())
	assert.Empty(t, products)
}
