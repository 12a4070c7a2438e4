// Package memory is an in-process catalog for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/catalogio/internal/core"
)

// Catalog keeps stores, categories and products in memory.
// Product slugs are unique, like the marketplace schema's constraint.
type Catalog struct {
	mu         sync.RWMutex
	stores     []core.Store
	categories []core.Category
	products   []core.ProductRecord
	slugs      map[string]int
	now        func() time.Time
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		slugs: make(map[string]int),
		now:   time.Now,
	}
}

// Seeded returns a catalog with one store and one category, enough for an
// import to pass its prechecks.
func Seeded(storeName, categoryName string) *Catalog {
	c := New()
	c.AddStore(storeName)
	c.AddCategory(categoryName, "")
	return c
}

// AddStore registers a store and returns it.
func (c *Catalog) AddStore(name string) core.Store {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := core.Store{ID: uuid.NewString(), Name: name}
	c.stores = append(c.stores, s)
	return s
}

// AddCategory registers a category. An empty slug is left empty.
func (c *Catalog) AddCategory(name, slug string) core.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addCategoryLocked(name, slug)
}

func (c *Catalog) addCategoryLocked(name, slug string) core.Category {
	cat := core.Category{ID: uuid.NewString(), Name: name, Slug: slug}
	c.categories = append(c.categories, cat)
	return cat
}

func (c *Catalog) FirstStore(context.Context) (core.Store, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.stores) == 0 {
		return core.Store{}, core.ErrNotFound
	}
	return c.stores[0], nil
}

func (c *Catalog) FirstCategory(context.Context) (core.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.categories) == 0 {
		return core.Category{}, core.ErrNotFound
	}
	return c.categories[0], nil
}

func (c *Catalog) FindCategoryByName(_ context.Context, name string) (core.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, cat := range c.categories {
		if cat.Name == name {
			return cat, nil
		}
	}
	return core.Category{}, core.ErrNotFound
}

func (c *Catalog) CreateCategory(_ context.Context, name, slug string) (core.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addCategoryLocked(name, slug), nil
}

func (c *Catalog) FindProductBySlug(_ context.Context, slug string) (core.ProductRef, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.slugs[slug]
	if !ok {
		return core.ProductRef{}, core.ErrNotFound
	}
	return core.ProductRef{ID: c.products[i].ID, Slug: slug}, nil
}

func (c *Catalog) InsertProduct(_ context.Context, p core.NewProduct) (core.ProductRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.slugs[p.Slug]; exists {
		return core.ProductRef{}, fmt.Errorf("duplicate key value violates unique constraint: slug %q", p.Slug)
	}

	rec := core.ProductRecord{
		Product:    p.Product,
		ID:         uuid.NewString(),
		CategoryID: p.CategoryID,
		StoreID:    p.StoreID,
		CreatedAt:  c.now(),
	}
	c.slugs[p.Slug] = len(c.products)
	c.products = append(c.products, rec)
	return core.ProductRef{ID: rec.ID, Slug: rec.Slug}, nil
}

// ListProducts returns products in insertion order.
func (c *Catalog) ListProducts(context.Context) ([]core.ProductRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]core.ProductRecord, len(c.products))
	copy(out, c.products)
	return out, nil
}

// Categories returns a copy of all categories.
func (c *Catalog) Categories() []core.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]core.Category, len(c.categories))
	copy(out, c.categories)
	return out
}

var _ core.Catalog = (*Catalog)(nil)
