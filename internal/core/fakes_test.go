package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// fakeCatalog is an in-memory Catalog with switches for failure modes.
type fakeCatalog struct {
	mu sync.Mutex

	stores     []Store
	categories []Category
	products   []ProductRecord

	// failSlugs makes InsertProduct fail for the given slugs.
	failSlugs map[string]error

	denyCategoryCreate bool
	createCategoryErr  error
	denyProductInsert  bool

	// insertDelay slows every insert, for tests that watch a running job.
	insertDelay time.Duration

	nextID int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		stores:     []Store{{ID: "store-1", Name: "Glow"}},
		categories: []Category{{ID: "cat-1", Name: "Skincare", Slug: "skincare"}},
		failSlugs:  make(map[string]error),
	}
}

func (f *fakeCatalog) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeCatalog) FirstStore(context.Context) (Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.stores) == 0 {
		return Store{}, ErrNotFound
	}
	return f.stores[0], nil
}

func (f *fakeCatalog) FirstCategory(context.Context) (Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.categories) == 0 {
		return Category{}, ErrNotFound
	}
	return f.categories[0], nil
}

func (f *fakeCatalog) FindCategoryByName(_ context.Context, name string) (Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.Name == name {
			return c, nil
		}
	}
	return Category{}, ErrNotFound
}

func (f *fakeCatalog) CreateCategory(_ context.Context, name, slug string) (Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denyCategoryCreate {
		return Category{}, &PermissionError{Err: errors.New("new row violates row-level security policy")}
	}
	if f.createCategoryErr != nil {
		return Category{}, f.createCategoryErr
	}
	c := Category{ID: f.id("cat"), Name: name, Slug: slug}
	f.categories = append(f.categories, c)
	return c, nil
}

func (f *fakeCatalog) FindProductBySlug(_ context.Context, slug string) (ProductRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.Slug == slug {
			return ProductRef{ID: p.ID, Slug: p.Slug}, nil
		}
	}
	return ProductRef{}, ErrNotFound
}

func (f *fakeCatalog) InsertProduct(_ context.Context, np NewProduct) (ProductRef, error) {
	if f.insertDelay > 0 {
		time.Sleep(f.insertDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denyProductInsert {
		return ProductRef{}, &PermissionError{Err: errors.New("new row violates row-level security policy")}
	}
	if err, ok := f.failSlugs[np.Slug]; ok {
		return ProductRef{}, err
	}
	rec := ProductRecord{
		Product:    np.Product,
		ID:         f.id("prod"),
		CategoryID: np.CategoryID,
		StoreID:    np.StoreID,
		CreatedAt:  time.Now(),
	}
	f.products = append(f.products, rec)
	return ProductRef{ID: rec.ID, Slug: rec.Slug}, nil
}

func (f *fakeCatalog) ListProducts(context.Context) ([]ProductRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ProductRecord(nil), f.products...), nil
}

func (f *fakeCatalog) productCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.products)
}

// fakePublisher records published exports.
type fakePublisher struct {
	name        string
	contentType string
	body        string
	err         error
}

func (p *fakePublisher) PublishExport(_ context.Context, name, contentType string, body io.Reader) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	p.name, p.contentType, p.body = name, contentType, string(b)
	return "https://cdn.example.com/exports/" + name, nil
}
