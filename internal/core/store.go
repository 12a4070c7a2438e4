package core

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by store lookups that match nothing.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied marks a store call rejected by row-level security
	// or missing grants. Backends wrap their native error with it.
	ErrPermissionDenied = errors.New("permission denied")
)

// ProductStore is the narrow slice of the marketplace backend the importer
// touches. Implementations live under internal/store.
type ProductStore interface {
	// FirstStore returns any one store, or ErrNotFound when there are none.
	FirstStore(ctx context.Context) (Store, error)

	// FirstCategory returns any one category, or ErrNotFound when there are none.
	FirstCategory(ctx context.Context) (Category, error)

	// FindCategoryByName matches the name exactly.
	FindCategoryByName(ctx context.Context, name string) (Category, error)

	CreateCategory(ctx context.Context, name, slug string) (Category, error)

	FindProductBySlug(ctx context.Context, slug string) (ProductRef, error)

	InsertProduct(ctx context.Context, p NewProduct) (ProductRef, error)
}

// CatalogReader lists stored products for export, oldest first.
type CatalogReader interface {
	ListProducts(ctx context.Context) ([]ProductRecord, error)
}

// Catalog is a backend that supports both import and export.
type Catalog interface {
	ProductStore
	CatalogReader
}

// IsPermissionDenied reports whether err came from a rejected store call.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// PermissionError wraps a backend error that means permission denied.
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	return "permission denied: " + e.Err.Error()
}

func (e *PermissionError) Unwrap() []error {
	return []error{ErrPermissionDenied, e.Err}
}
