package core

// importer.go creates products one row at a time.
//
// Rows are processed strictly in order. A failing row is recorded as
// "Row N: message" and the batch moves on; nothing is retried and no
// transaction spans rows, so a partially imported file is a normal outcome.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/JonMunkholm/catalogio/internal/catalog"
)

// Messages shown to admins verbatim, in the row error list or as the
// import error.
const (
	msgTextNoStores       = "No stores available. Please create a store before importing products."
	msgTextNoCategories   = "No categories available. Please create a category before importing products."
	msgTextProductRLS     = "RLS policy prevents product creation for %q. Please check database permissions."
	msgTextCategoryRLS    = "Failed to create category %q: RLS policy prevents category creation. Please check database permissions."
	msgTextCategoryFailed = "Failed to create category %q: %v"
)

var (
	// ErrNoStores aborts an import when the catalog has no store to own products.
	ErrNoStores error = &displayError{text: msgTextNoStores}

	// ErrNoCategories aborts an import when the catalog has no category at all.
	ErrNoCategories error = &displayError{text: msgTextNoCategories}
)

// displayError is an error whose text is written for the admin running the
// import. cause, when set, stays reachable through errors.Is and errors.As.
type displayError struct {
	text  string
	cause error
}

func (e *displayError) Error() string { return e.text }

func (e *displayError) Unwrap() error { return e.cause }

func displayErrorf(cause error, format string, args ...any) error {
	return &displayError{text: fmt.Sprintf(format, args...), cause: cause}
}

// CategoryFallback selects the category for rows that name none.
type CategoryFallback string

const (
	// FallbackFirstCategory uses the category found by the pre-import check.
	FallbackFirstCategory CategoryFallback = "first_category"

	// FallbackStoreID reuses the owning store's id as category id, matching
	// catalogs whose category foreign key accepts store ids.
	FallbackStoreID CategoryFallback = "store_id"
)

// ImporterOptions configures an Importer.
type ImporterOptions struct {
	// RatePerSecond caps store round trips per second; 0 disables throttling.
	RatePerSecond float64

	// Burst is the number of rows processed back to back before throttling.
	Burst int

	Fallback CategoryFallback
	Logger   *slog.Logger
}

// Importer writes normalized products into a ProductStore.
type Importer struct {
	store    ProductStore
	limit    rate.Limit
	burst    int
	fallback CategoryFallback
	logger   *slog.Logger
}

// NewImporter returns an Importer writing to store.
func NewImporter(store ProductStore, opts ImporterOptions) *Importer {
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	fallback := opts.Fallback
	if fallback == "" {
		fallback = FallbackFirstCategory
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Importer{
		store:    store,
		limit:    limit,
		burst:    burst,
		fallback: fallback,
		logger:   logger,
	}
}

// rowResult is what happened to a single row.
type rowResult int

const (
	rowCreated rowResult = iota
	rowSkipped
)

// Run imports products in order.
//
// A missing store or category aborts before any row with ErrNoStores or
// ErrNoCategories. Otherwise the returned outcome accounts for every row; the
// error is non-nil only when ctx ends mid-batch, in which case the outcome
// covers the rows processed so far.
func (im *Importer) Run(ctx context.Context, products []catalog.Product, progress ProgressCallback) (ImportOutcome, error) {
	outcome := ImportOutcome{TotalRows: len(products), Errors: []string{}}

	store, fallbackCategory, err := im.precheck(ctx)
	if err != nil {
		return outcome, err
	}

	// A fresh limiter per run keeps one job's burst from starving the next.
	limiter := rate.NewLimiter(im.limit, im.burst)

	report := ImportProgress{Phase: PhaseImporting, TotalRows: len(products)}
	for i, p := range products {
		if err := limiter.Wait(ctx); err != nil {
			return outcome, fmt.Errorf("import interrupted at row %d: %w", i+2, err)
		}

		result, err := im.importRow(ctx, p, store, fallbackCategory)
		switch {
		case err != nil:
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("Row %d: %s", i+2, err.Error()))
			report.Failed++
			im.logger.Debug("row failed", "row", i+2, "slug", p.Slug, "error", err)
		case result == rowSkipped:
			outcome.SkippedCount++
			report.Skipped++
		default:
			outcome.SuccessCount++
			report.Succeeded++
		}

		if progress != nil {
			report.CurrentRow = i + 1
			progress(report)
		}
	}

	return outcome, nil
}

// precheck finds the owning store and the fallback category once per file.
func (im *Importer) precheck(ctx context.Context) (Store, string, error) {
	store, err := im.store.FirstStore(ctx)
	if errors.Is(err, ErrNotFound) {
		return Store{}, "", ErrNoStores
	}
	if err != nil {
		return Store{}, "", fmt.Errorf("check stores: %w", err)
	}

	category, err := im.store.FirstCategory(ctx)
	if errors.Is(err, ErrNotFound) {
		return Store{}, "", ErrNoCategories
	}
	if err != nil {
		return Store{}, "", fmt.Errorf("check categories: %w", err)
	}

	fallback := category.ID
	if im.fallback == FallbackStoreID {
		fallback = store.ID
	}
	return store, fallback, nil
}

func (im *Importer) importRow(ctx context.Context, p catalog.Product, store Store, fallbackCategory string) (rowResult, error) {
	categoryID := ""
	if p.ProductCategory != "" {
		id, err := im.resolveCategory(ctx, p.ProductCategory)
		if err != nil {
			return 0, err
		}
		categoryID = id
	}
	if categoryID == "" {
		categoryID = fallbackCategory
	}

	if _, err := im.store.FindProductBySlug(ctx, p.Slug); err == nil {
		return rowSkipped, nil
	} else if !errors.Is(err, ErrNotFound) {
		return 0, fmt.Errorf("check slug %q: %w", p.Slug, err)
	}

	_, err := im.store.InsertProduct(ctx, NewProduct{
		Product:    p,
		CategoryID: categoryID,
		StoreID:    store.ID,
	})
	if IsPermissionDenied(err) {
		return 0, displayErrorf(nil, msgTextProductRLS, p.Name)
	}
	if err != nil {
		return 0, err
	}
	return rowCreated, nil
}

// resolveCategory finds a category by exact name, creating it when missing.
func (im *Importer) resolveCategory(ctx context.Context, name string) (string, error) {
	category, err := im.store.FindCategoryByName(ctx, name)
	if err == nil {
		return category.ID, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("look up category %q: %w", name, err)
	}

	category, err = im.store.CreateCategory(ctx, name, catalog.Slugify(name))
	if IsPermissionDenied(err) {
		return "", displayErrorf(nil, msgTextCategoryRLS, name)
	}
	if err != nil {
		return "", displayErrorf(err, msgTextCategoryFailed, name, err)
	}

	im.logger.Info("created category", "name", name, "id", category.ID)
	return category.ID, nil
}
