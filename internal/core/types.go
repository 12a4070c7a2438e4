// Package core provides the business logic for product CSV import and export.
// This package has no transport dependencies and can be used by any frontend.
package core

import (
	"time"

	"github.com/JonMunkholm/catalogio/internal/catalog"
)

// Store is a merchant store that owns imported products.
type Store struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Category is a product category.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ProductRef identifies a stored product.
type ProductRef struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// NewProduct is a normalized product ready to be inserted.
type NewProduct struct {
	catalog.Product
	CategoryID string
	StoreID    string
}

// ProductRecord is a product as read back from the catalog.
type ProductRecord struct {
	catalog.Product
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	StoreID    string    `json:"store_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// ImportPhase indicates the current stage of an import job.
type ImportPhase string

const (
	PhaseQueued    ImportPhase = "queued"
	PhaseParsing   ImportPhase = "parsing"
	PhaseChecking  ImportPhase = "checking"
	PhaseImporting ImportPhase = "importing"
	PhaseComplete  ImportPhase = "complete"
	PhaseFailed    ImportPhase = "failed"
)

// ImportProgress represents the current state of an import job.
type ImportProgress struct {
	ImportID   string         `json:"import_id"`
	Phase      ImportPhase    `json:"phase"`
	FileName   string         `json:"file_name"`
	Format     catalog.Format `json:"format,omitempty"`
	TotalRows  int            `json:"total_rows"`
	CurrentRow int            `json:"current_row"`
	Succeeded  int            `json:"succeeded"`
	Skipped    int            `json:"skipped"`
	Failed     int            `json:"failed"`
	Error      string         `json:"error,omitempty"`
}

// Percent returns the progress as a percentage (0-100).
func (p ImportProgress) Percent() int {
	if p.TotalRows <= 0 {
		if p.Phase == PhaseComplete {
			return 100
		}
		return 0
	}
	return (p.CurrentRow * 100) / p.TotalRows
}

// ImportOutcome is the per-row accounting of one import run.
//
// Rows whose slug already exists are counted in SkippedCount only, so for a
// finished run SuccessCount + SkippedCount + len(Errors) == TotalRows.
type ImportOutcome struct {
	SuccessCount int      `json:"success_count"`
	SkippedCount int      `json:"skipped_count"`
	Errors       []string `json:"errors"`
	TotalRows    int      `json:"total_rows"`
}

// ImportResult is the final report of an import job.
type ImportResult struct {
	ImportID string         `json:"import_id"`
	FileName string         `json:"file_name"`
	Format   catalog.Format `json:"format"`
	ImportOutcome
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	// Error is set when the import was aborted before or during the row loop.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the import was aborted.
func (r *ImportResult) Failed() bool {
	return r.Error != ""
}

// ProgressCallback is called after every processed row.
type ProgressCallback func(ImportProgress)
