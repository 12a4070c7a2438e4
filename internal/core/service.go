package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/catalogio/internal/catalog"
	"github.com/JonMunkholm/catalogio/internal/csvline"
)

var (
	// ErrFileTooLarge is returned for uploads above Options.MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")

	// ErrImportNotFound is returned for unknown or expired import ids.
	ErrImportNotFound = errors.New("import not found")
)

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	MaxFileSize   int64
	MaxConcurrent int
	MaxWaitTime   time.Duration

	// Timeout bounds a whole import job, including throttling waits.
	Timeout time.Duration

	// ResultTTL is how long finished jobs stay retrievable.
	ResultTTL time.Duration

	Importer ImporterOptions

	// Results persists finished jobs; defaults to an in-process store.
	Results ResultStore

	// Publisher receives published exports; nil disables publishing.
	Publisher ExportPublisher
}

const (
	defaultMaxFileSize = 10 << 20
	defaultTimeout     = 30 * time.Minute
	defaultResultTTL   = time.Hour
)

// Service provides product import and export on top of a Catalog.
type Service struct {
	catalog   Catalog
	importer  *Importer
	limiter   *ImportLimiter
	results   ResultStore
	publisher ExportPublisher
	opts      Options

	mu      sync.RWMutex
	imports map[string]*activeImport
}

// NewService creates a Service backed by c.
func NewService(c Catalog, opts Options) *Service {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = defaultMaxFileSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = defaultResultTTL
	}
	if opts.Results == nil {
		opts.Results = NewMemoryResults(opts.ResultTTL)
	}

	return &Service{
		catalog:   c,
		importer:  NewImporter(c, opts.Importer),
		limiter:   NewImportLimiter(opts.MaxConcurrent, opts.MaxWaitTime),
		results:   opts.Results,
		publisher: opts.Publisher,
		opts:      opts,
		imports:   make(map[string]*activeImport),
	}
}

// ParseFile decodes an uploaded file into products. Workbooks (.xlsx) are
// read from their first sheet; everything else is treated as CSV text.
func (s *Service) ParseFile(fileName string, data []byte) (catalog.Format, []catalog.Product, error) {
	if int64(len(data)) > s.opts.MaxFileSize {
		return "", nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, len(data), s.opts.MaxFileSize)
	}

	var text string
	if strings.EqualFold(filepath.Ext(fileName), ".xlsx") {
		t, err := catalog.XLSXToCSV(bytes.NewReader(data))
		if err != nil {
			return "", nil, err
		}
		text = t
	} else {
		text = csvline.Normalize(data)
	}

	return catalog.Parse(text)
}

// Import parses and imports a file synchronously, holding an import slot
// for its duration. Fatal problems (unreadable file, no store, no category)
// are returned as errors; row failures are reported in the result.
func (s *Service) Import(ctx context.Context, fileName string, data []byte, progress ProgressCallback) (*ImportResult, error) {
	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	return s.runImport(ctx, "", fileName, data, progress)
}

// runImport executes one job. The result is never nil; when the job was
// aborted its Error field repeats the returned error.
func (s *Service) runImport(ctx context.Context, importID, fileName string, data []byte, progress ProgressCallback) (*ImportResult, error) {
	started := time.Now()
	result := &ImportResult{
		ImportID:  importID,
		FileName:  fileName,
		StartedAt: started,
	}
	logger := s.importer.logger.With("import_id", importID, "file", fileName)

	report := func(p ImportProgress) {
		if progress != nil {
			p.ImportID = importID
			p.FileName = fileName
			p.Format = result.Format
			progress(p)
		}
	}

	report(ImportProgress{Phase: PhaseParsing})
	format, products, err := s.ParseFile(fileName, data)
	if err != nil {
		result.Error = err.Error()
		result.Duration = time.Since(started)
		logger.Warn("import rejected", "error", err)
		return result, err
	}
	result.Format = format
	result.TotalRows = len(products)

	report(ImportProgress{Phase: PhaseChecking, TotalRows: len(products)})
	outcome, err := s.importer.Run(ctx, products, report)
	result.ImportOutcome = outcome
	result.Duration = time.Since(started)
	if err != nil {
		result.Error = err.Error()
		logger.Warn("import aborted", "error", err, "succeeded", outcome.SuccessCount)
		return result, err
	}

	logger.Info("import finished",
		"format", format,
		"rows", outcome.TotalRows,
		"succeeded", outcome.SuccessCount,
		"skipped", outcome.SkippedCount,
		"failed", len(outcome.Errors),
		"duration", result.Duration,
	)
	return result, nil
}

// LimiterStatus returns the state of the import slot limiter.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running import jobs finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// MaxFileSize returns the configured upload limit in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.opts.MaxFileSize
}

func (s *Service) loggerFor(ctx context.Context) *slog.Logger {
	logger := s.importer.logger
	if ip := GetIPAddressFromContext(ctx); ip != "" {
		logger = logger.With("ip", ip)
	}
	if ua := GetUserAgentFromContext(ctx); ua != "" {
		logger = logger.With("user_agent", ua)
	}
	return logger
}
