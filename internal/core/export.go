package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/catalogio/internal/catalog"
)

// ExportContentType is the MIME type of exported files.
const ExportContentType = "text/csv;charset=utf-8"

// ErrPublishingDisabled is returned by PublishExport without a publisher.
var ErrPublishingDisabled = errors.New("export publishing is not configured")

// ExportPublisher uploads a finished export and returns where it can be fetched.
type ExportPublisher interface {
	PublishExport(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

// ExportFileName returns products_{format}_{YYYY-MM-DD}.csv for t.
func ExportFileName(format catalog.Format, t time.Time) string {
	return fmt.Sprintf("products_%s_%s.csv", format, t.Format("2006-01-02"))
}

// Export writes every stored product to w in the named format, one row per
// product, and returns the number of product rows written.
func (s *Service) Export(ctx context.Context, format string, w io.Writer) (int, error) {
	def, err := catalog.ParseFormat(format)
	if err != nil {
		return 0, err
	}

	records, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list products: %w", err)
	}

	products := make([]catalog.Product, len(records))
	for i, r := range records {
		products[i] = r.Product
	}

	if err := catalog.Write(w, def, products); err != nil {
		return 0, fmt.Errorf("write %s export: %w", def.Key, err)
	}
	return len(products), nil
}

// PublishExport renders an export and hands it to the configured publisher.
func (s *Service) PublishExport(ctx context.Context, format string, now time.Time) (string, error) {
	if s.publisher == nil {
		return "", ErrPublishingDisabled
	}

	def, err := catalog.ParseFormat(format)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	n, err := s.Export(ctx, string(def.Key), &buf)
	if err != nil {
		return "", err
	}

	name := ExportFileName(def.Key, now)
	url, err := s.publisher.PublishExport(ctx, name, ExportContentType, &buf)
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", name, err)
	}

	s.loggerFor(ctx).Info("export published", "format", def.Key, "products", n, "url", url)
	return url, nil
}
