package catalog

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/catalogio/internal/csvline"
)

// Format identifies a CSV layout.
type Format string

const (
	FormatSimple  Format = "simple"
	FormatShopify Format = "shopify"
)

var (
	// ErrEmptyFile is returned when a file has no header line.
	ErrEmptyFile = errors.New("csv file is empty")

	// ErrUnknownFormat is returned for a format that is not registered.
	ErrUnknownFormat = errors.New("unknown csv format")
)

// FormatDefinition describes how one layout is read and written.
type FormatDefinition struct {
	Key         Format
	Label       string
	Description string

	// Columns is the header written on export and in templates.
	Columns []string

	// Sample is an example data row aligned with Columns, used by templates.
	Sample []string

	// Parse turns the tokenized header and the remaining raw lines into products.
	Parse func(header []string, lines []string) []Product

	// WriteRow serializes one product to already-quoted fields aligned with Columns.
	WriteRow func(p Product) []string
}

var (
	formats   = make(map[Format]FormatDefinition)
	formatsMu sync.RWMutex
)

// RegisterFormat adds a layout to the registry.
// Panics if a layout with the same key is already registered.
func RegisterFormat(def FormatDefinition) {
	formatsMu.Lock()
	defer formatsMu.Unlock()

	if _, exists := formats[def.Key]; exists {
		panic(fmt.Sprintf("format already registered: %s", def.Key))
	}
	formats[def.Key] = def
}

// LookupFormat returns a layout by key.
func LookupFormat(key Format) (FormatDefinition, bool) {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	def, ok := formats[key]
	return def, ok
}

// ParseFormat resolves a user-supplied format name.
func ParseFormat(s string) (FormatDefinition, error) {
	def, ok := LookupFormat(Format(strings.ToLower(strings.TrimSpace(s))))
	if !ok {
		return FormatDefinition{}, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return def, nil
}

// Formats returns all registered layouts sorted by key.
func Formats() []FormatDefinition {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	result := make([]FormatDefinition, 0, len(formats))
	for _, def := range formats {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// DetectFormat classifies a tokenized header. A header naming Handle, Title
// and Vendor is a vendor export; anything else is read as simple.
func DetectFormat(header []string) Format {
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		seen[h] = true
	}
	if seen["Handle"] && seen["Title"] && seen["Vendor"] {
		return FormatShopify
	}
	return FormatSimple
}

// Parse reads a whole file: the first line is the header, its layout is
// detected and the remaining lines are mapped to products.
func Parse(text string) (Format, []Product, error) {
	lines := csvline.Lines(text)
	if len(lines) == 0 || csvline.IsBlank(lines[0]) {
		return "", nil, ErrEmptyFile
	}

	header := csvline.Split(lines[0])
	format := DetectFormat(header)
	def, ok := LookupFormat(format)
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return format, def.Parse(header, lines[1:]), nil
}

// Write serializes products under def: the header, then one line per product.
func Write(w io.Writer, def FormatDefinition, products []Product) error {
	cw := csvline.NewWriter(w)
	cw.WriteRow(def.Columns)
	for _, p := range products {
		cw.WriteRow(def.WriteRow(p))
	}
	return cw.Flush()
}

// row gives header-keyed access to one tokenized line.
// Columns missing from a short line read as "".
type row struct {
	index  map[string]int
	fields []string
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	return idx
}

func (r row) get(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

// dataRows tokenizes every non-blank line.
func dataRows(header []string, lines []string) []row {
	idx := headerIndex(header)
	rows := make([]row, 0, len(lines))
	for _, line := range lines {
		if csvline.IsBlank(line) {
			continue
		}
		rows = append(rows, row{index: idx, fields: csvline.Split(line)})
	}
	return rows
}

func optionalDecimal(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
