package catalog

// values.go turns raw cell text into typed product values.
//
// None of these functions fail. A cell that cannot be read falls back to the
// field's default so one sloppy column never drops a product:
//   - prices read their leading number ("12.50 EUR" is 12.50) and become 0 otherwise
//   - integers read their leading digits and use the caller's fallback otherwise
//   - featured is true only for "true" and "1"

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	leadingDecimal = regexp.MustCompile(`^[+-]?(\d+(\.\d+)?|\.\d+)`)
	leadingInteger = regexp.MustCompile(`^[+-]?\d+`)
)

// parseDecimal reads the numeric prefix of s.
func parseDecimal(s string) (decimal.Decimal, bool) {
	m := leadingDecimal.FindString(strings.TrimSpace(s))
	if m == "" {
		return decimal.Zero, false
	}
	m = strings.TrimPrefix(m, "+")
	switch {
	case strings.HasPrefix(m, "."):
		m = "0" + m
	case strings.HasPrefix(m, "-."):
		m = "-0" + m[1:]
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParsePrice returns a non-negative price, 0 when s holds no usable number.
func ParsePrice(s string) decimal.Decimal {
	d, ok := parseDecimal(s)
	if !ok || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ParseComparePrice returns nil when s holds no usable non-negative number.
func ParseComparePrice(s string) *decimal.Decimal {
	d, ok := parseDecimal(s)
	if !ok || d.IsNegative() {
		return nil
	}
	return &d
}

// ParseInt reads the leading integer of s, returning fallback when there is none.
func ParseInt(s string, fallback int) int {
	m := leadingInteger.FindString(strings.TrimSpace(s))
	if m == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimPrefix(m, "+"))
	if err != nil {
		return fallback
	}
	return n
}

// ParseFeatured reports whether s is one of the two truthy literals.
func ParseFeatured(s string) bool {
	return s == "true" || s == "1"
}

// ParseStatus maps a simple-layout status cell onto Status, defaulting to active.
func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusInactive:
		return StatusInactive
	case StatusOutOfStock:
		return StatusOutOfStock
	default:
		return StatusActive
	}
}

// ParseShopifyStatus maps vendor-export statuses: draft and archived
// products are inactive, everything else is active.
func ParseShopifyStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "draft", "archived":
		return StatusInactive
	default:
		return StatusActive
	}
}

// ParseTags splits a comma-separated tag list, dropping empty entries.
func ParseTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Slugify lowercases s and collapses every run of characters that are not
// letters or digits into a single hyphen, trimming hyphens at both ends.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
