package catalog

import (
	"strconv"

	"github.com/JonMunkholm/catalogio/internal/csvline"
)

var simpleColumns = []string{
	"name", "slug", "description", "short_description",
	"price", "compare_price", "sku", "status", "featured",
}

func init() {
	RegisterFormat(FormatDefinition{
		Key:         FormatSimple,
		Label:       "Simple",
		Description: "One row per product using the marketplace's own column names.",
		Columns:     simpleColumns,
		Sample: []string{
			"Velvet Matte Lipstick", "velvet-matte-lipstick", "Long wearing matte finish.",
			"Matte lipstick", "18.50", "24.00", "LIP-VM-01", "active", "true",
		},
		Parse:    ParseSimple,
		WriteRow: simpleRow,
	})
}

// ParseSimple maps simple-layout lines to products. Column names are matched
// exactly. Rows without a name are dropped without error.
func ParseSimple(header []string, lines []string) []Product {
	var products []Product
	for _, r := range dataRows(header, lines) {
		name := r.get("name")
		if name == "" {
			continue
		}

		slug := r.get("slug")
		if slug == "" {
			slug = Slugify(name)
		}

		products = append(products, Product{
			Name:             name,
			Slug:             slug,
			Description:      r.get("description"),
			ShortDescription: r.get("short_description"),
			Price:            ParsePrice(r.get("price")),
			ComparePrice:     ParseComparePrice(r.get("compare_price")),
			SKU:              r.get("sku"),
			Status:           ParseStatus(r.get("status")),
			Featured:         ParseFeatured(r.get("featured")),
		})
	}
	return products
}

func simpleRow(p Product) []string {
	return []string{
		csvline.Quote(p.Name),
		csvline.Quote(p.Slug),
		csvline.Quote(p.Description),
		csvline.Quote(p.ShortDescription),
		p.Price.String(),
		optionalDecimal(p.ComparePrice),
		csvline.Quote(p.SKU),
		csvline.Quote(string(p.Status)),
		strconv.FormatBool(p.Featured),
	}
}
