package catalog

import (
	"strconv"
	"strings"

	"github.com/JonMunkholm/catalogio/internal/csvline"
)

// Columns this system does not model are exported as fixed values.
const (
	shopifyInventoryTracker  = "shopify"
	shopifyInventoryPolicy   = "continue"
	shopifyFulfillment       = "manual"
	shopifyDefaultOptionName = "Title"
	shopifyDefaultOption     = "Default Title"
)

var shopifyColumns = []string{
	"Handle", "Title", "Body (HTML)", "Vendor", "Product Category", "Type", "Tags", "Published",
	"Option1 Name", "Option1 Value", "Variant SKU", "Variant Grams",
	"Variant Inventory Tracker", "Variant Inventory Qty", "Variant Inventory Policy",
	"Variant Fulfillment Service", "Variant Price", "Variant Compare At Price",
	"Variant Requires Shipping", "Image Src", "Status",
}

func init() {
	RegisterFormat(FormatDefinition{
		Key:         FormatShopify,
		Label:       "Shopify",
		Description: "Vendor export: rows sharing a Handle are variants and images of one product.",
		Columns:     shopifyColumns,
		Sample: []string{
			"velvet-matte-lipstick", "Velvet Matte Lipstick", "<p>Long wearing matte finish.</p>",
			"Maison Rose", "Lipstick", "Makeup", "lips, matte", "TRUE",
			"Shade", "Ruby", "LIP-VM-RUBY", "25",
			shopifyInventoryTracker, "25", shopifyInventoryPolicy,
			shopifyFulfillment, "18.50", "24.00",
			"TRUE", "https://cdn.example.com/lipstick-ruby.jpg", "active",
		},
		Parse:    ParseShopify,
		WriteRow: shopifyRow,
	})
}

// ParseShopify maps vendor-export lines to products, grouping rows by Handle.
//
// The first row of a handle carries the product fields, its first variant and
// image. Later rows add a variant when their Option1 Value is new and an
// image when their Image Src is new. Rows without a handle, and rows without a
// title whose handle has not been seen yet, are ignored. Products come back in
// the order their handles first appear.
func ParseShopify(header []string, lines []string) []Product {
	var (
		order    []string
		products = make(map[string]*Product)
	)

	for _, r := range dataRows(header, lines) {
		handle := r.get("Handle")
		if handle == "" {
			continue
		}

		p, seen := products[handle]
		if !seen {
			if r.get("Title") == "" {
				continue
			}
			p = newShopifyProduct(handle, r)
			products[handle] = p
			order = append(order, handle)
		}

		if v := r.get("Option1 Value"); v != "" && !p.hasVariant(v) {
			p.Variants = append(p.Variants, shopifyVariant(r))
		}

		if src := r.get("Image Src"); src != "" && !p.hasImage(src) {
			fallback := 1
			if seen {
				fallback = len(p.Images) + 1
			}
			p.Images = append(p.Images, Image{
				URL:      src,
				Position: ParseInt(r.get("Image Position"), fallback),
				Alt:      r.get("Image Alt Text"),
			})
		}
	}

	result := make([]Product, 0, len(order))
	for _, h := range order {
		result = append(result, *products[h])
	}
	return result
}

func newShopifyProduct(handle string, r row) *Product {
	return &Product{
		Name:            r.get("Title"),
		Slug:            Slugify(handle),
		Description:     r.get("Body (HTML)"),
		Price:           ParsePrice(r.get("Variant Price")),
		ComparePrice:    ParseComparePrice(r.get("Variant Compare At Price")),
		SKU:             r.get("Variant SKU"),
		Status:          ParseShopifyStatus(r.get("Status")),
		Vendor:          r.get("Vendor"),
		ProductCategory: r.get("Product Category"),
		Type:            r.get("Type"),
		Tags:            ParseTags(r.get("Tags")),
	}
}

func shopifyVariant(r row) Variant {
	return Variant{
		Option1Name:  r.get("Option1 Name"),
		Option1Value: r.get("Option1 Value"),
		Option2Name:  r.get("Option2 Name"),
		Option2Value: r.get("Option2 Value"),
		Price:        ParsePrice(r.get("Variant Price")),
		ComparePrice: ParseComparePrice(r.get("Variant Compare At Price")),
		SKU:          r.get("Variant SKU"),
		Inventory:    ParseInt(r.get("Variant Grams"), 0),
	}
}

// shopifyRow emits a single row per product: only the primary price, SKU,
// inventory and image survive an export.
func shopifyRow(p Product) []string {
	published, status := "TRUE", "active"
	if p.Status == StatusInactive {
		published, status = "FALSE", "draft"
	}
	inventory := strconv.Itoa(p.PrimaryInventory())

	return []string{
		csvline.Quote(p.Slug),
		csvline.Quote(p.Name),
		csvline.Quote(p.Description),
		csvline.Quote(p.Vendor),
		csvline.Quote(p.ProductCategory),
		csvline.Quote(p.Type),
		csvline.Quote(strings.Join(p.Tags, ", ")),
		published,
		csvline.Quote(shopifyDefaultOptionName),
		csvline.Quote(shopifyDefaultOption),
		csvline.Quote(p.SKU),
		inventory,
		shopifyInventoryTracker,
		inventory,
		shopifyInventoryPolicy,
		shopifyFulfillment,
		p.Price.String(),
		optionalDecimal(p.ComparePrice),
		"TRUE",
		csvline.Quote(p.PrimaryImage()),
		status,
	}
}
