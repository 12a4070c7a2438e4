// Package catalog maps product CSV files to normalized products and back.
//
// Two file layouts are understood: the marketplace's own "simple" layout and
// the "shopify" vendor-export layout, where consecutive rows sharing a Handle
// describe one product with several variants and images. Parsing never fails
// on bad values: prices, positions and inventory fall back to defaults.
package catalog

import "github.com/shopspring/decimal"

// Status is the lifecycle state of a product in the marketplace.
type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusOutOfStock Status = "out_of_stock"
)

// Product is the normalized form of one product, independent of file layout.
// Vendor-export-only fields stay zero for simple files.
type Product struct {
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	Description      string           `json:"description"`
	ShortDescription string           `json:"short_description"`
	Price            decimal.Decimal  `json:"price"`
	ComparePrice     *decimal.Decimal `json:"compare_price"`
	SKU              string           `json:"sku"`
	Status           Status           `json:"status"`
	Featured         bool             `json:"featured"`

	Vendor          string    `json:"vendor,omitempty"`
	ProductCategory string    `json:"product_category,omitempty"`
	Type            string    `json:"type,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	Variants        []Variant `json:"variants,omitempty"`
	Images          []Image   `json:"images,omitempty"`
}

// Variant is one purchasable option of a product.
type Variant struct {
	Option1Name  string           `json:"option1_name"`
	Option1Value string           `json:"option1_value"`
	Option2Name  string           `json:"option2_name,omitempty"`
	Option2Value string           `json:"option2_value,omitempty"`
	Price        decimal.Decimal  `json:"price"`
	ComparePrice *decimal.Decimal `json:"compare_price,omitempty"`
	SKU          string           `json:"sku"`
	Inventory    int              `json:"inventory"`
}

// Image is a product image. URLs are unique within a product.
type Image struct {
	URL      string `json:"url"`
	Position int    `json:"position"`
	Alt      string `json:"alt"`
}

// PrimaryInventory returns the first variant's inventory, or 0 without variants.
func (p Product) PrimaryInventory() int {
	if len(p.Variants) == 0 {
		return 0
	}
	return p.Variants[0].Inventory
}

// PrimaryImage returns the URL of the lowest-positioned image, or "".
func (p Product) PrimaryImage() string {
	best := -1
	for i, img := range p.Images {
		if best < 0 || img.Position < p.Images[best].Position {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return p.Images[best].URL
}

func (p Product) hasVariant(option1 string) bool {
	for _, v := range p.Variants {
		if v.Option1Value == option1 {
			return true
		}
	}
	return false
}

func (p Product) hasImage(url string) bool {
	for _, img := range p.Images {
		if img.URL == url {
			return true
		}
	}
	return false
}
