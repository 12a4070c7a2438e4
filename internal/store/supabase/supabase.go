// Package supabase implements the catalog over a Supabase project's REST
// API (PostgREST) and publishes exports to its Storage service.
//
// Requests carry the configured API key, so row-level security policies apply
// exactly as they do for the admin dashboard.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/JonMunkholm/catalogio/internal/catalog"
	"github.com/JonMunkholm/catalogio/internal/core"
)

const (
	tableStores     = "stores"
	tableCategories = "categories"
	tableProducts   = "products"
)

// Catalog is a core.Catalog backed by PostgREST.
//
// The underlying client is not context aware; ctx is checked before each
// request so a cancelled import stops at the next row.
type Catalog struct {
	client *supabase.Client
}

// NewClient connects to a Supabase project.
func NewClient(url, key string) (*supabase.Client, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{Schema: "public"})
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	return client, nil
}

// New wraps a client.
func New(client *supabase.Client) *Catalog {
	return &Catalog{client: client}
}

type storeRow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type categoryRow struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type productRow struct {
	ID               string            `json:"id,omitempty"`
	StoreID          string            `json:"store_id"`
	CategoryID       string            `json:"category_id"`
	Name             string            `json:"name"`
	Slug             string            `json:"slug"`
	Description      string            `json:"description"`
	ShortDescription string            `json:"short_description"`
	Price            decimal.Decimal   `json:"price"`
	ComparePrice     *decimal.Decimal  `json:"compare_price"`
	SKU              string            `json:"sku"`
	Status           string            `json:"status"`
	Featured         bool              `json:"featured"`
	Vendor           string            `json:"vendor"`
	ProductType      string            `json:"product_type"`
	Tags             []string          `json:"tags"`
	Variants         []catalog.Variant `json:"variants"`
	Images           []catalog.Image   `json:"images"`
	CreatedAt        *time.Time        `json:"created_at,omitempty"`

	// Embedded resource on reads: categories(name).
	Category *categoryRow `json:"categories,omitempty"`
}

func (c *Catalog) FirstStore(ctx context.Context) (core.Store, error) {
	var rows []storeRow
	err := c.run(ctx, c.client.From(tableStores).
		Select("id,name", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Limit(1, ""), &rows)
	if err != nil {
		return core.Store{}, err
	}
	if len(rows) == 0 {
		return core.Store{}, core.ErrNotFound
	}
	return core.Store{ID: rows[0].ID, Name: rows[0].Name}, nil
}

func (c *Catalog) FirstCategory(ctx context.Context) (core.Category, error) {
	var rows []categoryRow
	err := c.run(ctx, c.client.From(tableCategories).
		Select("id,name,slug", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Limit(1, ""), &rows)
	if err != nil {
		return core.Category{}, err
	}
	return firstCategory(rows)
}

func (c *Catalog) FindCategoryByName(ctx context.Context, name string) (core.Category, error) {
	var rows []categoryRow
	err := c.run(ctx, c.client.From(tableCategories).
		Select("id,name,slug", "", false).
		Eq("name", name).
		Limit(1, ""), &rows)
	if err != nil {
		return core.Category{}, err
	}
	return firstCategory(rows)
}

func (c *Catalog) CreateCategory(ctx context.Context, name, slug string) (core.Category, error) {
	var rows []categoryRow
	err := c.run(ctx, c.client.From(tableCategories).
		Insert(categoryRow{Name: name, Slug: slug}, false, "", "representation", ""), &rows)
	if err != nil {
		return core.Category{}, err
	}
	return firstCategory(rows)
}

func (c *Catalog) FindProductBySlug(ctx context.Context, slug string) (core.ProductRef, error) {
	var rows []productRow
	err := c.run(ctx, c.client.From(tableProducts).
		Select("id,slug", "", false).
		Eq("slug", slug).
		Limit(1, ""), &rows)
	if err != nil {
		return core.ProductRef{}, err
	}
	if len(rows) == 0 {
		return core.ProductRef{}, core.ErrNotFound
	}
	return core.ProductRef{ID: rows[0].ID, Slug: rows[0].Slug}, nil
}

func (c *Catalog) InsertProduct(ctx context.Context, p core.NewProduct) (core.ProductRef, error) {
	row := productRow{
		StoreID:          p.StoreID,
		CategoryID:       p.CategoryID,
		Name:             p.Name,
		Slug:             p.Slug,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		Price:            p.Price,
		ComparePrice:     p.ComparePrice,
		SKU:              p.SKU,
		Status:           string(p.Status),
		Featured:         p.Featured,
		Vendor:           p.Vendor,
		ProductType:      p.Type,
		Tags:             p.Tags,
		Variants:         p.Variants,
		Images:           p.Images,
	}

	var rows []productRow
	err := c.run(ctx, c.client.From(tableProducts).
		Insert(row, false, "", "representation", ""), &rows)
	if err != nil {
		return core.ProductRef{}, err
	}
	if len(rows) == 0 {
		return core.ProductRef{}, fmt.Errorf("insert product %q: empty response", p.Slug)
	}
	return core.ProductRef{ID: rows[0].ID, Slug: rows[0].Slug}, nil
}

// ListProducts returns all products visible to the key, oldest first.
func (c *Catalog) ListProducts(ctx context.Context) ([]core.ProductRecord, error) {
	var rows []productRow
	err := c.run(ctx, c.client.From(tableProducts).
		Select("*,categories(name)", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}), &rows)
	if err != nil {
		return nil, err
	}

	out := make([]core.ProductRecord, 0, len(rows))
	for _, r := range rows {
		rec := core.ProductRecord{
			Product: catalog.Product{
				Name:             r.Name,
				Slug:             r.Slug,
				Description:      r.Description,
				ShortDescription: r.ShortDescription,
				Price:            r.Price,
				ComparePrice:     r.ComparePrice,
				SKU:              r.SKU,
				Status:           catalog.ParseStatus(r.Status),
				Featured:         r.Featured,
				Vendor:           r.Vendor,
				Type:             r.ProductType,
				Tags:             r.Tags,
				Variants:         r.Variants,
				Images:           r.Images,
			},
			ID:         r.ID,
			CategoryID: r.CategoryID,
			StoreID:    r.StoreID,
		}
		if r.Category != nil {
			rec.ProductCategory = r.Category.Name
		}
		if r.CreatedAt != nil {
			rec.CreatedAt = *r.CreatedAt
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *Catalog) run(ctx context.Context, q *postgrest.FilterBuilder, into any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := q.ExecuteTo(into)
	return translate(err)
}

func firstCategory(rows []categoryRow) (core.Category, error) {
	if len(rows) == 0 {
		return core.Category{}, core.ErrNotFound
	}
	r := rows[0]
	return core.Category{ID: r.ID, Name: r.Name, Slug: r.Slug}, nil
}

// translate maps PostgREST errors onto the core store contract. The client
// formats failures as "(code) message".
func translate(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "(42501)") || strings.Contains(msg, "row-level security") {
		return &core.PermissionError{Err: err}
	}
	if strings.Contains(msg, "(pgrst116)") {
		return errors.Join(core.ErrNotFound, err)
	}
	return err
}

var _ core.Catalog = (*Catalog)(nil)
