// Package postgres implements the catalog on the marketplace's Postgres
// schema through a pgx connection pool.
//
// Tables touched:
//
//	stores(id, name, created_at)
//	categories(id, name, slug, created_at)
//	products(id, store_id, category_id, name, slug UNIQUE, description,
//	         short_description, price numeric, compare_price numeric, sku,
//	         status, featured, vendor, product_type, tags jsonb,
//	         variants jsonb, images jsonb, created_at)
//
// Row-level security is enforced by the database; a rejected statement
// surfaces as SQLSTATE 42501 and is reported as core.ErrPermissionDenied.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/catalogio/internal/catalog"
	"github.com/JonMunkholm/catalogio/internal/core"
)

const sqlStateInsufficientPrivilege = "42501"

// Catalog is a core.Catalog backed by Postgres.
type Catalog struct {
	pool *pgxpool.Pool
}

// New wraps an open pool.
func New(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) FirstStore(ctx context.Context) (core.Store, error) {
	var s core.Store
	err := c.pool.QueryRow(ctx,
		`SELECT id::text, coalesce(name, '') FROM stores ORDER BY created_at LIMIT 1`,
	).Scan(&s.ID, &s.Name)
	return s, translate(err)
}

func (c *Catalog) FirstCategory(ctx context.Context) (core.Category, error) {
	var cat core.Category
	err := c.pool.QueryRow(ctx,
		`SELECT id::text, name, coalesce(slug, '') FROM categories ORDER BY created_at LIMIT 1`,
	).Scan(&cat.ID, &cat.Name, &cat.Slug)
	return cat, translate(err)
}

func (c *Catalog) FindCategoryByName(ctx context.Context, name string) (core.Category, error) {
	var cat core.Category
	err := c.pool.QueryRow(ctx,
		`SELECT id::text, name, coalesce(slug, '') FROM categories WHERE name = $1 LIMIT 1`,
		name,
	).Scan(&cat.ID, &cat.Name, &cat.Slug)
	return cat, translate(err)
}

func (c *Catalog) CreateCategory(ctx context.Context, name, slug string) (core.Category, error) {
	cat := core.Category{Name: name, Slug: slug}
	err := c.pool.QueryRow(ctx,
		`INSERT INTO categories (name, slug) VALUES ($1, $2) RETURNING id::text`,
		name, slug,
	).Scan(&cat.ID)
	return cat, translate(err)
}

func (c *Catalog) FindProductBySlug(ctx context.Context, slug string) (core.ProductRef, error) {
	ref := core.ProductRef{Slug: slug}
	err := c.pool.QueryRow(ctx,
		`SELECT id::text FROM products WHERE slug = $1 LIMIT 1`,
		slug,
	).Scan(&ref.ID)
	return ref, translate(err)
}

func (c *Catalog) InsertProduct(ctx context.Context, p core.NewProduct) (core.ProductRef, error) {
	tags, variants, images, err := marshalVendorFields(p.Product)
	if err != nil {
		return core.ProductRef{}, err
	}

	ref := core.ProductRef{Slug: p.Slug}
	err = c.pool.QueryRow(ctx, `
		INSERT INTO products (
			store_id, category_id, name, slug, description, short_description,
			price, compare_price, sku, status, featured,
			vendor, product_type, tags, variants, images
		) VALUES (
			$1::text::uuid, $2::text::uuid, $3, $4, $5, $6,
			$7::numeric, $8::numeric, $9, $10, $11,
			$12, $13, $14, $15, $16
		) RETURNING id::text`,
		p.StoreID, p.CategoryID, p.Name, p.Slug, p.Description, p.ShortDescription,
		p.Price.String(), decimalText(p.ComparePrice), p.SKU, string(p.Status), p.Featured,
		p.Vendor, p.Type, tags, variants, images,
	).Scan(&ref.ID)
	return ref, translate(err)
}

// ListProducts returns all products, oldest first.
func (c *Catalog) ListProducts(ctx context.Context) ([]core.ProductRecord, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT p.id::text, p.store_id::text, coalesce(p.category_id::text, ''),
		       p.name, p.slug, coalesce(p.description, ''), coalesce(p.short_description, ''),
		       p.price::text, p.compare_price::text, coalesce(p.sku, ''), p.status, p.featured,
		       coalesce(p.vendor, ''), coalesce(c.name, ''), coalesce(p.product_type, ''),
		       p.tags, p.variants, p.images, p.created_at
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		ORDER BY p.created_at, p.id`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []core.ProductRecord
	for rows.Next() {
		rec, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, translate(rows.Err())
}

func scanProduct(rows pgx.Rows) (core.ProductRecord, error) {
	var (
		rec                    core.ProductRecord
		price                  string
		comparePrice           pgtype.Text
		status                 string
		tags, variants, images []byte
		createdAt              pgtype.Timestamptz
	)

	err := rows.Scan(
		&rec.ID, &rec.StoreID, &rec.CategoryID,
		&rec.Name, &rec.Slug, &rec.Description, &rec.ShortDescription,
		&price, &comparePrice, &rec.SKU, &status, &rec.Featured,
		&rec.Vendor, &rec.ProductCategory, &rec.Type,
		&tags, &variants, &images, &createdAt,
	)
	if err != nil {
		return rec, fmt.Errorf("scan product: %w", err)
	}

	rec.Price = catalog.ParsePrice(price)
	if comparePrice.Valid {
		rec.ComparePrice = catalog.ParseComparePrice(comparePrice.String)
	}
	rec.Status = catalog.ParseStatus(status)
	rec.CreatedAt = createdAt.Time

	if err := unmarshalOptional(tags, &rec.Tags); err != nil {
		return rec, fmt.Errorf("product %s tags: %w", rec.Slug, err)
	}
	if err := unmarshalOptional(variants, &rec.Variants); err != nil {
		return rec, fmt.Errorf("product %s variants: %w", rec.Slug, err)
	}
	if err := unmarshalOptional(images, &rec.Images); err != nil {
		return rec, fmt.Errorf("product %s images: %w", rec.Slug, err)
	}
	return rec, nil
}

func marshalVendorFields(p catalog.Product) (tags, variants, images []byte, err error) {
	if tags, err = json.Marshal(nonNil(p.Tags)); err != nil {
		return nil, nil, nil, fmt.Errorf("encode tags: %w", err)
	}
	if variants, err = json.Marshal(nonNil(p.Variants)); err != nil {
		return nil, nil, nil, fmt.Errorf("encode variants: %w", err)
	}
	if images, err = json.Marshal(nonNil(p.Images)); err != nil {
		return nil, nil, nil, fmt.Errorf("encode images: %w", err)
	}
	return tags, variants, images, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func unmarshalOptional(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func decimalText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// translate maps pgx errors onto the core store contract.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlStateInsufficientPrivilege {
		return &core.PermissionError{Err: err}
	}
	return err
}

var _ core.Catalog = (*Catalog)(nil)
