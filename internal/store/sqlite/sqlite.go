// Package sqlite keeps a local catalog in a SQLite file through gorm, for
// offline work and for integration tests that need a real database.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/JonMunkholm/catalogio/internal/catalog"
	"github.com/JonMunkholm/catalogio/internal/core"
)

type storeModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	CreatedAt time.Time
}

func (storeModel) TableName() string { return "stores" }

type categoryModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"index"`
	Slug      string
	CreatedAt time.Time
}

func (categoryModel) TableName() string { return "categories" }

type productModel struct {
	ID               string `gorm:"primaryKey"`
	StoreID          string `gorm:"index"`
	CategoryID       string `gorm:"index"`
	Name             string
	Slug             string `gorm:"uniqueIndex"`
	Description      string
	ShortDescription string
	Price            decimal.Decimal  `gorm:"type:text"`
	ComparePrice     *decimal.Decimal `gorm:"type:text"`
	SKU              string
	Status           string
	Featured         bool
	Vendor           string
	ProductType      string
	Tags             []string          `gorm:"serializer:json"`
	Variants         []catalog.Variant `gorm:"serializer:json"`
	Images           []catalog.Image   `gorm:"serializer:json"`
	CreatedAt        time.Time

	Category *categoryModel `gorm:"foreignKey:CategoryID;references:ID"`
}

func (productModel) TableName() string { return "products" }

// Catalog is a core.Catalog stored in SQLite.
type Catalog struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at path and migrates it.
// Use ":memory:" for a throwaway catalog.
func Open(path string) (*Catalog, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),

		// category_id may hold a store id under the store_id fallback.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// A single connection keeps ":memory:" databases alive and serializes writers.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&storeModel{}, &categoryModel{}, &productModel{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite %s: %w", path, err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the database.
func (c *Catalog) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Seed makes sure the catalog has at least one store and one category,
// creating them with the given names when missing.
func (c *Catalog) Seed(ctx context.Context, storeName, categoryName string) (core.Store, core.Category, error) {
	store, err := c.FirstStore(ctx)
	if errors.Is(err, core.ErrNotFound) {
		m := storeModel{ID: uuid.NewString(), Name: storeName}
		if err := c.db.WithContext(ctx).Create(&m).Error; err != nil {
			return core.Store{}, core.Category{}, translate(err)
		}
		store, err = core.Store{ID: m.ID, Name: m.Name}, nil
	}
	if err != nil {
		return core.Store{}, core.Category{}, err
	}

	category, err := c.FirstCategory(ctx)
	if errors.Is(err, core.ErrNotFound) {
		category, err = c.CreateCategory(ctx, categoryName, catalog.Slugify(categoryName))
	}
	if err != nil {
		return core.Store{}, core.Category{}, err
	}
	return store, category, nil
}

func (c *Catalog) FirstStore(ctx context.Context) (core.Store, error) {
	var m storeModel
	if err := c.db.WithContext(ctx).Order("created_at, id").First(&m).Error; err != nil {
		return core.Store{}, translate(err)
	}
	return core.Store{ID: m.ID, Name: m.Name}, nil
}

func (c *Catalog) FirstCategory(ctx context.Context) (core.Category, error) {
	var m categoryModel
	if err := c.db.WithContext(ctx).Order("created_at, id").First(&m).Error; err != nil {
		return core.Category{}, translate(err)
	}
	return toCategory(m), nil
}

func (c *Catalog) FindCategoryByName(ctx context.Context, name string) (core.Category, error) {
	var m categoryModel
	if err := c.db.WithContext(ctx).Where("name = ?", name).First(&m).Error; err != nil {
		return core.Category{}, translate(err)
	}
	return toCategory(m), nil
}

func (c *Catalog) CreateCategory(ctx context.Context, name, slug string) (core.Category, error) {
	m := categoryModel{ID: uuid.NewString(), Name: name, Slug: slug}
	if err := c.db.WithContext(ctx).Create(&m).Error; err != nil {
		return core.Category{}, translate(err)
	}
	return toCategory(m), nil
}

func (c *Catalog) FindProductBySlug(ctx context.Context, slug string) (core.ProductRef, error) {
	var m productModel
	err := c.db.WithContext(ctx).Select("id", "slug").Where("slug = ?", slug).First(&m).Error
	if err != nil {
		return core.ProductRef{}, translate(err)
	}
	return core.ProductRef{ID: m.ID, Slug: m.Slug}, nil
}

func (c *Catalog) InsertProduct(ctx context.Context, p core.NewProduct) (core.ProductRef, error) {
	m := productModel{
		ID:               uuid.NewString(),
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
	if err := c.db.WithContext(ctx).Omit("Category").Create(&m).Error; err != nil {
		return core.ProductRef{}, translate(err)
	}
	return core.ProductRef{ID: m.ID, Slug: m.Slug}, nil
}

// ListProducts returns all products, oldest first.
func (c *Catalog) ListProducts(ctx context.Context) ([]core.ProductRecord, error) {
	var models []productModel
	err := c.db.WithContext(ctx).Preload("Category").Order("created_at, rowid").Find(&models).Error
	if err != nil {
		return nil, translate(err)
	}

	out := make([]core.ProductRecord, 0, len(models))
	for _, m := range models {
		rec := core.ProductRecord{
			Product: catalog.Product{
				Name:             m.Name,
				Slug:             m.Slug,
				Description:      m.Description,
				ShortDescription: m.ShortDescription,
				Price:            m.Price,
				ComparePrice:     m.ComparePrice,
				SKU:              m.SKU,
				Status:           catalog.ParseStatus(m.Status),
				Featured:         m.Featured,
				Vendor:           m.Vendor,
				Type:             m.ProductType,
				Tags:             m.Tags,
				Variants:         m.Variants,
				Images:           m.Images,
			},
			ID:         m.ID,
			CategoryID: m.CategoryID,
			StoreID:    m.StoreID,
			CreatedAt:  m.CreatedAt,
		}
		if m.Category != nil {
			rec.ProductCategory = m.Category.Name
		}
		out = append(out, rec)
	}
	return out, nil
}

func toCategory(m categoryModel) core.Category {
	return core.Category{ID: m.ID, Name: m.Name, Slug: m.Slug}
}

// translate maps gorm and SQLite errors onto the core store contract. A
// read-only database file is the local equivalent of a denied write.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.ErrNotFound
	}
	if strings.Contains(strings.ToLower(err.Error()), "readonly database") {
		return &core.PermissionError{Err: err}
	}
	return err
}

var _ core.Catalog = (*Catalog)(nil)
