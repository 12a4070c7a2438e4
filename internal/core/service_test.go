package core

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/catalogio/internal/catalog"
)

const simpleCSV = "name,slug,description,short_description,price,compare_price,sku,status,featured\n" +
	`"Rose Toner","rose-toner","Hydrating toner","Toner",12.00,15.00,"TON-1","active",true` + "\n" +
	`"Clay Mask",,"Deep clean","Mask",9.5,,"MSK-1","inactive",false` + "\n" +
	`,,"no name row",,1,,,,` + "\n"

const shopifyCSV = "Handle,Title,Body (HTML),Vendor,Product Category,Type,Tags,Published,Option1 Name,Option1 Value,Variant SKU,Variant Grams,Variant Inventory Tracker,Variant Inventory Qty,Variant Inventory Policy,Variant Fulfillment Service,Variant Price,Variant Compare At Price,Image Src,Image Position,Status\n" +
	"glow-oil,Glow Oil,<p>Face oil</p>,Lumen,Face Oils,Oil,\"glow, oil\",TRUE,Size,30ml,GO-30,40,shopify,40,continue,manual,28.00,32.00,https://img.example.com/go-1.jpg,1,active\n" +
	"glow-oil,,,,,,,,Size,50ml,GO-50,12,shopify,12,continue,manual,38.00,,https://img.example.com/go-2.jpg,2,\n"

const secondShopifyProduct = "dew-balm,Dew Balm,,Lumen,,Balm,,FALSE,Size,15ml,DB-15,8,shopify,8,continue,manual,16.00,,,,draft\n"

func newTestService(t *testing.T, store *fakeCatalog, opts Options) *Service {
	t.Helper()
	if opts.MaxWaitTime == 0 {
		opts.MaxWaitTime = time.Second
	}
	return NewService(store, opts)
}

func TestParseFile(t *testing.T) {
	svc := newTestService(t, newFakeCatalog(), Options{})

	format, products, err := svc.ParseFile("products.csv", []byte("\xEF\xBB\xBF"+simpleCSV))
	require.NoError(t, err)
	assert.Equal(t, catalog.FormatSimple, format)
	require.Len(t, products, 2)
	assert.Equal(t, "Rose Toner", products[0].Name)
	assert.Equal(t, "clay-mask", products[1].Slug)
	assert.Equal(t, "9.5", products[1].Price.String())

	format, products, err = svc.ParseFile("export.csv", []byte(shopifyCSV))
	require.NoError(t, err)
	assert.Equal(t, catalog.FormatShopify, format)
	require.Len(t, products, 1)
	assert.Len(t, products[0].Variants, 2)
}

func TestParseFile_TooLarge(t *testing.T) {
	svc := newTestService(t, newFakeCatalog(), Options{MaxFileSize: 16})

	_, _, err := svc.ParseFile("big.csv", []byte(simpleCSV))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestParseFile_Workbook(t *testing.T) {
	def, _ := catalog.LookupFormat(catalog.FormatSimple)
	var buf bytes.Buffer
	require.NoError(t, catalog.WriteXLSXTemplate(&buf, def))

	svc := newTestService(t, newFakeCatalog(), Options{})
	format, products, err := svc.ParseFile("template.XLSX", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, catalog.FormatSimple, format)
	require.Len(t, products, 1)
	assert.Equal(t, "Velvet Matte Lipstick", products[0].Name)
}

func TestImport_Sync(t *testing.T) {
	store := newFakeCatalog()
	svc := newTestService(t, store, Options{})

	result, err := svc.Import(context.Background(), "products.csv", []byte(simpleCSV), nil)
	require.NoError(t, err)
	assert.Equal(t, catalog.FormatSimple, result.Format)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 2, result.TotalRows)
	assert.False(t, result.Failed())
	assert.Equal(t, 2, store.productCount())
}

func TestImport_EmptyFile(t *testing.T) {
	svc := newTestService(t, newFakeCatalog(), Options{})

	result, err := svc.Import(context.Background(), "empty.csv", []byte(""), nil)
	require.ErrorIs(t, err, catalog.ErrEmptyFile)
	require.NotNil(t, result)
	assert.True(t, result.Failed())
}

func TestImport_NoStoresIsFatal(t *testing.T) {
	store := newFakeCatalog()
	store.stores = nil
	svc := newTestService(t, store, Options{})

	result, err := svc.Import(context.Background(), "products.csv", []byte(simpleCSV), nil)
	require.ErrorIs(t, err, ErrNoStores)
	assert.Equal(t, ErrNoStores.Error(), result.Error)
}

func TestStartImport_ProgressAndResult(t *testing.T) {
	store := newFakeCatalog()
	store.insertDelay = 5 * time.Millisecond
	svc := newTestService(t, store, Options{})

	id, err := svc.StartImport(context.Background(), "export.csv", []byte(shopifyCSV+secondShopifyProduct))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	updates, err := svc.SubscribeProgress(id)
	require.NoError(t, err)

	var last ImportProgress
	for p := range updates {
		assert.Equal(t, id, p.ImportID)
		last = p
	}
	assert.Equal(t, PhaseComplete, last.Phase)
	assert.Equal(t, 2, last.Succeeded)
	assert.Equal(t, 100, last.Percent())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	result, err := svc.GetImportResult(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, catalog.FormatShopify, result.Format)
	assert.Equal(t, 2, result.SuccessCount)

	// Finished jobs can still be subscribed to; they replay the final state.
	again, err := svc.SubscribeProgress(id)
	require.NoError(t, err)
	final, ok := <-again
	require.True(t, ok)
	assert.Equal(t, PhaseComplete, final.Phase)
	_, ok = <-again
	assert.False(t, ok)

	require.NoError(t, svc.WaitForImports(ctx))
	assert.Equal(t, 0, svc.LimiterStatus().Active)
}

func TestStartImport_SlowSubscriberGetsFinalProgress(t *testing.T) {
	store := newFakeCatalog()
	store.insertDelay = 2 * time.Millisecond
	svc := newTestService(t, store, Options{})

	var file strings.Builder
	file.WriteString("name,price\n")
	for i := 1; i <= 40; i++ {
		fmt.Fprintf(&file, "Cuticle Oil %d,%d\n", i, 4+i)
	}

	id, err := svc.StartImport(context.Background(), "oils.csv", []byte(file.String()))
	require.NoError(t, err)

	updates, err := svc.SubscribeProgress(id)
	require.NoError(t, err)

	// Nothing reads the channel until the job is done, so its buffer overflows.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = svc.GetImportResult(ctx, id)
	require.NoError(t, err)

	var received []ImportProgress
	for p := range updates {
		received = append(received, p)
	}
	require.NotEmpty(t, received)

	last := received[len(received)-1]
	assert.Equal(t, PhaseComplete, last.Phase)
	assert.Equal(t, 40, last.Succeeded)
	assert.Equal(t, 40, last.CurrentRow)
	assert.Equal(t, 100, last.Percent())
}

func TestStartImport_FailedJob(t *testing.T) {
	store := newFakeCatalog()
	store.categories = nil
	svc := newTestService(t, store, Options{})

	id, err := svc.StartImport(context.Background(), "products.csv", []byte(simpleCSV))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	result, err := svc.GetImportResult(ctx, id)
	require.NoError(t, err)
	assert.True(t, result.Failed())
	assert.Equal(t, ErrNoCategories.Error(), result.Error)

	p, err := svc.GetImportProgress(id)
	require.NoError(t, err)
	assert.Equal(t, PhaseFailed, p.Phase)
}

func TestGetImportResult_FromResultStore(t *testing.T) {
	results := NewMemoryResults(time.Hour)
	saved := &ImportResult{ImportID: "old-job", ImportOutcome: ImportOutcome{SuccessCount: 3, TotalRows: 3}}
	require.NoError(t, results.Save(context.Background(), saved))

	svc := newTestService(t, newFakeCatalog(), Options{Results: results})

	got, err := svc.GetImportResult(context.Background(), "old-job")
	require.NoError(t, err)
	assert.Equal(t, 3, got.SuccessCount)

	_, err = svc.GetImportResult(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrImportNotFound)

	_, err = svc.SubscribeProgress("missing")
	assert.ErrorIs(t, err, ErrImportNotFound)
}

func TestMemoryResults_Expiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemoryResults(time.Minute)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, &ImportResult{ImportID: "a"}))
	require.NoError(t, m.Save(ctx, &ImportResult{}))

	_, err := m.Load(ctx, "a")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = m.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrImportNotFound)

	require.NoError(t, m.Save(ctx, &ImportResult{ImportID: "b"}))
	assert.Len(t, m.entries, 1, "expired entries are pruned on save")
}

func TestExport(t *testing.T) {
	store := newFakeCatalog()
	svc := newTestService(t, store, Options{})
	_, err := svc.Import(context.Background(), "products.csv", []byte(simpleCSV), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := svc.Export(context.Background(), "simple", &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,slug,description,short_description,price,compare_price,sku,status,featured", lines[0])
	assert.Equal(t, `"Rose Toner","rose-toner","Hydrating toner","Toner",12,15,"TON-1","active",true`, lines[1])

	_, err = svc.Export(context.Background(), "xml", &buf)
	assert.ErrorIs(t, err, catalog.ErrUnknownFormat)
}

func TestExport_RoundTripIsLossy(t *testing.T) {
	store := newFakeCatalog()
	svc := newTestService(t, store, Options{})
	_, err := svc.Import(context.Background(), "export.csv", []byte(shopifyCSV), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = svc.Export(context.Background(), "shopify", &buf)
	require.NoError(t, err)

	_, products, err := catalog.Parse(buf.String())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "glow-oil", products[0].Slug)
	assert.Len(t, products[0].Variants, 1, "export writes only the primary variant")
	assert.Len(t, products[0].Images, 1)
}

func TestPublishExport(t *testing.T) {
	store := newFakeCatalog()
	pub := &fakePublisher{}
	svc := newTestService(t, store, Options{Publisher: pub})
	_, err := svc.Import(context.Background(), "products.csv", []byte(simpleCSV), nil)
	require.NoError(t, err)

	now := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	url, err := svc.PublishExport(context.Background(), "shopify", now)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/exports/products_shopify_2026-10-17.csv", url)
	assert.Equal(t, ExportContentType, pub.contentType)
	assert.True(t, strings.HasPrefix(pub.body, "Handle,Title,"))

	disabled := newTestService(t, store, Options{})
	_, err = disabled.PublishExport(context.Background(), "simple", now)
	assert.ErrorIs(t, err, ErrPublishingDisabled)
}

func TestExportFileName(t *testing.T) {
	at := time.Date(2026, 1, 5, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "products_simple_2026-01-05.csv", ExportFileName(catalog.FormatSimple, at))
	assert.Equal(t, "products_shopify_2026-01-05.csv", ExportFileName(catalog.FormatShopify, at))
}
