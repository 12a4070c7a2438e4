// Package core provides the business logic for product CSV import and export.
//
// It has no transport dependencies; the web server and the catalogctl CLI
// both drive the same [Service].
//
// # Import
//
// An uploaded file is decoded (CSV text, or the first sheet of an .xlsx
// workbook), its format detected from the header row, and each row
// normalized into a [catalog.Product]. The [Importer] then:
//
//  1. Checks once that the catalog has a store and a category; if not, the
//     import fails with [ErrNoStores] or [ErrNoCategories] before any row.
//  2. Walks the products in order, throttled by a token bucket.
//  3. Resolves the category by exact name, creating it when missing.
//  4. Skips products whose slug already exists.
//  5. Inserts the rest, recording failures as "Row N: message".
//
// Imports either run synchronously ([Service.Import]) or as background jobs
// ([Service.StartImport]) whose progress can be streamed with
// [Service.SubscribeProgress]. An [ImportLimiter] caps concurrent jobs.
//
// # Export
//
// [Service.Export] writes every stored product as one CSV row in the simple
// or Shopify format. [Service.PublishExport] hands the same file to an
// [ExportPublisher] for hosting.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference:
//
//   - DB001-DB006: database errors
//   - RLS001-RLS003: row-level security rejections
//   - FILE001-FILE005: file errors
//   - IMP001-IMP007: import and export job errors
//   - RATE001: throttling
//
// # Thread Safety
//
// [Service] is safe for concurrent use. Store implementations must be too.
package core
