package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nailsCSV = "name,price,status\n" +
	"Nail Polish Red,8.00,active\n" +
	"Nail Polish Nude,8.00,active\n" +
	",3.00,active\n"

// run executes catalogctl with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	// Flag overrides go through the environment; restore it afterwards.
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("SQLITE_PATH", ":memory:")

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTemplate(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "template", "--format", "shopify", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "shopify_template.csv")

	b, err := os.ReadFile(filepath.Join(dir, "shopify_template.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "Handle,Title,"))

	_, err = run(t, "template", "--format", "simple", "--xlsx", "--out", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "simple_template.xlsx"))

	_, err = run(t, "template", "--format", "woo", "--out", dir)
	assert.Error(t, err)
}

func TestSeedImportExport_SQLite(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "catalog.db")
	file := filepath.Join(dir, "nails.csv")
	require.NoError(t, os.WriteFile(file, []byte(nailsCSV), 0o644))

	out, err := run(t, "--backend", "sqlite", "--sqlite-path", db, "seed", "--store", "Nail Bar")
	require.NoError(t, err)
	assert.Contains(t, out, `store "Nail Bar"`)

	out, err = run(t, "--backend", "sqlite", "--sqlite-path", db, "import", "--file", file, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported:   2")
	assert.Contains(t, out, "Format:     simple")

	// A second run skips the existing slugs.
	out, err = run(t, "--backend", "sqlite", "--sqlite-path", db, "import", "-f", file, "-q")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported:   0")
	assert.Contains(t, out, "Skipped:    2")

	out, err = run(t, "--backend", "sqlite", "--sqlite-path", db, "export", "--format", "simple", "--out", "-")
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], `"Nail Polish Red","nail-polish-red"`)

	out, err = run(t, "--backend", "sqlite", "--sqlite-path", db, "export", "--format", "shopify", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 2 products")
	matches, _ := filepath.Glob(filepath.Join(dir, "products_shopify_*.csv"))
	assert.Len(t, matches, 1)
}

func TestImport_MemoryDryRun(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nails.csv")
	require.NoError(t, os.WriteFile(file, []byte(nailsCSV), 0o644))

	out, err := run(t, "--backend", "memory", "import", "--file", file, "-q")
	require.NoError(t, err)
	assert.Contains(t, out, "Backend:    memory")
	assert.Contains(t, out, "Imported:   2")
}

func TestImport_MissingFile(t *testing.T) {
	_, err := run(t, "--backend", "memory", "import", "--file", filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorContains(t, err, "read ")
}

func TestSeed_RequiresSQLite(t *testing.T) {
	_, err := run(t, "--backend", "memory", "seed")
	assert.ErrorContains(t, err, "--backend sqlite")
}

func TestPublish_NotConfigured(t *testing.T) {
	_, err := run(t, "--backend", "memory", "export", "--publish")
	assert.ErrorContains(t, err, "IMP007")
}
