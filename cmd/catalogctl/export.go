package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/catalogio/internal/catalog"
	"github.com/JonMunkholm/catalogio/internal/core"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		format  string
		outDir  string
		publish bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all products as CSV",
		Long: "Export all products as CSV, one row per product.\n" +
			"Use --out - to write to stdout, or --publish to upload to the storage bucket (supabase backend).",
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := catalog.ParseFormat(format)
			if err != nil {
				return err
			}
			now := time.Now()

			if publish {
				url, err := a.service.PublishExport(cmd.Context(), string(def.Key), now)
				if err != nil {
					return fmt.Errorf("publish failed: %s", core.FormatUserError(err))
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			}

			if outDir == "-" {
				_, err := a.service.Export(cmd.Context(), string(def.Key), cmd.OutOrStdout())
				return err
			}

			path := filepath.Join(outDir, core.ExportFileName(def.Key, now))
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}

			n, err := a.service.Export(cmd.Context(), string(def.Key), f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(path)
				return fmt.Errorf("export failed: %s", core.FormatUserError(err))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "exported %d products to %s\n", n, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(catalog.FormatSimple), "export format: simple or shopify")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory, or - for stdout")
	cmd.Flags().BoolVar(&publish, "publish", false, "upload to the export bucket instead of writing a file")
	return cmd
}
