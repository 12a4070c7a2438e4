package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/catalogio/internal/catalog"
)

func newTemplateCmd() *cobra.Command {
	var (
		format string
		xlsx   bool
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty import template",
		// Templates need no store; skip the backend the root opens.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := catalog.ParseFormat(format)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			name := fmt.Sprintf("%s_template.csv", def.Key)
			if xlsx {
				name = fmt.Sprintf("%s_template.xlsx", def.Key)
				if err := catalog.WriteXLSXTemplate(&buf, def); err != nil {
					return err
				}
			} else {
				buf.WriteString(catalog.CSVTemplate(def))
				buf.WriteByte('\n')
			}

			path := filepath.Join(outDir, name)
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(catalog.FormatSimple), "template format: simple or shopify")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "write a spreadsheet with a sample row")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	return cmd
}
