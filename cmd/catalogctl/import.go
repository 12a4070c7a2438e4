package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/catalogio/internal/core"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		file  string
		quiet bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import products from a CSV or XLSX file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}

			var progress core.ProgressCallback
			if !quiet {
				lastPercent := -1
				progress = func(p core.ImportProgress) {
					if pct := p.Percent(); pct/10 != lastPercent/10 {
						lastPercent = pct
						fmt.Fprintf(cmd.ErrOrStderr(), "  %3d%%  %d/%d rows\n", pct, p.CurrentRow, p.TotalRows)
					}
				}
			}

			result, err := a.service.Import(cmd.Context(), filepath.Base(file), data, progress)
			if err != nil {
				return fmt.Errorf("import failed: %s", core.FormatUserError(err))
			}

			out := cmd.OutOrStdout()
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  [error] %s\n", e)
			}
			fmt.Fprintf(out, `
=== Import Report ===
File:       %s
Format:     %s
Backend:    %s
Rows:       %d
Imported:   %d
Skipped:    %d
Failed:     %d
Total time: %s
=====================
`, result.FileName, result.Format, a.backend.Name,
				result.TotalRows, result.SuccessCount, result.SkippedCount, len(result.Errors),
				result.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV or XLSX file path (required)")
	cmd.MarkFlagRequired("file")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print progress")
	return cmd
}
