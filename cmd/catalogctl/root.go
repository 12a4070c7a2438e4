package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/catalogio/internal/backend"
	"github.com/JonMunkholm/catalogio/internal/config"
	"github.com/JonMunkholm/catalogio/internal/core"
	"github.com/JonMunkholm/catalogio/internal/logging"
)

// app carries what the subcommands share once the root has set it up.
type app struct {
	backendName string
	sqlitePath  string

	cfg     *config.Config
	backend *backend.Backend
	service *core.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "catalogctl",
		Short:        "Import and export marketplace product catalogs",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.backendName, "backend", "", "store backend: postgres, supabase, sqlite, memory (default from STORE_BACKEND)")
	root.PersistentFlags().StringVar(&a.sqlitePath, "sqlite-path", "", "sqlite database file (default from SQLITE_PATH)")

	root.AddCommand(
		newImportCmd(a),
		newExportCmd(a),
		newTemplateCmd(),
		newSeedCmd(a),
	)
	return root
}

// open loads configuration, applies flag overrides and connects the backend.
func (a *app) open(ctx context.Context) error {
	// .env is optional; flags below still win over it.
	_ = godotenv.Overload()

	if a.backendName != "" {
		os.Setenv("STORE_BACKEND", a.backendName)
	}
	if a.sqlitePath != "" {
		os.Setenv("SQLITE_PATH", a.sqlitePath)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	b, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.backend = b
	a.service = core.NewService(b.Catalog, b.ServiceOptions(cfg))
	slog.Debug("backend ready", "backend", b.Name)
	return nil
}

func (a *app) close() {
	if a.backend != nil {
		a.backend.Close()
		a.backend = nil
	}
}
