package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newSeedCmd(a *app) *cobra.Command {
	var storeName, categoryName string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a store and category in a local sqlite catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.backend.SQLite == nil {
				return errors.New("seed only works with --backend sqlite")
			}

			store, category, err := a.backend.SQLite.Seed(cmd.Context(), storeName, categoryName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "store %q (%s), category %q (%s)\n", store.Name, store.ID, category.Name, category.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&storeName, "store", "My Store", "store name")
	cmd.Flags().StringVar(&categoryName, "category", "General", "default category name")
	return cmd
}
