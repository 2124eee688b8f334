package main

import (
	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the embedding cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Drop cached vectors of the configured embedding model",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := ctx.ensureDeps()
			if err != nil {
				return err
			}
			n, err := deps.Cache.InvalidateModel(cmd.Context(), deps.Model)
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).OK("Removed %d cached vectors for %s", n, deps.Model)
			return nil
		},
	})

	return cacheCmd
}
