package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipmatch/internal/output"
	"clipmatch/internal/pipeline"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var (
		catalogPath string
		table       string
		scriptPath  string
		outputPath  string
		noScore     bool
		workers     int
		showTable   bool
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match every script sentence to its closest clip and write a CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := ctx.ensureDeps()
			if err != nil {
				return err
			}
			cfg := deps.Config

			req := pipeline.Request{
				ScriptPath:   firstNonEmpty(scriptPath, cfg.ScriptPath),
				OutputPath:   firstNonEmpty(outputPath, cfg.OutputPath),
				IncludeScore: cfg.IncludeScore && !noScore,
			}
			switch {
			case table != "":
				req.CatalogTable = table
			case catalogPath != "":
				req.CatalogPath = catalogPath
			case deps.Store != nil:
				req.CatalogTable = cfg.CatalogTable
			default:
				req.CatalogPath = cfg.CatalogPath
			}

			runner := deps.Runner()
			if workers > 0 {
				runner.Workers = workers
			}
			sum, err := runner.Run(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("match: %w", err)
			}

			out := cmd.OutOrStdout()
			if showTable {
				fmt.Fprintln(out, output.RenderTable(sum.Results))
			}
			p := newPrinter(out)
			p.OK("Matched %d sentences against %d clips", sum.Sentences, sum.Clips)
			p.Field("distinct", sum.DistinctClips)
			p.Field("output", sum.OutputPath)
			p.Field("run", sum.RunID)
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Clip catalog CSV (default CATALOG_PATH)")
	cmd.Flags().StringVar(&table, "table", "", "Read the catalog from this table of the catalog database")
	cmd.Flags().StringVar(&scriptPath, "script", "", "Script file, .txt or .pdf (default SCRIPT_PATH)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output CSV (default OUTPUT_PATH)")
	cmd.Flags().BoolVar(&noScore, "no-score", false, "Omit the similarity_score column")
	cmd.Flags().IntVar(&workers, "workers", 0, "Sentences matched in parallel (default MATCH_WORKERS)")
	cmd.Flags().BoolVar(&showTable, "table-view", false, "Print the matches as a table")
	cmd.MarkFlagsMutuallyExclusive("catalog", "table")

	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
