package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"clipmatch/internal/catalog"
	"clipmatch/internal/rename"
)

func newImportCatalogCommand(ctx *commandContext) *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:   "import-catalog <catalog.csv>",
		Short: "Load a clip catalog CSV into the catalog database, replacing the table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := ctx.ensureDeps()
			if err != nil {
				return err
			}
			if deps.Store == nil {
				return errors.New("import-catalog needs CATALOG_DRIVER and CATALOG_DSN")
			}
			clips, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}
			target := firstNonEmpty(table, deps.Config.CatalogTable)
			if err := deps.Store.ImportClips(cmd.Context(), target, clips); err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			newPrinter(cmd.OutOrStdout()).OK("Imported %d clips into %s", len(clips), target)
			return nil
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "Destination table (default CATALOG_TABLE)")
	return cmd
}

func newCleanCatalogCommand(ctx *commandContext) *cobra.Command {
	var opts rename.CleanOptions

	cmd := &cobra.Command{
		Use:   "clean-catalog <catalog.csv>",
		Short: "Normalize clip filenames in a catalog and rename the files to match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			opts.CatalogPath = args[0]
			if opts.OutputPath == "" {
				opts.OutputPath = args[0]
			}
			opts.Root = firstNonEmpty(opts.Root, cfg.ClipRoot)
			if opts.Root == "" {
				return errors.New("clip library root required (--root or CLIP_ROOT)")
			}

			report, err := rename.CleanCatalog(cmd.Context(), opts)
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			for _, m := range report.Renamed {
				p.Field("rename", m.From+" -> "+m.To)
			}
			for _, dir := range report.MissingDirs {
				p.Warn("missing folder %s", dir)
			}
			for _, name := range report.Unmatched {
				p.Warn("no file for %s", name)
			}
			if opts.DryRun {
				p.OK("Would rename %d of %d clips", len(report.Renamed), report.Rows)
				return nil
			}
			p.OK("Renamed %d of %d clips; catalog written to %s", len(report.Renamed), report.Rows, opts.OutputPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "", "Cleaned catalog path (default: overwrite the input)")
	cmd.Flags().StringVar(&opts.Root, "root", "", "Clip library root holding one folder per character (default CLIP_ROOT)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report the renames without touching any file")
	return cmd
}

func newPrefixCommand() *cobra.Command {
	var ext string

	cmd := &cobra.Command{
		Use:   "prefix <dir> <prefix>",
		Short: "Prepend a prefix to every clip file in a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := rename.PrefixFiles(cmd.Context(), args[0], args[1], ext)
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			for _, m := range report.Renamed {
				p.Field("rename", m.From+" -> "+m.To)
			}
			p.OK("Prefixed %d files (%d already prefixed)", len(report.Renamed), report.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&ext, "ext", ".mp4", "Only rename files with this extension")
	return cmd
}
