package main

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"clipmatch/internal/app"
	"clipmatch/internal/config"
	"clipmatch/internal/logger"
)

// commandContext builds runtime dependencies once, on first use, so
// commands that need none (prefix, clean-catalog) work without provider
// credentials.
type commandContext struct {
	envFile  string
	logLevel string

	cfgOnce sync.Once
	cfg     config.Config
	cfgErr  error

	depsOnce sync.Once
	deps     app.Deps
	depsErr  error
}

func (c *commandContext) config() (config.Config, error) {
	c.cfgOnce.Do(func() {
		path := ".env"
		if f := strings.TrimSpace(c.envFile); f != "" {
			path = f
		}
		// A missing default .env is fine; a missing --env-file is not.
		if err := godotenv.Load(path); err != nil && (c.envFile != "" || !errors.Is(err, fs.ErrNotExist)) {
			c.cfgErr = err
			return
		}
		c.cfg = config.Load()
		if c.logLevel != "" {
			c.cfg.LogLevel = c.logLevel
		}
	})
	return c.cfg, c.cfgErr
}

func (c *commandContext) ensureDeps() (app.Deps, error) {
	c.depsOnce.Do(func() {
		cfg, err := c.config()
		if err != nil {
			c.depsErr = err
			return
		}
		// Logs go to stderr so stdout carries only results.
		c.deps, c.depsErr = app.BuildWith(cfg, logger.NewWriter(os.Stderr, cfg.LogLevel, true))
	})
	return c.deps, c.depsErr
}

func (c *commandContext) close() {
	if c.deps.Log != nil {
		c.deps.Close()
	}
}

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "clipmatch",
		Short:         "Match script sentences to video clips by meaning",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.envFile, "env-file", "", "Environment file to load (default .env)")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(newMatchCommand(ctx))
	rootCmd.AddCommand(newImportCatalogCommand(ctx))
	rootCmd.AddCommand(newCleanCatalogCommand(ctx))
	rootCmd.AddCommand(newPrefixCommand())
	rootCmd.AddCommand(newCacheCommand(ctx))

	return rootCmd
}
