// Package main is the entry point for the lrand CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Blackdeer1524/lrand/src/app"
	"github.com/Blackdeer1524/lrand/src/config"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "lrand",
		Short: "Legacy L_RAND hash kernel and full-domain sweep",
		Long: `lrand reproduces the mainframe L_RAND routine (a Park-Miller minimal standard
generator evaluated in 10-digit fixed-point decimal) and applies it to single
identifiers, batches, or every identifier of a domain.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (--env-file, or .env in the current directory)
  3. LRAND_* environment variables
  4. Command line flags`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")

	cmd.AddCommand(hashCmd())
	cmd.AddCommand(batchCmd(&envFile))
	cmd.AddCommand(sweepCmd(&envFile))
	cmd.AddCommand(auditCmd(&envFile))
	cmd.AddCommand(jitterCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

func loadConfig(envFile string) (config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// startApp initialises the entrypoint; callers must Close it.
func startApp(ctx context.Context, cfg config.Config) (*app.Entrypoint, error) {
	e := &app.Entrypoint{Config: cfg}
	if err := e.Init(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("init: %w", err), e.Close())
	}

	return e, nil
}
