// Package ctl implements the operator command line: schema migration, the
// reconcile audit, profile seeding and dev token issuance.
package ctl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/app/apiapp"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/config"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/infra/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string
}

var validFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ctl",
		Short: "Operator tooling for the matching service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range validFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultConfig := os.Getenv("APP_CONFIG")
	if defaultConfig == "" {
		defaultConfig = "configs/config.yaml"
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", defaultConfig, "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// env is what every subcommand needs: config, a logger and the opened stores.
type env struct {
	cfg    config.Config
	log    *zap.Logger
	stores *apiapp.Stores
}

func openEnv(ctx context.Context, opts *RootOptions) (*env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Service: "ctl", Console: !cfg.IsProduction()})
	if err != nil {
		return nil, err
	}
	stores, err := apiapp.OpenStores(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return &env{cfg: cfg, log: log, stores: stores}, nil
}

func (e *env) close() {
	_ = e.stores.Close()
	_ = e.log.Sync()
}

// output writes v as JSON, or text via the fallback, depending on --format.
func output(w io.Writer, opts *RootOptions, v any, text func(io.Writer) error) error {
	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(w)
}
