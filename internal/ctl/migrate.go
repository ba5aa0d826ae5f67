package ctl

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/config"
	pgrepo "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/repo/postgres"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded postgres schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if printOnly {
				_, err := io.WriteString(cmd.OutOrStdout(), pgrepo.Schema())
				return err
			}

			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if cfg.Store.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate needs store.driver=postgres, got %q", cfg.Store.Driver)
			}

			pool, err := pgrepo.NewPool(cmd.Context(), cfg.Postgres.DSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pgrepo.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), opts, map[string]bool{"migrated": true}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, "schema applied")
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "print the schema instead of applying it")
	return cmd
}
