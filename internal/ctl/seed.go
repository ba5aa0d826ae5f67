package ctl

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	profilesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/profiles"
)

func NewSeedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <profiles.yaml>",
		Short: "Upsert profiles from a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open seed file: %w", err)
			}
			defer f.Close()

			e, err := openEnv(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.close()

			n, err := profilesvc.Import(cmd.Context(), e.stores.Profiles, f, time.Now())
			if err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), opts, map[string]int{"imported": n}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "imported %d profiles\n", n)
				return err
			})
		},
	}
}
