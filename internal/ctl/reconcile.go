package ctl

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/app/apiapp"
)

type reconcileOutput struct {
	Scanned     int `json:"scanned"`
	Invalid     int `json:"invalid"`
	MarkedStale int `json:"marked_stale"`
	Created     int `json:"created"`
}

func NewReconcileCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Audit conversations against swipe records once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.close()

			services := apiapp.NewServices(e.cfg, e.stores, nil, e.log)
			report, err := services.Reconcile.RunOnce(cmd.Context())
			if err != nil {
				return err
			}

			out := reconcileOutput{
				Scanned:     report.Scanned,
				Invalid:     report.Invalid,
				MarkedStale: report.MarkedStale,
				Created:     report.Created,
			}
			return output(cmd.OutOrStdout(), opts, out, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "scanned=%d invalid=%d marked_stale=%d created=%d\n",
					out.Scanned, out.Invalid, out.MarkedStale, out.Created)
				return err
			})
		},
	}
}
