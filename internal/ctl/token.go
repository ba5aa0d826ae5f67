package ctl

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/app/apiapp"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/config"
)

type tokenOutput struct {
	UserID      string    `json:"user_id"`
	SID         string    `json:"sid"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// NewTokenCommand issues a session for a user id. Sessions only outlive the command
// when the ephemeral store is redis.
func NewTokenCommand(opts *RootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.close()

			if e.cfg.Store.Ephemeral != config.DriverRedis {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: ephemeral driver is memory, the session dies with this process")
			}

			services := apiapp.NewServices(e.cfg, e.stores, nil, e.log)
			issued, err := services.Auth.IssueSession(cmd.Context(), userID)
			if err != nil {
				return err
			}

			out := tokenOutput{
				UserID:      issued.UserID,
				SID:         issued.SID,
				AccessToken: issued.AccessToken,
				ExpiresAt:   issued.AccessExpires,
			}
			return output(cmd.OutOrStdout(), opts, out, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, out.AccessToken)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id to issue the token for")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
