package commands

import (
	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the `logout` command. Logout is local only: it drops
// the stored tokens without revoking them server-side.
func NewLogoutCmd() *cobra.Command {
	var forgetClient bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out of the local Basecamp session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(cmd)
			if err != nil {
				return err
			}

			announceSecretStore(app)
			if err := app.Session.ClearSession(); err != nil {
				return err
			}
			if forgetClient {
				if err := app.Session.ClearIntegration(); err != nil {
					return err
				}
			}

			if app.Output.JSONEnabled() {
				return app.Output.JSON(struct {
					OK bool `json:"ok"`
				}{OK: true})
			}
			app.Output.Textf("Logged out from local Basecamp session.\n")
			return nil
		},
	}

	cmd.Flags().BoolVar(&forgetClient, "forget-client", false, "Also remove the stored client credentials")
	return cmd
}
