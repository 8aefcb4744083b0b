package commands

import (
	"github.com/spf13/cobra"
)

type whoamiOutput struct {
	OK           bool   `json:"ok"`
	AccountID    int64  `json:"account_id"`
	AccountName  string `json:"account_name,omitempty"`
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	EmailAddress string `json:"email_address,omitempty"`
	Title        string `json:"title,omitempty"`
	Admin        bool   `json:"admin"`
	Owner        bool   `json:"owner"`
	Client       bool   `json:"client"`
	Employee     bool   `json:"employee"`
	TimeZone     string `json:"time_zone,omitempty"`
}

// NewWhoamiCmd creates the `whoami` command reporting the logged-in user.
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in Basecamp user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(cmd)
			if err != nil {
				return err
			}

			announceSecretStore(app)
			sess, err := app.Session.ResolveSessionContext()
			if err != nil {
				return err
			}

			profile, err := newAPIClient(sess).FetchMyProfile(cmd.Context())
			if err != nil {
				return err
			}

			result := whoamiOutput{
				OK:           true,
				AccountID:    sess.AccountID,
				AccountName:  sess.AccountName,
				ID:           int64(profile.ID),
				Name:         profile.Name,
				EmailAddress: profile.EmailAddress,
				Title:        profile.Title,
				Admin:        profile.Admin,
				Owner:        profile.Owner,
				Client:       profile.Client,
				Employee:     profile.Employee,
				TimeZone:     profile.TimeZone,
			}
			if app.Output.JSONEnabled() {
				return app.Output.JSON(result)
			}

			email := ""
			if result.EmailAddress != "" {
				email = " <" + result.EmailAddress + ">"
			}
			if result.AccountName != "" {
				app.Output.Textf("Current user: %s%s (person %d) on account %q (%d).\n",
					result.Name, email, result.ID, result.AccountName, result.AccountID)
			} else {
				app.Output.Textf("Current user: %s%s (person %d) on account %d.\n",
					result.Name, email, result.ID, result.AccountID)
			}
			return nil
		},
	}
}
