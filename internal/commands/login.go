package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/basecamp/basecamp-cli/internal/auth"
	"github.com/basecamp/basecamp-cli/internal/session"
	"github.com/basecamp/basecamp-cli/internal/tui"
)

// NewLoginCmd creates the `login` command running the OAuth code flow.
func NewLoginCmd() *cobra.Command {
	var (
		accountID int64
		noBrowser bool
		overrides session.Overrides
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to Basecamp via OAuth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(cmd)
			if err != nil {
				return err
			}

			announceSecretStore(app)

			opts := auth.LoginOptions{
				AccountID: accountID,
				NoBrowser: noBrowser,
				Overrides: overrides,
			}
			if tui.IsInteractive() {
				opts.Picker = pickAccount
			}

			result, err := auth.Login(cmd.Context(), app.Session, app.Output, opts)
			if err != nil {
				return err
			}

			if app.Output.JSONEnabled() {
				return app.Output.JSON(struct {
					OK          bool   `json:"ok"`
					AccountID   int64  `json:"account_id"`
					AccountName string `json:"account_name"`
				}{OK: true, AccountID: result.AccountID, AccountName: result.AccountName})
			}
			app.Output.Textf("Logged in to Basecamp account %q (%d).\n", result.AccountName, result.AccountID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&accountID, "account-id", 0, "Basecamp account id to select")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the authorization URL instead of opening a browser")
	cmd.Flags().StringVar(&overrides.ClientID, "client-id", "", "OAuth client id override")
	cmd.Flags().StringVar(&overrides.ClientSecret, "client-secret", "", "OAuth client secret override")
	cmd.Flags().StringVar(&overrides.RedirectURI, "redirect-uri", "", "OAuth redirect URI override")
	return cmd
}

func pickAccount(accounts []auth.Account) (auth.Account, error) {
	labels := make([]string, len(accounts))
	for i, account := range accounts {
		labels[i] = fmt.Sprintf("%s (%d)", account.Name, int64(account.ID))
	}
	index, err := tui.Select("Basecamp account", labels)
	if err != nil {
		return auth.Account{}, err
	}
	return accounts[index], nil
}
