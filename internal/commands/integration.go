package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/basecamp/basecamp-cli/internal/appctx"
	"github.com/basecamp/basecamp-cli/internal/output"
	"github.com/basecamp/basecamp-cli/internal/session"
	"github.com/basecamp/basecamp-cli/internal/tui"
)

// NewIntegrationCmd creates the `integration` command group for managing the
// OAuth client credentials.
func NewIntegrationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integration",
		Short: "Manage the Basecamp OAuth integration credentials",
	}
	cmd.AddCommand(newIntegrationSetCmd())
	cmd.AddCommand(newIntegrationShowCmd())
	cmd.AddCommand(newIntegrationClearCmd())
	return cmd
}

func newIntegrationSetCmd() *cobra.Command {
	var clientID, clientSecret, redirectURI string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the OAuth client id, secret, and redirect URI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(cmd)
			if err != nil {
				return err
			}

			values, err := resolveIntegrationSetValues(app, clientID, clientSecret, redirectURI)
			if err != nil {
				return err
			}

			announceSecretStore(app)
			if err := app.Session.SetIntegration(values.ClientID, values.ClientSecret, values.RedirectURI); err != nil {
				return err
			}

			if app.Output.JSONEnabled() {
				return app.Output.JSON(struct {
					OK bool `json:"ok"`
				}{OK: true})
			}
			app.Output.Textf("Integration credentials saved.\n")
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth client id")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth client secret")
	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "OAuth redirect URI")
	return cmd
}

// resolveIntegrationSetValues fills in missing flags from prompts. Without a
// terminal, every flag is required up front.
func resolveIntegrationSetValues(app *appctx.App, clientID, clientSecret, redirectURI string) (session.Integration, error) {
	clientID = normalizeOptional(clientID)
	clientSecret = normalizeOptional(clientSecret)
	redirectURI = normalizeOptional(redirectURI)

	var missing []string
	if clientID == "" {
		missing = append(missing, "--client-id")
	}
	if clientSecret == "" {
		missing = append(missing, "--client-secret")
	}
	if redirectURI == "" {
		missing = append(missing, "--redirect-uri")
	}
	if len(missing) == 0 {
		return session.Integration{ClientID: clientID, ClientSecret: clientSecret, RedirectURI: redirectURI}, nil
	}

	if !tui.IsInteractive() {
		return session.Integration{}, output.ErrInvalidInputf(
			"Missing required arguments: %s. Provide all flags in non-interactive mode.",
			strings.Join(missing, ", "))
	}

	defaultClientID, defaultRedirectURI, err := app.Session.IntegrationDefaults()
	if err != nil {
		return session.Integration{}, err
	}

	if clientID == "" {
		clientID, err = tui.RequiredInput("Client ID", defaultClientID, "Client ID is required.")
		if err != nil {
			return session.Integration{}, err
		}
	}
	if clientSecret == "" {
		clientSecret, err = tui.SecretInput("Client Secret")
		if err != nil {
			return session.Integration{}, err
		}
	}
	if redirectURI == "" {
		if defaultRedirectURI == "" {
			defaultRedirectURI = DefaultRedirectURI
		}
		redirectURI, err = tui.RequiredInput("Redirect URI", defaultRedirectURI, "Redirect URI is required.")
		if err != nil {
			return session.Integration{}, err
		}
	}

	return session.Integration{ClientID: clientID, ClientSecret: clientSecret, RedirectURI: redirectURI}, nil
}

// integrationShowOutput never carries the secret itself, only whether one is
// stored and a redacted client id.
type integrationShowOutput struct {
	OK               bool   `json:"ok"`
	HasClientID      bool   `json:"has_client_id"`
	HasClientSecret  bool   `json:"has_client_secret"`
	HasRedirectURI   bool   `json:"has_redirect_uri"`
	ClientIDRedacted string `json:"client_id,omitempty"`
	RedirectURI      string `json:"redirect_uri,omitempty"`
}

func newIntegrationShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored integration credentials (redacted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(cmd)
			if err != nil {
				return err
			}

			announceSecretStore(app)
			status, err := app.Session.IntegrationStatus()
			if err != nil {
				return err
			}

			result := integrationShowOutput{
				OK:               true,
				HasClientID:      status.ClientID != "",
				HasClientSecret:  status.HasClientSecret,
				HasRedirectURI:   status.RedirectURI != "",
				ClientIDRedacted: session.RedactValue(status.ClientID),
				RedirectURI:      status.RedirectURI,
			}
			if app.Output.JSONEnabled() {
				return app.Output.JSON(result)
			}

			app.Output.Textf("client_id: %s\n", configuredLabel(result.HasClientID))
			app.Output.Textf("client_secret: %s\n", configuredLabel(result.HasClientSecret))
			app.Output.Textf("redirect_uri: %s\n", configuredLabel(result.HasRedirectURI))
			if result.ClientIDRedacted != "" {
				app.Output.Textf("client_id (redacted): %s\n", result.ClientIDRedacted)
			}
			if result.RedirectURI != "" {
				app.Output.Textf("redirect_uri value: %s\n", result.RedirectURI)
			}
			return nil
		},
	}
}

func configuredLabel(present bool) string {
	if present {
		return "configured"
	}
	return "missing"
}

func newIntegrationClearCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored integration credentials and local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(cmd)
			if err != nil {
				return err
			}

			announceSecretStore(app)
			if !force {
				confirmed, err := tui.Confirm("Clear integration credentials and local session?", false)
				if err != nil {
					return err
				}
				if !confirmed {
					app.Output.Textf("Cancelled.\n")
					return nil
				}
			}

			if err := app.Session.ClearIntegration(); err != nil {
				return err
			}
			if err := app.Session.ClearSession(); err != nil {
				return err
			}

			if app.Output.JSONEnabled() {
				return app.Output.JSON(struct {
					OK bool `json:"ok"`
				}{OK: true})
			}
			app.Output.Textf("Integration credentials and session cleared.\n")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip the confirmation prompt")
	return cmd
}
