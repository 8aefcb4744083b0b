// Package cli assembles the root command and owns process exit.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/basecamp/basecamp-cli/internal/appctx"
	"github.com/basecamp/basecamp-cli/internal/commands"
	"github.com/basecamp/basecamp-cli/internal/config"
	"github.com/basecamp/basecamp-cli/internal/output"
	"github.com/basecamp/basecamp-cli/internal/secrets"
	"github.com/basecamp/basecamp-cli/internal/version"
)

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	var flags appctx.GlobalFlags

	cmd := &cobra.Command{
		Use:           "basecamp",
		Short:         "Command-line interface for Basecamp to-dos",
		Long:          "basecamp logs in to Basecamp via OAuth and works with to-dos from the terminal.",
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch cmd.Name() {
			case "help", "version", "completion":
				return nil
			}

			dir, err := config.Dir()
			if err != nil {
				return err
			}
			app := appctx.NewApp(dir, secrets.SystemKeystore(), flags)
			cmd.SetContext(appctx.WithApp(cmd.Context(), app))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&flags.JSON, "json", false, "Output as JSON")
	cmd.PersistentFlags().StringVar(&flags.JQ, "jq", "", "Filter JSON output with a jq expression")

	cmd.AddCommand(commands.NewIntegrationCmd())
	cmd.AddCommand(commands.NewLoginCmd())
	cmd.AddCommand(commands.NewLogoutCmd())
	cmd.AddCommand(commands.NewWhoamiCmd())
	cmd.AddCommand(commands.NewTodoCmd())

	return cmd
}

// Execute runs the root command and exits the process on error.
func Execute() {
	cmd := NewRootCmd()

	executed, err := cmd.ExecuteC()
	if err == nil {
		return
	}

	appErr := output.AsError(err)
	if app := appctx.FromContext(executed.Context()); app != nil {
		app.Output.Err(appErr)
	} else {
		// Failures before the app context exists, such as flag parse
		// errors, still get a consistent rendering.
		jsonFlag, _ := cmd.PersistentFlags().GetBool("json")
		writer := output.New(output.Options{JSON: jsonFlag})
		writer.Err(appErr)
	}
	os.Exit(appErr.ExitCode())
}
