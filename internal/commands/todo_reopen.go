package commands

import (
	"github.com/spf13/cobra"

	"github.com/basecamp/basecamp-cli/internal/appctx"
	"github.com/basecamp/basecamp-cli/internal/output"
	"github.com/basecamp/basecamp-cli/internal/tui"
)

type todoReopenOutput struct {
	OK             bool        `json:"ok"`
	Mode           string      `json:"mode"`
	Query          string      `json:"query,omitempty"`
	ScopeProjectID int64       `json:"scope_project_id,omitempty"`
	Reopened       []todoEntry `json:"reopened"`
	Count          int         `json:"count"`
}

// newTodoReopenCmd creates `todo reopen`, the inverse of complete. Search
// mode only offers completed to-dos.
func newTodoReopenCmd() *cobra.Command {
	var todoID, projectID int64

	cmd := &cobra.Command{
		Use:   "reopen [QUERY]",
		Short: "Reopen completed to-dos",
		Args:  cobra.MaximumNArgs(1),
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
			client := newAPIClient(sess)
			ctx := cmd.Context()

			if todoID != 0 {
				if projectID == 0 {
					return output.ErrInvalidInput("`--project-id` is required when using `--id`.")
				}
				if err := client.ReopenTodo(ctx, projectID, todoID); err != nil {
					return err
				}
				return renderTodoReopen(app, todoReopenOutput{
					OK:             true,
					Mode:           "direct",
					ScopeProjectID: projectID,
					Reopened:       []todoEntry{{TodoID: todoID, ProjectID: projectID}},
					Count:          1,
				})
			}

			if err := ensureSearchTerminal("reopen"); err != nil {
				return err
			}
			query, err := resolveQuery(firstPositional(args))
			if err != nil {
				return err
			}

			matches, err := searchTodoMatches(ctx, client, query, projectID, filterCompletedOnly)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				return output.ErrNoAccountf("No completed to-dos matched %q.", query)
			}

			labels := make([]string, len(matches))
			for i, matched := range matches {
				labels[i] = matched.label()
			}
			selections, err := tui.MultiSelect("To-dos", labels)
			if err != nil {
				return err
			}
			if len(selections) == 0 {
				return output.ErrInvalidInput("Select at least one to-do to reopen.")
			}
			if err := printSelectedTodos(app, matches, selections); err != nil {
				return err
			}

			reopened := make([]todoEntry, 0, len(selections))
			for _, selection := range selections {
				matched := matches[selection]
				if err := client.ReopenTodo(ctx, matched.ProjectID, matched.TodoID); err != nil {
					return err
				}
				reopened = append(reopened, todoEntry{
					TodoID:      matched.TodoID,
					ProjectID:   matched.ProjectID,
					ProjectName: matched.ProjectName,
					Content:     matched.Content,
				})
			}

			return renderTodoReopen(app, todoReopenOutput{
				OK:             true,
				Mode:           "search",
				Query:          query,
				ScopeProjectID: projectID,
				Reopened:       reopened,
				Count:          len(reopened),
			})
		},
	}

	cmd.Flags().Int64Var(&todoID, "id", 0, "Reopen this to-do id directly")
	cmd.Flags().Int64Var(&projectID, "project-id", 0, "Project id (required with --id, scopes search otherwise)")
	return cmd
}

func renderTodoReopen(app *appctx.App, result todoReopenOutput) error {
	if app.Output.JSONEnabled() {
		return app.Output.JSON(result)
	}
	renderTodoEntries(app, "Reopened", result.Reopened)
	return nil
}
