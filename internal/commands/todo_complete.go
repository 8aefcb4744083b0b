package commands

import (
	"github.com/spf13/cobra"

	"github.com/basecamp/basecamp-cli/internal/appctx"
	"github.com/basecamp/basecamp-cli/internal/output"
	"github.com/basecamp/basecamp-cli/internal/tui"
)

type todoCompleteOutput struct {
	OK             bool        `json:"ok"`
	Mode           string      `json:"mode"`
	Query          string      `json:"query,omitempty"`
	ScopeProjectID int64       `json:"scope_project_id,omitempty"`
	Completed      []todoEntry `json:"completed"`
	Count          int         `json:"count"`
}

// todoEntry is one acted-on to-do in complete/reopen output. Direct mode only
// knows the ids; search mode carries the project name and content too.
type todoEntry struct {
	TodoID      int64  `json:"todo_id"`
	ProjectID   int64  `json:"project_id"`
	ProjectName string `json:"project_name,omitempty"`
	Content     string `json:"content,omitempty"`
}

// newTodoCompleteCmd creates `todo complete`. With --id it completes one
// known to-do directly; otherwise it searches and prompts for a selection.
func newTodoCompleteCmd() *cobra.Command {
	var todoID, projectID int64

	cmd := &cobra.Command{
		Use:   "complete [QUERY]",
		Short: "Mark to-dos complete",
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
				if err := client.CompleteTodo(ctx, projectID, todoID); err != nil {
					return err
				}
				return renderTodoComplete(app, todoCompleteOutput{
					OK:             true,
					Mode:           "direct",
					ScopeProjectID: projectID,
					Completed:      []todoEntry{{TodoID: todoID, ProjectID: projectID}},
					Count:          1,
				})
			}

			if err := ensureSearchTerminal("complete"); err != nil {
				return err
			}
			query, err := resolveQuery(firstPositional(args))
			if err != nil {
				return err
			}

			matches, err := searchTodoMatches(ctx, client, query, projectID, filterIncompleteOnly)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				return output.ErrNoAccountf("No to-dos matched %q.", query)
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
				return output.ErrInvalidInput("Select at least one to-do to complete.")
			}
			if err := printSelectedTodos(app, matches, selections); err != nil {
				return err
			}

			completed := make([]todoEntry, 0, len(selections))
			for _, selection := range selections {
				matched := matches[selection]
				if err := client.CompleteTodo(ctx, matched.ProjectID, matched.TodoID); err != nil {
					return err
				}
				completed = append(completed, todoEntry{
					TodoID:      matched.TodoID,
					ProjectID:   matched.ProjectID,
					ProjectName: matched.ProjectName,
					Content:     matched.Content,
				})
			}

			return renderTodoComplete(app, todoCompleteOutput{
				OK:             true,
				Mode:           "search",
				Query:          query,
				ScopeProjectID: projectID,
				Completed:      completed,
				Count:          len(completed),
			})
		},
	}

	cmd.Flags().Int64Var(&todoID, "id", 0, "Complete this to-do id directly")
	cmd.Flags().Int64Var(&projectID, "project-id", 0, "Project id (required with --id, scopes search otherwise)")
	return cmd
}

func renderTodoComplete(app *appctx.App, result todoCompleteOutput) error {
	if app.Output.JSONEnabled() {
		return app.Output.JSON(result)
	}
	renderTodoEntries(app, "Completed", result.Completed)
	return nil
}
