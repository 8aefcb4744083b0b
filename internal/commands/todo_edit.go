package commands

import (
	"github.com/spf13/cobra"

	"github.com/basecamp/basecamp-cli/internal/api"
	"github.com/basecamp/basecamp-cli/internal/dateparse"
	"github.com/basecamp/basecamp-cli/internal/output"
	"github.com/basecamp/basecamp-cli/internal/tui"
)

type todoEditOutput struct {
	OK          bool   `json:"ok"`
	Mode        string `json:"mode"`
	Query       string `json:"query,omitempty"`
	ProjectID   int64  `json:"project_id"`
	ProjectName string `json:"project_name,omitempty"`
	TodoID      int64  `json:"todo_id"`
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
	DueOn       string `json:"due_on,omitempty"`
}

// newTodoEditCmd creates `todo edit`. The update endpoint replaces every
// editable field, so the command fetches the current to-do first and merges
// flags or prompt answers into it before the PUT.
func newTodoEditCmd() *cobra.Command {
	var (
		todoID, projectID     int64
		content, notes, dueOn string
	)

	cmd := &cobra.Command{
		Use:   "edit [QUERY]",
		Short: "Edit a to-do's content, notes, or due date",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(cmd)
			if err != nil {
				return err
			}

			contentOverride := ""
			if cmd.Flags().Changed("content") {
				contentOverride = normalizeOptional(content)
				if contentOverride == "" {
					return output.ErrInvalidInput("`--content` cannot be blank.")
				}
			}
			notesProvided := cmd.Flags().Changed("notes")
			notesOverride := normalizeOptional(notes)
			dueProvided := cmd.Flags().Changed("due")
			dueOverride := normalizeOptional(dueOn)
			if dueOverride != "" {
				if err := dateparse.ValidateDueDate(dueOverride); err != nil {
					return err
				}
			}

			announceSecretStore(app)
			sess, err := app.Session.ResolveSessionContext()
			if err != nil {
				return err
			}
			client := newAPIClient(sess)
			ctx := cmd.Context()

			mode := "direct"
			query := ""
			projectName := ""
			targetProjectID := projectID
			targetTodoID := todoID

			directMode := todoID != 0
			if directMode {
				if projectID == 0 {
					return output.ErrInvalidInput("`--project-id` is required when using `--id`.")
				}
			} else {
				if err := ensureSearchTerminal("edit"); err != nil {
					return err
				}
				query, err = resolveQuery(firstPositional(args))
				if err != nil {
					return err
				}

				matches, err := searchTodoMatches(ctx, client, query, projectID, filterAny)
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
				selection, err := tui.Select("To-do", labels)
				if err != nil {
					return err
				}
				if err := printSelectedTodos(app, matches, []int{selection}); err != nil {
					return err
				}

				matched := matches[selection]
				mode = "search"
				targetProjectID = matched.ProjectID
				targetTodoID = matched.TodoID
				projectName = matched.ProjectName
			}

			todo, err := client.GetTodo(ctx, targetProjectID, targetTodoID)
			if err != nil {
				return err
			}

			var newContent, newNotes, newDue string
			hasDirectOverrides := directMode && (contentOverride != "" || notesProvided || dueProvided)
			if hasDirectOverrides {
				newContent = contentOverride
				if newContent == "" {
					newContent = normalizeOptional(todo.Content)
					if newContent == "" {
						newContent = todo.Content
					}
				}
				if notesProvided {
					newNotes = notesOverride
				} else {
					newNotes = normalizeOptional(todo.Description)
				}
				if dueProvided {
					newDue = dueOverride
				} else {
					newDue = normalizeOptional(todo.DueOn)
				}
			} else {
				if contentOverride == "" || !notesProvided || !dueProvided {
					if !tui.IsInteractive() {
						return output.ErrInvalidInput("`basecamp todo edit` requires an interactive terminal for prompts.")
					}
				}

				newContent = contentOverride
				if newContent == "" {
					newContent, err = tui.RequiredInput("Title", normalizeOptional(todo.Content), "Title/content is required.")
					if err != nil {
						return err
					}
				}
				if notesProvided {
					newNotes = notesOverride
				} else {
					newNotes, err = tui.Input("Notes (optional)", normalizeOptional(todo.Description))
					if err != nil {
						return err
					}
				}
				if dueProvided {
					newDue = dueOverride
				} else {
					newDue, err = tui.Input("Due date (optional, YYYY-MM-DD)", normalizeOptional(todo.DueOn))
					if err != nil {
						return err
					}
					if newDue != "" {
						if err := dateparse.ValidateDueDate(newDue); err != nil {
							return err
						}
					}
				}
			}

			payload := api.UpdateTodoPayload{Content: newContent}
			if newNotes != "" {
				payload.Description = &newNotes
			}
			if newDue != "" {
				payload.DueOn = &newDue
			}

			updated, err := client.UpdateTodo(ctx, targetProjectID, targetTodoID, payload)
			if err != nil {
				return err
			}

			result := todoEditOutput{
				OK:          true,
				Mode:        mode,
				Query:       query,
				ProjectID:   targetProjectID,
				ProjectName: projectName,
				TodoID:      int64(updated.ID),
				Content:     fallback(normalizeOptional(updated.Content), newContent),
				Description: fallback(normalizeOptional(updated.Description), newNotes),
				DueOn:       fallback(normalizeOptional(updated.DueOn), newDue),
			}
			if app.Output.JSONEnabled() {
				return app.Output.JSON(result)
			}
			app.Output.Textf("Updated todo %q (id: %d, project: %d).\n", result.Content, result.TodoID, result.ProjectID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&todoID, "id", 0, "Edit this to-do id directly")
	cmd.Flags().Int64Var(&projectID, "project-id", 0, "Project id (required with --id, scopes search otherwise)")
	cmd.Flags().StringVar(&content, "content", "", "New title/content")
	cmd.Flags().StringVar(&notes, "notes", "", "New notes (empty clears)")
	cmd.Flags().StringVar(&dueOn, "due", "", "New due date (YYYY-MM-DD, empty clears)")
	return cmd
}

func fallback(value, alt string) string {
	if value != "" {
		return value
	}
	return alt
}
