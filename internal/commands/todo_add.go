package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/basecamp/basecamp-cli/internal/api"
	"github.com/basecamp/basecamp-cli/internal/appctx"
	"github.com/basecamp/basecamp-cli/internal/dateparse"
	"github.com/basecamp/basecamp-cli/internal/output"
	"github.com/basecamp/basecamp-cli/internal/tui"
)

type todoAddOutput struct {
	OK           bool   `json:"ok"`
	ProjectID    int64  `json:"project_id"`
	ProjectName  string `json:"project_name"`
	TodolistID   int64  `json:"todolist_id"`
	TodolistName string `json:"todolist_name"`
	TodoID       int64  `json:"todo_id"`
	Content      string `json:"content"`
}

// newTodoAddCmd creates `todo add`. The command walks the user through
// project, list, group, and people pickers, so it always needs a terminal.
func newTodoAddCmd() *cobra.Command {
	var notes, dueOn string

	cmd := &cobra.Command{
		Use:   "add [CONTENT]",
		Short: "Add a to-do interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(cmd)
			if err != nil {
				return err
			}

			announceSecretStore(app)
			if !tui.IsInteractive() {
				return output.ErrInvalidInput("`basecamp todo add` requires an interactive terminal for prompts.")
			}
			sess, err := app.Session.ResolveSessionContext()
			if err != nil {
				return err
			}
			client := newAPIClient(sess)
			ctx := cmd.Context()

			projects, err := client.ListProjects(ctx)
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				return output.ErrNoAccount("No Basecamp projects were found for the current account.")
			}

			project, err := pickProject(projects)
			if err != nil {
				return err
			}
			todosetID, ok := project.TodosetID()
			if !ok {
				return output.ErrNoAccountf("Project %q does not expose a usable todoset in dock.", project.Name)
			}

			todolists, err := client.ListTodolists(ctx, int64(project.ID), todosetID)
			if err != nil {
				return err
			}
			if len(todolists) == 0 {
				return output.ErrNoAccountf("Project %q has no to-do lists.", project.Name)
			}

			todolist, err := pickTodolist("To-do list", todolists)
			if err != nil {
				return err
			}
			targetID := int64(todolist.ID)
			targetName := todolist.DisplayName()

			useGroup, err := tui.Confirm("Use a group?", false)
			if err != nil {
				return err
			}
			if useGroup {
				groups, err := client.ListTodolistGroups(ctx, int64(project.ID), targetID)
				if err != nil {
					return err
				}
				if len(groups) == 0 {
					app.Output.Notef("No groups found in selected list. Creating todo in the list.\n")
				} else {
					group, err := pickTodolist("Group", groups)
					if err != nil {
						return err
					}
					targetID = int64(group.ID)
					targetName = targetName + " / " + group.DisplayName()
				}
			}

			content, err := resolveAddContent(firstPositional(args))
			if err != nil {
				return err
			}
			resolvedNotes, err := resolveAddNotes(cmd.Flags().Changed("notes"), notes)
			if err != nil {
				return err
			}

			people := optionalProjectPeople(ctx, app, client, int64(project.ID))
			assigneeID, err := promptAssignee(people)
			if err != nil {
				return err
			}
			subscriberIDs, err := promptCompletionSubscribers(people)
			if err != nil {
				return err
			}

			resolvedDue, err := resolveAddDueOn(cmd.Flags().Changed("due"), dueOn)
			if err != nil {
				return err
			}

			payload := api.CreateTodoPayload{Content: content}
			if resolvedNotes != "" {
				payload.Description = &resolvedNotes
			}
			if assigneeID != 0 {
				payload.AssigneeIDs = []int64{assigneeID}
			}
			payload.CompletionSubscriberIDs = subscriberIDs
			if resolvedDue != "" {
				payload.DueOn = &resolvedDue
			}

			created, err := client.CreateTodo(ctx, int64(project.ID), targetID, payload)
			if err != nil {
				return err
			}

			result := todoAddOutput{
				OK:           true,
				ProjectID:    int64(project.ID),
				ProjectName:  project.Name,
				TodolistID:   targetID,
				TodolistName: targetName,
				TodoID:       int64(created.ID),
				Content:      created.Content,
			}
			if app.Output.JSONEnabled() {
				return app.Output.JSON(result)
			}
			app.Output.Textf("Created todo %q in project %q / list %q (id: %d).\n",
				result.Content, result.ProjectName, result.TodolistName, result.TodoID)
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Notes for the to-do")
	cmd.Flags().StringVar(&dueOn, "due", "", "Due date (YYYY-MM-DD)")
	return cmd
}

func pickProject(projects []api.Project) (api.Project, error) {
	labels := make([]string, len(projects))
	for i, project := range projects {
		labels[i] = fmt.Sprintf("%s (%d)", project.Name, int64(project.ID))
	}
	index, err := tui.Select("Project", labels)
	if err != nil {
		return api.Project{}, err
	}
	return projects[index], nil
}

func pickTodolist(title string, lists []api.Todolist) (api.Todolist, error) {
	labels := make([]string, len(lists))
	for i, list := range lists {
		labels[i] = fmt.Sprintf("%s (%d)", list.DisplayName(), int64(list.ID))
	}
	index, err := tui.Select(title, labels)
	if err != nil {
		return api.Todolist{}, err
	}
	return lists[index], nil
}

func resolveAddContent(positional string) (string, error) {
	if content := normalizeOptional(positional); content != "" {
		return content, nil
	}
	return tui.RequiredInput("Title", "", "Title/content is required.")
}

func resolveAddNotes(flagProvided bool, flagValue string) (string, error) {
	if flagProvided {
		return normalizeOptional(flagValue), nil
	}
	return tui.Input("Notes (optional)", "")
}

func resolveAddDueOn(flagProvided bool, flagValue string) (string, error) {
	var value string
	if flagProvided {
		value = normalizeOptional(flagValue)
	} else {
		prompted, err := tui.Input("Due date (optional, YYYY-MM-DD)", "")
		if err != nil {
			return "", err
		}
		value = prompted
	}

	if value == "" {
		return "", nil
	}
	if err := dateparse.ValidateDueDate(value); err != nil {
		return "", err
	}
	return value, nil
}

// optionalProjectPeople fetches the project's people for the assignee and
// notification prompts. A failure here only skips those prompts.
func optionalProjectPeople(ctx context.Context, app *appctx.App, client *api.Client, projectID int64) []api.ProjectPerson {
	people, err := client.ListProjectPeople(ctx, projectID)
	if err != nil {
		app.Output.Notef("Skipping people-based prompts: %s\n", output.AsError(err).Message)
		return nil
	}
	return people
}

func promptAssignee(people []api.ProjectPerson) (int64, error) {
	if len(people) == 0 {
		return 0, nil
	}

	labels := make([]string, 0, len(people)+1)
	labels = append(labels, "No assignee")
	for _, person := range people {
		labels = append(labels, person.Label())
	}

	index, err := tui.Select("Assignee", labels)
	if err != nil {
		return 0, err
	}
	if index == 0 {
		return 0, nil
	}
	return int64(people[index-1].ID), nil
}

func promptCompletionSubscribers(people []api.ProjectPerson) ([]int64, error) {
	if len(people) == 0 {
		return nil, nil
	}

	labels := make([]string, len(people))
	for i, person := range people {
		labels[i] = person.Label()
	}

	selections, err := tui.MultiSelect("When done, notify", labels)
	if err != nil {
		return nil, err
	}
	if len(selections) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(selections))
	for _, index := range selections {
		ids = append(ids, int64(people[index].ID))
	}
	return ids, nil
}
