package commands

import (
	"github.com/spf13/cobra"

	"github.com/basecamp/basecamp-cli/internal/output"
)

type todoSearchOutput struct {
	OK             bool        `json:"ok"`
	Query          string      `json:"query"`
	ScopeProjectID int64       `json:"scope_project_id,omitempty"`
	Matches        []todoMatch `json:"matches"`
	Count          int         `json:"count"`
}

// newTodoSearchCmd creates `todo search`. Unlike complete and edit it never
// prompts, so it works in pipes and scripts.
func newTodoSearchCmd() *cobra.Command {
	var projectID int64

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search to-dos by text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(cmd)
			if err != nil {
				return err
			}

			query := normalizeOptional(args[0])
			if query == "" {
				return output.ErrInvalidInput("Search text is required.")
			}

			announceSecretStore(app)
			sess, err := app.Session.ResolveSessionContext()
			if err != nil {
				return err
			}
			client := newAPIClient(sess)

			matches, err := searchTodoMatches(cmd.Context(), client, query, projectID, filterAny)
			if err != nil {
				return err
			}

			if matches == nil {
				matches = []todoMatch{}
			}
			result := todoSearchOutput{
				OK:             true,
				Query:          query,
				ScopeProjectID: projectID,
				Matches:        matches,
				Count:          len(matches),
			}
			if app.Output.JSONEnabled() {
				return app.Output.JSON(result)
			}

			if len(matches) == 0 {
				app.Output.Textf("No to-dos matched %q.\n", query)
				return nil
			}
			for _, matched := range matches {
				app.Output.Textf("  - %s (id: %d, project: %s / %d)\n", matched.Content, matched.TodoID, matched.ProjectName, matched.ProjectID)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&projectID, "project-id", 0, "Limit the search to one project")
	return cmd
}
