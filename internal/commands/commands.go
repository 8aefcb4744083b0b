// Package commands implements the CLI subcommands. Each command resolves its
// collaborators from the app context, does its work through the session store
// and API client, and renders either plain text or a JSON envelope.
package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/basecamp/basecamp-cli/internal/api"
	"github.com/basecamp/basecamp-cli/internal/appctx"
	"github.com/basecamp/basecamp-cli/internal/output"
	"github.com/basecamp/basecamp-cli/internal/session"
	"github.com/basecamp/basecamp-cli/internal/tui"
)

// DefaultRedirectURI is suggested when prompting for an integration redirect.
const DefaultRedirectURI = "http://127.0.0.1:45455/callback"

// newAPIClient builds the API client for a resolved session. Tests swap this
// out to point commands at an httptest server.
var newAPIClient = func(sess session.Context) *api.Client {
	return api.NewClient(sess.AccountID, sess.AccessToken)
}

func requireApp(cmd *cobra.Command) (*appctx.App, error) {
	app := appctx.FromContext(cmd.Context())
	if app == nil {
		return nil, output.ErrGeneric("Application context is not initialized.")
	}
	return app, nil
}

// announceSecretStore tells the user where secrets live before any command
// touches the keyring or the vault.
func announceSecretStore(app *appctx.App) {
	info := app.Session.StorageInfo()
	app.Output.Notef("using secret store: keyring service=%s account=%s\n", info.KeyringService, info.KeyringAccount)
	app.Output.Notef("using secret file: %s\n", info.VaultPath)
}

// normalizeOptional trims a flag or prompt value; blank collapses to empty.
func normalizeOptional(value string) string {
	return strings.TrimSpace(value)
}

// completionFilter narrows search matches by completion state. Complete wants
// open to-dos, reopen wants finished ones, edit and search take any.
type completionFilter int

const (
	filterAny completionFilter = iota
	filterCompletedOnly
	filterIncompleteOnly
)

func (f completionFilter) matches(completed bool) bool {
	switch f {
	case filterCompletedOnly:
		return completed
	case filterIncompleteOnly:
		return !completed
	default:
		return true
	}
}

// todoMatch is one actionable search hit: a to-do with the project it lives
// in, ready for selection prompts and completion calls.
type todoMatch struct {
	TodoID      int64  `json:"todo_id"`
	ProjectID   int64  `json:"project_id"`
	ProjectName string `json:"project_name"`
	Content     string `json:"content"`
}

// toTodoMatches filters raw search recordings down to usable matches.
// Recordings without a bucket have no project to act on and are dropped.
func toTodoMatches(recordings []api.TodoSearchResult, filter completionFilter) []todoMatch {
	var matches []todoMatch
	for _, recording := range recordings {
		if recording.Type != "Todo" {
			continue
		}
		completed := recording.Completed != nil && *recording.Completed
		if !filter.matches(completed) {
			continue
		}
		if recording.Bucket == nil {
			continue
		}

		projectName := normalizeOptional(recording.Bucket.Name)
		if projectName == "" {
			projectName = fmt.Sprintf("Project %d", int64(recording.Bucket.ID))
		}

		matches = append(matches, todoMatch{
			TodoID:      int64(recording.ID),
			ProjectID:   int64(recording.Bucket.ID),
			ProjectName: projectName,
			Content:     recordingContent(recording),
		})
	}
	return matches
}

func recordingContent(recording api.TodoSearchResult) string {
	if content := normalizeOptional(recording.Content); content != "" {
		return content
	}
	if title := normalizeOptional(recording.Title); title != "" {
		return title
	}
	return fmt.Sprintf("Todo %d", int64(recording.ID))
}

func (m todoMatch) label() string {
	return fmt.Sprintf("%s - %s / %d (%d)", m.Content, m.ProjectName, m.ProjectID, m.TodoID)
}

func searchTodoMatches(ctx context.Context, client *api.Client, query string, scopeProjectID int64, filter completionFilter) ([]todoMatch, error) {
	recordings, err := client.SearchTodos(ctx, query, scopeProjectID, api.SearchPerPage, api.SearchMaxPages)
	if err != nil {
		return nil, err
	}
	return toTodoMatches(recordings, filter), nil
}

// printSelectedTodos echoes the chosen to-dos before acting on them, so the
// user sees exactly what is about to change.
func printSelectedTodos(app *appctx.App, matches []todoMatch, selections []int) error {
	for _, selection := range selections {
		if selection < 0 || selection >= len(matches) {
			return output.ErrInvalidInput("To-do selection out of range.")
		}
		matched := matches[selection]
		app.Output.Textf("  - %s (id: %d, project: %s / %d)\n", matched.Content, matched.TodoID, matched.ProjectName, matched.ProjectID)
	}
	return nil
}

// resolveQuery takes the positional query or prompts for one.
func resolveQuery(positional string) (string, error) {
	if query := normalizeOptional(positional); query != "" {
		return query, nil
	}

	value, err := tui.Input("Search text", "")
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", output.ErrInvalidInput("Search text is required.")
	}
	return value, nil
}

func ensureSearchTerminal(commandName string) error {
	if tui.IsInteractive() {
		return nil
	}
	return output.ErrInvalidInputf("`basecamp todo %s` search mode requires an interactive terminal for prompts.", commandName)
}

// renderTodoEntries prints the plain-text result of a complete or reopen
// run: one summary line for a single to-do, a list for several.
func renderTodoEntries(app *appctx.App, verb string, entries []todoEntry) {
	if len(entries) == 1 {
		entry := entries[0]
		app.Output.Textf("%s todo (id: %d, project: %d).\n", verb, entry.TodoID, entry.ProjectID)
		return
	}

	app.Output.Textf("%s %d todos:\n", verb, len(entries))
	for _, entry := range entries {
		title := entry.Content
		if title == "" {
			title = fmt.Sprintf("Todo %d", entry.TodoID)
		}
		if entry.ProjectName != "" {
			app.Output.Textf("  - %s (id: %d, project: %s / %d)\n", title, entry.TodoID, entry.ProjectName, entry.ProjectID)
		} else {
			app.Output.Textf("  - %s (id: %d, project: %d)\n", title, entry.TodoID, entry.ProjectID)
		}
	}
}

func firstPositional(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
