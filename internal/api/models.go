package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID tolerates the API serializing record ids as numbers or strings.
type ID int64

func (i *ID) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*i = ID(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("id is neither number nor string: %s", data)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("id %q is not numeric", s)
	}
	*i = ID(n)
	return nil
}

// Project is a Basecamp project with its dock of tool entries.
type Project struct {
	ID   ID           `json:"id"`
	Name string       `json:"name"`
	Dock []ProjectDock `json:"dock"`
}

// ProjectDock is one tool entry in a project's dock.
type ProjectDock struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	Enabled *bool  `json:"enabled"`
}

// IsEnabled treats a missing enabled flag as on, matching the API's habit of
// omitting it for always-on tools.
func (d ProjectDock) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// TodosetID finds the project's enabled todoset dock entry.
func (p Project) TodosetID() (int64, bool) {
	for _, item := range p.Dock {
		if item.Name == "todoset" && item.IsEnabled() {
			return int64(item.ID), true
		}
	}
	return 0, false
}

// Todolist is a to-do list or a group within one. Groups report their label
// in name, lists in title; neither is guaranteed.
type Todolist struct {
	ID    ID     `json:"id"`
	Title string `json:"title"`
	Name  string `json:"name"`
}

// DisplayName picks the first usable label.
func (l Todolist) DisplayName() string {
	if title := strings.TrimSpace(l.Title); title != "" {
		return title
	}
	if name := strings.TrimSpace(l.Name); name != "" {
		return name
	}
	return fmt.Sprintf("List %d", int64(l.ID))
}

// ProjectPerson is a person with access to a project.
type ProjectPerson struct {
	ID           ID     `json:"id"`
	Name         string `json:"name"`
	EmailAddress string `json:"email_address"`
}

// Label renders a person for prompts.
func (p ProjectPerson) Label() string {
	if p.EmailAddress != "" {
		return fmt.Sprintf("%s <%s> (%d)", p.Name, p.EmailAddress, int64(p.ID))
	}
	return fmt.Sprintf("%s (%d)", p.Name, int64(p.ID))
}

// CreateTodoPayload is the body for creating a to-do. Optional fields are
// omitted entirely rather than sent empty.
type CreateTodoPayload struct {
	Content                 string  `json:"content"`
	Description             *string `json:"description,omitempty"`
	AssigneeIDs             []int64 `json:"assignee_ids,omitempty"`
	CompletionSubscriberIDs []int64 `json:"completion_subscriber_ids,omitempty"`
	DueOn                   *string `json:"due_on,omitempty"`
}

// UpdateTodoPayload is the body for updating a to-do. The API treats PUT as
// a full replacement, so callers merge current values in first.
type UpdateTodoPayload struct {
	Content     string  `json:"content"`
	Description *string `json:"description,omitempty"`
	DueOn       *string `json:"due_on,omitempty"`
}

// CreatedTodo is the slice of the creation response the CLI reports.
type CreatedTodo struct {
	ID      ID     `json:"id"`
	Content string `json:"content"`
}

// Todo is an existing to-do's editable surface.
type Todo struct {
	ID          ID     `json:"id"`
	Content     string `json:"content"`
	Description string `json:"description"`
	DueOn       string `json:"due_on"`
}

// TodoSearchResult is one recording from the search endpoint.
type TodoSearchResult struct {
	ID        ID            `json:"id"`
	Type      string        `json:"type"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Completed *bool         `json:"completed"`
	Bucket    *SearchBucket `json:"bucket"`
}

// SearchBucket is the project a search recording lives in.
type SearchBucket struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// PersonProfile is the authenticated user's profile.
type PersonProfile struct {
	ID           ID     `json:"id"`
	Name         string `json:"name"`
	EmailAddress string `json:"email_address"`
	Title        string `json:"title"`
	Admin        bool   `json:"admin"`
	Owner        bool   `json:"owner"`
	Client       bool   `json:"client"`
	Employee     bool   `json:"employee"`
	TimeZone     string `json:"time_zone"`
}
