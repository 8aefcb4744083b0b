// Package api is the bearer-token client for the Basecamp 3 REST API.
// Requests never retry; transient failures surface to the user instead of
// silently hammering the API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/basecamp/basecamp-cli/internal/output"
	"github.com/basecamp/basecamp-cli/internal/version"
)

const (
	defaultBaseURL = "https://3.basecampapi.com"
	requestTimeout = 30 * time.Second

	todoSearchType = "Todo"

	// SearchPerPage and SearchMaxPages bound the search fan-out: at most
	// 20 pages of 50 recordings per query.
	SearchPerPage  = 50
	SearchMaxPages = 20
)

// Client calls the Basecamp API for one account with one access token.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accountID   int64
	accessToken string
}

// NewClient builds a client for the given account.
func NewClient(accountID int64, accessToken string) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: requestTimeout},
		baseURL:     defaultBaseURL,
		accountID:   accountID,
		accessToken: accessToken,
	}
}

// WithBaseURL points the client at a different API host, for tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// FetchMyProfile returns the authenticated user's profile.
func (c *Client) FetchMyProfile(ctx context.Context) (PersonProfile, error) {
	var profile PersonProfile
	err := c.getJSON(ctx, "my/profile.json", nil, &profile, statusMessages{
		context:   "whoami profile",
		forbidden: "Basecamp denied access (403 Forbidden).",
		prefix:    "Basecamp whoami request failed with status",
	})
	return profile, err
}

// ListProjects returns every project visible to the token, following
// pagination to the end.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	return getAll[Project](ctx, c, "projects.json", nil, statusMessages{
		context:   "projects",
		forbidden: "Basecamp denied access to projects (403 Forbidden).",
		notFound:  "Basecamp projects endpoint was not found or is not accessible.",
		prefix:    "Basecamp projects request failed with status",
	})
}

// ListTodolists returns the to-do lists of a project's todoset.
func (c *Client) ListTodolists(ctx context.Context, projectID, todosetID int64) ([]Todolist, error) {
	path := fmt.Sprintf("buckets/%d/todosets/%d/todolists.json", projectID, todosetID)
	return getAll[Todolist](ctx, c, path, nil, statusMessages{
		context:   "to-do lists",
		forbidden: "Basecamp denied access to to-do lists (403 Forbidden).",
		notFound:  "Basecamp to-do lists endpoint was not found or is not accessible.",
		prefix:    "Basecamp to-do lists request failed with status",
	})
}

// ListTodolistGroups returns the groups nested in a to-do list.
func (c *Client) ListTodolistGroups(ctx context.Context, projectID, todolistID int64) ([]Todolist, error) {
	path := fmt.Sprintf("buckets/%d/todolists/%d/groups.json", projectID, todolistID)
	return getAll[Todolist](ctx, c, path, nil, statusMessages{
		context:   "to-do groups",
		forbidden: "Basecamp denied access to to-do groups (403 Forbidden).",
		notFound:  "Basecamp to-do groups endpoint was not found or is not accessible.",
		prefix:    "Basecamp to-do groups request failed with status",
	})
}

// ListProjectPeople returns the people with access to a project.
func (c *Client) ListProjectPeople(ctx context.Context, projectID int64) ([]ProjectPerson, error) {
	path := fmt.Sprintf("projects/%d/people.json", projectID)
	return getAll[ProjectPerson](ctx, c, path, nil, statusMessages{
		context:   "project people",
		forbidden: "Basecamp denied access to project people (403 Forbidden).",
		notFound:  "Basecamp project people endpoint was not found or is not accessible.",
		prefix:    "Basecamp project people request failed with status",
	})
}

// CreateTodo adds a to-do to a list or group.
func (c *Client) CreateTodo(ctx context.Context, projectID, todolistID int64, payload CreateTodoPayload) (CreatedTodo, error) {
	path := fmt.Sprintf("buckets/%d/todolists/%d/todos.json", projectID, todolistID)
	var created CreatedTodo
	err := c.sendJSON(ctx, http.MethodPost, path, payload, &created, statusMessages{
		context:   "todo creation",
		forbidden: "Basecamp denied todo creation (403 Forbidden).",
		notFound:  "Target project/list was not found or is not accessible.",
		prefix:    "Basecamp todo creation failed with status",
	})
	return created, err
}

// GetTodo fetches one to-do.
func (c *Client) GetTodo(ctx context.Context, projectID, todoID int64) (Todo, error) {
	path := fmt.Sprintf("buckets/%d/todos/%d.json", projectID, todoID)
	var todo Todo
	err := c.getJSON(ctx, path, nil, &todo, statusMessages{
		context:   "to-do details",
		forbidden: "Basecamp denied to-do details access (403 Forbidden).",
		notFound:  "Target project/todo was not found or is not accessible.",
		prefix:    "Basecamp to-do details request failed with status",
	})
	return todo, err
}

// UpdateTodo replaces a to-do's editable fields.
func (c *Client) UpdateTodo(ctx context.Context, projectID, todoID int64, payload UpdateTodoPayload) (Todo, error) {
	path := fmt.Sprintf("buckets/%d/todos/%d.json", projectID, todoID)
	var updated Todo
	err := c.sendJSON(ctx, http.MethodPut, path, payload, &updated, statusMessages{
		context:   "todo update",
		forbidden: "Basecamp denied todo update (403 Forbidden).",
		notFound:  "Target project/todo was not found or is not accessible.",
		prefix:    "Basecamp todo update failed with status",
	})
	return updated, err
}

// SearchTodos pages through the search endpoint for Todo recordings. A page
// shorter than perPage ends the walk; maxPages caps it either way.
func (c *Client) SearchTodos(ctx context.Context, query string, scopeProjectID int64, perPage, maxPages int) ([]TodoSearchResult, error) {
	if perPage <= 0 || maxPages <= 0 {
		return nil, nil
	}

	msgs := statusMessages{
		context:   "to-do search",
		forbidden: "Basecamp denied to-do search access (403 Forbidden).",
		notFound:  "Basecamp to-do search endpoint was not found or is not accessible.",
		prefix:    "Basecamp to-do search failed with status",
	}

	var matches []TodoSearchResult
	for page := 1; page <= maxPages; page++ {
		params := url.Values{}
		params.Set("q", query)
		params.Set("type", todoSearchType)
		params.Set("page", strconv.Itoa(page))
		params.Set("per_page", strconv.Itoa(perPage))
		if scopeProjectID != 0 {
			params.Set("bucket_id", strconv.FormatInt(scopeProjectID, 10))
		}

		var recordings []TodoSearchResult
		if err := c.getJSON(ctx, "search.json", params, &recordings, msgs); err != nil {
			return nil, err
		}
		matches = append(matches, recordings...)

		if len(recordings) < perPage {
			break
		}
	}
	return matches, nil
}

// CompleteTodo marks a to-do complete.
func (c *Client) CompleteTodo(ctx context.Context, projectID, todoID int64) error {
	path := fmt.Sprintf("buckets/%d/todos/%d/completion.json", projectID, todoID)
	return c.sendJSON(ctx, http.MethodPost, path, nil, nil, statusMessages{
		context:   "todo completion",
		forbidden: "Basecamp denied todo completion (403 Forbidden).",
		notFound:  "Target project/todo was not found or is not accessible.",
		prefix:    "Basecamp todo completion failed with status",
	})
}

// ReopenTodo removes a to-do's completion.
func (c *Client) ReopenTodo(ctx context.Context, projectID, todoID int64) error {
	path := fmt.Sprintf("buckets/%d/todos/%d/completion.json", projectID, todoID)
	return c.sendJSON(ctx, http.MethodDelete, path, nil, nil, statusMessages{
		context:   "todo re-open",
		forbidden: "Basecamp denied todo re-open (403 Forbidden).",
		notFound:  "Target project/todo was not found or is not accessible.",
		prefix:    "Basecamp todo re-open failed with status",
	})
}

// statusMessages customizes error text per endpoint. An empty notFound means
// 404 falls through to the generic status error.
type statusMessages struct {
	context   string
	forbidden string
	notFound  string
	prefix    string
}

func (c *Client) accountURL(path string, query url.Values) string {
	u := fmt.Sprintf("%s/%d/%s", c.baseURL, c.accountID, strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, msgs statusMessages) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, output.ErrGenericf("Failed to build %s request: %v", msgs.context, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, output.ErrGenericf("Failed to request %s: %v", msgs.context, err)
	}

	if err := c.checkStatus(resp.StatusCode, msgs); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func (c *Client) checkStatus(status int, msgs statusMessages) error {
	switch {
	case status == http.StatusUnauthorized:
		return output.ErrOAuthHint("Basecamp rejected the access token (401 Unauthorized).", "Run `basecamp login` again")
	case status == http.StatusForbidden:
		return output.ErrOAuth(msgs.forbidden)
	case status == http.StatusNotFound && msgs.notFound != "":
		return output.ErrNoAccount(msgs.notFound)
	case status < 200 || status > 299:
		return output.ErrGenericf("%s %d.", msgs.prefix, status)
	}
	return nil
}

// getJSON performs a single GET and decodes the body into target.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target any, msgs statusMessages) error {
	resp, err := c.do(ctx, http.MethodGet, c.accountURL(path, query), nil, msgs)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.decode(resp.Body, target, msgs)
}

// sendJSON performs a mutating request; target may be nil when the response
// body does not matter.
func (c *Client) sendJSON(ctx context.Context, method, path string, payload, target any, msgs statusMessages) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return output.ErrGenericf("Failed to encode %s payload: %v", msgs.context, err)
		}
	}

	resp, err := c.do(ctx, method, c.accountURL(path, nil), body, msgs)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if target == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return c.decode(resp.Body, target, msgs)
}

func (c *Client) decode(body io.Reader, target any, msgs statusMessages) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return output.ErrGenericf("Failed to read %s response: %v", msgs.context, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return output.ErrGenericf("Failed to decode %s response: %v", msgs.context, err)
	}
	return nil
}

// getAll GETs a collection endpoint and follows Link rel="next" headers
// until the last page.
func getAll[T any](ctx context.Context, c *Client, path string, query url.Values, msgs statusMessages) ([]T, error) {
	nextURL := c.accountURL(path, query)

	var all []T
	for nextURL != "" {
		resp, err := c.do(ctx, http.MethodGet, nextURL, nil, msgs)
		if err != nil {
			return nil, err
		}

		var page []T
		err = c.decode(resp.Body, &page, msgs)
		link := resp.Header.Get("Link")
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		all = append(all, page...)
		nextURL = parseNextLink(link)
	}
	return all, nil
}

// parseNextLink extracts the rel="next" URL from a Link header, if any.
func parseNextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}
		urlPart := strings.Trim(strings.TrimSpace(section[0]), "<>")
		for _, param := range section[1:] {
			if strings.TrimSpace(param) == `rel="next"` {
				return urlPart
			}
		}
	}
	return ""
}
