package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ahmednasr/bug-triage/internal/models"
)

// unassigned is the assignee label meaning "nobody in particular".
const unassigned = "unassigned"

// Config holds the connection settings. Credentials must come from the
// environment, never from source.
type Config struct {
	URL     string // e.g. https://example.atlassian.net
	User    string // account e-mail
	Token   string // API token
	Project string // project key new issues are filed under
}

// Client is a minimal wrapper around Jira's REST API v2.
// It covers only the endpoints triage requires.
type Client struct {
	http   *http.Client
	cfg    Config
	logger *slog.Logger
}

// NewClient returns a Jira client. A client with incomplete credentials is
// still valid; it reports IsAvailable() == false and callers dry-run.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &Client{
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		cfg:    cfg,
		logger: logger.With("component", "jira"),
	}
}

// IsAvailable reports whether URL, user and token are all configured.
func (c *Client) IsAvailable() bool {
	return c.cfg.URL != "" && c.cfg.User != "" && c.cfg.Token != ""
}

// Target describes the configured tracker without exposing the token.
func (c *Client) Target() models.TicketingStatus {
	return models.TicketingStatus{URL: c.cfg.URL, User: c.cfg.User, Project: c.cfg.Project}
}

// CheckPermission verifies the credentials and reports whether they hold
// CREATE_ISSUES on the configured project.
func (c *Client) CheckPermission(ctx context.Context) (bool, error) {
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/myself", nil, nil, nil); err != nil {
		return false, fmt.Errorf("jira: authenticate: %w", err)
	}

	q := url.Values{}
	q.Set("permissions", "CREATE_ISSUES")
	q.Set("projectKey", c.cfg.Project)

	var out struct {
		Permissions map[string]struct {
			HavePermission bool `json:"havePermission"`
		} `json:"permissions"`
	}
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/mypermissions", q, nil, &out); err != nil {
		return false, fmt.Errorf("jira: permissions: %w", err)
	}
	return out.Permissions["CREATE_ISSUES"].HavePermission, nil
}

// CreateIssue files a Task carrying the triage annotations and returns its key.
// Assignment is best effort: a failure to resolve or assign the user is
// logged and the issue key is still returned.
func (c *Client) CreateIssue(ctx context.Context, d models.IssueDraft) (string, error) {
	body := map[string]any{
		"fields": map[string]any{
			"project":     map[string]string{"key": c.cfg.Project},
			"summary":     d.Summary,
			"description": AnnotatedDescription(d),
			"issuetype":   map[string]string{"name": "Task"},
			"priority":    map[string]string{"name": PriorityFor(d.Severity)},
		},
	}

	var created struct {
		Key string `json:"key"`
	}
	if err := c.do(ctx, http.MethodPost, "/rest/api/2/issue", nil, body, &created); err != nil {
		return "", fmt.Errorf("jira: create issue: %w", err)
	}
	c.logger.InfoContext(ctx, "created issue", "issue", created.Key)

	if d.Assignee != "" && !strings.EqualFold(d.Assignee, unassigned) {
		if err := c.assign(ctx, created.Key, d.Assignee); err != nil {
			c.logger.WarnContext(ctx, "failed to set assignee", "issue", created.Key, "assignee", d.Assignee, "err", err)
		}
	}
	return created.Key, nil
}

// UpdateIssue sets fields and/or appends a comment on an existing issue.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields map[string]any, comment string) error {
	path := "/rest/api/2/issue/" + url.PathEscape(key)
	if len(fields) > 0 {
		if err := c.do(ctx, http.MethodPut, path, nil, map[string]any{"fields": fields}, nil); err != nil {
			return fmt.Errorf("jira: update %s: %w", key, err)
		}
	}
	if comment != "" {
		if err := c.do(ctx, http.MethodPost, path+"/comment", nil, map[string]string{"body": comment}, nil); err != nil {
			return fmt.Errorf("jira: comment on %s: %w", key, err)
		}
	}
	c.logger.InfoContext(ctx, "updated issue", "issue", key)
	return nil
}

// assign resolves a user by e-mail and sets them as the issue assignee.
func (c *Client) assign(ctx context.Context, key, email string) error {
	q := url.Values{}
	q.Set("query", email)

	var users []struct {
		AccountID string `json:"accountId"`
	}
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/user/search", q, nil, &users); err != nil {
		return err
	}
	if len(users) == 0 {
		return fmt.Errorf("no user found for %q", email)
	}

	return c.UpdateIssue(ctx, key, map[string]any{
		"assignee": map[string]string{"id": users[0].AccountID},
	}, "")
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// do executes the HTTP request and decodes JSON into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.cfg.URL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	c.addHeaders(req, in != nil)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// addHeaders sets authentication and content headers.
func (c *Client) addHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.cfg.User, c.cfg.Token)
	req.Header.Set("User-Agent", "bug-triage-api")
}
