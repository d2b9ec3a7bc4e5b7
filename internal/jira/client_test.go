package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmednasr/bug-triage/internal/logging"
	"github.com/ahmednasr/bug-triage/internal/models"
)

type recorded struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

// fakeJira serves canned responses keyed by "METHOD path" and records calls.
type fakeJira struct {
	mu        sync.Mutex
	calls     []recorded
	responses map[string]func(w http.ResponseWriter)
}

func (f *fakeJira) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != "bot@example.com" || pass != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	rec := recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&rec.Body)
	}
	f.mu.Lock()
	f.calls = append(f.calls, rec)
	f.mu.Unlock()

	if h, ok := f.responses[r.Method+" "+r.URL.Path]; ok {
		h(w)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (f *fakeJira) find(method, path string) (recorded, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.Method == method && c.Path == path {
			return c, true
		}
	}
	return recorded{}, false
}

func jsonResponse(status int, body string) func(http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func newTestClient(t *testing.T, fake *fakeJira) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		URL:     srv.URL + "/",
		User:    "bot@example.com",
		Token:   "secret",
		Project: "DEM",
	}, logging.Discard())
}

func TestIsAvailable(t *testing.T) {
	assert.False(t, NewClient(Config{}, nil).IsAvailable())
	assert.False(t, NewClient(Config{URL: "https://x", User: "u"}, nil).IsAvailable())
	assert.True(t, NewClient(Config{URL: "https://x", User: "u", Token: "t"}, nil).IsAvailable())
}

func TestTarget_OmitsToken(t *testing.T) {
	c := NewClient(Config{URL: "https://x/", User: "u", Token: "t", Project: "DEM"}, nil)
	got := c.Target()
	assert.Equal(t, models.TicketingStatus{URL: "https://x", User: "u", Project: "DEM"}, got)
}

func TestCheckPermission(t *testing.T) {
	tests := map[string]struct {
		permissions string
		want        bool
	}{
		"granted": {permissions: `{"permissions":{"CREATE_ISSUES":{"havePermission":true}}}`, want: true},
		"denied":  {permissions: `{"permissions":{"CREATE_ISSUES":{"havePermission":false}}}`, want: false},
		"absent":  {permissions: `{"permissions":{}}`, want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			fake := &fakeJira{responses: map[string]func(http.ResponseWriter){
				"GET /rest/api/2/myself":        jsonResponse(200, `{"accountId":"me"}`),
				"GET /rest/api/2/mypermissions": jsonResponse(200, tt.permissions),
			}}
			c := newTestClient(t, fake)

			got, err := c.CheckPermission(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			call, ok := fake.find(http.MethodGet, "/rest/api/2/mypermissions")
			require.True(t, ok)
			assert.Contains(t, call.Query, "permissions=CREATE_ISSUES")
			assert.Contains(t, call.Query, "projectKey=DEM")
		})
	}
}

func TestCheckPermission_AuthFailure(t *testing.T) {
	fake := &fakeJira{}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	c := NewClient(Config{URL: srv.URL, User: "bot@example.com", Token: "wrong", Project: "DEM"}, logging.Discard())

	ok, err := c.CheckPermission(context.Background())
	assert.False(t, ok)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
}

func TestCreateIssue(t *testing.T) {
	fake := &fakeJira{responses: map[string]func(http.ResponseWriter){
		"POST /rest/api/2/issue":       jsonResponse(201, `{"id":"10001","key":"DEM-42"}`),
		"GET /rest/api/2/user/search":  jsonResponse(200, `[{"accountId":"acc-1"}]`),
		"PUT /rest/api/2/issue/DEM-42": jsonResponse(204, ``),
	}}
	c := newTestClient(t, fake)

	key, err := c.CreateIssue(context.Background(), models.IssueDraft{
		Summary:     "Login page crashes",
		Description: "NPE on submit",
		Category:    "UI",
		Severity:    "Critical",
		Assignee:    "alice@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "DEM-42", key)

	create, ok := fake.find(http.MethodPost, "/rest/api/2/issue")
	require.True(t, ok)
	fields := create.Body["fields"].(map[string]any)
	assert.Equal(t, "Login page crashes", fields["summary"])
	assert.Equal(t, map[string]any{"key": "DEM"}, fields["project"])
	assert.Equal(t, map[string]any{"name": "Highest"}, fields["priority"])
	assert.Equal(t, map[string]any{"name": "Task"}, fields["issuetype"])
	assert.Contains(t, fields["description"], "--- AI Triage Results ---")
	assert.Contains(t, fields["description"], "Recommended Assignee: alice@example.com")

	assign, ok := fake.find(http.MethodPut, "/rest/api/2/issue/DEM-42")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"assignee": map[string]any{"id": "acc-1"}}, assign.Body["fields"])
}

func TestCreateIssue_SkipsUnassigned(t *testing.T) {
	fake := &fakeJira{responses: map[string]func(http.ResponseWriter){
		"POST /rest/api/2/issue": jsonResponse(201, `{"key":"DEM-7"}`),
	}}
	c := newTestClient(t, fake)

	key, err := c.CreateIssue(context.Background(), models.IssueDraft{
		Summary: "s", Description: "d", Severity: "Bogus", Assignee: "Unassigned",
	})
	require.NoError(t, err)
	assert.Equal(t, "DEM-7", key)

	_, searched := fake.find(http.MethodGet, "/rest/api/2/user/search")
	assert.False(t, searched)

	create, _ := fake.find(http.MethodPost, "/rest/api/2/issue")
	fields := create.Body["fields"].(map[string]any)
	assert.Equal(t, map[string]any{"name": "Medium"}, fields["priority"])
}

func TestCreateIssue_AssignmentFailureKeepsKey(t *testing.T) {
	fake := &fakeJira{responses: map[string]func(http.ResponseWriter){
		"POST /rest/api/2/issue":      jsonResponse(201, `{"key":"DEM-8"}`),
		"GET /rest/api/2/user/search": jsonResponse(200, `[]`),
	}}
	c := newTestClient(t, fake)

	key, err := c.CreateIssue(context.Background(), models.IssueDraft{
		Summary: "s", Description: "d", Assignee: "ghost@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "DEM-8", key)
}

func TestCreateIssue_Failure(t *testing.T) {
	fake := &fakeJira{responses: map[string]func(http.ResponseWriter){
		"POST /rest/api/2/issue": jsonResponse(400, `{"errors":{"priority":"invalid"}}`),
	}}
	c := newTestClient(t, fake)

	key, err := c.CreateIssue(context.Background(), models.IssueDraft{Summary: "s", Description: "d"})
	assert.Empty(t, key)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 400, se.Code)
	assert.Contains(t, se.Body, "priority")
}

func TestUpdateIssue(t *testing.T) {
	fake := &fakeJira{responses: map[string]func(http.ResponseWriter){
		"PUT /rest/api/2/issue/DEM-1":          jsonResponse(204, ``),
		"POST /rest/api/2/issue/DEM-1/comment": jsonResponse(201, `{"id":"1"}`),
	}}
	c := newTestClient(t, fake)

	require.NoError(t, c.UpdateIssue(context.Background(), "DEM-1", nil, "[Suggestion] hi"))

	_, updated := fake.find(http.MethodPut, "/rest/api/2/issue/DEM-1")
	assert.False(t, updated, "no fields means no PUT")
	comment, ok := fake.find(http.MethodPost, "/rest/api/2/issue/DEM-1/comment")
	require.True(t, ok)
	assert.Equal(t, "[Suggestion] hi", comment.Body["body"])

	require.NoError(t, c.UpdateIssue(context.Background(), "DEM-1", map[string]any{"labels": []string{"triaged"}}, ""))
	_, updated = fake.find(http.MethodPut, "/rest/api/2/issue/DEM-1")
	assert.True(t, updated)
}
