package models

// IssueDraft is everything needed to open a new tracking-system issue.
// Category, Severity and Assignee are optional triage annotations.
type IssueDraft struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
}

// CreateIssueResponse is the response body of POST /create_jira.
type CreateIssueResponse struct {
	Success  bool   `json:"success"`
	IssueKey string `json:"issue_key,omitempty"`
	Error    string `json:"error,omitempty"`
}

// TicketingStatus reports the configured tracker and whether the server's
// credentials may create issues. It never carries the API token.
type TicketingStatus struct {
	URL             string `json:"jira_url"`
	User            string `json:"jira_user"`
	Project         string `json:"jira_project"`
	CanCreateIssues bool   `json:"can_create_issues"`
}
