package models

// TriageRequest is the payload for POST /predict.
type TriageRequest struct {
	Project     string `json:"project"`     // Jira project key or internal project code
	Summary     string `json:"summary"`     // one-line bug summary
	Description string `json:"description"` // free-text body, may contain HTML / code fences
}

// Prediction is the top-1 label of a classifier together with its probability.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// HistoricalCase is one previously triaged bug with its stored embedding.
type HistoricalCase struct {
	ID        string    `bson:"_id"       json:"id"`
	Embedding []float32 `bson:"embedding" json:"embedding"`
}

// SimilarCase is a historical case ranked against a query embedding.
type SimilarCase struct {
	ID         string  `json:"id"`
	Similarity float64 `json:"similarity"`
}

// Explanations carries the optional evidence attached to a TriageResult.
type Explanations struct {
	SimilarCases []SimilarCase `json:"similar_cases"`
}

// TriageResult is the response body of POST /predict.
//
// The flat category/severity fields mirror the contract the browser UI
// already consumes; Explanations is nil when no similar cases were found.
// Action is the gating decision. When ticketing is unavailable that decision
// is still reported but nothing is executed, and IssueKey stays nil.
type TriageResult struct {
	Category     string        `json:"category"`
	CategoryConf float64       `json:"category_conf"`
	Severity     string        `json:"severity"`
	SeverityConf float64       `json:"severity_conf"`
	AssigneeTop1 string        `json:"assignee_top1"`
	AssigneeTop3 []string      `json:"assignee_top3"`
	Action       string        `json:"action"`
	Explanations *Explanations `json:"explanations"`
	IssueKey     *string       `json:"jira_issue_key"`
	ModelVersion string        `json:"model_version"`
}

// HealthStatus is the response body of GET /health.
type HealthStatus struct {
	Status       string            `json:"status"`
	ModelVersion string            `json:"model_version"`
	Dependencies map[string]string `json:"dbs,omitempty"`
}
