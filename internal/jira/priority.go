package jira

import (
	"fmt"
	"strings"

	"github.com/ahmednasr/bug-triage/internal/models"
)

// Jira priority names.
const (
	PriorityHighest = "Highest"
	PriorityHigh    = "High"
	PriorityMedium  = "Medium"
	PriorityLow     = "Low"
	PriorityLowest  = "Lowest"
)

// severityPriority maps model severities onto Jira priorities. It covers both
// severity vocabularies the models have been trained with.
var severityPriority = map[string]string{
	"Critical": PriorityHighest,
	"Major":    PriorityHigh,
	"High":     PriorityHigh,
	"Moderate": PriorityMedium,
	"Medium":   PriorityMedium,
	"Minor":    PriorityLow,
	"Low":      PriorityLow,
	"Trivial":  PriorityLowest,
}

// PriorityFor returns the Jira priority for a severity; unmapped severities
// are Medium.
func PriorityFor(severity string) string {
	if p, ok := severityPriority[severity]; ok {
		return p
	}
	return PriorityMedium
}

// CheckSeverities reports severities a model can emit that the table does
// not map, so a mismatch is caught at startup instead of silently becoming
// Medium.
func CheckSeverities(labels []string) error {
	var missing []string
	for _, l := range labels {
		if _, ok := severityPriority[l]; !ok {
			missing = append(missing, l)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("no priority mapping for severities %s", strings.Join(missing, ", "))
	}
	return nil
}

// AnnotatedDescription appends the triage results to the bug description.
func AnnotatedDescription(d models.IssueDraft) string {
	var b strings.Builder
	b.WriteString(d.Description)
	if d.Category == "" && d.Severity == "" && d.Assignee == "" {
		return b.String()
	}
	b.WriteString("\n\n--- AI Triage Results ---")
	if d.Category != "" {
		b.WriteString("\nCategory: " + d.Category)
	}
	if d.Severity != "" {
		b.WriteString("\nSeverity: " + d.Severity)
	}
	if d.Assignee != "" {
		b.WriteString("\nRecommended Assignee: " + d.Assignee)
	}
	return b.String()
}
