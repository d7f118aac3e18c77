// Package tally parses Tally form webhook payloads into candidates.
package tally

import (
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"talentlens/internal/talent"
)

// Payload is the webhook envelope Tally delivers on form submission.
type Payload struct {
	EventID   string      `json:"eventId"`
	EventType string      `json:"eventType"`
	CreatedAt string      `json:"createdAt"`
	Data      PayloadData `json:"data"`
}

type PayloadData struct {
	ResponseID   string  `json:"responseId"`
	SubmissionID string  `json:"submissionId"`
	FormID       string  `json:"formId"`
	FormName     string  `json:"formName"`
	Fields       []Field `json:"fields"`
}

// Field is one answered form question. Value is loosely typed: strings for
// text inputs, a list of uploaded-file objects for FILE_UPLOAD fields.
type Field struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

type fileUpload struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// ParseFields maps form answers onto a candidate by fuzzy label matching.
// Form authors word their questions freely ("What is your full name?",
// "Your number?"), so matching is on label substrings, not exact keys.
// Returns nil when no field carried any identity.
func ParseFields(fields []Field, submissionID string) *talent.Candidate {
	cand := &talent.Candidate{
		SubmissionID: strings.TrimSpace(submissionID),
		Source:       talent.SourceWebhook,
		Status:       talent.StatusWaitlisted,
		SubmittedAt:  time.Now(),
	}

	matched := false
	for _, field := range fields {
		label := strings.ToLower(field.Label)
		value := stringValue(field.Value)

		switch {
		// "username" questions must not capture the full-name slot.
		case strings.Contains(label, "name") && !strings.Contains(label, "user"):
			cand.Name = value
		case strings.Contains(label, "phone") || strings.Contains(label, "number"):
			cand.Phone = value
		case strings.Contains(label, "email"):
			cand.Email = value
		case strings.Contains(label, "resume") || field.Type == "FILE_UPLOAD":
			cand.ResumeURL = uploadURL(field.Value)
		case strings.Contains(label, "github"):
			cand.GitHubUsername = value
		case strings.Contains(label, "linkedin"):
			cand.LinkedIn = value
		case strings.Contains(label, "ctc") || strings.Contains(label, "salary"):
			cand.CurrentCTC = value
		default:
			continue
		}
		matched = true
	}

	if !matched && cand.SubmissionID == "" {
		return nil
	}
	return cand
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// uploadURL handles both shapes Tally sends for file answers: a plain URL
// string or a list of uploaded-file objects.
func uploadURL(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}

	var uploads []fileUpload
	if err := mapstructure.Decode(v, &uploads); err != nil {
		return ""
	}
	if len(uploads) == 0 {
		return ""
	}
	return strings.TrimSpace(uploads[0].URL)
}
