// Package sheets imports candidate rows from published Google Sheets CSVs.
package sheets

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"talentlens/internal/logger"
	"talentlens/internal/sources/fetch"
	"talentlens/internal/talent"
)

const sourceName = "sheets"

var editURLPattern = regexp.MustCompile(`^https://docs\.google\.com/spreadsheets/d/([^/]+)`)

// ExportURL rewrites a Google Sheets edit link into its CSV export form.
// Links that already point at CSV output pass through unchanged, as do
// URLs outside docs.google.com.
func ExportURL(url string) string {
	if url == "" {
		return url
	}
	if strings.Contains(url, "export?format=csv") || strings.Contains(url, "pub?output=csv") {
		return url
	}
	if m := editURLPattern.FindStringSubmatch(url); m != nil {
		return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv", m[1])
	}
	return url
}

// Client fetches and parses candidate sheets.
type Client struct {
	http   *http.Client
	logger *zap.Logger
}

func New(log *zap.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger.WithSourceFields(log, sourceName, ""),
	}
}

// FetchRows downloads the sheet and synthesizes one candidate per usable
// row. Rows with no submission id, name, or email are dropped.
func (c *Client) FetchRows(ctx context.Context, sheetURL string) ([]*talent.Candidate, error) {
	url := ExportURL(sheetURL)
	if url == "" {
		return nil, fetch.NewError(sourceName, fmt.Errorf("empty sheet url"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fetch.NewError(sourceName, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fetch.NewError(sourceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fetch.NewError(sourceName, fmt.Errorf("sheet fetch returned %d", resp.StatusCode))
	}

	return c.parse(resp.Body)
}

func (c *Client) parse(r io.Reader) ([]*talent.Candidate, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fetch.NewError(sourceName, fmt.Errorf("read header: %w", err))
	}

	cols := headerIndex(header)

	var out []*talent.Candidate
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			c.logger.Warn("skipping malformed sheet row", zap.Error(err))
			continue
		}

		cand := rowCandidate(cols, record)
		if cand == nil {
			continue
		}
		out = append(out, cand)
	}

	return out, nil
}

// Columns the importer understands. Sheet authors phrase headers freely
// ("Your email", "Email Address", "What is your full name?"), so resolution
// matches on normalized substrings rather than exact titles.
type column int

const (
	colSubmissionID column = iota
	colName
	colEmail
	colPhone
	colResume
	colGitHub
	colLinkedIn
	colCTC
	colSubmittedAt
)

func headerIndex(header []string) map[column]int {
	cols := make(map[column]int)
	for i, h := range header {
		norm := strings.ToLower(strings.TrimSpace(h))
		if norm == "" {
			continue
		}

		col, ok := classifyHeader(norm)
		if !ok {
			continue
		}
		if _, taken := cols[col]; !taken {
			cols[col] = i
		}
	}
	return cols
}

func classifyHeader(norm string) (column, bool) {
	switch {
	case strings.Contains(norm, "submission"):
		return colSubmissionID, true
	case strings.Contains(norm, "submitted"):
		return colSubmittedAt, true
	case strings.Contains(norm, "email"):
		return colEmail, true
	case strings.Contains(norm, "phone") || strings.Contains(norm, "number"):
		return colPhone, true
	case strings.Contains(norm, "resume"):
		return colResume, true
	case strings.Contains(norm, "github"):
		return colGitHub, true
	case strings.Contains(norm, "linkedin"):
		return colLinkedIn, true
	case strings.Contains(norm, "ctc") || strings.Contains(norm, "salary"):
		return colCTC, true
	case strings.Contains(norm, "name") && !strings.Contains(norm, "user"):
		return colName, true
	}
	return 0, false
}

func rowCandidate(cols map[column]int, record []string) *talent.Candidate {
	field := func(col column) string {
		i, ok := cols[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	cand := &talent.Candidate{
		SubmissionID:   field(colSubmissionID),
		Name:           field(colName),
		Email:          field(colEmail),
		Phone:          field(colPhone),
		ResumeURL:      field(colResume),
		GitHubUsername: field(colGitHub),
		LinkedIn:       field(colLinkedIn),
		CurrentCTC:     field(colCTC),
		Source:         talent.SourceSheet,
		Status:         talent.StatusWaitlisted,
	}

	if cand.SubmissionID == "" && cand.Name == "" && cand.Email == "" {
		return nil
	}

	cand.SubmittedAt = parseSubmittedAt(field(colSubmittedAt))
	return cand
}

func parseSubmittedAt(raw string) time.Time {
	if raw == "" {
		return time.Now()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Now()
}
