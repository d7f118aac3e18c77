package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"talentlens/internal/talent"
)

func TestExportURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"edit link rewritten",
			"https://docs.google.com/spreadsheets/d/abc123/edit#gid=0",
			"https://docs.google.com/spreadsheets/d/abc123/export?format=csv",
		},
		{
			"export link untouched",
			"https://docs.google.com/spreadsheets/d/abc123/export?format=csv",
			"https://docs.google.com/spreadsheets/d/abc123/export?format=csv",
		},
		{
			"published csv untouched",
			"https://docs.google.com/spreadsheets/d/e/xyz/pub?output=csv",
			"https://docs.google.com/spreadsheets/d/e/xyz/pub?output=csv",
		},
		{
			"foreign url untouched",
			"https://example.com/data.csv",
			"https://example.com/data.csv",
		},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExportURL(tc.in); got != tc.want {
				t.Fatalf("ExportURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestHeaderIndexFuzzyAliases(t *testing.T) {
	// All three spellings must land on the email column.
	for _, h := range []string{"Your Email ", "email", "Email Address"} {
		cols := headerIndex([]string{h})
		if i, ok := cols[colEmail]; !ok || i != 0 {
			t.Fatalf("header %q did not resolve to email column: %v", h, cols)
		}
	}

	cols := headerIndex([]string{
		"Submission ID", "What is your full name?", "Your number?",
		"Updated resume", "Your github username", "Your linkedin",
		"Current CTC", "Submitted at",
	})
	want := map[column]int{
		colSubmissionID: 0, colName: 1, colPhone: 2, colResume: 3,
		colGitHub: 4, colLinkedIn: 5, colCTC: 6, colSubmittedAt: 7,
	}
	for col, idx := range want {
		if cols[col] != idx {
			t.Fatalf("column %d resolved to %d, want %d", col, cols[col], idx)
		}
	}
}

func TestHeaderIndexUsernameNotName(t *testing.T) {
	cols := headerIndex([]string{"Your github username"})
	if _, ok := cols[colName]; ok {
		t.Fatal("github username header must not claim the name column")
	}
}

func TestFetchRows(t *testing.T) {
	csvBody := "Submission ID,What is your full name?,Your email,Your github username\n" +
		"s1,Ada Lovelace,ada@example.com,adalove\n" +
		"s2,Grace Hopper,grace@example.com,ghopper\n" +
		",,,\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(csvBody))
	}))
	defer srv.Close()

	c := New(zap.NewNop())
	rows, err := c.FetchRows(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(rows))
	}

	first := rows[0]
	if first.SubmissionID != "s1" || first.Name != "Ada Lovelace" {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if first.GitHubUsername != "adalove" {
		t.Fatalf("unexpected github username: %q", first.GitHubUsername)
	}
	if first.Source != talent.SourceSheet {
		t.Fatalf("expected sheet source, got %q", first.Source)
	}
	if first.Status != talent.StatusWaitlisted {
		t.Fatalf("expected waitlisted default, got %q", first.Status)
	}
	if first.Key() != "s1" {
		t.Fatalf("expected submission id key, got %q", first.Key())
	}
}

func TestFetchRowsDerivedKeyFallback(t *testing.T) {
	csvBody := "Name,Email\nAda Lovelace,ada@example.com\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(csvBody))
	}))
	defer srv.Close()

	c := New(zap.NewNop())
	rows, err := c.FetchRows(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(rows))
	}
	if rows[0].Key() != talent.DeriveKey("Ada Lovelace", "ada@example.com") {
		t.Fatalf("expected derived key, got %q", rows[0].Key())
	}
}

func TestFetchRowsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(zap.NewNop())
	if _, err := c.FetchRows(context.Background(), srv.URL); err == nil {
		t.Fatal("expected an error for non-200 response")
	}
}
