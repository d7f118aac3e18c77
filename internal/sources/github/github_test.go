package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func graphqlResponse() map[string]any {
	return map[string]any{
		"data": map[string]any{
			"user": map[string]any{
				"name":      "Ada Lovelace",
				"bio":       "systems tinkerer",
				"location":  "London",
				"createdAt": "2012-01-01T00:00:00Z",
				"followers": map[string]any{"totalCount": 120},
				"following": map[string]any{"totalCount": 10},
				"repositories": map[string]any{
					"totalCount": 4,
					"nodes": []any{
						map[string]any{"name": "engine", "description": nil, "stargazerCount": 50, "forkCount": 5, "primaryLanguage": map[string]any{"name": "Go"}, "isFork": false},
						map[string]any{"name": "notes", "description": "misc", "stargazerCount": 30, "forkCount": 1, "primaryLanguage": map[string]any{"name": "Go"}, "isFork": false},
						map[string]any{"name": "paper", "description": "", "stargazerCount": 5, "forkCount": 0, "primaryLanguage": map[string]any{"name": "Python"}, "isFork": false},
						map[string]any{"name": "forked-thing", "description": "", "stargazerCount": 900, "forkCount": 0, "primaryLanguage": map[string]any{"name": "C"}, "isFork": true},
					},
				},
				"contributionsCollection": map[string]any{
					"totalCommitContributions":      300,
					"totalPullRequestContributions": 40,
					"totalIssueContributions":       12,
					"totalRepositoryContributions":  6,
					"contributionCalendar":          map[string]any{"totalContributions": 400},
				},
				"pinnedItems": map[string]any{
					"nodes": []any{
						map[string]any{"name": "engine", "description": "analytical engine", "stargazerCount": 50, "primaryLanguage": map[string]any{"name": "Go"}, "url": "https://github.com/ada/engine"},
					},
				},
			},
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New("test-token", zap.NewNop())
	c.endpoint = srv.URL
	return c, srv
}

func TestStats(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(graphqlResponse())
	})

	stats, err := c.Stats(context.Background(), "ada")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}

	if stats.Name != "Ada Lovelace" || stats.Followers != 120 {
		t.Fatalf("unexpected profile: %+v", stats)
	}
	// Fork excluded from aggregates.
	if stats.OwnRepos != 3 {
		t.Fatalf("expected 3 own repos, got %d", stats.OwnRepos)
	}
	if stats.TotalStars != 85 {
		t.Fatalf("expected 85 stars, got %d", stats.TotalStars)
	}
	if len(stats.TopLanguages) != 2 || stats.TopLanguages[0].Language != "Go" || stats.TopLanguages[0].Count != 2 {
		t.Fatalf("unexpected languages: %+v", stats.TopLanguages)
	}
	if len(stats.TopRepos) != 3 || stats.TopRepos[0].Name != "engine" {
		t.Fatalf("unexpected top repos: %+v", stats.TopRepos)
	}
	if len(stats.PinnedRepos) != 1 || stats.PinnedRepos[0].URL != "https://github.com/ada/engine" {
		t.Fatalf("unexpected pinned repos: %+v", stats.PinnedRepos)
	}
	if stats.Contributions.Total != 400 || stats.Contributions.Commits != 300 {
		t.Fatalf("unexpected contributions: %+v", stats.Contributions)
	}
}

func TestStatsNoToken(t *testing.T) {
	c := New("", zap.NewNop())
	stats, err := c.Stats(context.Background(), "ada")
	if err != nil {
		t.Fatalf("expected soft nil, got error: %v", err)
	}
	if stats != nil {
		t.Fatalf("expected nil stats without token, got %+v", stats)
	}
}

func TestStatsUserNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"user": nil}})
	})

	if _, err := c.Stats(context.Background(), "ghost"); err == nil {
		t.Fatal("expected an error for an unknown user")
	}
}

func TestStatsGraphQLErrors(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []any{map[string]any{"message": "rate limited"}},
		})
	})

	if _, err := c.Stats(context.Background(), "ada"); err == nil {
		t.Fatal("expected an error when graphql reports errors")
	}
}
