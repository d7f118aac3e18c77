// Package github aggregates code-hosting signals via the GitHub GraphQL API.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"talentlens/internal/logger"
	"talentlens/internal/sources/fetch"
	"talentlens/internal/talent"
)

const (
	sourceName      = "github"
	defaultEndpoint = "https://api.github.com/graphql"

	topLanguages = 8
	topRepos     = 5
)

const statsQuery = `
query($login: String!) {
  user(login: $login) {
    name
    bio
    company
    location
    createdAt
    followers { totalCount }
    following { totalCount }
    repositories(first: 100, ownerAffiliations: OWNER, orderBy: {field: STARGAZERS, direction: DESC}) {
      totalCount
      nodes {
        name
        description
        stargazerCount
        forkCount
        primaryLanguage { name }
        isFork
      }
    }
    contributionsCollection {
      totalCommitContributions
      totalPullRequestContributions
      totalIssueContributions
      totalRepositoryContributions
      contributionCalendar { totalContributions }
    }
    pinnedItems(first: 6, types: REPOSITORY) {
      nodes {
        ... on Repository {
          name
          description
          stargazerCount
          primaryLanguage { name }
          url
        }
      }
    }
  }
}`

// Client fetches per-login statistics. A client with no token is inert:
// Stats returns (nil, nil) so the pipeline treats the signal as absent.
type Client struct {
	http     *http.Client
	token    string
	endpoint string
	logger   *zap.Logger
}

func New(token string, log *zap.Logger) *Client {
	return &Client{
		http:     &http.Client{Timeout: 15 * time.Second},
		token:    strings.TrimSpace(token),
		endpoint: defaultEndpoint,
		logger:   logger.WithSourceFields(log, sourceName, ""),
	}
}

// Wire shapes for the GraphQL response, decoded loosely at the boundary.
type gqlUser struct {
	Name          string   `json:"name"`
	Bio           string   `json:"bio"`
	Company       string   `json:"company"`
	Location      string   `json:"location"`
	CreatedAt     string   `json:"createdAt"`
	Followers     gqlCount `json:"followers"`
	Following     gqlCount `json:"following"`
	Repositories  struct {
		TotalCount int       `json:"totalCount"`
		Nodes      []gqlRepo `json:"nodes"`
	} `json:"repositories"`
	ContributionsCollection gqlContributions `json:"contributionsCollection"`
	PinnedItems             struct {
		Nodes []gqlRepo `json:"nodes"`
	} `json:"pinnedItems"`
}

type gqlCount struct {
	TotalCount int `json:"totalCount"`
}

type gqlRepo struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	StargazerCount  int    `json:"stargazerCount"`
	ForkCount       int    `json:"forkCount"`
	PrimaryLanguage *struct {
		Name string `json:"name"`
	} `json:"primaryLanguage"`
	IsFork bool   `json:"isFork"`
	URL    string `json:"url"`
}

type gqlContributions struct {
	TotalCommitContributions      int `json:"totalCommitContributions"`
	TotalPullRequestContributions int `json:"totalPullRequestContributions"`
	TotalIssueContributions       int `json:"totalIssueContributions"`
	TotalRepositoryContributions  int `json:"totalRepositoryContributions"`
	ContributionCalendar          struct {
		TotalContributions int `json:"totalContributions"`
	} `json:"contributionCalendar"`
}

// Stats fetches and aggregates the profile for one login. Fork repositories
// are excluded from stars, language counts, and top repos.
func (c *Client) Stats(ctx context.Context, username string) (*talent.GitHubStats, error) {
	username = strings.TrimSpace(username)
	if username == "" || c.token == "" {
		return nil, nil
	}

	body, err := json.Marshal(map[string]any{
		"query":     statsQuery,
		"variables": map[string]string{"login": username},
	})
	if err != nil {
		return nil, fetch.NewError(sourceName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fetch.NewError(sourceName, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fetch.NewError(sourceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fetch.NewError(sourceName, fmt.Errorf("graphql returned %d", resp.StatusCode))
	}

	var envelope struct {
		Data   map[string]any   `json:"data"`
		Errors []map[string]any `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fetch.NewError(sourceName, fmt.Errorf("decode response: %w", err))
	}
	if len(envelope.Errors) > 0 {
		return nil, fetch.NewError(sourceName, fmt.Errorf("graphql errors: %v", envelope.Errors))
	}

	rawUser, ok := envelope.Data["user"].(map[string]any)
	if !ok || rawUser == nil {
		return nil, fetch.NewError(sourceName, fmt.Errorf("user %q not found", username))
	}

	user, err := decodeUser(rawUser)
	if err != nil {
		return nil, fetch.NewError(sourceName, err)
	}

	stats := aggregate(username, user)
	c.logger.Debug("github profile fetched",
		zap.String("username", username),
		zap.Int("total_repos", stats.TotalRepos),
		zap.Int("total_stars", stats.TotalStars),
		zap.Int("contributions", stats.Contributions.Total),
	)
	return stats, nil
}

func decodeUser(raw map[string]any) (*gqlUser, error) {
	var user gqlUser
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &user,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

func aggregate(username string, user *gqlUser) *talent.GitHubStats {
	var own []gqlRepo
	for _, r := range user.Repositories.Nodes {
		if !r.IsFork {
			own = append(own, r)
		}
	}

	totalStars := 0
	langCount := make(map[string]int)
	for _, r := range own {
		totalStars += r.StargazerCount
		if r.PrimaryLanguage != nil && r.PrimaryLanguage.Name != "" {
			langCount[r.PrimaryLanguage.Name]++
		}
	}

	languages := make([]talent.LanguageCount, 0, len(langCount))
	for lang, count := range langCount {
		languages = append(languages, talent.LanguageCount{Language: lang, Count: count})
	}
	sort.Slice(languages, func(i, j int) bool {
		if languages[i].Count != languages[j].Count {
			return languages[i].Count > languages[j].Count
		}
		return languages[i].Language < languages[j].Language
	})
	if len(languages) > topLanguages {
		languages = languages[:topLanguages]
	}

	// Repositories arrive star-sorted from the API.
	top := make([]talent.RepoStat, 0, topRepos)
	for _, r := range own {
		if len(top) == topRepos {
			break
		}
		top = append(top, repoStat(r, true))
	}

	pinned := make([]talent.RepoStat, 0, len(user.PinnedItems.Nodes))
	for _, r := range user.PinnedItems.Nodes {
		pinned = append(pinned, repoStat(r, false))
	}

	contribs := user.ContributionsCollection
	return &talent.GitHubStats{
		Username:     username,
		Name:         user.Name,
		Bio:          user.Bio,
		Company:      user.Company,
		Location:     user.Location,
		CreatedAt:    user.CreatedAt,
		Followers:    user.Followers.TotalCount,
		Following:    user.Following.TotalCount,
		TotalRepos:   user.Repositories.TotalCount,
		OwnRepos:     len(own),
		TotalStars:   totalStars,
		TopLanguages: languages,
		TopRepos:     top,
		PinnedRepos:  pinned,
		Contributions: talent.Contributions{
			Total:        contribs.ContributionCalendar.TotalContributions,
			Commits:      contribs.TotalCommitContributions,
			PullRequests: contribs.TotalPullRequestContributions,
			Issues:       contribs.TotalIssueContributions,
			ReposCreated: contribs.TotalRepositoryContributions,
		},
	}
}

func repoStat(r gqlRepo, withForks bool) talent.RepoStat {
	description := r.Description
	if len(description) > 100 {
		description = description[:100]
	}

	lang := ""
	if r.PrimaryLanguage != nil {
		lang = r.PrimaryLanguage.Name
	}

	stat := talent.RepoStat{
		Name:        r.Name,
		Description: description,
		Stars:       r.StargazerCount,
		Language:    lang,
		URL:         r.URL,
	}
	if withForks {
		stat.Forks = r.ForkCount
	}
	return stat
}
