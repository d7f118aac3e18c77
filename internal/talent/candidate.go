package talent

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// Status is the hiring state of a candidate within a bucket.
type Status string

const (
	StatusSelected   Status = "selected"
	StatusWaitlisted Status = "waitlisted"
	StatusRejected   Status = "rejected"
)

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusSelected, StatusWaitlisted, StatusRejected:
		return true
	}
	return false
}

// SourceType records which fetcher produced a candidate.
type SourceType string

const (
	SourceScrape  SourceType = "scrape"
	SourceWebhook SourceType = "webhook"
	SourceSheet   SourceType = "sheet"
)

// Candidate is the canonical record for one person under evaluation.
// Every external-signal field is independently nullable: a failed fetch
// of one signal never disturbs the others.
type Candidate struct {
	// Identity.
	Username     string `json:"username,omitempty"`
	SubmissionID string `json:"submission_id,omitempty"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	LinkedIn     string `json:"linkedin,omitempty"`
	CurrentCTC   string `json:"current_ctc,omitempty"`

	// Provenance.
	ProfileURL  string     `json:"profile_url,omitempty"`
	ResumeURL   string     `json:"resume_url,omitempty"`
	Source      SourceType `json:"source,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at,omitempty"`

	// Portfolio.
	Location    string     `json:"location,omitempty"`
	Bio         string     `json:"bio,omitempty"`
	Skills      []string   `json:"skills,omitempty"`
	SocialLinks []string   `json:"social_links,omitempty"`
	Followers   string     `json:"followers,omitempty"`
	Works       []WorkItem `json:"works,omitempty"`

	// External signals, each optional.
	GitHubUsername string         `json:"github_username,omitempty"`
	GitHub         *GitHubStats   `json:"github_analysis,omitempty"`
	Resume         *ResumeProfile `json:"resume_analysis,omitempty"`
	ImageAnalyses  []WorkAnalysis `json:"image_analyses,omitempty"`

	// Derived.
	Evaluation *Evaluation `json:"evaluation,omitempty"`
	Status     Status      `json:"status,omitempty"`
}

// WorkItem is one portfolio artifact: a titled work with its source URL
// and, when downloaded, a locally cached copy.
type WorkItem struct {
	Title     string `json:"title,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	LocalPath string `json:"local_path,omitempty"`
}

// WorkAnalysis is the visual assessment of one work item.
type WorkAnalysis struct {
	Title    string `json:"title,omitempty"`
	Analysis string `json:"analysis,omitempty"`
}

// GitHubStats aggregates code-hosting signals for a candidate.
type GitHubStats struct {
	Username      string          `json:"username,omitempty"`
	Name          string          `json:"name,omitempty"`
	Bio           string          `json:"bio,omitempty"`
	Company       string          `json:"company,omitempty"`
	Location      string          `json:"location,omitempty"`
	CreatedAt     string          `json:"created_at,omitempty"`
	Followers     int             `json:"followers"`
	Following     int             `json:"following"`
	TotalRepos    int             `json:"total_repos"`
	OwnRepos      int             `json:"own_repos"`
	TotalStars    int             `json:"total_stars"`
	TopLanguages  []LanguageCount `json:"top_languages,omitempty"`
	TopRepos      []RepoStat      `json:"top_repos,omitempty"`
	PinnedRepos   []RepoStat      `json:"pinned_repos,omitempty"`
	Contributions Contributions   `json:"contributions"`
}

type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

type RepoStat struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks,omitempty"`
	Language    string `json:"language,omitempty"`
	URL         string `json:"url,omitempty"`
}

type Contributions struct {
	Total        int `json:"total"`
	Commits      int `json:"commits"`
	PullRequests int `json:"pull_requests"`
	Issues       int `json:"issues"`
	ReposCreated int `json:"repos_created"`
}

// ResumeProfile is the structured data extracted from a resume document.
type ResumeProfile struct {
	Skills          []string    `json:"skills,omitempty"`
	ExperienceYears float64     `json:"experience_years,omitempty"`
	Education       []Education `json:"education,omitempty"`
	WorkExperience  []Job       `json:"work_experience,omitempty"`
	Projects        []Project   `json:"projects,omitempty"`
	Certifications  []string    `json:"certifications,omitempty"`
	Summary         string      `json:"summary,omitempty"`
}

type Education struct {
	Degree      string `json:"degree,omitempty"`
	Institution string `json:"institution,omitempty"`
	Year        string `json:"year,omitempty"`
}

type Job struct {
	Title      string `json:"title,omitempty"`
	Company    string `json:"company,omitempty"`
	Duration   string `json:"duration,omitempty"`
	Highlights string `json:"highlights,omitempty"`
}

type Project struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	TechStack   []string `json:"tech_stack,omitempty"`
}

// Key returns the natural key used for idempotent upserts within a bucket:
// the platform username, the submission id, or a deterministic hash of
// identity fields when neither is present.
func (c *Candidate) Key() string {
	if u := strings.TrimSpace(c.Username); u != "" {
		return u
	}
	if s := strings.TrimSpace(c.SubmissionID); s != "" {
		return s
	}
	return DeriveKey(c.Name, c.Email)
}

// DeriveKey builds a deterministic identifier from name and email for
// sources that supply no natural id of their own.
func DeriveKey(name, email string) string {
	seed := strings.ToLower(strings.TrimSpace(name)) + "|" + strings.ToLower(strings.TrimSpace(email))
	sum := sha256.Sum256([]byte(seed))
	return fmt.Sprintf("%x", sum)[:12]
}
