package dribbble

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"talentlens/internal/ai/extract"
	"talentlens/internal/ai/gemini"
	"talentlens/internal/sources/fetch"
	"talentlens/internal/talent"
)

const (
	// Downloads below this size are tracking pixels or error pages.
	minImageBytes = 1000

	maxProfileText = 12000
)

// sleep paces image downloads; swapped out in tests.
var sleep = time.Sleep

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9_\-]`)

type pageReader interface {
	Fetch(ctx context.Context, target string) (string, error)
}

type textGenerator interface {
	Generate(ctx context.Context, req *gemini.GenRequest) (string, error)
}

// Scraper walks a designer's public surface: search results, about page,
// shots, and the shot images themselves.
type Scraper struct {
	reader    pageReader
	generator textGenerator
	http      *http.Client
	imagesDir string
	logger    *zap.Logger
}

func NewScraper(reader pageReader, generator textGenerator, imagesDir string, logger *zap.Logger) *Scraper {
	return &Scraper{
		reader:    reader,
		generator: generator,
		http:      &http.Client{Timeout: 20 * time.Second},
		imagesDir: imagesDir,
		logger:    logger,
	}
}

// Search renders the keyword search page and returns up to limit designers.
func (s *Scraper) Search(ctx context.Context, keyword string, limit int) ([]Designer, error) {
	raw, err := s.reader.Fetch(ctx, "https://dribbble.com/search/"+url.PathEscape(keyword))
	if err != nil {
		return nil, err
	}

	designers := ExtractDesigners(raw)
	s.logger.Info("search page extracted",
		zap.String("keyword", keyword),
		zap.Int("designers", len(designers)),
	)

	if limit > 0 && len(designers) > limit {
		designers = designers[:limit]
	}
	return designers, nil
}

// profileWire is the shape the extraction prompt asks for.
type profileWire struct {
	Name             string   `json:"name"`
	Location         string   `json:"location"`
	Bio              string   `json:"bio"`
	FollowersCount   string   `json:"followers_count"`
	ContactEmail     string   `json:"contact_email"`
	Phone            string   `json:"phone"`
	PortfolioWebsite string   `json:"portfolio_website"`
	Skills           []string `json:"skills"`
	SocialLinks      struct {
		LinkedIn  string   `json:"linkedin"`
		Twitter   string   `json:"twitter"`
		Instagram string   `json:"instagram"`
		Facebook  string   `json:"facebook"`
		Behance   string   `json:"behance"`
		GitHub    string   `json:"github"`
		YouTube   string   `json:"youtube"`
		Other     []string `json:"other"`
	} `json:"social_links"`
}

const profileSystemPrompt = `You are a web scraping expert. You are given the raw text/markdown content of a designer's About page. Extract ALL available profile information into a structured JSON object. Return ONLY a valid JSON object with these fields (use null for anything not found):
{
  "name": "Full display name",
  "location": "City, Country or whatever is shown",
  "bio": "Their bio/description text",
  "followers_count": "e.g. 64,618 or null",
  "contact_email": "email@example.com or null",
  "phone": "phone number or null",
  "portfolio_website": "their personal website URL or null",
  "skills": ["skill1", "skill2"],
  "social_links": {
    "linkedin": "full URL or null",
    "twitter": "full URL or null",
    "instagram": "full URL or null",
    "facebook": "full URL or null",
    "behance": "full URL or null",
    "github": "full URL or null",
    "youtube": "full URL or null",
    "other": ["any other social/portfolio URLs found"]
  }
}
Extract ONLY what is actually present in the content. Do NOT guess or invent data.`

// Profile renders the about page and extracts identity fields into a
// candidate skeleton.
func (s *Scraper) Profile(ctx context.Context, username string) (*talent.Candidate, error) {
	raw, err := s.reader.Fetch(ctx, fmt.Sprintf("https://dribbble.com/%s/about", username))
	if err != nil {
		return nil, err
	}

	if len(raw) > maxProfileText {
		raw = raw[:maxProfileText]
	}

	response, err := s.generator.Generate(ctx, &gemini.GenRequest{
		System:      profileSystemPrompt,
		User:        fmt.Sprintf("Extract profile details for user '%s' from this about page content:\n\n%s", username, raw),
		Temperature: 0.1,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fetch.NewError(sourceName, err)
	}

	var wire profileWire
	if err := extract.Decode(response, &wire); err != nil {
		return nil, fetch.NewError(sourceName, fmt.Errorf("structure profile: %w", err))
	}

	cand := &talent.Candidate{
		Username:   username,
		Name:       wire.Name,
		Email:      wire.ContactEmail,
		Phone:      wire.Phone,
		LinkedIn:   wire.SocialLinks.LinkedIn,
		ProfileURL: "https://dribbble.com/" + username,
		Source:     talent.SourceScrape,
		Location:   wire.Location,
		Bio:        wire.Bio,
		Skills:     wire.Skills,
		Followers:  wire.FollowersCount,
	}
	cand.SocialLinks = collectLinks(wire)
	cand.GitHubUsername = githubLogin(wire.SocialLinks.GitHub)
	return cand, nil
}

func collectLinks(wire profileWire) []string {
	var links []string
	for _, link := range []string{
		wire.SocialLinks.LinkedIn, wire.SocialLinks.Twitter,
		wire.SocialLinks.Instagram, wire.SocialLinks.Facebook,
		wire.SocialLinks.Behance, wire.SocialLinks.GitHub,
		wire.SocialLinks.YouTube, wire.PortfolioWebsite,
	} {
		if link = strings.TrimSpace(link); link != "" {
			links = append(links, link)
		}
	}
	for _, link := range wire.SocialLinks.Other {
		if link = strings.TrimSpace(link); link != "" {
			links = append(links, link)
		}
	}
	return links
}

// githubLogin pulls the login out of a github.com profile URL.
func githubLogin(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}

	u, err := url.Parse(link)
	if err != nil || !strings.Contains(u.Host, "github.com") {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return ""
	}
	return parts[0]
}

// Shots renders the profile page and returns its portfolio images.
func (s *Scraper) Shots(ctx context.Context, username string) ([]Shot, error) {
	raw, err := s.reader.Fetch(ctx, "https://dribbble.com/"+username)
	if err != nil {
		return nil, err
	}

	shots := ExtractShots(raw)
	s.logger.Info("profile shots extracted",
		zap.String("username", username),
		zap.Int("shots", len(shots)),
	)
	return shots, nil
}

// DownloadImages saves up to max shot images under imagesDir/username.
// Failures are logged and skipped; the returned work items carry paths
// relative to imagesDir so the image server can serve them.
func (s *Scraper) DownloadImages(ctx context.Context, username string, shots []Shot, max int) []talent.WorkItem {
	if len(shots) == 0 || max <= 0 {
		return nil
	}
	if len(shots) > max {
		shots = shots[:max]
	}

	dir := filepath.Join(s.imagesDir, username)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Warn("create image dir failed", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	var works []talent.WorkItem
	for i, shot := range shots {
		if i > 0 {
			sleep(time.Second)
		}

		data, err := s.downloadImage(ctx, shot.ImageURL)
		if err != nil {
			s.logger.Warn("image download failed",
				zap.String("url", shot.ImageURL),
				zap.Error(err),
			)
			continue
		}

		filename := imageFilename(shot.Title, i, shot.ImageURL, data)
		path := filepath.Join(dir, filename)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			s.logger.Warn("image write failed", zap.String("path", path), zap.Error(err))
			continue
		}

		works = append(works, talent.WorkItem{
			Title:     shot.Title,
			SourceURL: shot.ImageURL,
			LocalPath: filepath.ToSlash(filepath.Join(username, filename)),
		})
	}

	s.logger.Info("images downloaded",
		zap.String("username", username),
		zap.Int("count", len(works)),
	)
	return works
}

func (s *Scraper) downloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", fetch.UserAgent)
	req.Header.Set("Referer", "https://dribbble.com/")
	req.Header.Set("Accept", "image/webp,image/apng,image/*,*/*;q=0.8")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(data) < minImageBytes {
		return nil, fmt.Errorf("image too small (%d bytes)", len(data))
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return nil, fmt.Errorf("not an image (%s)", http.DetectContentType(data))
	}
	return data, nil
}

func imageFilename(title string, idx int, imageURL string, data []byte) string {
	clean := unsafeFilename.ReplaceAllString(strings.ToLower(title), "_")
	if len(clean) > 40 {
		clean = clean[:40]
	}
	if clean == "" {
		clean = "shot"
	}
	return fmt.Sprintf("%s_%d%s", clean, idx, imageExt(imageURL, data))
}

func imageExt(imageURL string, data []byte) string {
	lower := strings.ToLower(imageURL)
	switch {
	case strings.Contains(lower, ".png"):
		return ".png"
	case strings.Contains(lower, ".gif"):
		return ".gif"
	case strings.Contains(lower, ".webp"):
		return ".webp"
	case strings.Contains(lower, ".jpg"), strings.Contains(lower, ".jpeg"):
		return ".jpg"
	}

	// URL carries no hint; trust the bytes.
	switch http.DetectContentType(data) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
