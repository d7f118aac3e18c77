package dribbble

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"talentlens/internal/ai/gemini"
	"talentlens/internal/talent"
)

type stubReader struct {
	pages map[string]string
}

func (s *stubReader) Fetch(_ context.Context, target string) (string, error) {
	page, ok := s.pages[target]
	if !ok {
		return "", fmt.Errorf("no page for %s", target)
	}
	return page, nil
}

type stubGenerator struct {
	response string
	lastReq  *gemini.GenRequest
}

func (s *stubGenerator) Generate(_ context.Context, req *gemini.GenRequest) (string, error) {
	s.lastReq = req
	return s.response, nil
}

func TestSearch(t *testing.T) {
	reader := &stubReader{pages: map[string]string{
		"https://dribbble.com/search/fintech": searchMarkdown,
	}}
	s := NewScraper(reader, &stubGenerator{}, t.TempDir(), zap.NewNop())

	designers, err := s.Search(context.Background(), "fintech", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(designers) != 1 || designers[0].Username != "janedoe" {
		t.Fatalf("unexpected designers: %+v", designers)
	}
}

func TestProfile(t *testing.T) {
	reader := &stubReader{pages: map[string]string{
		"https://dribbble.com/janedoe/about": strings.Repeat("about page ", 100),
	}}
	gen := &stubGenerator{response: `{
		"name": "Jane Doe",
		"location": "Berlin",
		"bio": "Product designer",
		"followers_count": "12,345",
		"contact_email": "jane@example.com",
		"skills": ["ui", "branding"],
		"social_links": {
			"linkedin": "https://linkedin.com/in/janedoe",
			"github": "https://github.com/janedoe",
			"other": ["https://janedoe.design"]
		}
	}`}
	s := NewScraper(reader, gen, t.TempDir(), zap.NewNop())

	cand, err := s.Profile(context.Background(), "janedoe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cand.Username != "janedoe" || cand.Name != "Jane Doe" {
		t.Fatalf("unexpected candidate: %+v", cand)
	}
	if cand.Email != "jane@example.com" || cand.Location != "Berlin" {
		t.Fatalf("unexpected contact fields: %+v", cand)
	}
	if cand.Followers != "12,345" {
		t.Fatalf("unexpected followers: %q", cand.Followers)
	}
	if cand.Source != talent.SourceScrape {
		t.Fatalf("expected scrape source, got %q", cand.Source)
	}
	if cand.GitHubUsername != "janedoe" {
		t.Fatalf("expected github login derived from link, got %q", cand.GitHubUsername)
	}
	if cand.LinkedIn != "https://linkedin.com/in/janedoe" {
		t.Fatalf("unexpected linkedin: %q", cand.LinkedIn)
	}
	if len(cand.SocialLinks) != 3 {
		t.Fatalf("unexpected social links: %+v", cand.SocialLinks)
	}
	if !gen.lastReq.JSONMode {
		t.Fatal("expected JSON mode")
	}
}

func TestGithubLogin(t *testing.T) {
	cases := map[string]string{
		"https://github.com/janedoe":       "janedoe",
		"https://www.github.com/janedoe/":  "janedoe",
		"https://gitlab.com/janedoe":       "",
		"":                                 "",
		"https://github.com/janedoe/repos": "janedoe",
	}
	for in, want := range cases {
		if got := githubLogin(in); got != want {
			t.Fatalf("githubLogin(%q) = %q, want %q", in, got, want)
		}
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if buf.Len() < minImageBytes {
		// Pad with a PNG comment-free tail is not possible; enlarge image instead.
		// Fill with seeded random pixels so the PNG cannot compress below minImageBytes.
		img = image.NewRGBA(image.Rect(0, 0, 256, 256))
		rand.New(rand.NewSource(1)).Read(img.Pix)
		buf.Reset()
		if err := png.Encode(&buf, img); err != nil {
			t.Fatalf("encode png: %v", err)
		}
	}
	return buf.Bytes()
}

func TestDownloadImages(t *testing.T) {
	origSleep := sleep
	sleep = func(time.Duration) {}
	defer func() { sleep = origSleep }()

	data := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/small.png":
			w.Write([]byte("tiny"))
		default:
			w.Write(data)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	s := NewScraper(&stubReader{}, &stubGenerator{}, dir, zap.NewNop())

	shots := []Shot{
		{Title: "Fintech Dashboard!", ImageURL: srv.URL + "/shot-a.png"},
		{Title: "Tiny", ImageURL: srv.URL + "/small.png"},
		{Title: "Extra", ImageURL: srv.URL + "/shot-c.png"},
	}

	works := s.DownloadImages(context.Background(), "janedoe", shots, 2)
	if len(works) != 1 {
		t.Fatalf("expected 1 downloaded work, got %d: %+v", len(works), works)
	}

	w := works[0]
	if w.Title != "Fintech Dashboard!" || w.SourceURL != srv.URL+"/shot-a.png" {
		t.Fatalf("unexpected work item: %+v", w)
	}
	if w.LocalPath != "janedoe/fintech_dashboard__0.png" {
		t.Fatalf("unexpected local path: %q", w.LocalPath)
	}

	saved, err := os.ReadFile(filepath.Join(dir, "janedoe", "fintech_dashboard__0.png"))
	if err != nil {
		t.Fatalf("read saved image: %v", err)
	}
	if !bytes.Equal(saved, data) {
		t.Fatal("saved image does not match downloaded bytes")
	}
}
