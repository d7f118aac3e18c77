// Package resume turns a resume URL into a structured profile: download,
// PDF text extraction, then LLM structuring.
package resume

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
	"go.uber.org/zap"

	"talentlens/internal/ai/extract"
	"talentlens/internal/ai/gemini"
	"talentlens/internal/sources/fetch"
	"talentlens/internal/talent"
)

const (
	sourceName = "resume"

	// Anything shorter is an image-only or corrupted PDF; the profile is
	// treated as absent rather than fed to the model.
	minTextLength = 50

	maxPromptText = 8000
)

const extractionPrompt = `Extract structured data from this resume. Return ONLY valid JSON:

{
  "skills": ["skill1", "skill2"],
  "experience_years": <number or estimate>,
  "education": [
    { "degree": "...", "institution": "...", "year": "..." }
  ],
  "work_experience": [
    { "title": "...", "company": "...", "duration": "...", "highlights": "1 sentence" }
  ],
  "projects": [
    { "name": "...", "description": "1 sentence", "tech_stack": ["..."] }
  ],
  "certifications": ["cert1", "cert2"],
  "summary": "2-3 sentence professional summary"
}

RESUME TEXT:
`

type textGenerator interface {
	Generate(ctx context.Context, req *gemini.GenRequest) (string, error)
}

// Parser fetches and structures resumes.
type Parser struct {
	http      *http.Client
	generator textGenerator
	logger    *zap.Logger
}

func New(generator textGenerator, logger *zap.Logger) *Parser {
	return &Parser{
		http:      &http.Client{Timeout: 30 * time.Second},
		generator: generator,
		logger:    logger,
	}
}

// Parse downloads the resume and extracts a structured profile. A document
// that yields no meaningful text returns (nil, nil): the signal is absent,
// not an error.
func (p *Parser) Parse(ctx context.Context, resumeURL string) (*talent.ResumeProfile, error) {
	resumeURL = strings.TrimSpace(resumeURL)
	if resumeURL == "" {
		return nil, nil
	}

	data, err := p.download(ctx, resumeURL)
	if err != nil {
		return nil, err
	}

	text := extractText(data, p.logger)
	if len(text) < minTextLength {
		p.logger.Debug("resume yielded no meaningful text",
			zap.String("url", resumeURL),
			zap.Int("chars", len(text)),
		)
		return nil, nil
	}

	profile, err := p.structure(ctx, text)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("resume parsed",
		zap.String("url", resumeURL),
		zap.Int("skills", len(profile.Skills)),
		zap.Float64("experience_years", profile.ExperienceYears),
	)
	return profile, nil
}

func (p *Parser) structure(ctx context.Context, text string) (*talent.ResumeProfile, error) {
	if len(text) > maxPromptText {
		text = text[:maxPromptText]
	}

	raw, err := p.generator.Generate(ctx, &gemini.GenRequest{
		System:   "You are an expert recruiter AI. Extract structured information from this resume. Return ONLY a valid JSON object. Be concise.",
		User:     extractionPrompt + text,
		JSONMode: true,
	})
	if err != nil {
		return nil, fetch.NewError(sourceName, err)
	}

	var profile talent.ResumeProfile
	if err := extract.Decode(raw, &profile); err != nil {
		return nil, fetch.NewError(sourceName, fmt.Errorf("structure resume text: %w", err))
	}
	return &profile, nil
}

func (p *Parser) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fetch.NewError(sourceName, err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fetch.NewError(sourceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fetch.NewError(sourceName, fmt.Errorf("download returned %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fetch.NewError(sourceName, err)
	}
	return data, nil
}

// extractText pulls text out of a PDF page by page. Pages that fail
// individually are skipped so one bad page doesn't lose the document.
func extractText(data []byte, log *zap.Logger) string {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		log.Debug("pdf open failed", zap.Error(err))
		return ""
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		log.Debug("pdf page count failed", zap.Error(err))
		return ""
	}

	var parts []string
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			log.Debug("pdf page unreadable", zap.Int("page", i), zap.Error(err))
			continue
		}

		ex, err := extractor.New(page)
		if err != nil {
			log.Debug("pdf extractor failed", zap.Int("page", i), zap.Error(err))
			continue
		}

		pageText, err := ex.ExtractText()
		if err != nil {
			log.Debug("pdf text extraction failed", zap.Int("page", i), zap.Error(err))
			continue
		}
		if pageText != "" {
			parts = append(parts, pageText)
		}
	}

	return strings.TrimSpace(strings.Join(parts, "\n"))
}
