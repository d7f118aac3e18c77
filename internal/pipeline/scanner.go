package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"talentlens/internal/ai"
	"talentlens/internal/sources/dribbble"
	"talentlens/internal/store"
	"talentlens/internal/talent"
)

const visionPrompt = "You are a senior design director. Analyze this portfolio shot: " +
	"describe what it shows, then assess visual craft, typography, layout, and " +
	"originality in 3-4 concise sentences."

// Emitter receives scan progress. Done is always the final event, even after
// errors.
type Emitter interface {
	Log(msg string)
	Result(v any)
	Error(msg string)
	Done()
}

// DesignerSource is the scraping surface the scanner walks.
type DesignerSource interface {
	Search(ctx context.Context, keyword string, limit int) ([]dribbble.Designer, error)
	Profile(ctx context.Context, username string) (*talent.Candidate, error)
	Shots(ctx context.Context, username string) ([]dribbble.Shot, error)
	DownloadImages(ctx context.Context, username string, shots []dribbble.Shot, max int) []talent.WorkItem
}

// ImageAnalyzer produces a textual assessment of one image.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, prompt string, data []byte, mimeType string) (string, error)
}

// Scanner runs the designer path: search a keyword, walk each designer's
// profile and shots, analyze the work visually, evaluate, and store the
// results in the keyword's bucket.
type Scanner struct {
	store     *store.Store
	source    DesignerSource
	vision    ImageAnalyzer
	evaluator ai.Evaluator
	imagesDir string
	logger    *zap.Logger
}

func NewScanner(st *store.Store, source DesignerSource, vision ImageAnalyzer, evaluator ai.Evaluator, imagesDir string, logger *zap.Logger) *Scanner {
	return &Scanner{
		store:     st,
		source:    source,
		vision:    vision,
		evaluator: evaluator,
		imagesDir: imagesDir,
		logger:    logger,
	}
}

// Scan searches the keyword and processes up to maxProfiles designers,
// downloading up to maxImages shots each. Per-designer failures are
// reported and skipped; the scan itself keeps going.
func (s *Scanner) Scan(ctx context.Context, keyword string, maxProfiles, maxImages int, em Emitter) {
	defer em.Done()

	bucketID, err := s.keywordBucket(keyword)
	if err != nil {
		em.Error(fmt.Sprintf("prepare bucket: %v", err))
		return
	}

	em.Log(fmt.Sprintf("Searching for %q...", keyword))
	designers, err := s.source.Search(ctx, keyword, maxProfiles)
	if err != nil {
		em.Error(fmt.Sprintf("search failed: %v", err))
		return
	}
	em.Log(fmt.Sprintf("Found %d designers", len(designers)))

	for _, d := range designers {
		if ctx.Err() != nil {
			em.Error("scan cancelled")
			return
		}

		cand, err := s.processDesigner(ctx, keyword, bucketID, d, maxImages, em)
		if err != nil {
			em.Error(fmt.Sprintf("%s: %v", d.Username, err))
			continue
		}
		em.Result(cand)
	}

	if err := s.store.TouchScan(bucketID); err != nil {
		s.logger.Warn("touch scan failed", zap.String("bucket", bucketID), zap.Error(err))
	}
	em.Log("Scan complete")
}

func (s *Scanner) processDesigner(ctx context.Context, keyword, bucketID string, d dribbble.Designer, maxImages int, em Emitter) (*talent.Candidate, error) {
	em.Log(fmt.Sprintf("Scraping profile of %s...", d.Username))

	cand, err := s.source.Profile(ctx, d.Username)
	if err != nil {
		// A blocked about page still leaves a usable skeleton.
		s.logger.Warn("profile scrape failed, using search data",
			zap.String("username", d.Username),
			zap.Error(err),
		)
		cand = &talent.Candidate{
			Username:   d.Username,
			Name:       d.DisplayName,
			ProfileURL: d.ProfileURL,
			Source:     talent.SourceScrape,
		}
	}

	shots, err := s.source.Shots(ctx, d.Username)
	if err != nil {
		s.logger.Warn("shots scrape failed, using search shots",
			zap.String("username", d.Username),
			zap.Error(err),
		)
		shots = d.Shots
	}

	em.Log(fmt.Sprintf("Downloading up to %d shots for %s...", maxImages, d.Username))
	cand.Works = s.source.DownloadImages(ctx, d.Username, shots, maxImages)

	analyses := s.analyzeWorks(ctx, cand.Works, em)

	merged, err := s.store.Upsert(bucketID, cand)
	if err != nil {
		return nil, err
	}

	em.Log(fmt.Sprintf("Evaluating %s...", d.Username))
	input := *merged
	input.ImageAnalyses = analyses
	eval := s.evaluator.Evaluate(ctx, &ai.Request{
		Candidate: &input,
		FocusArea: keyword,
	})

	if err := s.store.ApplyEvaluation(bucketID, merged.Key(), eval, nil, nil, analyses); err != nil {
		return nil, err
	}

	return s.store.Candidate(bucketID, merged.Key())
}

// analyzeWorks runs the vision model over each downloaded image. Unreadable
// files and failed calls are skipped.
func (s *Scanner) analyzeWorks(ctx context.Context, works []talent.WorkItem, em Emitter) []talent.WorkAnalysis {
	var analyses []talent.WorkAnalysis
	for _, w := range works {
		if w.LocalPath == "" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.imagesDir, filepath.FromSlash(w.LocalPath)))
		if err != nil {
			s.logger.Warn("work image unreadable", zap.String("path", w.LocalPath), zap.Error(err))
			continue
		}

		em.Log(fmt.Sprintf("Analyzing %q...", w.Title))
		text, err := s.vision.AnalyzeImage(ctx, visionPrompt, data, mimeFromPath(w.LocalPath))
		if err != nil {
			s.logger.Warn("image analysis failed", zap.String("title", w.Title), zap.Error(err))
			continue
		}

		analyses = append(analyses, talent.WorkAnalysis{Title: w.Title, Analysis: text})
	}
	return analyses
}

func mimeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// keywordBucket finds the bucket for a search keyword, creating it on first
// scan.
func (s *Scanner) keywordBucket(keyword string) (string, error) {
	for _, b := range s.store.ListBuckets() {
		if b.Kind == talent.BucketKeyword && strings.EqualFold(b.Name, keyword) {
			return b.ID, nil
		}
	}

	return s.store.CreateBucket(&talent.Bucket{
		Kind:      talent.BucketKeyword,
		Name:      keyword,
		CreatedAt: time.Now(),
	})
}
