// Package pipeline orchestrates fetching, evaluation, and persistence for
// candidates.
package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"talentlens/internal/ai"
	"talentlens/internal/logger"
	"talentlens/internal/store"
	"talentlens/internal/talent"
)

// GitHubSource fetches code-hosting statistics for a login.
type GitHubSource interface {
	Stats(ctx context.Context, username string) (*talent.GitHubStats, error)
}

// ResumeSource turns a resume URL into a structured profile.
type ResumeSource interface {
	Parse(ctx context.Context, resumeURL string) (*talent.ResumeProfile, error)
}

// Analyzer runs the developer path: fetch whatever signals are missing,
// evaluate, persist. Fetch failures are soft; the evaluation runs on
// whatever is available.
type Analyzer struct {
	store     *store.Store
	github    GitHubSource
	resume    ResumeSource
	evaluator ai.Evaluator
	logger    *zap.Logger
}

func NewAnalyzer(st *store.Store, github GitHubSource, resume ResumeSource, evaluator ai.Evaluator, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		store:     st,
		github:    github,
		resume:    resume,
		evaluator: evaluator,
		logger:    logger,
	}
}

// AnalyzeCandidate brings one candidate up to date. Only missing signals are
// fetched, and the evaluation reruns only when it is absent or a new signal
// arrived, so re-running on a fully analyzed record is a no-op.
func (a *Analyzer) AnalyzeCandidate(ctx context.Context, bucketID, key string) error {
	bucket, err := a.store.GetBucket(bucketID)
	if err != nil {
		return err
	}
	cand, err := a.store.Candidate(bucketID, key)
	if err != nil {
		return err
	}

	log := logger.WithFields(a.logger, logger.CandidateFields(bucketID, key)...)

	var gh *talent.GitHubStats
	if cand.GitHubUsername != "" && cand.GitHub == nil {
		gh, err = a.github.Stats(ctx, cand.GitHubUsername)
		if err != nil {
			log.Warn("github fetch failed", zap.Error(err))
			gh = nil
		}
	}

	var profile *talent.ResumeProfile
	if cand.ResumeURL != "" && cand.Resume == nil {
		profile, err = a.resume.Parse(ctx, cand.ResumeURL)
		if err != nil {
			log.Warn("resume fetch failed", zap.Error(err))
			profile = nil
		}
	}

	var eval *talent.Evaluation
	if cand.Evaluation == nil || gh != nil || profile != nil {
		// Evaluate on the record as it will be stored.
		input := *cand
		if gh != nil {
			input.GitHub = gh
		}
		if profile != nil {
			input.Resume = profile
		}

		eval = a.evaluator.Evaluate(ctx, &ai.Request{Candidate: &input, Bucket: bucket})
		log.Info("candidate evaluated",
			zap.Int("score", eval.OverallScore),
			zap.String("decision", string(eval.Recommendation.Decision)),
			zap.Bool("fallback", eval.Fallback),
		)
	}

	if gh == nil && profile == nil && eval == nil {
		log.Debug("candidate already analyzed, nothing to do")
		return nil
	}

	return a.store.ApplyEvaluation(bucketID, key, eval, gh, profile, nil)
}

// AnalyzeBucket fans unanalyzed candidates out as goroutines, one per
// candidate, and waits for all of them. Failures are isolated per item.
func (a *Analyzer) AnalyzeBucket(ctx context.Context, bucketID string) error {
	bucket, err := a.store.GetBucket(bucketID)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for key, cand := range bucket.Candidates {
		if !needsAnalysis(cand) {
			continue
		}

		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			if err := a.AnalyzeCandidate(ctx, bucketID, key); err != nil {
				fields := append(logger.CandidateFields(bucketID, key), zap.Error(err))
				a.logger.Warn("candidate analysis failed", fields...)
			}
		}(key)
	}
	wg.Wait()
	return nil
}

func needsAnalysis(c *talent.Candidate) bool {
	if c.Evaluation == nil {
		return true
	}
	if c.GitHubUsername != "" && c.GitHub == nil {
		return true
	}
	if c.ResumeURL != "" && c.Resume == nil {
		return true
	}
	return false
}
