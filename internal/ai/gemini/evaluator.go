package gemini

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"talentlens/internal/ai"
	"talentlens/internal/ai/extract"
	"talentlens/internal/logger"
	"talentlens/internal/talent"
)

//go:embed rubric_designer.md
var designerRubric string

//go:embed rubric_developer.md
var developerRubric string

const defaultMaxLogLength = 200

type textGenerator interface {
	Generate(ctx context.Context, req *GenRequest) (string, error)
}

// Evaluator scores candidates against the embedded rubrics. It satisfies
// ai.Evaluator: any failure along the way degrades to the deterministic
// fallback evaluation instead of an error.
type Evaluator struct {
	generator textGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewEvaluator(generator textGenerator, log *zap.Logger, maxLogLength int) *Evaluator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Evaluator{
		generator: generator,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

// Evaluate builds the rubric prompt for the candidate's track, asks the
// model for a structured result, and normalizes it. Scores stay within
// [talent.MinScore, talent.MaxScore]; a missing score is derived from the
// 0-5 rating.
func (e *Evaluator) Evaluate(ctx context.Context, req *ai.Request) *talent.Evaluation {
	metricNames := talent.DeveloperMetrics
	if isDesignerTrack(req) {
		metricNames = talent.DesignerMetrics
	}

	prompt, err := e.buildPrompt(req)
	if err != nil {
		e.logger.Warn("evaluation prompt build failed, using fallback",
			zap.String("candidate", req.Candidate.Key()),
			zap.Error(err),
		)
		return talent.FallbackEvaluation(metricNames)
	}

	e.logger.Debug("evaluation request",
		zap.String("candidate", req.Candidate.Key()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.Generate(ctx, &GenRequest{
		User:     prompt,
		JSONMode: true,
	})
	if err != nil {
		e.logger.Warn("evaluation generation failed, using fallback",
			zap.String("candidate", req.Candidate.Key()),
			zap.Error(err),
		)
		return talent.FallbackEvaluation(metricNames)
	}

	e.logger.Debug("evaluation response",
		zap.String("candidate", req.Candidate.Key()),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, e.maxLogLen)),
	)

	var eval talent.Evaluation
	if err := extract.Decode(raw, &eval); err != nil {
		e.logger.Warn("evaluation response unparseable, using fallback",
			zap.String("candidate", req.Candidate.Key()),
			zap.Error(err),
		)
		return talent.FallbackEvaluation(metricNames)
	}

	normalize(&eval)
	return &eval
}

func isDesignerTrack(req *ai.Request) bool {
	if req.FocusArea != "" {
		return true
	}
	return req.Bucket != nil && req.Bucket.Kind == talent.BucketKeyword
}

func (e *Evaluator) buildPrompt(req *ai.Request) (string, error) {
	candidateJSON, err := json.MarshalIndent(req.Candidate, "", "  ")
	if err != nil {
		return "", err
	}

	if isDesignerTrack(req) {
		focus := req.FocusArea
		if focus == "" && req.Bucket != nil {
			focus = req.Bucket.Name
		}
		prompt := strings.ReplaceAll(designerRubric, "{{CANDIDATE_JSON}}", string(candidateJSON))
		prompt = strings.ReplaceAll(prompt, "{{FOCUS_AREA}}", focus)
		return prompt, nil
	}

	jd := ""
	if req.Bucket != nil {
		jd = req.Bucket.JD
		if jd == "" {
			jd = req.Bucket.Name
		}
	}
	prompt := strings.ReplaceAll(developerRubric, "{{CANDIDATE_JSON}}", string(candidateJSON))
	prompt = strings.ReplaceAll(prompt, "{{JOB_DESCRIPTION}}", jd)
	return prompt, nil
}

// normalize repairs the shapes models get wrong most often: cased decision
// words, a missing overall score, and out-of-band ratings.
func normalize(eval *talent.Evaluation) {
	eval.Recommendation.Decision = normalizeDecision(eval.Recommendation.Decision)
	eval.Recommendation.Confidence = normalizeConfidence(eval.Recommendation.Confidence)

	if eval.OverallRating < 0 {
		eval.OverallRating = 0
	}
	if eval.OverallRating > 5 {
		eval.OverallRating = 5
	}

	if eval.OverallScore == 0 && eval.OverallRating > 0 {
		eval.OverallScore = int(math.Round(eval.OverallRating / 5 * 100))
	}
	eval.OverallScore = talent.ClampScore(eval.OverallScore)
}

func normalizeDecision(d talent.Decision) talent.Decision {
	switch talent.Decision(strings.ToUpper(strings.TrimSpace(string(d)))) {
	case talent.DecisionHire:
		return talent.DecisionHire
	case talent.DecisionReject:
		return talent.DecisionReject
	default:
		return talent.DecisionConsider
	}
}

func normalizeConfidence(c talent.Confidence) talent.Confidence {
	switch talent.Confidence(strings.ToUpper(strings.TrimSpace(string(c)))) {
	case talent.ConfidenceHigh:
		return talent.ConfidenceHigh
	case talent.ConfidenceLow:
		return talent.ConfidenceLow
	default:
		return talent.ConfidenceMedium
	}
}
