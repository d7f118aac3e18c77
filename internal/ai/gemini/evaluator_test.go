package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"talentlens/internal/ai"
	"talentlens/internal/talent"
)

type stubGenerator struct {
	response string
	err      error
	lastReq  *GenRequest
}

func (s *stubGenerator) Generate(_ context.Context, req *GenRequest) (string, error) {
	s.lastReq = req
	return s.response, s.err
}

func developerRequest() *ai.Request {
	return &ai.Request{
		Candidate: &talent.Candidate{Username: "octocat", Name: "Octo Cat"},
		Bucket: &talent.Bucket{
			ID:   "b1",
			Kind: talent.BucketRole,
			Name: "Backend Engineer",
			JD:   "Go services at scale",
		},
	}
}

func TestEvaluateParsesResponse(t *testing.T) {
	gen := &stubGenerator{response: `{
		"overall_rating": 4.2,
		"overall_score": 84,
		"metrics": {"technical_depth": {"rating": 4.5, "reasoning": "deep systems work"}},
		"strengths": ["distributed systems"],
		"recommendation": {"decision": "hire", "confidence": "high", "reasoning": "strong"}
	}`}
	e := NewEvaluator(gen, zap.NewNop(), 0)

	eval := e.Evaluate(context.Background(), developerRequest())
	if eval == nil {
		t.Fatal("expected an evaluation")
	}
	if eval.Fallback {
		t.Fatal("expected a real evaluation, got fallback")
	}
	if eval.OverallScore != 84 {
		t.Fatalf("expected score 84, got %d", eval.OverallScore)
	}
	if eval.Recommendation.Decision != talent.DecisionHire {
		t.Fatalf("expected normalized HIRE, got %q", eval.Recommendation.Decision)
	}
	if eval.Recommendation.Confidence != talent.ConfidenceHigh {
		t.Fatalf("expected normalized HIGH, got %q", eval.Recommendation.Confidence)
	}
	if eval.Metrics["technical_depth"].Rating != 4.5 {
		t.Fatalf("unexpected metric: %+v", eval.Metrics["technical_depth"])
	}

	if !gen.lastReq.JSONMode {
		t.Fatal("expected JSON mode to be requested")
	}
	if !strings.Contains(gen.lastReq.User, "Go services at scale") {
		t.Fatal("expected job description in prompt")
	}
	if !strings.Contains(gen.lastReq.User, "octocat") {
		t.Fatal("expected candidate data in prompt")
	}
}

func TestEvaluateDerivesScoreFromRating(t *testing.T) {
	gen := &stubGenerator{response: `{
		"overall_rating": 4.0,
		"recommendation": {"decision": "CONSIDER", "confidence": "MEDIUM"}
	}`}
	e := NewEvaluator(gen, zap.NewNop(), 0)

	eval := e.Evaluate(context.Background(), developerRequest())
	if eval.OverallScore != 80 {
		t.Fatalf("expected derived score 80, got %d", eval.OverallScore)
	}
}

func TestEvaluateClampsScore(t *testing.T) {
	gen := &stubGenerator{response: `{"overall_score": 7, "recommendation": {"decision": "REJECT"}}`}
	e := NewEvaluator(gen, zap.NewNop(), 0)

	eval := e.Evaluate(context.Background(), developerRequest())
	if eval.OverallScore != talent.MinScore {
		t.Fatalf("expected clamped score %d, got %d", talent.MinScore, eval.OverallScore)
	}
}

func TestEvaluateRecoversTruncatedResponse(t *testing.T) {
	gen := &stubGenerator{response: "```json\n{\"overall_score\": 72, \"strengths\": [\"fast learner"}
	e := NewEvaluator(gen, zap.NewNop(), 0)

	eval := e.Evaluate(context.Background(), developerRequest())
	if eval.Fallback {
		t.Fatal("expected recovery, got fallback")
	}
	if eval.OverallScore != 72 {
		t.Fatalf("expected score 72, got %d", eval.OverallScore)
	}
}

func TestEvaluateFallsBackOnGeneratorError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("quota exceeded")}
	e := NewEvaluator(gen, zap.NewNop(), 0)

	eval := e.Evaluate(context.Background(), developerRequest())
	if !eval.Fallback {
		t.Fatal("expected fallback evaluation")
	}
	if eval.OverallScore != 50 {
		t.Fatalf("expected fallback score 50, got %d", eval.OverallScore)
	}
	if eval.Recommendation.Decision != talent.DecisionConsider {
		t.Fatalf("expected CONSIDER, got %q", eval.Recommendation.Decision)
	}
	for _, name := range talent.DeveloperMetrics {
		if _, ok := eval.Metrics[name]; !ok {
			t.Fatalf("expected fallback metric %q", name)
		}
	}
}

func TestEvaluateFallsBackOnUnparseableResponse(t *testing.T) {
	gen := &stubGenerator{response: "I am sorry, I cannot evaluate this candidate."}
	e := NewEvaluator(gen, zap.NewNop(), 0)

	eval := e.Evaluate(context.Background(), developerRequest())
	if !eval.Fallback {
		t.Fatal("expected fallback evaluation")
	}
}

func TestEvaluateDesignerTrack(t *testing.T) {
	gen := &stubGenerator{err: errors.New("down")}
	e := NewEvaluator(gen, zap.NewNop(), 0)

	eval := e.Evaluate(context.Background(), &ai.Request{
		Candidate: &talent.Candidate{Username: "pixelsmith"},
		FocusArea: "fintech dashboards",
	})
	for _, name := range talent.DesignerMetrics {
		if _, ok := eval.Metrics[name]; !ok {
			t.Fatalf("expected designer fallback metric %q", name)
		}
	}
}
