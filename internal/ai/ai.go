// Package ai defines the evaluation contract the pipeline depends on.
package ai

import (
	"context"

	"talentlens/internal/talent"
)

// Request carries everything an evaluator may use to score one candidate.
// Optional signals are nil when their fetch was skipped or failed.
type Request struct {
	Candidate *talent.Candidate
	Bucket    *talent.Bucket
	// FocusArea is the search keyword for designer evaluations.
	FocusArea string
}

// Evaluator scores a candidate. Implementations never fail: when scoring
// cannot be completed they return the deterministic fallback evaluation,
// so a batch always makes progress.
type Evaluator interface {
	Evaluate(ctx context.Context, req *Request) *talent.Evaluation
}
