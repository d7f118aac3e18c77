package talent

// Decision is the hiring recommendation produced by an evaluation.
type Decision string

const (
	DecisionHire     Decision = "HIRE"
	DecisionConsider Decision = "CONSIDER"
	DecisionReject   Decision = "REJECT"
)

// Confidence qualifies how much weight an evaluation carries.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

const (
	// MinScore and MaxScore bound Evaluation.OverallScore.
	MinScore = 20
	MaxScore = 100
)

// Evaluation is the structured scoring result for one candidate. A nil
// *Evaluation means scoring has not run yet; Fallback marks the deterministic
// substitute produced when scoring could not be completed.
type Evaluation struct {
	OverallRating       float64           `json:"overall_rating"`
	OverallScore        int               `json:"overall_score"`
	Metrics             map[string]Metric `json:"metrics,omitempty"`
	Strengths           []string          `json:"strengths,omitempty"`
	AreasForImprovement []string          `json:"areas_for_improvement,omitempty"`
	Recommendation      Recommendation    `json:"recommendation"`
	DetailedFeedback    map[string]string `json:"detailed_feedback,omitempty"`
	Fallback            bool              `json:"fallback,omitempty"`
}

// Metric is one named sub-score with its rationale.
type Metric struct {
	Rating    float64 `json:"rating"`
	Reasoning string  `json:"reasoning,omitempty"`
}

type Recommendation struct {
	Decision      Decision   `json:"decision"`
	Confidence    Confidence `json:"confidence"`
	Reasoning     string     `json:"reasoning,omitempty"`
	SuitableRoles []string   `json:"suitable_roles,omitempty"`
}

// DesignerMetrics and DeveloperMetrics are the fixed sub-metric sets each
// evaluation path is asked to produce.
var (
	DesignerMetrics = []string{
		"design_excellence",
		"ux_mastery",
		"industry_expertise",
		"technical_sophistication",
		"innovation_creativity",
		"specialization_alignment",
		"market_positioning",
	}
	DeveloperMetrics = []string{
		"technical_depth",
		"project_quality",
		"experience_relevance",
		"github_activity",
		"skill_match",
		"overall_fit",
	}
)

// FallbackEvaluation returns the deterministic low-confidence result used
// when scoring cannot be completed. Never nil once evaluation was attempted.
func FallbackEvaluation(metricNames []string) *Evaluation {
	metrics := make(map[string]Metric, len(metricNames))
	for _, name := range metricNames {
		metrics[name] = Metric{Rating: 2.5, Reasoning: "Could not fully evaluate"}
	}

	return &Evaluation{
		OverallRating:       2.5,
		OverallScore:        50,
		Metrics:             metrics,
		Strengths:           []string{"Manual review required"},
		AreasForImprovement: []string{"Pending full evaluation"},
		Recommendation: Recommendation{
			Decision:   DecisionConsider,
			Confidence: ConfidenceLow,
			Reasoning:  "Automated analysis incomplete; manual review needed.",
		},
		Fallback: true,
	}
}

// ClampScore forces a score into the [MinScore, MaxScore] band.
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
