package plan

import (
	"fmt"
	"math"
)

// Criterion names one of the six evaluation dimensions.
type Criterion string

const (
	CriterionConsistency  Criterion = "consistency"
	CriterionQuality      Criterion = "quality"
	CriterionOriginality  Criterion = "originality"
	CriterionFeasibility  Criterion = "feasibility"
	CriterionCompleteness Criterion = "completeness"
	CriterionEthics       Criterion = "ethics"
)

// Criteria returns the six evaluation criteria in a stable order.
func Criteria() []Criterion {
	return []Criterion{
		CriterionConsistency,
		CriterionQuality,
		CriterionOriginality,
		CriterionFeasibility,
		CriterionCompleteness,
		CriterionEthics,
	}
}

// EvaluationScorecard holds the evaluator's assessment of one pipeline
// run. A plan may carry no scorecard at all when the evaluation stage
// failed non-fatally; absence is a valid terminal state.
type EvaluationScorecard struct {
	CriterionScores map[Criterion]float64 `json:"criterion_scores"`
	OverallScore    float64               `json:"overall_score"`
	Strengths       []string              `json:"strengths,omitempty"`
	Weaknesses      []string              `json:"weaknesses,omitempty"`
	Recommendations []string              `json:"recommendations,omitempty"`
}

// ComputeOverall recalculates OverallScore as the arithmetic mean of
// the six criterion scores, rounded to one decimal.
func (s *EvaluationScorecard) ComputeOverall() {
	if len(s.CriterionScores) == 0 {
		s.OverallScore = 0
		return
	}
	var sum float64
	for _, v := range s.CriterionScores {
		sum += v
	}
	s.OverallScore = math.Round(sum/float64(len(s.CriterionScores))*10) / 10
}

// Validate checks that all six criteria are present and every score
// lies in [0,10].
func (s *EvaluationScorecard) Validate() error {
	for _, c := range Criteria() {
		v, ok := s.CriterionScores[c]
		if !ok {
			return fmt.Errorf("missing criterion score: %s", c)
		}
		if v < 0 || v > 10 {
			return fmt.Errorf("criterion %s score %.1f out of range [0,10]", c, v)
		}
	}
	if s.OverallScore < 0 || s.OverallScore > 10 {
		return fmt.Errorf("overall score %.1f out of range [0,10]", s.OverallScore)
	}
	return nil
}
