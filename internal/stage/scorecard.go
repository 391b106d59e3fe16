package stage

import (
	"encoding/json"
	"fmt"

	"github.com/fyrsmithlabs/planforge/internal/plan"
)

// ParseScorecard converts a validated evaluation payload into a
// scorecard. Models sometimes emit scores as bare numbers and
// sometimes as {"score": n, "justification": ...} objects; both are
// accepted. The overall score is always recomputed here rather than
// trusted from the model.
func ParseScorecard(p Payload) (*plan.EvaluationScorecard, error) {
	var rawScores map[string]json.RawMessage
	if err := json.Unmarshal(p["criterion_scores"], &rawScores); err != nil {
		return nil, &SchemaError{Stage: Evaluation, Reason: fmt.Sprintf("criterion_scores: %v", err)}
	}

	scores := make(map[plan.Criterion]float64, len(rawScores))
	var missing []string
	for _, c := range plan.Criteria() {
		raw, ok := rawScores[string(c)]
		if !ok {
			missing = append(missing, "criterion_scores."+string(c))
			continue
		}
		v, err := decodeScore(raw)
		if err != nil || v < 0 || v > 10 {
			missing = append(missing, "criterion_scores."+string(c))
			continue
		}
		scores[c] = v
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Stage: Evaluation, Missing: missing}
	}

	sc := &plan.EvaluationScorecard{
		CriterionScores: scores,
		Strengths:       decodeStrings(p["strengths"]),
		Weaknesses:      decodeStrings(p["weaknesses"]),
		Recommendations: decodeStrings(p["recommendations"]),
	}
	sc.ComputeOverall()
	return sc, nil
}

func decodeScore(raw json.RawMessage) (float64, error) {
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, nil
	}
	var obj struct {
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return 0, err
	}
	return obj.Score, nil
}

// decodeStrings tolerates arrays of strings and arrays of objects,
// flattening the latter to their JSON text.
func decodeStrings(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err == nil {
		return out
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	for _, it := range items {
		var s string
		if err := json.Unmarshal(it, &s); err == nil {
			out = append(out, s)
			continue
		}
		out = append(out, string(it))
	}
	return out
}
