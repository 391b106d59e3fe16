package stage

import "encoding/json"

// Required top-level keys per stage. The validator checks structural
// completeness only; content quality is the evaluator's job.
var requiredKeys = map[Stage][]string{
	Research: {"market_analysis", "personas", "swot_analysis"},
	Strategy: {
		"mission_vision_value",
		"positioning",
		"marketing_goals",
		"marketing_mix",
		"action_plan",
		"budget",
		"monitoring",
		"risks",
		"launch_strategy",
	},
	Evaluation:      {"criterion_scores", "strengths", "weaknesses", "recommendations"},
	FieldSuggestion: {"suggestion"},
}

// RequiredKeys returns the declared top-level keys for a stage.
func RequiredKeys(s Stage) []string {
	return requiredKeys[s]
}

// ValidatePayload checks that every required key for the stage is
// present and non-empty. It returns a *SchemaError listing the missing
// keys, or nil when the shape is complete.
func ValidatePayload(s Stage, p Payload) error {
	var missing []string
	for _, key := range requiredKeys[s] {
		raw, ok := p[key]
		if !ok || emptyJSON(raw) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Stage: s, Missing: missing}
	}
	return nil
}

// emptyJSON reports whether a fragment carries no usable content:
// null, an empty string, or an empty object or array.
func emptyJSON(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", `""`, "{}", "[]":
		return true
	}
	return false
}
