package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/planforge/internal/plan"
	"github.com/fyrsmithlabs/planforge/internal/stage"
)

// degradedPlaceholder is the body used when a section's source
// fragment is unusable. Sections are never omitted or left empty.
const degradedPlaceholder = "Content unavailable for this section; the generating stage did not return usable output."

// Aggregate merges the stage outputs accumulated in a completed
// generation context into the fixed twelve-section document. It is
// purely a merge: no generation happens here. The executive summary is
// synthesized last from the other sections' source material but
// ordered first.
func Aggregate(gctx *GenerationContext) *plan.MarketingPlan {
	sections := make([]plan.SectionDraft, 0, 12)
	for _, id := range plan.SectionOrder() {
		if id == plan.SectionExecutiveSummary {
			// Placeholder slot; filled below once the rest exist.
			sections = append(sections, plan.SectionDraft{ID: id})
			continue
		}
		sections = append(sections, buildSection(id, gctx))
	}
	sections[0] = executiveSummary(gctx)

	p := &plan.MarketingPlan{
		ID:             uuid.NewString(),
		BriefID:        gctx.Brief.BriefID,
		Sections:       sections,
		Scorecard:      gctx.Scorecard,
		IterationCount: gctx.Iteration,
		GeneratedAt:    time.Now().UTC(),
		Status:         plan.StatusCompleted,
	}
	if gctx.Scorecard == nil {
		p.Status = plan.StatusCompletedDegraded
	} else {
		score := gctx.Scorecard.OverallScore
		p.QualityScore = &score
	}
	return p
}

// buildSection maps one section id onto its source fragment(s).
func buildSection(id plan.SectionID, gctx *GenerationContext) plan.SectionDraft {
	draft := plan.SectionDraft{
		ID:    id,
		Title: plan.SectionTitle(id),
	}

	switch id {
	case plan.SectionMarketAnalysis:
		draft.SourceStage = string(stage.Research)
		draft.Content = renderFragment(gctx.Research["market_analysis"])
	case plan.SectionSWOT:
		draft.SourceStage = string(stage.Research)
		draft.Content = renderFragment(gctx.Research["swot_analysis"])
	case plan.SectionAudiencePosition:
		draft.SourceStage = string(stage.Research) + "+" + string(stage.Strategy)
		personas := renderFragment(gctx.Research["personas"])
		positioning := renderFragment(gctx.Strategy["positioning"])
		if personas != "" && positioning != "" {
			draft.Content = "### Buyer Personas\n\n" + personas + "\n\n### Positioning\n\n" + positioning
		}
	default:
		draft.SourceStage = string(stage.Strategy)
		draft.Content = renderFragment(gctx.Strategy[strategyKeyFor(id)])
	}

	if strings.TrimSpace(draft.Content) == "" {
		draft.Content = degradedPlaceholder
		draft.Degraded = true
	}
	return draft
}

// strategyKeyFor maps strategy-sourced sections to their payload keys.
func strategyKeyFor(id plan.SectionID) string {
	switch id {
	case plan.SectionMissionVisionValue:
		return "mission_vision_value"
	case plan.SectionGoalsKPIs:
		return "marketing_goals"
	case plan.SectionMarketingMix:
		return "marketing_mix"
	case plan.SectionActionPlan:
		return "action_plan"
	case plan.SectionBudget:
		return "budget"
	case plan.SectionMonitoring:
		return "monitoring"
	case plan.SectionRisks:
		return "risks"
	case plan.SectionLaunchStrategy:
		return "launch_strategy"
	}
	return string(id)
}

// executiveSummary assembles the opening section from the brief and
// the other sections' source material. It is a deterministic merge so
// the summary never contradicts the sections it fronts.
func executiveSummary(gctx *GenerationContext) plan.SectionDraft {
	b := gctx.Brief
	var lines []string

	overview := b.ProductName
	if b.Category != "" {
		overview += " (" + b.Category + ")"
	}
	if b.USP != "" {
		overview += " — " + b.USP
	}
	lines = append(lines, "**Product:** "+overview)

	if target := firstNonEmpty(b.TargetPrimary, textAt(gctx.Research, "market_analysis", "segments")); target != "" {
		lines = append(lines, "**Target Audience:** "+target)
	}
	if pos := textAt(gctx.Strategy, "positioning", "positioning_statement"); pos != "" {
		lines = append(lines, "**Strategic Approach:** "+pos)
	}
	if mission := textAt(gctx.Strategy, "mission_vision_value", "mission"); mission != "" {
		lines = append(lines, "**Mission:** "+mission)
	}
	if budget := textAt(gctx.Strategy, "budget", "total_budget"); budget != "" {
		lines = append(lines, "**Budget:** "+budget)
	}
	if goals := firstNonEmpty(b.SalesGoals, textAt(gctx.Strategy, "marketing_goals", "success_criteria")); goals != "" {
		lines = append(lines, "**Expected Outcomes:** "+goals)
	}

	return plan.SectionDraft{
		ID:          plan.SectionExecutiveSummary,
		Title:       plan.SectionTitle(plan.SectionExecutiveSummary),
		Content:     strings.Join(lines, "\n\n"),
		SourceStage: "aggregator",
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// textAt extracts a nested string (or flattened value) from an object
// fragment under payload[key].
func textAt(p stage.Payload, key, subkey string) string {
	raw, ok := p[key]
	if !ok {
		return ""
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	inner, ok := obj[subkey]
	if !ok {
		return ""
	}
	return flattenValue(inner)
}

// renderFragment converts an opaque JSON fragment into readable
// Markdown: objects become labeled entries, arrays become bullet
// lists, scalars render as-is. Object keys render in sorted order so
// output is stable for identical payloads.
func renderFragment(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return strings.TrimSpace(renderValue(v, 0))
}

func renderValue(v interface{}, depth int) string {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, k := range keys {
			label := headerFromKey(k)
			switch child := t[k].(type) {
			case map[string]interface{}, []interface{}:
				fmt.Fprintf(&b, "%s**%s:**\n%s\n", indent(depth), label, renderValue(child, depth+1))
			default:
				fmt.Fprintf(&b, "%s**%s:** %s\n", indent(depth), label, scalarString(child))
			}
		}
		return b.String()
	case []interface{}:
		var b strings.Builder
		for _, item := range t {
			switch child := item.(type) {
			case map[string]interface{}, []interface{}:
				fmt.Fprintf(&b, "%s-\n%s", indent(depth), renderValue(child, depth+1))
			default:
				fmt.Fprintf(&b, "%s- %s\n", indent(depth), scalarString(child))
			}
		}
		return b.String()
	default:
		return indent(depth) + scalarString(v) + "\n"
	}
}

// flattenValue renders any JSON value as a single line of text.
func flattenValue(raw json.RawMessage) string {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return strings.TrimSpace(string(raw))
	}
	switch t := v.(type) {
	case string:
		return t
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, scalarString(item))
		}
		return strings.Join(parts, "; ")
	default:
		return scalarString(v)
	}
}

func scalarString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	case nil:
		return ""
	default:
		out, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(out)
	}
}

func headerFromKey(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}
