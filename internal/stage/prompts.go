package stage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/planforge/internal/plan"
)

// Prompt construction for each stage. The user prompt always declares
// the exact JSON shape the schema validator expects, and the system
// prompt insists on valid JSON so parsing failures stay rare.

const jsonOnlyHint = "Always respond with a single valid JSON object and nothing else."

// conformHint is appended when the retry policy re-invokes a stage
// after a schema failure.
const conformHint = "\n\nIMPORTANT: Your previous response did not match the required JSON shape. " +
	"Respond with ONLY a JSON object containing exactly the keys listed above, " +
	"each with non-empty content. No markdown fences, no commentary."

func briefSummary(b plan.ProductBrief) string {
	var lines []string
	add := func(label, v string) {
		if v != "" {
			lines = append(lines, label+": "+v)
		}
	}
	add("Product Name", b.ProductName)
	add("Category", b.Category)
	add("Features", b.Features)
	add("Unique Selling Points", b.USP)
	add("Branding", b.Branding)
	add("Primary Target Audience", b.TargetPrimary)
	add("Secondary Target Audience", b.TargetSecondary)
	add("Demographics", b.Demographics)
	add("Psychographics", b.Psychographics)
	add("Customer Problems", b.CustomerProblem)
	add("Market Size", b.MarketSize)
	add("Competitors", b.Competitors)
	add("Price", b.Price)
	if len(b.MarketingChannels) > 0 {
		add("Marketing Channels", strings.Join(b.MarketingChannels, ", "))
	}
	if len(b.DistributionChannels) > 0 {
		add("Distribution Channels", strings.Join(b.DistributionChannels, ", "))
	}
	add("Marketing Budget", b.Budget)
	add("Tone of Voice", b.ToneOfVoice)
	add("Launch Date", b.LaunchDate)
	add("Sales Goals", b.SalesGoals)
	add("Success Metrics", b.SuccessMetrics)
	return strings.Join(lines, "\n")
}

func feedbackBlock(f *Feedback) string {
	if f == nil || (len(f.Weaknesses) == 0 && len(f.Recommendations) == 0) {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nA previous draft of this plan was evaluated. Address this feedback:\n")
	for _, w := range f.Weaknesses {
		b.WriteString("- Weakness: " + w + "\n")
	}
	for _, r := range f.Recommendations {
		b.WriteString("- Recommendation: " + r + "\n")
	}
	return b.String()
}

func researchPrompt(req Request) (system, user string, temperature float64) {
	system = "You are an expert market analyst. Provide detailed, data-driven insights. " + jsonOnlyHint

	user = fmt.Sprintf(`Conduct market research for this product:

%s

Provide:
1. market_analysis: market size, growth potential, maturity stage, key segments, trends, barriers to entry
2. personas: an array of 2-3 detailed buyer personas (name, age, job_title, goals, challenges, behaviors, buying_motivations, channels)
3. swot_analysis: strengths, weaknesses, opportunities, threats (4-6 items each)

Format the response as JSON with keys: market_analysis (object), personas (array), swot_analysis (object with arrays strengths, weaknesses, opportunities, threats)%s`,
		briefSummary(req.Brief), feedbackBlock(req.Feedback))
	if req.Conform {
		user += conformHint
	}
	return system, user, 0.6
}

func strategyPrompt(req Request) (system, user string, temperature float64) {
	system = "You are an expert marketing strategist. Provide actionable, specific strategy. " + jsonOnlyHint

	research := "No research available."
	if req.Research != nil {
		research = compactJSON(req.Research, 4000)
	}

	user = fmt.Sprintf(`Develop a complete marketing strategy for this product:

%s

MARKET RESEARCH:
%s

Provide the following, each specific and actionable:
- mission_vision_value: mission, vision, value_proposition, core_values
- positioning: positioning_statement, competitive_positioning, positioning_pillars
- marketing_goals: primary_goals (each with kpis), short_term_goals, long_term_goals, success_criteria
- marketing_mix: product, price, place, promotion, people, process, physical_evidence
- action_plan: pre_launch, launch, post_launch (arrays of concrete actions)
- budget: total_budget, budget_breakdown, phase_allocation, roi_projections
- monitoring: key_metrics, tracking_tools, reporting_schedule, review_milestones
- risks: array of identified risks each with mitigation
- launch_strategy: launch_approach, pre_launch, launch_phase, post_launch_phase, timeline

Format the response as JSON with exactly those nine top-level keys.%s`,
		briefSummary(req.Brief), research, feedbackBlock(req.Feedback))
	if req.Conform {
		user += conformHint
	}
	return system, user, 0.7
}

func evaluationPrompt(req Request) (system, user string, temperature float64) {
	system = "You are an expert marketing plan evaluator. Be critical but fair. " + jsonOnlyHint

	user = fmt.Sprintf(`Evaluate this marketing plan.

PRODUCT:
%s

RESEARCH:
%s

STRATEGY:
%s

Score each criterion from 0 to 10:
1. consistency: alignment between sections, coherent narrative, no contradictions
2. quality: depth of analysis, actionability, clarity
3. originality: creative differentiation, unique positioning
4. feasibility: realistic goals, achievable tactics, appropriate budget
5. completeness: all required sections present, comprehensive coverage
6. ethics: no misleading claims, respectful messaging, responsible practices

Format the response as JSON with keys:
- criterion_scores: object with the six criteria as numeric scores
- strengths: array of 3-5 specific strengths
- weaknesses: array of 3-5 specific weaknesses
- recommendations: array of 3-5 prioritized, actionable recommendations`,
		briefSummary(req.Brief), compactJSON(req.Research, 3000), compactJSON(req.Strategy, 4000))
	if req.Conform {
		user += conformHint
	}
	return system, user, 0.3
}

func suggestionPrompt(req Request) (system, user string, temperature float64) {
	system = "You are a helpful marketing assistant that provides concise, practical suggestions " +
		"for product marketing briefs. Keep responses brief and directly usable."

	keys := make([]string, 0, len(req.FieldContext))
	for k := range req.FieldContext {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var ctx []string
	for _, k := range keys {
		if v := req.FieldContext[k]; v != "" {
			ctx = append(ctx, k+": "+v)
		}
	}
	context := "No information provided yet."
	if len(ctx) > 0 {
		context = strings.Join(ctx, "\n")
	}

	user = fmt.Sprintf(`Based on the following product information, suggest a value for the field %q:

%s

Provide a clear, concise, and directly usable suggestion as plain text.`, req.Field, context)
	return system, user, 0.7
}
