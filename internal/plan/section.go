package plan

// SectionID identifies one of the twelve fixed plan sections.
type SectionID string

const (
	SectionExecutiveSummary   SectionID = "executive_summary"
	SectionMissionVisionValue SectionID = "mission_vision_value"
	SectionMarketAnalysis     SectionID = "situation_market_analysis"
	SectionSWOT               SectionID = "swot_analysis"
	SectionAudiencePosition   SectionID = "target_audience_positioning"
	SectionGoalsKPIs          SectionID = "marketing_goals_kpis"
	SectionMarketingMix       SectionID = "strategy_marketing_mix"
	SectionActionPlan         SectionID = "tactics_action_plan"
	SectionBudget             SectionID = "budget_resources"
	SectionMonitoring         SectionID = "monitoring_evaluation"
	SectionRisks              SectionID = "risks_mitigation"
	SectionLaunchStrategy     SectionID = "launch_strategy"
)

// SectionOrder lists the twelve sections in document order. The
// executive summary is synthesized last during aggregation but always
// rendered first.
func SectionOrder() []SectionID {
	return []SectionID{
		SectionExecutiveSummary,
		SectionMissionVisionValue,
		SectionMarketAnalysis,
		SectionSWOT,
		SectionAudiencePosition,
		SectionGoalsKPIs,
		SectionMarketingMix,
		SectionActionPlan,
		SectionBudget,
		SectionMonitoring,
		SectionRisks,
		SectionLaunchStrategy,
	}
}

// SectionTitle returns the display title for a section id.
func SectionTitle(id SectionID) string {
	switch id {
	case SectionExecutiveSummary:
		return "Executive Summary"
	case SectionMissionVisionValue:
		return "Mission, Vision, and Value Proposition"
	case SectionMarketAnalysis:
		return "Situation and Market Analysis"
	case SectionSWOT:
		return "SWOT Analysis"
	case SectionAudiencePosition:
		return "Target Audience and Positioning"
	case SectionGoalsKPIs:
		return "Marketing Goals and KPIs"
	case SectionMarketingMix:
		return "Strategy and Marketing Mix"
	case SectionActionPlan:
		return "Tactics and Action Plan"
	case SectionBudget:
		return "Budget and Resources"
	case SectionMonitoring:
		return "Monitoring and Evaluation"
	case SectionRisks:
		return "Risks and Mitigation"
	case SectionLaunchStrategy:
		return "Launch Strategy"
	}
	return string(id)
}

// SectionDraft is one named section of the plan document. Degraded
// marks content produced by a fallback path rather than a validated
// stage response; degraded content is a labeled placeholder, never
// empty.
type SectionDraft struct {
	ID          SectionID `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	SourceStage string    `json:"source_stage"`
	Degraded    bool      `json:"degraded"`
}
