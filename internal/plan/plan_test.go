package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completePlan() *MarketingPlan {
	var sections []SectionDraft
	for _, id := range SectionOrder() {
		sections = append(sections, SectionDraft{
			ID:      id,
			Title:   SectionTitle(id),
			Content: "content for " + string(id),
		})
	}
	sc := &EvaluationScorecard{CriterionScores: fullScores(8)}
	sc.ComputeOverall()
	score := sc.OverallScore
	return &MarketingPlan{
		ID:             "plan-1",
		BriefID:        "brief-1",
		Sections:       sections,
		Scorecard:      sc,
		QualityScore:   &score,
		IterationCount: 1,
		GeneratedAt:    time.Now().UTC(),
		Status:         StatusCompleted,
	}
}

func TestSectionOrder_TwelveSectionsExecutiveSummaryFirst(t *testing.T) {
	order := SectionOrder()
	require.Len(t, order, 12)
	assert.Equal(t, SectionExecutiveSummary, order[0])
}

func TestPlanValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*MarketingPlan)
		wantErr string
	}{
		{
			name:   "valid complete plan",
			mutate: func(p *MarketingPlan) {},
		},
		{
			name: "valid degraded plan",
			mutate: func(p *MarketingPlan) {
				p.Scorecard = nil
				p.QualityScore = nil
				p.Status = StatusCompletedDegraded
			},
		},
		{
			name: "missing section",
			mutate: func(p *MarketingPlan) {
				p.Sections = p.Sections[:11]
			},
			wantErr: "11 sections",
		},
		{
			name: "wrong order",
			mutate: func(p *MarketingPlan) {
				p.Sections[0], p.Sections[1] = p.Sections[1], p.Sections[0]
			},
			wantErr: "section 0",
		},
		{
			name: "empty section content",
			mutate: func(p *MarketingPlan) {
				p.Sections[3].Content = ""
			},
			wantErr: "empty content",
		},
		{
			name: "zero iteration count",
			mutate: func(p *MarketingPlan) {
				p.IterationCount = 0
			},
			wantErr: "iteration count",
		},
		{
			name: "quality score without scorecard",
			mutate: func(p *MarketingPlan) {
				p.Scorecard = nil
				p.Status = StatusCompletedDegraded
			},
			wantErr: "quality score set without scorecard",
		},
		{
			name: "no scorecard but status completed",
			mutate: func(p *MarketingPlan) {
				p.Scorecard = nil
				p.QualityScore = nil
			},
			wantErr: "without scorecard",
		},
		{
			name: "quality score diverges from scorecard",
			mutate: func(p *MarketingPlan) {
				v := 1.0
				p.QualityScore = &v
			},
			wantErr: "does not match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := completePlan()
			tt.mutate(p)

			err := p.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPlanSection(t *testing.T) {
	p := completePlan()

	s := p.Section(SectionSWOT)
	require.NotNil(t, s)
	assert.Equal(t, SectionSWOT, s.ID)

	assert.Nil(t, p.Section(SectionID("nonexistent")))
}
