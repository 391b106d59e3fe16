package plan

import (
	"fmt"
	"time"
)

// Status reports how a plan run terminated. A degraded plan is
// schema-complete but missing its evaluation scorecard.
type Status string

const (
	StatusCompleted         Status = "completed"
	StatusCompletedDegraded Status = "completed_degraded"
)

// MarketingPlan is the assembled twelve-section document plus run
// metadata. The caller always receives a schema-complete plan or a run
// failure, never a half-populated document.
type MarketingPlan struct {
	ID      string `json:"id"`
	BriefID string `json:"brief_id"`

	Sections []SectionDraft `json:"sections"`

	Scorecard      *EvaluationScorecard `json:"evaluation,omitempty"`
	QualityScore   *float64             `json:"quality_score"`
	IterationCount int                  `json:"iteration_count"`
	GeneratedAt    time.Time            `json:"generated_at"`
	Status         Status               `json:"status"`
}

// Section returns the draft with the given id, or nil.
func (p *MarketingPlan) Section(id SectionID) *SectionDraft {
	for i := range p.Sections {
		if p.Sections[i].ID == id {
			return &p.Sections[i]
		}
	}
	return nil
}

// Validate enforces the document invariants: exactly twelve sections in
// declared order, each non-empty, iteration count at least one, and a
// quality score consistent with scorecard presence.
func (p *MarketingPlan) Validate() error {
	order := SectionOrder()
	if len(p.Sections) != len(order) {
		return fmt.Errorf("plan has %d sections, want %d", len(p.Sections), len(order))
	}
	for i, id := range order {
		s := p.Sections[i]
		if s.ID != id {
			return fmt.Errorf("section %d is %q, want %q", i, s.ID, id)
		}
		if s.Content == "" {
			return fmt.Errorf("section %q has empty content", s.ID)
		}
	}
	if p.IterationCount < 1 {
		return fmt.Errorf("iteration count %d, want >= 1", p.IterationCount)
	}
	if p.Scorecard == nil {
		if p.QualityScore != nil {
			return fmt.Errorf("quality score set without scorecard")
		}
		if p.Status != StatusCompletedDegraded {
			return fmt.Errorf("status %q without scorecard, want %q", p.Status, StatusCompletedDegraded)
		}
		return nil
	}
	if err := p.Scorecard.Validate(); err != nil {
		return fmt.Errorf("scorecard: %w", err)
	}
	if p.QualityScore == nil || *p.QualityScore != p.Scorecard.OverallScore {
		return fmt.Errorf("quality score does not match scorecard overall score")
	}
	return nil
}

// IterationRecord is an append-only observability entry for one
// iteration attempt. Later runs never consult it for correctness.
type IterationRecord struct {
	Iteration           int         `json:"iteration"`
	QualityScore        *float64    `json:"quality_score"`
	RegeneratedSections []SectionID `json:"regenerated_sections"`
	StartedAt           time.Time   `json:"started_at"`
	FinishedAt          time.Time   `json:"finished_at"`
}
