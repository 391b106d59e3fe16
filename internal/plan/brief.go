// Package plan defines the data model for marketing plan generation:
// the input brief, section drafts, evaluation scorecards, and the
// assembled twelve-section plan document.
package plan

import "fmt"

// ProductBrief is the immutable input driving a plan run. Only
// ProductName is required; everything else is optional steering input.
// The brief is created by the intake layer and never mutated by the
// generation core.
type ProductBrief struct {
	BriefID     string `json:"brief_id"`
	ProductName string `json:"product_name"`

	Category string `json:"product_category,omitempty"`
	Features string `json:"product_features,omitempty"`
	USP      string `json:"product_usp,omitempty"`
	Branding string `json:"product_branding,omitempty"`

	TargetPrimary   string `json:"target_primary,omitempty"`
	TargetSecondary string `json:"target_secondary,omitempty"`
	Demographics    string `json:"target_demographics,omitempty"`
	Psychographics  string `json:"target_psychographics,omitempty"`
	CustomerProblem string `json:"target_problems,omitempty"`

	MarketSize  string `json:"market_size,omitempty"`
	Competitors string `json:"competitors,omitempty"`
	Price       string `json:"suggested_price,omitempty"`

	MarketingChannels    []string `json:"marketing_channels,omitempty"`
	DistributionChannels []string `json:"distribution_channels,omitempty"`
	Budget               string   `json:"marketing_budget,omitempty"`
	ToneOfVoice          string   `json:"tone_of_voice,omitempty"`

	LaunchDate     string `json:"launch_date,omitempty"`
	SalesGoals     string `json:"sales_goals,omitempty"`
	SuccessMetrics string `json:"success_metrics,omitempty"`
}

// Validate checks the minimal brief contract.
func (b *ProductBrief) Validate() error {
	if b.ProductName == "" {
		return fmt.Errorf("product_name is required")
	}
	return nil
}
