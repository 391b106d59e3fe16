package plan

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders the plan as a readable Markdown document:
// metadata header, the twelve sections in order, and an evaluation
// summary when a scorecard is present.
func RenderMarkdown(p *MarketingPlan, productName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Marketing Plan: %s\n\n", productName)
	fmt.Fprintf(&b, "**Generated:** %s  \n", p.GeneratedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "**Iterations:** %d  \n", p.IterationCount)
	if p.QualityScore != nil {
		fmt.Fprintf(&b, "**Quality Score:** %.1f/10  \n", *p.QualityScore)
	} else {
		b.WriteString("**Quality Score:** not evaluated  \n")
	}
	fmt.Fprintf(&b, "**Status:** %s\n\n---\n", p.Status)

	for i, s := range p.Sections {
		fmt.Fprintf(&b, "\n## %d. %s\n\n", i+1, s.Title)
		if s.Degraded {
			b.WriteString("> _This section was produced by a fallback path._\n\n")
		}
		b.WriteString(strings.TrimRight(s.Content, "\n"))
		b.WriteString("\n\n---\n")
	}

	if sc := p.Scorecard; sc != nil {
		b.WriteString("\n## Evaluation Summary\n\n")
		fmt.Fprintf(&b, "**Overall Score:** %.1f/10\n\n", sc.OverallScore)
		for _, c := range Criteria() {
			fmt.Fprintf(&b, "- %s: %.1f\n", capitalize(string(c)), sc.CriterionScores[c])
		}
		writeList(&b, "Strengths", sc.Strengths)
		writeList(&b, "Weaknesses", sc.Weaknesses)
		writeList(&b, "Recommendations", sc.Recommendations)
	}

	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n### %s\n\n", heading)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}
