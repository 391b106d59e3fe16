package main

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

var (
	planMarkdown     bool
	autoIterate      bool
	maxIterations    int
	qualityThreshold float64
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate and fetch marketing plans",
}

var planGenerateCmd = &cobra.Command{
	Use:   "generate <brief-id>",
	Short: "Generate a marketing plan for a stored brief",
	Long: `Run the full generation pipeline for a stored brief.

Generation can take several minutes when auto-iteration is enabled.
A second generate for the same brief while one is running is rejected.

Examples:
  # Generate with server defaults
  planctl plan generate 4f2c...

  # Iterate until the plan scores at least 8.0, render as markdown
  planctl plan generate 4f2c... --auto-iterate --quality-threshold 8.0 --markdown`,
	Args: cobra.ExactArgs(1),
	RunE: runPlanGenerate,
}

var planGetCmd = &cobra.Command{
	Use:   "get <brief-id>",
	Short: "Fetch the latest plan for a brief",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanGet,
}

func init() {
	planGenerateCmd.Flags().BoolVar(&planMarkdown, "markdown", false, "render the plan as markdown")
	planGenerateCmd.Flags().BoolVar(&autoIterate, "auto-iterate", false, "regenerate until the quality threshold is reached")
	planGenerateCmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "iteration cap (0 = server default)")
	planGenerateCmd.Flags().Float64Var(&qualityThreshold, "quality-threshold", 0, "target overall score (0 = server default)")
	planGetCmd.Flags().BoolVar(&planMarkdown, "markdown", false, "render the plan as markdown")
	planCmd.AddCommand(planGenerateCmd)
	planCmd.AddCommand(planGetCmd)
}

// GeneratePlanRequest matches internal/httpapi/server.go.
type GeneratePlanRequest struct {
	AutoIterate      *bool   `json:"auto_iterate,omitempty"`
	MaxIterations    int     `json:"max_iterations,omitempty"`
	QualityThreshold float64 `json:"quality_threshold,omitempty"`
}

func runPlanGenerate(cmd *cobra.Command, args []string) error {
	var req *GeneratePlanRequest
	if cmd.Flags().Changed("auto-iterate") || maxIterations > 0 || qualityThreshold > 0 {
		req = &GeneratePlanRequest{
			MaxIterations:    maxIterations,
			QualityThreshold: qualityThreshold,
		}
		if cmd.Flags().Changed("auto-iterate") {
			req.AutoIterate = &autoIterate
		}
	}

	path := "/api/v1/briefs/" + url.PathEscape(args[0]) + "/plan" + formatQuery()

	// Generation runs multiple model calls; give it a generous
	// client-side timeout.
	var body []byte
	var err error
	if req != nil {
		body, err = doRequest(http.MethodPost, path, req, 15*time.Minute)
	} else {
		body, err = doRequest(http.MethodPost, path, nil, 15*time.Minute)
	}
	if err != nil {
		return err
	}
	return printPlan(body)
}

func runPlanGet(cmd *cobra.Command, args []string) error {
	path := "/api/v1/briefs/" + url.PathEscape(args[0]) + "/plan" + formatQuery()
	body, err := doRequest(http.MethodGet, path, nil, 30*time.Second)
	if err != nil {
		return err
	}
	return printPlan(body)
}

func formatQuery() string {
	if planMarkdown {
		return "?format=markdown"
	}
	return ""
}

func printPlan(body []byte) error {
	if planMarkdown {
		fmt.Println(string(body))
		return nil
	}
	return printJSON(body)
}
