package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var briefCmd = &cobra.Command{
	Use:   "brief",
	Short: "Manage product briefs",
}

var briefCreateCmd = &cobra.Command{
	Use:   "create [file]",
	Short: "Submit a product brief from a YAML file or stdin",
	Long: `Submit a product brief to the planforge server.

The brief is a YAML document; at minimum it must set product_name.

Examples:
  # Submit a brief file
  planctl brief create brief.yaml

  # Submit from stdin
  cat brief.yaml | planctl brief create -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBriefCreate,
}

var briefListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored briefs",
	RunE:  runBriefList,
}

var briefGetCmd = &cobra.Command{
	Use:   "get <brief-id>",
	Short: "Show one stored brief",
	Args:  cobra.ExactArgs(1),
	RunE:  runBriefGet,
}

func init() {
	briefCmd.AddCommand(briefCreateCmd)
	briefCmd.AddCommand(briefListCmd)
	briefCmd.AddCommand(briefGetCmd)
}

// CreateBriefResponse matches internal/httpapi/server.go.
type CreateBriefResponse struct {
	BriefID string `json:"brief_id"`
}

func runBriefCreate(cmd *cobra.Command, args []string) error {
	var content []byte
	var err error

	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
	}

	if len(content) == 0 {
		return fmt.Errorf("no brief content to submit")
	}

	// The server speaks JSON; briefs on disk are YAML.
	var doc map[string]any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("failed to parse brief YAML: %w", err)
	}

	body, err := doRequest(http.MethodPost, "/api/v1/briefs", doc, 30*time.Second)
	if err != nil {
		return err
	}

	var resp CreateBriefResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Brief created: %s\n", resp.BriefID)
	return nil
}

func runBriefList(cmd *cobra.Command, args []string) error {
	body, err := doRequest(http.MethodGet, "/api/v1/briefs", nil, 30*time.Second)
	if err != nil {
		return err
	}
	return printJSON(body)
}

func runBriefGet(cmd *cobra.Command, args []string) error {
	body, err := doRequest(http.MethodGet, "/api/v1/briefs/"+args[0], nil, 30*time.Second)
	if err != nil {
		return err
	}
	return printJSON(body)
}

// printJSON re-indents a JSON body for terminal output.
func printJSON(body []byte) error {
	var buf any
	if err := json.Unmarshal(body, &buf); err != nil {
		// Not JSON; print raw.
		fmt.Println(string(body))
		return nil
	}
	out, err := json.MarshalIndent(buf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
