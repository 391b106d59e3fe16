package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var suggestContext []string

var suggestCmd = &cobra.Command{
	Use:   "suggest <field>",
	Short: "Suggest a value for a brief field",
	Long: `Ask the model to suggest a value for one brief field, optionally
informed by fields you have already filled in.

Examples:
  # Suggest a unique selling proposition
  planctl suggest product_usp --context product_name="Solar Kettle" --context product_category="outdoor gear"`,
	Args: cobra.ExactArgs(1),
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().StringArrayVar(&suggestContext, "context", nil, "known field as key=value (repeatable)")
}

// SuggestRequest matches internal/httpapi/server.go.
type SuggestRequest struct {
	Field   string            `json:"field"`
	Context map[string]string `json:"context,omitempty"`
}

// SuggestResponse matches internal/httpapi/server.go.
type SuggestResponse struct {
	Field      string `json:"field"`
	Suggestion string `json:"suggestion"`
}

func runSuggest(cmd *cobra.Command, args []string) error {
	req := SuggestRequest{Field: args[0]}
	for _, kv := range suggestContext {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid --context value %q, expected key=value", kv)
		}
		if req.Context == nil {
			req.Context = make(map[string]string)
		}
		req.Context[key] = value
	}

	body, err := doRequest(http.MethodPost, "/api/v1/suggest", req, 2*time.Minute)
	if err != nil {
		return err
	}

	var resp SuggestResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Println(resp.Suggestion)
	return nil
}
