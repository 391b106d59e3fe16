// Package main implements the planctl CLI for manual operations
// against the planforge HTTP server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the planforge HTTP server
	serverURL string
	// apiKey is sent in the X-API-Key header when set
	apiKey string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "planctl",
	Short: "CLI for planforge HTTP server operations",
	Long: `planctl is a command-line interface for interacting with the planforge server.
It provides commands for submitting product briefs, generating marketing plans,
and requesting field suggestions.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8086", "planforge server URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for the planforge server")
	rootCmd.AddCommand(briefCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(healthCmd)
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check planforge server health",
	Long: `Check the health status of the planforge HTTP server.

Examples:
  # Check health
  planctl health

  # Check health on a different server
  planctl health --server http://localhost:8080`,
	RunE: runHealth,
}

// HealthResponse matches internal/httpapi/server.go HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

func runHealth(cmd *cobra.Command, args []string) error {
	body, err := doRequest(http.MethodGet, "/health", nil, 5*time.Second)
	if err != nil {
		return err
	}

	var healthResp HealthResponse
	if err := json.Unmarshal(body, &healthResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Server Status: %s\n", healthResp.Status)
	fmt.Printf("Server URL: %s\n", serverURL)
	return nil
}

// doRequest performs one HTTP round trip against the server and
// returns the response body. Non-2xx statuses become errors carrying
// the response body.
func doRequest(method, path string, reqBody any, timeout time.Duration) ([]byte, error) {
	var reader io.Reader
	if reqBody != nil {
		reqJSON, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(reqJSON)
	}

	url := serverURL + path
	httpReq, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		httpReq.Header.Set("X-API-Key", apiKey)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if readErr != nil {
			return nil, fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}
	if readErr != nil {
		return nil, fmt.Errorf("failed to read response body: %w", readErr)
	}
	return body, nil
}
