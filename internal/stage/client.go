package stage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ChatClient is the transport boundary for generation calls. A single
// call sends one system/user prompt pair and returns the raw model
// text; all retry logic lives in the pipeline's retry policy, never
// here.
type ChatClient interface {
	Chat(ctx context.Context, system, user string, temperature float64) (string, error)
}

// ClientConfig configures the HTTP chat client. The provider choice is
// explicit configuration threaded in at construction; nothing is read
// from ambient process state at call time.
type ClientConfig struct {
	// Provider selects a base URL preset when BaseURL is unset.
	// Supported: "groq", "ollama".
	Provider string

	BaseURL string
	APIKey  string
	Model   string

	// Timeout bounds one stage invocation end to end.
	Timeout time.Duration

	// RequestsPerMinute and Burst bound the wall-clock call rate
	// shared by all concurrent runs.
	RequestsPerMinute float64
	Burst             int
}

const (
	defaultGroqBaseURL   = "https://api.groq.com/openai/v1"
	defaultOllamaBaseURL = "http://localhost:11434/v1"
	defaultModel         = "llama-3.3-70b-versatile"
	defaultTimeout       = 60 * time.Second
	defaultRPM           = 30
	defaultBurst         = 5
)

// HTTPChatClient talks to an OpenAI-compatible chat completions
// endpoint. Groq and Ollama both expose this shape.
type HTTPChatClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewHTTPChatClient creates a chat client from explicit configuration.
func NewHTTPChatClient(cfg ClientConfig) (*HTTPChatClient, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		switch cfg.Provider {
		case "groq", "":
			baseURL = defaultGroqBaseURL
		case "ollama":
			baseURL = defaultOllamaBaseURL
		default:
			return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
		}
	}
	if cfg.Provider != "ollama" && cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for provider %q", cfg.Provider)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRPM
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	return &HTTPChatClient{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rpm/60.0), burst),
	}, nil
}

// Chat performs a single chat completion call. Failures are classified
// into *TransientError (network faults, timeouts, 429, 5xx) and
// *PermanentError (auth, bad request) so the caller's retry policy can
// decide without inspecting transport details.
func (c *HTTPChatClient) Chat(ctx context.Context, system, user string, temperature float64) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", &TransientError{Reason: "rate limiter wait", Err: err}
	}

	req := chatRequest{
		Model:       c.model,
		Temperature: temperature,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", &PermanentError{Reason: "marshal request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &PermanentError{Reason: "create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", &TransientError{Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransientError{Reason: "read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, body)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", &TransientError{Reason: "parse response", Err: err}
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", &TransientError{Reason: "empty completion"}
	}

	return chatResp.Choices[0].Message.Content, nil
}

// classifyStatus maps an HTTP error status to the outcome taxonomy.
func classifyStatus(status int, body []byte) error {
	msg := string(body)
	var errResp chatError
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	switch {
	case status == http.StatusTooManyRequests:
		return &TransientError{Reason: fmt.Sprintf("rate limited (429): %s", msg)}
	case status >= 500:
		return &TransientError{Reason: fmt.Sprintf("server error (%d): %s", status, msg)}
	default:
		return &PermanentError{Reason: fmt.Sprintf("API error (%d): %s", status, msg)}
	}
}
