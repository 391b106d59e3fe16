package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// LLMAdapter implements Adapter on top of a ChatClient. It owns prompt
// construction and response parsing; it keeps no state beyond its
// dependencies, so invocations are idempotent and safe to retry.
type LLMAdapter struct {
	client ChatClient
	logger *zap.Logger
}

// NewLLMAdapter creates an adapter backed by the given chat client.
func NewLLMAdapter(client ChatClient, logger *zap.Logger) *LLMAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMAdapter{
		client: client,
		logger: logger.Named("stage"),
	}
}

// Invoke runs one stage call: build the prompt, call the model, parse
// the JSON payload. Structural validation is the caller's job; a
// response that is not JSON at all is reported as a *SchemaError so
// the retry policy can re-prompt once with a conform instruction.
func (a *LLMAdapter) Invoke(ctx context.Context, req Request) (Payload, error) {
	var system, user string
	var temperature float64
	switch req.Stage {
	case Research:
		system, user, temperature = researchPrompt(req)
	case Strategy:
		system, user, temperature = strategyPrompt(req)
	case Evaluation:
		system, user, temperature = evaluationPrompt(req)
	case FieldSuggestion:
		system, user, temperature = suggestionPrompt(req)
	default:
		return nil, &PermanentError{Reason: fmt.Sprintf("unknown stage %q", req.Stage)}
	}

	text, err := a.client.Chat(ctx, system, user, temperature)
	if err != nil {
		return nil, err
	}

	// Suggestions are free text, wrapped to keep the call shape uniform.
	if req.Stage == FieldSuggestion {
		suggestion := strings.TrimSpace(stripFences(text))
		if suggestion == "" {
			return nil, &SchemaError{Stage: req.Stage, Missing: []string{"suggestion"}}
		}
		raw, _ := json.Marshal(suggestion)
		return Payload{"suggestion": raw}, nil
	}

	payload, err := parsePayload(req.Stage, text)
	if err != nil {
		a.logger.Warn("stage returned unparseable payload",
			zap.String("stage", string(req.Stage)),
			zap.Int("response_length", len(text)),
			zap.Error(err),
		)
		return nil, err
	}
	return payload, nil
}

// parsePayload decodes model output into a payload, tolerating the
// markdown code fences models habitually wrap JSON in.
func parsePayload(s Stage, text string) (Payload, error) {
	cleaned := strings.TrimSpace(stripFences(text))

	var payload Payload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, &SchemaError{Stage: s, Reason: fmt.Sprintf("not a JSON object: %v", err)}
	}
	return payload, nil
}

// stripFences removes a surrounding ``` or ```json fence.
func stripFences(text string) string {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "```") {
		t = strings.TrimPrefix(t, "```json")
		t = strings.TrimPrefix(t, "```")
		t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	}
	return t
}

// compactJSON renders a payload as stable compact JSON for prompt
// embedding, truncated to limit bytes to stay inside context windows.
func compactJSON(p Payload, limit int) string {
	if len(p) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(fmt.Sprintf("%q:%s", k, p[k]))
	}
	b.WriteString("}")

	out := b.String()
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
