package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/planforge/internal/pipeline"
	"github.com/fyrsmithlabs/planforge/internal/stage"
)

// SuggestField produces a short suggested value for one brief field,
// informed by the fields the user has already filled in. It is a
// single-stage call and shares the transient retry policy with the
// main pipeline.
func (s *Service) SuggestField(ctx context.Context, field string, fieldCtx map[string]string) (string, error) {
	if strings.TrimSpace(field) == "" {
		return "", fmt.Errorf("field name is required")
	}

	retry := pipeline.NewRetryPolicy(pipeline.RetryConfig{
		MaxRetries:   s.defaults.RetryCount,
		StageTimeout: s.defaults.StageTimeout,
	}, s.logger)

	payload, err := retry.Invoke(ctx, s.adapter, stage.Request{
		Stage:        stage.FieldSuggestion,
		Field:        field,
		FieldContext: fieldCtx,
	})
	if err != nil {
		return "", fmt.Errorf("field suggestion: %w", err)
	}

	suggestion := strings.TrimSpace(payload.Text("suggestion"))
	if suggestion == "" {
		return "", fmt.Errorf("field suggestion: empty response")
	}
	return suggestion, nil
}
