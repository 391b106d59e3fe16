package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockAdapter is a scripted Adapter for tests. Each stage has a queue
// of outcomes consumed in order; when a queue runs dry the last outcome
// repeats. All invocations are recorded for assertions.
type MockAdapter struct {
	mu       sync.Mutex
	outcomes map[Stage][]mockOutcome
	Calls    []Request
}

type mockOutcome struct {
	payload Payload
	err     error
}

// NewMockAdapter creates an empty scripted adapter.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{outcomes: make(map[Stage][]mockOutcome)}
}

// Succeed queues a successful outcome for the stage.
func (m *MockAdapter) Succeed(s Stage, payload Payload) *MockAdapter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[s] = append(m.outcomes[s], mockOutcome{payload: payload})
	return m
}

// Fail queues a failing outcome for the stage.
func (m *MockAdapter) Fail(s Stage, err error) *MockAdapter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[s] = append(m.outcomes[s], mockOutcome{err: err})
	return m
}

// Invoke pops the next scripted outcome for the requested stage.
func (m *MockAdapter) Invoke(ctx context.Context, req Request) (Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)

	queue := m.outcomes[req.Stage]
	if len(queue) == 0 {
		return nil, &PermanentError{Reason: fmt.Sprintf("no scripted outcome for stage %s", req.Stage)}
	}
	next := queue[0]
	if len(queue) > 1 {
		m.outcomes[req.Stage] = queue[1:]
	}
	if next.err != nil {
		return nil, next.err
	}
	return next.payload, nil
}

// StageCalls returns the recorded requests for one stage.
func (m *MockAdapter) StageCalls(s Stage) []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Request
	for _, c := range m.Calls {
		if c.Stage == s {
			out = append(out, c)
		}
	}
	return out
}

// ValidPayload builds a minimal schema-complete payload for a stage,
// useful as a test fixture.
func ValidPayload(s Stage) Payload {
	p := make(Payload)
	for _, key := range RequiredKeys(s) {
		p[key] = json.RawMessage(fmt.Sprintf(`{"summary":"generated %s content"}`, key))
	}
	if s == Evaluation {
		p["criterion_scores"] = json.RawMessage(
			`{"consistency":7,"quality":7,"originality":7,"feasibility":7,"completeness":7,"ethics":7}`)
		p["strengths"] = json.RawMessage(`["clear positioning"]`)
		p["weaknesses"] = json.RawMessage(`["budget detail is thin"]`)
		p["recommendations"] = json.RawMessage(`["break down the budget by channel"]`)
	}
	return p
}
