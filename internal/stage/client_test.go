package stage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*HTTPChatClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewHTTPChatClient(ClientConfig{
		Provider:          "groq",
		BaseURL:           srv.URL,
		APIKey:            "test-key",
		Model:             "test-model",
		RequestsPerMinute: 6000,
		Burst:             100,
	})
	require.NoError(t, err)
	return client, srv
}

func completionBody(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestHTTPChatClient_Success(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(completionBody(`{"ok":true}`)))
	})

	text, err := client.Chat(context.Background(), "system prompt", "user prompt", 0.7)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, text)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, 0.7, gotReq.Temperature)
}

func TestHTTPChatClient_StatusClassification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
		{"bad gateway", http.StatusBadGateway, true},
		{"unauthorized", http.StatusUnauthorized, false},
		{"bad request", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":{"message":"nope"}}`))
			})

			_, err := client.Chat(context.Background(), "s", "u", 0)
			require.Error(t, err)

			var transient *TransientError
			var permanent *PermanentError
			if tt.wantTransient {
				assert.ErrorAs(t, err, &transient)
			} else {
				assert.ErrorAs(t, err, &permanent)
				assert.Contains(t, err.Error(), "nope")
			}
		})
	}
}

func TestHTTPChatClient_EmptyCompletionIsTransient(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Chat(context.Background(), "s", "u", 0)
	var transient *TransientError
	require.ErrorAs(t, err, &transient)
}

func TestHTTPChatClient_NetworkErrorIsTransient(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := client.Chat(context.Background(), "s", "u", 0)
	var transient *TransientError
	require.ErrorAs(t, err, &transient)
}

func TestNewHTTPChatClient_RequiresAPIKeyForGroq(t *testing.T) {
	_, err := NewHTTPChatClient(ClientConfig{Provider: "groq"})
	require.Error(t, err)

	// Ollama runs locally without a key.
	_, err = NewHTTPChatClient(ClientConfig{Provider: "ollama"})
	require.NoError(t, err)
}

func TestNewHTTPChatClient_UnknownProvider(t *testing.T) {
	_, err := NewHTTPChatClient(ClientConfig{Provider: "watsonx"})
	require.Error(t, err)
}
