package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docrouter/internal/llm"
)

func newTestClient(t *testing.T, respond func(w http.ResponseWriter, body generateRequest)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))
		var body generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		respond(w, body)
	}))
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "g-key", BaseURL: srv.URL, Model: "gemini-test"}, nil)
}

func TestComplete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, body generateRequest) {
		require.Len(t, body.Contents, 1)
		assert.Equal(t, "hello", body.Contents[0].Parts[0].Text)
		assert.Equal(t, 2000, body.GenerationConfig.MaxOutputTokens)
		assert.Equal(t, float32(0), body.GenerationConfig.Temperature)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Comp"},{"text":"laint"}]},"finishReason":"STOP"}]}`))
	})

	out, err := c.Complete(context.Background(), llm.CompletionRequest{Prompt: "hello", MaxOutputTokens: llm.MaxOutputTokens})
	require.NoError(t, err)
	assert.Equal(t, "Complaint", out)
}

func TestCompleteFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"prompt blocked", http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`, llm.ErrBlocked},
		{"safety finish", http.StatusOK, `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`, llm.ErrBlocked},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, llm.ErrNoCandidates},
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom"}}`, llm.ErrHTTPStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ generateRequest) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Complete(context.Background(), llm.CompletionRequest{Prompt: "x"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
