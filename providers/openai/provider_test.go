package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/opscrew/llm"
	"github.com/BaSui01/opscrew/types"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestCompletion(t *testing.T) {
	var capturedAuth string
	var capturedReferer string
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		capturedAuth = r.Header.Get("Authorization")
		capturedReferer = r.Header.Get("HTTP-Referer")

		var req wireRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "openai/gpt-4.1-nano", req.Model)
		assert.Equal(t, "/chat/completions", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(wireResponse{
			ID:    "cmpl-1",
			Model: req.Model,
			Choices: []wireChoice{{
				Message:      wireMessage{Role: "assistant", Content: "all systems nominal"},
				FinishReason: "stop",
			}},
			Usage: llm.Usage{TotalTokens: 12},
		})
	})

	p := NewProvider(Config{
		APIKey:       "test-key",
		BaseURL:      server.URL,
		Model:        "openai/gpt-4.1-nano",
		ExtraHeaders: map[string]string{"HTTP-Referer": "https://example.com"},
	}, zap.NewNop())

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "status?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "all systems nominal", resp.Choices[0].Message.Content)
	assert.Equal(t, "Bearer test-key", capturedAuth)
	assert.Equal(t, "https://example.com", capturedReferer)
}

func TestCompletion_MissingAPIKey(t *testing.T) {
	p := NewProvider(Config{}, nil)
	_, err := p.Completion(context.Background(), &llm.ChatRequest{})
	require.Error(t, err)
	assert.Equal(t, types.ErrAuthentication, types.GetErrorCode(err))
}

func TestCompletion_APIError(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		wantCode  types.ErrorCode
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, types.ErrRateLimited, true},
		{"unauthorized", http.StatusUnauthorized, types.ErrAuthentication, false},
		{"bad request", http.StatusBadRequest, types.ErrInvalidRequest, false},
		{"server error", http.StatusInternalServerError, types.ErrUpstreamError, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"message": "boom", "type": "test"},
				})
			})

			p := NewProvider(Config{APIKey: "k", BaseURL: server.URL}, nil)
			_, err := p.Completion(context.Background(), &llm.ChatRequest{
				Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
			})
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, types.GetErrorCode(err))
			assert.Equal(t, tc.retryable, types.IsRetryable(err))
		})
	}
}

func TestCompletion_EmptyChoices(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(wireResponse{ID: "cmpl-2"})
	})

	p := NewProvider(Config{APIKey: "k", BaseURL: server.URL}, nil)
	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrUpstreamError, types.GetErrorCode(err))
}
