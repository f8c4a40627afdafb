package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/convodoc/internal/domain/ai"
)

func newTestClient(t *testing.T, provider ai.Provider, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		Provider: provider,
		APIKey:   "test-key",
		BaseURL:  srv.URL + "/v1",
		Timeout:  2 * time.Second,
	})
}

func TestComplete_Success(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, ai.ProviderOpenAI, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-4o-mini-2024","choices":[{"index":0,"message":{"role":"assistant","content":"{\"sections\":[]}"},"finish_reason":"stop"}]}`))
	})

	content, model, err := c.Complete(context.Background(), "sys", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"sections":[]}`, content)
	assert.Equal(t, "gpt-4o-mini-2024", model)
	assert.Equal(t, DefaultOpenAIModel, got["model"])
	assert.NotNil(t, got["response_format"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestComplete_AnthropicSkipsResponseFormat(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, ai.ProviderAnthropic, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"c2","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{}"}}]}`))
	})

	_, model, err := c.Complete(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	assert.Equal(t, DefaultAnthropicModel, model)
	assert.Nil(t, got["response_format"])
	assert.Equal(t, ai.ProviderAnthropic, c.Provider())
}

func TestComplete_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"invalid_request_error"}}`, ai.ErrAuthenticationFailed},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"bad model","type":"invalid_request_error"}}`, ai.ErrInvalidRequest},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit"}}`, ai.ErrQuotaExceeded},
		{"server error without json", http.StatusBadGateway, `upstream down`, ai.ErrProviderUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, ai.ProviderOpenAI, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, _, err := c.Complete(context.Background(), "sys", "prompt")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	c := newTestClient(t, ai.ProviderOpenAI, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"c3","object":"chat.completion","choices":[]}`))
	})
	_, _, err := c.Complete(context.Background(), "sys", "prompt")
	assert.ErrorIs(t, err, ai.ErrMalformedResponse)
}

func TestComplete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	c := NewClient(Options{APIKey: "k", BaseURL: srv.URL + "/v1", Timeout: 50 * time.Millisecond})

	_, _, err := c.Complete(context.Background(), "sys", "prompt")
	assert.ErrorIs(t, err, ai.ErrProviderUnavailable)
}

func TestIsReasoningModel(t *testing.T) {
	assert.True(t, isReasoningModel("o3-2025-04-16"))
	assert.True(t, isReasoningModel("gpt-5-mini"))
	assert.False(t, isReasoningModel("gpt-4o-mini"))
}
