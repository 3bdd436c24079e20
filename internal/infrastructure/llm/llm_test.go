package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ResearchAssistant/internal/config"
	"ResearchAssistant/internal/domain"
)

func TestGradientCompleteSendsChatRequest(t *testing.T) {
	t.Parallel()

	var got chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"significance_score\": 4}"}}]}`))
	}))
	t.Cleanup(srv.Close)

	client := NewGradientClient(config.GradientConfig{
		Endpoint:    srv.URL,
		APIKey:      "secret",
		Temperature: 0.3,
		MaxTokens:   1000,
		Timeout:     time.Second,
	})
	require.NoError(t, client.Ready("openai-gpt-oss-120b"))

	text, err := client.Complete(context.Background(), "openai-gpt-oss-120b", "analyze NVDA")
	require.NoError(t, err)
	assert.Equal(t, `{"significance_score": 4}`, text)

	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "openai-gpt-oss-120b", got.Model)
	assert.Equal(t, 1000, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, defaultSystemPrompt, got.Messages[0].Content)
	assert.Equal(t, "analyze NVDA", got.Messages[1].Content)
}

func TestGradientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/empty":
			_, _ = w.Write([]byte(`{"choices":[]}`))
		default:
			http.Error(w, "upstream down", http.StatusBadGateway)
		}
	}))
	t.Cleanup(srv.Close)

	missing := NewGradientClient(config.GradientConfig{Endpoint: srv.URL})
	assert.ErrorIs(t, missing.Ready("m"), domain.ErrMissingCredential)
	_, err := missing.Complete(context.Background(), "m", "p")
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
	assert.Zero(t, calls.Load(), "no request without a key")

	failing := NewGradientClient(config.GradientConfig{Endpoint: srv.URL + "/fail", APIKey: "k"})
	_, err = failing.Complete(context.Background(), "m", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	empty := NewGradientClient(config.GradientConfig{Endpoint: srv.URL + "/empty", APIKey: "k"})
	_, err = empty.Complete(context.Background(), "m", "p")
	assert.EqualError(t, err, "gradient returned no choices")
}

func TestAnthropicComplete(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Api-Key") != "sk-test" {
			http.Error(w, `{"type":"error","error":{"type":"authentication_error","message":"bad key"}}`, http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"content": [{"type": "text", "text": "{\"significance_score\": 8}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	t.Cleanup(srv.Close)

	client := NewAnthropicClient(config.AnthropicConfig{APIKey: "sk-test", BaseURL: srv.URL, MaxTokens: 512})
	require.NoError(t, client.Ready("claude-sonnet-4-5"))

	text, err := client.Complete(context.Background(), "claude-sonnet-4-5", "deep dive NVDA")
	require.NoError(t, err)
	assert.Equal(t, `{"significance_score": 8}`, text)
	assert.Equal(t, "claude-sonnet-4-5", body["model"])
	assert.EqualValues(t, 512, body["max_tokens"])
}

func TestAnthropicMissingKey(t *testing.T) {
	t.Parallel()

	client := NewAnthropicClient(config.AnthropicConfig{})
	assert.ErrorIs(t, client.Ready("claude-sonnet-4-5"), domain.ErrMissingCredential)
	_, err := client.Complete(context.Background(), "claude-sonnet-4-5", "p")
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}

type namedModel struct {
	name  string
	ready error
}

func (n namedModel) Ready(string) error { return n.ready }

func (n namedModel) Complete(_ context.Context, model, _ string) (string, error) {
	return n.name + ":" + model, nil
}

func TestRouterPicksProviderByModelName(t *testing.T) {
	t.Parallel()

	router := NewRouter(namedModel{name: "anthropic", ready: domain.ErrMissingCredential}, namedModel{name: "gradient"})
	ctx := context.Background()

	out, err := router.Complete(ctx, "claude-sonnet-4-5", "p")
	require.NoError(t, err)
	assert.Equal(t, "anthropic:claude-sonnet-4-5", out)

	out, err = router.Complete(ctx, "Claude-Haiku", "p")
	require.NoError(t, err)
	assert.Equal(t, "anthropic:Claude-Haiku", out)

	out, err = router.Complete(ctx, "openai-gpt-oss-120b", "p")
	require.NoError(t, err)
	assert.Equal(t, "gradient:openai-gpt-oss-120b", out)

	assert.ErrorIs(t, router.Ready("claude-opus"), domain.ErrMissingCredential)
	assert.NoError(t, router.Ready("llama3.3-70b-instruct"))
}
