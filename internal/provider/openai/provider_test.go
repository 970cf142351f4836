package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/annotator/internal/provider"
)

func TestStreamTextResponse(t *testing.T) {
	var body apiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "https://github.com/julianshen/annotator", r.Header.Get("HTTP-Referer"))

		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(`data: {"choices":[{"delta":{"role":"assistant"}}]}

data: {"choices":[{"delta":{"content":"Hello"}}]}

data: {"choices":[{"delta":{"content":" world"}}]}

data: {"choices":[],"usage":{"prompt_tokens":7,"completion_tokens":2}}

data: [DONE]

`))
	}))
	defer server.Close()

	p := New(server.URL, "test-key", map[string]string{"HTTP-Referer": "https://github.com/julianshen/annotator"})
	var _ provider.LLMProvider = p

	out, err := provider.Complete(context.Background(), p, provider.CompletionRequest{
		Model:     "gpt-4o",
		System:    "You write documentation.",
		Messages:  []provider.Message{provider.NewUserMessage("Hi")},
		MaxTokens: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", out.Text)
	assert.Equal(t, 7, out.InputTokens)
	assert.Equal(t, 2, out.OutputTokens)

	require.Len(t, body.Messages, 2)
	assert.Equal(t, apiMessage{Role: "system", Content: "You write documentation."}, body.Messages[0])
	assert.Equal(t, apiMessage{Role: "user", Content: "Hi"}, body.Messages[1])
	assert.True(t, body.Stream)
	require.NotNil(t, body.StreamOptions)
	assert.True(t, body.StreamOptions.IncludeUsage)
}

func TestStreamWithoutAPIKeyOmitsAuthorization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	out, err := provider.Complete(context.Background(), New(server.URL, "", nil), provider.CompletionRequest{Model: "llama3"})
	require.NoError(t, err)
	assert.Empty(t, out.Text)
}

func TestStreamAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	_, err := New(server.URL, "k", nil).Stream(context.Background(), provider.CompletionRequest{Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error 429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestStreamMalformedChunk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {not json}\n\ndata: [DONE]\n\n"))
	}))
	defer server.Close()

	_, err := provider.Complete(context.Background(), New(server.URL, "k", nil), provider.CompletionRequest{Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing chunk")
}
