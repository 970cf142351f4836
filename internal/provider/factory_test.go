package provider_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julianshen/annotator/internal/config"
	"github.com/julianshen/annotator/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/julianshen/annotator/internal/provider/anthropic"
	_ "github.com/julianshen/annotator/internal/provider/openai"
)

func TestNewProviderKeyResolution(t *testing.T) {
	tests := []struct {
		name    string
		def     string
		env     map[string]string
		entries []config.OpenAICompatibleConfig
		wantErr string
	}{
		{
			name: "anthropic from env",
			def:  "anthropic",
			env:  map[string]string{"ANTHROPIC_API_KEY": "sk-ant"},
		},
		{
			name:    "anthropic without key",
			def:     "anthropic",
			env:     map[string]string{"ANTHROPIC_API_KEY": ""},
			wantErr: "ANTHROPIC_API_KEY",
		},
		{
			name:    "hyphenated entry reads its own env var",
			def:     "local-llm",
			env:     map[string]string{"LOCAL_LLM_API_KEY": "unused"},
			entries: []config.OpenAICompatibleConfig{{Name: "local-llm", BaseURL: "http://localhost:11434/v1", APIKeySource: "env"}},
		},
		{
			name:    "compatible entry without key",
			def:     "openrouter",
			env:     map[string]string{"OPENROUTER_API_KEY": ""},
			entries: []config.OpenAICompatibleConfig{{Name: "openrouter", BaseURL: "https://openrouter.ai/api/v1", APIKeySource: "env"}},
			wantErr: "OPENROUTER_API_KEY",
		},
		{
			name:    "only the selected entry is used",
			def:     "openrouter",
			entries: []config.OpenAICompatibleConfig{{Name: "openai", APIKeySource: "config", APIKey: "sk"}},
			wantErr: `unknown provider: "openrouter"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg := config.DefaultConfig()
			cfg.Provider.Default = tt.def
			cfg.Provider.OpenAI = tt.entries

			p, err := provider.NewProvider(cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, p)
		})
	}
}

func TestNewProviderCompatibleEntryReachesServer(t *testing.T) {
	var (
		auth, referer string
		body          map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		referer = r.Header.Get("HTTP-Referer")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"{\\\"proposals\\\": []}\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[],\"usage\":{\"prompt_tokens\":12,\"completion_tokens\":4}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	t.Setenv("DOCS_LLM_API_KEY", "")
	cfg := config.DefaultConfig()
	cfg.Provider.Default = "docs-llm"
	cfg.Provider.OpenAI = []config.OpenAICompatibleConfig{{
		Name:         "docs-llm",
		BaseURL:      server.URL + "/v1",
		APIKeySource: "config",
		APIKey:       "sk-docs",
		ExtraHeaders: map[string]string{"HTTP-Referer": "https://github.com/julianshen/annotator"},
	}}

	p, err := provider.NewProvider(cfg)
	require.NoError(t, err)

	temp := 0.2
	got, err := provider.Complete(context.Background(), p, provider.CompletionRequest{
		Model:       "local-model",
		System:      "Write docstrings.",
		Messages:    []provider.Message{provider.NewUserMessage("def f(): pass")},
		MaxTokens:   256,
		Temperature: &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"proposals": []}`, got.Text)
	assert.Equal(t, 12, got.InputTokens)
	assert.Equal(t, 4, got.OutputTokens)

	assert.Equal(t, "Bearer sk-docs", auth)
	assert.Equal(t, "https://github.com/julianshen/annotator", referer)
	assert.Equal(t, "local-model", body["model"])
	assert.Equal(t, 0.2, body["temperature"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
}
