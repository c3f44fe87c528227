package words

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatCompletion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-test",
		"choices": []any{
			map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
}

func TestOpenAIGenerate(t *testing.T) {
	var gotAuth, gotModel, gotPrompt string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model
		if len(req.Messages) > 0 {
			gotPrompt = req.Messages[0].Content
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletion(`{"words":[]}`))
	}))
	defer srv.Close()

	gen := NewOpenAI(OpenAIConfig{BaseURL: srv.URL + "/v1/", APIKey: "sk-test", Model: "gpt-test"})

	text, err := gen.Generate(context.Background(), "prompt text")
	require.NoError(t, err)
	assert.Equal(t, `{"words":[]}`, text)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-test", gotModel)
	assert.Equal(t, "prompt text", gotPrompt)
}

func TestOpenAIErrors(t *testing.T) {
	t.Run("Server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
		}))
		defer srv.Close()

		_, err := NewOpenAI(OpenAIConfig{BaseURL: srv.URL + "/v1/", APIKey: "bad"}).Generate(context.Background(), "p")
		assert.Error(t, err)
	})

	t.Run("Empty content", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(chatCompletion("  "))
		}))
		defer srv.Close()

		_, err := NewOpenAI(OpenAIConfig{BaseURL: srv.URL + "/v1/", APIKey: "k"}).Generate(context.Background(), "p")
		assert.Error(t, err)
	})
}
