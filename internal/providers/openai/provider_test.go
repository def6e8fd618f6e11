package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mwiater/nutrieval/internal/appconfig"
	"github.com/mwiater/nutrieval/internal/providers"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"diabetes\":\"poor\"}"}}],
  "usage": {"prompt_tokens": 50, "completion_tokens": 8, "total_tokens": 58}
}`

func TestProviderComplete(t *testing.T) {
	var captured map[string]any
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer server.Close()

	provider := New(&appconfig.Config{TimeoutSeconds: 5})
	completion, err := provider.Complete(context.Background(), providers.CompletionRequest{
		Host:         appconfig.Host{Name: "openai", Type: appconfig.HostTypeOpenAI, URL: server.URL + "/v1", APIKey: "sk-test"},
		Model:        "gpt-4o-mini",
		SystemPrompt: "You are a nutrition expert.",
		Prompt:       "Grade this food.",
		JSONMode:     true,
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if completion.Content != `{"diabetes":"poor"}` {
		t.Fatalf("unexpected content %q", completion.Content)
	}
	if completion.PromptTokens != 50 || completion.CompletionTokens != 8 {
		t.Fatalf("unexpected usage %+v", completion)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if captured["model"] != "gpt-4o-mini" {
		t.Fatalf("unexpected model %v", captured["model"])
	}
	if captured["temperature"] != appconfig.DefaultTemperature {
		t.Fatalf("expected default temperature, got %v", captured["temperature"])
	}
	if captured["max_tokens"] != float64(appconfig.DefaultMaxTokens) {
		t.Fatalf("expected default max_tokens, got %v", captured["max_tokens"])
	}
	if _, ok := captured["response_format"]; !ok {
		t.Fatalf("expected response_format")
	}
}

func TestProviderCompleteMapsAPIErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, providers.ErrAuth},
		{http.StatusTooManyRequests, providers.ErrRateLimited},
		{http.StatusNotFound, providers.ErrModelNotFound},
	}
	for _, tc := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"error":{"message":"denied","type":"invalid_request_error"}}`))
		}))
		provider := New(&appconfig.Config{TimeoutSeconds: 5})
		_, err := provider.Complete(context.Background(), providers.CompletionRequest{
			Host:   appconfig.Host{Type: appconfig.HostTypeOpenAI, URL: server.URL, APIKey: "sk-test"},
			Model:  "gpt-4",
			Prompt: "p",
		})
		server.Close()
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

func TestProviderCompleteRequiresKey(t *testing.T) {
	t.Setenv(appconfig.OpenAIKeyEnv, "")
	provider := New(&appconfig.Config{TimeoutSeconds: 5})
	_, err := provider.Complete(context.Background(), providers.CompletionRequest{
		Host:   appconfig.Host{Type: appconfig.HostTypeOpenAI},
		Model:  "gpt-4",
		Prompt: "p",
	})
	if providers.Classify(err) != providers.FailureAuth {
		t.Fatalf("expected auth failure, got %v", err)
	}
}
