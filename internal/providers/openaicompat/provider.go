// internal/providers/openaicompat/provider.go
// Package openaicompat provides a ChatProvider for servers exposing the
// OpenAI-compatible /v1/chat/completions endpoint (llama.cpp, vLLM, Ollama).
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/nutrieval/internal/appconfig"
	"github.com/mwiater/nutrieval/internal/logging"
	"github.com/mwiater/nutrieval/internal/providers"
)

const backendName = "openai-compatible"

// Provider implements providers.ChatProvider over plain HTTP.
type Provider struct {
	client  *http.Client
	timeout time.Duration
}

// New constructs a Provider configured with the application's request timeout.
func New(cfg *appconfig.Config) *Provider {
	timeout := cfg.RequestTimeout()
	return &Provider{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		timeout: timeout,
	}
}

// Complete issues a non-streaming chat completion.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (providers.Completion, error) {
	payload := map[string]any{
		"model":    req.Model,
		"messages": toOpenAIMessages(sanitizeMessages(req.Messages())),
		"stream":   false,
	}
	applyParameters(payload, req.Parameters)
	if req.JSONMode {
		payload["response_format"] = map[string]any{"type": "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return providers.Completion{}, err
	}
	host := req.Host.Identifier()
	logging.LogRequest("NUTRIEVAL->LLM", host, req.Model, req.Tag, body)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := strings.TrimRight(req.Host.URL, "/") + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return providers.Completion{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if key := req.Host.ResolveAPIKey(); key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+key)
	}

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return providers.Completion{}, fmt.Errorf("%s: %w: %v", backendName, providers.ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.Completion{}, fmt.Errorf("%s: %w: %v", backendName, providers.ErrNetwork, err)
	}
	logging.LogRequest("LLM->NUTRIEVAL", host, req.Model, req.Tag, raw)

	if resp.StatusCode != http.StatusOK {
		return providers.Completion{}, providers.StatusError(backendName, resp.StatusCode, string(raw))
	}
	return parseCompletion(raw, req.Model, time.Since(start))
}

func parseCompletion(body []byte, requestedModel string, elapsed time.Duration) (providers.Completion, error) {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return providers.Completion{}, fmt.Errorf("%s: decode response: %w", backendName, err)
	}
	if len(parsed.Choices) == 0 {
		return providers.Completion{}, fmt.Errorf("%s: %w: no choices", backendName, providers.ErrEmptyResponse)
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return providers.Completion{}, fmt.Errorf("%s: %w", backendName, providers.ErrEmptyResponse)
	}
	model := parsed.Model
	if model == "" {
		model = requestedModel
	}
	return providers.Completion{
		Content:          content,
		Model:            model,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
		Duration:         elapsed,
	}, nil
}

// Close releases any resources held by the provider.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func applyParameters(payload map[string]any, params appconfig.Parameters) {
	payload["temperature"] = params.TemperatureOrDefault()
	payload["max_tokens"] = params.MaxTokensOrDefault()
	if params.TopP != nil {
		payload["top_p"] = *params.TopP
	}
}

func sanitizeMessages(messages []providers.ChatMessage) []providers.ChatMessage {
	sanitized := make([]providers.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		role := strings.TrimSpace(msg.Role)
		content := strings.TrimSpace(msg.Content)
		if role == "" {
			role = "user"
		}
		if content == "" {
			continue
		}
		sanitized = append(sanitized, providers.ChatMessage{Role: role, Content: content})
	}
	return sanitized
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func toOpenAIMessages(messages []providers.ChatMessage) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, openAIMessage{Role: msg.Role, Content: msg.Content})
	}
	return out
}
