// Package openai provides a ChatProvider backed by the official OpenAI SDK.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/nutrieval/internal/appconfig"
	"github.com/mwiater/nutrieval/internal/logging"
	"github.com/mwiater/nutrieval/internal/providers"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

const backendName = "openai"

// Provider implements providers.ChatProvider with openai-go.
type Provider struct {
	httpClient *http.Client
	timeout    time.Duration
}

// New constructs a Provider configured with the application's request timeout.
func New(cfg *appconfig.Config) *Provider {
	timeout := cfg.RequestTimeout()
	return &Provider{
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

func (p *Provider) client(host appconfig.Host) (openai.Client, error) {
	key := host.ResolveAPIKey()
	if key == "" {
		return openai.Client{}, fmt.Errorf("%s: %w: no API key for host %s", backendName, providers.ErrAuth, host.Identifier())
	}
	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithHTTPClient(p.httpClient),
		option.WithMaxRetries(0),
	}
	if url := strings.TrimSpace(host.URL); url != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(url, "/")+"/"))
	}
	return openai.NewClient(opts...), nil
}

// Complete issues a chat completion through the SDK.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (providers.Completion, error) {
	client, err := p.client(req.Host)
	if err != nil {
		return providers.Completion{}, err
	}

	params := buildParams(req)
	host := req.Host.Identifier()
	logging.LogRequest("NUTRIEVAL->LLM", host, req.Model, req.Tag, params)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return providers.Completion{}, mapError(err)
	}
	logging.LogRequest("LLM->NUTRIEVAL", host, req.Model, req.Tag, resp.RawJSON())

	if len(resp.Choices) == 0 {
		return providers.Completion{}, fmt.Errorf("%s: %w: no choices", backendName, providers.ErrEmptyResponse)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return providers.Completion{}, fmt.Errorf("%s: %w", backendName, providers.ErrEmptyResponse)
	}
	model := resp.Model
	if model == "" {
		model = req.Model
	}
	return providers.Completion{
		Content:          content,
		Model:            model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		Duration:         time.Since(start),
	}, nil
}

func buildParams(req providers.CompletionRequest) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	for _, msg := range req.Messages() {
		if msg.Role == "system" {
			messages = append(messages, openai.SystemMessage(msg.Content))
			continue
		}
		messages = append(messages, openai.UserMessage(msg.Content))
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    messages,
		Temperature: openai.Float(req.Parameters.TemperatureOrDefault()),
		MaxTokens:   openai.Int(int64(req.Parameters.MaxTokensOrDefault())),
	}
	if req.Parameters.TopP != nil {
		params.TopP = openai.Float(*req.Parameters.TopP)
	}
	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return params
}

func mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return providers.StatusError(backendName, apiErr.StatusCode, apiErr.Message)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", backendName, providers.ErrNetwork, err)
}

// Close releases idle connections.
func (p *Provider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
