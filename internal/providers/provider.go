// internal/providers/provider.go

// Package providers defines the contract for completion endpoints. A provider
// takes one prompt for one model and returns the raw response text; it knows
// nothing about scoring.
package providers

import (
	"context"
	"time"

	"github.com/mwiater/nutrieval/internal/appconfig"
)

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string
	Content string
}

// CompletionRequest is one prompt sent to one model on one host.
type CompletionRequest struct {
	Host         appconfig.Host
	Model        string
	SystemPrompt string
	Prompt       string
	Parameters   appconfig.Parameters
	JSONMode     bool
	// Tag labels log lines, typically the prompt id.
	Tag string
}

// Messages returns the system and user messages for the request.
func (r CompletionRequest) Messages() []ChatMessage {
	var msgs []ChatMessage
	if r.SystemPrompt != "" {
		msgs = append(msgs, ChatMessage{Role: "system", Content: r.SystemPrompt})
	}
	return append(msgs, ChatMessage{Role: "user", Content: r.Prompt})
}

// Completion is the endpoint's answer plus usage accounting.
type Completion struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Duration         time.Duration
}

// ChatProvider is implemented by every completion backend.
type ChatProvider interface {
	// Complete sends the request and returns the raw response text.
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
	// Close cleans up any resources used by the provider.
	Close() error
}
