// internal/providerfactory/factory_test.go
package providerfactory

import (
	"testing"

	"github.com/mwiater/nutrieval/internal/appconfig"
	"github.com/mwiater/nutrieval/internal/providers/openai"
	"github.com/mwiater/nutrieval/internal/providers/openaicompat"
)

func TestNewChatProviderErrorsOnNilConfig(t *testing.T) {
	if _, err := NewChatProvider(nil, appconfig.Host{Type: appconfig.HostTypeOpenAI}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNewChatProviderSelectsByHostType(t *testing.T) {
	cfg := &appconfig.Config{}

	provider, err := NewChatProvider(cfg, appconfig.Host{Type: appconfig.HostTypeOpenAI})
	if err != nil {
		t.Fatalf("NewChatProvider returned error: %v", err)
	}
	if _, ok := provider.(*openai.Provider); !ok {
		t.Fatalf("expected openai.Provider, got %T", provider)
	}

	provider, err = NewChatProvider(cfg, appconfig.Host{Type: appconfig.HostTypeOpenAICompatible, URL: "http://localhost:8080"})
	if err != nil {
		t.Fatalf("NewChatProvider returned error: %v", err)
	}
	if _, ok := provider.(*openaicompat.Provider); !ok {
		t.Fatalf("expected openaicompat.Provider, got %T", provider)
	}
}

func TestNewChatProviderRejectsUnsupported(t *testing.T) {
	if _, err := NewChatProvider(&appconfig.Config{}, appconfig.Host{Type: "llama.cpp"}); err == nil {
		t.Fatal("expected error for unsupported host type")
	}
}
