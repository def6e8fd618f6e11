// internal/providerfactory/factory.go
package providerfactory

import (
	"fmt"

	"github.com/mwiater/nutrieval/internal/appconfig"
	"github.com/mwiater/nutrieval/internal/logging"
	"github.com/mwiater/nutrieval/internal/providers"
	"github.com/mwiater/nutrieval/internal/providers/openai"
	"github.com/mwiater/nutrieval/internal/providers/openaicompat"
)

// NewChatProvider returns the provider serving host's type.
func NewChatProvider(cfg *appconfig.Config, host appconfig.Host) (providers.ChatProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}

	switch host.Type {
	case appconfig.HostTypeOpenAI:
		logging.LogEvent("Using OpenAI SDK provider for host %s", host.Identifier())
		return openai.New(cfg), nil
	case appconfig.HostTypeOpenAICompatible:
		logging.LogEvent("Using OpenAI-compatible HTTP provider for host %s", host.Identifier())
		return openaicompat.New(cfg), nil
	}
	return nil, fmt.Errorf("unsupported host type %q for host %s", host.Type, host.Identifier())
}
