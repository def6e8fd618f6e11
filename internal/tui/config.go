package tui

import (
	"fmt"

	"github.com/mwiater/nutrieval/internal/appconfig"
)

// FillMissing asks for the API key of every openai host that cannot resolve
// one, and for a model name on every host that lists none. Answers are
// written into cfg. A configuration without hosts gets a single openai host.
func FillMissing(cfg *appconfig.Config, asker Asker) error {
	if len(cfg.Hosts) == 0 {
		cfg.Hosts = []appconfig.Host{{Name: appconfig.HostTypeOpenAI, Type: appconfig.HostTypeOpenAI}}
	}
	for i := range cfg.Hosts {
		host := &cfg.Hosts[i]
		if host.Type == appconfig.HostTypeOpenAI && host.ResolveAPIKey() == "" {
			key, err := asker.Ask(Question{
				Title:       fmt.Sprintf("OpenAI API key for %s", host.Identifier()),
				Placeholder: "sk-...",
				Secret:      true,
			})
			if err != nil {
				return fmt.Errorf("api key for host %s: %w", host.Identifier(), err)
			}
			host.APIKey = key
		}
		if len(host.Models) == 0 {
			model, err := asker.Ask(Question{
				Title:       fmt.Sprintf("Model to evaluate on %s", host.Identifier()),
				Placeholder: appconfig.DefaultModel,
				Default:     appconfig.DefaultModel,
			})
			if err != nil {
				return fmt.Errorf("model for host %s: %w", host.Identifier(), err)
			}
			host.Models = []string{model}
		}
	}
	return nil
}
