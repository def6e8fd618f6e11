package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwiater/nutrieval/internal/appconfig"
)

func typeText(m *promptModel, text string) *promptModel {
	for _, r := range text {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(*promptModel)
	}
	return m
}

func TestPromptModelAcceptsInput(t *testing.T) {
	m := newPromptModel(Question{Title: "Model", Default: "gpt-4"})
	m = typeText(m, " gpt-4o ")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(*promptModel)
	if cmd == nil {
		t.Fatal("expected quit command after enter")
	}
	if !m.done || m.value != "gpt-4o" {
		t.Fatalf("expected trimmed value gpt-4o, got done=%v value=%q", m.done, m.value)
	}
}

func TestPromptModelUsesDefault(t *testing.T) {
	m := newPromptModel(Question{Title: "Model", Default: "gpt-4"})
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if got := next.(*promptModel).value; got != "gpt-4" {
		t.Fatalf("expected default, got %q", got)
	}
}

func TestPromptModelRequiresValue(t *testing.T) {
	m := newPromptModel(Question{Title: "Key", Secret: true})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(*promptModel)
	if cmd != nil || m.done {
		t.Fatal("empty answer without default should not finish")
	}
	if !strings.Contains(m.View(), "a value is required") {
		t.Fatalf("expected validation message in view:\n%s", m.View())
	}
}

func TestPromptModelMasksSecrets(t *testing.T) {
	m := typeText(newPromptModel(Question{Title: "Key", Secret: true}), "sk-secret")
	if strings.Contains(m.View(), "sk-secret") {
		t.Fatal("secret input should be masked")
	}
}

func TestPromptModelCancel(t *testing.T) {
	m := newPromptModel(Question{Title: "Key"})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil || !next.(*promptModel).cancelled {
		t.Fatal("esc should cancel")
	}
}

func TestTerminalAskerRejectsNonTerminal(t *testing.T) {
	asker := &TerminalAsker{In: strings.NewReader("gpt-4\n"), Out: &bytes.Buffer{}}
	_, err := asker.Ask(Question{Title: "Model"})
	if !errors.Is(err, ErrNotInteractive) {
		t.Fatalf("expected ErrNotInteractive, got %v", err)
	}
}

type scriptedAsker struct {
	answers []string
	asked   []Question
}

func (s *scriptedAsker) Ask(q Question) (string, error) {
	s.asked = append(s.asked, q)
	if len(s.answers) == 0 {
		return "", ErrCancelled
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

func TestFillMissing(t *testing.T) {
	t.Setenv(appconfig.OpenAIKeyEnv, "")
	cfg := &appconfig.Config{
		Hosts: []appconfig.Host{
			{Name: "cloud", Type: appconfig.HostTypeOpenAI},
			{Name: "local", Type: appconfig.HostTypeOpenAICompatible, URL: "http://localhost:8080", Models: []string{"qwen"}},
		},
	}
	asker := &scriptedAsker{answers: []string{"sk-test", "gpt-4"}}
	if err := FillMissing(cfg, asker); err != nil {
		t.Fatalf("FillMissing: %v", err)
	}
	if cfg.Hosts[0].APIKey != "sk-test" || cfg.Hosts[0].Models[0] != "gpt-4" {
		t.Fatalf("unexpected host: %+v", cfg.Hosts[0])
	}
	if len(asker.asked) != 2 || !asker.asked[0].Secret {
		t.Fatalf("expected a masked key question then a model question, got %+v", asker.asked)
	}
}

func TestFillMissingAddsDefaultHost(t *testing.T) {
	t.Setenv(appconfig.OpenAIKeyEnv, "sk-env")
	cfg := &appconfig.Config{}
	asker := &scriptedAsker{answers: []string{"gpt-4"}}
	if err := FillMissing(cfg, asker); err != nil {
		t.Fatalf("FillMissing: %v", err)
	}
	if len(cfg.Hosts) != 1 || cfg.Hosts[0].Type != appconfig.HostTypeOpenAI {
		t.Fatalf("expected a default openai host, got %+v", cfg.Hosts)
	}
	if len(asker.asked) != 1 {
		t.Fatalf("key from env should not be asked for")
	}
}

func TestFillMissingPropagatesErrors(t *testing.T) {
	t.Setenv(appconfig.OpenAIKeyEnv, "")
	cfg := &appconfig.Config{Hosts: []appconfig.Host{{Name: "cloud", Type: appconfig.HostTypeOpenAI, Models: []string{"gpt-4"}}}}
	err := FillMissing(cfg, &scriptedAsker{})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}
