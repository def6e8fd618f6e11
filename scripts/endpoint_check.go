// scripts/endpoint_check.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mwiater/nutrieval/internal/appconfig"
	"github.com/mwiater/nutrieval/internal/providerfactory"
	"github.com/mwiater/nutrieval/internal/providers"
	"github.com/mwiater/nutrieval/internal/prompts"
	"github.com/mwiater/nutrieval/internal/scoring"
)

type modelEntry struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by"`
}

type modelsResponse struct {
	Data []modelEntry `json:"data"`
}

func main() {
	configPath := flag.String("config", appconfig.DefaultConfigPath, "Path to config JSON")
	hostName := flag.String("host", "", "Host name from the config (default: first openai-compatible host)")
	hostURL := flag.String("url", "", "Override host URL")
	modelName := flag.String("model", "", "Override model name")
	timeout := flag.Duration("timeout", 60*time.Second, "HTTP timeout")
	flag.Parse()

	cfg, host, model, err := resolveTarget(*configPath, *hostName, *hostURL, *modelName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: *timeout}

	fmt.Printf("Target host: %s (%s)\n", host.Identifier(), host.URL)
	fmt.Printf("Target model: %s\n\n", model)

	if err := checkModels(client, host); err != nil {
		fmt.Fprintf(os.Stderr, "models check failed: %v\n", err)
	}
	if err := checkParams(client, host, model); err != nil {
		fmt.Fprintf(os.Stderr, "param check failed: %v\n", err)
	}
	if err := scoreOnePrompt(cfg, host, model, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "scored prompt failed: %v\n", err)
		os.Exit(1)
	}
}

func resolveTarget(configPath, hostName, overrideURL, overrideModel string) (*appconfig.Config, appconfig.Host, string, error) {
	cfg := &appconfig.Config{}
	if loaded, err := appconfig.Load(configPath); err == nil {
		cfg = &loaded
	} else if overrideURL == "" {
		return nil, appconfig.Host{}, "", err
	}

	var host appconfig.Host
	found := false
	for _, h := range cfg.Hosts {
		if (hostName != "" && h.Name == hostName) || (hostName == "" && h.Type == appconfig.HostTypeOpenAICompatible) {
			host, found = h, true
			break
		}
	}
	if overrideURL != "" {
		if !found {
			host = appconfig.Host{Name: "endpoint-check", Type: appconfig.HostTypeOpenAICompatible}
		}
		host.URL = overrideURL
		found = true
	}
	if !found {
		return nil, appconfig.Host{}, "", fmt.Errorf("no matching openai-compatible host in %s", configPath)
	}

	model := overrideModel
	if model == "" && len(host.Models) > 0 {
		model = host.Models[0]
	}
	if model == "" {
		model = "model"
	}
	return cfg, host, model, nil
}

func checkModels(client *http.Client, host appconfig.Host) error {
	fmt.Println("== /v1/models ==")
	req, err := http.NewRequest(http.MethodGet, strings.TrimRight(host.URL, "/")+"/v1/models", nil)
	if err != nil {
		return err
	}
	if key := host.ResolveAPIKey(); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Printf("Status: %s\n", resp.Status)

	var parsed modelsResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Data) == 0 {
		fmt.Println("Raw:")
		fmt.Println(indentJSON(body))
		fmt.Println()
		return nil
	}
	fmt.Printf("Models: %d\n", len(parsed.Data))
	for _, m := range parsed.Data {
		fmt.Printf("  - %s (owned_by=%s)\n", m.ID, m.OwnedBy)
	}
	fmt.Println()
	return nil
}

// checkParams reports which request options the endpoint accepts. JSON mode
// depends on response_format being honoured.
func checkParams(client *http.Client, host appconfig.Host, model string) error {
	fmt.Println("== /v1/chat/completions param check ==")
	cases := []struct {
		key   string
		value any
	}{
		{key: "temperature", value: appconfig.DefaultTemperature},
		{key: "top_p", value: 0.9},
		{key: "max_tokens", value: 16},
		{key: "response_format", value: map[string]string{"type": "json_object"}},
	}

	for _, tc := range cases {
		payload := map[string]any{
			"model":    model,
			"messages": []map[string]string{{"role": "user", "content": `Reply with {"ok": true}`}},
			"stream":   false,
			tc.key:     tc.value,
		}
		status, body, err := postJSON(client, host, payload)
		if err != nil {
			fmt.Printf("%s: error=%v\n", tc.key, err)
			continue
		}
		msg := strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200] + "..."
		}
		fmt.Printf("%s: status=%d accepted=%v body=%s\n", tc.key, status, status >= 200 && status < 300, msg)
	}
	fmt.Println()
	return nil
}

// scoreOnePrompt sends the factual prompt built from the default records
// through the real provider and scores the answer.
func scoreOnePrompt(cfg *appconfig.Config, host appconfig.Host, model string, timeout time.Duration) error {
	fmt.Println("== scored prompt ==")
	provider, err := providerfactory.NewChatProvider(cfg, host)
	if err != nil {
		return err
	}
	defer provider.Close()

	spec := prompts.Build(nil, prompts.DefaultsPolicy)[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	completion, err := provider.Complete(ctx, providers.CompletionRequest{
		Host:         host,
		Model:        model,
		SystemPrompt: cfg.SystemPromptText(),
		Prompt:       spec.Text,
		Parameters:   host.Parameters,
		JSONMode:     cfg.JSONMode,
		Tag:          spec.ID,
	})
	if err != nil {
		return fmt.Errorf("%s", providers.Describe(err))
	}

	res := scoring.Score(spec.Category, completion.Content, spec.Expected)
	fmt.Printf("Response (%s, %d+%d tokens):\n%s\n\n", completion.Duration.Round(time.Millisecond), completion.PromptTokens, completion.CompletionTokens, completion.Content)
	fmt.Printf("Score: %.2f/%.0f (%.1f%%) parse=%s\n", res.Earned, res.Max, res.Percentage, res.Parse)
	for _, d := range res.Discrepancies {
		if !d.Matched {
			fmt.Printf("  %s: expected %s, got %s (%s)\n", d.Field, d.Expected, d.Actual, d.Reason)
		}
	}
	return nil
}

func postJSON(client *http.Client, host appconfig.Host, payload map[string]any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), client.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(host.URL, "/")+"/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if key := host.ResolveAPIKey(); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

func indentJSON(body []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return string(body)
	}
	return out.String()
}
