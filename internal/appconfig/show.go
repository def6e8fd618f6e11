package appconfig

import (
	"fmt"
	"io"
	"strings"
)

// ShowConfig prints the effective configuration. API keys and tokens are
// reported as set or unset, never printed.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}
	if cfg == nil {
		cfg = &Config{}
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:          %v\n", cfg.Debug)
	fmt.Fprintf(out, "  JSON Mode:      %v\n", cfg.JSONMode)
	fmt.Fprintf(out, "  Timeout:        %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Pause:          %s\n", cfg.Pause())
	fmt.Fprintf(out, "  Log File:       %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Dataset:        %s\n", cfg.DatasetPath())
	fmt.Fprintf(out, "  Report:         %s\n", cfg.ReportPath())
	fmt.Fprintf(out, "  Export JSON:    %s\n", orNone(cfg.ExportJSON))
	fmt.Fprintf(out, "  Results Dir:    %s\n", cfg.ResultsPath())
	fmt.Fprintf(out, "  Selection:      %s\n", orNone(cfg.Selection))
	fmt.Fprintf(out, "  Store Driver:   %s\n", orNone(cfg.Store.Driver))

	fmt.Fprintln(out, "\nHosts:")
	if len(cfg.Hosts) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, h := range cfg.Hosts {
		fmt.Fprintf(out, "  - %s [%s] %s\n", h.Identifier(), h.Type, h.URL)
		fmt.Fprintf(out, "    models: %s\n", orNone(strings.Join(h.Models, ", ")))
		fmt.Fprintf(out, "    api key: %s\n", setOrUnset(h.ResolveAPIKey()))
		fmt.Fprintf(out, "    temperature: %v, max tokens: %d\n", h.Parameters.TemperatureOrDefault(), h.Parameters.MaxTokensOrDefault())
	}

	s := cfg.Scraper.WithDefaults()
	fmt.Fprintln(out, "\nScraper:")
	fmt.Fprintf(out, "  Base URL:       %s\n", s.BaseURL)
	fmt.Fprintf(out, "  Token:          %s\n", setOrUnset(s.Token))
	fmt.Fprintf(out, "  Page Size:      %d\n", s.PageSize)
	fmt.Fprintf(out, "  Max Items:      %d\n", s.MaxItems)
	fmt.Fprintf(out, "  Request Delay:  %s\n", s.RequestDelay())
	fmt.Fprintf(out, "  Backup Every:   %d\n", s.BackupEvery)
	fmt.Fprintf(out, "  Output:         %s\n", s.Output)
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}

func setOrUnset(s string) string {
	if s == "" {
		return "unset"
	}
	return "set"
}
