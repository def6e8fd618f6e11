// internal/report/markdown.go

// Package report renders evaluation reports: a markdown document for
// auditing, a JSON export and a console summary table.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/mwiater/nutrieval/internal/evaluation"
	"github.com/mwiater/nutrieval/internal/scoring"
	"github.com/mwiater/nutrieval/internal/util"
)

type markdownData struct {
	Report  evaluation.Report
	Title   string
	Started string
	Elapsed string
	Prompts []promptView
}

type promptView struct {
	evaluation.PromptResult
	ExpectedPretty string
	ResponseBlock  string
	ResponseLang   string
	ResponseFence  string
	PromptFence    string
}

// maxCellRunes bounds a discrepancy table cell; the full response is in the
// response block.
const maxCellRunes = 120

var funcs = template.FuncMap{
	"pct":  func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"pts":  func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"cell": tableCell,
}

var markdownTemplate = template.Must(template.New("report").Funcs(funcs).Parse(markdownTemplateText))

const markdownTemplateText = `# {{.Title}}

- Model: {{.Report.Model}}
- Host: {{.Report.Host}}
- Run: {{.Report.RunID}}
- Started: {{.Started}}
- Elapsed: {{.Elapsed}}

## Summary

| Metric | Value |
|---|---|
| Mean | {{pct .Report.Summary.Mean}} |
| Max | {{pct .Report.Summary.Max}} |
| Min | {{pct .Report.Summary.Min}} |
| Points | {{pts .Report.Summary.Earned}} / {{pts .Report.Summary.Possible}} |
| Failed requests | {{.Report.Summary.Failures}} |
{{if .Report.Summary.PerCategory}}
| Category | Prompts | Mean |
|---|---|---|
{{range .Report.Summary.PerCategory}}| {{.Category}} | {{.Prompts}} | {{pct .Mean}} |
{{end}}{{end}}
## Results
{{range .Prompts}}
### {{.PromptID}}: {{.Category}}

- Difficulty: {{.Difficulty}}
- Score: {{pts .Score.Earned}} / {{pts .Score.Max}} ({{pct .Score.Percentage}})
- Response parse: {{.Score.Parse}}
- Time: {{.DurationMs}} ms
{{- if .Failure}}
- Failure: {{.Failure}}
{{- end}}

#### Prompt

{{.PromptFence}}
{{.Prompt}}
{{.PromptFence}}

#### Expected

` + "```json" + `
{{.ExpectedPretty}}
` + "```" + `

#### Response

{{.ResponseFence}}{{.ResponseLang}}
{{.ResponseBlock}}
{{.ResponseFence}}
{{if .Score.Discrepancies}}
#### Discrepancies

| Field | Expected | Actual | Result |
|---|---|---|---|
{{range .Score.Discrepancies}}| {{cell .Field}} | {{cell .Expected}} | {{cell .Actual}} | {{if .Matched}}ok{{else}}{{cell .Reason}}{{end}} |
{{end}}{{end}}{{if .Score.SchemaNotes}}
#### Schema notes
{{range .Score.SchemaNotes}}
- {{.}}{{end}}
{{end}}{{end}}`

// Markdown renders r as a markdown document containing literal expected and
// actual values for every prompt.
func Markdown(r evaluation.Report) (string, error) {
	data := markdownData{
		Report:  r,
		Title:   "Nutrition Evaluation Report",
		Started: r.StartedAt.Format(time.RFC3339),
		Elapsed: r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
	}
	for _, res := range r.Results {
		block, lang := responseBlock(res.Response)
		data.Prompts = append(data.Prompts, promptView{
			PromptResult:   res,
			ExpectedPretty: prettyJSON(res.Expected),
			ResponseBlock:  block,
			ResponseLang:   lang,
			ResponseFence:  fenceFor(block),
			PromptFence:    fenceFor(res.Prompt),
		})
	}

	var buf bytes.Buffer
	if err := markdownTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return buf.String(), nil
}

// WriteMarkdown renders r to path.
func WriteMarkdown(path string, r evaluation.Report) error {
	doc, err := Markdown(r)
	if err != nil {
		return err
	}
	return util.WriteFile(path, []byte(doc))
}

// PathFor returns the report path for model. With more than one model in a
// run each report gets the model slug as a suffix.
func PathFor(base, model string, models int) string {
	if models <= 1 {
		return base
	}
	return util.SuffixPath(base, util.Slugify(model))
}

func prettyJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// responseBlock pretty-prints the JSON object found in the response, or
// returns the response verbatim.
func responseBlock(response string) (string, string) {
	object, outcome := scoring.ExtractJSONObject(response)
	if outcome != scoring.ParseValid {
		if strings.TrimSpace(response) == "" {
			return "(empty response)", ""
		}
		return response, ""
	}
	return prettyJSON([]byte(object)), "json"
}

// tableCell keeps a value on one line of a markdown table row.
func tableCell(v string) string {
	v = util.TruncateRunes(util.SingleLine(v), maxCellRunes)
	return strings.ReplaceAll(v, "|", `\|`)
}

// fenceFor returns a backtick fence longer than any backtick run in text.
func fenceFor(text string) string {
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}
