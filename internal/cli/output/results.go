package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

type fileEvent struct {
	File   string   `json:"file"`
	Passed bool     `json:"passed"`
	Errors []string `json:"errors,omitempty"`
}

type progressEvent struct {
	Event     string `json:"event"`
	Validated int    `json:"validated"`
	Failures  int    `json:"failures"`
}

type failureEvent struct {
	Event  string   `json:"event"`
	ID     string   `json:"id"`
	Errors []string `json:"errors"`
}

// FileResult writes the outcome of one validated file as a single unit.
func (r *Renderer) FileResult(path string, passed bool, messages []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.EffectiveMode() {
	case ModeJSON:
		r.jsonLine(fileEvent{File: path, Passed: passed, Errors: messages})
	case ModeMarkdown:
		if passed {
			fmt.Fprintf(r.out, "- **PASSED** `%s`\n", path)
			return
		}
		fmt.Fprintf(r.out, "- **ERROR** `%s`\n", path)
		for _, msg := range messages {
			fmt.Fprintf(r.out, "  - %s\n", msg)
		}
	default:
		if passed {
			fmt.Fprintf(r.out, "%s %s\n", r.styles.Success.Render("PASSED:"), path)
			return
		}
		fmt.Fprintf(r.out, "%s %s\n", r.styles.Error.Render("ERROR:"), path)
		r.writeIndented(messages)
	}
}

// Progress writes a running scan count.
func (r *Renderer) Progress(validated, failures int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.EffectiveMode() == ModeJSON {
		r.jsonLine(progressEvent{Event: "progress", Validated: validated, Failures: failures})
		return
	}
	fmt.Fprintf(r.out, "Validated: %d.  Failures: %d\n", validated, failures)
}

// ScanFailure writes the errors of one failing document.
func (r *Renderer) ScanFailure(id string, messages []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.EffectiveMode() {
	case ModeJSON:
		r.jsonLine(failureEvent{Event: "failure", ID: id, Errors: nonNil(messages)})
	case ModeMarkdown:
		fmt.Fprintf(r.out, "- **ERROR** `%s`\n", id)
		for _, msg := range messages {
			fmt.Fprintf(r.out, "  - %s\n", msg)
		}
	default:
		fmt.Fprintf(r.out, "%s %s\n", r.styles.Error.Render("ERROR:"), id)
		r.writeIndented(messages)
	}
}

// ScanSummary writes the end-of-scan count and the ids of failing documents
// in stream order.
func (r *Renderer) ScanSummary(validated int, failures []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.EffectiveMode() {
	case ModeJSON:
		r.jsonLine(struct {
			Event     string   `json:"event"`
			Validated int      `json:"validated"`
			Failures  []string `json:"failures"`
		}{"summary", validated, nonNil(failures)})
	case ModeMarkdown:
		fmt.Fprintf(r.out, "\n## Scan summary\n\nValidated %d documents.\n", validated)
		if len(failures) > 0 {
			fmt.Fprint(r.out, "\n### Failures\n\n")
			for _, id := range failures {
				fmt.Fprintf(r.out, "- `%s`\n", id)
			}
		}
	default:
		fmt.Fprintf(r.out, "Validated %d documents.\n", validated)
		if len(failures) > 0 {
			fmt.Fprintln(r.out, r.styles.Bold.Render("Failures:"))
			r.writeIndented(failures)
		}
	}
}

// ValidateSummary writes the file counts of a validate run. Plain text output
// gets no summary so piped PASSED/ERROR lines stay the only output.
func (r *Renderer) ValidateSummary(passed, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.EffectiveMode() {
	case ModeJSON:
		r.jsonLine(struct {
			Event  string `json:"event"`
			Passed int    `json:"passed"`
			Failed int    `json:"failed"`
		}{"summary", passed, failed})
	case ModeMarkdown:
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, r.summaryTable(passed, failed).RenderMarkdown())
	default:
		if !r.isTTY {
			return
		}
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, r.summaryTable(passed, failed).Render())
	}
}

func (r *Renderer) summaryTable(passed, failed int) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Passed", "Failed", "Total"})
	t.AppendRow(table.Row{r.Count(passed), r.Count(failed), r.Count(passed + failed)})
	return t
}

// writeIndented writes each line prefixed by two spaces. Callers hold r.mu.
func (r *Renderer) writeIndented(lines []string) {
	for _, line := range lines {
		fmt.Fprintf(r.out, "  %s\n", strings.TrimRight(line, "\n"))
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
