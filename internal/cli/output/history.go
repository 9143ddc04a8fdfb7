package output

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/datatect/internal/state"
)

type runJSON struct {
	ID          string     `json:"id"`
	Command     string     `json:"command"`
	Source      string     `json:"source"`
	Schema      string     `json:"schema"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Validated   int        `json:"validated"`
	Failures    int        `json:"failures"`
	Error       string     `json:"error,omitempty"`
}

// Runs writes recorded runs, newest first.
func (r *Renderer) Runs(runs []*state.Run) error {
	if r.EffectiveMode() == ModeJSON {
		out := make([]runJSON, len(runs))
		for i, run := range runs {
			out[i] = runJSON{
				ID:          run.ID,
				Command:     run.Command,
				Source:      run.Source,
				Schema:      run.Schema,
				Status:      string(run.Status),
				StartedAt:   run.StartedAt,
				CompletedAt: run.CompletedAt,
				Validated:   run.Validated,
				Failures:    run.Failures,
				Error:       run.Error,
			}
		}
		return r.JSON(out)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(runs) == 0 {
		fmt.Fprintln(r.out, r.styles.Muted.Render("No runs recorded."))
		return nil
	}

	title := cases.Title(language.English)
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Command", "Source", "Status", "Started", "Duration", "Validated", "Failures"})
	for _, run := range runs {
		duration := "-"
		if run.CompletedAt != nil {
			duration = run.Duration().Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{
			shortID(run.ID),
			run.Command,
			run.Source,
			r.statusStyle(run.Status).Render(title.String(string(run.Status))),
			run.StartedAt.Local().Format(time.DateTime),
			duration,
			r.Count(run.Validated),
			r.Count(run.Failures),
		})
	}

	if r.EffectiveMode() == ModeMarkdown {
		fmt.Fprintln(r.out, "## Run history")
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, t.RenderMarkdown())
		return nil
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// RunFailures writes the failing documents recorded for one run.
func (r *Renderer) RunFailures(failures []state.Failure) error {
	if r.EffectiveMode() == ModeJSON {
		out := make([]failureEvent, len(failures))
		for i, f := range failures {
			out[i] = failureEvent{Event: "failure", ID: f.Document, Errors: nonNil(f.Errors)}
		}
		return r.JSON(out)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range failures {
		if r.EffectiveMode() == ModeMarkdown {
			fmt.Fprintf(r.out, "- **ERROR** `%s`\n", f.Document)
			for _, msg := range f.Errors {
				fmt.Fprintf(r.out, "  - %s\n", msg)
			}
			continue
		}
		fmt.Fprintf(r.out, "%s %s\n", r.styles.Error.Render("ERROR:"), f.Document)
		r.writeIndented(f.Errors)
	}
	return nil
}

func (r *Renderer) statusStyle(status state.RunStatus) lipgloss.Style {
	switch status {
	case state.RunStatusPassed:
		return r.styles.Success
	case state.RunStatusFailed, state.RunStatusAborted:
		return r.styles.Error
	default:
		return r.styles.Warning
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
