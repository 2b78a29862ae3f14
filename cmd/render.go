package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jonesrussell/storetrust/internal/domain"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func render(w io.Writer, format string, results []domain.AggregateResult) error {
	if format == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
		return nil
	}

	for _, r := range results {
		renderTable(w, r)
	}
	return nil
}

// renderTable writes one verdict: a row per signal, the bullets, and the
// final score in the footer.
func renderTable(w io.Writer, r domain.AggregateResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(r.Domain)

	t.AppendHeader(table.Row{"Signal", "Status", "Score", "Weight", "Message"})
	for _, s := range r.Signals {
		t.AppendRow(table.Row{s.Type, s.Status, s.Score, s.Weight, s.Message})
	}

	if len(r.Bullets) > 0 {
		t.AppendSeparator()
		for _, b := range r.Bullets {
			t.AppendRow(table.Row{bulletMark(b.Icon), "", "", "", b.Text})
		}
	}

	overrides := "none"
	if len(r.Overrides) > 0 {
		overrides = strings.Join(r.Overrides, ", ")
	}
	t.AppendFooter(table.Row{"Verdict", r.Level, r.Score, r.Policy, "overrides: " + overrides})
	t.Render()
}

func bulletMark(icon domain.Icon) string {
	switch icon {
	case domain.IconCheck:
		return "[ok]"
	case domain.IconDanger:
		return "[!!]"
	default:
		return "[!]"
	}
}
