// Package export renders benchmark results for sharing: Markdown tables,
// spreadsheets, and diffs between runs.
package export

import (
	"fmt"
	"strings"

	"github.com/jeanpaul/alacrity/internal/bench"
)

// Markdown renders results as a GitHub-flavored table, newest ordering
// preserved from the caller.
func Markdown(results []bench.Result) string {
	if len(results) == 0 {
		return "_no results_\n"
	}

	var sb strings.Builder
	sb.WriteString("| Model | Quant | Preset | pp t/s | tg t/s | ttfb ms | Device | Ran |\n")
	sb.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- |\n")
	for _, r := range results {
		ttfb := "-"
		if r.TTFBMS > 0 {
			ttfb = fmt.Sprintf("%.0f", r.TTFBMS)
		}
		cells := []string{
			r.Model,
			r.Quant,
			r.Preset,
			fmt.Sprintf("%.1f", r.PromptTPS),
			fmt.Sprintf("%.1f", r.GenTPS),
			ttfb,
			r.Label,
			r.RanAt.Format("2006-01-02 15:04"),
		}
		for i := range cells {
			cells[i] = escapeCell(cells[i])
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return sb.String()
}

// escapeCell keeps cell content from breaking the table.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
