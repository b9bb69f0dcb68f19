package export

import (
	"fmt"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/jeanpaul/alacrity/internal/bench"
)

// Comparison holds the throughput movement between two runs. Deltas are
// percentages relative to the before run.
type Comparison struct {
	Before, After  bench.Result
	PromptTPSDelta float64
	GenTPSDelta    float64
	TTFBDelta      float64
	Diff           string
}

// Compare measures after against before. The unified diff covers every
// field, so config drift between runs shows up alongside the numbers.
func Compare(before, after bench.Result) Comparison {
	a := renderResult(before)
	b := renderResult(after)
	edits := myers.ComputeEdits(span.URIFromPath(shortID(before.ID)), a, b)
	unified := gotextdiff.ToUnified(shortID(before.ID), shortID(after.ID), a, edits)

	return Comparison{
		Before:         before,
		After:          after,
		PromptTPSDelta: pctChange(before.PromptTPS, after.PromptTPS),
		GenTPSDelta:    pctChange(before.GenTPS, after.GenTPS),
		TTFBDelta:      pctChange(before.TTFBMS, after.TTFBMS),
		Diff:           fmt.Sprint(unified),
	}
}

// Summary renders the headline movement, gen throughput first.
func (c Comparison) Summary() string {
	return fmt.Sprintf("tg %.1f -> %.1f t/s (%+.1f%%), pp %.1f -> %.1f t/s (%+.1f%%)",
		c.Before.GenTPS, c.After.GenTPS, c.GenTPSDelta,
		c.Before.PromptTPS, c.After.PromptTPS, c.PromptTPSDelta)
}

func pctChange(before, after float64) float64 {
	if before == 0 {
		return 0
	}
	return (after - before) / before * 100
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// renderResult serializes a result as stable key: value lines for diffing.
func renderResult(r bench.Result) string {
	var sb strings.Builder
	write := func(k, v string) { fmt.Fprintf(&sb, "%s: %s\n", k, v) }

	write("model", r.Model)
	write("quant", r.Quant)
	write("params", r.Params)
	write("preset", r.Preset)
	write("prompt_tps", fmt.Sprintf("%.2f", r.PromptTPS))
	write("gen_tps", fmt.Sprintf("%.2f", r.GenTPS))
	write("ttfb_ms", fmt.Sprintf("%.1f", r.TTFBMS))
	write("repetitions", fmt.Sprintf("%d", r.Repetitions))
	write("engine", r.Engine)
	write("os", r.Device.OS)
	write("arch", r.Device.Arch)
	write("cpus", fmt.Sprintf("%d", r.Device.CPUs))
	return sb.String()
}
