package tui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jeanpaul/alacrity/internal/bench"
	"github.com/jeanpaul/alacrity/internal/device"
	"github.com/jeanpaul/alacrity/internal/model"
	"github.com/jeanpaul/alacrity/internal/storage"
)

// formatResults renders recent benchmark results for the transcript.
func formatResults(results []bench.Result) string {
	if len(results) == 0 {
		return "No results yet. Run /bench first."
	}

	var b strings.Builder
	b.WriteString("Recent results\n")
	b.WriteString(strings.Repeat("─", 50) + "\n")
	for _, r := range results {
		b.WriteString(fmt.Sprintf("%-8s %-22s %-8s %s\n",
			shortID(r.ID), r.Model, r.Preset, r.Summary()))
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatHeadroom renders the disk and memory picture for the active model.
func formatHeadroom(mdl model.Model, storageSt, memorySt storage.Status) string {
	var b strings.Builder
	b.WriteString("Headroom\n")
	b.WriteString(strings.Repeat("─", 50) + "\n")

	if usage, err := device.DiskUsage("."); err == nil {
		used := usage.Total - usage.Free
		frac := 0.0
		if usage.Total > 0 {
			frac = float64(used) / float64(usage.Total)
		}
		b.WriteString(fmt.Sprintf("Disk:   %s %s free of %s\n",
			makeBar(frac, 20), humanize.Bytes(usage.Free), humanize.Bytes(usage.Total)))
	}
	if total, err := device.TotalMemory(); err == nil {
		if avail, err := device.AvailableMemory(); err == nil && total > 0 {
			frac := float64(total-avail) / float64(total)
			b.WriteString(fmt.Sprintf("Memory: %s %s available of %s\n",
				makeBar(frac, 20), humanize.Bytes(avail), humanize.Bytes(total)))
		}
	}

	if mdl.Name != "" {
		b.WriteString(fmt.Sprintf("\nModel:  %s", mdl.DisplayName()))
		if mdl.SizeBytes > 0 {
			b.WriteString(fmt.Sprintf(" (%s)", humanize.Bytes(uint64(mdl.SizeBytes))))
		}
		b.WriteString("\n")
		b.WriteString("Disk check:   " + statusLine(storageSt) + "\n")
		b.WriteString("Memory check: " + statusLine(memorySt))
	} else {
		b.WriteString("\nNo model selected.")
	}
	return b.String()
}

func statusLine(st storage.Status) string {
	if st.IsOk {
		return "ok"
	}
	return st.Message
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func humanBytes(n int64) string {
	if n <= 0 {
		return "size unknown"
	}
	return humanize.Bytes(uint64(n))
}

func makeBar(frac float64, width int) string {
	filled := int(frac * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
