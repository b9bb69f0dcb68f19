package export

import (
	"strings"
	"testing"
	"time"

	"github.com/jeanpaul/alacrity/internal/bench"
	"github.com/jeanpaul/alacrity/internal/device"
)

func sampleResult() bench.Result {
	return bench.Result{
		ID:          "3f6a1c2e-0b7d-4f3a-9c31-64b1a0f5e8d2",
		Model:       "llama-3.2-1b",
		Quant:       "Q8_0",
		Params:      "1B",
		Preset:      "tg128",
		PromptTPS:   512.44,
		GenTPS:      31.82,
		TTFBMS:      184.6,
		Repetitions: 3,
		RanAt:       time.Date(2026, 8, 10, 9, 30, 0, 0, time.UTC),
		Label:       "linux/arm64 8c",
		Engine:      "llama.cpp",
		Device:      device.Info{OS: "linux", Arch: "arm64", CPUs: 8},
	}
}

func TestMarkdownTable(t *testing.T) {
	got := Markdown([]bench.Result{sampleResult()})

	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + separator + 1 row:\n%s", len(lines), got)
	}
	if !strings.HasPrefix(lines[0], "| Model |") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "---") {
		t.Errorf("separator = %q", lines[1])
	}
	row := lines[2]
	for _, want := range []string{"llama-3.2-1b", "Q8_0", "tg128", "512.4", "31.8", "185", "2026-08-10 09:30"} {
		if !strings.Contains(row, want) {
			t.Errorf("row missing %q: %s", want, row)
		}
	}
}

func TestMarkdownEscapesCells(t *testing.T) {
	r := sampleResult()
	r.Model = "weird|name"
	got := Markdown([]bench.Result{r})
	if !strings.Contains(got, `weird\|name`) {
		t.Errorf("pipe not escaped:\n%s", got)
	}
}

func TestMarkdownOmitsMissingTTFB(t *testing.T) {
	r := sampleResult()
	r.TTFBMS = 0
	got := Markdown([]bench.Result{r})
	if !strings.Contains(got, "| - |") {
		t.Errorf("missing ttfb should render as -:\n%s", got)
	}
}

func TestMarkdownEmpty(t *testing.T) {
	if got := Markdown(nil); !strings.Contains(got, "no results") {
		t.Errorf("empty export = %q", got)
	}
}
