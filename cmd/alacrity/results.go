package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jeanpaul/alacrity/internal/bench"
	"github.com/jeanpaul/alacrity/internal/config"
	"github.com/jeanpaul/alacrity/internal/export"
	"github.com/jeanpaul/alacrity/internal/leaderboard"
	"github.com/jeanpaul/alacrity/internal/tui"
)

const resultsUsage = "usage: alacrity results [list|show <id>|export [path]|diff <a> <b>|submit <id>|top [model]|remove <id>]"

func cmdResults(args []string, jsonOut bool) {
	cfg := loadConfig()
	store, err := bench.OpenResultStore(filepath.Join(cfg.DataDir, "results"))
	if err != nil {
		fatal("%s", err)
	}

	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "list":
		resultsList(store, jsonOut)
	case "show":
		if len(args) < 2 {
			fatal("usage: alacrity results show <id>")
		}
		resultsShow(store, args[1], jsonOut)
	case "export":
		path := "alacrity-results.md"
		if len(args) > 1 {
			path = args[1]
		}
		resultsExport(store, path)
	case "diff":
		if len(args) < 3 {
			fatal("usage: alacrity results diff <id-before> <id-after>")
		}
		resultsDiff(store, args[1], args[2])
	case "submit":
		if len(args) < 2 {
			fatal("usage: alacrity results submit <id>")
		}
		resultsSubmit(cfg, store, args[1])
	case "top":
		query := ""
		if len(args) > 1 {
			query = args[1]
		}
		resultsTop(cfg, query, jsonOut)
	case "remove":
		if len(args) < 2 {
			fatal("usage: alacrity results remove <id>")
		}
		if err := store.Remove(args[1]); err != nil {
			fatal("%s", err)
		}
		fmt.Println(tui.SuccessStyle.Render("  ✓ Removed " + args[1]))
	default:
		fatal("%s", resultsUsage)
	}
}

func resultsList(store *bench.ResultStore, jsonOut bool) {
	results := store.List()
	if jsonOut {
		if err := newJSONEncoder(os.Stdout).Encode(results); err != nil {
			fatal("%s", err)
		}
		return
	}
	if len(results) == 0 {
		fmt.Println(tui.HelpStyle.Render("  No results yet. Run: alacrity bench"))
		return
	}

	fmt.Println(tui.BannerStyle.Render("  Benchmark Results"))
	fmt.Println()
	for _, r := range results {
		fmt.Printf("  %s  %-22s %-8s %-32s %s\n",
			tui.UserLabelStyle.Render(shortID(r.ID)),
			r.Model,
			r.Preset,
			r.Summary(),
			tui.HelpStyle.Render(humanize.Time(r.RanAt)),
		)
	}
	fmt.Println()
	fmt.Println(tui.HelpStyle.Render("  Details with: alacrity results show <id>"))
}

func resultsShow(store *bench.ResultStore, id string, jsonOut bool) {
	r, ok := store.Get(id)
	if !ok {
		fatal("no result matching %q", id)
	}
	if jsonOut {
		if err := newJSONEncoder(os.Stdout).Encode(r); err != nil {
			fatal("%s", err)
		}
		return
	}

	fmt.Println(tui.BannerStyle.Render("  " + r.Model + " / " + r.Preset))
	fmt.Println()
	row := func(k, v string) {
		fmt.Printf("  %-12s %s\n", tui.UserLabelStyle.Render(k), v)
	}
	row("id", r.ID)
	row("ran", r.RanAt.Local().Format(time.RFC1123)+" ("+humanize.Time(r.RanAt)+")")
	row("engine", r.Engine)
	row("device", r.Label)
	row("throughput", r.Summary())
	if r.Quant != "" {
		row("quant", r.Quant)
	}
	if len(r.Samples) > 0 {
		fmt.Println()
		for i, s := range r.Samples {
			line := fmt.Sprintf("rep %d/%d: pp %.1f t/s, tg %.1f t/s", i+1, len(r.Samples), s.PromptTPS, s.GenTPS)
			if s.TTFBMS > 0 {
				line += fmt.Sprintf(", ttfb %.0f ms", s.TTFBMS)
			}
			fmt.Println(tui.BenchLineStyle.Render("  " + line))
		}
	}
}

func resultsExport(store *bench.ResultStore, path string) {
	results := store.List()
	if len(results) == 0 {
		fatal("no results to export")
	}

	if strings.HasSuffix(path, ".xlsx") {
		if err := export.WriteXLSX(path, results); err != nil {
			fatal("export failed: %s", err)
		}
		fmt.Println(tui.SuccessStyle.Render(fmt.Sprintf("  ✓ Exported %d results to %s", len(results), path)))
		return
	}

	md := export.Markdown(results)
	if path == "-" {
		fmt.Print(md)
		return
	}
	if err := os.WriteFile(path, []byte(md), 0644); err != nil {
		fatal("export failed: %s", err)
	}
	fmt.Println(tui.SuccessStyle.Render(fmt.Sprintf("  ✓ Exported %d results to %s", len(results), path)))
}

func resultsDiff(store *bench.ResultStore, beforeID, afterID string) {
	before, ok := store.Get(beforeID)
	if !ok {
		fatal("no result matching %q", beforeID)
	}
	after, ok := store.Get(afterID)
	if !ok {
		fatal("no result matching %q", afterID)
	}

	cmp := export.Compare(before, after)
	fmt.Println(tui.BannerStyle.Render("  " + cmp.Summary()))
	fmt.Println()
	if cmp.Diff == "" {
		fmt.Println(tui.HelpStyle.Render("  No differences."))
		return
	}
	for _, line := range strings.Split(strings.TrimRight(cmp.Diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			fmt.Println(tui.SuccessStyle.Render("  " + line))
		case strings.HasPrefix(line, "-"):
			fmt.Println(tui.ErrorStyle.Render("  " + line))
		default:
			fmt.Println(tui.HelpStyle.Render("  " + line))
		}
	}
}

func resultsSubmit(cfg *config.Config, store *bench.ResultStore, id string) {
	r, ok := store.Get(id)
	if !ok {
		fatal("no result matching %q", id)
	}
	if cfg.Leaderboard.DeviceLabel != "" {
		r.Label = cfg.Leaderboard.DeviceLabel
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("%s Submitting %s to %s...\n", tui.SpinnerStyle.Render("●"), shortID(r.ID), cfg.Leaderboard.BaseURL)
	receipt, err := leaderboard.NewClient(cfg.Leaderboard.BaseURL).Submit(ctx, r)
	if err != nil {
		fatal("%s", err)
	}

	msg := "  ✓ Submitted"
	if receipt.Rank > 0 {
		msg += fmt.Sprintf(", rank #%d for %s/%s", receipt.Rank, r.Model, r.Preset)
	}
	fmt.Println(tui.SuccessStyle.Render(msg))
	if receipt.URL != "" {
		fmt.Println(tui.HelpStyle.Render("  " + receipt.URL))
	}
}

func resultsTop(cfg *config.Config, modelName string, jsonOut bool) {
	ctx, cancel := signalContext()
	defer cancel()

	entries, err := leaderboard.NewClient(cfg.Leaderboard.BaseURL).Rankings(ctx, leaderboard.Query{
		Model: modelName,
		Limit: 15,
	})
	if err != nil {
		fatal("%s", err)
	}
	if jsonOut {
		if err := newJSONEncoder(os.Stdout).Encode(entries); err != nil {
			fatal("%s", err)
		}
		return
	}
	if len(entries) == 0 {
		fmt.Println(tui.HelpStyle.Render("  No rankings yet."))
		return
	}

	fmt.Println(tui.BannerStyle.Render("  Leaderboard"))
	fmt.Println()
	for _, e := range entries {
		fmt.Printf("  %s %-28s %-8s tg %6.1f t/s  %s\n",
			tui.UserLabelStyle.Render(fmt.Sprintf("#%-3d", e.Rank)),
			e.Model,
			e.Quant,
			e.GenTPS,
			tui.HelpStyle.Render(e.Label),
		)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
