package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"

	"github.com/jeanpaul/alacrity/internal/device"
	"github.com/jeanpaul/alacrity/internal/leaderboard"
	"github.com/jeanpaul/alacrity/internal/logging"
	"github.com/jeanpaul/alacrity/internal/model"
	"github.com/jeanpaul/alacrity/internal/tui"
)

func cmdModels() {
	cfg := loadConfig()
	store, err := model.OpenStore(cfg.ModelsDir)
	if err != nil {
		fatal("%s", err)
	}

	ctx := context.Background()
	models, err := store.List(ctx)
	if err != nil {
		fatal("failed to list models: %s", err)
	}
	have := make(map[string]bool, len(models))
	for _, m := range models {
		have[m.Name] = true
	}
	for _, p := range model.Presets() {
		if !have[p.Name] {
			models = append(models, p)
		}
	}

	checker := device.NewChecker(cfg.ModelsDir, cfg.Storage.ReserveBytes, cfg.Memory.Overhead)
	free, _ := device.FreeDiskSpace(cfg.ModelsDir)
	avail, _ := device.AvailableMemory()

	fmt.Println(tui.BannerStyle.Render("  Models"))
	fmt.Println()
	for _, m := range models {
		size := "size unknown"
		if m.SizeBytes > 0 {
			size = humanize.Bytes(uint64(m.SizeBytes))
		}
		fmt.Printf("  %s %-8s %12s  %s\n",
			tui.UserLabelStyle.Render(fmt.Sprintf("%-28s", m.DisplayName())),
			m.Quant,
			size,
			modelState(m, free, avail, checker),
		)
	}
	fmt.Println()
	fmt.Println(tui.HelpStyle.Render("  Pull with: alacrity pull <name>"))
}

// modelState summarizes where a model stands: on disk, downloadable, or too
// big for the current disk or RAM headroom.
func modelState(m model.Model, free, availRAM uint64, checker *device.Checker) string {
	if m.OnDisk() {
		return tui.SuccessStyle.Render("✓ on disk")
	}
	if m.SizeBytes <= 0 {
		return tui.HelpStyle.Render("· not downloaded")
	}
	need := uint64(m.SizeBytes)
	if checker.Reserve > 0 {
		need += uint64(checker.Reserve)
	}
	if free > 0 && need > free {
		return tui.ErrorStyle.Render("✗ needs " + humanize.Bytes(need) + ", " + humanize.Bytes(free) + " free")
	}
	if availRAM > 0 && checker.RequiredMemory(m) > availRAM {
		return tui.WarningStyle.Render("▲ tight on RAM")
	}
	return tui.HelpStyle.Render("· not downloaded")
}

func cmdPull(ref string) {
	cfg := loadConfig()
	if err := logging.SetupConsole(cfg.Log.Level); err != nil {
		fatal("%s", err)
	}
	store, err := model.OpenStore(cfg.ModelsDir)
	if err != nil {
		fatal("%s", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	mdl, err := resolveRef(ctx, store, ref)
	if err != nil {
		fatal("%s", err)
	}
	if mdl.OnDisk() {
		msg := "  ✓ Already on disk: " + mdl.Path
		if mdl.Local {
			msg = "  ✓ Imported in place: " + mdl.Path
		}
		fmt.Println(tui.SuccessStyle.Render(msg))
		return
	}

	checker := device.NewChecker(cfg.ModelsDir, cfg.Storage.ReserveBytes, cfg.Memory.Overhead)
	dl := model.NewDownloader(store, checker, os.Getenv("HF_TOKEN"))

	size := ""
	if mdl.SizeBytes > 0 {
		size = " (" + humanize.Bytes(uint64(mdl.SizeBytes)) + ")"
	}
	fmt.Printf("%s Pulling %s%s...\n", tui.SpinnerStyle.Render("●"), mdl.DisplayName(), size)

	got, err := dl.Download(ctx, mdl, pullProgress)
	fmt.Println()
	if err != nil {
		fatal("pull failed: %s", err)
	}
	fmt.Println(tui.SuccessStyle.Render("  ✓ " + got.Path))
}

// pullProgress redraws a single progress line in place.
func pullProgress(p model.Progress) {
	if p.Total <= 0 {
		fmt.Printf("\r  %s received", humanize.Bytes(uint64(p.Received)))
		return
	}
	bar := int(p.Percent / 2)
	if bar > 50 {
		bar = 50
	}
	fmt.Printf("\r  [%s%s] %3.0f%%  %s / %s",
		tui.BannerStyle.Render(strings.Repeat("█", bar)),
		strings.Repeat("░", 50-bar),
		p.Percent,
		humanize.Bytes(uint64(p.Received)),
		humanize.Bytes(uint64(p.Total)),
	)
}

// resolveRef maps a model reference to a descriptor. A path to an existing
// .gguf file is imported in place; a bare name matches a downloaded model or
// a curated preset; "owner/repo" picks a sensible quant from a HuggingFace
// repo; "owner/repo/file.gguf" names an exact file.
func resolveRef(ctx context.Context, store *model.Store, ref string) (model.Model, error) {
	if strings.HasSuffix(ref, ".gguf") {
		if _, err := os.Stat(ref); err == nil {
			return store.ImportLocal(ref)
		}
	}
	if mdl, err := store.Resolve(ctx, ref); err == nil {
		return mdl, nil
	}
	if !strings.Contains(ref, "/") {
		return model.Model{}, fmt.Errorf("unknown model %q (try: alacrity search %s)", ref, ref)
	}

	repoID := ref
	wantFile := ""
	if strings.HasSuffix(ref, ".gguf") {
		if i := strings.LastIndex(ref, "/"); i > 0 {
			repoID, wantFile = ref[:i], ref[i+1:]
		}
	}

	searcher := model.NewSearcher(os.Getenv("HF_TOKEN"))
	files, err := searcher.Files(ctx, repoID)
	if err != nil {
		return model.Model{}, err
	}
	if len(files) == 0 {
		return model.Model{}, fmt.Errorf("no GGUF files in %s", repoID)
	}
	if wantFile != "" {
		for _, f := range files {
			if f.File == wantFile || filepath.Base(f.File) == wantFile {
				return f, nil
			}
		}
		return model.Model{}, fmt.Errorf("no file %s in %s", wantFile, repoID)
	}
	return pickQuant(files), nil
}

// pickQuant prefers the mid-size quantizations people actually run.
func pickQuant(files []model.Model) model.Model {
	for _, want := range []string{"Q4_K_M", "Q5_K_M", "Q4_0", "Q8_0"} {
		for _, f := range files {
			if f.Quant == want {
				return f
			}
		}
	}
	return files[0]
}

func cmdRemove(name string) {
	cfg := loadConfig()
	store, err := model.OpenStore(cfg.ModelsDir)
	if err != nil {
		fatal("%s", err)
	}
	mdl, err := store.Remove(context.Background(), name)
	if err != nil {
		fatal("remove failed: %s", err)
	}
	freed := ""
	if mdl.SizeBytes > 0 {
		freed = " (" + humanize.Bytes(uint64(mdl.SizeBytes)) + " freed)"
	}
	fmt.Println(tui.SuccessStyle.Render("  ✓ Removed " + mdl.DisplayName() + freed))
}

func cmdSearch(query string) {
	searcher := model.NewSearcher(os.Getenv("HF_TOKEN"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repos, err := searcher.Search(ctx, query, 20)
	if err != nil {
		fatal("search failed: %s", err)
	}
	if len(repos) == 0 {
		fmt.Println(tui.HelpStyle.Render("  No models found"))
		return
	}

	fmt.Println(tui.BannerStyle.Render("  HuggingFace Models (GGUF)"))
	fmt.Println()
	for _, r := range repos {
		fmt.Printf("  %s  %s\n",
			tui.UserLabelStyle.Render(r.ID),
			tui.HelpStyle.Render(fmt.Sprintf("%s downloads, %d likes", humanize.Comma(int64(r.Downloads)), r.Likes)),
		)
	}
	fmt.Println()
	fmt.Println(tui.HelpStyle.Render("  Pull with: alacrity pull " + repos[0].ID))
}

func cmdCard(ref string) {
	// A bare preset name maps to its HF repo.
	repo := ref
	if mdl, ok := model.Lookup(ref); ok && mdl.Repo != "" {
		repo = mdl.Repo
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	card, err := leaderboard.NewCardFetcher().Fetch(ctx, repo)
	if err != nil {
		fatal("%s", err)
	}

	fmt.Println(tui.BannerStyle.Render("  " + card.Title))
	fmt.Println()

	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err == nil {
		if rendered, rerr := r.Render(card.Markdown); rerr == nil {
			fmt.Println(rendered)
			return
		}
	}
	fmt.Println(card.Markdown)
}
