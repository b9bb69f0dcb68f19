package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jeanpaul/alacrity/internal/bench"
	"github.com/jeanpaul/alacrity/internal/config"
	"github.com/jeanpaul/alacrity/internal/device"
	"github.com/jeanpaul/alacrity/internal/engine"
	"github.com/jeanpaul/alacrity/internal/headless"
	"github.com/jeanpaul/alacrity/internal/logging"
	"github.com/jeanpaul/alacrity/internal/model"
	"github.com/jeanpaul/alacrity/internal/tui"
)

// cmdBench runs a benchmark without the TUI. Results go to stdout (JSON with
// --json), progress narration to stderr, so output can be piped or redirected.
func cmdBench(presetName, modelName string, jsonOut, spawn bool, reps int) {
	cfg := loadConfig()
	if err := logging.SetupConsole(cfg.Log.Level); err != nil {
		fatal("%s", err)
	}

	if presetName == "list" {
		listPresets(jsonOut)
		return
	}

	explicit := presetName != ""
	if presetName == "" {
		presetName = cfg.Bench.Preset
	}
	preset, err := bench.ResolvePreset(presetName)
	if err != nil {
		fatal("%s", err)
	}
	if !explicit && cfg.Bench.Repetitions > 0 {
		preset.Repetitions = cfg.Bench.Repetitions
	}
	if reps > 0 {
		preset.Repetitions = reps
	}

	if modelName == "" {
		modelName = cfg.Engine.Model
	}
	if modelName == "" {
		fatal("no model selected (pass --model or set engine.model in config)")
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, err := model.OpenStore(cfg.ModelsDir)
	if err != nil {
		fatal("%s", err)
	}
	mdl, err := store.Resolve(ctx, modelName)
	if err != nil {
		fatal("%s", err)
	}

	// Benchmarking a model that is not on disk first pulls it through the
	// guarded download path.
	if !mdl.OnDisk() {
		checker := device.NewChecker(cfg.ModelsDir, cfg.Storage.ReserveBytes, cfg.Memory.Overhead)
		dl := model.NewDownloader(store, checker, os.Getenv("HF_TOKEN"))
		fmt.Fprintf(os.Stderr, "%s not on disk, pulling first...\n", mdl.DisplayName())
		mdl, err = dl.Download(ctx, mdl, pullProgress)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fatal("pull failed: %s", err)
		}
	}

	if spawn {
		sup, err := startEngine(ctx, cfg, mdl)
		if err != nil {
			fatal("%s", err)
		}
		defer sup.Stop()
	}

	eng := engine.WithRetry(makeEngine(cfg), 3)
	runner := bench.NewRunner(eng, device.Snapshot(cfg.ModelsDir))

	result, err := headless.Bench(ctx, runner, mdl, preset, jsonOut, os.Stdout, os.Stderr)
	if err != nil {
		fatal("%s", err)
	}

	results, err := bench.OpenResultStore(filepath.Join(cfg.DataDir, "results"))
	if err != nil {
		fatal("%s", err)
	}
	if err := results.Add(*result); err != nil {
		fatal("result not saved: %s", err)
	}
	fmt.Fprintf(os.Stderr, "saved as %s\n", shortID(result.ID))
}

// listPresets prints the built-in benchmark presets.
func listPresets(jsonOut bool) {
	presets := bench.Builtins()
	if jsonOut {
		if err := newJSONEncoder(os.Stdout).Encode(presets); err != nil {
			fatal("%s", err)
		}
		return
	}
	fmt.Println(tui.BannerStyle.Render("  Presets"))
	fmt.Println()
	for _, p := range presets {
		shape := fmt.Sprintf("pp %d, tg %d, %d reps", p.PromptTokens, p.GenTokens, p.Repetitions)
		if p.Warmup {
			shape += ", warmup"
		}
		fmt.Printf("  %s %-26s %s\n",
			tui.UserLabelStyle.Render(fmt.Sprintf("%-8s", p.Name)),
			p.Description,
			tui.HelpStyle.Render(shape))
	}
	fmt.Println()
	fmt.Println(tui.HelpStyle.Render("  A .yaml preset file works anywhere a name does: alacrity bench ./mine.yaml"))
}

func cmdServe(name string) {
	cfg := loadConfig()
	if err := logging.SetupConsole(cfg.Log.Level); err != nil {
		fatal("%s", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, err := model.OpenStore(cfg.ModelsDir)
	if err != nil {
		fatal("%s", err)
	}
	mdl, err := store.Resolve(ctx, name)
	if err != nil {
		fatal("%s", err)
	}
	if !mdl.OnDisk() {
		fatal("%s is not downloaded (try: alacrity pull %s)", mdl.DisplayName(), name)
	}

	sup := newSupervisor(cfg, mdl)
	sup.OnLine = func(line string) {
		fmt.Fprintln(os.Stderr, tui.HelpStyle.Render("  "+line))
	}
	if err := sup.Start(ctx); err != nil {
		fatal("%s", err)
	}

	fmt.Printf("%s Loading %s...\n", tui.SpinnerStyle.Render("●"), mdl.DisplayName())
	readyCtx, readyCancel := context.WithTimeout(ctx, 5*time.Minute)
	err = sup.WaitReady(readyCtx)
	readyCancel()
	if err != nil {
		sup.Stop()
		fatal("engine failed to become ready: %s", err)
	}

	fmt.Println(tui.SuccessStyle.Render("✓ Serving " + mdl.DisplayName() + " at " + cfg.Engine.BaseURL))
	fmt.Println(tui.HelpStyle.Render("  Ctrl+C stops the server"))

	select {
	case <-ctx.Done():
		fmt.Println("\nStopping engine...")
		sup.Stop()
	case <-sup.Done():
		if err := sup.Err(); err != nil {
			fatal("engine exited: %s", err)
		}
	}
}

// startEngine spawns llama-server for mdl and waits for it to answer.
func startEngine(ctx context.Context, cfg *config.Config, mdl model.Model) (*engine.Supervisor, error) {
	sup := newSupervisor(cfg, mdl)
	if err := sup.Start(ctx); err != nil {
		return nil, err
	}
	fmt.Fprintf(os.Stderr, "loading %s...\n", mdl.DisplayName())

	readyCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	if err := sup.WaitReady(readyCtx); err != nil {
		sup.Stop()
		return nil, fmt.Errorf("engine failed to become ready: %w", err)
	}
	return sup, nil
}

func newSupervisor(cfg *config.Config, mdl model.Model) *engine.Supervisor {
	binary := cfg.Engine.Binary
	if binary == "" {
		binary = "llama-server"
	}
	sup := engine.NewSupervisor(binary, serverArgs(cfg.Engine.BaseURL, mdl)...)
	sup.BaseURL = cfg.Engine.BaseURL
	return sup
}

// serverArgs derives llama-server's listen address from the configured base
// URL, so the spawned process answers where the client will look.
func serverArgs(baseURL string, mdl model.Model) []string {
	host, port := "127.0.0.1", "8080"
	if u, err := url.Parse(baseURL); err == nil {
		if h := u.Hostname(); h != "" {
			host = h
		}
		if p := u.Port(); p != "" {
			port = p
		}
	}
	return []string{"-m", mdl.Path, "--host", host, "--port", port}
}
