// Package setup is the interactive first-run wizard: probe the machine, find
// an inference engine, pick a models directory, size a starter model to the
// available RAM, and write the config.
package setup

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jeanpaul/alacrity/internal/config"
	"github.com/jeanpaul/alacrity/internal/device"
	"github.com/jeanpaul/alacrity/internal/engine"
	"github.com/jeanpaul/alacrity/internal/model"
)

// Styles - we use simple ANSI codes to avoid importing tui (the wizard runs
// before the TUI does)
const (
	green  = "\033[32m"
	yellow = "\033[33m"
	red    = "\033[31m"
	bold   = "\033[1m"
	reset  = "\033[0m"
	dim    = "\033[2m"
)

func info(msg string)    { fmt.Printf("  %s●%s %s\n", green, reset, msg) }
func warn(msg string)    { fmt.Printf("  %s●%s %s\n", yellow, reset, msg) }
func fail(msg string)    { fmt.Printf("  %s●%s %s\n", red, reset, msg) }
func success(msg string) { fmt.Printf("  %s%s✓ %s%s\n", green, bold, msg, reset) }
func step(msg string)    { fmt.Printf("\n  %s%s%s\n", bold, msg, reset) }

// askYN prompts the user for y/n input. Default is the value returned on empty input.
func askYN(prompt string, defaultYes bool) bool {
	hint := "[Y/n]"
	if !defaultYes {
		hint = "[y/N]"
	}
	fmt.Printf("  %s%s%s%s %s ", yellow, bold, prompt, reset, hint)

	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))

	if line == "" {
		return defaultYes
	}
	return line == "y" || line == "yes"
}

// askLine prompts for a string, returning def on empty input.
func askLine(prompt, def string) string {
	fmt.Printf("  %s%s%s%s %s[%s]%s ", yellow, bold, prompt, reset, dim, def, reset)

	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)

	if line == "" {
		return def
	}
	return line
}

// --- Detection ---

// IsEngineRunning reports whether something answers the health endpoint at
// baseURL. A server still loading its model counts as running.
func IsEngineRunning(baseURL string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := engine.CheckHealth(ctx, baseURL)
	return err == nil
}

// FindEngineBinary looks for a llama-server binary on PATH, trying the
// configured name first.
func FindEngineBinary(configured string) (string, bool) {
	for _, c := range []string{configured, "llama-server"} {
		if c == "" {
			continue
		}
		if path, err := exec.LookPath(c); err == nil {
			return path, true
		}
	}
	return "", false
}

// --- Main Wizard ---

// Run walks the user through first-run configuration. It mutates cfg in place
// and writes it on success.
func Run(cfg *config.Config) bool {
	fmt.Println()
	step("Alacrity Setup")
	fmt.Printf("  %sLet's check this machine and write a config.%s\n", dim, reset)

	probeDevice(cfg)

	if !setupEngine(cfg) {
		warn("Continuing without an engine. Chat and bench need one running.")
	}

	if !setupModelsDir(cfg) {
		return false
	}

	setupStarterModel(cfg)

	path, err := cfg.Save()
	if err != nil {
		fail("Could not write config: " + err.Error())
		return false
	}
	fmt.Println()
	success("Config written to " + path)
	info("Run " + green + "alacrity" + reset + " to start.")
	return true
}

func probeDevice(cfg *config.Config) {
	step("Checking this machine")

	dir := cfg.ModelsDir
	if _, err := os.Stat(dir); err != nil {
		dir = "."
	}
	dev := device.Snapshot(dir)
	info(fmt.Sprintf("%s/%s, %d CPUs", dev.OS, dev.Arch, dev.CPUs))
	if dev.TotalRAM > 0 {
		avail, _ := device.AvailableMemory()
		info(fmt.Sprintf("RAM: %s installed, %s available",
			humanize.Bytes(dev.TotalRAM), humanize.Bytes(avail)))
	}
	if dev.FreeDisk > 0 {
		info(fmt.Sprintf("Disk: %s free", humanize.Bytes(dev.FreeDisk)))
	}
}

func setupEngine(cfg *config.Config) bool {
	step("Looking for an inference engine")

	if IsEngineRunning(cfg.Engine.BaseURL) {
		success("Engine answering at " + cfg.Engine.BaseURL)
		return true
	}
	info("Nothing answering at " + cfg.Engine.BaseURL)

	if path, ok := FindEngineBinary(cfg.Engine.Binary); ok {
		success("Found llama-server at " + path)
		cfg.Engine.Binary = path
		info("Start it any time with: " + green + "alacrity serve <model>" + reset)
		return true
	}

	warn("llama-server is not installed")
	fmt.Printf("  %sInstall options:%s\n", bold, reset)
	fmt.Printf("  1. Homebrew:  %sbrew install llama.cpp%s\n", green, reset)
	fmt.Printf("  2. Releases:  %shttps://github.com/ggml-org/llama.cpp/releases%s\n", green, reset)
	fmt.Printf("  3. Any OpenAI-compatible server works too (LM Studio, Ollama)\n")
	return false
}

func setupModelsDir(cfg *config.Config) bool {
	step("Models directory")

	dir := askLine("Where should models live?", cfg.ModelsDir)
	store, err := model.OpenStore(dir)
	if err != nil {
		fail(err.Error())
		return false
	}
	cfg.ModelsDir = dir

	models, err := store.List(context.Background())
	if err == nil && len(models) > 0 {
		success(fmt.Sprintf("Found %d GGUF model(s) already there", len(models)))
	} else {
		info("No models there yet")
	}
	return true
}

func setupStarterModel(cfg *config.Config) {
	step("Starter model")

	avail, err := device.AvailableMemory()
	if err != nil {
		warn("Could not read available RAM, skipping the recommendation")
		return
	}
	fit := model.Recommend(avail, cfg.Memory.Overhead)
	if len(fit) == 0 {
		warn(fmt.Sprintf("No preset model fits in %s of RAM", humanize.Bytes(avail)))
		return
	}

	pick := fit[0]
	info(fmt.Sprintf("Best fit for this machine: %s%s%s (%s %s, %s)",
		bold, pick.Name, reset, pick.Params, pick.Quant, humanize.Bytes(uint64(pick.SizeBytes))))
	if !askYN(fmt.Sprintf("Download %s now?", pick.Name), true) {
		info("Skipped. Pull it later with: alacrity pull " + pick.Name)
		return
	}

	if err := downloadStarter(cfg, pick); err != nil {
		fail(err.Error())
		return
	}
	cfg.Engine.Model = pick.Name
	success(fmt.Sprintf("Model %s ready", pick.Name))
}

func downloadStarter(cfg *config.Config, pick model.Model) error {
	store, err := model.OpenStore(cfg.ModelsDir)
	if err != nil {
		return err
	}
	guard := device.NewChecker(cfg.ModelsDir, cfg.Storage.ReserveBytes, cfg.Memory.Overhead)
	dl := model.NewDownloader(store, guard, os.Getenv("HF_TOKEN"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	info("This may take a while depending on model size and network speed")
	_, err = dl.Download(ctx, pick, printProgress)
	fmt.Println()
	return err
}

func printProgress(p model.Progress) {
	if p.Total <= 0 {
		fmt.Printf("\r  %s received", humanize.Bytes(uint64(p.Received)))
		return
	}
	bar := int(p.Percent) / 2
	if bar > 50 {
		bar = 50
	}
	fmt.Printf("\r  [%s%s%s%s] %3.0f%%  %s",
		green, strings.Repeat("█", bar), reset, strings.Repeat("░", 50-bar),
		p.Percent,
		dim+humanize.Bytes(uint64(p.Received))+"/"+humanize.Bytes(uint64(p.Total))+reset)
}
