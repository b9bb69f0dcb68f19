package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/jeanpaul/alacrity/internal/bench"
	"github.com/jeanpaul/alacrity/internal/config"
	"github.com/jeanpaul/alacrity/internal/device"
	"github.com/jeanpaul/alacrity/internal/engine"
	"github.com/jeanpaul/alacrity/internal/headless"
	"github.com/jeanpaul/alacrity/internal/health"
	"github.com/jeanpaul/alacrity/internal/logging"
	"github.com/jeanpaul/alacrity/internal/model"
	"github.com/jeanpaul/alacrity/internal/setup"
	"github.com/jeanpaul/alacrity/internal/storage"
	"github.com/jeanpaul/alacrity/internal/tui"
	"github.com/jeanpaul/alacrity/pkg/version"
)

func main() {
	modelFlag := flag.String("model", "", "Model name (overrides engine.model from config)")
	jsonFlag := flag.Bool("json", false, "Machine-readable output where supported")
	spawnFlag := flag.Bool("spawn", false, "Start llama-server for the duration of the benchmark")
	repsFlag := flag.Int("reps", 0, "Override benchmark repetitions")
	versionFlag := flag.Bool("version", false, "Print version")
	helpFlag := flag.Bool("help", false, "Show help")
	flag.BoolVar(helpFlag, "h", false, "Show help")

	flag.Usage = showHelp
	flag.Parse()

	if *helpFlag {
		showHelp()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("alacrity %s (%s, %s)\n", version.Version, version.Commit, version.Date)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) > 0 {
		switch args[0] {
		case "bench":
			rest := parseSubArgs(args[1:])
			presetName := ""
			if len(rest) > 0 {
				presetName = rest[0]
			}
			cmdBench(presetName, *modelFlag, *jsonFlag, *spawnFlag, *repsFlag)
			return
		case "models":
			cmdModels()
			return
		case "pull":
			if len(args) < 2 {
				fatal("usage: alacrity pull <model|repo|repo/file.gguf|path.gguf>")
			}
			cmdPull(args[1])
			return
		case "remove":
			if len(args) < 2 {
				fatal("usage: alacrity remove <model-name>")
			}
			cmdRemove(args[1])
			return
		case "search":
			query := ""
			if len(args) > 1 {
				query = strings.Join(args[1:], " ")
			}
			cmdSearch(query)
			return
		case "results":
			rest := parseSubArgs(args[1:])
			cmdResults(rest, *jsonFlag)
			return
		case "card":
			if len(args) < 2 {
				fatal("usage: alacrity card <model|repo>")
			}
			cmdCard(args[1])
			return
		case "device":
			parseSubArgs(args[1:])
			cmdDevice(*jsonFlag)
			return
		case "doctor":
			cmdDoctor()
			return
		case "serve":
			if len(args) < 2 {
				fatal("usage: alacrity serve <model-name>")
			}
			cmdServe(args[1])
			return
		case "setup":
			cmdSetup()
			return
		case "help":
			showHelp()
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s. Assuming it is a prompt.\n", args[0])
			cmdAsk(strings.Join(args, " "))
			return
		}
	}

	launchTUI(*modelFlag)
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fatal("config error: %s", err)
	}
	return cfg
}

// makeEngine builds the client for the configured inference server.
func makeEngine(cfg *config.Config) engine.Engine {
	apiKey := os.Getenv("ALACRITY_API_KEY")
	switch cfg.Engine.Type {
	case "openai":
		return engine.NewOpenAICompat(cfg.Engine.BaseURL, apiKey, cfg.Engine.Model)
	default:
		return engine.NewLlamaCpp(cfg.Engine.BaseURL, apiKey)
	}
}

func buildDeps(cfg *config.Config) (tui.Deps, error) {
	store, err := model.OpenStore(cfg.ModelsDir)
	if err != nil {
		return tui.Deps{}, err
	}
	results, err := bench.OpenResultStore(filepath.Join(cfg.DataDir, "results"))
	if err != nil {
		return tui.Deps{}, err
	}

	checker := device.NewChecker(cfg.ModelsDir, cfg.Storage.ReserveBytes, cfg.Memory.Overhead)
	eng := engine.WithRetry(makeEngine(cfg), 3)

	return tui.Deps{
		Engine:      eng,
		Store:       store,
		Downloader:  model.NewDownloader(store, checker, os.Getenv("HF_TOKEN")),
		Storage:     storage.NewMonitor(checker, checker),
		StorageOpts: storage.Options{Once: !cfg.Storage.Periodic, Interval: cfg.Storage.CheckInterval},
		Memory:      storage.NewMemMonitor(checker, cfg.Memory.Overhead),
		MemoryOpts:  storage.Options{Interval: cfg.Memory.CheckInterval},
		Runner:      bench.NewRunner(eng, device.Snapshot(cfg.ModelsDir)),
		Results:     results,
		SessionDir:  filepath.Join(cfg.DataDir, "sessions"),
		ChatTokens:  cfg.Chat.MaxTokens,
		ChatSystem:  cfg.Chat.SystemPrompt,
		Version:     version.Version,
	}, nil
}

// launchTUI starts the interactive interface after a quick engine pre-flight.
func launchTUI(modelOverride string) {
	cfg := loadConfig()
	if err := logging.Setup(cfg.Log.Level, cfg.Log.File); err != nil {
		fatal("%s", err)
	}

	modelName := cfg.Engine.Model
	if modelOverride != "" {
		modelName = modelOverride
	}

	fmt.Print(tui.BannerStyle.Render(tui.Banner))
	label := modelName
	if label == "" {
		label = "no model"
	}
	fmt.Printf("\n  %s  %s\n", tui.StatusModelStyle.Render(" "+label+" "), tui.StatusBarStyle.Render(" "+cfg.Engine.Type+" "))

	fmt.Printf("  %s", tui.SpinnerStyle.Render("● Checking engine..."))
	h, err := probeEngine(cfg)
	if err != nil {
		fmt.Printf("\r  %s\n", tui.ErrorStyle.Render("✗ "+err.Error()))
		if setup.Run(cfg) {
			h, err = probeEngine(cfg)
		}
		if err != nil {
			fmt.Printf("  %s\n\n", tui.HelpStyle.Render("Run 'alacrity doctor' for diagnostics"))
			os.Exit(1)
		}
	}
	if h.Ready {
		fmt.Printf("\r  %s\n", tui.SuccessStyle.Render("✓ Engine ready"))
	} else {
		fmt.Printf("\r  %s\n", tui.WarningStyle.Render("● Engine up, "+h.Status))
	}
	fmt.Println()

	deps, err := buildDeps(cfg)
	if err != nil {
		fatal("%s", err)
	}

	// Catalog refresh when GGUF files change outside the app. Not fatal:
	// the picker just goes static without it.
	if w, err := model.WatchDir(deps.Store.Dir()); err == nil {
		deps.Watcher = w
		defer w.Close()
	} else {
		logging.Warn().Err(err).Msg("models dir watch unavailable")
	}

	var initial *model.Model
	if modelName != "" {
		if mdl, err := deps.Store.Resolve(context.Background(), modelName); err == nil {
			initial = &mdl
		}
	}

	m := tui.NewModel(deps, initial)

	var opts []tea.ProgramOption
	if isTerminal() {
		opts = append(opts, tea.WithAltScreen())
	}
	opts = append(opts, tea.WithMouseCellMotion())

	p := tea.NewProgram(m, opts...)
	if _, err := p.Run(); err != nil {
		fatal("TUI error: %s", err)
	}
}

func probeEngine(cfg *config.Config) (engine.Health, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return engine.CheckHealth(ctx, cfg.Engine.BaseURL)
}

func cmdSetup() {
	cfg, err := config.Load()
	if err != nil {
		// Setup exists to repair a broken config; start over from defaults.
		cfg = config.DefaultConfig()
	}
	fmt.Print(tui.BannerStyle.Render(tui.Banner))
	if !setup.Run(cfg) {
		os.Exit(1)
	}

	// Setup succeeded; go straight into the TUI instead of asking the user
	// to run alacrity again.
	fmt.Println()
	launchTUI("")
}

// cmdAsk streams a one-shot answer to stdout, so alacrity works in pipes.
func cmdAsk(prompt string) {
	cfg := loadConfig()
	if err := logging.SetupConsole(cfg.Log.Level); err != nil {
		fatal("%s", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	eng := engine.WithRetry(makeEngine(cfg), 3)
	if err := headless.Chat(ctx, eng, prompt, os.Stdout, os.Stderr); err != nil {
		fatal("%s", err)
	}
}

func cmdDevice(jsonOut bool) {
	cfg := loadConfig()
	info := device.Snapshot(cfg.ModelsDir)

	if jsonOut {
		enc := newJSONEncoder(os.Stdout)
		if err := enc.Encode(info); err != nil {
			fatal("%s", err)
		}
		return
	}

	fmt.Println(tui.BannerStyle.Render("  Device"))
	fmt.Println()
	row := func(k, v string) {
		fmt.Printf("  %-12s %s\n", tui.UserLabelStyle.Render(k), v)
	}
	row("host", info.Hostname)
	row("platform", info.OS+"/"+info.Arch)
	row("cpus", fmt.Sprintf("%d", info.CPUs))
	row("ram", humanize.Bytes(info.TotalRAM))
	if avail, err := device.AvailableMemory(); err == nil {
		row("ram free", humanize.Bytes(avail))
	}
	row("disk free", humanize.Bytes(info.FreeDisk)+"  ("+cfg.ModelsDir+")")
	row("go", info.GoVersion)
	fmt.Println()
	fmt.Println(tui.HelpStyle.Render("  Label: " + info.Label()))
}

func cmdDoctor() {
	cfg := loadConfig()

	fmt.Print(tui.BannerStyle.Render(tui.Banner))
	fmt.Println(tui.BannerStyle.Render("  Health Check"))
	fmt.Println()

	checks := health.RunAll(context.Background(), cfg)
	failed := 0
	for _, c := range checks {
		fmt.Printf("  %s %s ... ",
			tui.SpinnerStyle.Render("●"),
			tui.UserLabelStyle.Render(c.Name),
		)
		if c.OK {
			latency := ""
			if c.Latency > 0 {
				latency = " " + c.Latency.Round(time.Millisecond).String()
			}
			fmt.Printf("%s %s%s\n",
				tui.SuccessStyle.Render("✓ OK"),
				tui.HelpStyle.Render(c.Detail),
				tui.HelpStyle.Render(latency),
			)
		} else {
			failed++
			fmt.Printf("%s\n", tui.ErrorStyle.Render("✗ "+c.Err))
			if c.Detail != "" {
				fmt.Printf("      %s\n", tui.HelpStyle.Render(c.Detail))
			}
		}
	}

	fmt.Println()
	if failed == 0 {
		fmt.Println(tui.SuccessStyle.Render("  All checks passed."))
		return
	}
	fmt.Println(tui.ErrorStyle.Render(fmt.Sprintf("  %d check(s) failed.", failed)))
	fmt.Println(tui.HelpStyle.Render("  Run 'alacrity setup' to reconfigure."))
	os.Exit(1)
}

// parseSubArgs lets flags follow the subcommand, so both
// `alacrity --json bench` and `alacrity bench tg128 --json` work. Returns the
// positional arguments with the flags consumed.
func parseSubArgs(args []string) []string {
	var positional []string
	for {
		flag.CommandLine.Parse(args)
		rest := flag.CommandLine.Args()
		if len(rest) == 0 {
			return positional
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// signalContext returns a context cancelled on Ctrl+C or SIGTERM, so long
// operations clean up (partial downloads stay resumable, servers get TERM).
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newJSONEncoder(w *os.File) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc
}

// isTerminal reports whether stdin is attached to a terminal.
func isTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func fatal(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, tui.ErrorStyle.Render("error: "+msg))
	os.Exit(1)
}

func showHelp() {
	help := `
` + tui.BannerStyle.Render("alacrity") + ` - benchmark and chat with local GGUF models

` + tui.UserLabelStyle.Render("USAGE:") + `
  alacrity [flags]            Start the interactive TUI
  alacrity <command> [args]   Run a command

` + tui.UserLabelStyle.Render("COMMANDS:") + `
  bench [preset]              Benchmark the active model (pp512, tg128, quick, or a .yaml)
  bench list                  Show the built-in presets
  models                      List local and curated models with disk fit
  pull <ref>                  Download a GGUF (preset name, HF repo, repo/file.gguf, or a local .gguf)
  remove <model>              Delete a downloaded model
  search <query>              Search HuggingFace for GGUF models
  results [list|show|export|diff|submit|top|remove]
                              Manage benchmark results
  card <model|repo>           Fetch and render a model card
  device                      Show the device snapshot
  doctor                      Check engine, config, disk and memory
  serve <model>               Run llama-server for a local model
  setup                       First-run wizard
  help                        Show this help

` + tui.UserLabelStyle.Render("FLAGS:") + `
  --model <name>              Use a specific model (TUI and bench)
  --json                      Machine-readable output (bench, results, device)
  --spawn                     bench: start llama-server itself for the run
  --reps <n>                  bench: override repetitions
  --version                   Show version
  --help, -h                  Show this help

` + tui.UserLabelStyle.Render("EXAMPLES:") + `
  alacrity                    Chat with the configured model
  alacrity bench tg128        Measure token generation throughput
  alacrity bench --json > r.json
  alacrity pull gemma-2-2b-it Download a curated model
  alacrity results diff a1b2 c3d4
  alacrity serve gemma-2-2b-it
                              Start a local server on the configured port

` + tui.UserLabelStyle.Render("CHAT COMMANDS:") + `
  /models                     Pick a model
  /bench [preset]             Run a benchmark
  /results                    Recent results
  /storage                    Disk and memory headroom
  /help                       Everything else

` + tui.HelpStyle.Render("Config: "+config.Path()) + `
`
	fmt.Println(help)
}
