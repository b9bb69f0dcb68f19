// Package logging configures the process-wide zerolog logger.
//
// The TUI owns the terminal, so by default everything goes to a log file under
// the state directory. Commands that never start the TUI (doctor, headless
// bench) can opt into a colored console writer on stderr instead.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	Logger  zerolog.Logger
	logFile *os.File
)

func init() {
	// Until Setup runs, discard. Library code can log freely without
	// scribbling over a TUI that might already own the terminal.
	Logger = zerolog.New(nil).Level(zerolog.Disabled)
	log.Logger = Logger
}

// Setup opens the log file and installs the global logger. An empty path
// resolves to $XDG_STATE_HOME/alacrity/alacrity.log.
func Setup(level, path string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}

	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if logFile != nil {
		logFile.Close()
	}
	logFile = f

	Logger = zerolog.New(f).Level(lvl).With().Timestamp().Logger()
	log.Logger = Logger
	return nil
}

// SetupConsole logs to stderr with the colored console writer. Used by
// commands that own stdout/stderr themselves.
func SetupConsole(level string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}
	Logger = zerolog.New(output).Level(lvl).With().Timestamp().Logger()
	log.Logger = Logger
	return nil
}

// DefaultPath returns the default log file location.
func DefaultPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "alacrity", "alacrity.log")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "alacrity", "alacrity.log")
}

// With returns a child logger tagged with a component name.
func With(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

func Debug() *zerolog.Event { return Logger.Debug() }
func Info() *zerolog.Event  { return Logger.Info() }
func Warn() *zerolog.Event  { return Logger.Warn() }
func Error() *zerolog.Event { return Logger.Error() }

func parseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
	return lvl, nil
}
