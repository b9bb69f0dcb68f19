package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Engine      EngineConfig      `yaml:"engine" mapstructure:"engine"`
	ModelsDir   string            `yaml:"models_dir" mapstructure:"models_dir"`
	DataDir     string            `yaml:"data_dir" mapstructure:"data_dir"`
	Storage     StorageConfig     `yaml:"storage" mapstructure:"storage"`
	Memory      MemoryConfig      `yaml:"memory" mapstructure:"memory"`
	Chat        ChatConfig        `yaml:"chat" mapstructure:"chat"`
	Bench       BenchConfig       `yaml:"bench" mapstructure:"bench"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard" mapstructure:"leaderboard"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Theme       string            `yaml:"theme" mapstructure:"theme"`
}

type EngineConfig struct {
	Type    string `yaml:"type" mapstructure:"type"`         // "llamacpp" or "openai"
	BaseURL string `yaml:"base_url" mapstructure:"base_url"` // where the server listens
	Binary  string `yaml:"binary" mapstructure:"binary"`     // llama-server path for `alacrity serve`
	Model   string `yaml:"model" mapstructure:"model"`       // default model name
}

type StorageConfig struct {
	CheckInterval time.Duration `yaml:"check_interval" mapstructure:"check_interval"`
	Periodic      bool          `yaml:"periodic" mapstructure:"periodic"`
	ReserveBytes  int64         `yaml:"reserve_bytes" mapstructure:"reserve_bytes"`
}

type MemoryConfig struct {
	CheckInterval time.Duration `yaml:"check_interval" mapstructure:"check_interval"`
	Overhead      float64       `yaml:"overhead" mapstructure:"overhead"`
}

type ChatConfig struct {
	MaxTokens    int    `yaml:"max_tokens" mapstructure:"max_tokens"` // context budget before compaction
	SystemPrompt string `yaml:"system_prompt" mapstructure:"system_prompt"`
}

type BenchConfig struct {
	Preset      string `yaml:"preset" mapstructure:"preset"`
	Repetitions int    `yaml:"repetitions" mapstructure:"repetitions"`
}

type LeaderboardConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	DeviceLabel string `yaml:"device_label" mapstructure:"device_label"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file" mapstructure:"file"`
}

var envVarRe = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)

func expandEnv(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "$")
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Type:    "llamacpp",
			BaseURL: "http://localhost:8080",
			Binary:  "llama-server",
		},
		ModelsDir: filepath.Join(dataHome(), "alacrity", "models"),
		DataDir:   filepath.Join(dataHome(), "alacrity"),
		Storage: StorageConfig{
			CheckInterval: 10 * time.Second,
			Periodic:      true,
			ReserveBytes:  1 << 30, // keep 1 GiB headroom after a download
		},
		Memory: MemoryConfig{
			CheckInterval: 30 * time.Second,
			Overhead:      1.4,
		},
		Chat: ChatConfig{
			MaxTokens: 8192,
		},
		Bench: BenchConfig{
			Preset:      "tg128",
			Repetitions: 3,
		},
		Leaderboard: LeaderboardConfig{
			BaseURL: "https://bench.alacrity.dev/api/v1",
		},
		Log: LogConfig{
			Level: "info",
		},
		Theme: "green",
	}
}

func dataHome() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return xdg
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share")
}

func Path() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "alacrity", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "alacrity", "config.yaml")
}

func Load() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths
	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "alacrity"))
	}
	home, _ := os.UserHomeDir()
	viper.AddConfigPath(filepath.Join(home, ".config", "alacrity"))

	// Environment variables
	viper.SetEnvPrefix("ALACRITY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error produced
			return nil, err
		}
		// Config file not found; ignore and use defaults
	}

	// Unmarshal
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// Manual expansion for keys in config file
	cfg.Engine.BaseURL = expandEnv(cfg.Engine.BaseURL)
	cfg.ModelsDir = expandEnv(cfg.ModelsDir)
	cfg.DataDir = expandEnv(cfg.DataDir)
	cfg.Leaderboard.BaseURL = expandEnv(cfg.Leaderboard.BaseURL)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the default config path. Used by the
// setup wizard.
func (c *Config) Save() (string, error) {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, data, 0644)
}

// Validate checks the configuration for errors and repairs the values that
// have sane fallbacks.
func (c *Config) Validate() error {
	switch c.Engine.Type {
	case "llamacpp", "openai":
	default:
		return fmt.Errorf("config: engine type %q invalid (must be llamacpp or openai)", c.Engine.Type)
	}
	if c.Engine.BaseURL == "" {
		return fmt.Errorf("config: engine.base_url is required")
	}
	if c.ModelsDir == "" {
		return fmt.Errorf("config: models_dir is required")
	}
	if c.Storage.CheckInterval <= 0 {
		c.Storage.CheckInterval = 10 * time.Second
	}
	if c.Storage.ReserveBytes < 0 {
		c.Storage.ReserveBytes = 0
	}
	if c.Memory.CheckInterval <= 0 {
		c.Memory.CheckInterval = 30 * time.Second
	}
	if c.Memory.Overhead < 1 {
		c.Memory.Overhead = 1.4
	}
	if c.Chat.MaxTokens < 1 {
		c.Chat.MaxTokens = 8192
	}
	if c.Bench.Repetitions < 1 {
		c.Bench.Repetitions = 3
	}
	return nil
}
