// Package bench runs throughput benchmarks against a local inference engine
// and keeps their results.
package bench

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jeanpaul/alacrity/internal/schema"
)

// Preset describes one benchmark workload. The names follow llama-bench
// conventions: pp measures prompt processing, tg measures token generation.
type Preset struct {
	Name         string  `yaml:"name" json:"name"`
	Description  string  `yaml:"description,omitempty" json:"description,omitempty"`
	PromptTokens int     `yaml:"prompt_tokens" json:"prompt_tokens"`
	GenTokens    int     `yaml:"gen_tokens" json:"gen_tokens"`
	Repetitions  int     `yaml:"repetitions,omitempty" json:"repetitions,omitempty"`
	Temperature  float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	Warmup       bool    `yaml:"warmup,omitempty" json:"warmup,omitempty"`
}

var builtins = []Preset{
	{
		Name:         "pp512",
		Description:  "prompt processing, 512-token prompt",
		PromptTokens: 512,
		GenTokens:    1,
		Repetitions:  3,
		Warmup:       true,
	},
	{
		Name:         "tg128",
		Description:  "token generation, 128 new tokens",
		PromptTokens: 8,
		GenTokens:    128,
		Repetitions:  3,
		Warmup:       true,
	},
	{
		Name:         "quick",
		Description:  "fast sanity run",
		PromptTokens: 64,
		GenTokens:    32,
		Repetitions:  1,
	},
}

// Builtins returns the built-in presets.
func Builtins() []Preset {
	out := make([]Preset, len(builtins))
	copy(out, builtins)
	return out
}

// Builtin finds a built-in preset by name.
func Builtin(name string) (Preset, bool) {
	for _, p := range builtins {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// LoadPreset reads a preset from a YAML file and validates it before use.
func LoadPreset(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Preset{}, fmt.Errorf("parse %s: %w", path, err)
	}
	doc, err := json.Marshal(raw)
	if err != nil {
		return Preset{}, err
	}
	if err := schema.ValidatePreset(string(doc)); err != nil {
		return Preset{}, fmt.Errorf("%s: %w", path, err)
	}
	var p Preset
	if err := json.Unmarshal(doc, &p); err != nil {
		return Preset{}, err
	}
	return p.withDefaults(), nil
}

// ResolvePreset maps a name to a builtin, or a path ending in .yaml/.yml to
// a file.
func ResolvePreset(nameOrPath string) (Preset, error) {
	if p, ok := Builtin(nameOrPath); ok {
		return p.withDefaults(), nil
	}
	if strings.HasSuffix(nameOrPath, ".yaml") || strings.HasSuffix(nameOrPath, ".yml") {
		return LoadPreset(nameOrPath)
	}
	return Preset{}, fmt.Errorf("unknown preset %q (builtins: pp512, tg128, quick)", nameOrPath)
}

func (p Preset) withDefaults() Preset {
	if p.Repetitions <= 0 {
		p.Repetitions = 3
	}
	return p
}

// Prompt synthesizes a prompt of roughly PromptTokens tokens. Filler words
// tokenize close to one token each; the engine's own prompt_n count is the
// authoritative figure in results.
func (p Preset) Prompt() string {
	words := []string{"the", "quick", "brown", "fox", "jumps", "over", "lazy", "dogs"}
	var b strings.Builder
	for i := 0; i < p.PromptTokens; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(words[i%len(words)])
	}
	return b.String()
}
