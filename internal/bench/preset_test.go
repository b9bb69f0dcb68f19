package bench

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuiltinLookup(t *testing.T) {
	for _, name := range []string{"pp512", "tg128", "quick"} {
		p, ok := Builtin(name)
		if !ok {
			t.Fatalf("Builtin(%q) not found", name)
		}
		if p.Name != name {
			t.Errorf("Name = %q, want %q", p.Name, name)
		}
		if p.PromptTokens < 1 || p.GenTokens < 1 {
			t.Errorf("%s has non-positive token counts: %+v", name, p)
		}
	}

	if _, ok := Builtin("nope"); ok {
		t.Error("Builtin(nope) should not be found")
	}
}

func TestBuiltinsReturnsCopy(t *testing.T) {
	got := Builtins()
	got[0].Name = "mutated"
	if builtins[0].Name == "mutated" {
		t.Error("Builtins() exposed the internal slice")
	}
}

func TestLoadPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mine.yaml")
	content := `name: mine
description: custom run
prompt_tokens: 256
gen_tokens: 64
repetitions: 5
temperature: 0.2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPreset(path)
	if err != nil {
		t.Fatalf("LoadPreset: %v", err)
	}
	if p.Name != "mine" {
		t.Errorf("Name = %q, want mine", p.Name)
	}
	if p.PromptTokens != 256 || p.GenTokens != 64 {
		t.Errorf("tokens = %d/%d, want 256/64", p.PromptTokens, p.GenTokens)
	}
	if p.Repetitions != 5 {
		t.Errorf("Repetitions = %d, want 5", p.Repetitions)
	}
	if p.Temperature != 0.2 {
		t.Errorf("Temperature = %v, want 0.2", p.Temperature)
	}
	if p.Warmup {
		t.Error("Warmup should default to false")
	}
}

func TestLoadPresetRejectsMissingField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("name: broken\nprompt_tokens: 10\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadPreset(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "gen_tokens") {
		t.Errorf("error should name the missing field, got: %v", err)
	}
}

func TestLoadPresetRejectsUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yaml")
	content := "name: typo\nprompt_tokens: 10\ngen_tokens: 10\nrepetitons: 3\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadPreset(path); err == nil {
		t.Fatal("misspelled field should fail validation")
	}
}

func TestLoadPresetDefaultsRepetitions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "min.yaml")
	if err := os.WriteFile(path, []byte("name: min\nprompt_tokens: 1\ngen_tokens: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPreset(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Repetitions != 3 {
		t.Errorf("Repetitions = %d, want default 3", p.Repetitions)
	}
}

func TestResolvePreset(t *testing.T) {
	p, err := ResolvePreset("tg128")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "tg128" {
		t.Errorf("Name = %q, want tg128", p.Name)
	}

	_, err = ResolvePreset("made-up")
	if err == nil {
		t.Fatal("unknown name should error")
	}
	if !strings.Contains(err.Error(), "made-up") {
		t.Errorf("error should name the preset, got: %v", err)
	}
}

func TestPromptLength(t *testing.T) {
	p := Preset{PromptTokens: 32}
	words := strings.Fields(p.Prompt())
	if len(words) != 32 {
		t.Errorf("prompt has %d words, want 32", len(words))
	}

	if got := (Preset{PromptTokens: 1}).Prompt(); got != "the" {
		t.Errorf("single-token prompt = %q, want \"the\"", got)
	}
}
