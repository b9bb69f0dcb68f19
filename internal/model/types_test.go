package model

import "testing"

func TestOnDisk(t *testing.T) {
	tests := []struct {
		name string
		m    Model
		want bool
	}{
		{"not fetched", Model{Origin: OriginHub}, false},
		{"preset not fetched", Model{Origin: OriginPreset}, false},
		{"downloaded", Model{Origin: OriginHub, Downloaded: true}, true},
		{"imported in place", Model{Local: true}, true},
		{"local origin", Model{Origin: OriginLocal}, true},
	}
	for _, tt := range tests {
		if got := tt.m.OnDisk(); got != tt.want {
			t.Errorf("%s: OnDisk() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	m := Model{Name: "qwen2.5-7b-instruct"}
	if got := m.DisplayName(); got != "qwen2.5-7b-instruct" {
		t.Errorf("DisplayName() = %q", got)
	}

	m = Model{File: "subdir/Llama-3.2-1B-Instruct-Q8_0.gguf"}
	if got := m.DisplayName(); got != "Llama-3.2-1B-Instruct-Q8_0" {
		t.Errorf("DisplayName() = %q", got)
	}
}

func TestQuantFromName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Llama-3.2-1B-Instruct-Q8_0.gguf", "Q8_0"},
		{"model-q4_k_m.gguf", "Q4_K_M"},
		{"weird-name.gguf", ""},
	}
	for _, tt := range tests {
		if got := quantFromName(tt.in); got != tt.want {
			t.Errorf("quantFromName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
