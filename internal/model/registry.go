package model

import "sort"

// presets is the built-in catalog of known-good instruct models. Sizes are
// the GGUF file sizes as published, used for space and memory checks before
// anything is fetched.
var presets = []Model{
	{
		Name:      "llama-3.2-1b-instruct",
		Repo:      "bartowski/Llama-3.2-1B-Instruct-GGUF",
		File:      "Llama-3.2-1B-Instruct-Q8_0.gguf",
		SizeBytes: 1_321_079_200,
		Quant:     "Q8_0",
		Params:    "1B",
		Origin:    OriginPreset,
	},
	{
		Name:      "llama-3.2-3b-instruct",
		Repo:      "bartowski/Llama-3.2-3B-Instruct-GGUF",
		File:      "Llama-3.2-3B-Instruct-Q4_K_M.gguf",
		SizeBytes: 2_019_377_440,
		Quant:     "Q4_K_M",
		Params:    "3B",
		Origin:    OriginPreset,
	},
	{
		Name:      "smollm2-1.7b-instruct",
		Repo:      "bartowski/SmolLM2-1.7B-Instruct-GGUF",
		File:      "SmolLM2-1.7B-Instruct-Q8_0.gguf",
		SizeBytes: 1_820_414_560,
		Quant:     "Q8_0",
		Params:    "1.7B",
		Origin:    OriginPreset,
	},
	{
		Name:      "gemma-2-2b-it",
		Repo:      "bartowski/gemma-2-2b-it-GGUF",
		File:      "gemma-2-2b-it-Q4_K_M.gguf",
		SizeBytes: 1_708_582_560,
		Quant:     "Q4_K_M",
		Params:    "2B",
		Origin:    OriginPreset,
	},
	{
		Name:      "phi-3.5-mini-instruct",
		Repo:      "bartowski/Phi-3.5-mini-instruct-GGUF",
		File:      "Phi-3.5-mini-instruct-Q4_K_M.gguf",
		SizeBytes: 2_393_232_608,
		Quant:     "Q4_K_M",
		Params:    "3.8B",
		Origin:    OriginPreset,
	},
	{
		Name:      "qwen2.5-7b-instruct",
		Repo:      "bartowski/Qwen2.5-7B-Instruct-GGUF",
		File:      "Qwen2.5-7B-Instruct-Q4_K_M.gguf",
		SizeBytes: 4_683_071_104,
		Quant:     "Q4_K_M",
		Params:    "7B",
		Origin:    OriginPreset,
	},
	{
		Name:      "mistral-7b-instruct-v0.3",
		Repo:      "bartowski/Mistral-7B-Instruct-v0.3-GGUF",
		File:      "Mistral-7B-Instruct-v0.3-Q4_K_M.gguf",
		SizeBytes: 4_372_811_776,
		Quant:     "Q4_K_M",
		Params:    "7B",
		Origin:    OriginPreset,
	},
}

// Presets returns a copy of the built-in catalog.
func Presets() []Model {
	out := make([]Model, len(presets))
	copy(out, presets)
	return out
}

// Lookup finds a preset by name.
func Lookup(name string) (Model, bool) {
	for _, m := range presets {
		if m.Name == name {
			return m, true
		}
	}
	return Model{}, false
}

// Recommend returns the presets whose estimated load footprint fits in
// availRAM, largest first. overhead scales file size to resident size; values
// below 1 fall back to 1.4.
func Recommend(availRAM uint64, overhead float64) []Model {
	if overhead < 1 {
		overhead = 1.4
	}
	var fit []Model
	for _, m := range presets {
		if uint64(float64(m.SizeBytes)*overhead) <= availRAM {
			fit = append(fit, m)
		}
	}
	sort.Slice(fit, func(i, j int) bool {
		return fit[i].SizeBytes > fit[j].SizeBytes
	})
	return fit
}
