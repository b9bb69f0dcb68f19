package schema

// PresetSchema constrains benchmark preset files. Presets come from the
// user's config directory, so a typo should fail loudly before a run starts.
const PresetSchema = `{
	"type": "object",
	"required": ["name", "prompt_tokens", "gen_tokens"],
	"additionalProperties": false,
	"properties": {
		"name":            {"type": "string", "minLength": 1},
		"description":     {"type": "string"},
		"prompt_tokens":   {"type": "integer", "minimum": 1},
		"gen_tokens":      {"type": "integer", "minimum": 1},
		"repetitions":     {"type": "integer", "minimum": 1, "maximum": 100},
		"temperature":     {"type": "number", "minimum": 0, "maximum": 2},
		"warmup":          {"type": "boolean"}
	}
}`

// SubmissionSchema constrains leaderboard submissions. The server enforces
// the same shape; validating locally turns a rejected upload into an
// immediate, readable error.
const SubmissionSchema = `{
	"type": "object",
	"required": ["id", "model", "preset", "prompt_tps", "gen_tps", "device"],
	"properties": {
		"id":         {"type": "string", "minLength": 1},
		"model":      {"type": "string", "minLength": 1},
		"quant":      {"type": "string"},
		"params":     {"type": "string"},
		"preset":     {"type": "string", "minLength": 1},
		"prompt_tps": {"type": "number", "minimum": 0},
		"gen_tps":    {"type": "number", "minimum": 0},
		"ttfb_ms":    {"type": "number", "minimum": 0},
		"repetitions": {"type": "integer", "minimum": 1},
		"ran_at":     {"type": "string"},
		"label":      {"type": "string"},
		"device": {
			"type": "object",
			"required": ["os", "arch", "cpus"],
			"properties": {
				"os":         {"type": "string", "minLength": 1},
				"arch":       {"type": "string", "minLength": 1},
				"hostname":   {"type": "string"},
				"cpus":       {"type": "integer", "minimum": 1},
				"go_version": {"type": "string"},
				"total_ram":  {"type": "integer", "minimum": 0},
				"free_disk":  {"type": "integer", "minimum": 0}
			}
		}
	}
}`
