// Package engine talks to llama.cpp-compatible inference servers. Two
// implementations exist: the native llama-server API, which reports token
// timings, and the OpenAI-compatible API spoken by most local runtimes.
package engine

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is one completion. Prompt takes the raw-completion path used by
// benchmarks; Messages take the chat path where the server applies the
// model's template. Exactly one of the two should be set.
type Request struct {
	Prompt      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Timings is llama.cpp's own measurement of a completion.
type Timings struct {
	PromptN     int     `json:"prompt_n"`
	PromptMS    float64 `json:"prompt_ms"`
	PredictedN  int     `json:"predicted_n"`
	PredictedMS float64 `json:"predicted_ms"`
}

// PromptTPS returns prompt-processing throughput in tokens per second.
func (t Timings) PromptTPS() float64 {
	if t.PromptMS <= 0 {
		return 0
	}
	return float64(t.PromptN) / t.PromptMS * 1000
}

// PredictedTPS returns generation throughput in tokens per second.
func (t Timings) PredictedTPS() float64 {
	if t.PredictedMS <= 0 {
		return 0
	}
	return float64(t.PredictedN) / t.PredictedMS * 1000
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Chunk is one streamed piece of a completion. The final chunk has Done set
// and carries Timings or Usage when the server reported them.
type Chunk struct {
	Delta   string
	Done    bool
	Timings *Timings
	Usage   *Usage
	Error   error
}

// Engine streams completions from an inference server.
type Engine interface {
	Complete(ctx context.Context, req Request) (<-chan Chunk, error)
	Name() string
}
