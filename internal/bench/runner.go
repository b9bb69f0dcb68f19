package bench

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeanpaul/alacrity/internal/device"
	"github.com/jeanpaul/alacrity/internal/engine"
	"github.com/jeanpaul/alacrity/internal/logging"
	"github.com/jeanpaul/alacrity/internal/model"
)

type EventType string

const (
	EventStart    EventType = "start"
	EventWarmup   EventType = "warmup"
	EventRepStart EventType = "rep_start"
	EventToken    EventType = "token"
	EventRepDone  EventType = "rep_done"
	EventDone     EventType = "done"
	EventError    EventType = "error"
)

// Event is one step of a benchmark run. Consumers read the channel until it
// closes; the last event is either EventDone or EventError.
type Event struct {
	Type   EventType
	Rep    int // 1-based, 0 during warmup
	Total  int
	Delta  string
	Sample Sample
	Result *Result
	Err    error
}

// Runner drives an engine through a preset and aggregates the measurements.
type Runner struct {
	engine engine.Engine
	dev    device.Info
	log    zerolog.Logger
}

func NewRunner(e engine.Engine, dev device.Info) *Runner {
	return &Runner{engine: e, dev: dev, log: logging.With("bench")}
}

// Run executes the preset against the model currently served by the engine.
// Events stream on the returned channel, which closes when the run ends.
func (r *Runner) Run(ctx context.Context, mdl model.Model, p Preset) <-chan Event {
	p = p.withDefaults()
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		r.run(ctx, mdl, p, events)
	}()
	return events
}

func (r *Runner) run(ctx context.Context, mdl model.Model, p Preset, events chan<- Event) {
	r.log.Info().
		Str("model", mdl.Name).
		Str("preset", p.Name).
		Int("repetitions", p.Repetitions).
		Msg("benchmark starting")
	events <- Event{Type: EventStart, Total: p.Repetitions}

	if p.Warmup {
		events <- Event{Type: EventWarmup, Total: p.Repetitions}
		if _, err := r.runOnce(ctx, p, events, 0); err != nil {
			events <- Event{Type: EventError, Err: err}
			return
		}
	}

	samples := make([]Sample, 0, p.Repetitions)
	for rep := 1; rep <= p.Repetitions; rep++ {
		if err := ctx.Err(); err != nil {
			events <- Event{Type: EventError, Err: err}
			return
		}
		events <- Event{Type: EventRepStart, Rep: rep, Total: p.Repetitions}
		sample, err := r.runOnce(ctx, p, events, rep)
		if err != nil {
			events <- Event{Type: EventError, Rep: rep, Err: err}
			return
		}
		r.log.Debug().
			Int("rep", rep).
			Float64("prompt_tps", sample.PromptTPS).
			Float64("gen_tps", sample.GenTPS).
			Msg("repetition done")
		samples = append(samples, sample)
		events <- Event{Type: EventRepDone, Rep: rep, Total: p.Repetitions, Sample: sample}
	}

	result := newResult(mdl, p, r.engine.Name(), r.dev, samples)
	r.log.Info().
		Str("id", result.ID).
		Float64("prompt_tps", result.PromptTPS).
		Float64("gen_tps", result.GenTPS).
		Msg("benchmark done")
	events <- Event{Type: EventDone, Result: &result}
}

// runOnce performs a single completion and measures it. Server-reported
// timings win when present; otherwise throughput falls back to wall-clock
// measurement with token counts from usage, or a rough len/4 estimate.
func (r *Runner) runOnce(ctx context.Context, p Preset, events chan<- Event, rep int) (Sample, error) {
	req := engine.Request{
		Prompt:      p.Prompt(),
		MaxTokens:   p.GenTokens,
		Temperature: p.Temperature,
	}
	start := time.Now()
	ch, err := r.engine.Complete(ctx, req)
	if err != nil {
		return Sample{}, err
	}

	var (
		firstAt time.Time
		text    strings.Builder
		timings *engine.Timings
		usage   *engine.Usage
	)
	for chunk := range ch {
		if chunk.Error != nil {
			return Sample{}, chunk.Error
		}
		if chunk.Delta != "" {
			if firstAt.IsZero() {
				firstAt = time.Now()
			}
			text.WriteString(chunk.Delta)
			if rep > 0 {
				events <- Event{Type: EventToken, Rep: rep, Delta: chunk.Delta}
			}
		}
		if chunk.Timings != nil {
			timings = chunk.Timings
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
	}
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}

	var sample Sample
	if !firstAt.IsZero() {
		sample.TTFBMS = float64(firstAt.Sub(start).Microseconds()) / 1000
	}
	if timings != nil {
		sample.PromptTPS = timings.PromptTPS()
		sample.GenTPS = timings.PredictedTPS()
		return sample, nil
	}

	genTokens := len(text.String()) / 4
	promptTokens := p.PromptTokens
	if usage != nil {
		genTokens = usage.CompletionTokens
		promptTokens = usage.PromptTokens
	}
	if !firstAt.IsZero() {
		if ttfb := firstAt.Sub(start).Seconds(); ttfb > 0 {
			sample.PromptTPS = float64(promptTokens) / ttfb
		}
		if genSecs := time.Since(firstAt).Seconds(); genSecs > 0 {
			sample.GenTPS = float64(genTokens) / genSecs
		}
	}
	return sample, nil
}
