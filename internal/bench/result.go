package bench

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jeanpaul/alacrity/internal/device"
	"github.com/jeanpaul/alacrity/internal/model"
	"github.com/jeanpaul/alacrity/internal/schema"
)

// Sample holds the measurements of a single repetition.
type Sample struct {
	PromptTPS float64 `json:"prompt_tps"`
	GenTPS    float64 `json:"gen_tps"`
	TTFBMS    float64 `json:"ttfb_ms,omitempty"`
}

// Result is one finished benchmark. Its JSON form doubles as the leaderboard
// submission payload.
type Result struct {
	ID          string      `json:"id"`
	Model       string      `json:"model"`
	Quant       string      `json:"quant,omitempty"`
	Params      string      `json:"params,omitempty"`
	Preset      string      `json:"preset"`
	PromptTPS   float64     `json:"prompt_tps"`
	GenTPS      float64     `json:"gen_tps"`
	TTFBMS      float64     `json:"ttfb_ms,omitempty"`
	Repetitions int         `json:"repetitions"`
	RanAt       time.Time   `json:"ran_at"`
	Label       string      `json:"label,omitempty"`
	Engine      string      `json:"engine,omitempty"`
	Device      device.Info `json:"device"`
	Samples     []Sample    `json:"samples,omitempty"`
}

func newResult(mdl model.Model, preset Preset, engineName string, dev device.Info, samples []Sample) Result {
	r := Result{
		ID:          uuid.New().String(),
		Model:       mdl.Name,
		Quant:       mdl.Quant,
		Params:      mdl.Params,
		Preset:      preset.Name,
		Repetitions: len(samples),
		RanAt:       time.Now().UTC(),
		Label:       dev.Label(),
		Engine:      engineName,
		Device:      dev,
		Samples:     samples,
	}
	var ttfbN int
	for _, s := range samples {
		r.PromptTPS += s.PromptTPS
		r.GenTPS += s.GenTPS
		if s.TTFBMS > 0 {
			r.TTFBMS += s.TTFBMS
			ttfbN++
		}
	}
	if n := float64(len(samples)); n > 0 {
		r.PromptTPS /= n
		r.GenTPS /= n
	}
	if ttfbN > 0 {
		r.TTFBMS /= float64(ttfbN)
	}
	return r
}

// Validate checks the result against the leaderboard submission shape.
func (r Result) Validate() error {
	doc, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return schema.ValidateSubmission(string(doc))
}

// Summary renders the headline numbers for one-line display.
func (r Result) Summary() string {
	s := fmt.Sprintf("pp %.1f t/s | tg %.1f t/s", r.PromptTPS, r.GenTPS)
	if r.TTFBMS > 0 {
		s += fmt.Sprintf(" | ttfb %.0f ms", r.TTFBMS)
	}
	return s
}
