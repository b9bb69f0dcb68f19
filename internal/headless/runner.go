// Package headless runs bench and chat without the TUI. Content goes to out,
// progress and activity to log, so stdout can be piped or captured from
// scripts while stderr narrates.
package headless

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jeanpaul/alacrity/internal/bench"
	"github.com/jeanpaul/alacrity/internal/engine"
	"github.com/jeanpaul/alacrity/internal/model"
)

// Bench runs one benchmark and prints the outcome to out, a summary line by
// default or indented JSON when jsonOut is set.
func Bench(ctx context.Context, runner *bench.Runner, mdl model.Model, p bench.Preset, jsonOut bool, out, log io.Writer) (*bench.Result, error) {
	events := runner.Run(ctx, mdl, p)
	for ev := range events {
		switch ev.Type {
		case bench.EventStart:
			fmt.Fprintf(log, "benchmarking %s with %s, %d repetitions\n",
				mdl.DisplayName(), p.Name, ev.Total)
		case bench.EventWarmup:
			fmt.Fprintln(log, "warmup...")
		case bench.EventRepStart:
			fmt.Fprintf(log, "rep %d/%d...", ev.Rep, ev.Total)
		case bench.EventRepDone:
			fmt.Fprintf(log, " pp %.1f t/s, tg %.1f t/s\n", ev.Sample.PromptTPS, ev.Sample.GenTPS)
		case bench.EventError:
			fmt.Fprintln(log)
			return nil, ev.Err
		case bench.EventDone:
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(ev.Result); err != nil {
					return nil, err
				}
			} else {
				fmt.Fprintln(out, ev.Result.Summary())
			}
			return ev.Result, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("benchmark ended without a result")
}

// Chat streams a single completion for prompt: deltas to out, the timing
// summary to log.
func Chat(ctx context.Context, eng engine.Engine, prompt string, out, log io.Writer) error {
	ch, err := eng.Complete(ctx, engine.Request{
		Messages: []engine.Message{{Role: engine.RoleUser, Content: prompt}},
	})
	if err != nil {
		return err
	}
	for chunk := range ch {
		if chunk.Error != nil {
			fmt.Fprintln(log)
			return chunk.Error
		}
		fmt.Fprint(out, chunk.Delta)
		if chunk.Done {
			fmt.Fprintln(out)
			if chunk.Timings != nil {
				fmt.Fprintf(log, "[%.1f t/s]\n", chunk.Timings.PredictedTPS())
			}
			return nil
		}
	}
	return ctx.Err()
}
