package storage

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeanpaul/alacrity/internal/logging"
	"github.com/jeanpaul/alacrity/internal/model"
)

// MemProber reports RAM available for a model load.
type MemProber interface {
	AvailableMemory(ctx context.Context) (uint64, error)
}

// MemMonitor watches whether a model's estimated load footprint still fits
// in available RAM. It runs the same session lifecycle as Monitor: one
// immediate check, periodic rechecks, stale results dropped.
type MemMonitor struct {
	prober   MemProber
	overhead float64
	core     core
	log      zerolog.Logger
}

// NewMemMonitor returns a MemMonitor. overhead scales file size to resident
// size; values below 1 fall back to 1.4.
func NewMemMonitor(prober MemProber, overhead float64) *MemMonitor {
	if overhead < 1 {
		overhead = 1.4
	}
	return &MemMonitor{
		prober:   prober,
		overhead: overhead,
		core:     core{cur: Status{IsOk: true}},
		log:      logging.With("memory"),
	}
}

// Observe starts watching m, replacing any prior session. Models with an
// unknown size cannot be estimated: the status resets to ok and the returned
// channel is already closed.
func (m *MemMonitor) Observe(ctx context.Context, mdl model.Model, opts Options) <-chan Status {
	opts = opts.withDefaults()
	if mdl.SizeBytes == 0 {
		m.core.reset(Status{IsOk: true})
		return closedStatusChan()
	}

	s, sctx := m.core.begin(ctx)
	m.log.Debug().Int("session", s.id).Str("model", mdl.DisplayName()).
		Dur("interval", opts.Interval).Msg("observing memory")
	go m.run(sctx, s, mdl, opts)
	return s.ch
}

func (m *MemMonitor) run(ctx context.Context, s *session, mdl model.Model, opts Options) {
	defer m.core.finish(s)

	m.check(ctx, s, mdl)
	if opts.Once {
		return
	}
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx, s, mdl)
		}
	}
}

func (m *MemMonitor) check(ctx context.Context, s *session, mdl model.Model) {
	st := m.evaluate(ctx, mdl)
	if ctx.Err() != nil {
		return
	}
	m.core.publish(s, st)
}

func (m *MemMonitor) evaluate(ctx context.Context, mdl model.Model) Status {
	avail, err := m.prober.AvailableMemory(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("memory probe failed")
		return Status{IsOk: false, Message: memoryCheckFailed}
	}
	need := uint64(float64(mdl.SizeBytes) * m.overhead)
	if avail < need {
		return Status{IsOk: false, Message: lowMemoryMessage(need, avail)}
	}
	return Status{IsOk: true}
}

// Status returns the most recently published status.
func (m *MemMonitor) Status() Status {
	return m.core.status()
}

// Stop cancels the live session and waits for in-flight checks. Idempotent.
func (m *MemMonitor) Stop() {
	m.core.stop()
}
