package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeanpaul/alacrity/internal/logging"
	"github.com/jeanpaul/alacrity/internal/model"
)

// SpaceChecker answers whether a model fits on the models filesystem.
type SpaceChecker interface {
	HasEnoughSpace(ctx context.Context, m model.Model) (bool, error)
}

// DiskProber reports free bytes on the models filesystem.
type DiskProber interface {
	FreeDiskSpace(ctx context.Context) (uint64, error)
}

// session is one monitored model. Each session owns its update channel; the
// channel closes when the session ends.
type session struct {
	id     int
	ch     chan Status
	cancel context.CancelFunc
}

// core holds the session lifecycle shared by the storage and memory
// monitors. At most one session is live; starting a new one cancels the old,
// and a cancelled session's checks can no longer publish.
type core struct {
	mu   sync.Mutex
	cur  Status
	sess *session
	next int
	wg   sync.WaitGroup
}

// begin replaces the live session. The caller must start exactly one
// goroutine for the returned session and have it call finish on exit.
func (c *core) begin(parent context.Context) (*session, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != nil {
		c.sess.cancel()
	}
	c.next++
	s := &session{id: c.next, ch: make(chan Status, 1), cancel: cancel}
	c.sess = s
	c.wg.Add(1)
	return s, ctx
}

// publish records st and delivers it to s's subscriber, unless s has been
// replaced or stopped, in which case the result is dropped. A pending unread
// update is overwritten so a slow reader always sees the latest status.
func (c *core) publish(s *session, st Status) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != s {
		return false
	}
	c.cur = st
	select {
	case s.ch <- st:
	default:
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- st:
		default:
		}
	}
	return true
}

// finish retires s. Runs as the session goroutine's last act.
func (c *core) finish(s *session) {
	c.mu.Lock()
	if c.sess == s {
		c.sess = nil
	}
	c.mu.Unlock()
	close(s.ch)
	s.cancel()
	c.wg.Done()
}

// stop cancels the live session, if any, and waits for every session
// goroutine to exit. Safe to call repeatedly.
func (c *core) stop() {
	c.mu.Lock()
	s := c.sess
	c.sess = nil
	c.mu.Unlock()
	if s != nil {
		s.cancel()
	}
	c.wg.Wait()
}

// reset stops any live session and restores st as the current status.
func (c *core) reset(st Status) {
	c.stop()
	c.mu.Lock()
	c.cur = st
	c.mu.Unlock()
}

func (c *core) status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// closedStatusChan is what Observe returns when no session is needed.
func closedStatusChan() <-chan Status {
	ch := make(chan Status)
	close(ch)
	return ch
}

// Monitor watches free disk space for a model that is not yet on disk.
type Monitor struct {
	checker SpaceChecker
	prober  DiskProber
	core    core
	log     zerolog.Logger
}

// NewMonitor returns a Monitor using checker to decide fit and prober to
// report free space for the low-storage message. A single value usually
// implements both.
func NewMonitor(checker SpaceChecker, prober DiskProber) *Monitor {
	return &Monitor{
		checker: checker,
		prober:  prober,
		core:    core{cur: Status{IsOk: true}},
		log:     logging.With("storage"),
	}
}

// Observe starts watching m, replacing any prior session. The returned
// channel delivers status updates and closes when the session ends. Models
// already on disk need no watching: any prior session is cancelled, the
// status resets to ok, and the returned channel is already closed.
func (m *Monitor) Observe(ctx context.Context, mdl model.Model, opts Options) <-chan Status {
	opts = opts.withDefaults()
	if mdl.OnDisk() {
		m.core.reset(Status{IsOk: true})
		return closedStatusChan()
	}

	s, sctx := m.core.begin(ctx)
	m.log.Debug().Int("session", s.id).Str("model", mdl.DisplayName()).
		Dur("interval", opts.Interval).Bool("once", opts.Once).
		Msg("observing storage")
	go m.run(sctx, s, mdl, opts)
	return s.ch
}

func (m *Monitor) run(ctx context.Context, s *session, mdl model.Model, opts Options) {
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

// check runs one availability check and publishes the outcome. A result that
// arrives after the session was cancelled is discarded.
func (m *Monitor) check(ctx context.Context, s *session, mdl model.Model) {
	st := m.evaluate(ctx, mdl)
	if ctx.Err() != nil {
		return
	}
	if m.core.publish(s, st) && !st.IsOk {
		m.log.Debug().Int("session", s.id).Str("message", st.Message).Msg("storage not ok")
	}
}

func (m *Monitor) evaluate(ctx context.Context, mdl model.Model) Status {
	ok, err := m.checker.HasEnoughSpace(ctx, mdl)
	if err != nil {
		m.log.Warn().Err(err).Msg("space check failed")
		return Status{IsOk: false, Message: storageCheckFailed}
	}
	if ok {
		return Status{IsOk: true}
	}
	free, err := m.prober.FreeDiskSpace(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("free-space probe failed")
		return Status{IsOk: false, Message: storageCheckFailed}
	}
	return Status{IsOk: false, Message: lowStorageMessage(uint64(mdl.SizeBytes), free)}
}

// Status returns the most recently published status. Before any check has
// run it is ok with no message.
func (m *Monitor) Status() Status {
	return m.core.status()
}

// Stop cancels the live session and waits for in-flight checks to wind
// down. Idempotent.
func (m *Monitor) Stop() {
	m.core.stop()
}
