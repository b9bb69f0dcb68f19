package storage

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jeanpaul/alacrity/internal/model"
)

type checkerFunc func(ctx context.Context, m model.Model) (bool, error)

func (f checkerFunc) HasEnoughSpace(ctx context.Context, m model.Model) (bool, error) {
	return f(ctx, m)
}

type proberFunc func(ctx context.Context) (uint64, error)

func (f proberFunc) FreeDiskSpace(ctx context.Context) (uint64, error) {
	return f(ctx)
}

func alwaysFits(ctx context.Context, m model.Model) (bool, error) { return true, nil }

func freeBytes(n uint64) proberFunc {
	return func(context.Context) (uint64, error) { return n, nil }
}

// recv reads one status or fails the test.
func recv(t *testing.T, ch <-chan Status) Status {
	t.Helper()
	select {
	case st, ok := <-ch:
		if !ok {
			t.Fatal("status channel closed early")
		}
		return st
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for status")
	}
	return Status{}
}

// drainUntilClosed collects whatever is still pending and requires the
// channel to close.
func drainUntilClosed(t *testing.T, ch <-chan Status) []Status {
	t.Helper()
	var got []Status
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, st)
		case <-deadline:
			t.Fatal("status channel never closed")
		}
	}
}

func TestInitialStatusOk(t *testing.T) {
	m := NewMonitor(checkerFunc(alwaysFits), freeBytes(1))
	got := m.Status()
	if !got.IsOk || got.Message != "" {
		t.Errorf("initial status = %+v, want ok with no message", got)
	}
}

func TestOnceEmitsExactlyOne(t *testing.T) {
	var calls atomic.Int32
	chk := checkerFunc(func(ctx context.Context, m model.Model) (bool, error) {
		calls.Add(1)
		return true, nil
	})
	m := NewMonitor(chk, freeBytes(1))
	defer m.Stop()

	ch := m.Observe(context.Background(), model.Model{Name: "m", SizeBytes: 1}, Options{Once: true})
	st := recv(t, ch)
	if !st.IsOk {
		t.Errorf("status = %+v, want ok", st)
	}
	if rest := drainUntilClosed(t, ch); len(rest) != 0 {
		t.Errorf("one-shot session emitted %d extra statuses", len(rest))
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("checker called %d times, want 1", n)
	}
}

func TestLowStorageMessageFormat(t *testing.T) {
	chk := checkerFunc(func(ctx context.Context, m model.Model) (bool, error) {
		return false, nil
	})
	m := NewMonitor(chk, freeBytes(4_000_000_000))
	defer m.Stop()

	ch := m.Observe(context.Background(),
		model.Model{Name: "big", SizeBytes: 5_000_000_000}, Options{Once: true})
	st := recv(t, ch)
	if st.IsOk {
		t.Error("IsOk = true for a model that does not fit")
	}
	want := "Storage low! Model 5.0 GB > 4.0 GB free"
	if st.Message != want {
		t.Errorf("Message = %q, want %q", st.Message, want)
	}
	if got := m.Status(); got != st {
		t.Errorf("Status() = %+v, want %+v", got, st)
	}
}

func TestCheckerErrorCollapses(t *testing.T) {
	chk := checkerFunc(func(ctx context.Context, m model.Model) (bool, error) {
		return false, errors.New("statfs exploded")
	})
	m := NewMonitor(chk, freeBytes(1))
	defer m.Stop()

	ch := m.Observe(context.Background(), model.Model{SizeBytes: 1}, Options{Once: true})
	st := recv(t, ch)
	if st.IsOk || st.Message != "Failed to check storage" {
		t.Errorf("status = %+v", st)
	}
}

func TestProberErrorCollapses(t *testing.T) {
	chk := checkerFunc(func(ctx context.Context, m model.Model) (bool, error) {
		return false, nil
	})
	prb := proberFunc(func(context.Context) (uint64, error) {
		return 0, errors.New("no statfs today")
	})
	m := NewMonitor(chk, prb)
	defer m.Stop()

	ch := m.Observe(context.Background(), model.Model{SizeBytes: 1}, Options{Once: true})
	st := recv(t, ch)
	if st.IsOk || st.Message != "Failed to check storage" {
		t.Errorf("status = %+v", st)
	}
}

func TestOnDiskModelsSkipChecks(t *testing.T) {
	onDisk := []struct {
		name string
		m    model.Model
	}{
		{"downloaded", model.Model{Name: "d", SizeBytes: 1, Downloaded: true}},
		{"imported", model.Model{Name: "i", SizeBytes: 1, Local: true}},
		{"local origin", model.Model{Name: "l", SizeBytes: 1, Origin: model.OriginLocal}},
	}
	for _, tt := range onDisk {
		var calls atomic.Int32
		chk := checkerFunc(func(ctx context.Context, m model.Model) (bool, error) {
			calls.Add(1)
			return false, nil
		})
		m := NewMonitor(chk, freeBytes(1))

		ch := m.Observe(context.Background(), tt.m, Options{})
		if got := drainUntilClosed(t, ch); len(got) != 0 {
			t.Errorf("%s: got %d statuses, want closed empty channel", tt.name, len(got))
		}
		if n := calls.Load(); n != 0 {
			t.Errorf("%s: checker called %d times, want 0", tt.name, n)
		}
		if st := m.Status(); !st.IsOk {
			t.Errorf("%s: Status() = %+v, want ok", tt.name, st)
		}
	}
}

func TestObserveOnDiskResetsEarlierAlert(t *testing.T) {
	chk := checkerFunc(func(ctx context.Context, m model.Model) (bool, error) {
		return false, nil
	})
	m := NewMonitor(chk, freeBytes(0))
	defer m.Stop()

	ch := m.Observe(context.Background(), model.Model{Name: "big", SizeBytes: 10}, Options{Once: true})
	if st := recv(t, ch); st.IsOk {
		t.Fatal("expected a low-storage status first")
	}

	m.Observe(context.Background(), model.Model{Name: "here", Downloaded: true}, Options{})
	if st := m.Status(); !st.IsOk || st.Message != "" {
		t.Errorf("Status() after switching to on-disk model = %+v, want ok", st)
	}
}

func TestFirstCheckIsImmediate(t *testing.T) {
	var calls atomic.Int32
	chk := checkerFunc(func(ctx context.Context, m model.Model) (bool, error) {
		calls.Add(1)
		return true, nil
	})
	m := NewMonitor(chk, freeBytes(1))
	defer m.Stop()

	// An hour-long interval: the only way a status arrives now is the
	// immediate first check.
	ch := m.Observe(context.Background(), model.Model{SizeBytes: 1}, Options{Interval: time.Hour})
	recv(t, ch)
	if n := calls.Load(); n != 1 {
		t.Errorf("checker called %d times, want exactly the immediate check", n)
	}
}

func TestPeriodicRechecks(t *testing.T) {
	var calls atomic.Int32
	chk := checkerFunc(func(ctx context.Context, m model.Model) (bool, error) {
		calls.Add(1)
		return true, nil
	})
	m := NewMonitor(chk, freeBytes(1))
	defer m.Stop()

	m.Observe(context.Background(), model.Model{SizeBytes: 1}, Options{Interval: 5 * time.Millisecond})

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 4 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := calls.Load(); n < 4 {
		t.Errorf("checker called %d times, want at least 4 (immediate + rechecks)", n)
	}
}

func TestSlowReaderSeesLatest(t *testing.T) {
	var calls atomic.Int32
	chk := checkerFunc(func(ctx context.Context, m model.Model) (bool, error) {
		// Fits at first, then space runs out underneath the session.
		return calls.Add(1) <= 2, nil
	})
	m := NewMonitor(chk, freeBytes(3))
	defer m.Stop()

	ch := m.Observe(context.Background(), model.Model{SizeBytes: 9}, Options{Interval: 5 * time.Millisecond})

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 5 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// Nothing was read so far; the pending update must be the latest state,
	// not the first.
	st := recv(t, ch)
	if st.IsOk {
		t.Errorf("pending status = %+v, want the later low-storage state", st)
	}
}

func TestStopDiscardsInFlightResult(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	secondStarted := make(chan struct{})
	chk := checkerFunc(func(ctx context.Context, m model.Model) (bool, error) {
		if calls.Add(1) == 2 {
			close(secondStarted)
			select {
			case <-release:
			case <-ctx.Done():
			}
			return false, nil // would flip the status if it ever landed
		}
		return true, nil
	})
	m := NewMonitor(chk, freeBytes(1))

	ch := m.Observe(context.Background(), model.Model{SizeBytes: 1},
		Options{Interval: 5 * time.Millisecond})
	first := recv(t, ch)
	if !first.IsOk {
		t.Fatalf("first status = %+v, want ok", first)
	}
	<-secondStarted

	// Stop while the second check is in flight. Its result must vanish.
	m.Stop()
	if rest := drainUntilClosed(t, ch); len(rest) != 0 {
		t.Errorf("got %d statuses after Stop, want none", len(rest))
	}
	if st := m.Status(); !st.IsOk {
		t.Errorf("Status() after Stop = %+v, want the pre-stop ok state", st)
	}
}

func TestObserveReplacesSession(t *testing.T) {
	firstStarted := make(chan struct{})
	chk := checkerFunc(func(ctx context.Context, m model.Model) (bool, error) {
		if m.Name == "first" {
			close(firstStarted)
			<-ctx.Done()
			return false, nil // stale by the time it returns
		}
		return true, nil
	})
	m := NewMonitor(chk, freeBytes(1))
	defer m.Stop()

	chA := m.Observe(context.Background(), model.Model{Name: "first", SizeBytes: 1}, Options{})
	<-firstStarted

	chB := m.Observe(context.Background(), model.Model{Name: "second", SizeBytes: 1}, Options{Once: true})
	stB := recv(t, chB)
	if !stB.IsOk {
		t.Errorf("second session status = %+v, want ok", stB)
	}

	if got := drainUntilClosed(t, chA); len(got) != 0 {
		t.Errorf("replaced session delivered %d statuses, want none", len(got))
	}
	if st := m.Status(); !st.IsOk {
		t.Errorf("Status() = %+v, want the second session's ok", st)
	}
}

func TestParentContextEndsSession(t *testing.T) {
	m := NewMonitor(checkerFunc(alwaysFits), freeBytes(1))
	defer m.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	ch := m.Observe(ctx, model.Model{SizeBytes: 1}, Options{Interval: 5 * time.Millisecond})
	recv(t, ch)
	cancel()
	drainUntilClosed(t, ch)
}

func TestStopIdempotent(t *testing.T) {
	m := NewMonitor(checkerFunc(alwaysFits), freeBytes(1))
	m.Stop() // nothing observed yet

	ch := m.Observe(context.Background(), model.Model{SizeBytes: 1}, Options{})
	recv(t, ch)
	m.Stop()
	m.Stop()
	drainUntilClosed(t, ch)
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.Interval != DefaultInterval {
		t.Errorf("Interval = %v, want %v", o.Interval, DefaultInterval)
	}
	if o.Once {
		t.Error("Once should default to false")
	}

	o = Options{Interval: -3 * time.Second}.withDefaults()
	if o.Interval != DefaultInterval {
		t.Errorf("negative interval not clamped: %v", o.Interval)
	}

	o = Options{Interval: time.Minute}.withDefaults()
	if o.Interval != time.Minute {
		t.Errorf("explicit interval overridden: %v", o.Interval)
	}
}
