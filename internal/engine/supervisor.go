package engine

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/rs/zerolog"

	"github.com/jeanpaul/alacrity/internal/logging"
)

// Supervisor runs a llama-server process for the session. The child gets a
// pty so its output stays line-buffered and load progress streams through
// OnLine as it happens.
type Supervisor struct {
	Binary  string
	Args    []string
	BaseURL string
	// OnLine receives each line the server prints. May be nil.
	OnLine func(string)

	cmd     *exec.Cmd
	ptmx    *os.File
	done    chan struct{}
	exitErr error
	log     zerolog.Logger
}

// NewSupervisor prepares a supervisor for binary with args. Start launches
// it.
func NewSupervisor(binary string, args ...string) *Supervisor {
	return &Supervisor{
		Binary: binary,
		Args:   args,
		log:    logging.With("supervisor"),
	}
}

// Start launches the server. Cancelling ctx kills it.
func (s *Supervisor) Start(ctx context.Context) error {
	if s.cmd != nil {
		return fmt.Errorf("supervisor already started")
	}
	cmd := exec.CommandContext(ctx, s.Binary, s.Args...)
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("start %s: %w", s.Binary, err)
	}
	s.cmd = cmd
	s.ptmx = ptmx
	s.done = make(chan struct{})
	s.log.Info().Str("binary", s.Binary).Strs("args", s.Args).Msg("engine starting")
	go s.pump()
	return nil
}

// pump drains the pty until the process exits. A pty read error at close is
// normal on Linux (EIO), so scanner errors are not surfaced.
func (s *Supervisor) pump() {
	defer close(s.done)
	scanner := bufio.NewScanner(s.ptmx)
	for scanner.Scan() {
		line := scanner.Text()
		s.log.Debug().Msg(line)
		if s.OnLine != nil {
			s.OnLine(line)
		}
	}
	s.exitErr = s.cmd.Wait()
	s.ptmx.Close()
}

// WaitReady polls the server's health endpoint until the model is loaded,
// the process dies, or ctx expires.
func (s *Supervisor) WaitReady(ctx context.Context) error {
	if s.BaseURL == "" {
		return fmt.Errorf("supervisor has no base URL to probe")
	}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return fmt.Errorf("engine exited before becoming ready: %v", s.exitErr)
		case <-ticker.C:
			h, err := CheckHealth(ctx, s.BaseURL)
			if err == nil && h.Ready {
				s.log.Info().Msg("engine ready")
				return nil
			}
		}
	}
}

// Done closes when the server process has exited.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

// Err returns the exit error once Done is closed.
func (s *Supervisor) Err() error {
	return s.exitErr
}

// Stop terminates the server, escalating to SIGKILL if it ignores SIGTERM.
func (s *Supervisor) Stop() error {
	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}
	select {
	case <-s.done:
		return nil // already gone
	default:
	}
	if err := s.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		s.cmd.Process.Kill()
	}
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("engine ignored SIGTERM, killing")
		s.cmd.Process.Kill()
		<-s.done
	}
	return nil
}
