package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"channel-relay-bot/internal/config"
	"channel-relay-bot/internal/infra/metrics"
)

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateRunning:
		return "running"
	default:
		return "stopped"
	}
}

// Conn is an authenticated platform connection.
type Conn interface {
	// Run blocks until the connection drops or ctx is cancelled.
	Run(ctx context.Context) error
	Close() error
}

// Connector opens a connection whose session lives at the handle's path.
type Connector interface {
	Open(ctx context.Context, h *Handle) (Conn, error)
}

type Options struct {
	Dir              string
	StartupAttempts  int
	StartupBackoff   time.Duration
	ReconnectBackoff time.Duration
}

func OptionsFromConfig(cfg config.SessionConfig) Options {
	return Options{
		Dir:              cfg.Dir,
		StartupAttempts:  cfg.StartupAttempts,
		StartupBackoff:   cfg.StartupBackoff,
		ReconnectBackoff: cfg.ReconnectBackoff,
	}
}

// Supervisor keeps one connection alive:
// Disconnected -> Connecting -> Running -> Disconnected -> (backoff) -> Connecting.
// Startup failures are retried a bounded number of times; once the
// connection has run, reconnects go on until ctx is cancelled.
type Supervisor struct {
	connector Connector
	opts      Options
	log       *zerolog.Logger
	state     atomic.Int32
}

func NewSupervisor(connector Connector, opts Options, logger *zerolog.Logger) *Supervisor {
	if opts.StartupAttempts <= 0 {
		opts.StartupAttempts = 3
	}
	if opts.StartupBackoff <= 0 {
		opts.StartupBackoff = 5 * time.Second
	}
	if opts.ReconnectBackoff <= 0 {
		opts.ReconnectBackoff = 30 * time.Second
	}
	l := logger.With().Str("component", "SessionSupervisor").Logger()
	s := &Supervisor{connector: connector, opts: opts, log: &l}
	s.setState(StateDisconnected)
	return s
}

func (s *Supervisor) State() State { return State(s.state.Load()) }

// Ready reports whether a connection is currently running.
func (s *Supervisor) Ready() bool { return s.State() == StateRunning }

func (s *Supervisor) setState(st State) {
	if State(s.state.Swap(int32(st))) != st {
		s.log.Info().Str("state", st.String()).Msg("session state changed")
	}
	metrics.SetSessionState(int(st))
}

// Run returns nil when ctx is cancelled and an error when startup fails or
// a fatal error is hit.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.setState(StateStopped)

	started := false
	for {
		ran, err := s.session(ctx, !started)
		started = started || ran
		if ctx.Err() != nil {
			return nil
		}
		if Classify(err) == Fatal {
			return fmt.Errorf("session: %w", err)
		}
		if !started {
			return fmt.Errorf("session startup failed after %d attempts: %w", s.opts.StartupAttempts, err)
		}

		s.setState(StateDisconnected)
		s.log.Warn().Err(err).Dur("backoff", s.opts.ReconnectBackoff).Msg("connection lost, reconnecting")
		if !sleep(ctx, s.opts.ReconnectBackoff) {
			return nil
		}
		metrics.IncSessionReconnect()
	}
}

// session connects, runs until disconnect, and releases everything it
// acquired. ran reports whether the connection reached Running.
func (s *Supervisor) session(ctx context.Context, startup bool) (ran bool, err error) {
	s.setState(StateConnecting)

	var (
		conn   Conn
		handle *Handle
	)
	open := func(ctx context.Context) error {
		h, err := Acquire(s.opts.Dir)
		if err != nil {
			return retry.RetryableError(err)
		}
		c, err := s.connector.Open(ctx, h)
		if err != nil {
			s.release(h)
			s.log.Warn().Err(err).Str("session", h.Name()).Msg("connect failed")
			if Classify(err) == Transient {
				return retry.RetryableError(err)
			}
			return err
		}
		conn, handle = c, h
		return nil
	}

	attempts := 1
	if startup {
		attempts = s.opts.StartupAttempts
	}
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(s.opts.StartupBackoff))
	if err := retry.Do(ctx, backoff, open); err != nil {
		return false, err
	}
	defer s.release(handle)
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			s.log.Warn().Err(cerr).Msg("close connection failed")
		}
	}()

	s.setState(StateRunning)
	s.log.Info().Str("session", handle.Name()).Msg("connected")
	err = conn.Run(ctx)
	if err == nil && ctx.Err() == nil {
		err = errors.New("connection closed")
	}
	return true, err
}

func (s *Supervisor) release(h *Handle) {
	if err := h.Release(); err != nil {
		s.log.Warn().Err(err).Str("session", h.Name()).Msg("purge session artifacts failed")
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
