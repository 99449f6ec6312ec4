package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Pool runs every inbound event handler in its own goroutine and tracks
// them so shutdown can wait for in-flight work. Admission control lives in
// the router's capacity gate.

type Task func(ctx context.Context) error

var (
	ErrNilTask = errors.New("nil task")
	ErrStopped = errors.New("worker pool stopped")
)

type Pool struct {
	mu      sync.Mutex
	wg      sync.WaitGroup
	ctx     context.Context
	stopped bool
	log     *zerolog.Logger
}

func NewPool(logger *zerolog.Logger) *Pool {
	l := logger.With().Str("component", "WorkerPool").Logger()
	return &Pool{ctx: context.Background(), log: &l}
}

// Start sets the context handed to tasks submitted afterwards.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	p.ctx = ctx
	p.mu.Unlock()
}

// Stop rejects new tasks and waits for running ones.
func (p *Pool) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.wg.Wait()
}

// Submit starts task immediately; it never waits for other tasks.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return ErrNilTask
	}
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	ctx := p.ctx
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		p.run(ctx, task)
	}()
	return nil
}

func (p *Pool) run(ctx context.Context, task Task) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error().Interface("panic", rec).Msg("task panic recovered")
		}
	}()
	if err := task(ctx); err != nil {
		p.log.Warn().Err(err).Msg("task error")
	}
}
