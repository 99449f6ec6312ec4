package worker

import (
	"context"

	"github.com/rs/zerolog"

	"channel-relay-bot/internal/domain/model"
	"channel-relay-bot/internal/domain/ports/adapter"
	"channel-relay-bot/internal/infra/metrics"
)

var _ adapter.UpdateHandler = (*Dispatcher)(nil)

// Dispatcher moves updates off the driver's receive loop and onto the pool,
// so a slow handler stalls neither update intake nor other events. Updates
// arriving after shutdown began are dropped.
type Dispatcher struct {
	pool *Pool
	next adapter.UpdateHandler
	log  *zerolog.Logger
}

func NewDispatcher(pool *Pool, next adapter.UpdateHandler, logger *zerolog.Logger) *Dispatcher {
	l := logger.With().Str("component", "Dispatcher").Logger()
	return &Dispatcher{pool: pool, next: next, log: &l}
}

func (d *Dispatcher) HandleMessage(_ context.Context, msg *model.Message) {
	if msg == nil {
		return
	}
	d.submit(msg.EventID, func(ctx context.Context) error {
		d.next.HandleMessage(ctx, msg)
		return nil
	})
}

func (d *Dispatcher) HandleCallback(_ context.Context, cb *model.Callback) {
	if cb == nil {
		return
	}
	d.submit(cb.EventID, func(ctx context.Context) error {
		d.next.HandleCallback(ctx, cb)
		return nil
	})
}

func (d *Dispatcher) submit(eventID string, task Task) {
	if err := d.pool.Submit(task); err != nil {
		metrics.IncUpdate("dropped")
		d.log.Warn().Err(err).Str("event_id", eventID).Msg("update dropped")
	}
}
