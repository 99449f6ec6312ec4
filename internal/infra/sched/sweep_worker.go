package sched

import (
	"context"
	"time"

	"channel-relay-bot/internal/domain/ports/repository"
	"channel-relay-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// SweepWorker periodically evicts inactive users and expired dedupe claims.
type SweepWorker struct {
	interval time.Duration
	rates    repository.RateStore
	dedupe   repository.DedupeStore
	now      func() time.Time
	log      *zerolog.Logger
}

func NewSweepWorker(interval time.Duration, rates repository.RateStore, dedupe repository.DedupeStore, logger *zerolog.Logger) *SweepWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	compLog := logger.With().Str("component", "SweepWorker").Logger()
	return &SweepWorker{
		interval: interval,
		rates:    rates,
		dedupe:   dedupe,
		now:      time.Now,
		log:      &compLog,
	}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting sweep worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping sweep worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SweepWorker) sweep(ctx context.Context) {
	now := w.now()

	n, err := w.rates.Sweep(ctx, now)
	if err != nil {
		w.log.Error().Err(err).Msg("rate store sweep failed")
	} else if n > 0 {
		w.log.Debug().Int("count", n).Msg("inactive users removed")
	}

	if d, err := w.dedupe.Sweep(ctx, now); err != nil {
		w.log.Error().Err(err).Msg("dedupe sweep failed")
	} else if d > 0 {
		w.log.Debug().Int("count", d).Msg("expired event claims removed")
	}

	active, err := w.rates.ActiveCount(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("active user count failed")
		return
	}
	metrics.SetActiveUsers(active)
}
