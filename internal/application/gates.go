package application

import (
	"context"

	"channel-relay-bot/internal/domain/model"
	"channel-relay-bot/internal/infra/logging"
	"channel-relay-bot/internal/infra/metrics"
)

// Gate order: origin, dedupe, capacity (generic messages only), rate,
// subscription. Store errors close the gate.

func (r *Router) gated(generic bool, next commandHandler) commandHandler {
	return func(ctx context.Context, msg *model.Message) error {
		if !r.fromPrivateUser(msg.ChatKind, msg.Sender) {
			return nil
		}
		if !r.claim(ctx, msg.EventID) {
			return nil
		}
		if generic {
			ok, err := r.hasCapacity(ctx, msg)
			if err != nil || !ok {
				return err
			}
		}
		if !r.admit(ctx, msg.Sender.ID) {
			return nil
		}
		if !r.subs.IsSubscribed(ctx, msg.Sender.ID) {
			metrics.IncGateRejection("subscription")
			return r.bot.SendButtons(ctx, msg.ChatID, r.joinPromptText(), r.joinButtons())
		}
		return next(ctx, msg)
	}
}

func (r *Router) gatedCallback(next cbHandler) cbHandler {
	return func(ctx context.Context, cb *model.Callback) error {
		if !r.fromPrivateUser(cb.ChatKind, cb.Sender) {
			return nil
		}
		if !r.claim(ctx, cb.EventID) {
			return nil
		}
		if !r.admit(ctx, cb.Sender.ID) {
			// stop the client spinner without revealing the limit
			return r.bot.AnswerCallback(ctx, cb.QueryID, "", false)
		}
		return next(ctx, cb)
	}
}

func (r *Router) fromPrivateUser(kind model.ChatKind, sender model.Sender) bool {
	if kind != model.ChatPrivate || sender.IsBot || sender.ID == 0 {
		metrics.IncGateRejection("origin")
		return false
	}
	return true
}

func (r *Router) claim(ctx context.Context, eventID string) bool {
	ok, err := r.dedupe.Claim(ctx, eventID, r.now())
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("dedupe claim failed")
		return false
	}
	if !ok {
		metrics.IncGateRejection("dedupe")
	}
	return ok
}

// hasCapacity marks the sender active; over capacity they get the
// capacity message and nothing else.
func (r *Router) hasCapacity(ctx context.Context, msg *model.Message) (bool, error) {
	ok, err := r.rates.Touch(ctx, msg.Sender.ID, r.now())
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("active set update failed")
		return false, nil
	}
	if !ok {
		metrics.IncGateRejection("capacity")
		return false, r.bot.SendMessage(ctx, msg.ChatID, r.t.T("capacity_exceeded"))
	}
	return true, nil
}

// admit applies cooldown and quota; rejected events are dropped silently.
func (r *Router) admit(ctx context.Context, userID int64) bool {
	ok, err := r.rates.Admit(ctx, userID, r.now())
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("rate limiter failed")
		return false
	}
	if !ok {
		metrics.IncGateRejection("rate")
	}
	return ok
}
