// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"channel-relay-bot/internal/domain"
	"channel-relay-bot/internal/domain/model"
	"channel-relay-bot/internal/domain/ports/adapter"
	"channel-relay-bot/internal/infra/logging"
	"channel-relay-bot/internal/infra/metrics"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

type SubscriptionUseCase interface {
	// IsSubscribed never fails: anything it cannot determine counts as false.
	IsSubscribed(ctx context.Context, userID int64) bool
}

type Verdict int

const (
	Undetermined Verdict = iota
	Subscribed
	NotSubscribed
)

func (v Verdict) String() string {
	switch v {
	case Subscribed:
		return "subscribed"
	case NotSubscribed:
		return "not_subscribed"
	default:
		return "undetermined"
	}
}

// SubscriptionStrategy is one way of answering the membership question.
// Only Undetermined lets the next strategy run.
type SubscriptionStrategy struct {
	Name  string
	Check func(ctx context.Context, ch *model.Channel, userID int64) (Verdict, error)
}

const (
	participantsPageSize = 200
	participantsMaxScan  = 10000
)

type subscriptionUC struct {
	dir        adapter.ChannelDirectory
	username   string
	strategies []SubscriptionStrategy
	log        *zerolog.Logger

	mu      sync.Mutex
	channel *model.Channel
}

func NewSubscriptionUseCase(dir adapter.ChannelDirectory, channelUsername string, logger *zerolog.Logger) *subscriptionUC {
	uc := &subscriptionUC{
		dir:      dir,
		username: channelUsername,
		log:      logging.Component(logger, "subscription"),
	}
	uc.strategies = []SubscriptionStrategy{
		{Name: "participant", Check: uc.checkParticipant},
		{Name: "participants_scan", Check: uc.scanParticipants},
	}
	return uc
}

func (uc *subscriptionUC) IsSubscribed(ctx context.Context, userID int64) bool {
	defer logging.TraceDuration(uc.log, "SubscriptionUC.IsSubscribed")()
	log := logging.With(ctx, uc.log)

	ch, err := uc.targetChannel(ctx)
	if err != nil {
		log.Error().Err(err).Str("channel", uc.username).Int64("user_id", userID).Msg("resolve target channel failed")
		metrics.IncSubscriptionCheck("resolve", Undetermined.String())
		return false
	}

	for _, s := range uc.strategies {
		v, err := s.Check(ctx, ch, userID)
		metrics.IncSubscriptionCheck(s.Name, v.String())
		if err != nil {
			log.Warn().Err(err).Str("strategy", s.Name).Int64("user_id", userID).Msg("subscription strategy failed")
		}
		switch v {
		case Subscribed:
			return true
		case NotSubscribed:
			return false
		}
	}
	log.Warn().Int64("user_id", userID).Msg("subscription undetermined, treating as not subscribed")
	return false
}

// targetChannel resolves the channel once; failures are not cached.
func (uc *subscriptionUC) targetChannel(ctx context.Context) (*model.Channel, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.channel != nil {
		return uc.channel, nil
	}
	ch, err := uc.dir.ResolveChannel(ctx, uc.username)
	if err != nil {
		return nil, err
	}
	if ch.IsZero() {
		return nil, fmt.Errorf("resolve %s: %w", uc.username, domain.ErrPeerNotFound)
	}
	uc.channel = ch
	return ch, nil
}

func (uc *subscriptionUC) checkParticipant(ctx context.Context, ch *model.Channel, userID int64) (Verdict, error) {
	err := uc.dir.GetParticipant(ctx, ch, userID)
	switch {
	case err == nil:
		return Subscribed, nil
	case errors.Is(err, domain.ErrNotParticipant):
		return NotSubscribed, nil
	default:
		return Undetermined, err
	}
}

func (uc *subscriptionUC) scanParticipants(ctx context.Context, ch *model.Channel, userID int64) (Verdict, error) {
	for offset := 0; offset < participantsMaxScan; offset += participantsPageSize {
		ids, err := uc.dir.ListParticipants(ctx, ch, offset, participantsPageSize)
		if err != nil {
			return Undetermined, err
		}
		for _, id := range ids {
			if id == userID {
				return Subscribed, nil
			}
		}
		if len(ids) < participantsPageSize {
			break
		}
	}
	return NotSubscribed, nil
}
