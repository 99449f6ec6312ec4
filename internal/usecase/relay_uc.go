// File: internal/usecase/relay_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"channel-relay-bot/internal/domain"
	"channel-relay-bot/internal/domain/model"
	"channel-relay-bot/internal/domain/ports/adapter"
	"channel-relay-bot/internal/infra/i18n"
	"channel-relay-bot/internal/infra/logging"
	"channel-relay-bot/internal/infra/metrics"
)

// Compile-time check
var _ RelayUseCase = (*relayUC)(nil)

type RelayUseCase interface {
	// ResolveAndRelay delivers the post linked in msg to the sender's chat.
	// Messages without a post link are ignored.
	ResolveAndRelay(ctx context.Context, msg *model.Message)
}

// FetchStrategy is one way of retrieving a channel post.
type FetchStrategy struct {
	Name  string
	Fetch func(ctx context.Context, ref model.ChannelPostReference) (*model.Post, error)
}

type relayUC struct {
	dir        adapter.ChannelDirectory
	src        adapter.PostSource
	bot        adapter.Messenger
	t          *i18n.Translator
	strategies []FetchStrategy
	log        *zerolog.Logger
}

func NewRelayUseCase(dir adapter.ChannelDirectory, src adapter.PostSource, bot adapter.Messenger, translator *i18n.Translator, logger *zerolog.Logger) *relayUC {
	uc := &relayUC{
		dir: dir,
		src: src,
		bot: bot,
		t:   translator,
		log: logging.Component(logger, "relay"),
	}
	uc.strategies = []FetchStrategy{
		{Name: "handle", Fetch: src.FetchByHandle},
		{Name: "peer", Fetch: uc.fetchByPeer},
		{Name: "batch", Fetch: src.FetchBatch},
	}
	return uc
}

func (uc *relayUC) fetchByPeer(ctx context.Context, ref model.ChannelPostReference) (*model.Post, error) {
	ch, err := uc.dir.CachedChannel(ctx, ref.ChannelUsername)
	if err != nil {
		return nil, err
	}
	return uc.src.FetchByPeer(ctx, ch, ref.MessageID)
}

func (uc *relayUC) ResolveAndRelay(ctx context.Context, msg *model.Message) {
	defer logging.TraceDuration(uc.log, "RelayUC.ResolveAndRelay")()

	ref, ok := ParseLink(msg.Text)
	if !ok {
		return
	}
	log := logging.With(ctx, uc.log).With().
		Str("channel", ref.ChannelUsername).
		Int("message_id", ref.MessageID).
		Logger()
	log.Info().Msg("processing post link")

	post := uc.fetch(ctx, ref, &log)
	if post == nil {
		log.Warn().Msg("post not found by any strategy")
		if err := uc.bot.SendMessage(ctx, msg.ChatID, uc.t.T("post_not_found")); err != nil {
			log.Error().Err(err).Msg("send not-found reply failed")
		}
		return
	}
	if rel, ok := uc.src.(adapter.PostReleaser); ok {
		defer func() {
			if err := rel.ReleasePost(context.WithoutCancel(ctx), post); err != nil {
				log.Warn().Err(err).Msg("release fetched post failed")
			}
		}()
	}

	uc.deliver(ctx, msg.ChatID, post, &log)
}

func (uc *relayUC) fetch(ctx context.Context, ref model.ChannelPostReference, log *zerolog.Logger) *model.Post {
	for _, s := range uc.strategies {
		post, err := s.Fetch(ctx, ref)
		switch {
		case err != nil:
			metrics.IncFetchAttempt(s.Name, "error")
			ev := log.Warn()
			if errors.Is(err, domain.ErrPostNotFound) {
				ev = log.Debug()
			}
			ev.Err(err).Str("strategy", s.Name).Msg("fetch strategy failed")
		case post.IsEmpty():
			metrics.IncFetchAttempt(s.Name, "empty")
			log.Debug().Str("strategy", s.Name).Msg("fetch strategy returned no content")
		default:
			metrics.IncFetchAttempt(s.Name, "ok")
			log.Debug().Str("strategy", s.Name).Msg("post fetched")
			return post
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return nil
}

// deliver forwards the post, resends it when forwarding fails, and tells
// the user once when both fail.
func (uc *relayUC) deliver(ctx context.Context, chatID int64, post *model.Post, log *zerolog.Logger) {
	err := uc.bot.ForwardPost(ctx, chatID, post)
	if err == nil {
		metrics.IncDelivery("forward", "ok")
		log.Info().Msg("post forwarded")
		return
	}
	metrics.IncDelivery("forward", "error")
	log.Warn().Err(err).Msg("forward failed, resending content")

	err = uc.bot.ResendPost(ctx, chatID, post)
	if err == nil {
		metrics.IncDelivery("resend", "ok")
		log.Info().Msg("post resent")
		return
	}
	metrics.IncDelivery("resend", "error")
	log.Error().Err(err).Msg("resend failed")

	if err := uc.bot.SendMessage(ctx, chatID, uc.t.T("delivery_failed")); err != nil {
		log.Error().Err(err).Msg("send delivery-failure reply failed")
	}
}
