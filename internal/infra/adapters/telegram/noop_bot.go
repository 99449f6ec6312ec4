package telegram

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"channel-relay-bot/internal/domain/model"
	"channel-relay-bot/internal/domain/ports/adapter"
)

var _ adapter.Messenger = (*NoopBotAdapter)(nil)

// NoopBotAdapter implements adapter.Messenger for dry runs.
// It logs outbound messages instead of sending them.
type NoopBotAdapter struct {
	log   *zerolog.Logger
	delay time.Duration
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	l := logger.With().Str("component", "NoopBot").Logger()
	return &NoopBotAdapter{log: &l, delay: 100 * time.Millisecond}
}

// wait simulates slight processing time and respects ctx.
func (b *NoopBotAdapter) wait(ctx context.Context) error {
	if b.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(b.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Msg("send message")
	return nil
}

func (b *NoopBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Interface("buttons", rows).Msg("send buttons")
	return nil
}

func (b *NoopBotAdapter) EditMessage(ctx context.Context, chatID int64, messageID int, text string, rows [][]adapter.InlineButton) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Int("message_id", messageID).Str("text", text).Interface("buttons", rows).Msg("edit message")
	return nil
}

func (b *NoopBotAdapter) AnswerCallback(ctx context.Context, queryID, text string, alert bool) error {
	b.log.Info().Str("query_id", queryID).Str("text", text).Bool("alert", alert).Msg("answer callback")
	return ctx.Err()
}

func (b *NoopBotAdapter) ForwardPost(ctx context.Context, chatID int64, post *model.Post) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Str("channel", post.Channel.Username).Int("post_id", post.MessageID).Msg("forward post")
	return nil
}

func (b *NoopBotAdapter) ResendPost(ctx context.Context, chatID int64, post *model.Post) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Str("channel", post.Channel.Username).Int("post_id", post.MessageID).Msg("resend post")
	return nil
}
