package telegram

import (
	"context"

	"golang.org/x/time/rate"

	"channel-relay-bot/internal/domain/model"
	"channel-relay-bot/internal/domain/ports/adapter"
)

var _ adapter.Messenger = (*ThrottledMessenger)(nil)

// ThrottledMessenger keeps outbound traffic under the platform's global send
// limit. Callback answers are not throttled; they expire within seconds.
type ThrottledMessenger struct {
	next adapter.Messenger
	lim  *rate.Limiter
}

// NewThrottledMessenger allows perSecond sends with bursts of burst.
func NewThrottledMessenger(next adapter.Messenger, perSecond float64, burst int) *ThrottledMessenger {
	if burst <= 0 {
		burst = 1
	}
	return &ThrottledMessenger{next: next, lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (t *ThrottledMessenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := t.lim.Wait(ctx); err != nil {
		return err
	}
	return t.next.SendMessage(ctx, chatID, text)
}

func (t *ThrottledMessenger) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if err := t.lim.Wait(ctx); err != nil {
		return err
	}
	return t.next.SendButtons(ctx, chatID, text, rows)
}

func (t *ThrottledMessenger) EditMessage(ctx context.Context, chatID int64, messageID int, text string, rows [][]adapter.InlineButton) error {
	if err := t.lim.Wait(ctx); err != nil {
		return err
	}
	return t.next.EditMessage(ctx, chatID, messageID, text, rows)
}

func (t *ThrottledMessenger) AnswerCallback(ctx context.Context, queryID, text string, alert bool) error {
	return t.next.AnswerCallback(ctx, queryID, text, alert)
}

func (t *ThrottledMessenger) ForwardPost(ctx context.Context, chatID int64, post *model.Post) error {
	if err := t.lim.Wait(ctx); err != nil {
		return err
	}
	return t.next.ForwardPost(ctx, chatID, post)
}

func (t *ThrottledMessenger) ResendPost(ctx context.Context, chatID int64, post *model.Post) error {
	if err := t.lim.Wait(ctx); err != nil {
		return err
	}
	return t.next.ResendPost(ctx, chatID, post)
}
