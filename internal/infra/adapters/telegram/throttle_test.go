package telegram

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"channel-relay-bot/internal/domain/model"
)

type countingMessenger struct {
	NoopBotAdapter
	sends   atomic.Int32
	answers atomic.Int32
}

func (c *countingMessenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	c.sends.Add(1)
	return nil
}

func (c *countingMessenger) AnswerCallback(ctx context.Context, queryID, text string, alert bool) error {
	c.answers.Add(1)
	return nil
}

func TestThrottledMessengerWaitsForToken(t *testing.T) {
	next := &countingMessenger{}
	m := NewThrottledMessenger(next, 0.001, 1)

	if err := m.SendMessage(context.Background(), 1, "first"); err != nil {
		t.Fatalf("first send: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := m.SendMessage(ctx, 1, "second"); err == nil {
		t.Fatal("expected second send to be throttled")
	}
	if got := next.sends.Load(); got != 1 {
		t.Fatalf("sends = %d, want 1", got)
	}

	// callback answers bypass the limiter
	if err := m.AnswerCallback(context.Background(), "q", "ok", false); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if got := next.answers.Load(); got != 1 {
		t.Fatalf("answers = %d, want 1", got)
	}
}

func TestNoopBotAdapter(t *testing.T) {
	logger := zerolog.New(io.Discard)
	b := NewNoopBotAdapter(&logger)
	b.delay = 0

	post := &model.Post{Channel: model.Channel{Username: "morsh_bots"}, MessageID: 7}
	if err := b.ForwardPost(context.Background(), 1, post); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if err := b.SendMessage(context.Background(), 1, "hi"); err != nil {
		t.Fatalf("send: %v", err)
	}

	b.delay = time.Second
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.ResendPost(ctx, 1, post); !errors.Is(err, context.Canceled) {
		t.Fatalf("resend on cancelled ctx: %v", err)
	}
}
