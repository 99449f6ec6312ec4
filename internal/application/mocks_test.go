package application_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"channel-relay-bot/internal/domain/model"
	"channel-relay-bot/internal/domain/ports/adapter"
)

type sent struct {
	ChatID int64
	Text   string
	Rows   [][]adapter.InlineButton
}

type edit struct {
	ChatID    int64
	MessageID int
	Text      string
	Rows      [][]adapter.InlineButton
}

type answer struct {
	QueryID string
	Text    string
	Alert   bool
}

type mockMessenger struct {
	mu      sync.Mutex
	sent    []sent
	edits   []edit
	answers []answer

	editErr error
}

var _ adapter.Messenger = (*mockMessenger)(nil)

func (m *mockMessenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sent{ChatID: chatID, Text: text})
	return nil
}

func (m *mockMessenger) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sent{ChatID: chatID, Text: text, Rows: rows})
	return nil
}

func (m *mockMessenger) EditMessage(ctx context.Context, chatID int64, messageID int, text string, rows [][]adapter.InlineButton) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, edit{ChatID: chatID, MessageID: messageID, Text: text, Rows: rows})
	return m.editErr
}

func (m *mockMessenger) AnswerCallback(ctx context.Context, queryID, text string, alert bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, answer{QueryID: queryID, Text: text, Alert: alert})
	return nil
}

func (m *mockMessenger) ForwardPost(ctx context.Context, chatID int64, post *model.Post) error {
	return nil
}

func (m *mockMessenger) ResendPost(ctx context.Context, chatID int64, post *model.Post) error {
	return nil
}

// mockSubs answers from a fixed set of subscribed user ids.
type mockSubs struct {
	mu         sync.Mutex
	subscribed map[int64]bool
	calls      int
}

func (m *mockSubs) IsSubscribed(ctx context.Context, userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.subscribed[userID]
}

func (m *mockSubs) set(userID int64, v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribed[userID] = v
}

type mockRelay struct {
	mu      sync.Mutex
	relayed []*model.Message
	panics  bool
}

func (m *mockRelay) ResolveAndRelay(ctx context.Context, msg *model.Message) {
	if m.panics {
		panic("relay exploded")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relayed = append(m.relayed, msg)
}

// fakeClock is advanced manually by tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
