//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"channel-relay-bot/internal/domain"
	"channel-relay-bot/internal/domain/model"
	"channel-relay-bot/internal/domain/ports/adapter"
	"channel-relay-bot/internal/infra/i18n"
)

// ---- Mock ChannelDirectory ----

type MockDirectory struct {
	mu            sync.Mutex
	ResolveCalls  int
	ParticipantOf map[int64]bool

	ResolveChannelFunc   func(ctx context.Context, username string) (*model.Channel, error)
	CachedChannelFunc    func(ctx context.Context, username string) (*model.Channel, error)
	GetParticipantFunc   func(ctx context.Context, ch *model.Channel, userID int64) error
	ListParticipantsFunc func(ctx context.Context, ch *model.Channel, offset, limit int) ([]int64, error)
}

var _ adapter.ChannelDirectory = (*MockDirectory)(nil)

func (m *MockDirectory) ResolveChannel(ctx context.Context, username string) (*model.Channel, error) {
	m.mu.Lock()
	m.ResolveCalls++
	m.mu.Unlock()
	if m.ResolveChannelFunc != nil {
		return m.ResolveChannelFunc(ctx, username)
	}
	return &model.Channel{ID: 100, AccessHash: 1, Username: username}, nil
}

func (m *MockDirectory) CachedChannel(ctx context.Context, username string) (*model.Channel, error) {
	if m.CachedChannelFunc != nil {
		return m.CachedChannelFunc(ctx, username)
	}
	return &model.Channel{ID: 100, AccessHash: 1, Username: username}, nil
}

func (m *MockDirectory) GetParticipant(ctx context.Context, ch *model.Channel, userID int64) error {
	if m.GetParticipantFunc != nil {
		return m.GetParticipantFunc(ctx, ch, userID)
	}
	if m.ParticipantOf[userID] {
		return nil
	}
	return domain.ErrNotParticipant
}

func (m *MockDirectory) ListParticipants(ctx context.Context, ch *model.Channel, offset, limit int) ([]int64, error) {
	if m.ListParticipantsFunc != nil {
		return m.ListParticipantsFunc(ctx, ch, offset, limit)
	}
	return nil, nil
}

// ---- Mock PostSource ----

type MockSource struct {
	mu       sync.Mutex
	Calls    []string
	Released []*model.Post

	FetchByHandleFunc func(ctx context.Context, ref model.ChannelPostReference) (*model.Post, error)
	FetchByPeerFunc   func(ctx context.Context, ch *model.Channel, messageID int) (*model.Post, error)
	FetchBatchFunc    func(ctx context.Context, ref model.ChannelPostReference) (*model.Post, error)
}

var _ adapter.PostSource = (*MockSource)(nil)

func (m *MockSource) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, name)
}

func (m *MockSource) FetchByHandle(ctx context.Context, ref model.ChannelPostReference) (*model.Post, error) {
	m.record("handle")
	if m.FetchByHandleFunc != nil {
		return m.FetchByHandleFunc(ctx, ref)
	}
	return nil, domain.ErrPostNotFound
}

func (m *MockSource) FetchByPeer(ctx context.Context, ch *model.Channel, messageID int) (*model.Post, error) {
	m.record("peer")
	if m.FetchByPeerFunc != nil {
		return m.FetchByPeerFunc(ctx, ch, messageID)
	}
	return nil, domain.ErrPostNotFound
}

func (m *MockSource) FetchBatch(ctx context.Context, ref model.ChannelPostReference) (*model.Post, error) {
	m.record("batch")
	if m.FetchBatchFunc != nil {
		return m.FetchBatchFunc(ctx, ref)
	}
	return nil, domain.ErrPostNotFound
}

// MockStagingSource additionally releases posts, like the Bot API driver.
type MockStagingSource struct {
	MockSource
}

var _ adapter.PostReleaser = (*MockStagingSource)(nil)

func (m *MockStagingSource) ReleasePost(ctx context.Context, post *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Released = append(m.Released, post)
	return nil
}

// ---- Mock Messenger ----

type SentMessage struct {
	ChatID int64
	Text   string
	Rows   [][]adapter.InlineButton
}

type MockMessenger struct {
	mu        sync.Mutex
	Sent      []SentMessage
	Forwarded []*model.Post
	Resent    []*model.Post

	ForwardPostFunc func(ctx context.Context, chatID int64, post *model.Post) error
	ResendPostFunc  func(ctx context.Context, chatID int64, post *model.Post) error
}

var _ adapter.Messenger = (*MockMessenger)(nil)

func (m *MockMessenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMessage{ChatID: chatID, Text: text})
	return nil
}

func (m *MockMessenger) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMessage{ChatID: chatID, Text: text, Rows: rows})
	return nil
}

func (m *MockMessenger) EditMessage(ctx context.Context, chatID int64, messageID int, text string, rows [][]adapter.InlineButton) error {
	return nil
}

func (m *MockMessenger) AnswerCallback(ctx context.Context, queryID, text string, alert bool) error {
	return nil
}

func (m *MockMessenger) ForwardPost(ctx context.Context, chatID int64, post *model.Post) error {
	m.mu.Lock()
	m.Forwarded = append(m.Forwarded, post)
	m.mu.Unlock()
	if m.ForwardPostFunc != nil {
		return m.ForwardPostFunc(ctx, chatID, post)
	}
	return nil
}

func (m *MockMessenger) ResendPost(ctx context.Context, chatID int64, post *model.Post) error {
	m.mu.Lock()
	m.Resent = append(m.Resent, post)
	m.mu.Unlock()
	if m.ResendPostFunc != nil {
		return m.ResendPostFunc(ctx, chatID, post)
	}
	return nil
}

// -----------------------------
// Utilities
// -----------------------------

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestTranslator() *i18n.Translator {
	translator, _ := i18n.NewTranslator(i18n.LocalesFS, "en")
	return translator
}
