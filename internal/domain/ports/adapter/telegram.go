// File: internal/domain/ports/adapter/telegram.go
package adapter

import (
	"context"

	"channel-relay-bot/internal/domain/model"
)

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// ChannelDirectory resolves channels and answers membership questions.
type ChannelDirectory interface {
	// ResolveChannel always asks the platform.
	ResolveChannel(ctx context.Context, username string) (*model.Channel, error)
	// CachedChannel serves from the driver's peer cache when it can.
	CachedChannel(ctx context.Context, username string) (*model.Channel, error)
	// GetParticipant returns nil for a member and domain.ErrNotParticipant
	// for a definitive non-member.
	GetParticipant(ctx context.Context, ch *model.Channel, userID int64) error
	// ListParticipants returns one page of participant user ids.
	ListParticipants(ctx context.Context, ch *model.Channel, offset, limit int) ([]int64, error)
}

// PostSource fetches channel posts. Implementations return
// domain.ErrPostNotFound when the post does not exist or is empty.
type PostSource interface {
	FetchByHandle(ctx context.Context, ref model.ChannelPostReference) (*model.Post, error)
	FetchByPeer(ctx context.Context, ch *model.Channel, messageID int) (*model.Post, error)
	FetchBatch(ctx context.Context, ref model.ChannelPostReference) (*model.Post, error)
}

// PostReleaser is implemented by sources that keep temporary copies of
// fetched posts.
type PostReleaser interface {
	ReleasePost(ctx context.Context, post *model.Post) error
}

type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendButtons(ctx context.Context, chatID int64, text string, rows [][]InlineButton) error
	// EditMessage replaces text and keyboard; nil rows removes the keyboard.
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, rows [][]InlineButton) error
	AnswerCallback(ctx context.Context, queryID, text string, alert bool) error
	ForwardPost(ctx context.Context, chatID int64, post *model.Post) error
	ResendPost(ctx context.Context, chatID int64, post *model.Post) error
}

// UpdateHandler receives normalized inbound events from a driver.
type UpdateHandler interface {
	HandleMessage(ctx context.Context, msg *model.Message)
	HandleCallback(ctx context.Context, cb *model.Callback)
}
