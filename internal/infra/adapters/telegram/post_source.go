package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"channel-relay-bot/internal/domain"
	"channel-relay-bot/internal/domain/model"
)

// stagedCopy is the forwarded copy of a post in the staging chat.
type stagedCopy struct {
	ChatID    int64
	MessageID int
}

// FetchByHandle forwards the post into the staging chat by channel username.
func (r *RealTelegramBotAdapter) FetchByHandle(ctx context.Context, ref model.ChannelPostReference) (*model.Post, error) {
	cfg := tgbotapi.ForwardConfig{
		BaseChat:            tgbotapi.BaseChat{ChatID: r.staging, DisableNotification: true},
		FromChannelUsername: "@" + ref.ChannelUsername,
		MessageID:           ref.MessageID,
	}
	return r.stage(ctx, model.Channel{Username: normalizeUsername(ref.ChannelUsername)}, cfg)
}

// FetchByPeer forwards by numeric channel id.
func (r *RealTelegramBotAdapter) FetchByPeer(ctx context.Context, ch *model.Channel, messageID int) (*model.Post, error) {
	if ch.IsZero() || ch.ID == 0 {
		return nil, domain.ErrPeerNotFound
	}
	cfg := tgbotapi.ForwardConfig{
		BaseChat:   tgbotapi.BaseChat{ChatID: r.staging, DisableNotification: true},
		FromChatID: ch.ID,
		MessageID:  messageID,
	}
	return r.stage(ctx, *ch, cfg)
}

// FetchBatch re-resolves the channel, bypassing the cache, and fetches by id.
func (r *RealTelegramBotAdapter) FetchBatch(ctx context.Context, ref model.ChannelPostReference) (*model.Post, error) {
	ch, err := r.ResolveChannel(ctx, ref.ChannelUsername)
	if err != nil {
		return nil, err
	}
	return r.FetchByPeer(ctx, ch, ref.MessageID)
}

func (r *RealTelegramBotAdapter) stage(ctx context.Context, ch model.Channel, cfg tgbotapi.ForwardConfig) (*model.Post, error) {
	bot, err := r.api()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := bot.Send(cfg)
	if err != nil {
		return nil, mapError(err)
	}
	post := &model.Post{
		Channel:   ch,
		MessageID: cfg.MessageID,
		Text:      m.Text,
		HasMedia:  hasMedia(&m),
		Raw:       stagedCopy{ChatID: r.staging, MessageID: m.MessageID},
	}
	if post.Text == "" {
		post.Text = m.Caption
	}
	if m.ForwardFromChat != nil && post.Channel.ID == 0 {
		post.Channel.ID = m.ForwardFromChat.ID
		post.Channel.Title = m.ForwardFromChat.Title
	}
	if post.IsEmpty() {
		_ = r.ReleasePost(ctx, post)
		return nil, fmt.Errorf("%w: %s/%d is empty", domain.ErrPostNotFound, ch.Username, cfg.MessageID)
	}
	return post, nil
}

// ReleasePost deletes the staging copy.
func (r *RealTelegramBotAdapter) ReleasePost(ctx context.Context, post *model.Post) error {
	staged, ok := post.Raw.(stagedCopy)
	if !ok {
		return nil
	}
	bot, err := r.api()
	if err != nil {
		return err
	}
	_, err = bot.Request(tgbotapi.NewDeleteMessage(staged.ChatID, staged.MessageID))
	return mapError(err)
}

func hasMedia(m *tgbotapi.Message) bool {
	return len(m.Photo) > 0 ||
		m.Video != nil ||
		m.Animation != nil ||
		m.Document != nil ||
		m.Audio != nil ||
		m.Voice != nil ||
		m.VideoNote != nil ||
		m.Sticker != nil ||
		m.Poll != nil ||
		m.Location != nil ||
		m.Contact != nil
}
