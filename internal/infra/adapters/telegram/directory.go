package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"channel-relay-bot/internal/domain"
	"channel-relay-bot/internal/domain/model"
)

func (r *RealTelegramBotAdapter) ResolveChannel(ctx context.Context, username string) (*model.Channel, error) {
	bot, err := r.api()
	if err != nil {
		return nil, err
	}
	username = normalizeUsername(username)
	chat, err := bot.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{SuperGroupUsername: "@" + username},
	})
	if err != nil {
		return nil, mapError(err)
	}
	if !chat.IsChannel() {
		return nil, domain.ErrPeerNotFound
	}
	ch := &model.Channel{ID: chat.ID, Username: username, Title: chat.Title}
	r.mu.Lock()
	r.channels[username] = ch
	r.mu.Unlock()
	return ch, nil
}

func (r *RealTelegramBotAdapter) CachedChannel(ctx context.Context, username string) (*model.Channel, error) {
	r.mu.RLock()
	ch, ok := r.channels[normalizeUsername(username)]
	r.mu.RUnlock()
	if ok {
		return ch, nil
	}
	return r.ResolveChannel(ctx, username)
}

// GetParticipant needs the bot to be an administrator of the channel;
// otherwise the server refuses with a generic error.
func (r *RealTelegramBotAdapter) GetParticipant(ctx context.Context, ch *model.Channel, userID int64) error {
	bot, err := r.api()
	if err != nil {
		return err
	}
	member, err := bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: chatWithUser(ch, userID),
	})
	if err != nil {
		return mapError(err)
	}
	switch member.Status {
	case "creator", "administrator", "member":
		return nil
	case "restricted":
		if member.IsMember {
			return nil
		}
	}
	return domain.ErrNotParticipant
}

// ListParticipants only sees administrators; the Bot API does not expose the
// subscriber list of a channel.
func (r *RealTelegramBotAdapter) ListParticipants(ctx context.Context, ch *model.Channel, offset, limit int) ([]int64, error) {
	bot, err := r.api()
	if err != nil {
		return nil, err
	}
	if offset > 0 {
		return nil, nil
	}
	admins, err := bot.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{ChatConfig: chatConfig(ch)})
	if err != nil {
		return nil, mapError(err)
	}
	ids := make([]int64, 0, len(admins))
	for _, a := range admins {
		if a.User != nil {
			ids = append(ids, a.User.ID)
		}
		if limit > 0 && len(ids) == limit {
			break
		}
	}
	return ids, nil
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "@"))
}

func chatConfig(ch *model.Channel) tgbotapi.ChatConfig {
	if ch.ID != 0 {
		return tgbotapi.ChatConfig{ChatID: ch.ID}
	}
	return tgbotapi.ChatConfig{SuperGroupUsername: "@" + ch.Username}
}

func chatWithUser(ch *model.Channel, userID int64) tgbotapi.ChatConfigWithUser {
	c := chatConfig(ch)
	return tgbotapi.ChatConfigWithUser{ChatID: c.ChatID, SuperGroupUsername: c.SuperGroupUsername, UserID: userID}
}
