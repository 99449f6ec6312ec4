package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"channel-relay-bot/internal/domain/model"
	"channel-relay-bot/internal/domain/ports/adapter"
)

// maxFloodWait is the longest server-requested pause honoured before
// giving up on a send.
const maxFloodWait = 30

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	return r.send(ctx, tgbotapi.NewMessage(chatID, text))
}

func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(rows) > 0 {
		msg.ReplyMarkup = inlineKeyboard(rows)
	}
	return r.send(ctx, msg)
}

func (r *RealTelegramBotAdapter) EditMessage(ctx context.Context, chatID int64, messageID int, text string, rows [][]adapter.InlineButton) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if len(rows) > 0 {
		kb := inlineKeyboard(rows)
		edit.ReplyMarkup = &kb
	}
	return r.request(ctx, edit)
}

func (r *RealTelegramBotAdapter) AnswerCallback(ctx context.Context, queryID, text string, alert bool) error {
	cfg := tgbotapi.NewCallback(queryID, text)
	cfg.ShowAlert = alert
	return r.request(ctx, cfg)
}

// ForwardPost forwards from the source channel so the recipient sees the
// original attribution.
func (r *RealTelegramBotAdapter) ForwardPost(ctx context.Context, chatID int64, post *model.Post) error {
	cfg := tgbotapi.ForwardConfig{
		BaseChat:  tgbotapi.BaseChat{ChatID: chatID},
		MessageID: post.MessageID,
	}
	if post.Channel.ID != 0 {
		cfg.FromChatID = post.Channel.ID
	} else {
		cfg.FromChannelUsername = "@" + post.Channel.Username
	}
	return r.send(ctx, cfg)
}

// ResendPost copies the post without a forward header, from the staging
// copy when there is one.
func (r *RealTelegramBotAdapter) ResendPost(ctx context.Context, chatID int64, post *model.Post) error {
	cfg := tgbotapi.CopyMessageConfig{
		BaseChat:  tgbotapi.BaseChat{ChatID: chatID},
		MessageID: post.MessageID,
	}
	if staged, ok := post.Raw.(stagedCopy); ok {
		cfg.FromChatID, cfg.MessageID = staged.ChatID, staged.MessageID
	} else if post.Channel.ID != 0 {
		cfg.FromChatID = post.Channel.ID
	} else {
		cfg.FromChannelUsername = "@" + post.Channel.Username
	}
	return r.withFloodWait(ctx, func(bot *tgbotapi.BotAPI) error {
		_, err := bot.CopyMessage(cfg)
		return err
	})
}

func (r *RealTelegramBotAdapter) send(ctx context.Context, c tgbotapi.Chattable) error {
	return r.withFloodWait(ctx, func(bot *tgbotapi.BotAPI) error {
		_, err := bot.Send(c)
		return err
	})
}

func (r *RealTelegramBotAdapter) request(ctx context.Context, c tgbotapi.Chattable) error {
	return r.withFloodWait(ctx, func(bot *tgbotapi.BotAPI) error {
		_, err := bot.Request(c)
		return err
	})
}

// withFloodWait runs call once more after a short server-requested pause.
func (r *RealTelegramBotAdapter) withFloodWait(ctx context.Context, call func(bot *tgbotapi.BotAPI) error) error {
	bot, err := r.api()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err = call(bot)
	if wait := retryAfter(err); wait > 0 && wait <= maxFloodWait {
		r.log.Warn().Int("retry_after", wait).Msg("flood wait")
		t := time.NewTimer(time.Duration(wait) * time.Second)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		err = call(bot)
	}
	return mapError(err)
}

func inlineKeyboard(rows [][]adapter.InlineButton) tgbotapi.InlineKeyboardMarkup {
	kb := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		line := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				line = append(line, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				line = append(line, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		kb = append(kb, line)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kb...)
}
