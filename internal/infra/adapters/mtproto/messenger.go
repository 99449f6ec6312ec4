package mtproto

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/gotd/td/tg"

	"channel-relay-bot/internal/domain"
	"channel-relay-bot/internal/domain/model"
	"channel-relay-bot/internal/domain/ports/adapter"
)

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.sendText(ctx, chatID, text, nil)
}

func (c *Client) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	return c.sendText(ctx, chatID, text, inlineMarkup(rows))
}

func (c *Client) sendText(ctx context.Context, chatID int64, text string, markup tg.ReplyMarkupClass) error {
	api, err := c.raw()
	if err != nil {
		return err
	}
	req := &tg.MessagesSendMessageRequest{
		Peer:     c.peers.inputUser(chatID),
		Message:  text,
		RandomID: randomID(),
	}
	if markup != nil {
		req.ReplyMarkup = markup
	}
	return withFloodWait(ctx, func(ctx context.Context) error {
		_, err := api.MessagesSendMessage(ctx, req)
		return err
	})
}

// EditMessage with nil rows drops the inline keyboard.
func (c *Client) EditMessage(ctx context.Context, chatID int64, messageID int, text string, rows [][]adapter.InlineButton) error {
	api, err := c.raw()
	if err != nil {
		return err
	}
	req := &tg.MessagesEditMessageRequest{
		Peer:    c.peers.inputUser(chatID),
		ID:      messageID,
		Message: text,
	}
	if markup := inlineMarkup(rows); markup != nil {
		req.ReplyMarkup = markup
	}
	return withFloodWait(ctx, func(ctx context.Context) error {
		_, err := api.MessagesEditMessage(ctx, req)
		return err
	})
}

func (c *Client) AnswerCallback(ctx context.Context, queryID, text string, alert bool) error {
	api, err := c.raw()
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(queryID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: callback query id %q", domain.ErrInvalidArgument, queryID)
	}
	return withFloodWait(ctx, func(ctx context.Context) error {
		_, err := api.MessagesSetBotCallbackAnswer(ctx, &tg.MessagesSetBotCallbackAnswerRequest{
			QueryID: id,
			Message: text,
			Alert:   alert,
		})
		return err
	})
}

func (c *Client) ForwardPost(ctx context.Context, chatID int64, post *model.Post) error {
	api, err := c.raw()
	if err != nil {
		return err
	}
	if post.Channel.ID == 0 {
		return fmt.Errorf("%w: post has no channel peer", domain.ErrPeerNotFound)
	}
	return withFloodWait(ctx, func(ctx context.Context) error {
		_, err := api.MessagesForwardMessages(ctx, &tg.MessagesForwardMessagesRequest{
			FromPeer: inputPeerChannel(&post.Channel),
			ID:       []int{post.MessageID},
			RandomID: []int64{randomID()},
			ToPeer:   c.peers.inputUser(chatID),
		})
		return err
	})
}

// ResendPost sends the post's text and, where the media can be addressed
// again, its photo or document. Other media kinds go out as text only.
func (c *Client) ResendPost(ctx context.Context, chatID int64, post *model.Post) error {
	api, err := c.raw()
	if err != nil {
		return err
	}
	var media tg.InputMediaClass
	var entities []tg.MessageEntityClass
	if m, ok := post.Raw.(*tg.Message); ok {
		media = inputMedia(m.Media)
		entities = m.Entities
	}
	if media == nil {
		if post.Text == "" {
			return fmt.Errorf("%w: nothing to resend", domain.ErrUnsupported)
		}
		return withFloodWait(ctx, func(ctx context.Context) error {
			_, err := api.MessagesSendMessage(ctx, &tg.MessagesSendMessageRequest{
				Peer:     c.peers.inputUser(chatID),
				Message:  post.Text,
				Entities: entities,
				RandomID: randomID(),
			})
			return err
		})
	}
	return withFloodWait(ctx, func(ctx context.Context) error {
		_, err := api.MessagesSendMedia(ctx, &tg.MessagesSendMediaRequest{
			Peer:     c.peers.inputUser(chatID),
			Media:    media,
			Message:  post.Text,
			Entities: entities,
			RandomID: randomID(),
		})
		return err
	})
}

// inputMedia re-addresses photo and document media; nil for anything else.
func inputMedia(mm tg.MessageMediaClass) tg.InputMediaClass {
	switch v := mm.(type) {
	case *tg.MessageMediaPhoto:
		if p, ok := v.Photo.(*tg.Photo); ok {
			return &tg.InputMediaPhoto{ID: &tg.InputPhoto{
				ID:            p.ID,
				AccessHash:    p.AccessHash,
				FileReference: p.FileReference,
			}}
		}
	case *tg.MessageMediaDocument:
		if d, ok := v.Document.(*tg.Document); ok {
			return &tg.InputMediaDocument{ID: &tg.InputDocument{
				ID:            d.ID,
				AccessHash:    d.AccessHash,
				FileReference: d.FileReference,
			}}
		}
	}
	return nil
}

func inlineMarkup(rows [][]adapter.InlineButton) tg.ReplyMarkupClass {
	if len(rows) == 0 {
		return nil
	}
	markup := &tg.ReplyInlineMarkup{Rows: make([]tg.KeyboardButtonRow, 0, len(rows))}
	for _, row := range rows {
		buttons := make([]tg.KeyboardButtonClass, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, &tg.KeyboardButtonURL{Text: b.Text, URL: b.URL})
			} else {
				buttons = append(buttons, &tg.KeyboardButtonCallback{Text: b.Text, Data: []byte(b.Data)})
			}
		}
		markup.Rows = append(markup.Rows, tg.KeyboardButtonRow{Buttons: buttons})
	}
	return markup
}

func randomID() int64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return int64(binary.LittleEndian.Uint64(b[:]))
}
