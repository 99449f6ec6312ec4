package mtproto

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"

	"channel-relay-bot/internal/domain/model"
	"channel-relay-bot/internal/domain/ports/adapter"
)

// registerUpdates converts inbound messages and button presses and hands
// them to handler. Handlers are expected not to block.
func registerUpdates(d tg.UpdateDispatcher, peers *peerCache, handler adapter.UpdateHandler) {
	d.OnNewMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
		peers.applyEntities(e)
		if msg, ok := convertMessage(e, peers, u.Message); ok {
			handler.HandleMessage(ctx, msg)
		}
		return nil
	})
	d.OnNewChannelMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
		peers.applyEntities(e)
		if msg, ok := convertMessage(e, peers, u.Message); ok {
			handler.HandleMessage(ctx, msg)
		}
		return nil
	})
	d.OnBotCallbackQuery(func(ctx context.Context, e tg.Entities, u *tg.UpdateBotCallbackQuery) error {
		peers.applyEntities(e)
		handler.HandleCallback(ctx, convertCallback(e, peers, u))
		return nil
	})
}

func convertMessage(e tg.Entities, peers *peerCache, mc tg.MessageClass) (*model.Message, bool) {
	m, ok := mc.(*tg.Message)
	if !ok || m.Out {
		return nil, false
	}
	msg := &model.Message{MessageID: m.ID, Text: m.Message}

	switch p := m.PeerID.(type) {
	case *tg.PeerUser:
		msg.ChatID = p.UserID
		msg.ChatKind = model.ChatPrivate
		msg.Sender = peers.sender(e, p.UserID)
	case *tg.PeerChat:
		msg.ChatID = p.ChatID
		msg.ChatKind = model.ChatGroup
	case *tg.PeerChannel:
		msg.ChatID = p.ChannelID
		msg.ChatKind = model.ChatChannel
		if ch, ok := e.Channels[p.ChannelID]; ok && ch.Megagroup {
			msg.ChatKind = model.ChatGroup
		}
	default:
		return nil, false
	}
	if from, ok := m.GetFromID(); ok {
		if pu, ok := from.(*tg.PeerUser); ok {
			msg.Sender = peers.sender(e, pu.UserID)
		}
	}
	msg.EventID = fmt.Sprintf("mtproto:msg:%d:%d", msg.ChatID, m.ID)
	return msg, true
}

func convertCallback(e tg.Entities, peers *peerCache, u *tg.UpdateBotCallbackQuery) *model.Callback {
	cb := &model.Callback{
		EventID:   fmt.Sprintf("mtproto:cb:%d", u.QueryID),
		QueryID:   fmt.Sprint(u.QueryID),
		MessageID: u.MsgID,
		Sender:    peers.sender(e, u.UserID),
		Data:      string(u.Data),
	}
	switch p := u.Peer.(type) {
	case *tg.PeerUser:
		cb.ChatID, cb.ChatKind = p.UserID, model.ChatPrivate
	case *tg.PeerChat:
		cb.ChatID, cb.ChatKind = p.ChatID, model.ChatGroup
	case *tg.PeerChannel:
		cb.ChatID, cb.ChatKind = p.ChannelID, model.ChatChannel
	}
	return cb
}
