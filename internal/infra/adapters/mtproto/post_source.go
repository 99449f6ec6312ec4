package mtproto

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"

	"channel-relay-bot/internal/domain"
	"channel-relay-bot/internal/domain/model"
)

// FetchByHandle resolves the channel afresh and reads the post from it.
func (c *Client) FetchByHandle(ctx context.Context, ref model.ChannelPostReference) (*model.Post, error) {
	ch, err := c.ResolveChannel(ctx, ref.ChannelUsername)
	if err != nil {
		return nil, err
	}
	return c.FetchByPeer(ctx, ch, ref.MessageID)
}

// FetchByPeer reads the post with an already known channel id and hash.
func (c *Client) FetchByPeer(ctx context.Context, ch *model.Channel, messageID int) (*model.Post, error) {
	if ch.IsZero() || ch.ID == 0 {
		return nil, domain.ErrPeerNotFound
	}
	api, err := c.raw()
	if err != nil {
		return nil, err
	}
	var res tg.MessagesMessagesClass
	err = withFloodWait(ctx, func(ctx context.Context) error {
		var err error
		res, err = api.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
			Channel: inputChannel(ch),
			ID:      []tg.InputMessageClass{&tg.InputMessageID{ID: messageID}},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.pickPost(res, *ch, messageID)
}

// FetchBatch uses the generic message lookup. It needs a channel already in
// the peer cache: results are accepted only when they belong to that channel.
func (c *Client) FetchBatch(ctx context.Context, ref model.ChannelPostReference) (*model.Post, error) {
	ch, ok := c.peers.channelByUsername(ref.ChannelUsername)
	if !ok || ch.ID == 0 {
		return nil, domain.ErrPeerNotFound
	}
	api, err := c.raw()
	if err != nil {
		return nil, err
	}
	var res tg.MessagesMessagesClass
	err = withFloodWait(ctx, func(ctx context.Context) error {
		var err error
		res, err = api.MessagesGetMessages(ctx, []tg.InputMessageClass{&tg.InputMessageID{ID: ref.MessageID}})
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.pickPost(res, *ch, ref.MessageID)
}

func (c *Client) pickPost(res tg.MessagesMessagesClass, ch model.Channel, messageID int) (*model.Post, error) {
	var msgs []tg.MessageClass
	switch v := res.(type) {
	case *tg.MessagesChannelMessages:
		c.peers.applyChats(v.Chats)
		c.peers.applyUsers(v.Users)
		msgs = v.Messages
	case *tg.MessagesMessages:
		msgs = v.Messages
	case *tg.MessagesMessagesSlice:
		msgs = v.Messages
	}
	for _, mc := range msgs {
		m, ok := mc.(*tg.Message)
		if !ok || m.ID != messageID {
			continue
		}
		// the message must come from the referenced channel
		if peer, ok := m.PeerID.(*tg.PeerChannel); !ok || ch.ID == 0 || peer.ChannelID != ch.ID {
			continue
		}
		post := &model.Post{
			Channel:   ch,
			MessageID: m.ID,
			Text:      m.Message,
			HasMedia:  hasMedia(m),
			Raw:       m,
		}
		if post.IsEmpty() {
			break
		}
		return post, nil
	}
	return nil, fmt.Errorf("%w: %s/%d", domain.ErrPostNotFound, ch.Username, messageID)
}

func hasMedia(m *tg.Message) bool {
	if m.Media == nil {
		return false
	}
	_, empty := m.Media.(*tg.MessageMediaEmpty)
	return !empty
}
