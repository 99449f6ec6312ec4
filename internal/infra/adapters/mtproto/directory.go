package mtproto

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"

	"channel-relay-bot/internal/domain"
	"channel-relay-bot/internal/domain/model"
)

func (c *Client) ResolveChannel(ctx context.Context, username string) (*model.Channel, error) {
	api, err := c.raw()
	if err != nil {
		return nil, err
	}
	username = normalizeUsername(username)
	var res *tg.ContactsResolvedPeer
	err = withFloodWait(ctx, func(ctx context.Context) error {
		var err error
		res, err = api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
		return err
	})
	if err != nil {
		return nil, err
	}
	c.peers.applyUsers(res.Users)
	c.peers.applyChats(res.Chats)

	peer, ok := res.Peer.(*tg.PeerChannel)
	if !ok {
		return nil, fmt.Errorf("%w: @%s is not a channel", domain.ErrPeerNotFound, username)
	}
	for _, chat := range res.Chats {
		if ch, ok := chat.(*tg.Channel); ok && ch.ID == peer.ChannelID {
			return channelModel(ch), nil
		}
	}
	return nil, fmt.Errorf("%w: @%s missing from resolve result", domain.ErrPeerNotFound, username)
}

func (c *Client) CachedChannel(ctx context.Context, username string) (*model.Channel, error) {
	if ch, ok := c.peers.channelByUsername(username); ok {
		return ch, nil
	}
	return c.ResolveChannel(ctx, username)
}

func (c *Client) GetParticipant(ctx context.Context, ch *model.Channel, userID int64) error {
	api, err := c.raw()
	if err != nil {
		return err
	}
	var res *tg.ChannelsChannelParticipant
	err = withFloodWait(ctx, func(ctx context.Context) error {
		var err error
		res, err = api.ChannelsGetParticipant(ctx, &tg.ChannelsGetParticipantRequest{
			Channel:     inputChannel(ch),
			Participant: c.peers.inputUser(userID),
		})
		return err
	})
	if err != nil {
		return err
	}
	switch res.Participant.(type) {
	case *tg.ChannelParticipantLeft, *tg.ChannelParticipantBanned:
		return domain.ErrNotParticipant
	}
	return nil
}

func (c *Client) ListParticipants(ctx context.Context, ch *model.Channel, offset, limit int) ([]int64, error) {
	api, err := c.raw()
	if err != nil {
		return nil, err
	}
	var res tg.ChannelsChannelParticipantsClass
	err = withFloodWait(ctx, func(ctx context.Context) error {
		var err error
		res, err = api.ChannelsGetParticipants(ctx, &tg.ChannelsGetParticipantsRequest{
			Channel: inputChannel(ch),
			Filter:  &tg.ChannelParticipantsRecent{},
			Offset:  offset,
			Limit:   limit,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	page, ok := res.(*tg.ChannelsChannelParticipants)
	if !ok {
		return nil, nil
	}
	c.peers.applyUsers(page.Users)
	ids := make([]int64, 0, len(page.Participants))
	for _, p := range page.Participants {
		if id, ok := participantUserID(p); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// participantUserID extracts the user id of an active participant.
func participantUserID(p tg.ChannelParticipantClass) (int64, bool) {
	switch v := p.(type) {
	case *tg.ChannelParticipant:
		return v.UserID, true
	case *tg.ChannelParticipantSelf:
		return v.UserID, true
	case *tg.ChannelParticipantCreator:
		return v.UserID, true
	case *tg.ChannelParticipantAdmin:
		return v.UserID, true
	}
	return 0, false
}
