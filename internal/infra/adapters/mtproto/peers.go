package mtproto

import (
	"strings"
	"sync"

	"github.com/gotd/td/tg"

	"channel-relay-bot/internal/domain/model"
)

// peerCache remembers access hashes seen in update entities and resolve
// results. Bots need them to address users and channels.
type peerCache struct {
	mu       sync.RWMutex
	users    map[int64]int64
	profiles map[int64]model.Sender
	channels map[int64]*model.Channel
	handles  map[string]int64
}

func newPeerCache() *peerCache {
	return &peerCache{
		users:    map[int64]int64{},
		profiles: map[int64]model.Sender{},
		channels: map[int64]*model.Channel{},
		handles:  map[string]int64{},
	}
}

func (c *peerCache) applyUsers(users []tg.UserClass) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			c.putUserLocked(user)
		}
	}
}

func (c *peerCache) applyChats(chats []tg.ChatClass) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range chats {
		if channel, ok := ch.(*tg.Channel); ok && !channel.Min {
			c.putLocked(channelModel(channel))
		}
	}
}

// applyEntities caches the peers attached to an update.
func (c *peerCache) applyEntities(e tg.Entities) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range e.Users {
		c.putUserLocked(u)
	}
	for _, ch := range e.Channels {
		if !ch.Min {
			c.putLocked(channelModel(ch))
		}
	}
}

// putUserLocked keeps the profile of every user; min users carry no usable
// access hash.
func (c *peerCache) putUserLocked(u *tg.User) {
	if !u.Min {
		c.users[u.ID] = u.AccessHash
	}
	if u.FirstName != "" || u.Username != "" {
		c.profiles[u.ID] = model.Sender{ID: u.ID, FirstName: u.FirstName, Username: u.Username, IsBot: u.Bot}
	}
}

// sender describes userID from the update entities, falling back to the
// last profile seen. Short updates arrive without entities.
func (c *peerCache) sender(e tg.Entities, userID int64) model.Sender {
	if u, ok := e.Users[userID]; ok {
		return model.Sender{ID: userID, FirstName: u.FirstName, Username: u.Username, IsBot: u.Bot}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.profiles[userID]; ok {
		return s
	}
	return model.Sender{ID: userID}
}

func (c *peerCache) putLocked(ch *model.Channel) {
	c.channels[ch.ID] = ch
	if ch.Username != "" {
		c.handles[ch.Username] = ch.ID
	}
}

func (c *peerCache) channelByUsername(username string) (*model.Channel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.handles[normalizeUsername(username)]
	if !ok {
		return nil, false
	}
	ch, ok := c.channels[id]
	return ch, ok
}

func (c *peerCache) inputUser(id int64) *tg.InputPeerUser {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &tg.InputPeerUser{UserID: id, AccessHash: c.users[id]}
}

func channelModel(ch *tg.Channel) *model.Channel {
	return &model.Channel{
		ID:         ch.ID,
		AccessHash: ch.AccessHash,
		Username:   normalizeUsername(ch.Username),
		Title:      ch.Title,
	}
}

func inputChannel(ch *model.Channel) *tg.InputChannel {
	return &tg.InputChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}
}

func inputPeerChannel(ch *model.Channel) *tg.InputPeerChannel {
	return &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "@"))
}
