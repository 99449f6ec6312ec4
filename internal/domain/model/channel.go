package model

import (
	"fmt"
	"strings"

	"channel-relay-bot/internal/domain"
)

// Channel is a resolved broadcast channel. AccessHash is zero when the
// driver addresses channels by username only.
type Channel struct {
	ID         int64
	AccessHash int64
	Username   string
	Title      string
}

func (c *Channel) IsZero() bool { return c == nil || (c.ID == 0 && c.Username == "") }

// ChannelPostReference addresses a single post by channel handle and id.
type ChannelPostReference struct {
	ChannelUsername string
	MessageID       int
}

func NewChannelPostReference(username string, id int) (ChannelPostReference, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" || id <= 0 {
		return ChannelPostReference{}, domain.ErrInvalidArgument
	}
	return ChannelPostReference{ChannelUsername: username, MessageID: id}, nil
}

func (r ChannelPostReference) String() string {
	return fmt.Sprintf("%s/%d", r.ChannelUsername, r.MessageID)
}

// Post is a fetched channel post. Raw carries driver data needed to resend
// the post (media handles, staging copy ids) and is opaque to use cases.
type Post struct {
	Channel   Channel
	MessageID int
	Text      string
	HasMedia  bool
	Raw       any
}

// IsEmpty reports whether the post has nothing to deliver.
func (p *Post) IsEmpty() bool {
	return p == nil || (strings.TrimSpace(p.Text) == "" && !p.HasMedia)
}
