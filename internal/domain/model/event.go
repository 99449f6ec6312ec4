package model

import "strings"

type ChatKind string

const (
	ChatPrivate ChatKind = "private"
	ChatGroup   ChatKind = "group"
	ChatChannel ChatKind = "channel"
)

type Sender struct {
	ID        int64
	FirstName string
	Username  string
	IsBot     bool
}

// Message is an inbound text message. EventID is unique per update and is
// what the dedupe set claims.
type Message struct {
	EventID   string
	ChatID    int64
	ChatKind  ChatKind
	MessageID int
	Sender    Sender
	Text      string
}

// Command returns the leading "/command" of the text with any "@botname"
// suffix removed, or "" for non-command text.
func (m *Message) Command() string {
	text := strings.TrimSpace(m.Text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	first := strings.Fields(text)[0]
	if i := strings.IndexByte(first, '@'); i >= 0 {
		first = first[:i]
	}
	return strings.ToLower(first)
}

// Callback is an inline button press.
type Callback struct {
	EventID   string
	QueryID   string
	ChatID    int64
	ChatKind  ChatKind
	MessageID int
	Sender    Sender
	Data      string
}
