package model

import (
	"errors"
	"testing"

	"channel-relay-bot/internal/domain"
)

func TestMessageCommand(t *testing.T) {
	cases := map[string]string{
		"/start":              "/start",
		"/start@relay_bot":    "/start",
		"/HELP extra words":   "/help",
		"  /hello  ":          "/hello",
		"/startx":             "/startx",
		"hello":               "",
		"https://t.me/chan/1": "",
		"":                    "",
	}
	for in, want := range cases {
		m := &Message{Text: in}
		if got := m.Command(); got != want {
			t.Errorf("Command(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewChannelPostReference(t *testing.T) {
	ref, err := NewChannelPostReference("@examplechan", 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.ChannelUsername != "examplechan" || ref.MessageID != 42 {
		t.Fatalf("unexpected ref: %+v", ref)
	}
	if ref.String() != "examplechan/42" {
		t.Fatalf("unexpected String(): %s", ref.String())
	}

	if _, err := NewChannelPostReference("", 1); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for empty username, got %v", err)
	}
	if _, err := NewChannelPostReference("chan", 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for zero id, got %v", err)
	}
}

func TestPostIsEmpty(t *testing.T) {
	var nilPost *Post
	if !nilPost.IsEmpty() {
		t.Fatal("nil post should be empty")
	}
	if !(&Post{Text: "  "}).IsEmpty() {
		t.Fatal("whitespace post should be empty")
	}
	if (&Post{HasMedia: true}).IsEmpty() {
		t.Fatal("media-only post should not be empty")
	}
	if (&Post{Text: "hi"}).IsEmpty() {
		t.Fatal("text post should not be empty")
	}
}
