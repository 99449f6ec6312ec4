//go:build !integration

package i18n

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestTranslator(t *testing.T) {
	translator, err := newTranslatorFromBytes([]byte("greeting: Hi\nwelcome_user: Welcome %s"))
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		if got := translator.T("greeting"); got != "Hi" {
			t.Errorf("wanted 'Hi', got '%s'", got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		if got := translator.T("nonexistent_key"); got != "nonexistent_key" {
			t.Errorf("wanted 'nonexistent_key', got '%s'", got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		if got := translator.T("welcome_user", "Ali"); got != "Welcome Ali" {
			t.Errorf("wanted 'Welcome Ali', got '%s'", got)
		}
	})
}

func TestNewTranslatorFallsBackToEnglish(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en.yaml": {Data: []byte("hello: Hello %s")},
	}
	tr, err := NewTranslator(fsys, "de")
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}
	if tr.Lang() != "en" {
		t.Fatalf("lang = %q, want en", tr.Lang())
	}
	if got := tr.T("hello", "Bo"); got != "Hello Bo" {
		t.Fatalf("got %q", got)
	}
}

func TestEmbeddedLocaleHasAllKeys(t *testing.T) {
	tr, err := NewTranslator(LocalesFS, "en")
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}
	keys := []string{
		"welcome", "hello", "help", "join_prompt", "btn_join", "btn_check",
		"capacity_exceeded", "post_not_found", "delivery_failed",
		"cb_subscribed", "cb_not_subscribed", "cb_error",
	}
	for _, k := range keys {
		if tr.T(k) == k {
			t.Errorf("embedded locale is missing %q", k)
		}
	}
	if !strings.Contains(tr.T("welcome", "Ann"), "Welcome Ann!") {
		t.Errorf("welcome text does not use first name: %q", tr.T("welcome", "Ann"))
	}
}
