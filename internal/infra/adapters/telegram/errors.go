package telegram

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"channel-relay-bot/internal/domain"
)

// mapError translates Bot API failures into domain errors. Unknown errors
// pass through unchanged.
func mapError(err error) error {
	var tgErr *tgbotapi.Error
	if !errors.As(err, &tgErr) {
		return err
	}
	msg := strings.ToLower(tgErr.Message)
	switch {
	case tgErr.Code == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, tgErr.Message)
	case strings.Contains(msg, "message is not modified"):
		return domain.ErrMessageNotModified
	case strings.Contains(msg, "message to forward not found"),
		strings.Contains(msg, "message to copy not found"),
		strings.Contains(msg, "message_id_invalid"):
		return fmt.Errorf("%w: %s", domain.ErrPostNotFound, tgErr.Message)
	case strings.Contains(msg, "user not found"),
		strings.Contains(msg, "participant_id_invalid"),
		strings.Contains(msg, "member not found"):
		return domain.ErrNotParticipant
	case strings.Contains(msg, "chat not found"),
		strings.Contains(msg, "username_not_occupied"),
		strings.Contains(msg, "username_invalid"):
		return fmt.Errorf("%w: %s", domain.ErrPeerNotFound, tgErr.Message)
	}
	return err
}

// authError maps a failed getMe. The server answers 404 for malformed tokens
// and 401 for revoked ones; both mean the credentials are unusable.
func authError(err error) error {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && (tgErr.Code == http.StatusUnauthorized || tgErr.Code == http.StatusNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, tgErr.Message)
	}
	return err
}

// retryAfter reports the flood-wait delay in seconds, or 0.
func retryAfter(err error) int {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.Code == http.StatusTooManyRequests {
		return tgErr.RetryAfter
	}
	return 0
}
