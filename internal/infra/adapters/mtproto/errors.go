package mtproto

import (
	"context"
	"fmt"
	"time"

	"github.com/gotd/td/tgerr"

	"channel-relay-bot/internal/domain"
)

// maxFloodWait is the longest FLOOD_WAIT honoured before giving up.
const maxFloodWait = 30 * time.Second

// mapError translates RPC errors into domain errors. Unknown errors pass
// through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case tgerr.Is(err, "USER_NOT_PARTICIPANT"):
		return domain.ErrNotParticipant
	case tgerr.Is(err, "MESSAGE_NOT_MODIFIED"):
		return domain.ErrMessageNotModified
	case tgerr.Is(err, "MESSAGE_ID_INVALID", "MESSAGE_IDS_EMPTY"):
		return fmt.Errorf("%w: %v", domain.ErrPostNotFound, err)
	case tgerr.Is(err, "USERNAME_NOT_OCCUPIED", "USERNAME_INVALID", "CHANNEL_INVALID", "CHANNEL_PRIVATE", "PEER_ID_INVALID"):
		return fmt.Errorf("%w: %v", domain.ErrPeerNotFound, err)
	case tgerr.Is(err,
		"ACCESS_TOKEN_INVALID",
		"ACCESS_TOKEN_EXPIRED",
		"API_ID_INVALID",
		"API_ID_PUBLISHED_FLOOD",
		"AUTH_KEY_UNREGISTERED",
		"USER_DEACTIVATED",
	):
		return fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return err
}

// withFloodWait runs call, waits out one short FLOOD_WAIT and tries again.
func withFloodWait(ctx context.Context, call func(ctx context.Context) error) error {
	err := call(ctx)
	if d, ok := tgerr.AsFloodWait(err); ok && d <= maxFloodWait {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		err = call(ctx)
	}
	return mapError(err)
}
