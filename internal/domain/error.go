package domain

import "errors"

var (
	// Configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// Platform
	ErrNotParticipant     = errors.New("user is not a channel participant")
	ErrPostNotFound       = errors.New("channel post not found")
	ErrPeerNotFound       = errors.New("peer not found")
	ErrMessageNotModified = errors.New("message not modified")
	ErrUnsupported        = errors.New("operation not supported by driver")
	ErrNotConnected       = errors.New("platform connection not established")

	// Session
	ErrSessionLocked = errors.New("session storage is locked")
	ErrUnauthorized  = errors.New("bot credentials rejected")

	ErrInvalidArgument = errors.New("invalid argument")
)
