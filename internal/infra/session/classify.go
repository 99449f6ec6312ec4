package session

import (
	"errors"

	"channel-relay-bot/internal/domain"
)

type Outcome int

const (
	Success Outcome = iota
	Transient
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Transient:
		return "transient"
	default:
		return "fatal"
	}
}

// Classify decides whether a connection error is worth retrying. Rejected
// credentials and bad configuration are fatal; everything else, including
// a locked session store and network failures, is transient.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidConfig):
		return Fatal
	default:
		return Transient
	}
}
