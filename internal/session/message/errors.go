package message

import (
	"errors"

	"stockticker/internal/game/match"
)

var (
	// ErrNotJoined is returned for game commands from a connection that has not joined.
	ErrNotJoined = errors.New("join a game first")
	// ErrSessionBusy means the session mailbox is full; the command was not applied.
	ErrSessionBusy = errors.New("session busy, try again")
	// ErrSessionClosed means the session was evicted or shut down.
	ErrSessionClosed = errors.New("session closed")
)

// clientErrors are safe to show to players verbatim, wrapping included.
var clientErrors = []error{
	match.ErrWrongPhase,
	match.ErrNotYourTurn,
	match.ErrUnknownStock,
	match.ErrNotHost,
	match.ErrAlreadyStarted,
	match.ErrNotStarted,
	match.ErrNotEnoughPlayers,
	match.ErrSessionFull,
	match.ErrUnknownPlayer,
	match.ErrPlayerLeft,
	match.ErrGameOver,
	match.ErrInvalidSettings,
	match.ErrInvalidShares,
	match.ErrInsufficientCash,
	match.ErrInsufficientShares,
	match.ErrInvalidDirection,
	ErrUnknownCommand,
	ErrBadPayload,
	ErrNotJoined,
	ErrSessionBusy,
	ErrSessionClosed,
}

// ClientText is the text sent to a client for err. Anything not known to be a client
// mistake is reported generically.
func ClientText(err error) string {
	if IsClientError(err) {
		return err.Error()
	}
	return "internal server error"
}

// IsClientError reports whether err is a validation or state error, as opposed to a fault.
func IsClientError(err error) bool {
	for _, known := range clientErrors {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}
