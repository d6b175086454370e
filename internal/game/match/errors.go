package match

import (
	"errors"

	"stockticker/internal/game/player"
)

// Validation and state errors. None of them changes the game.
var (
	ErrWrongPhase       = errors.New("action not allowed in the current phase")
	ErrNotYourTurn      = errors.New("it is not your turn to roll")
	ErrUnknownStock     = errors.New("unknown stock")
	ErrNotHost          = errors.New("only the host can start the game")
	ErrAlreadyStarted   = errors.New("game has already started")
	ErrNotStarted       = errors.New("game has not started yet")
	ErrNotEnoughPlayers = errors.New("need at least 2 players to start")
	ErrSessionFull      = errors.New("game is full")
	ErrUnknownPlayer    = errors.New("player is not part of this game")
	ErrPlayerLeft       = errors.New("player has left the game")
	ErrGameOver         = errors.New("game is over")
	ErrInvalidSettings  = errors.New("invalid settings")

	ErrInvalidShares      = player.ErrInvalidShares
	ErrInsufficientCash   = player.ErrInsufficientCash
	ErrInsufficientShares = player.ErrInsufficientShares
	ErrInvalidDirection   = player.ErrInvalidDirection
)
