package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"stockticker/internal/game/market"
	"stockticker/internal/game/match"
	"stockticker/internal/game/player"
	"stockticker/internal/network"
)

// Inbound message types.
const (
	TypeJoinGame    = "join_game"
	TypeLeaveGame   = "leave_game"
	TypeStartGame   = "start_game"
	TypeTrade       = "trade"
	TypeRollDice    = "roll_dice"
	TypeDoneTrading = "done_trading"
	TypeGetState    = "get_state"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadPayload     = errors.New("invalid payload")
)

// Command is the closed set of things a client can ask for. Only types in this file
// implement it.
type Command interface {
	commandType() string
}

type JoinGame struct {
	SessionID  string `json:"session_id"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

type LeaveGame struct{}

type StartGame struct {
	Settings match.SettingsView `json:"settings"`
}

type Trade struct {
	Stock     market.Stock     `json:"stock"`
	Shares    int64            `json:"shares"`
	Direction player.Direction `json:"direction"`
}

type RollDice struct{}

// DoneTrading defaults to done when the field is absent.
type DoneTrading struct {
	Done *bool `json:"done"`
}

func (d DoneTrading) IsDone() bool { return d.Done == nil || *d.Done }

type GetState struct{}

func (JoinGame) commandType() string    { return TypeJoinGame }
func (LeaveGame) commandType() string   { return TypeLeaveGame }
func (StartGame) commandType() string   { return TypeStartGame }
func (Trade) commandType() string       { return TypeTrade }
func (RollDice) commandType() string    { return TypeRollDice }
func (DoneTrading) commandType() string { return TypeDoneTrading }
func (GetState) commandType() string    { return TypeGetState }

// Parse turns an envelope into a typed command. Unknown fields are ignored; unknown
// types and undecodable payloads are errors.
func Parse(msg network.Message) (Command, error) {
	switch msg.Type {
	case TypeJoinGame:
		return decode[JoinGame](msg)
	case TypeLeaveGame:
		return LeaveGame{}, nil
	case TypeStartGame:
		return decode[StartGame](msg)
	case TypeTrade:
		return decode[Trade](msg)
	case TypeRollDice:
		return RollDice{}, nil
	case TypeDoneTrading:
		return decode[DoneTrading](msg)
	case TypeGetState:
		return GetState{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, msg.Type)
}

func decode[T Command](msg network.Message) (Command, error) {
	var cmd T
	raw := bytes.TrimSpace(msg.Payload)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return cmd, nil
	}
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrBadPayload, msg.Type, err)
	}
	return cmd, nil
}
