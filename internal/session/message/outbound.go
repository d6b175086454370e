package message

import (
	"encoding/json"

	"stockticker/internal/game/match"
	"stockticker/internal/network"
)

// Outbound message types.
const (
	TypeJoined      = "joined"
	TypeStateUpdate = "state_update"
	TypeRollResult  = "roll_result"
	TypeGameOver    = "game_over"
	TypeError       = network.TypeError
)

// Sender is anything that can take an outbound message without blocking.
type Sender interface {
	Send(msg network.Message) bool
}

type JoinedPayload struct {
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id"`
	Name      string `json:"name"`
	Rejoined  bool   `json:"rejoined"`
}

type GameOverPayload struct {
	FinalRankings []match.Ranking `json:"final_rankings"`
}

// build marshals a payload that is known to encode.
func build(msgType string, payload any) network.Message {
	b, _ := json.Marshal(payload)
	return network.Message{Type: msgType, Payload: b}
}

func Joined(p JoinedPayload) network.Message {
	return build(TypeJoined, p)
}

func StateUpdate(s match.Snapshot) network.Message {
	return build(TypeStateUpdate, s)
}

func RollResult(r match.RollResult) network.Message {
	return build(TypeRollResult, r)
}

func GameOver(rankings []match.Ranking) network.Message {
	return build(TypeGameOver, GameOverPayload{FinalRankings: rankings})
}

func Error(text string) network.Message {
	return network.ErrorMessage(text)
}

// SendError reports a failure to one client only.
func SendError(s Sender, err error) {
	s.Send(Error(ClientText(err)))
}
