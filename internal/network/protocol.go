package network

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const MaxMessageSize = 64 * 1024

// TypeError is the outbound type of every error report.
const TypeError = "error"

var ErrMissingType = errors.New(`envelope has no "type"`)

// NewMessage marshals payload into an envelope. A nil payload leaves Payload empty.
func NewMessage(msgType string, payload any) (Message, error) {
	if payload == nil {
		return Message{Type: msgType}, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", msgType, err)
	}
	return Message{Type: msgType, Payload: b}, nil
}

// DecodeMessage parses one inbound frame.
func DecodeMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, err
	}
	if msg.Type == "" {
		return Message{}, ErrMissingType
	}
	return msg, nil
}

type errorPayload struct {
	Message string `json:"message"`
}

// ErrorMessage builds the error envelope. It lives here so the pumps can report
// malformed frames without knowing the game protocol.
func ErrorMessage(text string) Message {
	b, _ := json.Marshal(errorPayload{Message: text})
	return Message{Type: TypeError, Payload: b}
}
