package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"stockticker/internal/game/market"
	"stockticker/internal/game/match"
	"stockticker/internal/game/player"
	"stockticker/internal/network"
)

func envelope(t string, payload string) network.Message {
	msg := network.Message{Type: t}
	if payload != "" {
		msg.Payload = json.RawMessage(payload)
	}
	return msg
}

func TestParse(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		msg  network.Message
		want Command
	}{
		{envelope(TypeJoinGame, `{"session_id":"s","player_id":"p","player_name":"Ann"}`),
			JoinGame{SessionID: "s", PlayerID: "p", PlayerName: "Ann"}},
		{envelope(TypeLeaveGame, ""), LeaveGame{}},
		{envelope(TypeStartGame, `{"settings":{"max_rounds":3,"trading_duration":30}}`),
			StartGame{Settings: match.SettingsView{MaxRounds: 3, TradingDuration: 30}}},
		{envelope(TypeStartGame, `null`), StartGame{}},
		{envelope(TypeTrade, `{"stock":"Gold","shares":500,"direction":"buy","extra":1}`),
			Trade{Stock: market.Gold, Shares: 500, Direction: player.Buy}},
		{envelope(TypeRollDice, `{}`), RollDice{}},
		{envelope(TypeDoneTrading, `{"done":false}`), DoneTrading{Done: &no}},
		{envelope(TypeDoneTrading, `{"done":true}`), DoneTrading{Done: &yes}},
		{envelope(TypeGetState, ""), GetState{}},
	}
	for _, tt := range tests {
		t.Run(tt.msg.Type, func(t *testing.T) {
			got, err := Parse(tt.msg)
			if err != nil {
				t.Fatal(err)
			}
			if fmt.Sprintf("%#v", deref(got)) != fmt.Sprintf("%#v", deref(tt.want)) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

// deref flattens the optional done flag so two parses compare by value.
func deref(c Command) any {
	if d, ok := c.(DoneTrading); ok {
		return d.IsDone()
	}
	return c
}

func TestDoneTradingDefaultsToDone(t *testing.T) {
	cmd, err := Parse(envelope(TypeDoneTrading, ""))
	if err != nil {
		t.Fatal(err)
	}
	if !cmd.(DoneTrading).IsDone() {
		t.Error("absent done flag should mean done")
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse(envelope("buy_everything", "")); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("unknown type err = %v", err)
	}
	if _, err := Parse(envelope(TypeTrade, `{"shares":"many"}`)); !errors.Is(err, ErrBadPayload) {
		t.Errorf("bad payload err = %v", err)
	}
}

func TestClientText(t *testing.T) {
	wrapped := fmt.Errorf("%w: need 100, have 5", match.ErrInsufficientCash)
	if got := ClientText(wrapped); got != wrapped.Error() {
		t.Errorf("client text = %q", got)
	}
	if got := ClientText(errors.New("disk on fire")); got != "internal server error" {
		t.Errorf("internal text = %q", got)
	}
	if IsClientError(errors.New("x")) || !IsClientError(ErrSessionBusy) {
		t.Error("IsClientError misclassifies")
	}
}

type recorder struct{ got []network.Message }

func (r *recorder) Send(msg network.Message) bool {
	r.got = append(r.got, msg)
	return true
}

func TestOutboundBuilders(t *testing.T) {
	r := &recorder{}
	SendError(r, match.ErrNotYourTurn)
	if len(r.got) != 1 || r.got[0].Type != TypeError {
		t.Fatalf("sent %+v", r.got)
	}
	var e struct{ Message string }
	json.Unmarshal(r.got[0].Payload, &e)
	if e.Message != match.ErrNotYourTurn.Error() {
		t.Errorf("message = %q", e.Message)
	}

	roll := RollResult(match.RollResult{RollID: 7, PlayerID: "p", Stock: market.Oil, Movement: market.Down, Amount: 10, Success: true})
	var wire map[string]any
	json.Unmarshal(roll.Payload, &wire)
	for _, key := range []string{"roll_id", "player", "stock", "movement", "amount", "success", "auto"} {
		if _, ok := wire[key]; !ok {
			t.Errorf("roll_result lacks %q", key)
		}
	}

	over := GameOver([]match.Ranking{{Rank: 1, PlayerID: "p"}})
	if over.Type != TypeGameOver || !json.Valid(over.Payload) {
		t.Errorf("game_over = %+v", over)
	}
}
