package match

import (
	"time"

	"stockticker/internal/game/market"
	"stockticker/internal/game/player"
)

// EventKind classifies an entry of the event log.
type EventKind string

const (
	EventJoin     EventKind = "join"
	EventLeave    EventKind = "leave"
	EventStart    EventKind = "start"
	EventTrade    EventKind = "trade"
	EventDone     EventKind = "done_trading"
	EventPhase    EventKind = "phase"
	EventRoll     EventKind = "roll"
	EventSplit    EventKind = "split"
	EventBankrupt EventKind = "bankrupt"
	EventGameOver EventKind = "game_over"
)

// Corporate actions a roll can trigger on its stock.
const (
	ActionSplit    = "split"
	ActionBankrupt = "bankrupt"
)

// TradeRecord is the payload of an accepted trade.
type TradeRecord struct {
	Stock     market.Stock     `json:"stock"`
	Shares    int64            `json:"shares"`
	Direction player.Direction `json:"direction"`
	Price     int64            `json:"price"`
}

// RollResult is the outcome of one roll, manual or automatic.
type RollResult struct {
	RollID   int64           `json:"roll_id"`
	PlayerID string          `json:"player"`
	Stock    market.Stock    `json:"stock"`
	Movement market.Movement `json:"movement"`
	Amount   int64           `json:"amount"`
	// Success is false only for a dividend on a stock below par.
	Success bool `json:"success"`
	Auto    bool `json:"auto"`
	// NewPrice is the stock price after the roll and any corporate action.
	NewPrice        int64  `json:"new_price"`
	CorporateAction string `json:"corporate_action,omitempty"`
}

// Event is one immutable entry of the log.
type Event struct {
	Seq      int64        `json:"seq"`
	Kind     EventKind    `json:"kind"`
	Round    int          `json:"round"`
	PlayerID string       `json:"player,omitempty"`
	Message  string       `json:"message"`
	At       time.Time    `json:"at"`
	Trade    *TradeRecord `json:"trade,omitempty"`
	Roll     *RollResult  `json:"roll,omitempty"`
}

const (
	defaultLogLimit = 1000
	// SnapshotHistory is how many recent events a state snapshot carries.
	SnapshotHistory = 50
)

// EventLog is append-only and keeps the most recent limit entries. Entries are never
// modified; trimming swaps in a fresh backing array.
type EventLog struct {
	entries []Event
	lastSeq int64
	limit   int
}

func NewEventLog(limit int) *EventLog {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	return &EventLog{limit: limit}
}

// Append stamps e with the next sequence number and stores it.
func (l *EventLog) Append(e Event) Event {
	l.lastSeq++
	e.Seq = l.lastSeq
	l.entries = append(l.entries, e)
	if len(l.entries) > l.limit {
		kept := make([]Event, l.limit, l.limit*2)
		copy(kept, l.entries[len(l.entries)-l.limit:])
		l.entries = kept
	}
	return e
}

func (l *EventLog) Len() int { return len(l.entries) }

func (l *EventLog) LastSeq() int64 { return l.lastSeq }

// Since returns the retained events with a sequence number greater than seq.
func (l *EventLog) Since(seq int64) []Event {
	i := len(l.entries)
	for i > 0 && l.entries[i-1].Seq > seq {
		i--
	}
	return append([]Event(nil), l.entries[i:]...)
}

// Recent returns up to n of the newest events, oldest first.
func (l *EventLog) Recent(n int) []Event {
	if n > len(l.entries) {
		n = len(l.entries)
	}
	return append([]Event(nil), l.entries[len(l.entries)-n:]...)
}
