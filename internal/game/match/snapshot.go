package match

import (
	"time"

	"stockticker/internal/game/market"
)

// SettingsView is Settings as clients see it: durations in whole seconds.
type SettingsView struct {
	MaxRounds       int   `json:"max_rounds"`
	TradingDuration int64 `json:"trading_duration"`
	DiceDuration    int64 `json:"dice_duration"`
	StartingCash    int64 `json:"starting_cash"`
}

func (s Settings) View() SettingsView {
	return SettingsView{
		MaxRounds:       s.MaxRounds,
		TradingDuration: int64(s.TradingDuration / time.Second),
		DiceDuration:    int64(s.DiceDuration / time.Second),
		StartingCash:    s.StartingCash,
	}
}

// Settings converts a client-supplied view back. Zero fields stay zero so WithDefaults
// can fill them.
func (v SettingsView) Settings() Settings {
	return Settings{
		MaxRounds:       v.MaxRounds,
		TradingDuration: time.Duration(v.TradingDuration) * time.Second,
		DiceDuration:    time.Duration(v.DiceDuration) * time.Second,
		StartingCash:    v.StartingCash,
	}
}

type PlayerView struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Cash        int64                  `json:"cash"`
	Portfolio   map[market.Stock]int64 `json:"portfolio"`
	NetWorth    int64                  `json:"net_worth"`
	Connected   bool                   `json:"is_connected"`
	HasLeft     bool                   `json:"has_left"`
	DoneTrading bool                   `json:"done_trading"`
	IsHost      bool                   `json:"is_host"`
	History     []int64                `json:"history"`
}

// Snapshot is the full client-facing view of a game at one instant.
type Snapshot struct {
	SessionID     string        `json:"session_id"`
	Status        Status        `json:"status"`
	Phase         string        `json:"phase"`
	TurnIndex     *int          `json:"turn_index"`
	CurrentPlayer string        `json:"current_player,omitempty"`
	Round         int           `json:"round"`
	MaxRounds     int           `json:"max_rounds"`
	HostID        string        `json:"host_id"`
	Players       []PlayerView  `json:"players"`
	Prices        market.Prices `json:"prices"`
	PhaseDeadline *time.Time    `json:"phase_deadline,omitempty"`
	// TimeRemainingMS is 0 outside an active game.
	TimeRemainingMS int64        `json:"time_remaining_ms"`
	Settings        SettingsView `json:"settings"`
	History         []Event      `json:"history"`
	LastRoll        *RollResult  `json:"last_roll,omitempty"`
	FinalRankings   []Ranking    `json:"final_rankings,omitempty"`
}

// Snapshot copies everything it returns, so the result may leave the owning goroutine.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		SessionID:     g.id,
		Status:        g.status,
		Phase:         g.phase.Name(),
		CurrentPlayer: g.CurrentPlayer(),
		Round:         g.round,
		MaxRounds:     g.settings.MaxRounds,
		HostID:        g.hostID,
		Players:       make([]PlayerView, 0, len(g.roster)),
		Prices:        g.prices.Clone(),
		Settings:      g.settings.View(),
		History:       g.log.Recent(SnapshotHistory),
	}
	if g.status == StatusActive {
		if turn, ok := g.phase.Turn(); ok {
			s.TurnIndex = &turn
		}
		deadline := g.deadline
		s.PhaseDeadline = &deadline
		if remaining := deadline.Sub(g.now()); remaining > 0 {
			s.TimeRemainingMS = remaining.Milliseconds()
		}
	}
	if g.lastRoll != nil {
		last := *g.lastRoll
		s.LastRoll = &last
	}
	for _, id := range g.roster {
		p := g.players[id]
		s.Players = append(s.Players, PlayerView{
			ID:          id,
			Name:        p.Name(),
			Cash:        p.Cash(),
			Portfolio:   p.Portfolio(),
			NetWorth:    p.NetWorth(g.prices),
			Connected:   p.Connected(),
			HasLeft:     p.HasLeft(),
			DoneTrading: p.DoneTrading(),
			IsHost:      id == g.hostID,
			History:     p.History(),
		})
	}
	if g.status == StatusFinished {
		s.FinalRankings = g.Rankings()
	}
	return s
}
