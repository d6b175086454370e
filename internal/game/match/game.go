package match

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"stockticker/internal/game/market"
	"stockticker/internal/game/player"
	"stockticker/internal/utils"
)

// Game is the authoritative state of one session. It is not safe for concurrent use:
// a single goroutine (the room) owns it.
type Game struct {
	id       string
	status   Status
	settings Settings
	phase    Phase
	round    int
	prices   market.Prices

	roster  []string
	players map[string]*player.Player
	hostID  string

	deadline   time.Time
	finishedAt time.Time

	log      *EventLog
	roller   market.Roller
	now      func() time.Time
	rollSeq  int64
	lastRoll *RollResult
}

// Outcome reports what a mutation did beyond the state change itself, so the caller knows
// which discrete events to push.
type Outcome struct {
	Rolls        []RollResult
	PhaseChanged bool
	// Finished is true only for the call that moved the game to Finished.
	Finished bool
}

func (o *Outcome) merge(other Outcome) {
	o.Rolls = append(o.Rolls, other.Rolls...)
	o.PhaseChanged = o.PhaseChanged || other.PhaseChanged
	o.Finished = o.Finished || other.Finished
}

type Option func(*Game)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Game) { g.now = now }
}

// WithRoller replaces the random dice.
func WithRoller(r market.Roller) Option {
	return func(g *Game) { g.roller = r }
}

// WithLogLimit bounds the event log.
func WithLogLimit(n int) Option {
	return func(g *Game) { g.log = NewEventLog(n) }
}

func NewGame(id string, opts ...Option) *Game {
	g := &Game{
		id:       id,
		status:   StatusWaiting,
		settings: DefaultSettings(),
		phase:    Trading(),
		round:    1,
		prices:   market.NewPrices(),
		players:  make(map[string]*player.Player),
		log:      NewEventLog(defaultLogLimit),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.roller == nil {
		g.roller = market.NewTimeSeededRoller()
	}
	return g
}

func (g *Game) ID() string            { return g.id }
func (g *Game) Status() Status        { return g.status }
func (g *Game) Phase() Phase          { return g.phase }
func (g *Game) Round() int            { return g.round }
func (g *Game) HostID() string        { return g.hostID }
func (g *Game) Settings() Settings    { return g.settings }
func (g *Game) Deadline() time.Time   { return g.deadline }
func (g *Game) FinishedAt() time.Time { return g.finishedAt }
func (g *Game) Log() *EventLog        { return g.log }

func (g *Game) Price(s market.Stock) int64 { return g.prices[s] }

func (g *Game) Prices() market.Prices { return g.prices.Clone() }

// LastRoll is the most recent roll result, or nil before the first roll.
func (g *Game) LastRoll() *RollResult { return g.lastRoll }

func (g *Game) Roster() []string {
	return append([]string(nil), g.roster...)
}

// Player returns the ledger of id, or nil.
func (g *Game) Player(id string) *player.Player {
	return g.players[id]
}

// CurrentPlayer is the roster entry whose roll is pending, or "" outside the dice phase.
func (g *Game) CurrentPlayer() string {
	if g.status != StatusActive {
		return ""
	}
	if turn, ok := g.phase.Turn(); ok {
		return g.roster[turn]
	}
	return ""
}

// JoinResult describes a successful join.
type JoinResult struct {
	Name     string
	Rejoined bool
}

// Join adds a player to the roster, or reattaches a known player. Only waiting games accept
// new players.
func (g *Game) Join(id, name string) (JoinResult, error) {
	if p, ok := g.players[id]; ok {
		if g.status == StatusWaiting && p.HasLeft() {
			// Leaving a lobby is not final until the game starts.
			if len(g.roster) >= MaxPlayers {
				return JoinResult{}, ErrSessionFull
			}
			return g.rejoinLobby(p), nil
		}
		p.SetConnected(true)
		return JoinResult{Name: p.Name(), Rejoined: true}, nil
	}

	switch g.status {
	case StatusActive:
		return JoinResult{}, ErrAlreadyStarted
	case StatusFinished:
		return JoinResult{}, ErrGameOver
	}
	if len(g.roster) >= MaxPlayers {
		return JoinResult{}, ErrSessionFull
	}

	display := g.uniqueName(name)
	p := player.NewPlayer(id, display, g.settings.StartingCash)
	p.SetConnected(true)
	g.players[id] = p
	g.roster = append(g.roster, id)
	if g.hostID == "" {
		g.hostID = id
	}

	g.appendEvent(EventJoin, id, fmt.Sprintf("%s joined the game", display))
	return JoinResult{Name: display}, nil
}

func (g *Game) rejoinLobby(old *player.Player) JoinResult {
	name := g.uniqueName(old.Name())
	p := player.NewPlayer(old.ID(), name, g.settings.StartingCash)
	p.SetConnected(true)
	g.players[p.ID()] = p
	g.roster = append(g.roster, p.ID())
	if g.hostID == "" {
		g.hostID = p.ID()
	}
	g.appendEvent(EventJoin, p.ID(), fmt.Sprintf("%s rejoined the game", name))
	return JoinResult{Name: name, Rejoined: true}
}

func (g *Game) uniqueName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Player %d", len(g.roster)+1)
	}
	taken := make(map[string]bool, len(g.roster))
	for _, id := range g.roster {
		taken[g.players[id].Name()] = true
	}
	candidate := name
	for n := 2; taken[candidate]; n++ {
		candidate = fmt.Sprintf("%s (%d)", name, n)
	}
	return candidate
}

// SetConnected toggles the live-socket flag. Disconnection is never a departure.
func (g *Game) SetConnected(id string, connected bool) error {
	p, ok := g.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	p.SetConnected(connected)
	return nil
}

// ConnectedCount is the number of players with a live socket.
func (g *Game) ConnectedCount() int {
	n := 0
	for _, p := range g.players {
		if p.Connected() {
			n++
		}
	}
	return n
}

// Leave marks a permanent departure. Calling it again has no further effect.
func (g *Game) Leave(id string) (Outcome, error) {
	p, ok := g.players[id]
	if !ok {
		return Outcome{}, ErrUnknownPlayer
	}
	if p.HasLeft() {
		return Outcome{}, nil
	}
	p.MarkLeft()

	switch g.status {
	case StatusWaiting:
		g.removeFromRoster(id)
		msg := fmt.Sprintf("%s left the game", p.Name())
		if g.hostID == id {
			g.hostID = ""
			if len(g.roster) > 0 {
				g.hostID = g.roster[0]
				msg += fmt.Sprintf("; %s is now the host", g.players[g.hostID].Name())
			}
		}
		g.appendEvent(EventLeave, id, msg)
		return Outcome{}, nil

	case StatusActive:
		g.appendEvent(EventLeave, id, fmt.Sprintf("%s left the game", p.Name()))
		if g.activeCount() < MinPlayers {
			return g.finish("not enough players remain"), nil
		}
		if g.phase.IsTrading() {
			if g.allDoneTrading() {
				return g.endTrading(), nil
			}
			return Outcome{}, nil
		}
		if g.CurrentPlayer() == id {
			return g.advanceTurn(), nil
		}
	}
	return Outcome{}, nil
}

func (g *Game) removeFromRoster(id string) {
	kept := g.roster[:0:0]
	for _, rid := range g.roster {
		if rid != id {
			kept = append(kept, rid)
		}
	}
	g.roster = kept
}

// activeCount is the number of roster players that have not left.
func (g *Game) activeCount() int {
	n := 0
	for _, id := range g.roster {
		if !g.players[id].HasLeft() {
			n++
		}
	}
	return n
}

// Start moves a waiting game to its first trading phase.
func (g *Game) Start(by string, settings Settings) error {
	switch g.status {
	case StatusActive:
		return ErrAlreadyStarted
	case StatusFinished:
		return ErrGameOver
	}
	if by != g.hostID {
		return ErrNotHost
	}
	if g.activeCount() < MinPlayers {
		return ErrNotEnoughPlayers
	}
	settings = settings.WithDefaults()
	if err := settings.Validate(); err != nil {
		return err
	}

	// Players that left the lobby are forgotten once the roster is fixed.
	for id, p := range g.players {
		if p.HasLeft() {
			delete(g.players, id)
		}
	}

	g.settings = settings
	g.status = StatusActive
	g.round = 1
	g.prices = market.NewPrices()
	for _, id := range g.roster {
		p := g.players[id]
		p.ResetCash(settings.StartingCash)
		p.SetDoneTrading(false)
		p.RecordNetWorth(g.prices)
	}
	g.phase = Trading()
	g.deadline = g.now().Add(settings.TradingDuration)

	g.appendEvent(EventStart, by, fmt.Sprintf("Game started with %d players, %d rounds - Trading Phase Round 1",
		len(g.roster), settings.MaxRounds))
	return nil
}

// Expire is called when the phase deadline elapses. It reports false when the fire is stale
// (the deadline moved or the game is not active).
func (g *Game) Expire() (Outcome, bool) {
	if g.status != StatusActive || g.now().Before(g.deadline) {
		return Outcome{}, false
	}
	if g.phase.IsTrading() {
		return g.endTrading(), true
	}
	return g.roll(true), true
}

func (g *Game) finish(reason string) Outcome {
	g.status = StatusFinished
	g.deadline = time.Time{}
	g.finishedAt = g.now()

	msg := "Game over: " + reason
	if rankings := g.Rankings(); len(rankings) > 0 {
		w := rankings[0]
		msg = fmt.Sprintf("Game over: %s. %s wins with %s", reason, w.Name, utils.FormatCents(w.NetWorth))
	}
	g.appendEvent(EventGameOver, "", msg)
	return Outcome{Finished: true, PhaseChanged: true}
}

func (g *Game) appendEvent(kind EventKind, playerID, msg string) Event {
	return g.record(Event{Kind: kind, PlayerID: playerID, Message: msg})
}

// record stamps e with the current round and time and appends it to the log.
func (g *Game) record(e Event) Event {
	e.Round = g.round
	e.At = g.now()
	return g.log.Append(e)
}

func (g *Game) playerName(id string) string {
	if p, ok := g.players[id]; ok {
		return p.Name()
	}
	return id
}

// Ranking is one line of the final standings.
type Ranking struct {
	Rank      int                    `json:"rank"`
	PlayerID  string                 `json:"player_id"`
	Name      string                 `json:"name"`
	NetWorth  int64                  `json:"net_worth"`
	Cash      int64                  `json:"cash"`
	Portfolio map[market.Stock]int64 `json:"portfolio"`
	HasLeft   bool                   `json:"has_left"`
}

// Rankings orders every roster player by net worth, highest first; ties keep roster order.
func (g *Game) Rankings() []Ranking {
	out := make([]Ranking, 0, len(g.roster))
	for _, id := range g.roster {
		p := g.players[id]
		out = append(out, Ranking{
			PlayerID:  id,
			Name:      p.Name(),
			NetWorth:  p.NetWorth(g.prices),
			Cash:      p.Cash(),
			Portfolio: p.Portfolio(),
			HasLeft:   p.HasLeft(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].NetWorth > out[j].NetWorth })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
