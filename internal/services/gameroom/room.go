package gameroom

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"stockticker/internal/game/match"
	"stockticker/internal/network"
	"stockticker/internal/services/eventbus"
	"stockticker/internal/session/message"
)

const defaultMailboxSize = 64

// Peer is one socket attached to a player of the room. Send must not block.
type Peer interface {
	ID() string
	Send(msg network.Message) bool
}

// RoomConfig carries what every room of a manager shares.
type RoomConfig struct {
	Publisher   eventbus.Publisher
	Logger      *zap.Logger
	GameOptions []match.Option
	MailboxSize int
	Now         func() time.Time
}

// Room owns one game. Everything that touches the game runs on the Run goroutine; other
// goroutines talk to it through the mailbox.
type Room struct {
	id    string
	game  *match.Game
	peers map[string]map[Peer]struct{}
	sched *scheduler

	mailbox  chan any
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	publisher eventbus.Publisher
	published int64
	now       func() time.Time
	log       *zap.Logger

	// Read by the manager without going through the mailbox.
	createdAt  time.Time
	status     atomic.Value // match.Status
	players    atomic.Int32
	sockets    atomic.Int32
	round      atomic.Int32
	finishedAt atomic.Int64 // unix nanos, 0 while not finished
	idleSince  atomic.Int64 // unix nanos, 0 while a socket is attached
}

func NewRoom(id string, cfg RoomConfig) *Room {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Publisher == nil {
		cfg.Publisher = eventbus.Noop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = defaultMailboxSize
	}
	opts := append([]match.Option{match.WithClock(cfg.Now)}, cfg.GameOptions...)

	r := &Room{
		id:        id,
		game:      match.NewGame(id, opts...),
		peers:     make(map[string]map[Peer]struct{}),
		sched:     newScheduler(cfg.Now),
		mailbox:   make(chan any, cfg.MailboxSize),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		publisher: cfg.Publisher,
		now:       cfg.Now,
		log:       cfg.Logger.Named("gameroom").With(zap.String("session", id)),
		createdAt: cfg.Now(),
	}
	r.publishStats()
	return r
}

func (r *Room) ID() string { return r.id }

// Run is the room goroutine. It returns after Stop.
func (r *Room) Run() {
	r.log.Info("room started")
	defer func() {
		r.sched.Stop()
		close(r.done)
		r.log.Info("room stopped")
	}()

	for {
		select {
		case cmd := <-r.mailbox:
			r.handle(cmd)
		case <-r.sched.C():
			r.sched.Fired()
			r.onDeadline()
		case <-r.quit:
			return
		}
	}
}

// Stop ends the room goroutine. Commands still queued are dropped.
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Done is closed once the room goroutine has exited.
func (r *Room) Done() <-chan struct{} { return r.done }

// --- mailbox commands ---

type attachCmd struct {
	peer     Peer
	playerID string
	name     string
	reply    chan attachReply
}

type attachReply struct {
	result match.JoinResult
	err    error
}

type detachCmd struct {
	peer     Peer
	playerID string
}

type actionCmd struct {
	peer     Peer
	playerID string
	action   Action
}

type snapshotCmd struct {
	reply chan match.Snapshot
}

// Attach joins playerID to the game, or reattaches a known player, and subscribes peer to
// the room's broadcasts. The peer gets a joined ack followed by the state.
//
// If ctx ends first the queued attach still runs, so a detach is queued behind it: the
// caller never binds the peer and nothing else would take it back out.
func (r *Room) Attach(ctx context.Context, peer Peer, playerID, name string) (match.JoinResult, error) {
	reply := make(chan attachReply, 1)
	if err := r.offer(attachCmd{peer: peer, playerID: playerID, name: name, reply: reply}); err != nil {
		return match.JoinResult{}, err
	}
	select {
	case rep := <-reply:
		return rep.result, rep.err
	case <-r.done:
		return match.JoinResult{}, message.ErrSessionClosed
	case <-ctx.Done():
		r.Detach(peer, playerID)
		return match.JoinResult{}, ctx.Err()
	}
}

// Detach unsubscribes peer. The player is marked disconnected once their last socket is
// gone; it never counts as leaving. Detach waits for mailbox space so the flag is not lost.
func (r *Room) Detach(peer Peer, playerID string) {
	select {
	case r.mailbox <- detachCmd{peer: peer, playerID: playerID}:
	case <-r.done:
	case <-r.quit:
	}
}

// Forward queues a player action without waiting for it to run. Validation errors are sent
// to peer by the room itself.
func (r *Room) Forward(peer Peer, playerID string, action Action) error {
	return r.offer(actionCmd{peer: peer, playerID: playerID, action: action})
}

// Snapshot asks the room for its current state.
func (r *Room) Snapshot(ctx context.Context) (match.Snapshot, error) {
	reply := make(chan match.Snapshot, 1)
	if err := r.offer(snapshotCmd{reply: reply}); err != nil {
		return match.Snapshot{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-r.done:
		return match.Snapshot{}, message.ErrSessionClosed
	case <-ctx.Done():
		return match.Snapshot{}, ctx.Err()
	}
}

// offer never blocks: a full mailbox is reported as busy.
func (r *Room) offer(cmd any) error {
	select {
	case <-r.quit:
		return message.ErrSessionClosed
	default:
	}
	select {
	case r.mailbox <- cmd:
		return nil
	default:
		r.log.Warn("mailbox full, command rejected")
		return message.ErrSessionBusy
	}
}

// --- registry view ---

// Summary is what the registry and the HTTP API know about a room without asking it.
type Summary struct {
	ID         string       `json:"id"`
	Status     match.Status `json:"status"`
	Players    int          `json:"players"`
	Connected  int          `json:"connected"`
	Round      int          `json:"round"`
	CreatedAt  time.Time    `json:"created_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
	IdleSince  *time.Time   `json:"idle_since,omitempty"`
}

func (r *Room) Summary() Summary {
	s := Summary{
		ID:        r.id,
		Status:    r.status.Load().(match.Status),
		Players:   int(r.players.Load()),
		Connected: int(r.sockets.Load()),
		Round:     int(r.round.Load()),
		CreatedAt: r.createdAt,
	}
	if ns := r.finishedAt.Load(); ns != 0 {
		t := time.Unix(0, ns)
		s.FinishedAt = &t
	}
	if ns := r.idleSince.Load(); ns != 0 {
		t := time.Unix(0, ns)
		s.IdleSince = &t
	}
	return s
}

// publishStats mirrors game state into the atomics. Room goroutine only.
func (r *Room) publishStats() {
	r.status.Store(r.game.Status())
	r.players.Store(int32(len(r.game.Roster())))
	r.round.Store(int32(r.game.Round()))
	if at := r.game.FinishedAt(); !at.IsZero() {
		r.finishedAt.Store(at.UnixNano())
	}

	n := 0
	for _, set := range r.peers {
		n += len(set)
	}
	r.sockets.Store(int32(n))
	switch {
	case n > 0:
		r.idleSince.Store(0)
	case r.idleSince.Load() == 0:
		r.idleSince.Store(r.now().UnixNano())
	}
}
