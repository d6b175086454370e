package gameroom

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stockticker/internal/game/match"
	"stockticker/internal/services/eventbus"
	"stockticker/internal/session/message"
)

// ManagerConfig tunes the registry.
type ManagerConfig struct {
	// Retention keeps finished sessions around so players can read the results.
	Retention time.Duration
	// IdleGrace evicts sessions that had no socket attached for this long.
	IdleGrace       time.Duration
	CleanupInterval time.Duration

	Publisher   eventbus.Publisher
	Logger      *zap.Logger
	GameOptions []match.Option
	Now         func() time.Time
}

func (c ManagerConfig) withDefaults() ManagerConfig {
	if c.Retention <= 0 {
		c.Retention = time.Hour
	}
	if c.IdleGrace <= 0 {
		c.IdleGrace = 10 * time.Minute
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = time.Minute
	}
	if c.Publisher == nil {
		c.Publisher = eventbus.Noop{}
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// RoomManager is the session registry. An actor goroutine owns the map; every public
// method is a request on its channel, so lookups from any goroutine are safe.
type RoomManager struct {
	rooms     map[string]*Room
	requestCh chan any
	stopped   chan struct{}
	cfg       ManagerConfig
	log       *zap.Logger
}

func NewRoomManager(cfg ManagerConfig) *RoomManager {
	cfg = cfg.withDefaults()
	return &RoomManager{
		rooms:     make(map[string]*Room),
		requestCh: make(chan any),
		stopped:   make(chan struct{}),
		cfg:       cfg,
		log:       cfg.Logger.Named("roommanager"),
	}
}

// --- actor messages ---

type getOrCreateRequest struct {
	id    string
	reply chan *Room
}

type getRequest struct {
	id    string
	reply chan *Room
}

type removeRequest struct {
	id    string
	reply chan struct{}
}

type listRequest struct {
	reply chan []Summary
}

type sweepRequest struct {
	reply chan int
}

type pingRequest struct {
	reply chan int
}

// --- public API ---

// GetOrCreate returns the room of id, creating a waiting one if none exists. An empty id
// gets a fresh uuid.
func (rm *RoomManager) GetOrCreate(id string) (*Room, error) {
	reply := make(chan *Room, 1)
	if err := rm.request(getOrCreateRequest{id: id, reply: reply}); err != nil {
		return nil, err
	}
	return <-reply, nil
}

// Get looks a room up without creating it.
func (rm *RoomManager) Get(id string) (*Room, bool) {
	reply := make(chan *Room, 1)
	if err := rm.request(getRequest{id: id, reply: reply}); err != nil {
		return nil, false
	}
	room := <-reply
	return room, room != nil
}

// Remove stops and forgets a room. Unknown ids are ignored.
func (rm *RoomManager) Remove(id string) {
	reply := make(chan struct{}, 1)
	if rm.request(removeRequest{id: id, reply: reply}) == nil {
		<-reply
	}
}

// List summarizes every room, oldest first.
func (rm *RoomManager) List() []Summary {
	reply := make(chan []Summary, 1)
	if err := rm.request(listRequest{reply: reply}); err != nil {
		return nil
	}
	return <-reply
}

// Check reports an error unless the actor loop answers within timeout.
func (rm *RoomManager) Check(timeout time.Duration) error {
	reply := make(chan int, 1)
	select {
	case rm.requestCh <- pingRequest{reply: reply}:
		<-reply
		return nil
	case <-rm.stopped:
		return message.ErrSessionClosed
	case <-time.After(timeout):
		return errors.New("room manager not responding")
	}
}

func (rm *RoomManager) request(req any) error {
	select {
	case rm.requestCh <- req:
		return nil
	case <-rm.stopped:
		return message.ErrSessionClosed
	}
}

// Run is the actor loop. When ctx is done every room is stopped.
func (rm *RoomManager) Run(ctx context.Context) {
	rm.log.Info("room manager started",
		zap.Duration("retention", rm.cfg.Retention),
		zap.Duration("idle_grace", rm.cfg.IdleGrace))
	cleanupTicker := time.NewTicker(rm.cfg.CleanupInterval)
	defer func() {
		cleanupTicker.Stop()
		close(rm.stopped)
		for id, room := range rm.rooms {
			room.Stop()
			delete(rm.rooms, id)
		}
		rm.log.Info("room manager stopped")
	}()

	for {
		select {
		case msg := <-rm.requestCh:
			switch req := msg.(type) {
			case getOrCreateRequest:
				req.reply <- rm.getOrCreate(req.id)

			case getRequest:
				req.reply <- rm.rooms[req.id]

			case removeRequest:
				rm.evict(req.id, "removed")
				req.reply <- struct{}{}

			case listRequest:
				req.reply <- rm.list()

			case sweepRequest:
				req.reply <- rm.sweep()

			case pingRequest:
				req.reply <- len(rm.rooms)
			}

		case <-cleanupTicker.C:
			rm.sweep()

		case <-ctx.Done():
			return
		}
	}
}

func (rm *RoomManager) getOrCreate(id string) *Room {
	if id == "" {
		id = uuid.NewString()
	}
	if room, ok := rm.rooms[id]; ok {
		return room
	}
	room := NewRoom(id, RoomConfig{
		Publisher:   rm.cfg.Publisher,
		Logger:      rm.cfg.Logger,
		GameOptions: rm.cfg.GameOptions,
		Now:         rm.cfg.Now,
	})
	rm.rooms[id] = room
	go room.Run()
	rm.log.Info("session created", zap.String("session", id), zap.Int("sessions", len(rm.rooms)))
	return room
}

func (rm *RoomManager) list() []Summary {
	out := make([]Summary, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		out = append(out, room.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// sweep evicts finished rooms past retention and rooms idle past the grace period.
func (rm *RoomManager) sweep() int {
	now := rm.cfg.Now()
	evicted := 0
	for id, room := range rm.rooms {
		s := room.Summary()
		switch {
		case s.FinishedAt != nil && now.Sub(*s.FinishedAt) >= rm.cfg.Retention:
			rm.evict(id, "results retention elapsed")
			evicted++
		case s.IdleSince != nil && now.Sub(*s.IdleSince) >= rm.cfg.IdleGrace:
			rm.evict(id, "no connected players")
			evicted++
		}
	}
	return evicted
}

func (rm *RoomManager) evict(id, reason string) {
	room, ok := rm.rooms[id]
	if !ok {
		return
	}
	room.Stop()
	delete(rm.rooms, id)
	rm.log.Info("session evicted", zap.String("session", id), zap.String("reason", reason),
		zap.Int("sessions", len(rm.rooms)))
}
