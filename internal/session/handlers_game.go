package session

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stockticker/internal/game/match"
	"stockticker/internal/network"
	"stockticker/internal/services/gameroom"
	"stockticker/internal/session/message"
)

func (h *GameHandler) registerHandlers() {
	h.router[message.TypeJoinGame] = handleJoinGame
	h.router[message.TypeLeaveGame] = handleLeaveGame
	h.router[message.TypeStartGame] = handleStartGame
	h.router[message.TypeTrade] = handleTrade
	h.router[message.TypeRollDice] = handleRollDice
	h.router[message.TypeDoneTrading] = handleDoneTrading
	h.router[message.TypeGetState] = handleGetState
}

// handleJoinGame binds the connection to a session, creating it on first use. Empty ids
// are generated and echoed back in the joined ack. The room round-trip runs off the hub;
// commands the client sends meanwhile wait in h.pending and replay once the join settles.
func handleJoinGame(h *GameHandler, c *network.Client, cmd message.Command) {
	req := cmd.(message.JoinGame)
	sessionID := strings.TrimSpace(req.SessionID)
	playerID := strings.TrimSpace(req.PlayerID)
	if playerID == "" {
		playerID = uuid.NewString()
	}

	// A connection belongs to one seat at a time. Joining the same seat again just
	// refreshes the ack and state.
	if prev, ok := h.conns.lookup(c); ok && (prev.SessionID != sessionID || prev.PlayerID != playerID) {
		h.conns.unbind(c)
		go prev.Room.Detach(c, prev.PlayerID)
	}

	h.pending[c] = nil
	go h.join(c, sessionID, playerID, req.PlayerName)
}

// join runs on its own goroutine and hands the result back to the hub.
func (h *GameHandler) join(c *network.Client, sessionID, playerID, name string) {
	room, err := h.rooms.GetOrCreate(sessionID)
	var res match.JoinResult
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), h.joinTimeout)
		res, err = room.Attach(ctx, c, playerID, name)
		cancel()
	}
	posted := c.Post(func() { h.joinSettled(c, room, playerID, res, err) })
	if !posted && err == nil {
		room.Detach(c, playerID)
	}
}

// joinSettled binds a successful join and replays the commands queued behind it.
func (h *GameHandler) joinSettled(c *network.Client, room *gameroom.Room, playerID string, res match.JoinResult, err error) {
	queued := h.pending[c]
	delete(h.pending, c)

	switch {
	case err != nil:
		fields := []zap.Field{zap.String("player", playerID), zap.Error(err)}
		if room != nil {
			fields = append(fields, zap.String("session", room.ID()))
		}
		h.log.Debug("join failed", fields...)
		message.SendError(c, err)

	case c.Closed():
		// The socket went away while the room was seating it.
		go room.Detach(c, playerID)
		return

	default:
		h.conns.bind(&PlayerSession{
			Client:    c,
			Room:      room,
			SessionID: room.ID(),
			PlayerID:  playerID,
		})
		h.log.Info("player joined",
			zap.String("conn", c.ID()),
			zap.String("session", room.ID()),
			zap.String("player", playerID),
			zap.String("name", res.Name),
			zap.Bool("rejoined", res.Rejoined))
	}

	for _, msg := range queued {
		if c.Closed() {
			return
		}
		h.OnMessage(c, msg)
	}
}

func handleLeaveGame(h *GameHandler, c *network.Client, _ message.Command) {
	s, ok := h.conns.lookup(c)
	if !ok {
		h.reject(c, message.ErrNotJoined)
		return
	}
	if err := s.Room.Forward(c, s.PlayerID, gameroom.LeaveAction{}); err != nil {
		message.SendError(c, err)
		return
	}
	h.conns.unbind(c)
}

func handleStartGame(h *GameHandler, c *network.Client, cmd message.Command) {
	req := cmd.(message.StartGame)
	h.forward(c, gameroom.StartAction{Settings: req.Settings.Settings()})
}

func handleTrade(h *GameHandler, c *network.Client, cmd message.Command) {
	req := cmd.(message.Trade)
	h.forward(c, gameroom.TradeAction{Stock: req.Stock, Shares: req.Shares, Direction: req.Direction})
}

func handleRollDice(h *GameHandler, c *network.Client, _ message.Command) {
	h.forward(c, gameroom.RollAction{})
}

func handleDoneTrading(h *GameHandler, c *network.Client, cmd message.Command) {
	req := cmd.(message.DoneTrading)
	h.forward(c, gameroom.DoneTradingAction{Done: req.IsDone()})
}

func handleGetState(h *GameHandler, c *network.Client, _ message.Command) {
	h.forward(c, gameroom.StateAction{})
}
