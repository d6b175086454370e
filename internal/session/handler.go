package session

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"stockticker/internal/network"
	"stockticker/internal/services/gameroom"
	"stockticker/internal/session/message"
)

// CommandHandlerFunc handles one parsed command from c.
type CommandHandlerFunc func(h *GameHandler, c *network.Client, cmd message.Command)

// Registry is the part of the room manager the transport needs.
type Registry interface {
	GetOrCreate(id string) (*gameroom.Room, error)
}

// GameHandler is the transport adapter between websocket clients and session rooms. It
// implements network.EventHandler.
type GameHandler struct {
	rooms       Registry
	conns       *connTable
	router      map[string]CommandHandlerFunc
	joinTimeout time.Duration
	log         *zap.Logger

	// pending holds the commands a connection sent while its join is in flight. Hub
	// goroutine only.
	pending map[*network.Client][]network.Message
}

// maxPendingCommands bounds what a connection may queue behind an unfinished join.
const maxPendingCommands = 32

func NewGameHandler(rooms Registry, log *zap.Logger) *GameHandler {
	h := &GameHandler{
		rooms:       rooms,
		conns:       newConnTable(),
		router:      make(map[string]CommandHandlerFunc),
		joinTimeout: 5 * time.Second,
		log:         log.Named("session"),
		pending:     make(map[*network.Client][]network.Message),
	}
	h.registerHandlers()
	return h
}

func (h *GameHandler) OnConnect(c *network.Client) {
	h.log.Debug("client connected", zap.String("conn", c.ID()), zap.String("addr", c.RemoteAddr()))
}

// OnDisconnect detaches the socket from its room. A lost socket is never a leave: the
// player stays in the game and can reconnect.
func (h *GameHandler) OnDisconnect(c *network.Client) {
	s, ok := h.conns.unbind(c)
	if !ok {
		h.log.Debug("client disconnected", zap.String("conn", c.ID()))
		return
	}
	go s.Room.Detach(c, s.PlayerID)
	h.log.Info("player socket closed",
		zap.String("conn", c.ID()),
		zap.String("session", s.SessionID),
		zap.String("player", s.PlayerID),
		zap.Int("bound", h.conns.len()))
}

func (h *GameHandler) OnMessage(c *network.Client, msg network.Message) {
	if queued, ok := h.pending[c]; ok {
		if len(queued) >= maxPendingCommands {
			message.SendError(c, message.ErrSessionBusy)
			return
		}
		h.pending[c] = append(queued, msg)
		return
	}
	cmd, err := message.Parse(msg)
	if err != nil {
		message.SendError(c, err)
		return
	}
	handler, found := h.router[msg.Type]
	if !found {
		message.SendError(c, message.ErrUnknownCommand)
		return
	}
	handler(h, c, cmd)
}

// forward hands a game action to the client's room.
func (h *GameHandler) forward(c *network.Client, action gameroom.Action) {
	s, ok := h.conns.lookup(c)
	if !ok {
		h.reject(c, message.ErrNotJoined)
		return
	}
	if err := s.Room.Forward(c, s.PlayerID, action); err != nil {
		if errors.Is(err, message.ErrSessionClosed) {
			h.conns.unbind(c)
			h.reject(c, err)
			return
		}
		message.SendError(c, err)
	}
}

// reject reports a not-found condition and closes the connection.
func (h *GameHandler) reject(c *network.Client, err error) {
	h.log.Debug("closing connection", zap.String("conn", c.ID()), zap.Error(err))
	c.CloseWithMessage(message.Error(message.ClientText(err)))
}
