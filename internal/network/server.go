package network

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server upgrades HTTP requests to websocket clients of one hub.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewServer(handler EventHandler, log *zap.Logger) *Server {
	log = log.Named("network")
	return &Server{
		hub: NewHub(handler, log),
		upgrader: websocket.Upgrader{
			// Browsers of any origin may connect; there is no cookie-bound state.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: log,
	}
}

// Run drives the hub until ctx is done.
func (s *Server) Run(ctx context.Context) {
	s.hub.Run(ctx)
}

// ServeHTTP is the websocket endpoint.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("upgrade failed", zap.Error(err))
		return
	}

	c := newClient(conn, s.hub, s.log)
	select {
	case s.hub.register <- c:
	case <-s.hub.quit:
		conn.Close()
		return
	}
	go c.writeLoop()
	go c.readLoop()
}
