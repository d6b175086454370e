package network

import (
	"context"

	"go.uber.org/zap"
)

type clientMessage struct {
	client *Client
	msg    Message
}

// Hub keeps the set of live clients and serializes their events into the handler.
type Hub struct {
	// Only touched by the hub goroutine.
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	incoming   chan clientMessage
	tasks      chan func()
	quit       chan struct{}

	handler EventHandler
	log     *zap.Logger
}

func NewHub(handler EventHandler, log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan clientMessage),
		tasks:      make(chan func()),
		quit:       make(chan struct{}),
		handler:    handler,
		log:        log.Named("hub"),
	}
}

// Run processes hub events until ctx is done, then closes every remaining client.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("hub started")
	defer func() {
		close(h.quit)
		for c := range h.clients {
			c.stop()
			c.Close()
		}
		h.log.Info("hub stopped")
	}()

	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.handler.OnConnect(c)

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.stop()
				h.handler.OnDisconnect(c)
			}

		case cm := <-h.incoming:
			h.handler.OnMessage(cm.client, cm.msg)

		case fn := <-h.tasks:
			fn()

		case <-ctx.Done():
			return
		}
	}
}

// Post runs fn on the hub goroutine, serialized with the handler callbacks. It waits
// for the hub to pick fn up and reports false if the hub has stopped.
func (h *Hub) Post(fn func()) bool {
	select {
	case h.tasks <- fn:
		return true
	case <-h.quit:
		return false
	}
}

// Len is only meaningful on the hub goroutine, e.g. inside a handler callback.
func (h *Hub) Len() int { return len(h.clients) }
