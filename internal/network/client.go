package network

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// SendBuffer bounds the outbound queue of every connection.
	SendBuffer = 256
)

// Client is one websocket connection as the server sees it.
type Client struct {
	id   string
	conn *websocket.Conn
	hub  *Hub
	log  *zap.Logger

	// send is never closed; done tells writeLoop to stop.
	send      chan Message
	done      chan struct{}
	kick      chan struct{}
	closeOnce sync.Once
	stopOnce  sync.Once
	kickOnce  sync.Once
}

func newClient(conn *websocket.Conn, hub *Hub, log *zap.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:   id,
		conn: conn,
		hub:  hub,
		log:  log.With(zap.String("conn", id)),
		send: make(chan Message, SendBuffer),
		done: make(chan struct{}),
		kick: make(chan struct{}),
	}
}

// ID is unique per connection.
func (c *Client) ID() string { return c.id }

func (c *Client) RemoteAddr() string { return c.conn.RemoteAddr().String() }

// Send queues msg without blocking. A client whose buffer is full is too slow to keep up:
// it is dropped and Send reports false. Clients reconnect and ask for the state again.
func (c *Client) Send(msg Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.log.Warn("send buffer full, dropping connection", zap.String("type", msg.Type))
		c.Close()
		return false
	}
}

// Close shuts the socket. The read pump notices and unregisters the client.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
	})
}

// CloseWithMessage sends msg and closes the connection once everything queued before it
// has been written.
func (c *Client) CloseWithMessage(msg Message) {
	c.Send(msg)
	c.kickOnce.Do(func() { close(c.kick) })
}

// Post hands fn to the client's hub goroutine. Handlers use it to finish work they moved
// off the hub.
func (c *Client) Post(fn func()) bool {
	return c.hub.Post(fn)
}

// Closed reports whether the hub has unregistered the client. Only stable on the hub
// goroutine.
func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// stop is called by the hub once the client is unregistered.
func (c *Client) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

func (c *Client) readLoop() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.Close()
	}()

	c.conn.SetReadLimit(MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Info("unexpected close", zap.Error(err))
			}
			return
		}
		msg, err := DecodeMessage(data)
		if err != nil {
			// A malformed frame is answered, not fatal.
			c.Send(ErrorMessage("malformed message: " + err.Error()))
			continue
		}
		select {
		case c.hub.incoming <- clientMessage{client: c, msg: msg}:
		case <-c.hub.quit:
			return
		}
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Debug("write failed", zap.Error(err))
				return
			}

		case <-c.kick:
			c.flush()
			return

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// flush writes whatever is queued, then a close frame.
func (c *Client) flush() {
	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		default:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ""))
			return
		}
	}
}
