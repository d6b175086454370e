// Package eventbus fans the domain events of every session out to other processes
// (results archivers, spectator feeds). Publishing is best effort: the game never waits
// on, or fails because of, the bus.
package eventbus

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"stockticker/internal/game/match"
)

// Publisher receives the events appended to a session's log, in order.
type Publisher interface {
	Publish(sessionID string, events []match.Event) error
	Close() error
}

// Envelope is the body of every published message.
type Envelope struct {
	SessionID string      `json:"session_id"`
	Event     match.Event `json:"event"`
}

// Noop discards everything. It is used when no bus is configured.
type Noop struct{}

func (Noop) Publish(string, []match.Event) error { return nil }
func (Noop) Close() error                        { return nil }

// conn is the part of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
	IsConnected() bool
}

// NATSPublisher publishes each event as JSON to "<prefix>.<session>.events".
type NATSPublisher struct {
	nc     conn
	prefix string
	log    *zap.Logger
}

// Connect dials the NATS server at url. The client reconnects on its own; publishes made
// while disconnected are buffered by the client library.
func Connect(url, prefix, name string, log *zap.Logger) (*NATSPublisher, error) {
	log = log.Named("eventbus")
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	log.Info("connected to nats", zap.String("url", nc.ConnectedUrl()), zap.String("prefix", prefix))
	return newNATSPublisher(nc, prefix, log), nil
}

func newNATSPublisher(nc conn, prefix string, log *zap.Logger) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: strings.TrimSuffix(prefix, "."), log: log}
}

// Subject is where the events of one session are published.
func (p *NATSPublisher) Subject(sessionID string) string {
	return p.prefix + "." + subjectToken(sessionID) + ".events"
}

func (p *NATSPublisher) Publish(sessionID string, events []match.Event) error {
	subject := p.Subject(sessionID)
	for _, e := range events {
		data, err := json.Marshal(Envelope{SessionID: sessionID, Event: e})
		if err != nil {
			return fmt.Errorf("encode event %d: %w", e.Seq, err)
		}
		if err := p.nc.Publish(subject, data); err != nil {
			return fmt.Errorf("publish event %d to %s: %w", e.Seq, subject, err)
		}
	}
	return nil
}

// Check fails while the client is disconnected from the server.
func (p *NATSPublisher) Check() error {
	if !p.nc.IsConnected() {
		return errors.New("nats disconnected")
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}

// subjectToken makes an opaque session id safe as a single subject token.
func subjectToken(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, id)
}
