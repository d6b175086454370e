package session

import (
	"stockticker/internal/network"
	"stockticker/internal/services/gameroom"
)

// PlayerSession binds one connection to the single (session, player) it joined.
type PlayerSession struct {
	Client    *network.Client
	Room      *gameroom.Room
	SessionID string
	PlayerID  string
}

// connTable is owned by the hub goroutine; every EventHandler callback runs there, so it
// needs no lock.
type connTable struct {
	byClient map[*network.Client]*PlayerSession
}

func newConnTable() *connTable {
	return &connTable{byClient: make(map[*network.Client]*PlayerSession)}
}

func (t *connTable) bind(s *PlayerSession) {
	t.byClient[s.Client] = s
}

// unbind forgets c and returns what it was bound to, if anything.
func (t *connTable) unbind(c *network.Client) (*PlayerSession, bool) {
	s, ok := t.byClient[c]
	if ok {
		delete(t.byClient, c)
	}
	return s, ok
}

func (t *connTable) lookup(c *network.Client) (*PlayerSession, bool) {
	s, ok := t.byClient[c]
	return s, ok
}

func (t *connTable) len() int { return len(t.byClient) }
