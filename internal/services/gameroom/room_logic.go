package gameroom

import (
	"go.uber.org/zap"

	"stockticker/internal/game/market"
	"stockticker/internal/game/match"
	"stockticker/internal/game/player"
	"stockticker/internal/network"
	"stockticker/internal/session/message"
)

// Action is a player command already decoded by the transport.
type Action interface {
	apply(g *match.Game, playerID string) (match.Outcome, error)
}

type LeaveAction struct{}

type StartAction struct {
	Settings match.Settings
}

type TradeAction struct {
	Stock     market.Stock
	Shares    int64
	Direction player.Direction
}

type RollAction struct{}

type DoneTradingAction struct {
	Done bool
}

// StateAction asks for a private copy of the state, e.g. after a reconnect.
type StateAction struct{}

func (LeaveAction) apply(g *match.Game, id string) (match.Outcome, error) {
	return g.Leave(id)
}

func (a StartAction) apply(g *match.Game, id string) (match.Outcome, error) {
	return match.Outcome{PhaseChanged: true}, g.Start(id, a.Settings)
}

func (a TradeAction) apply(g *match.Game, id string) (match.Outcome, error) {
	return match.Outcome{}, g.SubmitTrade(id, a.Stock, a.Shares, a.Direction)
}

func (RollAction) apply(g *match.Game, id string) (match.Outcome, error) {
	return g.RollDice(id)
}

func (a DoneTradingAction) apply(g *match.Game, id string) (match.Outcome, error) {
	return g.MarkDoneTrading(id, a.Done)
}

func (StateAction) apply(*match.Game, string) (match.Outcome, error) {
	return match.Outcome{}, nil
}

func (r *Room) handle(cmd any) {
	switch c := cmd.(type) {
	case attachCmd:
		r.handleAttach(c)
	case detachCmd:
		r.handleDetach(c)
	case actionCmd:
		r.handleAction(c)
	case snapshotCmd:
		c.reply <- r.game.Snapshot()
	default:
		r.log.Error("unknown mailbox command", zap.Any("cmd", cmd))
	}
}

func (r *Room) handleAttach(c attachCmd) {
	res, err := r.game.Join(c.playerID, c.name)
	if err != nil {
		r.log.Debug("join rejected", zap.String("player", c.playerID), zap.Error(err))
		c.reply <- attachReply{err: err}
		return
	}
	set := r.peers[c.playerID]
	if set == nil {
		set = make(map[Peer]struct{})
		r.peers[c.playerID] = set
	}
	set[c.peer] = struct{}{}
	r.log.Info("player attached",
		zap.String("player", c.playerID),
		zap.String("name", res.Name),
		zap.Bool("rejoined", res.Rejoined),
		zap.String("conn", c.peer.ID()))

	c.peer.Send(message.Joined(message.JoinedPayload{
		SessionID: r.id,
		PlayerID:  c.playerID,
		Name:      res.Name,
		Rejoined:  res.Rejoined,
	}))
	r.sync(match.Outcome{})
	c.reply <- attachReply{result: res}
}

func (r *Room) handleDetach(c detachCmd) {
	if r.removePeer(c.peer, c.playerID) {
		r.log.Info("player disconnected", zap.String("player", c.playerID))
		r.sync(match.Outcome{})
	}
}

// removePeer unsubscribes one socket. It reports true when that was the player's last
// socket and the player is now marked disconnected.
func (r *Room) removePeer(peer Peer, playerID string) bool {
	set, ok := r.peers[playerID]
	if !ok {
		return false
	}
	if _, ok := set[peer]; !ok {
		return false
	}
	delete(set, peer)
	if len(set) > 0 {
		r.publishStats()
		return false
	}
	delete(r.peers, playerID)
	if err := r.game.SetConnected(playerID, false); err != nil {
		r.log.Debug("last socket of unknown player", zap.String("player", playerID), zap.Error(err))
		r.publishStats()
		return false
	}
	r.publishStats()
	return true
}

func (r *Room) handleAction(c actionCmd) {
	if _, ok := c.action.(StateAction); ok {
		c.peer.Send(message.StateUpdate(r.game.Snapshot()))
		return
	}

	out, err := c.action.apply(r.game, c.playerID)
	if err != nil {
		r.log.Debug("action rejected",
			zap.String("player", c.playerID),
			zap.String("action", actionName(c.action)),
			zap.Error(err))
		message.SendError(c.peer, err)
		return
	}

	if _, ok := c.action.(LeaveAction); ok {
		// The leaving socket gets the state that shows the departure, then stops listening.
		// Other sockets of the same player stay subscribed until they detach.
		r.sync(out)
		r.removePeer(c.peer, c.playerID)
		return
	}
	r.sync(out)
}

func (r *Room) onDeadline() {
	out, fired := r.game.Expire()
	if !fired {
		r.rearm()
		return
	}
	r.log.Debug("phase deadline reached", zap.Stringer("phase", r.game.Phase()))
	r.sync(out)
}

// sync runs after every state change: it publishes new log entries, re-arms the deadline,
// and pushes the discrete events followed by the new state to every socket.
func (r *Room) sync(out match.Outcome) {
	if events := r.game.Log().Since(r.published); len(events) > 0 {
		if err := r.publisher.Publish(r.id, events); err != nil {
			r.log.Warn("publish events failed", zap.Error(err))
		}
		r.published = events[len(events)-1].Seq
	}

	r.rearm()

	for _, roll := range out.Rolls {
		r.broadcast(message.RollResult(roll))
	}
	r.broadcast(message.StateUpdate(r.game.Snapshot()))
	if out.Finished {
		rankings := r.game.Rankings()
		r.broadcast(message.GameOver(rankings))
		if len(rankings) > 0 {
			r.log.Info("game over", zap.String("winner", rankings[0].Name), zap.Int64("net_worth", rankings[0].NetWorth))
		}
	}
	r.publishStats()
}

func (r *Room) rearm() {
	if r.game.Status() == match.StatusActive {
		r.sched.Arm(r.game.Deadline())
	} else {
		r.sched.Stop()
	}
}

func (r *Room) broadcast(msg network.Message) {
	for _, set := range r.peers {
		for p := range set {
			if !p.Send(msg) {
				r.log.Debug("peer dropped broadcast", zap.String("conn", p.ID()), zap.String("type", msg.Type))
			}
		}
	}
}

func actionName(a Action) string {
	switch a.(type) {
	case LeaveAction:
		return message.TypeLeaveGame
	case StartAction:
		return message.TypeStartGame
	case TradeAction:
		return message.TypeTrade
	case RollAction:
		return message.TypeRollDice
	case DoneTradingAction:
		return message.TypeDoneTrading
	}
	return message.TypeGetState
}
