package match

import (
	"fmt"

	"stockticker/internal/game/market"
	"stockticker/internal/game/player"
	"stockticker/internal/utils"
)

// actor resolves id to a player that may act in an active game.
func (g *Game) actor(id string) (*player.Player, error) {
	switch g.status {
	case StatusWaiting:
		return nil, ErrNotStarted
	case StatusFinished:
		return nil, ErrGameOver
	}
	p, ok := g.players[id]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if p.HasLeft() {
		return nil, ErrPlayerLeft
	}
	return p, nil
}

// SubmitTrade buys or sells shares against the market maker at the current price.
func (g *Game) SubmitTrade(id string, stock market.Stock, shares int64, dir player.Direction) error {
	p, err := g.actor(id)
	if err != nil {
		return err
	}
	if !g.phase.IsTrading() {
		return fmt.Errorf("%w: trading is closed during the dice phase", ErrWrongPhase)
	}
	price, ok := g.prices[stock]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStock, stock)
	}
	if err := p.ApplyTrade(dir, stock, shares, price); err != nil {
		return err
	}

	verb := "bought"
	if dir == player.Sell {
		verb = "sold"
	}
	g.record(Event{
		Kind:     EventTrade,
		PlayerID: id,
		Message:  fmt.Sprintf("%s %s %d %s at %s", p.Name(), verb, shares, stock, utils.FormatPrice(price)),
		Trade:    &TradeRecord{Stock: stock, Shares: shares, Direction: dir, Price: price},
	})
	return nil
}

// MarkDoneTrading sets or clears the player's done flag. When every remaining player is
// done the dice phase starts at once.
func (g *Game) MarkDoneTrading(id string, done bool) (Outcome, error) {
	p, err := g.actor(id)
	if err != nil {
		return Outcome{}, err
	}
	if !g.phase.IsTrading() {
		return Outcome{}, fmt.Errorf("%w: not in the trading phase", ErrWrongPhase)
	}
	if p.DoneTrading() == done {
		return Outcome{}, nil
	}
	p.SetDoneTrading(done)
	if done {
		g.appendEvent(EventDone, id, fmt.Sprintf("%s is done trading", p.Name()))
	} else {
		g.appendEvent(EventDone, id, fmt.Sprintf("%s is trading again", p.Name()))
	}

	if done && g.allDoneTrading() {
		return g.endTrading(), nil
	}
	return Outcome{}, nil
}

func (g *Game) allDoneTrading() bool {
	for _, id := range g.roster {
		p := g.players[id]
		if !p.HasLeft() && !p.DoneTrading() {
			return false
		}
	}
	return true
}

// endTrading closes the trading phase and hands the dice to the first remaining player.
func (g *Game) endTrading() Outcome {
	first, ok := g.nextTurn(-1)
	if !ok {
		return g.finish("no players remain")
	}
	g.phase = Dice(first)
	g.deadline = g.now().Add(g.settings.DiceDuration)
	g.appendEvent(EventPhase, "", fmt.Sprintf("Dice Phase round %d - %s's turn to roll",
		g.round, g.playerName(g.roster[first])))
	return Outcome{PhaseChanged: true}
}

// nextTurn finds the first roster index after from whose player has not left.
func (g *Game) nextTurn(from int) (int, bool) {
	for i := from + 1; i < len(g.roster); i++ {
		if !g.players[g.roster[i]].HasLeft() {
			return i, true
		}
	}
	return 0, false
}
