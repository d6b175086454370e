package match

import (
	"fmt"

	"stockticker/internal/game/market"
	"stockticker/internal/utils"
)

// RollDice throws the dice for the player whose turn it is.
func (g *Game) RollDice(id string) (Outcome, error) {
	if _, err := g.actor(id); err != nil {
		return Outcome{}, err
	}
	if g.phase.IsTrading() {
		return Outcome{}, fmt.Errorf("%w: dice are rolled after trading closes", ErrWrongPhase)
	}
	if g.CurrentPlayer() != id {
		return Outcome{}, fmt.Errorf("%w: waiting for %s", ErrNotYourTurn, g.playerName(g.CurrentPlayer()))
	}
	return g.roll(false), nil
}

// roll applies one throw for the current player and ends their turn.
func (g *Game) roll(auto bool) Outcome {
	turnPlayer := g.CurrentPlayer()
	r := g.roller.Roll()

	g.rollSeq++
	res := g.applyRoll(r)
	res.RollID = g.rollSeq
	res.PlayerID = turnPlayer
	res.Auto = auto
	g.lastRoll = &res

	who := g.playerName(turnPlayer)
	if auto {
		who += " (auto)"
	}
	rec := res
	g.record(Event{
		Kind:     EventRoll,
		PlayerID: turnPlayer,
		Message:  who + " rolled: " + describeRoll(res),
		Roll:     &rec,
	})
	switch res.CorporateAction {
	case ActionSplit:
		g.appendEvent(EventSplit, "", fmt.Sprintf("%s SPLIT! All shares doubled, price reset to %s",
			res.Stock, utils.FormatPrice(market.ParPrice)))
	case ActionBankrupt:
		g.appendEvent(EventBankrupt, "", fmt.Sprintf("%s went BANKRUPT! All shares lost, price reset to %s",
			res.Stock, utils.FormatPrice(market.ParPrice)))
	}

	out := Outcome{Rolls: []RollResult{res}}
	out.merge(g.advanceTurn())
	return out
}

// applyRoll moves the market or pays the dividend. Prices outside (0, 200) are resolved
// at once by a split or a bankruptcy, so a stock always trades between 1¢ and 199¢.
func (g *Game) applyRoll(r market.Roll) RollResult {
	res := RollResult{Stock: r.Stock, Movement: r.Movement, Amount: r.Amount, Success: true}
	price := g.prices[r.Stock]

	switch r.Movement {
	case market.Up:
		price += r.Amount
		if price >= market.SplitPrice {
			for _, id := range g.roster {
				g.players[id].SplitShares(r.Stock)
			}
			price = market.ParPrice
			res.CorporateAction = ActionSplit
		}
	case market.Down:
		price -= r.Amount
		if price <= market.OffMarketPrice {
			for _, id := range g.roster {
				g.players[id].WipeShares(r.Stock)
			}
			price = market.ParPrice
			res.CorporateAction = ActionBankrupt
		}
	case market.Dividend:
		if price < market.ParPrice {
			res.Success = false
			break
		}
		for _, id := range g.roster {
			if p := g.players[id]; !p.HasLeft() {
				p.ApplyDividend(r.Stock, r.Amount)
			}
		}
	}

	g.prices[r.Stock] = price
	res.NewPrice = price
	return res
}

func describeRoll(r RollResult) string {
	switch r.Movement {
	case market.Up:
		return fmt.Sprintf("%s moved UP %d¢", r.Stock, r.Amount)
	case market.Down:
		return fmt.Sprintf("%s moved DOWN %d¢", r.Stock, r.Amount)
	default:
		if !r.Success {
			return fmt.Sprintf("%s dividend - dividends not payable below par", r.Stock)
		}
		return fmt.Sprintf("%s paid %s dividend per share", r.Stock, utils.FormatPrice(r.Amount))
	}
}

// advanceTurn hands the dice to the next remaining player, or closes the rotation: the round
// ends, and either trading reopens or the game is over.
func (g *Game) advanceTurn() Outcome {
	turn, _ := g.phase.Turn()
	if next, ok := g.nextTurn(turn); ok {
		g.phase = Dice(next)
		g.deadline = g.now().Add(g.settings.DiceDuration)
		g.appendEvent(EventPhase, "", fmt.Sprintf("%s's turn to roll", g.playerName(g.roster[next])))
		return Outcome{}
	}

	for _, id := range g.roster {
		g.players[id].RecordNetWorth(g.prices)
	}
	if g.round >= g.settings.MaxRounds {
		return g.finish(fmt.Sprintf("all %d rounds played", g.settings.MaxRounds))
	}

	g.round++
	g.phase = Trading()
	for _, id := range g.roster {
		g.players[id].SetDoneTrading(false)
	}
	g.deadline = g.now().Add(g.settings.TradingDuration)
	g.appendEvent(EventPhase, "", fmt.Sprintf("Round %d started - Trading Phase", g.round))
	return Outcome{PhaseChanged: true}
}
