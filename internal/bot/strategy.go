// Package bot holds the trading strategies of the headless bot client.
package bot

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"stockticker/internal/game/market"
	"stockticker/internal/game/player"
)

// Order is one trade the bot wants to submit.
type Order struct {
	Stock     market.Stock
	Direction player.Direction
	Shares    int64
}

// Holdings is what a strategy sees of its own player and the market.
type Holdings struct {
	Cash      int64
	Portfolio map[market.Stock]int64
	Prices    market.Prices
}

func (h Holdings) NetWorth() int64 {
	total := h.Cash
	for st, qty := range h.Portfolio {
		total += qty * h.Prices[st]
	}
	return total
}

// Strategy turns holdings into orders. Sells come first so their proceeds fund the buys.
type Strategy interface {
	Name() string
	Orders(h Holdings) []Order
}

// New returns the strategy called name.
func New(name string) (Strategy, error) {
	switch name {
	case "", "balanced":
		return Balanced{}, nil
	case "momentum":
		return Momentum{}, nil
	}
	return nil, fmt.Errorf("unknown bot strategy %q", name)
}

// lots is the largest multiple of the share lot whose cost stays within cents.
func lots(cents, price int64) int64 {
	if price <= 0 || cents <= 0 {
		return 0
	}
	shares := cents / price
	return shares - shares%market.ShareLot
}

func pct(v int64, percent int64) decimal.Decimal {
	return decimal.NewFromInt(v).Mul(decimal.NewFromInt(percent)).Div(decimal.NewFromInt(100))
}

// Balanced keeps about 10% cash and spreads the rest over every stock, weighting by
// price bracket and rebalancing only drifts above 2% of net worth.
type Balanced struct{}

func (Balanced) Name() string { return "balanced" }

func balancedWeight(price int64) int64 {
	switch {
	case price < 100:
		return 5
	case price < 150:
		return 20
	case price < 190:
		return 25
	default:
		return 15
	}
}

func (Balanced) Orders(h Holdings) []Order {
	worth := h.NetWorth()
	var total int64
	for _, st := range market.Stocks {
		total += balancedWeight(h.Prices[st])
	}
	invested := pct(worth, 90)
	threshold := pct(worth, 2).IntPart()

	targets := make(map[market.Stock]int64, len(market.Stocks))
	for _, st := range market.Stocks {
		w := decimal.NewFromInt(balancedWeight(h.Prices[st]))
		targets[st] = invested.Mul(w).Div(decimal.NewFromInt(total)).IntPart()
	}

	cash := h.Cash
	var sells, buys []Order
	for _, st := range market.Stocks {
		price := h.Prices[st]
		diff := targets[st] - h.Portfolio[st]*price
		if diff >= 0 || -diff < threshold {
			continue
		}
		n := min(lots(-diff, price), h.Portfolio[st])
		if n > 0 {
			sells = append(sells, Order{Stock: st, Direction: player.Sell, Shares: n})
			cash += n * price
		}
	}
	for _, st := range market.Stocks {
		price := h.Prices[st]
		diff := targets[st] - h.Portfolio[st]*price
		if diff <= 0 || diff < threshold {
			continue
		}
		n := lots(min(diff, cash), price)
		if n > 0 {
			buys = append(buys, Order{Stock: st, Direction: player.Buy, Shares: n})
			cash -= n * price
		}
	}
	return append(sells, buys...)
}

// Momentum concentrates in the three most attractive dividend payers, dumps anything
// under 80¢, and sells holdings outside its picks.
type Momentum struct{}

func (Momentum) Name() string { return "momentum" }

func momentumScore(price int64) int64 {
	if price < 80 {
		return -100
	}
	var score int64
	if price >= market.ParPrice {
		score += 50
	} else {
		score -= 20
	}
	switch {
	case price >= 160 && price < 190:
		score += 40
	case price >= 120 && price < 160:
		score += 30
	case price >= 100 && price < 120:
		score += 20
	case price >= 190:
		score -= 10
	}
	return score
}

func (Momentum) Orders(h Holdings) []Order {
	worth := h.NetWorth()
	ranked := append([]market.Stock(nil), market.Stocks...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return momentumScore(h.Prices[ranked[i]]) > momentumScore(h.Prices[ranked[j]])
	})

	picks := make(map[market.Stock]bool)
	for _, st := range ranked[:3] {
		if momentumScore(h.Prices[st]) > 0 {
			picks[st] = true
		}
	}

	cash := h.Cash
	var sells, buys []Order
	for _, st := range market.Stocks {
		held := h.Portfolio[st]
		if held == 0 || picks[st] {
			continue
		}
		price := h.Prices[st]
		stopLoss := price < 80
		oversized := decimal.NewFromInt(held * price).GreaterThan(pct(worth, 5))
		if stopLoss || oversized {
			sells = append(sells, Order{Stock: st, Direction: player.Sell, Shares: held})
			cash += held * price
		}
	}
	if len(picks) == 0 {
		return sells
	}

	perPick := pct(worth, 95).Div(decimal.NewFromInt(int64(len(picks)))).IntPart()
	for _, st := range ranked {
		if !picks[st] {
			continue
		}
		price := h.Prices[st]
		diff := perPick - h.Portfolio[st]*price
		if diff <= 1000 {
			continue
		}
		n := lots(min(diff, cash), price)
		if n > 0 {
			buys = append(buys, Order{Stock: st, Direction: player.Buy, Shares: n})
			cash -= n * price
		}
	}
	return append(sells, buys...)
}
