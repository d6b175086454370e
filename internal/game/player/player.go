package player

import (
	"errors"
	"fmt"
	"math"

	"stockticker/internal/game/market"
)

// Direction of a trade against the market maker.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

var (
	ErrInvalidShares      = errors.New("shares must be a positive multiple of 500")
	ErrInsufficientCash   = errors.New("not enough cash")
	ErrInsufficientShares = errors.New("not enough shares")
	ErrInvalidDirection   = errors.New("direction must be buy or sell")
)

// Player is the per-player ledger of a session. It enforces the cash and share invariants
// only; whether an action is legal right now is decided by the game.
type Player struct {
	id   string
	name string

	cash      int64
	portfolio map[market.Stock]int64

	connected   bool
	left        bool
	doneTrading bool

	// history[i] is the net worth recorded at the end of round i (0 = game start).
	history []int64
}

func NewPlayer(id, name string, cash int64) *Player {
	p := &Player{
		id:        id,
		name:      name,
		cash:      cash,
		portfolio: make(map[market.Stock]int64, len(market.Stocks)),
	}
	for _, st := range market.Stocks {
		p.portfolio[st] = 0
	}
	return p
}

func (p *Player) ID() string        { return p.id }
func (p *Player) Name() string      { return p.name }
func (p *Player) Cash() int64       { return p.cash }
func (p *Player) Connected() bool   { return p.connected }
func (p *Player) HasLeft() bool     { return p.left }
func (p *Player) DoneTrading() bool { return p.doneTrading }

func (p *Player) Shares(stock market.Stock) int64 { return p.portfolio[stock] }

// Portfolio returns a copy of the holdings.
func (p *Player) Portfolio() map[market.Stock]int64 {
	out := make(map[market.Stock]int64, len(p.portfolio))
	for k, v := range p.portfolio {
		out[k] = v
	}
	return out
}

func (p *Player) History() []int64 {
	return append([]int64(nil), p.history...)
}

func (p *Player) SetConnected(v bool)   { p.connected = v }
func (p *Player) SetDoneTrading(v bool) { p.doneTrading = v }

// MarkLeft flags a permanent departure. The ledger stays for the final rankings.
func (p *Player) MarkLeft() {
	p.left = true
	p.doneTrading = false
}

// ResetCash sets the opening balance when the game starts.
func (p *Player) ResetCash(cents int64) {
	p.cash = cents
}

// ApplyTrade executes a trade of shares at price (cents per share). On error nothing changes.
func (p *Player) ApplyTrade(dir Direction, stock market.Stock, shares, price int64) error {
	if shares <= 0 || shares%market.ShareLot != 0 {
		return ErrInvalidShares
	}
	if price < 0 {
		return fmt.Errorf("negative price %d for %s", price, stock)
	}
	if price > 0 && shares > math.MaxInt64/price {
		// The cost does not fit in an int64, so no one can afford it or receive it.
		if dir == Sell {
			return ErrInsufficientShares
		}
		return ErrInsufficientCash
	}
	value := shares * price

	switch dir {
	case Buy:
		if p.cash < value {
			return fmt.Errorf("%w: need %d, have %d", ErrInsufficientCash, value, p.cash)
		}
		p.cash -= value
		p.portfolio[stock] += shares
	case Sell:
		if p.portfolio[stock] < shares {
			return fmt.Errorf("%w: hold %d %s", ErrInsufficientShares, p.portfolio[stock], stock)
		}
		p.portfolio[stock] -= shares
		p.cash += value
	default:
		return ErrInvalidDirection
	}
	return nil
}

// ApplyDividend credits perShare cents for every share held of stock and returns the payout.
func (p *Player) ApplyDividend(stock market.Stock, perShare int64) int64 {
	payout := p.portfolio[stock] * perShare
	p.cash += payout
	return payout
}

// SplitShares doubles the holding of stock. Multiples of 500 stay multiples of 500.
func (p *Player) SplitShares(stock market.Stock) {
	p.portfolio[stock] *= 2
}

// WipeShares zeroes the holding of a bankrupt stock and returns how many shares were lost.
func (p *Player) WipeShares(stock market.Stock) int64 {
	lost := p.portfolio[stock]
	p.portfolio[stock] = 0
	return lost
}

// NetWorth is cash plus the market value of every holding.
func (p *Player) NetWorth(prices market.Prices) int64 {
	total := p.cash
	for st, qty := range p.portfolio {
		total += qty * prices[st]
	}
	return total
}

func (p *Player) RecordNetWorth(prices market.Prices) {
	p.history = append(p.history, p.NetWorth(prices))
}
