package market

import "fmt"

// Stock is one of the six fixed ticker symbols traded in every session.
type Stock string

const (
	Gold        Stock = "Gold"
	Silver      Stock = "Silver"
	Oil         Stock = "Oil"
	Bonds       Stock = "Bonds"
	Industrials Stock = "Industrials"
	Grain       Stock = "Grain"
)

// Stocks lists the symbols in die-face order (face 1 is Gold, face 6 is Grain).
var Stocks = []Stock{Gold, Silver, Oil, Bonds, Industrials, Grain}

const (
	// ParPrice is the opening price of every stock and the dividend threshold.
	ParPrice int64 = 100
	// SplitPrice triggers a 2-for-1 split when reached by an up move.
	SplitPrice int64 = 200
	// OffMarketPrice triggers a bankruptcy when reached by a down move.
	OffMarketPrice int64 = 0

	// ShareLot is the trading unit; every trade and holding is a multiple of it.
	ShareLot int64 = 500
)

// ParseStock validates a symbol received from the outside world.
func ParseStock(s string) (Stock, error) {
	for _, st := range Stocks {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown stock %q", s)
}

// Prices maps each stock to its current price in cents.
type Prices map[Stock]int64

// NewPrices returns a market with every stock at par.
func NewPrices() Prices {
	p := make(Prices, len(Stocks))
	for _, st := range Stocks {
		p[st] = ParPrice
	}
	return p
}

// Clone returns an independent copy, safe to hand to a snapshot.
func (p Prices) Clone() Prices {
	out := make(Prices, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
