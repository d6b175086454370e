package player

import (
	"errors"
	"math"
	"testing"

	"pgregory.net/rapid"

	"stockticker/internal/game/market"
)

func TestBuyAndSell(t *testing.T) {
	p := NewPlayer("a", "Alice", 500000)

	if err := p.ApplyTrade(Buy, market.Gold, 500, 100); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if p.Cash() != 450000 || p.Shares(market.Gold) != 500 {
		t.Fatalf("after buy: cash=%d gold=%d", p.Cash(), p.Shares(market.Gold))
	}

	err := p.ApplyTrade(Sell, market.Gold, 1000, 100)
	if !errors.Is(err, ErrInsufficientShares) {
		t.Fatalf("selling more than held: got %v", err)
	}
	if p.Cash() != 450000 || p.Shares(market.Gold) != 500 {
		t.Fatal("rejected sell must not touch the ledger")
	}

	if err := p.ApplyTrade(Sell, market.Gold, 500, 120); err != nil {
		t.Fatalf("sell: %v", err)
	}
	if p.Cash() != 510000 || p.Shares(market.Gold) != 0 {
		t.Fatalf("after sell: cash=%d gold=%d", p.Cash(), p.Shares(market.Gold))
	}
}

func TestTradeRejections(t *testing.T) {
	tests := []struct {
		name   string
		dir    Direction
		shares int64
		price  int64
		want   error
	}{
		{"zero shares", Buy, 0, 100, ErrInvalidShares},
		{"negative shares", Sell, -500, 100, ErrInvalidShares},
		{"odd lot", Buy, 750, 100, ErrInvalidShares},
		{"cannot afford", Buy, 5500, 100, ErrInsufficientCash},
		{"overflowing cost", Buy, math.MaxInt64 - math.MaxInt64%500, 200, ErrInsufficientCash},
		{"nothing to sell", Sell, 500, 100, ErrInsufficientShares},
		{"bad direction", Direction("hold"), 500, 100, ErrInvalidDirection},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPlayer("a", "Alice", 500000)
			err := p.ApplyTrade(tc.dir, market.Oil, tc.shares, tc.price)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
			if p.Cash() != 500000 || p.Shares(market.Oil) != 0 {
				t.Fatal("rejected trade mutated the ledger")
			}
		})
	}
}

func TestDividendSplitAndWipe(t *testing.T) {
	p := NewPlayer("a", "Alice", 100000)
	if err := p.ApplyTrade(Buy, market.Grain, 1000, 50); err != nil {
		t.Fatal(err)
	}

	if got := p.ApplyDividend(market.Grain, 20); got != 20000 {
		t.Fatalf("payout = %d, want 20000", got)
	}
	if p.Cash() != 100000-50000+20000 {
		t.Fatalf("cash = %d", p.Cash())
	}
	if got := p.ApplyDividend(market.Oil, 20); got != 0 {
		t.Fatalf("dividend on an unheld stock paid %d", got)
	}

	p.SplitShares(market.Grain)
	if p.Shares(market.Grain) != 2000 {
		t.Fatalf("split: %d shares", p.Shares(market.Grain))
	}
	if lost := p.WipeShares(market.Grain); lost != 2000 || p.Shares(market.Grain) != 0 {
		t.Fatalf("wipe lost %d, left %d", lost, p.Shares(market.Grain))
	}
}

func TestNetWorthHistory(t *testing.T) {
	p := NewPlayer("a", "Alice", 10000)
	prices := market.NewPrices()
	if err := p.ApplyTrade(Buy, market.Bonds, 500, 10); err != nil {
		t.Fatal(err)
	}
	prices[market.Bonds] = 30
	if nw := p.NetWorth(prices); nw != 5000+15000 {
		t.Fatalf("net worth = %d", nw)
	}
	p.RecordNetWorth(prices)
	h := p.History()
	h[0] = 0
	if p.History()[0] != 20000 {
		t.Fatal("History must return a copy")
	}
}

// Accepted trades conserve value at the trade price and keep holdings in lots of 500;
// rejected ones change nothing.
func TestTradeConservationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		startCash := rapid.Int64Range(0, 10_000_000).Draw(t, "cash")
		p := NewPlayer("a", "Alice", startCash)
		stock := rapid.SampledFrom(market.Stocks).Draw(t, "stock")

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			dir := rapid.SampledFrom([]Direction{Buy, Sell}).Draw(t, "dir")
			shares := rapid.Int64Range(-1000, 20000).Draw(t, "shares")
			price := rapid.Int64Range(1, 199).Draw(t, "price")

			cashBefore, heldBefore := p.Cash(), p.Shares(stock)
			err := p.ApplyTrade(dir, stock, shares, price)

			if shares <= 0 || shares%500 != 0 {
				if !errors.Is(err, ErrInvalidShares) {
					t.Fatalf("shares=%d accepted or wrong error: %v", shares, err)
				}
			}
			if err != nil {
				if p.Cash() != cashBefore || p.Shares(stock) != heldBefore {
					t.Fatalf("rejected trade mutated ledger")
				}
				continue
			}

			sign := int64(1)
			if dir == Sell {
				sign = -1
			}
			if p.Cash() != cashBefore-sign*shares*price {
				t.Fatalf("cash %d -> %d for %s %d@%d", cashBefore, p.Cash(), dir, shares, price)
			}
			if p.Shares(stock) != heldBefore+sign*shares {
				t.Fatalf("shares %d -> %d", heldBefore, p.Shares(stock))
			}
			if p.Cash() < 0 || p.Shares(stock) < 0 || p.Shares(stock)%500 != 0 {
				t.Fatalf("invariant broken: cash=%d shares=%d", p.Cash(), p.Shares(stock))
			}
		}
	})
}
