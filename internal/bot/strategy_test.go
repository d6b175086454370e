package bot

import (
	"testing"

	"pgregory.net/rapid"

	"stockticker/internal/game/market"
	"stockticker/internal/game/player"
)

func opening() Holdings {
	return Holdings{Cash: 500000, Portfolio: map[market.Stock]int64{}, Prices: market.NewPrices()}
}

func TestNew(t *testing.T) {
	for name, want := range map[string]string{"": "balanced", "balanced": "balanced", "momentum": "momentum"} {
		s, err := New(name)
		if err != nil || s.Name() != want {
			t.Errorf("New(%q) = %v, %v", name, s, err)
		}
	}
	if _, err := New("yolo"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestBalancedOpeningSpreadsEvenly(t *testing.T) {
	orders := Balanced{}.Orders(opening())
	if len(orders) != len(market.Stocks) {
		t.Fatalf("got %d orders, want %d", len(orders), len(market.Stocks))
	}
	for i, o := range orders {
		if o.Stock != market.Stocks[i] || o.Direction != player.Buy || o.Shares != 500 {
			t.Errorf("order %d = %+v", i, o)
		}
	}
}

func TestBalancedSellsOverweight(t *testing.T) {
	h := opening()
	h.Cash = 0
	h.Portfolio[market.Gold] = 5000
	orders := Balanced{}.Orders(h)
	if len(orders) == 0 || orders[0].Stock != market.Gold || orders[0].Direction != player.Sell {
		t.Fatalf("orders = %+v", orders)
	}
	if orders[0].Shares > 5000 || orders[0].Shares%market.ShareLot != 0 {
		t.Errorf("sell size = %d", orders[0].Shares)
	}
	for _, o := range orders[1:] {
		if o.Direction != player.Buy {
			t.Errorf("sell after buys: %+v", o)
		}
	}
}

func TestMomentumOpeningPicksThree(t *testing.T) {
	orders := Momentum{}.Orders(opening())
	want := []market.Stock{market.Gold, market.Silver, market.Oil}
	if len(orders) != len(want) {
		t.Fatalf("orders = %+v", orders)
	}
	for i, o := range orders {
		if o.Stock != want[i] || o.Direction != player.Buy || o.Shares != 1500 {
			t.Errorf("order %d = %+v", i, o)
		}
	}
}

func TestMomentumStopLoss(t *testing.T) {
	h := opening()
	h.Prices[market.Grain] = 70
	h.Portfolio[market.Grain] = 1000
	orders := Momentum{}.Orders(h)
	if len(orders) == 0 {
		t.Fatal("no orders")
	}
	if o := orders[0]; o.Stock != market.Grain || o.Direction != player.Sell || o.Shares != 1000 {
		t.Errorf("first order = %+v", o)
	}
}

func TestMomentumHoldsCashWhenNothingScores(t *testing.T) {
	h := opening()
	for _, st := range market.Stocks {
		h.Prices[st] = 50
	}
	if orders := (Momentum{}).Orders(h); len(orders) != 0 {
		t.Errorf("orders = %+v", orders)
	}
}

// Every plan must be executable in order against the server's trade rules.
func TestOrdersAreExecutable(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := Holdings{
			Cash:      rapid.Int64Range(0, 2_000_000).Draw(t, "cash"),
			Portfolio: map[market.Stock]int64{},
			Prices:    market.Prices{},
		}
		for _, st := range market.Stocks {
			h.Prices[st] = rapid.Int64Range(5, 195).Draw(t, "price_"+string(st))
			h.Portfolio[st] = rapid.Int64Range(0, 20).Draw(t, "lots_"+string(st)) * market.ShareLot
		}
		name := rapid.SampledFrom([]string{"balanced", "momentum"}).Draw(t, "strategy")
		s, _ := New(name)

		p := player.NewPlayer("bot", "Bot", h.Cash)
		for st, qty := range h.Portfolio {
			if qty == 0 {
				continue
			}
			p.ResetCash(qty * h.Prices[st])
			if err := p.ApplyTrade(player.Buy, st, qty, h.Prices[st]); err != nil {
				t.Fatalf("seed %s: %v", st, err)
			}
		}
		p.ResetCash(h.Cash)

		for _, o := range s.Orders(h) {
			if err := p.ApplyTrade(o.Direction, o.Stock, o.Shares, h.Prices[o.Stock]); err != nil {
				t.Fatalf("%s order %+v rejected: %v", name, o, err)
			}
		}
	})
}
