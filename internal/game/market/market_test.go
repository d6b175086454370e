package market

import "testing"

func TestParseStock(t *testing.T) {
	for _, st := range Stocks {
		got, err := ParseStock(string(st))
		if err != nil || got != st {
			t.Fatalf("ParseStock(%q) = %q, %v", st, got, err)
		}
	}
	if _, err := ParseStock("Copper"); err == nil {
		t.Fatal("expected error for unknown stock")
	}
	if _, err := ParseStock("gold"); err == nil {
		t.Fatal("symbols are case sensitive")
	}
}

func TestNewPricesStartAtPar(t *testing.T) {
	p := NewPrices()
	if len(p) != 6 {
		t.Fatalf("expected 6 stocks, got %d", len(p))
	}
	for st, v := range p {
		if v != ParPrice {
			t.Errorf("%s opened at %d, want %d", st, v, ParPrice)
		}
	}

	c := p.Clone()
	c[Gold] = 1
	if p[Gold] != ParPrice {
		t.Fatal("Clone must not alias the original map")
	}
}

func TestDiceRollerCoversEveryFace(t *testing.T) {
	d := NewDiceRoller(42)
	stocks := map[Stock]int{}
	moves := map[Movement]int{}
	amounts := map[int64]int{}

	const n = 6000
	for i := 0; i < n; i++ {
		r := d.Roll()
		stocks[r.Stock]++
		moves[r.Movement]++
		amounts[r.Amount]++
	}

	if len(stocks) != 6 {
		t.Fatalf("expected all 6 stocks to appear, got %v", stocks)
	}
	if len(moves) != 3 {
		t.Fatalf("expected 3 movements, got %v", moves)
	}
	for _, a := range []int64{5, 10, 20} {
		if amounts[a] == 0 {
			t.Fatalf("amount %d never rolled: %v", a, amounts)
		}
	}
	if len(amounts) != 3 {
		t.Fatalf("unexpected amounts rolled: %v", amounts)
	}
	// Loose uniformity bound: each movement should land near a third of the throws.
	for m, c := range moves {
		if c < n/3-300 || c > n/3+300 {
			t.Errorf("movement %s rolled %d times out of %d", m, c, n)
		}
	}
}

func TestScriptedRollerCycles(t *testing.T) {
	a := Roll{Stock: Gold, Movement: Up, Amount: 5}
	b := Roll{Stock: Oil, Movement: Dividend, Amount: 20}
	s := NewScriptedRoller(a, b)
	for i, want := range []Roll{a, b, a, b} {
		if got := s.Roll(); got != want {
			t.Fatalf("roll %d = %+v, want %+v", i, got, want)
		}
	}
}
