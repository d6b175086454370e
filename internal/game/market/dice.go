package market

import (
	"math/rand/v2"
	"time"
)

// Movement is the outcome of the action die.
type Movement string

const (
	Up       Movement = "up"
	Down     Movement = "down"
	Dividend Movement = "dividend"
)

// Roll is one throw of the three dice: which stock, what happens, and by how many cents.
type Roll struct {
	Stock    Stock    `json:"stock"`
	Movement Movement `json:"movement"`
	Amount   int64    `json:"amount"`
}

// Roller produces dice rolls. Tests inject a scripted roller.
type Roller interface {
	Roll() Roll
}

var (
	movementFaces = [6]Movement{Up, Up, Down, Down, Dividend, Dividend}
	amountFaces   = [6]int64{5, 5, 10, 10, 20, 20}
)

// DiceRoller throws three six-sided dice. Each face set is uniform, so the stock is uniform
// over the six symbols, the movement over {up, down, dividend} and the amount over {5, 10, 20}.
type DiceRoller struct {
	rng *rand.Rand
}

func NewDiceRoller(seed uint64) *DiceRoller {
	return &DiceRoller{rng: rand.New(rand.NewPCG(seed, 1))}
}

// NewTimeSeededRoller seeds from the clock, the same way game rooms seed their shuffles.
func NewTimeSeededRoller() *DiceRoller {
	return NewDiceRoller(uint64(time.Now().UnixNano()))
}

func (d *DiceRoller) Roll() Roll {
	return Roll{
		Stock:    Stocks[d.rng.IntN(6)],
		Movement: movementFaces[d.rng.IntN(6)],
		Amount:   amountFaces[d.rng.IntN(6)],
	}
}

// ScriptedRoller replays a fixed sequence of rolls, cycling when exhausted.
type ScriptedRoller struct {
	rolls []Roll
	next  int
}

func NewScriptedRoller(rolls ...Roll) *ScriptedRoller {
	return &ScriptedRoller{rolls: rolls}
}

func (s *ScriptedRoller) Roll() Roll {
	r := s.rolls[s.next%len(s.rolls)]
	s.next++
	return r
}
