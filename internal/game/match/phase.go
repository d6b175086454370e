package match

import (
	"fmt"
	"time"
)

// Status is the coarse lifecycle of a game.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// Phase is either Trading or Dice(turn). The fields are unexported so a turn index can
// only exist on a dice phase.
type Phase struct {
	dice bool
	turn int
}

func Trading() Phase { return Phase{} }

func Dice(turn int) Phase { return Phase{dice: true, turn: turn} }

func (p Phase) IsTrading() bool { return !p.dice }

// Turn returns the roster index whose roll is pending, or false during Trading.
func (p Phase) Turn() (int, bool) {
	return p.turn, p.dice
}

// Name is the wire name of the phase.
func (p Phase) Name() string {
	if p.dice {
		return "dice"
	}
	return "trading"
}

func (p Phase) String() string {
	if p.dice {
		return fmt.Sprintf("dice(%d)", p.turn)
	}
	return "trading"
}

const (
	MinPlayers = 2
	MaxPlayers = 8
)

// Settings are fixed once the game is active.
type Settings struct {
	MaxRounds       int
	TradingDuration time.Duration
	DiceDuration    time.Duration
	// StartingCash is in cents.
	StartingCash int64
}

func DefaultSettings() Settings {
	return Settings{
		MaxRounds:       15,
		TradingDuration: 2 * time.Minute,
		DiceDuration:    15 * time.Second,
		StartingCash:    5_000_00,
	}
}

// WithDefaults fills every zero field from DefaultSettings, so a client may send a partial
// settings object.
func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if s.MaxRounds == 0 {
		s.MaxRounds = d.MaxRounds
	}
	if s.TradingDuration == 0 {
		s.TradingDuration = d.TradingDuration
	}
	if s.DiceDuration == 0 {
		s.DiceDuration = d.DiceDuration
	}
	if s.StartingCash == 0 {
		s.StartingCash = d.StartingCash
	}
	return s
}

func (s Settings) Validate() error {
	switch {
	case s.MaxRounds < 1 || s.MaxRounds > 100:
		return fmt.Errorf("%w: max_rounds must be between 1 and 100", ErrInvalidSettings)
	case s.TradingDuration < time.Second || s.TradingDuration > time.Hour:
		return fmt.Errorf("%w: trading_duration must be between 1s and 1h", ErrInvalidSettings)
	case s.DiceDuration < time.Second || s.DiceDuration > 10*time.Minute:
		return fmt.Errorf("%w: dice_duration must be between 1s and 10m", ErrInvalidSettings)
	case s.StartingCash < 1 || s.StartingCash > 1_000_000_000_00:
		return fmt.Errorf("%w: starting_cash must be positive and at most $1,000,000,000", ErrInvalidSettings)
	}
	return nil
}
