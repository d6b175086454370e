package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config of one bot process.
type Config struct {
	ServerURL string `env:"BOT_SERVER_URL" envDefault:"ws://localhost:8080/ws"`
	SessionID string `env:"BOT_SESSION_ID" envDefault:"lobby"`
	Name      string `env:"BOT_NAME"`
	PlayerID  string `env:"BOT_PLAYER_ID"`
	Strategy  string `env:"BOT_STRATEGY" envDefault:"balanced"`
	// StartAt makes a hosting bot start the game once this many players sit at the
	// table. Zero leaves starting to a human.
	StartAt int `env:"BOT_START_AT" envDefault:"0"`
}

func loadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
