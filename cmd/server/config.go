package main

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every setting of the session server, read from the environment.
type Config struct {
	Addr        string `env:"STOCKTICKER_ADDR" envDefault:":8080"`
	ServiceName string `env:"STOCKTICKER_SERVICE_NAME" envDefault:"stockticker-session"`
	LogDev      bool   `env:"STOCKTICKER_LOG_DEV"`

	ResultsRetention time.Duration `env:"STOCKTICKER_RESULTS_RETENTION" envDefault:"1h"`
	IdleGrace        time.Duration `env:"STOCKTICKER_IDLE_GRACE" envDefault:"10m"`
	CleanupInterval  time.Duration `env:"STOCKTICKER_CLEANUP_INTERVAL" envDefault:"1m"`

	// NATSURL enables event publishing when set.
	NATSURL           string `env:"NATS_URL"`
	NATSSubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"stockticker.sessions"`

	// ConsulAddr enables service registration when set. It may list several agents.
	ConsulAddr    string `env:"CONSUL_HTTP_ADDR"`
	AdvertiseHost string `env:"STOCKTICKER_ADVERTISE_HOST"`
}

func loadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if _, err := cfg.Port(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Port is the numeric port of Addr, advertised to Consul.
func (c *Config) Port() (int, error) {
	_, p, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return 0, fmt.Errorf("invalid STOCKTICKER_ADDR %q: %w", c.Addr, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return 0, fmt.Errorf("invalid STOCKTICKER_ADDR port %q: %w", p, err)
	}
	return port, nil
}
