// The session server hosts stock ticker games over websocket.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"stockticker/internal/network"
	"stockticker/internal/services/cluster"
	"stockticker/internal/services/eventbus"
	"stockticker/internal/services/gameroom"
	"stockticker/internal/session"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.LogDev)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("configuration loaded",
		zap.String("addr", cfg.Addr),
		zap.String("service", cfg.ServiceName),
		zap.Duration("results_retention", cfg.ResultsRetention),
		zap.Duration("idle_grace", cfg.IdleGrace),
		zap.Bool("nats", cfg.NATSURL != ""),
		zap.Bool("consul", cfg.ConsulAddr != ""))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := cluster.NewHealthAggregator()

	var publisher eventbus.Publisher = eventbus.Noop{}
	if cfg.NATSURL != "" {
		nats, err := eventbus.Connect(cfg.NATSURL, cfg.NATSSubjectPrefix, cfg.ServiceName, logger)
		if err != nil {
			logger.Fatal("event bus", zap.Error(err))
		}
		health.AddCheck("nats", nats.Check)
		publisher = nats
	}
	defer publisher.Close()

	rooms := gameroom.NewRoomManager(gameroom.ManagerConfig{
		Retention:       cfg.ResultsRetention,
		IdleGrace:       cfg.IdleGrace,
		CleanupInterval: cfg.CleanupInterval,
		Publisher:       publisher,
		Logger:          logger,
	})
	managerDone := make(chan struct{})
	go func() {
		rooms.Run(ctx)
		close(managerDone)
	}()
	health.AddCheck("rooms", func() error { return rooms.Check(2 * time.Second) })

	ws := network.NewServer(session.NewGameHandler(rooms, logger), logger)
	go ws.Run(ctx)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/ws", ws)
	r.Get("/health", health.Handler())
	gameroom.RegisterHandlers(r, rooms)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	if cfg.ConsulAddr != "" {
		port, _ := cfg.Port()
		reg, err := cluster.Register(cluster.Service{
			Name: cfg.ServiceName,
			Host: cfg.AdvertiseHost,
			Port: port,
		}, cfg.ConsulAddr, logger)
		if err != nil {
			logger.Fatal("consul registration", zap.Error(err))
		}
		defer func() {
			if err := reg.Deregister(); err != nil {
				logger.Warn("consul deregistration", zap.Error(err))
			}
		}()
	}

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", zap.Error(err))
		}
		stop()
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	<-managerDone
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
