package main

import (
	"context"
	"ctchen222/tictactoe-solo/internal/api/controller"
	"ctchen222/tictactoe-solo/internal/api/service"
	"ctchen222/tictactoe-solo/internal/bot"
	"ctchen222/tictactoe-solo/internal/broker"
	"ctchen222/tictactoe-solo/internal/config"
	"ctchen222/tictactoe-solo/internal/db"
	"ctchen222/tictactoe-solo/internal/hub"
	"ctchen222/tictactoe-solo/internal/logger"
	"ctchen222/tictactoe-solo/internal/server"
	"ctchen222/tictactoe-solo/internal/telemetry"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize telemetry
	shutdown, err := telemetry.InitOtel(ctx, telemetry.Options{
		CollectorAddr: cfg.OtelCollectorAddr,
		StdoutTraces:  cfg.OtelCollectorAddr == "" && cfg.LogLevel <= slog.LevelDebug,
	})
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	logger.Init(cfg.LogLevel)

	// Pick the broker: Redis when configured, in-process otherwise.
	var b broker.Broker
	if cfg.RedisConnString != "" {
		rdb, err := db.NewRedisClient(ctx, cfg.RedisConnString)
		if err != nil {
			log.Fatalf("failed to initialize redis: %v", err)
		}
		defer rdb.Close()
		b = broker.NewRedisBroker(rdb)
		slog.Info("Using redis broker", "redis.addr", rdb.Options().Addr)
	} else {
		b = broker.NewMemoryBroker()
		slog.Info("Using in-memory broker")
	}
	defer b.Close()

	secret := cfg.SessionTokenSecret
	if secret == nil {
		if secret, err = service.RandomSecret(); err != nil {
			log.Fatalf("failed to generate session token secret: %v", err)
		}
		slog.Warn("SESSION_TOKEN_SECRET not set; tokens will not survive a restart")
	}

	// Create hub
	h := hub.NewHub(b, bot.NewBotMoveCalculator(), cfg.ComputerMoveDelay, cfg.SessionIdleTimeout)
	hubCtx, stopHub := context.WithCancel(ctx)
	hubDone := make(chan struct{})
	go func() {
		h.Run(hubCtx)
		close(hubDone)
	}()

	// Create services and controllers
	tokens := service.NewTokenService(secret, cfg.SessionTokenTTL)
	sessionController := controller.NewSessionController(service.NewSessionService(h, tokens))

	// Create the Gin-based server
	srv, err := server.NewServer(h, sessionController, tokens, cfg.WebDir)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Engine(),
	}

	go func() {
		slog.Info("http server started", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop

	slog.Info("Shutting down server...")

	// Closing the sessions first sends "closed" to every WebSocket, which
	// lets their handlers return before the HTTP server drains.
	stopHub()
	<-hubDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exiting")
}
