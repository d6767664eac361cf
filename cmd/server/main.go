package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-realtime/internal/cache"
	"chat-realtime/internal/config"
	"chat-realtime/internal/database"
	"chat-realtime/internal/repository"
	"chat-realtime/internal/server"
	"chat-realtime/internal/service"
	"chat-realtime/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting realtime chat server")

	db, err := database.NewPostgresConnection(cfg.DB)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}

	redisClient, err := database.NewRedisConnection(cfg.Redis.URL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	presenceRepo := repository.NewPresenceRepository(redisClient)

	membership := cache.NewMembership(chatRepo.MembershipSnapshot, cache.Config{
		TTL:           cfg.Cache.MembershipTTL,
		SweepInterval: cfg.Cache.SweepInterval,
		MaxIdle:       cfg.Cache.MaxIdle,
	})
	membership.StartSweep()
	defer membership.StopSweep()

	registry := websocket.NewRegistry()
	hub := websocket.NewHub()
	go hub.Run()

	relay := service.NewRelay(membership, registry, hub, userRepo, chatRepo, messageRepo, notificationRepo)
	presence := service.NewPresence(userRepo, presenceRepo, notificationRepo, registry, hub)
	signals := service.NewSignals(membership, messageRepo, hub)

	sessions := websocket.NewSessionHandler(
		hub, registry, relay, presence, signals, membership, userRepo, cfg.HandlerTimeout)

	router := server.NewRouter(sessions, presence, cfg.JWT.Secret)
	router.SetupRoutes()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
