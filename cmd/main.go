package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"digipiggy-hub/internal/config"
	"digipiggy-hub/internal/logger"
	"digipiggy-hub/internal/notify"
	"digipiggy-hub/internal/routes"
	"digipiggy-hub/internal/storage"
	"digipiggy-hub/internal/store"
	"digipiggy-hub/pkg/mqtt"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env, cfg.Server.LogDir); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting digipiggy hub",
		zap.String("environment", env),
	)

	storagePath, err := cfg.Storage.StoragePath()
	if err != nil {
		logger.Fatal("Failed to resolve storage path", zap.Error(err))
	}

	slots, err := storage.Open(storagePath)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer func() {
		if err := slots.Close(); err != nil {
			logger.Error("Failed to close storage", zap.Error(err))
		}
	}()

	st := store.New(slots, logger.Logger)

	// Hydration must finish before the API serves anything; nothing reads
	// the store before this returns. A failed load degrades to empty state.
	hydrateCtx, cancelHydrate := context.WithTimeout(context.Background(), 10*time.Second)
	st.Hydrate(hydrateCtx)
	cancelHydrate()

	notifier := buildNotifier(cfg)

	router := routes.SetupRoutes(cfg, st, notifier)

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", zap.Error(err))
	}

	// Let in-flight snapshot writes land, then write one final snapshot so
	// the slot reflects the last in-memory state.
	st.Flush()
	if err := st.Persist(ctx); err != nil {
		logger.Error("Failed to persist final snapshot", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

// buildNotifier picks the outbound message channel: MQTT when a broker is
// configured, HTTP when a base URL is, otherwise a no-op.
func buildNotifier(cfg *config.Config) notify.Notifier {
	if cfg.MQTT.Broker != "" {
		client := mqtt.NewClient(&mqtt.Config{
			Broker:               cfg.MQTT.Broker,
			ClientID:             cfg.MQTT.ClientID,
			Username:             cfg.MQTT.Username,
			Password:             cfg.MQTT.Password,
			KeepAlive:            30,
			ConnectTimeout:       10,
			MaxReconnectInterval: time.Minute,
		}, logger.Logger)
		if err := client.Connect(); err != nil {
			logger.Warn("MQTT broker unreachable, device messages disabled", zap.Error(err))
			return notify.Nop{}
		}
		return notify.NewMQTTNotifier(client, cfg.MQTT.TopicPrefix)
	}

	if cfg.Notify.BaseURL != "" {
		timeout := time.Duration(cfg.Notify.TimeoutMS) * time.Millisecond
		return notify.NewHTTPNotifier(cfg.Notify.BaseURL, cfg.Notify.Token, timeout)
	}

	logger.Info("No notification channel configured, device messages disabled")
	return notify.Nop{}
}
