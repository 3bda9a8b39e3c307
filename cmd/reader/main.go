package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/salgozino/btcusdt/internal/config"
	"github.com/salgozino/btcusdt/internal/database"
	"github.com/salgozino/btcusdt/internal/stream"
	"github.com/salgozino/btcusdt/internal/supervisor"
	"github.com/salgozino/btcusdt/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/reader.local.yaml", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting reader",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"symbol", cfg.Exchange.Symbol,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	gateway := database.NewGateway(cfg.Database, logger)
	if err := gateway.EnsureConnected(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	logger.Info("database connected")

	// Create the stream subscriber
	sub := stream.NewSubscriber(subscriberConfig(cfg), logger)

	// Create and start the supervisor
	sup := supervisor.New(cfg.Supervisor, cfg.Exchange.Symbol, sub, gateway, logger)
	if err := sup.Start(ctx); err != nil {
		logger.Error("failed to start supervisor", "error", err)
		gateway.Close()
		os.Exit(1)
	}

	// Start health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(gateway, sub, sup),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("reader running",
		"symbol", cfg.Exchange.Symbol,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Health.Port),
	)

	// Wait for shutdown or a fatal processing error
	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-sup.Fatal():
		logger.Error("fatal processing error", "error", err)
		exitCode = 1
		cancel()
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	healthServer.Shutdown(shutdownCtx)

	sup.Stop()

	logger.Info("reader stopped")
	os.Exit(exitCode)
}

// subscriberConfig maps the file configuration onto the stream layer.
func subscriberConfig(cfg *config.ReaderConfig) stream.SubscriberConfig {
	sc := stream.DefaultSubscriberConfig()
	sc.WSURL = cfg.Exchange.WSURL
	sc.APIKey = cfg.Exchange.APIKey
	sc.ProxyURL = cfg.Proxy.HTTPS
	if sc.ProxyURL == "" {
		sc.ProxyURL = cfg.Proxy.HTTP
	}
	sc.PingTimeout = cfg.Stream.PingTimeout
	sc.WriteTimeout = cfg.Stream.WriteTimeout
	sc.BufferSize = cfg.Stream.BufferSize
	sc.MaxReconnects = cfg.Stream.MaxReconnects
	sc.Backoff.Min = cfg.Stream.ReconnectBaseWait
	sc.Backoff.Max = cfg.Stream.ReconnectMaxWait
	return sc
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(gateway *database.Gateway, sub *stream.Subscriber, sup *supervisor.Supervisor) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		// Check database
		if err := gateway.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["database"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["database"] = "connected"
		}

		// Check the trade stream
		conn := sup.ConnState()
		health.Components["stream"] = map[string]interface{}{
			"state":      string(conn.State()),
			"reconnects": conn.Reconnects(),
			"dropped":    sub.Dropped(),
		}
		if !sub.IsAlive() {
			health.Status = "degraded"
		}

		// Set response
		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
