package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/caninosoft/vetcore/backend/internal/adapters/events"
	"github.com/caninosoft/vetcore/backend/internal/api/handlers"
	"github.com/caninosoft/vetcore/backend/internal/api/middleware"
	"github.com/caninosoft/vetcore/backend/internal/infrastructure/clients/redis"
	"github.com/caninosoft/vetcore/backend/internal/infrastructure/observability"
	"github.com/caninosoft/vetcore/backend/pkg/config"
)

// Standalone SSE server. Runs the stream endpoints on their own port so
// long-lived connections can be scaled separately from the API.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger("vetcore-sse", cfg.Logging.Environment)
	log.Info().Msg("starting SSE server")

	// Redis is required here: without the event bus there is nothing to stream
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize redis client")
	}
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	sseHandler := handlers.NewSSEHandler(eventBus)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	mux.HandleFunc("GET /api/stream/appointments", sseHandler.StreamAppointments)
	mux.HandleFunc("GET /api/stream/branches/{id}/appointments", sseHandler.StreamBranchAppointments)
	mux.HandleFunc("GET /api/stream/stock", sseHandler.StreamStock)
	mux.HandleFunc("GET /api/stream/stats", sseHandler.Stats)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(handler)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // no deadline on the streaming writes
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("SSE server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("SSE server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("SSE server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("error closing event bus")
	}

	log.Info().Msg("SSE server stopped")
}
