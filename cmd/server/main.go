package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/authcore-dev/authd/internal/admin"
	"github.com/authcore-dev/authd/internal/authz"
	"github.com/authcore-dev/authd/internal/clientcache"
	"github.com/authcore-dev/authd/internal/config"
	"github.com/authcore-dev/authd/internal/events"
	"github.com/authcore-dev/authd/internal/httpapi"
	"github.com/authcore-dev/authd/internal/issuer"
	"github.com/authcore-dev/authd/internal/jwtcodec"
	"github.com/authcore-dev/authd/internal/ratelimit"
	"github.com/authcore-dev/authd/internal/store/postgres"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = log.With().Str("service", "authd").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.Debug {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}

	ctx := context.Background()

	store, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer store.Close()

	redisClient, err := events.DialRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	bus := events.NewRedisBus(redisClient)

	codec := jwtcodec.New(cfg.JWTSecret, cfg.TokenTTL)
	cache := clientcache.New()
	limiters := ratelimit.NewRegistry()

	handlers := &admin.Handlers{
		Store: store,
		Internal: &authz.Internal{
			Codec:            codec,
			Store:            store,
			InternalClientID: cfg.InternalClientID,
		},
		Root: &authz.Root{Codec: codec, Store: store},
		Basic: &authz.Basic{
			Codec:    codec,
			Store:    store,
			Cache:    cache,
			Limiters: limiters,
		},
		Cache:               cache,
		Publisher:           bus,
		InternalWorkspaceID: cfg.InternalWorkspaceID,
		InternalAPIID:       cfg.InternalAPIID,
	}

	srv := &httpapi.Server{
		Issuer: &issuer.Handler{Store: store, Codec: codec},
		Admin:  handlers,
	}

	// Subscriber loop: evicts clientcache entries on rotation events so
	// Basic.Authorize reloads the bumped version on its next lookup.
	subCtx, cancelSub := context.WithCancel(ctx)
	defer cancelSub()
	go func() {
		if err := bus.Run(subCtx, func(env events.Envelope) {
			cache.Evict(env.Data.ID)
		}); err != nil && subCtx.Err() == nil {
			log.Error().Err(err).Msg("rotation event subscriber stopped unexpectedly")
		}
	}()

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down gracefully...")

	cancelSub()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("server stopped")
}
