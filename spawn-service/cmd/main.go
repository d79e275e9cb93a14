package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	pkglog "github.com/weiawesome/wes-io-live/pkg/log"
	"github.com/weiawesome/wes-io-live/pkg/pubsub"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/catalog"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/config"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/handler"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/hub"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/ingest"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/mirror"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/queue"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/rules"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize structured logger
	pkglog.Init(cfg.Log)
	logger := pkglog.L()

	logger.Info().
		Str(pkglog.FieldStreamer, cfg.Stream.Username).
		Int64("enemy_threshold", cfg.Stream.EnemyThreshold).
		Int64("boss_threshold", cfg.Stream.BossThreshold).
		Int64("item_threshold", cfg.Stream.ItemThreshold).
		Msg("starting spawn-service")

	// Core: rules -> queue -> broadcaster -> hub
	q := queue.New()
	engine, err := rules.New(rules.Thresholds{
		Enemy: cfg.Stream.EnemyThreshold,
		Boss:  cfg.Stream.BossThreshold,
		Item:  cfg.Stream.ItemThreshold,
	}, catalog.Default(), q, rules.WithMaxComboCount(cfg.Stream.MaxComboCount))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create rule engine")
	}
	listener := ingest.NewListener(engine)

	h := hub.NewHub()

	// Event bus, only when something needs it
	var bus pubsub.PubSub
	if cfg.Ingest.PubSubEnabled || cfg.Mirror.Enabled {
		bus, err = pubsub.NewPubSub(cfg.PubSub)
		if err != nil {
			logger.Fatal().Err(err).Str("driver", cfg.PubSub.Driver).Msg("failed to connect event bus")
		}
		defer bus.Close()
		logger.Info().Str("driver", cfg.PubSub.Driver).Msg("event bus connected")
	}

	var opts []hub.BroadcasterOption
	if cfg.Mirror.Enabled {
		opts = append(opts, hub.WithMirror(mirror.NewPubSubMirror(bus, cfg.Stream.Username)))
	}
	broadcaster := hub.NewBroadcaster(q, h, cfg.Broadcast.Interval, opts...)

	ctx, cancel := context.WithCancel(context.Background())

	broadcastDone := make(chan struct{})
	go func() {
		defer close(broadcastDone)
		broadcaster.Run(ctx)
	}()

	sourceDone := make(chan struct{})
	if cfg.Ingest.PubSubEnabled {
		src := ingest.NewPubSubSource(bus, cfg.Stream.Username)
		go func() {
			defer close(sourceDone)
			if err := src.Run(ctx, listener); err != nil {
				logger.Error().Err(err).Msg("engagement source stopped")
			}
		}()
	} else {
		close(sourceDone)
	}

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	handler.NewHandler(listener, q, h, cfg.Stream).RegisterRoutes(r, cfg.Ingest.HTTPEnabled)
	handler.NewWSHandler(h, cfg.WebSocket).RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("spawn-service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down spawn-service")

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		cancel() // 1. stop engagement source and broadcast loop
		<-sourceDone
		<-broadcastDone

		h.Close() // 2. close all renderer connections

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}
	}()

	select {
	case <-shutdownDone:
		logger.Info().Msg("spawn-service stopped")
	case <-time.After(30 * time.Second):
		logger.Warn().Msg("shutdown timed out after 30s")
	}
}
