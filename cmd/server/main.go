package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/peerline/peerchat/internal/adapters/http"
	"github.com/peerline/peerchat/internal/adapters/ws"
	"github.com/peerline/peerchat/internal/app"
	"github.com/peerline/peerchat/internal/config"
	"github.com/peerline/peerchat/internal/domain"
	"github.com/peerline/peerchat/internal/summary"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	rooms := make([]domain.Room, 0, len(cfg.Rooms))
	for _, rc := range cfg.Rooms {
		rooms = append(rooms, domain.Room{ID: domain.RoomID(rc.ID), Label: rc.Label})
	}

	store := app.NewRoomStore(rooms, cfg.HistoryLimit)
	registry := app.NewRegistry()
	eventRouter := app.NewRouter(registry, store)

	var agent app.Agent
	if cfg.Summary.URL != "" {
		agent = summary.NewClient(cfg.Summary.URL, cfg.Summary.Key, cfg.Summary.Timeout)
		log.Info().Str("url", cfg.Summary.URL).Msg("summary agent configured")
	} else {
		log.Info().Msg("no summary agent configured, running fallback-only")
	}
	summarizer := app.NewSummarizer(store, agent, cfg.Summary.Timeout, cfg.Summary.Window)

	ctrl := ws.NewController(eventRouter, cfg)
	r := router.SetupRouter(ctx, cfg, store, ctrl, summarizer)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Int("rooms", len(rooms)).Msg("Peerchat relay started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
