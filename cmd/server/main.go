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

	router "github.com/dkeye/devcircle/internal/adapters/http"
	"github.com/dkeye/devcircle/internal/app"
	"github.com/dkeye/devcircle/internal/auth"
	"github.com/dkeye/devcircle/internal/config"
	"github.com/dkeye/devcircle/internal/search"
	"github.com/dkeye/devcircle/internal/service"
	"github.com/dkeye/devcircle/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.Mode == "release" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("close store")
		}
	}()
	store := storage.NewStore(db)

	index, err := search.Open(cfg.SearchPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open search index")
	}
	defer func() {
		if err := index.Close(); err != nil {
			log.Error().Err(err).Msg("close search index")
		}
	}()
	if err := reindex(store, index); err != nil {
		log.Fatal().Err(err).Msg("failed to build search index")
	}

	policy, err := app.PolicyFromName(cfg.Relay.SlowConsumer)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid relay policy")
	}
	relay := app.NewRelay(policy)

	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	deps := router.Deps{
		Store:  store,
		Index:  index,
		Users:  service.NewUserService(store.Users, tokens),
		Tokens: tokens,
		Relay:  relay,
	}

	r := router.SetupRouter(ctx, cfg, deps)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("devcircle server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
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

// reindex loads every directory listing into the search index.
func reindex(store *storage.Store, index *search.Index) error {
	apis, err := store.APIs.List(nil)
	if err != nil {
		return err
	}
	if err := search.Rebuild(index, store.APIs.Name(), apis); err != nil {
		return err
	}
	tools, err := store.Tools.List(nil)
	if err != nil {
		return err
	}
	if err := search.Rebuild(index, store.Tools.Name(), tools); err != nil {
		return err
	}
	topics, err := store.Topics.List(nil)
	if err != nil {
		return err
	}
	if err := search.Rebuild(index, store.Topics.Name(), topics); err != nil {
		return err
	}
	roadmaps, err := store.Roadmaps.List(nil)
	if err != nil {
		return err
	}
	return search.Rebuild(index, store.Roadmaps.Name(), roadmaps)
}
