package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sujalbistaa/confessly/internal/config"
	"github.com/sujalbistaa/confessly/internal/confession"
	"github.com/sujalbistaa/confessly/internal/db"
	routes "github.com/sujalbistaa/confessly/internal/http"
	"github.com/sujalbistaa/confessly/internal/store"
	"github.com/sujalbistaa/confessly/internal/sweep"
	"github.com/sujalbistaa/confessly/internal/ws"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// A .env file is optional; in production the variables are set
	// directly on the environment.
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	gdb, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	if err := store.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	svc := confession.NewService(store.New(gdb))

	hub := ws.NewHub()
	go hub.Run()

	sweeper := sweep.New(svc, hub, cfg.PurgeThreshold, cfg.PurgeInterval)
	if err := sweeper.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start sweep")
	}

	router := gin.New()
	router.LoadHTMLGlob("web/templates/*.html")
	routes.SetupRoutes(router, svc, hub, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	<-quit
	log.Info().Msg("shutting down")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server exiting")
}
