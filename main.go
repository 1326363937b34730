package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/assets"
	"github.com/robalobadob/memory/apps/go-server/internal/db"
	"github.com/robalobadob/memory/apps/go-server/internal/events"
	"github.com/robalobadob/memory/apps/go-server/internal/httpserver"
	"github.com/robalobadob/memory/apps/go-server/internal/store"
	"github.com/robalobadob/memory/apps/go-server/internal/symbols"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()

	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	if err := symbols.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load symbols")
	}
	cfg.HTTP.Symbols = symbols.All()
	help, err := assets.HelpText()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load help text")
	}
	cfg.HTTP.Help = help

	conn := openDB(cfg)
	if conn != nil {
		defer conn.Close()
	}

	var pub events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		n, err := events.Connect(cfg.NATSURL, cfg.NATSSubj)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.NATSURL).Msg("nats unavailable, events disabled")
		} else {
			pub = n
		}
	}
	defer pub.Close()
	cfg.HTTP.Publisher = pub

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mem := store.NewMemoryStore()
	go store.RunSweeper(ctx, mem, cfg.SessionTTL, time.Minute)

	srv := httpserver.New(cfg.HTTP, mem, conn)
	go func() {
		log.Info().Str("port", cfg.Port).Int("symbols", len(cfg.HTTP.Symbols)).Msg("starting memory go-server")
		if err := srv.Start(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

// openDB opens and migrates the database, or returns nil when DB_PATH is empty.
func openDB(cfg config) *sql.DB {
	if cfg.DBPath == "" {
		log.Warn().Msg("DB_PATH empty: running without accounts, daily mode or history")
		return nil
	}
	conn, err := db.Open(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Str("path", cfg.DBPath).Msg("open db")
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatal().Err(err).Msg("migrate db")
	}
	return conn
}
