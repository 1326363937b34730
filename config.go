package main

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/db"
	"github.com/robalobadob/memory/apps/go-server/internal/deck"
	"github.com/robalobadob/memory/apps/go-server/internal/events"
	"github.com/robalobadob/memory/apps/go-server/internal/httpserver"
)

// config is everything main reads from the environment.
type config struct {
	Port       string
	LogLevel   string
	LogPretty  bool
	DBDriver   string
	DBPath     string // empty runs without a database
	SessionTTL time.Duration
	NATSURL    string
	NATSSubj   string
	HTTP       httpserver.Config
}

func loadConfig() config {
	d, err := deck.ParseDifficulty(getEnv("DEFAULT_DIFFICULTY", string(deck.Medium)))
	if err != nil {
		log.Warn().Str("value", os.Getenv("DEFAULT_DIFFICULTY")).Msg("unknown DEFAULT_DIFFICULTY, using medium")
		d = deck.Medium
	}
	return config{
		Port:       getEnv("PORT", "5175"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogPretty:  getEnv("LOG_PRETTY", "") == "1",
		DBDriver:   getEnv("DB_DRIVER", db.DriverCgo),
		DBPath:     lookupEnv("DB_PATH", "./data/memory.db"),
		SessionTTL: envDuration("SESSION_TTL", 30*time.Minute),
		NATSURL:    os.Getenv("NATS_URL"),
		NATSSubj:   getEnv("NATS_SUBJECT", events.DefaultSubject),
		HTTP: httpserver.Config{
			ClientOrigin:      getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
			JWTSecret:         getEnv("JWT_SECRET", "dev_secret_change_me"),
			JWTExpiresDays:    envInt("JWT_EXPIRES_DAYS", 14),
			CookieName:        getEnv("COOKIE_NAME", "memory_token"),
			Production:        os.Getenv("NODE_ENV") == "production",
			DailySalt:         getEnv("DAILY_SALT", "local_dev_salt"),
			DefaultDifficulty: d,
		},
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// lookupEnv is getEnv, except an explicitly empty value is kept.
func lookupEnv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil && d > 0 {
		return d
	}
	return def
}
