package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is everything the server reads from the environment. Loading
// happens once at startup; nothing else in the tree touches os.Getenv.
type Config struct {
	Port        string
	DatabaseURL string
	CORSOrigin  string

	// AdminPath is the URL segment the moderation surface lives under.
	AdminPath     string
	AdminUser     string
	AdminPassword string

	PostLimit  int
	PostWindow time.Duration
	VoteLimit  int
	VoteWindow time.Duration

	PurgeThreshold int
	PurgeInterval  time.Duration
}

// Load reads the environment with defaults. Admin credentials have no
// default: the moderation surface fails closed when they are unset.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", "sqlite://confessions.db"),
		CORSOrigin:    getEnv("CORS_ORIGIN", "*"),
		AdminPath:     getEnv("ADMIN_PATH", "admin"),
		AdminUser:     os.Getenv("ADMIN_USER"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	var err error
	if cfg.PostLimit, err = getInt("POST_LIMIT", 2); err != nil {
		return nil, err
	}
	if cfg.PostWindow, err = getDuration("POST_WINDOW", time.Hour); err != nil {
		return nil, err
	}
	if cfg.VoteLimit, err = getInt("VOTE_LIMIT", 15); err != nil {
		return nil, err
	}
	if cfg.VoteWindow, err = getDuration("VOTE_WINDOW", time.Hour); err != nil {
		return nil, err
	}
	if cfg.PurgeThreshold, err = getInt("PURGE_THRESHOLD", -10); err != nil {
		return nil, err
	}
	if cfg.PurgeInterval, err = getDuration("PURGE_INTERVAL", time.Hour); err != nil {
		return nil, err
	}

	if cfg.AdminUser == "" || cfg.AdminPassword == "" {
		return nil, errors.New("ADMIN_USER and ADMIN_PASSWORD must be set")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
