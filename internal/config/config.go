// internal/config/config.go
//
// Runtime configuration for the Text Snake server.
// Values come from the environment, optionally seeded from a `.env` file
// (a missing file is not an error). Every key has a development default.

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/robalobadob/textsnake/internal/game"
)

type Config struct {
	Port       string
	LogLevel   string
	LogPretty  bool
	DBPath     string
	Production bool

	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	ClientOrigin   string

	DailySalt      string
	SessionIdleTTL time.Duration
	Rules          game.Rules
	GlyphsFile     string
	SnakeText      string
	FoodText       string
}

// Load reads `.env` files (if any) and the environment.
func Load(files ...string) (Config, error) {
	_ = godotenv.Load(files...)

	rules := game.DefaultRules()
	var err error
	if rules.GridSize, err = envInt("GRID_SIZE", rules.GridSize); err != nil {
		return Config{}, err
	}
	if rules.InitialSpeed, err = envInt("INITIAL_SPEED_MS", rules.InitialSpeed); err != nil {
		return Config{}, err
	}
	if rules.GridSize < 2 {
		return Config{}, fmt.Errorf("GRID_SIZE must be at least 2, got %d", rules.GridSize)
	}
	if rules.InitialSpeed < rules.MinSpeed {
		return Config{}, fmt.Errorf("INITIAL_SPEED_MS must be at least %d, got %d", rules.MinSpeed, rules.InitialSpeed)
	}

	days, err := envInt("JWT_EXPIRES_DAYS", 14)
	if err != nil {
		return Config{}, err
	}
	ttl, err := envDuration("SESSION_IDLE_TTL", 10*time.Minute)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Port:           Env("PORT", "5175"),
		LogLevel:       Env("LOG_LEVEL", "info"),
		LogPretty:      os.Getenv("LOG_PRETTY") == "1",
		DBPath:         Env("DB_PATH", "./data/textsnake.db"),
		Production:     os.Getenv("NODE_ENV") == "production",
		JWTSecret:      Env("JWT_SECRET", "dev_secret_change_me"),
		JWTExpiresDays: days,
		CookieName:     Env("COOKIE_NAME", "textsnake_token"),
		ClientOrigin:   Env("CLIENT_ORIGIN", "http://localhost:5173"),
		DailySalt:      Env("DAILY_SALT", "local_dev_salt"),
		SessionIdleTTL: ttl,
		Rules:          rules,
		GlyphsFile:     os.Getenv("GLYPHS_FILE"),
		SnakeText:      os.Getenv("SNAKE_TEXT"),
		FoodText:       os.Getenv("FOOD_TEXT"),
	}, nil
}

// Env returns the value of k or def if unset/empty.
func Env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func envDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}
