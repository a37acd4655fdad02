package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

type Config struct {
	Port              int
	DatabaseURL       string
	DatabaseType      string
	HeartbeatInterval time.Duration
	WriteTimeout      time.Duration
	MaxMalformed      int
	AllowedOrigins    []string
	LogLevel          slog.Level
}

// ParseFlags loads .env, then parses flags with environment fallback
func ParseFlags(args []string) (Config, error) {
	// A missing .env is normal outside development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	var heartbeat, writeTimeout, origins, logLevel string

	fs := flag.NewFlagSet("quickpoll", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Live connection tuning
	fs.StringVar(&heartbeat, "heartbeat", "", "Idle time before a heartbeat is sent (e.g. 30s)")
	fs.StringVar(&writeTimeout, "write-timeout", "", "Per-frame websocket write deadline (e.g. 10s)")
	fs.IntVar(&cfg.MaxMalformed, "max-malformed", 0, "Consecutive malformed frames tolerated before closing")
	fs.StringVar(&origins, "origins", "", "Comma-separated allowed origins, * for any")
	fs.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 8000 // default
		}
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("port %d out of range", cfg.Port)
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = DatabaseSQLite
		}
	}
	if cfg.DatabaseType != DatabaseSQLite && cfg.DatabaseType != DatabasePostgres {
		return Config{}, fmt.Errorf("unknown database type %q (use sqlite or postgres)", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == DatabasePostgres {
			return Config{}, errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = "quickpoll.db"
	}

	var err error
	if cfg.HeartbeatInterval, err = durationSetting(heartbeat, "HEARTBEAT_INTERVAL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = durationSetting(writeTimeout, "WRITE_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.MaxMalformed == 0 {
		if s := os.Getenv("MAX_MALFORMED"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return Config{}, errors.New("invalid MAX_MALFORMED env variable")
			}
			cfg.MaxMalformed = n
		} else {
			cfg.MaxMalformed = 3
		}
	}
	if cfg.MaxMalformed < 1 {
		return Config{}, errors.New("max malformed must be at least 1")
	}

	if origins == "" {
		origins = os.Getenv("ALLOWED_ORIGINS")
	}
	cfg.AllowedOrigins = splitList(origins)
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
	}
	if logLevel != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
			return Config{}, fmt.Errorf("invalid log level %q", logLevel)
		}
	}

	return cfg, nil
}

// durationSetting resolves flag value, then env, then fallback. Must be positive.
func durationSetting(flagValue, envKey string, fallback time.Duration) (time.Duration, error) {
	s := flagValue
	if s == "" {
		s = os.Getenv(envKey)
	}
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", envKey, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", envKey)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// OriginAllowed reports whether origin is in the allow list ("*" matches anything)
func (c Config) OriginAllowed(origin string) bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}
