package configs

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	BackendURL     string
	BackendTimeout time.Duration
	ProviderSecret string
	ProviderIssuer string

	StoreDriver string // sqlite | redis
	DBSource    string
	RedisURL    string
	StoreTTL    time.Duration

	SettleDelay       time.Duration
	ConfirmResetDelay time.Duration
	ClientIdleTTL     time.Duration

	DeliveryPointsFile string
	CORSOrigins        []string
	CookieSecure       bool

	LogFormat   string // json | text
	TraceStdout bool
}

// LoadConfig reads .env when present and falls back to defaults for anything unset.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env", "error", err)
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		BackendURL:         strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8000/api"), "/"),
		BackendTimeout:     getDuration("BACKEND_TIMEOUT", 15*time.Second),
		ProviderSecret:     getEnv("PROVIDER_SECRET", "changeme"),
		ProviderIssuer:     os.Getenv("PROVIDER_ISSUER"),
		StoreDriver:        getEnv("STORE_DRIVER", "sqlite"),
		DBSource:           getEnv("DB_SOURCE", "clients.db"),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/2"),
		StoreTTL:           getDuration("STORE_TTL", 30*24*time.Hour),
		SettleDelay:        getDuration("SETTLE_DELAY", 1500*time.Millisecond),
		ConfirmResetDelay:  getDuration("CONFIRM_RESET_DELAY", 5*time.Second),
		ClientIdleTTL:      getDuration("CLIENT_IDLE_TTL", 2*time.Hour),
		DeliveryPointsFile: os.Getenv("DELIVERY_POINTS_FILE"),
		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		CookieSecure:       getBool("COOKIE_SECURE", false),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		TraceStdout:        getBool("TRACE_STDOUT", false),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
