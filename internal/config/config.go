package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BooksPerPage  = 12
	FeaturedBooks = 6

	devSecretKey = "dev-secret-key-change-in-production"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	SecretKey    []byte
	SessionTTL   time.Duration
	CookieSecure bool
	BcryptCost   int

	DatabaseURL string

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		ServiceName: EnvDefault("SERVICE_NAME", "bookstore"),
		ServerPort:  EnvIntDefault("PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		SecretKey:    []byte(EnvDefault("SECRET_KEY", devSecretKey)),
		SessionTTL:   EnvDurationDefault("SESSION_TTL", 7*24*time.Hour),
		CookieSecure: EnvBoolDefault("COOKIE_SECURE", false),
		BcryptCost:   EnvIntDefault("BCRYPT_COST", 0),

		DatabaseURL: EnvDefault("DATABASE_URL", "sqlite:///bookstore.db"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "books"),
	}

	return cfg
}

// UsesDevSecret reports whether the signing key is the built-in development default.
func (c *Config) UsesDevSecret() bool {
	return string(c.SecretKey) == devSecretKey
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}
