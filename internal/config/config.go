package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int
	PublicURL   string

	DatabaseURL string

	JWTSecret     []byte
	RefreshSecret []byte

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string

	StripeSecretKey string
	StripeBaseURL   string

	LogLevel string
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		ServiceName: EnvDefault("SERVICE_NAME", "shopfront"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		PublicURL:   EnvDefault("PUBLIC_URL", "http://localhost:8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		RefreshSecret: []byte(os.Getenv("REFRESH_SECRET")),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),

		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		StripeBaseURL:   EnvDefault("STRIPE_BASE_URL", "https://api.stripe.com"),

		LogLevel: EnvDefault("LOG_LEVEL", "info"),
	}

	return cfg, nil
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
	if os.Getenv(key) != "" {
		return os.Getenv(key)
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

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}
