package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds everything the process needs, loaded once at startup.
// Token secrets, expiries and the bcrypt cost are read here and nowhere
// else; business logic never touches the environment directly.
type Config struct {
	ServerPort int
	LogLevel   string

	DatabaseURL string

	AccessSecret   []byte
	RefreshSecret  []byte
	AccessTTLMin   int
	RefreshTTLDays int

	BcryptCost int

	ESURL      string
	ESUser     string
	ESPassword string

	KafkaBrokers []string
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		ServerPort: EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:   EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		AccessSecret:   []byte(os.Getenv("ACCESS_SECRET")),
		RefreshSecret:  []byte(os.Getenv("REFRESH_SECRET")),
		AccessTTLMin:   EnvIntDefault("ACCESS_TTL_MIN", 15),
		RefreshTTLDays: EnvIntDefault("REFRESH_TTL_DAYS", 7),

		BcryptCost: EnvIntDefault("BCRYPT_COST", bcrypt.DefaultCost),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
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
