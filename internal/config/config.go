package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env             string
	HTTPPort        string
	DatabaseURL     string
	RedisAddr       string
	UploadDir       string
	ListDefault     int
	ListMax         int
	CacheTTLSeconds int
	RateLimitPerMin int
}

// Load returns application config populated from environment variables.
// DATABASE_URL has no default: the connection string carries credentials
// and must always come from the environment.
func Load() App {
	if getEnv("APP_ENV", "dev") == "local" {
		if err := godotenv.Load(); err != nil {
			log.Printf("no .env file loaded: %v", err)
		}
	}

	return App{
		Env:             getEnv("APP_ENV", "dev"),
		HTTPPort:        getEnv("PORT", "3000"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
		ListDefault:     intEnv("LIST_PAGE_DEFAULT", 50),
		ListMax:         intEnv("LIST_PAGE_MAX", 200),
		CacheTTLSeconds: intEnv("CACHE_TTL_SECONDS", 60),
		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 120),
	}
}

// Validate reports configuration the server cannot start without.
func (a App) Validate() error {
	if a.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
