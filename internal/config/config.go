package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"require"`

	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`

	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	AccessTokenMaxAge  int `env:"ACCESS_TOKEN_MAX_AGE" envDefault:"900"`
	RefreshTokenMaxAge int `env:"REFRESH_TOKEN_MAX_AGE" envDefault:"2592000"`

	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `env:"R2_BUCKET_NAME"`
	R2PublicURL       string `env:"R2_PUBLIC_URL"`

	DefaultProfileImageURL string `env:"DEFAULT_PROFILE_IMAGE_URL"`
	DefaultProfileImageKey string `env:"DEFAULT_PROFILE_IMAGE_KEY"`

	// Empty disables the notification stream; deliveries are then skipped.
	RedisURL    string `env:"REDIS_URL"`
	WorkerCount int    `env:"WORKER_COUNT" envDefault:"2"`
	PushEnabled bool   `env:"PUSH_ENABLED" envDefault:"true"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.AccessTokenMaxAge <= 0 {
		cfg.AccessTokenMaxAge = 900
	}
	if cfg.RefreshTokenMaxAge <= 0 {
		cfg.RefreshTokenMaxAge = 2592000
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	for i, o := range cfg.CORSAllowedOrigins {
		cfg.CORSAllowedOrigins[i] = strings.TrimSpace(o)
	}

	return &cfg, nil
}

// DSN returns the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}
