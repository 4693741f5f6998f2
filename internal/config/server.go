package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// ServerConfig configures the reference backend (todo-devserver).
type ServerConfig struct {
	HTTPPort      string        `env:"HTTP_PORT" envDefault:"8000"`
	JWTSecret     string        `env:"JWT_SECRET,required"`
	JWTTTL        time.Duration `env:"JWT_TTL" envDefault:"30m"`
	CookieName    string        `env:"COOKIE_NAME" envDefault:"access_token"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
}

// LoadServerConfig reads the backend configuration from environment variables.
func LoadServerConfig() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
