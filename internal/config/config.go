package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	URL string
}

type JWTConfig struct {
	Secret string
}

// CacheConfig controls the membership cache lifecycle.
type CacheConfig struct {
	MembershipTTL time.Duration
	SweepInterval time.Duration
	MaxIdle       time.Duration
}

type Config struct {
	Server ServerConfig
	DB     DatabaseConfig
	Redis  RedisConfig
	JWT    JWTConfig
	Cache  CacheConfig

	// Bound applied to repository calls triggered by a single socket event.
	HandlerTimeout time.Duration
}

// Load reads configuration from .env and the environment with sane defaults.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.SetDefault("CHAT_HOST", "0.0.0.0")
	viper.SetDefault("CHAT_PORT", "8080")
	viper.SetDefault("CHAT_READ_TIMEOUT", "15s")
	viper.SetDefault("CHAT_WRITE_TIMEOUT", "15s")
	viper.SetDefault("CHAT_IDLE_TIMEOUT", "60s")
	viper.SetDefault("CHAT_JWT_SECRET", "secret")
	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", "5432")
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "password")
	viper.SetDefault("POSTGRES_DB", "postgres")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "redis://127.0.0.1:6379/0")
	viper.SetDefault("MEMBERSHIP_TTL", "5m")
	viper.SetDefault("MEMBERSHIP_SWEEP_INTERVAL", "30m")
	viper.SetDefault("MEMBERSHIP_MAX_IDLE", "1h")
	viper.SetDefault("HANDLER_TIMEOUT", "5s")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         viper.GetString("CHAT_HOST"),
			Port:         viper.GetString("CHAT_PORT"),
			ReadTimeout:  viper.GetDuration("CHAT_READ_TIMEOUT"),
			WriteTimeout: viper.GetDuration("CHAT_WRITE_TIMEOUT"),
			IdleTimeout:  viper.GetDuration("CHAT_IDLE_TIMEOUT"),
		},
		DB: DatabaseConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetString("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			Name:     viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Redis: RedisConfig{
			URL: viper.GetString("REDIS_URL"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("CHAT_JWT_SECRET"),
		},
		Cache: CacheConfig{
			MembershipTTL: viper.GetDuration("MEMBERSHIP_TTL"),
			SweepInterval: viper.GetDuration("MEMBERSHIP_SWEEP_INTERVAL"),
			MaxIdle:       viper.GetDuration("MEMBERSHIP_MAX_IDLE"),
		},
		HandlerTimeout: viper.GetDuration("HANDLER_TIMEOUT"),
	}

	return cfg, nil
}

// DSN builds the postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}
