package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Reminder ReminderConfig `mapstructure:"reminder"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// AllowedOrigins is the CORS and WebSocket origin allow-list.
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"dive,required"`
}

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	Driver                 string `mapstructure:"driver" validate:"required,oneof=postgres memory"`
	URL                    string `mapstructure:"url" validate:"required_if=Driver postgres,omitempty,url"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=1"`
}

// ConnMaxLifetime returns the pool connection lifetime.
func (d DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(d.ConnMaxLifetimeMinutes) * time.Minute
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	BcryptCost           int    `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
}

// TokenLifetime returns how long issued tokens remain valid.
func (a AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(a.TokenLifetimeMinutes) * time.Minute
}

// RedisConfig configures the optional Redis connection. Idempotent task
// creation is enabled only when URL is set.
type RedisConfig struct {
	URL                   string `mapstructure:"url" validate:"omitempty,url"`
	IdempotencyTTLMinutes int    `mapstructure:"idempotency_ttl_minutes" validate:"gt=0"`
}

// IdempotencyTTL returns how long an Idempotency-Key is remembered.
func (r RedisConfig) IdempotencyTTL() time.Duration {
	return time.Duration(r.IdempotencyTTLMinutes) * time.Minute
}

// NotifyConfig tunes the real-time notification hub.
type NotifyConfig struct {
	SessionBuffer int `mapstructure:"session_buffer" validate:"gt=0"`
}

// ReminderConfig controls the periodic overdue-task sweep.
type ReminderConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required"`
}
