package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	OTP      OTPConfig      `mapstructure:"otp"`
	SMS      SMSConfig      `mapstructure:"sms"`
	Session  SessionConfig  `mapstructure:"session"`
	Booking  BookingConfig  `mapstructure:"booking"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// OTPConfig controls one-time code issuance.
type OTPConfig struct {
	TTL         time.Duration `mapstructure:"ttl"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Store       string        `mapstructure:"store"` // memory, redis
}

// SMSConfig holds credentials for both delivery providers.
// A provider with an incomplete credential pair is simply disabled.
type SMSConfig struct {
	Timeout  time.Duration     `mapstructure:"timeout"`
	Primary  PrimarySMSConfig  `mapstructure:"primary"`
	Fallback FallbackSMSConfig `mapstructure:"fallback"`
}

// PrimarySMSConfig configures the Africa's Talking style gateway.
type PrimarySMSConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Username string `mapstructure:"username"`
	SenderID string `mapstructure:"sender_id"`
	BaseURL  string `mapstructure:"base_url"`
}

// Configured reports whether both the API key and username are present.
func (p PrimarySMSConfig) Configured() bool {
	return p.APIKey != "" && p.Username != ""
}

// FallbackSMSConfig configures the Twilio style gateway.
type FallbackSMSConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	FromNumber string `mapstructure:"from_number"`
	BaseURL    string `mapstructure:"base_url"`
}

// Configured reports whether the account SID and auth token are present.
func (f FallbackSMSConfig) Configured() bool {
	return f.AccountSID != "" && f.AuthToken != ""
}

type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	AddressSecret string        `mapstructure:"address_secret"` // HMAC key for wallet address derivation
}

type BookingConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: RPG_ (RailPass Gateway).
// Nested keys use underscore: RPG_DATABASE_HOST, RPG_SMS_PRIMARY_API_KEY, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "railpass")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "720h")
	v.SetDefault("jwt.issuer", "railpass-gateway")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("otp.ttl", "10m")
	v.SetDefault("otp.max_attempts", 3)
	v.SetDefault("otp.store", "memory")
	v.SetDefault("sms.timeout", "10s")
	v.SetDefault("sms.primary.api_key", "")
	v.SetDefault("sms.primary.username", "")
	v.SetDefault("sms.primary.sender_id", "")
	v.SetDefault("sms.primary.base_url", "https://api.africastalking.com")
	v.SetDefault("sms.fallback.account_sid", "")
	v.SetDefault("sms.fallback.auth_token", "")
	v.SetDefault("sms.fallback.from_number", "")
	v.SetDefault("sms.fallback.base_url", "https://api.twilio.com")
	v.SetDefault("session.ttl", "720h")
	v.SetDefault("session.address_secret", "")
	v.SetDefault("booking.base_url", "http://localhost:9090")
	v.SetDefault("booking.api_key", "")
	v.SetDefault("booking.timeout", "15s")
	v.SetDefault("booking.lock_ttl", "30s")

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: RPG_SMS_PRIMARY_API_KEY -> sms.primary.api_key
	v.SetEnvPrefix("RPG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required; env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.OTP.TTL <= 0 {
		return fmt.Errorf("config: otp.ttl must be positive")
	}
	if c.OTP.MaxAttempts < 1 {
		return fmt.Errorf("config: otp.max_attempts must be at least 1")
	}
	switch c.OTP.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: otp.store must be memory or redis, got %q", c.OTP.Store)
	}
	return nil
}
