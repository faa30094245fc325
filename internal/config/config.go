package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for the lending engine
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Mpesa    MpesaConfig    `mapstructure:"mpesa"`
	SMS      SMSConfig      `mapstructure:"sms"`
	Risk     RiskConfig     `mapstructure:"risk"`
	Business BusinessConfig `mapstructure:"business"`
	Sweeper  SweeperConfig  `mapstructure:"sweeper"`
	Health   HealthConfig   `mapstructure:"health"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

// MpesaConfig carries the Daraja STK push credentials. All five
// credential fields must be present for the real gateway path;
// otherwise initiation runs in demo mode.
type MpesaConfig struct {
	ConsumerKey    string `mapstructure:"MPESA_CONSUMER_KEY"`
	ConsumerSecret string `mapstructure:"MPESA_CONSUMER_SECRET"`
	Shortcode      string `mapstructure:"MPESA_SHORTCODE"`
	Passkey        string `mapstructure:"MPESA_PASSKEY"`
	CallbackURL    string `mapstructure:"MPESA_CALLBACK_URL"`
	BaseURL        string `mapstructure:"MPESA_BASE_URL"`
}

type SMSConfig struct {
	URL    string `mapstructure:"SMS_GATEWAY_URL"`
	APIKey string `mapstructure:"SMS_API_KEY"`
	Sender string `mapstructure:"SMS_SENDER_ID"`
}

type RiskConfig struct {
	URL     string        `mapstructure:"RISK_GATEWAY_URL"`
	APIKey  string        `mapstructure:"RISK_API_KEY"`
	Timeout time.Duration `mapstructure:"RISK_TIMEOUT"`
}

type BusinessConfig struct {
	CountryCode       string `mapstructure:"COUNTRY_CODE"`
	FlatInterestRate  string `mapstructure:"FLAT_INTEREST_RATE"`
	RepaymentTermDays int    `mapstructure:"REPAYMENT_TERM_DAYS"`
	DemoCompleteDelay string `mapstructure:"DEMO_COMPLETE_DELAY"`
}

type SweeperConfig struct {
	Schedule string `mapstructure:"SWEEPER_SCHEDULE"`
	Timezone string `mapstructure:"SWEEPER_TIMEZONE"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVER_READ_TIMEOUT", "15s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DATABASE_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke")
	viper.SetDefault("RISK_TIMEOUT", "30s")
	viper.SetDefault("COUNTRY_CODE", "254")
	viper.SetDefault("FLAT_INTEREST_RATE", "0.10")
	viper.SetDefault("REPAYMENT_TERM_DAYS", 7)
	viper.SetDefault("DEMO_COMPLETE_DELAY", "5s")
	viper.SetDefault("SWEEPER_SCHEDULE", "0 0 * * * *")
	viper.SetDefault("SWEEPER_TIMEZONE", "Africa/Nairobi")
	viper.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Business.CountryCode == "" {
		return fmt.Errorf("COUNTRY_CODE is required")
	}

	if c.Business.RepaymentTermDays <= 0 {
		return fmt.Errorf("REPAYMENT_TERM_DAYS must be greater than 0")
	}

	if _, err := decimal.NewFromString(c.Business.FlatInterestRate); err != nil {
		return fmt.Errorf("FLAT_INTEREST_RATE must be a valid decimal: %w", err)
	}

	if _, err := time.ParseDuration(c.Business.DemoCompleteDelay); err != nil {
		return fmt.Errorf("DEMO_COMPLETE_DELAY must be a valid duration: %w", err)
	}

	if _, err := time.ParseDuration(c.Health.Timeout); err != nil {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be a valid duration: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GatewayConfigured reports whether every credential the STK push flow
// needs is present. A partial credential set is treated the same as none.
func (c *Config) GatewayConfigured() bool {
	m := c.Mpesa
	return m.ConsumerKey != "" && m.ConsumerSecret != "" &&
		m.Shortcode != "" && m.Passkey != "" && m.CallbackURL != ""
}

// GetFlatInterestRate returns the flat interest rate as decimal
func (c *Config) GetFlatInterestRate() decimal.Decimal {
	rate, _ := decimal.NewFromString(c.Business.FlatInterestRate)
	return rate
}

// GetDemoCompleteDelay returns the demo auto-completion delay as duration
func (c *Config) GetDemoCompleteDelay() time.Duration {
	delay, _ := time.ParseDuration(c.Business.DemoCompleteDelay)
	return delay
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}
