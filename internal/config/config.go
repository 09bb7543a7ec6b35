package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/storelane/storelane/internal/types"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Cache      CacheConfig
	Pricing    PricingConfig `validate:"required"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type CacheConfig struct {
	Enabled bool
}

// PricingConfig carries the pricing engine policy knobs.
type PricingConfig struct {
	// PriceTolerance is the maximum allowed difference, in currency units,
	// between a client-submitted amount and the authoritative amount before
	// the submission is rejected as tampered.
	PriceTolerance float64 `mapstructure:"price_tolerance"`
	// StackAutomaticDiscounts controls whether multiple automatic discounts
	// accumulate on the same cart. Automatic discounts are assumed curated
	// by the merchant, so stacking defaults to true.
	StackAutomaticDiscounts bool `mapstructure:"stack_automatic_discounts"`
}

// Tolerance returns the configured price tolerance as a decimal,
// falling back to 0.01 when unset.
func (p PricingConfig) Tolerance() decimal.Decimal {
	if p.PriceTolerance <= 0 {
		return decimal.New(1, -2)
	}
	return decimal.NewFromFloat(p.PriceTolerance)
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/storelane")

	// Set up environment variables support
	v.SetEnvPrefix("STORELANE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	v.SetDefault("pricing.price_tolerance", 0.01)
	v.SetDefault("pricing.stack_automatic_discounts", true)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Pricing: PricingConfig{
			PriceTolerance:          0.01,
			StackAutomaticDiscounts: true,
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
