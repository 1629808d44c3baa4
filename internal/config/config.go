/**
 * @description
 * This package handles the configuration management for the service. It uses
 * the Viper library to read configuration from environment variables (with an
 * optional .env file), providing a centralized way to manage application
 * settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the payments-service.
// Monetary values are minor units (cents/paise).
type Config struct {
	ServerPort           string `mapstructure:"SERVER_PORT"`
	DatabaseURL          string `mapstructure:"DATABASE_URL"`
	RedisURL             string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL          string `mapstructure:"RABBITMQ_URL"`
	PaymentEventExchange string `mapstructure:"PAYMENT_EVENT_EXCHANGE"`

	JWTSecret     string `mapstructure:"JWT_SECRET"`
	TokenTTLHours int    `mapstructure:"TOKEN_TTL_HOURS"`

	WalletSeedSecret string `mapstructure:"PRIVATE_KEY_SEED"`

	INRPerUSD    float64 `mapstructure:"INR_PER_USD"`
	INRTopUpRate float64 `mapstructure:"INR_TOPUP_RATE"`

	InvoiceThresholdUSDCents int64 `mapstructure:"INVOICE_THRESHOLD_USD_CENTS"`
	InvoiceThresholdINRPaise int64 `mapstructure:"INVOICE_THRESHOLD_INR_PAISE"`

	FreeTransferLimit          int `mapstructure:"FREE_TRANSFER_LIMIT"`
	TransferRateLimitPerMinute int `mapstructure:"TRANSFER_RATE_LIMIT_PER_MINUTE"`

	OpeningBalanceCents        int64 `mapstructure:"OPENING_BALANCE_CENTS"`
	PremiumOpeningBalanceCents int64 `mapstructure:"PREMIUM_OPENING_BALANCE_CENTS"`
	AdminOpeningBalanceCents   int64 `mapstructure:"ADMIN_OPENING_BALANCE_CENTS"`

	ReconcileCronSpec    string `mapstructure:"RECONCILE_CRON_SPEC"`
	PendingCutoffMinutes int    `mapstructure:"PENDING_CUTOFF_MINUTES"`
	PairAuditWindowHours int    `mapstructure:"PAIR_AUDIT_WINDOW_HOURS"`
}

// LoadConfig reads configuration from environment variables from the given
// path. It uses Viper to automatically bind environment variables to the
// Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "paylink:rate_limit")
	viper.SetDefault("PAYMENT_EVENT_EXCHANGE", "paylink.events")
	viper.SetDefault("TOKEN_TTL_HOURS", 720) // 30 days, matching the web client's session length
	viper.SetDefault("INR_PER_USD", 83.33)
	viper.SetDefault("INR_TOPUP_RATE", 0.012)
	viper.SetDefault("INVOICE_THRESHOLD_USD_CENTS", 5700)
	viper.SetDefault("INVOICE_THRESHOLD_INR_PAISE", 500000)
	viper.SetDefault("FREE_TRANSFER_LIMIT", 5)
	viper.SetDefault("TRANSFER_RATE_LIMIT_PER_MINUTE", 30)
	viper.SetDefault("OPENING_BALANCE_CENTS", 10000)          // $100 demo balance
	viper.SetDefault("PREMIUM_OPENING_BALANCE_CENTS", 500000) // $5,000
	viper.SetDefault("ADMIN_OPENING_BALANCE_CENTS", 1000000)  // $10,000
	viper.SetDefault("RECONCILE_CRON_SPEC", "@every 5m")
	viper.SetDefault("PENDING_CUTOFF_MINUTES", 15)
	viper.SetDefault("PAIR_AUDIT_WINDOW_HOURS", 24)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("PAYMENT_EVENT_EXCHANGE")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("TOKEN_TTL_HOURS")
	_ = viper.BindEnv("PRIVATE_KEY_SEED")
	_ = viper.BindEnv("INR_PER_USD")
	_ = viper.BindEnv("INR_TOPUP_RATE")
	_ = viper.BindEnv("INVOICE_THRESHOLD_USD_CENTS")
	_ = viper.BindEnv("INVOICE_THRESHOLD_INR_PAISE")
	_ = viper.BindEnv("FREE_TRANSFER_LIMIT")
	_ = viper.BindEnv("TRANSFER_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("OPENING_BALANCE_CENTS")
	_ = viper.BindEnv("PREMIUM_OPENING_BALANCE_CENTS")
	_ = viper.BindEnv("ADMIN_OPENING_BALANCE_CENTS")
	_ = viper.BindEnv("RECONCILE_CRON_SPEC")
	_ = viper.BindEnv("PENDING_CUTOFF_MINUTES")
	_ = viper.BindEnv("PAIR_AUDIT_WINDOW_HOURS")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
		err = nil
	}

	// Unmarshal the configuration into the Config struct.
	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	// Hosting platforms commonly inject PORT; let it win over SERVER_PORT.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}

	if config.INRPerUSD <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive INR_PER_USD; using default\" value=%f", config.INRPerUSD)
		config.INRPerUSD = 83.33
	}
	if config.INRTopUpRate <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive INR_TOPUP_RATE; using default\" value=%f", config.INRTopUpRate)
		config.INRTopUpRate = 0.012
	}
	if config.FreeTransferLimit <= 0 {
		config.FreeTransferLimit = 5
	}
	if config.TransferRateLimitPerMinute < 0 {
		config.TransferRateLimitPerMinute = 0
	}
	if config.InvoiceThresholdUSDCents <= 0 {
		config.InvoiceThresholdUSDCents = 5700
	}
	if config.InvoiceThresholdINRPaise <= 0 {
		config.InvoiceThresholdINRPaise = 500000
	}
	if config.PendingCutoffMinutes <= 0 {
		config.PendingCutoffMinutes = 15
	}
	if config.PairAuditWindowHours <= 0 {
		config.PairAuditWindowHours = 24
	}
	if config.OpeningBalanceCents < 0 {
		config.OpeningBalanceCents = 0
	}

	return
}
