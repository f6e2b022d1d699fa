/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the quote-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort               string  `mapstructure:"SERVER_PORT"`
	DatabaseURL              string  `mapstructure:"DATABASE_URL"`
	RedisURL                 string  `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix     string  `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL              string  `mapstructure:"RABBITMQ_URL"`
	LeadEventExchange        string  `mapstructure:"LEAD_EVENT_EXCHANGE"`
	AdminJWTSecret           string  `mapstructure:"ADMIN_JWT_SECRET"`
	AdminTokenTTLMinutes     int     `mapstructure:"ADMIN_TOKEN_TTL_MINUTES"`
	QuoteRateLimitPerMinute  int     `mapstructure:"QUOTE_RATE_LIMIT_PER_MINUTE"`
	LeadRateLimitPerMinute   int     `mapstructure:"LEAD_RATE_LIMIT_PER_MINUTE"`
	FallbackExchangeRate     float64 `mapstructure:"FALLBACK_EXCHANGE_RATE"`
	DefaultServiceFeePercent float64 `mapstructure:"DEFAULT_SERVICE_FEE_PERCENT"`
	DefaultShippingRateVND   float64 `mapstructure:"DEFAULT_SHIPPING_RATE_VND"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
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
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "quote:rate_limit")
	viper.SetDefault("LEAD_EVENT_EXCHANGE", "quote.events")
	viper.SetDefault("ADMIN_TOKEN_TTL_MINUTES", 720)
	viper.SetDefault("QUOTE_RATE_LIMIT_PER_MINUTE", 120)
	viper.SetDefault("LEAD_RATE_LIMIT_PER_MINUTE", 10)
	viper.SetDefault("FALLBACK_EXCHANGE_RATE", 3960.0)
	viper.SetDefault("DEFAULT_SERVICE_FEE_PERCENT", 3.0)
	viper.SetDefault("DEFAULT_SHIPPING_RATE_VND", 30000.0)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "QUOTE_REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("LEAD_EVENT_EXCHANGE")
	_ = viper.BindEnv("ADMIN_JWT_SECRET", "ADMIN_JWT_SECRET", "QUOTE_SERVICE_ADMIN_JWT_SECRET")
	_ = viper.BindEnv("ADMIN_TOKEN_TTL_MINUTES")
	_ = viper.BindEnv("QUOTE_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("LEAD_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("FALLBACK_EXCHANGE_RATE")
	_ = viper.BindEnv("EXCHANGE_RATE_CNY_VND")
	_ = viper.BindEnv("DEFAULT_SERVICE_FEE_PERCENT")
	_ = viper.BindEnv("DEFAULT_SHIPPING_RATE_VND")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "quote:rate_limit"
	}
	config.LeadEventExchange = strings.TrimSpace(config.LeadEventExchange)
	if config.LeadEventExchange == "" {
		config.LeadEventExchange = "quote.events"
	}
	config.AdminJWTSecret = strings.TrimSpace(config.AdminJWTSecret)

	// Allow specifying the bootstrap exchange rate via EXCHANGE_RATE_CNY_VND.
	if viper.IsSet("EXCHANGE_RATE_CNY_VND") {
		rateStr := strings.TrimSpace(viper.GetString("EXCHANGE_RATE_CNY_VND"))
		if rateStr != "" {
			rateValue, parseErr := strconv.ParseFloat(rateStr, 64)
			if parseErr != nil {
				log.Printf("level=warn component=config msg=\"invalid EXCHANGE_RATE_CNY_VND\" value=%q err=%v", rateStr, parseErr)
			} else {
				config.FallbackExchangeRate = rateValue
			}
		}
	}

	if config.FallbackExchangeRate <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive fallback exchange rate configured; using 3960\" rate=%f", config.FallbackExchangeRate)
		config.FallbackExchangeRate = 3960
	}
	if config.DefaultServiceFeePercent < 0 {
		log.Printf("level=warn component=config msg=\"negative default service fee percent configured; coercing to zero\" fee_percent=%f", config.DefaultServiceFeePercent)
		config.DefaultServiceFeePercent = 0
	}
	if config.DefaultServiceFeePercent > 100 {
		log.Printf("level=warn component=config msg=\"default service fee percent too high; capping at 100\" fee_percent=%f", config.DefaultServiceFeePercent)
		config.DefaultServiceFeePercent = 100
	}
	if config.DefaultShippingRateVND <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive default shipping rate configured; using 30000\" rate_vnd=%f", config.DefaultShippingRateVND)
		config.DefaultShippingRateVND = 30000
	}

	if config.AdminTokenTTLMinutes <= 0 {
		config.AdminTokenTTLMinutes = 720
	}
	if config.QuoteRateLimitPerMinute <= 0 {
		config.QuoteRateLimitPerMinute = 120
	}
	if config.LeadRateLimitPerMinute <= 0 {
		config.LeadRateLimitPerMinute = 10
	}

	return
}
