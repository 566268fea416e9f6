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
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the borrowing-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort            string `mapstructure:"SERVER_PORT"`
	DatabaseURL           string `mapstructure:"DATABASE_URL"`
	RedisURL              string `mapstructure:"REDIS_URL"`
	RedisTitlePrefix      string `mapstructure:"REDIS_TITLE_PREFIX"`
	RabbitMQURL           string `mapstructure:"RABBITMQ_URL"`
	NotificationExchange  string `mapstructure:"NOTIFICATION_EXCHANGE"`
	CatalogServiceURL     string `mapstructure:"CATALOG_SERVICE_URL"`
	DirectoryServiceURL   string `mapstructure:"DIRECTORY_SERVICE_URL"`
	LoanPeriodDays        int    `mapstructure:"LOAN_PERIOD_DAYS"`
	GatewayTimeoutMs      int    `mapstructure:"GATEWAY_TIMEOUT_MS"`
	TitleCacheTTLMinutes  int    `mapstructure:"TITLE_CACHE_TTL_MINUTES"`
	AllBorrowsMaxPageSize int    `mapstructure:"ALL_BORROWS_MAX_PAGE_SIZE"`
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
	viper.SetDefault("SERVER_PORT", "8084")
	viper.SetDefault("NOTIFICATION_EXCHANGE", "library.events")
	viper.SetDefault("REDIS_TITLE_PREFIX", "borrowing:title")
	viper.SetDefault("LOAN_PERIOD_DAYS", 14)
	viper.SetDefault("GATEWAY_TIMEOUT_MS", 3000)
	viper.SetDefault("TITLE_CACHE_TTL_MINUTES", 60)
	viper.SetDefault("ALL_BORROWS_MAX_PAGE_SIZE", 200)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "BORROWING_REDIS_URL")
	_ = viper.BindEnv("REDIS_TITLE_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("NOTIFICATION_EXCHANGE")
	_ = viper.BindEnv("CATALOG_SERVICE_URL")
	_ = viper.BindEnv("DIRECTORY_SERVICE_URL")
	_ = viper.BindEnv("LOAN_PERIOD_DAYS")
	_ = viper.BindEnv("GATEWAY_TIMEOUT_MS")
	_ = viper.BindEnv("TITLE_CACHE_TTL_MINUTES")
	_ = viper.BindEnv("ALL_BORROWS_MAX_PAGE_SIZE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
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
	config.RedisTitlePrefix = strings.TrimSpace(config.RedisTitlePrefix)
	if config.RedisTitlePrefix == "" {
		config.RedisTitlePrefix = "borrowing:title"
	}
	config.NotificationExchange = strings.TrimSpace(config.NotificationExchange)
	if config.NotificationExchange == "" {
		config.NotificationExchange = "library.events"
	}

	if config.LoanPeriodDays <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive loan period configured; using default\" loan_period_days=%d", config.LoanPeriodDays)
		config.LoanPeriodDays = 14
	}
	if config.GatewayTimeoutMs <= 0 {
		config.GatewayTimeoutMs = 3000
	}
	if config.TitleCacheTTLMinutes <= 0 {
		config.TitleCacheTTLMinutes = 60
	}
	if config.AllBorrowsMaxPageSize <= 0 {
		config.AllBorrowsMaxPageSize = 200
	}

	return
}
