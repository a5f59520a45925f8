package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Logger   Logger   `mapstructure:"logger"`
	Cashback Cashback `mapstructure:"cashback"`
	Security Security `mapstructure:"security"`
	Notify   Notify   `mapstructure:"notify"`
}

// Server holds the configuration for the HTTP server.
type Server struct {
	Port           int     `mapstructure:"port"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Cashback holds the accrual parameters.
type Cashback struct {
	RatePerLot float64 `mapstructure:"rate_per_lot"`
}

// Security holds the secrets the service runs with: the static key the VPS
// manager authenticates with, and the passphrase broker credentials are
// encrypted under.
type Security struct {
	VPSAPIKey     string `mapstructure:"vps_api_key"`
	EncryptionKey string `mapstructure:"encryption_key"`
}

// Notify holds the ledger-update webhook configuration. An empty URL disables
// delivery.
type Notify struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.rate_limit", 50) // requests per second
	viper.SetDefault("server.rate_limit_burst", 20)
	viper.SetDefault("cashback.rate_per_lot", 0.50)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
