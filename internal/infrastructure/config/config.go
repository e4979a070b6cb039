package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/vetiver-net/vetiver/internal/shared/config"
)

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Auth      sharedConfig.AuthConfig      `mapstructure:"auth"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	NodeAgent sharedConfig.NodeAgentConfig `mapstructure:"node_agent"`
	PanelAPI  sharedConfig.PanelAPIConfig  `mapstructure:"panel_api"`
	Ports     sharedConfig.PortsConfig     `mapstructure:"ports"`
	Billing   sharedConfig.BillingConfig   `mapstructure:"billing"`
	Gateway   sharedConfig.GatewayConfig   `mapstructure:"gateway"`
	Payment   sharedConfig.PaymentConfig   `mapstructure:"payment"`
	Crypto    sharedConfig.CryptoConfig    `mapstructure:"crypto"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("VETIVER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.base_url", "http://localhost:8080")

	// Database defaults
	viper.SetDefault("database.driver", "mysql")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "vetiver_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Auth defaults
	viper.SetDefault("auth.jwt.secret", "change-me-in-production")
	viper.SetDefault("auth.jwt.access_exp_minutes", 15)

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// External client defaults
	viper.SetDefault("node_agent.timeout_seconds", 30)
	viper.SetDefault("panel_api.timeout_seconds", 15)
	viper.SetDefault("panel_api.token_ttl_minutes", 50)

	// Port allocation defaults
	viper.SetDefault("ports.range_start", 20000)
	viper.SetDefault("ports.range_end", 30000)
	viper.SetDefault("ports.reserved", []int{22, 80, 443, 2053, 8080, 8443})

	// Billing defaults
	viper.SetDefault("billing.poll_interval_minutes", 5)
	viper.SetDefault("billing.health_interval_seconds", 60)

	// Gateway defaults
	viper.SetDefault("gateway.timeout_seconds", 20)
	viper.SetDefault("gateway.callback_url", "http://localhost:8080/api/payment/ipn")

	// Payment defaults
	viper.SetDefault("payment.upload_dir", "uploads/receipts")
}
