package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	BaseURL        string   `mapstructure:"base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// ServiceAPIKey authenticates service-to-service calls such as usage
	// report ingestion.
	ServiceAPIKey string `mapstructure:"service_api_key"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	// Driver selects the storage backend: "mysql" for production, "sqlite"
	// for development and tests.
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	AccessExpMinutes int    `mapstructure:"access_exp_minutes"`
}

type AuthConfig struct {
	JWT JWTConfig `mapstructure:"jwt"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type NodeAgentConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

func (n *NodeAgentConfig) Timeout() time.Duration {
	return time.Duration(n.TimeoutSeconds) * time.Second
}

type PanelAPIConfig struct {
	TimeoutSeconds  int `mapstructure:"timeout_seconds"`
	TokenTTLMinutes int `mapstructure:"token_ttl_minutes"`
}

func (p *PanelAPIConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func (p *PanelAPIConfig) TokenTTL() time.Duration {
	return time.Duration(p.TokenTTLMinutes) * time.Minute
}

type PortsConfig struct {
	RangeStart int   `mapstructure:"range_start"`
	RangeEnd   int   `mapstructure:"range_end"`
	Reserved   []int `mapstructure:"reserved"`
}

type BillingConfig struct {
	PollIntervalMinutes   int `mapstructure:"poll_interval_minutes"`
	HealthIntervalSeconds int `mapstructure:"health_interval_seconds"`
}

func (b *BillingConfig) PollInterval() time.Duration {
	return time.Duration(b.PollIntervalMinutes) * time.Minute
}

func (b *BillingConfig) HealthInterval() time.Duration {
	return time.Duration(b.HealthIntervalSeconds) * time.Second
}

type GatewayConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	CallbackURL    string `mapstructure:"callback_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (g *GatewayConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

type PaymentConfig struct {
	UploadDir string `mapstructure:"upload_dir"`
}

type CryptoConfig struct {
	// CredentialKey is the hex-encoded 32-byte key used to seal panel
	// credentials at rest.
	CredentialKey string `mapstructure:"credential_key"`
}
