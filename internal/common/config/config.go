package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Gateway       GatewayConfig           `mapstructure:"gateway"`
	Catalog       CatalogConfig           `mapstructure:"catalog"`
	Session       SessionConfig           `mapstructure:"session"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Errors        ErrorsConfig            `mapstructure:"errors"`
	Metrics       MetricsConfig           `mapstructure:"metrics"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	StationID   string `mapstructure:"station_id"`
}

// GatewayConfig points at the registration backend.
type GatewayConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
	UserAgent string `mapstructure:"user_agent"`
}

// CatalogConfig locates the district/block/category enumerations.
// An empty path selects the built-in catalogue.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type SessionConfig struct {
	Backend  string `mapstructure:"backend"` // "redis" or "file"
	FilePath string `mapstructure:"file_path"`
	TTLHours int    `mapstructure:"ttl_hours"`
}

// TTL returns the session lifetime.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLHours) * time.Hour
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// NotificationConfig holds settings for pass delivery.
type NotificationConfig struct {
	SMS struct {
		Enabled     bool   `mapstructure:"enabled"`
		Region      string `mapstructure:"region"`
		SenderID    string `mapstructure:"sender_id"`
		CountryCode string `mapstructure:"country_code"`
	} `mapstructure:"sms"`
}

// ErrorsConfig controls how failures become user-visible messages.
type ErrorsConfig struct {
	MessagePrecedence string `mapstructure:"message_precedence"`
	Fallback          string `mapstructure:"fallback"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
