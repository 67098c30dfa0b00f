package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Bridge     BridgeConfig     `mapstructure:"bridge"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// BridgeConfig contains bridge engine settings
type BridgeConfig struct {
	// SourceNetwork and TargetNetwork identify the two ledgers this
	// deployment bridges between.
	SourceNetwork string `mapstructure:"source_network"`
	TargetNetwork string `mapstructure:"target_network"`

	// AdminID is the identity allowed to call admin operations.
	AdminID string `mapstructure:"admin_id"`

	// ValidatorThreshold seeds the quorum requirement on first start; after
	// bootstrap the stored value is authoritative.
	ValidatorThreshold int      `mapstructure:"validator_threshold"`
	Validators         []string `mapstructure:"validators"`

	// MaxTransferAmount is a hard cap on a single transfer, in token base
	// units. Empty means uncapped.
	MaxTransferAmount string `mapstructure:"max_transfer_amount"`

	Cooldown         time.Duration `mapstructure:"cooldown"`
	TimelockDuration time.Duration `mapstructure:"timelock_duration"`
	LivenessTimeout  time.Duration `mapstructure:"liveness_timeout"`
}

// MonitoringConfig contains monitoring and metrics settings
type MonitoringConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "bridge")

	// Bridge defaults
	viper.SetDefault("bridge.validator_threshold", 2)
	viper.SetDefault("bridge.cooldown", "1m")
	viper.SetDefault("bridge.timelock_duration", "24h")
	viper.SetDefault("bridge.liveness_timeout", "1h")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_port", 9090)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")
}

func validate(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Bridge.SourceNetwork == "" {
		return fmt.Errorf("bridge.source_network is required")
	}
	if config.Bridge.TargetNetwork == "" {
		return fmt.Errorf("bridge.target_network is required")
	}
	if config.Bridge.AdminID == "" {
		return fmt.Errorf("bridge.admin_id is required")
	}
	if config.Bridge.ValidatorThreshold < 1 {
		return fmt.Errorf("bridge.validator_threshold must be at least 1")
	}
	return nil
}

// GetConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
