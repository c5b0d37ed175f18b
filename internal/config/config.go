package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Intake     IntakeConfig     `mapstructure:"intake"`
	OCR        OCRConfig        `mapstructure:"ocr"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Approval   ApprovalConfig   `mapstructure:"approval"`
	Claims     ClaimsConfig     `mapstructure:"claims"`
	Events     EventsConfig     `mapstructure:"events"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// IntakeConfig holds email intake configuration
type IntakeConfig struct {
	Secret      string `mapstructure:"secret"`
	MailboxDir  string `mapstructure:"mailbox_dir"`
	HoldingDir  string `mapstructure:"holding_dir"`
	DocumentDir string `mapstructure:"document_dir"`
}

// OCRConfig holds document recognition configuration
type OCRConfig struct {
	MaxWorkers int `mapstructure:"max_workers"`
}

// ExtractionConfig holds field extraction configuration
type ExtractionConfig struct {
	// OpenAIAPIKey enables the assisted second pass; empty disables it
	OpenAIAPIKey string  `mapstructure:"openai_api_key"`
	OpenAIModel  string  `mapstructure:"openai_model"`
	AIThreshold  float64 `mapstructure:"ai_threshold"`
}

// ApprovalConfig holds participant approval configuration
type ApprovalConfig struct {
	TokenSecret string        `mapstructure:"token_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	BaseURL     string        `mapstructure:"base_url"`

	// SweepInterval is how often expired approvals are swept back to review
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// ClaimsConfig holds claim batching configuration
type ClaimsConfig struct {
	ExportDir string `mapstructure:"export_dir"`
}

// EventsConfig holds outbox relay configuration
type EventsConfig struct {
	NATSURL       string        `mapstructure:"nats_url"`
	SubjectPrefix string        `mapstructure:"subject_prefix"`
	RelayInterval time.Duration `mapstructure:"relay_interval"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
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

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("database.path", "data/claims.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	viper.SetDefault("intake.mailbox_dir", "data/mailbox")
	viper.SetDefault("intake.holding_dir", "data/holding")
	viper.SetDefault("intake.document_dir", "data/documents")

	viper.SetDefault("ocr.max_workers", 2)

	viper.SetDefault("extraction.openai_model", "gpt-4o-mini")
	viper.SetDefault("extraction.ai_threshold", 0.6)

	viper.SetDefault("approval.token_ttl", 72*time.Hour)
	viper.SetDefault("approval.base_url", "http://localhost:8080")
	viper.SetDefault("approval.sweep_interval", 15*time.Minute)

	viper.SetDefault("claims.export_dir", "data/exports")

	// No default broker URL; the relay is disabled until one is configured
	viper.SetDefault("events.subject_prefix", "claims")
	viper.SetDefault("events.relay_interval", 2*time.Second)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("intake.secret", "INTAKE_SECRET")
	viper.BindEnv("approval.token_secret", "APPROVAL_TOKEN_SECRET")
	viper.BindEnv("extraction.openai_api_key", "OPENAI_API_KEY")
	viper.BindEnv("events.nats_url", "NATS_URL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Intake.Secret == "" {
		return fmt.Errorf("intake.secret is required")
	}
	if c.Approval.TokenSecret == "" {
		return fmt.Errorf("approval.token_secret is required")
	}
	if len(c.Approval.TokenSecret) < 32 {
		return fmt.Errorf("approval.token_secret must be at least 32 bytes")
	}
	if c.Approval.TokenTTL <= 0 {
		return fmt.Errorf("approval.token_ttl must be positive")
	}
	if c.Approval.BaseURL == "" {
		return fmt.Errorf("approval.base_url is required")
	}
	return nil
}
