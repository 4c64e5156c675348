package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Store     StoreConfig             `mapstructure:"store"`
	Source    SourceConfig            `mapstructure:"source"`
	Messaging MessagingConfig         `mapstructure:"messaging"`
	Templates TemplateConfig          `mapstructure:"templates"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Logging   LoggingConfig           `mapstructure:"logging"`
	Server    ServerConfig            `mapstructure:"server"`
	Tracing   TracingConfig           `mapstructure:"tracing"`
	Reporting ReportingConfig         `mapstructure:"reporting"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	DynamoDB      DynamoDBConfig      `mapstructure:"dynamodb"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	Table          string `mapstructure:"table"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type DynamoDBConfig struct {
	Table string `mapstructure:"table"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

// StoreConfig selects the subscription store backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend"` // postgres | redis | dynamodb
}

// SourceConfig selects where availability snapshots are read from.
type SourceConfig struct {
	Backend string `mapstructure:"backend"` // s3 | http
	Bucket  string `mapstructure:"bucket"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// MessagingConfig holds the outbound SMS/email settings.
type MessagingConfig struct {
	AWSRegion         string  `mapstructure:"aws_region"`
	Channel           string  `mapstructure:"channel"` // sns | pinpoint
	ApplicationID     string  `mapstructure:"application_id"`
	OriginationNumber string  `mapstructure:"origination_number"`
	SenderID          string  `mapstructure:"sender_id"`
	FromEmail         string  `mapstructure:"from_email"`
	EmailEnabled      bool    `mapstructure:"email_enabled"`
	MaxConcurrency    int     `mapstructure:"max_concurrency"`
	RatePerSecond     float64 `mapstructure:"rate_per_second"`
}

// TemplateConfig points at the localized message templates.
type TemplateConfig struct {
	RegistryPath    string `mapstructure:"registry_path"`
	DefaultLanguage string `mapstructure:"default_language"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

type ReportingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Index   string `mapstructure:"index"`
}
