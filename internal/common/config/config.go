// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Matching      MatchingConfig          `mapstructure:"matching"`
	Catalog       CatalogConfig           `mapstructure:"catalog"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Logging       LoggingConfig           `mapstructure:"logging"`
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
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
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
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Matching Engine Config ---

// MatchingConfig holds the tunables of the eligibility matching engine.
type MatchingConfig struct {
	// Default composite-score weights, must sum to 1.
	WeightBenefit    float64 `mapstructure:"weight_benefit"`
	WeightDeadline   float64 `mapstructure:"weight_deadline"`
	WeightMargin     float64 `mapstructure:"weight_margin"`
	WeightPreference float64 `mapstructure:"weight_preference"`

	// Reference spans for normalizing single-bounded range margins.
	AgeReferenceSpan    float64 `mapstructure:"age_reference_span"`    // years
	IncomeReferenceSpan float64 `mapstructure:"income_reference_span"` // rupees per year

	Parallelism        int `mapstructure:"parallelism"`
	PageSize           int `mapstructure:"page_size"`
	SuggestionTopK     int `mapstructure:"suggestion_top_k"`
	SoftDeadlineMillis int `mapstructure:"soft_deadline_millis"`
	HardDeadlineMillis int `mapstructure:"hard_deadline_millis"`

	// PreferenceTTLSeconds bounds how long per-user ranking preferences
	// live in Redis.
	PreferenceTTLSeconds int `mapstructure:"preference_ttl_seconds"`
}

// CatalogConfig holds scheme-catalog store settings.
type CatalogConfig struct {
	IndexName          string `mapstructure:"index_name"`
	SnapshotTTLSeconds int    `mapstructure:"snapshot_ttl_seconds"`
	ProfileTTLSeconds  int    `mapstructure:"profile_ttl_seconds"`
}

// NotificationConfig holds settings for the invalid-scheme flag publisher.
type NotificationConfig struct {
	SNS struct {
		Region   string `mapstructure:"region"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
