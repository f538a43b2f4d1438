// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_PASSWORD
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Merge environment-specific overrides if present
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from multiple possible locations so the service and
// tests can run from different directories.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				fmt.Printf("Loaded .env from: %s\n", path)
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)
		if s, ok := val.(string); ok && strings.Contains(s, "${") {
			v.Set(key, os.ExpandEnv(s))
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "matcher-manager"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 32
	}

	m := &cfg.Matching
	if m.WeightBenefit == 0 && m.WeightDeadline == 0 && m.WeightMargin == 0 && m.WeightPreference == 0 {
		m.WeightBenefit = 0.35
		m.WeightDeadline = 0.25
		m.WeightMargin = 0.25
		m.WeightPreference = 0.15
	}
	if m.AgeReferenceSpan == 0 {
		m.AgeReferenceSpan = 100
	}
	if m.IncomeReferenceSpan == 0 {
		m.IncomeReferenceSpan = 1000000
	}
	if m.Parallelism == 0 {
		m.Parallelism = 8
	}
	if m.PageSize == 0 {
		m.PageSize = 20
	}
	if m.SuggestionTopK == 0 {
		m.SuggestionTopK = 5
	}
	if m.SoftDeadlineMillis == 0 {
		m.SoftDeadlineMillis = 5000
	}
	if m.HardDeadlineMillis == 0 {
		m.HardDeadlineMillis = 10000
	}
	if m.PreferenceTTLSeconds == 0 {
		m.PreferenceTTLSeconds = 86400
	}

	if cfg.Catalog.IndexName == "" {
		cfg.Catalog.IndexName = "schemes"
	}
	if cfg.Catalog.SnapshotTTLSeconds == 0 {
		cfg.Catalog.SnapshotTTLSeconds = 300
	}
	if cfg.Catalog.ProfileTTLSeconds == 0 {
		cfg.Catalog.ProfileTTLSeconds = 600
	}
}

func validateConfig(cfg *Config) error {
	m := cfg.Matching
	sum := m.WeightBenefit + m.WeightDeadline + m.WeightMargin + m.WeightPreference
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("matching weights must sum to 1, got %.3f", sum)
	}
	if m.SoftDeadlineMillis >= m.HardDeadlineMillis {
		return fmt.Errorf("soft deadline (%dms) must be below hard deadline (%dms)",
			m.SoftDeadlineMillis, m.HardDeadlineMillis)
	}
	if m.Parallelism < 1 {
		return fmt.Errorf("matching parallelism must be at least 1")
	}
	return nil
}
