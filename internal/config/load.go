package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables use the
// ADMIT_ prefix with underscores for nesting (e.g. ADMIT_DATABASE_URL,
// ADMIT_SERVER_PORT) and take precedence over file values.
// Returns a populated Config or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults keep local development runnable with only the connection
	// URLs supplied.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.scrape_cron", "")
	// Registered empty so AutomaticEnv can fill them; validation rejects
	// a missing value either way.
	v.SetDefault("database.url", "")
	v.SetDefault("broker.url", "")
	v.SetDefault("ingest.source", "applicant_data_json")
	v.SetDefault("ingest.data_file", "/data/applicant_data.json")
	v.SetDefault("ingest.lock_path", "/tmp/admit-api.pull.lock")
	v.SetDefault("ingest.lock_ttl_minutes", 0)
	v.SetDefault("worker.prefetch", 1)
	v.SetDefault("worker.metrics_port", 9090)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ADMIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; the environment can carry
		// everything. Any other read error is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
