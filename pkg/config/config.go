package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	once    sync.Once
	initErr error
)

// Init initializes the configuration system
// This should be called once at application startup
func Init() error {
	once.Do(func() {
		// Set default values
		setDefaults()

		// Set up environment variable reading for overrides
		viper.SetEnvPrefix("INGEST")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		// Load config from fixed location (cleaned for safety)
		configPath := filepath.Clean("./config/settings.yaml")
		viper.SetConfigFile(configPath)

		// Try to read the config file
		if err := viper.ReadInConfig(); err != nil {
			// If the config file doesn't exist, just use defaults and env vars
			if !os.IsNotExist(err) {
				initErr = fmt.Errorf("error reading config file %s: %w", configPath, err)
				return
			}
			// Config file doesn't exist, which is fine - we'll use defaults
		}

		// Validate the configuration
		if err := validate(); err != nil {
			initErr = fmt.Errorf("invalid configuration: %w", err)
		}
	})

	return initErr
}

// Load loads configuration from ./config/settings.yaml
// Deprecated: Use Init() instead for better control
func Load() (*Config, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	return GetConfig()
}

// GetConfig returns the current configuration as a struct
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// Get returns a config value by key using Viper directly
func Get(key string) any {
	return viper.Get(key)
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// validate validates the configuration using Viper values
func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	storageEnv := viper.GetString("storage.env")
	if storageEnv != "local" && storageEnv != "remote" {
		return fmt.Errorf("invalid storage.env %q: must be 'local' or 'remote'", storageEnv)
	}

	if storageEnv == "remote" && viper.GetString("storage.bucket_suffix") == "" {
		fmt.Println("Warning: storage.env is 'remote' but storage.bucket_suffix is empty")
	}

	// Validate API keys aren't using placeholder values
	if err := validateAPIKeys(); err != nil {
		return err
	}

	// Auto-correct invalid worker count
	if viper.GetInt("processing.workers") <= 0 {
		viper.Set("processing.workers", 4)
	}

	return nil
}

// validateAPIKeys validates that API keys are not using placeholder values
func validateAPIKeys() error {
	// Check for production environment
	env := viper.GetString("environment")
	isProduction := env == "production" || env == "prod"

	// List of placeholder values that shouldn't be used
	placeholders := []string{
		"YOUR_KEY_HERE",
		"YOUR_API_KEY",
		"changeme",
		"CHANGEME",
		"",
	}

	provider := viper.GetString("transcription.provider")
	transcriptionKey := viper.GetString("transcription.api_key")

	if provider == "cloud_a" || provider == "cloud_b" {
		for _, placeholder := range placeholders {
			if transcriptionKey == placeholder {
				if isProduction {
					return fmt.Errorf("invalid transcription.api_key: cannot use a placeholder value in production when provider is %q", provider)
				}
				fmt.Println("Warning: transcription.api_key is using a placeholder value")
				break
			}
		}
	}

	if viper.GetString("storage.env") == "remote" {
		secretKey := viper.GetString("storage.secret_key")
		for _, placeholder := range placeholders {
			if secretKey == placeholder {
				if isProduction {
					return fmt.Errorf("invalid storage.secret_key: cannot use a placeholder value in production")
				}
				fmt.Println("Warning: storage.secret_key is using a placeholder value")
				break
			}
		}
	}

	return nil
}

// Validate validates a Config struct (for testing)
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Storage.Env != "local" && c.Storage.Env != "remote" {
		return fmt.Errorf("invalid storage env: %s", c.Storage.Env)
	}

	if c.Processing.Workers <= 0 {
		c.Processing.Workers = 4
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Environment defaults
	viper.SetDefault("environment", "development")

	// Active site scope
	viper.SetDefault("site.id", "")
	viper.SetDefault("site.feeds", []string{})

	// Server defaults (C6 search engine)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)

	// Database (local run-state store) defaults
	viper.SetDefault("database.path", "./data/runstate.db")
	viper.SetDefault("database.max_connections", 10)
	viper.SetDefault("database.max_idle_connections", 5)
	viper.SetDefault("database.connection_max_lifetime", 30*time.Minute)
	viper.SetDefault("database.verbose", false)

	// Storage (blob store) defaults
	viper.SetDefault("storage.env", "local")
	viper.SetDefault("storage.local_root", "./data/blobs")
	viper.SetDefault("storage.bucket_suffix", "")
	viper.SetDefault("storage.region", "us-east-1")
	viper.SetDefault("storage.access_key", "")
	viper.SetDefault("storage.secret_key", "")
	viper.SetDefault("storage.endpoint", "")
	viper.SetDefault("storage.request_timeout", 30*time.Second)

	// Processing (audio splitting) defaults
	viper.SetDefault("processing.workers", 4)
	viper.SetDefault("processing.ffmpeg_path", "ffmpeg")
	viper.SetDefault("processing.ffprobe_path", "ffprobe")
	viper.SetDefault("processing.ffmpeg_timeout", 5*time.Minute)
	viper.SetDefault("processing.chunk_duration", 10*time.Minute)
	viper.SetDefault("processing.chunk_overlap", 30*time.Second)
	viper.SetDefault("processing.temp_dir", "./tmp")
	viper.SetDefault("processing.max_duration", 6*time.Hour)

	// Transcription provider defaults
	viper.SetDefault("transcription.provider", "cloud_a")
	viper.SetDefault("transcription.api_key", "YOUR_KEY_HERE")
	viper.SetDefault("transcription.poll_interval", 5*time.Second)
	viper.SetDefault("transcription.timeout", 15*time.Minute)
	viper.SetDefault("transcription.max_retries", 3)
	viper.SetDefault("transcription.local_model", "")
	viper.SetDefault("transcription.local_bin_path", "")

	// Feed retrieval defaults
	viper.SetDefault("feed.fetch_timeout", 30*time.Second)
	viper.SetDefault("feed.download_timeout", 5*time.Minute)
	viper.SetDefault("feed.max_concurrency", 4)
	viper.SetDefault("feed.user_agent", "ingest-platform/1.0")
	viper.SetDefault("feed.max_audio_size", 500*1024*1024)

	// Orchestrator defaults
	viper.SetDefault("orchestrator.sites", []string{})
	viper.SetDefault("orchestrator.dry_run", false)
	viper.SetDefault("orchestrator.schedule", "")
	viper.SetDefault("orchestrator.run_log_path", "./data/run-history.md")
	viper.SetDefault("orchestrator.corrections_dir", "./config/corrections")

	// Rate limiting defaults
	viper.SetDefault("rate_limiting.enabled", true)
	viper.SetDefault("rate_limiting.requests_per_second", 10.0)
	viper.SetDefault("rate_limiting.burst", 20)

	// Security defaults
	viper.SetDefault("security.enable_cors", true)
	viper.SetDefault("security.cors_origins", []string{"*"})
	viper.SetDefault("security.cors_methods", []string{"GET", "POST", "OPTIONS"})
	viper.SetDefault("security.cors_headers", []string{"Content-Type", "Authorization"})
	viper.SetDefault("security.enable_request_id", true)
	viper.SetDefault("security.enable_recovery", true)
	viper.SetDefault("security.max_request_bytes", 1048576)

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", false)
	viper.SetDefault("monitoring.metrics_path", "/metrics")
	viper.SetDefault("monitoring.health_path", "/health")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.output", "stdout")

	// Feature flags
	viper.SetDefault("features.enable_cdn_invalidation", false)
	viper.SetDefault("features.enable_remote_indexing", false)
	viper.SetDefault("features.maintenance_mode", false)
}
