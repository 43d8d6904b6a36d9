package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Environment   string              `mapstructure:"environment"`
	Site          SiteConfig          `mapstructure:"site"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Processing    ProcessingConfig    `mapstructure:"processing"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Feed          FeedConfig          `mapstructure:"feed"`
	Orchestrator  OrchestratorConfig  `mapstructure:"orchestrator"`
	RateLimiting  RateLimitConfig     `mapstructure:"rate_limiting"`
	Security      SecurityConfig      `mapstructure:"security"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Monitoring    MonitoringConfig    `mapstructure:"monitoring"`
	Features      FeaturesConfig      `mapstructure:"features"`
}

// SiteConfig identifies the active tenant a CLI invocation operates
// against, and the feeds that belong to it.
type SiteConfig struct {
	ID    string   `mapstructure:"id"`
	Feeds []string `mapstructure:"feeds"`
}

// ServerConfig contains HTTP server settings for the search engine (C6).
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
}

// DatabaseConfig contains settings for the local run-state/idempotency
// store. This is never the authoritative home for site data — see
// StorageConfig — only a local record of what this program has already done.
type DatabaseConfig struct {
	Path                  string        `mapstructure:"path"`
	MaxConnections        int           `mapstructure:"max_connections"`
	MaxIdleConnections    int           `mapstructure:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `mapstructure:"connection_max_lifetime"`
	Verbose               bool          `mapstructure:"verbose"`
}

// StorageConfig selects and configures the blob store backing every site's
// authoritative data (manifests, audio, SRT, search indexes).
type StorageConfig struct {
	// Env selects the blob store backend: "local" (filesystem) or "remote" (S3).
	Env          string        `mapstructure:"env"`
	LocalRoot    string        `mapstructure:"local_root"`
	BucketSuffix string        `mapstructure:"bucket_suffix"`
	Region       string        `mapstructure:"region"`
	AccessKey    string        `mapstructure:"access_key"`
	SecretKey    string        `mapstructure:"secret_key"`
	Endpoint     string        `mapstructure:"endpoint"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ProcessingConfig contains audio splitting/ffmpeg settings (C4).
type ProcessingConfig struct {
	Workers       int           `mapstructure:"workers"`
	FFmpegPath    string        `mapstructure:"ffmpeg_path"`
	FFprobePath   string        `mapstructure:"ffprobe_path"`
	FFmpegTimeout time.Duration `mapstructure:"ffmpeg_timeout"`
	ChunkDuration time.Duration `mapstructure:"chunk_duration"`
	ChunkOverlap  time.Duration `mapstructure:"chunk_overlap"`
	TempDir       string        `mapstructure:"temp_dir"`
	MaxDuration   time.Duration `mapstructure:"max_duration"`
}

// TranscriptionConfig selects and configures the transcription provider (C4).
type TranscriptionConfig struct {
	// Provider selects the transcription variant: "cloud_a" (AssemblyAI-style),
	// "cloud_b" (polling result-URL provider), or "local" (on-box model).
	Provider     string        `mapstructure:"provider"`
	APIKey       string        `mapstructure:"api_key"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	LocalModel   string        `mapstructure:"local_model"`
	LocalBinPath string        `mapstructure:"local_bin_path"`
}

// FeedConfig contains RSS/Atom retrieval settings (C3).
type FeedConfig struct {
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	MaxConcurrency  int           `mapstructure:"max_concurrency"`
	UserAgent       string        `mapstructure:"user_agent"`
	MaxAudioSize    int64         `mapstructure:"max_audio_size"`
}

// OrchestratorConfig contains pipeline run settings (C8).
type OrchestratorConfig struct {
	Sites          []string `mapstructure:"sites"`
	DryRun         bool     `mapstructure:"dry_run"`
	Schedule       string   `mapstructure:"schedule"`
	RunLogPath     string   `mapstructure:"run_log_path"`
	CorrectionsDir string   `mapstructure:"corrections_dir"`
}

// RateLimitConfig contains rate limiting settings
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	EnableCORS      bool     `mapstructure:"enable_cors"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
	CORSMethods     []string `mapstructure:"cors_methods"`
	CORSHeaders     []string `mapstructure:"cors_headers"`
	EnableRequestID bool     `mapstructure:"enable_request_id"`
	EnableRecovery  bool     `mapstructure:"enable_recovery"`
	MaxRequestBytes int64    `mapstructure:"max_request_bytes"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MonitoringConfig contains monitoring settings
type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
	HealthPath  string `mapstructure:"health_path"`
}

// FeaturesConfig contains feature flags
type FeaturesConfig struct {
	EnableCDNInvalidation bool `mapstructure:"enable_cdn_invalidation"`
	EnableRemoteIndexing  bool `mapstructure:"enable_remote_indexing"`
	MaintenanceMode       bool `mapstructure:"maintenance_mode"`
}
