package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	KnowledgeBase KnowledgeBaseConfig `mapstructure:"knowledge_base"`
	History       HistoryConfig       `mapstructure:"history"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Narrative     NarrativeConfig     `mapstructure:"narrative"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// KnowledgeBaseConfig locates the source document and the parsed knowledge base
type KnowledgeBaseConfig struct {
	DocumentPath string `mapstructure:"document_path"`
	Path         string `mapstructure:"path"`
	ArchivePath  string `mapstructure:"archive_path"`
	Watch        bool   `mapstructure:"watch"`
	// IngestOnStart parses DocumentPath at startup when Path does not exist yet.
	IngestOnStart bool `mapstructure:"ingest_on_start"`
}

// HistoryConfig selects the analysis history backend
type HistoryConfig struct {
	Driver      string `mapstructure:"driver"` // "sqlite", "postgres", "none"
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresURL string `mapstructure:"postgres_url"`
}

// CacheConfig represents narrative cache configuration
type CacheConfig struct {
	Size       int           `mapstructure:"size"`
	RedisURL   string        `mapstructure:"redis_url"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	KeyPrefix  string        `mapstructure:"key_prefix"`
}

// NarrativeConfig configures the optional chat-model narrative provider
type NarrativeConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	BaseURL          string        `mapstructure:"base_url"`
	APIKey           string        `mapstructure:"api_key"`
	Model            string        `mapstructure:"model"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RateLimit        int           `mapstructure:"rate_limit"` // requests per second
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "text"
	Output string `mapstructure:"output"` // "stdout", "stderr" or a file path
}
