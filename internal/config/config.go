package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v          *viper.Viper
	configFile string
	config     *domain.Config
}

// NewManager creates a new configuration manager that searches the default
// config paths for config.yaml.
func NewManager() (*Manager, error) {
	return NewManagerFromFile("")
}

// NewManagerFromFile creates a manager reading an explicit config file.
// An empty path falls back to the search paths.
func NewManagerFromFile(path string) (*Manager, error) {
	m := &Manager{configFile: path}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/thyroid-analyzer/")
	}

	// THYROID_SERVER_PORT, THYROID_NARRATIVE_API_KEY, ...
	v.SetEnvPrefix("THYROID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// DataDir is the base directory for generated artifacts when no explicit
// path is configured.
func DataDir() string {
	if dir := os.Getenv("THYROID_DATA_DIR"); dir != "" {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(homeDir, ".thyroid-analyzer")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	dataDir := DataDir()

	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.environment", "development")

	// Knowledge base defaults
	v.SetDefault("knowledge_base.document_path", "./Thyroid function.md")
	v.SetDefault("knowledge_base.path", filepath.Join(dataDir, "thyroid_knowledge_base.json"))
	v.SetDefault("knowledge_base.archive_path", "")
	v.SetDefault("knowledge_base.watch", true)
	v.SetDefault("knowledge_base.ingest_on_start", true)

	// History defaults
	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.sqlite_path", filepath.Join(dataDir, "history.db"))
	v.SetDefault("history.postgres_url", "")

	// Cache defaults
	v.SetDefault("cache.size", 512)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.default_ttl", "24h")
	v.SetDefault("cache.key_prefix", "thyroid:narrative:")

	// Narrative defaults
	v.SetDefault("narrative.enabled", false)
	v.SetDefault("narrative.base_url", "https://api.openai.com/v1")
	v.SetDefault("narrative.api_key", "")
	v.SetDefault("narrative.model", "gpt-4o-mini")
	v.SetDefault("narrative.timeout", "20s")
	v.SetDefault("narrative.rate_limit", 2)
	v.SetDefault("narrative.failure_threshold", 5)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// ConfigFileUsed returns the config file that was read, if any.
func (m *Manager) ConfigFileUsed() string {
	return m.v.ConfigFileUsed()
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.KnowledgeBase.Path == "" {
		return fmt.Errorf("knowledge base path is required")
	}

	switch config.History.Driver {
	case "none":
	case "sqlite":
		if config.History.SQLitePath == "" {
			return fmt.Errorf("history sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if config.History.PostgresURL == "" {
			return fmt.Errorf("history postgres_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid history driver: %s", config.History.Driver)
	}

	if config.Cache.Size < 0 {
		return fmt.Errorf("invalid cache size: %d", config.Cache.Size)
	}

	if config.Narrative.Enabled {
		if config.Narrative.APIKey == "" {
			return fmt.Errorf("narrative api_key is required when narrative is enabled")
		}
		if config.Narrative.Model == "" {
			return fmt.Errorf("narrative model is required when narrative is enabled")
		}
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.environment()) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.environment())
	return env == "development" || env == "dev" || env == ""
}

func (m *Manager) environment() string {
	if m.config.Server.Environment != "" {
		return m.config.Server.Environment
	}
	return m.v.GetString("environment")
}
