package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the main configuration for PR-Radar
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Auth     AuthConfig     `json:"auth"`
	Logging  LoggingConfig  `json:"logging"`
	Mail     MailConfig     `json:"mail"`
	Features FeatureConfig  `json:"features"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// DatabaseConfig contains database-related configuration
type DatabaseConfig struct {
	Path string `json:"path"`
}

// AuthConfig contains authentication-related configuration
type AuthConfig struct {
	AdminPassword string `json:"-"`
}

// LoggingConfig contains logger settings
type LoggingConfig struct {
	Level string `json:"level"`
}

// MailConfig contains alert mail settings
type MailConfig struct {
	SMTP2GOAPIKey  string `json:"-"`
	Sender         string `json:"sender"`
	AlertRecipient string `json:"alert_recipient"`
	Endpoint       string `json:"endpoint"`
}

// Enabled reports whether alert mail can be sent
func (m MailConfig) Enabled() bool {
	return m.SMTP2GOAPIKey != "" && m.Sender != "" && m.AlertRecipient != ""
}

// FeatureConfig contains feature-specific configuration
type FeatureConfig struct {
	Radar RadarConfig `json:"radar"`
}

// RadarConfig contains news monitoring configuration
type RadarConfig struct {
	Enabled         bool     `json:"enabled"`
	Provider        string   `json:"provider"`
	SearchEndpoint  string   `json:"search_endpoint"`
	ClientID        string   `json:"-"`
	ClientSecret    string   `json:"-"`
	ResultCount     int      `json:"result_count"`
	FetchTimeout    int      `json:"fetch_timeout"`
	CollectInterval int      `json:"collect_interval"`
	CheckInterval   int      `json:"check_interval"`
	InboxTTLDays    int      `json:"inbox_ttl_days"`
	AutoCollect     bool     `json:"auto_collect"`
	Timezone        string   `json:"timezone"`
	Keywords        []string `json:"keywords"`
	DefaultKeyword  string   `json:"default_keyword"`
	Folders         []string `json:"folders"`
	NegativeTerms   []string `json:"negative_terms"`
	PressAliases    []Alias  `json:"press_aliases"`
}

// Alias maps a lowercase publisher token to its canonical name
type Alias struct {
	Key  string `json:"key" yaml:"key"`
	Name string `json:"name" yaml:"name"`
}

// fileConfig is the shape of the optional YAML file named by PRRADAR_CONFIG
type fileConfig struct {
	Radar struct {
		Keywords       []string `yaml:"keywords"`
		DefaultKeyword string   `yaml:"default_keyword"`
		Folders        []string `yaml:"folders"`
		NegativeTerms  []string `yaml:"negative_terms"`
		PressAliases   []Alias  `yaml:"press_aliases"`
	} `yaml:"radar"`
}

// LoadConfig loads configuration from environment variables and the optional YAML file
func LoadConfig() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("PRRADAR_PORT", 4000),
			Host: getEnvOrDefault("PRRADAR_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Path: getEnvOrDefault("PRRADAR_DB_PATH", ":memory:"),
		},
		Auth: AuthConfig{
			AdminPassword: getEnvOrDefault("PRRADAR_ADMIN_PASSWORD", ""),
		},
		Logging: LoggingConfig{
			Level: getEnvOrDefault("PRRADAR_LOG_LEVEL", "info"),
		},
		Mail: MailConfig{
			SMTP2GOAPIKey:  getEnvOrDefault("SMTP2GO_API_KEY", ""),
			Sender:         getEnvOrDefault("SMTP2GO_SENDER", ""),
			AlertRecipient: getEnvOrDefault("PRRADAR_ALERT_RECIPIENT", ""),
			Endpoint:       getEnvOrDefault("SMTP2GO_ENDPOINT", ""),
		},
		Features: FeatureConfig{
			Radar: RadarConfig{
				Enabled:         getEnvAsBool("PRRADAR_ENABLE_RADAR", true),
				Provider:        getEnvOrDefault("PRRADAR_SEARCH_PROVIDER", "naver"),
				SearchEndpoint:  getEnvOrDefault("PRRADAR_SEARCH_ENDPOINT", ""),
				ClientID:        getEnvOrDefault("NAVER_CLIENT_ID", ""),
				ClientSecret:    getEnvOrDefault("NAVER_CLIENT_SECRET", ""),
				ResultCount:     getEnvAsInt("PRRADAR_RESULT_COUNT", 20),
				FetchTimeout:    getEnvAsInt("PRRADAR_FETCH_TIMEOUT", 10),
				CollectInterval: getEnvAsInt("PRRADAR_COLLECT_INTERVAL", 3600),
				CheckInterval:   getEnvAsInt("PRRADAR_CHECK_INTERVAL", 60),
				InboxTTLDays:    getEnvAsInt("PRRADAR_INBOX_TTL_DAYS", 7),
				AutoCollect:     getEnvAsBool("PRRADAR_AUTO_COLLECT", true),
				Timezone:        getEnvOrDefault("PRRADAR_TIMEZONE", "Asia/Seoul"),
				DefaultKeyword:  "삼성화재",
			},
		},
	}

	if path := os.Getenv("PRRADAR_CONFIG"); path != "" {
		if err := config.mergeFile(path); err != nil {
			return nil, NewConfigurationError("failed to load config file", err)
		}
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	radar := &c.Features.Radar
	if len(file.Radar.Keywords) > 0 {
		radar.Keywords = file.Radar.Keywords
	}
	if file.Radar.DefaultKeyword != "" {
		radar.DefaultKeyword = file.Radar.DefaultKeyword
	}
	if len(file.Radar.Folders) > 0 {
		radar.Folders = file.Radar.Folders
	}
	if len(file.Radar.NegativeTerms) > 0 {
		radar.NegativeTerms = file.Radar.NegativeTerms
	}
	if len(file.Radar.PressAliases) > 0 {
		radar.PressAliases = file.Radar.PressAliases
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return NewConfigurationError(fmt.Sprintf("invalid server port: %d", c.Server.Port), nil)
	}

	if c.Database.Path == "" {
		return NewConfigurationError("database path is required", nil)
	}

	switch strings.ToLower(c.Features.Radar.Provider) {
	case "naver", "rss":
	default:
		return NewConfigurationError(fmt.Sprintf("unknown search provider: %s", c.Features.Radar.Provider), nil)
	}

	return nil
}

// HasCredentials reports whether the search feed credentials are present
func (r RadarConfig) HasCredentials() bool {
	return r.ClientID != "" && r.ClientSecret != ""
}

// IsFeatureEnabled checks if a feature is enabled
func (c *Config) IsFeatureEnabled(featureName string) bool {
	switch strings.ToLower(featureName) {
	case "radar":
		return c.Features.Radar.Enabled
	default:
		return false
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}
