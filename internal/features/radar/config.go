package radar

import (
	"fmt"
	"strings"
	"time"

	"pr-radar/internal/core"
)

// Config represents radar feature configuration
type Config struct {
	Enabled         bool
	Provider        string
	SearchEndpoint  string
	ClientID        string
	ClientSecret    string
	ResultCount     int
	FetchTimeout    time.Duration
	CollectInterval time.Duration
	CheckInterval   time.Duration
	InboxTTL        time.Duration
	AutoCollect     bool
	Timezone        string
	Keywords        []string
	DefaultKeyword  string
	Folders         []string
	NegativeTerms   []string
	PressAliases    []core.Alias
	Mail            core.MailConfig
}

// NewConfig creates radar config from core config
func NewConfig(coreConfig *core.Config) *Config {
	radar := coreConfig.Features.Radar
	return &Config{
		Enabled:         radar.Enabled,
		Provider:        strings.ToLower(radar.Provider),
		SearchEndpoint:  radar.SearchEndpoint,
		ClientID:        radar.ClientID,
		ClientSecret:    radar.ClientSecret,
		ResultCount:     radar.ResultCount,
		FetchTimeout:    time.Duration(radar.FetchTimeout) * time.Second,
		CollectInterval: time.Duration(radar.CollectInterval) * time.Second,
		CheckInterval:   time.Duration(radar.CheckInterval) * time.Second,
		InboxTTL:        time.Duration(radar.InboxTTLDays) * 24 * time.Hour,
		AutoCollect:     radar.AutoCollect,
		Timezone:        radar.Timezone,
		Keywords:        radar.Keywords,
		DefaultKeyword:  radar.DefaultKeyword,
		Folders:         radar.Folders,
		NegativeTerms:   radar.NegativeTerms,
		PressAliases:    radar.PressAliases,
		Mail:            coreConfig.Mail,
	}
}

// Validate validates the radar configuration
func (c *Config) Validate() error {
	if c.ResultCount < 1 || c.ResultCount > 100 {
		return fmt.Errorf("result count must be between 1 and 100")
	}

	if c.FetchTimeout < time.Second || c.FetchTimeout > 2*time.Minute {
		return fmt.Errorf("fetch timeout must be between 1 and 120 seconds")
	}

	if c.CheckInterval < time.Second {
		return fmt.Errorf("check interval must be at least 1 second")
	}

	if c.CollectInterval < c.CheckInterval {
		return fmt.Errorf("collect interval must not be shorter than the check interval")
	}

	if c.InboxTTL < 24*time.Hour {
		return fmt.Errorf("inbox ttl must be at least 1 day")
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// Location resolves the configured time zone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
