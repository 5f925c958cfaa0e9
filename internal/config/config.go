// Package config handles configuration loading for kessanlens.
// It supports YAML config files with environment variable overrides
// and a .env preload for API keys.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	JQuants   JQuantsConfig   `mapstructure:"jquants"   yaml:"jquants"`
	EDINET    EDINETConfig    `mapstructure:"edinet"    yaml:"edinet"`
	Gemini    GeminiConfig    `mapstructure:"gemini"    yaml:"gemini"`
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard"`
	Cache     CacheConfig     `mapstructure:"cache"     yaml:"cache"`
}

// JQuantsConfig holds J-Quants API settings.
type JQuantsConfig struct {
	APIKey      string `mapstructure:"api_key"      yaml:"api_key"`
	RateCalls   int    `mapstructure:"rate_calls"   yaml:"rate_calls"`   // calls per period
	RatePeriodS int    `mapstructure:"rate_period_s" yaml:"rate_period_s"` // seconds
}

// EDINETConfig holds EDINET API settings.
type EDINETConfig struct {
	APIKey    string `mapstructure:"api_key"    yaml:"api_key"`
	YearsBack int    `mapstructure:"years_back" yaml:"years_back"`
}

// GeminiConfig holds Gemini analysis settings.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	Model  string `mapstructure:"model"   yaml:"model"`
}

// DashboardConfig holds row-building and listing settings.
type DashboardConfig struct {
	ListingLimit      int  `mapstructure:"listing_limit"      yaml:"listing_limit"`
	CompanyWindowDays int  `mapstructure:"company_window_days" yaml:"company_window_days"`
	DropUncategorized bool `mapstructure:"drop_uncategorized" yaml:"drop_uncategorized"`
}

// CacheConfig holds cache TTLs in seconds.
type CacheConfig struct {
	ListingTTL int `mapstructure:"listing_ttl" yaml:"listing_ttl"`
	SummaryTTL int `mapstructure:"summary_ttl" yaml:"summary_ttl"`
	BarsTTL    int `mapstructure:"bars_ttl"    yaml:"bars_ttl"`
}

// Load reads the configuration from file and environment variables.
// A .env file in the working directory is loaded first, matching how
// the API keys are usually distributed. Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.kessanlens/config.yaml (home directory)
//  3. /etc/kessanlens/config.yaml (system)
//
// Environment variables override config file values.
// Format: KESSANLENS_<SECTION>_<KEY>, e.g., KESSANLENS_JQUANTS_API_KEY.
// The unprefixed key variables JQUANTS_API_KEY, EDINET_API_KEY and
// GEMINI_API_KEY are also honored.
func Load() (*Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".kessanlens"))
	v.AddConfigPath("/etc/kessanlens")

	v.SetEnvPrefix("KESSANLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is fine, defaults and env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("KESSANLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// ValidateForDashboard fails fast on settings the merged dashboard
// cannot run without.
func (c *Config) ValidateForDashboard() error {
	if c.JQuants.APIKey == "" {
		return fmt.Errorf("J-Quants API key not set (JQUANTS_API_KEY)")
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// J-Quants free plan quota.
	v.SetDefault("jquants.rate_calls", 5)
	v.SetDefault("jquants.rate_period_s", 60)

	v.SetDefault("edinet.years_back", 3)

	v.SetDefault("gemini.model", "gemini-1.5-flash")

	v.SetDefault("dashboard.listing_limit", 500)
	v.SetDefault("dashboard.company_window_days", 3)
	v.SetDefault("dashboard.drop_uncategorized", true)

	v.SetDefault("cache.listing_ttl", 300)   // 5 minutes
	v.SetDefault("cache.summary_ttl", 3600)  // 1 hour
	v.SetDefault("cache.bars_ttl", 86400)    // 24 hours
}

// overrideFromEnv explicitly reads sensitive keys from environment
// variables, honoring both the prefixed and the plain names.
func overrideFromEnv(cfg *Config) {
	if key := firstEnv("KESSANLENS_JQUANTS_API_KEY", "JQUANTS_API_KEY"); key != "" {
		cfg.JQuants.APIKey = key
	}
	if key := firstEnv("KESSANLENS_EDINET_API_KEY", "EDINET_API_KEY"); key != "" {
		cfg.EDINET.APIKey = key
	}
	if key := firstEnv("KESSANLENS_GEMINI_API_KEY", "GEMINI_API_KEY"); key != "" {
		cfg.Gemini.APIKey = key
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
