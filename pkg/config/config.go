package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for skyrank
type Config struct {
	// Bluesky account and endpoints
	Bluesky BlueskyConfig `yaml:"bluesky" json:"bluesky"`

	// Timeline ranking settings
	Rank RankConfig `yaml:"rank" json:"rank"`

	// Firehose streaming settings
	Firehose FirehoseConfig `yaml:"firehose" json:"firehose"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BlueskyConfig holds account credentials and service endpoints
type BlueskyConfig struct {
	Handle   string `yaml:"handle" json:"handle"`
	Password string `yaml:"password" json:"password"`
	PDSHost  string `yaml:"pds_host" json:"pds_host"`
}

// RankConfig holds the bounded ranked fetch loop settings
type RankConfig struct {
	WindowHours int           `yaml:"window_hours" json:"window_hours"`
	MaxPosts    int           `yaml:"max_posts" json:"max_posts"`
	TopN        int           `yaml:"top_n" json:"top_n"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// FirehoseConfig holds firehose subscription settings
type FirehoseConfig struct {
	RelayHost     string        `yaml:"relay_host" json:"relay_host"`
	PrintInterval time.Duration `yaml:"print_interval" json:"print_interval"`
	TopTags       int           `yaml:"top_tags" json:"top_tags"`
	Workers       int           `yaml:"workers" json:"workers"`
}

// RateLimitConfig holds rate limiting configuration for API calls
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Bluesky: BlueskyConfig{
			PDSHost: "https://bsky.social",
		},
		Rank: RankConfig{
			WindowHours: 72,
			MaxPosts:    100,
			TopN:        5,
			Timeout:     300 * time.Second,
		},
		Firehose: FirehoseConfig{
			RelayHost:     "wss://bsky.network",
			PrintInterval: 10 * time.Second,
			TopTags:       20,
			Workers:       4,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 300,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if handle := os.Getenv("BLUESKY_HANDLE"); handle != "" {
		c.Bluesky.Handle = handle
	}
	if password := os.Getenv("BLUESKY_PASSWORD"); password != "" {
		c.Bluesky.Password = password
	}
	if host := os.Getenv("SKYRANK_PDS_HOST"); host != "" {
		c.Bluesky.PDSHost = host
	}
	if relay := os.Getenv("SKYRANK_RELAY_HOST"); relay != "" {
		c.Firehose.RelayHost = relay
	}

	if hours := os.Getenv("SKYRANK_WINDOW_HOURS"); hours != "" {
		var val int
		fmt.Sscanf(hours, "%d", &val)
		if val > 0 {
			c.Rank.WindowHours = val
		}
	}
	if maxPosts := os.Getenv("SKYRANK_MAX_POSTS"); maxPosts != "" {
		var val int
		fmt.Sscanf(maxPosts, "%d", &val)
		if val > 0 {
			c.Rank.MaxPosts = val
		}
	}
	if topN := os.Getenv("SKYRANK_TOP_N"); topN != "" {
		var val int
		fmt.Sscanf(topN, "%d", &val)
		if val > 0 {
			c.Rank.TopN = val
		}
	}
	if timeout := os.Getenv("SKYRANK_TIMEOUT_SECONDS"); timeout != "" {
		var val int
		fmt.Sscanf(timeout, "%d", &val)
		if val > 0 {
			c.Rank.Timeout = time.Duration(val) * time.Second
		}
	}

	if rpm := os.Getenv("SKYRANK_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if logLevel := os.Getenv("SKYRANK_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".skyrank.yaml",
		".skyrank.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "skyrank", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "skyrank", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".skyrank.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credentials are not
// validated here: their absence is a runtime configuration error handled
// by the ranker, not a reason to refuse startup (the firehose commands
// work without them).
func (c *Config) Validate() error {
	var errs []error

	if c.Bluesky.PDSHost == "" {
		errs = append(errs, errors.New("PDS host is required"))
	}
	if c.Firehose.RelayHost == "" {
		errs = append(errs, errors.New("relay host is required"))
	}

	if c.Rank.WindowHours <= 0 {
		errs = append(errs, errors.New("window hours must be positive"))
	}
	if c.Rank.MaxPosts <= 0 {
		errs = append(errs, errors.New("max posts must be positive"))
	}
	if c.Rank.TopN <= 0 {
		errs = append(errs, errors.New("top N must be positive"))
	}
	if c.Rank.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}

	if c.Firehose.PrintInterval <= 0 {
		errs = append(errs, errors.New("print interval must be positive"))
	}
	if c.Firehose.TopTags <= 0 {
		errs = append(errs, errors.New("top tags must be positive"))
	}
	if c.Firehose.Workers <= 0 {
		errs = append(errs, errors.New("firehose workers must be positive"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if handle, ok := flags["handle"].(string); ok && handle != "" {
		c.Bluesky.Handle = handle
	}
	if pdsHost, ok := flags["pds-host"].(string); ok && pdsHost != "" {
		c.Bluesky.PDSHost = pdsHost
	}
	if relayHost, ok := flags["relay-host"].(string); ok && relayHost != "" {
		c.Firehose.RelayHost = relayHost
	}
	if hours, ok := flags["hours"].(int); ok && hours > 0 {
		c.Rank.WindowHours = hours
	}
	if maxPosts, ok := flags["max-posts"].(int); ok && maxPosts > 0 {
		c.Rank.MaxPosts = maxPosts
	}
	if topN, ok := flags["top"].(int); ok && topN > 0 {
		c.Rank.TopN = topN
	}
	if timeout, ok := flags["timeout"].(int); ok && timeout > 0 {
		c.Rank.Timeout = time.Duration(timeout) * time.Second
	}
	if interval, ok := flags["interval"].(int); ok && interval > 0 {
		c.Firehose.PrintInterval = time.Duration(interval) * time.Second
	}
	if rateLimit, ok := flags["rate-limit"].(int); ok && rateLimit > 0 {
		c.RateLimit.RequestsPerMinute = rateLimit
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".skyrank.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
