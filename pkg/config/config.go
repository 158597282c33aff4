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

// Config holds all configuration options for the scraper
type Config struct {
	// Platform access settings
	Platform PlatformConfig `yaml:"platform" json:"platform"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// PlatformConfig holds platform-specific access configuration.
// The cookie is optional; public post pages render their state blob without
// one, but a session cookie raises the odds of getting the full variant.
type PlatformConfig struct {
	Cookie    string `yaml:"cookie" json:"cookie"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory      string `yaml:"base_directory" json:"base_directory"`
	CreateTitleFolders bool   `yaml:"create_title_folders" json:"create_title_folders"`
	WriteManifest      bool   `yaml:"write_manifest" json:"write_manifest"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	PageTimeout         time.Duration `yaml:"page_timeout" json:"page_timeout"`
	SkipMotion          bool          `yaml:"skip_motion" json:"skip_motion"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Platform: PlatformConfig{},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 30,
			MaxRetries:        3,
			RetryDelay:        5 * time.Second,
		},
		Output: OutputConfig{
			BaseDirectory:      "./media",
			CreateTitleFolders: true,
			WriteManifest:      true,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 1,
			DownloadTimeout:     30 * time.Second,
			PageTimeout:         15 * time.Second,
			SkipMotion:          false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if cookie := os.Getenv("XHSCRAPER_COOKIE"); cookie != "" {
		c.Platform.Cookie = cookie
	}
	if userAgent := os.Getenv("XHSCRAPER_USER_AGENT"); userAgent != "" {
		c.Platform.UserAgent = userAgent
	}

	if rpm := os.Getenv("XHSCRAPER_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if outputDir := os.Getenv("XHSCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	if concurrent := os.Getenv("XHSCRAPER_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}

	if logLevel := os.Getenv("XHSCRAPER_LOG_LEVEL"); logLevel != "" {
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
		".xhscraper.yaml",
		".xhscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "xhscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "xhscraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".xhscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 8 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 8"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.PageTimeout <= 0 {
		errs = append(errs, errors.New("page timeout must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
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
	if cookie, ok := flags["cookie"].(string); ok && cookie != "" {
		c.Platform.Cookie = cookie
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if rateLimit, ok := flags["rate-limit"].(int); ok && rateLimit > 0 {
		c.RateLimit.RequestsPerMinute = rateLimit
	}
	if timeout, ok := flags["timeout"].(time.Duration); ok && timeout > 0 {
		c.Download.DownloadTimeout = timeout
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".xhscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
