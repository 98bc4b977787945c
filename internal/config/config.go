// Package config provides configuration management for the scraper.
// It handles loading, validation, and access to configuration values from
// YAML files and environment variables via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonesrussell/newscope/internal/logger"
)

// Default configuration values.
const (
	// DefaultHTTPTimeout is the per-attempt timeout for static HTTP fetches.
	DefaultHTTPTimeout = 12 * time.Second
	// DefaultBrowserTimeout is the per-attempt timeout for headless browser fetches.
	DefaultBrowserTimeout = 60 * time.Second
	// DefaultRedirectTimeout is the per-probe timeout for redirect resolution.
	DefaultRedirectTimeout = 15 * time.Second
	// DefaultMaxRedirects is the maximum number of redirect hops to follow.
	DefaultMaxRedirects = 5
	// DefaultMaxLinks is the maximum number of article links returned per source page.
	DefaultMaxLinks = 50
	// DefaultUserAgent identifies the scraper to remote servers.
	DefaultUserAgent = "newscope/1.0"
	// DefaultBrowserRetries is the number of browser fetch attempts on transient errors.
	DefaultBrowserRetries = 2
	// DefaultBrowserRetryDelay is the fixed backoff between browser fetch attempts.
	DefaultBrowserRetryDelay = 2 * time.Second
	// DefaultAIModel is the Anthropic model used for structure detection.
	DefaultAIModel = "claude-3-5-haiku-latest"
	// DefaultAIMaxTokens is the response token budget for structure detection.
	DefaultAIMaxTokens = 1024
)

// Config represents the application configuration.
type Config struct {
	// Fetch holds fetching configuration for both methods
	Fetch FetchConfig `yaml:"fetch" mapstructure:"fetch"`
	// Redirect holds redirect resolution configuration
	Redirect RedirectConfig `yaml:"redirect" mapstructure:"redirect"`
	// AI holds structure-detection AI configuration
	AI AIConfig `yaml:"ai" mapstructure:"ai"`
	// Scraper holds orchestrator configuration
	Scraper ScraperConfig `yaml:"scraper" mapstructure:"scraper"`
	// Logger holds logging configuration
	Logger logger.Config `yaml:"logger" mapstructure:"logger"`
}

// FetchConfig configures the static HTTP and headless browser fetchers.
type FetchConfig struct {
	// HTTPTimeout is the timeout for a static HTTP fetch attempt
	HTTPTimeout time.Duration `env:"SCRAPER_HTTP_TIMEOUT" yaml:"http_timeout" mapstructure:"http_timeout"`
	// BrowserTimeout is the timeout for a headless browser fetch attempt
	BrowserTimeout time.Duration `env:"SCRAPER_BROWSER_TIMEOUT" yaml:"browser_timeout" mapstructure:"browser_timeout"`
	// BrowserRetries is the number of browser fetch attempts
	BrowserRetries int `env:"SCRAPER_BROWSER_RETRIES" yaml:"browser_retries" mapstructure:"browser_retries"`
	// BrowserRetryDelay is the backoff between browser attempts
	BrowserRetryDelay time.Duration `env:"SCRAPER_BROWSER_RETRY_DELAY" yaml:"browser_retry_delay" mapstructure:"browser_retry_delay"`
	// UserAgent is the user agent for outbound requests
	UserAgent string `env:"SCRAPER_USER_AGENT" yaml:"user_agent" mapstructure:"user_agent"`
}

// RedirectConfig configures redirect chain resolution.
type RedirectConfig struct {
	// MaxRedirects is the maximum number of hops to follow
	MaxRedirects int `env:"SCRAPER_MAX_REDIRECTS" yaml:"max_redirects" mapstructure:"max_redirects"`
	// Timeout is the per-probe timeout
	Timeout time.Duration `env:"SCRAPER_REDIRECT_TIMEOUT" yaml:"timeout" mapstructure:"timeout"`
	// FollowMetaRefresh enables meta-refresh tag following
	FollowMetaRefresh bool `env:"SCRAPER_FOLLOW_META_REFRESH" yaml:"follow_meta_refresh" mapstructure:"follow_meta_refresh"`
	// FollowJavaScript enables JavaScript redirect pattern following
	FollowJavaScript bool `env:"SCRAPER_FOLLOW_JS_REDIRECTS" yaml:"follow_javascript" mapstructure:"follow_javascript"`
}

// AIConfig configures the structure-detection AI collaborator.
type AIConfig struct {
	// APIKey is the Anthropic API key. Empty disables AI detection
	// and the detector falls back to generic selectors.
	APIKey string `env:"ANTHROPIC_API_KEY" yaml:"api_key" mapstructure:"api_key"`
	// Model is the model identifier
	Model string `env:"SCRAPER_AI_MODEL" yaml:"model" mapstructure:"model"`
	// MaxTokens is the response token budget
	MaxTokens int `env:"SCRAPER_AI_MAX_TOKENS" yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ScraperConfig configures the orchestrator.
type ScraperConfig struct {
	// MaxLinks caps the number of links returned per source page
	MaxLinks int `env:"SCRAPER_MAX_LINKS" yaml:"max_links" mapstructure:"max_links"`
	// IncludePatterns restricts source links to URLs containing any of these substrings
	IncludePatterns []string `yaml:"include_patterns" mapstructure:"include_patterns"`
	// ExcludePatterns drops source links containing any of these substrings
	ExcludePatterns []string `yaml:"exclude_patterns" mapstructure:"exclude_patterns"`
}

// WithDefaults returns a copy of the config with default values applied for zero-value fields.
func (c Config) WithDefaults() Config {
	if c.Fetch.HTTPTimeout <= 0 {
		c.Fetch.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.Fetch.BrowserTimeout <= 0 {
		c.Fetch.BrowserTimeout = DefaultBrowserTimeout
	}
	if c.Fetch.BrowserRetries <= 0 {
		c.Fetch.BrowserRetries = DefaultBrowserRetries
	}
	if c.Fetch.BrowserRetryDelay <= 0 {
		c.Fetch.BrowserRetryDelay = DefaultBrowserRetryDelay
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = DefaultUserAgent
	}
	if c.Redirect.MaxRedirects <= 0 {
		c.Redirect.MaxRedirects = DefaultMaxRedirects
	}
	if c.Redirect.Timeout <= 0 {
		c.Redirect.Timeout = DefaultRedirectTimeout
	}
	if c.AI.Model == "" {
		c.AI.Model = DefaultAIModel
	}
	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = DefaultAIMaxTokens
	}
	if c.Scraper.MaxLinks <= 0 {
		c.Scraper.MaxLinks = DefaultMaxLinks
	}
	return c
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Fetch.HTTPTimeout <= 0 {
		return errors.New("fetch: http_timeout must be positive")
	}
	if c.Fetch.BrowserTimeout <= 0 {
		return errors.New("fetch: browser_timeout must be positive")
	}
	if c.Redirect.MaxRedirects <= 0 {
		return errors.New("redirect: max_redirects must be positive")
	}
	if c.Scraper.MaxLinks <= 0 {
		return errors.New("scraper: max_links must be positive")
	}
	return nil
}

// Load loads configuration from the given file path (optional) plus
// environment variables, applies defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Config file is optional: defaults and environment variables suffice.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg = cfg.WithDefaults()
	bindEnvOverrides(v, &cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// bindEnvOverrides applies a small set of environment variables that do not
// map cleanly through Viper's key replacer (secrets in particular).
func bindEnvOverrides(v *viper.Viper, cfg *Config) {
	if key := v.GetString("ANTHROPIC_API_KEY"); key != "" {
		cfg.AI.APIKey = key
	}
	if ua := v.GetString("SCRAPER_USER_AGENT"); ua != "" {
		cfg.Fetch.UserAgent = ua
	}
}
