package wiki

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultUserAgent identifies the server to the wiki
	DefaultUserAgent = "WikiPageMCPServer/1.0 (https://github.com/olgasafonova/wikipage-mcp-server)"

	// DefaultMaxEditSize matches MediaWiki's default $wgMaxArticleSize of 2048 KB
	DefaultMaxEditSize = 2048 * 1024

	// DefaultMaxConcurrent bounds parallel API requests per site
	DefaultMaxConcurrent = 8
)

// Config holds MediaWiki connection settings
type Config struct {
	// BaseURL is the wiki API endpoint (e.g., https://wiki.example.com/api.php)
	BaseURL string `mapstructure:"url"`

	// Username for bot password authentication (optional, for editing)
	Username string `mapstructure:"username"`

	// Password for bot password authentication (optional, for editing)
	Password string `mapstructure:"password"`

	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	UserAgent  string        `mapstructure:"user_agent"`

	// ForceLogin makes every write assert a logged-in user
	ForceLogin bool `mapstructure:"force_login"`

	// MaxEditSize caps edit content in bytes; 0 disables the check
	MaxEditSize int `mapstructure:"max_edit_size"`

	LogLevel string `mapstructure:"log_level"`

	// HTTPAddr switches the server from stdio to streamable HTTP when set
	HTTPAddr string `mapstructure:"http_addr"`

	// MaxConcurrent caps in-flight API requests; 0 means unlimited
	MaxConcurrent int `mapstructure:"max_concurrent"`

	// Circuit breaker around the wiki API; zero values keep the breaker defaults
	CircuitFailureThreshold int           `mapstructure:"circuit_failure_threshold"`
	CircuitResetTimeout     time.Duration `mapstructure:"circuit_reset_timeout"`
	CircuitHalfOpenMax      int           `mapstructure:"circuit_half_open_max"`
}

// LoadConfig reads configuration from MEDIAWIKI_* environment variables and
// an optional wikipage.yml. Environment variables win over the file.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("url", "")
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("timeout", "30s")
	v.SetDefault("max_retries", 3)
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("force_login", false)
	v.SetDefault("max_edit_size", DefaultMaxEditSize)
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", "")
	v.SetDefault("max_concurrent", DefaultMaxConcurrent)
	v.SetDefault("circuit_failure_threshold", 5)
	v.SetDefault("circuit_reset_timeout", "30s")
	v.SetDefault("circuit_half_open_max", 2)

	v.SetConfigName("wikipage")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/wikipage")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("MEDIAWIKI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings LoadConfig cannot default
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("MEDIAWIKI_URL environment variable is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %s: must be positive", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("invalid max retries %d: must not be negative", c.MaxRetries)
	}
	if c.MaxConcurrent < 0 {
		return fmt.Errorf("invalid max concurrent %d: must not be negative", c.MaxConcurrent)
	}
	if c.CircuitFailureThreshold < 0 || c.CircuitHalfOpenMax < 0 || c.CircuitResetTimeout < 0 {
		return errors.New("circuit breaker settings must not be negative")
	}
	if (c.Username == "") != (c.Password == "") {
		return errors.New("MEDIAWIKI_USERNAME and MEDIAWIKI_PASSWORD must be set together")
	}
	return nil
}

// HasCredentials returns true if authentication credentials are configured
func (c *Config) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}
