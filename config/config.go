package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds every runtime setting. Precedence, lowest to highest:
// built-in defaults, an optional TOML file named by GMP_CONFIG_FILE,
// environment variables. godotenv loads .env into the environment before
// any of that.
type Config struct {
	ServerPort       string `toml:"server_port"`
	FeedURL          string `toml:"feed_url"`
	ScrapeURL        string `toml:"scrape_url"`
	CacheTTLMinutes  int    `toml:"cache_ttl_minutes"`
	HTTPTimeoutSecs  int    `toml:"http_timeout_seconds"`
	RetryAttempts    int    `toml:"retry_attempts"`
	RequestSpacingMS int    `toml:"request_spacing_ms"`
	LogLevel         string `toml:"log_level"`
}

// Defaults returns the configuration the service runs with when nothing
// overrides it. The scrape URL points at the provider's HTML report page
// and backs the feed up; set it empty to disable the fallback.
func Defaults() *Config {
	return &Config{
		ServerPort:       "8080",
		FeedURL:          "https://www.investorgain.com/gmp-read/331/all/",
		ScrapeURL:        "https://www.investorgain.com/report/live-ipo-gmp/331/all/",
		CacheTTLMinutes:  5,
		HTTPTimeoutSecs:  15,
		RetryAttempts:    3,
		RequestSpacingMS: 500,
		LogLevel:         "info",
	}
}

// LoadConfig assembles the runtime configuration. Problems with the
// optional layers are logged, never fatal; Validate decides what is
// actually unusable.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using system environment variables")
	}

	cfg := Defaults()

	if path := os.Getenv("GMP_CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			logrus.WithError(err).Warnf("Could not read config file %s, continuing without it", path)
		}
	}

	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	c.ServerPort = getEnv("SERVER_PORT", c.ServerPort)
	c.FeedURL = getEnv("GMP_FEED_URL", c.FeedURL)
	c.ScrapeURL = getEnv("GMP_SCRAPE_URL", c.ScrapeURL)
	c.CacheTTLMinutes = getEnvInt("CACHE_TTL_MINUTES", c.CacheTTLMinutes)
	c.HTTPTimeoutSecs = getEnvInt("HTTP_TIMEOUT_SECONDS", c.HTTPTimeoutSecs)
	c.RetryAttempts = getEnvInt("RETRY_ATTEMPTS", c.RetryAttempts)
	c.RequestSpacingMS = getEnvInt("REQUEST_SPACING_MS", c.RequestSpacingMS)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// Validate collects every configuration problem instead of stopping at
// the first one.
func (c *Config) Validate() error {
	var problems []string
	if c.ServerPort == "" {
		problems = append(problems, "server port must not be empty")
	}
	if c.FeedURL == "" {
		problems = append(problems, "feed URL must not be empty")
	}
	if c.CacheTTLMinutes <= 0 {
		problems = append(problems, "cache TTL must be positive")
	}
	if c.HTTPTimeoutSecs <= 0 {
		problems = append(problems, "HTTP timeout must be positive")
	}
	if c.RetryAttempts < 1 {
		problems = append(problems, "retry attempts must be at least 1")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("invalid log level %q", c.LogLevel))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// CacheTTL is the cache validity window; it doubles as the background
// refresh interval.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// HTTPTimeout bounds a single upstream request.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSecs) * time.Second
}

// RequestSpacing is the minimum gap between upstream requests.
func (c *Config) RequestSpacing() time.Duration {
	return time.Duration(c.RequestSpacingMS) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logrus.Warnf("Invalid %s value %q, using %d", key, value, fallback)
		return fallback
	}
	return parsed
}
