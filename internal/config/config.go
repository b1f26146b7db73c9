package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultAPIBaseURL   = "https://api.slingacademy.com/v1/sample-data/blog-posts"
	defaultShareBaseURL = "http://localhost:8080"
	defaultDBPath       = "postdeck.db"
	defaultPageLimit    = 10
	defaultFetchTimeout = 15 * time.Second
	defaultLogLevel     = "info"
	defaultListenAddr   = ":8080"

	maxPageLimit = 100
)

// Config holds runtime settings for the CLI app.
type Config struct {
	APIBaseURL   string        `yaml:"api_base_url"`
	ShareBaseURL string        `yaml:"share_base_url"`
	DBPath       string        `yaml:"db_path"`
	PageLimit    int           `yaml:"page_limit"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	LogFile      string        `yaml:"log_file"`
	LogLevel     string        `yaml:"log_level"`
	ListenAddr   string        `yaml:"listen_addr"`
}

func Defaults() Config {
	return Config{
		APIBaseURL:   defaultAPIBaseURL,
		ShareBaseURL: defaultShareBaseURL,
		DBPath:       defaultDBPath,
		PageLimit:    defaultPageLimit,
		FetchTimeout: defaultFetchTimeout,
		LogLevel:     defaultLogLevel,
		ListenAddr:   defaultListenAddr,
	}
}

// LoadFromEnv loads configuration using POSTDECK_CONFIG as the optional
// YAML file.
func LoadFromEnv() (Config, error) {
	return Load(os.Getenv("POSTDECK_CONFIG"))
}

// Override adjusts a loaded config before it is validated. Command-line
// flags use it so they win over every other source.
type Override func(*Config)

// Load layers defaults, the YAML file at path (skipped when empty), a .env
// file in the working directory, the process environment and finally the
// overrides. The result is validated once, after all layers.
func Load(path string, overrides ...Override) (Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.mergeEnv(); err != nil {
		return Config{}, err
	}

	for _, o := range overrides {
		if o != nil {
			o(&cfg)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.overlay(fileCfg)
	return nil
}

// WithPageLimit replaces the page limit from any earlier source.
func WithPageLimit(n int) Override {
	return func(c *Config) { c.PageLimit = n }
}

func (c *Config) overlay(o Config) {
	if o.APIBaseURL != "" {
		c.APIBaseURL = o.APIBaseURL
	}
	if o.ShareBaseURL != "" {
		c.ShareBaseURL = o.ShareBaseURL
	}
	if o.DBPath != "" {
		c.DBPath = o.DBPath
	}
	if o.PageLimit != 0 {
		c.PageLimit = o.PageLimit
	}
	if o.FetchTimeout != 0 {
		c.FetchTimeout = o.FetchTimeout
	}
	if o.LogFile != "" {
		c.LogFile = o.LogFile
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.ListenAddr != "" {
		c.ListenAddr = o.ListenAddr
	}
}

func (c *Config) mergeEnv() error {
	env := Config{
		APIBaseURL:   os.Getenv("POSTDECK_API_BASE_URL"),
		ShareBaseURL: os.Getenv("POSTDECK_SHARE_BASE_URL"),
		DBPath:       os.Getenv("POSTDECK_DB_PATH"),
		LogFile:      os.Getenv("POSTDECK_LOG_FILE"),
		LogLevel:     os.Getenv("POSTDECK_LOG_LEVEL"),
		ListenAddr:   os.Getenv("POSTDECK_LISTEN_ADDR"),
	}
	if raw := strings.TrimSpace(os.Getenv("POSTDECK_PAGE_LIMIT")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("POSTDECK_PAGE_LIMIT must be an integer: %s", raw)
		}
		env.PageLimit = n
	}
	if raw := strings.TrimSpace(os.Getenv("POSTDECK_FETCH_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("POSTDECK_FETCH_TIMEOUT must be a duration: %s", raw)
		}
		env.FetchTimeout = d
	}
	c.overlay(env)
	return nil
}

func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("APIBaseURL is required")
	}
	if c.APIBaseURL[len(c.APIBaseURL)-1] == '/' {
		return fmt.Errorf("APIBaseURL must not end with '/': %s", c.APIBaseURL)
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("APIBaseURL must be an http(s) URL: %s", c.APIBaseURL)
	}
	if c.ShareBaseURL != "" && strings.HasSuffix(c.ShareBaseURL, "/") {
		return fmt.Errorf("ShareBaseURL must not end with '/': %s", c.ShareBaseURL)
	}
	if c.DBPath == "" {
		return errors.New("DBPath is required")
	}
	if c.PageLimit < 1 || c.PageLimit > maxPageLimit {
		return fmt.Errorf("PageLimit must be between 1 and %d: %d", maxPageLimit, c.PageLimit)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FetchTimeout must be positive: %s", c.FetchTimeout)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LogLevel must be debug, info, warn or error: %s", name)
	}
}
