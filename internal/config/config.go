// Package config loads lessonpanel settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"lessonpanel/internal/logging"
)

// Config holds all lessonpanel configuration.
type Config struct {
	// Application server the panel talks to
	Site SiteConfig `yaml:"site"`

	// Chart loading and rendering
	Charts ChartsConfig `yaml:"charts"`

	// Notification mark-read behaviour
	Notify NotifyConfig `yaml:"notify"`

	// Live browser sessions
	Browser BrowserConfig `yaml:"browser"`

	// Demo server
	Fixture FixtureConfig `yaml:"fixture"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:    "http://localhost:8000",
			CSRFCookie: "csrftoken",
			CSRFHeader: "X-CSRFToken",
			ReadPath:   "/notification/read/{id}/",
		},
		Charts: ChartsConfig{
			Renderer:    RendererChartJS,
			ImageWidth:  640,
			ImageHeight: 400,
		},
		Notify: NotifyConfig{
			RequestTimeout: "0s",
		},
		Browser: BrowserConfig{
			Headless:          true,
			NavigationTimeout: "30s",
			SessionStore:      filepath.Join(".lessonpanel", "sessions.json"),
		},
		Fixture: FixtureConfig{
			Addr: "127.0.0.1:8000",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		logging.BootDebug("config file not found, using defaults")
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LESSONPANEL_BASE_URL"); v != "" {
		c.Site.BaseURL = v
	}
	if v := os.Getenv("LESSONPANEL_CSRF_COOKIE"); v != "" {
		c.Site.CSRFCookie = v
	}
	if v := os.Getenv("LESSONPANEL_RENDERER"); v != "" {
		c.Charts.Renderer = strings.ToLower(v)
	}
	if v := os.Getenv("LESSONPANEL_DEBUGGER_URL"); v != "" {
		c.Browser.DebuggerURL = v
	}
	if v := os.Getenv("LESSONPANEL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Site.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("site.base_url %q must be an absolute URL", c.Site.BaseURL))
	}
	if c.Site.CSRFCookie == "" {
		errs = append(errs, fmt.Errorf("site.csrf_cookie is required"))
	}
	if !strings.Contains(c.Site.ReadPath, "{id}") {
		errs = append(errs, fmt.Errorf("site.read_path %q must contain {id}", c.Site.ReadPath))
	}

	if !isValidRenderer(c.Charts.Renderer) {
		errs = append(errs, fmt.Errorf("invalid charts.renderer: %s (valid: %v)", c.Charts.Renderer, ValidRenderers))
	}
	for i, ct := range c.Charts.Contracts {
		if err := ct.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("charts.contracts[%d]: %w", i, err))
		}
	}

	for name, v := range map[string]string{
		"notify.request_timeout":     c.Notify.RequestTimeout,
		"browser.navigation_timeout": c.Browser.NavigationTimeout,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	return errors.Join(errs...)
}

// GetRequestTimeout returns the mark-read request timeout. Zero means none.
func (c *Config) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Notify.RequestTimeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// GetNavigationTimeout returns the browser navigation timeout.
func (c *Config) GetNavigationTimeout() time.Duration {
	d, err := time.ParseDuration(c.Browser.NavigationTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
