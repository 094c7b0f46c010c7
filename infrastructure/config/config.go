// Package config loads settings from .env, an optional YAML file and the
// environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	defaultListenAddr      = ":8080"
	defaultDriver          = DriverPlaywright
	defaultViewportWidth   = 1920
	defaultViewportHeight  = 1080
	defaultSettleDelay     = 500 * time.Millisecond
	defaultNavTimeout      = 30 * time.Second
	defaultAnalysisTimeout = 60 * time.Second
	defaultArtifactPath    = "vips-model.json"
	defaultDisplayWidth    = 1280
	defaultMaxDisplayWidth = 3840
	defaultResultCacheTTL  = 2 * time.Minute
	defaultOutputDir       = "."
	defaultLogLevel        = "info"
)

// Viewport every analysis is specified against.
const (
	StandardViewportWidth  = defaultViewportWidth
	StandardViewportHeight = defaultViewportHeight
)

// Supported browser drivers.
const (
	DriverPlaywright = "playwright"
	DriverRod        = "rod"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Browser  BrowserConfig  `yaml:"browser"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Overlay  OverlayConfig  `yaml:"overlay"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	Debug      bool   `yaml:"debug"`
}

// BrowserConfig configures the automation driver.
type BrowserConfig struct {
	Driver         string        `yaml:"driver"`
	Headless       bool          `yaml:"headless"`
	ExecutablePath string        `yaml:"executable_path"`
	RemoteURL      string        `yaml:"remote_url"`
	Stealth        bool          `yaml:"stealth"`
	ViewportWidth  int           `yaml:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height"`
	SettleDelay    time.Duration `yaml:"settle_delay"`
	NavTimeout     time.Duration `yaml:"nav_timeout"`
	UserAgent      string        `yaml:"user_agent"`
	Args           []string      `yaml:"args"`
}

// AnalysisConfig configures a single analysis request.
type AnalysisConfig struct {
	Timeout             time.Duration `yaml:"timeout"`
	ArtifactPath        string        `yaml:"artifact_path"`
	DeniedHosts         []string      `yaml:"denied_hosts"`
	AllowPrivateTargets bool          `yaml:"allow_private_targets"`
}

// OverlayConfig configures server-side overlay rendering.
type OverlayConfig struct {
	DisplayWidth      int           `yaml:"display_width"`
	MaxDisplayWidth   int           `yaml:"max_display_width"`
	RecomputeOnResize bool          `yaml:"recompute_on_resize"`
	OutputDir         string        `yaml:"output_dir"`
	ResultCacheTTL    time.Duration `yaml:"result_cache_ttl"`
}

// StandardViewport reports whether the viewport matches the 1920x1080
// window importance scores are calibrated for.
func (b BrowserConfig) StandardViewport() bool {
	return b.ViewportWidth == StandardViewportWidth && b.ViewportHeight == StandardViewportHeight
}

// LoggingConfig configures logrus.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load reads .env (optional), then path if non-empty, then VIPS_*
// environment variables, and validates the result.
func Load(path string) (*Config, error) {
	// .env file is optional
	_ = godotenv.Load()

	cfg := &Config{}
	setDefaults(cfg)

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Server.ListenAddr = defaultListenAddr
	cfg.Browser.Driver = defaultDriver
	cfg.Browser.Headless = true
	cfg.Browser.ViewportWidth = defaultViewportWidth
	cfg.Browser.ViewportHeight = defaultViewportHeight
	cfg.Browser.SettleDelay = defaultSettleDelay
	cfg.Browser.NavTimeout = defaultNavTimeout
	cfg.Analysis.Timeout = defaultAnalysisTimeout
	cfg.Analysis.ArtifactPath = defaultArtifactPath
	cfg.Analysis.AllowPrivateTargets = true
	cfg.Overlay.DisplayWidth = defaultDisplayWidth
	cfg.Overlay.MaxDisplayWidth = defaultMaxDisplayWidth
	cfg.Overlay.ResultCacheTTL = defaultResultCacheTTL
	cfg.Overlay.OutputDir = defaultOutputDir
	cfg.Logging.Level = defaultLogLevel
}

func applyEnv(cfg *Config) error {
	var errs []error

	setString(&cfg.Server.ListenAddr, "VIPS_LISTEN_ADDR")
	errs = append(errs, setBool(&cfg.Server.Debug, "VIPS_DEBUG"))

	setString(&cfg.Browser.Driver, "VIPS_BROWSER_DRIVER")
	errs = append(errs, setBool(&cfg.Browser.Headless, "VIPS_BROWSER_HEADLESS"))
	setString(&cfg.Browser.ExecutablePath, "VIPS_BROWSER_EXECUTABLE")
	setString(&cfg.Browser.RemoteURL, "VIPS_BROWSER_REMOTE_URL")
	errs = append(errs, setBool(&cfg.Browser.Stealth, "VIPS_BROWSER_STEALTH"))
	setString(&cfg.Browser.UserAgent, "VIPS_BROWSER_USER_AGENT")
	errs = append(errs, setDuration(&cfg.Browser.SettleDelay, "VIPS_BROWSER_SETTLE_DELAY"))
	errs = append(errs, setDuration(&cfg.Browser.NavTimeout, "VIPS_BROWSER_NAV_TIMEOUT"))

	errs = append(errs, setDuration(&cfg.Analysis.Timeout, "VIPS_ANALYSIS_TIMEOUT"))
	if v, ok := os.LookupEnv("VIPS_ARTIFACT_PATH"); ok {
		cfg.Analysis.ArtifactPath = v
	}
	if v := strings.TrimSpace(os.Getenv("VIPS_DENIED_HOSTS")); v != "" {
		cfg.Analysis.DeniedHosts = strings.Split(v, ",")
	}
	errs = append(errs, setBool(&cfg.Analysis.AllowPrivateTargets, "VIPS_ALLOW_PRIVATE_TARGETS"))

	errs = append(errs, setInt(&cfg.Overlay.DisplayWidth, "VIPS_DISPLAY_WIDTH"))
	errs = append(errs, setInt(&cfg.Overlay.MaxDisplayWidth, "VIPS_MAX_DISPLAY_WIDTH"))
	errs = append(errs, setBool(&cfg.Overlay.RecomputeOnResize, "VIPS_RECOMPUTE_ON_RESIZE"))
	errs = append(errs, setDuration(&cfg.Overlay.ResultCacheTTL, "VIPS_RESULT_CACHE_TTL"))
	setString(&cfg.Overlay.OutputDir, "VIPS_OUTPUT_DIR")

	setString(&cfg.Logging.Level, "VIPS_LOG_LEVEL")
	errs = append(errs, setBool(&cfg.Logging.JSON, "VIPS_LOG_JSON"))

	return errors.Join(errs...)
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Browser.Driver {
	case DriverPlaywright, DriverRod:
	default:
		errs = append(errs, fmt.Errorf("browser.driver: unsupported driver %q", c.Browser.Driver))
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		errs = append(errs, errors.New("browser.viewport: width and height must be positive"))
	}
	if c.Browser.SettleDelay < 0 {
		errs = append(errs, errors.New("browser.settle_delay: must not be negative"))
	}
	if c.Browser.NavTimeout <= 0 {
		errs = append(errs, errors.New("browser.nav_timeout: must be positive"))
	}
	if c.Analysis.Timeout <= 0 {
		errs = append(errs, errors.New("analysis.timeout: must be positive"))
	}
	if c.Overlay.DisplayWidth <= 0 {
		errs = append(errs, errors.New("overlay.display_width: must be positive"))
	}
	if c.Overlay.MaxDisplayWidth < c.Overlay.DisplayWidth {
		errs = append(errs, errors.New("overlay.max_display_width: must be at least display_width"))
	}
	if c.Overlay.ResultCacheTTL < 0 {
		errs = append(errs, errors.New("overlay.result_cache_ttl: must not be negative"))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
