// Package config provides configuration management for the Reelcut agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Default values
	DefaultPort           = 8787
	DefaultLogLevel       = "info"
	DefaultDataDir        = ".reelcut"
	DefaultAPIURL         = "http://localhost:8000"
	DefaultOpenAIModel    = "gpt-3.5-turbo"
	DefaultAllowedOrigins = "http://localhost:5173"
	DefaultFFprobe        = "ffprobe"
	DefaultPollIntervalMS = 2000

	// Environment variable names
	EnvAppEnv         = "APP_ENV"
	EnvPort           = "REELCUT_PORT"
	EnvLogLevel       = "REELCUT_LOG_LEVEL"
	EnvDataDir        = "REELCUT_DATA_DIR"
	EnvAPIURL         = "REELCUT_API_URL"
	EnvUseRealBackend = "REELCUT_USE_REAL_BACKEND"
	EnvYoutubeAPIKey  = "REELCUT_YOUTUBE_API_KEY"
	EnvOpenAIAPIKey   = "REELCUT_OPENAI_API_KEY"
	EnvOpenAIModel    = "REELCUT_OPENAI_MODEL"
	EnvAllowedOrigins = "REELCUT_ALLOWED_ORIGINS"
	EnvHeadless       = "REELCUT_HEADLESS"
	EnvFFprobe        = "REELCUT_FFPROBE"
	EnvPollIntervalMS = "REELCUT_POLL_INTERVAL_MS"

	// Database filename
	DBFilename = "reelcut.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	ExportDir() string
	APIURL() string
	UseRealBackend() bool
	YoutubeAPIKey() string
	OpenAIAPIKey() string
	OpenAIModel() string
	AllowedOrigins() []string
	Headless() bool
	FFprobePath() string
	PollInterval() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port           int
	logLevel       string
	dataDir        string
	apiURL         string
	useRealBackend bool
	youtubeAPIKey  string
	openAIAPIKey   string
	openAIModel    string
	allowedOrigins []string
	headless       bool
	ffprobe        string
	pollInterval   time.Duration
}

// New creates a new EnvConfig with defaults and environment variable overrides.
// Outside production a .env file in the working directory is loaded first;
// variables already set in the environment win.
func New() (*EnvConfig, error) {
	if os.Getenv(EnvAppEnv) != "production" {
		_ = godotenv.Load()
	}

	cfg := &EnvConfig{
		port:           DefaultPort,
		logLevel:       DefaultLogLevel,
		dataDir:        defaultDataDir(),
		apiURL:         DefaultAPIURL,
		openAIModel:    DefaultOpenAIModel,
		allowedOrigins: []string{DefaultAllowedOrigins},
		ffprobe:        DefaultFFprobe,
		pollInterval:   DefaultPollIntervalMS * time.Millisecond,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if u := os.Getenv(EnvAPIURL); u != "" {
		cfg.apiURL = strings.TrimRight(u, "/")
	}

	var err error
	if cfg.useRealBackend, err = envBool(EnvUseRealBackend); err != nil {
		return nil, err
	}
	if cfg.headless, err = envBool(EnvHeadless); err != nil {
		return nil, err
	}

	cfg.youtubeAPIKey = os.Getenv(EnvYoutubeAPIKey)
	cfg.openAIAPIKey = os.Getenv(EnvOpenAIAPIKey)

	if m := os.Getenv(EnvOpenAIModel); m != "" {
		cfg.openAIModel = m
	}

	if o := os.Getenv(EnvAllowedOrigins); o != "" {
		cfg.allowedOrigins = splitList(o)
	}

	if f := os.Getenv(EnvFFprobe); f != "" {
		cfg.ffprobe = f
	}

	if ms := os.Getenv(EnvPollIntervalMS); ms != "" {
		n, err := strconv.Atoi(ms)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid %s: must be a positive number of milliseconds", EnvPollIntervalMS)
		}
		cfg.pollInterval = time.Duration(n) * time.Millisecond
	}

	return cfg, nil
}

func envBool(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ExportDir returns the directory EDL exports are written to
func (c *EnvConfig) ExportDir() string {
	return filepath.Join(c.dataDir, "exports")
}

// APIURL returns the processing backend base URL without a trailing slash
func (c *EnvConfig) APIURL() string {
	return c.apiURL
}

// UseRealBackend reports whether uploads go to the backend instead of the
// simulated processor.
func (c *EnvConfig) UseRealBackend() bool {
	return c.useRealBackend
}

func (c *EnvConfig) YoutubeAPIKey() string {
	return c.youtubeAPIKey
}

func (c *EnvConfig) OpenAIAPIKey() string {
	return c.openAIAPIKey
}

func (c *EnvConfig) OpenAIModel() string {
	return c.openAIModel
}

// AllowedOrigins returns the browser origins permitted by CORS
func (c *EnvConfig) AllowedOrigins() []string {
	return c.allowedOrigins
}

// Headless disables the system tray
func (c *EnvConfig) Headless() bool {
	return c.headless
}

func (c *EnvConfig) FFprobePath() string {
	return c.ffprobe
}

// PollInterval returns the backend job status polling interval
func (c *EnvConfig) PollInterval() time.Duration {
	return c.pollInterval
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
