package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Tracker configuration
	Tracker TrackerConfig

	// Mute convergence configuration
	Mute MuteConfig

	// Daemon configuration
	Daemon DaemonConfig

	// Log configuration
	Log LogConfig

	// Event history configuration
	History HistoryConfig

	// Web server configuration
	Web WebConfig
}

// TrackerConfig holds polling behavior configuration
type TrackerConfig struct {
	PollInterval    time.Duration `env:"POLL_INTERVAL"` // How often to read the player window title
	MinPollInterval time.Duration // Minimum allowed poll interval
	MaxPollInterval time.Duration // Maximum allowed poll interval
}

// MuteConfig holds the retry policy used when converging the mute flag
type MuteConfig struct {
	Retries    int           `env:"MUTE_RETRIES"`     // SetMute attempts per tick
	RetryDelay time.Duration `env:"MUTE_RETRY_DELAY"` // Wait between failed attempts
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string `env:"PID_FILE"` // Path to PID file for daemon management
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level        string        `env:"LOG_LEVEL"`
	File         string        `env:"LOG_FILE"`          // Empty means no log file
	Stderr       bool          `env:"LOG_STDERR"`        // Also write to stderr when File is set
	WarnInterval time.Duration `env:"LOG_WARN_INTERVAL"` // Minimum gap between repeated warnings
}

// HistoryConfig holds event history configuration
type HistoryConfig struct {
	Enabled bool   `env:"HISTORY"`
	Path    string `env:"HISTORY_PATH"` // Empty means ~/.config/admuter/history.db
}

// WebConfig holds web server configuration
type WebConfig struct {
	Host string `env:"WEB_HOST"`
	Port int    `env:"WEB_PORT"`
}

const (
	maxRetries    = 50
	maxRetryDelay = 5 * time.Second
)

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Tracker: TrackerConfig{
			PollInterval:    1 * time.Second,
			MinPollInterval: 100 * time.Millisecond,
			MaxPollInterval: 60 * time.Second,
		},
		Mute: MuteConfig{
			Retries:    5,
			RetryDelay: 200 * time.Millisecond,
		},
		Daemon: DaemonConfig{
			PIDFile: filepath.Join(os.TempDir(), fmt.Sprintf("admuter-%d.pid", os.Getuid())),
		},
		Log: LogConfig{
			Level:        "info",
			File:         "",
			Stderr:       true,
			WarnInterval: 30 * time.Second,
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    "",
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 10000 + os.Getuid()%50000, // Per-user default port
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Tracker.PollInterval < c.Tracker.MinPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be less than minimum (%v)",
			c.Tracker.PollInterval, c.Tracker.MinPollInterval)
	}

	if c.Tracker.PollInterval > c.Tracker.MaxPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be greater than maximum (%v)",
			c.Tracker.PollInterval, c.Tracker.MaxPollInterval)
	}

	if c.Mute.Retries < 1 || c.Mute.Retries > maxRetries {
		return fmt.Errorf("mute retries must be between 1 and %d, got %d", maxRetries, c.Mute.Retries)
	}

	if c.Mute.RetryDelay < 0 || c.Mute.RetryDelay > maxRetryDelay {
		return fmt.Errorf("mute retry delay must be between 0 and %v, got %v", maxRetryDelay, c.Mute.RetryDelay)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	if c.Log.WarnInterval < 0 {
		return fmt.Errorf("warning interval cannot be negative")
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	return nil
}

// SetPollInterval sets the poll interval with validation
func (c *Config) SetPollInterval(interval time.Duration) error {
	if interval < c.Tracker.MinPollInterval {
		return fmt.Errorf("poll interval cannot be less than %v", c.Tracker.MinPollInterval)
	}
	if interval > c.Tracker.MaxPollInterval {
		return fmt.Errorf("poll interval cannot be greater than %v", c.Tracker.MaxPollInterval)
	}
	c.Tracker.PollInterval = interval
	return nil
}

// SetRetries sets the number of mute attempts per tick with validation
func (c *Config) SetRetries(n int) error {
	if n < 1 || n > maxRetries {
		return fmt.Errorf("mute retries must be between 1 and %d, got %d", maxRetries, n)
	}
	c.Mute.Retries = n
	return nil
}

// SetRetryDelay sets the wait between failed mute attempts with validation
func (c *Config) SetRetryDelay(d time.Duration) error {
	if d < 0 || d > maxRetryDelay {
		return fmt.Errorf("mute retry delay must be between 0 and %v, got %v", maxRetryDelay, d)
	}
	c.Mute.RetryDelay = d
	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Tracker:
    Poll Interval: %v
    Min Interval: %v
    Max Interval: %v
  Mute:
    Retries: %d
    Retry Delay: %v
  Daemon:
    PID File: %s
  Log:
    Level: %s
    File: %s
    Warn Interval: %v
  History:
    Enabled: %v
    Path: %s
  Web:
    Host: %s
    Port: %d`,
		c.Tracker.PollInterval,
		c.Tracker.MinPollInterval,
		c.Tracker.MaxPollInterval,
		c.Mute.Retries,
		c.Mute.RetryDelay,
		c.Daemon.PIDFile,
		c.Log.Level,
		c.Log.File,
		c.Log.WarnInterval,
		c.History.Enabled,
		c.History.Path,
		c.Web.Host,
		c.Web.Port,
	)
}
