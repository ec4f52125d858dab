package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "poll too fast", mutate: func(c *Config) { c.Tracker.PollInterval = time.Millisecond }, wantErr: "less than minimum"},
		{name: "poll too slow", mutate: func(c *Config) { c.Tracker.PollInterval = time.Hour }, wantErr: "greater than maximum"},
		{name: "zero retries", mutate: func(c *Config) { c.Mute.Retries = 0 }, wantErr: "mute retries"},
		{name: "too many retries", mutate: func(c *Config) { c.Mute.Retries = 51 }, wantErr: "mute retries"},
		{name: "zero delay is fine", mutate: func(c *Config) { c.Mute.RetryDelay = 0 }},
		{name: "negative delay", mutate: func(c *Config) { c.Mute.RetryDelay = -time.Second }, wantErr: "retry delay"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log level"},
		{name: "negative warn interval", mutate: func(c *Config) { c.Log.WarnInterval = -1 }, wantErr: "warning interval"},
		{name: "bad port", mutate: func(c *Config) { c.Web.Port = 70000 }, wantErr: "web port"},
		{name: "empty host", mutate: func(c *Config) { c.Web.Host = "" }, wantErr: "web host"},
		{name: "empty pid file", mutate: func(c *Config) { c.Daemon.PIDFile = "" }, wantErr: "PID file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ADMUTER_POLL_INTERVAL", "500ms")
	t.Setenv("ADMUTER_MUTE_RETRIES", "8")
	t.Setenv("ADMUTER_MUTE_RETRY_DELAY", "50ms")
	t.Setenv("ADMUTER_HISTORY", "true")
	t.Setenv("ADMUTER_HISTORY_PATH", "/tmp/history.db")
	t.Setenv("ADMUTER_LOG_LEVEL", "debug")
	t.Setenv("ADMUTER_WEB_PORT", "18080")

	cfg := Default()
	if err := LoadFromEnv(cfg); err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Tracker.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v, want 500ms", cfg.Tracker.PollInterval)
	}
	if cfg.Mute.Retries != 8 {
		t.Errorf("Retries = %d, want 8", cfg.Mute.Retries)
	}
	if cfg.Mute.RetryDelay != 50*time.Millisecond {
		t.Errorf("RetryDelay = %v, want 50ms", cfg.Mute.RetryDelay)
	}
	if !cfg.History.Enabled || cfg.History.Path != "/tmp/history.db" {
		t.Errorf("History = %+v, want enabled at /tmp/history.db", cfg.History)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
	}
	if cfg.Web.Port != 18080 {
		t.Errorf("Web.Port = %d, want 18080", cfg.Web.Port)
	}

	// untouched values keep their defaults
	if cfg.Tracker.MinPollInterval != Default().Tracker.MinPollInterval {
		t.Errorf("MinPollInterval changed to %v", cfg.Tracker.MinPollInterval)
	}
	if cfg.Web.Host != "localhost" {
		t.Errorf("Web.Host = %s, want localhost", cfg.Web.Host)
	}
}

func TestLoadFromEnvInvalid(t *testing.T) {
	t.Setenv("ADMUTER_MUTE_RETRIES", "many")

	if err := LoadFromEnv(Default()); err == nil {
		t.Fatal("LoadFromEnv() error = nil, want parse error")
	}
}

func TestSetters(t *testing.T) {
	cfg := Default()

	if err := cfg.SetRetries(3); err != nil || cfg.Mute.Retries != 3 {
		t.Errorf("SetRetries(3) = %v, Retries = %d", err, cfg.Mute.Retries)
	}
	if err := cfg.SetRetries(0); err == nil {
		t.Error("SetRetries(0) error = nil")
	}
	if err := cfg.SetRetryDelay(time.Second); err != nil || cfg.Mute.RetryDelay != time.Second {
		t.Errorf("SetRetryDelay(1s) = %v, RetryDelay = %v", err, cfg.Mute.RetryDelay)
	}
	if err := cfg.SetRetryDelay(time.Minute); err == nil {
		t.Error("SetRetryDelay(1m) error = nil")
	}
	if err := cfg.SetWebPort(0); err == nil {
		t.Error("SetWebPort(0) error = nil")
	}
	if err := cfg.SetPollInterval(2 * time.Minute); err == nil {
		t.Error("SetPollInterval(2m) error = nil")
	}
}

func TestString(t *testing.T) {
	s := Default().String()
	for _, want := range []string{"Poll Interval: 1s", "Retries: 5", "Retry Delay: 200ms", "Enabled: false"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q:\n%s", want, s)
		}
	}
}
