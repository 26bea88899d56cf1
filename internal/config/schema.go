package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version        int             `yaml:"version"`
	Server         ServerConfig    `yaml:"server"`
	Prefixes       []string        `yaml:"prefixes"`
	Verbose        bool            `yaml:"verbose"`
	LogLevel       string          `yaml:"log_level,omitempty"` // debug, info, warn, error
	Seed           SeedConfig      `yaml:"seed"`
	Journal        JournalConfig   `yaml:"journal"`
	LastHandleFile string          `yaml:"last_handle_file,omitempty"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	PIDFile         string   `yaml:"pid_file,omitempty"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	IdleTimeout     Duration `yaml:"idle_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64    `yaml:"max_body_bytes"`
}

// Addr returns the host:port listen address
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// SeedConfig points at a YAML file of handles loaded at startup
type SeedConfig struct {
	Path     string   `yaml:"path,omitempty"`
	Watch    bool     `yaml:"watch"`    // re-apply on change
	Debounce Duration `yaml:"debounce"` // delay before re-applying
}

// JournalConfig holds the operation journal settings
type JournalConfig struct {
	Path string `yaml:"path,omitempty"` // empty disables the journal
}

// RateLimitConfig limits request throughput. Zero RPS disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Enabled reports whether rate limiting is on
func (r RateLimitConfig) Enabled() bool {
	return r.RPS > 0
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
