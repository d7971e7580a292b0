// Package config contains configuration types for flingrecv.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	kdl "github.com/sblinch/kdl-go"
)

// FileName is the name of the flingrecv configuration file.
const FileName = ".flingrecv.kdl"

// Config is the receiver configuration.
type Config struct {
	// Receiver holds application identity settings.
	Receiver *ReceiverConfig `kdl:"receiver"`

	// Daemon locates the local fling daemon.
	Daemon *DaemonConfig `kdl:"daemon"`
}

// ReceiverConfig identifies the receiver application.
type ReceiverConfig struct {
	// AppID is the application id stamped on daemon messages.
	AppID string `kdl:"app-id"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `kdl:"log-level"`
}

// DaemonConfig locates the daemon endpoints.
type DaemonConfig struct {
	Host string `kdl:"host"`
	// Port is the registration/heartbeat endpoint port.
	Port int `kdl:"port"`
	// ChannelPort is the session channel endpoint port.
	ChannelPort int `kdl:"channel-port"`
}

// Default returns a config with the conventional daemon ports.
func Default() *Config {
	return &Config{
		Receiver: &ReceiverConfig{
			AppID:    "~browser",
			LogLevel: "info",
		},
		Daemon: &DaemonConfig{
			Host:        "127.0.0.1",
			Port:        9431,
			ChannelPort: 9439,
		},
	}
}

// Load reads configuration from dir, walking up to parent directories
// until a config file is found. Missing files yield the defaults.
func Load(dir string) (*Config, error) {
	path := FindFile(dir)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// FindFile searches for .flingrecv.kdl starting from dir and walking up.
func FindFile(dir string) string {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(absDir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(absDir)
		if parent == absDir {
			break
		}
		absDir = parent
	}

	return ""
}

// LoadFile loads configuration from a specific file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(string(data))
}

// Parse parses KDL configuration data over the defaults.
func Parse(data string) (*Config, error) {
	cfg := Default()
	if err := kdl.Unmarshal([]byte(data), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Unmarshal may null out omitted blocks; restore defaults for those.
	if cfg.Receiver == nil {
		cfg.Receiver = Default().Receiver
	}
	if cfg.Daemon == nil {
		cfg.Daemon = Default().Daemon
	}
	if cfg.Receiver.AppID == "" {
		cfg.Receiver.AppID = "~browser"
	}
	if cfg.Daemon.Host == "" {
		cfg.Daemon.Host = "127.0.0.1"
	}
	if cfg.Daemon.Port == 0 {
		cfg.Daemon.Port = 9431
	}
	if cfg.Daemon.ChannelPort == 0 {
		cfg.Daemon.ChannelPort = 9439
	}

	return cfg, nil
}
