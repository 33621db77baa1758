package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// MaxConfigFileBytes caps the size of a YAML config file.
const MaxConfigFileBytes = 64 << 10

// DefaultsConfig contains the process-wide parameters shared by both nodes.
type DefaultsConfig struct {
	DebugLevel   int    `yaml:"debug_level"`     // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	GPIODriver   string `yaml:"gpio_driver"`     // "mock", "rpio" or "periph"
	LogFile      string `yaml:"log_file"`        // optional rotating log file
	LogMaxSizeMB int    `yaml:"log_max_size_mb"` // rotation size, default 10
}

// WifiConfig describes how the node waits for its wireless link.
type WifiConfig struct {
	Interface   string `yaml:"interface"`   // e.g. "wlan0"; empty skips the wait
	Credentials string `yaml:"credentials"` // wlan.ini path, logged only
	Attempts    int    `yaml:"attempts"`    // joystick only, default 15; the rover retries forever
	IntervalMs  int    `yaml:"interval_ms"`
}

// LEDConfig holds the status LED pins (BCM). 0 = not fitted.
type LEDConfig struct {
	Red    int `yaml:"red"`
	Yellow int `yaml:"yellow"`
	Green  int `yaml:"green"`
}

// ValidateConfigPath accepts only .yaml files located directly in a configs/ directory.
func ValidateConfigPath(path string) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	clean := filepath.Clean(path)
	if filepath.Ext(clean) != ".yaml" {
		return fmt.Errorf("config file %q must have a .yaml extension", path)
	}
	abs, err := filepath.Abs(clean)
	if err != nil {
		return fmt.Errorf("resolve config path %q: %w", path, err)
	}
	if filepath.Base(filepath.Dir(abs)) != "configs" {
		return fmt.Errorf("config file %q must be in a configs/ directory", path)
	}
	return nil
}

// readYAML decodes path into out, refusing oversized files.
func readYAML(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxConfigFileBytes+1))
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if len(data) > MaxConfigFileBytes {
		return fmt.Errorf("config file %q exceeds %d bytes", path, MaxConfigFileBytes)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("config file %q is empty", path)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal yaml: %w", err)
	}
	return nil
}

// applyEnv overlays environment variables on v. Unset variables keep the
// values already in v.
func applyEnv(v interface{}) error {
	if err := env.Parse(v); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}

func (d *DefaultsConfig) applyDefaults() {
	if d.GPIODriver == "" {
		d.GPIODriver = "mock"
	}
	if d.LogMaxSizeMB <= 0 {
		d.LogMaxSizeMB = 10
	}
}

func (d *DefaultsConfig) validate() error {
	if d.DebugLevel < 0 || d.DebugLevel > 4 {
		return fmt.Errorf("debug_level must be between 0 and 4, got %d", d.DebugLevel)
	}
	switch d.GPIODriver {
	case "mock", "rpio", "periph":
	default:
		return fmt.Errorf("gpio_driver must be mock, rpio or periph, got %q", d.GPIODriver)
	}
	return nil
}

func (w *WifiConfig) applyDefaults() {
	if w.IntervalMs <= 0 {
		w.IntervalMs = 1000
	}
}

func (w *WifiConfig) validate() error {
	if w.Attempts < 0 {
		return fmt.Errorf("wifi.attempts must be >= 0, got %d", w.Attempts)
	}
	return nil
}

// Interval returns the pause between association attempts.
func (w WifiConfig) Interval() time.Duration {
	return time.Duration(w.IntervalMs) * time.Millisecond
}
