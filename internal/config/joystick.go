package config

import (
	"fmt"
	"time"

	"github.com/cjeanneret/GoRover/internal/link"
	"github.com/cjeanneret/GoRover/internal/logic/command"
	"github.com/cjeanneret/GoRover/internal/logic/encoder"
)

// StickConfig wires the analog stick and its button.
type StickConfig struct {
	ADC       string `yaml:"adc"`        // "mock" or "mcp3008"
	SPIDevice string `yaml:"spi_device"` // periph SPI port name, "" = first
	XChannel  int    `yaml:"x_channel"`
	YChannel  int    `yaml:"y_channel"`
	ButtonPin int    `yaml:"button_pin"`
	LEDPin    int    `yaml:"led_pin"` // lights while the button is held, 0 = none
}

// EncoderConfig holds the sampling parameters.
type EncoderConfig struct {
	PeriodMs   int                `yaml:"period_ms"` // default 200
	Thresholds command.Thresholds `yaml:"thresholds"`
}

// DefaultWifiAttempts bounds the joystick association wait (one per interval).
const DefaultWifiAttempts = 15

// LinkConfig locates the rover.
type LinkConfig struct {
	RoverAddr string `yaml:"rover_addr"` // host:port
	TimeoutMs int    `yaml:"timeout_ms"` // 0 = transport defaults
}

// JoystickConfig aggregates the controller configuration.
type JoystickConfig struct {
	Stick     StickConfig    `yaml:"stick"`
	Encoder   EncoderConfig  `yaml:"encoder"`
	Link      LinkConfig     `yaml:"link"`
	StatusLED LEDConfig      `yaml:"status_led"`
	Wifi      WifiConfig     `yaml:"wifi"`
	Defaults  DefaultsConfig `yaml:"defaults"`
}

type joystickEnv struct {
	DebugLevel int    `env:"GOROVER_DEBUG_LEVEL"`
	GPIODriver string `env:"GOROVER_GPIO_DRIVER"`
	RoverAddr  string `env:"GOROVER_ROVER_ADDR"`
}

// LoadJoystick reads a joystick YAML file, applies defaults and environment
// overrides, then validates.
func LoadJoystick(path string) (*JoystickConfig, error) {
	var cfg JoystickConfig
	if err := readYAML(path, &cfg); err != nil {
		return nil, err
	}

	ov := joystickEnv{
		DebugLevel: cfg.Defaults.DebugLevel,
		GPIODriver: cfg.Defaults.GPIODriver,
		RoverAddr:  cfg.Link.RoverAddr,
	}
	if err := applyEnv(&ov); err != nil {
		return nil, err
	}
	cfg.Defaults.DebugLevel = ov.DebugLevel
	cfg.Defaults.GPIODriver = ov.GPIODriver
	cfg.Link.RoverAddr = ov.RoverAddr

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *JoystickConfig) applyDefaults() {
	c.Defaults.applyDefaults()
	c.Wifi.applyDefaults()
	if c.Wifi.Attempts == 0 {
		c.Wifi.Attempts = DefaultWifiAttempts
	}
	if c.Stick.ADC == "" {
		c.Stick.ADC = "mock"
	}
	if c.Encoder.PeriodMs <= 0 {
		c.Encoder.PeriodMs = int(encoder.DefaultPeriod / time.Millisecond)
	}
	if c.Encoder.Thresholds == (command.Thresholds{}) {
		c.Encoder.Thresholds = command.DefaultThresholds()
	}
	if c.Link.RoverAddr == "" {
		c.Link.RoverAddr = link.DefaultRoverAddr
	}
}

func (c *JoystickConfig) validate() error {
	if err := c.Defaults.validate(); err != nil {
		return err
	}
	if err := c.Wifi.validate(); err != nil {
		return err
	}
	if err := c.Encoder.Thresholds.Validate(); err != nil {
		return fmt.Errorf("encoder.thresholds: %w", err)
	}
	if c.Stick.XChannel == c.Stick.YChannel {
		return fmt.Errorf("stick: x_channel and y_channel must differ")
	}
	if c.Stick.ButtonPin <= 0 {
		return fmt.Errorf("stick.button_pin is required")
	}
	if c.Link.TimeoutMs < 0 {
		return fmt.Errorf("link.timeout_ms must be >= 0, got %d", c.Link.TimeoutMs)
	}
	return nil
}

// Period returns the sampling period.
func (c *JoystickConfig) Period() time.Duration {
	return time.Duration(c.Encoder.PeriodMs) * time.Millisecond
}

// Timeout returns the request timeout, 0 meaning none.
func (c *JoystickConfig) Timeout() time.Duration {
	return time.Duration(c.Link.TimeoutMs) * time.Millisecond
}
