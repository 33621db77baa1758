package config

import (
	"fmt"
	"time"

	"github.com/cjeanneret/GoRover/internal/logic/drive"
)

// MotorConfig wires one H-bridge channel.
type MotorConfig struct {
	PWMPin int  `yaml:"pwm_pin"`
	In1Pin int  `yaml:"in1_pin"`
	In2Pin int  `yaml:"in2_pin"`
	Invert bool `yaml:"invert"` // swap direction lines for a motor mounted backwards
}

// DriveConfig holds the actuation parameters.
type DriveConfig struct {
	Speed      float64 `yaml:"speed"`       // percent, default 50
	WindowMs   int     `yaml:"window_ms"`   // pulse length, default 500
	Kinematics string  `yaml:"kinematics"`  // "skid" (default) or "pivot"
	PWMFreqHz  int     `yaml:"pwm_freq_hz"` // default 1000
}

// ServerConfig describes the HTTP command surface.
type ServerConfig struct {
	Port     int `yaml:"port"`      // default 8080
	MaxConns int `yaml:"max_conns"` // default 8
}

// TelemetryConfig enables redis state publishing when RedisAddr is set.
type TelemetryConfig struct {
	RedisAddr string `yaml:"redis_addr"`
	Buffer    int    `yaml:"buffer"`
}

// RoverConfig aggregates the rover configuration.
type RoverConfig struct {
	LeftMotor  MotorConfig     `yaml:"left_motor"`
	RightMotor MotorConfig     `yaml:"right_motor"`
	Drive      DriveConfig     `yaml:"drive"`
	Server     ServerConfig    `yaml:"server"`
	StatusLED  LEDConfig       `yaml:"status_led"`
	Wifi       WifiConfig      `yaml:"wifi"`
	Telemetry  TelemetryConfig `yaml:"telemetry"`
	Defaults   DefaultsConfig  `yaml:"defaults"`
}

type roverEnv struct {
	DebugLevel int    `env:"GOROVER_DEBUG_LEVEL"`
	GPIODriver string `env:"GOROVER_GPIO_DRIVER"`
	Port       int    `env:"GOROVER_LISTEN_PORT"`
	RedisAddr  string `env:"GOROVER_REDIS_ADDR"`
}

// LoadRover reads a rover YAML file, applies defaults and environment
// overrides, then validates.
func LoadRover(path string) (*RoverConfig, error) {
	var cfg RoverConfig
	if err := readYAML(path, &cfg); err != nil {
		return nil, err
	}

	ov := roverEnv{
		DebugLevel: cfg.Defaults.DebugLevel,
		GPIODriver: cfg.Defaults.GPIODriver,
		Port:       cfg.Server.Port,
		RedisAddr:  cfg.Telemetry.RedisAddr,
	}
	if err := applyEnv(&ov); err != nil {
		return nil, err
	}
	cfg.Defaults.DebugLevel = ov.DebugLevel
	cfg.Defaults.GPIODriver = ov.GPIODriver
	cfg.Server.Port = ov.Port
	cfg.Telemetry.RedisAddr = ov.RedisAddr

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	// The rover waits for its link forever.
	cfg.Wifi.Attempts = 0
	return &cfg, nil
}

func (c *RoverConfig) applyDefaults() {
	c.Defaults.applyDefaults()
	c.Wifi.applyDefaults()
	if c.Drive.Speed == 0 {
		c.Drive.Speed = drive.DefaultSpeed
	}
	if c.Drive.WindowMs <= 0 {
		c.Drive.WindowMs = int(drive.DefaultWindow / time.Millisecond)
	}
	if c.Drive.Kinematics == "" {
		c.Drive.Kinematics = drive.Skid.String()
	}
	if c.Drive.PWMFreqHz <= 0 {
		c.Drive.PWMFreqHz = 1000
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxConns <= 0 {
		c.Server.MaxConns = 8
	}
}

func (c *RoverConfig) validate() error {
	if err := c.Defaults.validate(); err != nil {
		return err
	}
	if err := c.Wifi.validate(); err != nil {
		return err
	}
	for name, m := range map[string]MotorConfig{"left_motor": c.LeftMotor, "right_motor": c.RightMotor} {
		if m.PWMPin <= 0 || m.In1Pin <= 0 || m.In2Pin <= 0 {
			return fmt.Errorf("%s: pwm_pin, in1_pin and in2_pin are required", name)
		}
		if m.In1Pin == m.In2Pin {
			return fmt.Errorf("%s: in1_pin and in2_pin must differ", name)
		}
	}
	if _, err := c.KinematicsModel(); err != nil {
		return err
	}
	if err := c.DriveConfig().Validate(); err != nil {
		return err
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

// Window returns the actuation window.
func (c *RoverConfig) Window() time.Duration {
	return time.Duration(c.Drive.WindowMs) * time.Millisecond
}

// KinematicsModel parses drive.kinematics.
func (c *RoverConfig) KinematicsModel() (drive.Kinematics, error) {
	return drive.ParseKinematics(c.Drive.Kinematics)
}

// DriveConfig returns the parameters of the drive controller.
func (c *RoverConfig) DriveConfig() drive.Config {
	k, _ := c.KinematicsModel()
	return drive.Config{
		Speed:      c.Drive.Speed,
		Window:     c.Window(),
		Kinematics: k,
	}
}

// ListenAddr returns the HTTP bind address.
func (c *RoverConfig) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
