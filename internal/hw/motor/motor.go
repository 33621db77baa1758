package motor

import (
	"fmt"
	"math"
	"sync"

	"github.com/cjeanneret/GoRover/internal/debug"
	"github.com/cjeanneret/GoRover/internal/hw/gpio"
	"go.uber.org/multierr"
)

// Config holds the hardware configuration for one H-bridge channel
// (TB6612FNG style: one PWM input, two direction inputs).
type Config struct {
	Name    string
	PWMPin  int
	In1Pin  int
	In2Pin  int
	FreqHz  int    // PWM frequency. 0 = 1000 Hz.
	MaxDuty uint16 // duty at 100% speed. 0 = gpio.DutyMax.
	Invert  bool   // swap direction lines for a motor mounted mirrored
}

// Motor drives a DC motor at a signed speed percentage.
type Motor struct {
	mu      sync.Mutex
	gpio    gpio.Driver
	cfg     Config
	speed   float64
	stopped bool
}

// NewMotor configures the pins and leaves the motor stopped.
func NewMotor(g gpio.Driver, cfg Config) (*Motor, error) {
	if cfg.FreqHz <= 0 {
		cfg.FreqHz = 1000
	}
	if cfg.MaxDuty == 0 {
		cfg.MaxDuty = gpio.DutyMax
	}
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("pwm%d", cfg.PWMPin)
	}

	var err error
	err = multierr.Append(err, g.SetupPin(cfg.In1Pin, gpio.Output))
	err = multierr.Append(err, g.SetupPin(cfg.In2Pin, gpio.Output))
	err = multierr.Append(err, g.SetupPWM(cfg.PWMPin, cfg.FreqHz))
	if err != nil {
		return nil, fmt.Errorf("setup motor %s: %w", cfg.Name, err)
	}

	m := &Motor{gpio: g, cfg: cfg}
	if err := m.halt(); err != nil {
		return nil, fmt.Errorf("stop motor %s: %w", cfg.Name, err)
	}
	return m, nil
}

// Duty converts a speed percentage to a PWM duty value: abs(speed)/100 * MaxDuty.
// Speeds beyond ±100 saturate.
func Duty(speed float64, maxDuty uint16) uint16 {
	s := math.Min(math.Abs(speed), 100)
	return uint16(s / 100 * float64(maxDuty))
}

// SetSpeed drives the motor at speed percent, -100..100. The sign selects the
// direction; zero stops the motor. Repeating the current speed writes nothing.
func (m *Motor) SetSpeed(speed float64) error {
	if math.IsNaN(speed) {
		return fmt.Errorf("motor %s: speed is NaN", m.cfg.Name)
	}
	if speed == 0 {
		return m.Stop()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.stopped && m.speed == speed {
		return nil
	}

	debug.Move(m.cfg.Name, speed)

	// (In1, In2) = (off, on) forward, (on, off) backward. Never both on.
	in1, in2 := gpio.Low, gpio.High
	if (speed < 0) != m.cfg.Invert {
		in1, in2 = gpio.High, gpio.Low
	}

	// Drop duty first so a direction flip never runs at the previous speed.
	if err := m.gpio.WritePWM(m.cfg.PWMPin, 0); err != nil {
		return err
	}
	// Release the active line before raising the other one.
	if in1 == gpio.High {
		if err := m.gpio.WritePin(m.cfg.In2Pin, in2); err != nil {
			return err
		}
		if err := m.gpio.WritePin(m.cfg.In1Pin, in1); err != nil {
			return err
		}
	} else {
		if err := m.gpio.WritePin(m.cfg.In1Pin, in1); err != nil {
			return err
		}
		if err := m.gpio.WritePin(m.cfg.In2Pin, in2); err != nil {
			return err
		}
	}
	if err := m.gpio.WritePWM(m.cfg.PWMPin, Duty(speed, m.cfg.MaxDuty)); err != nil {
		return err
	}

	m.speed = speed
	m.stopped = false
	return nil
}

// Stop cuts the duty and releases both direction lines.
// Stopping an already stopped motor is a no-op.
func (m *Motor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return nil
	}
	debug.Move(m.cfg.Name, 0)
	return m.halt()
}

// halt expects m.mu to be held (or the motor not yet shared).
func (m *Motor) halt() error {
	var err error
	err = multierr.Append(err, m.gpio.WritePWM(m.cfg.PWMPin, 0))
	err = multierr.Append(err, m.gpio.WritePin(m.cfg.In1Pin, gpio.Low))
	err = multierr.Append(err, m.gpio.WritePin(m.cfg.In2Pin, gpio.Low))
	if err != nil {
		return err
	}
	m.speed = 0
	m.stopped = true
	return nil
}

// Speed returns the last applied speed (0 when stopped).
func (m *Motor) Speed() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speed
}
