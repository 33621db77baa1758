package gpio

import (
	"fmt"
	"sync"

	"github.com/cjeanneret/GoRover/internal/debug"
)

// Level represents the logical state of a GPIO pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// PinMode indicates whether a GPIO is input or output.
type PinMode int

const (
	Input PinMode = iota
	InputPullUp
	Output
)

func (m PinMode) String() string {
	switch m {
	case Input:
		return "input"
	case InputPullUp:
		return "input-pullup"
	case Output:
		return "output"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// DutyMax is the full-scale PWM duty value.
const DutyMax = 0xFFFF

// Driver defines the abstract interface for controlling GPIOs and PWM outputs.
// This allows plugging in a real Raspberry Pi implementation
// or a mock for development on PC.
type Driver interface {
	SetupPin(pin int, mode PinMode) error
	WritePin(pin int, level Level) error
	ReadPin(pin int) (Level, error)
	// SetupPWM configures pin as a PWM output running at freqHz.
	SetupPWM(pin int, freqHz int) error
	// WritePWM sets the duty cycle, 0..DutyMax.
	WritePWM(pin int, duty uint16) error
	Close() error
}

// Driver kinds accepted by NewDriver.
const (
	KindMock   = "mock"
	KindRPIO   = "rpio"
	KindPeriph = "periph"
)

// NewDriver creates a GPIO driver based on the chosen kind.
// "mock" is for development on PC and tests, "rpio" uses go-rpio
// (/dev/gpiomem, Raspberry Pi only) and "periph" uses periph.io.
func NewDriver(kind string) (Driver, error) {
	switch kind {
	case KindMock, "":
		debug.Info("Using MOCK GPIO driver (development mode)")
		return NewMockDriver(), nil
	case KindRPIO:
		return NewRPiRealDriver()
	case KindPeriph:
		return NewPeriphDriver()
	default:
		return nil, fmt.Errorf("unknown gpio driver %q", kind)
	}
}

// MockDriver is a test implementation that logs actions and keeps pin state in memory.
type MockDriver struct {
	mu     sync.Mutex
	levels map[int]Level
	duties map[int]uint16
}

// NewMockDriver returns an empty mock. Pins configured with InputPullUp read High.
func NewMockDriver() *MockDriver {
	return &MockDriver{
		levels: make(map[int]Level),
		duties: make(map[int]uint16),
	}
}

func (m *MockDriver) SetupPin(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)
	m.mu.Lock()
	defer m.mu.Unlock()
	if mode == InputPullUp {
		m.levels[pin] = High
	}
	return nil
}

func (m *MockDriver) WritePin(pin int, level Level) error {
	debug.GPIO("WritePin", pin, level)
	m.mu.Lock()
	m.levels[pin] = level
	m.mu.Unlock()
	return nil
}

func (m *MockDriver) ReadPin(pin int) (Level, error) {
	debug.GPIO("ReadPin", pin, nil)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[pin], nil
}

func (m *MockDriver) SetupPWM(pin int, freqHz int) error {
	debug.GPIO("SetupPWM", pin, freqHz)
	return nil
}

func (m *MockDriver) WritePWM(pin int, duty uint16) error {
	debug.GPIO("WritePWM", pin, duty)
	m.mu.Lock()
	m.duties[pin] = duty
	m.mu.Unlock()
	return nil
}

// Duty returns the last duty written to pin.
func (m *MockDriver) Duty(pin int) uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duties[pin]
}

// Set forces the level later returned by ReadPin (simulates an input).
func (m *MockDriver) Set(pin int, level Level) {
	m.mu.Lock()
	m.levels[pin] = level
	m.mu.Unlock()
}

func (m *MockDriver) Close() error {
	debug.Trace("GPIO Close (mock)")
	return nil
}
