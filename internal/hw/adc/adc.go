package adc

import (
	"fmt"
	"sync"

	"github.com/cjeanneret/GoRover/internal/debug"
)

// FullScale is the largest value a Reader returns.
const FullScale = 0xFFFF

// MidScale is the resting value of a centered joystick axis.
const MidScale = 32768

// Reader samples analog channels. Values are scaled to 0..FullScale whatever
// the converter resolution.
type Reader interface {
	Read(channel int) (uint16, error)
	Close() error
}

// Driver kinds accepted by NewReader.
const (
	KindMock    = "mock"
	KindMCP3008 = "mcp3008"
)

// NewReader opens the converter named by kind. dev is the SPI port name
// ("" picks the first one).
func NewReader(kind, dev string) (Reader, error) {
	switch kind {
	case KindMock, "":
		debug.Info("Using MOCK ADC (all channels at mid-scale)")
		return NewMock(), nil
	case KindMCP3008:
		return OpenMCP3008(dev)
	default:
		return nil, fmt.Errorf("unknown adc driver %q", kind)
	}
}

// Mock returns fixed values per channel.
type Mock struct {
	mu     sync.Mutex
	values map[int]uint16
}

// NewMock returns a mock where every channel reads MidScale until Set.
func NewMock() *Mock {
	return &Mock{values: make(map[int]uint16)}
}

// Set fixes the value returned for channel.
func (m *Mock) Set(channel int, v uint16) {
	m.mu.Lock()
	m.values[channel] = v
	m.mu.Unlock()
}

func (m *Mock) Read(channel int) (uint16, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.values[channel]; ok {
		return v, nil
	}
	return MidScale, nil
}

func (m *Mock) Close() error { return nil }
