package indicator

import (
	"fmt"
	"sync"

	"github.com/cjeanneret/GoRover/internal/debug"
	"github.com/cjeanneret/GoRover/internal/hw/gpio"
)

// LEDPins are the GPIO numbers of the status LEDs. 0 means not fitted.
type LEDPins struct {
	Red    int
	Yellow int
	Green  int
}

// LED renders states on up to three active-high LEDs:
// Connecting is yellow, Connected green, Disconnected and Failed red.
type LED struct {
	mu      sync.Mutex
	gpio    gpio.Driver
	pins    LEDPins
	current State
}

// NewLED configures the fitted pins as outputs and switches them off.
func NewLED(g gpio.Driver, pins LEDPins) (*LED, error) {
	l := &LED{gpio: g, pins: pins, current: -1}
	for _, pin := range l.fitted() {
		if err := g.SetupPin(pin, gpio.Output); err != nil {
			return nil, fmt.Errorf("status led pin %d: %w", pin, err)
		}
	}
	if err := l.Show(Off); err != nil {
		return nil, err
	}
	return l, nil
}

// New returns an LED indicator, or Nop when no pin is fitted.
func New(g gpio.Driver, pins LEDPins) (Indicator, error) {
	if pins == (LEDPins{}) {
		return Nop{}, nil
	}
	return NewLED(g, pins)
}

func (l *LED) fitted() []int {
	var pins []int
	for _, p := range []int{l.pins.Red, l.pins.Yellow, l.pins.Green} {
		if p != 0 {
			pins = append(pins, p)
		}
	}
	return pins
}

// Show lights the LED for s and turns the others off. Showing the current
// state again writes nothing.
func (l *LED) Show(s State) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s == l.current {
		return nil
	}

	lit := map[int]bool{}
	switch s {
	case Connecting:
		lit[l.pins.Yellow] = true
	case Connected:
		lit[l.pins.Green] = true
	case Disconnected, Failed:
		lit[l.pins.Red] = true
	}

	// Switch off first so two colors are never lit together.
	for _, pin := range l.fitted() {
		if !lit[pin] {
			if err := l.gpio.WritePin(pin, gpio.Low); err != nil {
				return fmt.Errorf("status led %v: %w", s, err)
			}
		}
	}
	for _, pin := range l.fitted() {
		if lit[pin] {
			if err := l.gpio.WritePin(pin, gpio.High); err != nil {
				return fmt.Errorf("status led %v: %w", s, err)
			}
		}
	}

	debug.Trace("Status LED: %v", s)
	l.current = s
	return nil
}
