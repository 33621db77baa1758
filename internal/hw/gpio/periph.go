package gpio

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/cjeanneret/GoRover/internal/debug"
	"go.uber.org/multierr"
	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// PeriphDriver drives pins through periph.io. It works on any board periph
// knows about; pins are looked up by their GPIO number.
type PeriphDriver struct {
	mu    sync.Mutex
	pins  map[int]pgpio.PinIO
	freqs map[int]physic.Frequency
}

// NewPeriphDriver initializes the periph host drivers.
func NewPeriphDriver() (*PeriphDriver, error) {
	debug.Info("Initializing real GPIO driver (periph.io)")

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	return &PeriphDriver{
		pins:  make(map[int]pgpio.PinIO),
		freqs: make(map[int]physic.Frequency),
	}, nil
}

// lookup expects p.mu to be held.
func (p *PeriphDriver) lookup(pin int) (pgpio.PinIO, error) {
	if io, ok := p.pins[pin]; ok {
		return io, nil
	}
	io := gpioreg.ByName(strconv.Itoa(pin))
	if io == nil {
		return nil, fmt.Errorf("no gpio pin %d on this host", pin)
	}
	p.pins[pin] = io
	return io, nil
}

func (p *PeriphDriver) SetupPin(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)

	p.mu.Lock()
	defer p.mu.Unlock()
	io, err := p.lookup(pin)
	if err != nil {
		return err
	}

	switch mode {
	case Input:
		return io.In(pgpio.Float, pgpio.NoEdge)
	case InputPullUp:
		return io.In(pgpio.PullUp, pgpio.NoEdge)
	case Output:
		return io.Out(pgpio.Low)
	default:
		return fmt.Errorf("unknown pin mode: %d", mode)
	}
}

func (p *PeriphDriver) WritePin(pin int, level Level) error {
	debug.GPIO("WritePin", pin, level)

	p.mu.Lock()
	defer p.mu.Unlock()
	io, err := p.lookup(pin)
	if err != nil {
		return err
	}
	if level == High {
		return io.Out(pgpio.High)
	}
	return io.Out(pgpio.Low)
}

func (p *PeriphDriver) ReadPin(pin int) (Level, error) {
	debug.GPIO("ReadPin", pin, nil)

	p.mu.Lock()
	defer p.mu.Unlock()
	io, err := p.lookup(pin)
	if err != nil {
		return Low, err
	}
	return Level(io.Read() == pgpio.High), nil
}

func (p *PeriphDriver) SetupPWM(pin int, freqHz int) error {
	debug.GPIO("SetupPWM", pin, freqHz)
	if freqHz <= 0 {
		return fmt.Errorf("pwm frequency must be > 0, got %d", freqHz)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	io, err := p.lookup(pin)
	if err != nil {
		return err
	}
	freq := physic.Frequency(freqHz) * physic.Hertz
	p.freqs[pin] = freq
	return io.PWM(0, freq)
}

func (p *PeriphDriver) WritePWM(pin int, duty uint16) error {
	debug.GPIO("WritePWM", pin, duty)

	p.mu.Lock()
	defer p.mu.Unlock()
	freq, ok := p.freqs[pin]
	if !ok {
		return fmt.Errorf("pin %d not configured for PWM", pin)
	}
	io, err := p.lookup(pin)
	if err != nil {
		return err
	}
	return io.PWM(toPeriphDuty(duty), freq)
}

// toPeriphDuty rescales 0..DutyMax to periph's 0..gpio.DutyMax.
func toPeriphDuty(duty uint16) pgpio.Duty {
	return pgpio.Duty(int64(duty) * int64(pgpio.DutyMax) / DutyMax)
}

func (p *PeriphDriver) Close() error {
	debug.Trace("GPIO Close (periph driver)")

	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	for pin, io := range p.pins {
		debug.Verbose("Halting pin %d", pin)
		err = multierr.Append(err, io.Halt())
	}
	return err
}
