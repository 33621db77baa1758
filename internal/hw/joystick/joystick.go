package joystick

import (
	"fmt"

	"github.com/cjeanneret/GoRover/internal/debug"
	"github.com/cjeanneret/GoRover/internal/hw/adc"
	"github.com/cjeanneret/GoRover/internal/hw/gpio"
	"github.com/cjeanneret/GoRover/internal/logic/command"
)

// Config wires the stick to the converter and the button to a GPIO.
type Config struct {
	XChannel  int
	YChannel  int
	ButtonPin int
	LEDPin    int // mirrors the button when non-zero
}

// Joystick samples a two-axis analog stick with a push button.
// The button pulls its pin to ground, so pressed reads Low.
type Joystick struct {
	adc    adc.Reader
	gpio   gpio.Driver
	cfg    Config
	ledOn  bool
	ledSet bool
}

// New configures the button input (with pull-up) and the optional LED.
func New(a adc.Reader, g gpio.Driver, cfg Config) (*Joystick, error) {
	if err := g.SetupPin(cfg.ButtonPin, gpio.InputPullUp); err != nil {
		return nil, fmt.Errorf("joystick button pin %d: %w", cfg.ButtonPin, err)
	}
	if cfg.LEDPin != 0 {
		if err := g.SetupPin(cfg.LEDPin, gpio.Output); err != nil {
			return nil, fmt.Errorf("joystick led pin %d: %w", cfg.LEDPin, err)
		}
	}
	debug.Verbose("Joystick: x=ch%d y=ch%d button=GPIO%d led=GPIO%d",
		cfg.XChannel, cfg.YChannel, cfg.ButtonPin, cfg.LEDPin)
	return &Joystick{adc: a, gpio: g, cfg: cfg}, nil
}

// Sample reads both axes and the button.
func (j *Joystick) Sample() (command.AxisReading, bool, error) {
	x, err := j.adc.Read(j.cfg.XChannel)
	if err != nil {
		return command.AxisReading{}, false, fmt.Errorf("read x axis: %w", err)
	}
	y, err := j.adc.Read(j.cfg.YChannel)
	if err != nil {
		return command.AxisReading{}, false, fmt.Errorf("read y axis: %w", err)
	}
	level, err := j.gpio.ReadPin(j.cfg.ButtonPin)
	if err != nil {
		return command.AxisReading{}, false, fmt.Errorf("read button: %w", err)
	}
	pressed := level == gpio.Low

	if err := j.mirror(pressed); err != nil {
		debug.Error(err)
	}
	return command.AxisReading{X: x, Y: y}, pressed, nil
}

// mirror lights the LED while the button is held; it only writes on change.
func (j *Joystick) mirror(pressed bool) error {
	if j.cfg.LEDPin == 0 || (j.ledSet && j.ledOn == pressed) {
		return nil
	}
	if err := j.gpio.WritePin(j.cfg.LEDPin, gpio.Level(pressed)); err != nil {
		return fmt.Errorf("button led: %w", err)
	}
	j.ledOn, j.ledSet = pressed, true
	return nil
}
