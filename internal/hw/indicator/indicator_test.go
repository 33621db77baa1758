package indicator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cjeanneret/GoRover/internal/hw/gpio"
	"github.com/google/go-cmp/cmp"
)

// recordingDriver records GPIO calls for verification.
type recordingDriver struct {
	calls []gpioCall
}

type gpioCall struct {
	op    string
	pin   int
	level gpio.Level
}

func (d *recordingDriver) SetupPin(pin int, mode gpio.PinMode) error {
	d.calls = append(d.calls, gpioCall{op: "setup", pin: pin})
	return nil
}

func (d *recordingDriver) WritePin(pin int, level gpio.Level) error {
	d.calls = append(d.calls, gpioCall{op: "write", pin: pin, level: level})
	return nil
}

func (d *recordingDriver) ReadPin(pin int) (gpio.Level, error) { return gpio.Low, nil }
func (d *recordingDriver) SetupPWM(pin, freqHz int) error      { return nil }
func (d *recordingDriver) WritePWM(pin int, duty uint16) error { return nil }
func (d *recordingDriver) Close() error                        { return nil }

var testPins = LEDPins{Red: 17, Yellow: 18, Green: 27}

func TestNewLED_AllOff(t *testing.T) {
	drv := &recordingDriver{}
	if _, err := NewLED(drv, testPins); err != nil {
		t.Fatal(err)
	}
	want := []gpioCall{
		{op: "setup", pin: 17}, {op: "setup", pin: 18}, {op: "setup", pin: 27},
		{op: "write", pin: 17, level: gpio.Low},
		{op: "write", pin: 18, level: gpio.Low},
		{op: "write", pin: 27, level: gpio.Low},
	}
	if diff := cmp.Diff(want, drv.calls, cmp.AllowUnexported(gpioCall{})); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestLED_ShowColors(t *testing.T) {
	cases := []struct {
		state State
		lit   int
	}{
		{Connecting, 18},
		{Connected, 27},
		{Disconnected, 17},
		{Failed, 17},
	}
	for _, tc := range cases {
		t.Run(tc.state.String(), func(t *testing.T) {
			drv := &recordingDriver{}
			led, _ := NewLED(drv, testPins)
			drv.calls = nil

			if err := led.Show(tc.state); err != nil {
				t.Fatal(err)
			}
			var high []int
			for _, c := range drv.calls {
				if c.level == gpio.High {
					high = append(high, c.pin)
				}
			}
			if diff := cmp.Diff([]int{tc.lit}, high); diff != "" {
				t.Errorf("lit pins (-want +got):\n%s", diff)
			}
			// The lit pin is written last.
			if last := drv.calls[len(drv.calls)-1]; last.pin != tc.lit || last.level != gpio.High {
				t.Errorf("last write = %+v", last)
			}
		})
	}
}

func TestLED_SameStateWritesNothing(t *testing.T) {
	drv := &recordingDriver{}
	led, _ := NewLED(drv, testPins)
	_ = led.Show(Connected)
	drv.calls = nil

	_ = led.Show(Connected)
	if len(drv.calls) != 0 {
		t.Errorf("calls = %v, want none", drv.calls)
	}
}

func TestLED_MissingPinsSkipped(t *testing.T) {
	drv := &recordingDriver{}
	led, err := NewLED(drv, LEDPins{Green: 27})
	if err != nil {
		t.Fatal(err)
	}
	drv.calls = nil
	if err := led.Show(Failed); err != nil {
		t.Fatal(err)
	}
	for _, c := range drv.calls {
		if c.pin == 0 {
			t.Errorf("pin 0 should never be written: %+v", c)
		}
	}
}

type stateLog struct{ states []State }

func (l *stateLog) Show(s State) error {
	l.states = append(l.states, s)
	return nil
}

func TestBlink_Count(t *testing.T) {
	log := &stateLog{}
	err := Blink(context.Background(), clock.New(), log, Failed, time.Millisecond, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []State{Failed, Off, Failed, Off, Off}
	if diff := cmp.Diff(want, log.states); diff != "" {
		t.Errorf("states mismatch (-want +got):\n%s", diff)
	}
}

func TestBlink_UntilCancelled(t *testing.T) {
	log := &stateLog{}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Blink(ctx, clock.New(), log, Connecting, time.Millisecond, 0)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Blink returned %v", err)
	}
	if len(log.states) < 2 {
		t.Errorf("only %d states shown", len(log.states))
	}
	if log.states[len(log.states)-1] != Off {
		t.Error("indicator should be left off")
	}
}

func TestNop(t *testing.T) {
	var ind Indicator = Nop{}
	if err := ind.Show(Failed); err != nil {
		t.Error(err)
	}
}

func TestNew_NoPinsIsNop(t *testing.T) {
	d := &recordingDriver{}
	ind, err := New(d, LEDPins{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := ind.(Nop); !ok {
		t.Errorf("New with no pins = %T, want Nop", ind)
	}
	if len(d.calls) != 0 {
		t.Errorf("calls = %v, want none", d.calls)
	}
}

func TestNew_WithPinsIsLED(t *testing.T) {
	ind, err := New(&recordingDriver{}, LEDPins{Green: 27})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := ind.(*LED); !ok {
		t.Errorf("New with pins = %T, want *LED", ind)
	}
}
