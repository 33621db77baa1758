package motion

import (
	"errors"
	"testing"

	"github.com/cjeanneret/GoRover/internal/hw/gpio"
	"github.com/cjeanneret/GoRover/internal/hw/motor"
)

type fakeMotor struct {
	speeds []float64
	stops  int
	err    error
}

func (m *fakeMotor) SetSpeed(pct float64) error {
	if m.err != nil {
		return m.err
	}
	m.speeds = append(m.speeds, pct)
	return nil
}

func (m *fakeMotor) Stop() error {
	if m.err != nil {
		return m.err
	}
	m.stops++
	return nil
}

func newMockMotors(t *testing.T) (*motor.Motor, *motor.Motor, *gpio.MockDriver) {
	t.Helper()
	drv := gpio.NewMockDriver()
	left, err := motor.NewMotor(drv, motor.Config{Name: "left", PWMPin: 12, In1Pin: 5, In2Pin: 6})
	if err != nil {
		t.Fatal(err)
	}
	right, err := motor.NewMotor(drv, motor.Config{Name: "right", PWMPin: 13, In1Pin: 20, In2Pin: 21})
	if err != nil {
		t.Fatal(err)
	}
	return left, right, drv
}

func TestController_ApplyDrivesBothWheels(t *testing.T) {
	left, right, drv := newMockMotors(t)
	ctrl := NewController(left, right)

	if err := ctrl.Apply(Pair{Left: 50, Right: 25}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if got := drv.Duty(12); got != motor.Duty(50, gpio.DutyMax) {
		t.Errorf("left duty = %d", got)
	}
	if got := drv.Duty(13); got != motor.Duty(25, gpio.DutyMax) {
		t.Errorf("right duty = %d", got)
	}
	if ctrl.Current() != (Pair{Left: 50, Right: 25}) {
		t.Errorf("Current = %v", ctrl.Current())
	}
}

func TestController_Stop(t *testing.T) {
	left, right, drv := newMockMotors(t)
	ctrl := NewController(left, right)
	_ = ctrl.Apply(Pair{Left: -50, Right: -30})

	if err := ctrl.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if drv.Duty(12) != 0 || drv.Duty(13) != 0 {
		t.Error("duties should be 0 after stop")
	}
	if !ctrl.Current().IsZero() {
		t.Errorf("Current = %v, want zero", ctrl.Current())
	}
}

func TestController_ApplyClamps(t *testing.T) {
	l, r := &fakeMotor{}, &fakeMotor{}
	ctrl := NewController(l, r)

	if err := ctrl.Apply(Pair{Left: 250, Right: -180}); err != nil {
		t.Fatal(err)
	}
	if l.speeds[0] != 100 || r.speeds[0] != -100 {
		t.Errorf("speeds = %v / %v, want clamped to ±100", l.speeds, r.speeds)
	}
}

func TestController_ApplyErrorKeepsCurrent(t *testing.T) {
	l, r := &fakeMotor{}, &fakeMotor{err: errors.New("pwm busy")}
	ctrl := NewController(l, r)

	if err := ctrl.Apply(Pair{Left: 10, Right: 10}); err == nil {
		t.Fatal("expected error")
	}
	if len(l.speeds) != 1 {
		t.Error("left motor should still be written when right fails")
	}
	if !ctrl.Current().IsZero() {
		t.Errorf("Current = %v, want zero after failed apply", ctrl.Current())
	}
}

func TestPair_String(t *testing.T) {
	if s := (Pair{Left: 50, Right: 25}).String(); s != "(50.0, 25.0)" {
		t.Errorf("String = %q", s)
	}
}
