package gpio

import (
	"testing"

	pgpio "periph.io/x/conn/v3/gpio"
)

func TestNewDriver_Mock(t *testing.T) {
	for _, kind := range []string{"", KindMock} {
		drv, err := NewDriver(kind)
		if err != nil {
			t.Fatalf("NewDriver(%q): %v", kind, err)
		}
		if _, ok := drv.(*MockDriver); !ok {
			t.Errorf("NewDriver(%q) = %T, want *MockDriver", kind, drv)
		}
	}
}

func TestNewDriver_Unknown(t *testing.T) {
	if _, err := NewDriver("arduino"); err == nil {
		t.Error("expected error for unknown driver kind")
	}
}

func TestMockDriver_PullUpReadsHigh(t *testing.T) {
	m := NewMockDriver()
	if err := m.SetupPin(22, InputPullUp); err != nil {
		t.Fatal(err)
	}
	lvl, err := m.ReadPin(22)
	if err != nil {
		t.Fatal(err)
	}
	if lvl != High {
		t.Error("pull-up input should idle HIGH")
	}

	m.Set(22, Low)
	if lvl, _ := m.ReadPin(22); lvl != Low {
		t.Error("Set(Low) should be visible to ReadPin")
	}
}

func TestMockDriver_RemembersDuty(t *testing.T) {
	m := NewMockDriver()
	_ = m.SetupPWM(12, 1000)
	_ = m.WritePWM(12, 0x7FFF)
	if got := m.Duty(12); got != 0x7FFF {
		t.Errorf("Duty = %#x, want 0x7fff", got)
	}
}

func TestToPeriphDuty(t *testing.T) {
	cases := []struct {
		in   uint16
		want pgpio.Duty
	}{
		{0, 0},
		{DutyMax, pgpio.DutyMax},
	}
	for _, tc := range cases {
		if got := toPeriphDuty(tc.in); got != tc.want {
			t.Errorf("toPeriphDuty(%#x) = %d, want %d", tc.in, got, tc.want)
		}
	}
	half := toPeriphDuty(DutyMax / 2)
	if half <= 0 || half >= pgpio.DutyMax {
		t.Errorf("half duty out of range: %d", half)
	}
}

func TestPinModeString(t *testing.T) {
	if InputPullUp.String() != "input-pullup" {
		t.Errorf("got %q", InputPullUp.String())
	}
}
