package command

import "testing"

func TestParse_RoundTripsWireNames(t *testing.T) {
	for _, c := range All() {
		got, ok := Parse(c.String())
		if !ok || got != c {
			t.Errorf("Parse(%q) = %v, %v; want %v", c.String(), got, ok, c)
		}
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := []string{"", "none", "Forward", "FORWARD", "dance", "forward ", "forwardleftx", "/forward"}
	for _, name := range cases {
		if c, ok := Parse(name); ok {
			t.Errorf("Parse(%q) = %v, want not ok", name, c)
		}
	}
}

func TestCommand_Valid(t *testing.T) {
	if None.Valid() {
		t.Error("None must not be transmittable")
	}
	if Command(42).Valid() {
		t.Error("out-of-range command must not be valid")
	}
	if len(All()) != 9 {
		t.Errorf("All() has %d commands, want 9", len(All()))
	}
	for _, c := range All() {
		if !c.Valid() {
			t.Errorf("%v should be valid", c)
		}
	}
}

func TestCommand_String(t *testing.T) {
	cases := map[Command]string{
		None:          "none",
		Right:         "right",
		BackwardRight: "backwardright",
		Stop:          "stop",
	}
	for c, want := range cases {
		if c.String() != want {
			t.Errorf("String() = %q, want %q", c.String(), want)
		}
	}
}

func TestThresholds_Validate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}
	for _, th := range []Thresholds{{Low: 30000, High: 30000}, {Low: 40000, High: 20000}} {
		if err := th.Validate(); err == nil {
			t.Errorf("expected error for %+v", th)
		}
	}
}

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()
	if th.Low != 29000 || th.High != 36000 {
		t.Errorf("DefaultThresholds = %+v, want {29000 36000}", th)
	}
}
