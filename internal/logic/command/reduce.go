package command

import "fmt"

// AxisReading is one joystick sample, both axes in 0..65535.
type AxisReading struct {
	X uint16
	Y uint16
}

// Thresholds split each axis into low, neutral and high zones.
type Thresholds struct {
	Low  uint16 `yaml:"low"`
	High uint16 `yaml:"high"`
}

// DefaultThresholds are the values the joystick was calibrated with.
func DefaultThresholds() Thresholds {
	return Thresholds{Low: 29000, High: 36000}
}

// Validate checks that the neutral zone is not empty.
func (t Thresholds) Validate() error {
	if t.Low >= t.High {
		return fmt.Errorf("low threshold (%d) must be below high threshold (%d)", t.Low, t.High)
	}
	return nil
}

// ZoneOf is the position of a sample relative to the thresholds.
type ZoneOf int

const (
	ZoneNeutral ZoneOf = iota
	ZoneLow
	ZoneHigh
)

func (z ZoneOf) String() string {
	switch z {
	case ZoneLow:
		return "low"
	case ZoneHigh:
		return "high"
	default:
		return "neutral"
	}
}

// Zone classifies v. Values equal to a threshold are neutral.
func Zone(v uint16, t Thresholds) ZoneOf {
	switch {
	case v < t.Low:
		return ZoneLow
	case v > t.High:
		return ZoneHigh
	default:
		return ZoneNeutral
	}
}

// Reduce turns a sample into at most one command. Lateral deflection wins over
// forward/backward, which wins over the button:
//
//	x low → Right, x high → Left, y low → Forward, y high → Backward,
//	button → Stop, otherwise None.
func Reduce(r AxisReading, pressed bool, t Thresholds) Command {
	switch {
	case r.X < t.Low:
		return Right
	case r.X > t.High:
		return Left
	case r.Y < t.Low:
		return Forward
	case r.Y > t.High:
		return Backward
	case pressed:
		return Stop
	default:
		return None
	}
}
