package indicator

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

// State is what the status light shows. It carries no protocol meaning.
type State int

const (
	Off State = iota
	Connecting
	Connected
	Disconnected
	Failed
)

func (s State) String() string {
	switch s {
	case Off:
		return "off"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Indicator is the high-level interface used by the rest of the application,
// regardless of how the state is rendered (LEDs, buzzer, nothing).
type Indicator interface {
	Show(s State) error
}

// Nop discards every state.
type Nop struct{}

func (Nop) Show(State) error { return nil }

// Blink alternates s and Off every period. count full on/off cycles are
// shown, or until ctx is done when count is 0. The indicator is left Off.
func Blink(ctx context.Context, clk clock.Clock, ind Indicator, s State, period time.Duration, count int) error {
	ticker := clk.Ticker(period)
	defer ticker.Stop()

	on := false
	for toggles := 0; count == 0 || toggles < 2*count; toggles++ {
		on = !on
		next := Off
		if on {
			next = s
		}
		if err := ind.Show(next); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			_ = ind.Show(Off)
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return ind.Show(Off)
}
