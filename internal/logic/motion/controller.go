package motion

import (
	"fmt"
	"math"
	"sync"

	"go.uber.org/multierr"
)

// Pair is a differential-drive target: signed left/right wheel speeds in percent.
type Pair struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Clamp limits both speeds to -100..100.
func (p Pair) Clamp() Pair {
	return Pair{Left: clamp(p.Left), Right: clamp(p.Right)}
}

// IsZero reports whether both wheels are at rest.
func (p Pair) IsZero() bool {
	return p.Left == 0 && p.Right == 0
}

func (p Pair) String() string {
	return fmt.Sprintf("(%.1f, %.1f)", p.Left, p.Right)
}

func clamp(v float64) float64 {
	return math.Max(-100, math.Min(100, v))
}

// Motor is what the base needs from one wheel.
type Motor interface {
	SetSpeed(pct float64) error
	Stop() error
}

// Controller orchestrates the left and right wheel motors.
// It's an intermediate layer between the drive logic (commands, pulses)
// and the motor drivers (GPIO/PWM).
type Controller struct {
	mu      sync.Mutex
	left    Motor
	right   Motor
	current Pair
}

func NewController(left, right Motor) *Controller {
	return &Controller{
		left:  left,
		right: right,
	}
}

// Apply drives both wheels to p (clamped). Both motors are always written;
// on error the reported current pair is unchanged.
func (c *Controller) Apply(p Pair) error {
	p = p.Clamp()

	c.mu.Lock()
	defer c.mu.Unlock()
	err := multierr.Combine(
		c.left.SetSpeed(p.Left),
		c.right.SetSpeed(p.Right),
	)
	if err != nil {
		return fmt.Errorf("apply %v: %w", p, err)
	}
	c.current = p
	return nil
}

// Stop brings both wheels to rest.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := multierr.Combine(c.left.Stop(), c.right.Stop())
	if err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	c.current = Pair{}
	return nil
}

// Current returns the last successfully applied pair.
func (c *Controller) Current() Pair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}
