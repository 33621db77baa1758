package drive

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cjeanneret/GoRover/internal/debug"
	"github.com/cjeanneret/GoRover/internal/logic/command"
	"github.com/cjeanneret/GoRover/internal/logic/motion"
	"go.uber.org/multierr"
)

// Defaults for Config.
const (
	DefaultSpeed  = 50.0
	DefaultWindow = 500 * time.Millisecond
)

// Base is the differential base the controller drives.
type Base interface {
	Apply(p motion.Pair) error
	Stop() error
	Current() motion.Pair
}

// Phase tells observers what just happened to the motors.
type Phase string

const (
	PhaseApplied Phase = "applied"
	PhaseStopped Phase = "stopped"
)

// Event is emitted after each motor change.
type Event struct {
	Command command.Command
	Pair    motion.Pair
	Phase   Phase
	At      time.Time
}

// Observer is notified of drive events. OnDrive is called with the drive
// lock held and must not block.
type Observer interface {
	OnDrive(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnDrive(e Event) { f(e) }

// Config holds the actuation parameters.
type Config struct {
	Speed      float64       // speed magnitude in percent, 0 < Speed <= 100
	Window     time.Duration // how long a motion command is held before stopping
	Kinematics Kinematics
}

// Validate checks the actuation parameters.
func (c Config) Validate() error {
	if c.Speed <= 0 || c.Speed > 100 {
		return fmt.Errorf("speed must be in (0, 100], got %g", c.Speed)
	}
	if c.Window <= 0 {
		return fmt.Errorf("actuation window must be > 0, got %v", c.Window)
	}
	return nil
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock (tests use clock.NewMock()).
func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(ctrl *Controller) { ctrl.observers = append(ctrl.observers, o) }
}

// Controller turns commands into bounded motor pulses. Every motion command
// drives the base for one window then stops it; Stop acts immediately.
// Executions are serialized: at most one pulse is ever in flight.
type Controller struct {
	mu        sync.Mutex
	base      Base
	cfg       Config
	clock     clock.Clock
	observers []Observer
}

// NewController creates a drive controller. Zero Speed or Window take the defaults.
func NewController(base Base, cfg Config, opts ...Option) *Controller {
	if cfg.Speed == 0 {
		cfg.Speed = DefaultSpeed
	}
	if cfg.Window == 0 {
		cfg.Window = DefaultWindow
	}
	c := &Controller{
		base:  base,
		cfg:   cfg,
		clock: clock.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the effective actuation parameters.
func (c *Controller) Config() Config {
	return c.cfg
}

// Result describes one Execute call.
type Result struct {
	Command  command.Command
	Pair     motion.Pair
	Actuated bool          // false when the command was not recognized
	Held     time.Duration // time between apply and stop, 0 for Stop
}

// Execute runs cmd to completion. A motion command blocks for the whole
// window; it cannot be cancelled once the motors are driven. Unrecognized
// commands are a no-op. The base is stopped even if applying the pair failed.
func (c *Controller) Execute(cmd command.Command) (Result, error) {
	pair, ok := c.cfg.Kinematics.Pair(cmd, c.cfg.Speed)
	if !ok {
		debug.Verbose("Drive: ignoring %v", cmd)
		return Result{Command: cmd}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	debug.Command("execute", cmd.String())

	if cmd == command.Stop {
		wasMoving := !c.base.Current().IsZero()
		if err := c.base.Stop(); err != nil {
			return Result{Command: cmd, Actuated: true}, err
		}
		if wasMoving {
			c.notify(cmd, motion.Pair{}, PhaseStopped)
		}
		return Result{Command: cmd, Actuated: true}, nil
	}

	start := c.clock.Now()
	applyErr := c.base.Apply(pair)
	if applyErr == nil {
		c.notify(cmd, pair, PhaseApplied)
		debug.Verbose("Drive: holding %v for %v", pair, c.cfg.Window)
		c.clock.Sleep(c.cfg.Window)
	} else {
		debug.Error(applyErr)
	}

	stopErr := c.base.Stop()
	c.notify(cmd, motion.Pair{}, PhaseStopped)

	res := Result{Command: cmd, Pair: pair, Actuated: true, Held: c.clock.Since(start)}
	if err := multierr.Combine(applyErr, stopErr); err != nil {
		return res, fmt.Errorf("execute %v: %w", cmd, err)
	}
	return res, nil
}

func (c *Controller) notify(cmd command.Command, p motion.Pair, phase Phase) {
	e := Event{Command: cmd, Pair: p, Phase: phase, At: c.clock.Now()}
	for _, o := range c.observers {
		o.OnDrive(e)
	}
}
