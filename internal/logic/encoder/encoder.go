package encoder

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cjeanneret/GoRover/internal/debug"
	"github.com/cjeanneret/GoRover/internal/logic/command"
)

// DefaultPeriod is the sampling period of the joystick loop.
const DefaultPeriod = 200 * time.Millisecond

// Sampler reads one joystick position and the button state.
type Sampler interface {
	Sample() (command.AxisReading, bool, error)
}

// Sender transmits a command to the rover.
type Sender interface {
	Send(ctx context.Context, cmd command.Command) error
}

// LinkObserver is told when transmissions start or stop succeeding.
type LinkObserver interface {
	OnLink(connected bool)
}

// Encoder reduces joystick samples to commands and sends each new one once.
type Encoder struct {
	sampler    Sampler
	sender     Sender
	thresholds command.Thresholds
	period     time.Duration
	clock      clock.Clock
	link       LinkObserver

	mu     sync.Mutex
	last   command.Command
	linkUp *bool
}

// Option customizes an Encoder.
type Option func(*Encoder)

func WithThresholds(t command.Thresholds) Option {
	return func(e *Encoder) { e.thresholds = t }
}

func WithPeriod(d time.Duration) Option {
	return func(e *Encoder) {
		if d > 0 {
			e.period = d
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(e *Encoder) { e.clock = c }
}

func WithLinkObserver(o LinkObserver) Option {
	return func(e *Encoder) { e.link = o }
}

func New(s Sampler, snd Sender, opts ...Option) *Encoder {
	e := &Encoder{
		sampler:    s,
		sender:     snd,
		thresholds: command.DefaultThresholds(),
		period:     DefaultPeriod,
		clock:      clock.New(),
		last:       command.None,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Last returns the most recent successfully sent command.
func (e *Encoder) Last() command.Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Tick runs one sampling cycle. It returns the reduced command and whether it
// was transmitted. A failed send leaves Last untouched so the same command is
// tried again on the next tick.
func (e *Encoder) Tick(ctx context.Context) (command.Command, bool, error) {
	r, pressed, err := e.sampler.Sample()
	if err != nil {
		debug.Error(err)
		return command.None, false, err
	}

	cmd := command.Reduce(r, pressed, e.thresholds)
	debug.Trace("Encoder: x=%d(%v) y=%d(%v) button=%v -> %v",
		r.X, command.Zone(r.X, e.thresholds), r.Y, command.Zone(r.Y, e.thresholds), pressed, cmd)

	if cmd == command.None || cmd == e.Last() {
		return cmd, false, nil
	}

	if err := e.sender.Send(ctx, cmd); err != nil {
		debug.Live("Encoder: send %v failed: %v", cmd, err)
		e.setLink(false)
		return cmd, false, err
	}

	e.mu.Lock()
	e.last = cmd
	e.mu.Unlock()
	e.setLink(true)
	debug.Command("sent", cmd.String())
	return cmd, true, nil
}

// Run ticks every period until ctx is done. Errors are logged and dropped.
func (e *Encoder) Run(ctx context.Context) error {
	debug.Info("Encoder: sampling every %v (thresholds %d/%d)", e.period, e.thresholds.Low, e.thresholds.High)

	ticker := e.clock.Ticker(e.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_, _, _ = e.Tick(ctx)
		}
	}
}

func (e *Encoder) setLink(up bool) {
	e.mu.Lock()
	changed := e.linkUp == nil || *e.linkUp != up
	e.linkUp = &up
	e.mu.Unlock()

	if changed {
		debug.Link(linkName(up), "rover")
		if e.link != nil {
			e.link.OnLink(up)
		}
	}
}

func linkName(up bool) string {
	if up {
		return "connected"
	}
	return "disconnected"
}
