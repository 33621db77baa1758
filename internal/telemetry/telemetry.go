package telemetry

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cjeanneret/GoRover/internal/debug"
	"github.com/cjeanneret/GoRover/internal/logic/drive"
)

// Event is one drive state change as published to the outside world.
type Event struct {
	Command string
	Left    float64
	Right   float64
	Phase   string
	At      time.Time
}

// FromDrive converts a drive event.
func FromDrive(e drive.Event) Event {
	return Event{
		Command: e.Command.String(),
		Left:    e.Pair.Left,
		Right:   e.Pair.Right,
		Phase:   string(e.Phase),
		At:      e.At,
	}
}

// fields is the hash layout of the rover key.
func fields(e Event) map[string]interface{} {
	return map[string]interface{}{
		"command":     e.Command,
		"motor:left":  strconv.FormatFloat(e.Left, 'f', 1, 64),
		"motor:right": strconv.FormatFloat(e.Right, 'f', 1, 64),
		"phase":       e.Phase,
		"updated":     e.At.UTC().Format(time.RFC3339Nano),
	}
}

// Sink stores or forwards events.
type Sink interface {
	Write(ctx context.Context, e Event) error
}

// DefaultBuffer is the queue length of a Reporter.
const DefaultBuffer = 32

// Reporter decouples the drive loop from a possibly slow sink. OnDrive never
// blocks: events are dropped when the queue is full.
type Reporter struct {
	sink    Sink
	events  chan Event
	dropped atomic.Uint64
}

func NewReporter(sink Sink, buffer int) *Reporter {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Reporter{sink: sink, events: make(chan Event, buffer)}
}

// OnDrive implements drive.Observer.
func (r *Reporter) OnDrive(e drive.Event) {
	select {
	case r.events <- FromDrive(e):
	default:
		n := r.dropped.Add(1)
		debug.Verbose("Telemetry: queue full, dropped %d events", n)
	}
}

// Dropped returns how many events were discarded.
func (r *Reporter) Dropped() uint64 {
	return r.dropped.Load()
}

// Run writes queued events to the sink until ctx is done. Sink errors are
// logged and the event is lost.
func (r *Reporter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-r.events:
			if err := r.sink.Write(ctx, e); err != nil {
				debug.Error(err)
			}
		}
	}
}
