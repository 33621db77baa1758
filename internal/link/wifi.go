package link

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cjeanneret/GoRover/internal/debug"
)

// Probe reports whether the node is associated with the wireless network.
type Probe interface {
	Associated() (bool, error)
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func() (bool, error)

func (f ProbeFunc) Associated() (bool, error) { return f() }

// Options bound the association wait.
type Options struct {
	Attempts  int           // 0 retries forever
	Interval  time.Duration // pause between attempts
	Clock     clock.Clock   // nil uses the wall clock
	OnAttempt func(n int)   // called before each attempt, 1-based
}

// ErrNotAssociated is returned when the attempts are exhausted.
var ErrNotAssociated = errors.New("wireless link not associated")

// WaitAssociated polls p until it reports association, the attempts run out
// or ctx is done. Probe errors count as a failed attempt.
func WaitAssociated(ctx context.Context, p Probe, opts Options) error {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}

	for n := 1; opts.Attempts == 0 || n <= opts.Attempts; n++ {
		if opts.OnAttempt != nil {
			opts.OnAttempt(n)
		}
		ok, err := p.Associated()
		if err != nil {
			debug.Verbose("Link: association probe %d: %v", n, err)
		}
		if ok {
			debug.Link("associated", fmt.Sprintf("attempt %d", n))
			return nil
		}
		if opts.Attempts != 0 && n == opts.Attempts {
			break
		}

		timer := clk.Timer(opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("%w after %d attempts", ErrNotAssociated, opts.Attempts)
}

// InterfaceProbe treats a network interface holding an IPv4 address as associated.
type InterfaceProbe struct {
	Name string
}

func (p InterfaceProbe) Associated() (bool, error) {
	iface, err := net.InterfaceByName(p.Name)
	if err != nil {
		return false, fmt.Errorf("interface %q: %w", p.Name, err)
	}
	if iface.Flags&net.FlagUp == 0 {
		return false, nil
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return false, fmt.Errorf("interface %q addrs: %w", p.Name, err)
	}
	for _, a := range addrs {
		if ipn, ok := a.(*net.IPNet); ok && ipn.IP.To4() != nil {
			return true, nil
		}
	}
	return false, nil
}
