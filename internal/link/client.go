package link

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cjeanneret/GoRover/internal/debug"
	"github.com/cjeanneret/GoRover/internal/logic/command"
)

// DefaultRoverAddr is the rover's static address on the joystick network.
const DefaultRoverAddr = "192.168.178.186:8080"

// Client sends commands to the rover as GET /<command>.
type Client struct {
	base string
	http *http.Client
}

// NewClient targets addr ("host:port" or a full http URL). A zero timeout
// leaves the transport defaults in place.
func NewClient(addr string, timeout time.Duration) *Client {
	base := addr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// URL returns the endpoint for cmd.
func (c *Client) URL(cmd command.Command) string {
	return c.base + "/" + cmd.String()
}

// Send issues one request. Any HTTP response counts as delivered; the
// page in the body is read and discarded.
func (c *Client) Send(ctx context.Context, cmd command.Command) error {
	if !cmd.Valid() {
		return fmt.Errorf("send %v: not a transmittable command", cmd)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(cmd), nil)
	if err != nil {
		return fmt.Errorf("send %v: %w", cmd, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send %v: %w", cmd, err)
	}
	defer resp.Body.Close()

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		debug.Verbose("Link: draining response for %v: %v", cmd, err)
	}
	debug.Trace("Link: %s -> %d (%d bytes)", req.URL, resp.StatusCode, n)
	return nil
}
