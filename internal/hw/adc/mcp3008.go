package adc

import (
	"fmt"
	"sync"

	"github.com/cjeanneret/GoRover/internal/debug"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// mcp3008Channels is the number of single-ended inputs.
const mcp3008Channels = 8

// txer is the part of spi.Conn the converter needs.
type txer interface {
	Tx(w, r []byte) error
}

// MCP3008 is a 10-bit, 8-channel SPI converter.
type MCP3008 struct {
	mu   sync.Mutex
	conn txer
	port spi.PortCloser
}

// OpenMCP3008 opens the SPI port dev at 1 MHz, mode 0.
func OpenMCP3008(dev string) (*MCP3008, error) {
	debug.Info("Initializing MCP3008 ADC on SPI %q", dev)

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	port, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", dev, err)
	}
	conn, err := port.Connect(physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("connect spi %q: %w", dev, err), port.Close())
	}
	return &MCP3008{conn: conn, port: port}, nil
}

func newMCP3008(conn txer) *MCP3008 {
	return &MCP3008{conn: conn}
}

// Read performs one single-ended conversion and scales it to 16 bits.
func (m *MCP3008) Read(channel int) (uint16, error) {
	if channel < 0 || channel >= mcp3008Channels {
		return 0, fmt.Errorf("mcp3008: channel %d out of range", channel)
	}

	// Start bit, then single-ended mode and the channel in the high nibble.
	w := []byte{0x01, byte(0x08|channel) << 4, 0x00}
	r := make([]byte, len(w))

	m.mu.Lock()
	err := m.conn.Tx(w, r)
	m.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("mcp3008 read ch%d: %w", channel, err)
	}

	raw := uint16(r[1]&0x03)<<8 | uint16(r[2])
	v := raw << 6
	debug.Trace("MCP3008 ch%d raw=%d scaled=%d", channel, raw, v)
	return v, nil
}

func (m *MCP3008) Close() error {
	if m.port == nil {
		return nil
	}
	return m.port.Close()
}
