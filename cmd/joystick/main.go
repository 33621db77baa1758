package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cjeanneret/GoRover/internal/config"
	"github.com/cjeanneret/GoRover/internal/debug"
	"github.com/cjeanneret/GoRover/internal/hw/adc"
	"github.com/cjeanneret/GoRover/internal/hw/gpio"
	"github.com/cjeanneret/GoRover/internal/hw/indicator"
	"github.com/cjeanneret/GoRover/internal/hw/joystick"
	"github.com/cjeanneret/GoRover/internal/link"
	"github.com/cjeanneret/GoRover/internal/logic/encoder"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
)

const failBlinkPeriod = 500 * time.Millisecond

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "joystick",
		Usage: "send joystick positions to the rover",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   filepath.Join("configs", "joystick.yaml"),
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "rover",
				Usage: "override link.rover_addr (host:port)",
			},
			&cli.IntFlag{
				Name:  "debug",
				Usage: "override defaults.debug_level (0-4)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "also write logs to this rotating file",
			},
		},
		Action: run,
	}
}

// applyFlags overlays the flags the user actually set.
func applyFlags(c *cli.Context, cfg *config.JoystickConfig) error {
	if c.IsSet("rover") {
		addr := c.String("rover")
		if addr == "" {
			return errors.New("rover address is empty")
		}
		cfg.Link.RoverAddr = addr
	}
	if c.IsSet("debug") {
		lvl := c.Int("debug")
		if lvl < 0 || lvl > 4 {
			return fmt.Errorf("debug must be 0-4, got %d", lvl)
		}
		cfg.Defaults.DebugLevel = lvl
	}
	if c.IsSet("log-file") {
		cfg.Defaults.LogFile = c.String("log-file")
	}
	return nil
}

func run(c *cli.Context) error {
	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfgPath := c.String("config")
	if err := config.ValidateConfigPath(cfgPath); err != nil {
		return cli.Exit(err, 2)
	}
	cfg, err := config.LoadJoystick(cfgPath)
	if err != nil {
		return cli.Exit(fmt.Errorf("load config: %w", err), 2)
	}
	if err := applyFlags(c, cfg); err != nil {
		return cli.Exit(err, 2)
	}

	debug.Init(cfg.Defaults.DebugLevel)
	if cfg.Defaults.LogFile != "" {
		debug.SetLogFile(cfg.Defaults.LogFile, cfg.Defaults.LogMaxSizeMB)
	}
	defer debug.Sync()

	debug.Section("Initialization")
	debug.Value("Config path", cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)
	debug.Value("Rover", cfg.Link.RoverAddr)

	debug.Step(1, "Initializing GPIO driver")
	g, err := gpio.NewDriver(cfg.Defaults.GPIODriver)
	if err != nil {
		return cli.Exit(fmt.Errorf("init GPIO: %w", err), 1)
	}

	debug.Step(2, "Opening ADC "+cfg.Stick.ADC)
	a, err := adc.NewReader(cfg.Stick.ADC, cfg.Stick.SPIDevice)
	if err != nil {
		return cli.Exit(multierr.Append(err, g.Close()), 1)
	}

	ctl, err := buildController(cfg, g, a)
	if err != nil {
		return cli.Exit(multierr.Combine(err, a.Close(), g.Close()), 1)
	}
	defer func() {
		if err := ctl.close(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := ctl.connect(ctx, cfg.Wifi, link.InterfaceProbe{Name: cfg.Wifi.Interface}); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return ctl.fail(ctx, err)
	}

	debug.Summary("Joystick sending to " + cfg.Link.RoverAddr)
	if err := ctl.encoder.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return cli.Exit(err, 1)
	}
	return nil
}

// controller holds the assembled joystick stack.
type controller struct {
	gpio    gpio.Driver
	adc     adc.Reader
	status  indicator.Indicator
	stick   *joystick.Joystick
	client  *link.Client
	encoder *encoder.Encoder
}

// buildController wires the stick, the rover client and the encoder.
// Extra encoder options are appended after the configured ones.
func buildController(cfg *config.JoystickConfig, g gpio.Driver, a adc.Reader, opts ...encoder.Option) (*controller, error) {
	status, err := indicator.New(g, indicator.LEDPins(cfg.StatusLED))
	if err != nil {
		return nil, err
	}

	debug.Step(3, "Initializing joystick")
	stick, err := joystick.New(a, g, joystick.Config{
		XChannel:  cfg.Stick.XChannel,
		YChannel:  cfg.Stick.YChannel,
		ButtonPin: cfg.Stick.ButtonPin,
		LEDPin:    cfg.Stick.LEDPin,
	})
	if err != nil {
		return nil, err
	}

	debug.Step(4, "Creating encoder")
	client := link.NewClient(cfg.Link.RoverAddr, cfg.Timeout())
	debug.Value("Period", cfg.Period())
	debug.Value("Thresholds", cfg.Encoder.Thresholds)
	debug.Value("Timeout", cfg.Timeout())

	encOpts := []encoder.Option{
		encoder.WithPeriod(cfg.Period()),
		encoder.WithThresholds(cfg.Encoder.Thresholds),
		encoder.WithLinkObserver(linkStatus{status}),
	}
	return &controller{
		gpio:    g,
		adc:     a,
		status:  status,
		stick:   stick,
		client:  client,
		encoder: encoder.New(stick, client, append(encOpts, opts...)...),
	}, nil
}

// linkStatus renders link transitions on the status indicator.
type linkStatus struct {
	ind indicator.Indicator
}

func (l linkStatus) OnLink(up bool) {
	s := indicator.Disconnected
	if up {
		s = indicator.Connected
	}
	if err := l.ind.Show(s); err != nil {
		debug.Error(err)
	}
}

// connect waits for the wireless link and shows Connected once it is up.
func (c *controller) connect(ctx context.Context, w config.WifiConfig, probe link.Probe) error {
	if err := waitWifi(ctx, w, c.status, probe); err != nil {
		return err
	}
	if err := c.status.Show(indicator.Connected); err != nil {
		debug.Error(err)
	}
	return nil
}

// fail shows the failure pattern until the process is interrupted, then
// reports err.
func (c *controller) fail(ctx context.Context, err error) error {
	debug.Error(err)
	if blinkErr := indicator.Blink(ctx, clock.New(), c.status, indicator.Failed, failBlinkPeriod, 0); blinkErr != nil && !errors.Is(blinkErr, context.Canceled) {
		debug.Error(blinkErr)
	}
	return cli.Exit(err, 1)
}

func (c *controller) close() error {
	var err error
	err = multierr.Append(err, c.status.Show(indicator.Off))
	err = multierr.Append(err, c.adc.Close())
	err = multierr.Append(err, c.gpio.Close())
	return err
}

// waitWifi blocks until the configured interface is associated. An empty
// interface name skips the wait.
func waitWifi(ctx context.Context, w config.WifiConfig, status indicator.Indicator, probe link.Probe) error {
	if w.Interface == "" {
		return nil
	}
	if w.Credentials != "" {
		creds, err := config.LoadCredentials(w.Credentials)
		if err != nil {
			return err
		}
		debug.Value("SSID", creds.SSID)
	}
	if err := status.Show(indicator.Connecting); err != nil {
		debug.Error(err)
	}
	err := link.WaitAssociated(ctx, probe, link.Options{
		Attempts: w.Attempts,
		Interval: w.Interval(),
		OnAttempt: func(n int) {
			debug.Verbose("Waiting for %s (attempt %d/%d)", w.Interface, n, w.Attempts)
		},
	})
	if err != nil {
		return fmt.Errorf("wifi %s: %w", w.Interface, err)
	}
	return nil
}
