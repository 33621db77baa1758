package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cjeanneret/GoRover/internal/config"
	"github.com/cjeanneret/GoRover/internal/debug"
	"github.com/cjeanneret/GoRover/internal/hw/gpio"
	"github.com/cjeanneret/GoRover/internal/hw/indicator"
	"github.com/cjeanneret/GoRover/internal/hw/motor"
	"github.com/cjeanneret/GoRover/internal/link"
	"github.com/cjeanneret/GoRover/internal/logic/drive"
	"github.com/cjeanneret/GoRover/internal/logic/motion"
	"github.com/cjeanneret/GoRover/internal/telemetry"
	"github.com/cjeanneret/GoRover/internal/web"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const (
	failBlinkPeriod  = 500 * time.Millisecond
	readyBlinkPeriod = 200 * time.Millisecond
	readyBlinks      = 3
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "rover",
		Usage: "drive the rover motors from HTTP commands",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   filepath.Join("configs", "rover.yaml"),
				Usage:   "path to config file",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "override server.port",
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
func applyFlags(c *cli.Context, cfg *config.RoverConfig) error {
	if c.IsSet("port") {
		p := c.Int("port")
		if p < 1 || p > 65535 {
			return fmt.Errorf("port must be 1-65535, got %d", p)
		}
		cfg.Server.Port = p
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
	cfg, err := config.LoadRover(cfgPath)
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
	debug.Value("GPIO driver", cfg.Defaults.GPIODriver)

	debug.Step(1, "Initializing GPIO driver")
	g, err := gpio.NewDriver(cfg.Defaults.GPIODriver)
	if err != nil {
		return cli.Exit(fmt.Errorf("init GPIO: %w", err), 1)
	}

	r, err := buildRover(ctx, cfg, g)
	if err != nil {
		return cli.Exit(multierr.Append(err, g.Close()), 1)
	}
	defer func() {
		if err := r.close(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(r.events)))

	if err := waitWifi(ctx, cfg.Wifi, r.status, link.InterfaceProbe{Name: cfg.Wifi.Interface}); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return r.fail(ctx, err)
	}

	debug.Step(5, "Binding "+cfg.ListenAddr())
	ln, err := r.server.Listen()
	if err != nil {
		return r.fail(ctx, err)
	}

	if err := indicator.Blink(ctx, clock.New(), r.status, indicator.Connected, readyBlinkPeriod, readyBlinks); err != nil {
		_ = ln.Close()
		return nil
	}
	if err := r.status.Show(indicator.Connected); err != nil {
		debug.Error(err)
	}
	debug.Summary("Rover ready on " + ln.Addr().String())

	if err := r.serve(ctx, ln); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}

// rover holds the assembled drive stack.
type rover struct {
	gpio     gpio.Driver
	status   indicator.Indicator
	base     *motion.Controller
	drive    *drive.Controller
	events   *web.StatusBroadcaster
	server   *web.Server
	reporter *telemetry.Reporter
	sink     *telemetry.RedisSink
}

// buildRover wires motors, drive controller, observers and HTTP server.
// Extra drive options are appended after the configured ones.
func buildRover(ctx context.Context, cfg *config.RoverConfig, g gpio.Driver, opts ...drive.Option) (*rover, error) {
	r := &rover{gpio: g, events: web.NewStatusBroadcaster()}

	status, err := indicator.New(g, indicator.LEDPins(cfg.StatusLED))
	if err != nil {
		return nil, err
	}
	r.status = status

	debug.Step(2, "Initializing motors")
	left, right, err := newMotors(g, cfg)
	if err != nil {
		return nil, err
	}
	r.base = motion.NewController(left, right)
	debug.PrintStruct("Left motor", cfg.LeftMotor)
	debug.PrintStruct("Right motor", cfg.RightMotor)

	driveOpts := []drive.Option{drive.WithObserver(r.events)}
	if cfg.Telemetry.RedisAddr != "" {
		debug.Step(3, "Connecting telemetry to "+cfg.Telemetry.RedisAddr)
		sink, err := telemetry.NewRedisSink(ctx, cfg.Telemetry.RedisAddr)
		if err != nil {
			return nil, err
		}
		r.sink = sink
		r.reporter = telemetry.NewReporter(sink, cfg.Telemetry.Buffer)
		driveOpts = append(driveOpts, drive.WithObserver(r.reporter))
	}

	debug.Step(4, "Creating drive controller")
	dcfg := cfg.DriveConfig()
	r.drive = drive.NewController(r.base, dcfg, append(driveOpts, opts...)...)
	debug.Value("Speed", dcfg.Speed)
	debug.Value("Window", dcfg.Window)
	debug.Value("Kinematics", dcfg.Kinematics)

	r.server, err = web.NewServer(cfg.ListenAddr(), cfg.Server.MaxConns, r.drive, r.events, web.Settings{
		Speed:      dcfg.Speed,
		Window:     dcfg.Window,
		Kinematics: dcfg.Kinematics.String(),
	})
	if err != nil {
		return nil, multierr.Append(err, r.closeSink())
	}
	return r, nil
}

func newMotors(g gpio.Driver, cfg *config.RoverConfig) (*motor.Motor, *motor.Motor, error) {
	left, err := motor.NewMotor(g, motorConfig("left", cfg.LeftMotor, cfg.Drive.PWMFreqHz))
	if err != nil {
		return nil, nil, err
	}
	right, err := motor.NewMotor(g, motorConfig("right", cfg.RightMotor, cfg.Drive.PWMFreqHz))
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func motorConfig(name string, m config.MotorConfig, freqHz int) motor.Config {
	return motor.Config{
		Name:   name,
		PWMPin: m.PWMPin,
		In1Pin: m.In1Pin,
		In2Pin: m.In2Pin,
		FreqHz: freqHz,
		Invert: m.Invert,
	}
}

// serve runs the HTTP server and the telemetry reporter until ctx is done.
func (r *rover) serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.server.Serve(gctx, ln)
	})
	if r.reporter != nil {
		g.Go(func() error {
			return r.reporter.Run(gctx)
		})
	}
	return g.Wait()
}

// fail shows the failure pattern until the process is interrupted, then
// reports err.
func (r *rover) fail(ctx context.Context, err error) error {
	debug.Error(err)
	if showErr := r.status.Show(indicator.Failed); showErr != nil {
		debug.Error(showErr)
	}
	if blinkErr := indicator.Blink(ctx, clock.New(), r.status, indicator.Failed, failBlinkPeriod, 0); blinkErr != nil && !errors.Is(blinkErr, context.Canceled) {
		debug.Error(blinkErr)
	}
	return cli.Exit(err, 1)
}

// close stops the motors and releases every resource.
func (r *rover) close() error {
	var err error
	err = multierr.Append(err, r.base.Stop())
	err = multierr.Append(err, r.status.Show(indicator.Off))
	err = multierr.Append(err, r.closeSink())
	err = multierr.Append(err, r.gpio.Close())
	return err
}

func (r *rover) closeSink() error {
	if r.sink == nil {
		return nil
	}
	return r.sink.Close()
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
	return link.WaitAssociated(ctx, probe, link.Options{
		Attempts: w.Attempts,
		Interval: w.Interval(),
		OnAttempt: func(n int) {
			debug.Verbose("Waiting for %s (attempt %d)", w.Interface, n)
		},
	})
}
