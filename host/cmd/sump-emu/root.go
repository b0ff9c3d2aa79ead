package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gosump/analyzer"
	"gosump/capture"
	"gosump/core"
	"gosump/host/config"
	"gosump/host/serial"
	"gosump/protocol"
	"gosump/sim"
)

var (
	configPath  string
	device      string
	baud        int
	channels    uint32
	pattern     string
	period      uint64
	tickMicros  int
	maxBatch    int
	triggerEdge bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "sump-emu",
	Short: "RP2040 logic analyzer emulator",
	Long: `Runs the logic analyzer firmware against simulated sampling hardware
and serves the SUMP protocol on a serial device.

Examples:
  socat -d -d pty,raw,echo=0 pty,raw,echo=0        # create a pty pair
  sump-emu --device /dev/pts/3 --pattern counter   # serve one end
  sump-emu --config emu.json -v                    # settings from a file`,
	Version:      protocol.DeviceVersion,
	SilenceUsage: true,
	RunE:         runEmulator,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "JSON configuration file")
	flags.StringVarP(&device, "device", "d", "", "serial device to serve")
	flags.IntVar(&baud, "baud", serial.DefaultBaud, "baud rate")
	flags.Uint32Var(&channels, "channels", core.ChannelCount, "number of sampled channels")
	flags.StringVar(&pattern, "pattern", "counter", "signal pattern: counter, clocks, walking, low")
	flags.Uint64Var(&period, "period", 1, "samples per pattern step")
	flags.IntVar(&tickMicros, "tick-us", 1000, "simulated sampler tick in microseconds")
	flags.IntVar(&maxBatch, "max-batch", 0, "maximum samples generated per tick (0 = unbounded)")
	flags.BoolVar(&triggerEdge, "trigger-edge", true, "treat parallel stage triggers as edges")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug output on stderr")
}

// loadConfig reads the file and lets explicitly set flags override it
func loadConfig(cmd *cobra.Command) (*config.EmulatorConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Device = device
	}
	if flags.Changed("baud") {
		cfg.Baud = baud
	}
	if flags.Changed("channels") {
		cfg.Channels = channels
	}
	if flags.Changed("pattern") {
		cfg.Pattern = pattern
	}
	if flags.Changed("period") {
		cfg.Period = period
	}
	if flags.Changed("tick-us") {
		cfg.TickMicros = tickMicros
	}
	if flags.Changed("max-batch") {
		cfg.MaxBatch = maxBatch
	}
	if flags.Changed("trigger-edge") {
		cfg.TriggerEdge = &triggerEdge
	}
	if flags.Changed("verbose") {
		cfg.Debug = verbose
	}
	return cfg, cfg.Validate()
}

func runEmulator(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	core.SetDebugWriter(func(s string) {
		fmt.Fprintf(os.Stderr, "%s %s\n", time.Now().Format("15:04:05.000000"), s)
	})
	core.SetDebugEnabled(cfg.Debug)
	core.InitAsyncDebug()

	sig, err := sim.Pattern(cfg.Pattern, cfg.Period)
	if err != nil {
		return fmt.Errorf("pattern %q: %w", cfg.Pattern, err)
	}

	serialCfg := serial.DefaultConfig(cfg.Device)
	serialCfg.Baud = cfg.Baud
	port, err := serial.Open(serialCfg)
	if err != nil {
		return err
	}
	defer port.Close()

	hw := sim.NewHardware(sig)
	fifo := protocol.NewFifoBuffer(4096)
	a, err := analyzer.New(analyzer.Config{
		Port:     protocol.NewFifoPort(fifo, port),
		Boot:     cfg.Boot(),
		Hardware: hw,
		Clock:    sim.NewClock(capture.SlowClockHz),
	})
	if err != nil {
		return fmt.Errorf("init analyzer: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Serving SUMP on %s (%d channels, %s pattern)\n", cfg.Device, cfg.Channels, cfg.Pattern)

	interval := time.Duration(cfg.TickMicros) * time.Microsecond
	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		return hw.Run(ctx, interval, cfg.MaxBatch)
	})
	grp.Go(func() error {
		return pump(ctx, port, fifo)
	})
	grp.Go(func() error {
		return a.Run(ctx)
	})

	err = grp.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
