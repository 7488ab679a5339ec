// Command manipulator drives the simulated manipulator from the terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"golang.org/x/term"

	"nickandperla.net/manipulator/internal/config"
	"nickandperla.net/manipulator/internal/logging"
	"nickandperla.net/manipulator/pkg/manipulator"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("manipulator", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		execStr    = fs.String("e", "", "Execute a command string")
		file       = fs.String("f", "", "Execute commands from a file, one per line")
		optimize   = fs.String("optimize", "", "Print the optimized form of a command and exit")
		configPath = fs.String("config", "manipulator.toml", "TOML config file")
		dbPath     = fs.String("db", "", "SQLite history database (default: in memory)")
		speed      = fs.Duration("speed", 0, "Delay before each step (overrides config)")
		samples    = fs.Int("samples", 0, "Number of random samples (overrides config)")
		seed       = fs.Uint64("seed", 0, "Seed for sample placement (overrides config)")
		logLevel   = fs.String("log-level", "", "Log level: debug, info, warn, error")
		logFile    = fs.String("log-file", "", "Also write JSON logs to this file")
		trace      = fs.Bool("trace", false, "Print every step")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *optimize != "" {
		fmt.Fprintln(stdout, manipulator.Optimize(normalize(*optimize)))
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	// Flags win over file and environment.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.DB = *dbPath
		case "speed":
			cfg.StepDelay.Duration = *speed
		case "samples":
			cfg.Samples = *samples
		case "seed":
			cfg.Seed = *seed
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-file":
			cfg.Log.File = *logFile
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	level := new(slog.LevelVar)
	lvl, _ := cfg.Level()
	level.Set(lvl)
	logger, closer, err := logging.New(stderr, logging.Options{Level: level, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(stderr, "Error opening log file: %v\n", err)
		return 1
	}
	defer closer.Close()

	opts := []manipulator.Option{
		manipulator.WithLogger(logger),
		manipulator.WithStepDelay(cfg.StepDelay.Duration),
		manipulator.WithSampleCount(cfg.Samples),
		manipulator.WithSeed(cfg.Seed),
	}
	if cfg.DB != "" {
		opts = append(opts, manipulator.WithSQLiteHistory(cfg.DB))
	}
	if *trace {
		opts = append(opts, manipulator.WithStepHandler(func(snap manipulator.Snapshot) {
			fmt.Fprintln(stdout, formatStep(snap))
		}))
	}

	runtime, err := manipulator.New(opts...)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer runtime.Close()

	cli := &cli{runtime: runtime, out: stdout, errOut: stderr}

	switch {
	case *execStr != "":
		if err := cli.execute(*execStr); err != nil {
			return 1
		}
	case *file != "":
		if err := cli.executeFile(*file); err != nil {
			return 1
		}
	default:
		interactive := false
		if f, ok := stdin.(*os.File); ok {
			interactive = term.IsTerminal(int(f.Fd()))
		}
		cli.repl(stdin, interactive)
	}
	return 0
}

// cli is the presentation layer around a runtime.
type cli struct {
	runtime *manipulator.Runtime
	out     io.Writer
	errOut  io.Writer
}

// execute runs one command; Ctrl-C stops the playback but keeps the state
// reached so far.
func (c *cli) execute(raw string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := normalize(raw)
	start := time.Now()
	res, err := c.runtime.Execute(ctx, cmd)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled) && res != nil:
			fmt.Fprintf(c.errOut, "Stopped after %d steps\n", len(res.Steps))
			fmt.Fprint(c.out, c.runtime.Render())
		case errors.Is(err, manipulator.ErrBusy):
			fmt.Fprintln(c.errOut, "Busy: a command is already running")
		default:
			fmt.Fprintf(c.errOut, "Error: %v\n", err)
		}
		return err
	}

	fmt.Fprintf(c.out, "Optimized: %s\n", res.Optimized)
	fmt.Fprint(c.out, c.runtime.Render())
	fmt.Fprintf(c.out, "Done: %d steps in %s\n", len(res.Steps), time.Since(start).Round(time.Millisecond))
	return nil
}

func (c *cli) executeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(c.errOut, "Error opening file: %v\n", err)
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := c.execute(line); err != nil {
			return err
		}
	}
	return sc.Err()
}

func formatStep(snap manipulator.Snapshot) string {
	s := fmt.Sprintf("%4d %s %s", snap.Step, snap.Symbol, snap.State.Position)
	if snap.State.IsHolding() {
		s += fmt.Sprintf(" holding %d", snap.State.Holding)
	}
	return s
}
