package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli"
	"github.com/valerio/go-ctrlflow/ctrlflow"
	"github.com/valerio/go-ctrlflow/ctrlflow/backend"
	"github.com/valerio/go-ctrlflow/ctrlflow/backend/headless"
	"github.com/valerio/go-ctrlflow/ctrlflow/backend/sdl2"
	"github.com/valerio/go-ctrlflow/ctrlflow/backend/terminal"
	"github.com/valerio/go-ctrlflow/ctrlflow/config"
	"github.com/valerio/go-ctrlflow/ctrlflow/input"
	"github.com/valerio/go-ctrlflow/ctrlflow/logging"
	"github.com/valerio/go-ctrlflow/ctrlflow/scheduler"
	"github.com/valerio/go-ctrlflow/ctrlflow/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "ctrlflow"
	app.Description = "Interactive demo of the Wait, WaitUntil and Poll control flow modes"
	app.Usage = "ctrlflow [options]"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "Path to a YAML configuration file",
		},
		cli.StringFlag{
			Name:  "backend",
			Usage: "Backend to run: terminal, sdl2 or headless",
			Value: config.BackendTerminal,
		},
		cli.DurationFlag{
			Name:  "wait-time",
			Usage: "Deadline offset used in WaitUntil mode",
			Value: timing.DefaultWaitTime,
		},
		cli.DurationFlag{
			Name:  "poll-sleep",
			Usage: "Sleep applied on every iteration in Poll mode",
			Value: timing.DefaultPollSleepTime,
		},
		cli.IntFlag{
			Name:  "iterations",
			Usage: "Number of waits to run in headless mode (required for headless)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "script",
			Usage: "Scripted headless input, e.g. \"2:3,4:r,6:Escape\"",
		},
		cli.StringFlag{
			Name:  "title",
			Usage: "Window title",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
			Value: "info",
		},
		cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text or json",
			Value: "text",
		},
	}
	app.Action = runControlFlow

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running control flow", "error", err)
		os.Exit(1)
	}
}

func runControlFlow(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	level := logging.ParseLevel(cfg.LogLevel)
	slog.SetDefault(logging.NewLogger(level, cfg.LogFormat))

	keymap, err := cfg.Keymap()
	if err != nil {
		return err
	}

	title := cfg.Title
	if title == "" {
		title = backend.DefaultTitle
	}

	var (
		b       backend.Backend
		clock   timing.Clock   = timing.System()
		sleeper timing.Sleeper = timing.System()
		onPane  bool
	)

	switch strings.ToLower(cfg.Backend) {
	case config.BackendHeadless:
		iterations := c.Int("iterations")
		if iterations <= 0 {
			return errors.New("headless mode requires --iterations option with a positive value")
		}
		script, err := headless.ParseScript(c.String("script"))
		if err != nil {
			return err
		}
		manual := timing.NewManualClock(time.Now())
		clock, sleeper = manual, manual
		b = headless.New(manual, iterations, script)
	case config.BackendSDL2:
		b = sdl2.New()
	default:
		b = terminal.New()
		onPane = true
	}

	if err := b.Init(backend.Config{Title: title, Clock: clock, LogLevel: level}); err != nil {
		return fmt.Errorf("failed to initialize %s backend: %w", cfg.Backend, err)
	}
	defer func() {
		if err := b.Cleanup(); err != nil {
			slog.Error("Failed to clean up backend", "error", err)
		}
	}()

	showHelp(os.Stdout, input.HelpLines(keymap), onPane)

	s := scheduler.New(scheduler.Config{
		WaitTime:      cfg.WaitTime,
		PollSleepTime: cfg.PollSleepTime,
		Clock:         clock,
		Sleeper:       sleeper,
		Keymap:        keymap,
	}, b)

	return ctrlflow.New(b, s).Run(context.Background())
}

// showHelp prints the key bindings to w, or logs them when the terminal owns
// the screen and w would be overdrawn. The log pane lists newest entries
// first, so lines are logged last to first.
func showHelp(w io.Writer, lines []string, onPane bool) {
	if !onPane {
		for _, line := range lines {
			fmt.Fprintln(w, line)
		}
		return
	}
	for i := len(lines) - 1; i >= 0; i-- {
		slog.Info(lines[i])
	}
}

// loadConfig reads the optional config file, then applies explicitly set flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.IsSet("backend") || c.String("config") == "" {
		cfg.Backend = c.String("backend")
	}
	if c.IsSet("wait-time") {
		cfg.WaitTime = c.Duration("wait-time")
	}
	if c.IsSet("poll-sleep") {
		cfg.PollSleepTime = c.Duration("poll-sleep")
	}
	if c.IsSet("title") {
		cfg.Title = c.String("title")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.LogFormat = c.String("log-format")
	}

	return cfg, cfg.Validate()
}
