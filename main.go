package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nstehr/ogbot/agent"
	"github.com/nstehr/ogbot/browser"
	"github.com/nstehr/ogbot/build"
	"github.com/nstehr/ogbot/colony"
	"github.com/nstehr/ogbot/config"
	"github.com/nstehr/ogbot/empire"
	"github.com/nstehr/ogbot/fleet"
	"github.com/nstehr/ogbot/journal"
	"github.com/nstehr/ogbot/rules"
	"github.com/nstehr/ogbot/status"
)

const banner = `
 ██████╗  ██████╗ ██████╗  ██████╗ ████████╗
██╔═══██╗██╔════╝ ██╔══██╗██╔═══██╗╚══██╔══╝
██║   ██║██║  ███╗██████╔╝██║   ██║   ██║
██║   ██║██║   ██║██╔══██╗██║   ██║   ██║
╚██████╔╝╚██████╔╝██████╔╝╚██████╔╝   ██║
 ╚═════╝  ╚═════╝ ╚═════╝  ╚═════╝    ╚═╝

Empire-Status-Driven Automation`

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	closeLog, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging:", err)
		os.Exit(1)
	}
	defer closeLog()

	fmt.Println(banner)
	slog.Info("starting ogbot",
		"ports", cfg.Ports,
		"autoBuild", cfg.AutoBuild,
		"autoRaid", cfg.AutoRaid,
		"autoColonize", cfg.AutoColonize,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("ogbot stopped", "error", err)
		closeLog()
		os.Exit(1)
	}
	slog.Info("shutting down")
}

func run(ctx context.Context, cfg config.Config) error {
	doctrine := rules.DefaultDoctrine()
	if cfg.Doctrine != "" {
		d, err := rules.LoadDoctrine(cfg.Doctrine)
		if err != nil {
			return err
		}
		doctrine = d
	}
	slog.Info("doctrine loaded",
		"name", doctrine.Name,
		"economy", doctrine.EconomyPriority,
		"tech", doctrine.TechPriority,
		"aggression", doctrine.Aggression,
	)

	session, err := browser.Connect(ctx, browser.Options{
		Ports:          cfg.Ports,
		Launch:         cfg.Launch,
		BrowserPath:    cfg.BrowserPath,
		ProfileDir:     cfg.ProfileDir,
		Headless:       cfg.Headless,
		ActionInterval: cfg.ActionInterval,
	})
	if err != nil {
		if errors.Is(err, browser.ErrNoEndpoint) {
			slog.Error("no browser with remote debugging found",
				"ports", cfg.Ports,
				"hint", "start chrome with --remote-debugging-port=9222 or pass -launch",
			)
		}
		return err
	}
	defer session.Close()

	if err := browser.WaitForLogin(ctx, session, cfg.LoginPoll); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("wait for login: %w", err)
	}

	phases, err := buildPhases(cfg, doctrine, session)
	if err != nil {
		return err
	}
	reader := empire.NewReader(session)
	ctrl := agent.New(session, reader, phases, agent.Options{
		SleepSlice:  cfg.SleepSlice,
		RetryJitter: cfg.RetryJitter,
	})

	var history status.History
	if cfg.Journal != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Journal), 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
		store, err := journal.Open(cfg.Journal)
		if err != nil {
			return err
		}
		defer store.Close()
		ctrl.AddRecorder(store)
		history = store
		slog.Info("cycle journal enabled", "path", cfg.Journal)
	}

	tracker := status.NewTracker()
	ctrl.AddRecorder(tracker)
	if cfg.StatusAddr != "" {
		go func() {
			if err := status.Serve(ctx, cfg.StatusAddr, status.NewRouter(tracker, history)); err != nil {
				slog.Error("status server failed", "addr", cfg.StatusAddr, "error", err)
			}
		}()
	}

	return ctrl.Run(ctx)
}

// buildPhases returns the enabled phases in cycle order.
func buildPhases(cfg config.Config, d rules.Doctrine, p *browser.Session) ([]agent.Phase, error) {
	var phases []agent.Phase
	if cfg.AutoBuild {
		e, err := rules.NewBuildingEngine(d)
		if err != nil {
			return nil, fmt.Errorf("building rules: %w", err)
		}
		phases = append(phases, build.NewPhase(p, e))
	}
	if cfg.AutoRaid {
		e, err := rules.NewTargetEngine(d)
		if err != nil {
			return nil, fmt.Errorf("raid target rules: %w", err)
		}
		phases = append(phases, fleet.NewRaidPhase(p, e, cfg.RaidShips))
	}
	if cfg.AutoColonize {
		phases = append(phases, colony.NewPhase(p))
	}
	return phases, nil
}

// setupLogging installs a text handler writing to stdout and, when
// configured, the log file.
func setupLogging(cfg config.Config) (func(), error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	var w io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, f)
		closeFn = func() { f.Close() }
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return closeFn, nil
}
