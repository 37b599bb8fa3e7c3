// demo is a small terminal application built on mvux.
//
// Usage:
//
//	demo [flags]
//
// Flags:
//
//	-config string    Path to a TOML configuration file
//	-headless         Print views as lines instead of running the terminal UI
//	-duration duration Stop after this long in headless mode (default 5s)
//	-ws string        WebSocket URL whose messages are shown in the feed
//	-trace string     Write a JSON-lines step trace to this file
//	-replay string    Dispatch the messages of a trace before starting
//	-log string       Log file (default stderr when headless, none in the UI)
//	-verbose          Enable debug logging
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/comalice/mvux"
	"github.com/comalice/mvux/internal/config"
	"github.com/comalice/mvux/snapshot"
	"github.com/comalice/mvux/sub"
	"github.com/comalice/mvux/teahost"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to a TOML configuration file")
		headless   = flag.Bool("headless", false, "Print views as lines instead of running the terminal UI")
		duration   = flag.Duration("duration", 5*time.Second, "Stop after this long in headless mode")
		wsURL      = flag.String("ws", "", "WebSocket URL whose messages are shown in the feed")
		tracePath  = flag.String("trace", "", "Write a JSON-lines step trace to this file")
		replayPath = flag.String("replay", "", "Dispatch the messages of a trace before starting")
		logPath    = flag.String("log", "", "Log file")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "demo: %v\n", err)
			os.Exit(1)
		}
	}
	if *wsURL != "" {
		cfg.Demo.WebSocketURL = *wsURL
	}
	if *tracePath != "" {
		cfg.Demo.Trace = *tracePath
	}

	tui := !*headless && isatty.IsTerminal(os.Stdout.Fd())

	var logOut io.Writer = io.Discard
	switch {
	case *logPath != "":
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "demo: open log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	case !tui:
		logOut = os.Stderr
	}
	logger := cfg.Runtime.Logger(logOut, *verbose)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, tui, *duration, *replayPath); err != nil {
		logger.Error("demo failed", "err", err)
		fmt.Fprintf(os.Stderr, "demo: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, tui bool, headlessFor time.Duration, replayPath string) error {
	reg := sub.NewRegistry(
		sub.WithFrameInterval(cfg.Runtime.FrameInterval.Duration),
		sub.WithLogger(logger),
	)
	d := demo{tick: cfg.Demo.Tick.Duration, wsURL: cfg.Demo.WebSocketURL}
	codec := msgCodec()

	opts := []mvux.Option{mvux.WithRegistry(reg), mvux.WithLogger(logger)}
	if cfg.Demo.Trace != "" {
		f, err := os.Create(cfg.Demo.Trace)
		if err != nil {
			return fmt.Errorf("create trace: %w", err)
		}
		defer f.Close()
		opts = append(opts, mvux.WithObserver(snapshot.NewTracer(f, codec, logger)))
	}

	var host *teahost.Host
	if tui {
		host = teahost.New(reg.Target().(sub.Emitter))
		opts = append(opts, mvux.WithRenderer(host.Render))
	} else {
		opts = append(opts, mvux.WithRenderer(func(view string) { fmt.Println(view) }))
	}

	prog, err := mvux.New(d.app(), opts...)
	if err != nil {
		return err
	}

	if replayPath != "" {
		f, err := os.Open(replayPath)
		if err != nil {
			return fmt.Errorf("open replay: %w", err)
		}
		msgs, err := snapshot.ReadTrace(f, codec)
		f.Close()
		if err != nil {
			return err
		}
		for _, m := range msgs {
			prog.Dispatch(m)
		}
		logger.Info("replay queued", "messages", len(msgs))
	}

	g, ctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := prog.Start(runCtx); err != nil {
		return err
	}
	logger.Info("program started", "id", prog.ID(), "tui", tui)

	if tui {
		g.Go(func() error {
			defer cancel()
			return host.Run(runCtx)
		})
	} else {
		g.Go(func() error {
			select {
			case <-time.After(headlessFor):
			case <-runCtx.Done():
			}
			cancel()
			return nil
		})
	}
	g.Go(func() error {
		<-prog.Done()
		return nil
	})

	err = g.Wait()
	logger.Info("program stopped", "id", prog.ID(), "model", prog.Model())
	return err
}
