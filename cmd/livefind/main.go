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

	tea "github.com/charmbracelet/bubbletea"

	"livefind/internal/config"
	"livefind/internal/engine"
	"livefind/internal/eventbus"
	"livefind/internal/feed"
	"livefind/internal/page"
	"livefind/internal/sched"
	"livefind/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default: user config dir)")
	feedDir := flag.String("feed", "", "directory whose dropped files drive the page")
	location := flag.String("url", "", "location to report for the page (default: the source)")
	debug := flag.Bool("debug", false, "log debug messages")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: livefind [flags] <page.html|url>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	source := flag.Arg(0)

	// Set up logging; the terminal belongs to the UI
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logFile, err := os.OpenFile("livefind.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not open log file: %v\n", err)
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	} else {
		defer logFile.Close()
		slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level})))
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Load configuration
	configSvc := config.NewConfigService()
	var cfg *config.Config
	if *configPath != "" {
		cfg, err = configSvc.LoadFromPath(*configPath)
	} else {
		cfg, err = configSvc.Load()
	}
	if err != nil {
		slog.Warn("error loading config, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	// Load the page
	doc, loc, err := page.NewLoader().Load(ctx, source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading page: %v\n", err)
		os.Exit(1)
	}
	if *location != "" {
		loc = *location
	}
	slog.Info("page loaded", "source", source, "location", loc)

	// Everything that touches the document runs on this loop
	loop := sched.NewLoop(256)
	go loop.Run(context.Background())

	bus := eventbus.New(loop)
	win := page.NewWindow(doc, loc, bus)
	eng := engine.New(win, loop, bus, cfg.EngineOptions())
	loop.Post(eng.Start)

	if *feedDir != "" {
		f, err := feed.New(*feedDir, win, loop, bus, feed.Options{
			Targets: cfg.Feed.Targets,
			Settle:  cfg.Feed.Settle.Duration,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error starting feed: %v\n", err)
			os.Exit(1)
		}
		if err := f.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting feed: %v\n", err)
			os.Exit(1)
		}
		defer f.Stop()
	}

	// Create UI model
	uiModel := ui.NewModel(bus, cfg, eng, loc)

	// Create Bubble Tea program
	p := tea.NewProgram(uiModel, tea.WithAltScreen())
	uiModel.SetProgram(p)

	// Set up event forwarding to UI
	eventChan := make(chan eventbus.DomainEvent, 100)
	for _, et := range []eventbus.EventType{
		eventbus.EventSearchCompleted,
		eventbus.EventMatchFocused,
		eventbus.EventSearchCleared,
		eventbus.EventNavigationDetected,
		eventbus.EventContentInserted,
		eventbus.EventError,
	} {
		bus.Subscribe(et, func(e eventbus.DomainEvent) {
			select {
			case eventChan <- e:
			default:
				slog.Warn("event channel full, dropping event", "type", e.Type())
			}
		})
	}

	// Start forwarding events to UI in background
	go func() {
		for event := range eventChan {
			p.Send(ui.EventMsg{Event: event})
		}
	}()

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	// Run the UI
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}

	// Cleanup: let the engine strip its marks before the loop goes away
	bus.Publish(eventbus.BeforeUnloadEvent{})
	flushCtx, flushCancel := context.WithTimeout(context.Background(), time.Second)
	if _, err := sched.Call(flushCtx, loop, func() struct{} { return struct{}{} }); err != nil {
		slog.Warn("engine did not unload in time", "error", err)
	}
	flushCancel()
	loop.Stop()
	close(eventChan)
	cancel()
}
