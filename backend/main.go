package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/soar/padinput/backend/internal/backend/linuxjs"
	"github.com/soar/padinput/backend/internal/backend/replay"
	"github.com/soar/padinput/backend/internal/backend/sdl3"
	"github.com/soar/padinput/backend/internal/config"
	"github.com/soar/padinput/backend/internal/console"
	"github.com/soar/padinput/backend/internal/hub"
	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/rawevent"
	"github.com/soar/padinput/backend/internal/reader"
	"github.com/soar/padinput/backend/internal/server"
	"github.com/soar/padinput/backend/internal/store"
	"github.com/soar/padinput/backend/internal/tray"
)

// os.Interrupt is Ctrl+C on every platform
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "Usage of padinput:\n%s", config.Usage())
		return
	}
	if err != nil {
		log.Fatalf("Configuration: %v", err)
	}
	if cfg.ConfigFile != "" {
		log.Printf("Using config file %s", cfg.ConfigFile)
	}

	fromConsole := console.IsRunningFromConsole()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)
	consoleShutdown := make(chan struct{})
	reregister := console.SetupConsoleHandler(consoleShutdown)

	db := mapping.NewDatabase()
	for _, path := range cfg.Mappings {
		n, err := db.AddFromFile(path)
		if err != nil {
			log.Fatalf("Mappings: %v", err)
		}
		log.Printf("Loaded %d mappings from %s", n, path)
	}

	var st *store.Store
	if cfg.Store != "" {
		st, err = store.Open(cfg.Store)
		if err != nil {
			log.Fatalf("Mapping store: %v", err)
		}
		defer st.Close()
		n, err := st.Load(db)
		if err != nil {
			log.Printf("Some stored mappings were skipped: %v", err)
		}
		if n > 0 {
			log.Printf("Loaded %d saved mappings", n)
		}
	}

	backend, err := newBackend(cfg, db, reregister)
	if err != nil {
		log.Fatalf("Backend: %v", err)
	}

	opts := reader.Options{
		Deadzone:     cfg.Deadzone,
		PollInterval: cfg.PollInterval,
		Verbose:      cfg.Verbose,
	}
	if cfg.Record != "" {
		f, err := os.Create(cfg.Record)
		if err != nil {
			log.Fatalf("Record: %v", err)
		}
		defer f.Close()
		opts.Record = rawevent.NewWriter(f)
		log.Printf("Recording input to %s", cfg.Record)
	}
	r := reader.New(backend, db, opts)

	h := hub.NewHub()
	go h.Run(ctx)

	broadcaster := hub.NewBroadcaster(h, r.Changes())
	broadcaster.Slots = r.Slots
	go broadcaster.Run(ctx)

	srv := server.New(h, broadcaster, r, server.Options{
		Addr:     cfg.Listen,
		Frontend: getFrontendFS(),
		Store:    st,
	})
	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	url := tray.URL(cfg.Listen)
	log.Printf("padinput started: %s", url)

	shutdownRequested := make(chan struct{})
	var t *tray.Tray
	if cfg.Tray || !fromConsole {
		t = tray.New(url, func() {
			close(shutdownRequested)
		})
		go t.Run(tray.GetIcon())
	} else {
		log.Println("Press Ctrl+C to exit")
	}

	readerDone := make(chan error, 1)
	go func() {
		readerDone <- r.Run(ctx)
	}()

	select {
	case <-sigCh:
		log.Println("Shutting down...")
	case <-consoleShutdown:
		log.Println("Shutting down...")
	case <-shutdownRequested:
		log.Println("Shutdown requested from tray")
	case err := <-serverErrCh:
		log.Printf("HTTP server error: %v", err)
	case err := <-readerDone:
		// the pump only stops early when the backend fails to start
		log.Printf("Input stopped: %v", err)
		readerDone <- nil
	}
	cancel()

	if err := <-readerDone; err != nil {
		log.Printf("Input error: %v", err)
	}
	if t != nil {
		t.Quit()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("padinput stopped")
}

// newBackend creates the configured backend. Joysticks get gamepad events
// when the database has a record of their own for them.
func newBackend(cfg *config.Config, db *mapping.Database, afterInit func()) (reader.Backend, error) {
	isGamepad := func(g mapping.GUID) bool {
		return !db.Lookup(g).IsDefault()
	}

	switch cfg.Backend {
	case config.BackendSDL3:
		b := sdl3.New()
		b.IsGamepad = isGamepad
		b.AfterInit = afterInit
		return b, nil
	case config.BackendLinuxJS:
		b := linuxjs.New()
		b.IsGamepad = isGamepad
		return b, nil
	case config.BackendReplay:
		b := replay.Open(cfg.ReplayFile)
		b.Loop = cfg.ReplayLoop
		return b, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
