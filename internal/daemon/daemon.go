// Package daemon runs the long-lived parts of parsevideo together: the
// filesystem watcher, periodic rescans and the HTTP API.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/Nomadcxx/parsevideo/internal/api"
	"github.com/Nomadcxx/parsevideo/internal/logging"
	"github.com/Nomadcxx/parsevideo/internal/scanner"
	"github.com/Nomadcxx/parsevideo/internal/watcher"
)

const defaultShutdownTimeout = 10 * time.Second

// ErrAlreadyRunning is returned by Run when another daemon holds the lock.
var ErrAlreadyRunning = errors.New("another parsevideod instance is already running")

// Options selects which services a Daemon runs. Each is off when its
// setting is empty or zero.
type Options struct {
	// Roots are watched for changes and rescanned periodically.
	Roots     []string
	Recursive bool
	// RescanInterval enables periodic full scans of Roots.
	RescanInterval time.Duration
	// Addr enables the HTTP API.
	Addr string
	API  api.Options

	// LockPath, when set, is held with an exclusive file lock while the
	// daemon runs.
	LockPath string

	ShutdownTimeout time.Duration
}

// Daemon manages the background services
type Daemon struct {
	opts     Options
	logger   *logging.Logger
	handler  *scanner.WatchHandler
	watcher  *watcher.Watcher
	periodic *scanner.PeriodicScanner
	server   *Server
}

// New wires the services for s. The scanner's database also backs the API
// history routes unless opts.API.DB is set. s may be nil when Roots is
// empty.
func New(s *scanner.Scanner, opts Options, logger *logging.Logger) (*Daemon, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}

	d := &Daemon{opts: opts, logger: logger}

	if len(opts.Roots) > 0 {
		if s == nil {
			return nil, errors.New("watching directories needs a scanner")
		}
		d.handler = scanner.NewWatchHandler(s, opts.Roots)
		w, err := watcher.NewWatcher(d.handler,
			watcher.WithRecursive(opts.Recursive),
			watcher.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := w.Watch(opts.Roots); err != nil {
			w.Close()
			return nil, fmt.Errorf("unable to watch directories: %w", err)
		}
		d.watcher = w

		if opts.RescanInterval > 0 {
			d.periodic = scanner.NewPeriodicScanner(s, opts.Roots, opts.RescanInterval, logger)
		}
	}

	if opts.Addr != "" {
		apiOpts := opts.API
		if apiOpts.Logger == nil {
			apiOpts.Logger = logger
		}
		if apiOpts.DB == nil && s != nil {
			apiOpts.DB = s.DB()
		}
		if apiOpts.Scanner == nil && d.periodic != nil {
			apiOpts.Scanner = d.periodic
		}
		d.server = NewServer(opts.Addr, api.NewServer(apiOpts).Handler(), d.periodic, d.handler, logger)
	}

	if d.watcher == nil && d.server == nil {
		return nil, errors.New("nothing to run: no watch directories and no listen address")
	}

	return d, nil
}

// Periodic returns the periodic scanner, nil when rescans are off.
func (d *Daemon) Periodic() *scanner.PeriodicScanner {
	return d.periodic
}

// Server returns the HTTP server, nil when the API is off.
func (d *Daemon) Server() *Server {
	return d.server
}

// Run starts every configured service and blocks until ctx is cancelled or
// one of them fails, then shuts the rest down.
func (d *Daemon) Run(ctx context.Context) error {
	return d.run(ctx, nil)
}

// RunListener is Run with the HTTP API served on l instead of Options.Addr.
func (d *Daemon) RunListener(ctx context.Context, l net.Listener) error {
	return d.run(ctx, l)
}

func (d *Daemon) run(ctx context.Context, l net.Listener) error {
	if d.opts.LockPath != "" {
		lock := flock.New(d.opts.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			d.closeWatcher()
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			d.closeWatcher()
			return ErrAlreadyRunning
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				d.logger.Warn("daemon", "Failed to release daemon lock", logging.F("error", err.Error()))
			}
		}()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errChan := make(chan error, 3)
	var wg sync.WaitGroup
	start := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				errChan <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}

	if d.watcher != nil {
		start("watcher", func() error { return d.watcher.Start(ctx) })
	}
	if d.periodic != nil {
		start("periodic scanner", func() error { return d.periodic.Start(ctx) })
	}
	if d.server != nil {
		start("server", func() error {
			if l != nil {
				return d.server.Serve(l)
			}
			return d.server.Start()
		})
	}

	d.logger.Info("daemon", "Daemon started",
		logging.F("watch_dirs", len(d.opts.Roots)),
		logging.F("rescan_interval", d.opts.RescanInterval.String()),
		logging.F("addr", d.opts.Addr))

	var runErr error
	select {
	case <-ctx.Done():
		d.logger.Info("daemon", "Shutting down")
	case runErr = <-errChan:
		d.logger.Error("daemon", "Service failed, shutting down", runErr)
	}

	cancel()
	d.shutdown()
	wg.Wait()

	return runErr
}

func (d *Daemon) shutdown() {
	if d.server != nil {
		d.server.SetHealthy(false)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), d.opts.ShutdownTimeout)
		defer shutdownCancel()
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			d.logger.Warn("daemon", "HTTP shutdown incomplete", logging.F("error", err.Error()))
		}
	}
	d.closeWatcher()
	d.logger.Info("daemon", "Daemon stopped")
}

// closeWatcher releases the watches New set up. Safe to call more than once.
func (d *Daemon) closeWatcher() {
	if d.watcher == nil {
		return
	}
	if err := d.watcher.Close(); err != nil {
		d.logger.Warn("daemon", "Error closing watcher", logging.F("error", err.Error()))
	}
}
