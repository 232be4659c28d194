package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Nomadcxx/parsevideo/internal/logging"
)

// PeriodicScanner rescans the watched roots on a fixed interval so files
// missed by the watcher (events dropped while the daemon was down, network
// mounts) still reach the database.
type PeriodicScanner struct {
	interval time.Duration
	roots    []string
	scanner  *Scanner
	logger   *logging.Logger

	mu           sync.Mutex
	scanning     bool
	lastScan     time.Time
	lastSuccess  time.Time
	lastError    error
	skippedTicks int64
	healthy      bool
}

// NewPeriodicScanner creates a PeriodicScanner over roots.
func NewPeriodicScanner(s *Scanner, roots []string, interval time.Duration, logger *logging.Logger) *PeriodicScanner {
	if logger == nil {
		logger = logging.Nop()
	}
	return &PeriodicScanner{
		interval: interval,
		roots:    roots,
		scanner:  s,
		logger:   logger,
		healthy:  true,
	}
}

// IsHealthy reports whether the last scan succeeded
func (p *PeriodicScanner) IsHealthy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.healthy
}

// Status returns the current scanner status for health reporting
func (p *PeriodicScanner) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := Status{
		Healthy:      p.healthy,
		LastScan:     p.lastScan,
		LastSuccess:  p.lastSuccess,
		SkippedTicks: p.skippedTicks,
		Scanning:     p.scanning,
	}
	if p.lastError != nil {
		status.LastError = p.lastError.Error()
	}
	return status
}

// Start scans once immediately and then on every tick. It blocks until ctx
// is cancelled.
func (p *PeriodicScanner) Start(ctx context.Context) error {
	if p.interval <= 0 {
		return fmt.Errorf("periodic scan interval must be positive, got %s", p.interval)
	}

	p.logger.Info("scanner", "Periodic scanner starting",
		logging.F("interval", p.interval.String()),
		logging.F("roots", len(p.roots)))

	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("scanner", "Periodic scanner stopped")
			return nil
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *PeriodicScanner) tick(ctx context.Context) {
	p.mu.Lock()
	if p.scanning {
		p.skippedTicks++
		skipped := p.skippedTicks
		p.mu.Unlock()
		p.logger.Warn("scanner", "Periodic scan skipped - previous scan still running",
			logging.F("skipped_ticks", skipped))
		return
	}
	p.scanning = true
	p.mu.Unlock()

	err := p.runScan(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.scanning = false
	p.lastScan = time.Now()
	if err != nil {
		p.lastError = err
		p.healthy = false
		p.logger.Error("scanner", "Periodic scan failed", err)
		return
	}
	p.lastSuccess = p.lastScan
	p.lastError = nil
	p.healthy = true
}

func (p *PeriodicScanner) runScan(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scan panic: %v", r)
		}
	}()

	if len(p.roots) == 0 {
		return nil
	}

	result, err := p.scanner.Scan(ctx, p.roots...)
	if err != nil {
		return err
	}

	p.logger.Info("scanner", "Periodic scan complete",
		logging.F("duration_ms", result.Duration.Milliseconds()),
		logging.F("seen", result.FilesSeen),
		logging.F("parsed", result.FilesParsed),
		logging.F("removed", result.FilesRemoved),
		logging.F("errors", len(result.Errors)))

	return nil
}
