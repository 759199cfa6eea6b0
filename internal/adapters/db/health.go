// internal/adapters/db/health.go
package db

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// HealthSnapshot is the last observed database status. ConsecutiveFailures
// counts failed checks since the last success, so operators can tell a blip
// from an outage.
type HealthSnapshot struct {
	Healthy             bool      `json:"healthy"`
	CheckedAt           time.Time `json:"checked_at"`
	Latency             string    `json:"latency"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	Error               string    `json:"error,omitempty"`
}

// Pinger is the slice of the database the monitor needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthMonitor pings the database on an interval in the background and
// keeps the latest snapshot for the health endpoint to read without
// touching the pool on every request.
type HealthMonitor struct {
	db       Pinger
	interval time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	last     HealthSnapshot
	failures int

	stop chan struct{}
	done chan struct{}
}

// NewHealthMonitor creates a monitor; Start must be called to begin ticking.
func NewHealthMonitor(database Pinger, interval time.Duration, logger *slog.Logger) *HealthMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &HealthMonitor{
		db:       database,
		interval: interval,
		logger:   logger.With(slog.String("component", "db_health")),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background ticker. It performs one check immediately so
// the snapshot is never zero-valued.
func (m *HealthMonitor) Start(ctx context.Context) {
	m.check(ctx)

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
				m.check(ctx)
			}
		}
	}()
}

// Stop halts the ticker and waits for the goroutine to exit.
func (m *HealthMonitor) Stop() {
	close(m.stop)
	<-m.done
}

// Snapshot returns the latest observed status.
func (m *HealthMonitor) Snapshot() HealthSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

func (m *HealthMonitor) check(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	err := m.db.Ping(checkCtx)
	elapsed := time.Since(start)

	snap := HealthSnapshot{
		Healthy:   err == nil,
		CheckedAt: time.Now(),
		Latency:   elapsed.String(),
	}

	m.mu.Lock()
	if err != nil {
		m.failures++
		snap.Error = err.Error()
	} else {
		m.failures = 0
	}
	snap.ConsecutiveFailures = m.failures
	m.last = snap
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("database health check failed",
			slog.String("error", err.Error()),
			slog.Int("consecutive_failures", snap.ConsecutiveFailures),
			slog.Duration("latency", elapsed),
		)
	}
}
