// Package health provides health checking for the AI service boundaries.
// It implements periodic probes with configurable intervals and failure
// thresholds, feeding the services-status endpoint.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Checkable is any boundary that can answer a health probe.
type Checkable interface {
	// HealthCheck returns nil when the service is reachable and healthy.
	HealthCheck(ctx context.Context) error
}

// ServiceStatus represents the current health state of one AI boundary.
// All fields are safe for JSON serialization and are exposed via the
// services-status endpoint.
type ServiceStatus struct {
	// Name identifies the monitored boundary (e.g., "genai").
	Name string `json:"name"`

	// IsHealthy indicates whether the service passed recent health checks
	IsHealthy bool `json:"is_healthy"`

	// LastCheckTime records when the most recent health check was performed
	LastCheckTime time.Time `json:"last_check_time"`

	// ConsecutiveFails counts how many health checks have failed in a row
	// Reset to 0 when a check succeeds
	ConsecutiveFails int `json:"consecutive_fails"`

	// ErrorMessage contains the last error message if health check failed
	// Empty string if healthy
	ErrorMessage string `json:"error_message"`
}

// Checker performs periodic health checks on one AI boundary.
// It tracks consecutive failures and flips to unhealthy at the threshold.
//
// Thread-safety: all public methods are thread-safe via sync.RWMutex.
type Checker struct {
	name          string
	target        Checkable
	logger        *slog.Logger
	status        *ServiceStatus
	mu            sync.RWMutex
	checkInterval time.Duration
	failThreshold int
	stopChan      chan struct{}
}

// NewChecker creates a Checker for the named boundary.
// The checker starts in a healthy state (optimistic assumption).
// Call Start() to begin periodic health checks.
func NewChecker(name string, target Checkable, logger *slog.Logger, checkInterval time.Duration, failThreshold int) *Checker {
	return &Checker{
		name:          name,
		target:        target,
		logger:        logger,
		checkInterval: checkInterval,
		failThreshold: failThreshold,
		stopChan:      make(chan struct{}),
		status: &ServiceStatus{
			Name:          name,
			IsHealthy:     true, // Start optimistic
			LastCheckTime: time.Now(),
		},
	}
}

// Start begins periodic health checking. It performs an immediate check,
// then checks at regular intervals. The loop stops when Stop() is called
// or the context is cancelled. This method blocks; run it in a goroutine.
func (hc *Checker) Start(ctx context.Context) {
	ticker := time.NewTicker(hc.checkInterval)
	defer ticker.Stop()

	// Perform immediate check on startup
	hc.performCheck(ctx)

	for {
		select {
		case <-ticker.C:
			hc.performCheck(ctx)
		case <-hc.stopChan:
			hc.logger.Info("health checker stopped", "service", hc.name)
			return
		case <-ctx.Done():
			hc.logger.Info("health checker context cancelled", "service", hc.name)
			return
		}
	}
}

// performCheck executes a single health check and updates the status.
// It manages the consecutive failure counter and logging.
func (hc *Checker) performCheck(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := hc.target.HealthCheck(checkCtx)

	hc.mu.Lock()
	defer hc.mu.Unlock()

	hc.status.LastCheckTime = time.Now()

	if err == nil {
		// Health check passed - reset failure counter
		hc.status.IsHealthy = true
		hc.status.ConsecutiveFails = 0
		hc.status.ErrorMessage = ""
		hc.logger.Debug("health check passed", "service", hc.name)
		return
	}

	hc.status.ConsecutiveFails++
	hc.status.ErrorMessage = fmt.Sprintf("health check failed: %s", err)

	if hc.status.ConsecutiveFails >= hc.failThreshold {
		hc.status.IsHealthy = false
		hc.logger.Error("service marked unhealthy",
			"service", hc.name,
			"consecutive_fails", hc.status.ConsecutiveFails,
			"error", err,
		)
	} else {
		hc.logger.Warn("health check failed",
			"service", hc.name,
			"consecutive_fails", hc.status.ConsecutiveFails,
			"threshold", hc.failThreshold,
			"error", err,
		)
	}
}

// PerformCheckNow runs one health check immediately, outside the periodic
// schedule. Useful for probing the boundary at startup before the first
// tick.
func (hc *Checker) PerformCheckNow(ctx context.Context) {
	hc.performCheck(ctx)
}

// GetStatus returns a copy of the current health status.
// Thread-safe for concurrent access.
func (hc *Checker) GetStatus() ServiceStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return *hc.status // Return copy, not pointer
}

// Stop gracefully terminates the health checking goroutine.
// It is safe to call Stop multiple times (subsequent calls are no-ops).
func (hc *Checker) Stop() {
	select {
	case <-hc.stopChan:
		// Already closed, do nothing
	default:
		close(hc.stopChan)
	}
}
