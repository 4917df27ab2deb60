package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultMaxIdle is how long a session may sit without a turn before it
	// is dropped.
	DefaultMaxIdle = 30 * time.Minute
	// DefaultCleanupInterval is the default interval between cleanup runs.
	DefaultCleanupInterval = 5 * time.Minute
)

// CleanupConfig holds configuration for the cleanup job.
type CleanupConfig struct {
	MaxIdle         time.Duration
	CleanupInterval time.Duration
}

// DefaultCleanupConfig returns the default cleanup configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		MaxIdle:         DefaultMaxIdle,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// CleanupJob periodically drops idle sessions from a manager.
type CleanupJob struct {
	manager *Manager
	config  CleanupConfig

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

// NewCleanupJob creates a cleanup job over the given manager.
func NewCleanupJob(manager *Manager, config CleanupConfig) *CleanupJob {
	if config.MaxIdle <= 0 {
		config.MaxIdle = DefaultMaxIdle
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCleanupInterval
	}
	return &CleanupJob{
		manager: manager,
		config:  config,
	}
}

// Start begins the periodic cleanup in a goroutine. Starting a running job
// is a no-op.
func (j *CleanupJob) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return
	}
	j.running = true
	j.stopChan = make(chan struct{})

	go j.run(ctx)

	slog.Info("session cleanup job started",
		"max_idle", j.config.MaxIdle,
		"interval", j.config.CleanupInterval)
}

// Stop stops the cleanup job.
func (j *CleanupJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}
	close(j.stopChan)
	j.running = false

	slog.Info("session cleanup job stopped")
}

// RunOnce executes a single cleanup pass immediately.
func (j *CleanupJob) RunOnce() int {
	return j.manager.CleanupIdle(j.config.MaxIdle)
}

// IsRunning reports whether the job is currently running.
func (j *CleanupJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *CleanupJob) run(ctx context.Context) {
	ticker := time.NewTicker(j.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stopChan:
			return
		case <-ticker.C:
			j.RunOnce()
		}
	}
}
