package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager runs registered checkers periodically and reports aggregate status
type Manager struct {
	checkers      map[string]Checker
	lastResults   map[string]CheckResult
	checkInterval time.Duration
	started       bool
	stopCh        chan struct{}
	logger        *zap.Logger
	mu            sync.RWMutex
}

// NewManager creates a new health manager
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		checkers:      make(map[string]Checker),
		lastResults:   make(map[string]CheckResult),
		checkInterval: 30 * time.Second,
		stopCh:        make(chan struct{}),
		logger:        logger,
	}
}

// RegisterChecker registers a health check
func (m *Manager) RegisterChecker(checker Checker) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := checker.Name()
	if name == "" {
		return fmt.Errorf("checker name cannot be empty")
	}
	if _, exists := m.checkers[name]; exists {
		return fmt.Errorf("checker %s already registered", name)
	}
	m.checkers[name] = checker
	return nil
}

// Start begins background health checking
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("health manager already started")
	}
	m.started = true
	m.mu.Unlock()

	m.runChecks(ctx)
	go m.loop(ctx)
	return nil
}

// Stop stops background health checking
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return nil
	}
	m.started = false
	close(m.stopCh)
	return nil
}

func (m *Manager) loop(ctx context.Context) {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.runChecks(ctx)
		}
	}
}

func (m *Manager) runChecks(ctx context.Context) {
	m.mu.RLock()
	checkers := make([]Checker, 0, len(m.checkers))
	for _, c := range m.checkers {
		checkers = append(checkers, c)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, c := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, c.Timeout())
			defer cancel()
			result := c.Check(cctx)
			m.mu.Lock()
			m.lastResults[c.Name()] = result
			m.mu.Unlock()
			if result.Status == StatusUnhealthy {
				m.logger.Warn("Health check failed",
					zap.String("component", c.Name()),
					zap.String("error", result.Error),
				)
			}
		}(c)
	}
	wg.Wait()
}

// GetOverallHealth returns the overall health status
func (m *Manager) GetOverallHealth(ctx context.Context) OverallHealth {
	start := time.Now()
	m.mu.RLock()
	defer m.mu.RUnlock()

	overall := OverallHealth{
		Status:    StatusHealthy,
		Timestamp: start,
		Live:      true,
		Ready:     true,
	}
	for _, result := range m.lastResults {
		switch result.Status {
		case StatusUnhealthy:
			if result.Critical {
				overall.Status = StatusUnhealthy
				overall.Ready = false
				overall.Message = fmt.Sprintf("critical component %s unhealthy", result.Component)
			} else if overall.Status == StatusHealthy {
				overall.Status = StatusDegraded
				overall.Degraded = true
			}
		case StatusDegraded:
			if overall.Status == StatusHealthy {
				overall.Status = StatusDegraded
				overall.Degraded = true
			}
		}
	}
	overall.Duration = time.Since(start)
	return overall
}

// GetDetailedHealth returns per-component health information
func (m *Manager) GetDetailedHealth(ctx context.Context) DetailedHealth {
	overall := m.GetOverallHealth(ctx)
	m.mu.RLock()
	defer m.mu.RUnlock()

	components := make(map[string]CheckResult, len(m.lastResults))
	for name, result := range m.lastResults {
		components[name] = result
	}
	return DetailedHealth{
		Overall:    overall,
		Components: components,
		Timestamp:  time.Now(),
	}
}

// IsReady returns true if the service is ready to serve requests
func (m *Manager) IsReady(ctx context.Context) bool {
	return m.GetOverallHealth(ctx).Ready
}

// IsLive returns true if the service is alive (for liveness probes)
func (m *Manager) IsLive(ctx context.Context) bool {
	return true
}
