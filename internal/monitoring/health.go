package monitoring

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/neotogether/neotogether/internal/cache"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Status      HealthStatus `json:"status"`
	Message     string       `json:"message,omitempty"`
	Latency     *int64       `json:"latency_ms,omitempty"`
	LastChecked time.Time    `json:"last_checked"`
}

// HealthResponse is the full health check payload.
type HealthResponse struct {
	Status     HealthStatus               `json:"status"`
	Service    string                     `json:"service"`
	Version    string                     `json:"version"`
	Timestamp  time.Time                  `json:"timestamp"`
	UptimeSecs float64                    `json:"uptime_seconds"`
	Components map[string]ComponentHealth `json:"components"`
	Goroutines int                        `json:"goroutines"`
}

// HealthChecker runs registered component probes on demand.
type HealthChecker struct {
	mu         sync.RWMutex
	startTime  time.Time
	service    string
	version    string
	checkFuncs map[string]func(ctx context.Context) ComponentHealth
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(service, version string) *HealthChecker {
	return &HealthChecker{
		startTime:  time.Now(),
		service:    service,
		version:    version,
		checkFuncs: make(map[string]func(ctx context.Context) ComponentHealth),
	}
}

// RegisterDatabaseCheck registers a database ping probe.
func (hc *HealthChecker) RegisterDatabaseCheck(name string, db *sql.DB) {
	hc.register(name, func(ctx context.Context) ComponentHealth {
		start := time.Now()
		err := db.PingContext(ctx)
		latency := time.Since(start).Milliseconds()

		if err != nil {
			return ComponentHealth{
				Status:      HealthStatusUnhealthy,
				Message:     fmt.Sprintf("Database connection failed: %v", err),
				Latency:     &latency,
				LastChecked: time.Now(),
			}
		}
		return ComponentHealth{
			Status:      HealthStatusHealthy,
			Latency:     &latency,
			LastChecked: time.Now(),
		}
	})
}

// RegisterRedisCheck registers a Redis ping probe. Redis is optional, so a
// failing cache degrades the service rather than marking it unhealthy.
func (hc *HealthChecker) RegisterRedisCheck(name string, redisService *cache.RedisService) {
	hc.register(name, func(ctx context.Context) ComponentHealth {
		start := time.Now()
		err := redisService.HealthCheck(ctx)
		latency := time.Since(start).Milliseconds()

		if err != nil {
			return ComponentHealth{
				Status:      HealthStatusDegraded,
				Message:     fmt.Sprintf("Redis connection failed: %v", err),
				Latency:     &latency,
				LastChecked: time.Now(),
			}
		}
		return ComponentHealth{
			Status:      HealthStatusHealthy,
			Latency:     &latency,
			LastChecked: time.Now(),
		}
	})
}

func (hc *HealthChecker) register(name string, fn func(ctx context.Context) ComponentHealth) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checkFuncs[name] = fn
}

// Check runs every registered probe and aggregates the result. The overall
// status is the worst component status.
func (hc *HealthChecker) Check(ctx context.Context) HealthResponse {
	hc.mu.RLock()
	funcs := make(map[string]func(ctx context.Context) ComponentHealth, len(hc.checkFuncs))
	for name, fn := range hc.checkFuncs {
		funcs[name] = fn
	}
	hc.mu.RUnlock()

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	components := make(map[string]ComponentHealth, len(funcs))
	overall := HealthStatusHealthy
	for name, fn := range funcs {
		health := fn(checkCtx)
		components[name] = health
		switch health.Status {
		case HealthStatusUnhealthy:
			overall = HealthStatusUnhealthy
		case HealthStatusDegraded:
			if overall == HealthStatusHealthy {
				overall = HealthStatusDegraded
			}
		}
	}

	return HealthResponse{
		Status:     overall,
		Service:    hc.service,
		Version:    hc.version,
		Timestamp:  time.Now().UTC(),
		UptimeSecs: time.Since(hc.startTime).Seconds(),
		Components: components,
		Goroutines: runtime.NumGoroutine(),
	}
}
