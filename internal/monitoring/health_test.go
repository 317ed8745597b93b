package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckNoComponents(t *testing.T) {
	hc := NewHealthChecker("neo-together", "test")
	resp := hc.Check(context.Background())

	assert.Equal(t, HealthStatusHealthy, resp.Status)
	assert.Equal(t, "neo-together", resp.Service)
	assert.Empty(t, resp.Components)
	assert.Greater(t, resp.Goroutines, 0)
}

func TestCheckAggregatesWorstStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []HealthStatus
		want     HealthStatus
	}{
		{"all healthy", []HealthStatus{HealthStatusHealthy, HealthStatusHealthy}, HealthStatusHealthy},
		{"one degraded", []HealthStatus{HealthStatusHealthy, HealthStatusDegraded}, HealthStatusDegraded},
		{"unhealthy wins", []HealthStatus{HealthStatusDegraded, HealthStatusUnhealthy}, HealthStatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker("neo-together", "test")
			for i, status := range tt.statuses {
				st := status
				hc.register(string(rune('a'+i)), func(ctx context.Context) ComponentHealth {
					return ComponentHealth{Status: st, LastChecked: time.Now()}
				})
			}

			resp := hc.Check(context.Background())
			assert.Equal(t, tt.want, resp.Status)
			assert.Len(t, resp.Components, len(tt.statuses))
		})
	}
}
