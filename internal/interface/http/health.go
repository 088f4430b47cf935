package http

import (
	"context"
	"time"

	"github.com/ctfhub/ctf-community-hub/internal/infrastructure/persistence/postgres"
	redispkg "github.com/ctfhub/ctf-community-hub/internal/infrastructure/persistence/redis"
)

// StoreHealthChecker verifies the backing stores. The Redis cache is
// best-effort, so its failure degrades the status message without
// marking the service unhealthy.
type StoreHealthChecker struct {
	DB    *postgres.Connection
	Cache *redispkg.LeaderboardCache
}

// Check implements HealthChecker.
func (c *StoreHealthChecker) Check(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := HealthStatus{
		Healthy: true,
		Ready:   true,
		Checks:  make(map[string]string),
	}

	if c.DB != nil {
		if err := c.DB.Ping(ctx); err != nil {
			status.Healthy = false
			status.Ready = false
			status.Message = "database unreachable"
			status.Checks["postgres"] = err.Error()
		} else {
			status.Checks["postgres"] = "ok"
		}
	}

	if c.Cache != nil {
		if err := c.Cache.Ping(ctx); err != nil {
			status.Checks["redis"] = err.Error()
			if status.Message == "" {
				status.Message = "page cache unreachable"
			}
		} else {
			status.Checks["redis"] = "ok"
		}
	}

	return status
}
