package api

import "context"

// HealthStatus is the backend self-check snapshot.
type HealthStatus struct {
	Status     string            `json:"status"` // ok|degraded|down
	Version    string            `json:"version,omitempty"`
	UptimeSecs int64             `json:"uptime_seconds,omitempty"`
	Components map[string]string `json:"components,omitempty"` // db, cache, workers...
}

func (c *Client) GetHealthStatus(ctx context.Context) (HealthStatus, error) {
	var h HealthStatus
	err := c.get(ctx, "/core/health/status/", nil, &h)
	return h, err
}
