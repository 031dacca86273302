package api

import (
	"context"
	"fmt"
	"net/url"
)

// AgentLocation is one recorded GPS position of a field agent.
type AgentLocation struct {
	ID         int     `json:"id"`
	Agent      int     `json:"agent"`
	AgentName  string  `json:"agent_name,omitempty"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	RecordedAt string  `json:"recorded_at"`
}

// TrajectoryPoint is one point of an agent's day trajectory, ordered by
// time server-side.
type TrajectoryPoint struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	RecordedAt string  `json:"recorded_at"`
	Speed      float64 `json:"speed,omitempty"`
}

// RegionalActivity is one server-aggregated region row.
type RegionalActivity struct {
	Region     string `json:"region"`
	VisitCount int    `json:"visit_count"`
	AgentCount int    `json:"agent_count"`
}

func (c *Client) ListAgentLocations(ctx context.Context, opts ListOpts) (Page[AgentLocation], error) {
	return list[AgentLocation](ctx, c, "/agent-location/", opts)
}

// UniqueAgents lists agents that have reported at least one location.
func (c *Client) UniqueAgents(ctx context.Context) ([]User, error) {
	var agents []User
	err := c.get(ctx, "/agent-location/unique-agents/", nil, &agents)
	return agents, err
}

// Trajectory fetches the ordered point list for one agent and day
// (date formatted YYYY-MM-DD).
func (c *Client) Trajectory(ctx context.Context, agentID int, date string) ([]TrajectoryPoint, error) {
	q := url.Values{}
	q.Set("agent", fmt.Sprint(agentID))
	if date != "" {
		q.Set("date", date)
	}
	var points []TrajectoryPoint
	err := c.get(ctx, "/agent-location/trajectory/", q, &points)
	return points, err
}

// RegionalActivityReport fetches visit aggregates per region.
func (c *Client) RegionalActivityReport(ctx context.Context) ([]RegionalActivity, error) {
	var rows []RegionalActivity
	err := c.get(ctx, "/agent-location/regional-activity/", nil, &rows)
	return rows, err
}
