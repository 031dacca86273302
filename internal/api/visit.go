package api

import (
	"context"
	"fmt"
	"io"
)

// Visit is a field-agent visit to a client, with a check-in/check-out
// lifecycle driven by the agent's device.
type Visit struct {
	ID         int     `json:"id"`
	Client     int     `json:"client"`
	ClientName string  `json:"client_name,omitempty"`
	Agent      int     `json:"agent"`
	AgentName  string  `json:"agent_name,omitempty"`
	Status     string  `json:"status"` // planned|in_progress|completed|cancelled
	PlannedAt  string  `json:"planned_at,omitempty"`
	CheckInAt  string  `json:"check_in_at,omitempty"`
	CheckOutAt string  `json:"check_out_at,omitempty"`
	Latitude   float64 `json:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty"`
	Comment    string  `json:"comment,omitempty"`
}

// VisitStats is the server-computed visit summary.
type VisitStats struct {
	Total      int `json:"total"`
	Planned    int `json:"planned"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
	InProgress int `json:"in_progress"`
}

// VisitPlan is a scheduled visit batch for an agent.
type VisitPlan struct {
	ID     int    `json:"id"`
	Agent  int    `json:"agent"`
	Date   string `json:"date"`
	Visits []int  `json:"visits,omitempty"`
}

func (c *Client) ListVisits(ctx context.Context, opts ListOpts) (Page[Visit], error) {
	return list[Visit](ctx, c, "/visit/", opts)
}

func (c *Client) GetVisit(ctx context.Context, id int) (Visit, error) {
	var v Visit
	err := c.get(ctx, fmt.Sprintf("/visit/%d/", id), nil, &v)
	return v, err
}

func (c *Client) CheckInVisit(ctx context.Context, id int, lat, lon float64) (Visit, error) {
	var v Visit
	body := map[string]float64{"latitude": lat, "longitude": lon}
	err := c.post(ctx, fmt.Sprintf("/visit/%d/check-in/", id), body, &v)
	return v, err
}

func (c *Client) CheckOutVisit(ctx context.Context, id int) (Visit, error) {
	var v Visit
	err := c.post(ctx, fmt.Sprintf("/visit/%d/check-out/", id), nil, &v)
	return v, err
}

func (c *Client) CancelVisit(ctx context.Context, id int, reason string) (Visit, error) {
	var v Visit
	err := c.post(ctx, fmt.Sprintf("/visit/%d/cancel/", id), map[string]string{"reason": reason}, &v)
	return v, err
}

func (c *Client) UploadVisitImage(ctx context.Context, visitID int, filename string, r io.Reader) (Image, error) {
	fields := map[string]string{"visit": fmt.Sprint(visitID)}
	files := []FilePart{{Field: "image", Filename: filename, Reader: r}}
	var img Image
	err := c.postMultipart(ctx, fmt.Sprintf("/visit/%d/upload-image/", visitID), fields, files, &img)
	return img, err
}

func (c *Client) VisitStatistics(ctx context.Context, opts ListOpts) (VisitStats, error) {
	var s VisitStats
	err := c.get(ctx, "/visit/statistics/", opts.query(), &s)
	return s, err
}

func (c *Client) ListVisitPlans(ctx context.Context, opts ListOpts) (Page[VisitPlan], error) {
	return list[VisitPlan](ctx, c, "/visit-plan/", opts)
}
