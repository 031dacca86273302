package api

import (
	"context"
	"fmt"
	"time"
)

// SyncResource selects which collection a sync run covers. Each resource
// gets its own task chain per integration.
type SyncResource string

const (
	SyncNomenklatura SyncResource = "nomenklatura"
	SyncClients      SyncResource = "clients"
)

// SyncStatus is the server-reported state of a sync task. Tasks only move
// forward: fetching/processing end in completed or error.
type SyncStatus string

const (
	StatusFetching   SyncStatus = "fetching"
	StatusProcessing SyncStatus = "processing"
	StatusCompleted  SyncStatus = "completed"
	StatusError      SyncStatus = "error"
)

// Terminal reports whether no further status change can happen.
func (s SyncStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Integration is the read-only 1C connection config for a project.
type Integration struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	Project            int    `json:"project"`
	WSDLURL            string `json:"wsdl_url"`
	NomenklaturaMethod string `json:"nomenklatura_method,omitempty"`
	ClientsMethod      string `json:"clients_method,omitempty"`
	ChunkSize          int    `json:"chunk_size,omitempty"`
	IsActive           bool   `json:"is_active"`
}

// SyncTask mirrors one polled status snapshot of a server-side sync job.
type SyncTask struct {
	TaskID         string     `json:"task_id"`
	Status         SyncStatus `json:"status"`
	TotalItems     int        `json:"total_items"`
	ProcessedItems int        `json:"processed_items"`
	CreatedItems   int        `json:"created_items"`
	UpdatedItems   int        `json:"updated_items"`
	ErrorItems     int        `json:"error_items"`
	ErrorDetails   string     `json:"error_details,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// Progress returns the completion fraction. The server's counters are
// monotonic; no client-side clamping.
func (t SyncTask) Progress() float64 {
	return float64(t.ProcessedItems) / float64(max(t.TotalItems, 1))
}

// ItemError is one failed record inside a sync run.
type ItemError struct {
	Code1C  string `json:"code_1c,omitempty"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

// SyncHistoryEntry is one row of the sync audit trail.
type SyncHistoryEntry struct {
	ID             int         `json:"id"`
	Integration    int         `json:"integration"`
	SyncType       string      `json:"sync_type"`
	Status         SyncStatus  `json:"status"`
	TotalItems     int         `json:"total_items"`
	ProcessedItems int         `json:"processed_items"`
	CreatedItems   int         `json:"created_items"`
	UpdatedItems   int         `json:"updated_items"`
	ErrorItems     int         `json:"error_items"`
	ItemErrors     []ItemError `json:"item_errors,omitempty"`
	StartedAt      string      `json:"started_at,omitempty"`
	CompletedAt    string      `json:"completed_at,omitempty"`
}

func (c *Client) ListIntegrations(ctx context.Context, opts ListOpts) (Page[Integration], error) {
	return list[Integration](ctx, c, "/integration/", opts)
}

// StartSync triggers a server-side sync run and returns its task id.
// Failure here is terminal for the attempt; the caller reports it and does
// not retry, and neither does the transport.
func (c *Client) StartSync(ctx context.Context, resource SyncResource, integrationID int) (string, error) {
	var out struct {
		TaskID string `json:"task_id"`
	}
	path := fmt.Sprintf("/integration/sync/%s/%d/", resource, integrationID)
	if err := c.post(WithoutRetry(ctx), path, nil, &out); err != nil {
		return "", err
	}
	return out.TaskID, nil
}

// SyncTaskStatus polls one status snapshot for the task. A failed poll
// stops the chain, so the request is single-attempt.
func (c *Client) SyncTaskStatus(ctx context.Context, taskID string) (SyncTask, error) {
	var task SyncTask
	err := c.get(WithoutRetry(ctx), fmt.Sprintf("/integration/sync/status/%s/", taskID), nil, &task)
	return task, err
}

// SyncHistory fetches the paginated audit trail.
func (c *Client) SyncHistory(ctx context.Context, opts ListOpts) (Page[SyncHistoryEntry], error) {
	return list[SyncHistoryEntry](ctx, c, "/integration/history/", opts)
}
