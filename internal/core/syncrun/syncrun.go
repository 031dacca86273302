// Package syncrun drives the client side of the 1C synchronization
// workflow: trigger a server-side sync job, then poll its status on a fixed
// interval until a terminal state. The server owns the job; this package
// only reflects it.
package syncrun

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ecatalog-admin/internal/api"
	"ecatalog-admin/internal/infra/logx"
)

// DefaultInterval is the fixed delay between status polls.
const DefaultInterval = time.Second

// API is the subset of the REST client the runner needs.
type API interface {
	StartSync(ctx context.Context, resource api.SyncResource, integrationID int) (string, error)
	SyncTaskStatus(ctx context.Context, taskID string) (api.SyncTask, error)
}

// EventKind classifies run events.
type EventKind int

const (
	// EventProgress carries a non-terminal status snapshot.
	EventProgress EventKind = iota
	// EventCompleted carries the final snapshot of a successful run.
	EventCompleted
	// EventFailed carries the final snapshot of a failed run.
	EventFailed
)

// Event is one status update of a sync run.
type Event struct {
	Kind          EventKind
	Key           string
	Resource      api.SyncResource
	IntegrationID int
	Task          api.SyncTask
}

// Key builds the composite identifier one poll chain is tracked under.
// Separate resources of the same integration run independently.
func Key(resource api.SyncResource, integrationID int) string {
	return fmt.Sprintf("%s_%d", resource, integrationID)
}

// Run is a handle on one poll chain. Events delivers progress and exactly
// one terminal event, then closes; a chain stopped by a poll error closes
// without a terminal event. Cancel stops the chain before its next poll —
// no timer survives teardown.
type Run struct {
	Key           string
	Resource      api.SyncResource
	IntegrationID int
	TaskID        string
	Events        <-chan Event

	// Counters attributes transport-level retries to this chain's
	// requests.
	Counters *api.RetryCounters

	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel stops the poll chain. Safe to call more than once.
func (r *Run) Cancel() { r.cancel() }

// Done is closed when the poll chain has fully stopped.
func (r *Run) Done() <-chan struct{} { return r.done }

// Runner starts and polls sync runs.
type Runner struct {
	api      API
	interval time.Duration
	after    func(time.Duration) <-chan time.Time
}

// NewRunner creates a runner polling at DefaultInterval.
func NewRunner(a API) *Runner {
	return &Runner{api: a, interval: DefaultInterval, after: time.After}
}

// Start triggers the sync job and begins polling. A trigger failure is
// terminal for this attempt: the error is returned and nothing is retried.
func (rn *Runner) Start(ctx context.Context, resource api.SyncResource, integrationID int) (*Run, error) {
	counters := &api.RetryCounters{}
	taskID, err := rn.api.StartSync(api.WithRetryCounters(ctx, counters), resource, integrationID)
	if err != nil {
		return nil, err
	}

	// The chain outlives the trigger call's context; only Cancel (or a
	// terminal status) stops it.
	runCtx, cancel := context.WithCancel(context.Background())
	runCtx = api.WithRetryCounters(runCtx, counters)
	ch := make(chan Event, 16)
	run := &Run{
		Key:           Key(resource, integrationID),
		Resource:      resource,
		IntegrationID: integrationID,
		TaskID:        taskID,
		Events:        ch,
		Counters:      counters,
		cancel:        cancel,
		done:          make(chan struct{}),
	}
	go rn.poll(runCtx, run, ch)
	return run, nil
}

func (rn *Runner) poll(ctx context.Context, run *Run, ch chan<- Event) {
	defer close(run.done)
	defer close(ch)
	for {
		task, err := rn.api.SyncTaskStatus(ctx, run.TaskID)
		if err != nil {
			// A transport error stops the chain silently; the user
			// re-triggers the sync if needed.
			logx.Warnw("sync poll stopped", logx.Fields{
				"key":  run.Key,
				"task": run.TaskID,
				"err":  err.Error(),
			})
			return
		}

		ev := Event{
			Key:           run.Key,
			Resource:      run.Resource,
			IntegrationID: run.IntegrationID,
			Task:          task,
		}
		switch {
		case task.Status == api.StatusCompleted:
			ev.Kind = EventCompleted
		case task.Status == api.StatusError:
			ev.Kind = EventFailed
		default:
			ev.Kind = EventProgress
		}

		select {
		case ch <- ev:
		case <-ctx.Done():
			return
		}

		if task.Status.Terminal() {
			return
		}

		// exactly one follow-up poll per non-terminal response
		select {
		case <-ctx.Done():
			return
		case <-rn.after(rn.interval):
		}
	}
}

// Tracker keys active runs by resource+integration so independent chains
// (nomenklatura and clients of the same integration) do not clobber each
// other, and starting an already-running chain is a no-op.
type Tracker struct {
	mu     sync.Mutex
	runner *Runner
	runs   map[string]*Run
}

// NewTracker creates a tracker around a fresh runner.
func NewTracker(a API) *Tracker {
	return &Tracker{runner: NewRunner(a), runs: make(map[string]*Run)}
}

// Start begins a run for the key unless one is already active; the second
// return reports whether a new chain was started.
func (t *Tracker) Start(ctx context.Context, resource api.SyncResource, integrationID int) (*Run, bool, error) {
	key := Key(resource, integrationID)

	t.mu.Lock()
	if run, ok := t.runs[key]; ok {
		t.mu.Unlock()
		return run, false, nil
	}
	t.mu.Unlock()

	run, err := t.runner.Start(ctx, resource, integrationID)
	if err != nil {
		return nil, false, err
	}

	t.mu.Lock()
	t.runs[key] = run
	t.mu.Unlock()

	go func() {
		<-run.Done()
		t.mu.Lock()
		if t.runs[key] == run {
			delete(t.runs, key)
		}
		t.mu.Unlock()
	}()
	return run, true, nil
}

// Active reports whether a chain is currently running for the key.
func (t *Tracker) Active(resource api.SyncResource, integrationID int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.runs[Key(resource, integrationID)]
	return ok
}

// CancelAll stops every active chain; called on screen teardown so no
// scheduled poll outlives the UI that started it.
func (t *Tracker) CancelAll() {
	t.mu.Lock()
	runs := make([]*Run, 0, len(t.runs))
	for _, r := range t.runs {
		runs = append(runs, r)
	}
	t.mu.Unlock()
	for _, r := range runs {
		r.Cancel()
	}
}
