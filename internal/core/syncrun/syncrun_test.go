package syncrun

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ecatalog-admin/internal/api"
)

type fakeAPI struct {
	mu        sync.Mutex
	taskID    string
	startErr  error
	statuses  []api.SyncTask
	errAtCall int // 1-based status call index that fails; 0 = never
	calls     int
	starts    int
	startCtx  context.Context
	statusCtx context.Context
}

func (f *fakeAPI) StartSync(ctx context.Context, _ api.SyncResource, _ int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.startCtx = ctx
	if f.startErr != nil {
		return "", f.startErr
	}
	return f.taskID, nil
}

func (f *fakeAPI) SyncTaskStatus(ctx context.Context, _ string) (api.SyncTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.statusCtx = ctx
	if f.errAtCall != 0 && f.calls == f.errAtCall {
		return api.SyncTask{}, errors.New("connection reset")
	}
	idx := f.calls - 1
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	return f.statuses[idx], nil
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// immediate makes every poll delay fire instantly.
func immediate(time.Duration) <-chan time.Time {
	ch := make(chan time.Time)
	close(ch)
	return ch
}

// stepper releases one poll delay per Step call.
type stepper struct{ ch chan time.Time }

func newStepper() *stepper { return &stepper{ch: make(chan time.Time)} }

func (s *stepper) after(time.Duration) <-chan time.Time { return s.ch }
func (s *stepper) Step()                                { s.ch <- time.Time{} }

func recvEvent(t *testing.T, ch <-chan Event) (Event, bool) {
	t.Helper()
	select {
	case ev, ok := <-ch:
		return ev, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}, false
	}
}

func TestKeyFormat(t *testing.T) {
	if got := Key(api.SyncNomenklatura, 7); got != "nomenklatura_7" {
		t.Fatalf("Key = %q", got)
	}
	if got := Key(api.SyncClients, 7); got != "clients_7" {
		t.Fatalf("Key = %q", got)
	}
}

func TestRunContextsCarryRetryCounters(t *testing.T) {
	f := &fakeAPI{
		taskID: "abc",
		statuses: []api.SyncTask{
			{TaskID: "abc", Status: api.StatusCompleted},
		},
	}
	rn := NewRunner(f)
	rn.after = immediate

	run, err := rn.Start(context.Background(), api.SyncClients, 3)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if run.Counters == nil {
		t.Fatal("run carries no retry counters")
	}
	for range run.Events {
	}
	<-run.Done()

	f.mu.Lock()
	defer f.mu.Unlock()
	if api.RetryCountersFrom(f.startCtx) != run.Counters {
		t.Fatal("trigger request not attributed to the run's counters")
	}
	if api.RetryCountersFrom(f.statusCtx) != run.Counters {
		t.Fatal("status poll not attributed to the run's counters")
	}
}

func TestPollStopsOnTerminalStatus(t *testing.T) {
	f := &fakeAPI{
		taskID: "abc",
		statuses: []api.SyncTask{
			{TaskID: "abc", Status: api.StatusProcessing, ProcessedItems: 10, TotalItems: 100},
			{TaskID: "abc", Status: api.StatusCompleted, CreatedItems: 80, UpdatedItems: 20},
		},
	}
	rn := NewRunner(f)
	rn.after = immediate

	run, err := rn.Start(context.Background(), api.SyncNomenklatura, 7)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if run.TaskID != "abc" {
		t.Fatalf("expected task id abc, got %q", run.TaskID)
	}

	ev, ok := recvEvent(t, run.Events)
	if !ok || ev.Kind != EventProgress {
		t.Fatalf("expected progress event, got %+v (ok=%v)", ev, ok)
	}
	if ev.Task.Progress() != 0.1 {
		t.Fatalf("expected 10%% progress, got %v", ev.Task.Progress())
	}

	ev, ok = recvEvent(t, run.Events)
	if !ok || ev.Kind != EventCompleted {
		t.Fatalf("expected completed event, got %+v (ok=%v)", ev, ok)
	}
	if ev.Task.CreatedItems != 80 || ev.Task.UpdatedItems != 20 {
		t.Fatalf("unexpected counts: %+v", ev.Task)
	}

	if _, ok := recvEvent(t, run.Events); ok {
		t.Fatal("expected events channel closed after terminal status")
	}
	<-run.Done()
	if got := f.callCount(); got != 2 {
		t.Fatalf("expected no poll after terminal status, got %d calls", got)
	}
}

func TestExactlyOneFollowUpPerNonTerminal(t *testing.T) {
	f := &fakeAPI{
		taskID: "abc",
		statuses: []api.SyncTask{
			{Status: api.StatusFetching},
			{Status: api.StatusProcessing},
			{Status: api.StatusCompleted},
		},
	}
	st := newStepper()
	rn := NewRunner(f)
	rn.after = st.after

	run, err := rn.Start(context.Background(), api.SyncClients, 3)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	if ev, _ := recvEvent(t, run.Events); ev.Kind != EventProgress {
		t.Fatalf("expected progress for fetching, got %+v", ev)
	}
	if got := f.callCount(); got != 1 {
		t.Fatalf("expected exactly 1 poll before the delay elapses, got %d", got)
	}

	st.Step()
	if ev, _ := recvEvent(t, run.Events); ev.Kind != EventProgress {
		t.Fatalf("expected progress for processing, got %+v", ev)
	}
	if got := f.callCount(); got != 2 {
		t.Fatalf("expected exactly 2 polls after one step, got %d", got)
	}

	st.Step()
	if ev, _ := recvEvent(t, run.Events); ev.Kind != EventCompleted {
		t.Fatalf("expected completed, got %+v", ev)
	}
	<-run.Done()
	if got := f.callCount(); got != 3 {
		t.Fatalf("expected 3 polls total, got %d", got)
	}
}

func TestCancelStopsBeforeNextPoll(t *testing.T) {
	f := &fakeAPI{
		taskID:   "abc",
		statuses: []api.SyncTask{{Status: api.StatusProcessing}},
	}
	st := newStepper()
	rn := NewRunner(f)
	rn.after = st.after

	run, err := rn.Start(context.Background(), api.SyncNomenklatura, 1)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if _, ok := recvEvent(t, run.Events); !ok {
		t.Fatal("expected first progress event")
	}

	run.Cancel()
	<-run.Done()

	if _, ok := recvEvent(t, run.Events); ok {
		t.Fatal("expected events channel closed after cancel")
	}
	if got := f.callCount(); got != 1 {
		t.Fatalf("expected no poll after cancel, got %d", got)
	}
}

func TestTriggerFailureIsTerminal(t *testing.T) {
	f := &fakeAPI{startErr: errors.New("boom")}
	rn := NewRunner(f)
	rn.after = immediate

	if _, err := rn.Start(context.Background(), api.SyncNomenklatura, 1); err == nil {
		t.Fatal("expected trigger error")
	}
	if f.callCount() != 0 {
		t.Fatal("no status poll may happen after a failed trigger")
	}
}

func TestPollErrorStopsSilently(t *testing.T) {
	f := &fakeAPI{
		taskID:    "abc",
		statuses:  []api.SyncTask{{Status: api.StatusProcessing}},
		errAtCall: 2,
	}
	rn := NewRunner(f)
	rn.after = immediate

	run, err := rn.Start(context.Background(), api.SyncNomenklatura, 1)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if ev, _ := recvEvent(t, run.Events); ev.Kind != EventProgress {
		t.Fatalf("expected progress, got %+v", ev)
	}
	// chain ends without a terminal event
	if _, ok := recvEvent(t, run.Events); ok {
		t.Fatal("expected channel closed after poll error")
	}
	<-run.Done()
	if got := f.callCount(); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestTrackerDeduplicatesByKey(t *testing.T) {
	f := &fakeAPI{
		taskID:   "abc",
		statuses: []api.SyncTask{{Status: api.StatusProcessing}},
	}
	st := newStepper()
	tr := NewTracker(f)
	tr.runner.after = st.after

	run1, started, err := tr.Start(context.Background(), api.SyncNomenklatura, 7)
	if err != nil || !started {
		t.Fatalf("first Start: run=%v started=%v err=%v", run1, started, err)
	}
	run2, started, err := tr.Start(context.Background(), api.SyncNomenklatura, 7)
	if err != nil {
		t.Fatalf("second Start returned error: %v", err)
	}
	if started || run2 != run1 {
		t.Fatal("expected second Start to be a no-op returning the active run")
	}
	if f.starts != 1 {
		t.Fatalf("expected single trigger, got %d", f.starts)
	}

	// a different resource of the same integration runs independently
	run3, started, err := tr.Start(context.Background(), api.SyncClients, 7)
	if err != nil || !started {
		t.Fatalf("clients Start: started=%v err=%v", started, err)
	}
	if run3 == run1 {
		t.Fatal("expected an independent chain for the clients resource")
	}
	if !tr.Active(api.SyncClients, 7) || !tr.Active(api.SyncNomenklatura, 7) {
		t.Fatal("expected both chains active")
	}

	tr.CancelAll()
	<-run1.Done()
	<-run3.Done()
}
