package ui

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"ecatalog-admin/internal/api"
	"ecatalog-admin/internal/config"
)

func testModel(t *testing.T) Model {
	t.Helper()
	cfg := config.Config{
		APIURL: "http://localhost:8000/api/v1",
		WSURL:  "ws://localhost:8000/ws",
	}
	return NewModel(cfg, filepath.Join(t.TempDir(), ".ecatrc"))
}

func TestHandleWelcomeKeyVariants(t *testing.T) {
	tests := []struct {
		name          string
		key           string
		token         string
		expectedState state
	}{
		{"enter without token goes to login", "enter", "", stateLogin},
		{"enter with token goes to validating", "enter", "tok", stateValidating},
		{"other keys do nothing", "x", "", stateWelcome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel(t)
			if tt.token != "" {
				m.client.Session().SetTokens(tt.token, "")
			}
			result, cmd := m.handleWelcomeKey(tt.key)
			got := result.(Model)
			if got.state != tt.expectedState {
				t.Errorf("state: want %v got %v", tt.expectedState, got.state)
			}
			if tt.token != "" && tt.key == "enter" && cmd == nil {
				t.Error("expected a validation command")
			}
		})
	}
}

func TestValidateMsgRejectedReturnsToLogin(t *testing.T) {
	m := testModel(t)
	m.state = stateValidating

	res, _ := m.Update(validateMsg{err: errEmptyCredentials})
	got := res.(Model)
	if got.state != stateLogin {
		t.Fatalf("want login state, got %v", got.state)
	}
	if !strings.Contains(got.statusMsg, "Token rejected") {
		t.Fatalf("status message not set: %q", got.statusMsg)
	}
}

func TestStaleListResponseIsDropped(t *testing.T) {
	m := testModel(t)
	m.state = stateList
	m.list.res = resProjects
	m.list.generation = 2
	m.list.rows = []listRow{{ID: 1, Title: "current"}}
	m.list.filteredIdx = []int{0}

	// a response from generation 1 arrives after generation 2 was issued
	res, _ := m.Update(listLoadedMsg{
		res:        resProjects,
		generation: 1,
		rows:       []listRow{{ID: 9, Title: "stale"}},
		count:      100,
	})
	got := res.(Model)
	if len(got.list.rows) != 1 || got.list.rows[0].Title != "current" {
		t.Fatalf("stale response overwrote the list: %+v", got.list.rows)
	}

	res, _ = got.Update(listLoadedMsg{
		res:        resProjects,
		generation: 2,
		rows:       []listRow{{ID: 5, Title: "fresh"}},
		count:      1,
	})
	got = res.(Model)
	if len(got.list.rows) != 1 || got.list.rows[0].Title != "fresh" {
		t.Fatalf("matching generation was not applied: %+v", got.list.rows)
	}
}

func TestListFooterPagination(t *testing.T) {
	m := testModel(t)
	m.list.page = 2
	m.list.pageSize = 20
	m.list.count = 45

	status := m.listFooterStatus()
	if !strings.Contains(status, "Page 2/3") {
		t.Fatalf("footer missing page info: %q", status)
	}
	if !strings.Contains(status, "45 items") {
		t.Fatalf("footer missing item count: %q", status)
	}
}

func TestAuthExpiredRoutesToLogin(t *testing.T) {
	m := testModel(t)
	m.client.Session().SetTokens("tok", "ref")
	m.state = stateList
	m.cfg.Token = "tok"

	res, cmd := m.Update(authEventMsg{event: api.AuthExpired})
	got := res.(Model)
	if got.state != stateLogin {
		t.Fatalf("want login state, got %v", got.state)
	}
	if got.cfg.Token != "" {
		t.Fatal("token not cleared from config")
	}
	if cmd == nil {
		t.Fatal("expected the auth listener to re-arm")
	}
	toasts := got.notices.Active()
	if len(toasts) != 1 || !strings.Contains(toasts[0].Message, "Session expired") {
		t.Fatalf("expected one session-expired toast, got %+v", toasts)
	}
}

func TestConfirmRunsActionExactlyOnce(t *testing.T) {
	m := testModel(t)
	fired := 0
	m.askConfirm("Delete", "Really?", func() tea.Msg {
		fired++
		return nil
	})
	if m.confirm == nil {
		t.Fatal("confirm not armed")
	}

	res, cmd := m.handleConfirmKey("y")
	got := res.(Model)
	if got.confirm != nil {
		t.Fatal("confirm still armed after resolution")
	}
	if cmd == nil {
		t.Fatal("expected the confirmed action command")
	}
	cmd()
	if fired != 1 {
		t.Fatalf("action fired %d times", fired)
	}

	// the prompt is gone; a second y must not find anything to run
	if got.confirmAction != nil {
		t.Fatal("confirm action not cleared")
	}
}

func TestConfirmCallbackGatesTheAction(t *testing.T) {
	m := testModel(t)
	m.askConfirm("Delete", "Really?", func() tea.Msg { return nil })

	p := m.confirm
	cell := m.confirmAction
	if *cell != nil {
		t.Fatal("action escaped before any resolution")
	}

	// a decline that already resolved the prompt means a later affirmative
	// Resolve must not release the action
	p.Resolve(false)
	p.Resolve(true)
	if *cell != nil {
		t.Fatal("resolved prompt released the action on a second Resolve")
	}
}

func TestConfirmDeclinedRunsNothing(t *testing.T) {
	m := testModel(t)
	m.askConfirm("Delete", "Really?", func() tea.Msg {
		t.Fatal("declined action must not run")
		return nil
	})
	res, cmd := m.handleConfirmKey("n")
	got := res.(Model)
	if got.confirm != nil || cmd != nil {
		t.Fatal("decline must clear the prompt and return no command")
	}
}
