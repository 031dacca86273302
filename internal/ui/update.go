package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"ecatalog-admin/internal/api"
	"ecatalog-admin/internal/chat"
	"ecatalog-admin/internal/config"
	"ecatalog-admin/internal/core/syncrun"
	"ecatalog-admin/internal/core/trajectory"
	"ecatalog-admin/internal/infra/logx"
	"ecatalog-admin/internal/notify"
)

// ---------- Update ----------
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m.quit()
		}
		if m.confirm != nil {
			return m.handleConfirmKey(key)
		}

		switch m.state {
		case stateWelcome:
			return m.handleWelcomeKey(key)
		case stateLogin:
			return m.handleLoginKey(msg)
		case stateValidating:
			return m, nil
		case stateMenu:
			return m.handleMenuKey(key)
		case stateList:
			return m.handleListKey(msg)
		case stateForm:
			return m.handleFormKey(msg)
		case stateSync:
			return m.handleSyncKey(key)
		case stateChat:
			return m.handleChatKey(msg)
		case stateTracker:
			return m.handleTrackerKey(key)
		case stateHealth:
			return m.handleHealthKey(key)
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		const chrome = 10
		vp := m.height - chrome
		if vp < 3 {
			vp = 3
		}
		m.list.viewport = vp

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case authEventMsg:
		return m.handleAuthEvent(msg.event)

	case loginMsg:
		if msg.err != nil {
			m.loginErr = msg.err
			m.state = stateLogin
			return m, nil
		}
		m.loginErr = nil
		m.persistTokens()
		m.notices.Push(notify.Success, "Signed in.")
		m.state = stateMenu
		return m, m.scheduleToastTick()

	case validateMsg:
		if msg.err != nil {
			m.statusMsg = "Token rejected: " + msg.err.Error()
			m.state = stateLogin
			m.userInput.Focus()
			return m, nil
		}
		m.statusMsg = "Token ok."
		m.state = stateMenu
		return m, nil

	case listLoadedMsg:
		// a stale response must not overwrite the page the user is on now
		if msg.generation != m.list.generation || msg.res != m.list.res {
			return m, nil
		}
		m.list.loading = false
		if msg.err != nil {
			return m.reportError("Load failed", msg.err)
		}
		m.list.rows = msg.rows
		m.list.count = msg.count
		if m.list.index >= len(msg.rows) {
			m.list.index = max(0, len(msg.rows)-1)
		}
		m.applyListFilter()
		return m, nil

	case formLoadedMsg:
		if msg.err != nil {
			return m.reportError("Load failed", msg.err)
		}
		m.openForm(msg.res, msg.id, msg.values)
		return m, nil

	case savedMsg:
		m.form.saving = false
		if msg.err != nil {
			return m.reportError("Save failed", msg.err)
		}
		m.notices.Push(notify.Success, msg.res.String()+" saved.")
		m.state = stateList
		return m, tea.Batch(m.refetchList(), m.scheduleToastTick())

	case deletedMsg:
		if msg.err != nil {
			return m.reportError("Delete failed", msg.err)
		}
		m.notices.Push(notify.Success, fmt.Sprintf("%s #%d removed.", msg.res, msg.id))
		return m, tea.Batch(m.refetchList(), m.scheduleToastTick())

	case imageUploadedMsg:
		if msg.err != nil {
			return m.reportError("Image upload failed", msg.err)
		}
		m.notices.Push(notify.Success, fmt.Sprintf("Image attached to %s #%d.", msg.res, msg.id))
		return m, m.scheduleToastTick()

	case xlsxImportedMsg:
		if msg.err != nil {
			return m.reportError("Import failed", msg.err)
		}
		text := fmt.Sprintf("Import done: %d created / %d updated.",
			msg.result.Created, msg.result.Updated)
		if n := len(msg.result.Errors); n > 0 {
			text += fmt.Sprintf(" %d rows rejected.", n)
		}
		m.notices.Push(notify.Success, text)
		return m, tea.Batch(m.refetchList(), m.scheduleToastTick())

	case xlsxSavedMsg:
		if msg.err != nil {
			return m.reportError("Export failed", msg.err)
		}
		m.notices.Push(notify.Success, "Saved "+msg.path+".")
		return m, m.scheduleToastTick()

	case visitStatsMsg:
		if msg.err == nil {
			stats := msg.stats
			m.list.visitStats = &stats
		}
		return m, nil

	case integrationsMsg:
		m.sync.loading = false
		if msg.err != nil {
			return m.reportError("Integrations load failed", msg.err)
		}
		m.sync.integrations = msg.items
		m.sync.history = msg.history
		if m.sync.index >= len(msg.items) {
			m.sync.index = 0
		}
		return m, nil

	case syncStartedMsg:
		return m.handleSyncStarted(msg)

	case syncEventMsg:
		return m.handleSyncEvent(msg.ev)

	case syncRunEndedMsg:
		if rv, ok := m.sync.runs[msg.key]; ok {
			rv.active = false
		}
		return m, nil

	case syncHistoryMsg:
		if msg.err == nil {
			m.sync.history = msg.entries
		}
		return m, nil

	case conversationsMsg:
		m.chat.loading = false
		if msg.err != nil {
			return m.reportError("Conversations load failed", msg.err)
		}
		m.chat.settings = msg.settings
		m.chat.conversations = msg.items
		if m.chat.index >= len(msg.items) {
			m.chat.index = 0
		}
		return m, nil

	case conversationClosedMsg:
		if msg.err != nil {
			return m.reportError("Close failed", msg.err)
		}
		m.notices.Push(notify.Success, fmt.Sprintf("Conversation #%d closed.", msg.id))
		if msg.id == m.chat.selectedID && m.chat.conn != nil {
			m.chat.conn.Close()
			m.chat.conn = nil
			m.chat.selectedID = 0
		}
		m.chat.loading = true
		return m, tea.Batch(m.loadConversationsCmd(), m.scheduleToastTick())

	case chatOpenedMsg:
		return m.handleChatOpened(msg)

	case chatFrameMsg:
		return m.handleChatFrame(msg)

	case chatClosedMsg:
		if msg.conversationID == m.chat.selectedID && m.chat.conn != nil {
			m.chat.conn = nil
			m.notices.Push(notify.Warning, "Chat connection lost.")
			return m, m.scheduleToastTick()
		}
		return m, nil

	case chatSentMsg:
		if msg.err != nil {
			return m.reportError("Send failed", msg.err)
		}
		return m, nil

	case chatAttachmentMsg:
		if msg.err != nil {
			return m.reportError("Attachment failed", msg.err)
		}
		if msg.conversationID == m.chat.selectedID {
			m.chat.log.Append(msg.msg)
		}
		return m, nil

	case agentsMsg:
		m.trk.loading = false
		if msg.err != nil {
			return m.reportError("Agents load failed", msg.err)
		}
		m.trk.agents = msg.agents
		if m.trk.index >= len(msg.agents) {
			m.trk.index = 0
		}
		return m, nil

	case trajectoryMsg:
		m.trk.loading = false
		if msg.err != nil {
			return m.reportError("Trajectory load failed", msg.err)
		}
		m.trk.points = len(msg.points)
		m.trk.stats = trajectory.Compute(msg.points, trajectory.DefaultOptions())
		m.trk.regional = msg.regional
		return m, nil

	case healthMsg:
		if msg.err != nil {
			return m.reportError("Health check failed", msg.err)
		}
		m.health = msg.status
		return m, nil

	case toastTickMsg:
		m.notices.Active()
		return m, m.scheduleToastTick()
	}

	return m, nil
}

// handleAuthEvent reacts to session changes. The session latch guarantees
// at most one AuthExpired per cascade, so the routing below cannot stack.
func (m Model) handleAuthEvent(e api.AuthEvent) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.listenAuthCmd()}
	if e == api.AuthExpired {
		logx.Infow("session expired", logx.Fields{"state": int(m.state)})
		m.teardownScreens()
		m.cfg.Token = ""
		m.cfg.RefreshToken = ""
		if err := config.Save(m.cfgPath, m.cfg); err != nil {
			logx.Warnf("config save: %v", err)
		}
		m.notices.Push(notify.Error, "Session expired. Please sign in again.")
		m.state = stateLogin
		m.userInput.Focus()
		m.passInput.SetValue("")
		cmds = append(cmds, m.scheduleToastTick())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleSyncStarted(msg syncStartedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		// trigger failure is terminal for the attempt, nothing polls
		return m.reportError("Sync start failed", msg.err)
	}
	key := syncrun.Key(msg.resource, msg.integrationID)
	if !msg.started {
		m.notices.Push(notify.Info, "Sync already running for "+key+".")
		return m, m.scheduleToastTick()
	}
	m.sync.runs[key] = &syncRunView{
		resource:      msg.resource,
		integrationID: msg.integrationID,
		run:           msg.run,
		active:        true,
		bar:           progress.New(progress.WithDefaultGradient()),
	}
	return m, tea.Batch(m.spinner.Tick, listenSyncRun(msg.run))
}

func (m Model) handleSyncEvent(ev syncrun.Event) (tea.Model, tea.Cmd) {
	rv, ok := m.sync.runs[ev.Key]
	if !ok {
		return m, nil
	}
	rv.task = ev.Task

	switch ev.Kind {
	case syncrun.EventCompleted:
		rv.active = false
		m.notices.Push(notify.Success, fmt.Sprintf("Sync %s done: %d created / %d updated.",
			ev.Key, ev.Task.CreatedItems, ev.Task.UpdatedItems))
		return m, tea.Batch(m.loadSyncHistoryCmd(), m.scheduleToastTick())
	case syncrun.EventFailed:
		rv.active = false
		detail := ev.Task.ErrorDetails
		if detail == "" {
			detail = fmt.Sprintf("%d items failed", ev.Task.ErrorItems)
		}
		m.notices.Push(notify.Error, "Sync "+ev.Key+" failed: "+detail)
		return m, tea.Batch(m.loadSyncHistoryCmd(), m.scheduleToastTick())
	default:
		return m, listenSyncRun(rv.run)
	}
}

func (m Model) handleChatOpened(msg chatOpenedMsg) (tea.Model, tea.Cmd) {
	m.chat.loading = false
	if msg.err != nil {
		// the previous binding, if any, stays as it was
		return m.reportError("Chat open failed", msg.err)
	}
	// one socket per selected conversation; drop the previous binding
	if m.chat.conn != nil {
		m.chat.conn.Close()
	}
	m.chat.conn = msg.conn
	m.chat.selectedID = msg.conversationID
	m.chat.log = chat.NewLog()
	m.chat.log.SetHistory(msg.history)
	return m, listenChat(msg.conn)
}

func (m Model) handleChatFrame(msg chatFrameMsg) (tea.Model, tea.Cmd) {
	if msg.conversationID != m.chat.selectedID || m.chat.conn == nil {
		return m, nil
	}
	m.chat.log.Append(msg.msg)
	return m, listenChat(m.chat.conn)
}

func (m Model) reportError(prefix string, err error) (tea.Model, tea.Cmd) {
	if api.IsAuthError(err) {
		// the session event routes to login; no extra toast here
		return m, nil
	}
	m.notices.Push(notify.Error, prefix+": "+err.Error())
	return m, m.scheduleToastTick()
}

// teardownScreens stops everything with a life of its own: poll chains and
// the chat socket.
func (m *Model) teardownScreens() {
	m.tracker.CancelAll()
	if m.chat.conn != nil {
		m.chat.conn.Close()
		m.chat.conn = nil
	}
	m.chat.selectedID = 0
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.teardownScreens()
	m.state = stateQuit
	return m, tea.Quit
}

func (m *Model) persistTokens() {
	s := m.client.Session()
	m.cfg.Token = s.Token()
	m.cfg.RefreshToken = s.RefreshToken()
	logx.RegisterSecret(m.cfg.Token)
	logx.RegisterSecret(m.cfg.RefreshToken)
	if err := config.Save(m.cfgPath, m.cfg); err != nil {
		logx.Warnf("config save: %v", err)
	}
}

// refetchList reloads the current page after a write.
func (m *Model) refetchList() tea.Cmd {
	m.list.generation++
	m.list.loading = true
	cmd := m.loadListCmd(m.list.res, m.list.generation)
	if m.list.res == resVisits {
		return tea.Batch(cmd, m.loadVisitStatsCmd())
	}
	return cmd
}

func (m *Model) applyListFilter() {
	m.list.filteredIdx = filterRows(m.list.searchInput.Value(), m.list.rows, m.filterCfg)
	if m.list.index >= len(m.list.filteredIdx) {
		m.list.index = max(0, len(m.list.filteredIdx)-1)
	}
	m.list.offset = 0
}

func (m *Model) openForm(res resource, id int, values []string) {
	labels := formLabels(res)
	fields := make([]formField, len(labels))
	for i, label := range labels {
		in := textinput.New()
		in.Placeholder = label
		in.CharLimit = 300
		in.Width = 50
		if i < len(values) {
			in.SetValue(values[i])
		}
		fields[i] = formField{label: label, input: in}
	}
	if len(fields) > 0 {
		fields[0].input.Focus()
	}
	m.form = FormState{res: res, id: id, fields: fields}
	m.state = stateForm
}

func formLabels(res resource) []string {
	switch res {
	case resProjects:
		return []string{"Name", "Description"}
	case resClients:
		return []string{"Name", "INN", "Phone", "Email", "Address"}
	case resNomenklatura:
		return []string{"Name", "Article", "Description", "Price", "Unit"}
	default:
		return nil
	}
}
