package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"ecatalog-admin/internal/api"
	"ecatalog-admin/internal/chat"
	"ecatalog-admin/internal/core/syncrun"
)

// ---------- Messages ----------

type authEventMsg struct{ event api.AuthEvent }

type loginMsg struct{ err error }

type validateMsg struct{ err error }

type listLoadedMsg struct {
	res        resource
	generation int
	rows       []listRow
	count      int
	err        error
}

type formLoadedMsg struct {
	res    resource
	id     int
	values []string
	err    error
}

type savedMsg struct {
	res resource
	err error
}

type deletedMsg struct {
	res resource
	id  int
	err error
}

type integrationsMsg struct {
	items   []api.Integration
	history []api.SyncHistoryEntry
	err     error
}

type syncStartedMsg struct {
	resource      api.SyncResource
	integrationID int
	run           *syncrun.Run
	started       bool
	err           error
}

type syncEventMsg struct{ ev syncrun.Event }

type syncRunEndedMsg struct{ key string }

type syncHistoryMsg struct {
	entries []api.SyncHistoryEntry
	err     error
}

type conversationsMsg struct {
	settings api.ChatSettings
	items    []api.Conversation
	err      error
}

type conversationClosedMsg struct {
	id  int
	err error
}

type imageUploadedMsg struct {
	res resource
	id  int
	err error
}

type xlsxImportedMsg struct {
	result api.XLSXImportResult
	err    error
}

type xlsxSavedMsg struct {
	path string
	err  error
}

type visitStatsMsg struct {
	stats api.VisitStats
	err   error
}

type chatOpenedMsg struct {
	conversationID int
	conn           *chat.Conn
	history        []api.ChatMessage
	err            error
}

type chatFrameMsg struct {
	conversationID int
	msg            api.ChatMessage
}

type chatClosedMsg struct{ conversationID int }

type chatSentMsg struct{ err error }

type chatAttachmentMsg struct {
	conversationID int
	msg            api.ChatMessage
	err            error
}

type agentsMsg struct {
	agents []api.User
	err    error
}

type trajectoryMsg struct {
	agentID  int
	points   []api.TrajectoryPoint
	regional []api.RegionalActivity
	err      error
}

type healthMsg struct {
	status api.HealthStatus
	err    error
}

type toastTickMsg struct{}

// ---------- Commands ----------

// listenAuthCmd forwards one session event into the update loop; the
// handler re-arms it.
func (m Model) listenAuthCmd() tea.Cmd {
	ch := m.authCh
	return func() tea.Msg {
		return authEventMsg{event: <-ch}
	}
}

func (m Model) loginCmd(username, password string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		_, err := c.ObtainToken(context.Background(), username, password)
		return loginMsg{err: err}
	}
}

// validateTokenCmd verifies the stored access token, falling back to one
// refresh attempt before giving up.
func (m Model) validateTokenCmd() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		err := c.Verify(context.Background())
		if err != nil && api.IsAuthError(err) && c.Session().RefreshToken() != "" {
			if err = c.Refresh(context.Background()); err == nil {
				err = c.Verify(context.Background())
			}
		}
		return validateMsg{err: err}
	}
}

// loadListCmd fetches one page of the resource. generation ties the
// response to the request that issued it; stale responses are dropped in
// Update.
func (m Model) loadListCmd(res resource, generation int) tea.Cmd {
	c := m.client
	opts := api.ListOpts{
		Page:     m.list.page,
		PageSize: m.list.pageSize,
		Search:   m.list.query,
	}
	return func() tea.Msg {
		ctx := context.Background()
		msg := listLoadedMsg{res: res, generation: generation}
		switch res {
		case resProjects:
			page, err := c.ListProjects(ctx, opts)
			msg.err = err
			msg.count = page.Count
			for _, p := range page.Results {
				msg.rows = append(msg.rows, listRow{ID: p.ID, Title: p.Name, Subtitle: p.Description, Active: p.IsActive})
			}
		case resClients:
			page, err := c.ListClients(ctx, opts)
			msg.err = err
			msg.count = page.Count
			for _, r := range page.Results {
				sub := r.INN
				if r.Code1C != "" {
					sub = r.Code1C + " " + sub
				}
				msg.rows = append(msg.rows, listRow{ID: r.ID, Title: r.Name, Subtitle: sub, Active: r.IsActive})
			}
		case resNomenklatura:
			page, err := c.ListNomenklatura(ctx, opts)
			msg.err = err
			msg.count = page.Count
			for _, n := range page.Results {
				sub := n.Article
				if n.Price > 0 {
					sub = fmt.Sprintf("%s  %.2f %s", sub, n.Price, n.Unit)
				}
				msg.rows = append(msg.rows, listRow{ID: n.ID, Title: n.Name, Subtitle: sub, Active: n.IsActive})
			}
		case resUsers:
			page, err := c.ListUsers(ctx, opts)
			msg.err = err
			msg.count = page.Count
			for _, u := range page.Results {
				msg.rows = append(msg.rows, listRow{ID: u.ID, Title: u.Username, Subtitle: u.Role, Active: u.IsActive})
			}
		case resVisits:
			page, err := c.ListVisits(ctx, opts)
			msg.err = err
			msg.count = page.Count
			for _, v := range page.Results {
				sub := v.Status
				if v.PlannedAt != "" {
					sub += " " + v.PlannedAt
				}
				msg.rows = append(msg.rows, listRow{ID: v.ID, Title: v.ClientName, Subtitle: sub, Active: v.Status != "cancelled"})
			}
		}
		return msg
	}
}

func (m Model) loadFormCmd(res resource, id int) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx := context.Background()
		msg := formLoadedMsg{res: res, id: id}
		switch res {
		case resProjects:
			p, err := c.GetProject(ctx, id)
			msg.err = err
			msg.values = []string{p.Name, p.Description}
		case resClients:
			r, err := c.GetClient(ctx, id)
			msg.err = err
			msg.values = []string{r.Name, r.INN, r.Phone, r.Email, r.Address}
		case resNomenklatura:
			n, err := c.GetNomenklatura(ctx, id)
			msg.err = err
			msg.values = []string{n.Name, n.Article, n.Description, fmt.Sprintf("%g", n.Price), n.Unit}
		}
		return msg
	}
}

func (m Model) saveFormCmd(res resource, id int, values []string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		switch res {
		case resProjects:
			in := api.ProjectInput{Name: values[0], Description: values[1]}
			if id == 0 {
				_, err = c.CreateProject(ctx, in)
			} else {
				_, err = c.UpdateProject(ctx, id, in)
			}
		case resClients:
			in := api.ClientInput{Name: values[0], INN: values[1], Phone: values[2], Email: values[3], Address: values[4]}
			if id == 0 {
				_, err = c.CreateClient(ctx, in)
			} else {
				_, err = c.UpdateClient(ctx, id, in)
			}
		case resNomenklatura:
			in := api.NomenklaturaInput{Name: values[0], Article: values[1], Description: values[2], Unit: values[4]}
			in.Price, _ = strconv.ParseFloat(strings.TrimSpace(values[3]), 64)
			if id == 0 {
				_, err = c.CreateNomenklatura(ctx, in)
			} else {
				_, err = c.UpdateNomenklatura(ctx, id, in)
			}
		}
		return savedMsg{res: res, err: err}
	}
}

func (m Model) deleteCmd(res resource, id int) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		switch res {
		case resProjects:
			err = c.DeleteProject(ctx, id)
		case resClients:
			err = c.DeleteClient(ctx, id)
		case resNomenklatura:
			err = c.DeleteNomenklatura(ctx, id)
		case resVisits:
			_, err = c.CancelVisit(ctx, id, "cancelled by operator")
		}
		return deletedMsg{res: res, id: id, err: err}
	}
}

// uploadImageCmd attaches a local image file to a project, client or
// nomenklatura card.
func (m Model) uploadImageCmd(res resource, id int, path string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return imageUploadedMsg{res: res, id: id, err: err}
		}
		defer f.Close()
		name := filepath.Base(path)
		switch res {
		case resProjects:
			_, err = c.UploadProjectImage(context.Background(), id, name, f)
		case resClients:
			_, err = c.UploadClientImage(context.Background(), id, name, f)
		case resNomenklatura:
			_, err = c.UploadNomenklaturaImage(context.Background(), id, name, f)
		case resVisits:
			_, err = c.UploadVisitImage(context.Background(), id, name, f)
		}
		return imageUploadedMsg{res: res, id: id, err: err}
	}
}

func (m Model) importXLSXCmd(path string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return xlsxImportedMsg{err: err}
		}
		defer f.Close()
		result, err := c.ImportNomenklaturaXLSX(context.Background(), filepath.Base(path), f)
		return xlsxImportedMsg{result: result, err: err}
	}
}

// exportXLSXCmd writes the catalog export, or the blank import template,
// into the working directory.
func (m Model) exportXLSXCmd(template bool) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		var (
			data []byte
			err  error
			path = "nomenklatura.xlsx"
		)
		if template {
			path = "nomenklatura_template.xlsx"
			data, err = c.NomenklaturaTemplateXLSX(context.Background())
		} else {
			data, err = c.ExportNomenklaturaXLSX(context.Background())
		}
		if err != nil {
			return xlsxSavedMsg{path: path, err: err}
		}
		return xlsxSavedMsg{path: path, err: os.WriteFile(path, data, 0o644)}
	}
}

func (m Model) loadVisitStatsCmd() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		stats, err := c.VisitStatistics(context.Background(), api.ListOpts{})
		return visitStatsMsg{stats: stats, err: err}
	}
}

func (m Model) checkOutVisitCmd(id int) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		_, err := c.CheckOutVisit(context.Background(), id)
		return savedMsg{res: resVisits, err: err}
	}
}

func (m Model) toggleUserCmd(id int, active bool) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		_, err := c.UpdateUser(context.Background(), id, api.UserInput{IsActive: &active})
		return savedMsg{res: resUsers, err: err}
	}
}

func (m Model) loadIntegrationsCmd() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx := context.Background()
		msg := integrationsMsg{}
		page, err := c.ListIntegrations(ctx, api.ListOpts{PageSize: 100})
		if err != nil {
			msg.err = err
			return msg
		}
		msg.items = page.Results
		hist, err := c.SyncHistory(ctx, api.ListOpts{PageSize: 20, Ordering: "-started_at"})
		if err != nil {
			msg.err = err
			return msg
		}
		msg.history = hist.Results
		return msg
	}
}

func (m Model) startSyncCmd(res api.SyncResource, integrationID int) tea.Cmd {
	t := m.tracker
	return func() tea.Msg {
		run, started, err := t.Start(context.Background(), res, integrationID)
		return syncStartedMsg{resource: res, integrationID: integrationID, run: run, started: started, err: err}
	}
}

// listenSyncRun forwards one run event; a closed channel ends the chain.
func listenSyncRun(run *syncrun.Run) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-run.Events
		if !ok {
			return syncRunEndedMsg{key: run.Key}
		}
		return syncEventMsg{ev: ev}
	}
}

func (m Model) loadSyncHistoryCmd() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		page, err := c.SyncHistory(context.Background(), api.ListOpts{PageSize: 20, Ordering: "-started_at"})
		return syncHistoryMsg{entries: page.Results, err: err}
	}
}

func (m Model) loadConversationsCmd() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx := context.Background()
		msg := conversationsMsg{}
		settings, err := c.GetChatSettings(ctx)
		if err != nil {
			msg.err = err
			return msg
		}
		msg.settings = settings
		page, err := c.ListConversations(ctx, api.ListOpts{PageSize: 50, Ordering: "-last_message_at"})
		if err != nil {
			msg.err = err
			return msg
		}
		msg.items = page.Results
		return msg
	}
}

func (m Model) closeConversationCmd(conversationID int) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		err := c.CloseConversation(context.Background(), conversationID)
		return conversationClosedMsg{id: conversationID, err: err}
	}
}

// openConversationCmd loads history over HTTP, then binds the socket.
func (m Model) openConversationCmd(conversationID int) tea.Cmd {
	c := m.client
	d := m.dialer
	token := c.Session().Token()
	return func() tea.Msg {
		ctx := context.Background()
		msg := chatOpenedMsg{conversationID: conversationID}
		page, err := c.ListChatMessages(ctx, conversationID, api.ListOpts{PageSize: 100})
		if err != nil {
			msg.err = err
			return msg
		}
		msg.history = page.Results

		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		conn, err := d.Dial(dialCtx, conversationID, token)
		if err != nil {
			msg.err = err
			return msg
		}
		msg.conn = conn
		return msg
	}
}

// listenChat forwards one socket frame; a closed channel reports the
// socket as gone.
func listenChat(conn *chat.Conn) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-conn.Incoming
		if !ok {
			return chatClosedMsg{conversationID: conn.ConversationID}
		}
		return chatFrameMsg{conversationID: conn.ConversationID, msg: msg}
	}
}

func sendChatCmd(conn *chat.Conn, body, clientMsgID string) tea.Cmd {
	return func() tea.Msg {
		return chatSentMsg{err: conn.Send(body, clientMsgID)}
	}
}

// sendAttachmentCmd uploads a local file into the conversation over HTTP
// multipart; the socket echo is de-duplicated by client_msg_id.
func (m Model) sendAttachmentCmd(conversationID int, path string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return chatAttachmentMsg{conversationID: conversationID, err: err}
		}
		defer f.Close()
		msg, err := c.SendChatAttachment(context.Background(), conversationID,
			"", uuid.NewString(), filepath.Base(path), f)
		return chatAttachmentMsg{conversationID: conversationID, msg: msg, err: err}
	}
}

func (m Model) loadAgentsCmd() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		agents, err := c.UniqueAgents(context.Background())
		return agentsMsg{agents: agents, err: err}
	}
}

func (m Model) loadTrajectoryCmd(agentID int, date string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx := context.Background()
		msg := trajectoryMsg{agentID: agentID}
		points, err := c.Trajectory(ctx, agentID, date)
		if err != nil {
			msg.err = err
			return msg
		}
		msg.points = points
		regional, err := c.RegionalActivityReport(ctx)
		if err != nil {
			msg.err = err
			return msg
		}
		msg.regional = regional
		return msg
	}
}

func (m Model) loadHealthCmd() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		status, err := c.GetHealthStatus(context.Background())
		return healthMsg{status: status, err: err}
	}
}

// scheduleToastTick wakes the update loop when the next toast expires so
// the overlay redraws without user input.
func (m Model) scheduleToastTick() tea.Cmd {
	next := m.notices.NextExpiry()
	if next.IsZero() {
		return nil
	}
	d := time.Until(next)
	if d < 0 {
		d = 0
	}
	return tea.Tick(d+50*time.Millisecond, func(time.Time) tea.Msg {
		return toastTickMsg{}
	})
}
