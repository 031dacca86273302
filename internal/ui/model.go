package ui

import (
	"time"

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

// --- Model / State ---
type state int

const (
	stateWelcome state = iota
	stateLogin
	stateValidating
	stateMenu
	stateList
	stateForm
	stateSync
	stateChat
	stateTracker
	stateHealth
	stateQuit
)

// resource identifies which collection the list screen shows.
type resource int

const (
	resProjects resource = iota
	resClients
	resNomenklatura
	resUsers
	resVisits
)

func (r resource) String() string {
	switch r {
	case resProjects:
		return "Projects"
	case resClients:
		return "Clients"
	case resNomenklatura:
		return "Nomenklatura"
	case resUsers:
		return "Users"
	case resVisits:
		return "Visits"
	default:
		return "?"
	}
}

// listRow is the uniform row shape every resource is rendered through.
type listRow struct {
	ID       int
	Title    string
	Subtitle string
	Active   bool
}

// listPrompt selects what the list path prompt collects.
type listPrompt int

const (
	promptNone listPrompt = iota
	promptImage
	promptImport
)

// ListState holds one resource list screen: server-side pagination plus a
// local fuzzy filter over the fetched page.
type ListState struct {
	res      resource
	page     int
	pageSize int
	count    int
	rows     []listRow

	index    int
	offset   int
	viewport int

	searching   bool
	searchInput textinput.Model
	query       string
	filteredIdx []int

	promptKind     listPrompt
	promptTargetID int
	pathInput      textinput.Model

	visitStats *api.VisitStats

	loading bool
	// generation guards against a stale response overwriting a newer one
	// after rapid page/search changes
	generation int
}

// syncRunView is the per-chain progress block on the sync screen.
type syncRunView struct {
	resource      api.SyncResource
	integrationID int
	run           *syncrun.Run
	active        bool
	task          api.SyncTask
	bar           progress.Model
}

// SyncScreen is the integration sync workflow state.
type SyncScreen struct {
	integrations []api.Integration
	index        int
	runs         map[string]*syncRunView
	history      []api.SyncHistoryEntry
	loading      bool
}

// ChatScreen binds one conversation to one socket at a time.
type ChatScreen struct {
	settings      api.ChatSettings
	conversations []api.Conversation
	index         int
	selectedID    int
	conn          *chat.Conn
	log           *chat.Log
	input         textinput.Model
	focusInput    bool
	attachMode    bool
	loading       bool
}

// TrackerScreen shows per-agent trajectory stats and regional activity.
type TrackerScreen struct {
	agents   []api.User
	index    int
	date     string
	points   int
	stats    trajectory.Stats
	regional []api.RegionalActivity
	loading  bool
}

// FormState is the create/edit form for projects, clients and nomenklatura.
type FormState struct {
	res    resource
	id     int // 0 = create
	fields []formField
	focus  int
	saving bool
}

type formField struct {
	label string
	input textinput.Model
}

type Model struct {
	state         state
	cfg           config.Config
	cfgPath       string
	statusMsg     string
	width, height int

	client  *api.Client
	tracker *syncrun.Tracker
	dialer  *chat.Dialer
	notices *notify.Center
	authCh  chan api.AuthEvent

	spinner spinner.Model

	// login inputs
	userInput textinput.Model
	passInput textinput.Model
	loginErr  error

	menuIndex int

	list          ListState
	form          FormState
	sync          SyncScreen
	chat          ChatScreen
	trk           TrackerScreen
	health        api.HealthStatus
	confirm       *notify.Confirm
	confirmAction *tea.Cmd

	filterCfg FilterConfig
}

// InitialModel wires config, session and clients together. The auth
// channel carries session events into the update loop.
func InitialModel() Model {
	p := config.DefaultPath()
	cfg, err := config.Load(p)
	if err != nil {
		logx.Warnf("config load: %v", err)
	}
	return NewModel(cfg, p)
}

// NewModel builds the model from explicit config (used by tests).
func NewModel(cfg config.Config, cfgPath string) Model {
	session := api.NewSession(cfg.Token, cfg.RefreshToken)
	logx.RegisterSecret(cfg.Token)
	logx.RegisterSecret(cfg.RefreshToken)
	client := api.New(cfg.APIURL, session)

	m := Model{
		state:   stateWelcome,
		cfg:     cfg,
		cfgPath: cfgPath,
		client:  client,
		tracker: syncrun.NewTracker(client),
		dialer:  chat.NewDialer(cfg.WSURL),
		notices: notify.NewCenter(),
		authCh:  make(chan api.AuthEvent, 8),
	}

	// session events are fanned into the update loop; see listenAuthCmd
	session.Subscribe(func(e api.AuthEvent) {
		select {
		case m.authCh <- e:
		default:
		}
	})

	if cfg.Token == "" {
		m.statusMsg = "No token found - press Enter to sign in."
	} else {
		m.statusMsg = "Token found - press Enter to validate, q to quit."
	}

	un := textinput.New()
	un.Placeholder = "Username"
	un.CharLimit = 150
	un.Focus()
	m.userInput = un

	pi := textinput.New()
	pi.Placeholder = "Password"
	pi.EchoMode = textinput.EchoPassword
	pi.CharLimit = 150
	m.passInput = pi

	si := textinput.New()
	si.Placeholder = "Fuzzy search…"
	si.CharLimit = 200
	si.Width = 40
	m.list.searchInput = si
	m.list.pageSize = 20
	m.list.page = 1
	m.list.viewport = 15

	fp := textinput.New()
	fp.Placeholder = "Path to file…"
	fp.CharLimit = 500
	fp.Width = 50
	m.list.pathInput = fp

	ci := textinput.New()
	ci.Placeholder = "Message…"
	ci.CharLimit = 500
	ci.Width = 60
	m.chat.input = ci
	m.chat.log = chat.NewLog()

	m.sync.runs = make(map[string]*syncRunView)
	m.trk.date = time.Now().Format("2006-01-02")

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = subtleStyle
	m.spinner = sp

	m.filterCfg = FilterConfig{
		MinCoverage: 0.6,
		MaxSpread:   40,
		MaxResults:  200,
	}
	return m
}

func (m Model) Init() tea.Cmd { return m.listenAuthCmd() }
