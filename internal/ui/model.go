package ui

import (
	"context"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/dxportal/internal/auth"
	"github.com/five82/dxportal/internal/datacache"
	"github.com/five82/dxportal/internal/export"
	"github.com/five82/dxportal/internal/grid"
	"github.com/five82/dxportal/internal/pages"
	"github.com/five82/dxportal/internal/prefs"
	"github.com/five82/dxportal/internal/state"
)

// Writer performs the portal writes the UI offers.
type Writer interface {
	UpdateNoticeStatus(ctx context.Context, ids []string, read bool) error
	DeleteFacility(ctx context.Context, id string) error
}

// Exporter writes a spreadsheet and returns its path.
type Exporter interface {
	Export(ctx context.Context, rows [][]any, headers []string, meta export.Meta) (string, error)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Server    string
	Provider  auth.Provider
	Cache     *datacache.Cache
	Writer    Writer
	Exporter  Exporter
	Nav       *state.Navigation
	Settings  *state.SettingsStore
	Prefs     prefs.Prefs
	PrefsPath string
	Debounce  time.Duration
	Now       func() time.Time
	// MapsToken enables map links on records with coordinates.
	MapsToken string
}

type mode int

const (
	modeLogin mode = iota
	modeList
	modeDetail
)

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	server    string
	provider  auth.Provider
	cache     *datacache.Cache
	writer    Writer
	exporter  Exporter
	nav       *state.Navigation
	settings  *state.SettingsStore
	prefs     prefs.Prefs
	prefsPath string
	mapsToken string
	now       func() time.Time

	// UI state
	theme     Theme
	keys      keyMap
	help      help.Model
	spinner   spinner.Model
	search    textinput.Model
	searching bool
	debouncer *grid.Debouncer
	showHelp  bool
	width     int
	height    int
	ready     bool
	bp        grid.Breakpoint
	mode      mode
	flash     string
	flashErr  bool
	lastInput time.Time

	// Session state
	login     loginState
	formatter *state.Formatter
	catalog   *pages.Catalog
	menu      []pages.Definition
	menuIdx   int
	ranges    map[string]*state.DateRangeStore

	// Screens
	list   *listScreen
	detail *detailScreen
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	nav := opts.Nav
	if nav == nil {
		nav = state.NewNavigation()
	}
	settings := opts.Settings
	if settings == nil {
		settings = state.NewSettingsStore()
	}
	delay := opts.Debounce
	if delay <= 0 {
		delay = grid.DefaultDebounce
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.CharLimit = 128

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:       ctx,
		server:    opts.Server,
		provider:  opts.Provider,
		cache:     opts.Cache,
		writer:    opts.Writer,
		exporter:  opts.Exporter,
		nav:       nav,
		settings:  settings,
		prefs:     opts.Prefs,
		prefsPath: opts.PrefsPath,
		mapsToken: opts.MapsToken,
		now:       now,
		theme:     GetTheme(opts.Prefs.Theme),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		search:    search,
		debouncer: grid.NewDebouncer(delay),
		bp:        grid.LG,
		mode:      modeLogin,
		lastInput: now(),
		ranges:    make(map[string]*state.DateRangeStore),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.provider != nil && m.provider.Ready() {
		return func() tea.Msg { return loginDoneMsg{} }
	}
	return func() tea.Msg { return startLoginMsg{} }
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.lastInput = m.now()
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case startLoginMsg:
		return m.startLogin()

	case deviceCodeMsg:
		return m.handleDeviceCode(msg)

	case loginDoneMsg:
		return m.handleLoginDone(msg)

	case logoutMsg:
		return m.logout()

	case idleTickMsg:
		return m.handleIdleTick()

	case resultMsg:
		return m.handleResult(msg)

	case searchMsg:
		if m.debouncer.Current(msg.token) && m.list != nil && msg.screen == m.list {
			m.list.view.SetFilter(msg.query)
			m.list.cursor, m.list.offset = 0, 0
		}
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			log.Printf("export failed: %v", msg.err)
			m.setFlash("export failed: "+msg.err.Error(), true)
		} else {
			m.setFlash("exported to "+msg.path, false)
		}
		return m, nil

	case noticesUpdatedMsg:
		return m.handleNoticesUpdated(msg)

	case facilityDeletedMsg:
		return m.handleFacilityDeleted(msg)
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	switch m.mode {
	case modeLogin:
		return m.renderLogin()
	case modeDetail:
		return m.renderDetail()
	default:
		return m.renderList()
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		if m.detail != nil {
			m.detail.styles = m.theme.Styles()
			m.detail.render()
		}
		return m, nil
	}

	switch m.mode {
	case modeLogin:
		return m.handleLoginKey(msg)
	case modeDetail:
		return m.handleDetailKey(msg)
	default:
		return m.handleListKey(msg)
	}
}

func (m *Model) resize() {
	bp := grid.Classify(m.width)
	if bp != m.bp {
		m.bp = bp
		for s := m.list; s != nil; s = s.parent {
			if err := s.view.SetBreakpoint(bp); err != nil {
				log.Printf("column set for %s: %v", bp, err)
			}
		}
	}
	if m.detail != nil {
		m.detail.resize(m.width, m.contentHeight())
	}
}

func (m Model) contentHeight() int {
	// header, toolbar, footer status, footer help
	return max(m.height-4, 1)
}

func (m Model) busy() bool {
	if m.mode == modeLogin {
		return m.login.pending
	}
	if m.mode == modeDetail && m.detail != nil {
		return m.detail.result.IsValidating
	}
	return m.list != nil && m.list.result.IsValidating
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash = text
	m.flashErr = isErr
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		log.Printf("save prefs: %v", err)
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.closeAll()
	}
	return err
}
