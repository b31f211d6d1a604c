package ui

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/dxportal/internal/datacache"
	"github.com/five82/dxportal/internal/dxapi"
	"github.com/five82/dxportal/internal/pages"
	"github.com/five82/dxportal/internal/state"
)

// listScreen is one open grid. Child screens keep a pointer to the screen
// they were opened from so esc can return to it with cursor and selection
// intact.
type listScreen struct {
	def    pages.Definition
	view   pages.View
	params pages.Params
	key    datacache.Key
	sub    *datacache.Subscription
	result datacache.Result
	err    error // decode failure of the latest payload

	cursor int
	offset int

	confirmDelete string
	parent        *listScreen
}

func (s *listScreen) info() pages.Info { return s.def.Info() }

func (s *listScreen) close() {
	if s.sub != nil {
		s.sub.Close()
	}
}

// resultMsg carries a cache update for one subscription.
type resultMsg struct {
	sub    *datacache.Subscription
	result datacache.Result
}

type searchMsg struct {
	screen *listScreen
	token  uint64
	query  string
}

// waitResult blocks on the next update of sub. A closed subscription ends
// the loop.
func waitResult(sub *datacache.Subscription) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-sub.C()
		if !ok {
			return nil
		}
		return resultMsg{sub: sub, result: r}
	}
}

// reopen replaces the screen stack with the selected menu entry.
func (m *Model) reopen() tea.Cmd {
	m.closeAll()
	m.list = nil
	m.detail = nil
	m.mode = modeList
	if len(m.menu) == 0 {
		return nil
	}
	m.menuIdx = min(max(m.menuIdx, 0), len(m.menu)-1)
	def := m.menu[m.menuIdx]
	m.prefs.LastScreen = def.Info().Name
	m.savePrefs()
	return m.push(def, pages.Params{}, nil)
}

// push opens def on top of parent.
func (m *Model) push(def pages.Definition, params pages.Params, parent *listScreen) tea.Cmd {
	view, err := def.Open(m.bp)
	if err != nil {
		log.Printf("open screen: %v", err)
		m.setFlash(err.Error(), true)
		return nil
	}
	s := &listScreen{def: def, view: view, params: params, parent: parent}
	m.list = s
	m.search.SetValue("")
	m.debouncer.Bump()
	return m.subscribe(s)
}

// subscribe recomputes the screen's key and, when it changed, moves the
// subscription to it.
func (m *Model) subscribe(s *listScreen) tea.Cmd {
	info := s.info()
	if info.DateRange {
		s.params.Range = m.rangeStore(s).Get()
	}
	if info.BulkNotices {
		s.params.Notices = dxapi.NoticeFilter(m.prefs.NoticeFilter)
	}
	key := s.def.Key(s.params)
	if s.sub != nil && key.Equal(s.key) {
		return nil
	}
	s.close()
	s.key = key
	s.sub = m.cache.Subscribe(key)
	s.result = s.sub.Current()
	s.err = nil
	s.load()
	if s.sub.Key().IsNull() {
		return nil
	}
	return tea.Batch(waitResult(s.sub), m.spinner.Tick)
}

func (s *listScreen) load() {
	if s.result.Data == nil {
		return
	}
	if err := s.view.Load(s.result.Data); err != nil {
		log.Printf("load %s: %v", s.info().Name, err)
		s.err = err
		return
	}
	s.err = nil
	s.cursor = min(s.cursor, max(s.view.Len()-1, 0))
}

// rangeStore returns the date range shared by a screen and its children.
func (m *Model) rangeStore(s *listScreen) *state.DateRangeStore {
	root := s
	for root.parent != nil {
		root = root.parent
	}
	name := root.info().Name
	store, ok := m.ranges[name]
	if !ok {
		store = state.NewDateRangeStore(m.now())
		m.ranges[name] = store
	}
	return store
}

func (m Model) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	for s := m.list; s != nil; s = s.parent {
		if s.sub != msg.sub {
			continue
		}
		prev := s.result
		s.result = msg.result
		if msg.result.Data != nil && string(msg.result.Data) != string(prev.Data) {
			s.load()
		}
		if msg.result.Err != nil && msg.result.Err != prev.Err {
			log.Printf("load %s failed: %v", s.info().Name, msg.result.Err)
		}
		return m, waitResult(s.sub)
	}
	if m.detail != nil && m.detail.sub == msg.sub {
		m.detail.apply(msg.result, m.formatter)
		return m, waitResult(m.detail.sub)
	}
	return m, nil
}

// closeAll releases every subscription held by the screen stack.
func (m *Model) closeAll() {
	for s := m.list; s != nil; s = s.parent {
		s.close()
	}
	if m.detail != nil {
		m.detail.close()
	}
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		if m.list != nil {
			m.debouncer.Bump()
			m.list.view.SetFilter("")
			m.list.cursor, m.list.offset = 0, 0
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	token := m.debouncer.Bump()
	query := m.search.Value()
	screen := m.list
	debounce := tea.Tick(m.debouncer.Delay, func(_ time.Time) tea.Msg {
		return searchMsg{screen: screen, token: token, query: query}
	})
	return m, tea.Batch(cmd, debounce)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.list
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Logout):
		return m.logout()
	case key.Matches(msg, m.keys.NextScreen):
		if len(m.menu) > 0 {
			m.menuIdx = (m.menuIdx + 1) % len(m.menu)
		}
		cmd := m.reopen()
		return m, cmd
	case key.Matches(msg, m.keys.PrevScreen):
		if len(m.menu) > 0 {
			m.menuIdx = (m.menuIdx - 1 + len(m.menu)) % len(m.menu)
		}
		cmd := m.reopen()
		return m, cmd
	case key.Matches(msg, m.keys.Settings):
		return m.openSettings()
	}
	if s == nil {
		return m, nil
	}

	if s.confirmDelete != "" && !key.Matches(msg, m.keys.Delete) {
		s.confirmDelete = ""
		m.setFlash("", false)
	}

	page := max(m.gridHeight()-1, 1)
	switch {
	case key.Matches(msg, m.keys.Back):
		m.debouncer.Bump()
		if s.view.Filter() != "" {
			m.search.SetValue("")
			s.view.SetFilter("")
			s.cursor, s.offset = 0, 0
			return m, nil
		}
		if s.parent != nil {
			s.close()
			m.list = s.parent
			m.search.SetValue(m.list.view.Filter())
		}
	case key.Matches(msg, m.keys.Refresh):
		m.cache.Mutate(s.key)
	case key.Matches(msg, m.keys.Up):
		s.cursor = max(s.cursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		s.cursor = min(s.cursor+1, max(s.view.Len()-1, 0))
	case key.Matches(msg, m.keys.Top):
		s.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		s.cursor = max(s.view.Len()-1, 0)
	case key.Matches(msg, m.keys.PageUp):
		s.cursor = max(s.cursor-page, 0)
	case key.Matches(msg, m.keys.PageDown):
		s.cursor = min(s.cursor+page, max(s.view.Len()-1, 0))
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.Placeholder = s.info().Placeholder
		m.search.SetValue(s.view.Filter())
		m.search.CursorEnd()
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Sort):
		col := int(msg.String()[0] - '1')
		s.view.ToggleSort(col)
	case key.Matches(msg, m.keys.Select):
		s.view.ToggleRow(s.cursor)
	case key.Matches(msg, m.keys.SelectAll):
		s.view.ToggleAll()
	case key.Matches(msg, m.keys.Open):
		return m.openDetail()
	case key.Matches(msg, m.keys.Child):
		return m.openChild()
	case key.Matches(msg, m.keys.Export):
		return m.export()
	case key.Matches(msg, m.keys.CopyID):
		m.copyID()
	case key.Matches(msg, m.keys.EarlierRange):
		return m, m.moveRange(s, func(r state.DateRange) state.DateRange { return r.Shift(-rangeDays(r)) })
	case key.Matches(msg, m.keys.LaterRange):
		return m, m.moveRange(s, func(r state.DateRange) state.DateRange { return r.Shift(rangeDays(r)) })
	case key.Matches(msg, m.keys.WidenRange):
		return m, m.moveRange(s, func(r state.DateRange) state.DateRange {
			r.Start = r.Start.AddDate(0, 0, -1)
			return r
		})
	case key.Matches(msg, m.keys.NarrowRange):
		return m, m.moveRange(s, func(r state.DateRange) state.DateRange {
			if rangeDays(r) > 1 {
				r.Start = r.Start.AddDate(0, 0, 1)
			}
			return r
		})
	case key.Matches(msg, m.keys.NoticeFilter):
		if s.info().BulkNotices {
			m.prefs.NoticeFilter = string(dxapi.NoticeFilter(m.prefs.NoticeFilter).Next())
			m.savePrefs()
			return m, m.subscribe(s)
		}
	case key.Matches(msg, m.keys.MarkRead):
		return m.markNotices(true)
	case key.Matches(msg, m.keys.MarkUnread):
		return m.markNotices(false)
	case key.Matches(msg, m.keys.Delete):
		return m.deleteFacility()
	}
	return m, nil
}

// rangeDays is the whole-day span of r, at least one.
func rangeDays(r state.DateRange) int {
	return max(int(r.End.Sub(r.Start).Hours()/24), 1)
}

func (m *Model) moveRange(s *listScreen, fn func(state.DateRange) state.DateRange) tea.Cmd {
	if !s.info().DateRange {
		return nil
	}
	m.rangeStore(s).Update(fn)
	return m.subscribe(s)
}

func (m Model) gridHeight() int {
	// status and help footer lines
	return max(m.contentHeight()-2, 2)
}

// canEdit reports whether the row actions of an edit-gated screen are open
// to the user.
func (m Model) canEdit(info pages.Info) bool {
	if !info.EditGated {
		return true
	}
	return m.nav.Permissions(info.Control).Edit
}

func (m Model) renderList() string {
	styles := m.theme.Styles()
	var b strings.Builder

	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.renderToolbar())
	b.WriteString("\n")

	height := m.gridHeight()
	s := m.list
	switch {
	case s == nil:
		b.WriteString(m.placeholder(styles.MutedText.Render("No screens are available for this account."), height))
	case s.key.IsNull():
		b.WriteString(m.placeholder(styles.WarningText.Render(nullKeyText(s)), height))
	case s.err != nil:
		b.WriteString(m.placeholder(styles.DangerText.Render("Unexpected response: "+s.err.Error()), height))
	case s.result.Err != nil:
		b.WriteString(m.placeholder(styles.DangerText.Render(resultErrorText(s.result.Err)), height))
	case !s.view.Loaded():
		b.WriteString(m.placeholder(m.spinner.View()+styles.MutedText.Render(" Loading..."), height))
	case s.view.Len() == 0:
		b.WriteString(m.renderGrid(s, m.width, 1))
		b.WriteString("\n")
		b.WriteString(m.placeholder(styles.MutedText.Render("No records found"), height-1))
	default:
		grid := m.renderGrid(s, m.width, height)
		b.WriteString(grid)
		if pad := height - lipgloss.Height(grid); pad > 0 {
			b.WriteString(strings.Repeat("\n", pad))
		}
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(m.help.ShortHelpView(m.keys.listHelp())))
	return b.String()
}

func (m Model) placeholder(text string, height int) string {
	return lipgloss.Place(m.width, max(height, 1), lipgloss.Center, lipgloss.Center, text)
}

func nullKeyText(s *listScreen) string {
	info := s.info()
	if info.NeedsID && s.params.ID == "" {
		return "Open this screen from the " + info.Parent + " list."
	}
	return "The start date must not be after the end date."
}

func resultErrorText(err error) string {
	if errors.Is(err, datacache.ErrUnauthorized) {
		return "Unauthorized access. Sign out (L) and sign in again."
	}
	return "Failed to load: " + err.Error()
}

// renderTabs draws the menu bar across the top of the screen.
func (m Model) renderTabs() string {
	base := m.theme.Styles()
	styles := base.WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{bg.Render("Dx", styles.Logo)}
	for i, d := range m.menu {
		title := " " + d.Info().Title + " "
		if i == m.menuIdx && m.mode == modeList {
			parts = append(parts, base.Selected.Render(title))
		} else {
			parts = append(parts, bg.Render(title, styles.MutedText))
		}
	}
	if m.provider != nil {
		if name := m.provider.State().Claims.DisplayName(); name != "" {
			parts = append(parts, bg.Render("· "+name, styles.FaintText))
		}
	}
	return bg.FillLine(clip(bg.Join(parts, " "), m.width), m.width)
}

func (m Model) renderToolbar() string {
	styles := m.theme.Styles()
	s := m.list
	if s == nil {
		return ""
	}
	var parts []string
	title := s.info().Title
	for p := s.parent; p != nil; p = p.parent {
		title = p.info().Title + " › " + title
	}
	parts = append(parts, styles.AccentText.Bold(true).Render(title))

	if s.info().DateRange {
		r := m.rangeStore(s).Get()
		parts = append(parts, styles.Text.Render(m.formatter.Date(r.Start)+" – "+m.formatter.Date(r.End)))
	}
	if s.info().BulkNotices {
		parts = append(parts, styles.StatusStyle(m.prefs.NoticeFilter).Render(m.prefs.NoticeFilter))
	}
	switch {
	case m.searching:
		parts = append(parts, m.search.View())
	case s.view.Filter() != "":
		parts = append(parts, styles.WarningText.Render("/ "+s.view.Filter()))
	}
	if s.result.IsValidating && s.view.Loaded() {
		parts = append(parts, m.spinner.View())
	}
	return clip(strings.Join(parts, "  "), m.width)
}

func (m Model) renderStatus() string {
	styles := m.theme.Styles()
	var parts []string
	if s := m.list; s != nil && s.view.Loaded() {
		count := fmt.Sprintf("%d of %d", s.view.Len(), s.view.Total())
		if n := s.view.SelectedCount(); n > 0 {
			count += fmt.Sprintf(" · %d selected", n)
		}
		parts = append(parts, styles.MutedText.Render(count))
	}
	if m.flash != "" {
		if m.flashErr {
			parts = append(parts, styles.DangerText.Render(m.flash))
		} else {
			parts = append(parts, styles.SuccessText.Render(m.flash))
		}
	}
	return clip(strings.Join(parts, "  "), m.width)
}
