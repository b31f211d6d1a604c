package ui

import (
	"log"
	"strconv"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/dxportal/internal/datacache"
	"github.com/five82/dxportal/internal/dxapi"
	"github.com/five82/dxportal/internal/export"
	"github.com/five82/dxportal/internal/pages"
	"github.com/five82/dxportal/internal/state"
)

type exportDoneMsg struct {
	path string
	err  error
}

type noticesUpdatedMsg struct {
	key  datacache.Key
	read bool
	n    int
	err  error
}

type facilityDeletedMsg struct {
	key datacache.Key
	id  string
	err error
}

func (m Model) openDetail() (tea.Model, tea.Cmd) {
	s := m.list
	info := s.info()
	id, ok := s.view.RowDetailID(s.cursor)
	if !ok {
		return m, nil
	}
	if !m.canEdit(info) {
		m.setFlash("You do not have permission to view details", true)
		return m, nil
	}
	title := info.Title + " › " + id
	cmd := m.showDetail(title, id, datacache.NewKey(dxapi.Detail(info.DetailResource, id)))
	return m, cmd
}

func (m Model) openSettings() (tea.Model, tea.Cmd) {
	if m.mode != modeList || !m.nav.Permissions(state.ControlSettings).ScreenAccess {
		return m, nil
	}
	cmd := m.showDetail("Account Settings", "", datacache.NewKey(dxapi.AccountPath))
	return m, cmd
}

// openChild opens the first child screen of the current list for the row
// under the cursor.
func (m Model) openChild() (tea.Model, tea.Cmd) {
	s := m.list
	if m.catalog == nil {
		return m, nil
	}
	children := m.catalog.Children(s.info().Name)
	if len(children) == 0 {
		return m, nil
	}
	id, ok := s.view.RowDetailID(s.cursor)
	if !ok {
		return m, nil
	}
	params := pages.Params{ID: id, Name: s.view.Cell(s.cursor, 0)}
	cmd := m.push(children[0], params, s)
	return m, cmd
}

func (m Model) export() (tea.Model, tea.Cmd) {
	s := m.list
	info := s.info()
	if !s.view.CanExport() || !s.view.Loaded() || m.exporter == nil {
		return m, nil
	}
	if !m.canEdit(info) {
		m.setFlash("You do not have permission to export", true)
		return m, nil
	}
	table, err := s.view.ExportTable()
	if err != nil {
		m.setFlash("export failed: "+err.Error(), true)
		return m, nil
	}
	meta := s.view.Meta(s.params)
	m.setFlash("exporting "+meta.Filename+"...", false)
	ctx, exporter := m.ctx, m.exporter
	return m, func() tea.Msg {
		path, err := exporter.Export(ctx, table.Rows, table.Headers, meta)
		return exportDoneMsg{path: path, err: err}
	}
}

func (m *Model) copyID() {
	id, ok := m.list.view.RowDetailID(m.list.cursor)
	if !ok {
		return
	}
	m.copyText(id)
}

func (m *Model) copyText(text string) {
	if err := clipboard.WriteAll(text); err != nil {
		log.Printf("clipboard: %v", err)
		m.setFlash("copy failed", true)
		return
	}
	m.setFlash("copied "+text, false)
}

func (m Model) markNotices(read bool) (tea.Model, tea.Cmd) {
	s := m.list
	if !s.info().BulkNotices || m.writer == nil {
		return m, nil
	}
	ids := s.view.SelectedKeys()
	if len(ids) == 0 {
		m.setFlash("select notices first", true)
		return m, nil
	}
	ctx, writer, key := m.ctx, m.writer, s.key
	return m, func() tea.Msg {
		err := writer.UpdateNoticeStatus(ctx, ids, read)
		return noticesUpdatedMsg{key: key, read: read, n: len(ids), err: err}
	}
}

func (m Model) handleNoticesUpdated(msg noticesUpdatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		log.Printf("update notices: %v", msg.err)
		m.setFlash("update failed: "+msg.err.Error(), true)
		return m, nil
	}
	status := "unread"
	if msg.read {
		status = "read"
	}
	m.setFlash(pluralize(msg.n, "notice")+" marked "+status, false)
	for s := m.list; s != nil; s = s.parent {
		if s.key.Equal(msg.key) {
			s.view.ClearSelection()
		}
	}
	m.cache.Mutate(msg.key)
	return m, nil
}

// deleteFacility removes the location under the cursor. The first press
// asks for confirmation.
func (m Model) deleteFacility() (tea.Model, tea.Cmd) {
	s := m.list
	info := s.info()
	if info.DetailResource != dxapi.FacilitiesPath || m.writer == nil {
		return m, nil
	}
	if !m.nav.Permissions(info.Control).Delete {
		m.setFlash("You do not have permission to delete locations", true)
		return m, nil
	}
	id, ok := s.view.RowDetailID(s.cursor)
	if !ok {
		return m, nil
	}
	if s.confirmDelete != id {
		s.confirmDelete = id
		m.setFlash("press D again to delete "+s.view.Cell(s.cursor, 0), true)
		return m, nil
	}
	s.confirmDelete = ""
	ctx, writer, key := m.ctx, m.writer, s.key
	return m, func() tea.Msg {
		return facilityDeletedMsg{key: key, id: id, err: writer.DeleteFacility(ctx, id)}
	}
}

func (m Model) handleFacilityDeleted(msg facilityDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		log.Printf("delete facility %s: %v", msg.id, msg.err)
		m.setFlash("delete failed: "+msg.err.Error(), true)
		return m, nil
	}
	m.setFlash("location deleted", false)
	m.cache.Mutate(msg.key)
	return m, nil
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

var _ Exporter = (*export.Exporter)(nil)
