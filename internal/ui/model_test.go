package ui

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/dxportal/internal/auth"
	"github.com/five82/dxportal/internal/datacache"
	"github.com/five82/dxportal/internal/export"
	"github.com/five82/dxportal/internal/pages"
	"github.com/five82/dxportal/internal/prefs"
	"github.com/five82/dxportal/internal/state"
)

const testServer = "api.example.com"

type fakeExporter struct {
	rows    [][]any
	headers []string
	meta    export.Meta
}

func (f *fakeExporter) Export(_ context.Context, rows [][]any, headers []string, meta export.Meta) (string, error) {
	f.rows, f.headers, f.meta = rows, headers, meta
	return "/tmp/" + meta.Filename + ".xlsx", nil
}

type fakeWriter struct {
	mu      sync.Mutex
	ids     []string
	read    bool
	deleted []string
}

func (f *fakeWriter) UpdateNoticeStatus(_ context.Context, ids []string, read bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids, f.read = ids, read
	return nil
}

func (f *fakeWriter) DeleteFacility(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func fetchPortal(_ context.Context, key datacache.Key) (json.RawMessage, error) {
	endpoint := key.Endpoint()
	switch {
	case strings.HasPrefix(endpoint, "PatientTest?"):
		return json.RawMessage(`[
			{"patientTestID":"t1","patientName":"Ada","analysisStartTime":"2024-03-14T10:00:00Z","outcome":"Negative"},
			{"patientTestID":"t2","patientName":"Grace","analysisStartTime":"2024-03-15T10:00:00Z","outcome":"Positive"}
		]`), nil
	case strings.HasPrefix(endpoint, "PatientTest/"):
		return json.RawMessage(`{"patientTestID":"t2","patientName":"Grace","analysisStartTime":"2024-03-15T10:00:00Z"}`), nil
	case strings.HasPrefix(endpoint, "notice/device/"):
		return json.RawMessage(`[
			{"noticeID":"n1","createdTime":"2024-03-15T10:00:00Z","message":"Low battery"},
			{"noticeID":"n2","createdTime":"2024-03-15T11:00:00Z","message":"Update ready"}
		]`), nil
	}
	return json.RawMessage(`[]`), nil
}

func claimsWith(links ...state.Link) auth.Claims {
	raw := make([]any, 0, len(links))
	for _, l := range links {
		raw = append(raw, map[string]any{
			"name": l.Name, "sortOrder": l.SortOrder, "controlName": l.ControlName,
			"edit": l.Edit, "delete": l.Delete,
		})
	}
	return auth.Claims{
		"name": "Lab Admin",
		auth.Namespace(testServer) + "/userScreenAccess": raw,
		auth.Namespace(testServer) + "/settings": map[string]any{
			"timeZone": "UTC", "timeFormat": "24 hour",
		},
	}
}

type harness struct {
	model    Model
	exporter *fakeExporter
	writer   *fakeWriter
}

func newHarness(t *testing.T, links ...state.Link) *harness {
	t.Helper()
	provider := auth.NewStaticProvider("token", claimsWith(links...))
	cache := datacache.New(datacache.FetcherFunc(fetchPortal), datacache.Options{
		Readiness: provider,
		Retry:     datacache.RetryPolicy{MaxAttempts: 1, Backoff: datacache.NoBackoff},
	})
	h := &harness{exporter: &fakeExporter{}, writer: &fakeWriter{}}
	h.model = New(Options{
		Server:   testServer,
		Provider: provider,
		Cache:    cache,
		Writer:   h.writer,
		Exporter: h.exporter,
		Prefs:    prefs.Default(),
		Now:      func() time.Time { return time.Date(2024, 3, 16, 12, 0, 0, 0, time.UTC) },
	})
	h.update(t, tea.WindowSizeMsg{Width: 140, Height: 40})
	h.update(t, loginDoneMsg{})
	t.Cleanup(h.model.closeAll)
	return h
}

func (h *harness) update(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := h.model.Update(msg)
	m, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	h.model = m
	return cmd
}

func (h *harness) key(t *testing.T, s string) tea.Cmd {
	t.Helper()
	switch s {
	case "enter":
		return h.update(t, tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		return h.update(t, tea.KeyMsg{Type: tea.KeyEsc})
	case "tab":
		return h.update(t, tea.KeyMsg{Type: tea.KeyTab})
	case " ":
		return h.update(t, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	}
	return h.update(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// settle feeds results from sub into the model until one has settled.
func (h *harness) settle(t *testing.T, sub *datacache.Subscription) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case r, ok := <-sub.C():
			if !ok {
				t.Fatalf("subscription for %s closed", sub.Key())
			}
			h.update(t, resultMsg{sub: sub, result: r})
			if r.Settled() {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", sub.Key())
		}
	}
}

func testsLink(edit bool) state.Link {
	return state.Link{Name: "Tests", SortOrder: "1", ControlName: state.ControlTests, Edit: edit}
}

func systemsLink() state.Link {
	return state.Link{Name: "Systems", SortOrder: "2", ControlName: state.ControlSystems, Edit: true}
}

func TestSignInOpensFirstScreen(t *testing.T) {
	h := newHarness(t, systemsLink(), testsLink(true))
	m := h.model

	if m.mode != modeList {
		t.Fatalf("mode = %v, want list", m.mode)
	}
	if len(m.menu) != 2 || m.menu[0].Info().Name != "tests" || m.menu[1].Info().Name != "systems" {
		t.Fatalf("menu = %v, want [tests systems]", menuNames(m.menu))
	}
	if m.list == nil || m.list.info().Name != "tests" {
		t.Fatalf("first screen not opened")
	}

	h.settle(t, h.model.list.sub)
	v := h.model.list.view
	if v.Len() != 2 {
		t.Fatalf("rows = %d, want 2", v.Len())
	}
	if got := v.Cell(0, 0); got != "03-15-2024 10:00:00" {
		t.Fatalf("first cell = %q, want newest test in UTC 24h format", got)
	}
	if !strings.Contains(h.model.View(), "Patient Tests") {
		t.Fatalf("view does not show the screen title")
	}
}

func TestNextScreenReplacesSubscription(t *testing.T) {
	h := newHarness(t, testsLink(true), systemsLink())
	first := h.model.list.sub
	h.key(t, "tab")

	if h.model.list.info().Name != "systems" {
		t.Fatalf("screen = %s, want systems", h.model.list.info().Name)
	}
	if h.model.prefs.LastScreen != "systems" {
		t.Fatalf("LastScreen = %q, want systems", h.model.prefs.LastScreen)
	}
	select {
	case _, ok := <-first.C():
		for ok {
			_, ok = <-first.C()
		}
	case <-time.After(time.Second):
		t.Fatalf("previous subscription left open")
	}
}

func TestOpenDetailAndBack(t *testing.T) {
	h := newHarness(t, testsLink(true))
	h.settle(t, h.model.list.sub)

	h.key(t, "enter")
	if h.model.mode != modeDetail || h.model.detail == nil {
		t.Fatalf("detail not opened")
	}
	if h.model.detail.id != "t2" {
		t.Fatalf("detail id = %q, want t2", h.model.detail.id)
	}
	h.settle(t, h.model.detail.sub)

	var found bool
	for _, f := range h.model.detail.fields {
		if f.path == "patientName" && f.value == "Grace" {
			found = true
		}
	}
	if !found {
		t.Fatalf("fields = %v, want patientName Grace", h.model.detail.fields)
	}

	h.key(t, "esc")
	if h.model.mode != modeList || h.model.detail != nil {
		t.Fatalf("esc did not return to the list")
	}
}

func TestEditGatedScreenWithoutPermission(t *testing.T) {
	h := newHarness(t, testsLink(false))
	h.settle(t, h.model.list.sub)

	h.key(t, "enter")
	if h.model.mode != modeList {
		t.Fatalf("detail opened without edit permission")
	}
	if cmd := h.key(t, "x"); cmd != nil {
		t.Fatalf("export started without edit permission")
	}
	if !h.model.flashErr {
		t.Fatalf("expected a permission message")
	}
}

func TestExportUsesExportLayout(t *testing.T) {
	h := newHarness(t, testsLink(true))
	h.settle(t, h.model.list.sub)

	cmd := h.key(t, "x")
	if cmd == nil {
		t.Fatalf("export command not returned")
	}
	h.update(t, cmd())

	if h.exporter.meta.Filename != "Patient Test" {
		t.Fatalf("filename = %q, want Patient Test", h.exporter.meta.Filename)
	}
	if len(h.exporter.headers) != 10 || len(h.exporter.rows) != 2 {
		t.Fatalf("exported %d headers and %d rows, want 10 and 2", len(h.exporter.headers), len(h.exporter.rows))
	}
	if !strings.Contains(h.model.flash, "Patient Test.xlsx") {
		t.Fatalf("flash = %q, want export path", h.model.flash)
	}
}

func TestSearchAppliesLatestQueryOnly(t *testing.T) {
	h := newHarness(t, testsLink(true))
	h.settle(t, h.model.list.sub)

	h.key(t, "/")
	if !h.model.searching {
		t.Fatalf("search not focused")
	}
	h.key(t, "g")
	stale := h.model.debouncer.Bump() - 1
	h.update(t, searchMsg{screen: h.model.list, token: stale, query: "Ada"})
	if h.model.list.view.Filter() != "" {
		t.Fatalf("stale search applied")
	}
	current := h.model.debouncer.Bump()
	h.update(t, searchMsg{screen: h.model.list, token: current, query: "grace"})
	if got := h.model.list.view.Len(); got != 1 {
		t.Fatalf("filtered rows = %d, want 1", got)
	}
}

// pendingSearch runs the commands returned for a search keystroke and
// returns the debounced search they schedule.
func pendingSearch(t *testing.T, cmd tea.Cmd) searchMsg {
	t.Helper()
	if cmd == nil {
		t.Fatalf("no command for search keystroke")
	}
	var cmds []tea.Cmd
	switch msg := cmd().(type) {
	case searchMsg:
		return msg
	case tea.BatchMsg:
		cmds = msg
	}
	found := make(chan searchMsg, len(cmds))
	for _, c := range cmds {
		if c == nil {
			continue
		}
		go func(c tea.Cmd) {
			if msg, ok := c().(searchMsg); ok {
				found <- msg
			}
		}(c)
	}
	select {
	case msg := <-found:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("search keystroke scheduled no debounced search")
	}
	return searchMsg{}
}

func TestPendingSearchDroppedOnScreenSwitch(t *testing.T) {
	h := newHarness(t, testsLink(true), systemsLink())
	h.settle(t, h.model.list.sub)

	h.key(t, "/")
	tick := pendingSearch(t, h.key(t, "A"))
	h.key(t, "enter")
	h.key(t, "tab")
	if name := h.model.list.info().Name; name != "systems" {
		t.Fatalf("screen = %q, want systems", name)
	}

	h.update(t, tick)
	if got := h.model.list.view.Filter(); got != "" {
		t.Fatalf("filter = %q on new screen, want empty", got)
	}
	if got := h.model.search.Value(); got != "" {
		t.Fatalf("search box = %q, want empty", got)
	}
}

func TestPendingSearchDroppedAfterClear(t *testing.T) {
	h := newHarness(t, testsLink(true))
	h.settle(t, h.model.list.sub)
	total := h.model.list.view.Total()

	h.key(t, "/")
	h.update(t, pendingSearch(t, h.key(t, "g")))
	if got := h.model.list.view.Filter(); got != "g" {
		t.Fatalf("filter = %q, want g", got)
	}
	tick := pendingSearch(t, h.key(t, "r"))
	h.key(t, "enter")
	h.key(t, "esc")
	if got := h.model.list.view.Filter(); got != "" {
		t.Fatalf("filter = %q after esc, want empty", got)
	}

	h.update(t, tick)
	if got := h.model.list.view.Filter(); got != "" {
		t.Fatalf("filter = %q after pending search, want empty", got)
	}
	if got := h.model.list.view.Len(); got != total {
		t.Fatalf("rows = %d, want %d", got, total)
	}
}

func TestBulkNoticeStatus(t *testing.T) {
	h := newHarness(t, systemsLink())
	def, ok := h.model.catalog.Lookup("notices")
	if !ok {
		t.Fatalf("notices screen missing")
	}
	h.model.push(def, pages.Params{ID: "dev-1"}, h.model.list)
	if !strings.Contains(h.model.list.key.Endpoint(), "isRead=false") {
		t.Fatalf("key %s does not use the unread filter", h.model.list.key)
	}
	h.settle(t, h.model.list.sub)

	if cmd := h.key(t, "r"); cmd != nil {
		t.Fatalf("marking with no selection should not write")
	}
	h.key(t, "a")
	if h.model.list.view.SelectedCount() != 2 {
		t.Fatalf("select all picked %d rows", h.model.list.view.SelectedCount())
	}
	cmd := h.key(t, "r")
	if cmd == nil {
		t.Fatalf("mark read returned no command")
	}
	h.update(t, cmd())

	if len(h.writer.ids) != 2 || !h.writer.read {
		t.Fatalf("writer got ids=%v read=%v", h.writer.ids, h.writer.read)
	}
	if h.model.list.view.SelectedCount() != 0 {
		t.Fatalf("selection not cleared after update")
	}

	h.key(t, "esc")
	if h.model.list.info().Name != "systems" {
		t.Fatalf("esc did not return to systems")
	}
}

func TestRevokedAccountSignsOut(t *testing.T) {
	h := newHarness(t, testsLink(true))
	err := &auth.IdentityProviderError{Op: "token", Code: "access_denied", Description: "Unauthorized"}
	cmd := h.update(t, loginDoneMsg{err: err})
	if !h.model.login.revoked || cmd == nil {
		t.Fatalf("revoked login not scheduled for sign out")
	}

	h.update(t, logoutMsg{})
	if h.model.mode != modeLogin {
		t.Fatalf("mode = %v, want login", h.model.mode)
	}
	if h.model.provider.Ready() {
		t.Fatalf("provider still signed in")
	}
	if len(h.model.nav.Links()) != 0 {
		t.Fatalf("navigation not cleared")
	}
}

func TestIdleTimeoutSignsOut(t *testing.T) {
	h := newHarness(t, testsLink(true))
	h.model.settings.Update(func(s state.Settings) state.Settings {
		s.LoginTimeout = "5"
		return s
	})
	h.model.lastInput = h.model.now().Add(-10 * time.Minute)
	h.update(t, idleTickMsg{})
	if h.model.mode != modeLogin {
		t.Fatalf("idle session not signed out")
	}
}

func TestBreakpointSwapsColumns(t *testing.T) {
	h := newHarness(t, testsLink(true))
	wide := len(h.model.list.view.Headers())
	h.update(t, tea.WindowSizeMsg{Width: 70, Height: 30})
	narrow := len(h.model.list.view.Headers())
	if narrow >= wide {
		t.Fatalf("narrow terminal shows %d columns, wide %d", narrow, wide)
	}
}

func menuNames(defs []pages.Definition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Info().Name
	}
	return out
}
