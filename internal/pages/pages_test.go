package pages_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/dxportal/internal/datacache"
	"github.com/five82/dxportal/internal/dxapi"
	"github.com/five82/dxportal/internal/grid"
	"github.com/five82/dxportal/internal/pages"
	"github.com/five82/dxportal/internal/state"
)

func utcFormatter(t *testing.T) *state.Formatter {
	t.Helper()
	f, err := state.NewFormatter(state.Settings{DateFormat: "YYYY-MM-DD", TimeFormat: "24 hour", TimeZone: "UTC"})
	require.NoError(t, err)
	return f
}

func week() state.DateRange {
	end := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	return state.LastDays(end, 7)
}

const patientTests = `[
	{"patientTestID":"p1","patientName":"Zed","facilityPatientKey":"F1_100","testType":"TBI","testTypeDisplayText":"TBI","cartridgeID":"C-1","outcome":"positive","facilityName":"North","deviceUserKey":"u1","analysisStartTime":"2024-03-10T10:00:00Z"},
	{"patientTestID":"p2","patientName":"Amy","facilityPatientKey":"F1_200","testType":"TBI","testTypeDisplayText":"TBI","cartridgeID":"C-2","outcome":"negative","facilityName":"South","deviceUserKey":"u2","patientScanTime":"2024-03-12T08:30:00Z","analysisStartTime":"2024-03-01T00:00:00Z"},
	{"patientTestID":"p3","patientName":"Bob","facilityPatientKey":"F2_300","testType":"COVID","testTypeDisplayText":"COVID-19","cartridgeID":"C-3","outcome":"Negative","facilityName":"North","deviceUserKey":"u3","analysisStartTime":"2024-03-11T09:00:00Z"}
]`

func openLoaded(t *testing.T, def pages.Definition, bp grid.Breakpoint, raw string) pages.View {
	t.Helper()
	v, err := def.Open(bp)
	require.NoError(t, err)
	assert.False(t, v.Loaded())
	require.NoError(t, v.Load(json.RawMessage(raw)))
	assert.True(t, v.Loaded())
	return v
}

func TestTests_ColumnsSortAndDetail(t *testing.T) {
	def := pages.Tests(utcFormatter(t))

	key := def.Key(pages.Params{Range: week()})
	assert.Equal(t, "PatientTest?startDate=20240308&endDate=20240315", key.Endpoint())

	v := openLoaded(t, def, grid.SM, patientTests)
	var labels []string
	for _, h := range v.Headers() {
		labels = append(labels, h.Label)
	}
	assert.Equal(t, []string{"Date & Time", "Patient Info", "Test Info", ""}, labels)
	assert.True(t, v.Headers()[3].Actions)

	// Newest first, using the patient scan time when present.
	require.Equal(t, 3, v.Len())
	assert.Equal(t, "2024-03-12 08:30:00", v.Cell(0, 0))
	assert.Equal(t, "Amy / 200", v.Cell(0, 1))
	id, ok := v.RowDetailID(0)
	assert.True(t, ok)
	assert.Equal(t, "p2", id)

	require.NoError(t, v.SetBreakpoint(grid.LG))
	assert.Len(t, v.Headers(), 8)
	assert.Equal(t, "CT Scan", v.Cell(2, 3))
	assert.Equal(t, grid.SortBy{ColumnID: "analysisStartTime", Desc: true}, v.Sort())

	info := v.Info()
	assert.True(t, info.EditGated)
	assert.Equal(t, state.ControlTests, info.Control)
}

func TestTests_FilterSkipsRowActions(t *testing.T) {
	v := openLoaded(t, pages.Tests(utcFormatter(t)), grid.LG, patientTests)

	v.SetFilter("p2")
	assert.Equal(t, 0, v.Len())

	v.SetFilter("covid")
	require.Equal(t, 1, v.Len())
	id, _ := v.RowDetailID(0)
	assert.Equal(t, "p3", id)

	v.SetFilter("")
	assert.Equal(t, 3, v.Len())
}

func TestTests_Export(t *testing.T) {
	v := openLoaded(t, pages.Tests(utcFormatter(t)), grid.SM, patientTests)
	require.True(t, v.CanExport())

	table, err := v.ExportTable()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Date & Time", "Patient Name", "Patient ID", "Test Type", "Cartridge ID",
		"Test Results", "Handheld Serial Number", "Analyzer Serial Number", "Location", "User",
	}, table.Headers)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []any{"2024-03-12 08:30:00", "Amy", "200", "TBI", "C-2", "No CT Scan", "", "", "South", "u2"}, table.Rows[0])

	meta := v.Meta(pages.Params{})
	assert.Equal(t, "Patient Test", meta.Filename)
	assert.Equal(t, "patienttest", meta.Sheetname)
}

func TestNotices_BulkSelection(t *testing.T) {
	def := pages.Notices(utcFormatter(t))

	assert.True(t, def.Key(pages.Params{Range: week()}).IsNull(), "notices need a device id")

	key := def.Key(pages.Params{Range: week(), ID: "d-9", Notices: dxapi.NoticesUnread})
	assert.Equal(t, "notice/device/d-9?startdate=20240308&enddate=20240315&isRead=false", key.Endpoint())

	raw := `[
		{"noticeID":"n1","createdTime":"2024-03-10T00:00:00Z","message":"Low battery","isRead":false},
		{"noticeID":"n2","createdTime":"2024-03-11T00:00:00Z","message":"Update ready","isRead":true}
	]`
	v := openLoaded(t, def, grid.MD, raw)
	assert.True(t, v.Info().BulkNotices)
	assert.False(t, v.CanExport())

	_, ok := v.RowDetailID(0)
	assert.False(t, ok)

	assert.Equal(t, grid.Unchecked, v.HeaderCheck())
	v.ToggleRow(0)
	assert.Equal(t, grid.Indeterminate, v.HeaderCheck())
	v.ToggleAll()
	assert.Equal(t, grid.Checked, v.HeaderCheck())
	assert.Equal(t, []string{"n1", "n2"}, v.SelectedKeys())

	v.ClearSelection()
	assert.Equal(t, 0, v.SelectedCount())
}

func TestAuditTrail_MapRows(t *testing.T) {
	def := pages.AuditTrail(utcFormatter(t))
	raw := `[
		{"activityTime":"2024-03-10T12:00:00Z","messageType":"Login","description":"Signed in"},
		{"activityTime":"2024-03-11T12:00:00Z","messageType":"Export","description":"Exported tests"}
	]`
	v := openLoaded(t, def, grid.XL, raw)

	require.Equal(t, 2, v.Len())
	assert.Equal(t, "Export", v.Cell(0, 1))

	assert.True(t, v.ToggleSort(1))
	assert.Equal(t, "Export", v.Cell(0, 1))
	assert.Equal(t, "Login", v.Cell(1, 1))

	meta := v.Meta(pages.Params{Name: "Ada Lovelace"})
	assert.Equal(t, "audittrail - Ada Lovelace", meta.Filename)

	table, err := v.ExportTable()
	require.NoError(t, err)
	assert.Equal(t, []string{"Time", "Tag", "Info"}, table.Headers)
}

func TestReports(t *testing.T) {
	f := utcFormatter(t)

	locations := openLoaded(t, pages.LocationsSummary(), grid.LG, `[
		{"facilityName":"West","testCount":4,"passedQCTestCount":2,"failedQCTestCount":1},
		{"facilityName":"East","testCount":9}
	]`)
	assert.Equal(t, "East", locations.Cell(0, 0))
	assert.Equal(t, "3", locations.Cell(1, 5))

	tests := openLoaded(t, pages.TestsSummary(f), grid.XXL, `[
		{"patientQCTest":"Patient","testTypeDisplayText":"TBI","analytes":{"GFAP":12,"UCH-L1":30},"patientScanTime":"2024-03-10T00:00:00Z"}
	]`)
	assert.Equal(t, "-", tests.Cell(0, 2))
	assert.Equal(t, "GFAP: 12, UCH-L1: 30", tests.Cell(0, 3))

	users := openLoaded(t, pages.UsersSummary(), grid.Mobile, `null`)
	assert.Equal(t, 0, users.Len())
	assert.Equal(t, "userreports", users.Meta(pages.Params{}).Filename)
}

func TestLoadRejectsMalformedRows(t *testing.T) {
	v, err := pages.Locations().Open(grid.LG)
	require.NoError(t, err)
	assert.Error(t, v.Load(json.RawMessage(`{"not":"a list"}`)))
	assert.False(t, v.Loaded())
}

func TestKeysNullOnInvalidRange(t *testing.T) {
	r := week()
	r.Start, r.End = r.End, r.Start
	assert.Equal(t, datacache.NullKey, pages.QC(utcFormatter(t)).Key(pages.Params{Range: r}))
	assert.Equal(t, "facility", pages.Locations().Key(pages.Params{Range: r}).Endpoint())
}

func TestCatalog(t *testing.T) {
	c := pages.NewCatalog(nil)

	nav := state.NewNavigation()
	nav.SetLinks([]state.Link{
		{Name: "Reports", SortOrder: "3", ControlName: state.ControlReports},
		{Name: "Systems", SortOrder: "2", ControlName: state.ControlSystems},
		{Name: "Tests", SortOrder: "1", ControlName: state.ControlTests},
	})

	var names []string
	for _, d := range c.Menu(nav) {
		names = append(names, d.Info().Name)
	}
	assert.Equal(t, []string{"tests", "systems", "tests-summary", "locations-summary", "systems-summary", "users-summary"}, names)

	children := c.Children("users")
	require.Len(t, children, 1)
	assert.Equal(t, "audit-trail", children[0].Info().Name)

	_, ok := c.Lookup("nope")
	assert.False(t, ok)
}
