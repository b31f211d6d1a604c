package pages

import (
	"encoding/json"
	"fmt"

	"github.com/five82/dxportal/internal/datacache"
	"github.com/five82/dxportal/internal/dxapi"
	"github.com/five82/dxportal/internal/export"
	"github.com/five82/dxportal/internal/grid"
	"github.com/five82/dxportal/internal/state"
)

// Params carry everything a key builder may depend on.
type Params struct {
	Range   state.DateRange
	ID      string
	Name    string
	Notices dxapi.NoticeFilter
}

// Info describes a screen independent of its row type.
type Info struct {
	Name        string
	Title       string
	Control     string
	Placeholder string
	// Parent is the screen a child list is opened from, for example the
	// systems list for a device's notices.
	Parent string
	// DetailResource is the API resource behind row navigation.
	DetailResource string
	NeedsID        bool
	DateRange      bool
	BulkNotices    bool
	// EditGated screens allow row navigation and export only with the edit
	// permission.
	EditGated bool
}

// Header is a column as the renderer needs it.
type Header struct {
	ID       string
	Label    string
	Width    int
	Sortable bool
	Actions  bool
}

// Definition is a screen that can build its cache key and open a table.
type Definition interface {
	Info() Info
	Key(Params) datacache.Key
	Open(bp grid.Breakpoint) (View, error)
}

// View is an open table, driven by the UI from a single goroutine.
type View interface {
	Info() Info
	Load(raw json.RawMessage) error
	Loaded() bool
	SetBreakpoint(bp grid.Breakpoint) error
	Headers() []Header
	SetFilter(query string)
	Filter() string
	ToggleSort(col int) bool
	Sort() grid.SortBy
	Len() int
	Total() int
	Window(offset, height int) (start, end int)
	Cell(pos, col int) string
	ToggleRow(pos int)
	ToggleAll()
	IsSelected(pos int) bool
	HeaderCheck() grid.HeaderState
	SelectedCount() int
	SelectedKeys() []string
	ClearSelection()
	RowDetailID(pos int) (string, bool)
	CanExport() bool
	ExportTable() (grid.Table, error)
	Meta(p Params) export.Meta
}

// Page defines one screen over rows of type R.
type Page[R any] struct {
	info        Info
	key         func(Params) datacache.Key
	decode      func(json.RawMessage) ([]R, error)
	columns     grid.ColumnSets[R]
	initialSort grid.SortBy
	rowKey      func(R) string
	exports     []grid.Column[R]
	meta        func(Params) export.Meta
}

func (p Page[R]) Info() Info { return p.info }

// Key builds the cache key. A screen that needs a route id returns the
// null key until it has one, and so does an inverted date range.
func (p Page[R]) Key(params Params) datacache.Key {
	if p.info.NeedsID && params.ID == "" {
		return datacache.NullKey
	}
	if p.info.DateRange && !params.Range.Valid() {
		return datacache.NullKey
	}
	return p.key(params)
}

// Open returns an empty table showing the column set for bp.
func (p Page[R]) Open(bp grid.Breakpoint) (View, error) {
	g, err := grid.New(p.columns.For(bp), grid.Options[R]{
		InitialSort: p.initialSort,
		RowKey:      p.rowKey,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p.info.Name, err)
	}
	return &Table[R]{page: p, grid: g}, nil
}

func decodeRows[R any](raw json.RawMessage) ([]R, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var rows []R
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}

// Table is a Page bound to a grid.
type Table[R any] struct {
	page   Page[R]
	grid   *grid.Grid[R]
	loaded bool
}

func (t *Table[R]) Info() Info { return t.page.info }

// Load replaces the rows with a decoded response. Selection survives for
// rows that are still present.
func (t *Table[R]) Load(raw json.RawMessage) error {
	decode := t.page.decode
	if decode == nil {
		decode = decodeRows[R]
	}
	rows, err := decode(raw)
	if err != nil {
		return err
	}
	t.grid.SetRows(rows)
	t.loaded = true
	return nil
}

func (t *Table[R]) Loaded() bool { return t.loaded }

func (t *Table[R]) SetBreakpoint(bp grid.Breakpoint) error {
	return t.grid.SetColumns(t.page.columns.For(bp))
}

func (t *Table[R]) Headers() []Header {
	cols := t.grid.Columns()
	out := make([]Header, len(cols))
	for i, c := range cols {
		out[i] = Header{
			ID:       c.Key(),
			Label:    c.Header,
			Width:    c.Width,
			Sortable: !c.DisableSortBy,
			Actions:  c.IsRowActions(),
		}
	}
	return out
}

func (t *Table[R]) SetFilter(query string) { t.grid.SetFilter(query) }
func (t *Table[R]) Filter() string         { return t.grid.Filter() }

// ToggleSort cycles the sort of the column at index col.
func (t *Table[R]) ToggleSort(col int) bool {
	cols := t.grid.Columns()
	if col < 0 || col >= len(cols) {
		return false
	}
	return t.grid.ToggleSort(cols[col].Key())
}

func (t *Table[R]) Sort() grid.SortBy                    { return t.grid.Sort() }
func (t *Table[R]) Len() int                             { return t.grid.Len() }
func (t *Table[R]) Total() int                           { return t.grid.Total() }
func (t *Table[R]) Window(offset, height int) (int, int) { return t.grid.Window(offset, height) }
func (t *Table[R]) Cell(pos, col int) string             { return t.grid.Cell(pos, col) }
func (t *Table[R]) ToggleRow(pos int)                    { t.grid.ToggleRow(pos) }
func (t *Table[R]) ToggleAll()                           { t.grid.ToggleAll() }
func (t *Table[R]) IsSelected(pos int) bool              { return t.grid.IsSelected(pos) }
func (t *Table[R]) HeaderCheck() grid.HeaderState        { return t.grid.HeaderCheck() }
func (t *Table[R]) SelectedCount() int                   { return t.grid.SelectedCount() }
func (t *Table[R]) ClearSelection()                      { t.grid.ClearSelection() }

// SelectedKeys returns the row keys of the selected records in data order.
func (t *Table[R]) SelectedKeys() []string {
	if t.page.rowKey == nil {
		return nil
	}
	rows := t.grid.Selected()
	keys := make([]string, 0, len(rows))
	for _, r := range rows {
		keys = append(keys, t.page.rowKey(r))
	}
	return keys
}

func (t *Table[R]) RowDetailID(pos int) (string, bool) {
	if t.page.info.DetailResource == "" {
		return "", false
	}
	return t.grid.RowDetailID(pos)
}

func (t *Table[R]) CanExport() bool { return t.page.meta != nil }

// ExportTable flattens the filtered, sorted rows with the export layout, or
// the widest column set when the screen has none.
func (t *Table[R]) ExportTable() (grid.Table, error) {
	var (
		out grid.Table
		err error
	)
	t.grid.Export(func(rows []R, _ []grid.Column[R]) {
		cols := t.page.exports
		if cols == nil {
			cols = t.page.columns.For(grid.XXL)
		}
		out, err = grid.ExportTable(cols, rows)
	})
	return out, err
}

func (t *Table[R]) Meta(p Params) export.Meta {
	if t.page.meta == nil {
		return export.Meta{}
	}
	return t.page.meta(p)
}

func staticMeta(filename, header, sheet string) func(Params) export.Meta {
	return func(Params) export.Meta {
		return export.Meta{Filename: filename, Header: header, Sheetname: sheet}
	}
}
