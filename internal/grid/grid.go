package grid

import (
	"slices"
	"strconv"
)

// SortBy names the sorted column. An empty ColumnID means unsorted.
type SortBy struct {
	ColumnID string
	Desc     bool
}

// Options configure a Grid.
type Options[R any] struct {
	InitialSort SortBy
	// RowKey returns a stable identity for selection. Nil keys rows by their
	// position in the slice passed to SetRows, and so does an empty or
	// repeated key for that row.
	RowKey func(R) string
	// DetailColumnID names the column whose value is the row's detail id.
	// Defaults to RowActionsColumnID.
	DetailColumnID string
}

// Grid is a tabular engine over an in-memory row set: global fuzzy filter,
// single-column tri-state sort, keyed selection and row windowing. Filtering
// and sorting always consider every row. A Grid is not safe for concurrent
// use; the owning view drives it from one goroutine.
type Grid[R any] struct {
	opts    Options[R]
	columns []resolvedColumn[R]

	rows   []R
	keys   []string
	values [][]Value
	texts  [][]string

	query    string
	sort     SortBy
	selected map[string]struct{}

	// view holds indexes into rows, filtered then sorted.
	view []int
}

// New builds a grid with columns. Accessors are resolved here.
func New[R any](columns []Column[R], opts Options[R]) (*Grid[R], error) {
	g := &Grid[R]{
		opts:     opts,
		sort:     opts.InitialSort,
		selected: make(map[string]struct{}),
	}
	if g.opts.DetailColumnID == "" {
		g.opts.DetailColumnID = RowActionsColumnID
	}
	if err := g.SetColumns(columns); err != nil {
		return nil, err
	}
	return g, nil
}

// SetColumns swaps the active column set, for example on a breakpoint change.
// Filter, sort and selection survive; a sort on a column that disappeared is
// dropped.
func (g *Grid[R]) SetColumns(columns []Column[R]) error {
	resolved, err := resolveColumns(columns)
	if err != nil {
		return err
	}
	g.columns = resolved
	if g.sort.ColumnID != "" {
		if i := g.columnIndex(g.sort.ColumnID); i < 0 || g.columns[i].DisableSortBy {
			g.sort = SortBy{}
		}
	}
	g.materialize()
	g.recompute()
	return nil
}

// SetRows replaces the data. Selected keys that no longer exist are dropped.
func (g *Grid[R]) SetRows(rows []R) {
	g.rows = rows
	g.keys = make([]string, len(rows))
	present := make(map[string]struct{}, len(rows))
	for i, row := range rows {
		key := ""
		if g.opts.RowKey != nil {
			key = g.opts.RowKey(row)
		}
		if _, dup := present[key]; key == "" || dup {
			key = positionalKey(i)
		}
		g.keys[i] = key
		present[key] = struct{}{}
	}
	for key := range g.selected {
		if _, ok := present[key]; !ok {
			delete(g.selected, key)
		}
	}
	g.materialize()
	g.recompute()
}

// Columns returns the active column definitions.
func (g *Grid[R]) Columns() []Column[R] {
	out := make([]Column[R], len(g.columns))
	for i, c := range g.columns {
		out[i] = c.Column
	}
	return out
}

// Len is the number of rows after filtering.
func (g *Grid[R]) Len() int { return len(g.view) }

// Total is the number of rows before filtering.
func (g *Grid[R]) Total() int { return len(g.rows) }

// Rows returns the filtered and sorted rows.
func (g *Grid[R]) Rows() []R {
	out := make([]R, len(g.view))
	for i, idx := range g.view {
		out[i] = g.rows[idx]
	}
	return out
}

// Row returns the row at position pos of the filtered, sorted view.
func (g *Grid[R]) Row(pos int) (R, bool) {
	var zero R
	if pos < 0 || pos >= len(g.view) {
		return zero, false
	}
	return g.rows[g.view[pos]], true
}

// Key returns the row key at pos.
func (g *Grid[R]) Key(pos int) string {
	if pos < 0 || pos >= len(g.view) {
		return ""
	}
	return g.keys[g.view[pos]]
}

// Cell returns the display text of column col at pos.
func (g *Grid[R]) Cell(pos, col int) string {
	if pos < 0 || pos >= len(g.view) || col < 0 || col >= len(g.columns) {
		return ""
	}
	return g.texts[g.view[pos]][col]
}

// Value returns the accessor value of column col at pos.
func (g *Grid[R]) Value(pos, col int) Value {
	if pos < 0 || pos >= len(g.view) || col < 0 || col >= len(g.columns) {
		return Empty()
	}
	return g.values[g.view[pos]][col]
}

// RowDetailID returns the detail id of the row at pos, and false when the row
// has none. Row navigation fires only for a non-empty id.
func (g *Grid[R]) RowDetailID(pos int) (string, bool) {
	col := g.columnIndex(g.opts.DetailColumnID)
	if col < 0 {
		return "", false
	}
	id := g.Value(pos, col).Text()
	return id, id != ""
}

// Export hands the filtered, sorted rows and the active columns to fn.
func (g *Grid[R]) Export(fn func(rows []R, columns []Column[R])) {
	if fn == nil {
		return
	}
	fn(g.Rows(), g.Columns())
}

// positionalKey keys a row by its index. The prefix keeps it apart from
// record ids.
func positionalKey(i int) string {
	return "#" + strconv.Itoa(i)
}

func (g *Grid[R]) columnIndex(id string) int {
	for i, c := range g.columns {
		if c.key == id {
			return i
		}
	}
	return -1
}

// materialize evaluates every accessor once per row.
func (g *Grid[R]) materialize() {
	g.values = make([][]Value, len(g.rows))
	g.texts = make([][]string, len(g.rows))
	for i, row := range g.rows {
		vals := make([]Value, len(g.columns))
		texts := make([]string, len(g.columns))
		for j, col := range g.columns {
			vals[j] = col.value(row)
			texts[j] = col.display(row, vals[j])
		}
		g.values[i] = vals
		g.texts[i] = texts
	}
}

func (g *Grid[R]) recompute() {
	g.view = g.filterIndexes()
	g.sortView()
}

func (g *Grid[R]) allIndexes() []int {
	idx := make([]int, len(g.rows))
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func (g *Grid[R]) sortView() {
	col := g.columnIndex(g.sort.ColumnID)
	if col < 0 {
		return
	}
	desc := g.sort.Desc
	slices.SortStableFunc(g.view, func(a, b int) int {
		c := g.values[a][col].Compare(g.values[b][col])
		if desc {
			return -c
		}
		return c
	})
}
