package grid

// ToggleSort cycles a column through ascending, descending and unsorted. A
// different column starts at ascending and replaces the previous sort.
// Columns with DisableSortBy, or unknown ids, are ignored and false is
// returned.
func (g *Grid[R]) ToggleSort(columnID string) bool {
	i := g.columnIndex(columnID)
	if i < 0 || g.columns[i].DisableSortBy {
		return false
	}
	switch {
	case g.sort.ColumnID != columnID:
		g.sort = SortBy{ColumnID: columnID}
	case !g.sort.Desc:
		g.sort.Desc = true
	default:
		g.sort = SortBy{}
	}
	g.recompute()
	return true
}

// SetSort applies s directly. An unknown or unsortable column clears the sort.
func (g *Grid[R]) SetSort(s SortBy) {
	if i := g.columnIndex(s.ColumnID); i < 0 || g.columns[i].DisableSortBy {
		s = SortBy{}
	}
	g.sort = s
	g.recompute()
}

// Sort returns the active sort.
func (g *Grid[R]) Sort() SortBy { return g.sort }
