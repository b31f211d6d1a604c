package grid

// HeaderState is the tri-state select-all checkbox.
type HeaderState int

const (
	Unchecked HeaderState = iota
	Indeterminate
	Checked
)

func (s HeaderState) String() string {
	switch s {
	case Checked:
		return "checked"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unchecked"
	}
}

// ToggleRow flips selection of the row at pos in the current view.
func (g *Grid[R]) ToggleRow(pos int) {
	if pos < 0 || pos >= len(g.view) {
		return
	}
	g.ToggleKey(g.keys[g.view[pos]])
}

// ToggleKey flips selection of the row with key.
func (g *Grid[R]) ToggleKey(key string) {
	if _, ok := g.selected[key]; ok {
		delete(g.selected, key)
		return
	}
	for _, k := range g.keys {
		if k == key {
			g.selected[key] = struct{}{}
			return
		}
	}
}

// IsSelected reports whether the row at pos is selected.
func (g *Grid[R]) IsSelected(pos int) bool {
	if pos < 0 || pos >= len(g.view) {
		return false
	}
	_, ok := g.selected[g.keys[g.view[pos]]]
	return ok
}

// HeaderCheck summarizes selection over the visible rows.
func (g *Grid[R]) HeaderCheck() HeaderState {
	n := 0
	for _, idx := range g.view {
		if _, ok := g.selected[g.keys[idx]]; ok {
			n++
		}
	}
	switch {
	case n == 0:
		return Unchecked
	case n == len(g.view):
		return Checked
	default:
		return Indeterminate
	}
}

// ToggleAll selects every visible row, or clears them when all are already
// selected.
func (g *Grid[R]) ToggleAll() {
	if g.HeaderCheck() == Checked {
		for _, idx := range g.view {
			delete(g.selected, g.keys[idx])
		}
		return
	}
	for _, idx := range g.view {
		g.selected[g.keys[idx]] = struct{}{}
	}
}

// ClearSelection deselects everything.
func (g *Grid[R]) ClearSelection() {
	clear(g.selected)
}

// SelectedCount is the number of selected rows, visible or not.
func (g *Grid[R]) SelectedCount() int { return len(g.selected) }

// Selected returns the selected records in data order.
func (g *Grid[R]) Selected() []R {
	out := make([]R, 0, len(g.selected))
	for i, key := range g.keys {
		if _, ok := g.selected[key]; ok {
			out = append(out, g.rows[i])
		}
	}
	return out
}
