package grid

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// SetFilter applies the global search. An empty or blank query removes the
// filter entirely.
func (g *Grid[R]) SetFilter(query string) {
	g.query = strings.TrimSpace(query)
	g.recompute()
}

// Filter returns the active query.
func (g *Grid[R]) Filter() string { return g.query }

// cellSource exposes every searchable cell to the fuzzy matcher.
type cellSource struct {
	cells []string
	rows  []int
}

func (s cellSource) String(i int) string { return s.cells[i] }
func (s cellSource) Len() int            { return len(s.cells) }

// filterIndexes keeps rows where any searchable column matches the query as
// a case-insensitive subsequence. Each cell is matched on its own so a match
// never spans two columns.
func (g *Grid[R]) filterIndexes() []int {
	if g.query == "" {
		return g.allIndexes()
	}
	searchable := make([]int, 0, len(g.columns))
	for j, col := range g.columns {
		if col.key == RowActionsColumnID {
			continue
		}
		searchable = append(searchable, j)
	}

	src := cellSource{
		cells: make([]string, 0, len(g.rows)*len(searchable)),
		rows:  make([]int, 0, len(g.rows)*len(searchable)),
	}
	for i := range g.rows {
		for _, j := range searchable {
			text := g.texts[i][j]
			if text == "" {
				continue
			}
			src.cells = append(src.cells, strings.ToLower(text))
			src.rows = append(src.rows, i)
		}
	}

	hit := make([]bool, len(g.rows))
	for _, m := range fuzzy.FindFrom(strings.ToLower(g.query), src) {
		hit[src.rows[m.Index]] = true
	}
	out := make([]int, 0, len(g.rows))
	for i, ok := range hit {
		if ok {
			out = append(out, i)
		}
	}
	return out
}
