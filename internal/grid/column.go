package grid

import (
	"errors"
	"fmt"
)

// RowActionsColumnID is the synthetic trailing column holding a row's detail
// id. It is never searched or exported.
const RowActionsColumnID = "More"

// Column describes one grid column.
type Column[R any] struct {
	ID       string
	Header   string
	Accessor Accessor[R]
	// Width is in terminal cells. Zero lets the renderer share the remaining
	// width.
	Width int
	// Cell renders the value for display. Nil renders Value.Text.
	Cell          func(row R, v Value) string
	DisableSortBy bool
}

// Key returns the column id, falling back to the accessor path.
func (c Column[R]) Key() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Accessor.path
}

// IsRowActions reports the synthetic row-actions column.
func (c Column[R]) IsRowActions() bool {
	return c.Key() == RowActionsColumnID
}

type resolvedColumn[R any] struct {
	Column[R]
	key   string
	value func(R) Value
}

func (c resolvedColumn[R]) display(row R, v Value) string {
	if c.Cell != nil {
		return c.Cell(row, v)
	}
	return v.Text()
}

func resolveColumns[R any](cols []Column[R]) ([]resolvedColumn[R], error) {
	out := make([]resolvedColumn[R], 0, len(cols))
	seen := make(map[string]struct{}, len(cols))
	for i, col := range cols {
		key := col.Key()
		if key == "" {
			return nil, fmt.Errorf("column %d: %w", i, errors.New("id or accessor path required"))
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("column %q: duplicate id", key)
		}
		seen[key] = struct{}{}
		fn, err := col.Accessor.resolve()
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", key, err)
		}
		out = append(out, resolvedColumn[R]{Column: col, key: key, value: fn})
	}
	return out, nil
}
