// Package grid is an in-memory table engine: fuzzy filtering over display
// text, stable tri-state column sort, keyed row selection, row windowing,
// breakpoint column sets and spreadsheet flattening. It knows nothing about
// rendering.
package grid
