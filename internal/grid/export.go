package grid

// Table is a grid flattened for a spreadsheet.
type Table struct {
	Headers []string
	Rows    [][]any
}

// ExportTable evaluates columns over rows, skipping the row-actions column.
// Cells hold float64, string or "" for empty values.
func ExportTable[R any](columns []Column[R], rows []R) (Table, error) {
	kept := make([]Column[R], 0, len(columns))
	for _, c := range columns {
		if c.IsRowActions() {
			continue
		}
		kept = append(kept, c)
	}
	resolved, err := resolveColumns(kept)
	if err != nil {
		return Table{}, err
	}

	t := Table{
		Headers: make([]string, len(resolved)),
		Rows:    make([][]any, len(rows)),
	}
	for i, c := range resolved {
		t.Headers[i] = c.Header
	}
	for i, row := range rows {
		cells := make([]any, len(resolved))
		for j, c := range resolved {
			v := c.value(row)
			switch {
			case c.Cell != nil:
				cells[j] = c.Cell(row, v)
			case v.IsEmpty():
				cells[j] = ""
			default:
				cells[j] = v.Raw()
			}
		}
		t.Rows[i] = cells
	}
	return t, nil
}
