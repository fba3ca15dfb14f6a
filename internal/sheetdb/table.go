package sheetdb

// Table is one sheet: an append-only ordered column registry plus rows.
// It is not safe for concurrent use on its own; Store holds the lock.
type Table struct {
	headers []string
	index   map[string]int
	rows    [][]string
}

// NewTable creates an empty sheet.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// ensureColumn registers a header if unseen and returns its position.
// Columns are appended in first-seen order and never removed.
func (t *Table) ensureColumn(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	t.headers = append(t.headers, name)
	t.index[name] = len(t.headers) - 1
	// Existing rows gain an empty cell for the new column.
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], "")
	}
	return len(t.headers) - 1
}

// Append unions the record's field names into the header registry and writes
// a new row. Iteration order of the incoming map does not matter for header
// order stability across records, only first appearance does.
func (t *Table) Append(rec Record, fieldOrder []string) {
	for _, name := range fieldOrder {
		t.ensureColumn(name)
	}
	row := make([]string, len(t.headers))
	for name, val := range rec {
		row[t.ensureColumn(name)] = cellString(val)
	}
	// ensureColumn above may have grown headers past the row we allocated.
	for len(row) < len(t.headers) {
		row = append(row, "")
	}
	t.rows = append(t.rows, row)
}

// Headers returns a copy of the column registry in first-seen order.
func (t *Table) Headers() []string {
	out := make([]string, len(t.headers))
	copy(out, t.headers)
	return out
}

// Records returns every row as an object keyed by the header registry, with
// missing cells rendered as empty string.
func (t *Table) Records() []Record {
	out := make([]Record, 0, len(t.rows))
	for _, row := range t.rows {
		rec := make(Record, len(t.headers))
		for i, h := range t.headers {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

// findRow locates a row by the value of the 'id' column. Returns -1 when the
// column or the row is absent. Uniqueness is advisory; the first match wins.
func (t *Table) findRow(id string) int {
	col, ok := t.index["id"]
	if !ok {
		return -1
	}
	for i, row := range t.rows {
		if col < len(row) && row[col] == id {
			return i
		}
	}
	return -1
}

// update overwrites the given fields of row i, extending the registry for
// previously-unseen field names.
func (t *Table) update(i int, rec Record, fieldOrder []string) {
	for _, name := range fieldOrder {
		t.ensureColumn(name)
	}
	row := t.rows[i]
	for len(row) < len(t.headers) {
		row = append(row, "")
	}
	for name, val := range rec {
		row[t.ensureColumn(name)] = cellString(val)
	}
	t.rows[i] = row
}

// deleteRow removes row i.
func (t *Table) deleteRow(i int) {
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
}

// snapshot returns a deep copy for background persistence.
func (t *Table) snapshot() tableSnapshot {
	s := tableSnapshot{Headers: make([]string, len(t.headers)), Rows: make([][]string, len(t.rows))}
	copy(s.Headers, t.headers)
	for i, row := range t.rows {
		r := make([]string, len(row))
		copy(r, row)
		s.Rows[i] = r
	}
	return s
}

// fromSnapshot rebuilds a table from persisted state.
func fromSnapshot(s tableSnapshot) *Table {
	t := NewTable()
	for _, h := range s.Headers {
		t.ensureColumn(h)
	}
	for _, row := range s.Rows {
		r := make([]string, len(t.headers))
		copy(r, row)
		t.rows = append(t.rows, r)
	}
	return t
}
