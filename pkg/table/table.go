// Package table implements the small column-oriented table engine that backs
// the monitor package: Kind-tagged columns with per-cell validity, row and
// column selection, a per-cell map primitive, and a full outer join on a
// shared time axis.
package table

import (
	"fmt"
	"sort"
	"time"
)

// Kind identifies the storage type of a column.
type Kind int

const (
	KindFloat Kind = iota
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column is a single named column. Exactly one of the value slices is
// populated, according to Kind. Valid parallels Floats/Strings and marks
// null cells; time columns have no null representation.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
	Times   []time.Time
	Valid   []bool
}

// NewFloatColumn builds a float column. A nil valid slice means every cell
// is valid.
func NewFloatColumn(name string, vals []float64, valid []bool) *Column {
	if valid == nil {
		valid = make([]bool, len(vals))
		for i := range valid {
			valid[i] = true
		}
	}
	return &Column{Name: name, Kind: KindFloat, Floats: vals, Valid: valid}
}

// NewStringColumn builds a string column. A nil valid slice means every cell
// is valid.
func NewStringColumn(name string, vals []string, valid []bool) *Column {
	if valid == nil {
		valid = make([]bool, len(vals))
		for i := range valid {
			valid[i] = true
		}
	}
	return &Column{Name: name, Kind: KindString, Strings: vals, Valid: valid}
}

// NewTimeColumn builds a time column.
func NewTimeColumn(name string, vals []time.Time) *Column {
	return &Column{Name: name, Kind: KindTime, Times: vals}
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	switch c.Kind {
	case KindFloat:
		return len(c.Floats)
	case KindString:
		return len(c.Strings)
	default:
		return len(c.Times)
	}
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Floats != nil {
		out.Floats = append([]float64(nil), c.Floats...)
	}
	if c.Strings != nil {
		out.Strings = append([]string(nil), c.Strings...)
	}
	if c.Times != nil {
		out.Times = append([]time.Time(nil), c.Times...)
	}
	if c.Valid != nil {
		out.Valid = append([]bool(nil), c.Valid...)
	}
	return out
}

// Take returns a new column containing the cells at idx, in order. An index
// of -1 yields a null cell (zero time for time columns).
func (c *Column) Take(idx []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	switch c.Kind {
	case KindFloat:
		out.Floats = make([]float64, len(idx))
		out.Valid = make([]bool, len(idx))
		for i, j := range idx {
			if j >= 0 {
				out.Floats[i] = c.Floats[j]
				out.Valid[i] = c.Valid[j]
			}
		}
	case KindString:
		out.Strings = make([]string, len(idx))
		out.Valid = make([]bool, len(idx))
		for i, j := range idx {
			if j >= 0 {
				out.Strings[i] = c.Strings[j]
				out.Valid[i] = c.Valid[j]
			}
		}
	case KindTime:
		out.Times = make([]time.Time, len(idx))
		for i, j := range idx {
			if j >= 0 {
				out.Times[i] = c.Times[j]
			}
		}
	}
	return out
}

// Table is an ordered collection of equal-length named columns.
type Table struct {
	cols  []*Column
	index map[string]int
}

// New builds a table from columns, verifying unique names and equal lengths.
func New(cols ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols))}
	n := -1
	for _, c := range cols {
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("table: duplicate column name %q", c.Name)
		}
		if n == -1 {
			n = c.Len()
		} else if c.Len() != n {
			return nil, fmt.Errorf("table: column %q has %d rows, want %d", c.Name, c.Len(), n)
		}
		t.index[c.Name] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// NumRows returns the number of rows. An empty table has zero rows.
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return t.cols[0].Len()
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns the column names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Col returns the named column, or false if it does not exist.
func (t *Table) Col(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// HasCol reports whether the named column exists.
func (t *Table) HasCol(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Columns returns the columns in table order. Callers must not mutate them.
func (t *Table) Columns() []*Column { return t.cols }

// SelectCols returns a table containing the named columns in the given
// order. Unknown names are an error.
func (t *Table) SelectCols(names ...string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		c, ok := t.Col(name)
		if !ok {
			return nil, fmt.Errorf("table: no column named %q", name)
		}
		cols = append(cols, c)
	}
	return New(cols...)
}

// TakeRows returns a table containing the rows at idx, in order. An index of
// -1 produces an all-null row.
func (t *Table) TakeRows(idx []int) *Table {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.Take(idx)
	}
	out, _ := New(cols...)
	return out
}

// Slice returns rows [lo, hi).
func (t *Table) Slice(lo, hi int) (*Table, error) {
	n := t.NumRows()
	if lo < 0 || hi < lo || hi > n {
		return nil, fmt.Errorf("table: slice [%d, %d) out of range for %d rows", lo, hi, n)
	}
	idx := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		idx = append(idx, i)
	}
	return t.TakeRows(idx), nil
}

// FilterRows returns the rows where keep is true.
func (t *Table) FilterRows(keep []bool) (*Table, error) {
	if len(keep) != t.NumRows() {
		return nil, fmt.Errorf("table: mask has %d entries, want %d", len(keep), t.NumRows())
	}
	var idx []int
	for i, k := range keep {
		if k {
			idx = append(idx, i)
		}
	}
	return t.TakeRows(idx), nil
}

// AppendCol returns a new table with c appended.
func (t *Table) AppendCol(c *Column) (*Table, error) {
	cols := append(append([]*Column(nil), t.cols...), c)
	return New(cols...)
}

// MapFloat returns a new table in which every cell of the named float column
// has been passed through fn. fn receives the cell value and its validity
// and returns the replacement pair. The input table is not modified.
func (t *Table) MapFloat(name string, fn func(v float64, ok bool) (float64, bool)) (*Table, error) {
	src, ok := t.Col(name)
	if !ok {
		return nil, fmt.Errorf("table: no column named %q", name)
	}
	if src.Kind != KindFloat {
		return nil, fmt.Errorf("table: column %q is %s, not float", name, src.Kind)
	}
	mapped := &Column{
		Name:   src.Name,
		Kind:   KindFloat,
		Floats: make([]float64, len(src.Floats)),
		Valid:  make([]bool, len(src.Floats)),
	}
	for i := range src.Floats {
		mapped.Floats[i], mapped.Valid[i] = fn(src.Floats[i], src.Valid[i])
	}
	cols := make([]*Column, len(t.cols))
	copy(cols, t.cols)
	cols[t.index[name]] = mapped
	return New(cols...)
}

// OuterJoinTime performs a full outer join of t and other on the named time
// column. The result's key column is the sorted union of both key sets;
// rows present in only one input carry nulls in the other input's columns.
// Non-key column names must not collide.
func (t *Table) OuterJoinTime(other *Table, key string) (*Table, error) {
	lk, ok := t.Col(key)
	if !ok || lk.Kind != KindTime {
		return nil, fmt.Errorf("table: join key %q missing or not a time column", key)
	}
	rk, ok := other.Col(key)
	if !ok || rk.Kind != KindTime {
		return nil, fmt.Errorf("table: join key %q missing or not a time column in right table", key)
	}
	for _, name := range other.Names() {
		if name != key && t.HasCol(name) {
			return nil, fmt.Errorf("table: join column collision on %q", name)
		}
	}

	uniq := make(map[int64]time.Time, lk.Len()+rk.Len())
	for _, ts := range lk.Times {
		uniq[ts.Unix()] = ts
	}
	for _, ts := range rk.Times {
		if _, seen := uniq[ts.Unix()]; !seen {
			uniq[ts.Unix()] = ts
		}
	}
	union := make([]time.Time, 0, len(uniq))
	for _, ts := range uniq {
		union = append(union, ts)
	}
	sort.Slice(union, func(i, j int) bool { return union[i].Before(union[j]) })

	lidx := rowIndexByUnix(lk.Times, union)
	ridx := rowIndexByUnix(rk.Times, union)

	cols := []*Column{NewTimeColumn(key, union)}
	for _, c := range t.cols {
		if c.Name == key {
			continue
		}
		cols = append(cols, c.Take(lidx))
	}
	for _, c := range other.cols {
		if c.Name == key {
			continue
		}
		cols = append(cols, c.Take(ridx))
	}
	return New(cols...)
}

func rowIndexByUnix(times []time.Time, union []time.Time) []int {
	byUnix := make(map[int64]int, len(times))
	for i, ts := range times {
		byUnix[ts.Unix()] = i
	}
	idx := make([]int, len(union))
	for i, ts := range union {
		if j, ok := byUnix[ts.Unix()]; ok {
			idx[i] = j
		} else {
			idx[i] = -1
		}
	}
	return idx
}
