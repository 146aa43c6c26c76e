package table

import (
	"encoding/csv"
	"fmt"
	"io"
)

// FromCSV reads a CSV document into an all-string table. The first record
// supplies column names. No typing or null substitution happens here; that
// is the parsing stage's job.
func FromCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("table: empty CSV input")
	}
	if err != nil {
		return nil, fmt.Errorf("table: reading CSV header: %w", err)
	}

	cells := make([][]string, len(header))
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("table: reading CSV record: %w", err)
		}
		for i := range header {
			cells[i] = append(cells[i], record[i])
		}
	}

	cols := make([]*Column, len(header))
	for i, name := range header {
		cols[i] = NewStringColumn(name, cells[i], nil)
	}
	return New(cols...)
}
