package domain

import "sort"

// Batch is an ordered collection of provisioning records sharing one
// ordered column set. Insertion order is significant and preserved across
// load and save. The column set is the union of every key ever added, in
// first-seen order; removing a record never removes a column.
//
// A Batch is not safe for concurrent mutation without external locking.
type Batch struct {
	records []Record
	columns []string
	seen    map[string]struct{}
}

func NewBatch() *Batch {
	b := &Batch{seen: make(map[string]struct{}, len(StandardColumns))}
	b.mergeColumns(StandardColumns)
	return b
}

// Load replaces the batch contents with the given column order and rows.
// Standard columns stay seeded; loaded columns merge in after them.
func (b *Batch) Load(columns []string, records []Record) {
	b.records = nil
	b.mergeColumns(columns)
	for _, record := range records {
		b.Add(record)
	}
}

// Columns returns the batch's column set in first-seen order.
func (b *Batch) Columns() []string {
	columns := make([]string, len(b.columns))
	copy(columns, b.columns)
	return columns
}

// Records returns the records in order. The slice is a copy; the records
// themselves are shared.
func (b *Batch) Records() []Record {
	records := make([]Record, len(b.records))
	copy(records, b.records)
	return records
}

func (b *Batch) Len() int {
	return len(b.records)
}

// Add appends a record, merging any new keys into the column set. A nil
// record appends an empty row over the current columns.
func (b *Batch) Add(record Record) {
	if record == nil {
		record = EmptyRecord(b.columns)
	}
	b.mergeRecordColumns(record)
	b.records = append(b.records, record)
}

func (b *Batch) Get(index int) (Record, bool) {
	if index < 0 || index >= len(b.records) {
		return nil, false
	}
	return b.records[index], true
}

func (b *Batch) Remove(index int) bool {
	if index < 0 || index >= len(b.records) {
		return false
	}
	b.records = append(b.records[:index], b.records[index+1:]...)
	return true
}

func (b *Batch) Update(index int, field, value string) bool {
	if index < 0 || index >= len(b.records) {
		return false
	}
	b.records[index][field] = value
	b.mergeColumns([]string{field})
	return true
}

// ValidateAll validates every record, aggregating defects with 1-based
// row numbers.
func (b *Batch) ValidateAll() []Defect {
	var defects []Defect
	for i, record := range b.records {
		defects = append(defects, ValidateRow(i+1, record)...)
	}
	return defects
}

// ValidateRecord validates a single row by index.
func (b *Batch) ValidateRecord(index int) []Defect {
	record, ok := b.Get(index)
	if !ok {
		return []Defect{Defect(ErrRecordNotFound.Error())}
	}
	return ValidateRow(index+1, record)
}

func (b *Batch) mergeRecordColumns(record Record) {
	// Map iteration order is random; keep standard columns stable and
	// append the rest deterministically by checking standards first.
	for _, column := range StandardColumns {
		if _, ok := record[column]; ok {
			b.mergeColumns([]string{column})
		}
	}
	extras := make([]string, 0, len(record))
	for column := range record {
		if _, ok := b.seen[column]; !ok {
			extras = append(extras, column)
		}
	}
	sort.Strings(extras)
	b.mergeColumns(extras)
}

func (b *Batch) mergeColumns(columns []string) {
	for _, column := range columns {
		if column == "" {
			continue
		}
		if _, ok := b.seen[column]; ok {
			continue
		}
		b.seen[column] = struct{}{}
		b.columns = append(b.columns, column)
	}
}
