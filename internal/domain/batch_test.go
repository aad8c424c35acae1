package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchStartsWithStandardColumns(t *testing.T) {
	b := NewBatch()

	assert.Equal(t, StandardColumns, b.Columns())
	assert.Zero(t, b.Len())
}

func TestBatchAddNilAppendsEmptyRow(t *testing.T) {
	b := NewBatch()
	b.Add(nil)

	require.Equal(t, 1, b.Len())
	record, ok := b.Get(0)
	require.True(t, ok)
	for _, column := range StandardColumns {
		value, present := record[column]
		assert.True(t, present, column)
		assert.Empty(t, value)
	}
}

func TestBatchAddThenRemoveRestoresPriorState(t *testing.T) {
	b := NewBatch()
	b.Add(Record{FieldIMSI: "001010000000001"})
	b.Add(Record{FieldIMSI: "001010000000002"})
	b.Add(Record{FieldIMSI: "001010000000003"})

	b.Add(Record{FieldIMSI: "999999999999999"})
	require.Equal(t, 4, b.Len())
	require.True(t, b.Remove(3))

	assert.Equal(t, 3, b.Len())
	for i, want := range []string{"001010000000001", "001010000000002", "001010000000003"} {
		record, ok := b.Get(i)
		require.True(t, ok)
		assert.Equal(t, want, record.Get(FieldIMSI))
	}
}

func TestBatchOutOfRangeAccessIsReportedNotFatal(t *testing.T) {
	b := NewBatch()
	b.Add(Record{FieldIMSI: "001010000000001"})

	_, ok := b.Get(1)
	assert.False(t, ok)
	_, ok = b.Get(-1)
	assert.False(t, ok)
	assert.False(t, b.Remove(5))
	assert.False(t, b.Update(5, FieldIMSI, "x"))
	assert.Equal(t, []Defect{Defect(ErrRecordNotFound.Error())}, b.ValidateRecord(5))
}

func TestBatchColumnSetOnlyGrows(t *testing.T) {
	b := NewBatch()
	b.Add(Record{"PIN1": "1234"})
	b.Add(Record{"PUK1": "12345678"})

	require.True(t, b.Remove(0))
	require.True(t, b.Remove(0))

	columns := b.Columns()
	assert.Contains(t, columns, "PIN1")
	assert.Contains(t, columns, "PUK1")
	assert.Equal(t, append(append([]string{}, StandardColumns...), "PIN1", "PUK1"), columns)
}

func TestBatchLoadKeepsHeaderOrder(t *testing.T) {
	b := NewBatch()
	b.Load([]string{"IMSI", "ICCID", "NOTES"}, []Record{
		{"IMSI": "001010000000001", "ICCID": "8988211000000000001", "NOTES": "first"},
	})

	// Standard columns stay seeded in front; loaded extras merge after.
	assert.Equal(t, append(append([]string{}, StandardColumns...), "NOTES"), b.Columns())
	require.Equal(t, 1, b.Len())
}

func TestBatchUpdateMergesNewColumn(t *testing.T) {
	b := NewBatch()
	b.Add(nil)

	require.True(t, b.Update(0, "OPERATOR", "test-net"))

	record, ok := b.Get(0)
	require.True(t, ok)
	assert.Equal(t, "test-net", record.Get("OPERATOR"))
	assert.Contains(t, b.Columns(), "OPERATOR")
}

func TestBatchValidateAllNumbersRows(t *testing.T) {
	b := NewBatch()
	b.Add(Record{FieldKi: "000102030405060708090a0b0c0d0e0f"})
	b.Add(Record{FieldKi: "000102030405060708090a0b0c0d0e0"})
	b.Add(Record{FieldKi: "000102030405060708090A0B0C0D0E0F"})

	defects := b.ValidateAll()
	require.Len(t, defects, 1)
	assert.Equal(t, Defect("Row 2: Ki must be 32 hex chars"), defects[0])
}

func TestDecideAttempt(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		force     bool
		want      AttemptDecision
	}{
		{name: "plenty of attempts", remaining: 5, force: false, want: AttemptAllowed},
		{name: "exactly three", remaining: 3, force: false, want: AttemptAllowed},
		{name: "two needs confirmation", remaining: 2, force: false, want: AttemptNeedsConfirmation},
		{name: "one needs confirmation", remaining: 1, force: false, want: AttemptNeedsConfirmation},
		{name: "force overrides confirmation", remaining: 1, force: true, want: AttemptAllowed},
		{name: "zero blocked", remaining: 0, force: false, want: AttemptBlocked},
		{name: "force never unblocks", remaining: 0, force: true, want: AttemptBlocked},
		{name: "negative blocked", remaining: -1, force: true, want: AttemptBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecideAttempt(tt.remaining, tt.force))
		})
	}
}
