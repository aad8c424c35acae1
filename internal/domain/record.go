package domain

import "strings"

// Record is one card's provisioning data: field name to string value.
// Values stay strings even when numeric-looking; unknown fields pass
// through untouched.
type Record map[string]string

// StandardColumns is the canonical column order for batch files.
var StandardColumns = []string{
	FieldICCID, FieldIMSI, FieldKi, FieldOPc, FieldADM1,
	"MNC_LENGTH", "ALGO_2G", "ALGO_3G", "ALGO_4G5G",
	"USE_OPC", "HPLMN",
}

const (
	FieldICCID = "ICCID"
	FieldIMSI  = "IMSI"
	FieldKi    = "Ki"
	FieldOPc   = "OPc"
	FieldADM1  = "ADM1"
)

func (r Record) Get(field string) string {
	return r[field]
}

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	clone := make(Record, len(r))
	for field, value := range r {
		clone[field] = value
	}
	return clone
}

// EmptyRecord returns a record holding "" for each given column.
func EmptyRecord(columns []string) Record {
	record := make(Record, len(columns))
	for _, column := range columns {
		record[column] = ""
	}
	return record
}

// NormalizeHex strips internal spaces so key material pasted as
// "00 11 22 ..." compares and validates like contiguous hex.
func NormalizeHex(value string) string {
	return strings.ReplaceAll(value, " ", "")
}
