package domain

import "fmt"

// Defect is one human-readable validation finding.
type Defect string

// Validate checks every recognized field of a record and reports all
// violations. Empty or absent fields are never flagged; validation never
// mutates the record.
func Validate(record Record) []Defect {
	var defects []Defect

	if imsi := record.Get(FieldIMSI); imsi != "" {
		if !allDigits(imsi) || len(imsi) < 6 || len(imsi) > 15 {
			defects = append(defects, "IMSI must be 6-15 digits")
		}
	}

	if iccid := record.Get(FieldICCID); iccid != "" {
		if !allDigits(iccid) || len(iccid) < 10 || len(iccid) > 20 {
			defects = append(defects, "ICCID must be 10-20 digits")
		}
	}

	if ki := record.Get(FieldKi); ki != "" {
		if !isKeyMaterial(ki) {
			defects = append(defects, "Ki must be 32 hex chars")
		}
	}

	if opc := record.Get(FieldOPc); opc != "" {
		if !isKeyMaterial(opc) {
			defects = append(defects, "OPc must be 32 hex chars")
		}
	}

	if adm1 := record.Get(FieldADM1); adm1 != "" && len(adm1) != 8 {
		defects = append(defects, "ADM1 must be 8 chars")
	}

	return defects
}

// ValidateRow validates a record within a batch, prefixing each defect
// with its 1-based row number.
func ValidateRow(row int, record Record) []Defect {
	defects := Validate(record)
	prefixed := make([]Defect, 0, len(defects))
	for _, defect := range defects {
		prefixed = append(prefixed, Defect(fmt.Sprintf("Row %d: %s", row, defect)))
	}
	return prefixed
}

func allDigits(value string) bool {
	for _, c := range value {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(value) > 0
}

func isKeyMaterial(value string) bool {
	cleaned := NormalizeHex(value)
	if len(cleaned) != 32 {
		return false
	}
	for _, c := range cleaned {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
