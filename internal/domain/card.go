package domain

type CardState string

const (
	StateIdle          CardState = "idle"
	StateDetected      CardState = "detected"
	StateAuthenticated CardState = "authenticated"
)

type CardType string

const (
	CardTypeUnknown CardType = "unknown"
	CardTypeSJS1    CardType = "sjs1"
	CardTypeSJA2    CardType = "sja2"
	CardTypeSJA5    CardType = "sja5"
)

// CardIdentity is what a session knows about the inserted card after a
// successful read: type plus identity fields keyed like Record fields.
type CardIdentity struct {
	Type   CardType
	Fields Record
}

func (c CardIdentity) IMSI() string {
	return c.Fields.Get(FieldIMSI)
}

func (c CardIdentity) ICCID() string {
	return c.Fields.Get(FieldICCID)
}
