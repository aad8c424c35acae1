package application

import "github.com/SeJohnEff/simprov/internal/domain"

// CardStatus is a point-in-time view of a session for rendering.
type CardStatus struct {
	State             domain.CardState
	CardType          domain.CardType
	IMSI              string
	ICCID             string
	Authenticated     bool
	RemainingAttempts int
}

func (s *CardSession) Status() CardStatus {
	return CardStatus{
		State:             s.state,
		CardType:          s.identity.Type,
		IMSI:              s.identity.IMSI(),
		ICCID:             s.identity.ICCID(),
		Authenticated:     s.authenticated,
		RemainingAttempts: s.remaining,
	}
}
