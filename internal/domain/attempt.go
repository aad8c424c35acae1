package domain

// AttemptDecision is the outcome of the pre-authentication guard. A wrong
// ADM1 key consumes one of the card's limited attempts, and exhausting
// them locks the card for good, so the guard runs before every
// authentication call, never after.
type AttemptDecision string

const (
	AttemptAllowed           AttemptDecision = "allowed"
	AttemptNeedsConfirmation AttemptDecision = "needs_confirmation"
	AttemptBlocked           AttemptDecision = "blocked"
)

// DecideAttempt applies the lockout policy: three or more remaining
// attempts pass freely; one or two demand explicit confirmation unless
// force is set; zero or fewer block the attempt regardless of force.
func DecideAttempt(remaining int, force bool) AttemptDecision {
	switch {
	case remaining <= 0:
		return AttemptBlocked
	case remaining >= 3:
		return AttemptAllowed
	case force:
		return AttemptAllowed
	default:
		return AttemptNeedsConfirmation
	}
}
