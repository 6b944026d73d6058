package scores

// ValidationError is a recoverable rule violation surfaced with a
// human-readable reason. Nothing is ever partially applied when one is
// returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func Invalid(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

type Validation struct {
	Valid           bool   `json:"valid"`
	Reason          string `json:"reason,omitempty"`
	IsMatchTiebreak bool   `json:"isMatchTiebreak,omitempty"`
}

func valid() Validation {
	return Validation{Valid: true}
}

func invalid(reason string) Validation {
	return Validation{Reason: reason}
}

// ValidateSetScore checks a single set's score. A 1-0 third set is the
// shorthand for a match tiebreak and is flagged as such.
func ValidateSetScore(a, b int, isTiebreaker, isSet3 bool) Validation {
	if a < 0 || b < 0 {
		return invalid("scores cannot be negative")
	}
	if a == 0 && b == 0 {
		return valid()
	}

	hi, lo := a, b
	if b > a {
		hi, lo = b, a
	}

	if isSet3 && hi == 1 && lo == 0 {
		v := valid()
		v.IsMatchTiebreak = true
		return v
	}

	if isTiebreaker {
		if hi < 10 {
			return invalid("tiebreak winner must reach at least 10 points")
		}
		if lo >= 10 {
			return invalid("tiebreak loser must have fewer than 10 points")
		}
		if hi-lo < 2 {
			return invalid("tiebreak must be won by at least 2 points")
		}
		return valid()
	}

	if a == b {
		return invalid("a set cannot end in a tie")
	}
	if hi == 6 && lo <= 4 {
		return valid()
	}
	if hi == 7 && (lo == 5 || lo == 6) {
		return valid()
	}
	return invalid("invalid tennis score")
}
