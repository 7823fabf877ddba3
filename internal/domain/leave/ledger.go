package leave

// DeductionSplit is how an approved request's days divide between paid
// credits and unpaid days, recorded verbatim in the audit trail.
type DeductionSplit struct {
	PTODays  int `json:"ptoDays"`
	LwopDays int `json:"lwopDays"`
}

// ApplyDeduction charges an approved request against a balance and
// returns the updated balance plus the PTO/LWOP split.
//
// Pure accounting: no authorization, no state checks. The caller has
// already validated that the request is approvable.
//
// When the request was flagged LWOP at filing time, the remaining
// credits absorb as much as they can and the rest becomes unpaid days.
// Otherwise the whole request is charged to credits without re-checking
// remaining: the filing-time prediction is authoritative even if other
// approvals moved the balance in between.
func ApplyDeduction(balance Balance, requestedDays int, isLwop bool) (Balance, DeductionSplit) {
	if isLwop {
		remaining := balance.Remaining()
		ptoPortion := requestedDays
		if remaining < ptoPortion {
			ptoPortion = remaining
		}
		if ptoPortion < 0 {
			ptoPortion = 0
		}
		split := DeductionSplit{PTODays: ptoPortion, LwopDays: requestedDays - ptoPortion}
		balance.UsedCredits += split.PTODays
		balance.LwopDays += split.LwopDays
		return balance, split
	}

	balance.UsedCredits += requestedDays
	return balance, DeductionSplit{PTODays: requestedDays}
}
