package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/flatpool/flatpool/internal/errs"
	"github.com/flatpool/flatpool/internal/models"
)

// customSplitTolerance is the accepted gap between a custom split's
// participant amounts and the obligation total, in currency units.
var customSplitTolerance = decimal.NewFromFloat(0.01)

// EqualShare returns one participant's portion of an equal split:
// round(total/n, 2). The rounded shares need not sum exactly to the total;
// the drift is bounded by n x 0.005 and is accepted rather than corrected.
func EqualShare(total decimal.Decimal, n int) decimal.Decimal {
	return total.Div(decimal.NewFromInt(int64(n))).Round(2)
}

// shareAmounts computes the per-participant amounts for a split. For equal
// splits every participant gets EqualShare; for custom splits the supplied
// amounts are validated and returned as-is.
func shareAmounts(method models.SplitMethod, total decimal.Decimal, participants []ParticipantInput) ([]decimal.Decimal, error) {
	amounts := make([]decimal.Decimal, len(participants))

	switch method {
	case models.SplitEqual:
		per := EqualShare(total, len(participants))
		for i := range amounts {
			amounts[i] = per
		}
		return amounts, nil

	case models.SplitCustom:
		sum := decimal.Zero
		for i, p := range participants {
			if !p.Amount.IsPositive() {
				return nil, errs.InvalidInput("participant %s amount must be positive", p.MemberID)
			}
			amounts[i] = p.Amount.Round(2)
			sum = sum.Add(amounts[i])
		}
		if sum.Sub(total).Abs().GreaterThan(customSplitTolerance) {
			return nil, errs.InvalidInput("amounts must sum to total")
		}
		return amounts, nil

	default:
		return nil, errs.InvalidInput("unknown split method %q", method)
	}
}

// validateParticipants rejects empty lists, blank member IDs and duplicate
// members. A member has at most one share per obligation.
func validateParticipants(participants []ParticipantInput) error {
	if len(participants) == 0 {
		return errs.InvalidInput("at least one participant is required")
	}
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if p.MemberID == "" {
			return errs.InvalidInput("participant member id is required")
		}
		if seen[p.MemberID] {
			return errs.Conflict("duplicate participant %s", p.MemberID)
		}
		seen[p.MemberID] = true
	}
	return nil
}
