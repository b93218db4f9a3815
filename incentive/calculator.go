package incentive

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// ALLOCATION CALCULATOR - Rounding and final exclusions
// =============================================================================

// Calculate rounds an author's raw amounts and applies the exclusion
// rules. It is always the last step for every publication type, so no
// earlier computation can hand points to a student or anything at all
// to an external author:
//
//	External                 (0, 0)
//	Internal, Student        (incentive, 0)
//	Internal, anything else  (incentive, points)
func Calculate(a Author, raw Reward) (incentive, points int64) {
	if a.Category != Internal {
		return 0, 0
	}
	incentive = roundNonNegative(raw.Incentive)
	if a.Kind == Student {
		return incentive, 0
	}
	return incentive, roundNonNegative(raw.Points)
}

// portion is round-free pool × pct / 100.
func portion(pool decimal.Decimal, pct decimal.Decimal) decimal.Decimal {
	return pool.Mul(pct).Div(hundred)
}

// roundNonNegative rounds half away from zero.
func roundNonNegative(d decimal.Decimal) int64 {
	if d.IsNegative() {
		return 0
	}
	return d.Round(0).IntPart()
}
