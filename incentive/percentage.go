/*
percentage.go - Role percentage allocator

PURPOSE:
  Maps an author's role and the roster composition to a percentage of
  the pool. Used only for research papers and Scopus-indexed conference
  papers; books and the other conference sub-types split equally or pay
  a single author.

RULES (first match wins):
  1. Sole author                         100%
  2. Exactly two authors, one First and  50% each, regardless of the
     one Corresponding                   configured role percentages
  3. FirstAndCorresponding               First% + Corresponding%
  4. FirstAuthor                         First%
  5. CorrespondingAuthor                 Corresponding%
  6. CoAuthor                            (100 - First% - Corresponding%)
                                         / max(internal co-authors, 1)
                                         for incentive, and the same over
                                         max(internal employee co-authors, 1)
                                         for points

FORFEITURE VS REDISTRIBUTION:
  A lead share assigned to an External author is still computed, then
  thrown away: nobody receives it. External co-authors never enter the
  co-author divisor, so their slots flow to the internal co-authors.

EXAMPLE (defaults 35/30):
  [First(int), Corresponding(int), Co(int), Co(ext)]
    First 35%, Corresponding 30%, internal Co 35%, external Co 0 paid
*/
package incentive

import (
	"github.com/shopspring/decimal"
)

// RoleRates is the resolved First/Corresponding pair from a policy.
type RoleRates struct {
	First         decimal.Decimal
	Corresponding decimal.Decimal
}

func DefaultRoleRates() RoleRates {
	return RoleRates{First: DefaultFirstAuthorPercentage, Corresponding: DefaultCorrespondingAuthorPercentage}
}

func (r RoleRates) Combined() decimal.Decimal {
	return r.First.Add(r.Corresponding)
}

// CoAuthorPool is what remains after the two lead roles, never negative.
func (r RoleRates) CoAuthorPool() decimal.Decimal {
	rest := hundred.Sub(r.Combined())
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// Share is a pair of percentages: points can differ from incentive for
// co-authors because of the employee-only divisor.
type Share struct {
	Incentive decimal.Decimal
	Points    decimal.Decimal
}

func uniform(pct decimal.Decimal) Share { return Share{Incentive: pct, Points: pct} }

// ShareFor returns the author's percentage of the pool.
func (r RoleRates) ShareFor(a Author, c Composition) Share {
	if a.Role.IsLead() || c.Total <= 1 {
		return uniform(r.leadShare(a.Role, c))
	}

	pool := r.CoAuthorPool()
	incentiveDivisor := decimal.NewFromInt(int64(max(c.InternalCoAuthors, 1)))
	pointsDivisor := decimal.NewFromInt(int64(max(c.InternalEmployeeCoAuthors, 1)))
	return Share{
		Incentive: pool.Div(incentiveDivisor),
		Points:    pool.Div(pointsDivisor),
	}
}

// leadShare covers rules 1 through 5.
func (r RoleRates) leadShare(role Role, c Composition) decimal.Decimal {
	if c.Total <= 1 {
		return hundred
	}
	if c.isEvenPair() && (role == FirstAuthor || role == CorrespondingAuthor) {
		return decimal.NewFromInt(50)
	}
	switch role {
	case FirstAndCorresponding:
		return r.Combined()
	case FirstAuthor:
		return r.First
	case CorrespondingAuthor:
		return r.Corresponding
	default:
		return decimal.Zero
	}
}
