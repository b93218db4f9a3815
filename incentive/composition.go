package incentive

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// COMPOSITION - Roster classification shared by every author's share
// =============================================================================

// Composition is computed once per Allocate call.
type Composition struct {
	Total int

	Internal int
	External int
	Students int

	FirstAuthors         int
	CorrespondingAuthors int
	CombinedAuthors      int

	// InternalCoAuthors divides the co-author incentive pool. It includes
	// the submitter when their role is CoAuthor.
	InternalCoAuthors int

	// InternalEmployeeCoAuthors divides the co-author point pool. Students
	// never earn points, so they are left out of this divisor to keep
	// employee point shares unaffected by student participation.
	InternalEmployeeCoAuthors int

	ExternalCoAuthors int

	// ExternalLeadPercentageLost is the sum of lead-role percentages
	// assigned to External authors. It is forfeited, never paid.
	ExternalLeadPercentageLost decimal.Decimal
}

// Analyze classifies the roster. rates only feeds ExternalLeadPercentageLost.
func Analyze(authors []Author, rates RoleRates) Composition {
	c := Composition{Total: len(authors), ExternalLeadPercentageLost: decimal.Zero}

	for _, a := range authors {
		if a.Category == External {
			c.External++
		} else {
			c.Internal++
		}
		if a.Category == Internal && a.Kind == Student {
			c.Students++
		}

		switch a.Role {
		case FirstAuthor:
			c.FirstAuthors++
		case CorrespondingAuthor:
			c.CorrespondingAuthors++
		case FirstAndCorresponding:
			c.CombinedAuthors++
		case CoAuthor:
			if a.Category == External {
				c.ExternalCoAuthors++
				continue
			}
			c.InternalCoAuthors++
			if a.Kind != Student {
				c.InternalEmployeeCoAuthors++
			}
		}
	}

	// Second pass: lead shares depend on the counts above.
	for _, a := range authors {
		if a.Category == External && a.Role.IsLead() {
			c.ExternalLeadPercentageLost = c.ExternalLeadPercentageLost.Add(rates.leadShare(a.Role, c))
		}
	}

	return c
}

// isEvenPair is the two-author First + Corresponding roster that splits 50/50.
func (c Composition) isEvenPair() bool {
	return c.Total == 2 && c.FirstAuthors == 1 && c.CorrespondingAuthors == 1
}
