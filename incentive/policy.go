/*
policy.go - Incentive policy definitions

PURPOSE:
  A Policy is the administrator-configured ruleset for one publication
  type (and, for conference papers, one conference sub-type). The
  surrounding system keeps exactly one active policy per PolicyKey and
  hands a fully resolved snapshot to Allocate.

WHICH FIELDS APPLY:
  research_paper:                 QuartileIncentives, SJRRanges, RolePercentages
  conference / scopus:            QuartileIncentives, SJRRanges, RolePercentages,
                                  InternationalBonus, BestPaperAwardBonus
  conference / other sub-types:   FlatIncentives
  book, book_chapter:             AuthoredReward, EditedReward, IndexingBonuses,
                                  InternationalBonus

ROLE PERCENTAGES:
  Missing entries fall back to DefaultFirstAuthorPercentage (35) and
  DefaultCorrespondingAuthorPercentage (30). The remainder is the
  co-author pool.

SEE ALSO:
  - pool.go: Which fields each resolver reads
  - percentage.go: How RolePercentages are applied
  - factory/policy.go: JSON/YAML documents for policies
*/
package incentive

import (
	"github.com/shopspring/decimal"
)

var (
	DefaultFirstAuthorPercentage         = decimal.NewFromInt(35)
	DefaultCorrespondingAuthorPercentage = decimal.NewFromInt(30)

	hundred = decimal.NewFromInt(100)
)

// PolicyKey identifies one active-policy slot.
type PolicyKey struct {
	PublicationType   PublicationType
	ConferenceSubType ConferenceSubType
}

func (k PolicyKey) String() string {
	if k.ConferenceSubType == "" {
		return string(k.PublicationType)
	}
	return string(k.PublicationType) + "/" + string(k.ConferenceSubType)
}

// SJRRange is an inclusive [Min, Max] band.
type SJRRange struct {
	Min    decimal.Decimal
	Max    decimal.Decimal
	Reward Reward
}

func (r SJRRange) Contains(sjr decimal.Decimal) bool {
	return sjr.GreaterThanOrEqual(r.Min) && sjr.LessThanOrEqual(r.Max)
}

// Policy is the complete ruleset for one PolicyKey.
type Policy struct {
	ID                string
	Name              string
	PublicationType   PublicationType
	ConferenceSubType ConferenceSubType
	Version           int

	// Quartile-tiered pools (research papers, Scopus conference papers)
	QuartileIncentives map[Quartile]Reward
	SJRRanges          []SJRRange
	RolePercentages    map[Role]decimal.Decimal

	// Flat bonuses
	InternationalBonus  Reward
	BestPaperAwardBonus Reward

	// Books
	AuthoredReward  Reward
	EditedReward    Reward
	IndexingBonuses map[BookIndexingType]Reward

	// Non-Scopus conference sub-types
	FlatIncentives map[Scope]Reward
}

// Key returns the active-policy slot this policy fills.
func (p *Policy) Key() PolicyKey {
	key := PolicyKey{PublicationType: p.PublicationType}
	if p.PublicationType == ConferencePaper {
		key.ConferenceSubType = p.ConferenceSubType
	}
	return key
}

// Rates returns the role percentages with defaults filled in.
func (p *Policy) Rates() RoleRates {
	rates := DefaultRoleRates()
	if p == nil {
		return rates
	}
	if v, ok := p.RolePercentages[FirstAuthor]; ok {
		rates.First = v
	}
	if v, ok := p.RolePercentages[CorrespondingAuthor]; ok {
		rates.Corresponding = v
	}
	return rates
}

// lookupQuartile finds the reward for q, case-insensitively. Top tiers
// always use Q1's tier.
func (p *Policy) lookupQuartile(q Quartile) (Reward, bool) {
	if p == nil || q == QuartileNone {
		return Reward{}, false
	}
	q = q.Normalize()
	if q.IsTopTier() {
		q = Q1
	}
	// Keys are canonical; factory.FromJSON normalizes them on the way in.
	r, ok := p.QuartileIncentives[q]
	return r, ok
}

// lookupSJR returns the first range containing sjr.
func (p *Policy) lookupSJR(sjr *decimal.Decimal) (Reward, bool) {
	if p == nil || sjr == nil {
		return Reward{}, false
	}
	for _, r := range p.SJRRanges {
		if r.Contains(*sjr) {
			return r.Reward, true
		}
	}
	return Reward{}, false
}
