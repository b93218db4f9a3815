/*
allocate.go - Dispatcher

PURPOSE:
  Allocate is the single entry point of the engine. It picks the pool
  resolver for the submission's publication type (and conference
  sub-type), resolves the pool once, analyzes the roster once, and then
  walks the authors producing one Allocation each.

FLOW:
  1. resolverFor(submission)     unknown type -> all (0,0), not resolved
  2. resolver(submission, policy) pool + split mode
  3. Analyze(authors, rates)     composition, computed once
  4. per author:
       by_role    -> RoleRates.ShareFor
       equal      -> pool / N
       submitter  -> whole pool to position 0
     then Calculate (rounding + exclusions)

ROUNDING:
  Each author is rounded independently, so TotalIncentive/TotalPoints
  can differ from the pool by a few units. That is accepted and never
  reconciled. Forfeited lead shares also keep the total below the pool.

CONCURRENCY:
  No state, no I/O. Calls may run in parallel; identical inputs produce
  identical sets.

SEE ALSO:
  - pool.go, percentage.go, calculator.go
*/
package incentive

import (
	"github.com/shopspring/decimal"
)

// Allocation is one author's result.
type Allocation struct {
	Position         int
	Author           Author
	Percentage       decimal.Decimal
	PointsPercentage decimal.Decimal
	Incentive        int64
	Points           int64
}

// AllocationSet is the engine output for one submission.
type AllocationSet struct {
	PublicationType   PublicationType
	ConferenceSubType ConferenceSubType
	Split             SplitMode

	Pool        Reward
	Allocations []Allocation

	TotalIncentive int64
	TotalPoints    int64

	// ForfeitedPercentage is the part of the pool assigned to External
	// authors that nobody receives.
	ForfeitedPercentage decimal.Decimal

	// PoolResolved is false when no policy (or no resolver) applied; the
	// caller should surface a warning instead of crediting nothing silently.
	PoolResolved bool
	Condition    Condition
}

// Err returns the sentinel matching Condition, or nil.
func (s AllocationSet) Err() error {
	return s.Condition.Err()
}

// Undistributed is pool minus totals, rounded. Forfeiture and rounding
// both show up here.
func (s AllocationSet) Undistributed() (incentive, points int64) {
	incentive = s.Pool.Incentive.Round(0).IntPart() - s.TotalIncentive
	points = s.Pool.Points.Round(0).IntPart() - s.TotalPoints
	return incentive, points
}

// =============================================================================
// DISPATCH TABLE
// =============================================================================

var resolvers = map[PolicyKey]PoolResolver{
	{PublicationType: ResearchPaper}: ResolveResearchPaper,
	{PublicationType: Book}:          ResolveBook,
	{PublicationType: BookChapter}:   ResolveBook,
	{PublicationType: ConferencePaper, ConferenceSubType: PaperIndexedScopus}: ResolveConferenceScopus,
	{PublicationType: ConferencePaper, ConferenceSubType: PaperNotIndexed}:    ResolveConferenceFlat,
	{PublicationType: ConferencePaper, ConferenceSubType: KeynoteOrInvited}:   ResolveConferenceFlat,
	{PublicationType: ConferencePaper, ConferenceSubType: Organizer}:          ResolveConferenceFlat,
}

func resolverFor(sub Submission) (PoolResolver, bool) {
	r, ok := resolvers[sub.PolicyKey()]
	return r, ok
}

// =============================================================================
// ALLOCATE
// =============================================================================

// Allocate splits the submission's pool across its authors. policy may be
// nil; a policy for a different PolicyKey is treated as nil.
func Allocate(sub Submission, policy *Policy) AllocationSet {
	set := AllocationSet{
		PublicationType:     sub.PublicationType,
		ConferenceSubType:   sub.PolicyKey().ConferenceSubType,
		Pool:                Reward{Incentive: decimal.Zero, Points: decimal.Zero},
		Allocations:         make([]Allocation, 0, len(sub.Authors)),
		ForfeitedPercentage: decimal.Zero,
	}

	resolve, ok := resolverFor(sub)
	if !ok {
		set.Condition = ConditionUnknownPublicationType
		for i, a := range sub.Authors {
			set.Allocations = append(set.Allocations, zeroAllocation(i, a))
		}
		return set
	}

	if policy != nil && policy.Key() != sub.PolicyKey() {
		policy = nil
	}

	pool := resolve(sub, policy)
	set.Pool = pool.Reward
	set.Split = pool.Split
	set.PoolResolved = pool.Resolved
	set.Condition = pool.Condition

	rates := policy.Rates()
	comp := Analyze(sub.Authors, rates)

	for i, a := range sub.Authors {
		share := shareOf(i, a, pool.Split, rates, comp)
		raw := Reward{
			Incentive: portion(pool.Reward.Incentive, share.Incentive),
			Points:    portion(pool.Reward.Points, share.Points),
		}
		if pool.Split == SplitEqually {
			n := decimal.NewFromInt(int64(comp.Total))
			raw = Reward{Incentive: pool.Reward.Incentive.Div(n), Points: pool.Reward.Points.Div(n)}
		}

		incentive, points := Calculate(a, raw)
		set.Allocations = append(set.Allocations, Allocation{
			Position:         i,
			Author:           a,
			Percentage:       share.Incentive,
			PointsPercentage: share.Points,
			Incentive:        incentive,
			Points:           points,
		})
		set.TotalIncentive += incentive
		set.TotalPoints += points
	}

	set.ForfeitedPercentage = forfeited(sub.Authors, pool.Split, rates, comp)
	return set
}

func shareOf(position int, a Author, split SplitMode, rates RoleRates, comp Composition) Share {
	switch split {
	case SplitByRole:
		return rates.ShareFor(a, comp)
	case SplitEqually:
		return uniform(hundred.Div(decimal.NewFromInt(int64(comp.Total))))
	case SplitToSubmitter:
		if position == 0 {
			return uniform(hundred)
		}
	}
	return uniform(decimal.Zero)
}

// forfeited sums the shares of External authors that are not absorbed by
// anyone. External co-author slots in a role split are absorbed by the
// internal co-authors, so only lead roles count there.
func forfeited(authors []Author, split SplitMode, rates RoleRates, comp Composition) decimal.Decimal {
	if split == SplitByRole {
		return comp.ExternalLeadPercentageLost
	}
	lost := decimal.Zero
	for i, a := range authors {
		if a.Category == External {
			lost = lost.Add(shareOf(i, a, split, rates, comp).Incentive)
		}
	}
	return lost
}

func zeroAllocation(position int, a Author) Allocation {
	return Allocation{
		Position:         position,
		Author:           a,
		Percentage:       decimal.Zero,
		PointsPercentage: decimal.Zero,
	}
}
