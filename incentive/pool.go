/*
pool.go - Base pool resolvers

PURPOSE:
  One resolver per publication type (two for conference papers) turns
  the submission metadata and the policy into the pool: the total
  incentive and points before any per-author split, plus the split mode
  the dispatcher must use.

RESOLVERS:
  research_paper         quartile tier, else SJR range, else (0,0)
  book, book_chapter     authored/edited base + indexing bonus +
                         international bonus, split equally
  conference / scopus    proceedings quartile tier (SJR fallback) +
                         international bonus + best paper award bonus
  conference / others    flat amount by scope, from the policy or the
                         built-in defaults

NOT AN ERROR:
  An unmatched quartile/SJR yields (0,0) with ConditionUnmatchedMetric.
  A user halfway through the form hits this on every keystroke.
*/
package incentive

// SplitMode tells the dispatcher how the pool reaches the authors.
type SplitMode string

const (
	SplitByRole      SplitMode = "by_role"
	SplitEqually     SplitMode = "equal"
	SplitToSubmitter SplitMode = "submitter"
)

// Pool is a resolver's output.
type Pool struct {
	Reward    Reward
	Split     SplitMode
	Resolved  bool
	Condition Condition
}

// PoolResolver maps a submission and its policy to a pool.
type PoolResolver func(sub Submission, policy *Policy) Pool

func missingPolicy(split SplitMode) Pool {
	return Pool{Split: split, Condition: ConditionConfigurationMissing}
}

func unmatched(split SplitMode) Pool {
	return Pool{Split: split, Resolved: true, Condition: ConditionUnmatchedMetric}
}

// =============================================================================
// RESEARCH PAPER
// =============================================================================

// ResolveResearchPaper applies no bonuses: quartile first, SJR only when
// the quartile is absent or has no tier.
func ResolveResearchPaper(sub Submission, policy *Policy) Pool {
	if policy == nil {
		return missingPolicy(SplitByRole)
	}
	reward, ok := tieredReward(policy, sub.Quartile, sub)
	if !ok {
		return unmatched(SplitByRole)
	}
	return Pool{Reward: reward, Split: SplitByRole, Resolved: true}
}

func tieredReward(policy *Policy, q Quartile, sub Submission) (Reward, bool) {
	if r, ok := policy.lookupQuartile(q); ok {
		return r, true
	}
	return policy.lookupSJR(sub.SJR)
}

// =============================================================================
// BOOK / BOOK CHAPTER
// =============================================================================

func ResolveBook(sub Submission, policy *Policy) Pool {
	if policy == nil {
		return missingPolicy(SplitEqually)
	}

	var reward Reward
	switch sub.BookPublicationType {
	case Authored:
		reward = policy.AuthoredReward
	case Edited:
		reward = policy.EditedReward
	default:
		return unmatched(SplitEqually)
	}

	if sub.BookIndexingType.EarnsBonus() {
		if bonus, ok := policy.IndexingBonuses[sub.BookIndexingType]; ok {
			reward = reward.Add(bonus)
		}
	}
	if sub.Scope == International {
		reward = reward.Add(policy.InternationalBonus)
	}
	return Pool{Reward: reward, Split: SplitEqually, Resolved: true}
}

// =============================================================================
// CONFERENCE PAPER
// =============================================================================

// ResolveConferenceScopus is the research-paper lookup keyed by the
// proceedings quartile, plus conference bonuses.
func ResolveConferenceScopus(sub Submission, policy *Policy) Pool {
	if policy == nil {
		return missingPolicy(SplitByRole)
	}
	reward, ok := tieredReward(policy, sub.ProceedingsQuartile, sub)
	if !ok {
		return unmatched(SplitByRole)
	}
	if sub.Scope == International {
		reward = reward.Add(policy.InternationalBonus)
	}
	if sub.BestPaperAward {
		reward = reward.Add(policy.BestPaperAwardBonus)
	}
	return Pool{Reward: reward, Split: SplitByRole, Resolved: true}
}

// ResolveConferenceFlat covers PaperNotIndexed, KeynoteOrInvited and
// Organizer. A nil policy is not a configuration problem here: the
// built-in defaults apply.
func ResolveConferenceFlat(sub Submission, policy *Policy) Pool {
	split := SplitToSubmitter
	if sub.ConferenceSubType == PaperNotIndexed {
		split = SplitEqually
		if sub.NotPresenting {
			return Pool{Split: split, Resolved: true}
		}
	}

	scope := sub.Scope
	if scope == "" {
		scope = National
	}
	if policy != nil {
		if r, ok := policy.FlatIncentives[scope]; ok {
			return Pool{Reward: r, Split: split, Resolved: true}
		}
	}
	r, ok := DefaultFlatIncentive(sub.ConferenceSubType, scope)
	if !ok {
		return missingPolicy(split)
	}
	return Pool{Reward: r, Split: split, Resolved: true}
}

// DefaultFlatIncentive is used when no policy (or no entry for the
// scope) is configured for a non-Scopus conference sub-type.
func DefaultFlatIncentive(subType ConferenceSubType, scope Scope) (Reward, bool) {
	international := scope == International
	switch subType {
	case PaperNotIndexed:
		if international {
			return NewReward(15000, 15), true
		}
		return NewReward(10000, 10), true
	case KeynoteOrInvited:
		if international {
			return NewReward(20000, 20), true
		}
		return NewReward(10000, 10), true
	case Organizer:
		if international {
			return NewReward(10000, 10), true
		}
		return NewReward(5000, 5), true
	}
	return Reward{}, false
}
