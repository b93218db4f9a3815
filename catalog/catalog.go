/*
Package catalog provides ready-to-use incentive policy documents.

PURPOSE:
  Seeds a fresh installation with one active policy per publication type
  and conference sub-type, and gives tests and the CLI realistic
  policies to work with. Every preset is a JSON document in the factory
  schema; parse it with factory.PolicyFactory.

AVAILABLE PRESETS:
  ResearchPaperJSON:
    - Q1 50000/50, Q2 30000/30, Q3 20000/20, Q4 10000/10; Top1, Top5
      and Top10 journals pay the Q1 tier
    - SJR ranges mirroring Q1..Q4, ordered high to low so a boundary
      value lands in the higher tier
    - Role percentages 35 / 30

  BookJSON / BookChapterJSON:
    - Authored and edited base amounts
    - Scopus and publication-house indexing bonuses (incentive only)
    - International bonus

  ConferenceScopusJSON:
    - Proceedings quartile tiers, SJR ranges, international and best
      paper award bonuses

  ConferenceFlatJSON:
    - Flat national/international amounts for PaperNotIndexed,
      KeynoteOrInvited and Organizer, equal to the engine's built-in
      defaults

EXAMPLE:
  f := factory.NewPolicyFactory()
  for _, doc := range catalog.Presets() {
      policy, err := f.ParsePolicy(doc)
      ...
  }

SEE ALSO:
  - factory/policy.go: Document schema
  - incentive/pool.go: DefaultFlatIncentive
*/
package catalog

import (
	"encoding/json"

	"github.com/warp/research-incentives/incentive"
)

func reward(incentiveAmount, points float64) map[string]interface{} {
	return map[string]interface{}{"incentive": incentiveAmount, "points": points}
}

func sjrRange(min, max, incentiveAmount, points float64) map[string]interface{} {
	return map[string]interface{}{"min": min, "max": max, "incentive": incentiveAmount, "points": points}
}

func marshal(pj map[string]interface{}) string {
	b, _ := json.MarshalIndent(pj, "", "  ")
	return string(b)
}

// =============================================================================
// RESEARCH PAPER
// =============================================================================

// ResearchPaperJSON returns JSON for the standard research paper policy.
func ResearchPaperJSON(id, name string) string {
	return marshal(map[string]interface{}{
		"id":               id,
		"name":             name,
		"publication_type": string(incentive.ResearchPaper),
		"quartile_incentives": map[string]interface{}{
			"Q1": reward(50000, 50),
			"Q2": reward(30000, 30),
			"Q3": reward(20000, 20),
			"Q4": reward(10000, 10),
		},
		"sjr_ranges": []map[string]interface{}{
			sjrRange(2.0, 100, 50000, 50),
			sjrRange(1.0, 2.0, 30000, 30),
			sjrRange(0.5, 1.0, 20000, 20),
			sjrRange(0, 0.5, 10000, 10),
		},
		"role_percentages": map[string]interface{}{
			string(incentive.FirstAuthor):         35,
			string(incentive.CorrespondingAuthor): 30,
		},
	})
}

// =============================================================================
// BOOKS
// =============================================================================

// BookJSON returns JSON for the standard book policy.
func BookJSON(id, name string) string {
	return marshal(map[string]interface{}{
		"id":               id,
		"name":             name,
		"publication_type": string(incentive.Book),
		"authored":         reward(40000, 40),
		"edited":           reward(20000, 20),
		"indexing_bonuses": map[string]interface{}{
			string(incentive.ScopusIndexed):    reward(10000, 0),
			string(incentive.PublicationHouse): reward(5000, 0),
		},
		"international_bonus": reward(5000, 5),
	})
}

// BookChapterJSON returns JSON for the standard book chapter policy.
func BookChapterJSON(id, name string) string {
	return marshal(map[string]interface{}{
		"id":               id,
		"name":             name,
		"publication_type": string(incentive.BookChapter),
		"authored":         reward(15000, 15),
		"edited":           reward(10000, 10),
		"indexing_bonuses": map[string]interface{}{
			string(incentive.ScopusIndexed):    reward(5000, 0),
			string(incentive.PublicationHouse): reward(2500, 0),
		},
		"international_bonus": reward(2500, 2),
	})
}

// =============================================================================
// CONFERENCES
// =============================================================================

// ConferenceScopusJSON returns JSON for Scopus-indexed conference papers.
func ConferenceScopusJSON(id, name string) string {
	return marshal(map[string]interface{}{
		"id":                  id,
		"name":                name,
		"publication_type":    string(incentive.ConferencePaper),
		"conference_sub_type": string(incentive.PaperIndexedScopus),
		"quartile_incentives": map[string]interface{}{
			"Q1": reward(30000, 30),
			"Q2": reward(20000, 20),
			"Q3": reward(15000, 15),
			"Q4": reward(10000, 10),
		},
		"sjr_ranges": []map[string]interface{}{
			sjrRange(1.0, 100, 20000, 20),
			sjrRange(0, 1.0, 10000, 10),
		},
		"role_percentages": map[string]interface{}{
			string(incentive.FirstAuthor):         35,
			string(incentive.CorrespondingAuthor): 30,
		},
		"international_bonus":    reward(5000, 5),
		"best_paper_award_bonus": reward(5000, 0),
	})
}

// ConferenceFlatJSON returns JSON for a non-Scopus conference sub-type,
// using the engine's built-in default amounts.
func ConferenceFlatJSON(id, name string, subType incentive.ConferenceSubType) string {
	flat := map[string]interface{}{}
	for _, scope := range []incentive.Scope{incentive.National, incentive.International} {
		if r, ok := incentive.DefaultFlatIncentive(subType, scope); ok {
			flat[string(scope)] = reward(r.Incentive.InexactFloat64(), r.Points.InexactFloat64())
		}
	}
	return marshal(map[string]interface{}{
		"id":                  id,
		"name":                name,
		"publication_type":    string(incentive.ConferencePaper),
		"conference_sub_type": string(subType),
		"flat_incentives":     flat,
	})
}

// Presets returns one document per active-policy slot.
func Presets() []string {
	return []string{
		ResearchPaperJSON("research-paper-standard", "Research Paper Incentives"),
		BookJSON("book-standard", "Book Incentives"),
		BookChapterJSON("book-chapter-standard", "Book Chapter Incentives"),
		ConferenceScopusJSON("conference-scopus-standard", "Scopus Conference Paper Incentives"),
		ConferenceFlatJSON("conference-not-indexed-standard", "Non-indexed Conference Paper Incentives", incentive.PaperNotIndexed),
		ConferenceFlatJSON("conference-keynote-standard", "Keynote and Invited Talk Incentives", incentive.KeynoteOrInvited),
		ConferenceFlatJSON("conference-organizer-standard", "Conference Organizer Incentives", incentive.Organizer),
	}
}
