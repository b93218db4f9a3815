/*
Package incentive provides the research incentive allocation engine.

PURPOSE:
  Given an accepted research contribution (research paper, book, book
  chapter or conference paper), its author roster, and the active
  incentive policy for its publication type, decide how much money and
  how many points each author receives.

KEY CONCEPTS IN THIS FILE (types.go):
  - Closed enums for author category, kind and role
  - Publication metadata enums (quartile, book/conference sub-types)
  - Reward: an (incentive, points) pair
  - Submission and Author: the engine's input snapshot

DESIGN PRINCIPLES:
  1. Stateless: Allocate is a pure function of (Submission, Policy)
  2. Precision: decimal.Decimal for every intermediate value, rounding
     only when the final per-author integers are produced
  3. Closed enums: strings are parsed at the boundary, never compared
     ad hoc inside the engine

USAGE:
  sub := incentive.Submission{
      PublicationType: incentive.ResearchPaper,
      Quartile:        incentive.Q2,
      Authors: []incentive.Author{
          {Name: "A. Rahman", Category: incentive.Internal, Kind: incentive.Faculty, Role: incentive.FirstAndCorresponding},
      },
  }
  set := incentive.Allocate(sub, policy)

SEE ALSO:
  - policy.go: Policy definition
  - allocate.go: Dispatcher
  - errors.go: Error taxonomy
*/
package incentive

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AUTHOR ENUMS
// =============================================================================

// Category decides incentive eligibility.
type Category string

const (
	Internal Category = "internal"
	External Category = "external"
)

func (c Category) Valid() bool {
	return c == Internal || c == External
}

// Kind refines the category. Only Student changes the outcome (no points);
// external sub-kinds are informational.
type Kind string

const (
	Faculty             Kind = "faculty"
	Student             Kind = "student"
	Academic            Kind = "academic"
	Industry            Kind = "industry"
	InternationalAuthor Kind = "international_author"
)

func (k Kind) Valid() bool {
	switch k {
	case Faculty, Student, Academic, Industry, InternationalAuthor:
		return true
	}
	return false
}

// Role is the authorship role on research and Scopus conference papers.
// Books ignore it.
type Role string

const (
	FirstAuthor           Role = "first_author"
	CorrespondingAuthor   Role = "corresponding_author"
	FirstAndCorresponding Role = "first_and_corresponding"
	CoAuthor              Role = "co_author"
)

func (r Role) Valid() bool {
	switch r {
	case FirstAuthor, CorrespondingAuthor, FirstAndCorresponding, CoAuthor:
		return true
	}
	return false
}

// IsLead reports whether the role carries a fixed role percentage.
func (r Role) IsLead() bool {
	return r == FirstAuthor || r == CorrespondingAuthor || r == FirstAndCorresponding
}

// =============================================================================
// PUBLICATION ENUMS
// =============================================================================

type PublicationType string

const (
	ResearchPaper   PublicationType = "research_paper"
	Book            PublicationType = "book"
	BookChapter     PublicationType = "book_chapter"
	ConferencePaper PublicationType = "conference_paper"
)

func (p PublicationType) Valid() bool {
	switch p {
	case ResearchPaper, Book, BookChapter, ConferencePaper:
		return true
	}
	return false
}

// Quartile is the venue quality tier used as the primary pool key.
type Quartile string

const (
	QuartileNone Quartile = ""
	Top1         Quartile = "Top1"
	Top5         Quartile = "Top5"
	Top10        Quartile = "Top10"
	Q1           Quartile = "Q1"
	Q2           Quartile = "Q2"
	Q3           Quartile = "Q3"
	Q4           Quartile = "Q4"
)

var quartiles = []Quartile{Top1, Top5, Top10, Q1, Q2, Q3, Q4}

func (q Quartile) Valid() bool {
	for _, known := range quartiles {
		if q == known {
			return true
		}
	}
	return false
}

// IsTopTier reports whether the quartile is one of the Top-N tiers. They
// have no tier of their own and pay Q1's tier.
func (q Quartile) IsTopTier() bool {
	return q == Top1 || q == Top5 || q == Top10
}

// Normalize maps any casing of a known quartile onto its canonical value.
// Unknown values are returned trimmed but otherwise untouched.
func (q Quartile) Normalize() Quartile {
	s := strings.TrimSpace(string(q))
	for _, known := range quartiles {
		if strings.EqualFold(s, string(known)) {
			return known
		}
	}
	return Quartile(s)
}

type BookPublicationType string

const (
	Authored BookPublicationType = "authored"
	Edited   BookPublicationType = "edited"
)

func (b BookPublicationType) Valid() bool {
	return b == Authored || b == Edited
}

type BookIndexingType string

const (
	ScopusIndexed    BookIndexingType = "scopus_indexed"
	NonIndexed       BookIndexingType = "non_indexed"
	PublicationHouse BookIndexingType = "publication_house"
)

func (b BookIndexingType) Valid() bool {
	switch b {
	case ScopusIndexed, NonIndexed, PublicationHouse:
		return true
	}
	return false
}

// EarnsBonus reports whether the indexing type has a bonus entry at all.
func (b BookIndexingType) EarnsBonus() bool {
	return b == ScopusIndexed || b == PublicationHouse
}

type ConferenceSubType string

const (
	PaperNotIndexed    ConferenceSubType = "paper_not_indexed"
	PaperIndexedScopus ConferenceSubType = "paper_indexed_scopus"
	KeynoteOrInvited   ConferenceSubType = "keynote_or_invited"
	Organizer          ConferenceSubType = "organizer"
)

func (c ConferenceSubType) Valid() bool {
	switch c {
	case PaperNotIndexed, PaperIndexedScopus, KeynoteOrInvited, Organizer:
		return true
	}
	return false
}

// Scope is the national/international flag shared by books and conferences.
type Scope string

const (
	National      Scope = "national"
	International Scope = "international"
)

func (s Scope) Valid() bool {
	return s == National || s == International
}

// =============================================================================
// REWARD - (incentive, points) pair
// =============================================================================

type Reward struct {
	Incentive decimal.Decimal
	Points    decimal.Decimal
}

func NewReward(incentive, points int64) Reward {
	return Reward{Incentive: decimal.NewFromInt(incentive), Points: decimal.NewFromInt(points)}
}

func (r Reward) Add(o Reward) Reward {
	return Reward{Incentive: r.Incentive.Add(o.Incentive), Points: r.Points.Add(o.Points)}
}

func (r Reward) IsZero() bool { return r.Incentive.IsZero() && r.Points.IsZero() }

// =============================================================================
// SUBMISSION - Engine input snapshot
// =============================================================================

// Author is one roster entry. Name, Affiliation and Email are carried
// through to the output and never read by the engine.
type Author struct {
	Name        string
	Affiliation string
	Email       string
	Category    Category
	Kind        Kind
	Role        Role
}

// Submission is the snapshot the caller assembles on every recompute.
// Authors[0] is the submitting user.
type Submission struct {
	PublicationType PublicationType

	// Research paper
	Quartile Quartile
	SJR      *decimal.Decimal

	// Book and book chapter
	BookPublicationType BookPublicationType
	BookIndexingType    BookIndexingType

	// Conference paper
	ConferenceSubType   ConferenceSubType
	ProceedingsQuartile Quartile
	BestPaperAward      bool
	NotPresenting       bool

	Scope   Scope
	Authors []Author
}

// PolicyKey identifies which active policy a submission needs.
func (s Submission) PolicyKey() PolicyKey {
	key := PolicyKey{PublicationType: s.PublicationType}
	if s.PublicationType == ConferencePaper {
		key.ConferenceSubType = s.ConferenceSubType
	}
	return key
}
