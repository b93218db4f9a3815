/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's closed enums and decimal values from the external API
  contract: clients send plain strings, the DTO layer parses them.

NAMING CONVENTION:
  - *DTO: Request/response types exchanged with clients
  - *Request: Request body wrappers
  - *Response: Complex response wrappers

TYPES:
  Submission:
    SubmissionDTO, AuthorDTO

  Allocation:
    AllocationSetDTO, AllocationDTO, RewardDTO

  Policy:
    PolicyDTO (wraps factory.PolicyJSON), CreatePolicyRequest

VALIDATION:
  Shape checks (required fields, non-empty roster, e-mail format) are
  validator/v10 struct tags. Enum parsing happens in ToSubmission so the
  error names the offending field and value.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/policy.go: PolicyJSON type
*/
package api

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/research-incentives/factory"
	"github.com/warp/research-incentives/incentive"
	"github.com/warp/research-incentives/store/sqlite"
)

// =============================================================================
// SUBMISSION
// =============================================================================

// AuthorDTO is one roster entry. Role may be empty for publication types
// that do not use roles; it then defaults to co_author.
type AuthorDTO struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`
	Email       string `json:"email,omitempty" yaml:"email,omitempty" validate:"omitempty,email"`
	Category    string `json:"category" yaml:"category" validate:"required"`
	Kind        string `json:"kind" yaml:"kind" validate:"required"`
	Role        string `json:"role,omitempty" yaml:"role,omitempty"`
}

// SubmissionDTO is the publication form as posted by the client.
type SubmissionDTO struct {
	PublicationType     string      `json:"publication_type" yaml:"publication_type" validate:"required"`
	Quartile            string      `json:"quartile,omitempty" yaml:"quartile,omitempty"`
	SJR                 *float64    `json:"sjr,omitempty" yaml:"sjr,omitempty" validate:"omitempty,gte=0"`
	BookPublicationType string      `json:"book_publication_type,omitempty" yaml:"book_publication_type,omitempty"`
	BookIndexingType    string      `json:"book_indexing_type,omitempty" yaml:"book_indexing_type,omitempty"`
	ConferenceSubType   string      `json:"conference_sub_type,omitempty" yaml:"conference_sub_type,omitempty"`
	ProceedingsQuartile string      `json:"proceedings_quartile,omitempty" yaml:"proceedings_quartile,omitempty"`
	BestPaperAward      bool        `json:"best_paper_award,omitempty" yaml:"best_paper_award,omitempty"`
	NotPresenting       bool        `json:"not_presenting,omitempty" yaml:"not_presenting,omitempty"`
	Scope               string      `json:"scope,omitempty" yaml:"scope,omitempty"`
	Authors             []AuthorDTO `json:"authors" yaml:"authors" validate:"required,min=1,dive"`
}

// ToSubmission parses every enum string. The first failure is returned as
// an *incentive.InvalidValueError.
func (d SubmissionDTO) ToSubmission() (incentive.Submission, error) {
	var sub incentive.Submission
	var err error

	if sub.PublicationType, err = incentive.ParsePublicationType(d.PublicationType); err != nil {
		return sub, err
	}
	if sub.Quartile, err = incentive.ParseQuartile(d.Quartile); err != nil {
		return sub, err
	}
	if sub.BookPublicationType, err = incentive.ParseBookPublicationType(d.BookPublicationType); err != nil {
		return sub, err
	}
	if sub.BookIndexingType, err = incentive.ParseBookIndexingType(d.BookIndexingType); err != nil {
		return sub, err
	}
	if sub.ConferenceSubType, err = incentive.ParseConferenceSubType(d.ConferenceSubType); err != nil {
		return sub, err
	}
	if sub.ProceedingsQuartile, err = incentive.ParseQuartile(d.ProceedingsQuartile); err != nil {
		return sub, err
	}
	if sub.Scope, err = incentive.ParseScope(d.Scope); err != nil {
		return sub, err
	}
	if d.SJR != nil {
		if math.IsNaN(*d.SJR) || math.IsInf(*d.SJR, 0) {
			return sub, &incentive.InvalidValueError{Field: "sjr", Value: fmt.Sprint(*d.SJR)}
		}
		sjr := decimal.NewFromFloat(*d.SJR)
		sub.SJR = &sjr
	}
	sub.BestPaperAward = d.BestPaperAward
	sub.NotPresenting = d.NotPresenting

	sub.Authors = make([]incentive.Author, len(d.Authors))
	for i, a := range d.Authors {
		author := incentive.Author{
			Name:        a.Name,
			Affiliation: a.Affiliation,
			Email:       a.Email,
			Role:        incentive.CoAuthor,
		}
		if author.Category, err = incentive.ParseCategory(a.Category); err != nil {
			return sub, err
		}
		if author.Kind, err = incentive.ParseKind(a.Kind); err != nil {
			return sub, err
		}
		if a.Role != "" {
			if author.Role, err = incentive.ParseRole(a.Role); err != nil {
				return sub, err
			}
		}
		sub.Authors[i] = author
	}
	return sub, nil
}

// =============================================================================
// ALLOCATION
// =============================================================================

// RewardDTO is an (incentive, points) pair.
type RewardDTO struct {
	Incentive decimal.Decimal `json:"incentive"`
	Points    decimal.Decimal `json:"points"`
}

// AllocationDTO is one author's share.
type AllocationDTO struct {
	Position         int             `json:"position"`
	Name             string          `json:"name"`
	Affiliation      string          `json:"affiliation,omitempty"`
	Email            string          `json:"email,omitempty"`
	Category         string          `json:"category"`
	Kind             string          `json:"kind"`
	Role             string          `json:"role"`
	Percentage       decimal.Decimal `json:"percentage"`
	PointsPercentage decimal.Decimal `json:"points_percentage"`
	Incentive        int64           `json:"incentive"`
	Points           int64           `json:"points"`
}

// AllocationSetDTO is the engine result as shown on the form.
type AllocationSetDTO struct {
	ID                  string          `json:"id,omitempty"`
	SubmissionID        string          `json:"submission_id,omitempty"`
	PolicyID            string          `json:"policy_id,omitempty"`
	PublicationType     string          `json:"publication_type"`
	ConferenceSubType   string          `json:"conference_sub_type,omitempty"`
	SplitMode           string          `json:"split_mode,omitempty"`
	Pool                RewardDTO       `json:"pool"`
	Allocations         []AllocationDTO `json:"allocations"`
	TotalIncentive      int64           `json:"total_incentive"`
	TotalPoints         int64           `json:"total_points"`
	ForfeitedPercentage decimal.Decimal `json:"forfeited_percentage"`
	PoolResolved        bool            `json:"pool_resolved"`
	Condition           string          `json:"condition,omitempty"`
	Warning             string          `json:"warning,omitempty"`
	ComputedAt          *time.Time      `json:"computed_at,omitempty"`
}

// NewAllocationSetDTO converts an engine result for output.
func NewAllocationSetDTO(set incentive.AllocationSet) AllocationSetDTO {
	dto := AllocationSetDTO{
		PublicationType:     string(set.PublicationType),
		ConferenceSubType:   string(set.ConferenceSubType),
		SplitMode:           string(set.Split),
		Pool:                RewardDTO{Incentive: set.Pool.Incentive, Points: set.Pool.Points},
		Allocations:         make([]AllocationDTO, len(set.Allocations)),
		TotalIncentive:      set.TotalIncentive,
		TotalPoints:         set.TotalPoints,
		ForfeitedPercentage: set.ForfeitedPercentage,
		PoolResolved:        set.PoolResolved,
		Condition:           string(set.Condition),
		Warning:             warningFor(set.Condition, set.PublicationType, set.ConferenceSubType),
	}
	for i, a := range set.Allocations {
		dto.Allocations[i] = AllocationDTO{
			Position:         a.Position,
			Name:             a.Author.Name,
			Affiliation:      a.Author.Affiliation,
			Email:            a.Author.Email,
			Category:         string(a.Author.Category),
			Kind:             string(a.Author.Kind),
			Role:             string(a.Author.Role),
			Percentage:       a.Percentage,
			PointsPercentage: a.PointsPercentage,
			Incentive:        a.Incentive,
			Points:           a.Points,
		}
	}
	return dto
}

func recordToAllocationSetDTO(rec sqlite.AllocationSetRecord) AllocationSetDTO {
	computedAt := rec.ComputedAt
	dto := AllocationSetDTO{
		ID:                  rec.ID,
		SubmissionID:        rec.SubmissionID,
		PolicyID:            rec.PolicyID,
		PublicationType:     rec.PublicationType,
		ConferenceSubType:   rec.ConferenceSubType,
		SplitMode:           rec.SplitMode,
		Pool:                RewardDTO{Incentive: rec.PoolIncentive, Points: rec.PoolPoints},
		Allocations:         make([]AllocationDTO, len(rec.Allocations)),
		TotalIncentive:      rec.TotalIncentive,
		TotalPoints:         rec.TotalPoints,
		ForfeitedPercentage: rec.ForfeitedPercentage,
		PoolResolved:        rec.PoolResolved,
		Condition:           rec.Condition,
		Warning: warningFor(incentive.Condition(rec.Condition),
			incentive.PublicationType(rec.PublicationType), incentive.ConferenceSubType(rec.ConferenceSubType)),
		ComputedAt: &computedAt,
	}
	for i, a := range rec.Allocations {
		dto.Allocations[i] = AllocationDTO{
			Position:         a.Position,
			Name:             a.AuthorName,
			Affiliation:      a.Affiliation,
			Email:            a.Email,
			Category:         a.Category,
			Kind:             a.Kind,
			Role:             a.Role,
			Percentage:       a.Percentage,
			PointsPercentage: a.PointsPercentage,
			Incentive:        a.Incentive,
			Points:           a.Points,
		}
	}
	return dto
}

// warningFor turns a non-fatal condition into a message for the form.
func warningFor(c incentive.Condition, pt incentive.PublicationType, sub incentive.ConferenceSubType) string {
	key := incentive.PolicyKey{PublicationType: pt, ConferenceSubType: sub}
	switch c {
	case incentive.ConditionConfigurationMissing:
		return "No active incentive policy for " + key.String() + "; amounts stay at zero until an administrator configures one"
	case incentive.ConditionUnknownPublicationType:
		return "Publication type " + key.String() + " has no incentive rules"
	case incentive.ConditionUnmatchedMetric:
		return "Quartile and SJR match no incentive tier"
	default:
		return ""
	}
}

// =============================================================================
// POLICY
// =============================================================================

// PolicyDTO represents a stored policy in API responses.
type PolicyDTO struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	PublicationType   string             `json:"publication_type"`
	ConferenceSubType string             `json:"conference_sub_type,omitempty"`
	Version           int                `json:"version"`
	Active            bool               `json:"active"`
	Config            factory.PolicyJSON `json:"config"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// CreatePolicyRequest creates (and by default activates) a policy.
type CreatePolicyRequest struct {
	Config factory.PolicyJSON `json:"config"`
	Active *bool              `json:"active,omitempty"`
}

// ErrorResponse is the standard error format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
