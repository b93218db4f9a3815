/*
errors.go - Error taxonomy for the allocation engine

PURPOSE:
  Allocate itself never fails: every condition resolves to a
  deterministic AllocationSet. The sentinels below let callers turn the
  set's Condition into an error they can match with errors.Is, and let
  the roster validator report precondition violations.

ERROR CATEGORIES:
  1. Configuration - no active policy, unknown publication type
  2. Metric        - quartile and SJR both unmatched (not a failure;
                     the form is usually still being edited)
  3. Client        - roster inconsistency, invalid enum value

SEE ALSO:
  - allocate.go: Sets AllocationSet.Condition
  - validate.go: Produces RosterError
*/
package incentive

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConfigurationMissing: no active policy for the publication type
	// or conference sub-type.
	ErrConfigurationMissing = errors.New("no active incentive policy")

	// ErrUnknownPublicationType: the submission names no known type.
	ErrUnknownPublicationType = errors.New("unknown publication type")

	// ErrUnmatchedMetric: neither quartile nor SJR matched a tier.
	ErrUnmatchedMetric = errors.New("quartile and sjr matched no incentive tier")

	// ErrRosterInconsistency: the roster breaks role-uniqueness rules.
	ErrRosterInconsistency = errors.New("inconsistent author roster")

	// ErrInvalidValue: an enum string could not be parsed.
	ErrInvalidValue = errors.New("invalid value")
)

// =============================================================================
// CONDITION - Reportable, non-fatal outcome carried on an AllocationSet
// =============================================================================

type Condition string

const (
	ConditionNone                   Condition = ""
	ConditionConfigurationMissing   Condition = "configuration_missing"
	ConditionUnknownPublicationType Condition = "unknown_publication_type"
	ConditionUnmatchedMetric        Condition = "unmatched_metric"
)

// Err maps the condition to its sentinel, or nil.
func (c Condition) Err() error {
	switch c {
	case ConditionConfigurationMissing:
		return ErrConfigurationMissing
	case ConditionUnknownPublicationType:
		return ErrUnknownPublicationType
	case ConditionUnmatchedMetric:
		return ErrUnmatchedMetric
	default:
		return nil
	}
}

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// RosterError describes why a roster was rejected.
type RosterError struct {
	Position int // -1 when the problem is roster-wide
	Reason   string
}

func (e *RosterError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("inconsistent author roster: %s", e.Reason)
	}
	return fmt.Sprintf("inconsistent author roster: author %d: %s", e.Position+1, e.Reason)
}

func (e *RosterError) Unwrap() error {
	return ErrRosterInconsistency
}

// InvalidValueError names the field and value that failed to parse.
type InvalidValueError struct {
	Field string
	Value string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

func (e *InvalidValueError) Unwrap() error {
	return ErrInvalidValue
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrRosterInconsistency) ||
		errors.Is(err, ErrInvalidValue)
}

// IsConfigurationError returns true if an administrator has to act.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfigurationMissing) ||
		errors.Is(err, ErrUnknownPublicationType)
}
