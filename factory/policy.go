/*
Package factory provides JSON/YAML to Go policy conversion.

PURPOSE:
  Converts policy documents into incentive.Policy values. Administrators
  edit policies as documents (admin UI posts JSON, seed files are YAML),
  and the factory turns them into the typed structs the engine reads.
  The sqlite store keeps the JSON form; ToJSON produces it.

DOCUMENT SCHEMA (JSON shown, YAML uses the same keys):
  {
    "id": "rp-2026",
    "name": "Research Paper Incentives 2026",
    "publication_type": "research_paper",
    "quartile_incentives": {
      "Q1": {"incentive": 50000, "points": 50},
      "Q2": {"incentive": 30000, "points": 30}
    },
    "sjr_ranges": [
      {"min": 1.0, "max": 2.0, "incentive": 30000, "points": 30}
    ],
    "role_percentages": {"first_author": 35, "corresponding_author": 30}
  }

  Books add "authored", "edited", "indexing_bonuses", "international_bonus".
  Conference sub-types add "conference_sub_type" and either the quartile
  fields plus "best_paper_award_bonus", or "flat_incentives" keyed by
  "national" / "international".

VALIDATION:
  - Every enum string must parse (publication type, quartiles, scopes,
    indexing types, roles), and no two keys may name the same value
  - Top1/Top5/Top10 are not keys; those journals pay the Q1 tier
  - Numbers are finite, amounts are non-negative, SJR ranges have
    min <= max
  - Role percentages are within [0, 100], and the first and
    corresponding rates sum to at most 100 once defaults fill the
    missing role

USAGE:
  f := factory.NewPolicyFactory()
  policy, err := f.ParsePolicy(jsonString)
  policy, err = f.ParsePolicyYAML(yamlBytes)

SEE ALSO:
  - incentive/policy.go: Policy type definition
  - catalog/catalog.go: Preset documents
*/
package factory

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/research-incentives/incentive"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// PolicyJSON is the document representation of a policy.
type PolicyJSON struct {
	ID                  string                `json:"id" yaml:"id"`
	Name                string                `json:"name" yaml:"name"`
	PublicationType     string                `json:"publication_type" yaml:"publication_type"`
	ConferenceSubType   string                `json:"conference_sub_type,omitempty" yaml:"conference_sub_type,omitempty"`
	Version             int                   `json:"version,omitempty" yaml:"version,omitempty"`
	QuartileIncentives  map[string]RewardJSON `json:"quartile_incentives,omitempty" yaml:"quartile_incentives,omitempty"`
	SJRRanges           []SJRRangeJSON        `json:"sjr_ranges,omitempty" yaml:"sjr_ranges,omitempty"`
	RolePercentages     map[string]float64    `json:"role_percentages,omitempty" yaml:"role_percentages,omitempty"`
	InternationalBonus  *RewardJSON           `json:"international_bonus,omitempty" yaml:"international_bonus,omitempty"`
	BestPaperAwardBonus *RewardJSON           `json:"best_paper_award_bonus,omitempty" yaml:"best_paper_award_bonus,omitempty"`
	Authored            *RewardJSON           `json:"authored,omitempty" yaml:"authored,omitempty"`
	Edited              *RewardJSON           `json:"edited,omitempty" yaml:"edited,omitempty"`
	IndexingBonuses     map[string]RewardJSON `json:"indexing_bonuses,omitempty" yaml:"indexing_bonuses,omitempty"`
	FlatIncentives      map[string]RewardJSON `json:"flat_incentives,omitempty" yaml:"flat_incentives,omitempty"`
}

// RewardJSON is an (incentive, points) pair.
type RewardJSON struct {
	Incentive float64 `json:"incentive" yaml:"incentive"`
	Points    float64 `json:"points" yaml:"points"`
}

// SJRRangeJSON is an inclusive SJR band.
type SJRRangeJSON struct {
	Min       float64 `json:"min" yaml:"min"`
	Max       float64 `json:"max" yaml:"max"`
	Incentive float64 `json:"incentive" yaml:"incentive"`
	Points    float64 `json:"points" yaml:"points"`
}

// =============================================================================
// POLICY FACTORY
// =============================================================================

// PolicyFactory converts policy documents to Go structs.
type PolicyFactory struct{}

// NewPolicyFactory creates a new policy factory.
func NewPolicyFactory() *PolicyFactory {
	return &PolicyFactory{}
}

// ParsePolicy parses a JSON string into a Policy.
func (f *PolicyFactory) ParsePolicy(jsonStr string) (*incentive.Policy, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("failed to parse policy JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// ParsePolicyYAML parses a YAML document into a Policy.
func (f *PolicyFactory) ParsePolicyYAML(data []byte) (*incentive.Policy, error) {
	var pj PolicyJSON
	if err := yaml.Unmarshal(data, &pj); err != nil {
		return nil, fmt.Errorf("failed to parse policy YAML: %w", err)
	}
	return f.FromJSON(pj)
}

// LoadFile reads a .json, .yaml or .yml policy document.
func (f *PolicyFactory) LoadFile(path string) (*incentive.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return f.ParsePolicyYAML(data)
	default:
		return f.ParsePolicy(string(data))
	}
}

// FromJSON converts a PolicyJSON to incentive.Policy, validating every field.
func (f *PolicyFactory) FromJSON(pj PolicyJSON) (*incentive.Policy, error) {
	pubType, err := incentive.ParsePublicationType(pj.PublicationType)
	if err != nil {
		return nil, err
	}

	policy := &incentive.Policy{
		ID:              pj.ID,
		Name:            pj.Name,
		PublicationType: pubType,
		Version:         pj.Version,
	}
	if policy.Version == 0 {
		policy.Version = 1
	}

	if pubType == incentive.ConferencePaper {
		sub, err := incentive.ParseConferenceSubType(pj.ConferenceSubType)
		if err != nil {
			return nil, err
		}
		if sub == "" {
			return nil, fmt.Errorf("conference policy %q requires conference_sub_type", pj.ID)
		}
		policy.ConferenceSubType = sub
	}

	if policy.QuartileIncentives, err = parseQuartiles(pj.QuartileIncentives); err != nil {
		return nil, err
	}
	if policy.SJRRanges, err = parseSJRRanges(pj.SJRRanges); err != nil {
		return nil, err
	}
	if policy.RolePercentages, err = parseRolePercentages(pj.RolePercentages); err != nil {
		return nil, err
	}
	// A single configured role is paired with the other role's default.
	if combined := policy.Rates().Combined(); combined.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("role_percentages: first and corresponding rates sum to %s, exceeding 100", combined)
	}
	if policy.IndexingBonuses, err = parseIndexingBonuses(pj.IndexingBonuses); err != nil {
		return nil, err
	}
	if policy.FlatIncentives, err = parseFlatIncentives(pj.FlatIncentives); err != nil {
		return nil, err
	}

	rewards := []struct {
		field string
		src   *RewardJSON
		dst   *incentive.Reward
	}{
		{"international_bonus", pj.InternationalBonus, &policy.InternationalBonus},
		{"best_paper_award_bonus", pj.BestPaperAwardBonus, &policy.BestPaperAwardBonus},
		{"authored", pj.Authored, &policy.AuthoredReward},
		{"edited", pj.Edited, &policy.EditedReward},
	}
	for _, r := range rewards {
		if r.src == nil {
			continue
		}
		if *r.dst, err = parseReward(r.field, *r.src); err != nil {
			return nil, err
		}
	}

	return policy, nil
}

// ToJSON converts a Policy to PolicyJSON.
func (f *PolicyFactory) ToJSON(policy *incentive.Policy) PolicyJSON {
	pj := PolicyJSON{
		ID:                policy.ID,
		Name:              policy.Name,
		PublicationType:   string(policy.PublicationType),
		ConferenceSubType: string(policy.ConferenceSubType),
		Version:           policy.Version,
	}

	if len(policy.QuartileIncentives) > 0 {
		pj.QuartileIncentives = make(map[string]RewardJSON, len(policy.QuartileIncentives))
		for q, r := range policy.QuartileIncentives {
			pj.QuartileIncentives[string(q)] = toRewardJSON(r)
		}
	}
	for _, r := range policy.SJRRanges {
		pj.SJRRanges = append(pj.SJRRanges, SJRRangeJSON{
			Min:       r.Min.InexactFloat64(),
			Max:       r.Max.InexactFloat64(),
			Incentive: r.Reward.Incentive.InexactFloat64(),
			Points:    r.Reward.Points.InexactFloat64(),
		})
	}
	if len(policy.RolePercentages) > 0 {
		pj.RolePercentages = make(map[string]float64, len(policy.RolePercentages))
		for role, pct := range policy.RolePercentages {
			pj.RolePercentages[string(role)] = pct.InexactFloat64()
		}
	}
	if len(policy.IndexingBonuses) > 0 {
		pj.IndexingBonuses = make(map[string]RewardJSON, len(policy.IndexingBonuses))
		for k, r := range policy.IndexingBonuses {
			pj.IndexingBonuses[string(k)] = toRewardJSON(r)
		}
	}
	if len(policy.FlatIncentives) > 0 {
		pj.FlatIncentives = make(map[string]RewardJSON, len(policy.FlatIncentives))
		for k, r := range policy.FlatIncentives {
			pj.FlatIncentives[string(k)] = toRewardJSON(r)
		}
	}

	pj.InternationalBonus = optionalReward(policy.InternationalBonus)
	pj.BestPaperAwardBonus = optionalReward(policy.BestPaperAwardBonus)
	pj.Authored = optionalReward(policy.AuthoredReward)
	pj.Edited = optionalReward(policy.EditedReward)

	return pj
}

// Marshal returns the JSON form used for storage.
func (f *PolicyFactory) Marshal(policy *incentive.Policy) (string, error) {
	data, err := json.Marshal(f.ToJSON(policy))
	if err != nil {
		return "", fmt.Errorf("failed to marshal policy: %w", err)
	}
	return string(data), nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// finite converts v, rejecting NaN and infinities, which decimal cannot hold.
func finite(field string, v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, &incentive.InvalidValueError{Field: field, Value: fmt.Sprint(v)}
	}
	return decimal.NewFromFloat(v), nil
}

func parseReward(field string, rj RewardJSON) (incentive.Reward, error) {
	amount, err := finite(field+".incentive", rj.Incentive)
	if err != nil {
		return incentive.Reward{}, err
	}
	points, err := finite(field+".points", rj.Points)
	if err != nil {
		return incentive.Reward{}, err
	}
	if amount.IsNegative() || points.IsNegative() {
		return incentive.Reward{}, fmt.Errorf("%s: amounts must be non-negative", field)
	}
	return incentive.Reward{Incentive: amount, Points: points}, nil
}

func duplicateKey(section, first, second string) error {
	return fmt.Errorf("%s: keys %q and %q name the same value", section, first, second)
}

func parseQuartiles(m map[string]RewardJSON) (map[incentive.Quartile]incentive.Reward, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[incentive.Quartile]incentive.Reward, len(m))
	seen := make(map[incentive.Quartile]string, len(m))
	for k, rj := range m {
		q, err := incentive.ParseQuartile(k)
		if err != nil || q == incentive.QuartileNone {
			return nil, fmt.Errorf("quartile_incentives: %w", &incentive.InvalidValueError{Field: "quartile", Value: k})
		}
		if q.IsTopTier() {
			return nil, fmt.Errorf("quartile_incentives: %w (Top tiers pay the Q1 tier)", &incentive.InvalidValueError{Field: "quartile", Value: k})
		}
		if prev, ok := seen[q]; ok {
			return nil, duplicateKey("quartile_incentives", prev, k)
		}
		seen[q] = k
		if out[q], err = parseReward("quartile_incentives."+k, rj); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseSJRRanges(ranges []SJRRangeJSON) ([]incentive.SJRRange, error) {
	var out []incentive.SJRRange
	for i, rj := range ranges {
		field := fmt.Sprintf("sjr_ranges[%d]", i)
		lo, err := finite(field+".min", rj.Min)
		if err != nil {
			return nil, err
		}
		hi, err := finite(field+".max", rj.Max)
		if err != nil {
			return nil, err
		}
		if lo.GreaterThan(hi) {
			return nil, fmt.Errorf("%s: min %s greater than max %s", field, lo, hi)
		}
		reward, err := parseReward(field, RewardJSON{Incentive: rj.Incentive, Points: rj.Points})
		if err != nil {
			return nil, err
		}
		out = append(out, incentive.SJRRange{Min: lo, Max: hi, Reward: reward})
	}
	return out, nil
}

func parseRolePercentages(m map[string]float64) (map[incentive.Role]decimal.Decimal, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[incentive.Role]decimal.Decimal, len(m))
	seen := make(map[incentive.Role]string, len(m))
	for k, v := range m {
		role, err := incentive.ParseRole(k)
		if err != nil {
			return nil, fmt.Errorf("role_percentages: %w", err)
		}
		if role != incentive.FirstAuthor && role != incentive.CorrespondingAuthor {
			return nil, fmt.Errorf("role_percentages: only first_author and corresponding_author are configurable, got %q", k)
		}
		if prev, ok := seen[role]; ok {
			return nil, duplicateKey("role_percentages", prev, k)
		}
		seen[role] = k
		pct, err := finite("role_percentages."+k, v)
		if err != nil {
			return nil, err
		}
		if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return nil, fmt.Errorf("role_percentages.%s: %s outside [0, 100]", k, pct)
		}
		out[role] = pct
	}
	return out, nil
}

func parseIndexingBonuses(m map[string]RewardJSON) (map[incentive.BookIndexingType]incentive.Reward, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[incentive.BookIndexingType]incentive.Reward, len(m))
	seen := make(map[incentive.BookIndexingType]string, len(m))
	for k, rj := range m {
		it, err := incentive.ParseBookIndexingType(k)
		if err != nil || it == "" {
			return nil, fmt.Errorf("indexing_bonuses: %w", &incentive.InvalidValueError{Field: "book_indexing_type", Value: k})
		}
		if prev, ok := seen[it]; ok {
			return nil, duplicateKey("indexing_bonuses", prev, k)
		}
		seen[it] = k
		if out[it], err = parseReward("indexing_bonuses."+k, rj); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseFlatIncentives(m map[string]RewardJSON) (map[incentive.Scope]incentive.Reward, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[incentive.Scope]incentive.Reward, len(m))
	seen := make(map[incentive.Scope]string, len(m))
	for k, rj := range m {
		if strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("flat_incentives: %w", &incentive.InvalidValueError{Field: "scope", Value: k})
		}
		scope, err := incentive.ParseScope(k)
		if err != nil {
			return nil, fmt.Errorf("flat_incentives: %w", err)
		}
		if prev, ok := seen[scope]; ok {
			return nil, duplicateKey("flat_incentives", prev, k)
		}
		seen[scope] = k
		if out[scope], err = parseReward("flat_incentives."+k, rj); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func toRewardJSON(r incentive.Reward) RewardJSON {
	return RewardJSON{Incentive: r.Incentive.InexactFloat64(), Points: r.Points.InexactFloat64()}
}

func optionalReward(r incentive.Reward) *RewardJSON {
	if r.IsZero() {
		return nil
	}
	rj := toRewardJSON(r)
	return &rj
}
