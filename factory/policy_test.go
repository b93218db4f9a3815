package factory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/research-incentives/factory"
	"github.com/warp/research-incentives/incentive"
)

const researchJSON = `{
	"id": "rp-2026",
	"name": "Research Paper Incentives 2026",
	"publication_type": "research_paper",
	"quartile_incentives": {
		"q1": {"incentive": 50000, "points": 50},
		"Q2": {"incentive": 30000, "points": 30}
	},
	"sjr_ranges": [
		{"min": 1.0, "max": 2.0, "incentive": 30000, "points": 30}
	],
	"role_percentages": {"first_author": 40, "corresponding_author": 25}
}`

const conferenceYAML = `
id: conf-keynote
name: Keynote talks
publication_type: conference_paper
conference_sub_type: keynote_or_invited
flat_incentives:
  national: {incentive: 12000, points: 12}
  international: {incentive: 24000, points: 24}
`

func TestParsePolicy_JSON(t *testing.T) {
	f := factory.NewPolicyFactory()

	policy, err := f.ParsePolicy(researchJSON)
	require.NoError(t, err)

	assert.Equal(t, incentive.ResearchPaper, policy.PublicationType)
	assert.Equal(t, 1, policy.Version, "version defaults to 1")
	require.Contains(t, policy.QuartileIncentives, incentive.Q1, "keys are normalized")
	assert.True(t, policy.QuartileIncentives[incentive.Q1].Incentive.Equal(decimal.NewFromInt(50000)))
	require.Len(t, policy.SJRRanges, 1)
	assert.True(t, policy.Rates().First.Equal(decimal.NewFromInt(40)))
	assert.True(t, policy.Rates().CoAuthorPool().Equal(decimal.NewFromInt(35)))
}

func TestParsePolicy_YAML(t *testing.T) {
	f := factory.NewPolicyFactory()

	policy, err := f.ParsePolicyYAML([]byte(conferenceYAML))
	require.NoError(t, err)

	assert.Equal(t, incentive.PolicyKey{
		PublicationType:   incentive.ConferencePaper,
		ConferenceSubType: incentive.KeynoteOrInvited,
	}, policy.Key())
	assert.True(t, policy.FlatIncentives[incentive.International].Points.Equal(decimal.NewFromInt(24)))
}

func TestParsePolicy_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", `{`},
		{"unknown publication type", `{"publication_type": "patent"}`},
		{"conference without sub type", `{"publication_type": "conference_paper"}`},
		{"unknown quartile", `{"publication_type": "research_paper", "quartile_incentives": {"Q9": {"incentive": 1, "points": 1}}}`},
		{"inverted sjr range", `{"publication_type": "research_paper", "sjr_ranges": [{"min": 2, "max": 1}]}`},
		{"negative amount", `{"publication_type": "book", "authored": {"incentive": -1, "points": 0}}`},
		{"percentages over 100", `{"publication_type": "research_paper", "role_percentages": {"first_author": 70, "corresponding_author": 40}}`},
		{"co-author percentage", `{"publication_type": "research_paper", "role_percentages": {"co_author": 10}}`},
		{"unknown indexing type", `{"publication_type": "book", "indexing_bonuses": {"wos": {"incentive": 1, "points": 0}}}`},
		{"unknown scope", `{"publication_type": "conference_paper", "conference_sub_type": "organizer", "flat_incentives": {"regional": {"incentive": 1, "points": 1}}}`},
		{"first author over 100 with default corresponding", `{"publication_type": "research_paper", "role_percentages": {"first_author": 80}}`},
		{"corresponding over 100 with default first", `{"publication_type": "research_paper", "role_percentages": {"corresponding_author": 70}}`},
		{"top tier key", `{"publication_type": "research_paper", "quartile_incentives": {"Top1": {"incentive": 100000, "points": 100}}}`},
		{"duplicate quartile", `{"publication_type": "research_paper", "quartile_incentives": {"Q1": {"incentive": 50000, "points": 50}, "q1": {"incentive": 1, "points": 1}}}`},
		{"duplicate role", `{"publication_type": "research_paper", "role_percentages": {"first_author": 30, "First-Author": 40}}`},
		{"duplicate indexing type", `{"publication_type": "book", "indexing_bonuses": {"scopus": {"incentive": 1, "points": 0}, "Scopus": {"incentive": 2, "points": 0}}}`},
		{"duplicate scope", `{"publication_type": "conference_paper", "conference_sub_type": "organizer", "flat_incentives": {"national": {"incentive": 1, "points": 1}, "National": {"incentive": 2, "points": 2}}}`},
	}

	f := factory.NewPolicyFactory()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParsePolicy(tt.doc)
			assert.Error(t, err)
		})
	}
}

func TestParsePolicy_PartialRolePercentagesUseDefault(t *testing.T) {
	// GIVEN: Only the first author rate is configured
	policy, err := factory.NewPolicyFactory().ParsePolicy(`{
		"publication_type": "research_paper",
		"role_percentages": {"first_author": 60}
	}`)
	require.NoError(t, err)

	// THEN: Corresponding keeps its default and the pair stays within 100
	rates := policy.Rates()
	assert.True(t, rates.First.Equal(decimal.NewFromInt(60)))
	assert.True(t, rates.Corresponding.Equal(incentive.DefaultCorrespondingAuthorPercentage))
	assert.True(t, rates.Combined().LessThanOrEqual(decimal.NewFromInt(100)))
}

func TestParsePolicyYAML_RejectsNonFiniteNumbers(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"infinite sjr max", `
publication_type: research_paper
sjr_ranges:
  - min: 2
    max: .inf
    incentive: 50000
    points: 50
`},
		{"nan sjr min", `
publication_type: research_paper
sjr_ranges:
  - min: .nan
    max: 1
    incentive: 1
    points: 1
`},
		{"infinite incentive", `
publication_type: book
authored:
  incentive: .inf
  points: 1
`},
		{"negative infinite points", `
publication_type: research_paper
quartile_incentives:
  Q1:
    incentive: 1
    points: -.inf
`},
		{"nan role percentage", `
publication_type: research_paper
role_percentages:
  first_author: .nan
`},
	}

	f := factory.NewPolicyFactory()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParsePolicyYAML([]byte(tt.doc))

			require.Error(t, err)
			assert.ErrorIs(t, err, incentive.ErrInvalidValue)
		})
	}
}

func TestToJSON_RoundTrip(t *testing.T) {
	f := factory.NewPolicyFactory()
	original, err := f.ParsePolicy(researchJSON)
	require.NoError(t, err)

	stored, err := f.Marshal(original)
	require.NoError(t, err)
	restored, err := f.ParsePolicy(stored)
	require.NoError(t, err)

	sub := incentive.Submission{
		PublicationType: incentive.ResearchPaper,
		Quartile:        incentive.Q1,
		Authors: []incentive.Author{
			{Category: incentive.Internal, Kind: incentive.Faculty, Role: incentive.FirstAuthor},
			{Category: incentive.Internal, Kind: incentive.Faculty, Role: incentive.CorrespondingAuthor},
			{Category: incentive.Internal, Kind: incentive.Faculty, Role: incentive.CoAuthor},
		},
	}
	before := incentive.Allocate(sub, original)
	after := incentive.Allocate(sub, restored)
	assert.Equal(t, before.TotalIncentive, after.TotalIncentive)
	for i := range before.Allocations {
		assert.Equal(t, before.Allocations[i].Incentive, after.Allocations[i].Incentive)
		assert.Equal(t, before.Allocations[i].Points, after.Allocations[i].Points)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keynote.yaml")
	require.NoError(t, os.WriteFile(path, []byte(conferenceYAML), 0o644))

	policy, err := factory.NewPolicyFactory().LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "conf-keynote", policy.ID)

	_, err = factory.NewPolicyFactory().LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
