package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/research-incentives/catalog"
	"github.com/warp/research-incentives/factory"
	"github.com/warp/research-incentives/incentive"
)

func TestPresets_OnePerSlot(t *testing.T) {
	// GIVEN: All preset documents
	f := factory.NewPolicyFactory()
	seen := map[incentive.PolicyKey]bool{}

	// WHEN: Parsing each one
	for _, doc := range catalog.Presets() {
		policy, err := f.ParsePolicy(doc)
		require.NoError(t, err)

		// THEN: Every slot is filled exactly once
		assert.False(t, seen[policy.Key()], "duplicate preset for %s", policy.Key())
		seen[policy.Key()] = true
	}
	assert.Len(t, seen, 7)
}

func TestResearchPaperPreset_SJRBoundaryTakesHigherTier(t *testing.T) {
	policy, err := factory.NewPolicyFactory().ParsePolicy(catalog.ResearchPaperJSON("rp", "rp"))
	require.NoError(t, err)

	boundary := policy.SJRRanges[1].Max
	sub := incentive.Submission{
		PublicationType: incentive.ResearchPaper,
		SJR:             &boundary,
		Authors:         []incentive.Author{{Category: incentive.Internal, Kind: incentive.Faculty, Role: incentive.FirstAndCorresponding}},
	}

	set := incentive.Allocate(sub, policy)

	assert.Equal(t, int64(50000), set.Allocations[0].Incentive)
}

func TestResearchPaperPreset_TopTiersPayQ1(t *testing.T) {
	// GIVEN: The research paper preset
	policy, err := factory.NewPolicyFactory().ParsePolicy(catalog.ResearchPaperJSON("rp", "rp"))
	require.NoError(t, err)

	for _, q := range []incentive.Quartile{incentive.Top1, incentive.Top5, incentive.Top10} {
		// WHEN: A Top-N journal is allocated
		set := incentive.Allocate(incentive.Submission{
			PublicationType: incentive.ResearchPaper,
			Quartile:        q,
			Authors:         []incentive.Author{{Category: incentive.Internal, Kind: incentive.Faculty, Role: incentive.FirstAndCorresponding}},
		}, policy)

		// THEN: It pays the Q1 tier
		assert.Equal(t, int64(50000), set.Allocations[0].Incentive, "%s", q)
	}
}

func TestConferenceFlatPreset_MatchesBuiltInDefaults(t *testing.T) {
	f := factory.NewPolicyFactory()
	for _, sub := range []incentive.ConferenceSubType{incentive.PaperNotIndexed, incentive.KeynoteOrInvited, incentive.Organizer} {
		policy, err := f.ParsePolicy(catalog.ConferenceFlatJSON("c", "c", sub))
		require.NoError(t, err)

		for _, scope := range []incentive.Scope{incentive.National, incentive.International} {
			want, ok := incentive.DefaultFlatIncentive(sub, scope)
			require.True(t, ok)
			assert.True(t, want.Incentive.Equal(policy.FlatIncentives[scope].Incentive), "%s/%s", sub, scope)
		}
	}
}

func TestBookPreset_ScenarioWithBonuses(t *testing.T) {
	policy, err := factory.NewPolicyFactory().ParsePolicy(catalog.BookJSON("b", "b"))
	require.NoError(t, err)

	sub := incentive.Submission{
		PublicationType:     incentive.Book,
		BookPublicationType: incentive.Authored,
		BookIndexingType:    incentive.ScopusIndexed,
		Scope:               incentive.National,
		Authors: []incentive.Author{
			{Category: incentive.Internal, Kind: incentive.Faculty},
			{Category: incentive.Internal, Kind: incentive.Faculty},
		},
	}

	set := incentive.Allocate(sub, policy)

	assert.Equal(t, int64(25000), set.Allocations[0].Incentive)
	assert.Equal(t, int64(20), set.Allocations[0].Points)
}
