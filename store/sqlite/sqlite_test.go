package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/research-incentives/catalog"
	"github.com/warp/research-incentives/factory"
	"github.com/warp/research-incentives/incentive"
	"github.com/warp/research-incentives/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func bookPolicy(id string, active bool) sqlite.PolicyRecord {
	return sqlite.PolicyRecord{
		ID:              id,
		Name:            "Book " + id,
		PublicationType: string(incentive.Book),
		ConfigJSON:      catalog.BookJSON(id, "Book "+id),
		Active:          active,
	}
}

func TestSavePolicy_ActivatingDeactivatesOthers(t *testing.T) {
	// GIVEN: An active book policy
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.SavePolicy(ctx, bookPolicy("book-2025", true)))

	// WHEN: A second book policy is activated
	require.NoError(t, store.SavePolicy(ctx, bookPolicy("book-2026", true)))

	// THEN: Only the new one is active
	active, err := store.GetActivePolicy(ctx, incentive.PolicyKey{PublicationType: incentive.Book})
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "book-2026", active.ID)

	old, err := store.GetPolicy(ctx, "book-2025")
	require.NoError(t, err)
	require.NotNil(t, old)
	assert.False(t, old.Active)
}

func TestSavePolicy_OtherSlotsUntouched(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePolicy(ctx, bookPolicy("book", true)))
	require.NoError(t, store.SavePolicy(ctx, sqlite.PolicyRecord{
		ID:                "keynote",
		Name:              "Keynote",
		PublicationType:   string(incentive.ConferencePaper),
		ConferenceSubType: string(incentive.KeynoteOrInvited),
		ConfigJSON:        catalog.ConferenceFlatJSON("keynote", "Keynote", incentive.KeynoteOrInvited),
		Active:            true,
	}))

	active, err := store.ListActivePolicies(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestSavePolicy_UpsertBumpsVersion(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePolicy(ctx, bookPolicy("book", true)))
	require.NoError(t, store.SavePolicy(ctx, bookPolicy("book", true)))

	rec, err := store.GetPolicy(ctx, "book")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Version)
	assert.True(t, rec.Active)
}

func TestGetActivePolicy_NoneReturnsNil(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.SavePolicy(ctx, bookPolicy("inactive", false)))

	rec, err := store.GetActivePolicy(ctx, incentive.PolicyKey{PublicationType: incentive.Book})

	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStoredPolicyParses(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.SavePolicy(ctx, bookPolicy("book", true)))

	rec, err := store.GetPolicy(ctx, "book")
	require.NoError(t, err)

	policy, err := factory.NewPolicyFactory().ParsePolicy(rec.ConfigJSON)
	require.NoError(t, err)
	assert.Equal(t, rec.Key(), policy.Key())
}

func TestSaveAllocationSet_RoundTrip(t *testing.T) {
	// GIVEN: An allocation computed for a two-author research paper
	store := newStore(t)
	ctx := context.Background()

	policy, err := factory.NewPolicyFactory().ParsePolicy(catalog.ResearchPaperJSON("rp", "rp"))
	require.NoError(t, err)
	set := incentive.Allocate(incentive.Submission{
		PublicationType: incentive.ResearchPaper,
		Quartile:        incentive.Q1,
		Authors: []incentive.Author{
			{Name: "Ayesha", Email: "ayesha@uni.edu", Category: incentive.Internal, Kind: incentive.Faculty, Role: incentive.FirstAuthor},
			{Name: "Bilal", Category: incentive.Internal, Kind: incentive.Faculty, Role: incentive.CorrespondingAuthor},
		},
	}, policy)

	// WHEN: Persisting and reading it back
	rec := sqlite.NewAllocationSetRecord("sub-1", "rp", set)
	require.NoError(t, store.SaveAllocationSet(ctx, rec))

	got, err := store.GetLatestAllocationSet(ctx, "sub-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	// THEN: Totals and rows survive intact
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "rp", got.PolicyID)
	assert.Equal(t, string(incentive.SplitByRole), got.SplitMode)
	assert.True(t, got.PoolIncentive.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, int64(50000), got.TotalIncentive)
	assert.True(t, got.PoolResolved)
	require.Len(t, got.Allocations, 2)
	assert.Equal(t, "Ayesha", got.Allocations[0].AuthorName)
	assert.Equal(t, "ayesha@uni.edu", got.Allocations[0].Email)
	assert.True(t, got.Allocations[0].Percentage.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, int64(25000), got.Allocations[1].Incentive)
	assert.Equal(t, "", got.Allocations[1].Email)
}

func TestListAllocationSets_NewestFirst(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second"} {
		rec := sqlite.NewAllocationSetRecord("sub-1", "", incentive.AllocationSet{PublicationType: incentive.Book})
		rec.ID = id
		rec.ComputedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.SaveAllocationSet(ctx, rec))
	}

	sets, err := store.ListAllocationSets(ctx, "sub-1")
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "second", sets[0].ID)
	assert.Empty(t, sets[0].PolicyID)

	latest, err := store.GetLatestAllocationSet(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "second", latest.ID)
}

func TestGetLatestAllocationSet_UnknownSubmission(t *testing.T) {
	store := newStore(t)

	rec, err := store.GetLatestAllocationSet(context.Background(), "missing")

	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestReset(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.SavePolicy(ctx, bookPolicy("book", true)))
	require.NoError(t, store.SaveAllocationSet(ctx, sqlite.NewAllocationSetRecord("sub-1", "book", incentive.AllocationSet{})))

	require.NoError(t, store.Reset(ctx))

	policies, err := store.ListPolicies(ctx)
	require.NoError(t, err)
	assert.Empty(t, policies)
	sets, err := store.ListAllocationSets(ctx, "sub-1")
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestDeletePolicy(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.SavePolicy(ctx, bookPolicy("book", true)))

	require.NoError(t, store.DeletePolicy(ctx, "book"))

	rec, err := store.GetActivePolicy(ctx, incentive.PolicyKey{PublicationType: incentive.Book})
	require.NoError(t, err)
	assert.Nil(t, rec)
}
