/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Live preview (resolved pool, missing policy warning, roster rejection)
- Final submit persistence and read back
- Policy creation and activation
- Health and metrics endpoints
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/research-incentives/incentive"
	"github.com/warp/research-incentives/store/sqlite"
)

func newTestServer(t *testing.T, seed bool) (*Handler, *chi.Mux) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, nil)
	if seed {
		require.NoError(t, h.SeedPresets(context.Background()))
	}
	return h, NewRouter(h, nil)
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeSet(t *testing.T, rec *httptest.ResponseRecorder) AllocationSetDTO {
	t.Helper()
	var dto AllocationSetDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&dto))
	return dto
}

func researchPaper(authors ...AuthorDTO) SubmissionDTO {
	return SubmissionDTO{
		PublicationType: "research_paper",
		Quartile:        "Q1",
		Authors:         authors,
	}
}

var (
	firstAuthor = AuthorDTO{Name: "Ayesha Khan", Email: "ayesha@uni.edu", Category: "internal", Kind: "faculty", Role: "first_author"}
	corrAuthor  = AuthorDTO{Name: "Bilal Ahmed", Category: "internal", Kind: "faculty", Role: "corresponding_author"}
)

func TestPreviewAllocation_EvenPair(t *testing.T) {
	// GIVEN: Seeded presets (Q1 = 50000 / 50)
	_, router := newTestServer(t, true)

	// WHEN: Previewing a first + corresponding author pair
	rec := do(t, router, http.MethodPost, "/api/allocations/preview", researchPaper(firstAuthor, corrAuthor))

	// THEN: Both get half
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	set := decodeSet(t, rec)
	assert.True(t, set.PoolResolved)
	assert.Equal(t, "by_role", set.SplitMode)
	require.Len(t, set.Allocations, 2)
	assert.Equal(t, int64(25000), set.Allocations[0].Incentive)
	assert.Equal(t, int64(25), set.Allocations[1].Points)
	assert.Equal(t, int64(50000), set.TotalIncentive)
	assert.Empty(t, set.Warning)
}

func TestPreviewAllocation_MissingPolicyWarns(t *testing.T) {
	// GIVEN: No policies at all
	_, router := newTestServer(t, false)

	// WHEN: Previewing
	rec := do(t, router, http.MethodPost, "/api/allocations/preview", researchPaper(firstAuthor, corrAuthor))

	// THEN: 200 with zero amounts and a warning, not an error
	require.Equal(t, http.StatusOK, rec.Code)
	set := decodeSet(t, rec)
	assert.False(t, set.PoolResolved)
	assert.Equal(t, "configuration_missing", set.Condition)
	assert.NotEmpty(t, set.Warning)
	assert.Equal(t, int64(0), set.TotalIncentive)
}

func TestPreviewAllocation_RejectsBadInput(t *testing.T) {
	_, router := newTestServer(t, true)

	twoFirst := corrAuthor
	twoFirst.Role = "first_author"
	external := firstAuthor
	external.Category = "external"
	badKind := corrAuthor
	badKind.Kind = "visiting"

	tests := []struct {
		name string
		body SubmissionDTO
	}{
		{"two first authors", researchPaper(firstAuthor, twoFirst)},
		{"external submitter", researchPaper(external, corrAuthor)},
		{"unknown kind", researchPaper(firstAuthor, badKind)},
		{"empty roster", researchPaper()},
		{"unknown publication type", SubmissionDTO{PublicationType: "patent", Authors: []AuthorDTO{firstAuthor}}},
		{"unknown quartile", SubmissionDTO{PublicationType: "research_paper", Quartile: "Q9", Authors: []AuthorDTO{firstAuthor}}},
		{"bad email", researchPaper(AuthorDTO{Name: "X", Email: "not-an-email", Category: "internal", Kind: "faculty"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/allocations/preview", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestPreviewAllocation_BookDefaultsRoleToCoAuthor(t *testing.T) {
	_, router := newTestServer(t, true)

	rec := do(t, router, http.MethodPost, "/api/allocations/preview", SubmissionDTO{
		PublicationType:     "book",
		BookPublicationType: "authored",
		Authors: []AuthorDTO{
			{Name: "A", Category: "internal", Kind: "faculty"},
			{Name: "B", Category: "internal", Kind: "student"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	set := decodeSet(t, rec)
	assert.Equal(t, "equal", set.SplitMode)
	assert.Equal(t, "co_author", set.Allocations[0].Role)
	assert.Equal(t, int64(20000), set.Allocations[1].Incentive)
	assert.Equal(t, int64(0), set.Allocations[1].Points, "students earn no points")
}

func TestSubmitAllocation_PersistsAndReadsBack(t *testing.T) {
	// GIVEN: Seeded presets
	_, router := newTestServer(t, true)

	// WHEN: Submitting the final form
	rec := do(t, router, http.MethodPost, "/api/submissions/sub-42/allocations", researchPaper(firstAuthor, corrAuthor))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	submitted := decodeSet(t, rec)

	// THEN: The stored set comes back unchanged
	rec = do(t, router, http.MethodGet, "/api/submissions/sub-42/allocations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stored := decodeSet(t, rec)

	assert.NotEmpty(t, submitted.ID)
	assert.Equal(t, submitted.ID, stored.ID)
	assert.Equal(t, "research-paper-standard", stored.PolicyID)
	assert.Equal(t, "sub-42", stored.SubmissionID)
	assert.Equal(t, submitted.TotalIncentive, stored.TotalIncentive)
	require.Len(t, stored.Allocations, 2)
	assert.Equal(t, "Ayesha Khan", stored.Allocations[0].Name)
	assert.Equal(t, int64(25000), stored.Allocations[0].Incentive)
}

func TestGetSubmissionAllocation_NotFound(t *testing.T) {
	_, router := newTestServer(t, false)

	rec := do(t, router, http.MethodGet, "/api/submissions/missing/allocations", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePolicy_ReplacesActivePreset(t *testing.T) {
	// GIVEN: Seeded presets
	h, router := newTestServer(t, true)

	// WHEN: Posting a new research paper policy
	rec := do(t, router, http.MethodPost, "/api/policies", map[string]any{
		"config": map[string]any{
			"id":               "rp-2027",
			"name":             "Research 2027",
			"publication_type": "research_paper",
			"quartile_incentives": map[string]any{
				"Q1": map[string]any{"incentive": 80000, "points": 80},
			},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// THEN: The preview uses it, and the preset is no longer active
	rec = do(t, router, http.MethodPost, "/api/allocations/preview", researchPaper(firstAuthor, corrAuthor))
	set := decodeSet(t, rec)
	assert.Equal(t, int64(40000), set.Allocations[0].Incentive)

	preset, err := h.Store.GetPolicy(context.Background(), "research-paper-standard")
	require.NoError(t, err)
	assert.False(t, preset.Active)

	rec = do(t, router, http.MethodGet, "/api/policies/rp-2027", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dto PolicyDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&dto))
	assert.True(t, dto.Active)
	assert.Equal(t, "Research 2027", dto.Config.Name)
}

func TestCreatePolicy_MovedIDLeavesOldSlotEmpty(t *testing.T) {
	// GIVEN: A custom book policy is active
	h, router := newTestServer(t, false)
	rec := do(t, router, http.MethodPost, "/api/policies", map[string]any{
		"config": map[string]any{"id": "custom", "name": "Custom", "publication_type": "book"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// WHEN: The same id is re-posted as a research paper policy
	rec = do(t, router, http.MethodPost, "/api/policies", map[string]any{
		"config": map[string]any{
			"id":               "custom",
			"name":             "Custom",
			"publication_type": "research_paper",
			"quartile_incentives": map[string]any{
				"Q1": map[string]any{"incentive": 50000, "points": 50},
			},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// THEN: Only the research paper slot serves it
	policy, _ := h.activePolicy(incentive.PolicyKey{PublicationType: incentive.Book})
	assert.Nil(t, policy)
	policy, id := h.activePolicy(incentive.PolicyKey{PublicationType: incentive.ResearchPaper})
	require.NotNil(t, policy)
	assert.Equal(t, "custom", id)

	rec = do(t, router, http.MethodPost, "/api/allocations/preview", SubmissionDTO{
		PublicationType:     "book",
		BookPublicationType: "authored",
		Authors:             []AuthorDTO{{Name: "A", Category: "internal", Kind: "faculty"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, string(incentive.ConditionConfigurationMissing), decodeSet(t, rec).Condition)
}

func TestSubmissionDTO_RejectsNonFiniteSJR(t *testing.T) {
	for _, v := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		dto := researchPaper(firstAuthor, corrAuthor)
		dto.SJR = &v

		_, err := dto.ToSubmission()

		require.Error(t, err)
		assert.ErrorIs(t, err, incentive.ErrInvalidValue)
	}
}

func TestCreatePolicy_InvalidConfig(t *testing.T) {
	_, router := newTestServer(t, false)

	rec := do(t, router, http.MethodPost, "/api/policies", map[string]any{
		"config": map[string]any{"publication_type": "conference_paper"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPolicies_Presets(t *testing.T) {
	_, router := newTestServer(t, true)

	rec := do(t, router, http.MethodGet, "/api/policies", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var dtos []PolicyDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&dtos))
	assert.Len(t, dtos, 7)
}

func TestGetPolicy_NotFound(t *testing.T) {
	_, router := newTestServer(t, false)

	rec := do(t, router, http.MethodGet, "/api/policies/nope", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSeedPresets_KeepsExistingActivePolicy(t *testing.T) {
	h, router := newTestServer(t, true)
	rec := do(t, router, http.MethodPost, "/api/policies", map[string]any{
		"config": map[string]any{"id": "book-custom", "name": "Custom", "publication_type": "book"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.NoError(t, h.SeedPresets(context.Background()))

	policy, id := h.activePolicy(incentive.PolicyKey{PublicationType: incentive.Book})
	require.NotNil(t, policy)
	assert.Equal(t, "book-custom", id)
}

func TestHealthAndMetrics(t *testing.T) {
	_, router := newTestServer(t, true)

	rec := do(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	do(t, router, http.MethodPost, "/api/allocations/preview", researchPaper(firstAuthor, corrAuthor))
	do(t, router, http.MethodPost, "/api/allocations/preview", SubmissionDTO{
		PublicationType: "conference_paper",
		Authors:         []AuthorDTO{firstAuthor},
	})

	rec = do(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `incentive_allocations_total{mode="by_role",publication_type="research_paper"} 1`), body)
	assert.True(t, strings.Contains(body, `incentive_unresolved_pools_total{condition="unknown_publication_type"} 1`), body)
}
