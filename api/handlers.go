/*
handlers.go - HTTP API handlers for the research incentive engine

PURPOSE:
  Exposes the allocation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the engine.

ENDPOINTS:
  Policies:
    GET    /api/policies                        List all policies
    POST   /api/policies                        Create (and activate) a policy
    GET    /api/policies/{id}                   Get policy details

  Allocations:
    POST   /api/allocations/preview             Live preview, nothing stored
    POST   /api/submissions/{id}/allocations    Final submit: compute and persist
    GET    /api/submissions/{id}/allocations    Latest persisted set

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - PolicyFactory: JSON to Policy conversion
  - Logger, Metrics
  - Cached active policies, one per PolicyKey

REQUEST FLOW:
  1. Decode and validate the SubmissionDTO
  2. Parse enums, check the roster
  3. Look up the active policy (cache)
  4. incentive.Allocate
  5. Serialize response (and persist on final submit)

ERROR HANDLING:
  - 400: Invalid body, unknown enum value, inconsistent roster
  - 404: Policy or allocation set not found
  - 500: Store failures
  A missing policy is NOT an error: the set comes back with
  pool_resolved=false and a warning, so the form can show it.

SECURITY NOTE:
  No authentication or authorization. Submission ownership is checked by
  the surrounding portal before it calls this service.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/warp/research-incentives/catalog"
	"github.com/warp/research-incentives/factory"
	"github.com/warp/research-incentives/incentive"
	"github.com/warp/research-incentives/store/sqlite"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store         *sqlite.Store
	PolicyFactory *factory.PolicyFactory
	Logger        *zap.Logger
	Metrics       *Metrics

	validate *validator.Validate

	// Active policies, refreshed on create
	mu        sync.RWMutex
	policies  map[incentive.PolicyKey]*incentive.Policy
	policyIDs map[incentive.PolicyKey]string
}

// NewHandler creates a new handler with the given store. A nil logger
// is replaced by a no-op logger.
func NewHandler(store *sqlite.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:         store,
		PolicyFactory: factory.NewPolicyFactory(),
		Logger:        logger,
		Metrics:       NewMetrics(),
		validate:      validator.New(),
		policies:      make(map[incentive.PolicyKey]*incentive.Policy),
		policyIDs:     make(map[incentive.PolicyKey]string),
	}
}

// LoadPolicies loads the active policies from the database into cache.
func (h *Handler) LoadPolicies(ctx context.Context) error {
	records, err := h.Store.ListActivePolicies(ctx)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.policies = make(map[incentive.PolicyKey]*incentive.Policy)
	h.policyIDs = make(map[incentive.PolicyKey]string)

	for _, r := range records {
		policy, err := h.PolicyFactory.ParsePolicy(r.ConfigJSON)
		if err != nil {
			h.Logger.Warn("Skipping invalid stored policy", zap.String("policy_id", r.ID), zap.Error(err))
			continue
		}
		h.policies[policy.Key()] = policy
		h.policyIDs[policy.Key()] = r.ID
	}
	h.Logger.Info("Active policies loaded", zap.Int("count", len(h.policies)))
	return nil
}

// SeedPresets stores the catalog presets for every slot that has no
// active policy yet, then reloads the cache.
func (h *Handler) SeedPresets(ctx context.Context) error {
	for _, doc := range catalog.Presets() {
		policy, err := h.PolicyFactory.ParsePolicy(doc)
		if err != nil {
			return err
		}
		existing, err := h.Store.GetActivePolicy(ctx, policy.Key())
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if err := h.Store.SavePolicy(ctx, policyRecord(policy, doc, true)); err != nil {
			return err
		}
		h.Logger.Info("Seeded preset policy", zap.String("policy_id", policy.ID), zap.Stringer("key", policy.Key()))
	}
	return h.LoadPolicies(ctx)
}

func (h *Handler) activePolicy(key incentive.PolicyKey) (*incentive.Policy, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.policies[key], h.policyIDs[key]
}

func policyRecord(policy *incentive.Policy, configJSON string, active bool) sqlite.PolicyRecord {
	return sqlite.PolicyRecord{
		ID:                policy.ID,
		Name:              policy.Name,
		PublicationType:   string(policy.PublicationType),
		ConferenceSubType: string(policy.ConferenceSubType),
		ConfigJSON:        configJSON,
		Version:           policy.Version,
		Active:            active,
	}
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// ListPolicies returns all policies.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListPolicies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list policies", err)
		return
	}

	dtos := make([]PolicyDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, toPolicyDTO(rec))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePolicy validates a policy document, stores it and, unless
// "active": false is sent, makes it the active policy for its slot.
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req CreatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Config.ID == "" {
		req.Config.ID = uuid.NewString()
	}

	// Validate by parsing
	policy, err := h.PolicyFactory.FromJSON(req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid policy configuration", err)
		return
	}
	configJSON, err := h.PolicyFactory.Marshal(policy)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode policy", err)
		return
	}

	active := req.Active == nil || *req.Active
	if err := h.Store.SavePolicy(r.Context(), policyRecord(policy, configJSON, active)); err != nil {
		h.Logger.Error("Failed to save policy", zap.String("policy_id", policy.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create policy", err)
		return
	}

	h.mu.Lock()
	// The id may have been active under another key, or be re-saved as
	// inactive; either way its old slot is now empty.
	for key, id := range h.policyIDs {
		if id == policy.ID {
			delete(h.policies, key)
			delete(h.policyIDs, key)
		}
	}
	if active {
		h.policies[policy.Key()] = policy
		h.policyIDs[policy.Key()] = policy.ID
	}
	h.mu.Unlock()
	if active {
		h.Logger.Info("Policy activated", zap.String("policy_id", policy.ID), zap.Stringer("key", policy.Key()))
	}

	record, err := h.Store.GetPolicy(r.Context(), policy.ID)
	if err != nil || record == nil {
		writeError(w, http.StatusInternalServerError, "Failed to read back policy", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPolicyDTO(*record))
}

// GetPolicy returns a single policy.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.Store.GetPolicy(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get policy", err)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "Policy not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyDTO(*record))
}

func toPolicyDTO(rec sqlite.PolicyRecord) PolicyDTO {
	var config factory.PolicyJSON
	_ = json.Unmarshal([]byte(rec.ConfigJSON), &config)
	return PolicyDTO{
		ID:                rec.ID,
		Name:              rec.Name,
		PublicationType:   rec.PublicationType,
		ConferenceSubType: rec.ConferenceSubType,
		Version:           rec.Version,
		Active:            rec.Active,
		Config:            config,
		UpdatedAt:         rec.UpdatedAt,
	}
}

// =============================================================================
// ALLOCATION HANDLERS
// =============================================================================

// PreviewAllocation recomputes the split for the form as it is being
// edited. Nothing is stored.
// POST /api/allocations/preview
func (h *Handler) PreviewAllocation(w http.ResponseWriter, r *http.Request) {
	sub, ok := h.decodeSubmission(w, r)
	if !ok {
		return
	}

	set, _ := h.allocate(sub)
	writeJSON(w, http.StatusOK, NewAllocationSetDTO(set))
}

// SubmitAllocation computes the final split for a submission and persists
// it for the approval workflow.
// POST /api/submissions/{id}/allocations
func (h *Handler) SubmitAllocation(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "id")

	sub, ok := h.decodeSubmission(w, r)
	if !ok {
		return
	}

	set, policyID := h.allocate(sub)
	record := sqlite.NewAllocationSetRecord(submissionID, policyID, set)
	if err := h.Store.SaveAllocationSet(r.Context(), record); err != nil {
		h.Logger.Error("Failed to save allocation set",
			zap.String("submission_id", submissionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to save allocations", err)
		return
	}

	dto := NewAllocationSetDTO(set)
	dto.ID = record.ID
	dto.SubmissionID = submissionID
	dto.PolicyID = policyID
	dto.ComputedAt = &record.ComputedAt
	writeJSON(w, http.StatusCreated, dto)
}

// GetSubmissionAllocation returns the latest persisted set.
// GET /api/submissions/{id}/allocations
func (h *Handler) GetSubmissionAllocation(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "id")

	record, err := h.Store.GetLatestAllocationSet(r.Context(), submissionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get allocations", err)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "No allocations for submission", nil)
		return
	}
	writeJSON(w, http.StatusOK, recordToAllocationSetDTO(*record))
}

// decodeSubmission writes a 400 and returns false on any client error.
func (h *Handler) decodeSubmission(w http.ResponseWriter, r *http.Request) (incentive.Submission, bool) {
	var dto SubmissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return incentive.Submission{}, false
	}
	if err := h.validate.Struct(dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid submission", err)
		return incentive.Submission{}, false
	}

	sub, err := dto.ToSubmission()
	if err == nil {
		err = incentive.ValidateRoster(sub)
	}
	if err != nil {
		var rosterErr *incentive.RosterError
		if errors.As(err, &rosterErr) {
			writeError(w, http.StatusBadRequest, "Inconsistent author roster", err)
		} else {
			writeError(w, http.StatusBadRequest, "Invalid submission", err)
		}
		return incentive.Submission{}, false
	}
	return sub, true
}

func (h *Handler) allocate(sub incentive.Submission) (incentive.AllocationSet, string) {
	policy, policyID := h.activePolicy(sub.PolicyKey())
	set := incentive.Allocate(sub, policy)
	h.Metrics.Observe(set)

	if incentive.IsConfigurationError(set.Err()) {
		h.Logger.Warn("Allocation pool unresolved",
			zap.Stringer("key", sub.PolicyKey()),
			zap.String("condition", string(set.Condition)))
	}
	return set, policyID
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports that the process is up and the database answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Store.ListActivePolicies(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
