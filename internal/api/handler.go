package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/opensource-finance/adjudicator/internal/claims"
	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/opensource-finance/adjudicator/internal/policy"
	"github.com/opensource-finance/adjudicator/internal/request"
	"github.com/opensource-finance/adjudicator/internal/underwriting"
)

// pinger is any collaborator with a health check.
type pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies for API handlers.
type Handler struct {
	claims       *claims.Service
	underwriting *underwriting.Service
	policies     *policy.Service
	validator    *request.Validator
	checks       map[string]pinger
	version      string
}

// NewHandler creates a new API handler.
func NewHandler(deps Dependencies) *Handler {
	checks := make(map[string]pinger)
	if deps.Repo != nil {
		checks["repository"] = deps.Repo
	}
	if deps.Cache != nil {
		checks["cache"] = deps.Cache
	}
	if deps.Bus != nil {
		checks["eventBus"] = deps.Bus
	}

	return &Handler{
		claims:       deps.Claims,
		underwriting: deps.Underwriting,
		policies:     deps.Policies,
		validator:    deps.Validator,
		checks:       checks,
		version:      deps.Version,
	}
}

// Health reports the service version and the state of each collaborator.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	components := make(map[string]string, len(h.checks))

	for name, c := range h.checks {
		if err := c.Ping(r.Context()); err != nil {
			components[name] = "down"
			status = "degraded"
			continue
		}
		components[name] = "up"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     status,
		"version":    h.version,
		"components": components,
	})
}

// Ready returns 503 until the repository answers.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if repo, ok := h.checks["repository"]; ok {
		if err := repo.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"ready": "false",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// ============================================================================
// CLAIM HANDLERS
// ============================================================================

// FileClaim handles POST /api/claims.
func (h *Handler) FileClaim(w http.ResponseWriter, r *http.Request) {
	var req request.FileClaim
	if !h.decode(w, r, &req) {
		return
	}

	claim, err := h.claims.File(r.Context(), req.ToService())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, claim)
}

// GetClaim handles GET /api/claims/{id}.
func (h *Handler) GetClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	claim, err := h.claims.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

// GetClaimByNumber handles GET /api/claims/number/{claimNumber}.
func (h *Handler) GetClaimByNumber(w http.ResponseWriter, r *http.Request) {
	claim, err := h.claims.GetByNumber(r.Context(), chi.URLParam(r, "claimNumber"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

// ListClaimsByCustomer handles GET /api/claims/customer/{customerId}.
func (h *Handler) ListClaimsByCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "customerId")
	if !ok {
		return
	}

	list, err := h.claims.ListByCustomer(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ListClaimsByPolicy handles GET /api/claims/policy/{policyId}.
func (h *Handler) ListClaimsByPolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "policyId")
	if !ok {
		return
	}

	list, err := h.claims.ListByPolicy(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ListClaimsByStatus handles GET /api/claims?status=.
func (h *Handler) ListClaimsByStatus(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		writeError(w, r, domain.NewValidationError("status", "is required"))
		return
	}

	list, err := h.claims.ListByStatus(r.Context(), domain.ClaimStatus(status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ApproveClaim handles POST /api/claims/{id}/approve.
func (h *Handler) ApproveClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req request.ApproveClaim
	if !h.decode(w, r, &req) {
		return
	}

	claim, err := h.claims.Approve(r.Context(), id, req.ToService())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

// SettleClaim handles POST /api/claims/{id}/settle.
func (h *Handler) SettleClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	claim, err := h.claims.Settle(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

// RejectClaim handles POST /api/claims/{id}/reject.
func (h *Handler) RejectClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req request.RejectClaim
	if !h.decode(w, r, &req) {
		return
	}

	claim, err := h.claims.Reject(r.Context(), id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

// ============================================================================
// UNDERWRITING HANDLERS
// ============================================================================

// CreateCase handles POST /api/underwriting/cases.
func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req request.CreateCase
	if !h.decode(w, r, &req) {
		return
	}

	uc, err := h.underwriting.Create(r.Context(), req.ToService())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, uc)
}

// GetCase handles GET /api/underwriting/cases/{id}.
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	uc, err := h.underwriting.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uc)
}

// ListCasesByPolicy handles GET /api/underwriting/cases/policy/{policyId}.
func (h *Handler) ListCasesByPolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "policyId")
	if !ok {
		return
	}

	list, err := h.underwriting.ListByPolicy(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ReviewCase handles POST /api/underwriting/cases/{id}/review.
func (h *Handler) ReviewCase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req request.ReviewCase
	if !h.decode(w, r, &req) {
		return
	}

	uc, err := h.underwriting.Review(r.Context(), id, req.ToService())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uc)
}

// ============================================================================
// POLICY HANDLERS
// ============================================================================

// CreatePolicy handles POST /api/policies.
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePolicy
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.policies.Create(r.Context(), req.ToService())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetPolicy handles GET /api/policies/{id}.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.policies.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListPoliciesByCustomer handles GET /api/policies/customer/{customerId}.
func (h *Handler) ListPoliciesByCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "customerId")
	if !ok {
		return
	}

	list, err := h.policies.ListByCustomer(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ActivatePolicy handles POST /api/policies/{id}/activate.
func (h *Handler) ActivatePolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.policies.Activate(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// RenewPolicy handles POST /api/policies/{id}/renew.
func (h *Handler) RenewPolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.policies.Renew(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CancelPolicy handles POST /api/policies/{id}/cancel. The body is optional.
func (h *Handler) CancelPolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req request.CancelPolicy
	if r.ContentLength != 0 {
		if !h.decode(w, r, &req) {
			return
		}
	}

	p, err := h.policies.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// decode parses and validates the JSON body into v, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, "invalid JSON request body")
		return false
	}
	if err := h.validator.Struct(v); err != nil {
		writeError(w, r, err)
		return false
	}
	return true
}

// pathID parses a numeric path parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
