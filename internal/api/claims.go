package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/service"
)

// ClaimsHandler handles claim endpoints.
type ClaimsHandler struct {
	Service *service.Service
}

// List handles GET /api/claims. Students only ever see their own claims.
func (h *ClaimsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.ClaimFilter{
		Status:    q.Get("status"),
		StudentID: q.Get("studentId"),
	}
	if v := q.Get("itemId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, r, model.Invalid("itemId", "must be a positive integer"))
			return
		}
		f.ItemID = id
	}

	claims, err := h.Service.ListClaims(r.Context(), callerFrom(r), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if claims == nil {
		claims = []model.Claim{}
	}
	jsonResponse(w, http.StatusOK, claims)
}

// Get handles GET /api/claims/{id}.
func (h *ClaimsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	claim, err := h.Service.GetClaim(r.Context(), callerFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, claim)
}

// Submit handles POST /api/claims.
func (h *ClaimsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitClaimRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim, err := h.Service.SubmitClaim(r.Context(), callerFrom(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, claim)
}

// Review handles PATCH /api/claims/{id}.
func (h *ClaimsHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req service.ReviewClaimRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim, err := h.Service.ReviewClaim(r.Context(), callerFrom(r), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, claim)
}

// Revise handles PATCH /api/claims/{id}/revise.
func (h *ClaimsHandler) Revise(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req service.ReviseClaimRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim, err := h.Service.ReviseClaim(r.Context(), callerFrom(r), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, claim)
}
