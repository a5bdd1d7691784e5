package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/teamdeck/teamdeck/internal/api/middleware"
	"github.com/teamdeck/teamdeck/internal/api/response"
	"github.com/teamdeck/teamdeck/internal/api/validation"
	"github.com/teamdeck/teamdeck/internal/team"
)

type addMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type updateMemberRoleRequest struct {
	Role string `json:"role"`
}

type memberResponse struct {
	ID       string `json:"id"`
	TeamID   string `json:"teamId"`
	UserID   string `json:"userId"`
	Role     string `json:"role"`
	JoinedAt string `json:"joinedAt"`
}

func toMemberResponse(m team.Membership) memberResponse {
	return memberResponse{
		ID:       m.ID.String(),
		TeamID:   m.TeamID.String(),
		UserID:   m.UserID.String(),
		Role:     m.Role,
		JoinedAt: m.JoinedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func toMemberResponses(members []team.Membership) []memberResponse {
	out := make([]memberResponse, len(members))
	for i, m := range members {
		out[i] = toMemberResponse(m)
	}
	return out
}

// MemberHandler handles team membership endpoints.
type MemberHandler struct {
	manager *team.Manager
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(manager *team.Manager) *MemberHandler {
	return &MemberHandler{manager: manager}
}

// List handles GET /teams/{id}/members.
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Team id must be a valid UUID", requestID)
		return
	}

	members, err := h.manager.FetchTeamMembers(r.Context(), teamID)
	if err != nil {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch team members", requestID)
		return
	}

	response.Success(w, http.StatusOK, toMemberResponses(members), requestID)
}

// Add handles POST /teams/{id}/members. The capability is unavailable:
// adding members needs an invitation workflow this service does not
// provide, so the endpoint always answers 501.
func (h *MemberHandler) Add(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Team id must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	err = h.manager.AddTeamMember(r.Context(), teamID, req.Email, req.Role)
	response.Err(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", err.Error(), requestID)
}

// UpdateRole handles PATCH /members/{id}.
func (h *MemberHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	memberID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Member id must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateMemberRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateUpdateMemberRoleRequest(validation.UpdateMemberRoleRequest{
		Role: req.Role,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	updated, err := h.manager.UpdateTeamMemberRole(r.Context(), memberID, req.Role)
	if err != nil {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update member role", requestID)
		return
	}

	response.Success(w, http.StatusOK, toMemberResponses(updated), requestID)
}

// Remove handles DELETE /members/{id}.
func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	memberID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Member id must be a valid UUID", requestID)
		return
	}

	if err := h.manager.RemoveTeamMember(r.Context(), memberID); err != nil {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to remove team member", requestID)
		return
	}

	response.NoContent(w)
}
