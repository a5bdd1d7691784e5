package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/teamdeck/teamdeck/internal/api/middleware"
	"github.com/teamdeck/teamdeck/internal/api/response"
	"github.com/teamdeck/teamdeck/internal/team"
)

type sessionResponse struct {
	CurrentTeam *teamResponse  `json:"currentTeam"`
	Teams       []teamResponse `json:"teams"`
}

type switchTeamRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedBy   string `json:"createdBy"`
	CreatedAt   string `json:"createdAt"`
	Role        string `json:"role"`
}

// SessionHandler handles session team-state endpoints.
type SessionHandler struct {
	manager *team.Manager
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(manager *team.Manager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

func (h *SessionHandler) state() sessionResponse {
	resp := sessionResponse{
		Teams: toTeamResponses(h.manager.UserTeams()),
	}
	if current := h.manager.CurrentTeam(); current != nil {
		tr := toTeamResponse(*current)
		resp.CurrentTeam = &tr
	}
	return resp
}

// Initialize handles POST /session/initialize: it refreshes the team list
// and restores the persisted team selection, then returns the resulting
// state.
func (h *SessionHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	h.manager.InitializeTeam(r.Context())
	response.Success(w, http.StatusOK, h.state(), requestID)
}

// Current handles GET /teams/current. The data is null when no team is
// selected.
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var data *teamResponse
	if current := h.manager.CurrentTeam(); current != nil {
		tr := toTeamResponse(*current)
		data = &tr
	}
	response.Success(w, http.StatusOK, data, requestID)
}

// Switch handles PUT /teams/current. The caller supplies the full team it
// is switching to; membership is not validated here, matching the
// switch-team contract.
func (h *SessionHandler) Switch(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req switchTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	teamID, err := uuid.Parse(req.ID)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Team id must be a valid UUID", requestID)
		return
	}
	createdBy, err := uuid.Parse(req.CreatedBy)
	if err != nil && req.CreatedBy != "" {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "createdBy must be a valid UUID", requestID)
		return
	}
	createdAt, err := time.Parse(time.RFC3339, req.CreatedAt)
	if err != nil && req.CreatedAt != "" {
		response.Err(w, http.StatusBadRequest, "INVALID_TIMESTAMP", "createdAt must be an RFC 3339 timestamp", requestID)
		return
	}

	h.manager.SwitchTeam(team.Team{
		ID:          teamID,
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   createdBy,
		CreatedAt:   createdAt,
		Role:        req.Role,
	})

	var data *teamResponse
	if current := h.manager.CurrentTeam(); current != nil {
		tr := toTeamResponse(*current)
		data = &tr
	}
	response.Success(w, http.StatusOK, data, requestID)
}
