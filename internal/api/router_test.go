package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/teamdeck/teamdeck/internal/api"
	"github.com/teamdeck/teamdeck/internal/auth"
	"github.com/teamdeck/teamdeck/internal/identity"
	"github.com/teamdeck/teamdeck/internal/rowstore"
	"github.com/teamdeck/teamdeck/internal/selection"
	"github.com/teamdeck/teamdeck/internal/team"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	router http.Handler
	rawKey string
	userID uuid.UUID
	store  *rowstore.InMemory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := rowstore.NewInMemory()
	store.SetRowDefaults("teams", rowstore.TimestampDefaults("created_at"))
	store.SetRowDefaults("team_members", rowstore.TimestampDefaults("joined_at"))

	authService := auth.NewService(store, bcrypt.MinCost)
	rawKey, prefix, hash, err := authService.GenerateKey()
	require.NoError(t, err)

	userID := uuid.New()
	_, err = store.Insert(context.Background(), "users", rowstore.Row{
		"id":             userID,
		"email":          "user@example.com",
		"api_key_prefix": prefix,
		"api_key_hash":   hash,
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := team.NewManager(store, selection.NewMemory(), identity.ContextProvider{}, logger)

	router := api.NewRouter(api.RouterDeps{
		Manager:     manager,
		AuthService: authService,
		Version:     "test",
	})

	return &testServer{router: router, rawKey: rawKey, userID: userID, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-API-Key", s.rawKey)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestRouter_RequiresAPIKey(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/teams", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RejectsInvalidAPIKey(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/teams", nil)
	req.Header.Set("X-API-Key", "td_wrongwrongwrong")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_HealthWithoutBackend(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "degraded", data.Status)
}

func TestRouter_CreateAndListTeams(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/teams", map[string]string{
		"name":        "rocket",
		"description": "launch crew",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "rocket", created.Name)
	assert.NotEmpty(t, created.ID)

	rec, env = s.do(t, http.MethodGet, "/teams", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var teams []struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &teams))
	require.Len(t, teams, 1)
	assert.Equal(t, "rocket", teams[0].Name)
	assert.Equal(t, "owner", teams[0].Role)
}

func TestRouter_CreateTeamValidation(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/teams", map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestRouter_AddMemberNotImplemented(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/teams", map[string]string{"name": "crew"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	rec, env = s.do(t, http.MethodPost, "/teams/"+created.ID+"/members", map[string]string{
		"email": "new@example.com",
		"role":  "member",
	})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_IMPLEMENTED", env.Error.Code)
}

func TestRouter_UpdateMemberRoleValidation(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPatch, "/members/"+uuid.NewString(), map[string]string{
		"role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestRouter_InitializeAndCurrentTeam(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/teams", map[string]string{"name": "alpha"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env = s.do(t, http.MethodPost, "/session/initialize", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var state struct {
		CurrentTeam *struct {
			Name string `json:"name"`
		} `json:"currentTeam"`
		Teams []json.RawMessage `json:"teams"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &state))
	require.NotNil(t, state.CurrentTeam)
	assert.Equal(t, "alpha", state.CurrentTeam.Name)
	assert.Len(t, state.Teams, 1)

	rec, env = s.do(t, http.MethodGet, "/teams/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var current struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &current))
	assert.Equal(t, "alpha", current.Name)
}

func TestRouter_SwitchCurrentTeam(t *testing.T) {
	s := newTestServer(t)

	_, env := s.do(t, http.MethodPost, "/teams", map[string]string{"name": "alpha"})
	_, env2 := s.do(t, http.MethodPost, "/teams", map[string]string{"name": "beta"})

	var alpha, beta struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		CreatedBy string `json:"createdBy"`
		CreatedAt string `json:"createdAt"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &alpha))
	require.NoError(t, json.Unmarshal(env2.Data, &beta))

	rec, env := s.do(t, http.MethodPut, "/teams/current", map[string]string{
		"id":        beta.ID,
		"name":      beta.Name,
		"createdBy": beta.CreatedBy,
		"createdAt": beta.CreatedAt,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var current struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &current))
	assert.Equal(t, beta.ID, current.ID)
}

func TestRouter_DeleteTeam(t *testing.T) {
	s := newTestServer(t)

	_, env := s.do(t, http.MethodPost, "/teams", map[string]string{"name": "doomed"})
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	rec, _ := s.do(t, http.MethodDelete, "/teams/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/teams", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var teams []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &teams))
	assert.Empty(t, teams)
}
