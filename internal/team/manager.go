package team

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/teamdeck/teamdeck/internal/identity"
	"github.com/teamdeck/teamdeck/internal/rowstore"
	"github.com/teamdeck/teamdeck/internal/selection"
)

// ErrTeamNotFound is returned when a team record is not found.
var ErrTeamNotFound = errors.New("team not found")

// ErrInvitationsNotSupported is returned by AddTeamMember. Adding members
// requires an invitation workflow this service does not provide; callers
// must treat the capability as unavailable.
var ErrInvitationsNotSupported = errors.New("team member invitations are not supported: adding members requires an invitation workflow")

// ErrNoFields is returned when a partial update carries no fields.
var ErrNoFields = errors.New("no fields to update")

// Manager maintains the session-scoped view of the teams the signed-in
// user can access and which one is current, and keeps that view correct
// after each mutation.
//
// All rows are owned by the backend store; the manager only holds
// transient derived copies plus the persisted current-team id. The mutex
// keeps the in-memory state safe to read from concurrent requests, but
// overlapping logical operations are not coordinated: the usage model is
// a single user driving one intent at a time.
type Manager struct {
	store    rowstore.Store
	selected selection.Store // nil when the context has no local persistence surface
	ids      identity.Provider
	logger   *slog.Logger

	mu          sync.Mutex
	currentTeam *Team
	userTeams   []Team
}

// NewManager creates a Manager. selected may be nil in execution contexts
// without a local persistence surface; selection persistence is then
// skipped.
func NewManager(store rowstore.Store, selected selection.Store, ids identity.Provider, logger *slog.Logger) *Manager {
	return &Manager{
		store:    store,
		selected: selected,
		ids:      ids,
		logger:   logger,
	}
}

// CurrentTeam returns a copy of the current team, or nil when none is
// selected.
func (m *Manager) CurrentTeam() *Team {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentTeam == nil {
		return nil
	}
	t := *m.currentTeam
	return &t
}

// UserTeams returns a copy of the teams the signed-in user belongs to,
// ordered by ascending creation time.
func (m *Manager) UserTeams() []Team {
	m.mu.Lock()
	defer m.mu.Unlock()
	teams := make([]Team, len(m.userTeams))
	copy(teams, m.userTeams)
	return teams
}

// Reset clears the in-memory state at session end.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTeam = nil
	m.userTeams = nil
}

// RefreshUserTeams rebuilds userTeams from the user's memberships: each
// team carries the role from the matching membership row, ordered by
// ascending created_at. If no current team is set and the fresh list is
// non-empty, the first team becomes current and its id is persisted.
//
// Backend errors are logged and swallowed, leaving the prior state
// unchanged; callers cannot distinguish "no teams" from "fetch failed".
// No-op when no user is signed in.
func (m *Manager) RefreshUserTeams(ctx context.Context) {
	user := m.ids.Current(ctx)
	if user == nil {
		return
	}

	memberships, err := m.store.Select(ctx, "team_members", []rowstore.Filter{
		rowstore.Eq("user_id", user.ID),
	}, nil)
	if err != nil {
		m.logger.Error("fetching user memberships", "user_id", user.ID, "error", err)
		return
	}

	var teams []Team
	if len(memberships) > 0 {
		roleByTeam := make(map[uuid.UUID]string, len(memberships))
		teamIDs := make([]uuid.UUID, 0, len(memberships))
		for _, row := range memberships {
			ms, err := membershipFromRow(row)
			if err != nil {
				m.logger.Error("decoding membership row", "user_id", user.ID, "error", err)
				return
			}
			roleByTeam[ms.TeamID] = ms.Role
			teamIDs = append(teamIDs, ms.TeamID)
		}

		rows, err := m.store.Select(ctx, "teams", []rowstore.Filter{
			rowstore.In("id", teamIDs),
		}, rowstore.Asc("created_at"))
		if err != nil {
			m.logger.Error("fetching user teams", "user_id", user.ID, "error", err)
			return
		}

		teams = make([]Team, 0, len(rows))
		for _, row := range rows {
			t, err := teamFromRow(row)
			if err != nil {
				m.logger.Error("decoding team row", "user_id", user.ID, "error", err)
				return
			}
			// The membership set drove the team query, so a match should
			// always exist; the fallback covers a membership deleted
			// between the two reads.
			role, ok := roleByTeam[t.ID]
			if !ok {
				role = RoleMember
			}
			t.Role = role
			teams = append(teams, t)
		}
	} else {
		teams = []Team{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.userTeams = teams
	if m.currentTeam == nil && len(teams) > 0 {
		t := teams[0]
		m.currentTeam = &t
		m.persistSelection(t.ID)
	}
}

// SwitchTeam makes the given team current and persists its id. No backend
// call is made, and membership is not validated; that is the caller's
// responsibility.
func (m *Manager) SwitchTeam(t Team) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := t
	m.currentTeam = &current
	m.persistSelection(t.ID)
}

// CreateTeam inserts a team owned by the signed-in user along with the
// owner membership, then refreshes the team list. When the membership
// insert fails the team row is deleted again (best effort, not
// transactional) and the membership error is returned.
//
// Returns (nil, nil) when no user is signed in: nothing is performed.
func (m *Manager) CreateTeam(ctx context.Context, name, description string) (*Team, error) {
	user := m.ids.Current(ctx)
	if user == nil {
		return nil, nil
	}

	created, err := m.store.Insert(ctx, "teams", rowstore.Row{
		"name":        name,
		"description": description,
		"created_by":  user.ID,
	})
	if err != nil {
		m.logger.Error("creating team", "name", name, "error", err)
		return nil, fmt.Errorf("creating team: %w", err)
	}

	t, err := teamFromRow(created)
	if err != nil {
		return nil, fmt.Errorf("decoding created team: %w", err)
	}

	_, err = m.store.Insert(ctx, "team_members", rowstore.Row{
		"team_id": t.ID,
		"user_id": user.ID,
		"role":    RoleOwner,
	})
	if err != nil {
		// Compensate for the half-done create; the membership error wins.
		if delErr := m.store.Delete(ctx, "teams", []rowstore.Filter{
			rowstore.Eq("id", t.ID),
		}); delErr != nil {
			m.logger.Error("rolling back team after membership insert failure", "team_id", t.ID, "error", delErr)
		}
		m.logger.Error("creating owner membership", "team_id", t.ID, "error", err)
		return nil, fmt.Errorf("creating owner membership: %w", err)
	}

	m.RefreshUserTeams(ctx)

	return &t, nil
}

// UpdateTeam applies a partial update to the team row, refreshes the team
// list, and patches the in-memory current team immediately when it is the
// one updated.
func (m *Manager) UpdateTeam(ctx context.Context, teamID uuid.UUID, update TeamUpdate) (*Team, error) {
	fields := rowstore.Row{}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.Description != nil {
		fields["description"] = *update.Description
	}
	if len(fields) == 0 {
		return nil, ErrNoFields
	}

	rows, err := m.store.Update(ctx, "teams", []rowstore.Filter{
		rowstore.Eq("id", teamID),
	}, fields)
	if err != nil {
		m.logger.Error("updating team", "team_id", teamID, "error", err)
		return nil, fmt.Errorf("updating team: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrTeamNotFound
	}

	t, err := teamFromRow(rows[0])
	if err != nil {
		return nil, fmt.Errorf("decoding updated team: %w", err)
	}

	m.RefreshUserTeams(ctx)

	m.mu.Lock()
	if m.currentTeam != nil && m.currentTeam.ID == teamID {
		if update.Name != nil {
			m.currentTeam.Name = *update.Name
		}
		if update.Description != nil {
			m.currentTeam.Description = *update.Description
		}
	}
	m.mu.Unlock()

	return &t, nil
}

// DeleteTeam deletes the team row. If the team was current, a replacement
// is selected from the remaining pre-refresh list: its first team, or no
// current team when none remain. The team list is then refreshed.
func (m *Manager) DeleteTeam(ctx context.Context, teamID uuid.UUID) error {
	if err := m.store.Delete(ctx, "teams", []rowstore.Filter{
		rowstore.Eq("id", teamID),
	}); err != nil {
		m.logger.Error("deleting team", "team_id", teamID, "error", err)
		return fmt.Errorf("deleting team: %w", err)
	}

	m.replaceCurrentIfGone(teamID)
	m.RefreshUserTeams(ctx)
	return nil
}

// FetchTeamMembers returns the team's membership rows ordered by
// ascending joined_at. Pure read; no state is mutated.
func (m *Manager) FetchTeamMembers(ctx context.Context, teamID uuid.UUID) ([]Membership, error) {
	rows, err := m.store.Select(ctx, "team_members", []rowstore.Filter{
		rowstore.Eq("team_id", teamID),
	}, rowstore.Asc("joined_at"))
	if err != nil {
		m.logger.Error("fetching team members", "team_id", teamID, "error", err)
		return nil, fmt.Errorf("fetching team members: %w", err)
	}

	members := make([]Membership, 0, len(rows))
	for _, row := range rows {
		ms, err := membershipFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("decoding membership row: %w", err)
		}
		members = append(members, ms)
	}
	return members, nil
}

// AddTeamMember always fails with ErrInvitationsNotSupported and never
// contacts the backend.
func (m *Manager) AddTeamMember(_ context.Context, _ uuid.UUID, _ string, _ string) error {
	return ErrInvitationsNotSupported
}

// UpdateTeamMemberRole updates a membership row's role and returns the
// updated rows. The team list is not refreshed; callers refetch member
// lists as needed.
func (m *Manager) UpdateTeamMemberRole(ctx context.Context, memberID uuid.UUID, role string) ([]Membership, error) {
	rows, err := m.store.Update(ctx, "team_members", []rowstore.Filter{
		rowstore.Eq("id", memberID),
	}, rowstore.Row{"role": role})
	if err != nil {
		m.logger.Error("updating member role", "member_id", memberID, "error", err)
		return nil, fmt.Errorf("updating member role: %w", err)
	}

	members := make([]Membership, 0, len(rows))
	for _, row := range rows {
		ms, err := membershipFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("decoding membership row: %w", err)
		}
		members = append(members, ms)
	}
	return members, nil
}

// RemoveTeamMember deletes a membership row by id. The team list is not
// refreshed.
func (m *Manager) RemoveTeamMember(ctx context.Context, memberID uuid.UUID) error {
	if err := m.store.Delete(ctx, "team_members", []rowstore.Filter{
		rowstore.Eq("id", memberID),
	}); err != nil {
		m.logger.Error("removing team member", "member_id", memberID, "error", err)
		return fmt.Errorf("removing team member: %w", err)
	}
	return nil
}

// LeaveTeam deletes the signed-in user's membership in the team. If the
// team was current, the same replacement rule as DeleteTeam applies, and
// the team list is refreshed. No-op when no user is signed in.
func (m *Manager) LeaveTeam(ctx context.Context, teamID uuid.UUID) error {
	user := m.ids.Current(ctx)
	if user == nil {
		return nil
	}

	if err := m.store.Delete(ctx, "team_members", []rowstore.Filter{
		rowstore.Eq("team_id", teamID),
		rowstore.Eq("user_id", user.ID),
	}); err != nil {
		m.logger.Error("leaving team", "team_id", teamID, "user_id", user.ID, "error", err)
		return fmt.Errorf("leaving team: %w", err)
	}

	m.replaceCurrentIfGone(teamID)
	m.RefreshUserTeams(ctx)
	return nil
}

// InitializeTeam refreshes the team list and then restores a previously
// persisted selection, overriding the default first-team choice the
// refresh may have made. The persisted id is only a hint: it becomes
// current only when it still appears in the freshly fetched list;
// otherwise the default selection stands.
func (m *Manager) InitializeTeam(ctx context.Context) {
	// Read the hint before the refresh, which persists the default
	// selection over it when no team is current yet.
	var saved string
	var ok bool
	if m.selected != nil {
		saved, ok = m.selected.Get()
	}

	m.RefreshUserTeams(ctx)

	if !ok {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.userTeams {
		if t.ID.String() == saved {
			current := t
			m.currentTeam = &current
			m.persistSelection(current.ID)
			return
		}
	}
}

// replaceCurrentIfGone selects a replacement current team after teamID
// left the user's membership set, using the pre-refresh list: the first
// remaining team, or none.
func (m *Manager) replaceCurrentIfGone(teamID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.currentTeam == nil || m.currentTeam.ID != teamID {
		return
	}

	for _, t := range m.userTeams {
		if t.ID != teamID {
			current := t
			m.currentTeam = &current
			m.persistSelection(current.ID)
			return
		}
	}
	m.currentTeam = nil
}

// persistSelection writes the current team id to the local selection
// store, when one exists. Callers hold m.mu.
func (m *Manager) persistSelection(id uuid.UUID) {
	if m.selected == nil {
		return
	}
	if err := m.selected.Put(id.String()); err != nil {
		m.logger.Warn("persisting team selection", "team_id", id, "error", err)
	}
}
