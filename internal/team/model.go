package team

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/teamdeck/teamdeck/internal/rowstore"
)

// Roles a membership can carry. The backend stores them as plain strings.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Team represents a row in the teams table. Role is not a teams column:
// it is the requesting user's role, merged from their membership row at
// read time.
type Team struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	Role        string
}

// Membership represents a row in the team_members table, the join record
// linking a user to a team.
type Membership struct {
	ID       uuid.UUID
	TeamID   uuid.UUID
	UserID   uuid.UUID
	Role     string
	JoinedAt time.Time
}

// TeamUpdate is a partial update of team fields. Nil fields are left
// untouched.
type TeamUpdate struct {
	Name        *string
	Description *string
}

func teamFromRow(row rowstore.Row) (Team, error) {
	var t Team
	var err error

	if t.ID, err = parseUUID(row["id"]); err != nil {
		return Team{}, fmt.Errorf("team id: %w", err)
	}
	name, ok := row["name"].(string)
	if !ok {
		return Team{}, fmt.Errorf("team %s: missing name", t.ID)
	}
	t.Name = name
	t.Description = optionalString(row["description"])
	if t.CreatedBy, err = parseUUID(row["created_by"]); err != nil {
		return Team{}, fmt.Errorf("team %s: created_by: %w", t.ID, err)
	}
	if t.CreatedAt, err = parseTime(row["created_at"]); err != nil {
		return Team{}, fmt.Errorf("team %s: created_at: %w", t.ID, err)
	}
	return t, nil
}

func membershipFromRow(row rowstore.Row) (Membership, error) {
	var m Membership
	var err error

	if m.ID, err = parseUUID(row["id"]); err != nil {
		return Membership{}, fmt.Errorf("membership id: %w", err)
	}
	if m.TeamID, err = parseUUID(row["team_id"]); err != nil {
		return Membership{}, fmt.Errorf("membership %s: team_id: %w", m.ID, err)
	}
	if m.UserID, err = parseUUID(row["user_id"]); err != nil {
		return Membership{}, fmt.Errorf("membership %s: user_id: %w", m.ID, err)
	}
	role, ok := row["role"].(string)
	if !ok {
		return Membership{}, fmt.Errorf("membership %s: missing role", m.ID)
	}
	m.Role = role
	if m.JoinedAt, err = parseTime(row["joined_at"]); err != nil {
		return Membership{}, fmt.Errorf("membership %s: joined_at: %w", m.ID, err)
	}
	return m, nil
}

func parseUUID(v any) (uuid.UUID, error) {
	switch value := v.(type) {
	case uuid.UUID:
		return value, nil
	case string:
		return uuid.Parse(value)
	case nil:
		return uuid.Nil, fmt.Errorf("missing value")
	default:
		return uuid.Nil, fmt.Errorf("unexpected type %T", v)
	}
}

func parseTime(v any) (time.Time, error) {
	switch value := v.(type) {
	case time.Time:
		return value, nil
	case string:
		return time.Parse(time.RFC3339, value)
	case nil:
		return time.Time{}, fmt.Errorf("missing value")
	default:
		return time.Time{}, fmt.Errorf("unexpected type %T", v)
	}
}

func optionalString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
