package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/teamdeck/teamdeck/internal/identity"
	"github.com/teamdeck/teamdeck/internal/rowstore"
)

// ErrInvalidKey is returned when the provided API key does not match any
// user.
var ErrInvalidKey = errors.New("invalid API key")

// Service resolves API keys to identities through the users table.
type Service struct {
	store      rowstore.Store
	bcryptCost int
}

// NewService creates a new auth Service.
func NewService(store rowstore.Store, bcryptCost int) *Service {
	return &Service{store: store, bcryptCost: bcryptCost}
}

// GenerateKey creates a new API key. Returns the raw key, its prefix
// (first 8 chars), and the bcrypt hash. The raw key is: 32 random bytes
// -> base64url -> prepend "td_".
func (s *Service) GenerateKey() (rawKey, prefix, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	rawKey = "td_" + base64.RawURLEncoding.EncodeToString(b)
	prefix = rawKey[:8]

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(rawKey), s.bcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("hashing key: %w", err)
	}
	hash = string(hashBytes)

	return rawKey, prefix, hash, nil
}

// Authenticate resolves a raw API key to an Identity. It extracts the
// prefix, looks up candidates, and bcrypt-compares each one.
func (s *Service) Authenticate(ctx context.Context, rawKey string) (*identity.Identity, error) {
	if len(rawKey) < 8 {
		return nil, ErrInvalidKey
	}
	prefix := rawKey[:8]

	rows, err := s.store.Select(ctx, "users", []rowstore.Filter{
		rowstore.Eq("api_key_prefix", prefix),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("looking up API key candidates: %w", err)
	}

	for _, row := range rows {
		hash, _ := row["api_key_hash"].(string)
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawKey)) != nil {
			continue
		}

		id, err := rowID(row)
		if err != nil {
			return nil, err
		}
		email, _ := row["email"].(string)
		return &identity.Identity{ID: id, Email: email}, nil
	}

	return nil, ErrInvalidKey
}

func rowID(row rowstore.Row) (uuid.UUID, error) {
	switch v := row["id"].(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, fmt.Errorf("parsing user id: %w", err)
		}
		return id, nil
	default:
		return uuid.Nil, fmt.Errorf("user row has no id")
	}
}
