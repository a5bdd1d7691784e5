package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/teamdeck/teamdeck/internal/auth"
	"github.com/teamdeck/teamdeck/internal/rowstore"
)

func TestGenerateKey(t *testing.T) {
	service := auth.NewService(rowstore.NewInMemory(), bcrypt.MinCost)

	rawKey, prefix, hash, err := service.GenerateKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rawKey, "td_"))
	assert.Equal(t, rawKey[:8], prefix)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawKey)))
}

func TestAuthenticate_Roundtrip(t *testing.T) {
	store := rowstore.NewInMemory()
	service := auth.NewService(store, bcrypt.MinCost)

	rawKey, prefix, hash, err := service.GenerateKey()
	require.NoError(t, err)

	userID := uuid.New()
	_, err = store.Insert(context.Background(), "users", rowstore.Row{
		"id":             userID,
		"email":          "user@example.com",
		"api_key_prefix": prefix,
		"api_key_hash":   hash,
	})
	require.NoError(t, err)

	id, err := service.Authenticate(context.Background(), rawKey)
	require.NoError(t, err)
	assert.Equal(t, userID, id.ID)
	assert.Equal(t, "user@example.com", id.Email)
}

func TestAuthenticate_UnknownKey(t *testing.T) {
	service := auth.NewService(rowstore.NewInMemory(), bcrypt.MinCost)

	_, err := service.Authenticate(context.Background(), "td_nosuchkey")
	assert.ErrorIs(t, err, auth.ErrInvalidKey)
}

func TestAuthenticate_ShortKey(t *testing.T) {
	service := auth.NewService(rowstore.NewInMemory(), bcrypt.MinCost)

	_, err := service.Authenticate(context.Background(), "short")
	assert.ErrorIs(t, err, auth.ErrInvalidKey)
}

func TestAuthenticate_WrongKeySamePrefix(t *testing.T) {
	store := rowstore.NewInMemory()
	service := auth.NewService(store, bcrypt.MinCost)

	rawKey, prefix, hash, err := service.GenerateKey()
	require.NoError(t, err)

	_, err = store.Insert(context.Background(), "users", rowstore.Row{
		"id":             uuid.New(),
		"email":          "user@example.com",
		"api_key_prefix": prefix,
		"api_key_hash":   hash,
	})
	require.NoError(t, err)

	forged := rawKey[:len(rawKey)-4] + "XXXX"
	_, err = service.Authenticate(context.Background(), forged)
	assert.ErrorIs(t, err, auth.ErrInvalidKey)
}

func TestAuthenticate_BackendError(t *testing.T) {
	store := rowstore.NewInMemory()
	service := auth.NewService(store, bcrypt.MinCost)
	boom := errors.New("backend down")
	store.FailNext("select", "users", boom)

	_, err := service.Authenticate(context.Background(), "td_whatever")
	assert.ErrorIs(t, err, boom)
}
