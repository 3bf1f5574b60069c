package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository/memstore"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func TestParseToken(t *testing.T) {
	id := uuid.New()
	token, err := GenerateToken(testSecret, id, "ana@example.com", "Ana", models.UserRoleSponsor, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "Ana", claims.Name)
	assert.Equal(t, models.UserRoleSponsor, claims.Role)

	_, err = ParseToken("other-secret", token)
	assert.Error(t, err)

	expired, err := GenerateToken(testSecret, id, "", "", "", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, expired)
	assert.Error(t, err)

	nilUser, err := GenerateToken(testSecret, uuid.Nil, "", "", "", time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, nilUser)
	assert.Error(t, err)
}

func newProtectedApp(store *memstore.Store) *fiber.App {
	app := fiber.New()
	app.Get("/whoami", Protected(testSecret), SyncProfile(store.Users(), zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendString(GetUserID(c).String())
	})
	return app
}

func TestProtected(t *testing.T) {
	store := memstore.New()
	app := newProtectedApp(store)

	req := httptest.NewRequest("GET", "/whoami", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	id := uuid.New()
	token, err := GenerateToken(testSecret, id, "ana@example.com", "Ana", "", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	profile, err := store.Users().Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Ana", profile.DisplayName)
	assert.Equal(t, "ana@example.com", profile.Email)
	assert.Equal(t, models.UserRoleParticipant, profile.Role)
}

func TestSyncProfile_KeepsStoredRoleWithoutClaim(t *testing.T) {
	store := memstore.New()
	id := uuid.New()
	require.NoError(t, store.Users().Upsert(context.Background(), &models.UserProfile{ID: id, Role: models.UserRoleSuperAdmin}))

	token, err := GenerateToken(testSecret, id, "root@example.com", "", "", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := newProtectedApp(store).Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	profile, err := store.Users().Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleSuperAdmin, profile.Role)
	assert.Equal(t, "root@example.com", profile.Email)
}
