package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arnold/wellness-api/internal/handlers"
	"github.com/arnold/wellness-api/internal/middleware"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository/memstore"
	"github.com/arnold/wellness-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testAPI struct {
	app *fiber.App
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memstore.New()
	p := services.NewPipeline(services.PipelineDeps{Store: store})
	hub := handlers.NewHub(store.Members(), nil)

	app := fiber.New()
	Setup(app, handlers.New(p, store, hub, nil), hub, Options{
		JWTSecret: testSecret,
		Users:     store.Users(),
		Gatherer:  prometheus.NewRegistry(),
	})
	return &testAPI{app: app}
}

func token(t *testing.T, role models.UserRole) (uuid.UUID, string) {
	t.Helper()
	id := uuid.New()
	tok, err := middleware.GenerateToken(testSecret, id, id.String()+"@example.com", "User", role, time.Hour)
	require.NoError(t, err)
	return id, tok
}

func (a *testAPI) do(t *testing.T, method, path, tok string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestHealthAndMetrics(t *testing.T) {
	a := newTestAPI(t)

	status, body := a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_RequiresToken(t *testing.T) {
	a := newTestAPI(t)

	status, body := a.do(t, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.NotEmpty(t, body["error"])

	status, _ = a.do(t, http.MethodGet, "/api/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAPI_ProfileIsSyncedFromToken(t *testing.T) {
	a := newTestAPI(t)
	id, tok := token(t, models.UserRoleParticipant)

	status, body := a.do(t, http.MethodGet, "/api/me", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, id.String(), body["id"])
}

func TestAPI_GroupLifecycle(t *testing.T) {
	a := newTestAPI(t)
	_, sponsorTok := token(t, models.UserRoleSuperAdmin)
	_, memberTok := token(t, models.UserRoleParticipant)
	_, outsiderTok := token(t, models.UserRoleParticipant)

	status, body := a.do(t, http.MethodPost, "/api/groups", memberTok, models.CreateGroupRequest{Name: "Walkers"})
	assert.Equal(t, http.StatusForbidden, status, "participants without activity are not eligible")

	status, body = a.do(t, http.MethodPost, "/api/groups", sponsorTok, models.CreateGroupRequest{Name: "Walkers"})
	require.Equal(t, http.StatusCreated, status)
	groupID, _ := body["id"].(string)
	code, _ := body["inviteCode"].(string)
	require.NotEmpty(t, groupID)
	require.Len(t, code, services.InviteCodeLength)

	status, _ = a.do(t, http.MethodPost, "/api/groups/join", memberTok, models.JoinGroupRequest{InviteCode: code})
	assert.Equal(t, http.StatusCreated, status)

	status, _ = a.do(t, http.MethodPost, "/api/groups/join", memberTok, models.JoinGroupRequest{InviteCode: code})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = a.do(t, http.MethodPost, "/api/groups/join", outsiderTok, models.JoinGroupRequest{InviteCode: "ZZZZZZ"})
	assert.Equal(t, http.StatusNotFound, status)

	status, body = a.do(t, http.MethodGet, "/api/groups/"+groupID+"/members", memberTok, nil)
	require.Equal(t, http.StatusOK, status)
	members, _ := body["members"].([]any)
	assert.Len(t, members, 2)

	status, _ = a.do(t, http.MethodGet, "/api/groups/"+groupID+"/members", outsiderTok, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = a.do(t, http.MethodGet, "/api/groups/not-a-uuid", memberTok, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid group ID", body["error"])

	status, _ = a.do(t, http.MethodPost, "/api/groups/"+groupID+"/leave", sponsorTok, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = a.do(t, http.MethodPost, "/api/groups/"+groupID+"/leave", memberTok, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAPI_TrackActivity(t *testing.T) {
	a := newTestAPI(t)
	_, tok := token(t, models.UserRoleParticipant)

	status, body := a.do(t, http.MethodPost, "/api/activity", tok, map[string]any{
		"type":     models.ActivitySteps,
		"metadata": map[string]any{"steps": 5000},
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, string(models.ActivitySteps), body["type"])

	status, _ = a.do(t, http.MethodPost, "/api/activity", tok, map[string]any{"type": "juggling"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_AdminOverviewIsGated(t *testing.T) {
	a := newTestAPI(t)
	_, participant := token(t, models.UserRoleParticipant)
	_, admin := token(t, models.UserRoleSuperAdmin)

	status, _ := a.do(t, http.MethodGet, "/api/admin/overview", participant, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = a.do(t, http.MethodGet, "/api/admin/overview", admin, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAPI_RevokeInvitation(t *testing.T) {
	a := newTestAPI(t)
	_, sponsorTok := token(t, models.UserRoleSuperAdmin)

	status, body := a.do(t, http.MethodPost, "/api/groups", sponsorTok, models.CreateGroupRequest{Name: "Walkers"})
	require.Equal(t, http.StatusCreated, status)
	groupID, _ := body["id"].(string)

	status, body = a.do(t, http.MethodPost, "/api/groups/"+groupID+"/invitations", sponsorTok, models.CreateInvitationRequest{InviteeEmail: "pat@example.com"})
	require.Equal(t, http.StatusCreated, status)
	invitationID, _ := body["id"].(string)
	require.NotEmpty(t, invitationID)

	path := "/api/groups/" + groupID + "/invitations/" + invitationID
	status, body = a.do(t, http.MethodDelete, path, sponsorTok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(models.InvitationRevoked), body["status"])

	status, _ = a.do(t, http.MethodDelete, path, sponsorTok, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = a.do(t, http.MethodDelete, "/api/groups/"+groupID+"/invitations/"+uuid.NewString(), sponsorTok, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = a.do(t, http.MethodDelete, "/api/groups/"+groupID+"/invitations/nope", sponsorTok, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid invitation ID", body["error"])
}
