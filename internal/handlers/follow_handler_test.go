package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/focusloop/backend/internal/cache"
	"github.com/focusloop/backend/internal/models"
	"github.com/focusloop/backend/internal/repositories"
	"github.com/focusloop/backend/internal/socialgraph"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingNotificationRepository captures created notifications in memory.
type recordingNotificationRepository struct {
	created []models.Notification
}

func (r *recordingNotificationRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	r.created = append(r.created, *n)
	return nil
}

func (r *recordingNotificationRepository) GetByRecipientID(ctx context.Context, recipientID string, page, limit int) ([]models.Notification, int64, error) {
	return nil, 0, nil
}

func (r *recordingNotificationRepository) GetUnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return 0, nil
}

func (r *recordingNotificationRepository) MarkAsRead(ctx context.Context, notificationID string) error {
	return nil
}

func (r *recordingNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) error {
	return nil
}

type followFixture struct {
	store   *socialgraph.BadgerStore
	engine  *socialgraph.Engine
	notifs  *recordingNotificationRepository
	handler *FollowHandler
}

func newFollowFixture(t *testing.T, userIDs ...string) *followFixture {
	t.Helper()
	store, err := socialgraph.OpenBadgerStore("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	userRepo := repositories.NewGraphUserRepository(store)
	for _, id := range userIDs {
		err := userRepo.CreateUser(context.Background(), &models.User{
			ID:          id,
			DisplayName: id,
			Email:       id + "@example.com",
		})
		require.NoError(t, err)
	}

	engine := socialgraph.NewEngine(store)
	notifs := &recordingNotificationRepository{}
	return &followFixture{
		store:   store,
		engine:  engine,
		notifs:  notifs,
		handler: NewFollowHandler(engine, userRepo, notifs, cache.NewMirror(nil)),
	}
}

func newFollowRequest(t *testing.T, method, authedUserID, targetID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/users/:id/follow")
	c.SetParamNames("id")
	c.SetParamValues(targetID)
	if authedUserID != "" {
		c.Set("user", &models.JwtCustomClaims{UserID: authedUserID})
	}
	return c, rec
}

func TestFollowUserCreatesEdgeAndNotifies(t *testing.T) {
	f := newFollowFixture(t, "alice", "bob")
	c, rec := newFollowRequest(t, http.MethodPost, "alice", "bob")

	require.NoError(t, f.handler.FollowUser(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])

	following, err := f.engine.IsFollowing(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.True(t, following)

	require.Len(t, f.notifs.created, 1)
	notif := f.notifs.created[0]
	assert.Equal(t, "follow", notif.Type)
	assert.Equal(t, "alice", notif.ActorID)
	assert.Equal(t, "bob", notif.RecipientID)
}

func TestFollowUserRejectsSelf(t *testing.T) {
	f := newFollowFixture(t, "alice")
	c, _ := newFollowRequest(t, http.MethodPost, "alice", "alice")

	err := f.handler.FollowUser(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	assert.Empty(t, f.notifs.created)
}

func TestFollowUserUnknownTarget(t *testing.T) {
	f := newFollowFixture(t, "alice")
	c, _ := newFollowRequest(t, http.MethodPost, "alice", "ghost")

	err := f.handler.FollowUser(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
	assert.Empty(t, f.notifs.created)
}

func TestFollowUserRequiresAuth(t *testing.T) {
	f := newFollowFixture(t, "alice", "bob")
	c, _ := newFollowRequest(t, http.MethodPost, "", "bob")

	err := f.handler.FollowUser(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestUnfollowUserRemovesEdgeWithoutNotification(t *testing.T) {
	f := newFollowFixture(t, "alice", "bob")
	ctx := context.Background()
	require.NoError(t, f.engine.ApplyFollowChange(ctx, "alice", "bob", socialgraph.ActionFollow))

	c, rec := newFollowRequest(t, http.MethodDelete, "alice", "bob")
	require.NoError(t, f.handler.UnfollowUser(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	following, err := f.engine.IsFollowing(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, following)
	assert.Empty(t, f.notifs.created)
}

func TestGetFollowersReturnsCompactUsers(t *testing.T) {
	f := newFollowFixture(t, "alice", "bob", "carol")
	ctx := context.Background()
	require.NoError(t, f.engine.ApplyFollowChange(ctx, "alice", "bob", socialgraph.ActionFollow))
	require.NoError(t, f.engine.ApplyFollowChange(ctx, "carol", "bob", socialgraph.ActionFollow))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/users/:id/followers")
	c.SetParamNames("id")
	c.SetParamValues("bob")

	require.NoError(t, f.handler.GetFollowers(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Users []models.UserCompact `json:"users"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data.Users, 2)

	ids := []string{body.Data.Users[0].ID, body.Data.Users[1].ID}
	assert.ElementsMatch(t, []string{"alice", "carol"}, ids)
}
