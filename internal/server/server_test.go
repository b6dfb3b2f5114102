package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/revtrack/internal/database"
	"github.com/example/revtrack/internal/review"
	"github.com/example/revtrack/pkg/models"
)

func newTestServer(t *testing.T) *Server {
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DATABASE_PATH", ":memory:")
	require.NoError(t, database.Connect())
	t.Cleanup(func() { database.Close() })

	items := database.NewReviewItemRepository()
	sheets := database.NewSheetRepository()
	settings := database.NewUserSettingsRepository()
	service := review.NewService(items, review.NewRegistry(sheets))
	return New(service, sheets, settings)
}

func doRequest(s *Server, method, target, userID, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestMissingUserHeader(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/v1/review/snapshot?sheet=blind75", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownSheet(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/review/intake?sheet=bogus", "u1", `{"problem_id": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMissingSheetParam(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/v1/review/due", "u1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIntakeReturnsSnapshot(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/review/intake?sheet=blind75", "u1", `{"problem_id": 42}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Created  bool              `json:"created"`
		Snapshot *models.ReviewSet `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Created)
	require.NotNil(t, resp.Snapshot)
	assert.Equal(t, 1, resp.Snapshot.Counts[models.StageToday])
	require.Len(t, resp.Snapshot.Stages[models.StageToday], 1)
	assert.Equal(t, int64(42), resp.Snapshot.Stages[models.StageToday][0].ProblemID)
}

func TestConfirmUnknownProblem(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/review/confirm?sheet=blind75", "u1", `{"problem_id": 5, "confirmed": true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveFlow(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodDelete, "/api/v1/review/items/42?sheet=blind75", "u1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/review/intake?sheet=blind75", "u1", `{"problem_id": 42}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodDelete, "/api/v1/review/items/42?sheet=blind75", "u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/v1/review/snapshot?sheet=blind75", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Snapshot *models.ReviewSet `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	for stage, count := range resp.Snapshot.Counts {
		assert.Zero(t, count, stage.String())
	}
}

func TestSweepAndDueEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/review/intake?sheet=blind75", "u1", `{"problem_id": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/review/sweep?sheet=blind75", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var sweep review.SweepResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sweep))
	assert.Empty(t, sweep.Transitions, "freshly taken-in item is not eligible yet")

	rec = doRequest(s, http.MethodGet, "/api/v1/review/due?sheet=blind75", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var due []review.DueItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &due))
	require.Len(t, due, 1)
	assert.Equal(t, review.DueInToday, due[0].Reason)
}

func TestUpdateNotificationSettings(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPut, "/api/v1/settings/notifications", "u1",
		`{"telegram_chat_id": 777, "notification_hour": 9, "notifications_enabled": true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodPut, "/api/v1/settings/notifications", "u1",
		`{"telegram_chat_id": 777, "notification_hour": 99, "notifications_enabled": true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsersAreIsolated(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/review/intake?sheet=blind75", "u1", `{"problem_id": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/v1/review/snapshot?sheet=blind75", "u2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Snapshot *models.ReviewSet `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Snapshot.Counts[models.StageToday])
}
