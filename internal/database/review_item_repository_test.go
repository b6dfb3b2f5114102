package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/revtrack/pkg/models"
)

func connectTest(t *testing.T) {
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DATABASE_PATH", ":memory:")
	require.NoError(t, Connect())
	t.Cleanup(func() { Close() })
}

func testItem(userID, sheet string, problemID int64, stage models.Stage) *models.ReviewItem {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &models.ReviewItem{
		UserID:         userID,
		Sheet:          sheet,
		ProblemID:      problemID,
		Stage:          stage,
		EnteredStageAt: now,
		CreatedAt:      now,
	}
}

func TestUpsertInsertsAndUpdates(t *testing.T) {
	connectTest(t)
	ctx := context.Background()
	repo := NewReviewItemRepository()

	item := testItem("u1", "blind75", 42, models.StageToday)
	require.NoError(t, repo.Upsert(ctx, item))
	assert.NotZero(t, item.ID)

	// Повторный upsert с новым этапом обновляет ту же строку
	item.Stage = models.StageTomorrow
	item.Confirmed = true
	require.NoError(t, repo.Upsert(ctx, item))

	all, err := repo.All(ctx, "u1", "blind75")
	require.NoError(t, err)
	require.Len(t, all, 1, "upsert must never duplicate a problem")
	assert.Equal(t, models.StageTomorrow, all[0].Stage)
	assert.True(t, all[0].Confirmed)
}

func TestGetByProblemAbsent(t *testing.T) {
	connectTest(t)
	ctx := context.Background()
	repo := NewReviewItemRepository()

	item, err := repo.GetByProblem(ctx, "u1", "blind75", 999)
	require.NoError(t, err)
	assert.Nil(t, item, "absence is not an error")
}

func TestAllOnUntouchedPairIsEmpty(t *testing.T) {
	connectTest(t)
	ctx := context.Background()
	repo := NewReviewItemRepository()

	all, err := repo.All(ctx, "nobody", "blind75")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRemove(t *testing.T) {
	connectTest(t)
	ctx := context.Background()
	repo := NewReviewItemRepository()

	require.NoError(t, repo.Upsert(ctx, testItem("u1", "blind75", 7, models.StageWeek1)))

	removed, err := repo.Remove(ctx, "u1", "blind75", 7)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Remove(ctx, "u1", "blind75", 7)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestActivePairs(t *testing.T) {
	connectTest(t)
	ctx := context.Background()
	repo := NewReviewItemRepository()

	require.NoError(t, repo.Upsert(ctx, testItem("u1", "blind75", 1, models.StageToday)))
	require.NoError(t, repo.Upsert(ctx, testItem("u1", "blind75", 2, models.StageToday)))
	require.NoError(t, repo.Upsert(ctx, testItem("u1", "neetcode150", 1, models.StageToday)))
	require.NoError(t, repo.Upsert(ctx, testItem("u2", "blind75", 1, models.StageToday)))

	pairs, err := repo.ActivePairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ReviewKey{
		{UserID: "u1", Sheet: "blind75"},
		{UserID: "u1", Sheet: "neetcode150"},
		{UserID: "u2", Sheet: "blind75"},
	}, pairs)
}

func TestSheetRepositorySeededAndCreate(t *testing.T) {
	connectTest(t)
	ctx := context.Background()
	repo := NewSheetRepository()

	sheets, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(sheets), len(DefaultSheets))

	require.NoError(t, repo.Create(ctx, "custom-sheet", "Custom Sheet"))
	// Регистрация существующего листа — no-op
	require.NoError(t, repo.Create(ctx, "custom-sheet", "Custom Sheet"))

	sheets, err = repo.GetAll(ctx)
	require.NoError(t, err)

	found := 0
	for _, s := range sheets {
		if s.Slug == "custom-sheet" {
			found++
		}
	}
	assert.Equal(t, 1, found)
}

func TestUserSettingsRepository(t *testing.T) {
	connectTest(t)
	ctx := context.Background()
	repo := NewUserSettingsRepository()

	settings, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, settings)

	require.NoError(t, repo.Upsert(ctx, &models.UserSettings{
		UserID:               "u1",
		TelegramChatID:       12345,
		NotificationHour:     9,
		NotificationsEnabled: true,
	}))

	settings, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, int64(12345), settings.TelegramChatID)

	users, err := repo.ListForHour(ctx, 9)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].UserID)

	users, err = repo.ListForHour(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, users)
}
