package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/revtrack/pkg/models"
)

func TestStagesOrder(t *testing.T) {
	stages := Stages()
	require.Len(t, stages, 7)
	assert.Equal(t, models.StageToday, stages[0])
	assert.Equal(t, models.StageCompleted, stages[len(stages)-1])

	// порядок строго возрастающий
	for i := 1; i < len(stages); i++ {
		assert.Greater(t, int(stages[i]), int(stages[i-1]))
	}
}

func TestDwellDurations(t *testing.T) {
	tests := []struct {
		stage models.Stage
		days  int
	}{
		{models.StageToday, 1},
		{models.StageTomorrow, 3},
		{models.StageDay3, 7},
		{models.StageWeek1, 14},
		{models.StageWeek2, 30},
		{models.StageMonth1, 90},
	}

	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			d, ok := DwellDuration(tt.stage)
			require.True(t, ok)
			assert.Equal(t, time.Duration(tt.days)*24*time.Hour, d)
		})
	}

	_, ok := DwellDuration(models.StageCompleted)
	assert.False(t, ok, "terminal stage has no dwell duration")
}

func TestNextStage(t *testing.T) {
	next, ok := NextStage(models.StageToday)
	require.True(t, ok)
	assert.Equal(t, models.StageTomorrow, next)

	next, ok = NextStage(models.StageMonth1)
	require.True(t, ok)
	assert.Equal(t, models.StageCompleted, next)

	_, ok = NextStage(models.StageCompleted)
	assert.False(t, ok)
}

func TestRequiresConfirmation(t *testing.T) {
	assert.False(t, RequiresConfirmation(models.StageToday), "first stage auto-advances")
	for _, stage := range Stages()[1:] {
		assert.True(t, RequiresConfirmation(stage), stage.String())
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(models.StageCompleted))
	assert.False(t, IsTerminal(models.StageMonth1))
}
