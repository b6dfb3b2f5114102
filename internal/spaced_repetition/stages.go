package spaced_repetition

import (
	"time"

	"github.com/example/revtrack/pkg/models"
)

// stageOrder is the fixed review sequence. Transitions only ever move forward
// through this list, one step at a time.
var stageOrder = []models.Stage{
	models.StageToday,
	models.StageTomorrow,
	models.StageDay3,
	models.StageWeek1,
	models.StageWeek2,
	models.StageMonth1,
	models.StageCompleted,
}

// Минимальное время нахождения в этапе в днях: 1, 3, 7, 14, 30, 90.
// Measured from the moment the item entered its current stage, not from
// original creation.
var dwellDays = map[models.Stage]int{
	models.StageToday:    1,
	models.StageTomorrow: 3,
	models.StageDay3:     7,
	models.StageWeek1:    14,
	models.StageWeek2:    30,
	models.StageMonth1:   90,
}

// Stages returns the ordered review sequence
func Stages() []models.Stage {
	out := make([]models.Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// IsTerminal reports whether a stage has no further transitions
func IsTerminal(stage models.Stage) bool {
	return stage == models.StageCompleted
}

// DwellDuration returns the minimum time an item must spend in the stage
// before it is eligible to advance. ok is false for the terminal stage.
func DwellDuration(stage models.Stage) (time.Duration, bool) {
	days, ok := dwellDays[stage]
	if !ok {
		return 0, false
	}
	return time.Duration(days) * 24 * time.Hour, true
}

// NextStage returns the stage that follows the given one. ok is false for
// the terminal stage.
func NextStage(stage models.Stage) (models.Stage, bool) {
	for i, s := range stageOrder {
		if s == stage && i+1 < len(stageOrder) {
			return stageOrder[i+1], true
		}
	}
	return stage, false
}

// RequiresConfirmation reports whether elapsed time alone is enough to leave
// the stage. Only the first stage auto-advances; everywhere else the user has
// to assert they still remember the problem.
func RequiresConfirmation(stage models.Stage) bool {
	return stage != models.StageToday
}
