package spaced_repetition

import (
	"time"

	"github.com/example/revtrack/pkg/models"
)

// Evaluate computes the stage the item should be in right now. It is pure:
// no clock access, no storage. When the result differs from item.Stage the
// caller must set the new stage, reset EnteredStageAt to now and Confirmed
// to false, and persist.
//
// Rules:
//  1. terminal stages never change
//  2. before the dwell duration has elapsed the item stays put
//  3. once eligible by time, the first stage advances unconditionally;
//     every later stage advances only when the user has confirmed retention
func Evaluate(item models.ReviewItem, now time.Time) models.Stage {
	if IsTerminal(item.Stage) {
		return item.Stage
	}

	dwell, ok := DwellDuration(item.Stage)
	if !ok {
		return item.Stage
	}
	if now.Sub(item.EnteredStageAt) < dwell {
		return item.Stage
	}

	if !RequiresConfirmation(item.Stage) || item.Confirmed {
		next, _ := NextStage(item.Stage)
		return next
	}

	// Время вышло, но пользователь ещё не подтвердил — ждём подтверждения
	return item.Stage
}
