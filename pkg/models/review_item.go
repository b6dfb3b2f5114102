package models

import "time"

// ReviewItem tracks one problem under active review for one (user, sheet) pair
type ReviewItem struct {
	ID             int64     `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	Sheet          string    `json:"sheet" db:"sheet"`
	ProblemID      int64     `json:"problem_id" db:"problem_id"`
	Stage          Stage     `json:"stage" db:"stage"`
	EnteredStageAt time.Time `json:"entered_stage_at" db:"entered_stage_at"` // reset on every transition
	CreatedAt      time.Time `json:"created_at" db:"created_at"`             // first intake, immutable
	Confirmed      bool      `json:"confirmed" db:"confirmed"`               // "I remember this well"; reset on entering a new stage
}

// ReviewSet is the full stage-partitioned snapshot of one (user, sheet) pair.
// Every stage is present as a key even when its list is empty.
type ReviewSet struct {
	UserID string                 `json:"user_id"`
	Sheet  string                 `json:"sheet"`
	Stages map[Stage][]ReviewItem `json:"stages"`
	Counts map[Stage]int          `json:"counts"`
}

// NewReviewSet returns an empty set with all stage keys initialized
func NewReviewSet(userID, sheet string) *ReviewSet {
	set := &ReviewSet{
		UserID: userID,
		Sheet:  sheet,
		Stages: make(map[Stage][]ReviewItem),
		Counts: make(map[Stage]int),
	}
	for s := StageToday; s <= StageCompleted; s++ {
		set.Stages[s] = []ReviewItem{}
		set.Counts[s] = 0
	}
	return set
}
