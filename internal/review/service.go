package review

import (
	"context"
	"fmt"
	"time"

	"github.com/example/revtrack/internal/spaced_repetition"
	"github.com/example/revtrack/pkg/models"
)

const (
	// storageTimeout bounds every single store call
	storageTimeout = 3 * time.Second
	// storageAttempts is how often a failing store call is retried
	storageAttempts = 3
	// retryBackoff is the base delay between storage retries
	retryBackoff = 150 * time.Millisecond
)

// Transition records one stage move applied by the engine
type Transition struct {
	ProblemID int64        `json:"problem_id"`
	From      models.Stage `json:"from"`
	To        models.Stage `json:"to"`
}

// SweepFailure records one item that could not be persisted during a sweep
type SweepFailure struct {
	ProblemID int64  `json:"problem_id"`
	Error     string `json:"error"`
}

// SweepResult is the outcome of one batch re-evaluation. A sweep keeps going
// past individual failures, so both lists can be non-empty at once.
type SweepResult struct {
	Transitions []Transition   `json:"transitions"`
	Failures    []SweepFailure `json:"failures,omitempty"`
}

// DueReason explains why an item shows up in the due list
type DueReason string

const (
	// DueInToday marks items sitting in the first stage
	DueInToday DueReason = "in-today"
	// DueAwaitingConfirmation marks items whose dwell time has elapsed but
	// which cannot advance until the user confirms retention
	DueAwaitingConfirmation DueReason = "awaiting-confirmation"
)

// DueItem is one entry of the due-now view
type DueItem struct {
	Item   models.ReviewItem `json:"item"`
	Reason DueReason         `json:"reason"`
}

// ItemStore is the persistence surface the service needs. It is implemented
// by database.ReviewItemRepository.
type ItemStore interface {
	GetByProblem(ctx context.Context, userID, sheet string, problemID int64) (*models.ReviewItem, error)
	All(ctx context.Context, userID, sheet string) ([]models.ReviewItem, error)
	Upsert(ctx context.Context, item *models.ReviewItem) error
	Remove(ctx context.Context, userID, sheet string, problemID int64) (bool, error)
}

// Service orchestrates intake, confirmation, sweeps and due queries over the
// review item store. All operations on the same (user, sheet) pair are
// serialized through per-key locks; different pairs run in parallel.
type Service struct {
	items    ItemStore
	registry *Registry
	locks    *keyedLocks
}

// NewService creates a scheduling service
func NewService(items ItemStore, registry *Registry) *Service {
	return &Service{
		items:    items,
		registry: registry,
		locks:    newKeyedLocks(),
	}
}

// Intake places a freshly solved problem into the first stage. Calling it
// again for a problem that is already tracked anywhere in the set is a
// no-op; the existing item is returned and created is false.
func (s *Service) Intake(ctx context.Context, userID, sheet string, problemID int64, now time.Time) (*models.ReviewItem, bool, error) {
	if err := s.registry.Validate(ctx, sheet); err != nil {
		return nil, false, err
	}

	unlock := s.locks.acquire(userID, sheet)
	defer unlock()

	existing, err := s.getItem(ctx, userID, sheet, problemID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	item := &models.ReviewItem{
		UserID:         userID,
		Sheet:          sheet,
		ProblemID:      problemID,
		Stage:          models.StageToday,
		EnteredStageAt: now,
		CreatedAt:      now,
		Confirmed:      false,
	}
	adopted, err := s.persist(ctx, item, nil)
	if err != nil {
		return nil, false, err
	}
	return item, !adopted, nil
}

// Confirm stores the user's retention assertion and immediately re-evaluates
// the item: when the dwell time has already elapsed the confirmation causes
// an instantaneous advance.
func (s *Service) Confirm(ctx context.Context, userID, sheet string, problemID int64, confirmed bool, now time.Time) (*models.ReviewItem, error) {
	if err := s.registry.Validate(ctx, sheet); err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(userID, sheet)
	defer unlock()

	item, err := s.getItem(ctx, userID, sheet, problemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: problem %d", ErrItemNotFound, problemID)
	}

	// Завершённые элементы не меняются иначе как удалением
	if spaced_repetition.IsTerminal(item.Stage) {
		return item, nil
	}

	item.Confirmed = confirmed
	applyEvaluation(item, now)

	if _, err := s.persist(ctx, item, func(it *models.ReviewItem) {
		if spaced_repetition.IsTerminal(it.Stage) {
			return
		}
		it.Confirmed = confirmed
		applyEvaluation(it, now)
	}); err != nil {
		return nil, err
	}
	return item, nil
}

// Sweep re-evaluates every item of the pair and persists any transitions.
// It is idempotent; items not yet eligible are untouched. Failures on single
// items do not abort the rest of the sweep.
func (s *Service) Sweep(ctx context.Context, userID, sheet string, now time.Time) (*SweepResult, error) {
	if err := s.registry.Validate(ctx, sheet); err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(userID, sheet)
	defer unlock()

	return s.sweepLocked(ctx, userID, sheet, now)
}

// DueNow returns everything requiring the user's attention: all first-stage
// items, plus items whose dwell time has elapsed but which wait for a
// confirmation. A sweep runs first so the view is always current.
func (s *Service) DueNow(ctx context.Context, userID, sheet string, now time.Time) ([]DueItem, error) {
	if err := s.registry.Validate(ctx, sheet); err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(userID, sheet)
	defer unlock()

	if _, err := s.sweepLocked(ctx, userID, sheet, now); err != nil {
		return nil, err
	}

	items, err := s.allItems(ctx, userID, sheet)
	if err != nil {
		return nil, err
	}

	due := []DueItem{}
	for _, item := range items {
		switch {
		case item.Stage == models.StageToday:
			due = append(due, DueItem{Item: item, Reason: DueInToday})
		case spaced_repetition.IsTerminal(item.Stage):
			// completed items are never due
		default:
			dwell, _ := spaced_repetition.DwellDuration(item.Stage)
			if now.Sub(item.EnteredStageAt) >= dwell {
				due = append(due, DueItem{Item: item, Reason: DueAwaitingConfirmation})
			}
		}
	}
	return due, nil
}

// Remove deletes a problem from whichever stage currently holds it
func (s *Service) Remove(ctx context.Context, userID, sheet string, problemID int64) error {
	if err := s.registry.Validate(ctx, sheet); err != nil {
		return err
	}

	unlock := s.locks.acquire(userID, sheet)
	defer unlock()

	var removed bool
	err := withRetry(ctx, func(c context.Context) error {
		var opErr error
		removed, opErr = s.items.Remove(c, userID, sheet, problemID)
		return opErr
	})
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: problem %d", ErrItemNotFound, problemID)
	}
	return nil
}

// Snapshot returns the full stage-partitioned view with per-stage counts.
// An untouched (user, sheet) pair yields a valid empty set.
func (s *Service) Snapshot(ctx context.Context, userID, sheet string) (*models.ReviewSet, error) {
	if err := s.registry.Validate(ctx, sheet); err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(userID, sheet)
	defer unlock()

	items, err := s.allItems(ctx, userID, sheet)
	if err != nil {
		return nil, err
	}

	set := models.NewReviewSet(userID, sheet)
	for _, item := range items {
		set.Stages[item.Stage] = append(set.Stages[item.Stage], item)
		set.Counts[item.Stage]++
	}
	return set, nil
}

// sweepLocked is the sweep body; the caller holds the pair's lock.
func (s *Service) sweepLocked(ctx context.Context, userID, sheet string, now time.Time) (*SweepResult, error) {
	items, err := s.allItems(ctx, userID, sheet)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Transitions: []Transition{}}
	for i := range items {
		item := items[i]
		if spaced_repetition.IsTerminal(item.Stage) {
			continue
		}
		from := item.Stage
		if !applyEvaluation(&item, now) {
			continue
		}
		if _, err := s.persist(ctx, &item, func(it *models.ReviewItem) {
			applyEvaluation(it, now)
		}); err != nil {
			// частичный сбой: остальные элементы всё равно обрабатываем
			result.Failures = append(result.Failures, SweepFailure{
				ProblemID: item.ProblemID,
				Error:     err.Error(),
			})
			continue
		}
		// после конфликтного повтора элемент мог остаться на месте
		if item.Stage == from {
			continue
		}
		result.Transitions = append(result.Transitions, Transition{
			ProblemID: item.ProblemID,
			From:      from,
			To:        item.Stage,
		})
	}
	return result, nil
}

// applyEvaluation runs the transition rules on the item and mutates it in
// place when it moves. Reports whether a transition happened.
func applyEvaluation(item *models.ReviewItem, now time.Time) bool {
	next := spaced_repetition.Evaluate(*item, now)
	if next == item.Stage {
		return false
	}
	item.Stage = next
	item.EnteredStageAt = now
	item.Confirmed = false
	return true
}

// getItem looks a problem up with retry semantics
func (s *Service) getItem(ctx context.Context, userID, sheet string, problemID int64) (*models.ReviewItem, error) {
	var item *models.ReviewItem
	err := withRetry(ctx, func(c context.Context) error {
		var opErr error
		item, opErr = s.items.GetByProblem(c, userID, sheet, problemID)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// allItems loads the whole set with retry semantics
func (s *Service) allItems(ctx context.Context, userID, sheet string) ([]models.ReviewItem, error) {
	var items []models.ReviewItem
	err := withRetry(ctx, func(c context.Context) error {
		var opErr error
		items, opErr = s.items.All(c, userID, sheet)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// persist writes one item. A conflicting concurrent writer gets exactly one
// automatic retry: the row is re-read, the caller's intent is re-applied via
// reapply, and the result re-written. With a nil reapply (intake) an
// existing row is adopted as-is, which keeps racing intakes idempotent.
// adopted reports that case; a second conflict surfaces as ErrConflict.
func (s *Service) persist(ctx context.Context, item *models.ReviewItem, reapply func(*models.ReviewItem)) (adopted bool, err error) {
	err = withRetry(ctx, func(c context.Context) error {
		return s.items.Upsert(c, item)
	})
	if err == nil || !isConflict(err) {
		return false, err
	}

	// Конфликт с параллельным писателем: перечитываем строку и заново
	// применяем намерение вызывающего
	current, readErr := s.getItem(ctx, item.UserID, item.Sheet, item.ProblemID)
	if readErr != nil {
		return false, readErr
	}
	if current != nil {
		*item = *current
		if reapply == nil {
			return true, nil
		}
		reapply(item)
	}

	err = withRetry(ctx, func(c context.Context) error {
		return s.items.Upsert(c, item)
	})
	if err == nil {
		return false, nil
	}
	if isConflict(err) {
		return false, fmt.Errorf("%w: problem %d", ErrConflict, item.ProblemID)
	}
	return false, err
}

// withRetry runs one store operation with a bounded timeout and retries
// transient failures with backoff. Conflicts are returned as-is so the
// caller can decide; everything else degrades to ErrStorageUnavailable.
func withRetry(ctx context.Context, op func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < storageAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrStorageUnavailable, ctx.Err())
			case <-time.After(retryBackoff * time.Duration(attempt)):
			}
		}

		opCtx, cancel := context.WithTimeout(ctx, storageTimeout)
		err = op(opCtx)
		cancel()

		if err == nil {
			return nil
		}
		if isConflict(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
