package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/example/revtrack/pkg/models"
)

// ReviewItemRepository handles database operations for review items
type ReviewItemRepository struct{}

// NewReviewItemRepository creates a new repository instance
func NewReviewItemRepository() *ReviewItemRepository {
	return &ReviewItemRepository{}
}

// ReviewKey identifies one (user, sheet) review set
type ReviewKey struct {
	UserID string `db:"user_id"`
	Sheet  string `db:"sheet"`
}

// GetByProblem returns the item for a specific problem, or nil when the
// problem is not tracked. Absence is not an error; callers decide what an
// empty result means.
func (r *ReviewItemRepository) GetByProblem(ctx context.Context, userID, sheet string, problemID int64) (*models.ReviewItem, error) {
	var item models.ReviewItem
	err := DB.GetContext(ctx, &item, `
		SELECT * FROM review_items
		WHERE user_id = $1 AND sheet = $2 AND problem_id = $3
	`, userID, sheet, problemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review item: %w", err)
	}
	return &item, nil
}

// All returns every item of one (user, sheet) pair ordered by stage. An
// untouched pair simply yields an empty slice.
func (r *ReviewItemRepository) All(ctx context.Context, userID, sheet string) ([]models.ReviewItem, error) {
	var items []models.ReviewItem
	err := DB.SelectContext(ctx, &items, `
		SELECT * FROM review_items
		WHERE user_id = $1 AND sheet = $2
		ORDER BY stage ASC, problem_id ASC
	`, userID, sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to list review items: %w", err)
	}
	return items, nil
}

// Upsert inserts or replaces the single row keyed by (user, sheet, problem).
// Because the stage lives in a column of that row, a successful upsert also
// guarantees the item is gone from every other stage.
func (r *ReviewItemRepository) Upsert(ctx context.Context, item *models.ReviewItem) error {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		dbType = "sqlite"
	}

	if dbType == "postgres" {
		// PostgreSQL поддерживает ON CONFLICT и RETURNING
		query := `
			INSERT INTO review_items (
				user_id, sheet, problem_id, stage, entered_stage_at, created_at, confirmed
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (user_id, sheet, problem_id) DO UPDATE SET
				stage = EXCLUDED.stage,
				entered_stage_at = EXCLUDED.entered_stage_at,
				confirmed = EXCLUDED.confirmed
			RETURNING id
		`
		err := DB.QueryRowContext(ctx, query,
			item.UserID,
			item.Sheet,
			item.ProblemID,
			item.Stage,
			item.EnteredStageAt,
			item.CreatedAt,
			item.Confirmed,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to upsert review item: %w", err)
		}
		return nil
	}

	// SQLite: сначала проверяем, существует ли запись
	var existingID int64
	err := DB.QueryRowContext(ctx, `
		SELECT id FROM review_items
		WHERE user_id = $1 AND sheet = $2 AND problem_id = $3
	`, item.UserID, item.Sheet, item.ProblemID).Scan(&existingID)

	if err == nil {
		item.ID = existingID
		_, err = DB.ExecContext(ctx, `
			UPDATE review_items SET
				stage = $1,
				entered_stage_at = $2,
				confirmed = $3
			WHERE id = $4
		`, item.Stage, item.EnteredStageAt, item.Confirmed, item.ID)
		if err != nil {
			return fmt.Errorf("failed to update review item: %w", err)
		}
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to look up review item: %w", err)
	}

	result, err := DB.ExecContext(ctx, `
		INSERT INTO review_items (
			user_id, sheet, problem_id, stage, entered_stage_at, created_at, confirmed
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		item.UserID,
		item.Sheet,
		item.ProblemID,
		item.Stage,
		item.EnteredStageAt,
		item.CreatedAt,
		item.Confirmed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	item.ID = id

	return nil
}

// Remove deletes the item from whichever stage currently holds it and
// reports whether anything was removed.
func (r *ReviewItemRepository) Remove(ctx context.Context, userID, sheet string, problemID int64) (bool, error) {
	result, err := DB.ExecContext(ctx, `
		DELETE FROM review_items
		WHERE user_id = $1 AND sheet = $2 AND problem_id = $3
	`, userID, sheet, problemID)
	if err != nil {
		return false, fmt.Errorf("failed to remove review item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// ActivePairs returns every (user, sheet) pair that currently has at least
// one review item. Used by the periodic sweep.
func (r *ReviewItemRepository) ActivePairs(ctx context.Context) ([]ReviewKey, error) {
	var keys []ReviewKey
	err := DB.SelectContext(ctx, &keys, `
		SELECT DISTINCT user_id, sheet FROM review_items
		ORDER BY user_id, sheet
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active pairs: %w", err)
	}
	return keys, nil
}
