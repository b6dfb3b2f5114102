package database

import (
	"context"
	"fmt"

	"github.com/example/revtrack/pkg/models"
)

// SheetRepository handles database operations for the sheet registry
type SheetRepository struct{}

// NewSheetRepository creates a new repository instance
func NewSheetRepository() *SheetRepository {
	return &SheetRepository{}
}

// GetAll returns every registered sheet
func (r *SheetRepository) GetAll(ctx context.Context) ([]models.Sheet, error) {
	var sheets []models.Sheet
	err := DB.SelectContext(ctx, &sheets, "SELECT * FROM sheets ORDER BY slug ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list sheets: %w", err)
	}
	return sheets, nil
}

// Create registers a new sheet. Registering an existing slug is a no-op.
func (r *SheetRepository) Create(ctx context.Context, slug, name string) error {
	_, err := DB.ExecContext(ctx,
		"INSERT INTO sheets (slug, name) VALUES ($1, $2) ON CONFLICT (slug) DO NOTHING",
		slug, name,
	)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	return nil
}
