package review

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/revtrack/internal/database"
	"github.com/example/revtrack/pkg/models"
)

// registryTTL bounds how stale the in-memory sheet set may get before the
// registry re-reads the database.
const registryTTL = 5 * time.Minute

// Registry validates sheet slugs against the sheets table. The known set is
// small and changes rarely, so it is cached in memory with a TTL instead of
// hitting the database on every operation.
type Registry struct {
	sheets *database.SheetRepository

	mu        sync.Mutex
	known     map[string]struct{}
	expiresAt time.Time
}

// NewRegistry creates a registry backed by the given repository
func NewRegistry(sheets *database.SheetRepository) *Registry {
	return &Registry{
		sheets: sheets,
		known:  make(map[string]struct{}),
	}
}

// Validate returns ErrInvalidSheet when the slug is not registered. A cache
// miss forces one refresh so that freshly registered sheets are usable
// immediately.
func (r *Registry) Validate(ctx context.Context, sheet string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if now.After(r.expiresAt) {
		if err := r.refresh(ctx, now); err != nil {
			return err
		}
	}
	if _, ok := r.known[sheet]; ok {
		return nil
	}

	// Возможно, лист зарегистрировали только что — обновляем принудительно
	if err := r.refresh(ctx, now); err != nil {
		return err
	}
	if _, ok := r.known[sheet]; ok {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidSheet, sheet)
}

// refresh reloads the slug set with the same bounded retry policy as every
// other store access; the caller holds r.mu.
func (r *Registry) refresh(ctx context.Context, now time.Time) error {
	var all []models.Sheet
	err := withRetry(ctx, func(c context.Context) error {
		var opErr error
		all, opErr = r.sheets.GetAll(c)
		return opErr
	})
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(all))
	for _, s := range all {
		known[s.Slug] = struct{}{}
	}
	r.known = known
	r.expiresAt = now.Add(registryTTL)
	return nil
}
