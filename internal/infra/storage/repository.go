package storage

import (
	"context"
	"errors"

	"github.com/vietddude/recipefetch/internal/core/domain"
)

var (
	// ErrRunNotFound is returned when a fetch run doesn't exist
	ErrRunNotFound = errors.New("fetch run not found")
)

// RunRepository journals fetch outcomes. It never stores recipe data.
type RunRepository interface {
	// Save records a finished fetch run
	Save(ctx context.Context, run *domain.FetchRun) error

	// Get retrieves a run by id
	Get(ctx context.Context, id string) (*domain.FetchRun, error)

	// Recent returns up to limit runs, newest first
	Recent(ctx context.Context, limit int) ([]*domain.FetchRun, error)

	// Prune deletes all but the newest keep runs and returns how many were removed
	Prune(ctx context.Context, keep int) (int64, error)
}
