package repository

import (
	"context"

	"rpg/internal/domain"
)

// Journal stores the outcome of control operations
type Journal interface {
	// Record appends an entry; ID and At are filled in when empty
	Record(ctx context.Context, entry *domain.JournalEntry) error

	// List returns entries newest first
	List(ctx context.Context, filter domain.JournalFilter) ([]domain.JournalEntry, error)

	// Close releases resources
	Close() error
}
