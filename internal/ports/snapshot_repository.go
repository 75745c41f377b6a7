package ports

import (
	"context"

	"github.com/emiliopalmerini/tmaps/internal/domain"
)

// SnapshotRepository stores experiment records locally for offline use.
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot domain.Snapshot) error
	GetByID(ctx context.Context, id string) (*domain.Snapshot, error)
	List(ctx context.Context) ([]domain.Snapshot, error)
	Delete(ctx context.Context, id string) error
}
