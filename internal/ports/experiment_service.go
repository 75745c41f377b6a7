package ports

import (
	"context"
	"encoding/json"

	"github.com/emiliopalmerini/tmaps/internal/domain"
)

// ExperimentService manages experiments held by the data service.
type ExperimentService interface {
	GetAll(ctx context.Context) ([]*domain.Experiment, error)
	Get(ctx context.Context, id string) (*domain.Experiment, error)
	Create(ctx context.Context, input domain.CreateExperimentInput) (*domain.Experiment, error)
	Delete(ctx context.Context, id string) (domain.DeleteOutcome, error)
	SubmitWorkflow(ctx context.Context, id string, workflow json.RawMessage) (json.RawMessage, error)
	Features(ctx context.Context, id string) (map[string][]domain.Feature, error)
}

// ExperimentRecordFetcher returns records without building the aggregate.
type ExperimentRecordFetcher interface {
	FetchRecords(ctx context.Context) ([]domain.ExperimentRecord, error)
	FetchRecord(ctx context.Context, id string) (domain.ExperimentRecord, error)
}
