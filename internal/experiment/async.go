package experiment

import (
	"context"
	"encoding/json"

	"github.com/emiliopalmerini/tmaps/internal/domain"
	"github.com/emiliopalmerini/tmaps/internal/pkg/future"
	"github.com/emiliopalmerini/tmaps/internal/ports"
)

// Async issues lifecycle operations in the background and hands back a
// future per call. Calls are not serialized against each other.
type Async struct {
	svc ports.ExperimentService
}

func NewAsync(svc ports.ExperimentService) *Async {
	return &Async{svc: svc}
}

func (a *Async) GetAll(ctx context.Context) *future.Future[[]*domain.Experiment] {
	return future.Go(ctx, a.svc.GetAll)
}

func (a *Async) Get(ctx context.Context, id string) *future.Future[*domain.Experiment] {
	return future.Go(ctx, func(ctx context.Context) (*domain.Experiment, error) {
		return a.svc.Get(ctx, id)
	})
}

func (a *Async) Create(ctx context.Context, input domain.CreateExperimentInput) *future.Future[*domain.Experiment] {
	return future.Go(ctx, func(ctx context.Context) (*domain.Experiment, error) {
		return a.svc.Create(ctx, input)
	})
}

func (a *Async) Delete(ctx context.Context, id string) *future.Future[domain.DeleteOutcome] {
	return future.Go(ctx, func(ctx context.Context) (domain.DeleteOutcome, error) {
		return a.svc.Delete(ctx, id)
	})
}

func (a *Async) SubmitWorkflow(ctx context.Context, exp *domain.Experiment, workflow json.RawMessage) *future.Future[json.RawMessage] {
	id := exp.ID()
	return future.Go(ctx, func(ctx context.Context) (json.RawMessage, error) {
		return a.svc.SubmitWorkflow(ctx, id, workflow)
	})
}

func (a *Async) Features(ctx context.Context, id string) *future.Future[map[string][]domain.Feature] {
	return future.Go(ctx, func(ctx context.Context) (map[string][]domain.Feature, error) {
		return a.svc.Features(ctx, id)
	})
}
