package experiment

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/singleflight"

	"github.com/emiliopalmerini/tmaps/internal/domain"
	"github.com/emiliopalmerini/tmaps/internal/ports"
)

type recordService interface {
	ports.ExperimentService
	ports.ExperimentRecordFetcher
}

// Coalescer shares one in-flight fetch between concurrent Get calls for
// the same id, and between concurrent GetAll calls. Every caller still
// receives its own Experiment built from the shared record. The shared
// fetch keeps the first caller's context values but not its cancellation;
// each caller stops waiting when its own context is done.
type Coalescer struct {
	svc   recordService
	group singleflight.Group
}

func NewCoalescer(svc recordService) *Coalescer {
	return &Coalescer{svc: svc}
}

// share runs fetch once per key among concurrent callers and waits for it
// or for ctx, whichever comes first.
func (c *Coalescer) share(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return fetch(shared)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Coalescer) GetAll(ctx context.Context) ([]*domain.Experiment, error) {
	v, err := c.share(ctx, "all", func(ctx context.Context) (any, error) {
		return c.svc.FetchRecords(ctx)
	})
	if err != nil {
		return nil, err
	}
	return buildAll(v.([]domain.ExperimentRecord)), nil
}

func (c *Coalescer) Get(ctx context.Context, id string) (*domain.Experiment, error) {
	v, err := c.share(ctx, "get:"+id, func(ctx context.Context) (any, error) {
		return c.svc.FetchRecord(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return domain.NewExperiment(v.(domain.ExperimentRecord)), nil
}

func (c *Coalescer) Create(ctx context.Context, input domain.CreateExperimentInput) (*domain.Experiment, error) {
	return c.svc.Create(ctx, input)
}

func (c *Coalescer) Delete(ctx context.Context, id string) (domain.DeleteOutcome, error) {
	return c.svc.Delete(ctx, id)
}

func (c *Coalescer) SubmitWorkflow(ctx context.Context, id string, workflow json.RawMessage) (json.RawMessage, error) {
	return c.svc.SubmitWorkflow(ctx, id, workflow)
}

func (c *Coalescer) Features(ctx context.Context, id string) (map[string][]domain.Feature, error) {
	return c.svc.Features(ctx, id)
}
