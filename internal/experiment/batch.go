package experiment

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/emiliopalmerini/tmaps/internal/domain"
	"github.com/emiliopalmerini/tmaps/internal/ports"
)

// maxParallelFetches bounds the concurrent requests made by GetMany.
const maxParallelFetches = 4

// GetMany fetches the experiments with the given ids concurrently and
// returns them in the order of ids. The first failure cancels the rest.
func GetMany(ctx context.Context, svc ports.ExperimentService, ids []string) ([]*domain.Experiment, error) {
	out := make([]*domain.Experiment, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for i, id := range ids {
		g.Go(func() error {
			exp, err := svc.Get(ctx, id)
			if err != nil {
				return err
			}
			out[i] = exp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
