package discovery

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"dealflow-engine/internal/domain"
	"dealflow-engine/internal/places"
)

type DetailFetcher interface {
	Details(ctx context.Context, placeID string) (places.Details, error)
}

// Enrich fetches details for the first limit candidates with at most workers
// calls in flight. A failed lookup keeps the coarse search fields; output
// order matches input order.
func Enrich(ctx context.Context, df DetailFetcher, cands []domain.Candidate, limit, workers int, log zerolog.Logger) []domain.Candidate {
	if len(cands) > limit {
		cands = cands[:limit]
	}
	out := make([]domain.Candidate, len(cands))

	var g errgroup.Group
	g.SetLimit(max(workers, 1))

	for i, c := range cands {
		g.Go(func() error {
			out[i] = c
			d, err := df.Details(ctx, c.ExternalID)
			if err != nil {
				// one bad lookup must not cancel its siblings
				log.Warn().Err(err).Str("place_id", c.ExternalID).Msg("detail lookup failed; keeping search fields")
				return nil
			}
			out[i] = d.Apply(c)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
