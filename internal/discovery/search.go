package discovery

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"dealflow-engine/internal/domain"
)

type Geocoder interface {
	Geocode(ctx context.Context, location string) (domain.Coordinate, error)
}

type PlaceSearcher interface {
	Search(ctx context.Context, keyword string, at domain.Coordinate, radiusMiles int) ([]domain.RawCandidate, error)
}

// SearchAll runs one paginated search per keyword in parallel. Batches come
// back in keyword order; a failing keyword contributes whatever pages it got.
func SearchAll(ctx context.Context, s PlaceSearcher, keywords []string, at domain.Coordinate, radiusMiles, workers int, log zerolog.Logger) [][]domain.RawCandidate {
	batches := make([][]domain.RawCandidate, len(keywords))

	var g errgroup.Group
	g.SetLimit(max(workers, 1))

	for i, kw := range keywords {
		g.Go(func() error {
			res, err := s.Search(ctx, kw, at, radiusMiles)
			if err != nil {
				log.Warn().Err(err).Str("keyword", kw).Int("kept_results", len(res)).Msg("keyword search degraded")
			}
			batches[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return batches
}
