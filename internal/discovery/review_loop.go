package discovery

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"dealflow-engine/internal/domain"
	"dealflow-engine/internal/metrics"
	"dealflow-engine/internal/review"
)

type HomepageReader interface {
	Text(ctx context.Context, website string) (string, error)
}

type Reviewer interface {
	Review(ctx context.Context, in review.Input) (domain.ReviewVerdict, error)
}

type ReviewOutcome struct {
	Accepted []domain.Accepted
	Reviewed int
}

// ReviewCandidates walks cands in order, one model call at a time, until
// targetMax candidates are kept or budget calls have been spent.
func ReviewCandidates(
	ctx context.Context,
	pages HomepageReader,
	reviewer Reviewer,
	req domain.SearchRequest,
	cands []domain.Candidate,
	targetMax, budget int,
	log zerolog.Logger,
) (ReviewOutcome, error) {
	var out ReviewOutcome

reviewLoop:
	for _, c := range cands {
		switch {
		case len(out.Accepted) >= targetMax:
			break reviewLoop
		case out.Reviewed >= budget:
			break reviewLoop
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if !c.HasWebsite() {
			continue
		}

		text, err := pages.Text(ctx, c.Website)
		if err != nil {
			log.Debug().Err(err).Str("website", c.Website).Msg("homepage unavailable")
		}

		v, err := reviewer.Review(ctx, review.Input{Request: req, Candidate: c, HomepageText: text})
		out.Reviewed++
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			if errors.Is(err, domain.ErrMalformedVerdict) {
				// The model answered but broke the verdict schema.
				metrics.ReviewVerdicts.WithLabelValues("malformed").Inc()
				log.Error().Err(err).Str("place_id", c.ExternalID).Str("name", c.Name).Msg("malformed verdict; candidate dropped")
				continue
			}
			metrics.ReviewVerdicts.WithLabelValues("failed").Inc()
			log.Warn().Err(err).Str("place_id", c.ExternalID).Str("name", c.Name).Msg("review failed; candidate dropped")
			continue
		}
		if !v.Keep {
			metrics.ReviewVerdicts.WithLabelValues("rejected").Inc()
			continue
		}
		metrics.ReviewVerdicts.WithLabelValues("kept").Inc()
		out.Accepted = append(out.Accepted, domain.Accepted{Candidate: c, Verdict: v})
	}
	return out, nil
}
