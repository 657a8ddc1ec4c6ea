package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"dealflow-engine/internal/config"
	"dealflow-engine/internal/domain"
	"dealflow-engine/internal/metrics"
	"dealflow-engine/internal/places"
)

type Deps struct {
	Geocoder Geocoder
	Searcher PlaceSearcher
	Details  DetailFetcher
	Pages    HomepageReader
	Reviewer Reviewer
	Store    ListingWriter
	Limits   config.Discovery
	Logger   zerolog.Logger
}

type Pipeline struct {
	d   Deps
	log zerolog.Logger
}

func New(d Deps) *Pipeline {
	return &Pipeline{d: d, log: d.Logger.With().Str("component", "discovery").Logger()}
}

type Result struct {
	Listings []domain.Listing
	Funnel   domain.Funnel
}

// Run executes one search end to end inside the caller's request. Only a
// geocode failure, a store failure or cancellation abort it; every other
// provider failure narrows the funnel instead.
func (p *Pipeline) Run(ctx context.Context, workspaceID string, req domain.SearchRequest) (res Result, err error) {
	if err := req.Validate(); err != nil {
		return res, err
	}
	lim := p.d.Limits
	start := time.Now()
	log := p.log.With().Str("workspace_id", workspaceID).Str("location", req.Location).Logger()

	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.SearchesTotal.WithLabelValues(outcome).Inc()
		metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}()

	// Phase 1: keywords and anchor point.
	keywords := ExpandKeywords(req.Industries, lim.MaxBaseKeywords, lim.MaxKeywords)
	res.Funnel.KeywordsUsed = keywords
	res.Funnel.RadiusMeters, res.Funnel.RadiusClamped = places.ClampRadius(req.RadiusMiles)
	if res.Funnel.RadiusClamped {
		log.Warn().
			Int("radius_miles", req.RadiusMiles).
			Int("radius_meters", res.Funnel.RadiusMeters).
			Msg("radius clamped to provider maximum")
	}

	at, err := p.d.Geocoder.Geocode(ctx, req.Location)
	if err != nil {
		return res, err
	}

	// Phase 2: discovery.
	batches := SearchAll(ctx, p.d.Searcher, keywords, at, req.RadiusMiles, lim.SearchWorkers, log)
	raw, deduped := Merge(batches)
	res.Funnel.MergedResults = raw
	res.Funnel.DedupedResults = len(deduped)
	if err := ctx.Err(); err != nil {
		return res, err
	}

	// Phase 3: enrichment and cheap filters.
	detailed := Enrich(ctx, p.d.Details, deduped, lim.DetailCap, lim.DetailWorkers, log)
	res.Funnel.Detailed = len(detailed)
	if err := ctx.Err(); err != nil {
		return res, err
	}

	fr := FilterCascade(detailed, lim.MinReviews, lim.MinRating, lim.SurvivorCap)
	res.Funnel.Survivors = len(fr.Survivors)
	res.Funnel.Prefiltered = len(fr.Prefiltered)

	// Phase 4: budgeted review.
	rv, err := ReviewCandidates(ctx, p.d.Pages, p.d.Reviewer, req, fr.Prefiltered, lim.TargetMax, lim.ReviewBudget, log)
	res.Funnel.AIReviewed = rv.Reviewed
	res.Funnel.Kept = len(rv.Accepted)
	if err != nil {
		return res, err
	}

	observeFunnel(res.Funnel)
	log.Info().
		Strs("keywords", keywords).
		Int("merged", raw).
		Int("deduped", res.Funnel.DedupedResults).
		Int("detailed", res.Funnel.Detailed).
		Int("survivors", res.Funnel.Survivors).
		Int("prefiltered", res.Funnel.Prefiltered).
		Int("reviewed", rv.Reviewed).
		Int("kept", res.Funnel.Kept).
		Interface("rejected", fr.Rejected).
		Msg("search funnel")

	// Phase 5: persist.
	if len(rv.Accepted) == 0 {
		res.Listings = []domain.Listing{}
		return res, nil
	}
	saved, err := p.d.Store.UpsertListings(ctx, BuildListings(workspaceID, rv.Accepted))
	if err != nil {
		return res, fmt.Errorf("%w: %v", domain.ErrPersist, err)
	}
	res.Listings = saved
	return res, nil
}

func observeFunnel(f domain.Funnel) {
	for stage, n := range map[string]int{
		"merged":      f.MergedResults,
		"deduped":     f.DedupedResults,
		"detailed":    f.Detailed,
		"survivors":   f.Survivors,
		"prefiltered": f.Prefiltered,
		"reviewed":    f.AIReviewed,
		"kept":        f.Kept,
	} {
		metrics.StageCandidates.WithLabelValues(stage).Observe(float64(n))
	}
}
