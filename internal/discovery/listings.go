package discovery

import (
	"context"

	"dealflow-engine/internal/domain"
)

// ExternalSource names the provider the listing ids belong to.
const ExternalSource = "google_places"

type ListingWriter interface {
	UpsertListings(ctx context.Context, ls []domain.Listing) ([]domain.Listing, error)
}

func BuildListings(workspaceID string, accepted []domain.Accepted) []domain.Listing {
	out := make([]domain.Listing, 0, len(accepted))
	for _, a := range accepted {
		c := a.Candidate
		out = append(out, domain.Listing{
			WorkspaceID:    workspaceID,
			SourceType:     domain.SourceOffMarket,
			ExternalSource: ExternalSource,
			ExternalID:     c.ExternalID,
			DedupeKey:      c.DedupeKey,
			CompanyName:    c.Name,
			Address:        c.Address,
			Phone:          c.Phone,
			Website:        c.Website,
			Coordinate:     c.Coordinate,
			Rating:         c.Rating,
			RatingCount:    c.RatingCount,
			Tier:           a.Verdict.Tier,
			TierReasons:    domain.TierReasons{Reasons: a.Verdict.Reasons, RedFlags: a.Verdict.RedFlags},
		})
	}
	return out
}
