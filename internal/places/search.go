package places

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"dealflow-engine/internal/domain"
)

const (
	metersPerMile = 1609.344
	// MaxRadiusMeters is the largest radius nearby search accepts.
	MaxRadiusMeters = 50000
)

func RadiusMeters(miles int) int {
	m, _ := ClampRadius(miles)
	return m
}

// ClampRadius converts miles to meters and reports whether the provider
// maximum cut it down.
func ClampRadius(miles int) (meters int, clamped bool) {
	m := int(math.Round(float64(miles) * metersPerMile))
	if m > MaxRadiusMeters {
		return MaxRadiusMeters, true
	}
	return m, false
}

type nearbyResponse struct {
	apiStatus
	NextPageToken string `json:"next_page_token"`
	Results       []struct {
		PlaceID          string    `json:"place_id"`
		Name             string    `json:"name"`
		Vicinity         string    `json:"vicinity"`
		FormattedAddress string    `json:"formatted_address"`
		Rating           *float64  `json:"rating"`
		UserRatingsTotal *int      `json:"user_ratings_total"`
		Geometry         *geometry `json:"geometry"`
	} `json:"results"`
}

// Search pages through nearby-search results for one keyword. Pages already
// collected are returned alongside an error from a later page.
func (c *Client) Search(ctx context.Context, keyword string, at domain.Coordinate, radiusMiles int) ([]domain.RawCandidate, error) {
	var out []domain.RawCandidate
	token := ""

	for page := 1; page <= c.maxPages; page++ {
		q := url.Values{}
		if token == "" {
			q.Set("keyword", keyword)
			q.Set("location", fmt.Sprintf("%.6f,%.6f", at.Lat, at.Lng))
			q.Set("radius", strconv.Itoa(RadiusMeters(radiusMiles)))
		} else {
			if err := c.wait(ctx, c.settle); err != nil {
				return out, err
			}
			q.Set("pagetoken", token)
		}

		var resp nearbyResponse
		if err := c.getJSON(ctx, "nearby_search", "/place/nearbysearch/json", q, &resp); err != nil {
			return out, fmt.Errorf("%w: keyword=%q page=%d: %v", domain.ErrUpstream, keyword, page, err)
		}

		switch resp.Status {
		case statusOK:
		case statusZeroResults:
			return out, nil
		default:
			return out, fmt.Errorf("%w: nearby search keyword=%q page=%d status=%s %s",
				domain.ErrUpstream, keyword, page, resp.Status, resp.ErrorMessage)
		}

		for _, r := range resp.Results {
			addr := r.FormattedAddress
			if addr == "" {
				addr = r.Vicinity
			}
			out = append(out, domain.RawCandidate{
				ExternalID:    r.PlaceID,
				Name:          r.Name,
				RoughLocation: r.Vicinity,
				CoarseAddress: addr,
				Coordinate:    r.Geometry.coordinate(),
				Rating:        r.Rating,
				RatingCount:   r.UserRatingsTotal,
			})
		}

		c.log.Debug().Str("keyword", keyword).Int("page", page).Int("results", len(resp.Results)).Msg("nearby page")

		token = resp.NextPageToken
		if token == "" {
			break
		}
	}
	return out, nil
}

// wait is the mandated pause before a next-page token becomes valid.
func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}
