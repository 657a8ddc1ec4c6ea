package places

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"dealflow-engine/internal/domain"
)

const detailFields = "place_id,name,formatted_address,formatted_phone_number,website,geometry/location,rating,user_ratings_total"

type Details struct {
	Name        string
	Address     string
	Phone       string
	Website     string
	Coordinate  *domain.Coordinate
	Rating      *float64
	RatingCount *int
}

type detailsResponse struct {
	apiStatus
	Result struct {
		Name                 string    `json:"name"`
		FormattedAddress     string    `json:"formatted_address"`
		FormattedPhoneNumber string    `json:"formatted_phone_number"`
		Website              string    `json:"website"`
		Rating               *float64  `json:"rating"`
		UserRatingsTotal     *int      `json:"user_ratings_total"`
		Geometry             *geometry `json:"geometry"`
	} `json:"result"`
}

func (c *Client) Details(ctx context.Context, placeID string) (Details, error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", detailFields)

	var resp detailsResponse
	if err := c.getJSON(ctx, "place_details", "/place/details/json", q, &resp); err != nil {
		return Details{}, fmt.Errorf("%w: details place_id=%s: %v", domain.ErrUpstream, placeID, err)
	}
	if resp.Status != statusOK {
		return Details{}, fmt.Errorf("%w: details place_id=%s status=%s %s",
			domain.ErrUpstream, placeID, resp.Status, resp.ErrorMessage)
	}

	r := resp.Result
	return Details{
		Name:        strings.TrimSpace(r.Name),
		Address:     strings.TrimSpace(r.FormattedAddress),
		Phone:       strings.TrimSpace(r.FormattedPhoneNumber),
		Website:     strings.TrimSpace(r.Website),
		Coordinate:  r.Geometry.coordinate(),
		Rating:      r.Rating,
		RatingCount: r.UserRatingsTotal,
	}, nil
}

// Apply overlays the non-empty detail fields onto c.
func (d Details) Apply(c domain.Candidate) domain.Candidate {
	if d.Name != "" {
		c.Name = d.Name
	}
	if d.Address != "" {
		c.Address = d.Address
	}
	if d.Phone != "" {
		c.Phone = d.Phone
	}
	if d.Website != "" {
		c.Website = d.Website
	}
	if d.Coordinate != nil {
		c.Coordinate = d.Coordinate
	}
	if d.Rating != nil {
		c.Rating = d.Rating
	}
	if d.RatingCount != nil {
		c.RatingCount = d.RatingCount
	}
	return c
}
