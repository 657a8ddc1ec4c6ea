package places

import (
	"context"
	"fmt"
	"net/url"

	"dealflow-engine/internal/domain"
)

type geocodeResponse struct {
	apiStatus
	Results []struct {
		FormattedAddress string   `json:"formatted_address"`
		Geometry         geometry `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves "City, Region" to a point. Any non-OK answer is final.
func (c *Client) Geocode(ctx context.Context, location string) (domain.Coordinate, error) {
	var resp geocodeResponse
	q := url.Values{}
	q.Set("address", location)

	if err := c.getJSON(ctx, "geocode", "/geocode/json", q, &resp); err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: %v", domain.ErrGeocode, err)
	}
	if resp.Status != statusOK || len(resp.Results) == 0 {
		return domain.Coordinate{}, fmt.Errorf("%w: status=%s location=%q %s",
			domain.ErrGeocode, resp.Status, location, resp.ErrorMessage)
	}

	loc := resp.Results[0].Geometry.Location
	c.log.Debug().Str("location", location).Float64("lat", loc.Lat).Float64("lng", loc.Lng).Msg("geocoded")
	return domain.Coordinate{Lat: loc.Lat, Lng: loc.Lng}, nil
}
