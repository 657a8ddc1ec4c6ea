package domain

import (
	"fmt"
	"strings"
)

// AllowedRadiusMiles is the closed set of search radii the UI offers.
var AllowedRadiusMiles = []int{5, 10, 15, 25, 50, 75, 100}

type SearchRequest struct {
	Industries  []string `json:"industries"`
	Location    string   `json:"location"`
	RadiusMiles int      `json:"radius_miles"`
}

// Validate rejects the request as a whole; nothing is corrected in place.
func (r SearchRequest) Validate() error {
	if len(r.Industries) == 0 {
		return &ValidationError{Field: "industries", Message: "at least one industry is required"}
	}
	for i, ind := range r.Industries {
		if strings.TrimSpace(ind) == "" {
			return &ValidationError{Field: "industries", Message: fmt.Sprintf("industries[%d] is empty", i)}
		}
	}

	parts := strings.Split(r.Location, ",")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return &ValidationError{Field: "location", Message: `location must look like "City, Region"`}
	}

	if !radiusAllowed(r.RadiusMiles) {
		return &ValidationError{
			Field:   "radius_miles",
			Message: fmt.Sprintf("radius_miles must be one of %v", AllowedRadiusMiles),
		}
	}
	return nil
}

func radiusAllowed(m int) bool {
	for _, v := range AllowedRadiusMiles {
		if v == m {
			return true
		}
	}
	return false
}
