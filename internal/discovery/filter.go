package discovery

import (
	"strings"

	"dealflow-engine/internal/domain"
)

// blacklist holds name fragments of businesses that are not independently
// owned: franchise systems, PE platforms, holding companies.
var blacklist = []string{
	"franchise",
	"franchising",
	"private equity",
	"holdings",
	"holding company",
	"capital partners",
	"equity partners",
	"portfolio company",
	"acquisition corp",
	"investment group",
}

// HardFilter rejects candidates that can never be reviewed.
func HardFilter(c domain.Candidate) (keep bool, reason string) {
	if !c.HasWebsite() {
		return false, "no_website"
	}
	name := strings.ToLower(c.Name)
	for _, term := range blacklist {
		if strings.Contains(name, term) {
			return false, "blacklisted_name"
		}
	}
	return true, ""
}

// Prefilter is deliberately permissive: a business with no rating signal
// at all passes, otherwise either a review-count or rating floor is enough.
func Prefilter(c domain.Candidate, minReviews int, minRating float64) (keep bool, reason string) {
	if c.Rating == nil && c.RatingCount == nil {
		return true, ""
	}
	if c.RatingCount != nil && *c.RatingCount >= minReviews {
		return true, ""
	}
	if c.Rating != nil && *c.Rating >= minRating {
		return true, ""
	}
	return false, "below_quality_floor"
}

type FilterResult struct {
	Survivors   []domain.Candidate // passed HardFilter
	Prefiltered []domain.Candidate // passed Prefilter, capped
	Rejected    map[string]int
}

func FilterCascade(cands []domain.Candidate, minReviews int, minRating float64, survivorCap int) FilterResult {
	res := FilterResult{Rejected: map[string]int{}}

	for _, c := range cands {
		if ok, why := HardFilter(c); !ok {
			res.Rejected[why]++
			continue
		}
		res.Survivors = append(res.Survivors, c)
	}

	for _, c := range res.Survivors {
		if ok, why := Prefilter(c, minReviews, minRating); !ok {
			res.Rejected[why]++
			continue
		}
		res.Prefiltered = append(res.Prefiltered, c)
	}

	if len(res.Prefiltered) > survivorCap {
		res.Prefiltered = res.Prefiltered[:survivorCap]
	}
	return res
}
