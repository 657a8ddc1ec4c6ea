package review

import (
	"fmt"
	"strings"

	"dealflow-engine/internal/domain"
)

const systemPrompt = `You screen small private companies for a search-fund style acquirer.
Keep owner-operated, established local businesses that could plausibly be acquired.
Reject franchises, franchise locations, national chains, private-equity or holding-company
owned businesses, lead-generation directories, and companies that look inactive.
Tier A: strong fit, clearly independent and established. Tier B: likely fit with gaps.
Tier C: weak or uncertain fit.
Answer with a single JSON object only:
{"keep": boolean, "tier": "A"|"B"|"C", "reasons": [string], "red_flags": [string]}`

type Input struct {
	Request      domain.SearchRequest
	Candidate    domain.Candidate
	HomepageText string
}

func userPrompt(in Input) string {
	var b strings.Builder
	c := in.Candidate

	fmt.Fprintf(&b, "Search: industries=%s location=%q radius=%d miles\n\n",
		strings.Join(in.Request.Industries, ", "), in.Request.Location, in.Request.RadiusMiles)
	fmt.Fprintf(&b, "Company: %s\nAddress: %s\nWebsite: %s\n", c.Name, c.Address, c.Website)
	if c.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", c.Phone)
	}
	if c.Rating != nil {
		fmt.Fprintf(&b, "Rating: %.1f\n", *c.Rating)
	}
	if c.RatingCount != nil {
		fmt.Fprintf(&b, "Review count: %d\n", *c.RatingCount)
	}
	fmt.Fprintf(&b, "\nHomepage text:\n%s\n", in.HomepageText)
	return b.String()
}
