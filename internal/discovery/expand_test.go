package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandKeywordsHVAC(t *testing.T) {
	got := ExpandKeywords([]string{" HVAC "}, 8, 12)

	assert.Equal(t, []string{
		"hvac", "heating", "air conditioning", "mechanical contractor",
		"hvac contractor", "heating contractor", "air conditioning contractor",
	}, got)
}

func TestExpandKeywordsUnknownLabel(t *testing.T) {
	got := ExpandKeywords([]string{"Sign Shop"}, 8, 12)
	assert.Equal(t, []string{"sign shop", "sign shop contractor"}, got)
}

func TestExpandKeywordsCleaningGetsService(t *testing.T) {
	got := ExpandKeywords([]string{"commercial cleaning"}, 8, 12)
	assert.Equal(t, []string{
		"commercial cleaning", "janitorial", "office cleaning",
		"commercial cleaning service", "janitorial service", "office cleaning service",
	}, got)
}

func TestExpandKeywordsDedupesAcrossIndustries(t *testing.T) {
	got := ExpandKeywords([]string{"cleaning", "Commercial Cleaning"}, 8, 12)

	seen := map[string]int{}
	for _, k := range got {
		seen[k]++
	}
	for k, n := range seen {
		assert.Equal(t, 1, n, "duplicate keyword %q", k)
	}
	assert.Equal(t, 1, seen["janitorial"])
}

func TestExpandKeywordsCaps(t *testing.T) {
	got := ExpandKeywords([]string{"hvac", "plumbing", "roofing", "landscaping"}, 8, 12)

	assert.Len(t, got, 12)
	// base keywords are capped at 8 and always come first
	assert.Equal(t, []string{
		"hvac", "heating", "air conditioning", "mechanical contractor",
		"plumbing", "drain cleaning", "water heater repair", "roofing",
	}, got[:8])
	assert.Equal(t, "hvac contractor", got[8])
}

func TestExpandKeywordsNeverDropsBase(t *testing.T) {
	got := ExpandKeywords([]string{"hvac", "plumbing"}, 8, 3)
	assert.Len(t, got, 7)
	assert.Equal(t, "water heater repair", got[6])
}
