package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// SourceOffMarket tags every listing this engine writes.
const SourceOffMarket = "off_market"

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RawCandidate is one place as the search provider returned it, before any
// detail lookup.
type RawCandidate struct {
	ExternalID    string
	Name          string
	RoughLocation string
	CoarseAddress string
	Coordinate    *Coordinate
	Rating        *float64
	RatingCount   *int
}

type Candidate struct {
	ExternalID  string      `json:"external_id"`
	DedupeKey   string      `json:"dedupe_key"`
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	Phone       string      `json:"phone,omitempty"`
	Website     string      `json:"website,omitempty"`
	Coordinate  *Coordinate `json:"coordinate,omitempty"`
	Rating      *float64    `json:"rating,omitempty"`
	RatingCount *int        `json:"rating_count,omitempty"`
}

func (c Candidate) HasWebsite() bool { return strings.TrimSpace(c.Website) != "" }

// CandidateFromRaw keeps the coarse search fields; detail enrichment may
// overwrite them later.
func CandidateFromRaw(r RawCandidate) Candidate {
	addr := r.CoarseAddress
	if addr == "" {
		addr = r.RoughLocation
	}
	return Candidate{
		ExternalID:  r.ExternalID,
		DedupeKey:   DedupeKey(r.ExternalID, r.Name, addr),
		Name:        r.Name,
		Address:     addr,
		Coordinate:  r.Coordinate,
		Rating:      r.Rating,
		RatingCount: r.RatingCount,
	}
}

// DedupeKey is the provider id when present, otherwise a stable hash of the
// normalized name and address.
func DedupeKey(externalID, name, address string) string {
	if id := strings.TrimSpace(externalID); id != "" {
		return id
	}
	norm := func(s string) string {
		return strings.ToLower(strings.Join(strings.Fields(s), " "))
	}
	sum := sha1.Sum([]byte(norm(name) + "|" + norm(address)))
	return "na:" + hex.EncodeToString(sum[:])
}

type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
)

func (t Tier) Valid() bool {
	switch t {
	case TierA, TierB, TierC:
		return true
	}
	return false
}

type ReviewVerdict struct {
	Keep     bool     `json:"keep"`
	Tier     Tier     `json:"tier"`
	Reasons  []string `json:"reasons"`
	RedFlags []string `json:"red_flags"`
}

// Accepted is a candidate the review pass decided to keep.
type Accepted struct {
	Candidate Candidate
	Verdict   ReviewVerdict
}

type Listing struct {
	ID             int64       `json:"id"`
	WorkspaceID    string      `json:"workspace_id"`
	SourceType     string      `json:"source_type"`
	ExternalSource string      `json:"external_source"`
	ExternalID     string      `json:"external_id"`
	DedupeKey      string      `json:"dedupe_key"`
	CompanyName    string      `json:"company_name"`
	Address        string      `json:"address"`
	Phone          string      `json:"phone"`
	Website        string      `json:"website"`
	Coordinate     *Coordinate `json:"coordinate,omitempty"`
	Rating         *float64    `json:"rating,omitempty"`
	RatingCount    *int        `json:"rating_count,omitempty"`
	Tier           Tier        `json:"tier"`
	TierReasons    TierReasons `json:"tier_reasons"`
	IsSaved        bool        `json:"is_saved"`
}

type TierReasons struct {
	Reasons  []string `json:"reasons"`
	RedFlags []string `json:"red_flags"`
}

// Funnel counts each pipeline stage's output for one search.
type Funnel struct {
	KeywordsUsed   []string `json:"keywords_used"`
	RadiusMeters   int      `json:"radius_meters"`
	RadiusClamped  bool     `json:"radius_clamped"`
	MergedResults  int      `json:"merged_results"`
	DedupedResults int      `json:"deduped_results"`
	Detailed       int      `json:"detailed"`
	Survivors      int      `json:"survivors"`
	Prefiltered    int      `json:"prefiltered"`
	AIReviewed     int      `json:"ai_reviewed"`
	Kept           int      `json:"kept"`
}
