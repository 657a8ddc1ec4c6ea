package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"dealflow-engine/internal/domain"
	"dealflow-engine/internal/places"
	"dealflow-engine/internal/review"
)

type fakeGeocoder struct {
	calls atomic.Int32
	err   error
}

func (g *fakeGeocoder) Geocode(ctx context.Context, location string) (domain.Coordinate, error) {
	g.calls.Add(1)
	if g.err != nil {
		return domain.Coordinate{}, g.err
	}
	return domain.Coordinate{Lat: 30.2672, Lng: -97.7431}, nil
}

// fakeSearcher returns byKeyword[kw]; keywords listed in fail also error.
type fakeSearcher struct {
	mu        sync.Mutex
	calls     []string
	byKeyword map[string][]domain.RawCandidate
	fail      map[string]bool
}

func (s *fakeSearcher) Search(ctx context.Context, kw string, at domain.Coordinate, radius int) ([]domain.RawCandidate, error) {
	s.mu.Lock()
	s.calls = append(s.calls, kw)
	s.mu.Unlock()
	res := s.byKeyword[kw]
	if s.fail[kw] {
		return res, fmt.Errorf("%w: boom", domain.ErrUpstream)
	}
	return res, nil
}

type fakeDetails struct {
	calls   atomic.Int32
	website map[string]string
	fail    map[string]bool
}

func (d *fakeDetails) Details(ctx context.Context, id string) (places.Details, error) {
	d.calls.Add(1)
	if d.fail[id] {
		return places.Details{}, errors.New("detail timeout")
	}
	return places.Details{Website: d.website[id], Phone: "555-0100"}, nil
}

type fakePages struct {
	fail bool
}

func (p fakePages) Text(ctx context.Context, website string) (string, error) {
	if p.fail {
		return "(no homepage text available)", errors.New("dns")
	}
	return "homepage of " + website, nil
}

// fakeReviewer answers from decide, counting calls.
type fakeReviewer struct {
	calls  int
	inputs []review.Input
	decide func(n int, in review.Input) (domain.ReviewVerdict, error)
}

func (r *fakeReviewer) Review(ctx context.Context, in review.Input) (domain.ReviewVerdict, error) {
	r.calls++
	r.inputs = append(r.inputs, in)
	return r.decide(r.calls, in)
}

func keepAll(n int, in review.Input) (domain.ReviewVerdict, error) {
	return domain.ReviewVerdict{Keep: true, Tier: domain.TierA, Reasons: []string{"ok"}, RedFlags: []string{}}, nil
}

func rejectAll(n int, in review.Input) (domain.ReviewVerdict, error) {
	return domain.ReviewVerdict{Keep: false, Tier: domain.TierC, Reasons: []string{}, RedFlags: []string{"chain"}}, nil
}

type fakeStore struct {
	mu    sync.Mutex
	calls int
	rows  map[string]domain.Listing
	err   error
}

func (s *fakeStore) UpsertListings(ctx context.Context, ls []domain.Listing) ([]domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.rows == nil {
		s.rows = map[string]domain.Listing{}
	}
	out := make([]domain.Listing, 0, len(ls))
	for _, l := range ls {
		key := l.WorkspaceID + "|" + l.ExternalSource + "|" + l.ExternalID
		if prev, ok := s.rows[key]; ok {
			l.ID = prev.ID
			l.IsSaved = prev.IsSaved
		} else {
			l.ID = int64(len(s.rows) + 1)
		}
		s.rows[key] = l
		out = append(out, l)
	}
	return out, nil
}

func cands(n int, website func(i int) string) []domain.Candidate {
	out := make([]domain.Candidate, n)
	for i := range out {
		id := fmt.Sprintf("p%02d", i)
		out[i] = domain.Candidate{ExternalID: id, DedupeKey: id, Name: "Shop " + id, Website: website(i)}
	}
	return out
}
