package discovery

import (
	"strings"

	"dealflow-engine/internal/domain"
)

// Merge flattens per-keyword results into one list, keeping the first
// occurrence of each provider id. Results with no id are dropped. The
// returned count is every raw result seen, before any dropping.
func Merge(batches [][]domain.RawCandidate) (raw int, out []domain.Candidate) {
	seen := make(map[string]struct{})
	for _, batch := range batches {
		raw += len(batch)
		for _, r := range batch {
			id := strings.TrimSpace(r.ExternalID)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			r.ExternalID = id
			out = append(out, domain.CandidateFromRaw(r))
		}
	}
	return raw, out
}
