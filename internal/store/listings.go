package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dealflow-engine/internal/domain"
)

const listingColumns = `workspace_id, source_type, external_source, external_id, dedupe_key,
  company_name, address, phone, website, lat, lng, rating, rating_count,
  tier, tier_reason_payload, is_saved, created_at, updated_at`

// is_saved and created_at keep their first-insert values on conflict.
const upsertListingsConflict = `
ON CONFLICT (workspace_id, external_source, external_id) DO UPDATE SET
  source_type = excluded.source_type,
  dedupe_key = excluded.dedupe_key,
  company_name = excluded.company_name,
  address = excluded.address,
  phone = excluded.phone,
  website = excluded.website,
  lat = excluded.lat,
  lng = excluded.lng,
  rating = excluded.rating,
  rating_count = excluded.rating_count,
  tier = excluded.tier,
  tier_reason_payload = excluded.tier_reason_payload,
  updated_at = excluded.updated_at;`

const selectListing = `
SELECT id, workspace_id, source_type, external_source, external_id, dedupe_key,
  company_name, address, phone, website, lat, lng, rating, rating_count,
  tier, tier_reason_payload, is_saved
FROM listings`

const listingPlaceholders = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

// UpsertListings writes ls as one batched statement and reads the stored
// rows back in input order.
func (d *DB) UpsertListings(ctx context.Context, ls []domain.Listing) ([]domain.Listing, error) {
	ls = uniqueByKey(ls)
	if len(ls) == 0 {
		return []domain.Listing{}, nil
	}
	now := time.Now().UTC()

	var (
		rows []string
		args []any
	)
	for _, l := range ls {
		payload, err := json.Marshal(l.TierReasons)
		if err != nil {
			return nil, fmt.Errorf("encode tier reasons: %w", err)
		}
		var lat, lng any
		if l.Coordinate != nil {
			lat, lng = l.Coordinate.Lat, l.Coordinate.Lng
		}
		rows = append(rows, listingPlaceholders)
		args = append(args,
			l.WorkspaceID, l.SourceType, l.ExternalSource, l.ExternalID, l.DedupeKey,
			l.CompanyName, l.Address, l.Phone, l.Website, lat, lng, nullFloat(l.Rating), nullInt(l.RatingCount),
			string(l.Tier), string(payload), false, now, now,
		)
	}

	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	q := "INSERT INTO listings (" + listingColumns + ")\nVALUES " + strings.Join(rows, ",\n") + upsertListingsConflict
	if _, err := tx.ExecContext(ctx, d.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("upsert listings: %w", err)
	}

	ids := make([]any, 0, len(ls)+2)
	ids = append(ids, ls[0].WorkspaceID, ls[0].ExternalSource)
	marks := make([]string, len(ls))
	for i, l := range ls {
		ids = append(ids, l.ExternalID)
		marks[i] = "?"
	}
	sel := selectListing + "\nWHERE workspace_id = ? AND external_source = ? AND external_id IN (" + strings.Join(marks, ", ") + ");"

	got, err := queryListings(ctx, tx, d.Rebind(sel), ids...)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Listing, len(got))
	for _, l := range got {
		byID[l.ExternalID] = l
	}
	out := make([]domain.Listing, 0, len(ls))
	for _, l := range ls {
		if saved, ok := byID[l.ExternalID]; ok {
			out = append(out, saved)
		}
	}
	return out, nil
}

type ListListingsOpts struct {
	Tier       string // A | B | C | "" for all
	SavedOnly  bool
	Limit      int
	SourceType string
}

func (d *DB) ListListings(ctx context.Context, workspaceID string, opts ListListingsOpts) ([]domain.Listing, error) {
	if opts.Limit <= 0 || opts.Limit > 1000 {
		opts.Limit = 200
	}
	if opts.SourceType == "" {
		opts.SourceType = domain.SourceOffMarket
	}

	where := []string{"workspace_id = ?", "source_type = ?"}
	args := []any{workspaceID, opts.SourceType}
	if opts.Tier != "" {
		where = append(where, "tier = ?")
		args = append(args, opts.Tier)
	}
	if opts.SavedOnly {
		where = append(where, "is_saved = ?")
		args = append(args, true)
	}
	args = append(args, opts.Limit)

	q := selectListing + "\nWHERE " + strings.Join(where, " AND ") + "\nORDER BY tier ASC, id ASC\nLIMIT ?;"
	return queryListings(ctx, d.Pool, d.Rebind(q), args...)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryListings(ctx context.Context, q queryer, query string, args ...any) ([]domain.Listing, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	out := []domain.Listing{}
	for rows.Next() {
		var (
			l           domain.Listing
			tier        string
			payload     string
			lat, lng    sql.NullFloat64
			rating      sql.NullFloat64
			ratingCount sql.NullInt64
		)
		if err := rows.Scan(
			&l.ID, &l.WorkspaceID, &l.SourceType, &l.ExternalSource, &l.ExternalID, &l.DedupeKey,
			&l.CompanyName, &l.Address, &l.Phone, &l.Website, &lat, &lng, &rating, &ratingCount,
			&tier, &payload, &l.IsSaved,
		); err != nil {
			return nil, err
		}
		l.Tier = domain.Tier(tier)
		_ = json.Unmarshal([]byte(payload), &l.TierReasons)
		if lat.Valid && lng.Valid {
			l.Coordinate = &domain.Coordinate{Lat: lat.Float64, Lng: lng.Float64}
		}
		if rating.Valid {
			v := rating.Float64
			l.Rating = &v
		}
		if ratingCount.Valid {
			v := int(ratingCount.Int64)
			l.RatingCount = &v
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func uniqueByKey(ls []domain.Listing) []domain.Listing {
	seen := map[string]bool{}
	out := ls[:0:0]
	for _, l := range ls {
		k := l.WorkspaceID + "\x00" + l.ExternalSource + "\x00" + l.ExternalID
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, l)
	}
	return out
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}
