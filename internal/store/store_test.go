package store

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealflow-engine/internal/domain"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "dealflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func listing(id, name string, tier domain.Tier) domain.Listing {
	rating := 4.7
	count := 31
	return domain.Listing{
		WorkspaceID:    "ws-1",
		SourceType:     domain.SourceOffMarket,
		ExternalSource: "google_places",
		ExternalID:     id,
		DedupeKey:      id,
		CompanyName:    name,
		Address:        "1 Main St, Austin, TX",
		Website:        "https://" + id + ".example",
		Coordinate:     &domain.Coordinate{Lat: 30.2, Lng: -97.7},
		Rating:         &rating,
		RatingCount:    &count,
		Tier:           tier,
		TierReasons:    domain.TierReasons{Reasons: []string{"owner operated"}, RedFlags: []string{}},
	}
}

func TestMigrateIsRepeatable(t *testing.T) {
	db := openTemp(t)
	require.NoError(t, Migrate(db))

	var v int
	require.NoError(t, db.Pool.QueryRow(`PRAGMA user_version;`).Scan(&v))
	assert.Equal(t, schemaVersion, v)
}

func TestUpsertListingsIsIdempotentAndKeepsSaved(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	first, err := db.UpsertListings(ctx, []domain.Listing{listing("a", "Acme Air", domain.TierA), listing("b", "Bravo Heat", domain.TierB)})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0].ExternalID)
	assert.False(t, first[0].IsSaved)
	assert.Equal(t, []string{"owner operated"}, first[0].TierReasons.Reasons)
	require.NotNil(t, first[0].Coordinate)
	assert.InDelta(t, 30.2, first[0].Coordinate.Lat, 1e-9)

	_, err = db.Pool.Exec(`UPDATE listings SET is_saved = 1 WHERE external_id = 'a';`)
	require.NoError(t, err)

	again := listing("a", "Acme Air Conditioning", domain.TierB)
	second, err := db.UpsertListings(ctx, []domain.Listing{again, listing("b", "Bravo Heat", domain.TierB)})
	require.NoError(t, err)
	require.Len(t, second, 2)

	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[1].ID, second[1].ID)
	assert.True(t, second[0].IsSaved)
	assert.Equal(t, "Acme Air Conditioning", second[0].CompanyName)
	assert.Equal(t, domain.TierB, second[0].Tier)

	var n int
	require.NoError(t, db.Pool.QueryRow(`SELECT COUNT(*) FROM listings;`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestUpsertListingsSeparatesWorkspaces(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	other := listing("a", "Acme Air", domain.TierA)
	other.WorkspaceID = "ws-2"
	_, err := db.UpsertListings(ctx, []domain.Listing{listing("a", "Acme Air", domain.TierA)})
	require.NoError(t, err)
	_, err = db.UpsertListings(ctx, []domain.Listing{other})
	require.NoError(t, err)

	ws1, err := db.ListListings(ctx, "ws-1", ListListingsOpts{})
	require.NoError(t, err)
	ws2, err := db.ListListings(ctx, "ws-2", ListListingsOpts{})
	require.NoError(t, err)
	assert.Len(t, ws1, 1)
	assert.Len(t, ws2, 1)
	assert.NotEqual(t, ws1[0].ID, ws2[0].ID)
}

func TestUpsertListingsEmpty(t *testing.T) {
	db := openTemp(t)
	out, err := db.UpsertListings(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestListListingsFilters(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	_, err := db.UpsertListings(ctx, []domain.Listing{
		listing("c", "Charlie", domain.TierC),
		listing("a", "Alpha", domain.TierA),
		listing("b", "Bravo", domain.TierB),
	})
	require.NoError(t, err)

	all, err := db.ListListings(ctx, "ws-1", ListListingsOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []domain.Tier{domain.TierA, domain.TierB, domain.TierC}, []domain.Tier{all[0].Tier, all[1].Tier, all[2].Tier})

	onlyB, err := db.ListListings(ctx, "ws-1", ListListingsOpts{Tier: "B"})
	require.NoError(t, err)
	require.Len(t, onlyB, 1)
	assert.Equal(t, "Bravo", onlyB[0].CompanyName)

	saved, err := db.ListListings(ctx, "ws-1", ListListingsOpts{SavedOnly: true})
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestRebind(t *testing.T) {
	pg := &DB{Dialect: Postgres}
	assert.Equal(t, "a = $1 AND b IN ($2, $3)", pg.Rebind("a = ? AND b IN (?, ?)"))

	lite := &DB{Dialect: SQLite}
	assert.Equal(t, "a = ?", lite.Rebind("a = ?"))
}

func TestUpsertNeverOverwritesSavedFlag(t *testing.T) {
	assert.NotContains(t, upsertListingsConflict, "is_saved")
	assert.NotContains(t, upsertListingsConflict, "created_at")
}

func TestUpsertListingsPostgresShape(t *testing.T) {
	pool, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer pool.Close()
	db := &DB{Pool: pool, Dialect: Postgres}

	l := listing("p1", "Acme Air", domain.TierA)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO listings (") + `(?s).*VALUES \(\$1, \$2, .*\$18\)` + `.*ON CONFLICT \(workspace_id, external_source, external_id\) DO UPDATE SET`).
		WithArgs(
			"ws-1", domain.SourceOffMarket, "google_places", "p1", "p1",
			"Acme Air", l.Address, "", l.Website, 30.2, -97.7, 4.7, int64(31),
			"A", `{"reasons":["owner operated"],"red_flags":[]}`, false, sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	cols := []string{"id", "workspace_id", "source_type", "external_source", "external_id", "dedupe_key",
		"company_name", "address", "phone", "website", "lat", "lng", "rating", "rating_count",
		"tier", "tier_reason_payload", "is_saved"}
	mock.ExpectQuery(`FROM listings\s+WHERE workspace_id = \$1 AND external_source = \$2 AND external_id IN \(\$3\)`).
		WithArgs("ws-1", "google_places", "p1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			int64(9), "ws-1", domain.SourceOffMarket, "google_places", "p1", "p1",
			"Acme Air", l.Address, "", l.Website, 30.2, -97.7, 4.7, int64(31),
			"A", `{"reasons":["owner operated"],"red_flags":[]}`, true,
		))
	mock.ExpectCommit()

	out, err := db.UpsertListings(context.Background(), []domain.Listing{l})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(9), out[0].ID)
	assert.True(t, out[0].IsSaved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertListingsRollsBackOnError(t *testing.T) {
	pool, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer pool.Close()
	db := &DB{Pool: pool, Dialect: Postgres}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO listings").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err = db.UpsertListings(context.Background(), []domain.Listing{listing("p1", "Acme", domain.TierA)})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckpoint(t *testing.T) {
	db := openTemp(t)
	require.NoError(t, db.Checkpoint(context.Background()))

	pg := &DB{Dialect: Postgres}
	assert.Error(t, pg.Checkpoint(context.Background()))
}
