package store

import "fmt"

const schemaVersion = 1

func listingsDDL(d Dialect) []string {
	idCol, floatCol, boolCol, tsCol := "INTEGER PRIMARY KEY AUTOINCREMENT", "REAL", "INTEGER NOT NULL DEFAULT 0", "TEXT"
	if d == Postgres {
		idCol, floatCol, boolCol, tsCol = "BIGSERIAL PRIMARY KEY", "DOUBLE PRECISION", "BOOLEAN NOT NULL DEFAULT FALSE", "TIMESTAMPTZ"
	}
	return []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS listings (
  id %s,
  workspace_id TEXT NOT NULL,
  source_type TEXT NOT NULL,
  external_source TEXT NOT NULL,
  external_id TEXT NOT NULL,
  dedupe_key TEXT NOT NULL,
  company_name TEXT NOT NULL,
  address TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  website TEXT NOT NULL DEFAULT '',
  lat %[2]s,
  lng %[2]s,
  rating %[2]s,
  rating_count INTEGER,
  tier TEXT NOT NULL,
  tier_reason_payload TEXT NOT NULL DEFAULT '{}',
  is_saved %[3]s,
  created_at %[4]s NOT NULL,
  updated_at %[4]s NOT NULL,
  UNIQUE (workspace_id, external_source, external_id)
);`, idCol, floatCol, boolCol, tsCol),
		`
CREATE INDEX IF NOT EXISTS idx_listings_workspace
ON listings(workspace_id, source_type);`,
	}
}

// Migrate brings the schema up to date. Sqlite tracks the version in
// PRAGMA user_version; postgres relies on IF NOT EXISTS.
func Migrate(d *DB) error {
	tx, err := d.Pool.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if d.Dialect == SQLite {
		var v int
		if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
			return err
		}
		if v >= schemaVersion {
			return tx.Commit()
		}
	}

	for _, stmt := range listingsDDL(d.Dialect) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	if d.Dialect == SQLite {
		if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
			return err
		}
	}
	return tx.Commit()
}
