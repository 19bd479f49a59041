package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

const stateTable = "snapshot_state"

// dialect captures what differs between the SQL backends.
type dialect struct {
	driver string
	ddl    string
	upsert string
	// textPayload sends JSON as a string (JSONB columns) instead of bytes.
	textPayload bool
}

var dialects = map[string]dialect{
	"sqlite": {
		driver: "sqlite",
		ddl: `CREATE TABLE IF NOT EXISTS ` + stateTable + ` (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`,
		upsert: `INSERT INTO ` + stateTable + `(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
	},
	"postgres": {
		driver: "pgx",
		ddl: `CREATE TABLE IF NOT EXISTS ` + stateTable + ` (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`,
		upsert:      `INSERT INTO ` + stateTable + `(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
		textPayload: true,
	},
}

// Bucket names of the state table.
const (
	bucketDefects     = "defects"
	bucketOrders      = "orders"
	bucketWashRecipes = "washRecipes"
	bucketDefectTypes = "defectTypes"
)

var stateBuckets = []string{bucketDefects, bucketOrders, bucketWashRecipes, bucketDefectTypes}

// SQLSource keeps a snapshot as one JSON payload per collection in a bucket
// table, on SQLite or Postgres.
type SQLSource struct {
	db      *sql.DB
	dialect dialect
	name    string
}

// OpenSQL opens the database and makes sure the state table exists. kind is
// "sqlite" (dsn is a file path) or "postgres".
func OpenSQL(ctx context.Context, kind, dsn string) (*SQLSource, error) {
	d, ok := dialects[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported sql snapshot driver %q", kind)
	}
	if dsn == "" {
		return nil, fmt.Errorf("%s snapshot source requires a DSN", kind)
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", kind, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", kind, err)
	}
	if _, err := db.ExecContext(ctx, d.ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &SQLSource{db: db, dialect: d, name: kind}, nil
}

func (s *SQLSource) Describe() string { return s.name }

// Close releases the database handle.
func (s *SQLSource) Close() error { return s.db.Close() }

// Load reads every bucket. Missing buckets leave their collection empty.
func (s *SQLSource) Load(ctx context.Context) (Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM `+stateTable)
	if err != nil {
		return Snapshot{}, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snap Snapshot
	targets := map[string]any{
		bucketDefects:     &snap.Defects,
		bucketOrders:      &snap.Orders,
		bucketWashRecipes: &snap.WashRecipes,
		bucketDefectTypes: &snap.DefectTypes,
	}
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return Snapshot{}, fmt.Errorf("scan state: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		if target, ok := targets[bucket]; ok {
			if err := json.Unmarshal(payload, target); err != nil {
				return Snapshot{}, fmt.Errorf("decode %s: %w", bucket, err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("iterate state: %w", err)
	}
	return snap, nil
}

// Save replaces every bucket in one transaction.
func (s *SQLSource) Save(ctx context.Context, snap Snapshot) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	values := map[string]any{
		bucketDefects:     snap.Defects,
		bucketOrders:      snap.Orders,
		bucketWashRecipes: snap.WashRecipes,
		bucketDefectTypes: snap.DefectTypes,
	}
	for _, bucket := range stateBuckets {
		data, err := json.Marshal(values[bucket])
		if err != nil {
			return fmt.Errorf("encode %s: %w", bucket, err)
		}
		var payload any = data
		if s.dialect.textPayload {
			payload = string(data)
		}
		if _, err := tx.ExecContext(ctx, s.dialect.upsert, bucket, payload); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	return tx.Commit()
}
