// Package sectordb persists sector render data in SQLite.
//
// Rows are keyed by (config digest, x, y) so a changed generation config
// never serves stale terrain. Payloads are gob encoded and zstd
// compressed. Region biome assignments are kept next to the sectors that
// were classified with them.
package sectordb

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/Faultbox/terrastream/internal/engine/biome"
	"github.com/Faultbox/terrastream/internal/engine/terrain"
)

// ErrClosed is returned by operations on a closed DB.
var ErrClosed = errors.New("sectordb: closed")

// payloadVersion is bumped whenever the encoded layout changes.
const payloadVersion = 1

// DB is a render data store. It is safe for concurrent use.
type DB struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder

	closed atomic.Bool
}

// Open opens or creates the store at path.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sectordb: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sectordb: creating dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sectordb: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sectordb: pragmas: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sectordb: schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sectordb: zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		_ = db.Close()
		return nil, fmt.Errorf("sectordb: zstd decoder: %w", err)
	}

	return &DB{db: db, enc: enc, dec: dec}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sectors (
			digest TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			version INTEGER NOT NULL,
			payload BLOB NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (digest, x, y)
		);`,
		`CREATE TABLE IF NOT EXISTS regions (
			digest TEXT NOT NULL,
			id INTEGER NOT NULL,
			ring INTEGER NOT NULL,
			biome INTEGER,
			x REAL NOT NULL,
			y REAL NOT NULL,
			PRIMARY KEY (digest, id)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the database and codecs.
func (d *DB) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	d.dec.Close()
	encErr := d.enc.Close()
	if err := d.db.Close(); err != nil {
		return err
	}
	return encErr
}

// Get returns the render data stored for coord under digest.
func (d *DB) Get(ctx context.Context, digest string, coord terrain.SectorCoordinate) (*terrain.SectorRenderData, bool, error) {
	if d.closed.Load() {
		return nil, false, ErrClosed
	}

	var version int
	var payload []byte
	err := d.db.QueryRowContext(ctx,
		`SELECT version, payload FROM sectors WHERE digest = ? AND x = ? AND y = ?`,
		digest, coord.X, coord.Y,
	).Scan(&version, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sectordb: get %v: %w", coord, err)
	}
	if version != payloadVersion {
		// Written by an older build; regenerate.
		return nil, false, nil
	}

	data, err := d.decode(payload)
	if err != nil {
		return nil, false, fmt.Errorf("sectordb: decode %v: %w", coord, err)
	}
	return data, true, nil
}

// Put stores data under digest, replacing any previous row.
func (d *DB) Put(ctx context.Context, digest string, data *terrain.SectorRenderData) error {
	if d.closed.Load() {
		return ErrClosed
	}

	payload, err := d.encode(data)
	if err != nil {
		return fmt.Errorf("sectordb: encode %v: %w", data.Coordinate, err)
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sectors (digest, x, y, version, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		digest, data.Coordinate.X, data.Coordinate.Y, payloadVersion, payload,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("sectordb: put %v: %w", data.Coordinate, err)
	}
	return nil
}

// Count returns the number of sectors stored under digest.
func (d *DB) Count(ctx context.Context, digest string) (int, error) {
	if d.closed.Load() {
		return 0, ErrClosed
	}
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sectors WHERE digest = ?`, digest).Scan(&n); err != nil {
		return 0, fmt.Errorf("sectordb: count: %w", err)
	}
	return n, nil
}

// Prune deletes every sector and region not stored under keep and
// returns how many sectors were removed.
func (d *DB) Prune(ctx context.Context, keep string) (int64, error) {
	if d.closed.Load() {
		return 0, ErrClosed
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM regions WHERE digest <> ?`, keep); err != nil {
		return 0, fmt.Errorf("sectordb: prune regions: %w", err)
	}
	res, err := d.db.ExecContext(ctx, `DELETE FROM sectors WHERE digest <> ?`, keep)
	if err != nil {
		return 0, fmt.Errorf("sectordb: prune: %w", err)
	}
	return res.RowsAffected()
}

// GetRegions returns every region assignment stored under digest.
func (d *DB) GetRegions(ctx context.Context, digest string) ([]biome.RegionEntry, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, ring, biome, x, y FROM regions WHERE digest = ? ORDER BY id`, digest)
	if err != nil {
		return nil, fmt.Errorf("sectordb: get regions: %w", err)
	}
	defer rows.Close()

	var out []biome.RegionEntry
	for rows.Next() {
		var (
			e    biome.RegionEntry
			b    sql.NullInt64
			ring int64
		)
		if err := rows.Scan(&e.ID, &ring, &b, &e.Position.X, &e.Position.Y); err != nil {
			return nil, fmt.Errorf("sectordb: scan region: %w", err)
		}
		e.Ring = uint8(ring)
		if b.Valid {
			e.Biome, e.HasBiome = uint8(b.Int64), true
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sectordb: get regions: %w", err)
	}
	return out, nil
}

// PutRegions stores region assignments under digest in one transaction.
// A stored biome is never cleared by an entry without one.
func (d *DB) PutRegions(ctx context.Context, digest string, entries []biome.RegionEntry) error {
	if d.closed.Load() {
		return ErrClosed
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sectordb: put regions: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO regions (digest, id, ring, biome, x, y) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (digest, id) DO UPDATE SET biome = COALESCE(regions.biome, excluded.biome)`)
	if err != nil {
		return fmt.Errorf("sectordb: put regions: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		var b sql.NullInt64
		if e.HasBiome {
			b = sql.NullInt64{Int64: int64(e.Biome), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, digest, e.ID, int64(e.Ring), b, e.Position.X, e.Position.Y); err != nil {
			return fmt.Errorf("sectordb: put region %d: %w", e.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sectordb: put regions: %w", err)
	}
	return nil
}

func (d *DB) encode(data *terrain.SectorRenderData) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return d.enc.EncodeAll(buf.Bytes(), nil), nil
}

func (d *DB) decode(payload []byte) (*terrain.SectorRenderData, error) {
	raw, err := d.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	var data terrain.SectorRenderData
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&data); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	return &data, nil
}

// Bucket is the view of a DB for one config digest. It satisfies the
// streamer's Store interface.
type Bucket struct {
	db      *DB
	digest  string
	timeout time.Duration
}

// Bucket returns the view of d for digest.
func (d *DB) Bucket(digest string) *Bucket {
	return &Bucket{db: d, digest: digest, timeout: 5 * time.Second}
}

// Digest returns the bucket's config digest.
func (b *Bucket) Digest() string { return b.digest }

// Load reads render data for coord.
func (b *Bucket) Load(coord terrain.SectorCoordinate) (*terrain.SectorRenderData, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	return b.db.Get(ctx, b.digest, coord)
}

// LoadRegions reads the bucket's region assignments.
func (b *Bucket) LoadRegions() ([]biome.RegionEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	return b.db.GetRegions(ctx, b.digest)
}

// SaveRegions writes region assignments.
func (b *Bucket) SaveRegions(entries []biome.RegionEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	return b.db.PutRegions(ctx, b.digest, entries)
}

// Save writes render data.
func (b *Bucket) Save(data *terrain.SectorRenderData) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	return b.db.Put(ctx, b.digest, data)
}
