package history

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database holding the departure lookup log.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// :memory: databases are per connection
	if path == ":memory:" {
		d.SetMaxOpenConns(1)
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = d.Close()
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS lookups (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  ts INTEGER NOT NULL,
	  route_id TEXT NOT NULL,
	  mode TEXT NOT NULL,
	  next_label TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_lookups_ts ON lookups(ts);
	CREATE INDEX IF NOT EXISTS idx_lookups_route ON lookups(route_id, ts);
	`)
	return err
}

// Lookup is one recorded departure lookup.
type Lookup struct {
	TS        time.Time
	RouteID   string
	Mode      string
	NextLabel string
}

// PutLookup appends a lookup to the log.
func (d *DB) PutLookup(ctx context.Context, ts time.Time, routeID, mode, nextLabel string) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO lookups(ts, route_id, mode, next_label) VALUES(?,?,?,?)`, ts.Unix(), routeID, mode, nextLabel)
	return err
}

// LoadLookupsRange returns lookups in [start, end), optionally for one route.
func (d *DB) LoadLookupsRange(ctx context.Context, start, end time.Time, routeID string) ([]Lookup, error) {
	var rows *sql.Rows
	var err error
	if routeID == "" {
		rows, err = d.sql.QueryContext(ctx, `SELECT ts, route_id, mode, next_label FROM lookups WHERE ts>=? AND ts<? ORDER BY ts, id`, start.Unix(), end.Unix())
	} else {
		rows, err = d.sql.QueryContext(ctx, `SELECT ts, route_id, mode, next_label FROM lookups WHERE ts>=? AND ts<? AND route_id=? ORDER BY ts, id`, start.Unix(), end.Unix(), routeID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Lookup
	for rows.Next() {
		var ts int64
		var l Lookup
		if err := rows.Scan(&ts, &l.RouteID, &l.Mode, &l.NextLabel); err != nil {
			return nil, err
		}
		l.TS = time.Unix(ts, 0).UTC()
		out = append(out, l)
	}
	return out, rows.Err()
}

// CountLookupsWithin counts lookups in [start, end) for a route, or all routes when empty.
func (d *DB) CountLookupsWithin(ctx context.Context, start, end time.Time, routeID string) (int, error) {
	var row *sql.Row
	if routeID == "" {
		row = d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM lookups WHERE ts>=? AND ts<?`, start.Unix(), end.Unix())
	} else {
		row = d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM lookups WHERE ts>=? AND ts<? AND route_id=?`, start.Unix(), end.Unix(), routeID)
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
