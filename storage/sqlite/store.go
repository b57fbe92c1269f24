// Package sqlite persists actor records (tags, points and objective
// progress) in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/nathoo/questrules/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS actor_tags (
	actor TEXT NOT NULL,
	tag   TEXT NOT NULL,
	PRIMARY KEY (actor, tag)
);
CREATE TABLE IF NOT EXISTS actor_points (
	actor    TEXT NOT NULL,
	category TEXT NOT NULL,
	amount   INTEGER NOT NULL,
	PRIMARY KEY (actor, category)
);
CREATE TABLE IF NOT EXISTS objectives (
	actor     TEXT NOT NULL,
	objective TEXT NOT NULL,
	data      TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (actor, objective)
);
CREATE INDEX IF NOT EXISTS idx_objectives_objective ON objectives(objective);
`

// Store is a SQLite-backed actor store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path. ":memory:" opens a private
// in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" a single database and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadActor returns the saved record of actor. An unknown actor loads as
// an empty record.
func (s *Store) LoadActor(ctx context.Context, actor string) (types.ActorRecord, error) {
	rec := types.ActorRecord{
		ActorState: types.ActorState{Tags: []string{}, Points: map[string]int{}},
		Objectives: map[string]string{},
	}

	rows, err := s.db.QueryContext(ctx, `SELECT tag FROM actor_tags WHERE actor = ? ORDER BY tag`, actor)
	if err != nil {
		return rec, fmt.Errorf("query tags: %w", err)
	}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			rows.Close()
			return rec, fmt.Errorf("scan tag: %w", err)
		}
		rec.Tags = append(rec.Tags, tag)
	}
	if err := closeRows(rows); err != nil {
		return rec, fmt.Errorf("read tags: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT category, amount FROM actor_points WHERE actor = ?`, actor)
	if err != nil {
		return rec, fmt.Errorf("query points: %w", err)
	}
	for rows.Next() {
		var category string
		var amount int
		if err := rows.Scan(&category, &amount); err != nil {
			rows.Close()
			return rec, fmt.Errorf("scan points: %w", err)
		}
		rec.Points[category] = amount
	}
	if err := closeRows(rows); err != nil {
		return rec, fmt.Errorf("read points: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT objective, data FROM objectives WHERE actor = ?`, actor)
	if err != nil {
		return rec, fmt.Errorf("query objectives: %w", err)
	}
	for rows.Next() {
		var objective, data string
		if err := rows.Scan(&objective, &data); err != nil {
			rows.Close()
			return rec, fmt.Errorf("scan objective: %w", err)
		}
		rec.Objectives[objective] = data
	}
	if err := closeRows(rows); err != nil {
		return rec, fmt.Errorf("read objectives: %w", err)
	}
	return rec, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}

// SaveActor replaces the saved record of actor with rec in one
// transaction.
func (s *Store) SaveActor(ctx context.Context, actor string, rec types.ActorRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"actor_tags", "actor_points", "objectives"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE actor = ?`, actor); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	for _, tag := range rec.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO actor_tags (actor, tag) VALUES (?, ?)`, actor, tag); err != nil {
			return fmt.Errorf("insert tag: %w", err)
		}
	}
	for category, amount := range rec.Points {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO actor_points (actor, category, amount) VALUES (?, ?, ?)`, actor, category, amount); err != nil {
			return fmt.Errorf("insert points: %w", err)
		}
	}
	for objective, data := range rec.Objectives {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO objectives (actor, objective, data) VALUES (?, ?, ?)`, actor, objective, data); err != nil {
			return fmt.Errorf("insert objective: %w", err)
		}
	}
	return tx.Commit()
}

// Actors returns every actor with saved data, sorted.
func (s *Store) Actors(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT actor FROM actor_tags
		UNION SELECT actor FROM actor_points
		UNION SELECT actor FROM objectives`)
	if err != nil {
		return nil, fmt.Errorf("query actors: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan actor: %w", err)
		}
		ids = append(ids, id)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("read actors: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Holders returns every actor with saved progress on objective, sorted.
func (s *Store) Holders(ctx context.Context, objective string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT actor FROM objectives WHERE objective = ? ORDER BY actor`, objective)
	if err != nil {
		return nil, fmt.Errorf("query holders: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan holder: %w", err)
		}
		ids = append(ids, id)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("read holders: %w", err)
	}
	return ids, nil
}
