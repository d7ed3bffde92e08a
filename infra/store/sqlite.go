package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/core/repository"
)

// Entities are stored as JSON documents keyed by ID; rowid keeps insertion
// order across upserts.
const schema = `
CREATE TABLE IF NOT EXISTS ships (id TEXT PRIMARY KEY, data TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS docks (id TEXT PRIMARY KEY, data TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS allocations (id TEXT PRIMARY KEY, data TEXT NOT NULL);
`

// SQLiteRepository implements repository.Repository on modernc SQLite.
type SQLiteRepository struct {
	db    *sql.DB
	newID func() string
}

var _ repository.Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens or creates the database at path.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases alive and serialises writes
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteRepository{db: db, newID: uuid.NewString}, nil
}

func list[T any](ctx context.Context, db *sql.DB, table string) ([]T, error) {
	rows, err := db.QueryContext(ctx, `SELECT data FROM `+table+` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()
	out := []T{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", table, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func get[T any](ctx context.Context, db *sql.DB, table, id string) (T, error) {
	var v T
	var data string
	err := db.QueryRowContext(ctx, `SELECT data FROM `+table+` WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return v, fmt.Errorf("%s %s: %w", table, id, repository.ErrNotFound)
	}
	if err != nil {
		return v, fmt.Errorf("get %s %s: %w", table, id, err)
	}
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", table, err)
	}
	return v, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, ex execer, table, id string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx,
		`INSERT INTO `+table+` (id, data) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		id, string(b))
	if err != nil {
		return fmt.Errorf("save %s %s: %w", table, id, err)
	}
	return nil
}

func insert(ctx context.Context, ex execer, table, id string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res, err := ex.ExecContext(ctx,
		`INSERT INTO `+table+` (id, data) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`, id, string(b))
	if err != nil {
		return fmt.Errorf("insert %s %s: %w", table, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %s: %w", table, id, repository.ErrExists)
	}
	return nil
}

func update(ctx context.Context, db *sql.DB, table, id string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `UPDATE `+table+` SET data = ? WHERE id = ?`, string(b), id)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", table, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %s: %w", table, id, repository.ErrNotFound)
	}
	return nil
}

func remove(ctx context.Context, db *sql.DB, table, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", table, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %s: %w", table, id, repository.ErrNotFound)
	}
	return nil
}

// inTx runs fn in a transaction, rolling back on error.
func (r *SQLiteRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRepository) Ships(ctx context.Context) ([]model.Ship, error) {
	return list[model.Ship](ctx, r.db, "ships")
}

func (r *SQLiteRepository) Ship(ctx context.Context, id string) (model.Ship, error) {
	return get[model.Ship](ctx, r.db, "ships", id)
}

func (r *SQLiteRepository) AddShip(ctx context.Context, draft model.Ship) (model.Ship, error) {
	draft.ID = r.newID()
	if err := insert(ctx, r.db, "ships", draft.ID, draft); err != nil {
		return model.Ship{}, err
	}
	return draft, nil
}

func (r *SQLiteRepository) UpdateShip(ctx context.Context, s model.Ship) error {
	return update(ctx, r.db, "ships", s.ID, s)
}

func (r *SQLiteRepository) DeleteShip(ctx context.Context, id string) error {
	return remove(ctx, r.db, "ships", id)
}

func (r *SQLiteRepository) SaveShips(ctx context.Context, ships []model.Ship) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, s := range ships {
			if err := upsert(ctx, tx, "ships", s.ID, s); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Docks(ctx context.Context) ([]model.Dock, error) {
	return list[model.Dock](ctx, r.db, "docks")
}

func (r *SQLiteRepository) Dock(ctx context.Context, id string) (model.Dock, error) {
	return get[model.Dock](ctx, r.db, "docks", id)
}

func (r *SQLiteRepository) AddDock(ctx context.Context, d model.Dock) (model.Dock, error) {
	if d.ID == "" {
		d.ID = r.newID()
	}
	if err := insert(ctx, r.db, "docks", d.ID, d); err != nil {
		return model.Dock{}, err
	}
	return d, nil
}

func (r *SQLiteRepository) UpdateDock(ctx context.Context, d model.Dock) error {
	return update(ctx, r.db, "docks", d.ID, d)
}

func (r *SQLiteRepository) DeleteDock(ctx context.Context, id string) error {
	return remove(ctx, r.db, "docks", id)
}

func (r *SQLiteRepository) SaveDocks(ctx context.Context, docks []model.Dock) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, d := range docks {
			if err := upsert(ctx, tx, "docks", d.ID, d); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveOccupancy merges the occupancy fields into the stored document of
// each existing dock within one transaction.
func (r *SQLiteRepository) SaveOccupancy(ctx context.Context, docks []model.Dock) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, d := range docks {
			var data string
			err := tx.QueryRowContext(ctx, `SELECT data FROM docks WHERE id = ?`, d.ID).Scan(&data)
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				return fmt.Errorf("get docks %s: %w", d.ID, err)
			}
			var cur model.Dock
			if err := json.Unmarshal([]byte(data), &cur); err != nil {
				return fmt.Errorf("decode docks: %w", err)
			}
			b, err := json.Marshal(cur.WithOccupancy(d))
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `UPDATE docks SET data = ? WHERE id = ?`, string(b), d.ID); err != nil {
				return fmt.Errorf("update docks %s: %w", d.ID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Allocations(ctx context.Context) ([]model.Allocation, error) {
	return list[model.Allocation](ctx, r.db, "allocations")
}

func (r *SQLiteRepository) AddAllocations(ctx context.Context, allocs []model.Allocation) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, a := range allocs {
			if err := insert(ctx, tx, "allocations", a.ID, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) SaveAllocations(ctx context.Context, allocs []model.Allocation) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, a := range allocs {
			if err := upsert(ctx, tx, "allocations", a.ID, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) DeleteAllocation(ctx context.Context, id string) error {
	return remove(ctx, r.db, "allocations", id)
}

// Close closes the database.
func (r *SQLiteRepository) Close() error { return r.db.Close() }
