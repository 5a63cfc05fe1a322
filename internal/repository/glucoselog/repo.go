// Package glucoselog persists measured postprandial glucose responses in SQLite.
package glucoselog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/kailas-cloud/glycomeal/internal/domain/feedback"
)

const schema = `
CREATE TABLE IF NOT EXISTS glucose_log (
    id TEXT PRIMARY KEY,
    pre_meal_glucose REAL NOT NULL,
    carb REAL NOT NULL,
    protein REAL NOT NULL,
    fat REAL NOT NULL,
    fiber REAL NOT NULL,
    post_60 REAL NOT NULL,
    post_120 REAL NOT NULL,
    post_180 REAL NOT NULL,
    recorded_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_glucose_log_recorded_at ON glucose_log(recorded_at);
`

// Repo is an append-only glucose log.
type Repo struct {
	db *sql.DB
}

// Open opens (or creates) the log at path. ":memory:" gives a private in-memory log.
func Open(ctx context.Context, path string) (*Repo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open glucose log: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create glucose log schema: %w", err)
	}
	return &Repo{db: db}, nil
}

// Close releases the database handle.
func (r *Repo) Close() error {
	return r.db.Close()
}

// Ping checks the database is reachable.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping glucose log: %w", err)
	}
	return nil
}

// Append stores one entry.
func (r *Repo) Append(ctx context.Context, e feedback.GlucoseEntry) error {
	const q = `
        INSERT INTO glucose_log (id, pre_meal_glucose, carb, protein, fat, fiber, post_60, post_120, post_180, recorded_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.PreMealGlucose,
		e.Nutrition.Carb, e.Nutrition.Protein, e.Nutrition.Fat, e.Nutrition.Fiber,
		e.Post60, e.Post120, e.Post180,
		e.RecordedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert glucose entry %s: %w", e.ID, err)
	}
	return nil
}

// Each calls fn for every entry, oldest first. Iteration stops at the first error.
func (r *Repo) Each(ctx context.Context, fn func(feedback.GlucoseEntry) error) error {
	const q = `
        SELECT id, pre_meal_glucose, carb, protein, fat, fiber, post_60, post_120, post_180, recorded_at
        FROM glucose_log
        ORDER BY recorded_at, id
    `
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return fmt.Errorf("query glucose log: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e        feedback.GlucoseEntry
			recorded int64
		)
		if err := rows.Scan(
			&e.ID, &e.PreMealGlucose,
			&e.Nutrition.Carb, &e.Nutrition.Protein, &e.Nutrition.Fat, &e.Nutrition.Fiber,
			&e.Post60, &e.Post120, &e.Post180,
			&recorded,
		); err != nil {
			return fmt.Errorf("scan glucose entry: %w", err)
		}
		e.RecordedAt = time.UnixMilli(recorded).UTC()
		if err := fn(e); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate glucose log: %w", err)
	}
	return nil
}

// List returns every entry, oldest first.
func (r *Repo) List(ctx context.Context) ([]feedback.GlucoseEntry, error) {
	var out []feedback.GlucoseEntry
	err := r.Each(ctx, func(e feedback.GlucoseEntry) error {
		out = append(out, e)
		return nil
	})
	return out, err
}
