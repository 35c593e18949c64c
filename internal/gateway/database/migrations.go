package database

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS series_meta (
        series_id  TEXT PRIMARY KEY,
        label      TEXT NOT NULL DEFAULT '',
        baseline   REAL,
        color      TEXT NOT NULL DEFAULT '',
        updated_at INTEGER NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS series_points (
        series_id  TEXT NOT NULL,
        date       TEXT NOT NULL,
        value      REAL NOT NULL,
        updated_at INTEGER NOT NULL,
        PRIMARY KEY (series_id, date)
    )`,
}

func (s *SeriesStore) migrate(ctx context.Context) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	for _, q := range schema {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
