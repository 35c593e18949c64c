package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"tradeboard/internal/series"
	"tradeboard/internal/store"
)

// SeriesStore 基于 SQLite 的序列快照，服务重启后仍能出图。
type SeriesStore struct {
	mu sync.Mutex
	db *sql.DB
}

// Open 打开（必要时创建）数据库文件并执行迁移。
func Open(path string) (*SeriesStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path 不能为空")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	s := &SeriesStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SeriesStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SeriesStore) handle() (*sql.DB, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, fmt.Errorf("series store 未初始化")
	}
	return db, nil
}

// SaveSeries 写入序列元信息并按日期 upsert 数据点。
func (s *SeriesStore) SaveSeries(ctx context.Context, ns series.NamedSeries) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	id := strings.TrimSpace(ns.ID)
	if id == "" {
		return fmt.Errorf("series id 不能为空")
	}
	now := time.Now().UnixMilli()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO series_meta (series_id, label, baseline, color, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(series_id) DO UPDATE SET
            label=excluded.label, baseline=excluded.baseline, color=excluded.color, updated_at=excluded.updated_at`,
		id, ns.Label, nullFloat(ns.Baseline), ns.Color, now); err != nil {
		return fmt.Errorf("upsert series meta: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO series_points (series_id, date, value, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(series_id, date) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, p := range series.Normalize(ns.Points) {
		if _, err := stmt.ExecContext(ctx, id, p.Date, p.Value, now); err != nil {
			return fmt.Errorf("upsert point %s@%s: %w", id, p.Date, err)
		}
	}
	return tx.Commit()
}

// LoadSeries 读取序列及 [start, end] 内的点，空字符串表示不限。
func (s *SeriesStore) LoadSeries(ctx context.Context, id, start, end string) (series.NamedSeries, error) {
	db, err := s.handle()
	if err != nil {
		return series.NamedSeries{}, err
	}
	var (
		out      = series.NamedSeries{ID: id}
		baseline sql.NullFloat64
	)
	row := db.QueryRowContext(ctx, `SELECT label, baseline, color FROM series_meta WHERE series_id=?`, id)
	if err := row.Scan(&out.Label, &baseline, &out.Color); err != nil {
		if err == sql.ErrNoRows {
			return out, store.ErrNotFound
		}
		return out, err
	}
	out.Baseline = ptrFloat(baseline)

	query := `SELECT date, value FROM series_points WHERE series_id=?`
	args := []interface{}{id}
	if start = strings.TrimSpace(start); start != "" {
		query += " AND date >= ?"
		args = append(args, start)
	}
	if end = strings.TrimSpace(end); end != "" {
		query += " AND date <= ?"
		args = append(args, end)
	}
	query += " ORDER BY date ASC"
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return out, err
	}
	defer rows.Close()
	out.Points = make([]series.DatedValue, 0)
	for rows.Next() {
		var p series.DatedValue
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return out, err
		}
		out.Points = append(out.Points, p)
	}
	return out, rows.Err()
}

// ListSeries 返回所有已保存序列的 id，按字典序。
func (s *SeriesStore) ListSeries(ctx context.Context) ([]string, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT series_id FROM series_meta ORDER BY series_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteSeries 删除序列及其全部数据点。
func (s *SeriesStore) DeleteSeries(ctx context.Context, id string) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `DELETE FROM series_meta WHERE series_id=?`, id)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	_, err = db.ExecContext(ctx, `DELETE FROM series_points WHERE series_id=?`, id)
	return err
}
