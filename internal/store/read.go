package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/unlevel/internal/engine"
	"github.com/roach88/unlevel/internal/loadorder"
	"github.com/roach88/unlevel/internal/record"
)

// LayerInfo describes one stored layer.
type LayerInfo struct {
	Name     record.ModKey
	Position int
	Digest   string
	Records  int
}

// Layers returns the stored layers in load order.
//
// Returns empty slice (not nil) if no layers are stored.
func (s *Store) Layers(ctx context.Context) ([]LayerInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.name, l.position, l.digest, COUNT(r.form_key)
		FROM layers l
		LEFT JOIN records r ON r.layer = l.name
		GROUP BY l.name
		ORDER BY l.position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query layers: %w", err)
	}
	defer rows.Close()

	infos := []LayerInfo{}
	for rows.Next() {
		var (
			info LayerInfo
			name string
		)
		if err := rows.Scan(&name, &info.Position, &info.Digest, &info.Records); err != nil {
			return nil, fmt.Errorf("scan layer: %w", err)
		}
		info.Name = record.ModKey(name)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate layers: %w", err)
	}
	return infos, nil
}

// ReadLayer rebuilds one stored layer, matched case-insensitively.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadLayer(ctx context.Context, name record.ModKey) (*loadorder.Layer, error) {
	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM layers WHERE folded = ?`, name.Folded()).Scan(&stored)
	if err != nil {
		return nil, err
	}
	return s.readLayer(ctx, record.ModKey(stored))
}

// ReadLoadOrder rebuilds the stored layers into a Store, lowest priority
// first. An empty database yields an empty Store.
func (s *Store) ReadLoadOrder(ctx context.Context) (*loadorder.Store, error) {
	infos, err := s.Layers(ctx)
	if err != nil {
		return nil, fmt.Errorf("read load order: %w", err)
	}
	layers := make([]*loadorder.Layer, 0, len(infos))
	for _, info := range infos {
		l, err := s.readLayer(ctx, info.Name)
		if err != nil {
			return nil, fmt.Errorf("read load order: %w", err)
		}
		layers = append(layers, l)
	}
	return loadorder.New(layers...)
}

func (s *Store) readLayer(ctx context.Context, name record.ModKey) (*loadorder.Layer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, form_key, deleted, payload
		FROM records
		WHERE layer = ?
		ORDER BY category ASC, form_key COLLATE BINARY ASC
	`, string(name))
	if err != nil {
		return nil, fmt.Errorf("query records of %s: %w", name, err)
	}
	defer rows.Close()

	l := loadorder.NewLayer(name)
	for rows.Next() {
		var (
			cat, key, payload string
			deleted           bool
		)
		if err := rows.Scan(&cat, &key, &deleted, &payload); err != nil {
			return nil, fmt.Errorf("scan record of %s: %w", name, err)
		}
		r, err := scanRecord(cat, key, deleted, payload)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", name, err)
		}
		if err := l.Add(r); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records of %s: %w", name, err)
	}
	return l, nil
}

func scanRecord(cat, key string, deleted bool, payload string) (record.Record, error) {
	fk, err := record.ParseFormKey(key)
	if err != nil {
		return nil, err
	}
	return unmarshalRecord(record.Category(cat), fk, deleted, payload)
}

// RunInfo is the summary row of a persisted run.
type RunInfo struct {
	ID        string
	Output    record.ModKey
	CreatedAt time.Time
	LoadOrder []record.ModKey
	Passes    []engine.PassStats
	Records   int
	Digest    string
}

// Runs returns every persisted run, oldest first.
// Ordering: ORDER BY created_at ASC, id ASC COLLATE BINARY.
//
// Returns empty slice (not nil) if no runs exist.
func (s *Store) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, output, created_at, load_order, passes, records, digest
		FROM runs
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunInfo{}
	for rows.Next() {
		info, err := scanRunInfo(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LatestRun returns the most recently created run.
// Returns sql.ErrNoRows if no run exists.
func (s *Store) LatestRun(ctx context.Context) (RunInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, output, created_at, load_order, passes, records, digest
		FROM runs
		ORDER BY created_at DESC, id COLLATE BINARY DESC
		LIMIT 1
	`)
	return scanRunInfo(row)
}

// ReadRun returns a run with its output records.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, output, created_at, load_order, passes, records, digest
		FROM runs
		WHERE id = ?
	`, id)
	info, err := scanRunInfo(row)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, form_key, payload
		FROM run_records
		WHERE run_id = ?
		ORDER BY category ASC, form_key COLLATE BINARY ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query run records: %w", err)
	}
	defer rows.Close()

	run := &Run{
		ID:        info.ID,
		Output:    info.Output,
		CreatedAt: info.CreatedAt,
		LoadOrder: info.LoadOrder,
		Passes:    info.Passes,
		Digest:    info.Digest,
	}
	for rows.Next() {
		var cat, key, payload string
		if err := rows.Scan(&cat, &key, &payload); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		r, err := scanRecord(cat, key, false, payload)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", id, err)
		}
		run.Records = append(run.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run records: %w", err)
	}
	return run, nil
}

// ReadRunLayer rebuilds the output layer of a run, named after its output
// plugin.
func (s *Store) ReadRunLayer(ctx context.Context, id string) (*loadorder.Layer, error) {
	run, err := s.ReadRun(ctx, id)
	if err != nil {
		return nil, err
	}
	l := loadorder.NewLayer(run.Output)
	for _, r := range run.Records {
		if err := l.Add(r); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRunInfo(row scanner) (RunInfo, error) {
	var (
		info                         RunInfo
		output, created, lo, passRaw string
	)
	if err := row.Scan(&info.ID, &output, &created, &lo, &passRaw, &info.Records, &info.Digest); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunInfo{}, err
		}
		return RunInfo{}, fmt.Errorf("scan run: %w", err)
	}
	info.Output = record.ModKey(output)

	t, err := time.Parse(timeFormat, created)
	if err != nil {
		return RunInfo{}, fmt.Errorf("run %s: created_at: %w", info.ID, err)
	}
	info.CreatedAt = t

	if info.LoadOrder, err = unmarshalJSON[[]record.ModKey](lo); err != nil {
		return RunInfo{}, fmt.Errorf("run %s: load order: %w", info.ID, err)
	}
	if info.Passes, err = unmarshalJSON[[]engine.PassStats](passRaw); err != nil {
		return RunInfo{}, fmt.Errorf("run %s: passes: %w", info.ID, err)
	}
	return info, nil
}
