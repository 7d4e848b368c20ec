package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/unlevel/internal/engine"
	"github.com/roach88/unlevel/internal/loadorder"
	"github.com/roach88/unlevel/internal/record"
)

// ImportLoadOrder replaces every stored layer with the layers of lo, in its
// load order. Persisted runs are kept.
func (s *Store) ImportLoadOrder(ctx context.Context, lo *loadorder.Store) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("import load order: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM layers`); err != nil {
		return fmt.Errorf("import load order: clear layers: %w", err)
	}
	for i, l := range lo.Layers() {
		if err := insertLayer(ctx, tx, l, i); err != nil {
			return fmt.Errorf("import load order: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("import load order: commit: %w", err)
	}
	return nil
}

// AppendLayer stores l above every stored layer. A layer with the same
// (case-folded) name is a duplicate layer error.
func (s *Store) AppendLayer(ctx context.Context, l *loadorder.Layer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append layer: begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM layers WHERE folded = ?`, l.Name().Folded()).Scan(&exists); err != nil {
		return fmt.Errorf("append layer: %w", err)
	}
	if exists > 0 {
		return &loadorder.LayerError{Code: loadorder.ErrCodeDuplicateLayer, Layer: l.Name(), Message: "layer already stored"}
	}

	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM layers`).Scan(&next); err != nil {
		return fmt.Errorf("append layer: %w", err)
	}
	if err := insertLayer(ctx, tx, l, next); err != nil {
		return fmt.Errorf("append layer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append layer: commit: %w", err)
	}
	return nil
}

func insertLayer(ctx context.Context, tx *sql.Tx, l *loadorder.Layer, position int) error {
	var all []record.Record
	for _, c := range l.Categories() {
		for r := range l.Records(c) {
			all = append(all, r)
		}
	}
	digest, err := record.LayerDigest(all)
	if err != nil {
		return fmt.Errorf("layer %s: %w", l.Name(), err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO layers (name, folded, position, digest)
		VALUES (?, ?, ?, ?)
	`, string(l.Name()), l.Name().Folded(), position, digest); err != nil {
		return fmt.Errorf("insert layer %s: %w", l.Name(), err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (layer, category, form_key, editor_id, deleted, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare records: %w", err)
	}
	defer stmt.Close()

	for _, r := range all {
		payload, err := marshalRecord(r)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			string(l.Name()),
			string(r.Category()),
			r.FormKey().String(),
			r.EditorID(),
			r.IsDeleted(),
			payload,
		); err != nil {
			return fmt.Errorf("insert %s %s: %w", r.Category(), r.FormKey(), err)
		}
	}
	return nil
}

// timeFormat is fixed-width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Run is one persisted patch session.
type Run struct {
	ID        string
	Output    record.ModKey
	CreatedAt time.Time
	LoadOrder []record.ModKey
	Passes    []engine.PassStats
	Digest    string
	Records   []record.Record
}

// SaveRun persists run and its output records. An empty ID is filled from
// the store's RunIDGenerator and a zero CreatedAt from its Clock. The
// assigned ID is returned.
//
// Uses ON CONFLICT(id) DO NOTHING: saving the same run twice is a no-op.
func (s *Store) SaveRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = s.ids.NewRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.clock.Now()
	}

	loadOrder, err := marshalJSON(run.LoadOrder)
	if err != nil {
		return "", fmt.Errorf("save run: load order: %w", err)
	}
	passes, err := marshalJSON(run.Passes)
	if err != nil {
		return "", fmt.Errorf("save run: passes: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save run: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, output, created_at, load_order, passes, records, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		string(run.Output),
		run.CreatedAt.UTC().Format(timeFormat),
		loadOrder,
		passes,
		len(run.Records),
		run.Digest,
	)
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("save run: rows affected: %w", err)
	}
	if inserted == 0 {
		return run.ID, nil
	}

	for _, r := range run.Records {
		payload, err := marshalRecord(r)
		if err != nil {
			return "", fmt.Errorf("save run: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_records (run_id, category, form_key, editor_id, payload)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, string(r.Category()), r.FormKey().String(), r.EditorID(), payload); err != nil {
			return "", fmt.Errorf("save run: insert %s %s: %w", r.Category(), r.FormKey(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save run: commit: %w", err)
	}
	return run.ID, nil
}
