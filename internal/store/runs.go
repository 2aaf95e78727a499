package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one persisted analysis invocation.
type Run struct {
	ID        string          `json:"run_id"`
	Kind      string          `json:"kind"`
	Module    string          `json:"module"`
	Chip      int             `json:"chip"`
	Params    json.RawMessage `json:"params,omitempty"`
	Inputs    json.RawMessage `json:"inputs,omitempty"`
	OutputDir string          `json:"output_dir"`
	Summary   json.RawMessage `json:"summary,omitempty"`
	Version   string          `json:"version"`
	CreatedAt int64           `json:"created_at"`
}

// Created returns CreatedAt as a time.
func (r *Run) Created() time.Time {
	return time.Unix(0, r.CreatedAt)
}

// RunPixel is a pixel flagged by a run, labelled with its category.
type RunPixel struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Category string `json:"category"`
}

func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// RecordRun stores run and its flagged pixels in one transaction. An empty
// ID is filled with a new UUID and a zero CreatedAt with the current time.
func (s *Store) RecordRun(run *Run, pixels []RunPixel) error {
	if run.Kind == "" {
		return errors.New("run kind is required")
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}

	return retryOnBusy(s.clock, func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin run transaction: %w", err)
		}
		defer tx.Rollback()

		_, err = tx.Exec(`
			INSERT INTO runs (
				run_id, kind, module, chip, params_json, inputs_json,
				output_dir, summary_json, version, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.Kind, run.Module, run.Chip, nullableJSON(run.Params), nullableJSON(run.Inputs),
			run.OutputDir, nullableJSON(run.Summary), run.Version, run.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		if len(pixels) > 0 {
			stmt, err := tx.Prepare(`INSERT OR IGNORE INTO run_pixels (run_id, row, col, category) VALUES (?, ?, ?, ?)`)
			if err != nil {
				return fmt.Errorf("prepare pixel insert: %w", err)
			}
			defer stmt.Close()
			for _, p := range pixels {
				if _, err := stmt.Exec(run.ID, p.Row, p.Col, p.Category); err != nil {
					return fmt.Errorf("insert pixel %d,%d: %w", p.Row, p.Col, err)
				}
			}
		}
		return tx.Commit()
	})
}

const runColumns = `run_id, kind, module, chip, params_json, inputs_json,
	output_dir, summary_json, version, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var params, inputs, summary sql.NullString
	err := row.Scan(&r.ID, &r.Kind, &r.Module, &r.Chip, &params, &inputs,
		&r.OutputDir, &summary, &r.Version, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if params.Valid {
		r.Params = json.RawMessage(params.String)
	}
	if inputs.Valid {
		r.Inputs = json.RawMessage(inputs.String)
	}
	if summary.Valid {
		r.Summary = json.RawMessage(summary.String)
	}
	return &r, nil
}

// GetRun returns a run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return r, nil
}

// ListRuns returns runs newest first. An empty kind matches every kind and a
// non-positive limit returns all runs.
func (s *Store) ListRuns(kind string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT `+runColumns+`
		FROM runs
		WHERE (? = '' OR kind = ?)
		ORDER BY created_at DESC
		LIMIT ?`, kind, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunPixels returns the pixels recorded for a run ordered by category, row
// and column.
func (s *Store) RunPixels(id string) ([]RunPixel, error) {
	rows, err := s.db.Query(`
		SELECT row, col, category FROM run_pixels
		WHERE run_id = ?
		ORDER BY category, row, col`, id)
	if err != nil {
		return nil, fmt.Errorf("query run pixels: %w", err)
	}
	defer rows.Close()

	var out []RunPixel
	for rows.Next() {
		var p RunPixel
		if err := rows.Scan(&p.Row, &p.Col, &p.Category); err != nil {
			return nil, fmt.Errorf("scan run pixel: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and its pixels.
func (s *Store) DeleteRun(id string) error {
	return retryOnBusy(s.clock, func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin delete: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM run_pixels WHERE run_id = ?`, id); err != nil {
			return fmt.Errorf("delete run pixels: %w", err)
		}
		result, err := tx.Exec(`DELETE FROM runs WHERE run_id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return tx.Commit()
	})
}
