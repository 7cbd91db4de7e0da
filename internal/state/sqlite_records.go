package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
)

// RecordScript stores the outcome for one script together with its
// references. An empty ID is filled with a new UUID and a zero CreatedAt
// with the current time.
func (s *SQLiteStore) RecordScript(ctx context.Context, rec *core.ScriptRecord) error {
	if s.db == nil {
		return ErrNotOpen
	}
	if rec.ID == "" {
		rec.ID = generateID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO script_records (id, run_id, path, name, kind, status, content_hash, warning_count, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RunID, rec.Path, rec.Name, string(rec.Kind), string(rec.Status),
		rec.ContentHash, rec.WarningCount, nullString(rec.Error), formatTime(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record script %s: %w", rec.Path, err)
	}

	for i, ref := range rec.References {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO script_references (record_id, position, type, name, line, col) VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, i, int(ref.Type), ref.Name, ref.Line, ref.Column,
		)
		if err != nil {
			return fmt.Errorf("failed to record reference %s: %w", ref.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit script record: %w", err)
	}
	s.logger.Debug("script recorded",
		slog.String("run", rec.RunID),
		slog.String("path", rec.Path),
		slog.String("status", string(rec.Status)),
		slog.Int("references", len(rec.References)))
	return nil
}

// GetScriptRecords returns the records of a run ordered by path. References
// are loaded as well.
func (s *SQLiteStore) GetScriptRecords(ctx context.Context, runID string) ([]*core.ScriptRecord, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, path, name, kind, status, content_hash, warning_count, error, created_at
		 FROM script_records WHERE run_id = ? ORDER BY path, rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get script records: %w", err)
	}

	var records []*core.ScriptRecord
	for rows.Next() {
		var (
			rec       core.ScriptRecord
			kind      string
			status    string
			errMsg    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Path, &rec.Name, &kind, &status,
			&rec.ContentHash, &rec.WarningCount, &errMsg, &createdAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan script record: %w", err)
		}
		rec.Kind = core.ScriptKind(kind)
		rec.Status = core.RecordStatus(status)
		rec.Error = errMsg.String
		if rec.CreatedAt, err = parseTime(createdAt); err != nil {
			_ = rows.Close()
			return nil, err
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to get script records: %w", err)
	}
	// close before the reference queries; an in-memory store has one connection
	_ = rows.Close()

	for _, rec := range records {
		refs, err := s.GetReferences(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		rec.References = refs
	}
	return records, nil
}

// GetReferences returns the references of one record in their original order.
func (s *SQLiteStore) GetReferences(ctx context.Context, recordID string) ([]core.Reference, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT type, name, line, col FROM script_references WHERE record_id = ? ORDER BY position`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get references: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var refs []core.Reference
	for rows.Next() {
		var (
			ref core.Reference
			typ int
		)
		if err := rows.Scan(&typ, &ref.Name, &ref.Line, &ref.Column); err != nil {
			return nil, fmt.Errorf("failed to scan reference: %w", err)
		}
		ref.Type = core.TokenType(typ)
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get references: %w", err)
	}
	return refs, nil
}
