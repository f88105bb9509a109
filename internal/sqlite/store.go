package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

// SaveSession creates or replaces a session and its tables.
func (b *Backend) SaveSession(s *types.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrStoreDetached
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()
	if err := insertSession(tx, sessionToJSON(s)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing session %s: %w", s.SessionID, err)
	}
	return b.persist(sessionsJSONL)
}

// LoadSession returns the stored session.
// Returns ErrNotFound if it does not exist.
func (b *Backend) LoadSession(id string) (*types.Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	rec, err := b.querySession(id)
	if err != nil {
		return nil, err
	}
	return sessionFromJSON(rec)
}

// DeleteSession removes a session, its tables and its runs.
// Returns ErrNotFound if it does not exist.
func (b *Backend) DeleteSession(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrStoreDetached
	}

	res, err := b.db.Exec(`DELETE FROM sessions WHERE session_id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}
	if err := b.persist(sessionsJSONL); err != nil {
		return err
	}
	return b.persist(runsJSONL)
}

// ListSessions returns all session IDs in creation order.
func (b *Backend) ListSessions() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	rows, err := b.db.Query(`SELECT session_id FROM sessions ORDER BY created_at, session_id`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveRun appends a run record.
// Returns ErrNotFound if its session does not exist.
func (b *Backend) SaveRun(r *types.RunRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrStoreDetached
	}
	if err := b.sessionExists(r.SessionID); err != nil {
		return err
	}

	rec, err := runToJSON(r)
	if err != nil {
		return err
	}
	if err := insertRun(b.db, rec); err != nil {
		return err
	}
	return b.persist(runsJSONL)
}

// ListRuns returns the runs of a session, oldest first.
// Returns ErrNotFound if the session does not exist.
func (b *Backend) ListRuns(sessionID string) ([]*types.RunRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	if err := b.sessionExists(sessionID); err != nil {
		return nil, err
	}

	recs, err := b.queryRuns(`WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]*types.RunRecord, 0, len(recs))
	for _, rec := range recs {
		r, err := runFromJSON(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (b *Backend) sessionExists(id string) error {
	var one int
	err := b.db.QueryRow(`SELECT 1 FROM sessions WHERE session_id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("looking up session %s: %w", id, err)
	}
	return nil
}

func (b *Backend) querySession(id string) (sessionJSON, error) {
	rec := sessionJSON{SessionID: id, Tables: map[string]tableJSON{}}
	err := b.db.QueryRow(`SELECT agents, items, created_at, updated_at FROM sessions WHERE session_id = ?`, id).
		Scan(&rec.Agents, &rec.Items, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}
	if err != nil {
		return rec, fmt.Errorf("loading session %s: %w", id, err)
	}

	rows, err := b.db.Query(`SELECT table_name, row_labels, column_labels, cell_values
FROM session_tables WHERE session_id = ?`, id)
	if err != nil {
		return rec, fmt.Errorf("loading tables of session %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, rowLabels, colLabels, cells string
		if err := rows.Scan(&name, &rowLabels, &colLabels, &cells); err != nil {
			return rec, err
		}
		var t tableJSON
		if err := json.Unmarshal([]byte(rowLabels), &t.Rows); err != nil {
			return rec, fmt.Errorf("decoding %s rows: %w", name, err)
		}
		if err := json.Unmarshal([]byte(colLabels), &t.Columns); err != nil {
			return rec, fmt.Errorf("decoding %s columns: %w", name, err)
		}
		if err := json.Unmarshal([]byte(cells), &t.Values); err != nil {
			return rec, fmt.Errorf("decoding %s values: %w", name, err)
		}
		rec.Tables[name] = t
	}
	return rec, rows.Err()
}

func (b *Backend) queryRuns(where string, args ...any) ([]runJSON, error) {
	rows, err := b.db.Query(`SELECT run_id, session_id, outcomes, elapsed_ns, created_at FROM runs `+
		where+` ORDER BY created_at, run_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []runJSON
	for rows.Next() {
		var (
			rec      runJSON
			outcomes string
		)
		if err := rows.Scan(&rec.RunID, &rec.SessionID, &outcomes, &rec.ElapsedNS, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Outcomes = json.RawMessage(outcomes)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// sessionRecords encodes every session as a sessions.jsonl line.
func (b *Backend) sessionRecords() ([]json.RawMessage, error) {
	rows, err := b.db.Query(`SELECT session_id FROM sessions ORDER BY created_at, session_id`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		rec, err := b.querySession(id)
		if err != nil {
			return nil, err
		}
		line, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encoding session %s: %w", id, err)
		}
		out = append(out, line)
	}
	return out, nil
}

// runRecords encodes every run as a runs.jsonl line.
func (b *Backend) runRecords() ([]json.RawMessage, error) {
	recs, err := b.queryRuns("")
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(recs))
	for _, rec := range recs {
		line, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encoding run %s: %w", rec.RunID, err)
		}
		out = append(out, line)
	}
	return out, nil
}
