package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
)

// loadAllJSONL reads sessions.jsonl and runs.jsonl from dataDir into the
// database in one transaction: all records load or none do. Records that do
// not decode or violate a constraint are skipped. Unknown JSON fields are
// ignored.
func loadAllJSONL(db *sql.DB, dataDir string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	sessions, err := readJSONL(filepath.Join(dataDir, sessionsJSONL))
	if err != nil {
		return fmt.Errorf("reading %s: %w", sessionsJSONL, err)
	}
	for _, raw := range sessions {
		var rec sessionJSON
		if err := json.Unmarshal(raw, &rec); err != nil || rec.SessionID == "" {
			continue
		}
		if err := insertSession(tx, rec); err != nil {
			continue
		}
	}

	runs, err := readJSONL(filepath.Join(dataDir, runsJSONL))
	if err != nil {
		return fmt.Errorf("reading %s: %w", runsJSONL, err)
	}
	for _, raw := range runs {
		var rec runJSON
		if err := json.Unmarshal(raw, &rec); err != nil || rec.RunID == "" {
			continue
		}
		// Runs of unknown sessions fail the foreign key and are dropped.
		_ = insertRun(tx, rec)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// insertSession writes one session and its tables, replacing any earlier
// version.
func insertSession(db execer, rec sessionJSON) error {
	if _, err := db.Exec(`INSERT INTO sessions (session_id, agents, items, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
    agents = excluded.agents,
    items = excluded.items,
    updated_at = excluded.updated_at`,
		rec.SessionID, rec.Agents, rec.Items, rec.CreatedAt, rec.UpdatedAt); err != nil {
		return fmt.Errorf("inserting session %s: %w", rec.SessionID, err)
	}
	if _, err := db.Exec(`DELETE FROM session_tables WHERE session_id = ?`, rec.SessionID); err != nil {
		return fmt.Errorf("clearing tables of session %s: %w", rec.SessionID, err)
	}
	for name, t := range rec.Tables {
		rows, err := json.Marshal(t.Rows)
		if err != nil {
			return err
		}
		cols, err := json.Marshal(t.Columns)
		if err != nil {
			return err
		}
		vals, err := json.Marshal(t.Values)
		if err != nil {
			return err
		}
		if _, err := db.Exec(`INSERT INTO session_tables (session_id, table_name, row_labels, column_labels, cell_values)
VALUES (?, ?, ?, ?, ?)`, rec.SessionID, name, string(rows), string(cols), string(vals)); err != nil {
			return fmt.Errorf("inserting table %s of session %s: %w", name, rec.SessionID, err)
		}
	}
	return nil
}

func insertRun(db execer, rec runJSON) error {
	if _, err := db.Exec(`INSERT INTO runs (run_id, session_id, outcomes, elapsed_ns, created_at)
VALUES (?, ?, ?, ?, ?)`,
		rec.RunID, rec.SessionID, string(rec.Outcomes), rec.ElapsedNS, rec.CreatedAt); err != nil {
		return fmt.Errorf("inserting run %s: %w", rec.RunID, err)
	}
	return nil
}
