package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

// JSONL file names in DataDir.
const (
	sessionsJSONL = "sessions.jsonl"
	runsJSONL     = "runs.jsonl"
)

// sessionJSON is one line of sessions.jsonl. Tables are embedded so a
// session is restored from a single record.
type sessionJSON struct {
	SessionID string               `json:"session_id"`
	Agents    int                  `json:"agents"`
	Items     int                  `json:"items"`
	Tables    map[string]tableJSON `json:"tables"`
	CreatedAt string               `json:"created_at"`
	UpdatedAt string               `json:"updated_at"`
}

type tableJSON struct {
	Rows    []string `json:"rows"`
	Columns []string `json:"columns"`
	Values  [][]int  `json:"values"`
}

// runJSON is one line of runs.jsonl.
type runJSON struct {
	RunID     string          `json:"run_id"`
	SessionID string          `json:"session_id"`
	Outcomes  json.RawMessage `json:"outcomes"`
	ElapsedNS int64           `json:"elapsed_ns"`
	CreatedAt string          `json:"created_at"`
}

// timeLayout has a fixed-width fraction so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}

func sessionToJSON(s *types.Snapshot) sessionJSON {
	rec := sessionJSON{
		SessionID: s.SessionID,
		Agents:    s.Dimensions.Agents,
		Items:     s.Dimensions.Items,
		Tables:    make(map[string]tableJSON, len(s.Tables)),
		CreatedAt: formatTime(s.CreatedAt),
		UpdatedAt: formatTime(s.UpdatedAt),
	}
	for name, t := range s.Tables {
		if t == nil {
			continue
		}
		rec.Tables[name] = tableJSON{Rows: t.Rows, Columns: t.Columns, Values: t.Values}
	}
	return rec
}

func sessionFromJSON(rec sessionJSON) (*types.Snapshot, error) {
	created, err := parseTime(rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime(rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	snap := &types.Snapshot{
		SessionID:  rec.SessionID,
		Dimensions: types.Dimensions{Agents: rec.Agents, Items: rec.Items},
		Tables:     make(map[string]*types.Table, len(rec.Tables)),
		CreatedAt:  created,
		UpdatedAt:  updated,
	}
	for name, t := range rec.Tables {
		snap.Tables[name] = &types.Table{Name: name, Rows: t.Rows, Columns: t.Columns, Values: t.Values}
	}
	return snap, nil
}

func runToJSON(r *types.RunRecord) (runJSON, error) {
	outcomes, err := json.Marshal(r.Outcomes)
	if err != nil {
		return runJSON{}, fmt.Errorf("encoding outcomes: %w", err)
	}
	return runJSON{
		RunID:     r.RunID,
		SessionID: r.SessionID,
		Outcomes:  outcomes,
		ElapsedNS: int64(r.Elapsed),
		CreatedAt: formatTime(r.CreatedAt),
	}, nil
}

func runFromJSON(rec runJSON) (*types.RunRecord, error) {
	created, err := parseTime(rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	r := &types.RunRecord{
		RunID:     rec.RunID,
		SessionID: rec.SessionID,
		Elapsed:   time.Duration(rec.ElapsedNS),
		CreatedAt: created,
	}
	if err := json.Unmarshal(rec.Outcomes, &r.Outcomes); err != nil {
		return nil, fmt.Errorf("decoding outcomes of run %s: %w", rec.RunID, err)
	}
	return r, nil
}
