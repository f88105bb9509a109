package types

import "time"

// Snapshot is the persisted state of one session.
type Snapshot struct {
	SessionID  string            `json:"session_id"`
	Dimensions Dimensions        `json:"dimensions"`
	Tables     map[string]*Table `json:"tables"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Store persists session snapshots and run records.
type Store interface {
	// SaveSession creates or replaces the snapshot.
	SaveSession(s *Snapshot) error

	// LoadSession returns the snapshot with the given ID.
	// Returns ErrNotFound if no such session exists.
	LoadSession(id string) (*Snapshot, error)

	// DeleteSession removes the snapshot and its runs.
	// Returns ErrNotFound if no such session exists.
	DeleteSession(id string) error

	// ListSessions returns all session IDs.
	ListSessions() ([]string, error)

	// SaveRun appends a run record.
	SaveRun(r *RunRecord) error

	// ListRuns returns the runs of a session, oldest first.
	ListRuns(sessionID string) ([]*RunRecord, error)
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Tables = make(map[string]*Table, len(s.Tables))
	for name, t := range s.Tables {
		out.Tables[name] = t.Clone()
	}
	return &out
}
