package sqlite

// Schema DDL. The database is rebuilt from the JSONL files on every Attach.
const (
	createSessions = `CREATE TABLE sessions (
    session_id TEXT PRIMARY KEY,
    agents INTEGER NOT NULL,
    items INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createSessionTables = `CREATE TABLE session_tables (
    session_id TEXT NOT NULL,
    table_name TEXT NOT NULL,
    row_labels TEXT NOT NULL,
    column_labels TEXT NOT NULL,
    cell_values TEXT NOT NULL,
    PRIMARY KEY (session_id, table_name),
    FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
);`

	createRuns = `CREATE TABLE runs (
    run_id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    outcomes TEXT NOT NULL,
    elapsed_ns INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
);`
)

const (
	idxRunsSession = `CREATE INDEX idx_runs_session ON runs(session_id, created_at);`
)

// schemaDDL lists all CREATE statements in dependency order.
var schemaDDL = []string{
	createSessions,
	createSessionTables,
	createRuns,
	idxRunsSession,
}
