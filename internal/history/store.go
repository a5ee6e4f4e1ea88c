// Package history records completed batch runs so transcripts can be
// inspected after the fact. The execution core itself persists nothing;
// the CLI and MCP layers write here once a batch finishes.
package history

import "time"

// Record is one stored batch run.
type Record struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	Aborted    bool            `json:"aborted"`
	TimedOut   bool            `json:"timed_out"`
	Elapsed    time.Duration   `json:"elapsed"`
	Transcript string          `json:"transcript"`
	Commands   []CommandRecord `json:"commands"`
}

// CommandRecord is one executed command within a stored run.
type CommandRecord struct {
	Position int    `json:"position"`
	Command  string `json:"command"`
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output"`
}

// Summary is the listing view of a stored run.
type Summary struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Aborted   bool          `json:"aborted"`
	Elapsed   time.Duration `json:"elapsed"`
	Commands  int           `json:"commands"`
}

// Store persists and retrieves batch runs.
type Store interface {
	Save(rec *Record) error
	Load(id string) (*Record, error)
	List(limit int) ([]Summary, error)
}
