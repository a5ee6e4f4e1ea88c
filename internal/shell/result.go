package shell

import (
	"strings"
	"time"
)

// Origin identifies which output stream produced a line.
type Origin string

const (
	// Stdout marks a line read from the child's standard output.
	Stdout Origin = "stdout"
	// Stderr marks a line read from the child's standard error.
	Stderr Origin = "stderr"
)

// TaggedLine is one line of child output together with its stream of origin.
// Ordering across a Result's lines reflects arrival order over both streams;
// only the per-stream order is deterministic.
type TaggedLine struct {
	Origin Origin `json:"origin"`
	Text   string `json:"text"`
}

// Result holds the outcome of one command execution.
type Result struct {
	ExitCode  int          `json:"exit_code"`
	Lines     []TaggedLine `json:"lines"`
	Truncated bool         `json:"truncated"` // output exceeded the size cap
}

// Transcript renders the captured lines as text. Stdout lines appear
// verbatim; stderr lines carry the "ERROR:" tag so the channels remain
// distinguishable after merging.
func (r *Result) Transcript() string {
	parts := make([]string, 0, len(r.Lines))
	for _, l := range r.Lines {
		if l.Origin == Stderr {
			parts = append(parts, "ERROR: "+l.Text)
		} else {
			parts = append(parts, l.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// CommandResult pairs a batch command with its execution result.
type CommandResult struct {
	Position int    `json:"position"` // 1-based position among the batch's commands
	Command  string `json:"command"`
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output"`
}

// Outcome is the aggregate result of a batch run.
//
// Aborted and the exit codes are the structured success signal; the
// transcript additionally keeps the legacy "ERROR:" substrings for callers
// that still parse the text.
type Outcome struct {
	RunID    string          `json:"run_id"`
	Commands []CommandResult `json:"commands"`
	Aborted  bool            `json:"aborted"`
	TimedOut bool            `json:"timed_out"`
	Elapsed  time.Duration   `json:"elapsed"`

	// Transcript is the full human-readable log: per-command headers,
	// interleaved output, and failure/timeout/summary notices.
	Transcript string `json:"transcript"`
}
