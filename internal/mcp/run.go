package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/seralis/runbook/internal/history"
	"github.com/seralis/runbook/internal/safety"
	"github.com/seralis/runbook/internal/shell"
)

type runParams struct {
	Commands       string `json:"commands" jsonschema:"newline-separated shell command lines; blank lines and #-comments are skipped"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" jsonschema:"wall-clock budget for the whole batch in seconds; default from configuration (300s)"`
	Filter         *bool  `json:"filter,omitempty" jsonschema:"apply the safety denylist before executing. Default: true."`
}

func (h *handler) runHandler(ctx context.Context, req *mcp.CallToolRequest, params runParams) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(params.Commands) == "" {
		return textResult("No commands to execute.")
	}

	commands := params.Commands
	var skipped []safety.SkipRecord
	if params.Filter == nil || *params.Filter {
		commands, skipped = h.filter.FilterBatch(commands)
	}

	timeout := h.cfg.Timeout()
	if params.TimeoutSeconds > 0 {
		timeout = time.Duration(params.TimeoutSeconds) * time.Second
	}

	out, err := h.exec.RunBatch(ctx, commands, timeout)
	if err != nil {
		// Interpreter-level failure; the partial outcome still carries
		// whatever ran before it.
		return errorResult(fmt.Sprintf("execution failed: %v\n\n%s", err, out.Transcript))
	}

	h.saveRun(out)

	return textResult(formatRun(out, skipped))
}

// saveRun records a finished batch. History failures are not surfaced to
// the tool caller; the run itself succeeded.
func (h *handler) saveRun(out *shell.Outcome) {
	if h.store == nil {
		return
	}
	_ = h.store.Save(recordFromOutcome(out))
}

func recordFromOutcome(out *shell.Outcome) *history.Record {
	rec := &history.Record{
		ID:         out.RunID,
		StartedAt:  time.Now().Add(-out.Elapsed),
		Aborted:    out.Aborted,
		TimedOut:   out.TimedOut,
		Elapsed:    out.Elapsed,
		Transcript: out.Transcript,
	}
	for _, c := range out.Commands {
		rec.Commands = append(rec.Commands, history.CommandRecord{
			Position: c.Position,
			Command:  c.Command,
			ExitCode: c.ExitCode,
			Output:   c.Output,
		})
	}
	return rec
}

func formatRun(out *shell.Outcome, skipped []safety.SkipRecord) string {
	var b strings.Builder

	if out.Aborted {
		if out.TimedOut {
			fmt.Fprintln(&b, "Status: ABORTED (timeout)")
		} else {
			fmt.Fprintln(&b, "Status: ABORTED (command failed)")
		}
	} else {
		fmt.Fprintln(&b, "Status: OK")
	}
	fmt.Fprintf(&b, "Run: %s\n", out.RunID)
	fmt.Fprintf(&b, "Commands executed: %d\n", len(out.Commands))
	fmt.Fprintln(&b)

	if len(skipped) > 0 {
		fmt.Fprintln(&b, "Skipped by safety filter:")
		for _, s := range skipped {
			fmt.Fprintf(&b, "  line %d: %s\n", s.Line, s.Text)
		}
		fmt.Fprintln(&b)
	}

	fmt.Fprintln(&b, "Transcript:")
	fmt.Fprintln(&b, out.Transcript)

	return b.String()
}
