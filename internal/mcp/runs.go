package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type getRunParams struct {
	RunID string `json:"run_id" jsonschema:"the run ID from a run_commands result"`
}

func (h *handler) getRunHandler(ctx context.Context, req *mcp.CallToolRequest, params getRunParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}
	if h.store == nil {
		return errorResult("run history is disabled")
	}

	rec, err := h.store.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to load run %s: %v", params.RunID, err))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\n", rec.ID)
	fmt.Fprintf(&b, "Started: %s\n", rec.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Elapsed: %.2fs\n", rec.Elapsed.Seconds())
	if rec.Aborted {
		if rec.TimedOut {
			fmt.Fprintln(&b, "Status: ABORTED (timeout)")
		} else {
			fmt.Fprintln(&b, "Status: ABORTED (command failed)")
		}
	} else {
		fmt.Fprintln(&b, "Status: OK")
	}
	fmt.Fprintln(&b)

	for _, c := range rec.Commands {
		fmt.Fprintf(&b, "  [%d] exit %d: %s\n", c.Position, c.ExitCode, c.Command)
	}
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "Transcript:")
	fmt.Fprintln(&b, rec.Transcript)

	return textResult(b.String())
}

type listRunsParams struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of runs to return. Default: 20."`
}

func (h *handler) listRunsHandler(ctx context.Context, req *mcp.CallToolRequest, params listRunsParams) (*mcp.CallToolResult, any, error) {
	if h.store == nil {
		return errorResult("run history is disabled")
	}

	runs, err := h.store.List(params.Limit)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to list runs: %v", err))
	}
	if len(runs) == 0 {
		return textResult("No stored runs.")
	}

	var b strings.Builder
	for _, r := range runs {
		status := "ok"
		if r.Aborted {
			status = "aborted"
		}
		fmt.Fprintf(&b, "%s  %s  %d commands  %.2fs  %s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Commands, r.Elapsed.Seconds(), status)
	}
	return textResult(b.String())
}
