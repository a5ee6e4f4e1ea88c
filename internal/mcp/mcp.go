// Package mcp provides the runbook MCP server, registering all tools
// and publishing model instructions.
package mcp

import (
	_ "embed"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/seralis/runbook"
	"github.com/seralis/runbook/internal/config"
	"github.com/seralis/runbook/internal/history"
	"github.com/seralis/runbook/internal/safety"
	"github.com/seralis/runbook/internal/shell"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	cfg    *config.Config
	exec   *shell.Executor
	filter *safety.Filter
	store  history.Store // nil when history is disabled
}

// NewServer creates an MCP server with all runbook tools registered.
// store may be nil, in which case runs are not recorded and the history
// tools report that persistence is disabled.
func NewServer(cfg *config.Config, exec *shell.Executor, filter *safety.Filter, store history.Store) *mcp.Server {
	h := &handler{
		cfg:    cfg,
		exec:   exec,
		filter: filter,
		store:  store,
	}

	opts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "runbook", Version: runbook.Version}, opts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "run_commands",
		Description: `Execute a batch of shell commands sequentially with realtime output capture.

Commands are newline-separated; blank lines and #-comments are skipped. Known-destructive
commands are filtered out before execution (the skip report is included in the result).
Execution stops on the first non-zero exit code or when the wall-clock budget is exceeded.
The result transcript interleaves stdout and stderr; stderr lines are tagged ERROR:.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "check_command",
		Description: `Check a single command line against the safety denylist without executing it.

The denylist is a best-effort advisory filter for known-destructive idioms (recursive
delete of root, mkfs, fork bombs, curl|bash), not an isolation boundary.`,
	}, h.checkHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "filter_commands",
		Description: `Filter a command batch against the safety denylist without executing it.

Returns the filtered text (unsafe lines replaced by marker comments, line count preserved)
plus a report of what was skipped. Use before run_commands to preview what would execute.`,
	}, h.filterHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_run",
		Description: "Fetch the stored transcript and per-command results of a past run by run_id.",
	}, h.getRunHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_runs",
		Description: "List recent stored runs, newest first.",
	}, h.listRunsHandler)

	return s
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
