package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type checkParams struct {
	Command string `json:"command" jsonschema:"a single shell command line to check against the denylist"`
}

func (h *handler) checkHandler(ctx context.Context, req *mcp.CallToolRequest, params checkParams) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(params.Command) == "" {
		return errorResult("command is required")
	}

	if h.filter.IsSafe(params.Command) {
		return textResult(fmt.Sprintf("safe: %s", params.Command))
	}
	return textResult(fmt.Sprintf("unsafe: %s\n\nThis command matches a known-destructive pattern and would be skipped by run_commands.", params.Command))
}

type filterParams struct {
	Commands string `json:"commands" jsonschema:"newline-separated shell command lines to filter"`
}

func (h *handler) filterHandler(ctx context.Context, req *mcp.CallToolRequest, params filterParams) (*mcp.CallToolResult, any, error) {
	filtered, skipped := h.filter.FilterBatch(params.Commands)

	var b strings.Builder
	if len(skipped) == 0 {
		fmt.Fprintln(&b, "All commands passed the safety filter.")
	} else {
		fmt.Fprintf(&b, "Skipped %d command(s):\n", len(skipped))
		for _, s := range skipped {
			fmt.Fprintf(&b, "  line %d: %s\n", s.Line, s.Text)
		}
	}
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "Filtered batch:")
	fmt.Fprintln(&b, filtered)

	return textResult(b.String())
}
