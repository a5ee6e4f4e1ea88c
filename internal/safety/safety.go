// Package safety provides the pre-execution command denylist.
//
// Filtering is regexp-based and intentionally conservative: false positives
// are acceptable, missed destructive commands are the risk being minimised.
// Shell quoting, variable expansion, and indirection can all evade literal
// pattern matches, so this is an advisory layer, not an isolation boundary.
package safety

import (
	"fmt"
	"regexp"
	"strings"
)

// SkipMarker is the comment prefix substituted for a rejected command.
// The original line number and text are embedded so callers can prompt
// the operator before proceeding.
const SkipMarker = "# SKIPPED POTENTIALLY UNSAFE COMMAND"

// basePatterns are known-destructive shell idioms. The set is fixed;
// Filter accepts extra patterns from configuration.
var basePatterns = []string{
	`rm\s+-rf\s+[/~]`,          // recursive delete of root or home
	`mkfs`,                     // filesystem formatting
	`dd\s+if=/dev/zero`,        // zero-fill device writes
	`:\(\)\{:\|:&\};:`,         // fork bomb
	`chmod\s+-R\s+777\s+[/~]`,  // world-writable root or home
	`wget.+\s+\|\s+bash`,       // download piped into an interpreter
	`curl.+\s+\|\s+bash`,
}

// SkipRecord reports one command line rejected by the filter.
type SkipRecord struct {
	Line int    // 1-based line number in the original batch
	Text string // the original command line
}

// Filter classifies command lines against the denylist.
type Filter struct {
	patterns []*regexp.Regexp
}

// New compiles the base denylist plus any extra patterns.
// Invalid extra patterns are reported rather than silently dropped.
func New(extra ...string) (*Filter, error) {
	f := &Filter{}
	for _, p := range basePatterns {
		f.patterns = append(f.patterns, regexp.MustCompile(`(?i)`+p))
	}
	for _, p := range extra {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, fmt.Errorf("compiling deny pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

// IsSafe reports whether command matches none of the deny patterns.
func (f *Filter) IsSafe(command string) bool {
	for _, re := range f.patterns {
		if re.MatchString(command) {
			return false
		}
	}
	return true
}

// FilterBatch checks every command line in rawText and replaces unsafe
// lines in place with a SkipMarker comment. Blank lines and comments pass
// through unchanged, so the filtered text always has the same line count
// and ordering as the input.
func (f *Filter) FilterBatch(rawText string) (string, []SkipRecord) {
	lines := strings.Split(rawText, "\n")
	filtered := make([]string, 0, len(lines))
	var skipped []SkipRecord

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			filtered = append(filtered, line)
			continue
		}
		if f.IsSafe(line) {
			filtered = append(filtered, line)
			continue
		}
		filtered = append(filtered, fmt.Sprintf("%s (line %d): %s", SkipMarker, i+1, line))
		skipped = append(skipped, SkipRecord{Line: i + 1, Text: line})
	}

	return strings.Join(filtered, "\n"), skipped
}
