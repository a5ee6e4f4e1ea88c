// Package shell executes shell command batches with realtime, interleaved
// output capture.
//
// A batch runs fully sequentially with fail-fast semantics; within one
// command, two reader goroutines (stdout, stderr) feed a merge loop that
// echoes lines as they arrive and accumulates the transcript. Concurrent
// command execution would need per-command cwd/env isolation and is
// deliberately not offered.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/fatih/color"
)

// DefaultShell interprets command lines when Executor.Shell is unset.
// Commands get full shell semantics: pipes, redirection, and globbing all
// work, the same as an interactive prompt.
const DefaultShell = "sh"

var (
	stdoutMark = color.New(color.FgGreen)
	stderrMark = color.New(color.FgRed)
)

// Executor spawns command lines through a shell interpreter and captures
// their interleaved output.
type Executor struct {
	Shell     string    // interpreter binary; DefaultShell if empty
	Echo      io.Writer // realtime console output; os.Stdout if nil
	MaxOutput int       // transcript byte cap per command; 0 = unlimited
}

func (e *Executor) shell() string {
	if e.Shell != "" {
		return e.Shell
	}
	return DefaultShell
}

func (e *Executor) echo() io.Writer {
	if e.Echo != nil {
		return e.Echo
	}
	return os.Stdout
}

// Run executes one command line through the shell and returns its exit code
// and captured output. prefix is prepended to every echoed console line for
// operator visibility.
//
// The returned error is non-nil only when the interpreter itself cannot be
// spawned or waited on; a command that runs and exits non-zero is reported
// through Result.ExitCode, not through the error.
func (e *Executor) Run(ctx context.Context, command, prefix string) (*Result, error) {
	w := e.echo()
	fmt.Fprintf(w, "\n%s$ %s\n", prefix, command)

	cmd := exec.CommandContext(ctx, e.shell(), "-c", command)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", e.shell(), err)
	}

	outCh := make(chan TaggedLine, 64)
	errCh := make(chan TaggedLine, 64)
	go readLines(stdout, Stdout, outCh)
	go readLines(stderr, Stderr, errCh)

	res := &Result{}
	size := 0

	// Merge until both channels are closed. The readers close their channels
	// only at pipe EOF, so every line the child ever wrote has been received
	// before Wait is called — nothing is lost even if output arrives after
	// the process exits.
	for outCh != nil || errCh != nil {
		var (
			line TaggedLine
			ok   bool
		)
		select {
		case line, ok = <-outCh:
			if !ok {
				outCh = nil
				continue
			}
		case line, ok = <-errCh:
			if !ok {
				errCh = nil
				continue
			}
		}

		if line.Origin == Stderr {
			fmt.Fprintf(w, "%s%s %s\n", prefix, stderrMark.Sprint("!"), line.Text)
		} else {
			fmt.Fprintf(w, "%s%s %s\n", prefix, stdoutMark.Sprint(">"), line.Text)
		}

		// Once the cap trips, stop capturing entirely so the transcript
		// stays a contiguous prefix with no mid-stream holes.
		if res.Truncated {
			continue
		}
		if e.MaxOutput > 0 && size+len(line.Text) > e.MaxOutput {
			res.Truncated = true
			continue
		}
		size += len(line.Text)
		res.Lines = append(res.Lines, line)
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("waiting for %s: %w", e.shell(), err)
		}
		res.ExitCode = exitErr.ExitCode()
	}

	return res, nil
}
