package shell

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func newTestExecutor() (*Executor, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Executor{Echo: &buf}, &buf
}

func TestRun_CapturesStdout(t *testing.T) {
	e, buf := newTestExecutor()

	res, err := e.Run(context.Background(), "echo hello", "[1/1]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if len(res.Lines) != 1 {
		t.Fatalf("len(Lines) = %d, want 1", len(res.Lines))
	}
	if res.Lines[0].Origin != Stdout || res.Lines[0].Text != "hello" {
		t.Errorf("Lines[0] = %+v, want stdout/hello", res.Lines[0])
	}
	if !strings.Contains(buf.String(), "[1/1]$ echo hello") {
		t.Errorf("echo output missing command header: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("echo output missing realtime line: %q", buf.String())
	}
}

func TestRun_TagsStderrInTranscript(t *testing.T) {
	e, _ := newTestExecutor()

	res, err := e.Run(context.Background(), "echo oops >&2", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Lines) != 1 {
		t.Fatalf("len(Lines) = %d, want 1", len(res.Lines))
	}
	if res.Lines[0].Origin != Stderr {
		t.Errorf("Origin = %s, want stderr", res.Lines[0].Origin)
	}
	if got := res.Transcript(); got != "ERROR: oops" {
		t.Errorf("Transcript() = %q, want %q", got, "ERROR: oops")
	}
}

func TestRun_ShellSemantics(t *testing.T) {
	e, _ := newTestExecutor()

	// Pipes and redirection must work the same as an interactive shell.
	res, err := e.Run(context.Background(), "echo hi | tr a-z A-Z", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.Transcript(); got != "HI" {
		t.Errorf("Transcript() = %q, want %q", got, "HI")
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	e, _ := newTestExecutor()

	res, err := e.Run(context.Background(), "exit 3", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
}

func TestRun_BothStreamsNoLossNoDuplication(t *testing.T) {
	e, _ := newTestExecutor()

	cmd := `for i in 1 2 3; do echo "out-$i"; echo "err-$i" >&2; done`
	res, err := e.Run(context.Background(), cmd, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("ExitCode = %d, want 0", res.ExitCode)
	}

	// Every line appears exactly once, regardless of interleaving.
	counts := make(map[string]int)
	for _, l := range res.Lines {
		counts[string(l.Origin)+":"+l.Text]++
	}
	for _, want := range []string{
		"stdout:out-1", "stdout:out-2", "stdout:out-3",
		"stderr:err-1", "stderr:err-2", "stderr:err-3",
	} {
		if counts[want] != 1 {
			t.Errorf("line %q seen %d times, want 1", want, counts[want])
		}
	}

	// FIFO within each stream; no fixed interleaving between streams.
	var outs, errs []string
	for _, l := range res.Lines {
		if l.Origin == Stdout {
			outs = append(outs, l.Text)
		} else {
			errs = append(errs, l.Text)
		}
	}
	if strings.Join(outs, ",") != "out-1,out-2,out-3" {
		t.Errorf("stdout order = %v", outs)
	}
	if strings.Join(errs, ",") != "err-1,err-2,err-3" {
		t.Errorf("stderr order = %v", errs)
	}
}

func TestRun_OutputArrivingNearExit(t *testing.T) {
	e, _ := newTestExecutor()

	// A burst right before exit must still be fully drained.
	res, err := e.Run(context.Background(), "seq 1 200", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Lines) != 200 {
		t.Errorf("len(Lines) = %d, want 200", len(res.Lines))
	}
}

func TestRun_SingleLineLargerThanBuffer(t *testing.T) {
	e, _ := newTestExecutor()

	// A single line far beyond the reader's internal buffer must be
	// captured whole, and the command must still run to completion.
	cmd := "head -c 3000000 /dev/zero | tr '\\0' a; echo; echo done"
	res, err := e.Run(context.Background(), cmd, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("ExitCode = %d, want 0", res.ExitCode)
	}
	if len(res.Lines) != 2 {
		t.Fatalf("len(Lines) = %d, want 2", len(res.Lines))
	}
	if got := len(res.Lines[0].Text); got != 3000000 {
		t.Errorf("len(Lines[0].Text) = %d, want 3000000 — no bytes lost", got)
	}
	if res.Lines[1].Text != "done" {
		t.Errorf("Lines[1].Text = %q, want %q", res.Lines[1].Text, "done")
	}
}

func TestRun_TruncationKeepsContiguousPrefix(t *testing.T) {
	e, _ := newTestExecutor()
	e.MaxOutput = 11

	// The second line trips the cap; the third must not reappear after it.
	res, err := e.Run(context.Background(), `printf 'aaaaaaaaaa\nbbbb\ncc\n'`, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Truncated {
		t.Error("Truncated = false, want true")
	}
	if len(res.Lines) != 1 {
		t.Fatalf("len(Lines) = %d, want 1 — capture must stop at the cap", len(res.Lines))
	}
	if res.Lines[0].Text != "aaaaaaaaaa" {
		t.Errorf("Lines[0].Text = %q, want the uncapped prefix", res.Lines[0].Text)
	}
}

func TestRun_MaxOutputTruncation(t *testing.T) {
	e, _ := newTestExecutor()
	e.MaxOutput = 50

	res, err := e.Run(context.Background(), "seq 1 1000", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Truncated {
		t.Error("Truncated = false, want true")
	}
	size := 0
	for _, l := range res.Lines {
		size += len(l.Text)
	}
	if size > e.MaxOutput {
		t.Errorf("captured %d bytes, want <= %d", size, e.MaxOutput)
	}
}

func TestRun_SpawnFailure(t *testing.T) {
	e, _ := newTestExecutor()
	e.Shell = "nonexistent-shell-xyz-123"

	_, err := e.Run(context.Background(), "echo hello", "")
	if err == nil {
		t.Fatal("expected error for missing interpreter")
	}
	if !strings.Contains(err.Error(), "nonexistent-shell-xyz-123") {
		t.Errorf("error = %q, want to name the interpreter", err)
	}
}

func TestRun_ContextCancelKillsCommand(t *testing.T) {
	e, _ := newTestExecutor()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	res, err := e.Run(ctx, "sleep 10", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode == 0 {
		t.Error("ExitCode = 0, want non-zero after kill")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("command was not killed promptly")
	}
}
