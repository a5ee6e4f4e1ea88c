package shell

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout is the wall-clock budget for a batch when none is given.
const DefaultTimeout = 300 * time.Second

// splitCommands extracts the command candidates from a batch: every line
// that is neither blank nor a comment after trimming whitespace.
func splitCommands(commandsText string) []string {
	var commands []string
	for _, line := range strings.Split(commandsText, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		commands = append(commands, line)
	}
	return commands
}

// RunBatch executes the commands in commandsText sequentially, stopping on
// the first non-zero exit code or once the wall-clock budget is exceeded.
// The timeout is checked only between commands; a single long-running
// command is not preempted when the budget runs out mid-flight (cancel ctx
// to kill an in-flight command).
//
// An Outcome is always returned, including everything executed so far. The
// error is non-nil only when the shell interpreter itself could not be
// spawned — command failures and timeouts are reported through the Outcome.
func (e *Executor) RunBatch(ctx context.Context, commandsText string, timeout time.Duration) (*Outcome, error) {
	out := &Outcome{RunID: uuid.New().String()}

	if strings.TrimSpace(commandsText) == "" {
		out.Transcript = "No commands to execute."
		return out, nil
	}

	commands := splitCommands(commandsText)

	fmt.Fprintln(e.echo(), "\n=== Starting Command Execution ===")

	start := time.Now()
	var parts []string

	for i, command := range commands {
		if time.Since(start) > timeout {
			parts = append(parts, fmt.Sprintf("\nERROR: Command execution timed out after %.0f seconds.", timeout.Seconds()))
			out.Aborted = true
			out.TimedOut = true
			break
		}

		prefix := fmt.Sprintf("[%d/%d]", i+1, len(commands))
		res, err := e.Run(ctx, command, prefix)
		if err != nil {
			parts = append(parts, fmt.Sprintf("\n# Command %d: %s", i+1, command))
			parts = append(parts, fmt.Sprintf("\nERROR: Command failed to start: %v", err))
			out.Commands = append(out.Commands, CommandResult{
				Position: i + 1,
				Command:  command,
				ExitCode: -1,
			})
			out.Aborted = true
			out.Elapsed = time.Since(start)
			out.Transcript = strings.Join(parts, "\n")
			return out, fmt.Errorf("command %d: %w", i+1, err)
		}

		parts = append(parts, fmt.Sprintf("\n# Command %d: %s", i+1, command))
		parts = append(parts, res.Transcript())

		out.Commands = append(out.Commands, CommandResult{
			Position: i + 1,
			Command:  command,
			ExitCode: res.ExitCode,
			Output:   res.Transcript(),
		})

		if res.ExitCode != 0 {
			parts = append(parts, fmt.Sprintf("\nERROR: Command failed with exit code %d", res.ExitCode))
			out.Aborted = true
			break
		}
	}

	out.Elapsed = time.Since(start)
	parts = append(parts, fmt.Sprintf("\n=== Execution completed in %.2f seconds ===", out.Elapsed.Seconds()))
	out.Transcript = strings.Join(parts, "\n")

	return out, nil
}
