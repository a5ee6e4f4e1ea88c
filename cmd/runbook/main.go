// Command runbook executes shell command batches with realtime output.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/seralis/runbook"
	"github.com/seralis/runbook/internal/config"
	"github.com/seralis/runbook/internal/history"
	runmcp "github.com/seralis/runbook/internal/mcp"
	"github.com/seralis/runbook/internal/safety"
	"github.com/seralis/runbook/internal/shell"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("runbook: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "run":
		err = runMain(args)
	case "filter":
		err = filterMain(args)
	case "history":
		err = historyMain(args)
	case "mcp":
		err = mcpMain(args)
	case "version":
		fmt.Println(runbook.Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "runbook: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: runbook <command> [flags] [commands]

Commands:
  run         Execute a command batch (from arguments, -f file, or stdin)
  filter      Check a batch against the safety denylist without executing
  history     List stored runs, or show one by ID
  mcp         Start the MCP server
  version     Print the version
  help        Show this help

Use "runbook <command> -h" for command-specific flags.`)
}

// readCommands collects the batch text: positional args joined by newlines,
// else the -f file, else stdin. fromStdin reports whether stdin was consumed.
func readCommands(args []string, file string) (text string, fromStdin bool, err error) {
	if len(args) > 0 {
		return strings.Join(args, "\n"), false, nil
	}
	if file != "" && file != "-" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", false, fmt.Errorf("reading %s: %w", file, err)
		}
		return string(data), false, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", false, fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), true, nil
}

// --- run ---

func runMain(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fileFlag := fs.String("f", "", "read commands from file (- for stdin)")
	timeoutFlag := fs.Duration("timeout", 0, "override configured batch budget (e.g. 30s, 5m)")
	yesFlag := fs.Bool("y", false, "proceed without confirmation when commands are skipped")
	noFilterFlag := fs.Bool("no-filter", false, "skip the safety denylist (dangerous)")
	noColorFlag := fs.Bool("no-color", false, "disable coloured output markers")
	jsonFlag := fs.Bool("json", false, "print the batch outcome as JSON")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(mustGetwd())
	if err != nil {
		return err
	}
	if *noColorFlag || cfg.NoColor {
		color.NoColor = true
	}

	commands, fromStdin, err := readCommands(fs.Args(), *fileFlag)
	if err != nil {
		return err
	}

	if !*noFilterFlag {
		filter, err := safety.New(cfg.DenyPatterns...)
		if err != nil {
			return err
		}
		var skipped []safety.SkipRecord
		commands, skipped = filter.FilterBatch(commands)
		if len(skipped) > 0 {
			fmt.Fprintln(os.Stderr, "Skipped by safety filter:")
			for _, s := range skipped {
				fmt.Fprintf(os.Stderr, "  line %d: %s\n", s.Line, s.Text)
			}
			if !*yesFlag && !fromStdin && !confirm("Proceed with the remaining commands?") {
				return fmt.Errorf("aborted by operator")
			}
		}
	}

	timeout := cfg.Timeout()
	if *timeoutFlag > 0 {
		timeout = *timeoutFlag
	}

	echo := io.Writer(os.Stdout)
	if *jsonFlag {
		// Keep stdout clean for the JSON document.
		echo = os.Stderr
	}

	exec := &shell.Executor{
		Shell:     cfg.Shell(),
		Echo:      echo,
		MaxOutput: cfg.MaxOutputBytes(),
	}

	out, runErr := exec.RunBatch(ctx, commands, timeout)
	saveRun(cfg, out)

	if *jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	}

	if runErr != nil {
		return runErr
	}
	if out.Aborted {
		os.Exit(1)
	}
	return nil
}

// confirm prompts on stderr and reads a y/N answer from stdin.
func confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(sc.Text()))
	return answer == "y" || answer == "yes"
}

// saveRun records the outcome; history failures only warn.
func saveRun(cfg *config.Config, out *shell.Outcome) {
	if cfg.History.Disabled || out == nil || len(out.Commands) == 0 {
		return
	}
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		log.Printf("history disabled: %v", err)
		return
	}
	defer store.Close()

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
	if err := store.Save(rec); err != nil {
		log.Printf("recording run: %v", err)
	}
}

// --- filter ---

func filterMain(args []string) error {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fileFlag := fs.String("f", "", "read commands from file (- for stdin)")
	_ = fs.Parse(args)

	cfg, err := config.Load(mustGetwd())
	if err != nil {
		return err
	}

	commands, _, err := readCommands(fs.Args(), *fileFlag)
	if err != nil {
		return err
	}

	filter, err := safety.New(cfg.DenyPatterns...)
	if err != nil {
		return err
	}

	filtered, skipped := filter.FilterBatch(commands)
	fmt.Println(filtered)
	if len(skipped) > 0 {
		fmt.Fprintf(os.Stderr, "Skipped %d command(s):\n", len(skipped))
		for _, s := range skipped {
			fmt.Fprintf(os.Stderr, "  line %d: %s\n", s.Line, s.Text)
		}
		os.Exit(1)
	}
	return nil
}

// --- history ---

func historyMain(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limitFlag := fs.Int("n", 20, "number of runs to list")
	_ = fs.Parse(args)

	cfg, err := config.Load(mustGetwd())
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer store.Close()

	if id := fs.Arg(0); id != "" {
		rec, err := store.Load(id)
		if err != nil {
			return err
		}
		status := "ok"
		if rec.TimedOut {
			status = "aborted (timeout)"
		} else if rec.Aborted {
			status = "aborted (command failed)"
		}
		fmt.Printf("Run: %s\nStarted: %s\nElapsed: %.2fs\nStatus: %s\n\n",
			rec.ID, rec.StartedAt.Format("2006-01-02 15:04:05"), rec.Elapsed.Seconds(), status)
		for _, c := range rec.Commands {
			fmt.Printf("  [%d] exit %d: %s\n", c.Position, c.ExitCode, c.Command)
		}
		fmt.Printf("\n%s\n", rec.Transcript)
		return nil
	}

	runs, err := store.List(*limitFlag)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No stored runs.")
		return nil
	}
	for _, r := range runs {
		status := "ok"
		if r.Aborted {
			status = "aborted"
		}
		fmt.Printf("%s  %s  %3d commands  %8.2fs  %s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Commands, r.Elapsed.Seconds(), status)
	}
	return nil
}

// --- mcp ---

func mcpMain(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	instructions := fs.Bool("instructions", false, "print model instructions and exit")
	httpAddr := fs.String("http", "", "start HTTP server on address (e.g. :9090)")
	_ = fs.Parse(args)

	if *instructions {
		fmt.Print(runmcp.Instructions)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(mustGetwd())
	if err != nil {
		return err
	}

	filter, err := safety.New(cfg.DenyPatterns...)
	if err != nil {
		return err
	}

	var store history.Store
	if !cfg.History.Disabled {
		sqlite, err := history.Open(cfg.HistoryPath())
		if err != nil {
			log.Printf("history disabled: %v", err)
		} else {
			defer sqlite.Close()
			store = history.NewLRUStore(5, sqlite)
		}
	}

	// Stdout carries the protocol on the stdio transport; realtime command
	// echo goes to stderr.
	exec := &shell.Executor{
		Shell:     cfg.Shell(),
		Echo:      os.Stderr,
		MaxOutput: cfg.MaxOutputBytes(),
	}

	server := runmcp.NewServer(cfg, exec, filter, store)

	if *httpAddr != "" {
		return serveHTTP(ctx, server, *httpAddr)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// --- shared ---

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("determining working directory: %v", err)
	}
	return wd
}
