// Command gtkctl is the host-side CLI around the governed transition
// kernel: it loads a Params config, threads actions through pkg/step or
// pkg/replay, and prints receipts. The kernel packages themselves never do
// I/O (spec §5); every read, write, and log line in this file is host
// plumbing layered on top of the pure core, in the style of the teacher's
// cmd/helm dispatcher.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the CLI entrypoint, kept separate from main so tests can drive it
// with captured stdout/stderr instead of the process's real streams.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "verify":
		return runVerifyCmd(args[2:], stdout, stderr)
	case "replay":
		return runReplayCmd(args[2:], stdout, stderr)
	case "inspect":
		return runInspectCmd(args[2:], stdout, stderr)
	case "serve":
		return runServeCmd(args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "gtkctl: unknown command %q\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "gtkctl — governed transition kernel CLI")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  gtkctl <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "COMMANDS:")
	fmt.Fprintln(w, "  verify   Recompute and verify one step against a receipt (--before, --after, --receipt)")
	fmt.Fprintln(w, "  replay   Replay an action log from a starting state (--state, --actions, [--receipts])")
	fmt.Fprintln(w, "  inspect  Pretty-print a single receipt and its canonical hashing bytes (--receipt)")
	fmt.Fprintln(w, "  serve    Run the JWT-gated HTTP verify surface (--addr, --config)")
	fmt.Fprintln(w, "  help     Show this help")
}
