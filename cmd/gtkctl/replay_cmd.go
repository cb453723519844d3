package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/mindburn-labs/gtk-core/pkg/hashing"
	"github.com/mindburn-labs/gtk-core/pkg/replay"
)

// runReplayCmd threads an action log over a starting state. With
// --receipts it compares against a claimed trail and reports the first
// point of divergence; without it, it simply replays and prints the
// produced receipts, the way a host would seed a fresh chain.
func runReplayCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("replay", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		statePath    string
		actionsPath  string
		receiptsPath string
		configPath   string
		jsonOutput   bool
	)
	cmd.StringVar(&statePath, "state", "", "path to the starting-state JSON file (REQUIRED)")
	cmd.StringVar(&actionsPath, "actions", "", "path to the action log JSON file (REQUIRED)")
	cmd.StringVar(&receiptsPath, "receipts", "", "path to a claimed receipt trail to verify against (optional)")
	cmd.StringVar(&configPath, "config", "", "path to a Params YAML config (default: built-in GMI defaults)")
	cmd.BoolVar(&jsonOutput, "json", false, "emit the result as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if statePath == "" || actionsPath == "" {
		fmt.Fprintln(stderr, "replay: --state and --actions are required")
		cmd.Usage()
		return 2
	}

	p, err := loadParams(configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	state, err := loadGridState(statePath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	actions, err := loadActions(actionsPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	var report replay.Report
	if receiptsPath != "" {
		want, err := loadReceipts(receiptsPath)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
		report, err = replay.VerifyAgainst(state, hashing.Zero(), actions, want, p)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
	} else {
		report, err = replay.Replay(state, hashing.Zero(), actions, p)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
	}

	views := make([]receiptView, len(report.Receipts))
	for i, r := range report.Receipts {
		views[i] = toReceiptView(r)
	}

	if jsonOutput {
		out := map[string]interface{}{
			"session_id":       report.SessionID,
			"status":           string(report.Status),
			"final_chain":      report.FinalChain.Hex(),
			"divergence_index": report.DivergenceIndex,
			"detail":           report.Detail,
			"receipts":         views,
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Fprintln(stdout, string(data))
	} else {
		fmt.Fprintf(stdout, "session_id: %s\n", report.SessionID)
		fmt.Fprintf(stdout, "status: %s\n", report.Status)
		fmt.Fprintf(stdout, "final_chain: %s\n", report.FinalChain.Hex())
		if report.Status == replay.StatusDiverged {
			fmt.Fprintf(stdout, "diverged at index %d: %s\n", report.DivergenceIndex, report.Detail)
		}
		fmt.Fprintf(stdout, "receipts: %d\n", len(views))
	}

	if report.Status != replay.StatusComplete {
		return 1
	}
	return 0
}
