package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/mindburn-labs/gtk-core/pkg/numeric"
	"github.com/mindburn-labs/gtk-core/pkg/verifier"
)

// runVerifyCmd recomputes a single step's receipt from a before/after state
// pair and checks it against a claimed receipt file, per spec §4.7.
func runVerifyCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		beforePath  string
		afterPath   string
		receiptPath string
		configPath  string
		prevID      string
		jsonOutput  bool
	)
	cmd.StringVar(&beforePath, "before", "", "path to the before-state JSON file (REQUIRED)")
	cmd.StringVar(&afterPath, "after", "", "path to the after-state JSON file (REQUIRED)")
	cmd.StringVar(&receiptPath, "receipt", "", "path to the claimed receipt JSON file (REQUIRED)")
	cmd.StringVar(&configPath, "config", "", "path to a Params YAML config (default: built-in GMI defaults)")
	cmd.StringVar(&prevID, "prev-receipt-id", "", "previous receipt_id (default: genesis sentinel from config)")
	cmd.BoolVar(&jsonOutput, "json", false, "emit the verdict as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if beforePath == "" || afterPath == "" || receiptPath == "" {
		fmt.Fprintln(stderr, "verify: --before, --after, and --receipt are required")
		cmd.Usage()
		return 2
	}

	p, err := loadParams(configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if prevID == "" {
		prevID = p.GenesisReceiptID
	}

	before, err := loadGridState(beforePath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	after, err := loadGridState(afterPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	receipts, err := loadReceipts(receiptPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if len(receipts) != 1 {
		fmt.Fprintf(stderr, "verify: --receipt must contain exactly one receipt, got %d\n", len(receipts))
		return 2
	}
	receipt := receipts[0]

	v, err := verifier.VerifyStep(before, after, receipt,
		numeric.FromRaw(receipt.BudgetBefore), numeric.FromRaw(receipt.BudgetAfter),
		prevID, p)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	if jsonOutput {
		out := map[string]interface{}{
			"accepted": v.Accepted,
			"code":     string(v.Code),
			"detail":   v.Detail,
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Fprintln(stdout, string(data))
	} else if v.Accepted {
		fmt.Fprintln(stdout, "VERIFIED")
	} else {
		fmt.Fprintf(stdout, "REJECTED: %s (%s)\n", v.Code, v.Detail)
	}

	if !v.Accepted {
		return 1
	}
	return 0
}
