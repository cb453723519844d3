package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mindburn-labs/gtk-core/pkg/wire"
)

// runInspectCmd schema-checks a single receipt and pretty-prints it with its
// canonical hashing bytes, without walking the rest of the chain; it does
// not recompute receipt_id or chain_next — grounded on
// the teacher's checkFileHashes/checkIndex single-record check style: a
// fast sanity pass over one record rather than a full verify.
func runInspectCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("inspect", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var receiptPath string
	cmd.StringVar(&receiptPath, "receipt", "", "path to a single receipt JSON file (REQUIRED)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if receiptPath == "" {
		fmt.Fprintln(stderr, "inspect: --receipt is required")
		cmd.Usage()
		return 2
	}

	raw, err := os.ReadFile(receiptPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if err := wire.ValidateReceiptJSON(raw); err != nil {
		fmt.Fprintf(stderr, "inspect: schema check failed: %v\n", err)
		return 1
	}

	var view receiptView
	if err := json.Unmarshal(raw, &view); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	receipt, err := fromReceiptView(view)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	canonical, err := receipt.CanonicalForHash()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	out := map[string]interface{}{
		"receipt":            toReceiptView(receipt),
		"canonical_for_hash": string(canonical),
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Fprintln(stdout, string(data))
	return 0
}
