package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
	return path
}

func TestRunReplayProducesReceiptsForNoopActions(t *testing.T) {
	dir := t.TempDir()
	statePath := writeFixture(t, dir, "state.json", `{"n":2,"m":2,"budget":1000}`)
	actionsPath := writeFixture(t, dir, "actions.json", `[
		{"kind":"GRID","d_rho":[[0,0],[0,0]],"d_theta":[[0,0],[0,0]]},
		{"kind":"GRID","d_rho":[[0,0],[0,0]],"d_theta":[[0,0],[0,0]]}
	]`)

	var stdout, stderr bytes.Buffer
	code := Run([]string{"gtkctl", "replay", "--state", statePath, "--actions", actionsPath, "--json"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d; stderr=%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `"status": "COMPLETE"`) {
		t.Fatalf("expected a COMPLETE status in output, got: %s", stdout.String())
	}
}

func TestRunReplayRejectsMissingFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"gtkctl", "replay"}, &stdout, &stderr)
	if code != 2 {
		t.Fatalf("expected exit 2 for missing required flags, got %d", code)
	}
}

func TestRunUnknownCommandPrintsUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"gtkctl", "bogus"}, &stdout, &stderr)
	if code != 2 {
		t.Fatalf("expected exit 2 for an unknown command, got %d", code)
	}
	if !strings.Contains(stderr.String(), "unknown command") {
		t.Fatalf("expected usage error mentioning the unknown command, got: %s", stderr.String())
	}
}

func TestRunInspectValidatesAndPrintsReceipt(t *testing.T) {
	dir := t.TempDir()
	zero := strings.Repeat("0", 64)
	receiptPath := writeFixture(t, dir, "receipt.json", `{
		"variant": "MINIMAL",
		"version": "gtk-receipt-v1",
		"prev_state_hash": "`+zero+`",
		"next_state_hash": "`+zero+`",
		"risk_before": 0, "risk_after": 0, "risk_delta_plus": 0,
		"budget_before": 1000, "budget_after": 1000, "budget_delta": 0,
		"kappa": 1000000, "projected": false, "reject_code": "",
		"prev_receipt_id": "00000000", "receipt_id": "deadbeef",
		"chain_prev": "`+zero+`", "chain_next": "`+zero+`"
	}`)

	var stdout, stderr bytes.Buffer
	code := Run([]string{"gtkctl", "inspect", "--receipt", receiptPath}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d; stderr=%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "canonical_for_hash") {
		t.Fatalf("expected canonical_for_hash in output, got: %s", stdout.String())
	}
}
