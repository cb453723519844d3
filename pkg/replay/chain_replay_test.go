package replay

import (
	"testing"

	"github.com/mindburn-labs/gtk-core/pkg/gtkstate"
	"github.com/mindburn-labs/gtk-core/pkg/hashing"
	"github.com/mindburn-labs/gtk-core/pkg/params"
)

func zeroDelta(n, m int) [][]int64 {
	out := make([][]int64, n)
	for i := range out {
		out[i] = make([]int64, m)
	}
	return out
}

func TestReplayThreadsStateAndChainAcrossActions(t *testing.T) {
	p := params.DefaultGMIParams()
	s0 := gtkstate.NewGridState(2, 2, 1000)
	actions := []gtkstate.Action{
		gtkstate.NewGridDelta(zeroDelta(2, 2), zeroDelta(2, 2), nil),
		gtkstate.NewGridDelta(zeroDelta(2, 2), zeroDelta(2, 2), nil),
	}

	report, err := Replay(s0, hashing.Zero(), actions, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != StatusComplete {
		t.Fatalf("expected COMPLETE, got %v", report.Status)
	}
	if len(report.Receipts) != 2 {
		t.Fatalf("expected 2 receipts, got %d", len(report.Receipts))
	}
	if report.Receipts[1].PrevReceiptID != report.Receipts[0].ReceiptID {
		t.Error("second receipt's prev_receipt_id must equal the first receipt's receipt_id")
	}
	if report.Receipts[0].ChainPrev != hashing.Zero() {
		t.Error("first receipt's chain_prev must be the genesis sentinel")
	}
	if report.FinalChain != report.Receipts[len(report.Receipts)-1].ChainNext {
		t.Error("FinalChain must equal the last receipt's chain_next")
	}
}

func TestVerifyAgainstAcceptsAMatchingTrail(t *testing.T) {
	p := params.DefaultGMIParams()
	s0 := gtkstate.NewGridState(2, 2, 1000)
	actions := []gtkstate.Action{
		gtkstate.NewGridDelta(zeroDelta(2, 2), zeroDelta(2, 2), nil),
	}

	original, err := Replay(s0, hashing.Zero(), actions, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	check, err := VerifyAgainst(s0, hashing.Zero(), actions, original.Receipts, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if check.Status != StatusComplete {
		t.Fatalf("expected COMPLETE, got %v (%s)", check.Status, check.Detail)
	}
}

func TestVerifyAgainstDetectsDivergence(t *testing.T) {
	p := params.DefaultGMIParams()
	s0 := gtkstate.NewGridState(2, 2, 1000)
	actions := []gtkstate.Action{
		gtkstate.NewGridDelta(zeroDelta(2, 2), zeroDelta(2, 2), nil),
		gtkstate.NewGridDelta(zeroDelta(2, 2), zeroDelta(2, 2), nil),
	}

	original, err := Replay(s0, hashing.Zero(), actions, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tampered := append([]gtkstate.Receipt(nil), original.Receipts...)
	tampered[1].RiskAfter = tampered[1].RiskAfter + 1

	check, err := VerifyAgainst(s0, hashing.Zero(), actions, tampered, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if check.Status != StatusDiverged || check.DivergenceIndex != 1 {
		t.Fatalf("expected divergence at index 1, got status=%v index=%d", check.Status, check.DivergenceIndex)
	}
}
