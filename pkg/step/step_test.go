package step

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

func TestStepAcceptsNoOpAction(t *testing.T) {
	p := params.DefaultGMIParams()
	s := gtkstate.NewGridState(2, 2, 1000)
	a := gtkstate.NewGridDelta(zeroDelta(2, 2), zeroDelta(2, 2), nil)

	res, err := Step(s, a, hashing.Zero(), p.GenesisReceiptID, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Receipt.RejectCode != gtkstate.RejectNone {
		t.Fatalf("expected acceptance, got reject code %q", res.Receipt.RejectCode)
	}
	if res.Receipt.RiskDeltaPlus != 0 {
		t.Errorf("a no-op action must not increase risk, got risk_delta_plus=%d", res.Receipt.RiskDeltaPlus)
	}
}

func TestStepRejectsShapeMismatch(t *testing.T) {
	p := params.DefaultGMIParams()
	s := gtkstate.NewGridState(2, 2, 1000)
	a := gtkstate.NewGridDelta(zeroDelta(3, 3), zeroDelta(3, 3), nil)

	res, err := Step(s, a, hashing.Zero(), p.GenesisReceiptID, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Receipt.RejectCode != gtkstate.RejectInvalidActionType {
		t.Fatalf("expected INVALID_ACTION_TYPE, got %q", res.Receipt.RejectCode)
	}
}

func TestStepRejectionLeavesStateUnchangedAndHashesEqual(t *testing.T) {
	p := params.DefaultGMIParams()
	s := gtkstate.NewGridState(2, 2, 1000)
	a := gtkstate.NewGridDelta(zeroDelta(3, 3), zeroDelta(3, 3), nil)

	res, err := Step(s, a, hashing.Zero(), p.GenesisReceiptID, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != s {
		t.Error("a rejected step must return the pre-step state unchanged")
	}
	if res.Receipt.PrevStateHash != res.Receipt.NextStateHash {
		t.Error("a rejected step's receipt must have prev_state_hash == next_state_hash")
	}
	if res.Receipt.RiskDeltaPlus != 0 {
		t.Error("a rejected step's receipt must carry risk_delta_plus == 0")
	}
}

func TestStepRejectsViolationIncrease(t *testing.T) {
	p := params.DefaultGMIParams()
	s := gtkstate.NewGridState(2, 2, 1000)
	dTheta := [][]int64{{100, 0}, {0, 0}}
	a := gtkstate.NewGridDelta(zeroDelta(2, 2), dTheta, nil)

	res, err := Step(s, a, hashing.Zero(), p.GenesisReceiptID, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Receipt.RejectCode != gtkstate.RejectViolationIncrease {
		t.Fatalf("expected VIOLATION_INCREASE, got %q", res.Receipt.RejectCode)
	}
}

func TestStepChainAdvancesOnRejectionToo(t *testing.T) {
	p := params.DefaultGMIParams()
	s := gtkstate.NewGridState(2, 2, 1000)
	dTheta := [][]int64{{100, 0}, {0, 0}}
	a := gtkstate.NewGridDelta(zeroDelta(2, 2), dTheta, nil)

	res, err := Step(s, a, hashing.Zero(), p.GenesisReceiptID, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Receipt.ChainNext == hashing.Zero() {
		t.Error("chain must advance even on a rejected step")
	}
}

func TestStepProjectsRhoAboveMax(t *testing.T) {
	p := params.DefaultGMIParams()
	// With alpha_tau > 0 the clamp would raise C, and with it V, so the
	// Lyapunov check would reject the step; zero it to observe the projection.
	p.AlphaTau = 0
	s := gtkstate.NewGridState(1, 1, 1000)
	dRho := [][]int64{{p.RhoMax * 2}}
	a := gtkstate.NewGridDelta(dRho, zeroDelta(1, 1), nil)

	res, err := Step(s, a, hashing.Zero(), p.GenesisReceiptID, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Receipt.Projected {
		t.Error("expected receipt.Projected == true when rho is clamped")
	}
	if len(res.Receipt.Witness.RhoClampedHigh) != 1 {
		t.Error("expected exactly one clamped-high cell in the witness")
	}
}

func TestStepReceiptSelfHashIsConsistent(t *testing.T) {
	p := params.DefaultGMIParams()
	s := gtkstate.NewGridState(2, 2, 1000)
	a := gtkstate.NewGridDelta(zeroDelta(2, 2), zeroDelta(2, 2), nil)

	res, err := Step(s, a, hashing.Zero(), p.GenesisReceiptID, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := res.Receipt.CanonicalForHash()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := hashing.FirstK(hashing.HReceipt(b), p.ReceiptIDBytes)
	if res.Receipt.ReceiptID != want {
		t.Errorf("receipt_id = %q, want %q", res.Receipt.ReceiptID, want)
	}
}
