package verifier

import (
	"testing"

	"github.com/mindburn-labs/gtk-core/pkg/gtkstate"
	"github.com/mindburn-labs/gtk-core/pkg/hashing"
	"github.com/mindburn-labs/gtk-core/pkg/numeric"
	"github.com/mindburn-labs/gtk-core/pkg/params"
	gtkstep "github.com/mindburn-labs/gtk-core/pkg/step"
)

func zeroDelta(n, m int) [][]int64 {
	out := make([][]int64, n)
	for i := range out {
		out[i] = make([]int64, m)
	}
	return out
}

func TestVerifyStepAcceptsGenuineAcceptedStep(t *testing.T) {
	p := params.DefaultGMIParams()
	before := gtkstate.NewGridState(2, 2, 1000)
	a := gtkstate.NewGridDelta(zeroDelta(2, 2), zeroDelta(2, 2), nil)

	res, err := gtkstep.Step(before, a, hashing.Zero(), p.GenesisReceiptID, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := VerifyStep(before, res.State, res.Receipt,
		numeric.FromRaw(res.Receipt.BudgetBefore), numeric.FromRaw(res.Receipt.BudgetAfter),
		p.GenesisReceiptID, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Accepted {
		t.Fatalf("expected acceptance, got reject code %q (%s)", v.Code, v.Detail)
	}
}

func TestVerifyStepAcceptsGenuineRejectedStep(t *testing.T) {
	p := params.DefaultGMIParams()
	before := gtkstate.NewGridState(2, 2, 1000)
	dTheta := [][]int64{{100, 0}, {0, 0}}
	a := gtkstate.NewGridDelta(zeroDelta(2, 2), dTheta, nil)

	res, err := gtkstep.Step(before, a, hashing.Zero(), p.GenesisReceiptID, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Receipt.RejectCode != gtkstate.RejectViolationIncrease {
		t.Fatalf("test setup expected VIOLATION_INCREASE, got %q", res.Receipt.RejectCode)
	}

	v, err := VerifyStep(before, res.State, res.Receipt,
		numeric.FromRaw(res.Receipt.BudgetBefore), numeric.FromRaw(res.Receipt.BudgetAfter),
		p.GenesisReceiptID, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Accepted {
		t.Fatalf("a correctly-formed rejection receipt must itself verify as accepted by the verifier, got %q", v.Code)
	}
}

func TestVerifyStepAcceptsNonzeroBudgetSpendPerStep(t *testing.T) {
	p := params.DefaultGMIParams()
	p.BudgetSpendPerStep = 5
	before := gtkstate.NewGridState(2, 2, 1000)
	a := gtkstate.NewGridDelta(zeroDelta(2, 2), zeroDelta(2, 2), nil)

	res, err := gtkstep.Step(before, a, hashing.Zero(), p.GenesisReceiptID, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Receipt.BudgetAfter == res.Receipt.BudgetBefore {
		t.Fatalf("test setup expected a nonzero flat spend to move the budget")
	}

	v, err := VerifyStep(before, res.State, res.Receipt,
		numeric.FromRaw(res.Receipt.BudgetBefore), numeric.FromRaw(res.Receipt.BudgetAfter),
		p.GenesisReceiptID, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Accepted {
		t.Fatalf("a flat budget_spend_per_step deduction must verify, got reject code %q (%s)", v.Code, v.Detail)
	}
}

func TestVerifyStepDetectsStateHashTamper(t *testing.T) {
	p := params.DefaultGMIParams()
	before := gtkstate.NewGridState(2, 2, 1000)
	a := gtkstate.NewGridDelta(zeroDelta(2, 2), zeroDelta(2, 2), nil)

	res, err := gtkstep.Step(before, a, hashing.Zero(), p.GenesisReceiptID, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tamperedBefore := before.Clone()
	tamperedBefore.Rho[0][0] = 1

	v, err := VerifyStep(tamperedBefore, res.State, res.Receipt,
		numeric.FromRaw(res.Receipt.BudgetBefore), numeric.FromRaw(res.Receipt.BudgetAfter),
		p.GenesisReceiptID, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Accepted || v.Code != gtkstate.RejectStateHashMismatch {
		t.Fatalf("expected STATE_HASH_MISMATCH, got accepted=%v code=%q", v.Accepted, v.Code)
	}
}

func TestVerifyStepDetectsReceiptTamper(t *testing.T) {
	p := params.DefaultGMIParams()
	before := gtkstate.NewGridState(2, 2, 1000)
	a := gtkstate.NewGridDelta(zeroDelta(2, 2), zeroDelta(2, 2), nil)

	res, err := gtkstep.Step(before, a, hashing.Zero(), p.GenesisReceiptID, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tampered := res.Receipt
	tampered.RiskAfter = tampered.RiskAfter + 1

	v, err := VerifyStep(before, res.State, tampered,
		numeric.FromRaw(tampered.BudgetBefore), numeric.FromRaw(tampered.BudgetAfter),
		p.GenesisReceiptID, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Accepted {
		t.Fatal("expected rejection for a tampered risk_after claim")
	}
}

func TestVerifyStepDetectsChainLinkMismatch(t *testing.T) {
	p := params.DefaultGMIParams()
	before := gtkstate.NewGridState(2, 2, 1000)
	a := gtkstate.NewGridDelta(zeroDelta(2, 2), zeroDelta(2, 2), nil)

	res, err := gtkstep.Step(before, a, hashing.Zero(), p.GenesisReceiptID, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := VerifyStep(before, res.State, res.Receipt,
		numeric.FromRaw(res.Receipt.BudgetBefore), numeric.FromRaw(res.Receipt.BudgetAfter),
		"some-other-receipt-id", p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Accepted || v.Code != gtkstate.RejectInvalidChainLink {
		t.Fatalf("expected INVALID_CHAIN_LINK when prev_receipt_id differs from the expected previous receipt, got accepted=%v code=%q", v.Accepted, v.Code)
	}
}
