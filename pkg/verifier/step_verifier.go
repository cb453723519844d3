// Package verifier re-derives every field of a governed transition receipt
// from its inputs and accepts or rejects accordingly. Trust model, lifted
// directly from the teacher's pkg/verifier.go: the verifier trusts only the
// cryptographic primitives (SHA-256, the canonical serializer) and the
// receipt format itself — never the kernel instance that produced the
// receipt, and never the host that stores it.
package verifier

import (
	"github.com/mindburn-labs/gtk-core/pkg/gtkstate"
	"github.com/mindburn-labs/gtk-core/pkg/hashing"
	"github.com/mindburn-labs/gtk-core/pkg/numeric"
	"github.com/mindburn-labs/gtk-core/pkg/params"
	"github.com/mindburn-labs/gtk-core/pkg/risk"
)

// VerifierVersion identifies this package's check set on diagnostic output,
// mirroring the teacher's VerifierVersion constant.
const VerifierVersion = "gtk-step-verifier-v1"

// Verdict is the pure result of VerifyStep: Accept, or Reject with a code
// from the wire contract of spec §6.
type Verdict struct {
	Accepted bool
	Code     gtkstate.RejectCode
	Detail   string
}

func accept() Verdict { return Verdict{Accepted: true, Code: gtkstate.RejectNone} }

func reject(code gtkstate.RejectCode, detail string) Verdict {
	return Verdict{Accepted: false, Code: code, Detail: detail}
}

// VerifyStep performs the six ordered, fail-fast checks of spec §4.7 against
// a claimed transition. prevReceiptID is the id this chain's previous
// accepted receipt carried (or p.GenesisReceiptID before any step has run).
func VerifyStep(
	stateBefore, stateAfter *gtkstate.GridState,
	receipt gtkstate.Receipt,
	budgetBefore, budgetAfter numeric.Q,
	prevReceiptID string,
	p params.Params,
) (Verdict, error) {
	d, err := p.Domain()
	if err != nil {
		return Verdict{}, err
	}

	// 1. State hash before.
	hashBefore, err := stateBefore.Hash()
	if err != nil {
		return Verdict{}, err
	}
	if hashBefore != receipt.PrevStateHash {
		return reject(gtkstate.RejectStateHashMismatch, "state_before does not hash to receipt.prev_state_hash"), nil
	}

	// 2. State hash after (rejected receipts claim next==prev; accepted
	// receipts must match the claimed after-state exactly).
	hashAfter, err := stateAfter.Hash()
	if err != nil {
		return Verdict{}, err
	}
	if receipt.RejectCode != gtkstate.RejectNone {
		if receipt.NextStateHash != receipt.PrevStateHash {
			return reject(gtkstate.RejectStateHashMismatch, "a rejected receipt must have next_state_hash == prev_state_hash"), nil
		}
	} else if hashAfter != receipt.NextStateHash {
		return reject(gtkstate.RejectStateHashMismatch, "state_after does not hash to receipt.next_state_hash"), nil
	}

	// 3. Risk recompute.
	vBefore, err := risk.GridV(stateBefore, p)
	if err != nil {
		return Verdict{}, err
	}
	checkState := stateAfter
	if receipt.RejectCode != gtkstate.RejectNone {
		checkState = stateBefore
	}
	vAfter, err := risk.GridV(checkState, p)
	if err != nil {
		return Verdict{}, err
	}
	if vBefore.Raw() != receipt.RiskBefore || vAfter.Raw() != receipt.RiskAfter {
		return reject(gtkstate.RejectRiskMismatch, "recomputed V(before)/V(after) do not match receipt claims"), nil
	}
	wantDeltaPlus := risk.DeltaPlus(vBefore, vAfter)
	if wantDeltaPlus.Raw() != receipt.RiskDeltaPlus {
		return reject(gtkstate.RejectRiskMismatch, "recomputed risk_delta_plus does not match receipt claim"), nil
	}

	// 4. Budget law. The grid kernel's stage 5 (spec §4.6) spends a flat
	// budget_spend_per_step on every accepted step, zeroed while absorption
	// is in effect at b=0; a rejected step leaves the budget unchanged. The
	// spend is independent of risk_delta_plus, which the Lyapunov
	// check (stage 6) already floors to zero on every accepted path. This
	// mirrors the grid kernel's own step function rather than the
	// risk-coupled kappa*delta law of a cognitive-state kernel.
	if budgetAfter.Cmp(numeric.Zero()) < 0 {
		return reject(gtkstate.RejectNegativeBudget, "budget_after is negative"), nil
	}
	spend := numeric.FromRaw(p.BudgetSpendPerStep)
	if p.AbsorbOnB0 && budgetBefore.IsZero() {
		spend = numeric.Zero()
	}
	if receipt.RejectCode != gtkstate.RejectNone {
		spend = numeric.Zero()
	}
	want, _ := budgetBefore.Sub(spend)
	if budgetAfter.Raw() != want.Raw() {
		return reject(gtkstate.RejectBudgetViolation, "budget_after does not equal budget_before - budget_spend_per_step"), nil
	}

	// 5. Receipt self-hash.
	canon, err := receipt.CanonicalForHash()
	if err != nil {
		return Verdict{}, err
	}
	wantID := hashing.FirstK(hashing.HReceipt(canon), p.ReceiptIDBytes)
	if wantID != receipt.ReceiptID {
		return reject(gtkstate.RejectInvalidReceiptHash, "receipt_id does not match H_receipt(canonical(receipt))"), nil
	}

	// 6. Chain link.
	if receipt.PrevReceiptID != prevReceiptID {
		if prevReceiptID == p.GenesisReceiptID {
			return reject(gtkstate.RejectGenesisRequired, "first receipt of a chain must carry the genesis sentinel"), nil
		}
		return reject(gtkstate.RejectInvalidChainLink, "receipt.prev_receipt_id does not match the previous accepted receipt"), nil
	}

	return accept(), nil
}
