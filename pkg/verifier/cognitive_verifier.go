package verifier

import (
	"github.com/mindburn-labs/gtk-core/pkg/gtkstate"
	"github.com/mindburn-labs/gtk-core/pkg/hashing"
	"github.com/mindburn-labs/gtk-core/pkg/numeric"
	"github.com/mindburn-labs/gtk-core/pkg/params"
	"github.com/mindburn-labs/gtk-core/pkg/risk"
)

// VerifyCognitiveStep performs the same six ordered, fail-fast checks as
// VerifyStep, against a cognitive-state transition rather than a grid one.
// The budget law here is the risk-coupled one of spec §4.5/§4.7: b_after ==
// b_before when risk_delta_plus is zero, else b_before - kappa*risk_delta_plus
// (or Insufficient), matching pkg/budget.Spend's own law rather than the
// grid kernel's flat budget_spend_per_step deduction.
func VerifyCognitiveStep(
	stateBefore, stateAfter *gtkstate.CognitiveState,
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

	// 2. State hash after.
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
	vBefore, err := risk.CognitiveV(stateBefore, p)
	if err != nil {
		return Verdict{}, err
	}
	checkState := stateAfter
	if receipt.RejectCode != gtkstate.RejectNone {
		checkState = stateBefore
	}
	vAfter, err := risk.CognitiveV(checkState, p)
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

	// 4. Budget law: risk-coupled, per spec §4.5.
	if budgetAfter.Cmp(numeric.Zero()) < 0 {
		return reject(gtkstate.RejectNegativeBudget, "budget_after is negative"), nil
	}
	kappa := numeric.FromRaw(receipt.Kappa)
	if wantDeltaPlus.IsZero() {
		if budgetAfter.Raw() != budgetBefore.Raw() {
			return reject(gtkstate.RejectBudgetViolation, "risk_delta_plus==0 requires budget_after == budget_before"), nil
		}
	} else {
		required, sat := kappa.Mul(wantDeltaPlus, d)
		if sat.Saturated || budgetBefore.Cmp(required) < 0 {
			return reject(gtkstate.RejectInsufficientBudget, "budget_before is insufficient for kappa*risk_delta_plus"), nil
		}
		want, _ := budgetBefore.Sub(required)
		if budgetAfter.Raw() != want.Raw() {
			return reject(gtkstate.RejectBudgetViolation, "budget_after does not equal budget_before - kappa*risk_delta_plus"), nil
		}
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
