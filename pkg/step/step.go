// Package step implements the GMI kernel's one deterministic transition:
// propose, project, update curvature, spend budget, check the Lyapunov
// condition, emit a receipt. Per spec §4.6 the kernel is single-threaded per
// chain — the Step function itself holds no state and is safe to call
// concurrently across disjoint chains, mirroring the teacher's
// pkg/kernel/reducer.go pure-function discipline generalized from "apply
// ordered events into a map" to "apply one action into a grid".
package step

import (
	"github.com/mindburn-labs/gtk-core/pkg/admissibility"
	"github.com/mindburn-labs/gtk-core/pkg/budget"
	"github.com/mindburn-labs/gtk-core/pkg/gtkstate"
	"github.com/mindburn-labs/gtk-core/pkg/hashing"
	"github.com/mindburn-labs/gtk-core/pkg/numeric"
	"github.com/mindburn-labs/gtk-core/pkg/params"
	"github.com/mindburn-labs/gtk-core/pkg/risk"
)

// Result bundles the new state and the receipt one Step call produces.
type Result struct {
	State   *gtkstate.GridState
	Receipt gtkstate.Receipt
}

// Step performs the ordered stages of spec §4.6 against a grid state and a
// grid action: snapshot, proposal, projection, curvature update, budget
// advance, Lyapunov check, receipt emission. chainPrev is the tip of the
// receipt chain this step extends; prevReceiptID is the previous accepted
// receipt's id (or p.GenesisReceiptID for the first step of a chain).
//
// Step never returns a Go error for a governed rejection — VIOLATION_INCREASE,
// ABSORB_B0_DV_POS, and INVALID_ACTION_TYPE (a non-grid action, or a grid
// action whose shape does not match the state) all produce a Result with a
// populated RejectCode and the pre-step state unchanged (spec §4.6 step 6:
// "Rejection returns the pre-step state unchanged ... carries the
// reject_code"). A Go error return is reserved for faults that must never
// reach the chain at all: bad params, a malformed action (Action.Validate),
// or a failure to score or hash a state.
func Step(state *gtkstate.GridState, action gtkstate.Action, chainPrev hashing.Digest, prevReceiptID string, p params.Params) (Result, error) {
	d, err := p.Domain()
	if err != nil {
		return Result{}, err
	}
	if err := action.Validate(); err != nil {
		return Result{}, err
	}
	if action.Kind != gtkstate.ActionKindGrid || !action.ShapeMatchesGrid(state.N, state.M) {
		return rejectedResult(state, chainPrev, prevReceiptID, p, gtkstate.RejectInvalidActionType)
	}

	// 1. Snapshot.
	vPrev, err := risk.GridV(state, p)
	if err != nil {
		return Result{}, err
	}
	hashPrev, err := state.Hash()
	if err != nil {
		return Result{}, err
	}
	bPrev := numeric.FromRaw(state.Budget)

	// 2. Proposal: theta' = theta + d_theta - lambda_C*C; rho' = rho + d_rho.
	lambdaC := numeric.FromRaw(p.LambdaC)
	proposed := state.Clone()
	g := action.Grid
	for i := 0; i < state.N; i++ {
		for j := 0; j < state.M; j++ {
			cTerm, _ := lambdaC.Mul(numeric.FromRaw(state.C[i][j]), d)
			proposed.Theta[i][j] = state.Theta[i][j] + g.DTheta[i][j] - cTerm.Raw()
			proposed.Rho[i][j] = state.Rho[i][j] + g.DRho[i][j]
		}
	}

	// 3. Projection, with the row-major tie-break policy of spec §4.6 step 3.
	projected, witness := admissibility.ProjectGrid(proposed, admissibility.K{RhoMax: p.RhoMax})

	// 4. Curvature update: C_new = max(0, C + alpha*tau - beta*C + D*lap(C)).
	tau := admissibility.Tau(state.N, state.M, witness)
	lap := admissibility.DiscreteLaplacian(state.C, state.N, state.M)
	alpha := numeric.FromRaw(p.AlphaTau)
	beta := numeric.FromRaw(p.BetaC)
	dCoef := numeric.FromRaw(p.DC)
	for i := 0; i < state.N; i++ {
		for j := 0; j < state.M; j++ {
			c := numeric.FromRaw(state.C[i][j])
			tauQ, _ := numeric.FromInt(tau[i][j], d)
			alphaTerm, _ := alpha.Mul(tauQ, d)
			betaTerm, _ := beta.Mul(c, d)

			lapMag := numeric.FromRaw(absInt64(lap[i][j]))
			dTerm, _ := dCoef.Mul(lapMag, d)
			dTermSigned := dTerm.Raw()
			if lap[i][j] < 0 {
				dTermSigned = -dTermSigned
			}

			signedDelta := alphaTerm.Raw() - betaTerm.Raw() + dTermSigned
			projected.C[i][j] = numeric.AddSigned(c, signedDelta, d).Raw()
		}
	}

	// 5. Budget advance: deduct spend_per_step (0 under absorption), clamped at 0.
	spend := numeric.FromRaw(p.BudgetSpendPerStep)
	if p.AbsorbOnB0 && bPrev.IsZero() {
		spend = numeric.Zero()
	}
	bAfterSpend, _ := bPrev.Sub(spend)
	projected.Budget = bAfterSpend.Raw()

	// 6. Lyapunov check.
	vNext, err := risk.GridV(projected, p)
	if err != nil {
		return Result{}, err
	}
	delta := numeric.SignedDiff(vPrev, vNext)
	if p.AbsorbOnB0 && bPrev.IsZero() && delta > 0 {
		return rejectedResult(state, chainPrev, prevReceiptID, p, gtkstate.RejectAbsorbB0DVPos)
	}
	if delta > 0 {
		return rejectedResult(state, chainPrev, prevReceiptID, p, gtkstate.RejectViolationIncrease)
	}

	// risk_delta_plus is recorded for audit (it feeds the cognitive kernel's
	// risk-coupled budget law elsewhere) but is always zero here: step 6
	// already rejected any positive delta, and the grid kernel's own budget
	// advance is the flat spend_per_step deduction from step 5, not a
	// function of this value.
	riskDeltaPlus := risk.DeltaPlus(vPrev, vNext)

	projected.Time = state.Time + 1
	hashNext, err := projected.Hash()
	if err != nil {
		return Result{}, err
	}

	r := gtkstate.Receipt{
		Variant:       gtkstate.VariantRich,
		Version:       gtkstate.ReceiptVersion,
		PrevStateHash: hashPrev,
		NextStateHash: hashNext,
		RiskBefore:    vPrev.Raw(),
		RiskAfter:     vNext.Raw(),
		RiskDeltaPlus: riskDeltaPlus.Raw(),
		BudgetBefore:  bPrev.Raw(),
		BudgetAfter:   projected.Budget,
		BudgetDelta:   0,
		Kappa:         p.Kappa,
		Projected:     !witness.Empty(),
		Witness:       witness,
		RejectCode:    gtkstate.RejectNone,
		ParamsVersion: mustParamsVersion(p),
		PrevReceiptID: prevReceiptID,
	}
	if err := finalizeReceipt(&r, chainPrev, p); err != nil {
		return Result{}, err
	}

	return Result{State: projected, Receipt: r}, nil
}

// rejectedResult builds the Result for a governed rejection: spec §4.6 step
// 6 requires the pre-step state unchanged, prev_state_hash == next_state_hash,
// delta == 0, and the reject_code populated.
func rejectedResult(state *gtkstate.GridState, chainPrev hashing.Digest, prevReceiptID string, p params.Params, code gtkstate.RejectCode) (Result, error) {
	v, err := risk.GridV(state, p)
	if err != nil {
		return Result{}, err
	}
	h, err := state.Hash()
	if err != nil {
		return Result{}, err
	}
	b := numeric.FromRaw(state.Budget)
	r := gtkstate.Receipt{
		Variant:       gtkstate.VariantRich,
		Version:       gtkstate.ReceiptVersion,
		PrevStateHash: h,
		NextStateHash: h,
		RiskBefore:    v.Raw(),
		RiskAfter:     v.Raw(),
		RiskDeltaPlus: 0,
		BudgetBefore:  b.Raw(),
		BudgetAfter:   b.Raw(),
		BudgetDelta:   0,
		Kappa:         p.Kappa,
		Projected:     false,
		Witness:       gtkstate.NewWitness(),
		RejectCode:    code,
		ParamsVersion: mustParamsVersion(p),
		PrevReceiptID: prevReceiptID,
	}
	if err := finalizeReceipt(&r, chainPrev, p); err != nil {
		return Result{}, err
	}
	return Result{State: state, Receipt: r}, nil
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func mustParamsVersion(p params.Params) string {
	v, err := p.CanonicalHash()
	if err != nil {
		return ""
	}
	return v
}

// finalizeReceipt computes receipt_id and chain_next, per spec §9 ("the
// source's GMI branch advances [the chain] on rejection") — every receipt
// this package emits, accepted or rejected, advances the chain.
func finalizeReceipt(r *gtkstate.Receipt, chainPrev hashing.Digest, p params.Params) error {
	r.ChainPrev = chainPrev
	b, err := r.CanonicalForHash()
	if err != nil {
		return err
	}
	r.ReceiptID = hashing.FirstK(hashing.HReceipt(b), p.ReceiptIDBytes)

	withID, err := r.CanonicalWithReceiptID()
	if err != nil {
		return err
	}
	r.ChainNext = hashing.ChainNext(chainPrev, withID)
	return nil
}

// BudgetManager is re-exported for callers wiring pkg/budget.Manager alongside Step
// without an extra import line in the common case.
type BudgetManager = budget.Manager
