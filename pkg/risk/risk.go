// Package risk computes the Lyapunov/risk functional V of spec §4.3: pure,
// deterministic, weighted, integer-aggregated scalar over a state. The
// aggregation discipline — stable ordering, explicit per-component
// accumulation, no hidden state — is grounded on the teacher's
// pkg/kernel/reducer.go deterministic-reduce pattern, generalized from
// "reduce events into a map" to "reduce state cells into one Q".
package risk

import (
	"sort"

	"github.com/mindburn-labs/gtk-core/pkg/gtkerr"
	"github.com/mindburn-labs/gtk-core/pkg/gtkstate"
	"github.com/mindburn-labs/gtk-core/pkg/numeric"
	"github.com/mindburn-labs/gtk-core/pkg/params"
)

// wholeSaturating converts a non-negative whole-unit count into Q at domain
// d, saturating at d.Ceiling instead of faulting when the count itself
// (already scaled by d.Scale) would overflow int64 or exceed the ceiling.
// Gradient and curvature energies are sums of squares and can legitimately
// run past the ceiling on a large grid; V must still return a value.
func wholeSaturating(whole int64, d numeric.Domain) numeric.Q {
	q, ok := numeric.FromInt(whole, d)
	if !ok {
		return numeric.FromRaw(d.Ceiling)
	}
	return q
}

// GridV computes V(state) = w_grad·|∇θ|² + w_C·|C|² + w_budget·barrier(b)
// for a grid state, per spec §4.3.
func GridV(s *gtkstate.GridState, p params.Params) (numeric.Q, error) {
	d, err := p.Domain()
	if err != nil {
		return numeric.Q{}, err
	}

	gradEnergy := int64(0)
	for i := 0; i < s.N; i++ {
		for j := 0; j < s.M; j++ {
			if i+1 < s.N {
				diff := s.Theta[i+1][j] - s.Theta[i][j]
				gradEnergy += diff * diff
			}
			if j+1 < s.M {
				diff := s.Theta[i][j+1] - s.Theta[i][j]
				gradEnergy += diff * diff
			}
		}
	}
	if gradEnergy < 0 {
		return numeric.Q{}, gtkerr.Fault{Code: "GTK/RISK/GRADIENT_OVERFLOW", Detail: "gradient energy overflowed to negative, grid too large for this domain"}
	}

	cEnergy := numeric.Zero()
	var sat numeric.SaturatedFlag
	for i := 0; i < s.N; i++ {
		for j := 0; j < s.M; j++ {
			c := numeric.FromRaw(s.C[i][j])
			sq, _ := c.Mul(c, d)
			cEnergy, sat = cEnergy.Add(sq, d)
			_ = sat
		}
	}

	budgetMin := numeric.FromRaw(p.BudgetMin)
	budget := numeric.FromRaw(s.Budget)
	barrier, _ := budgetMin.Sub(budget)

	wGrad := numeric.FromRaw(p.WGradTheta)
	wC := numeric.FromRaw(p.WC)
	wBudget := numeric.FromRaw(p.WBudgetBarrier)

	gradTerm, _ := wGrad.Mul(wholeSaturating(gradEnergy, d), d)
	cTerm, _ := wC.Mul(cEnergy, d)
	budgetTerm, _ := wBudget.Mul(barrier, d)

	total, _ := gradTerm.Add(cTerm, d)
	total, _ = total.Add(budgetTerm, d)
	return total, nil
}

// CognitiveV computes V = Σ w_i·V_i over the five cognitive sub-states, per
// spec §4.3: belief magnitude sum, count of uninitialized memory cells,
// plan length, policy size, buffered I/O length.
func CognitiveV(s *gtkstate.CognitiveState, p params.Params) (numeric.Q, error) {
	d, err := p.Domain()
	if err != nil {
		return numeric.Q{}, err
	}
	if len(p.RiskWeights) == 0 {
		return numeric.Q{}, gtkerr.Fault{Code: "GTK/RISK/MISSING_WEIGHTS", Detail: "params.RiskWeights must be populated for cognitive V"}
	}

	beliefMag := int64(0)
	keys := make([]string, 0, len(s.Belief))
	for k := range s.Belief {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range s.Belief[k] {
			if v < 0 {
				return numeric.Q{}, gtkerr.Fault{Code: "GTK/RISK/NEGATIVE_BELIEF", Detail: "belief vector component must be non-negative"}
			}
			beliefMag += v
		}
	}

	uninitialized := int64(0)
	for _, m := range s.Memory {
		if !m.Initialized {
			uninitialized++
		}
	}

	planLen := int64(len(s.Plan))
	policySize := int64(len(s.Policy))
	ioLen := int64(len(s.IO))

	components := map[string]int64{
		"belief": beliefMag,
		"memory": uninitialized,
		"plan":   planLen,
		"policy": policySize,
		"io":     ioLen,
	}

	total := numeric.Zero()
	compKeys := make([]string, 0, len(components))
	for k := range components {
		compKeys = append(compKeys, k)
	}
	sort.Strings(compKeys)
	for _, k := range compKeys {
		w, ok := p.RiskWeights[k]
		if !ok {
			continue
		}
		// The raw component aggregates are expressed in Q's own scale
		// already (they are whole-number "value" numerators), not whole
		// units, since beliefs are Q vectors summed in their own domain;
		// memory/plan/policy/io counts are whole numbers scaled to Q.
		var vi numeric.Q
		if k == "belief" {
			vi = numeric.FromRaw(components[k])
		} else {
			vi = wholeSaturating(components[k], d)
		}
		weighted, _ := numeric.FromRaw(w).Mul(vi, d)
		total, _ = total.Add(weighted, d)
	}
	return total, nil
}

// DeltaPlus computes risk_delta_plus = max(0, V(after) - V(before)), the
// only risk-delta form that ever crosses into a receipt (spec §4.3).
func DeltaPlus(before, after numeric.Q) numeric.Q {
	diff := numeric.SignedDiff(before, after)
	if diff <= 0 {
		return numeric.Zero()
	}
	return numeric.FromRaw(diff)
}
