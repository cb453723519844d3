// Package admissibility implements the admissibility set K of spec §4.4: a
// Cartesian product of box constraints on grid cells and the budget scalar.
// The projector clamps independently per component in a fixed row-major
// scan order, grounded on the teacher's pkg/kernel/reducer.go discipline of
// never letting iteration order (map or otherwise) leak into an observable
// result — here the *projected values* are order-independent by
// construction, but the *witness* is order-sensitive only in the sense that
// it lists clamped cells in the same scan order every time.
package admissibility

import (
	"github.com/mindburn-labs/gtk-core/pkg/gtkstate"
)

// K describes the box constraints spec §4.4 fixes: 0 <= rho <= rho_max,
// C >= 0, budget >= 0. theta is unconstrained and never appears here.
type K struct {
	RhoMax int64 // raw Q numerator ceiling for every rho cell
}

// ProjectGrid clamps a proposed grid state onto K, scanning cells in
// row-major order (i outer, j inner) so the witness's clamped-cell lists are
// a deterministic function of the proposal, never of map iteration or
// concurrent scheduling. Returns the projected state (a new value; the
// input is never mutated) and the witness spec §4.4 requires.
func ProjectGrid(proposed *gtkstate.GridState, k K) (*gtkstate.GridState, *gtkstate.Witness) {
	out := proposed.Clone()
	w := gtkstate.NewWitness()

	for i := 0; i < out.N; i++ {
		for j := 0; j < out.M; j++ {
			switch {
			case out.Rho[i][j] > k.RhoMax:
				out.Rho[i][j] = k.RhoMax
				w.RhoClampedHigh = append(w.RhoClampedHigh, gtkstate.Cell{I: i, J: j})
			case out.Rho[i][j] < 0:
				out.Rho[i][j] = 0
				w.RhoClampedLow = append(w.RhoClampedLow, gtkstate.Cell{I: i, J: j})
			}
		}
	}

	for i := 0; i < out.N; i++ {
		for j := 0; j < out.M; j++ {
			if out.C[i][j] < 0 {
				out.C[i][j] = 0
				w.CClampedLow = append(w.CClampedLow, gtkstate.Cell{I: i, J: j})
			}
		}
	}

	if out.Budget < 0 {
		out.Budget = 0
		w.BudgetClamped = true
	}

	return out, w
}

// Tau builds the coupling array tau[i,j] = 1 iff cell (i,j) was clamped at
// rho_max, per spec §4.6 step 4 ("Curvature update"). Cells not present in
// the witness's RhoClampedHigh list are 0.
func Tau(n, m int, w *gtkstate.Witness) [][]int64 {
	tau := make([][]int64, n)
	for i := range tau {
		tau[i] = make([]int64, m)
	}
	if w == nil {
		return tau
	}
	for _, c := range w.RhoClampedHigh {
		if c.I >= 0 && c.I < n && c.J >= 0 && c.J < m {
			tau[c.I][c.J] = 1
		}
	}
	return tau
}

// ProjectCognitive clamps nothing today — spec §4.4 defines K purely over
// grid cells and the budget scalar, so a cognitive-state proposal is always
// already in K. It returns a clone and an empty witness, so a caller can
// treat both kernels' projections alike; pkg/step handles grid states only
// and does not call it.
func ProjectCognitive(s *gtkstate.CognitiveState) (*gtkstate.CognitiveState, *gtkstate.Witness) {
	return s.Clone(), gtkstate.NewWitness()
}
