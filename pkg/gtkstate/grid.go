// Package gtkstate defines the state & action model of the governed
// transition kernel: grid state for the GMI kernel, cognitive state for the
// ATS kernel, and the action algebra both share a projection of. Per spec
// §3, every scalar cell is Q-encoded — never a float — so canonical
// serialization and state hashing are exact and platform-independent.
package gtkstate

import (
	"github.com/mindburn-labs/gtk-core/pkg/canonicalize"
	"github.com/mindburn-labs/gtk-core/pkg/gtkerr"
	"github.com/mindburn-labs/gtk-core/pkg/hashing"
	"github.com/mindburn-labs/gtk-core/pkg/numeric"
)

// GridState is the four-array grid state of spec §3: density ρ, phase
// potential θ, curvature C, plus scalar budget b and discrete time t.
// ρ and C are raw Q numerators (non-negative); θ is a plain signed integer
// grid, unconstrained per spec §4.4 ("θ is unconstrained").
type GridState struct {
	N, M   int
	Rho    [][]int64 // raw Q numerators, 0 <= Rho[i][j] <= RhoMax
	Theta  [][]int64 // signed, unconstrained
	C      [][]int64 // raw Q numerators, C[i][j] >= 0
	Budget int64     // raw Q numerator
	Time   uint64
}

// NewGridState allocates a zeroed N×M grid state.
func NewGridState(n, m int, budget int64) *GridState {
	s := &GridState{N: n, M: m, Budget: budget}
	s.Rho = make([][]int64, n)
	s.Theta = make([][]int64, n)
	s.C = make([][]int64, n)
	for i := 0; i < n; i++ {
		s.Rho[i] = make([]int64, m)
		s.Theta[i] = make([]int64, m)
		s.C[i] = make([]int64, m)
	}
	return s
}

// Clone returns a deep copy. The kernel never mutates a caller's state
// (spec §3, "Lifecycle"): step always returns a new GridState.
func (s *GridState) Clone() *GridState {
	out := NewGridState(s.N, s.M, s.Budget)
	out.Time = s.Time
	for i := 0; i < s.N; i++ {
		copy(out.Rho[i], s.Rho[i])
		copy(out.Theta[i], s.Theta[i])
		copy(out.C[i], s.C[i])
	}
	return out
}

// ShapeMatches reports whether s and other share identical grid dimensions.
func (s *GridState) ShapeMatches(other *GridState) bool {
	return s.N == other.N && s.M == other.M
}

// Canonical returns the canonical byte serialization of the grid state.
func (s *GridState) Canonical() ([]byte, error) {
	if s.N < 0 || s.M < 0 || len(s.Rho) != s.N || len(s.Theta) != s.N || len(s.C) != s.N {
		return nil, gtkerr.Fault{Code: "GTK/STATE/SHAPE_INVARIANT_VIOLATED", Detail: "grid row counts must equal N"}
	}
	kv := canonicalize.NewKV()
	if err := kv.Set("n", int64(s.N)); err != nil {
		return nil, err
	}
	if err := kv.Set("m", int64(s.M)); err != nil {
		return nil, err
	}
	if err := kv.Set("rho", toRows(s.Rho)); err != nil {
		return nil, err
	}
	if err := kv.Set("theta", toRows(s.Theta)); err != nil {
		return nil, err
	}
	if err := kv.Set("c", toRows(s.C)); err != nil {
		return nil, err
	}
	if err := kv.Set("budget", s.Budget); err != nil {
		return nil, err
	}
	if err := kv.Set("time", int64(s.Time)); err != nil {
		return nil, err
	}
	return canonicalize.Canonical(kv.Map())
}

// Hash returns H_state(canonical(state)).
func (s *GridState) Hash() (hashing.Digest, error) {
	b, err := s.Canonical()
	if err != nil {
		return hashing.Digest{}, err
	}
	return hashing.HState(b), nil
}

func toRows(rows [][]int64) []interface{} {
	out := make([]interface{}, len(rows))
	for i, row := range rows {
		r := make([]interface{}, len(row))
		for j, v := range row {
			r[j] = v
		}
		out[i] = r
	}
	return out
}

// QAt returns cell (i,j) of rho or c as a numeric.Q for use with the Q
// algebra (the raw int64 grids are the canonical wire representation; Q
// wrapping is only needed where arithmetic crosses numeric.Domain rules).
func QAt(grid [][]int64, i, j int) numeric.Q {
	return numeric.FromRaw(grid[i][j])
}
