package gtkstate

import "github.com/mindburn-labs/gtk-core/pkg/canonicalize"

// Cell is a row-major grid coordinate.
type Cell struct{ I, J int }

// Witness is the projection witness of spec §4.4: which constraints were
// active during projection onto K. Cell lists are always populated in
// row-major scan order — the tie-break policy of spec §4.6 — so the
// witness is a deterministic function of the pre-projection state, never
// of map iteration order.
type Witness struct {
	RhoClampedHigh []Cell // clamped to rho_max
	RhoClampedLow  []Cell // clamped to 0
	CClampedLow    []Cell // clamped to 0
	BudgetClamped  bool
}

// NewWitness returns an empty witness (no constraints active).
func NewWitness() *Witness { return &Witness{} }

// Empty reports whether no constraint was active.
func (w *Witness) Empty() bool {
	return w == nil || (len(w.RhoClampedHigh) == 0 && len(w.RhoClampedLow) == 0 && len(w.CClampedLow) == 0 && !w.BudgetClamped)
}

func cellsToInterface(cells []Cell) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		out[i] = map[string]interface{}{"i": int64(c.I), "j": int64(c.J)}
	}
	return out
}

// Canonical returns the canonical byte serialization of the witness.
func (w *Witness) Canonical() ([]byte, error) {
	kv := canonicalize.NewKV()
	if w == nil {
		w = NewWitness()
	}
	if err := kv.Set("rho_clamped_high", cellsToInterface(w.RhoClampedHigh)); err != nil {
		return nil, err
	}
	if err := kv.Set("rho_clamped_low", cellsToInterface(w.RhoClampedLow)); err != nil {
		return nil, err
	}
	if err := kv.Set("c_clamped_low", cellsToInterface(w.CClampedLow)); err != nil {
		return nil, err
	}
	if err := kv.Set("budget_clamped", w.BudgetClamped); err != nil {
		return nil, err
	}
	return canonicalize.Canonical(kv.Map())
}

// AsValue returns the witness in the generic form Receipt.Canonical embeds.
func (w *Witness) AsValue() map[string]interface{} {
	if w == nil {
		w = NewWitness()
	}
	return map[string]interface{}{
		"rho_clamped_high": cellsToInterface(w.RhoClampedHigh),
		"rho_clamped_low":  cellsToInterface(w.RhoClampedLow),
		"c_clamped_low":    cellsToInterface(w.CClampedLow),
		"budget_clamped":   w.BudgetClamped,
	}
}
