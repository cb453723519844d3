package gtkstate

import (
	"fmt"

	"github.com/mindburn-labs/gtk-core/pkg/canonicalize"
	"github.com/mindburn-labs/gtk-core/pkg/gtkerr"
)

// ActionKind distinguishes the two shapes an Action may take (spec §3).
type ActionKind string

const (
	ActionKindGrid     ActionKind = "GRID"
	ActionKindSymbolic ActionKind = "SYMBOLIC"
)

// GridAction is a grid delta (Δρ, Δθ, optional control field u).
type GridAction struct {
	DRho   [][]int64 // signed
	DTheta [][]int64 // signed
	U      [][]int64 // optional; nil means absent
}

// SymbolicAction is a tag drawn from a fixed algebra plus an opaque
// structured payload. Symbolic actions carry no provenance — the receipt
// chain is the only audit trail (spec §3).
type SymbolicAction struct {
	Tag     string
	Payload map[string]interface{}
}

// Known symbolic action tags. Hosts may extend this set; the kernel itself
// only distinguishes "known to this Params instance" vs not when a host
// opts into the optional CEL pre-filter (pkg/actionpolicy) — step itself
// treats any non-empty Tag as well-typed.
const (
	SymbolicTagNoop       = "NOOP"
	SymbolicTagCommit     = "COMMIT"
	SymbolicTagRollback   = "ROLLBACK"
	SymbolicTagObserve    = "OBSERVE"
	SymbolicTagDeliberate = "DELIBERATE"
)

// Action is either a GridAction or a SymbolicAction, never both.
type Action struct {
	Kind     ActionKind
	Grid     *GridAction
	Symbolic *SymbolicAction
}

// NewGridDelta constructs a grid action.
func NewGridDelta(dRho, dTheta, u [][]int64) Action {
	return Action{Kind: ActionKindGrid, Grid: &GridAction{DRho: dRho, DTheta: dTheta, U: u}}
}

// NewSymbolicAction constructs a symbolic action.
func NewSymbolicAction(tag string, payload map[string]interface{}) Action {
	return Action{Kind: ActionKindSymbolic, Symbolic: &SymbolicAction{Tag: tag, Payload: payload}}
}

// Validate performs the type-level check spec §7 requires before an
// action can even be considered for proposal: a grid action must carry a
// GridAction payload, and a symbolic action must carry a non-empty tag.
// Delta dimensions are not checked here (see ShapeMatchesGrid). Violations here are faults, not rejections — per
// spec §7, "type-level or invariant-level faults propagate"; the step
// function is responsible for converting a *shape* mismatch between a
// well-typed grid action and the actual state into the INVALID_ACTION_TYPE
// rejection, which is a semantic, not type-level, problem.
func (a Action) Validate() error {
	switch a.Kind {
	case ActionKindGrid:
		if a.Grid == nil {
			return gtkerr.Fault{Code: "GTK/STATE/ACTION_MALFORMED", Detail: "grid action missing GridAction payload"}
		}
	case ActionKindSymbolic:
		if a.Symbolic == nil || a.Symbolic.Tag == "" {
			return gtkerr.Fault{Code: "GTK/STATE/ACTION_MALFORMED", Detail: "symbolic action missing tag"}
		}
	default:
		return gtkerr.Fault{Code: "GTK/STATE/ACTION_MALFORMED", Detail: fmt.Sprintf("unknown action kind %q", a.Kind)}
	}
	return nil
}

// ShapeMatchesGrid reports whether a grid action's delta arrays are
// dimensioned identically to the given grid.
func (a Action) ShapeMatchesGrid(n, m int) bool {
	if a.Kind != ActionKindGrid || a.Grid == nil {
		return false
	}
	g := a.Grid
	if len(g.DRho) != n || len(g.DTheta) != n {
		return false
	}
	for i := 0; i < n; i++ {
		if len(g.DRho[i]) != m || len(g.DTheta[i]) != m {
			return false
		}
	}
	if g.U != nil {
		if len(g.U) != n {
			return false
		}
		for i := 0; i < n; i++ {
			if len(g.U[i]) != m {
				return false
			}
		}
	}
	return true
}

// Canonical returns the canonical byte serialization of the action, used
// only for diagnostics/logging — the action itself is not part of the
// receipt's hashed fields per spec §3 ("receipt" tuple), and no receipt
// field carries it.
func (a Action) Canonical() ([]byte, error) {
	kv := canonicalize.NewKV()
	if err := kv.Set("kind", string(a.Kind)); err != nil {
		return nil, err
	}
	switch a.Kind {
	case ActionKindGrid:
		if err := kv.Set("d_rho", toRows(a.Grid.DRho)); err != nil {
			return nil, err
		}
		if err := kv.Set("d_theta", toRows(a.Grid.DTheta)); err != nil {
			return nil, err
		}
		if a.Grid.U != nil {
			if err := kv.Set("u", toRows(a.Grid.U)); err != nil {
				return nil, err
			}
		}
	case ActionKindSymbolic:
		if err := kv.Set("tag", a.Symbolic.Tag); err != nil {
			return nil, err
		}
		if a.Symbolic.Payload != nil {
			if err := kv.Set("payload", a.Symbolic.Payload); err != nil {
				return nil, err
			}
		}
	}
	return canonicalize.Canonical(kv.Map())
}
