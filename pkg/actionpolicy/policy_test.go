package actionpolicy

import (
	"testing"

	"github.com/mindburn-labs/gtk-core/pkg/gtkstate"
)

func TestFilterAllowsGridActionsUnconditionally(t *testing.T) {
	f, err := NewFilter(`action.tag == "NOOP"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	grid := gtkstate.NewGridDelta(nil, nil, nil)
	allowed, err := f.Allow(grid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatal("expected grid actions to bypass the symbolic-only filter")
	}
}

func TestFilterAllowsMatchingTag(t *testing.T) {
	f, err := NewFilter(`action.tag == "NOOP"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	allowed, err := f.Allow(gtkstate.NewSymbolicAction(gtkstate.SymbolicTagNoop, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatal("expected NOOP to be allowed")
	}
}

func TestFilterRejectsNonMatchingTag(t *testing.T) {
	f, err := NewFilter(`action.tag == "NOOP"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	allowed, err := f.Allow(gtkstate.NewSymbolicAction(gtkstate.SymbolicTagCommit, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatal("expected COMMIT to be rejected by a NOOP-only filter")
	}
}

func TestNewFilterRejectsInvalidExpression(t *testing.T) {
	if _, err := NewFilter(`action.tag ===`); err == nil {
		t.Fatal("expected a compile error for malformed CEL")
	}
}
