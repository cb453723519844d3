// Package actionpolicy is an optional CEL pre-filter hosts may run on a
// proposed action before it ever reaches pkg/step, grounded on the
// teacher's pkg/kernel/celdp CELDPEvaluator. It is never part of the
// kernel's own law: step and verifier never import this package, and a
// chain's receipts never record whether a pre-filter ran. This is purely a
// host convenience for rejecting obviously-malformed symbolic actions
// before spending a step on them.
package actionpolicy

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/mindburn-labs/gtk-core/pkg/gtkstate"
)

// Filter evaluates a single CEL boolean expression against a symbolic
// action's tag and payload. The expression sees one variable, `action`, a
// map with "tag" (string) and "payload" (map[string]dyn) keys.
type Filter struct {
	env  *cel.Env
	expr string
	prg  cel.Program
}

// NewFilter compiles expr once; Allow then evaluates the compiled program
// per call, the way CELDPEvaluator separates Validate/Compile/Program from
// per-input Eval.
func NewFilter(expr string) (*Filter, error) {
	env, err := cel.NewEnv(
		cel.Variable("action", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("actionpolicy: building CEL env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("actionpolicy: compiling %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("actionpolicy: building program for %q: %w", expr, err)
	}
	return &Filter{env: env, expr: expr, prg: prg}, nil
}

// Allow evaluates the compiled expression against a symbolic action,
// returning false when the expression evaluates to false or errors at
// runtime (a CEL runtime error fails closed, the same direction as the
// teacher's HELM/CORE/CEL_DP/RUNTIME_ERROR path).
func (f *Filter) Allow(a gtkstate.Action) (bool, error) {
	if a.Kind != gtkstate.ActionKindSymbolic || a.Symbolic == nil {
		return true, nil
	}
	input := map[string]interface{}{
		"tag":     a.Symbolic.Tag,
		"payload": a.Symbolic.Payload,
	}
	val, _, err := f.prg.Eval(map[string]interface{}{"action": input})
	if err != nil {
		return false, fmt.Errorf("actionpolicy: evaluating %q: %w", f.expr, err)
	}
	allowed, ok := val.Value().(bool)
	if !ok {
		return false, fmt.Errorf("actionpolicy: expression %q did not evaluate to a bool", f.expr)
	}
	return allowed, nil
}
