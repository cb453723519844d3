package budget

import (
	"fmt"
	"sync"

	"github.com/mindburn-labs/gtk-core/pkg/gtkerr"
	"github.com/mindburn-labs/gtk-core/pkg/numeric"
)

// SpendDecision is the outcome of applying the spending law of spec §4.5 to
// one proposed risk delta.
type SpendDecision struct {
	Allowed bool
	After   numeric.Q
	// Required is kappa*delta when delta>0; zero otherwise. Surfaced so
	// callers can report INSUFFICIENT_BUDGET with the shortfall.
	Required numeric.Q
}

// Spend applies the budget manager's spending law: delta<=0 always passes
// with the budget unchanged; delta>0 requires kappa*delta <= before, else
// Insufficient (Allowed=false). This function is pure — no clock, no
// hidden state — per spec §4.5 ("given (b_before, kappa, delta)").
func Spend(before, kappa, delta numeric.Q, d numeric.Domain) (SpendDecision, error) {
	if delta.IsZero() || delta.Cmp(numeric.Zero()) < 0 {
		return SpendDecision{Allowed: true, After: before}, nil
	}
	required, sat := kappa.Mul(delta, d)
	if sat.Saturated {
		return SpendDecision{Allowed: false, Required: required}, nil
	}
	if before.Cmp(required) < 0 {
		return SpendDecision{Allowed: false, Required: required}, nil
	}
	after, _ := before.Sub(required)
	return SpendDecision{Allowed: true, After: after, Required: required}, nil
}

// Manager tracks a per-chain budget and total_consumed diagnostic, mirroring
// the teacher's per-tenant map+mutex discipline in RiskEnforcer: the kernel
// is single-threaded per chain, but disjoint chains may run concurrently
// against a shared Manager, so every method is guarded (spec §4.6, "The
// kernel is single-threaded-per-chain; concurrency across disjoint chains is
// trivially allowed").
type Manager struct {
	mu      sync.Mutex
	budgets map[string]numeric.Q
	// consumed is a diagnostic-only running total of every accepted positive
	// spend, per spec §4.5 ("tracks total_consumed purely for diagnostics;
	// it is not part of the receipt chain").
	consumed map[string]numeric.Q
}

// NewManager returns an empty budget manager.
func NewManager() *Manager {
	return &Manager{
		budgets:  make(map[string]numeric.Q),
		consumed: make(map[string]numeric.Q),
	}
}

// Open sets the initial budget for a chain. Calling Open twice on the same
// chain ID resets it — callers that want append-only semantics must check
// Balance first.
func (m *Manager) Open(chainID string, initial numeric.Q) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgets[chainID] = initial
	m.consumed[chainID] = numeric.Zero()
}

// Balance returns the current budget for a chain. Fails closed: an unknown
// chain reports zero balance rather than an error, matching spec §4.5's
// silence on unopened chains — callers are expected to Open before Spend.
func (m *Manager) Balance(chainID string) numeric.Q {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.budgets[chainID]
}

// TotalConsumed returns the diagnostic running total of accepted positive
// spends for a chain. Never part of a receipt (spec §4.5).
func (m *Manager) TotalConsumed(chainID string) numeric.Q {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consumed[chainID]
}

// Advance applies Spend against the chain's tracked budget and, if allowed,
// commits the new balance and updates the diagnostic counter. Returns an
// error only on an unopened chain — a fail-closed caller should treat that
// the same as Insufficient.
func (m *Manager) Advance(chainID string, kappa, delta numeric.Q, d numeric.Domain) (SpendDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before, ok := m.budgets[chainID]
	if !ok {
		return SpendDecision{}, gtkerr.Fault{Code: "GTK/BUDGET/CHAIN_NOT_OPENED", Detail: fmt.Sprintf("chain %q was never opened", chainID)}
	}
	dec, err := Spend(before, kappa, delta, d)
	if err != nil {
		return SpendDecision{}, err
	}
	if dec.Allowed {
		m.budgets[chainID] = dec.After
		if delta.Cmp(numeric.Zero()) > 0 {
			sum, _ := m.consumed[chainID].Add(dec.Required, d)
			m.consumed[chainID] = sum
		}
	}
	return dec, nil
}
