// Package params holds the kernel's immutable configuration. Per the
// teacher's convention for long-lived config structs (pkg/kernel/cybernetics.go
// EssentialVariable/OperationalMode, pkg/budget RiskBudget), Params is built
// once by the host and passed by value/pointer into every pure kernel call —
// there is no package-level mutable configuration anywhere in this module
// (spec §9, "Global default verifier and bridge singletons").
package params

import (
	"fmt"

	"github.com/mindburn-labs/gtk-core/pkg/canonicalize"
	"github.com/mindburn-labs/gtk-core/pkg/hashing"
	"github.com/mindburn-labs/gtk-core/pkg/numeric"
)

// Params collects every recognized kernel option from spec §6. The yaml
// tags let cmd/gtkctl load a Params straight out of a host config file.
type Params struct {
	NumericScale   int              `json:"numeric_scale" yaml:"numeric_scale"`
	NumericCeiling int64            `json:"numeric_ceiling" yaml:"numeric_ceiling"`
	RiskWeights    map[string]int64 `json:"risk_weights" yaml:"risk_weights"` // raw Q numerators, must sum to ONE
	Kappa          int64            `json:"kappa" yaml:"kappa"`              // raw Q numerator

	RhoMax int64 `json:"rho_max" yaml:"rho_max"` // raw Q numerator

	AlphaTau int64 `json:"alpha_tau" yaml:"alpha_tau"`
	BetaC    int64 `json:"beta_c" yaml:"beta_c"`
	DC       int64 `json:"d_c" yaml:"d_c"`
	LambdaC  int64 `json:"lambda_c" yaml:"lambda_c"`

	WGradTheta     int64 `json:"w_grad_theta_q" yaml:"w_grad_theta_q"`
	WC             int64 `json:"w_c_q" yaml:"w_c_q"`
	WBudgetBarrier int64 `json:"w_budget_barrier_q" yaml:"w_budget_barrier_q"`
	BudgetMin      int64 `json:"budget_min_q" yaml:"budget_min_q"`

	AbsorbOnB0         bool  `json:"absorb_on_b0" yaml:"absorb_on_b0"`
	BudgetSpendPerStep int64 `json:"budget_spend_per_step" yaml:"budget_spend_per_step"`

	HashTagState   string `json:"hash_tag_state" yaml:"hash_tag_state"`
	HashTagChain   string `json:"hash_tag_chain" yaml:"hash_tag_chain"`
	HashTagReceipt string `json:"hash_tag_receipt" yaml:"hash_tag_receipt"`

	GenesisReceiptID string `json:"genesis_receipt_id" yaml:"genesis_receipt_id"`
	ReceiptIDBytes   int    `json:"receipt_id_bytes" yaml:"receipt_id_bytes"` // k in first_k(H_receipt(...))
}

// DefaultGMIParams returns a parameter set suitable for the grid (GMI)
// kernel: 6-decimal scale, ceiling 10000, the curvature constants from
// spec §4.6 set to conservative defaults.
func DefaultGMIParams() Params {
	d := numeric.GMIDomain()
	one, _ := numeric.FromInt(1, d)
	return Params{
		NumericScale:       d.Digits,
		NumericCeiling:     10000,
		Kappa:              one.Raw(),
		RhoMax:             mustInt(d, 1000),
		AlphaTau:           mustInt(d, 1) / 10,
		BetaC:              mustInt(d, 1) / 100,
		DC:                 mustInt(d, 1) / 100,
		LambdaC:            mustInt(d, 1) / 100,
		WGradTheta:         mustInt(d, 1),
		WC:                 mustInt(d, 1),
		WBudgetBarrier:     mustInt(d, 1),
		BudgetMin:          0,
		AbsorbOnB0:         true,
		BudgetSpendPerStep: 0,
		HashTagState:       hashing.TagState,
		HashTagChain:       hashing.TagChain,
		HashTagReceipt:     hashing.TagReceipt,
		GenesisReceiptID:   "00000000",
		ReceiptIDBytes:     8,
	}
}

// DefaultATSParams returns a parameter set for the cognitive (ATS) kernel:
// 18-decimal scale, risk weights split evenly across the five cognitive
// sub-states.
func DefaultATSParams() Params {
	d := numeric.ATSDomain()
	one, _ := numeric.FromInt(1, d)
	fifth := one.Raw() / 5
	remainder := one.Raw() - fifth*5
	weights := map[string]int64{
		"belief": fifth + remainder,
		"memory": fifth,
		"plan":   fifth,
		"policy": fifth,
		"io":     fifth,
	}
	return Params{
		NumericScale:       d.Digits,
		NumericCeiling:     10000,
		RiskWeights:        weights,
		Kappa:              one.Raw(),
		AbsorbOnB0:         true,
		BudgetSpendPerStep: 0,
		HashTagState:       hashing.TagState,
		HashTagChain:       hashing.TagChain,
		HashTagReceipt:     hashing.TagReceipt,
		GenesisReceiptID:   "00000000",
		ReceiptIDBytes:     8,
	}
}

func mustInt(d numeric.Domain, whole int64) int64 {
	q, ok := numeric.FromInt(whole, d)
	if !ok {
		panic("params: default constant saturated unexpectedly")
	}
	return q.Raw()
}

// Domain returns the numeric.Domain this Params instance operates in.
func (p Params) Domain() (numeric.Domain, error) {
	return numeric.NewDomain(p.NumericScale, p.NumericCeiling)
}

// Validate checks the recognized-option invariants spec §6 implies:
// risk weights (when present) must sum to exactly ONE, k must be positive,
// and the hash tags must be distinct so state/chain/receipt domains never
// collide.
func (p Params) Validate() error {
	if p.ReceiptIDBytes <= 0 {
		return fmt.Errorf("params: receipt_id_bytes must be positive, got %d", p.ReceiptIDBytes)
	}
	d, err := p.Domain()
	if err != nil {
		return fmt.Errorf("params: invalid numeric domain: %w", err)
	}
	if len(p.RiskWeights) > 0 {
		sum := int64(0)
		for _, w := range p.RiskWeights {
			if w < 0 {
				return fmt.Errorf("params: risk weight must be non-negative")
			}
			sum += w
		}
		one, _ := numeric.FromInt(1, d)
		if sum != one.Raw() {
			return fmt.Errorf("params: risk_weights must sum to ONE (%d), got %d", one.Raw(), sum)
		}
	}
	tags := map[string]bool{p.HashTagState: true}
	if tags[p.HashTagChain] {
		return fmt.Errorf("params: hash_tag_chain collides with hash_tag_state")
	}
	tags[p.HashTagChain] = true
	if tags[p.HashTagReceipt] {
		return fmt.Errorf("params: hash_tag_receipt collides with an existing tag")
	}
	return nil
}

// CanonicalHash returns the params_version digest: the canonical hash of
// this Params instance. Per spec §9 ("Open Questions"), curvature and other
// dynamics constants are chained — changing any field here changes
// params_version. The verifier does not compare params_version across
// receipts; it is carried as audit metadata.
func (p Params) CanonicalHash() (string, error) {
	kv := canonicalize.NewKV()
	fields := []struct {
		k string
		v interface{}
	}{
		{"numeric_scale", int64(p.NumericScale)},
		{"numeric_ceiling", p.NumericCeiling},
		{"kappa", p.Kappa},
		{"rho_max", p.RhoMax},
		{"alpha_tau", p.AlphaTau},
		{"beta_c", p.BetaC},
		{"d_c", p.DC},
		{"lambda_c", p.LambdaC},
		{"w_grad_theta_q", p.WGradTheta},
		{"w_c_q", p.WC},
		{"w_budget_barrier_q", p.WBudgetBarrier},
		{"budget_min_q", p.BudgetMin},
		{"absorb_on_b0", p.AbsorbOnB0},
		{"budget_spend_per_step", p.BudgetSpendPerStep},
		{"hash_tag_state", p.HashTagState},
		{"hash_tag_chain", p.HashTagChain},
		{"hash_tag_receipt", p.HashTagReceipt},
		{"genesis_receipt_id", p.GenesisReceiptID},
		{"receipt_id_bytes", int64(p.ReceiptIDBytes)},
	}
	for _, f := range fields {
		if err := kv.Set(f.k, f.v); err != nil {
			return "", err
		}
	}
	if len(p.RiskWeights) > 0 {
		rw := make(map[string]interface{}, len(p.RiskWeights))
		for k, v := range p.RiskWeights {
			rw[k] = v
		}
		if err := kv.Set("risk_weights", rw); err != nil {
			return "", err
		}
	}
	b, err := canonicalize.Canonical(kv.Map())
	if err != nil {
		return "", err
	}
	return hashing.H("gtk:params:v1", b).Hex(), nil
}
