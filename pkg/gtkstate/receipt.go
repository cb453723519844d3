package gtkstate

import (
	"github.com/mindburn-labs/gtk-core/pkg/canonicalize"
	"github.com/mindburn-labs/gtk-core/pkg/hashing"
)

// ReceiptVariant distinguishes the two receipt shapes spec §9 ("Design
// Notes") requires the verifier to accept: a wire-compact Minimal receipt
// and a Rich receipt carrying the full projection witness and the
// params_version that pins the chain to one configuration. Both share the
// same canonicalization — there is no dynamic dispatch, only a field-set
// difference gated by this tag.
type ReceiptVariant string

const (
	VariantMinimal ReceiptVariant = "MINIMAL"
	VariantRich    ReceiptVariant = "RICH"
)

// RejectCode enumerates the wire-contract rejection codes of spec §6.
type RejectCode string

const (
	RejectNone                      RejectCode = ""
	RejectInvalidActionType         RejectCode = "INVALID_ACTION_TYPE"
	RejectInvalidStateSerialization RejectCode = "INVALID_STATE_SERIALIZATION"
	RejectStateHashMismatch         RejectCode = "STATE_HASH_MISMATCH"
	RejectInvalidReceiptHash        RejectCode = "INVALID_RECEIPT_HASH"
	RejectRiskMismatch              RejectCode = "RISK_MISMATCH"
	RejectBudgetViolation           RejectCode = "BUDGET_VIOLATION"
	RejectInsufficientBudget        RejectCode = "INSUFFICIENT_BUDGET"
	RejectNegativeBudget            RejectCode = "NEGATIVE_BUDGET"
	RejectInvalidChainLink          RejectCode = "INVALID_CHAIN_LINK"
	RejectGenesisRequired           RejectCode = "GENESIS_REQUIRED"
	RejectChainTooShort             RejectCode = "CHAIN_TOO_SHORT"
	RejectViolationIncrease         RejectCode = "VIOLATION_INCREASE" // GMI
	RejectAbsorbB0DVPos             RejectCode = "ABSORB_B0_DV_POS"   // GMI
	RejectUnknownError              RejectCode = "UNKNOWN_ERROR"
)

// ReceiptVersion is the wire-format version identifier this module emits.
const ReceiptVersion = "gtk-receipt-v1"

// Receipt is the tuple of spec §3. All Q-valued fields are stored as raw
// numerators (numeric.Q.Raw()); the field's Domain is implied by which
// kernel instance (ATS or GMI) produced it and is not itself part of the
// receipt (two chains never mix domains).
type Receipt struct {
	Variant ReceiptVariant
	Version string

	PrevStateHash hashing.Digest
	NextStateHash hashing.Digest

	RiskBefore    int64
	RiskAfter     int64
	RiskDeltaPlus int64

	BudgetBefore int64
	BudgetAfter  int64
	BudgetDelta  int64

	Kappa int64

	Projected bool
	Witness   *Witness // only serialized when Variant == VariantRich

	RejectCode RejectCode

	ParamsVersion string // only serialized when Variant == VariantRich

	PrevReceiptID string
	ReceiptID     string
	ChainPrev     hashing.Digest
	ChainNext     hashing.Digest
}

// Minimal returns a copy of r with the Rich-only fields (Witness,
// ParamsVersion) dropped, for wire-compact logs.
func (r Receipt) Minimal() Receipt {
	r.Variant = VariantMinimal
	r.Witness = nil
	r.ParamsVersion = ""
	return r
}

// fields returns the canonical field list shared by both variants — every
// field the verifier's hash recomputation in spec §4.7 step 5 depends on.
func (r Receipt) fields() ([]struct {
	k string
	v interface{}
}, error) {
	f := []struct {
		k string
		v interface{}
	}{
		{"version", r.Version},
		{"prev_state_hash", r.PrevStateHash.Hex()},
		{"next_state_hash", r.NextStateHash.Hex()},
		{"risk_before", r.RiskBefore},
		{"risk_after", r.RiskAfter},
		{"risk_delta_plus", r.RiskDeltaPlus},
		{"budget_before", r.BudgetBefore},
		{"budget_after", r.BudgetAfter},
		{"budget_delta", r.BudgetDelta},
		{"kappa", r.Kappa},
		{"projected", r.Projected},
		{"reject_code", string(r.RejectCode)},
		{"prev_receipt_id", r.PrevReceiptID},
		{"chain_prev", r.ChainPrev.Hex()},
	}
	if r.Variant == VariantRich {
		f = append(f,
			struct {
				k string
				v interface{}
			}{"witness", r.Witness.AsValue()},
			struct {
				k string
				v interface{}
			}{"params_version", r.ParamsVersion},
		)
	}
	return f, nil
}

// CanonicalForHash returns the canonical bytes of every field known before
// receipt_id and chain_next are computed — this is what H_receipt hashes
// (receipt_id cannot hash itself). H_chain hashes CanonicalWithReceiptID.
func (r Receipt) CanonicalForHash() ([]byte, error) {
	fields, err := r.fields()
	if err != nil {
		return nil, err
	}
	kv := canonicalize.NewKV()
	for _, f := range fields {
		if err := kv.Set(f.k, f.v); err != nil {
			return nil, err
		}
	}
	return canonicalize.Canonical(kv.Map())
}

// CanonicalWithReceiptID returns the canonical bytes of every field known
// once receipt_id has been computed but before chain_next exists — this is
// exactly what H_chain hashes to produce chain_next (spec §4.2,
// "chain_next = H_chain(chain_prev ‖ canonical(receipt))"): chain_next
// cannot be an input to its own hash, so it is never part of these bytes.
func (r Receipt) CanonicalWithReceiptID() ([]byte, error) {
	fields, err := r.fields()
	if err != nil {
		return nil, err
	}
	kv := canonicalize.NewKV()
	for _, f := range fields {
		if err := kv.Set(f.k, f.v); err != nil {
			return nil, err
		}
	}
	if err := kv.Set("receipt_id", r.ReceiptID); err != nil {
		return nil, err
	}
	return canonicalize.Canonical(kv.Map())
}

// Canonical returns the full canonical serialization including the
// self-referential receipt_id and chain_next fields, for wire transport
// and storage (spec §6, "Receipt wire format").
func (r Receipt) Canonical() ([]byte, error) {
	fields, err := r.fields()
	if err != nil {
		return nil, err
	}
	kv := canonicalize.NewKV()
	for _, f := range fields {
		if err := kv.Set(f.k, f.v); err != nil {
			return nil, err
		}
	}
	if err := kv.Set("receipt_id", r.ReceiptID); err != nil {
		return nil, err
	}
	if err := kv.Set("chain_next", r.ChainNext.Hex()); err != nil {
		return nil, err
	}
	return canonicalize.Canonical(kv.Map())
}
