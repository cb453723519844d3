// Package hashing provides the domain-separated hasher the kernel uses to
// derive state, receipt, and chain digests. Per spec §4.2:
//
//	H_tag(payload) := digest(tag ‖ 0x00 ‖ payload)
//
// where digest is SHA-256. Distinct tags keep the state, chain, and receipt
// hash spaces disjoint even when the same canonical bytes are hashed under
// two tags — the pattern is lifted directly from the teacher's
// pkg/merkle/tree.go leaf/node tag scheme ("helm:evidence:leaf:v1" /
// "helm:evidence:node:v1").
package hashing

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/mindburn-labs/gtk-core/pkg/gtkerr"
)

// Tags are the kernel's three disjoint hash domains.
const (
	TagState   = "gtk:state:v1"
	TagReceipt = "gtk:receipt:v1"
	TagChain   = "gtk:chain:v1"
)

// Digest is a 32-byte SHA-256 output.
type Digest [32]byte

// Zero is the genesis chain tip: 32 zero bytes, per spec §3 "Lifecycle".
func Zero() Digest { return Digest{} }

// Hex renders the digest as lowercase hex, the wire format per spec §6.
func (d Digest) Hex() string { return hex.EncodeToString(d[:]) }

// DigestFromHex parses a lowercase-hex digest, failing closed on malformed
// input (a verifier must never silently accept a truncated or garbled hash).
func DigestFromHex(s string) (Digest, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, Fault{Code: "GTK/HASH/INVALID_HEX", Detail: err.Error()}
	}
	if len(b) != 32 {
		return Digest{}, Fault{Code: "GTK/HASH/INVALID_LENGTH", Detail: "digest must be 32 bytes"}
	}
	var d Digest
	copy(d[:], b)
	return d, nil
}

// Fault is a typed, non-rejection invariant violation (spec §7), aliased
// onto gtkerr.Fault so every package's faults classify and project
// identically at a host boundary.
type Fault = gtkerr.Fault

// H computes digest(tag ‖ 0x00 ‖ payload).
func H(tag string, payload []byte) Digest {
	h := sha256.New()
	h.Write([]byte(tag))
	h.Write([]byte{0x00})
	h.Write(payload)
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// HState computes the state digest H_state(canonical(state)).
func HState(canonicalState []byte) Digest { return H(TagState, canonicalState) }

// HReceipt computes the full receipt digest H_receipt(canonical(receipt)).
func HReceipt(canonicalReceipt []byte) Digest { return H(TagReceipt, canonicalReceipt) }

// FirstK returns the first k bytes of d, hex-encoded, for use as a
// compact receipt_id. k is a configured parameter (spec §6, "Open
// Questions": k=8 for short ids, or the full 32 bytes for k=32).
func FirstK(d Digest, k int) string {
	if k <= 0 || k > len(d) {
		k = len(d)
	}
	return hex.EncodeToString(d[:k])
}

// ChainNext computes chain_next = H_chain(chain_prev ‖ canonical(receipt)).
func ChainNext(chainPrev Digest, canonicalReceipt []byte) Digest {
	h := sha256.New()
	h.Write([]byte(TagChain))
	h.Write([]byte{0x00})
	h.Write(chainPrev[:])
	h.Write(canonicalReceipt)
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
