// Package replay threads the GMI step function over an ordered action
// sequence and reports the first point of divergence, grounded on the
// teacher's pkg/replay/engine.go Session/SessionStatus model — reconstructing
// execution from a trail of receipts, generalized here from "replay
// recorded events against an EventSource" to "replay recorded actions
// against a chain of governed-transition receipts".
package replay

import (
	"github.com/google/uuid"

	"github.com/mindburn-labs/gtk-core/pkg/gtkstate"
	"github.com/mindburn-labs/gtk-core/pkg/hashing"
	"github.com/mindburn-labs/gtk-core/pkg/params"
	"github.com/mindburn-labs/gtk-core/pkg/step"
)

// Status mirrors the teacher's SessionStatus lifecycle, narrowed to the
// three terminal states a pure chain replay can reach.
type Status string

const (
	StatusComplete  Status = "COMPLETE"
	StatusDiverged  Status = "DIVERGED"
	StatusFailed    Status = "FAILED"
)

// Report is the outcome of replaying an action sequence: the final state,
// the final chain tip, every receipt produced, and — on divergence — the
// index of the first action whose recomputed receipt disagreed with the
// one supplied for comparison.
//
// SessionID is a host-facing tracking label only: it is assigned fresh on
// every call, never fed into a canonical form, a hash, or receiptsEqual, so
// two independent replays of the same inputs still produce byte-identical
// receipts and Status/DivergenceIndex — only SessionID differs between
// runs, the way a log-correlation ID differs without the logged facts
// differing.
type Report struct {
	SessionID       string
	Status          Status
	FinalState      *gtkstate.GridState
	FinalChain      hashing.Digest
	Receipts        []gtkstate.Receipt
	DivergenceIndex int // -1 unless Status == StatusDiverged
	Detail          string
}

// Replay threads Step over actions starting from (state0, chain0), the
// genesis receipt id, and a fixed params instance. It is pure: no I/O, no
// clock, no mutable package state, matching spec §4.6's single-step
// contract lifted to a sequence.
func Replay(state0 *gtkstate.GridState, chain0 hashing.Digest, actions []gtkstate.Action, p params.Params) (Report, error) {
	sessionID := uuid.NewString()
	state := state0
	chain := chain0
	prevReceiptID := p.GenesisReceiptID
	receipts := make([]gtkstate.Receipt, 0, len(actions))

	for _, a := range actions {
		res, err := step.Step(state, a, chain, prevReceiptID, p)
		if err != nil {
			return Report{}, err
		}
		receipts = append(receipts, res.Receipt)
		state = res.State
		chain = res.Receipt.ChainNext
		prevReceiptID = res.Receipt.ReceiptID
	}

	return Report{
		SessionID:       sessionID,
		Status:          StatusComplete,
		FinalState:      state,
		FinalChain:      chain,
		Receipts:        receipts,
		DivergenceIndex: -1,
	}, nil
}

// VerifyAgainst replays actions from the same starting point and compares
// every recomputed receipt against the corresponding entry in want,
// reporting the first index where they disagree. This is the audit-grade
// counterpart to Replay: Replay produces a fresh trail; VerifyAgainst checks
// a claimed one.
func VerifyAgainst(state0 *gtkstate.GridState, chain0 hashing.Digest, actions []gtkstate.Action, want []gtkstate.Receipt, p params.Params) (Report, error) {
	sessionID := uuid.NewString()
	state := state0
	chain := chain0
	prevReceiptID := p.GenesisReceiptID
	got := make([]gtkstate.Receipt, 0, len(actions))

	for i, a := range actions {
		res, err := step.Step(state, a, chain, prevReceiptID, p)
		if err != nil {
			return Report{}, err
		}
		got = append(got, res.Receipt)

		if i >= len(want) {
			return Report{
				SessionID:       sessionID,
				Status:          StatusDiverged,
				FinalState:      state,
				FinalChain:      chain,
				Receipts:        got,
				DivergenceIndex: i,
				Detail:          "claimed receipt trail is shorter than the action sequence",
			}, nil
		}
		if !receiptsEqual(res.Receipt, want[i]) {
			return Report{
				SessionID:       sessionID,
				Status:          StatusDiverged,
				FinalState:      state,
				FinalChain:      chain,
				Receipts:        got,
				DivergenceIndex: i,
				Detail:          "recomputed receipt does not match the claimed receipt at this index",
			}, nil
		}

		state = res.State
		chain = res.Receipt.ChainNext
		prevReceiptID = res.Receipt.ReceiptID
	}

	return Report{
		SessionID:       sessionID,
		Status:          StatusComplete,
		FinalState:      state,
		FinalChain:      chain,
		Receipts:        got,
		DivergenceIndex: -1,
	}, nil
}

func receiptsEqual(a, b gtkstate.Receipt) bool {
	ca, errA := a.Canonical()
	cb, errB := b.Canonical()
	if errA != nil || errB != nil {
		return false
	}
	if len(ca) != len(cb) {
		return false
	}
	for i := range ca {
		if ca[i] != cb[i] {
			return false
		}
	}
	return true
}
