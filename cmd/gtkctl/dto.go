package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mindburn-labs/gtk-core/pkg/gtkstate"
	"github.com/mindburn-labs/gtk-core/pkg/hashing"
)

func parseHexOrZero(s string) (hashing.Digest, error) {
	if s == "" {
		return hashing.Zero(), nil
	}
	return hashing.DigestFromHex(s)
}

// gridStateFile is the on-disk JSON shape a host writes a GridState in. It
// deliberately doesn't reuse gtkstate.GridState's own json encoding (the
// kernel types carry no json tags — their wire format is the canonical
// serializer, not encoding/json) so a CLI input file stays decoupled from
// internal struct layout.
type gridStateFile struct {
	N      int       `json:"n"`
	M      int       `json:"m"`
	Rho    [][]int64 `json:"rho"`
	Theta  [][]int64 `json:"theta"`
	C      [][]int64 `json:"c"`
	Budget int64     `json:"budget"`
}

func gridStateFromFile(f gridStateFile) *gtkstate.GridState {
	s := gtkstate.NewGridState(f.N, f.M, f.Budget)
	if f.Rho != nil {
		s.Rho = f.Rho
	}
	if f.Theta != nil {
		s.Theta = f.Theta
	}
	if f.C != nil {
		s.C = f.C
	}
	return s
}

func loadGridState(path string) (*gtkstate.GridState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading state file %q: %w", path, err)
	}
	var f gridStateFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing state file %q: %w", path, err)
	}
	return gridStateFromFile(f), nil
}

// actionFile is a single entry in an action log: either a grid delta
// (d_rho/d_theta/u) or a symbolic action (tag/payload), matching
// gtkstate.Action's tagged-union shape.
type actionFile struct {
	Kind    string                 `json:"kind"`
	DRho    [][]int64              `json:"d_rho,omitempty"`
	DTheta  [][]int64              `json:"d_theta,omitempty"`
	U       [][]int64              `json:"u,omitempty"`
	Tag     string                 `json:"tag,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

func loadActions(path string) ([]gtkstate.Action, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading action log %q: %w", path, err)
	}
	var entries []actionFile
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing action log %q: %w", path, err)
	}
	actions := make([]gtkstate.Action, 0, len(entries))
	for i, e := range entries {
		switch e.Kind {
		case "GRID", "":
			actions = append(actions, gtkstate.NewGridDelta(e.DRho, e.DTheta, e.U))
		case "SYMBOLIC":
			actions = append(actions, gtkstate.NewSymbolicAction(e.Tag, e.Payload))
		default:
			return nil, fmt.Errorf("action log %q entry %d: unknown kind %q", path, i, e.Kind)
		}
	}
	return actions, nil
}

// receiptView is the human/machine-readable projection of a gtkstate.Receipt
// printed by verify/replay/inspect — hex digests instead of raw byte
// arrays, the reject code always present (even when empty) for stable
// field presence across accepted and rejected steps.
type receiptView struct {
	Variant       string `json:"variant"`
	Version       string `json:"version"`
	PrevStateHash string `json:"prev_state_hash"`
	NextStateHash string `json:"next_state_hash"`
	RiskBefore    int64  `json:"risk_before"`
	RiskAfter     int64  `json:"risk_after"`
	RiskDeltaPlus int64  `json:"risk_delta_plus"`
	BudgetBefore  int64  `json:"budget_before"`
	BudgetAfter   int64  `json:"budget_after"`
	BudgetDelta   int64  `json:"budget_delta"`
	Kappa         int64  `json:"kappa"`
	Projected     bool   `json:"projected"`
	RejectCode    string `json:"reject_code"`
	ParamsVersion string `json:"params_version,omitempty"`
	PrevReceiptID string `json:"prev_receipt_id"`
	ReceiptID     string `json:"receipt_id"`
	ChainPrev     string `json:"chain_prev"`
	ChainNext     string `json:"chain_next"`
}

func toReceiptView(r gtkstate.Receipt) receiptView {
	return receiptView{
		Variant:       string(r.Variant),
		Version:       r.Version,
		PrevStateHash: r.PrevStateHash.Hex(),
		NextStateHash: r.NextStateHash.Hex(),
		RiskBefore:    r.RiskBefore,
		RiskAfter:     r.RiskAfter,
		RiskDeltaPlus: r.RiskDeltaPlus,
		BudgetBefore:  r.BudgetBefore,
		BudgetAfter:   r.BudgetAfter,
		BudgetDelta:   r.BudgetDelta,
		Kappa:         r.Kappa,
		Projected:     r.Projected,
		RejectCode:    string(r.RejectCode),
		ParamsVersion: r.ParamsVersion,
		PrevReceiptID: r.PrevReceiptID,
		ReceiptID:     r.ReceiptID,
		ChainPrev:     r.ChainPrev.Hex(),
		ChainNext:     r.ChainNext.Hex(),
	}
}

func loadReceipts(path string) ([]gtkstate.Receipt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading receipt log %q: %w", path, err)
	}
	var views []receiptView
	if err := json.Unmarshal(data, &views); err != nil {
		return nil, fmt.Errorf("parsing receipt log %q: %w", path, err)
	}
	out := make([]gtkstate.Receipt, len(views))
	for i, v := range views {
		r, err := fromReceiptView(v)
		if err != nil {
			return nil, fmt.Errorf("receipt log %q entry %d: %w", path, i, err)
		}
		out[i] = r
	}
	return out, nil
}

func fromReceiptView(v receiptView) (gtkstate.Receipt, error) {
	prevHash, err := parseHexOrZero(v.PrevStateHash)
	if err != nil {
		return gtkstate.Receipt{}, err
	}
	nextHash, err := parseHexOrZero(v.NextStateHash)
	if err != nil {
		return gtkstate.Receipt{}, err
	}
	chainPrev, err := parseHexOrZero(v.ChainPrev)
	if err != nil {
		return gtkstate.Receipt{}, err
	}
	chainNext, err := parseHexOrZero(v.ChainNext)
	if err != nil {
		return gtkstate.Receipt{}, err
	}
	variant := gtkstate.VariantMinimal
	if v.Variant == string(gtkstate.VariantRich) {
		variant = gtkstate.VariantRich
	}
	return gtkstate.Receipt{
		Variant:       variant,
		Version:       v.Version,
		PrevStateHash: prevHash,
		NextStateHash: nextHash,
		RiskBefore:    v.RiskBefore,
		RiskAfter:     v.RiskAfter,
		RiskDeltaPlus: v.RiskDeltaPlus,
		BudgetBefore:  v.BudgetBefore,
		BudgetAfter:   v.BudgetAfter,
		BudgetDelta:   v.BudgetDelta,
		Kappa:         v.Kappa,
		Projected:     v.Projected,
		RejectCode:    gtkstate.RejectCode(v.RejectCode),
		ParamsVersion: v.ParamsVersion,
		PrevReceiptID: v.PrevReceiptID,
		ReceiptID:     v.ReceiptID,
		ChainPrev:     chainPrev,
		ChainNext:     chainNext,
	}, nil
}
