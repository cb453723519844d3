package gtkstate

import (
	"sort"

	"github.com/mindburn-labs/gtk-core/pkg/canonicalize"
	"github.com/mindburn-labs/gtk-core/pkg/hashing"
)

// CognitiveState is the product X = X_belief × X_memory × X_plan ×
// X_policy × X_io of spec §3. Each sub-state is an ordered structured
// value: belief is a mapping from symbolic identifiers to Q-valued
// vectors, memory/plan are finite sequences, policy and io are raw byte
// payloads whose length participates in the risk functional.
type CognitiveState struct {
	Belief map[string][]int64 // identifier -> Q-vector (raw numerators)
	Memory []MemoryCell
	Plan   []PlanStep
	Policy []byte
	IO     []byte
}

// MemoryCell is one entry of the ordered memory sequence.
type MemoryCell struct {
	ID          string
	Initialized bool
	Content     []int64 // raw Q numerators
}

// PlanStep is one entry of the ordered plan sequence.
type PlanStep struct {
	Action string
	Params map[string]int64 // raw Q numerators
}

// NewCognitiveState returns an empty cognitive state.
func NewCognitiveState() *CognitiveState {
	return &CognitiveState{Belief: make(map[string][]int64)}
}

// Clone returns a deep copy.
func (s *CognitiveState) Clone() *CognitiveState {
	out := &CognitiveState{Belief: make(map[string][]int64, len(s.Belief))}
	for k, v := range s.Belief {
		cp := make([]int64, len(v))
		copy(cp, v)
		out.Belief[k] = cp
	}
	out.Memory = make([]MemoryCell, len(s.Memory))
	for i, m := range s.Memory {
		cp := make([]int64, len(m.Content))
		copy(cp, m.Content)
		out.Memory[i] = MemoryCell{ID: m.ID, Initialized: m.Initialized, Content: cp}
	}
	out.Plan = make([]PlanStep, len(s.Plan))
	for i, p := range s.Plan {
		params := make(map[string]int64, len(p.Params))
		for k, v := range p.Params {
			params[k] = v
		}
		out.Plan[i] = PlanStep{Action: p.Action, Params: params}
	}
	out.Policy = append([]byte(nil), s.Policy...)
	out.IO = append([]byte(nil), s.IO...)
	return out
}

// Canonical returns the canonical byte serialization of the cognitive
// state.
func (s *CognitiveState) Canonical() ([]byte, error) {
	kv := canonicalize.NewKV()

	beliefKeys := make([]string, 0, len(s.Belief))
	for k := range s.Belief {
		beliefKeys = append(beliefKeys, k)
	}
	sort.Strings(beliefKeys)
	belief := make(map[string]interface{}, len(beliefKeys))
	for _, k := range beliefKeys {
		belief[k] = toInts(s.Belief[k])
	}
	if err := kv.Set("belief", belief); err != nil {
		return nil, err
	}

	memory := make([]interface{}, len(s.Memory))
	for i, m := range s.Memory {
		memory[i] = map[string]interface{}{
			"id":          m.ID,
			"initialized": m.Initialized,
			"content":     toInts(m.Content),
		}
	}
	if err := kv.Set("memory", memory); err != nil {
		return nil, err
	}

	plan := make([]interface{}, len(s.Plan))
	for i, p := range s.Plan {
		keys := make([]string, 0, len(p.Params))
		for k := range p.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		params := make(map[string]interface{}, len(keys))
		for _, k := range keys {
			params[k] = p.Params[k]
		}
		plan[i] = map[string]interface{}{
			"action": p.Action,
			"params": params,
		}
	}
	if err := kv.Set("plan", plan); err != nil {
		return nil, err
	}

	if err := kv.Set("policy_len", int64(len(s.Policy))); err != nil {
		return nil, err
	}
	if err := kv.Set("policy_hash", hashing.H("gtk:policy:v1", s.Policy).Hex()); err != nil {
		return nil, err
	}
	if err := kv.Set("io_len", int64(len(s.IO))); err != nil {
		return nil, err
	}
	if err := kv.Set("io_hash", hashing.H("gtk:io:v1", s.IO).Hex()); err != nil {
		return nil, err
	}

	return canonicalize.Canonical(kv.Map())
}

// Hash returns H_state(canonical(state)).
func (s *CognitiveState) Hash() (hashing.Digest, error) {
	b, err := s.Canonical()
	if err != nil {
		return hashing.Digest{}, err
	}
	return hashing.HState(b), nil
}

func toInts(v []int64) []interface{} {
	out := make([]interface{}, len(v))
	for i, x := range v {
		out[i] = x
	}
	return out
}
