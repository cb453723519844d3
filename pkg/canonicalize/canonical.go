// Canonical serialization for the governed transition kernel, layered on
// top of github.com/gowebpki/jcs's RFC 8785 (JSON Canonicalization Scheme)
// transform. Per spec §4.2: canonical(x) == canonical(y) iff x and y are
// equal as abstract values; mapping keys sort lexicographically, duplicate
// keys are rejected, numbers are integers only, strings are UTF-8, and
// separators are minimal. JCS already gives us sorted keys and minimal
// separators; this file adds the integer-only constraint, duplicate-key
// rejection, and NFC string normalization the kernel's receipt and state
// hashing require before handing the value to JCS.
package canonicalize

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"unicode/utf8"

	"github.com/gowebpki/jcs"
	"golang.org/x/text/unicode/norm"
)

// RealNumberFault is returned when Canonical encounters a floating-point
// value. The kernel has no conversion path from real to Q (spec §9); the
// only way a Q enters canonical form is via its integer Raw() representation.
type RealNumberFault struct {
	Path string
}

func (e RealNumberFault) Error() string {
	return fmt.Sprintf("canonicalize: real-valued input at %q is not representable in the integer-only canonical domain", e.Path)
}

// DuplicateKeyFault is returned when an ordered key/value source (KV,
// below) supplies the same key twice. Go's map[string]any cannot itself
// carry duplicate keys, so this only fires for the KV builder used to
// assemble receipts field-by-field.
type DuplicateKeyFault struct {
	Key string
}

func (e DuplicateKeyFault) Error() string {
	return fmt.Sprintf("canonicalize: duplicate key %q", e.Key)
}

// InvalidKeyFault is returned when a mapping key is not a UTF-8 string.
type InvalidKeyFault struct {
	Path string
}

func (e InvalidKeyFault) Error() string {
	return fmt.Sprintf("canonicalize: non-string key at %q", e.Path)
}

// KV is an explicit, order-preserving field list used to build receipts and
// states without going through map[string]any (whose Go iteration order is
// randomized and therefore useless for hand-built canonical payloads; JCS
// handles ordering at serialization time, but KV catches duplicate keys
// before they reach it).
type KV struct {
	keys   []string
	values []interface{}
	seen   map[string]bool
}

// NewKV creates an empty field list.
func NewKV() *KV {
	return &KV{seen: make(map[string]bool)}
}

// Set appends a field, returning a DuplicateKeyFault if key was already set.
func (kv *KV) Set(key string, value interface{}) error {
	if kv.seen[key] {
		return DuplicateKeyFault{Key: key}
	}
	kv.seen[key] = true
	kv.keys = append(kv.keys, key)
	kv.values = append(kv.values, value)
	return nil
}

// Map materializes the field list as a map[string]interface{} for handoff
// to Canonical. Key order is irrelevant beyond this point: Canonical always
// re-sorts.
func (kv *KV) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(kv.keys))
	for i, k := range kv.keys {
		m[k] = kv.values[i]
	}
	return m
}

// Canonical returns the canonical byte serialization of v, enforcing the
// integer-only and UTF-8 rules of spec §4.2, then delegating to
// gowebpki/jcs.Transform for RFC 8785 key sorting and minimal-separator
// formatting.
func Canonical(v interface{}) ([]byte, error) {
	checked, err := checkAndNormalize(v, "$")
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(checked)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: pre-marshal failed: %w", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: jcs transform failed: %w", err)
	}
	return out, nil
}

// CanonicalString is Canonical rendered as a string.
func CanonicalString(v interface{}) (string, error) {
	b, err := Canonical(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// checkAndNormalize walks v, rejecting floats and non-string keys and
// NFC-normalizing string content, returning a value safe to hand to JCS.
func checkAndNormalize(v interface{}, path string) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return norm.NFC.String(t), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return t, nil
	case float32, float64:
		return nil, RealNumberFault{Path: path}
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			c, err := checkAndNormalize(e, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			if !utf8.ValidString(k) {
				return nil, InvalidKeyFault{Path: path + "." + k}
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]interface{}, len(t))
		for _, k := range keys {
			c, err := checkAndNormalize(t[k], path+"."+k)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			return nil, RealNumberFault{Path: path}
		case reflect.Map:
			generic := make(map[string]interface{}, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				k := iter.Key()
				if k.Kind() != reflect.String {
					return nil, InvalidKeyFault{Path: path}
				}
				generic[k.String()] = iter.Value().Interface()
			}
			return checkAndNormalize(generic, path)
		case reflect.Slice, reflect.Array:
			out := make([]interface{}, rv.Len())
			for i := 0; i < rv.Len(); i++ {
				c, err := checkAndNormalize(rv.Index(i).Interface(), fmt.Sprintf("%s[%d]", path, i))
				if err != nil {
					return nil, err
				}
				out[i] = c
			}
			return out, nil
		case reflect.Struct, reflect.Ptr:
			// Structs and pointers are returned unwalked and left to the
			// JSON-tag-respecting encoding/json pre-marshal. Their fields
			// are not checked by this pass: a float-typed struct field is
			// not rejected here, since RealNumberFault is raised only for
			// a float reached directly by this walk. Structs are otherwise
			// opaque containers to this pass.
			return v, nil
		default:
			return v, nil
		}
	}
}
