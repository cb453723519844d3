// Package gtkerr provides the canonical fault type the kernel packages use
// for non-rejection invariant violations (spec §7: a fault halts the
// operation and never produces a receipt, as opposed to a rejection, which
// does). It also projects a Fault onto an RFC 9457 Problem Details document
// so a host boundary (the HTTP surface, a log line) can classify and report
// a failure without string-matching on Code.
package gtkerr

import (
	"fmt"
	"strings"
)

// Classification mirrors the RFC 9457 retry-semantics extension the teacher
// carries on its ErrorIR: whether a host may safely retry the operation
// that produced this fault.
type Classification string

const (
	ClassRetryable            Classification = "RETRYABLE"
	ClassNonRetryable         Classification = "NON_RETRYABLE"
	ClassIdempotentSafe       Classification = "IDEMPOTENT_SAFE"
	ClassCompensationRequired Classification = "COMPENSATION_REQUIRED"
)

// Fault is a typed, non-rejection invariant violation. Kernel packages
// return a Fault rather than a bare errors.New so a caller can recover the
// machine-readable Code instead of parsing an error string.
type Fault struct {
	Code   string
	Detail string
}

func (f Fault) Error() string {
	if f.Detail == "" {
		return f.Code
	}
	return f.Code + ": " + f.Detail
}

// Classification classifies f by its Code prefix. Codes follow
// "GTK/<NAMESPACE>/<REASON>"; the reason segment drives the classification,
// the same way the teacher's classifyError keys off its own HELM/* codes.
func (f Fault) Classification() Classification {
	reason := f.Code
	if i := strings.LastIndex(f.Code, "/"); i >= 0 {
		reason = f.Code[i+1:]
	}
	switch {
	case strings.Contains(reason, "TIMEOUT"):
		return ClassRetryable
	case strings.Contains(reason, "UNAVAILABLE"):
		return ClassRetryable
	case strings.Contains(reason, "CONFLICT"):
		return ClassRetryable
	default:
		return ClassNonRetryable
	}
}

// Namespace is the second "/"-separated segment of Code, e.g. "NUMERIC" in
// "GTK/NUMERIC/CEILING_OVERFLOW".
func (f Fault) Namespace() string {
	parts := strings.Split(f.Code, "/")
	if len(parts) >= 2 {
		return parts[1]
	}
	return "UNKNOWN"
}

// IR projects f onto an RFC 9457 Problem Details document.
func (f Fault) IR() ErrorIR {
	class := f.Classification()
	return ErrorIR{
		Type:   fmt.Sprintf("https://gtk.invalid/errors/%s", strings.ToLower(strings.ReplaceAll(f.Code, "/", "-"))),
		Title:  f.Code,
		Status: classificationToStatus(class),
		Detail: f.Detail,
		GTK: Extensions{
			ErrorCode:      f.Code,
			Namespace:      f.Namespace(),
			Classification: class,
		},
	}
}

// ErrorIR is an RFC 9457 ("Problem Details for HTTP APIs") document with a
// GTK-specific extension member, the shape a host's HTTP surface or log
// sink renders a Fault as.
type ErrorIR struct {
	Type     string     `json:"type"`
	Title    string     `json:"title"`
	Status   int        `json:"status"`
	Detail   string     `json:"detail,omitempty"`
	Instance string     `json:"instance,omitempty"`
	GTK      Extensions `json:"gtk"`
}

// Extensions carries the fields RFC 9457 leaves to the implementer.
type Extensions struct {
	ErrorCode      string         `json:"error_code"`
	Namespace      string         `json:"namespace"`
	Classification Classification `json:"classification"`
}

func classificationToStatus(c Classification) int {
	switch c {
	case ClassRetryable:
		return 503
	case ClassIdempotentSafe:
		return 200
	case ClassCompensationRequired:
		return 500
	default:
		return 400
	}
}

// As reports whether err is, or wraps, a Fault, returning it if so. It
// exists so callers can avoid importing errors.As at every call site that
// only cares about Fault.
func As(err error) (Fault, bool) {
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if f, ok := err.(Fault); ok {
			return f, true
		}
		u, ok := err.(unwrapper)
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return Fault{}, false
}
