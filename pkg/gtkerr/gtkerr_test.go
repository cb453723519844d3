package gtkerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestFaultError(t *testing.T) {
	f := Fault{Code: "GTK/NUMERIC/DIVIDE_BY_ZERO", Detail: "Div by zero Q"}
	want := "GTK/NUMERIC/DIVIDE_BY_ZERO: Div by zero Q"
	if f.Error() != want {
		t.Errorf("expected %q, got %q", want, f.Error())
	}

	bare := Fault{Code: "GTK/NUMERIC/DIVIDE_BY_ZERO"}
	if bare.Error() != bare.Code {
		t.Errorf("expected a detail-less fault to print just its code, got %q", bare.Error())
	}
}

func TestFaultClassification(t *testing.T) {
	cases := []struct {
		code string
		want Classification
	}{
		{"GTK/BUDGET/CHAIN_TIMEOUT", ClassRetryable},
		{"GTK/HOST/UNAVAILABLE", ClassRetryable},
		{"GTK/BUDGET/WRITE_CONFLICT", ClassRetryable},
		{"GTK/NUMERIC/DIVIDE_BY_ZERO", ClassNonRetryable},
		{"GTK/STATE/SHAPE_INVARIANT_VIOLATED", ClassNonRetryable},
	}
	for _, c := range cases {
		got := Fault{Code: c.code}.Classification()
		if got != c.want {
			t.Errorf("Classification(%q) = %q, want %q", c.code, got, c.want)
		}
	}
}

func TestFaultNamespace(t *testing.T) {
	if ns := (Fault{Code: "GTK/NUMERIC/CEILING_OVERFLOW"}).Namespace(); ns != "NUMERIC" {
		t.Errorf("expected namespace NUMERIC, got %q", ns)
	}
	if ns := (Fault{Code: "malformed"}).Namespace(); ns != "UNKNOWN" {
		t.Errorf("expected UNKNOWN for a code with no namespace segment, got %q", ns)
	}
}

func TestFaultIR(t *testing.T) {
	f := Fault{Code: "GTK/BUDGET/CHAIN_NOT_OPENED", Detail: `chain "x" was never opened`}
	ir := f.IR()
	if ir.Title != f.Code {
		t.Errorf("expected title %q, got %q", f.Code, ir.Title)
	}
	if ir.Detail != f.Detail {
		t.Errorf("expected detail %q, got %q", f.Detail, ir.Detail)
	}
	if ir.GTK.ErrorCode != f.Code || ir.GTK.Namespace != "BUDGET" {
		t.Errorf("unexpected extensions: %+v", ir.GTK)
	}
	if ir.Status != 400 {
		t.Errorf("expected a non-retryable fault to map to status 400, got %d", ir.Status)
	}

	retryable := Fault{Code: "GTK/HOST/TIMEOUT"}.IR()
	if retryable.Status != 503 {
		t.Errorf("expected a retryable fault to map to status 503, got %d", retryable.Status)
	}
}

func TestAsFindsABareFault(t *testing.T) {
	f := Fault{Code: "GTK/NUMERIC/DIVIDE_BY_ZERO"}
	var err error = f
	got, ok := As(err)
	if !ok || got != f {
		t.Errorf("expected As to find the bare fault, got %+v, %v", got, ok)
	}
}

func TestAsFindsAWrappedFault(t *testing.T) {
	f := Fault{Code: "GTK/NUMERIC/DIVIDE_BY_ZERO"}
	wrapped := fmt.Errorf("computing delta: %w", f)
	got, ok := As(wrapped)
	if !ok || got != f {
		t.Errorf("expected As to unwrap to the fault, got %+v, %v", got, ok)
	}
}

func TestAsRejectsANonFaultError(t *testing.T) {
	_, ok := As(errors.New("boom"))
	if ok {
		t.Error("expected As to report false for a plain error")
	}
}
