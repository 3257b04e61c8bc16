package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataFor(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeStateConflict, http.StatusUnprocessableEntity},
		{CodeDependency, http.StatusServiceUnavailable},
		{Code("made-up"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("MetadataFor(%s).HTTPStatus = %d, want %d", tc.code, got, tc.status)
		}
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "calling carrier")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsTypedError(t *testing.T) {
	inner := New(CodeStateConflict, "cannot change status from SHIPPED to PLACED")
	wrapped := fmt.Errorf("handler: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Message() != inner.Message() {
		t.Fatalf("unexpected message %q", typed.Message())
	}

	if As(stdErrors.New("plain")) != nil {
		t.Fatal("expected nil for untyped error")
	}
}

func TestDumpChain(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("network down"), "refund call")
	d := Dump(err)

	if d.Code != CodeDependency {
		t.Fatalf("unexpected code %s", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d", len(d.Chain))
	}
}
