package app

import (
	"strings"
	"testing"
)

func TestNewSettlementReferenceShape(t *testing.T) {
	ref := NewSettlementReference()

	if !strings.HasPrefix(ref, "0x") {
		t.Fatalf("expected 0x prefix, got %q", ref)
	}
	if len(ref) != 66 {
		t.Fatalf("expected 66 characters, got %d", len(ref))
	}
	for _, c := range ref[2:] {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Fatalf("unexpected character %q in %q", c, ref)
		}
	}

	if NewSettlementReference() == ref {
		t.Fatal("settlement references must not repeat")
	}
}

func TestNewInvoiceIDShape(t *testing.T) {
	id := NewInvoiceID()

	if !strings.HasPrefix(id, InvoiceIDPrefix) {
		t.Fatalf("expected %q prefix, got %q", InvoiceIDPrefix, id)
	}
	suffix := strings.TrimPrefix(id, InvoiceIDPrefix)
	if len(suffix) != 8 {
		t.Fatalf("expected 8 character suffix, got %q", suffix)
	}
	if suffix != strings.ToUpper(suffix) {
		t.Fatalf("expected uppercase suffix, got %q", suffix)
	}
}
