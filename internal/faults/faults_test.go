package faults

import (
	"errors"
	"testing"
)

func TestErrorMessageIncludesKind(t *testing.T) {
	f := IllegalInstructionf("opcode 0x%02x has no handler", 0xFF)
	want := "IllegalInstruction: opcode 0xff has no handler"
	if f.Error() != want {
		t.Fatalf("Error() = %q, want %q", f.Error(), want)
	}
}

func TestFaultSatisfiesErrorInterface(t *testing.T) {
	var err error = AddressSpecificationf("address %d is not 8-byte aligned", 9)
	if err.Error() == "" {
		t.Fatal("expected non-empty error message")
	}
	var f *Fault
	if !errors.As(err, &f) {
		t.Fatal("expected errors.As to find a *Fault")
	}
	if f.Kind != AddressSpecification {
		t.Fatalf("Kind = %v, want AddressSpecification", f.Kind)
	}
}

func TestKindString(t *testing.T) {
	cases := []struct {
		k    Kind
		want string
	}{
		{IllegalInstruction, "IllegalInstruction"},
		{AddressSpecification, "AddressSpecification"},
		{InstructionSpecification, "InstructionSpecification"},
		{ResourceExhaustion, "ResourceExhaustion"},
	}
	for _, c := range cases {
		if got := c.k.String(); got != c.want {
			t.Fatalf("Kind(%d).String() = %q, want %q", c.k, got, c.want)
		}
	}
}
