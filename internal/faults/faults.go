// Package faults defines the typed error hierarchy surfaced by the
// execution core (spec §7). Every kind here is fatal in the current,
// pre-exchange-jump core: none of it is retried, and a CP that raises one
// logs it and transitions its thread to Terminated rather than attempting
// recovery. CMBoundsViolation is the one exception, and is not even
// modeled as an error value: it indicates a caller bug in this package's
// own callers and is raised as a panic instead (see internal/cmem).
package faults

import "fmt"

// Kind identifies which row of the error-handling table a Fault belongs
// to.
type Kind int

const (
	// IllegalInstruction is raised when the CP decoder has no handler
	// registered for a fetched opcode.
	IllegalInstruction Kind = iota
	// AddressSpecification is raised on CP load/store misalignment.
	AddressSpecification
	// InstructionSpecification is raised by ISOB/ISOM when pos+len > 63.
	InstructionSpecification
	// ResourceExhaustion is raised when construction of a mutex, thread,
	// or queue fails; callers must check for it rather than assume success.
	ResourceExhaustion
)

func (k Kind) String() string {
	switch k {
	case IllegalInstruction:
		return "IllegalInstruction"
	case AddressSpecification:
		return "AddressSpecification"
	case InstructionSpecification:
		return "InstructionSpecification"
	case ResourceExhaustion:
		return "ResourceExhaustion"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Fault is the error type propagated up through fetch/decode/execute.
// A Fault reaching the processor's run loop is fatal: the loop logs it
// and transitions to Terminated.
type Fault struct {
	Kind    Kind
	Message string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// New constructs a Fault of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IllegalInstructionf raises IllegalInstruction.
func IllegalInstructionf(format string, args ...any) *Fault {
	return New(IllegalInstruction, format, args...)
}

// AddressSpecificationf raises AddressSpecification.
func AddressSpecificationf(format string, args ...any) *Fault {
	return New(AddressSpecification, format, args...)
}

// InstructionSpecificationf raises InstructionSpecification.
func InstructionSpecificationf(format string, args ...any) *Fault {
	return New(InstructionSpecification, format, args...)
}

// ResourceExhaustionf raises ResourceExhaustion.
func ResourceExhaustionf(format string, args ...any) *Fault {
	return New(ResourceExhaustion, format, args...)
}
