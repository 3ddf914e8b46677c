// Package cpu180 implements a Cyber 180 Central Processor (spec §4.6): a
// 64-bit byte-addressed execution unit with PVA→SVA→RMA address
// translation, a write-through line cache, and a 256-entry opcode
// dispatch table driving a variable-length (2 or 4 byte) instruction
// fetch/decode/execute loop.
//
// One CP owns one cache and one Central Memory access port; it runs on
// its own goroutine via internal/threadctl, exactly as every other
// processor in the system does.
package cpu180

import (
	"log/slog"

	"github.com/cyber962/cyber962/internal/cache"
	"github.com/cyber962/cyber962/internal/cmem"
	"github.com/cyber962/cyber962/internal/faults"
	"github.com/cyber962/cyber962/internal/threadctl"
)

// BranchTaken, when returned as a handler's advance value, signals that
// the handler already set P itself (spec §4.6 step 4).
const BranchTaken = ^uint64(0)

// SegmentResolver maps a 12-bit SEG field to a 16-bit Active Segment
// Identifier during PVA→SVA translation. The default is the identity
// mapping; a virtual memory subsystem can interpose here without
// touching the execution loop.
type SegmentResolver func(seg uint16) uint16

func identitySegmentResolver(seg uint16) uint16 { return seg }

type opcodeHandler func(cp *CP, word uint32) (advance uint64, err error)

// CP is one Cyber 180 Central Processor.
type CP struct {
	P       uint64    // 64-bit program address (PVA).
	A       [16]uint64 // 48-bit registers, stored pre-masked; A0 writes are ignored.
	X       [16]uint64 // 64-bit registers.
	Monitor bool       // Monitor|Job mode flag.

	cache *cache.Cache
	port  *cmem.Port
	table [256]opcodeHandler

	SegmentResolver SegmentResolver

	log    *slog.Logger
	thread *threadctl.Handle
}

// New constructs a CP bound to port, with its own write-through cache.
// The processor thread starts Stopped; call Start to run it.
func New(port *cmem.Port, log *slog.Logger) *CP {
	cp := &CP{
		cache:           cache.New(),
		port:            port,
		SegmentResolver: identitySegmentResolver,
		log:             log,
	}
	cp.buildTable()
	cp.thread = threadctl.New(threadctl.Callbacks{
		Loop: cp.step,
	})
	return cp
}

// Start requests the CP's thread move to Running.
func (cp *CP) Start() { cp.thread.Start() }

// Stop requests the CP's thread pause in Stopped.
func (cp *CP) Stop() { cp.thread.Stop() }

// Terminate requests the CP's thread exit.
func (cp *CP) Terminate() { cp.thread.Terminate() }

// Wait blocks until the CP's thread has exited, after Terminate.
func (cp *CP) Wait() { cp.thread.Wait() }

// State returns the CP thread's lifecycle state (see internal/threadctl).
func (cp *CP) State() int { return cp.thread.State() }

// GetA returns the 48-bit value of A[index].
func (cp *CP) GetA(index uint8) uint64 {
	return cp.A[index] & 0x0000FFFFFFFFFFFF
}

// SetA stores a 48-bit value into A[index]. Writes to A0 are ignored.
func (cp *CP) SetA(index uint8, value uint64) {
	if index == 0 {
		return
	}
	cp.A[index] = value & 0x0000FFFFFFFFFFFF
}

// GetX returns the full 64-bit value of X[index].
func (cp *CP) GetX(index uint8) uint64 {
	return cp.X[index]
}

// SetX stores a 64-bit value into X[index].
func (cp *CP) SetX(index uint8, value uint64) {
	cp.X[index] = value
}

// GetXOr0 reads X[index], except index 0 reads as zero. Several
// instructions use this "X or 0" accessor for their index operand.
func (cp *CP) GetXOr0(index uint8) uint64 {
	if index == 0 {
		return 0
	}
	return cp.X[index]
}

// translatePVAToSVA maps a Process Virtual Address to a Segment Virtual
// Address: SEG resolves to an Active Segment Identifier via
// SegmentResolver, leaving BN untouched.
func (cp *CP) translatePVAToSVA(pva uint64) uint64 {
	seg := uint16((pva >> 32) & 0xFFF)
	bn := pva & 0xFFFFFFFF
	asid := cp.SegmentResolver(seg)
	return uint64(asid)<<32 | bn
}

// translateSVAToRMA maps a Segment Virtual Address to a Real Memory
// Address: BN (the low 32 bits) splits as PN[20] PO[12] and is reassembled
// unchanged, discarding ASID (identity mapping pending virtual memory).
func translateSVAToRMA(sva uint64) uint64 {
	bn := sva & 0xFFFFFFFF
	pn := (bn >> 12) & 0xFFFFF
	po := bn & 0xFFF
	return pn<<12 | po
}

// translate maps a PVA all the way through to an RMA.
func (cp *CP) translate(pva uint64) uint64 {
	return translateSVAToRMA(cp.translatePVAToSVA(pva))
}

// displacePVA adds a signed delta to the BN (low 32 bits) of base,
// leaving the RN/SEG portion (high 16 bits of the 48-bit address)
// unchanged. Overflow within BN wraps modulo 2^32.
func displacePVA(base uint64, delta int64) uint64 {
	hi := base & 0x0000FFFF00000000
	lo := uint32(base & 0xFFFFFFFF)
	lo += uint32(delta)
	return hi | uint64(lo)
}

func (cp *CP) fault(f *faults.Fault) {
	if cp.log != nil {
		cp.log.Error("cp fault", slog.String("kind", f.Kind.String()), slog.String("message", f.Message))
	}
	cp.thread.Terminate()
}
