// Package pp962 implements a Cyber 962 Peripheral Processor (spec §4.7):
// a 16-bit word-addressed processor with 8192 words of private local
// storage, a computed-addressing instruction set, and the ability to
// initiate block transfers to and from Central Memory through a CM port.
//
// One PP owns one goroutine, driven by internal/threadctl exactly like
// a Cyber 180 CP; the two processor kinds share that lifecycle machinery
// but nothing about instruction semantics, which differ completely.
package pp962

import (
	"fmt"
	"log/slog"

	"github.com/cyber962/cyber962/internal/cmem"
	"github.com/cyber962/cyber962/internal/iochannel"
	"github.com/cyber962/cyber962/internal/threadctl"
)

// StorageWords is the size of a PP's private local storage, in words.
const StorageWords = 8192

type opcodeHandler func(pp *PP, op uint16, word uint16)

// PP is one Cyber 962 Peripheral Processor.
type PP struct {
	index int

	A uint32 // Arithmetic register, 18 bits.
	P uint16 // Program address register, 16 bits.
	R uint32 // Relocation register, 22 bits.

	storage [StorageWords]uint16

	port     *cmem.Port
	channels []*iochannel.Channel

	table [0o1100]opcodeHandler

	log    *slog.Logger
	thread *threadctl.Handle
}

// New constructs a PP at the given index within its IOU, bound to port for CM
// block transfers and channels for its I/O family instructions. The
// processor thread starts Stopped; call Start to run it.
func New(index int, port *cmem.Port, channels []*iochannel.Channel, log *slog.Logger) *PP {
	pp := &PP{
		index:    index,
		port:     port,
		channels: channels,
		log:      log,
	}
	pp.buildTable()
	pp.Reset()
	pp.thread = threadctl.New(threadctl.Callbacks{
		Loop: pp.step,
	})
	return pp
}

// Index returns this PP's index within its IOU.
func (pp *PP) Index() int { return pp.index }

// Barrel returns the barrel group (§4.7) this PP belongs to, which
// bounds the channels it may be permitted to address.
func (pp *PP) Barrel() int { return pp.index % 5 }

// Reset restores A, P, and R to their power-on values.
func (pp *PP) Reset() {
	pp.A = 0o10000
	pp.P = 1
	pp.R = 0
}

// Start requests the PP's thread move to Running.
func (pp *PP) Start() { pp.thread.Start() }

// Stop requests the PP's thread pause in Stopped.
func (pp *PP) Stop() { pp.thread.Stop() }

// Terminate requests the PP's thread exit.
func (pp *PP) Terminate() { pp.thread.Terminate() }

// Wait blocks until the PP's thread has exited, after Terminate.
func (pp *PP) Wait() { pp.thread.Wait() }

// State returns the PP thread's lifecycle state (see internal/threadctl).
func (pp *PP) State() int { return pp.thread.State() }

// fetch reads PP local storage at addr, wrapping modulo StorageWords.
func (pp *PP) fetch(addr uint16) uint16 {
	return pp.storage[int(addr)%StorageWords]
}

// store writes PP local storage at addr, wrapping modulo StorageWords.
func (pp *PP) store(addr uint16, value uint16) {
	pp.storage[int(addr)%StorageWords] = value
}

// ReadWord and WriteWord expose a PP's local storage for host tooling
// (console memory dumps, tests) without going through the instruction
// stream.
func (pp *PP) ReadWord(addr uint16) uint16        { return pp.fetch(addr) }
func (pp *PP) WriteWord(addr uint16, value uint16) { pp.store(addr, value) }

// cmWordAddress computes the Central Memory word address a CM-family
// instruction should use, per the A/R combination rule in spec §4.7: if
// bit 17 of A is set the CM word address is A[16:0] directly, otherwise
// it is (R<<4)+A[16:0] masked to 28 bits. The result is a word index;
// multiplying by 8 yields the byte address cmem.Port expects.
func (pp *PP) cmWordAddress() uint64 {
	a := uint64(pp.A) & 0x3FFFF
	if a&0x20000 != 0 {
		return a & 0x1FFFF
	}
	return (uint64(pp.R)<<4 + (a & 0x1FFFF)) & 0xFFFFFFF
}

func (pp *PP) fault(format string, args ...any) {
	if pp.log != nil {
		pp.log.Error("pp fault", slog.String("message", fmt.Sprintf(format, args...)))
	}
	pp.thread.Terminate()
}
