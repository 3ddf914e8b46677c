package cpu180

import (
	"encoding/binary"

	"github.com/cyber962/cyber962/internal/faults"
)

// instructionLength returns the instruction length in bytes (2 or 4) for
// the given opcode byte, per the opcode→length table in spec §6.
func instructionLength(op byte) int {
	switch {
	case op <= 0x3F, op >= 0x70 && op <= 0x7F:
		return 2
	default:
		return 4
	}
}

// jkFields decodes the jk field layout: op[8] j[4] k[4] pad[16].
func jkFields(word uint32) (j, k uint8) {
	return uint8((word >> 20) & 0xF), uint8((word >> 16) & 0xF)
}

// jkiDFields decodes the jkiD (and SjkiD) field layout: j/k occupy the
// same bit positions in both; SjkiD callers read S out of the opcode
// byte separately via sField.
func jkiDFields(word uint32) (j, k, i uint8, d uint16) {
	j = uint8((word >> 20) & 0xF)
	k = uint8((word >> 16) & 0xF)
	i = uint8((word >> 12) & 0xF)
	d = uint16(word & 0xFFF)
	return
}

// jkQFields decodes the jkQ field layout: op[8] j[4] k[4] Q[16].
func jkQFields(word uint32) (j, k uint8, q uint16) {
	j = uint8((word >> 20) & 0xF)
	k = uint8((word >> 16) & 0xF)
	q = uint16(word & 0xFFFF)
	return
}

// sField extracts the S field of an SjkiD-layout word: the low nibble of
// the opcode byte (0xC0..0xDF range, op[4] S[4] j[4] k[4] i[4] D[12]).
func sField(word uint32) uint8 {
	return uint8((word >> 24) & 0xF)
}

// step performs one fetch/decode/execute cycle. Called from the CP's
// threadctl Loop callback while Running.
func (cp *CP) step() {
	var opByte [1]byte
	cp.ReadBytes(cp.P, opByte[:])
	op := opByte[0]

	length := instructionLength(op)
	raw := make([]byte, length)
	cp.ReadBytes(cp.P, raw)

	var word uint32
	if length == 2 {
		word = uint32(raw[0])<<24 | uint32(raw[1])<<16
	} else {
		word = binary.BigEndian.Uint32(raw)
	}

	handler := cp.table[op]
	if handler == nil {
		cp.fault(faults.IllegalInstructionf("opcode 0x%02X has no registered handler", op))
		return
	}

	advance, err := handler(cp, word)
	if err != nil {
		if f, ok := err.(*faults.Fault); ok {
			cp.fault(f)
		} else {
			cp.fault(faults.IllegalInstructionf("%v", err))
		}
		return
	}
	if advance != BranchTaken {
		cp.P += advance
	}
}

// buildTable installs the 256-entry opcode dispatch table. Every entry
// defaults to illegalInstruction; representative opcodes documented in
// spec §4.6 are then installed over that default, along with the
// EXECUTE/LBYTS/SBYTS range fan-in from the 0xC0..0xDF opcode family.
func (cp *CP) buildTable() {
	for i := range cp.table {
		cp.table[i] = illegalInstruction
	}

	cp.table[0x39] = opENTX
	cp.table[0x3D] = opENTP
	cp.table[0x3E] = opENTN
	cp.table[0x3F] = opENTL

	cp.table[0x82] = opLX
	cp.table[0x83] = opSX
	cp.table[0x84] = opLA
	cp.table[0x85] = opSA
	cp.table[0x8D] = opENTE

	cp.table[0xA2] = opLXI
	cp.table[0xA3] = opSXI
	cp.table[0xA4] = opLBYT
	cp.table[0xA5] = opSBYT
	cp.table[0xAC] = opISOM
	cp.table[0xAD] = opISOB

	for op := 0xC0; op <= 0xCF; op++ {
		cp.table[op] = opEXECUTE
	}
	for op := 0xD0; op <= 0xD7; op++ {
		cp.table[op] = opLBYTS
	}
	for op := 0xD8; op <= 0xDF; op++ {
		cp.table[op] = opSBYTS
	}
}

func illegalInstruction(cp *CP, word uint32) (uint64, error) {
	return 0, faults.IllegalInstructionf("opcode 0x%02X has no handler", byte(word>>24))
}
