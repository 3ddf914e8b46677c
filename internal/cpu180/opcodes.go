package cpu180

import (
	"encoding/binary"

	"github.com/cyber962/cyber962/internal/faults"
)

// signExtend16 sign-extends a 16-bit field to 64 bits.
func signExtend16(q uint16) uint64 {
	return uint64(int64(int16(q)))
}

// rightJustify treats buf as a big-endian unsigned value and zero-extends
// it to 64 bits, the "load N bytes right-justified" operation used by
// LBYT/LBYTS and the 6-byte A-register load.
func rightJustify(buf []byte) uint64 {
	var v uint64
	for _, b := range buf {
		v = v<<8 | uint64(b)
	}
	return v
}

// lowBytesBE returns the low count bytes of value's big-endian 8-byte
// representation, the inverse of rightJustify. Counts above 8 (up to 16,
// as SBYTS uses) are padded with leading zero bytes.
func lowBytesBE(value uint64, count int) []byte {
	var full [16]byte
	binary.BigEndian.PutUint64(full[8:], value)
	return full[16-count:]
}

// bitMask computes a 64-bit mask covering length bits starting at IBM bit
// position pos (bit 0 = most significant). Both operands come from the
// caller already range-checked against the pos+length<=63 invariant.
func bitMask(pos, length uint64) uint64 {
	if length == 0 {
		return 0
	}
	return ((uint64(1) << length) - 1) << (64 - pos - length)
}

// ENTP j,k (0x3D): Xk <- j, zero-extended.
func opENTP(cp *CP, word uint32) (uint64, error) {
	j, k := jkFields(word)
	cp.SetX(k, uint64(j))
	return 2, nil
}

// ENTN j,k (0x3E): Xk <- ~j (bitwise complement of the zero-extended
// immediate).
func opENTN(cp *CP, word uint32) (uint64, error) {
	j, k := jkFields(word)
	cp.SetX(k, ^uint64(j))
	return 2, nil
}

// ENTL j,k (0x3F): X0 <- (j<<4)|k.
func opENTL(cp *CP, word uint32) (uint64, error) {
	j, k := jkFields(word)
	cp.SetX(0, uint64(j)<<4|uint64(k))
	return 2, nil
}

// ENTX j,k (0x39): X1 <- (j<<4)|k.
func opENTX(cp *CP, word uint32) (uint64, error) {
	j, k := jkFields(word)
	cp.SetX(1, uint64(j)<<4|uint64(k))
	return 2, nil
}

// ENTE j,k,Q (0x8D): Xk <- sign_extend_16_to_64(Q).
func opENTE(cp *CP, word uint32) (uint64, error) {
	_, k, q := jkQFields(word)
	cp.SetX(k, signExtend16(q))
	return 4, nil
}

// LA j,k,Q (0x84): Ak <- 6 bytes, right-justified, from [Aj + signext(Q)].
func opLA(cp *CP, word uint32) (uint64, error) {
	j, k, q := jkQFields(word)
	addr := displacePVA(cp.GetA(j), int64(int16(q)))
	var buf [6]byte
	cp.ReadBytes(addr, buf[:])
	cp.SetA(k, rightJustify(buf[:]))
	return 4, nil
}

// SA j,k,Q (0x85): [Aj + signext(Q)] <- low 6 bytes of Ak.
func opSA(cp *CP, word uint32) (uint64, error) {
	j, k, q := jkQFields(word)
	addr := displacePVA(cp.GetA(j), int64(int16(q)))
	cp.WriteBytes(addr, lowBytesBE(cp.GetA(k), 6))
	return 4, nil
}

// LX j,k,Q (0x82): Xk <- 8 bytes from [Aj + 8*signext(Q)]. Address must
// be 8-byte aligned.
func opLX(cp *CP, word uint32) (uint64, error) {
	j, k, q := jkQFields(word)
	addr := displacePVA(cp.GetA(j), int64(int16(q))*8)
	if addr%8 != 0 {
		return 0, faults.AddressSpecificationf("LX address 0x%X is not 8-byte aligned", addr)
	}
	var buf [8]byte
	cp.ReadBytes(addr, buf[:])
	cp.SetX(k, binary.BigEndian.Uint64(buf[:]))
	return 4, nil
}

// SX j,k,Q (0x83): [Aj + 8*signext(Q)] <- Xk. Address must be 8-byte
// aligned.
func opSX(cp *CP, word uint32) (uint64, error) {
	j, k, q := jkQFields(word)
	addr := displacePVA(cp.GetA(j), int64(int16(q))*8)
	if addr%8 != 0 {
		return 0, faults.AddressSpecificationf("SX address 0x%X is not 8-byte aligned", addr)
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], cp.GetX(k))
	cp.WriteBytes(addr, buf[:])
	return 4, nil
}

// LXI j,k,i,D (0xA2): Xk <- 8 bytes from [Aj + 8*(XiR+D)]. Address must
// be 8-byte aligned.
func opLXI(cp *CP, word uint32) (uint64, error) {
	j, k, i, d := jkiDFields(word)
	xir := uint32(cp.GetXOr0(i))
	addr := displacePVA(cp.GetA(j), int64(xir+uint32(d))*8)
	if addr%8 != 0 {
		return 0, faults.AddressSpecificationf("LXI address 0x%X is not 8-byte aligned", addr)
	}
	var buf [8]byte
	cp.ReadBytes(addr, buf[:])
	cp.SetX(k, binary.BigEndian.Uint64(buf[:]))
	return 4, nil
}

// SXI j,k,i,D (0xA3): [Aj + 8*(XiR+D)] <- Xk. Address must be 8-byte
// aligned.
func opSXI(cp *CP, word uint32) (uint64, error) {
	j, k, i, d := jkiDFields(word)
	xir := uint32(cp.GetXOr0(i))
	addr := displacePVA(cp.GetA(j), int64(xir+uint32(d))*8)
	if addr%8 != 0 {
		return 0, faults.AddressSpecificationf("SXI address 0x%X is not 8-byte aligned", addr)
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], cp.GetX(k))
	cp.WriteBytes(addr, buf[:])
	return 4, nil
}

// LBYT j,k,i,D (0xA4): Xk <- (X0&7)+1 bytes, right-justified, from
// [Aj + XiR + D].
func opLBYT(cp *CP, word uint32) (uint64, error) {
	j, k, i, d := jkiDFields(word)
	xir := uint32(cp.GetXOr0(i))
	addr := displacePVA(cp.GetA(j), int64(xir+uint32(d)))
	count := int((cp.GetX(0) & 7) + 1)
	buf := make([]byte, count)
	cp.ReadBytes(addr, buf)
	cp.SetX(k, rightJustify(buf))
	return 4, nil
}

// SBYT j,k,i,D (0xA5): [Aj + XiR + D] <- low (X0&7)+1 bytes of Xk.
func opSBYT(cp *CP, word uint32) (uint64, error) {
	j, k, i, d := jkiDFields(word)
	xir := uint32(cp.GetXOr0(i))
	addr := displacePVA(cp.GetA(j), int64(xir+uint32(d)))
	count := int((cp.GetX(0) & 7) + 1)
	cp.WriteBytes(addr, lowBytesBE(cp.GetX(k), count))
	return 4, nil
}

// LBYTS S,j,k,i,D (0xD0..0xD7): like LBYT, but count = S+1.
func opLBYTS(cp *CP, word uint32) (uint64, error) {
	s := sField(word)
	j, k, i, d := jkiDFields(word)
	xir := uint32(cp.GetXOr0(i))
	addr := displacePVA(cp.GetA(j), int64(xir+uint32(d)))
	count := int(s) + 1
	buf := make([]byte, count)
	cp.ReadBytes(addr, buf)
	cp.SetX(k, rightJustify(buf))
	return 4, nil
}

// SBYTS S,j,k,i,D (0xD8..0xDF): like SBYT, but count = S+1.
func opSBYTS(cp *CP, word uint32) (uint64, error) {
	s := sField(word)
	j, k, i, d := jkiDFields(word)
	xir := uint32(cp.GetXOr0(i))
	addr := displacePVA(cp.GetA(j), int64(xir+uint32(d)))
	count := int(s) + 1
	cp.WriteBytes(addr, lowBytesBE(cp.GetX(k), count))
	return 4, nil
}

// ISOM j,k,i,D (0xAC): Xk <- a bit mask derived from XiR+D (upper 6 bits
// = start position, lower 6 bits = length; IBM bit numbering).
func opISOM(cp *CP, word uint32) (uint64, error) {
	_, k, i, d := jkiDFields(word)
	xir := cp.GetXOr0(i) & 0xFFFFFFFF
	sum := xir + uint64(d)
	pos := sum >> 6
	length := sum & 0x3F
	if pos+length > 63 {
		return 0, faults.InstructionSpecificationf("ISOM bit descriptor pos=%d len=%d exceeds 63", pos, length)
	}
	cp.SetX(k, bitMask(pos, length))
	return 4, nil
}

// ISOB j,k,i,D (0xAD): Xk <- the right-justified bit field of Xj selected
// by the same descriptor as ISOM.
func opISOB(cp *CP, word uint32) (uint64, error) {
	j, k, i, d := jkiDFields(word)
	xir := cp.GetXOr0(i) & 0xFFFFFFFF
	sum := xir + uint64(d)
	pos := sum >> 6
	length := sum & 0x3F
	if pos+length > 63 {
		return 0, faults.InstructionSpecificationf("ISOB bit descriptor pos=%d len=%d exceeds 63", pos, length)
	}
	mask := bitMask(pos, length)
	bits := cp.GetX(j) & mask
	cp.SetX(k, bits>>(64-pos-length))
	return 4, nil
}

// EXECUTE (0xC0..0xCF): reserved for instruction-level execute-as-if
// semantics, not yet implemented.
func opEXECUTE(cp *CP, word uint32) (uint64, error) {
	return 0, faults.IllegalInstructionf("EXECUTE (0x%02X) is not implemented", byte(word>>24))
}
