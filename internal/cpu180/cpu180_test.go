package cpu180

import (
	"encoding/binary"
	"testing"

	"github.com/cyber962/cyber962/internal/cmem"
)

func newTestCP() (*CP, *cmem.CentralMemory) {
	cm := cmem.New(cmem.Capacity64MiB)
	port := cm.NewPort(true)
	return New(port, nil), cm
}

func encode2(op, j, k byte) []byte {
	return []byte{op, (j << 4) | k}
}

func encode4JKQ(op, j, k byte, q uint16) []byte {
	buf := make([]byte, 4)
	buf[0] = op
	buf[1] = (j << 4) | k
	binary.BigEndian.PutUint16(buf[2:], q)
	return buf
}

func encode4JKiD(op, j, k, i byte, d uint16) []byte {
	buf := make([]byte, 4)
	buf[0] = op
	buf[1] = (j << 4) | k
	buf[2] = (i << 4) | byte((d>>8)&0xF)
	buf[3] = byte(d & 0xFF)
	return buf
}

func encode4SjkiD(opHigh, s, j, k, i byte, d uint16) []byte {
	buf := make([]byte, 4)
	buf[0] = (opHigh << 4) | s
	buf[1] = (j << 4) | k
	buf[2] = (i << 4) | byte((d>>8)&0xF)
	buf[3] = byte(d & 0xFF)
	return buf
}

func runAt(cp *CP, pc uint64, instr []byte) {
	cp.WriteBytes(pc, instr)
	cp.P = pc
	cp.step()
}

func TestENTP(t *testing.T) {
	cp, _ := newTestCP()
	runAt(cp, 0x1000, encode2(0x3D, 0x7, 0x2))
	if cp.GetX(2) != 7 {
		t.Fatalf("X2 = %d, want 7", cp.GetX(2))
	}
	if cp.P != 0x1002 {
		t.Fatalf("P = 0x%X, want 0x1002", cp.P)
	}
}

func TestENTN(t *testing.T) {
	cp, _ := newTestCP()
	runAt(cp, 0x1000, encode2(0x3E, 0x3, 0x4))
	if cp.GetX(4) != ^uint64(3) {
		t.Fatalf("X4 = 0x%X, want 0x%X", cp.GetX(4), ^uint64(3))
	}
}

func TestENTLAndENTX(t *testing.T) {
	cp, _ := newTestCP()
	runAt(cp, 0x1000, encode2(0x3F, 0xA, 0x5))
	if want := uint64(0xA5); cp.GetX(0) != want {
		t.Fatalf("X0 = 0x%X, want 0x%X", cp.GetX(0), want)
	}
	runAt(cp, 0x1002, encode2(0x39, 0x1, 0x2))
	if want := uint64(0x12); cp.GetX(1) != want {
		t.Fatalf("X1 = 0x%X, want 0x%X", cp.GetX(1), want)
	}
}

func TestENTESignExtends(t *testing.T) {
	cp, _ := newTestCP()
	runAt(cp, 0x1000, encode4JKQ(0x8D, 0, 3, 0xFFFE)) // Q = -2
	if cp.GetX(3) != ^uint64(1) {                     // -2 as uint64
		t.Fatalf("X3 = 0x%X, want 0x%X (-2)", cp.GetX(3), ^uint64(1))
	}
}

func TestLAStoreAndReload(t *testing.T) {
	cp, _ := newTestCP()
	cp.SetA(1, 0x123456789ABC)
	cp.SetA(3, 0x7000)                           // A3 is the base register for both SA and LA
	runAt(cp, 0x2000, encode4JKQ(0x85, 3, 1, 0)) // SA A1 -> [A3+0]

	cp.SetA(2, 0)
	runAt(cp, 0x2004, encode4JKQ(0x84, 3, 2, 0)) // LA [A3+0] -> A2
	if cp.GetA(2) != 0x123456789ABC {
		t.Fatalf("A2 = 0x%X, want 0x123456789ABC", cp.GetA(2))
	}
}

func TestLXSXRoundTrip(t *testing.T) {
	cp, _ := newTestCP()
	cp.SetA(1, 0x4000)
	cp.SetX(5, 0xDEADBEEFCAFEBABE)
	runAt(cp, 0x3000, encode4JKQ(0x83, 1, 5, 0)) // SX

	runAt(cp, 0x3004, encode4JKQ(0x82, 1, 6, 0)) // LX
	if cp.GetX(6) != 0xDEADBEEFCAFEBABE {
		t.Fatalf("X6 = 0x%X, want 0xDEADBEEFCAFEBABE", cp.GetX(6))
	}
}

func TestLXUnalignedFaultsAndTerminates(t *testing.T) {
	cp, _ := newTestCP()
	cp.SetA(1, 0x4001) // 8*0 offset, base itself unaligned
	runAt(cp, 0x3000, encode4JKQ(0x82, 1, 6, 0))
	if cp.State() != 3 { // Terminated
		t.Fatalf("State() = %d, want Terminated after fault", cp.State())
	}
}

func TestLBYTSBYTRoundTrip(t *testing.T) {
	cp, _ := newTestCP()
	cp.SetA(1, 0x5000)
	cp.SetX(0, 2) // count = (X0&7)+1 = 3
	cp.SetX(4, 0x0000000000ABCDEF)
	runAt(cp, 0x4000, encode4JKiD(0xA5, 1, 4, 0, 0)) // SBYT

	cp.SetX(7, 0)
	runAt(cp, 0x4004, encode4JKiD(0xA4, 1, 7, 0, 0)) // LBYT
	if cp.GetX(7) != 0xABCDEF {
		t.Fatalf("X7 = 0x%X, want 0xABCDEF", cp.GetX(7))
	}
}

func TestLBYTSOneByteRoundTrip(t *testing.T) {
	cp, _ := newTestCP()
	cp.SetA(1, 0x6000)
	cp.SetX(4, 0x42)
	// SBYT with X0=0 stores one byte (count = (X0&7)+1 = 1); SBYTS has no
	// one-byte form, since its opcode sub-range 0xD8-0xDF means S >= 8.
	runAt(cp, 0x4100, encode4JKiD(0xA5, 1, 4, 0, 0))

	cp.SetX(7, 0xFF)
	// S=0 (opcode 0xD0) selects LBYTS's own opcode sub-range -> count 1.
	runAt(cp, 0x4104, encode4SjkiD(0xD, 0, 1, 7, 0, 0))
	if cp.GetX(7) != 0x42 {
		t.Fatalf("X7 = 0x%X, want 0x42", cp.GetX(7))
	}
}

func TestSBYTSWritesCountFromOwnOpcodeSubrange(t *testing.T) {
	cp, _ := newTestCP()
	cp.SetA(1, 0x6100)
	cp.SetX(4, 0xABCDEF)
	// S=8 (opcode 0xD8) is SBYTS's own sub-range -> count = S+1 = 9: the
	// low 9 bytes of X4's big-endian form are written, one more byte of
	// leading zero than LBYTS's 0-7 sub-range could ever address.
	runAt(cp, 0x4200, encode4SjkiD(0xD, 8, 1, 4, 0, 0))

	var written [9]byte
	cp.ReadBytes(0x6100, written[:])
	if rightJustify(written[:]) != 0xABCDEF {
		t.Fatalf("wrote 0x%X, want 0xABCDEF", rightJustify(written[:]))
	}
}

func TestISOMISOB(t *testing.T) {
	cp, _ := newTestCP()
	// pos=4, len=8 => XiR+D = (4<<6)|8 = 264
	cp.SetX(0, 0xFFFFFFFFFFFFFFFF) // GetXOr0(0) reads as 0 per spec; use X1 as j and i=2 for XiR
	cp.SetX(2, 264)                // i register holding XiR value directly (i != 0)
	runAt(cp, 0x5000, encode4JKiD(0xAC, 0, 5, 2, 0)) // ISOM k=5, i=2, D=0

	mask := cp.GetX(5)
	wantMask := bitMask(4, 8)
	if mask != wantMask {
		t.Fatalf("ISOM mask = 0x%016X, want 0x%016X", mask, wantMask)
	}

	cp.SetX(1, 0x00FF000000000000) // IBM bits 8-15 set; the field [4:12) overlaps bits 8-11
	runAt(cp, 0x5004, encode4JKiD(0xAD, 1, 6, 2, 0))
	got := cp.GetX(6)
	want := (cp.GetX(1) & wantMask) >> (64 - 4 - 8)
	if got != want {
		t.Fatalf("ISOB result = 0x%X, want 0x%X", got, want)
	}
}

func TestISOMInstructionSpecificationFault(t *testing.T) {
	cp, _ := newTestCP()
	cp.SetX(2, (60<<6)|10) // pos=60 len=10 => pos+len=70 > 63
	runAt(cp, 0x5000, encode4JKiD(0xAC, 0, 5, 2, 0))
	if cp.State() != 3 {
		t.Fatalf("State() = %d, want Terminated after InstructionSpecification fault", cp.State())
	}
}

func TestIllegalInstructionFaultsAndTerminates(t *testing.T) {
	cp, _ := newTestCP()
	runAt(cp, 0x6000, []byte{0x00, 0x00}) // opcode 0x00 has no handler installed
	if cp.State() != 3 {
		t.Fatalf("State() = %d, want Terminated after illegal instruction", cp.State())
	}
}

func TestInstructionLengthTable(t *testing.T) {
	cases := []struct {
		op   byte
		want int
	}{
		{0x00, 2}, {0x3F, 2}, {0x40, 4}, {0x6F, 4}, {0x70, 2}, {0x7F, 2},
		{0x80, 4}, {0x9F, 4}, {0xA0, 4}, {0xBF, 4}, {0xC0, 4}, {0xDF, 4}, {0xFF, 4},
	}
	for _, c := range cases {
		if got := instructionLength(c.op); got != c.want {
			t.Fatalf("instructionLength(0x%02X) = %d, want %d", c.op, got, c.want)
		}
	}
}

func TestCrossCPWriteCoherence(t *testing.T) {
	cm := cmem.New(cmem.Capacity64MiB)
	portA := cm.NewPort(true)
	portB := cm.NewPort(true)
	cpA := New(portA, nil)
	cpB := New(portB, nil)

	// cpB caches a line.
	cpB.SetA(1, 0x9000)
	var scratch [8]byte
	cpB.ReadBytes(0x9000, scratch[:])

	// cpA writes through the same line.
	cpA.SetA(1, 0x9000)
	cpA.SetX(5, 0x1122334455667788)
	runAt(cpA, 0x1000, encode4JKQ(0x83, 1, 5, 0)) // SX at A1+0

	// cpB must observe the new value on its next transaction, not the
	// stale cached line.
	var out [8]byte
	cpB.ReadBytes(0x9000, out[:])
	gotValue := rightJustify(out[:])
	if gotValue != 0x1122334455667788 {
		t.Fatalf("cpB read stale data: got 0x%X", gotValue)
	}
}
