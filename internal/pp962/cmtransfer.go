package pp962

import "encoding/binary"

// packClassical packs five 12-bit PP words into the low 60 bits of a CM
// word, big-endian order, per spec §6: w0<<48 | w1<<36 | w2<<24 | w3<<12 | w4.
func packClassical(words [5]uint16) uint64 {
	var v uint64
	for i, w := range words {
		v |= uint64(w&0xFFF) << (48 - 12*i)
	}
	return v
}

// unpackClassical is packClassical's inverse.
func unpackClassical(word uint64) [5]uint16 {
	var out [5]uint16
	for i := range out {
		out[i] = uint16((word >> (48 - 12*i)) & 0xFFF)
	}
	return out
}

// packLong packs four 16-bit PP words into a 64-bit CM word, big-endian
// order: w0<<48 | w1<<32 | w2<<16 | w3.
func packLong(words [4]uint16) uint64 {
	var v uint64
	for i, w := range words {
		v |= uint64(w) << (48 - 16*i)
	}
	return v
}

// unpackLong is packLong's inverse.
func unpackLong(word uint64) [4]uint16 {
	var out [4]uint16
	for i := range out {
		out[i] = uint16((word >> (48 - 16*i)) & 0xFFFF)
	}
	return out
}

func (pp *PP) readCMWord(wordAddr uint64) uint64 {
	var buf [8]byte
	pp.port.ReadBytesPhysical(wordAddr*8, buf[:])
	return binary.BigEndian.Uint64(buf[:])
}

func (pp *PP) writeCMWord(wordAddr uint64, value uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], value)
	pp.port.WriteBytesPhysical(wordAddr*8, buf[:])
}

// ppCRD implements CRD (A),d / CRDL (A),d: read one CM word at the
// address formed from A/R and unpack it into PP storage starting at d
// (5 words for the classical 60-bit form, 4 for the long 64-bit form).
func ppCRD(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	long := op >= 0o1000
	w := pp.readCMWord(pp.cmWordAddress())
	if long {
		for i, v := range unpackLong(w) {
			pp.store(uint16(d)+uint16(i), v)
		}
	} else {
		for i, v := range unpackClassical(w) {
			pp.store(uint16(d)+uint16(i), v)
		}
	}
	pp.P++
}

// ppCWD implements CWD (A),(d) / CWDL (A),d: the inverse of ppCRD.
func ppCWD(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	long := op >= 0o1000
	var w uint64
	if long {
		var words [4]uint16
		for i := range words {
			words[i] = pp.fetch(uint16(d) + uint16(i))
		}
		w = packLong(words)
	} else {
		var words [5]uint16
		for i := range words {
			words[i] = pp.fetch(uint16(d) + uint16(i))
		}
		w = packClassical(words)
	}
	pp.writeCMWord(pp.cmWordAddress(), w)
	pp.P++
}

// ppCRM implements CRM (d),(A),m / CRML (d),(A),m: count = mem[d]
// (masked to 12 or 16 bits), reading count CM words starting at the
// A/R-computed address into PP storage starting at mem[P+1], striding 5
// (classical) or 4 (long) PP words per CM word. The base CM address is
// computed once from A/R and walked locally per word transferred; A
// itself is left unmodified by the instruction (spec.md §8's round-trip
// laws require CWM(n);CRM(n) to restore PP memory exactly, which only
// holds if both instructions address the same base each time they run).
func ppCRM(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	long := op >= 0o1000
	mask := uint16(0xFFF)
	stride := uint16(5)
	if long {
		mask = 0xFFFF
		stride = 4
	}
	count := pp.fetch(uint16(d)) & mask
	dest := pp.fetch(pp.P + 1)
	base := pp.cmWordAddress()
	for i := uint16(0); i < count; i++ {
		w := pp.readCMWord(base + uint64(i))
		if long {
			for j, v := range unpackLong(w) {
				pp.store(dest+uint16(j), v)
			}
		} else {
			for j, v := range unpackClassical(w) {
				pp.store(dest+uint16(j), v)
			}
		}
		dest += stride
	}
	pp.P += 2
}

// ppCWM implements CWM (d),(A),m / CWML (d),(A),m: the inverse of ppCRM.
// As with ppCRM, the base CM address is computed once from A/R and
// walked locally; A is left unmodified.
func ppCWM(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	long := op >= 0o1000
	mask := uint16(0xFFF)
	stride := uint16(5)
	if long {
		mask = 0xFFFF
		stride = 4
	}
	count := pp.fetch(uint16(d)) & mask
	src := pp.fetch(pp.P + 1)
	base := pp.cmWordAddress()
	for i := uint16(0); i < count; i++ {
		var w uint64
		if long {
			var words [4]uint16
			for j := range words {
				words[j] = pp.fetch(src + uint16(j))
			}
			w = packLong(words)
		} else {
			var words [5]uint16
			for j := range words {
				words[j] = pp.fetch(src + uint16(j))
			}
			w = packClassical(words)
		}
		pp.writeCMWord(base+uint64(i), w)
		src += stride
	}
	pp.P += 2
}

// ppRDSL implements RDSL d,(A): atomically over the CM port lock, read
// CM word x; read PP word y at mem[d]; write x back into mem[d]; write
// x|y into CM.
func ppRDSL(pp *PP, op uint16, word uint16) {
	pp.readModifyWrite(word, func(x, y uint64) uint64 { return x | y })
}

// ppRDCL implements RDCL d,(A): as ppRDSL, but with x&y.
func ppRDCL(pp *PP, op uint16, word uint16) {
	pp.readModifyWrite(word, func(x, y uint64) uint64 { return x & y })
}

func (pp *PP) readModifyWrite(word uint16, combine func(x, y uint64) uint64) {
	_, _, _, d := decodeWord(word)
	addr := pp.cmWordAddress() * 8

	pp.port.Lock()
	defer pp.port.Unlock()

	var buf [8]byte
	pp.port.ReadBytesPhysicalUnlocked(addr, buf[:])
	x := binary.BigEndian.Uint64(buf[:])
	y := uint64(pp.fetch(uint16(d)))

	pp.store(uint16(d), uint16(x))
	binary.BigEndian.PutUint64(buf[:], combine(x, y))
	pp.port.WriteBytesPhysicalUnlocked(addr, buf[:])

	pp.P++
}

// ppIOJ dispatches the I/O instruction family (spec §4.7, opcodes
// 0o64..0o77): the sc-format c field selects a channel, s distinguishes
// a control function from a jump-on-state test. A full implementation
// wires distinct subroutines per function; this core routes every I/O
// family opcode through the channel's Control hook with the raw word,
// leaving function-specific decoding to the attached device, and always
// advances P by one (jump forms are not yet distinguished).
func ppIOJ(pp *PP, op uint16, word uint16) {
	_, c := decodeSC(word)
	if int(c) < len(pp.channels) {
		if ch := pp.channels[c]; ch.Attached() {
			ch.Control(word)
		}
	}
	pp.P++
}
