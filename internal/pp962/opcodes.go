package pp962

// modeOf recovers the addressing mode and "long form" flag a given
// opcode within a family selects, by table lookup against the family's
// documented opcode assignments (spec §4.7).
func modeOf(op uint16, table map[uint16]addressMode) (mode addressMode, long bool) {
	if m, ok := table[op]; ok {
		return m, op >= 0o1000
	}
	return modeNoAddress, false
}

var loadStoreModes = map[uint16]addressMode{
	0o14: modeNoAddress, 0o15: modeNoAddress,
	0o20: modeConstant,
	0o30: modeDirect, 0o1030: modeDirect,
	0o40: modeIndirect, 0o1040: modeIndirect,
	0o50: modeMemory, 0o1050: modeMemory,
	0o34: modeDirect, 0o1034: modeDirect,
	0o44: modeIndirect, 0o1044: modeIndirect,
	0o54: modeMemory, 0o1054: modeMemory,
}

var addSubModes = map[uint16]addressMode{
	0o16: modeNoAddress,
	0o21: modeConstant,
	0o31: modeDirect, 0o1031: modeDirect,
	0o41: modeIndirect, 0o1041: modeIndirect,
	0o51: modeMemory, 0o1051: modeMemory,
	0o17: modeNoAddress,
	0o32: modeDirect, 0o1032: modeDirect,
	0o42: modeIndirect, 0o1042: modeIndirect,
	0o52: modeMemory, 0o1052: modeMemory,
}

var logicalModes = map[uint16]addressMode{
	0o11: modeNoAddress,
	0o23: modeConstant,
	0o33: modeDirect, 0o1033: modeDirect,
	0o43: modeIndirect, 0o1043: modeIndirect,
	0o53: modeMemory, 0o1053: modeMemory,
	0o12: modeNoAddress,
	0o22: modeConstant, 0o1022: modeDirect,
	0o1023: modeIndirect, 0o1024: modeMemory,
}

var replaceModes = map[uint16]addressMode{
	0o35: modeDirect, 0o1035: modeDirect,
	0o45: modeIndirect, 0o1045: modeIndirect,
	0o55: modeMemory, 0o1055: modeMemory,
	0o36: modeDirect, 0o1036: modeDirect,
	0o46: modeIndirect, 0o1046: modeIndirect,
	0o56: modeMemory, 0o1056: modeMemory,
	0o37: modeDirect, 0o1037: modeDirect,
	0o47: modeIndirect, 0o1047: modeIndirect,
	0o57: modeMemory, 0o1057: modeMemory,
}

const mask18 = 0x3FFFF

// ppLDx implements the Load family (LDN/LCN/LDC/LDD[L]/LDI[L]/LDM[L]):
// A <- operand, masked to 12 bits for the short forms and 16 for the
// long forms; LCN additionally complements the immediate.
func ppLDx(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	mode, long := modeOf(op, loadStoreModes)
	v := pp.loadOperand(mode, d)
	if op == 0o15 {
		v = ^v
	}
	if long {
		v &= 0xFFFF
	} else {
		v &= 0xFFF
	}
	pp.A = v & mask18
	pp.P += instrLength(mode, d)
}

// ppSTx implements the Store family: [addr] <- low 12 or 16 bits of A.
func ppSTx(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	mode, long := modeOf(op, loadStoreModes)
	addr := pp.storeAddress(mode, d)
	v := pp.A
	if long {
		v &= 0xFFFF
	} else {
		v &= 0xFFF
	}
	pp.store(addr, uint16(v))
	pp.P += instrLength(mode, d)
}

// ppADx implements the Add family: A <- (A + operand) mod 2^18.
func ppADx(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	mode, _ := modeOf(op, addSubModes)
	v := pp.loadOperand(mode, d)
	pp.A = (pp.A + v) & mask18
	pp.P += instrLength(mode, d)
}

// ppSBx implements the Subtract family: A <- (A - operand) mod 2^18.
func ppSBx(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	mode, _ := modeOf(op, addSubModes)
	v := pp.loadOperand(mode, d)
	pp.A = (pp.A - v) & mask18
	pp.P += instrLength(mode, d)
}

// ppSHN implements SHN d: d<0o40 rotates A left within 18 bits by d;
// d>=0o40 shifts A right, end-off, by 0o77-d.
func ppSHN(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	if d < 0o40 {
		n := uint(d) % 18
		pp.A = ((pp.A << n) | (pp.A >> (18 - n))) & mask18
	} else {
		n := uint(0o77 - d)
		if n > 18 {
			n = 18
		}
		pp.A = (pp.A >> n) & mask18
	}
	pp.P++
}

// ppLMx implements the Logical Difference (XOR) family.
func ppLMx(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	mode, _ := modeOf(op, logicalModes)
	v := pp.loadOperand(mode, d)
	pp.A = (pp.A ^ v) & mask18
	pp.P += instrLength(mode, d)
}

// ppLPx implements the Logical Product (AND) family.
func ppLPx(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	mode, _ := modeOf(op, logicalModes)
	v := pp.loadOperand(mode, d)
	pp.A = (pp.A & v) & mask18
	pp.P += instrLength(mode, d)
}

// ppSCN implements SCN d: clear the bits of A that are set in d.
func ppSCN(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	pp.A = pp.A &^ uint32(d) & mask18
	pp.P++
}

// ppRAx implements the Replace Add family: [addr] <- [addr] + A,
// read-modify-write against PP local storage.
func ppRAx(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	mode, _ := modeOf(op, replaceModes)
	addr := pp.storeAddress(mode, d)
	pp.store(addr, uint16((uint32(pp.fetch(addr))+pp.A)&0xFFFF))
	pp.P += instrLength(mode, d)
}

// ppAOx implements the Replace Add One family: [addr] <- [addr] + 1.
func ppAOx(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	mode, _ := modeOf(op, replaceModes)
	addr := pp.storeAddress(mode, d)
	pp.store(addr, pp.fetch(addr)+1)
	pp.P += instrLength(mode, d)
}

// ppSOx implements the Replace Subtract One family: [addr] <- [addr] - 1.
func ppSOx(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	mode, _ := modeOf(op, replaceModes)
	addr := pp.storeAddress(mode, d)
	pp.store(addr, pp.fetch(addr)-1)
	pp.P += instrLength(mode, d)
}

// ppLJM implements LJM (m+(d)): P <- computed memory-indexed address.
func ppLJM(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	pp.P = pp.memoryIndexedAddress(d)
}

// ppRJM implements RJM (m+(d)): [target] <- P+2 (return address), then
// P <- target+1.
func ppRJM(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	target := pp.memoryIndexedAddress(d)
	pp.store(target, pp.P+2)
	pp.P = target + 1
}

// relativeDisplacement converts a 6-bit displacement field per spec
// §4.7: d<=0o37 means +d, d>0o37 means -(0o77-d).
func relativeDisplacement(d uint8) int16 {
	if d <= 0o37 {
		return int16(d)
	}
	return -int16(0o77 - d)
}

// ppXJN implements the conditional relative branch family
// (UJN/ZJN/NJN/PJN/MJN), selected by op.
func ppXJN(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	disp := relativeDisplacement(d)
	take := false
	switch op {
	case 0o3: // UJN: unconditional
		take = true
	case 0o4: // ZJN: A == 0
		take = pp.A&mask18 == 0
	case 0o5: // NJN: A != 0
		take = pp.A&mask18 != 0
	case 0o6: // PJN: A >= 0 (top bit of 18-bit A clear)
		take = pp.A&0x20000 == 0
	case 0o7: // MJN: A < 0 (top bit of 18-bit A set)
		take = pp.A&0x20000 != 0
	}
	if take {
		pp.P = uint16(int32(pp.P) + int32(disp))
	} else {
		pp.P++
	}
}

// ppLRD implements LRD d: R <- (mem[d+1]&0x7FF)<<18 | (mem[d]&0x3FF)<<6.
// d==0 is a no-op (pass).
func ppLRD(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	if d == 0 {
		pp.P++
		return
	}
	lo := pp.fetch(uint16(d))
	hi := pp.fetch(uint16(d) + 1)
	pp.R = (uint32(hi&0x7FF) << 18) | (uint32(lo&0x3FF) << 6)
	pp.P++
}

// ppSRD implements SRD d, the inverse of LRD. d==0 is a no-op (pass).
func ppSRD(pp *PP, op uint16, word uint16) {
	_, _, _, d := decodeWord(word)
	if d == 0 {
		pp.P++
		return
	}
	pp.store(uint16(d), uint16(pp.R>>6)&0x3FF)
	pp.store(uint16(d)+1, uint16(pp.R>>18)&0x7FF)
	pp.P++
}

// ppKPT implements the Keypoint instruction as a pass: keypointing is a
// host-debugging aid with no effect on processor state.
func ppKPT(pp *PP, op uint16, word uint16) {
	pp.P++
}

// ppExchangeJump handles opcode 0o26's EXN/MXN/MAN/MAN2 sub-cases.
// Exchange jumps require a full monitor/job exchange package, which this
// execution core does not implement (spec §7: "exchange-to-monitor not
// yet implemented"); all sub-cases pass.
func ppExchangeJump(pp *PP, op uint16, word uint16) {
	pp.P++
}

// ppINPN passes; input-by-channel-number addressing is part of the I/O
// subsystem this core does not implement beyond the channel vector
// itself.
func ppINPN(pp *PP, op uint16, word uint16) {
	pp.P++
}
