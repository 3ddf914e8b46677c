package cpu180

// ReadBytes performs a cache-coherent read of len(buf) bytes starting at
// PVA pva, following the transaction steps in spec §4.6.
func (cp *CP) ReadBytes(pva uint64, buf []byte) {
	cp.transact(pva, buf, false)
}

// WriteBytes performs a cache-coherent write of buf to PVA pva, following
// the transaction steps in spec §4.6.
func (cp *CP) WriteBytes(pva uint64, buf []byte) {
	cp.transact(pva, buf, true)
}

// transact implements the multi-line byte I/O transaction: acquire the
// port lock for the whole span, drain pending evictions, then for every
// covered cache line either satisfy it from the cache or load/store it
// through Central Memory, patching only the bytes this transfer actually
// touches.
func (cp *CP) transact(pva uint64, buf []byte, write bool) {
	if len(buf) == 0 {
		return
	}

	start := pva
	end := pva + uint64(len(buf)) // exclusive
	startLine := start &^ 63
	endLine := (end - 1) &^ 63

	cp.port.Lock()
	defer cp.port.Unlock()

	if q := cp.port.Evictions(); q != nil {
		cp.cache.ProcessEvictionQueue(q)
	}

	for lineVA := startLine; lineVA <= endLine; lineVA += 64 {
		rma := cp.translate(lineVA)

		var lineBuf [64]byte
		hit := cp.cache.GetDataForAddress(rma, &lineBuf)

		lo := uint64(0)
		if lineVA < start {
			lo = start - lineVA
		}
		hi := uint64(64)
		if lineVA+64 > end {
			hi = end - lineVA
		}
		bufLo := lineVA + lo - start
		bufHi := lineVA + hi - start

		if write {
			fullyOverwritten := lo == 0 && hi == 64
			if !hit && !fullyOverwritten {
				cp.port.ReadBytesPhysicalUnlocked(rma, lineBuf[:])
			}
			copy(lineBuf[lo:hi], buf[bufLo:bufHi])
			cp.port.WriteBytesPhysicalUnlocked(rma, lineBuf[:])
			cp.cache.AddOrUpdateDataForAddress(rma, &lineBuf)
		} else {
			if !hit {
				cp.port.ReadBytesPhysicalUnlocked(rma, lineBuf[:])
				cp.cache.AddOrUpdateDataForAddress(rma, &lineBuf)
			}
			copy(buf[bufLo:bufHi], lineBuf[lo:hi])
		}
	}
}
