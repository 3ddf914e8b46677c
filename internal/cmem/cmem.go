// Package cmem implements Central Memory and its access ports (spec §4.4):
// a flat byte store shared by every CP and PP in a system, guarded by one
// system-wide access lock, with a write-coherence broadcast that notifies
// every other port's cache of the lines a write has touched.
//
// Storage is a raw []byte rather than a native []uint64 array: the Cyber
// 180 is big-endian end to end, and keeping the backing store as bytes
// with explicit encoding/binary.BigEndian accessors means the emulated
// layout is correct regardless of the host's own endianness, matching how
// Cyber180CMPort.c treats storage as byte-addressable beneath its
// word-sized pointer casts.
package cmem

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/cyber962/cyber962/internal/mpscqueue"
)

// CacheLineBytes is the line size used for eviction-range accounting.
// Cache geometry itself lives in package cache; CM only needs the size
// to compute which lines a write span touches.
const CacheLineBytes = 64

// EvictionRange is the payload enqueued on a port's eviction queue: every
// cache line address in [StartLine, StartLine+LineCount) became stale.
type EvictionRange struct {
	StartLine uint64
	LineCount uint32
}

// Valid capacities, in bytes (spec §3).
const (
	Capacity64MiB  = 64 << 20
	Capacity128MiB = 128 << 20
	Capacity192MiB = 192 << 20
	Capacity256MiB = 256 << 20
)

// CentralMemory is a flat byte-addressable store shared by every port
// attached to it. There is no package-level instance: a system owns one
// CentralMemory value and hands out ports from it.
type CentralMemory struct {
	mu      sync.Mutex
	storage []byte
	ports   []*Port
}

// New allocates a CentralMemory of the given capacity in bytes. capacity
// must be one of the Capacity* constants.
func New(capacity int) *CentralMemory {
	switch capacity {
	case Capacity64MiB, Capacity128MiB, Capacity192MiB, Capacity256MiB:
	default:
		panic(fmt.Sprintf("cmem: invalid capacity %d", capacity))
	}
	return &CentralMemory{storage: make([]byte, capacity)}
}

// Capacity returns the memory's size in bytes.
func (cm *CentralMemory) Capacity() int {
	return len(cm.storage)
}

// NewPort creates and attaches a new access port at the next available
// index. hasEvictionQueue selects whether the port owns a cache-eviction
// queue (CP ports do; ports with no associated cache do not).
func (cm *CentralMemory) NewPort(hasEvictionQueue bool) *Port {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	p := &Port{
		cm:    cm,
		index: len(cm.ports),
	}
	if hasEvictionQueue {
		p.evictions = mpscqueue.New()
	}
	cm.ports = append(cm.ports, p)
	return p
}

// Port is a Central Memory access point, indexed within its CentralMemory.
type Port struct {
	cm        *CentralMemory
	index     int
	evictions *mpscqueue.Queue // nil if this port has no cache to notify.
}

// Index returns this port's index within its Central Memory.
func (p *Port) Index() int { return p.index }

// Evictions returns this port's cache-eviction queue, or nil if the port
// was created without one.
func (p *Port) Evictions() *mpscqueue.Queue { return p.evictions }

// Lock acquires the system-wide Central Memory access lock. Pair with
// Unlock around a multi-step transaction that must use the _Unlocked
// variants below.
func (p *Port) Lock() { p.cm.mu.Lock() }

// Unlock releases the system-wide Central Memory access lock.
func (p *Port) Unlock() { p.cm.mu.Unlock() }

func (p *Port) checkBounds(address uint64, count int) {
	if count < 0 {
		panic("cmem: negative count")
	}
	if address >= uint64(len(p.cm.storage)) || address+uint64(count) > uint64(len(p.cm.storage)) {
		panic(fmt.Sprintf("cmem: address span [%d, %d) exceeds capacity %d", address, address+uint64(count), len(p.cm.storage)))
	}
}

// ReadBytesPhysical reads len(buf) bytes starting at address into buf, under
// the port lock.
func (p *Port) ReadBytesPhysical(address uint64, buf []byte) {
	p.Lock()
	defer p.Unlock()
	p.ReadBytesPhysicalUnlocked(address, buf)
}

// WriteBytesPhysical writes buf to address, under the port lock, then
// broadcasts cache-eviction notifications covering the written span to
// every other port.
func (p *Port) WriteBytesPhysical(address uint64, buf []byte) {
	p.Lock()
	defer p.Unlock()
	p.WriteBytesPhysicalUnlocked(address, buf)
}

// ReadBytesPhysicalUnlocked is ReadBytesPhysical without acquiring the
// port lock; the caller must already hold it.
func (p *Port) ReadBytesPhysicalUnlocked(address uint64, buf []byte) {
	p.checkBounds(address, len(buf))
	copy(buf, p.cm.storage[address:address+uint64(len(buf))])
}

// WriteBytesPhysicalUnlocked is WriteBytesPhysical without acquiring the
// port lock; the caller must already hold it. The eviction broadcast still
// happens, since write-coherence applies regardless of how the lock was
// acquired.
func (p *Port) WriteBytesPhysicalUnlocked(address uint64, buf []byte) {
	p.checkBounds(address, len(buf))
	copy(p.cm.storage[address:address+uint64(len(buf))], buf)
	p.triggerCacheEvictionsForCacheLineRangeLocked(address, len(buf))
}

// ReadWordsPhysical reads len(buf) 8-byte big-endian words starting at
// address into buf, under the port lock. address must be 8-byte aligned.
func (p *Port) ReadWordsPhysical(address uint64, buf []uint64) {
	p.Lock()
	defer p.Unlock()
	p.ReadWordsPhysicalUnlocked(address, buf)
}

// WriteWordsPhysical writes buf as 8-byte big-endian words starting at
// address, under the port lock. address must be 8-byte aligned.
func (p *Port) WriteWordsPhysical(address uint64, buf []uint64) {
	p.Lock()
	defer p.Unlock()
	p.WriteWordsPhysicalUnlocked(address, buf)
}

// ReadWordsPhysicalUnlocked is ReadWordsPhysical without acquiring the
// port lock.
func (p *Port) ReadWordsPhysicalUnlocked(address uint64, buf []uint64) {
	if address%8 != 0 {
		panic(fmt.Sprintf("cmem: unaligned word address %d", address))
	}
	byteCount := len(buf) * 8
	p.checkBounds(address, byteCount)
	for i := range buf {
		off := address + uint64(i*8)
		buf[i] = binary.BigEndian.Uint64(p.cm.storage[off : off+8])
	}
}

// WriteWordsPhysicalUnlocked is WriteWordsPhysical without acquiring the
// port lock.
func (p *Port) WriteWordsPhysicalUnlocked(address uint64, buf []uint64) {
	if address%8 != 0 {
		panic(fmt.Sprintf("cmem: unaligned word address %d", address))
	}
	byteCount := len(buf) * 8
	p.checkBounds(address, byteCount)
	for i, w := range buf {
		off := address + uint64(i*8)
		binary.BigEndian.PutUint64(p.cm.storage[off:off+8], w)
	}
	p.triggerCacheEvictionsForCacheLineRangeLocked(address, byteCount)
}

// triggerCacheEvictionsForCacheLineRangeLocked enqueues a range record on
// every OTHER port's eviction queue covering the cache lines touched by a
// byteCount-byte write starting at address. The caller must already hold
// the CM lock. The originating port never receives a record of its own
// write; it observes the update directly.
func (p *Port) triggerCacheEvictionsForCacheLineRangeLocked(address uint64, byteCount int) {
	if byteCount == 0 {
		return
	}
	startLine := address &^ (CacheLineBytes - 1)
	endAddress := address + uint64(byteCount) - 1
	endLine := endAddress &^ (CacheLineBytes - 1)
	lineCount := uint32((endLine-startLine)/CacheLineBytes) + 1

	p.triggerCacheEvictionsForCacheLineRange(startLine, lineCount)
}

// triggerCacheEvictionsForCacheLineRange enqueues an eviction range
// covering lineCount lines starting at startLine on every port other than
// p. The caller must already hold the CM lock.
func (p *Port) triggerCacheEvictionsForCacheLineRange(startLine uint64, lineCount uint32) {
	for _, other := range p.cm.ports {
		if other == p || other.evictions == nil {
			continue
		}
		other.evictions.Enqueue(EvictionRange{StartLine: startLine, LineCount: lineCount})
	}
}
