// Package cache implements the per-CP write-through cache described in
// spec §4.5: 512 lines of 64 bytes, addressed by linear scan, with
// least-recently-used replacement and a drain path for incoming
// cache-eviction-range notifications from other Central Memory ports.
package cache

import (
	"github.com/cyber962/cyber962/internal/cmem"
	"github.com/cyber962/cyber962/internal/mpscqueue"
)

// LineCount is the number of lines held by a Cache.
const LineCount = 512

// LineSize is the number of bytes in a single cache line.
const LineSize = 64

// LineMask clears the low bits of an address, aligning it to a line
// boundary.
const LineMask = ^uint64(LineSize - 1)

type line struct {
	valid    bool
	address  uint64
	lastUse  uint32
	contents [LineSize]byte
}

// Cache is a fixed-size, fully-associative, write-through line cache.
// It never holds data unsynchronized with Central Memory: every write
// that lands in the cache must also have already landed in CM.
type Cache struct {
	lines []line
	uses  uint32
}

// New constructs an empty Cache.
func New() *Cache {
	return &Cache{lines: make([]line, LineCount)}
}

// LineAddress returns the line-aligned address covering rma.
func LineAddress(rma uint64) uint64 {
	return rma & LineMask
}

func (c *Cache) bumpUses() uint32 {
	c.uses++
	return c.uses
}

// GetLineForAddress returns the index of the line covering rma and true,
// or (0, false) if no line is present. rma must already be line-aligned.
// A hit bumps both the cache's global use counter and the line's
// lastUse.
func (c *Cache) GetLineForAddress(rma uint64) (index int, ok bool) {
	lineAddr := LineAddress(rma)
	for i := range c.lines {
		if c.lines[i].valid && c.lines[i].address == lineAddr {
			c.lines[i].lastUse = c.bumpUses()
			return i, true
		}
	}
	return 0, false
}

// AddOrUpdateDataForAddress installs contents as the line covering rma.
// If a matching line already exists it is overwritten in place;
// otherwise the least-recently-used line is selected for replacement,
// ties broken toward the lowest index. rma must be line-aligned.
func (c *Cache) AddOrUpdateDataForAddress(rma uint64, contents *[LineSize]byte) {
	lineAddr := LineAddress(rma)
	uses := c.bumpUses()

	victim := 0
	var lowestUse uint32 = ^uint32(0)

	for i := range c.lines {
		if c.lines[i].valid && c.lines[i].address == lineAddr {
			victim = i
			break
		}
		// An invalid line has an effective use of 0, lower than any line
		// that has actually been touched, so empty slots are always
		// preferred replacement targets.
		use := c.lines[i].lastUse
		if !c.lines[i].valid {
			use = 0
		}
		if use < lowestUse {
			lowestUse = use
			victim = i
		}
	}

	c.lines[victim].valid = true
	c.lines[victim].address = lineAddr
	c.lines[victim].contents = *contents
	c.lines[victim].lastUse = uses
}

// GetDataForAddress copies the line covering rma into out and reports
// whether it was present. rma must be line-aligned.
func (c *Cache) GetDataForAddress(rma uint64, out *[LineSize]byte) bool {
	index, ok := c.GetLineForAddress(rma)
	if !ok {
		return false
	}
	*out = c.lines[index].contents
	return true
}

// EvictAddress zeroes the line covering rma, if present. rma must be
// line-aligned.
func (c *Cache) EvictAddress(rma uint64) {
	lineAddr := LineAddress(rma)
	for i := range c.lines {
		if c.lines[i].valid && c.lines[i].address == lineAddr {
			c.lines[i] = line{}
			return
		}
	}
}

// ProcessEvictionQueue drains every pending eviction range from q,
// evicting every line address each range covers.
func (c *Cache) ProcessEvictionQueue(q *mpscqueue.Queue) {
	for {
		entry, ok := q.TryDequeue()
		if !ok {
			return
		}
		r := entry.(cmem.EvictionRange)
		for i := uint32(0); i < r.LineCount; i++ {
			c.EvictAddress(r.StartLine + uint64(i)*LineSize)
		}
	}
}
