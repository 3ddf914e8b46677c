// Package iochannel implements a Cyber 180-style I/O channel (spec §4.8):
// a 12- or 16-bit transfer path between a PP and a device, driven by a
// pluggable function vector rather than a concrete device model. State
// reads are intentionally unsynchronized, per spec §5's shared-resource
// policy ("I/O channels: state reads are unsynchronized; device hook
// functions are responsible for their own synchronization").
package iochannel

import "fmt"

// Functions is the function vector a device implementation attaches to a
// Channel. All four hooks must be non-nil when attaching.
type Functions struct {
	// Read services a host-initiated read from the device, returning the
	// number of words actually read.
	Read func(ch *Channel, buf []uint16) int

	// Write services a host-initiated write to the device, returning the
	// number of words actually written.
	Write func(ch *Channel, buf []uint16) int

	// Control executes a 12-bit control function.
	Control func(ch *Channel, word uint16)

	// CheckState is called by a long transfer to give the device a
	// chance to re-evaluate channel state (e.g. to terminate early).
	CheckState func(ch *Channel)
}

// Channel is one I/O channel belonging to an IOU.
type Channel struct {
	index int

	active bool
	full   bool
	flag   bool
	err    bool

	fns *Functions
}

// New constructs a Channel at the given index, initially inactive and
// with no function vector attached.
func New(index int) *Channel {
	return &Channel{index: index}
}

// Index returns this channel's index within its IOU.
func (c *Channel) Index() int { return c.index }

// Active reports whether the channel is active.
func (c *Channel) Active() bool { return c.active }

// Full reports whether the channel is full (as opposed to empty).
func (c *Channel) Full() bool { return c.full }

// Flag reports whether the channel's flag is set.
func (c *Channel) Flag() bool { return c.flag }

// Error reports whether the channel has encountered an error.
func (c *Channel) Error() bool { return c.err }

// SetActive, SetFull, SetFlag, and SetError update the channel's state
// bits. They are exposed so a device's function vector can drive channel
// state without reaching into channel internals.
func (c *Channel) SetActive(v bool) { c.active = v }
func (c *Channel) SetFull(v bool)   { c.full = v }
func (c *Channel) SetFlag(v bool)   { c.flag = v }
func (c *Channel) SetError(v bool)  { c.err = v }

// Attach installs fns as the channel's device implementation. All four
// hooks must be non-nil. Attach panics if fns is malformed; a malformed
// function vector is a device-implementation bug, not a runtime fault a
// PP can recover from.
func (c *Channel) Attach(fns *Functions) {
	if fns == nil {
		panic("iochannel: Attach requires a non-nil Functions")
	}
	if fns.Read == nil || fns.Write == nil || fns.Control == nil || fns.CheckState == nil {
		panic("iochannel: Attach requires all four hooks to be non-nil")
	}
	c.fns = fns
}

// Detach removes the channel's device implementation. Detach only while
// quiescent (not active, not full) — detaching mid-transfer would strand
// whatever the device hook was doing.
func (c *Channel) Detach() {
	if c.active || c.full {
		panic(fmt.Sprintf("iochannel: cannot detach channel %d while active or full", c.index))
	}
	c.fns = nil
}

// Attached reports whether a function vector is currently installed.
func (c *Channel) Attached() bool { return c.fns != nil }

// Read calls the attached Read hook, returning 0 if nothing is attached.
func (c *Channel) Read(buf []uint16) int {
	if c.fns == nil {
		return 0
	}
	return c.fns.Read(c, buf)
}

// Write calls the attached Write hook, returning 0 if nothing is attached.
func (c *Channel) Write(buf []uint16) int {
	if c.fns == nil {
		return 0
	}
	return c.fns.Write(c, buf)
}

// Control calls the attached Control hook, a no-op if nothing is attached.
func (c *Channel) Control(word uint16) {
	if c.fns == nil {
		return
	}
	c.fns.Control(c, word)
}

// CheckState calls the attached CheckState hook, a no-op if nothing is
// attached.
func (c *Channel) CheckState() {
	if c.fns == nil {
		return
	}
	c.fns.CheckState(c)
}
