// Package iou implements a Cyber 962 Input/Output Unit: a fully
// populated container of 20 Peripheral Processors and 20 I/O channels,
// sharing one Central Memory access port (spec §6: "Each IOU internally
// constructs 20 PPs and 20 channels").
package iou

import (
	"log/slog"

	"github.com/cyber962/cyber962/internal/cmem"
	"github.com/cyber962/cyber962/internal/iochannel"
	"github.com/cyber962/cyber962/internal/pp962"
)

// PPCount and ChannelCount are fixed per spec §6's "assumed fully
// populated" IOU model.
const (
	PPCount      = 20
	ChannelCount = 20
)

// IOU is one Cyber 962 Input/Output Unit.
type IOU struct {
	index int

	port     *cmem.Port
	channels [ChannelCount]*iochannel.Channel
	pps      [PPCount]*pp962.PP
}

// New constructs a fully populated IOU bound to port, with 20 channels
// and 20 PPs (all PPs sharing the same channel slice and port).
func New(index int, port *cmem.Port, log *slog.Logger) *IOU {
	iou := &IOU{index: index, port: port}
	for i := range iou.channels {
		iou.channels[i] = iochannel.New(i)
	}
	channelSlice := iou.channels[:]
	for i := range iou.pps {
		iou.pps[i] = pp962.New(i, port, channelSlice, log)
	}
	return iou
}

// Index returns this IOU's index within its system.
func (iou *IOU) Index() int { return iou.index }

// PP returns the Peripheral Processor at the given index.
func (iou *IOU) PP(index int) *pp962.PP { return iou.pps[index] }

// Channel returns the I/O channel at the given index.
func (iou *IOU) Channel(index int) *iochannel.Channel { return iou.channels[index] }

// PPs returns every Peripheral Processor in this IOU.
func (iou *IOU) PPs() []*pp962.PP { return iou.pps[:] }

// Channels returns every I/O channel in this IOU.
func (iou *IOU) Channels() []*iochannel.Channel { return iou.channels[:] }

// StartAll requests every PP in this IOU start running.
func (iou *IOU) StartAll() {
	for _, pp := range iou.pps {
		pp.Start()
	}
}

// StopAll requests every PP in this IOU pause.
func (iou *IOU) StopAll() {
	for _, pp := range iou.pps {
		pp.Stop()
	}
}

// TerminateAll requests every PP in this IOU exit, then waits for them.
func (iou *IOU) TerminateAll() {
	for _, pp := range iou.pps {
		pp.Terminate()
	}
	for _, pp := range iou.pps {
		pp.Wait()
	}
}
