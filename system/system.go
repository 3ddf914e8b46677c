// Package system assembles the top-level Cyber 962 system: one Central
// Memory, one or two Cyber 180 Central Processors, and one to three
// Input/Output Units, wired together per spec §6.
package system

import (
	"log/slog"

	"github.com/cyber962/cyber962/internal/cmem"
	"github.com/cyber962/cyber962/internal/cpu180"
	"github.com/cyber962/cyber962/internal/faults"
	"github.com/cyber962/cyber962/internal/iou"
)

// MinCentralProcessors and MaxCentralProcessors bound the centralProcessors
// parameter to Create, matching the original hardware's one-or-two-CP
// configurations.
const (
	MinCentralProcessors = 1
	MaxCentralProcessors = 2
)

// MinIOUnits and MaxIOUnits bound the ioUnits parameter to Create.
const (
	MinIOUnits = 1
	MaxIOUnits = 3
)

// validMemorySizes enumerates the Central Memory capacities a system may
// be built with (spec §6).
var validMemorySizes = map[int]bool{
	cmem.Capacity64MiB:  true,
	cmem.Capacity128MiB: true,
	cmem.Capacity192MiB: true,
	cmem.Capacity256MiB: true,
}

// System is a fully wired Cyber 962: Central Memory plus the Central
// Processors and Input/Output Units bound to its ports.
type System struct {
	identifier string

	centralMemory     *cmem.CentralMemory
	centralProcessors []*cpu180.CP
	inputOutputUnits  []*iou.IOU

	inspector *cmem.Port // lazily created, host-tooling-only CM port.

	log *slog.Logger
}

// Create constructs a Cyber 962 system (spec §6): Central Memory is
// built with ports = centralProcessors + ioUnits; ports 0..cp-1 bind to
// Central Processors, the remainder to Input/Output Units, each of
// which internally constructs its own 20 PPs and 20 channels around its
// bound port.
//
// Create returns a ResourceExhaustion fault when any parameter is out
// of range, rather than panicking: an out-of-range request is a caller
// mistake the caller must check for (spec §7), not a programmer-bug
// assertion against already-validated internal state.
func Create(identifier string, memoryBytes int, centralProcessors int, ioUnits int, log *slog.Logger) (*System, error) {
	if !validMemorySizes[memoryBytes] {
		return nil, faults.ResourceExhaustionf("memoryBytes %d is not one of 64/128/192/256 MiB", memoryBytes)
	}
	if centralProcessors < MinCentralProcessors || centralProcessors > MaxCentralProcessors {
		return nil, faults.ResourceExhaustionf("centralProcessors %d out of range [%d,%d]", centralProcessors, MinCentralProcessors, MaxCentralProcessors)
	}
	if ioUnits < MinIOUnits || ioUnits > MaxIOUnits {
		return nil, faults.ResourceExhaustionf("ioUnits %d out of range [%d,%d]", ioUnits, MinIOUnits, MaxIOUnits)
	}

	sys := &System{
		identifier:    identifier,
		centralMemory: cmem.New(memoryBytes),
		log:           log,
	}

	portCount := centralProcessors + ioUnits
	ports := make([]*cmem.Port, portCount)
	for i := range ports {
		ports[i] = sys.centralMemory.NewPort(i < centralProcessors)
	}

	for cp := 0; cp < centralProcessors; cp++ {
		sys.centralProcessors = append(sys.centralProcessors, cpu180.New(ports[cp], log))
	}

	iouPortsBase := centralProcessors
	for i := 0; i < ioUnits; i++ {
		sys.inputOutputUnits = append(sys.inputOutputUnits, iou.New(i, ports[iouPortsBase+i], log))
	}

	if log != nil {
		log.Info("system constructed", "identifier", identifier, "memoryBytes", memoryBytes,
			"centralProcessors", centralProcessors, "ioUnits", ioUnits)
	}
	return sys, nil
}

// Identifier returns the system's human-readable name.
func (sys *System) Identifier() string { return sys.identifier }

// CentralMemory returns the system's Central Memory.
func (sys *System) CentralMemory() *cmem.CentralMemory { return sys.centralMemory }

// InspectorPort returns a Central Memory access port reserved for host
// tooling (console memory dumps, tests) rather than any processor. It is
// created on first use and reused afterward.
func (sys *System) InspectorPort() *cmem.Port {
	if sys.inspector == nil {
		sys.inspector = sys.centralMemory.NewPort(false)
	}
	return sys.inspector
}

// CentralProcessor returns the Central Processor at index (0-based,
// within [0, CentralProcessorCount())).
func (sys *System) CentralProcessor(index int) *cpu180.CP { return sys.centralProcessors[index] }

// CentralProcessorCount returns how many Central Processors this system has.
func (sys *System) CentralProcessorCount() int { return len(sys.centralProcessors) }

// InputOutputUnit returns the IOU at index (0-based, within
// [0, InputOutputUnitCount())).
func (sys *System) InputOutputUnit(index int) *iou.IOU { return sys.inputOutputUnits[index] }

// InputOutputUnitCount returns how many IOUs this system has.
func (sys *System) InputOutputUnitCount() int { return len(sys.inputOutputUnits) }

// StartAll requests every Central Processor and every PP in every IOU
// start running.
func (sys *System) StartAll() {
	for _, cp := range sys.centralProcessors {
		cp.Start()
	}
	for _, u := range sys.inputOutputUnits {
		u.StartAll()
	}
}

// StopAll requests every Central Processor and every PP in every IOU
// pause.
func (sys *System) StopAll() {
	for _, cp := range sys.centralProcessors {
		cp.Stop()
	}
	for _, u := range sys.inputOutputUnits {
		u.StopAll()
	}
}

// TerminateAll requests every processor in the system exit, then waits
// for all of them.
func (sys *System) TerminateAll() {
	for _, cp := range sys.centralProcessors {
		cp.Terminate()
	}
	for _, u := range sys.inputOutputUnits {
		u.TerminateAll()
	}
	for _, cp := range sys.centralProcessors {
		cp.Wait()
	}
}
