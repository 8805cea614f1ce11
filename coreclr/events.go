// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coreclr

import (
	"fmt"

	"github.com/aclements/go-nettrace/nettrace"
)

// MethodName is the three-part name the CoreCLR JIT reports for a
// method: its declaring namespace, its simple name, and its signature.
type MethodName struct {
	Name      string
	Namespace string
	Signature string
}

func (n MethodName) String() string {
	return fmt.Sprintf("%s [%s] ⟨%s⟩", n.Name, n.Namespace, n.Signature)
}

// ModuleLoadUnloadEvent is the payload of ModuleLoad, ModuleUnload, and
// DomainModuleLoad events (event ids 152, 153, 151).
type ModuleLoadUnloadEvent struct {
	ModuleID            uint64
	AssemblyID          uint64
	AppDomainID         *uint64 // present only for DomainModuleLoad (event id 151)
	ModuleFlags         uint32
	ModuleILPath        string
	ModuleNativePath    string
	ClrInstanceID       *uint16 // version >= 1
	ManagedPdbSignature [16]byte
	ManagedPdbAge       uint32
	ManagedPdbBuildPath string
	NativePdbSignature  [16]byte
	NativePdbAge        uint32
	NativePdbBuildPath  string
}

func decodeModuleLoadUnload(d *nettrace.PayloadDecoder, version uint32, appDomain bool) ModuleLoadUnloadEvent {
	var ev ModuleLoadUnloadEvent
	ev.ModuleID = d.U64()
	ev.AssemblyID = d.U64()
	if appDomain {
		v := d.U64()
		ev.AppDomainID = &v
	}
	ev.ModuleFlags = d.U32()
	d.Skip(4) // reserved1
	ev.ModuleILPath = d.UTF16CString()
	ev.ModuleNativePath = d.UTF16CString()
	if version >= 1 {
		v := d.U16()
		ev.ClrInstanceID = &v
	}
	if version >= 2 {
		copy(ev.ManagedPdbSignature[:], d.Raw(16))
		ev.ManagedPdbAge = d.U32()
		ev.ManagedPdbBuildPath = d.UTF16CString()
		copy(ev.NativePdbSignature[:], d.Raw(16))
		ev.NativePdbAge = d.U32()
		ev.NativePdbBuildPath = d.UTF16CString()
	}
	return ev
}

// MethodLoadUnloadEvent is the payload of MethodLoad, MethodUnload,
// MethodLoadVerbose, and MethodUnloadVerbose/MethodDCEndVerbose events
// (event ids 141, 142, 143, 144).
type MethodLoadUnloadEvent struct {
	MethodID           uint64
	ModuleID           uint64
	MethodStartAddress uint64
	MethodSize         uint32
	MethodToken        uint32
	MethodFlags        uint32
	MethodNamespace    string // empty unless verbose
	MethodName         string // empty unless verbose
	MethodSignature    string // empty unless verbose
	ClrInstanceID      *uint16
	ReJITID            *uint64
}

func decodeMethodLoadUnload(d *nettrace.PayloadDecoder, version uint32, verbose bool) MethodLoadUnloadEvent {
	var ev MethodLoadUnloadEvent
	ev.MethodID = d.U64()
	ev.ModuleID = d.U64()
	ev.MethodStartAddress = d.U64()
	ev.MethodSize = d.U32()
	ev.MethodToken = d.U32()
	ev.MethodFlags = d.U32()
	if verbose {
		ev.MethodNamespace = d.UTF16CString()
		ev.MethodName = d.UTF16CString()
		ev.MethodSignature = d.UTF16CString()
	}
	if version >= 1 {
		v := d.U16()
		ev.ClrInstanceID = &v
	}
	if version >= 2 {
		v := d.U64()
		ev.ReJITID = &v
	}
	return ev
}

// GcTriggeredEvent is the payload of a GCTriggered event (id 35).
type GcTriggeredEvent struct {
	Reason        GcReason
	ClrInstanceID uint16
}

func decodeGcTriggered(d *nettrace.PayloadDecoder) GcTriggeredEvent {
	return GcTriggeredEvent{
		Reason:        gcReasonFromWire(d.U32()),
		ClrInstanceID: d.U16(),
	}
}

// GcStartEvent is the payload of a GCStart event.
type GcStartEvent struct {
	Count                uint32
	Depth                *uint32 // version >= 1
	Reason               GcReason
	Type                 *GcType // version >= 1
	ClrInstanceID        *uint16 // version >= 1
	ClientSequenceNumber *uint64 // version >= 2
}

func decodeGcStart(d *nettrace.PayloadDecoder, version uint32) GcStartEvent {
	var ev GcStartEvent
	ev.Count = d.U32()
	if version >= 1 {
		v := d.U32()
		ev.Depth = &v
	}
	ev.Reason = gcReasonFromWire(d.U32())
	if version >= 1 {
		t := gcTypeFromWire(d.U32())
		ev.Type = &t
		v := d.U16()
		ev.ClrInstanceID = &v
	}
	if version >= 2 {
		v := d.U64()
		ev.ClientSequenceNumber = &v
	}
	return ev
}

// GcEndEvent is the payload of a GCEnd event.
type GcEndEvent struct {
	Count  uint32
	Depth  uint32
	Reason *GcReason // version >= 1
}

func decodeGcEnd(d *nettrace.PayloadDecoder, version uint32) GcEndEvent {
	var ev GcEndEvent
	ev.Count = d.U32()
	ev.Depth = d.U32()
	if version >= 1 {
		r := gcReasonFromWire(d.U32())
		ev.Reason = &r
	}
	return ev
}

// GcAllocationTickEvent is the payload of a GCAllocationTick event
// (id 10). Fields beyond AllocationAmount/Kind/ClrInstanceID only
// appear from version 2 onward.
type GcAllocationTickEvent struct {
	AllocationAmount   uint32
	AllocationKind     GcAllocationKind
	ClrInstanceID      uint16
	AllocationAmount64 *uint64 // version >= 2
	TypeID             *uint64 // version >= 2
	TypeName           string  // version >= 2
	HeapIndex          *uint32 // version >= 2
	Address            *uint64 // version >= 3
	ObjectSize         *uint64 // version >= 4
}

func decodeGcAllocationTick(d *nettrace.PayloadDecoder, version uint32) GcAllocationTickEvent {
	var ev GcAllocationTickEvent
	ev.AllocationAmount = d.U32()
	ev.AllocationKind = gcAllocationKindFromWire(d.U32())
	ev.ClrInstanceID = d.U16()
	if version >= 2 {
		v := d.U64()
		ev.AllocationAmount64 = &v
		t := d.U64()
		ev.TypeID = &t
		ev.TypeName = d.UTF16CString()
		h := d.U32()
		ev.HeapIndex = &h
	}
	if version >= 3 {
		a := d.U64()
		ev.Address = &a
	}
	if version >= 4 {
		s := d.U64()
		ev.ObjectSize = &s
	}
	return ev
}

// GcSampledObjectAllocationEvent is the payload of a sampled-allocation
// event (ids 20/30, high- and low-frequency variants sharing one shape).
type GcSampledObjectAllocationEvent struct {
	Address                  uint64
	TypeID                   uint64
	ObjectCountForTypeSample uint32
	TotalSizeForTypeSample   uint64
	ClrInstanceID            uint16
}

func decodeGcSampledObjectAllocation(d *nettrace.PayloadDecoder) GcSampledObjectAllocationEvent {
	return GcSampledObjectAllocationEvent{
		Address:                  d.U64(),
		TypeID:                   d.U64(),
		ObjectCountForTypeSample: d.U32(),
		TotalSizeForTypeSample:   d.U64(),
		ClrInstanceID:            d.U16(),
	}
}

// ReadyToRunGetEntryPointEvent is the payload of an R2R entry-point
// event (id 159).
type ReadyToRunGetEntryPointEvent struct {
	MethodID        uint64
	MethodNamespace string
	MethodName      string
	MethodSignature string
	EntryPoint      uint64
	ClrInstanceID   uint16
}

func decodeReadyToRunGetEntryPoint(d *nettrace.PayloadDecoder) ReadyToRunGetEntryPointEvent {
	var ev ReadyToRunGetEntryPointEvent
	ev.MethodID = d.U64()
	ev.MethodNamespace = d.UTF16CString()
	ev.MethodName = d.UTF16CString()
	ev.MethodSignature = d.UTF16CString()
	ev.EntryPoint = d.U64()
	ev.ClrInstanceID = d.U16()
	return ev
}

// Event is the closed set of decoded CoreCLR event payloads this
// package knows how to produce. The concrete type is one of the
// Event* wrappers below; switch on it to recover the payload.
type Event interface {
	isCoreClrEvent()
}

// EventModuleLoad wraps a ModuleLoad or DomainModuleLoad payload.
type EventModuleLoad struct{ ModuleLoadUnloadEvent }

// EventModuleUnload wraps a ModuleUnload payload.
type EventModuleUnload struct{ ModuleLoadUnloadEvent }

// EventMethodLoad wraps a MethodLoad/MethodLoadVerbose payload, or a
// MethodDCEndVerbose payload (event id 144 on the rundown provider).
type EventMethodLoad struct{ MethodLoadUnloadEvent }

// EventMethodUnload wraps a MethodUnload payload, or a
// MethodUnloadVerbose payload (event id 144 on the regular provider).
type EventMethodUnload struct{ MethodLoadUnloadEvent }

// EventGcTriggered wraps a GCTriggered payload.
type EventGcTriggered struct{ GcTriggeredEvent }

// EventGcStart wraps a GCStart payload.
type EventGcStart struct{ GcStartEvent }

// EventGcEnd wraps a GCEnd payload.
type EventGcEnd struct{ GcEndEvent }

// EventGcAllocationTick wraps a GCAllocationTick payload.
type EventGcAllocationTick struct{ GcAllocationTickEvent }

// EventGcSampledObjectAllocation wraps a sampled-allocation payload.
type EventGcSampledObjectAllocation struct{ GcSampledObjectAllocationEvent }

// EventReadyToRunGetEntryPoint wraps an R2R entry-point payload.
type EventReadyToRunGetEntryPoint struct{ ReadyToRunGetEntryPointEvent }

func (EventModuleLoad) isCoreClrEvent()                {}
func (EventModuleUnload) isCoreClrEvent()              {}
func (EventMethodLoad) isCoreClrEvent()                {}
func (EventMethodUnload) isCoreClrEvent()              {}
func (EventGcTriggered) isCoreClrEvent()               {}
func (EventGcStart) isCoreClrEvent()                   {}
func (EventGcEnd) isCoreClrEvent()                     {}
func (EventGcAllocationTick) isCoreClrEvent()          {}
func (EventGcSampledObjectAllocation) isCoreClrEvent() {}
func (EventReadyToRunGetEntryPoint) isCoreClrEvent()   {}

// The provider names this package recognizes.
const (
	ProviderRuntime = "Microsoft-Windows-DotNETRuntime"
	ProviderRundown = "Microsoft-Windows-DotNETRuntimeRundown"
)

// CoreClr event ids, from the Microsoft-Windows-DotNETRuntime manifest.
const (
	EventIDGCStart                       = 1
	EventIDGCEnd                         = 2
	EventIDGCAllocationTick              = 10
	EventIDGCSampledObjectAllocationHigh = 20
	EventIDGCSampledObjectAllocationLow  = 30
	EventIDGCTriggered                   = 35
	EventIDMethodLoad                    = 141
	EventIDMethodUnload                  = 142
	EventIDMethodLoadVerbose             = 143
	EventIDMethodUnloadVerbose           = 144 // MethodDCEndVerbose on the rundown provider
	EventIDDomainModuleLoad              = 151
	EventIDModuleLoad                    = 152
	EventIDModuleUnload                  = 153
	EventIDReadyToRunGetEntryPoint       = 159
)
