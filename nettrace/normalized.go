// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nettrace

import (
	"github.com/google/uuid"

	"github.com/aclements/go-nettrace/coreclr"
)

// ProcessIDUnknown is the EventMetadata.ProcessID sentinel used for
// events from a single-process EventPipe stream, which carries no
// process id of its own; the caller is expected to fill in the real
// process id with a post-hoc decorator if it knows it.
const ProcessIDUnknown = ^uint32(0)

// EventMetadata is the metadata shared by every normalized event,
// regardless of whether it came from an EventPipe stream or an ETW
// session.
type EventMetadata struct {
	Timestamp  uint64
	ProcessID  uint32
	ThreadID   uint32
	Stack      []uint64 // nil if unresolved or not yet attached
	IsRundown  bool
	ActivityID uuid.UUID // zero UUID if the source record carried none
}

// NormalizedEvent is the closed set of runtime-agnostic events this
// package produces. The concrete type is one of the Normalized*
// structs below.
type NormalizedEvent interface {
	isNormalizedEvent()
}

// MethodName is the three-part name the CoreCLR JIT reports for a
// method: declaring namespace, simple name, and signature.
type MethodName = coreclr.MethodName

type NormalizedModuleLoad struct {
	ModuleID   uint64
	AssemblyID uint64
	ILPath     string
	NativePath string
}

type NormalizedModuleUnload struct {
	ModuleID   uint64
	AssemblyID uint64
	ILPath     string
	NativePath string
}

type NormalizedMethodLoad struct {
	ModuleID     uint64
	StartAddress uint64
	Size         uint32
	Name         MethodName
}

type NormalizedMethodUnload struct {
	ModuleID     uint64
	StartAddress uint64
	Size         uint32
	Name         MethodName
}

type NormalizedGcTriggered struct {
	Reason coreclr.GcReason
}

type NormalizedGcStart struct {
	Count  uint32
	Reason coreclr.GcReason
	Depth  *uint32
	Type   *coreclr.GcType
}

type NormalizedGcEnd struct {
	Count  uint32
	Depth  uint32
	Reason *coreclr.GcReason
}

type NormalizedGcAllocationTick struct {
	Kind     coreclr.GcAllocationKind
	Size     uint64
	TypeName string // the runtime's own type name when the schema carried one, else "Type[<id>]"
}

type NormalizedGcSampledObjectAllocation struct {
	Address     uint64
	TypeName    string // synthesized as "Type[<id>]": the wire payload carries only a type id
	ObjectCount uint32
	TotalSize   uint64
}

type NormalizedReadyToRunMethodEntryPoint struct {
	StartAddress uint64
	Name         MethodName
}

func (NormalizedModuleLoad) isNormalizedEvent()                 {}
func (NormalizedModuleUnload) isNormalizedEvent()               {}
func (NormalizedMethodLoad) isNormalizedEvent()                 {}
func (NormalizedMethodUnload) isNormalizedEvent()               {}
func (NormalizedGcTriggered) isNormalizedEvent()                {}
func (NormalizedGcStart) isNormalizedEvent()                    {}
func (NormalizedGcEnd) isNormalizedEvent()                      {}
func (NormalizedGcAllocationTick) isNormalizedEvent()           {}
func (NormalizedGcSampledObjectAllocation) isNormalizedEvent()  {}
func (NormalizedReadyToRunMethodEntryPoint) isNormalizedEvent() {}
