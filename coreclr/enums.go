// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coreclr decodes CoreCLR EventPipe event payloads — the
// managed-runtime-specific schemas carried by events whose provider is
// Microsoft-Windows-DotNETRuntime or its Rundown counterpart — into
// typed Go values.
package coreclr

// GcReason is the CoreCLR GCReason enumeration: why a collection ran.
type GcReason uint32

const (
	GcReasonAllocSmall                GcReason = 0
	GcReasonInduced                   GcReason = 1
	GcReasonLowMemory                 GcReason = 2
	GcReasonEmpty                     GcReason = 3
	GcReasonAllocLargeObjectHeap      GcReason = 4
	GcReasonOutOfSpaceSmallObjectHeap GcReason = 5
	GcReasonOutOfSpaceLargeObjectHeap GcReason = 6
	GcReasonInducedNotForced          GcReason = 7
	GcReasonStress                    GcReason = 8
	GcReasonInducedLowMemory          GcReason = 9

	// GcReasonUnknown is the fallback for a value outside the known set.
	GcReasonUnknown GcReason = 0xffffffff
)

func (r GcReason) String() string {
	switch r {
	case GcReasonAllocSmall:
		return "Small object heap allocation"
	case GcReasonInduced:
		return "Induced"
	case GcReasonLowMemory:
		return "Low memory"
	case GcReasonEmpty:
		return "Empty"
	case GcReasonAllocLargeObjectHeap:
		return "Large object heap allocation"
	case GcReasonOutOfSpaceSmallObjectHeap:
		return "Out of space (for small object heap)"
	case GcReasonOutOfSpaceLargeObjectHeap:
		return "Out of space (for large object heap)"
	case GcReasonInducedNotForced:
		return "Induced but not forced as blocking"
	case GcReasonStress:
		return "Stress"
	case GcReasonInducedLowMemory:
		return "Induced low memory"
	default:
		return "Unknown"
	}
}

func gcReasonFromWire(v uint32) GcReason {
	r := GcReason(v)
	switch r {
	case GcReasonAllocSmall, GcReasonInduced, GcReasonLowMemory, GcReasonEmpty,
		GcReasonAllocLargeObjectHeap, GcReasonOutOfSpaceSmallObjectHeap,
		GcReasonOutOfSpaceLargeObjectHeap, GcReasonInducedNotForced,
		GcReasonStress, GcReasonInducedLowMemory:
		return r
	default:
		logUnknownEnum("GcReason", v)
		return GcReasonUnknown
	}
}

// GcAllocationKind is the heap an allocation-tick event was charged to.
type GcAllocationKind uint32

const (
	GcAllocationKindSmall  GcAllocationKind = 0
	GcAllocationKindLarge  GcAllocationKind = 1
	GcAllocationKindPinned GcAllocationKind = 2

	GcAllocationKindUnknown GcAllocationKind = 0xffffffff
)

func (k GcAllocationKind) String() string {
	switch k {
	case GcAllocationKindSmall:
		return "Small"
	case GcAllocationKindLarge:
		return "Large"
	case GcAllocationKindPinned:
		return "Pinned"
	default:
		return "Unknown"
	}
}

func gcAllocationKindFromWire(v uint32) GcAllocationKind {
	k := GcAllocationKind(v)
	switch k {
	case GcAllocationKindSmall, GcAllocationKindLarge, GcAllocationKindPinned:
		return k
	default:
		logUnknownEnum("GcAllocationKind", v)
		return GcAllocationKindUnknown
	}
}

// GcType distinguishes blocking, background, and hybrid collections.
type GcType uint32

const (
	GcTypeBlocking                 GcType = 0
	GcTypeBackground               GcType = 1
	GcTypeBlockingDuringBackground GcType = 2

	GcTypeUnknown GcType = 0xffffffff
)

func (t GcType) String() string {
	switch t {
	case GcTypeBlocking:
		return "Blocking GC"
	case GcTypeBackground:
		return "Background GC"
	case GcTypeBlockingDuringBackground:
		return "Blocking GC during background GC"
	default:
		return "Unknown"
	}
}

func gcTypeFromWire(v uint32) GcType {
	t := GcType(v)
	switch t {
	case GcTypeBlocking, GcTypeBackground, GcTypeBlockingDuringBackground:
		return t
	default:
		logUnknownEnum("GcType", v)
		return GcTypeUnknown
	}
}

// GcSuspendEeReason is why the runtime suspended managed execution.
type GcSuspendEeReason uint32

const (
	GcSuspendEeReasonOther             GcSuspendEeReason = 0
	GcSuspendEeReasonGC                GcSuspendEeReason = 1
	GcSuspendEeReasonAppDomainShutdown GcSuspendEeReason = 2
	GcSuspendEeReasonCodePitching      GcSuspendEeReason = 3
	GcSuspendEeReasonShutdown          GcSuspendEeReason = 4
	GcSuspendEeReasonDebugger          GcSuspendEeReason = 5
	GcSuspendEeReasonGcPrep            GcSuspendEeReason = 6
	GcSuspendEeReasonDebuggerSweep     GcSuspendEeReason = 7

	GcSuspendEeReasonUnknown GcSuspendEeReason = 0xffffffff
)

func (r GcSuspendEeReason) String() string {
	switch r {
	case GcSuspendEeReasonOther:
		return "Other"
	case GcSuspendEeReasonGC:
		return "GC"
	case GcSuspendEeReasonAppDomainShutdown:
		return "AppDomain shutdown"
	case GcSuspendEeReasonCodePitching:
		return "Code pitching"
	case GcSuspendEeReasonShutdown:
		return "Shutdown"
	case GcSuspendEeReasonDebugger:
		return "Debugger"
	case GcSuspendEeReasonGcPrep:
		return "GC prep"
	case GcSuspendEeReasonDebuggerSweep:
		return "Debugger sweep"
	default:
		return "Unknown"
	}
}
