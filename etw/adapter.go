// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package etw

import (
	"encoding/binary"
	"fmt"

	"github.com/aclements/go-nettrace/coreclr"
	"github.com/aclements/go-nettrace/nettrace"
)

type pendingEvent struct {
	meta  nettrace.EventMetadata
	event nettrace.NormalizedEvent
}

// Adapter converts CoreCLR events delivered by an ETW session, one row
// at a time, into the normalized event vocabulary. Unlike the EventPipe
// path, stack-walk addresses for an event arrive as a separate
// subsequent event rather than inline, so the adapter holds a one-slot
// pending-event buffer per thread: a non-stackwalk event is held until
// either a following CLRStack/CLRStackWalk event attaches a stack to
// it, or another unrelated event on the same thread displaces it
// unattached.
//
// An Adapter is not safe for concurrent use; an ETW session delivers
// events from a single dispatch thread.
type Adapter struct {
	pending map[uint32]pendingEvent
}

// NewAdapter returns an empty Adapter.
func NewAdapter() *Adapter {
	return &Adapter{pending: make(map[uint32]pendingEvent)}
}

// Ingest processes one ETW row. name is "<Provider>/<Task>/<Opcode>";
// timestamp, processID, and threadID come from the session's common
// event header; p exposes the event's typed payload fields by name.
//
// It returns the event that was flushed by this call, if any: either
// the stack-completed event that was pending for threadID, or the event
// that this call's arrival displaced from the pending slot. It does NOT
// return the event this call itself produces, if any — that becomes
// the new pending event for threadID and is returned by a later call.
func (a *Adapter) Ingest(name string, timestamp uint64, processID, threadID uint32, p PropertyParser) (nettrace.EventMetadata, nettrace.NormalizedEvent, bool) {
	provider, task, opcode, ok := splitEventName(name)
	if !ok || (provider != ProviderRuntime && provider != ProviderRundown) {
		return nettrace.EventMetadata{}, nil, false
	}
	task, opcode = renameUnmergedTaskOpcode(task, opcode)

	pending, hadPending := a.pending[threadID]
	delete(a.pending, threadID)

	if task == "CLRStack" && opcode == "CLRStackWalk" {
		if !hadPending {
			return nettrace.EventMetadata{}, nil, false
		}
		pending.meta.Stack = decodeStackWalk(p)
		return pending.meta, pending.event, true
	}

	meta := nettrace.EventMetadata{
		Timestamp: timestamp,
		ProcessID: processID,
		ThreadID:  threadID,
		IsRundown: provider == ProviderRundown,
	}

	if event, ok := decodeEvent(task, opcode, p); ok {
		a.pending[threadID] = pendingEvent{meta: meta, event: event}
	}

	if hadPending {
		return pending.meta, pending.event, true
	}
	return nettrace.EventMetadata{}, nil, false
}

// Drain flushes every still-pending event, for use at session teardown
// when no further stack-walk will ever arrive to complete them.
func (a *Adapter) Drain() []struct {
	Metadata nettrace.EventMetadata
	Event    nettrace.NormalizedEvent
} {
	out := make([]struct {
		Metadata nettrace.EventMetadata
		Event    nettrace.NormalizedEvent
	}, 0, len(a.pending))
	for _, pe := range a.pending {
		out = append(out, struct {
			Metadata nettrace.EventMetadata
			Event    nettrace.NormalizedEvent
		}{pe.meta, pe.event})
	}
	a.pending = make(map[uint32]pendingEvent)
	return out
}

// decodeStackWalk reassembles a CLRStackWalk event's address vector:
// the "Stack" field is declared as exactly two addresses in the
// manifest, with any remaining addresses in the event's trailing
// buffer.
func decodeStackWalk(p PropertyParser) []uint64 {
	head := p.ParseBytes("Stack")
	tail := p.Buffer()
	addrs := make([]uint64, 0, (len(head)+len(tail))/8)
	for _, buf := range [][]byte{head, tail} {
		for len(buf) >= 8 {
			addrs = append(addrs, binary.LittleEndian.Uint64(buf))
			buf = buf[8:]
		}
	}
	return addrs
}

// decodeEvent builds a normalized event directly from an ETW row's
// named fields. This deliberately does not reuse nettrace's positional
// payload decoder: ETW events are addressed by field name, EventPipe
// events by schema-ordered position, and the two decode strategies
// don't share enough to be worth unifying.
func decodeEvent(task, opcode string, p PropertyParser) (nettrace.NormalizedEvent, bool) {
	switch task {
	case "CLRMethod", "CLRMethodRundown":
		return decodeMethodEvent(opcode, p)
	case "CLRLoader", "CLRLoaderRundown":
		return decodeLoaderEvent(opcode, p)
	case "GarbageCollection":
		return decodeGcEvent(opcode, p)
	default:
		return nil, false
	}
}

func decodeMethodEvent(opcode string, p PropertyParser) (nettrace.NormalizedEvent, bool) {
	switch opcode {
	case "MethodLoadVerbose", "MethodDCStartVerbose", "MethodDCEndVerbose":
		name := methodNameFrom(p)
		return nettrace.NormalizedMethodLoad{
			ModuleID:     p.ParseUint64("ModuleID"),
			StartAddress: p.ParseUint64("MethodStartAddress"),
			Size:         p.ParseUint32("MethodSize"),
			Name:         name,
		}, true
	case "MethodUnloadVerbose":
		name := methodNameFrom(p)
		return nettrace.NormalizedMethodUnload{
			ModuleID:     p.ParseUint64("ModuleID"),
			StartAddress: p.ParseUint64("MethodStartAddress"),
			Size:         p.ParseUint32("MethodSize"),
			Name:         name,
		}, true
	default:
		return nil, false
	}
}

func methodNameFrom(p PropertyParser) nettrace.MethodName {
	name := p.ParseString("MethodName")
	if name == "" {
		addr := p.ParseUint64("MethodStartAddress")
		name = fmt.Sprintf("JIT[0x%x]", addr)
	}
	return nettrace.MethodName{
		Name:      name,
		Namespace: p.ParseString("MethodNamespace"),
		Signature: p.ParseString("MethodSignature"),
	}
}

func decodeLoaderEvent(opcode string, p PropertyParser) (nettrace.NormalizedEvent, bool) {
	switch opcode {
	case "ModuleLoad", "ModuleDCStart":
		return nettrace.NormalizedModuleLoad{
			ModuleID:   p.ParseUint64("ModuleID"),
			AssemblyID: p.ParseUint64("AssemblyID"),
			ILPath:     p.ParseString("ModuleILPath"),
			NativePath: p.ParseString("ModuleNativePath"),
		}, true
	case "ModuleUnload", "ModuleDCStop":
		return nettrace.NormalizedModuleUnload{
			ModuleID:   p.ParseUint64("ModuleID"),
			AssemblyID: p.ParseUint64("AssemblyID"),
			ILPath:     p.ParseString("ModuleILPath"),
			NativePath: p.ParseString("ModuleNativePath"),
		}, true
	default:
		return nil, false
	}
}

func decodeGcEvent(opcode string, p PropertyParser) (nettrace.NormalizedEvent, bool) {
	switch opcode {
	case "Triggered":
		reason := gcReasonOrWarn(p.ParseUint32("Reason"))
		return nettrace.NormalizedGcTriggered{Reason: reason}, true

	case "win:Start":
		count := p.ParseUint32("Count")
		reason := gcReasonOrWarn(p.ParseUint32("Reason"))
		ev := nettrace.NormalizedGcStart{Count: count, Reason: reason}
		if depth, ok := p.TryParseUint32("Depth"); ok {
			ev.Depth = &depth
		}
		if t, ok := p.TryParseUint32("Type"); ok {
			gt := gcTypeOrWarn(t)
			ev.Type = &gt
		}
		return ev, true

	case "win:Stop":
		ev := nettrace.NormalizedGcEnd{
			Count: p.ParseUint32("Count"),
			Depth: p.ParseUint32("Depth"),
		}
		if r, ok := p.TryParseUint32("Reason"); ok {
			reason := gcReasonOrWarn(r)
			ev.Reason = &reason
		}
		return ev, true

	case "GCSampledObjectAllocation":
		return nettrace.NormalizedGcSampledObjectAllocation{
			Address:     p.ParseUint64("Address"),
			TypeName:    fmt.Sprintf("Type[%d]", p.ParseUint64("TypeID")),
			ObjectCount: p.ParseUint32("ObjectCountForTypeSample"),
			TotalSize:   p.ParseUint64("TotalSizeForTypeSample"),
		}, true

	case "GCAllocationTick":
		ev := nettrace.NormalizedGcAllocationTick{
			Kind: coreclr.GcAllocationKind(p.ParseUint32("AllocationKind")),
			Size: uint64(p.ParseUint32("AllocationAmount")),
		}
		if v, ok := p.TryParseUint64("AllocationAmount64"); ok {
			ev.Size = v
		}
		if name := p.ParseString("TypeName"); name != "" {
			ev.TypeName = name
		} else if id, ok := p.TryParseUint64("TypeID"); ok {
			ev.TypeName = fmt.Sprintf("Type[%d]", id)
		}
		return ev, true

	default:
		return nil, false
	}
}
