// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nettrace

import (
	"fmt"

	"github.com/aclements/go-nettrace/coreclr"
)

// normalizeCoreClr decodes a RawEvent's payload as a CoreCLR event and
// maps it into the shared normalized vocabulary. ok is false when the
// provider or event id wasn't recognized; per the recoverable-error
// policy, that is not an error, just nothing to yield.
func normalizeCoreClr(ev RawEvent) (EventMetadata, NormalizedEvent, bool) {
	decoded, ok := coreclr.Decode(ev.ProviderName, ev.EventID, ev.Version, ev.Payload)
	if !ok {
		return EventMetadata{}, nil, false
	}

	meta := EventMetadata{
		Timestamp:  ev.Timestamp,
		ProcessID:  ProcessIDUnknown,
		ThreadID:   uint32(ev.ThreadID),
		IsRundown:  ev.ProviderName == coreclr.ProviderRundown,
		ActivityID: ev.ActivityID,
	}
	if len(ev.Stack) > 0 {
		meta.Stack = ev.Stack
	}

	switch e := decoded.(type) {
	case coreclr.EventModuleLoad:
		return meta, NormalizedModuleLoad{
			ModuleID:   e.ModuleID,
			AssemblyID: e.AssemblyID,
			ILPath:     e.ModuleILPath,
			NativePath: e.ModuleNativePath,
		}, true

	case coreclr.EventModuleUnload:
		return meta, NormalizedModuleUnload{
			ModuleID:   e.ModuleID,
			AssemblyID: e.AssemblyID,
			ILPath:     e.ModuleILPath,
			NativePath: e.ModuleNativePath,
		}, true

	case coreclr.EventMethodLoad:
		return meta, NormalizedMethodLoad{
			ModuleID:     e.ModuleID,
			StartAddress: e.MethodStartAddress,
			Size:         e.MethodSize,
			Name:         methodNameOf(e.MethodName, e.MethodNamespace, e.MethodSignature, e.MethodStartAddress),
		}, true

	case coreclr.EventMethodUnload:
		return meta, NormalizedMethodUnload{
			ModuleID:     e.ModuleID,
			StartAddress: e.MethodStartAddress,
			Size:         e.MethodSize,
			Name:         methodNameOf(e.MethodName, e.MethodNamespace, e.MethodSignature, e.MethodStartAddress),
		}, true

	case coreclr.EventGcTriggered:
		return meta, NormalizedGcTriggered{Reason: e.Reason}, true

	case coreclr.EventGcStart:
		return meta, NormalizedGcStart{
			Count:  e.Count,
			Reason: e.Reason,
			Depth:  e.Depth,
			Type:   e.Type,
		}, true

	case coreclr.EventGcEnd:
		return meta, NormalizedGcEnd{
			Count:  e.Count,
			Depth:  e.Depth,
			Reason: e.Reason,
		}, true

	case coreclr.EventGcAllocationTick:
		typeName := e.TypeName
		if typeName == "" && e.TypeID != nil {
			typeName = fmt.Sprintf("Type[%d]", *e.TypeID)
		}
		size := e.AllocationAmount64
		if size == nil {
			v := uint64(e.AllocationAmount)
			size = &v
		}
		return meta, NormalizedGcAllocationTick{
			Kind:     e.AllocationKind,
			Size:     *size,
			TypeName: typeName,
		}, true

	case coreclr.EventGcSampledObjectAllocation:
		return meta, NormalizedGcSampledObjectAllocation{
			Address:     e.Address,
			TypeName:    fmt.Sprintf("Type[%d]", e.TypeID),
			ObjectCount: e.ObjectCountForTypeSample,
			TotalSize:   e.TotalSizeForTypeSample,
		}, true

	case coreclr.EventReadyToRunGetEntryPoint:
		return meta, NormalizedReadyToRunMethodEntryPoint{
			StartAddress: e.EntryPoint,
			Name:         methodNameOf(e.MethodName, e.MethodNamespace, e.MethodSignature, e.EntryPoint),
		}, true

	default:
		return EventMetadata{}, nil, false
	}
}

// methodNameOf builds a MethodName, falling back to a synthesized
// "JIT[0x...]" name when the schema carried no method name (the
// non-verbose MethodLoad/MethodUnload variants never do).
func methodNameOf(name, namespace, signature string, fallbackAddress uint64) MethodName {
	if name == "" {
		name = fmt.Sprintf("JIT[0x%x]", fallbackAddress)
	}
	return MethodName{Name: name, Namespace: namespace, Signature: signature}
}
