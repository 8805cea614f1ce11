// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coreclr

import "github.com/aclements/go-nettrace/nettrace"

// Decode decodes a RawEvent's payload into a typed CoreCLR Event, if its
// provider and event id are recognized. Unknown providers and unknown
// event ids are both reported by ok == false, matching the recoverable
// "drop event, continue" policy: the caller treats a false return as
// "nothing to normalize", not an error.
//
// Event id 144 means MethodUnloadVerbose on the regular provider but
// MethodDCEndVerbose on the rundown provider: the same payload shape
// describes a still-loaded method being enumerated at rundown, not an
// unload, so it decodes to EventMethodLoad there instead of
// EventMethodUnload. This disambiguation depends solely on provider
// name; there is no in-payload discriminator.
func Decode(providerName string, eventID, version uint32, payload []byte) (Event, bool) {
	if providerName != ProviderRuntime && providerName != ProviderRundown {
		return nil, false
	}
	isRundown := providerName == ProviderRundown
	d := nettrace.NewPayloadDecoder(payload)

	switch eventID {
	case EventIDDomainModuleLoad:
		return EventModuleLoad{decodeModuleLoadUnload(d, version, true)}, true
	case EventIDModuleLoad:
		return EventModuleLoad{decodeModuleLoadUnload(d, version, false)}, true
	case EventIDModuleUnload:
		return EventModuleUnload{decodeModuleLoadUnload(d, version, false)}, true
	case EventIDReadyToRunGetEntryPoint:
		return EventReadyToRunGetEntryPoint{decodeReadyToRunGetEntryPoint(d)}, true
	case EventIDMethodLoad:
		return EventMethodLoad{decodeMethodLoadUnload(d, version, false)}, true
	case EventIDMethodLoadVerbose:
		return EventMethodLoad{decodeMethodLoadUnload(d, version, true)}, true
	case EventIDMethodUnload:
		return EventMethodUnload{decodeMethodLoadUnload(d, version, false)}, true
	case EventIDMethodUnloadVerbose:
		ev := decodeMethodLoadUnload(d, version, true)
		if isRundown {
			return EventMethodLoad{ev}, true
		}
		return EventMethodUnload{ev}, true
	case EventIDGCTriggered:
		return EventGcTriggered{decodeGcTriggered(d)}, true
	case EventIDGCStart:
		return EventGcStart{decodeGcStart(d, version)}, true
	case EventIDGCEnd:
		return EventGcEnd{decodeGcEnd(d, version)}, true
	case EventIDGCAllocationTick:
		return EventGcAllocationTick{decodeGcAllocationTick(d, version)}, true
	case EventIDGCSampledObjectAllocationHigh, EventIDGCSampledObjectAllocationLow:
		return EventGcSampledObjectAllocation{decodeGcSampledObjectAllocation(d)}, true
	default:
		return nil, false
	}
}
