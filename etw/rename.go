// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package etw adapts CoreCLR events delivered by a Windows ETW session
// into the same normalized event vocabulary nettrace produces from an
// EventPipe stream.
package etw

import "strings"

// The two CoreCLR ETW provider names.
const (
	ProviderRuntime = "Microsoft-Windows-DotNETRuntime"
	ProviderRundown = "Microsoft-Windows-DotNETRuntimeRundown"
)

// renameUnmergedTaskOpcode undoes the name mangling that shows up when
// an ETW session is consumed from an unmerged per-process ETL rather
// than a merged trace: task and opcode names arrive with trailing
// whitespace and without the "CLR" prefixing the manifest otherwise
// applies. Names that don't show this symptom (no trailing space) pass
// through unchanged.
//
// PerHeapHisory is a verbatim transcription of the wire event name; the
// manifest itself carries the typo and this preserves it rather than
// "fixing" it into a name that would never match the trace.
func renameUnmergedTaskOpcode(task, opcode string) (string, string) {
	if !strings.HasSuffix(task, " ") && !strings.HasSuffix(opcode, " ") {
		return task, opcode
	}
	task = strings.TrimSpace(task)
	opcode = strings.TrimSpace(opcode)

	switch task {
	case "Method":
		task = "CLRMethod"
		switch opcode {
		case "LoadVerbose":
			opcode = "MethodLoadVerbose"
		case "UnloadVerbose":
			opcode = "MethodUnloadVerbose"
		case "DCStartVerbose":
			opcode = "MethodDCStartVerbose"
		case "DCEndVerbose":
			opcode = "MethodDCEndVerbose"
		case "JittingStarted":
			opcode = "MethodJittingStarted"
		}
	case "Loader":
		task = "CLRLoader"
		if opcode == "ModuleDCStart" {
			opcode = "ModuleDCStart"
		}
	case "Runtime":
		task = "CLRRuntimeInformation"
	case "GC":
		task = "GarbageCollection"
		switch opcode {
		case "PerHeapHisory", "GCDynamicEvent":
			// pass through verbatim, including the typo
		case "Start":
			opcode = "win:Start"
		case "Stop":
			opcode = "win:Stop"
		case "RestartEEStart":
			opcode = "GCRestartEEBegin"
		case "RestartEEStop":
			opcode = "GCRestartEEEnd"
		case "SuspendEEStart":
			opcode = "GCSuspendEEBegin"
		case "SuspendEEStop":
			opcode = "GCSuspendEEEnd"
		}
	case "ClrStack":
		task = "CLRStack"
		if opcode == "Walk" {
			opcode = "CLRStackWalk"
		}
	}
	return task, opcode
}

// splitEventName splits an ETW typed-event name of the form
// "<Provider>/<Task>/<Opcode>" into its three parts.
func splitEventName(name string) (provider, task, opcode string, ok bool) {
	parts := strings.SplitN(name, "/", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}
