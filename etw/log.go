// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package etw

import (
	"sync"

	"go.uber.org/zap"

	"github.com/aclements/go-nettrace/coreclr"
)

var logger = zap.NewNop()

var warnedEnums sync.Map // set of enumKey values already logged

type enumKey struct {
	enum  string
	value uint32
}

// warnUnknownEnum logs msg once per distinct (enum, value) pair.
func warnUnknownEnum(enum, msg string, v uint32) {
	if _, loaded := warnedEnums.LoadOrStore(enumKey{enum, v}, true); loaded {
		return
	}
	logger.Warn(msg, zap.Uint32("value", v))
}

// SetLogger installs the *zap.Logger used to report unrecognized GC
// reason/type values encountered while decoding ETW rows.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

func gcReasonOrWarn(v uint32) coreclr.GcReason {
	switch coreclr.GcReason(v) {
	case coreclr.GcReasonAllocSmall, coreclr.GcReasonInduced, coreclr.GcReasonLowMemory,
		coreclr.GcReasonEmpty, coreclr.GcReasonAllocLargeObjectHeap,
		coreclr.GcReasonOutOfSpaceSmallObjectHeap, coreclr.GcReasonOutOfSpaceLargeObjectHeap,
		coreclr.GcReasonInducedNotForced, coreclr.GcReasonStress, coreclr.GcReasonInducedLowMemory:
		return coreclr.GcReason(v)
	default:
		warnUnknownEnum("GcReason", "etw: unknown GC reason", v)
		return coreclr.GcReasonUnknown
	}
}

func gcTypeOrWarn(v uint32) coreclr.GcType {
	switch coreclr.GcType(v) {
	case coreclr.GcTypeBlocking, coreclr.GcTypeBackground, coreclr.GcTypeBlockingDuringBackground:
		return coreclr.GcType(v)
	default:
		warnUnknownEnum("GcType", "etw: unknown GC type", v)
		return coreclr.GcTypeUnknown
	}
}
