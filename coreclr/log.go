// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coreclr

import (
	"sync"

	"go.uber.org/zap"
)

var logger = zap.NewNop()

// SetLogger installs the *zap.Logger used to report recoverable decode
// anomalies (unknown enum values; unknown event ids are dropped without
// logging). The default is a
// no-op logger; callers that want visibility into these should install
// one of their own, e.g. via zap.NewProduction().
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

var warnedEnums sync.Map // set of enumKey values already logged

// logUnknownEnum logs an out-of-range enum value exactly once per
// distinct (enum, value) pair, per the spec's "log once" recovery policy.
func logUnknownEnum(enumName string, value uint32) {
	if _, loaded := warnedEnums.LoadOrStore(enumKey{enumName, value}, true); loaded {
		return
	}
	logger.Warn("coreclr: unknown enum value",
		zap.String("enum", enumName),
		zap.Uint32("value", value),
	)
}

type enumKey struct {
	enum  string
	value uint32
}
