// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coreclr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGcReasonFromWireKnownValue(t *testing.T) {
	require.Equal(t, GcReasonInduced, gcReasonFromWire(1))
	require.Equal(t, "Induced", GcReasonInduced.String())
}

func TestGcReasonFromWireUnknownValue(t *testing.T) {
	require.Equal(t, GcReasonUnknown, gcReasonFromWire(0xdead))
	require.Equal(t, "Unknown", GcReasonUnknown.String())
}

func TestGcAllocationKindFromWire(t *testing.T) {
	require.Equal(t, GcAllocationKindLarge, gcAllocationKindFromWire(1))
	require.Equal(t, GcAllocationKindUnknown, gcAllocationKindFromWire(42))
}

func TestGcTypeFromWire(t *testing.T) {
	require.Equal(t, GcTypeBackground, gcTypeFromWire(1))
	require.Equal(t, GcTypeUnknown, gcTypeFromWire(42))
}

func TestGcSuspendEeReasonString(t *testing.T) {
	require.Equal(t, "Debugger sweep", GcSuspendEeReasonDebuggerSweep.String())
	require.Equal(t, "Unknown", GcSuspendEeReason(42).String())
}
