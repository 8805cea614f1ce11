// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nettrace

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeTraceBody(info TraceInfo) []byte {
	var buf bytes.Buffer
	for _, v := range []uint16{
		info.SyncTimeUTC.Year, info.SyncTimeUTC.Month, info.SyncTimeUTC.DayOfWeek, info.SyncTimeUTC.Day,
		info.SyncTimeUTC.Hour, info.SyncTimeUTC.Minute, info.SyncTimeUTC.Second, info.SyncTimeUTC.Millisecond,
	} {
		binary.Write(&buf, binary.LittleEndian, v)
	}
	binary.Write(&buf, binary.LittleEndian, info.SyncTimeQPC)
	binary.Write(&buf, binary.LittleEndian, info.QPCFrequency)
	binary.Write(&buf, binary.LittleEndian, info.PointerSize)
	binary.Write(&buf, binary.LittleEndian, info.ProcessID)
	binary.Write(&buf, binary.LittleEndian, info.NumberOfProcessors)
	binary.Write(&buf, binary.LittleEndian, info.ExpectedCPUSamplingRate)
	return buf.Bytes()
}

func TestReadTraceObject(t *testing.T) {
	want := TraceInfo{
		SyncTimeUTC:             WallClock{Year: 2024, Month: 3, Day: 15, Hour: 12},
		SyncTimeQPC:             123456789,
		QPCFrequency:            10_000_000,
		PointerSize:             8,
		ProcessID:               4242,
		NumberOfProcessors:      8,
		ExpectedCPUSamplingRate: 1000,
	}
	var buf bytes.Buffer
	buf.Write(encodeTraceBody(want))
	buf.WriteByte(byte(tagEndObject))

	c := newCursor(bytes.NewReader(buf.Bytes()))
	got, err := readTraceObject(c)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestReadTraceObjectMissingEndObject(t *testing.T) {
	buf := bytes.NewBuffer(encodeTraceBody(TraceInfo{}))
	c := newCursor(bytes.NewReader(buf.Bytes()))
	_, err := readTraceObject(c)
	require.Error(t, err)
}
