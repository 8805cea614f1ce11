// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nettrace

// WallClock is the SystemTime-style timestamp carried by the Trace
// object, recording the wall-clock instant the capture began.
type WallClock struct {
	Year        uint16
	Month       uint16
	DayOfWeek   uint16
	Day         uint16
	Hour        uint16
	Minute      uint16
	Second      uint16
	Millisecond uint16
}

// TraceInfo is the immutable capture-session metadata carried by the
// single Trace object that opens every nettrace stream.
type TraceInfo struct {
	SyncTimeUTC             WallClock
	SyncTimeQPC             uint64
	QPCFrequency            uint64
	PointerSize             uint32
	ProcessID               uint32
	NumberOfProcessors      uint32
	ExpectedCPUSamplingRate uint32
}

func readWallClock(d *PayloadDecoder) WallClock {
	return WallClock{
		Year:        d.U16(),
		Month:       d.U16(),
		DayOfWeek:   d.U16(),
		Day:         d.U16(),
		Hour:        d.U16(),
		Minute:      d.U16(),
		Second:      d.U16(),
		Millisecond: d.U16(),
	}
}

// readTraceObject reads a Trace object's body (the caller has already
// consumed the BeginPrivateObject/TypeObject header) and the EndObject
// that closes it.
func readTraceObject(c *cursor) (TraceInfo, error) {
	body, err := c.readFull(8*2 + 8 + 8 + 4 + 4 + 4 + 4)
	if err != nil {
		return TraceInfo{}, errIO(err)
	}
	d := NewPayloadDecoder(body)
	info := TraceInfo{
		SyncTimeUTC:             readWallClock(d),
		SyncTimeQPC:             d.U64(),
		QPCFrequency:            d.U64(),
		PointerSize:             d.U32(),
		ProcessID:               d.U32(),
		NumberOfProcessors:      d.U32(),
		ExpectedCPUSamplingRate: d.U32(),
	}
	if d.Err() != nil {
		return TraceInfo{}, d.Err()
	}
	if err := readObjectEnd(c); err != nil {
		return TraceInfo{}, err
	}
	return info, nil
}
