// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package etw

// PropertyParser is the typed field accessor an ETW session subscriber
// hands the adapter alongside each event. It mirrors the interface of
// the upstream ETW property parser: every field is fetched by name, and
// a field absent from a given schema version is reported via the ok
// return rather than a zero value masquerading as real data.
type PropertyParser interface {
	ParseUint16(field string) uint16
	ParseUint32(field string) uint32
	ParseUint64(field string) uint64
	ParseString(field string) string

	TryParseUint16(field string) (uint16, bool)
	TryParseUint32(field string) (uint32, bool)
	TryParseUint64(field string) (uint64, bool)

	// ParseBytes returns the raw bytes of a fixed-size binary field,
	// used only for the "Stack" field's first two addresses.
	ParseBytes(field string) []byte

	// Buffer returns the event's trailing user-data bytes not claimed
	// by any named field, used for the stack-walk addresses beyond the
	// first two.
	Buffer() []byte
}
