// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nettrace

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf16"

	"github.com/google/uuid"
)

// PayloadDecoder decodes the little-endian primitive values that make up
// nettrace object bodies and CoreCLR event payloads. It operates on an
// in-memory byte slice rather than a stream, since both object bodies and
// event blobs are read length-prefixed and buffered whole before decoding.
//
// A PayloadDecoder never panics: once any read fails (runs past the end
// of buf), every subsequent read is a no-op that returns the zero value,
// and Err reports io.ErrUnexpectedEOF. Callers decode an entire payload
// and check Err once at the end, rather than after every field.
type PayloadDecoder struct {
	buf []byte
	off int
	err error
}

// NewPayloadDecoder returns a decoder over buf.
func NewPayloadDecoder(buf []byte) *PayloadDecoder {
	return &PayloadDecoder{buf: buf}
}

// Err returns the first error encountered, if any.
func (d *PayloadDecoder) Err() error {
	if d.err != nil {
		return errIO(d.err)
	}
	return nil
}

// Len returns the number of unread bytes remaining.
func (d *PayloadDecoder) Len() int {
	return len(d.buf) - d.off
}

// Bytes returns the remaining unread bytes without consuming them.
func (d *PayloadDecoder) Bytes() []byte {
	return d.buf[d.off:]
}

// Raw reads and consumes the next n bytes, honoring the never-panics
// contract: a short buffer yields a zero-padded slice of length n and
// puts the decoder into its permanent error state, same as every other
// read.
func (d *PayloadDecoder) Raw(n int) []byte {
	return d.take(n)
}

func (d *PayloadDecoder) fail() {
	if d.err == nil {
		d.err = io.ErrUnexpectedEOF
	}
}

func (d *PayloadDecoder) take(n int) []byte {
	if d.err != nil || n < 0 || d.off+n > len(d.buf) {
		d.fail()
		if n < 0 {
			n = 0
		}
		return make([]byte, n)
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

// Skip discards n bytes.
func (d *PayloadDecoder) Skip(n int) {
	d.take(n)
}

// U8 reads a uint8.
func (d *PayloadDecoder) U8() uint8 {
	b := d.take(1)
	return b[0]
}

// U16 reads a little-endian uint16.
func (d *PayloadDecoder) U16() uint16 {
	return binary.LittleEndian.Uint16(d.take(2))
}

// U32 reads a little-endian uint32.
func (d *PayloadDecoder) U32() uint32 {
	return binary.LittleEndian.Uint32(d.take(4))
}

// U64 reads a little-endian uint64.
func (d *PayloadDecoder) U64() uint64 {
	return binary.LittleEndian.Uint64(d.take(8))
}

// I32 reads a little-endian int32.
func (d *PayloadDecoder) I32() int32 {
	return int32(d.U32())
}

// I64 reads a little-endian int64.
func (d *PayloadDecoder) I64() int64 {
	return int64(d.U64())
}

// F32 reads a little-endian float32.
func (d *PayloadDecoder) F32() float32 {
	return math.Float32frombits(d.U32())
}

// F64 reads a little-endian float64.
func (d *PayloadDecoder) F64() float64 {
	return math.Float64frombits(d.U64())
}

// GUID reads a 16-byte .NET/Windows GUID (whose first three fields are
// stored little-endian) and returns it as a uuid.UUID in RFC 4122
// byte order.
func (d *PayloadDecoder) GUID() uuid.UUID {
	b := d.take(16)
	var g uuid.UUID
	g[0], g[1], g[2], g[3] = b[3], b[2], b[1], b[0]
	g[4], g[5] = b[5], b[4]
	g[6], g[7] = b[7], b[6]
	copy(g[8:], b[8:16])
	return g
}

// UTF16CString reads a null-terminated UTF-16LE string, as used by
// metadata definitions (provider, event and field names) and event
// payload string fields.
func (d *PayloadDecoder) UTF16CString() string {
	if d.err != nil {
		return ""
	}
	var units []uint16
	for {
		if d.off+2 > len(d.buf) {
			d.fail()
			return string(utf16.Decode(units))
		}
		u := binary.LittleEndian.Uint16(d.buf[d.off : d.off+2])
		d.off += 2
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}

// LengthPrefixedUTF16 reads a nettrace-style string: a signed 32-bit
// character count followed by that many UTF-16LE code units and no
// terminating null. A count of -1 denotes a null string.
func (d *PayloadDecoder) LengthPrefixedUTF16() string {
	n := d.I32()
	if n <= 0 || d.err != nil {
		return ""
	}
	units := make([]uint16, n)
	for i := range units {
		units[i] = d.U16()
	}
	return string(utf16.Decode(units))
}

// Uvarint64 reads an unsigned LEB128 varint from the buffer.
func (d *PayloadDecoder) Uvarint64() uint64 {
	if d.err != nil {
		return 0
	}
	var result uint64
	var shift uint
	for i := 0; i < maxVarintBytes; i++ {
		if d.off >= len(d.buf) {
			d.fail()
			return 0
		}
		b := d.buf[d.off]
		d.off++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result
		}
		shift += 7
	}
	d.fail()
	return 0
}

// Uvarint32 reads an unsigned LEB128 varint truncated to 32 bits.
func (d *PayloadDecoder) Uvarint32() uint32 {
	return uint32(d.Uvarint64())
}

// Varint64 decodes an unsigned varint and reinterprets its bit pattern
// as signed two's-complement. Not zig-zag: see readVarint64.
func (d *PayloadDecoder) Varint64() int64 {
	return int64(d.Uvarint64())
}

// Varint32 is Varint64 truncated to 32 bits.
func (d *PayloadDecoder) Varint32() int32 {
	return int32(uint32(d.Uvarint64()))
}

// U32Array reads a uint32 count followed by that many uint32 values.
func (d *PayloadDecoder) U32Array() []uint32 {
	n := d.U32()
	out := make([]uint32, n)
	for i := range out {
		out[i] = d.U32()
	}
	return out
}
