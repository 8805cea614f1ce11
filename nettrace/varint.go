// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nettrace

import "io"

// maxVarintBytes bounds the encoded length of a 64-bit LEB128 varint.
// A stream that doesn't terminate within this many bytes is malformed;
// per the wire format's "trust payload bounds" policy this is surfaced
// as an ordinary I/O error rather than a dedicated overflow kind.
const maxVarintBytes = 10

// readUvarint64 reads an unsigned LEB128 value: each byte contributes
// its low 7 bits at shift 7*i, terminating when the high bit is clear.
func readUvarint64(r io.ByteReader) (uint64, error) {
	var result uint64
	var shift uint
	for i := 0; i < maxVarintBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, io.ErrUnexpectedEOF
}

// readUvarint32 is readUvarint64 truncated to 32 bits.
func readUvarint32(r io.ByteReader) (uint32, error) {
	v, err := readUvarint64(r)
	return uint32(v), err
}

// readVarint64 decodes an unsigned varint and reinterprets its bit
// pattern as a signed two's-complement value. This is not zig-zag
// encoding: the source format this was ported from does the same
// reinterpretation, and interoperability depends on it.
func readVarint64(r io.ByteReader) (int64, error) {
	v, err := readUvarint64(r)
	return int64(v), err
}

// readVarint32 is readVarint64 truncated to 32 bits.
func readVarint32(r io.ByteReader) (int32, error) {
	v, err := readUvarint64(r)
	return int32(uint32(v)), err
}
