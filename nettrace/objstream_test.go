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

func encodeMagic() []byte {
	var buf bytes.Buffer
	buf.Write(magic)
	binary.Write(&buf, binary.LittleEndian, uint32(len(fastSerializationIdent)))
	buf.WriteString(fastSerializationIdent)
	return buf.Bytes()
}

func TestReadMagicOK(t *testing.T) {
	c := newCursor(bytes.NewReader(encodeMagic()))
	require.NoError(t, readMagic(c))
}

func TestReadMagicBadPreamble(t *testing.T) {
	c := newCursor(bytes.NewReader([]byte("NotNettrace!!!!")))
	err := readMagic(c)
	require.Error(t, err)
	var nerr *Error
	require.ErrorAs(t, err, &nerr)
	require.Equal(t, ErrBadMagic, nerr.Kind)
}

func TestReadMagicBadIdent(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(magic)
	binary.Write(&buf, binary.LittleEndian, uint32(5))
	buf.WriteString("nope!")
	c := newCursor(bytes.NewReader(buf.Bytes()))
	err := readMagic(c)
	require.Error(t, err)
	var nerr *Error
	require.ErrorAs(t, err, &nerr)
	require.Equal(t, ErrBadMagic, nerr.Kind)
}

// encodeTypeObject builds the raw bytes of a TypeObject header as
// readTypeObject expects: BeginPrivateObject, NullReference, version,
// minReaderVersion, a 4-byte-length-prefixed ASCII name, EndObject.
func encodeTypeObject(version, minReaderVersion int32, name string) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(tagBeginPrivateObject))
	buf.WriteByte(byte(tagNullReference))
	binary.Write(&buf, binary.LittleEndian, version)
	binary.Write(&buf, binary.LittleEndian, minReaderVersion)
	binary.Write(&buf, binary.LittleEndian, uint32(len(name)))
	buf.WriteString(name)
	buf.WriteByte(byte(tagEndObject))
	return buf.Bytes()
}

func TestReadTypeObject(t *testing.T) {
	enc := encodeTypeObject(2, 1, "EventBlock")
	c := newCursor(bytes.NewReader(enc))
	ot, err := readTypeObject(c)
	require.NoError(t, err)
	require.Equal(t, objectType{version: 2, minReaderVersion: 1, name: "EventBlock"}, ot)
}

func TestExpectTagMismatch(t *testing.T) {
	c := newCursor(bytes.NewReader([]byte{byte(tagEndObject)}))
	err := expectTag(c, tagBeginPrivateObject)
	require.Error(t, err)
	var nerr *Error
	require.ErrorAs(t, err, &nerr)
	require.Equal(t, ErrUnexpectedTag, nerr.Kind)
}

func TestReadASCIIString(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(5))
	buf.WriteString("Trace")
	c := newCursor(bytes.NewReader(buf.Bytes()))
	s, err := readASCIIString(c)
	require.NoError(t, err)
	require.Equal(t, "Trace", s)
}
