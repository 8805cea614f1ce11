// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nettrace

import "bytes"

// magic is the fixed 8-byte preamble of every nettrace file.
var magic = []byte("Nettrace")

// fastSerializationIdent is the length-prefixed identifier string that
// follows magic, naming the object-stream encoding in use. This parser
// only understands version 1.
const fastSerializationIdent = "!FastSerialization.1"

// tag is a FastSerialization object-stream framing byte.
type tag byte

const (
	tagNullReference      tag = 1
	tagBeginPrivateObject tag = 5
	tagEndObject          tag = 6
)

// readMagic validates the file preamble: the 8-byte "Nettrace" magic
// followed by a length-prefixed identifier string that must equal
// fastSerializationIdent.
func readMagic(c *cursor) error {
	got, err := c.readFull(len(magic))
	if err != nil {
		return errIO(err)
	}
	if !bytes.Equal(got, magic) {
		return errBadMagic("missing \"Nettrace\" magic")
	}

	n, err := readUvarint32FromFixed(c)
	if err != nil {
		return errIO(err)
	}
	ident, err := c.readFull(int(n))
	if err != nil {
		return errIO(err)
	}
	if string(ident) != fastSerializationIdent {
		return errBadMagic("unsupported FastSerialization identifier " + string(ident))
	}
	return nil
}

func readTag(c *cursor) (tag, error) {
	b, err := c.ReadByte()
	if err != nil {
		return 0, errIO(err)
	}
	return tag(b), nil
}

func expectTag(c *cursor, want tag) error {
	got, err := readTag(c)
	if err != nil {
		return err
	}
	if got != want {
		return errUnexpectedTag(tagName(want) + " expected, got " + tagName(got))
	}
	return nil
}

func tagName(t tag) string {
	switch t {
	case tagNullReference:
		return "NullReference"
	case tagBeginPrivateObject:
		return "BeginPrivateObject"
	case tagEndObject:
		return "EndObject"
	default:
		return "tag(?)"
	}
}

// objectType is a parsed TypeObject: the header every private object in
// the stream carries, naming its type and the minimum reader version
// required to understand it.
type objectType struct {
	version          int32
	minReaderVersion int32
	name             string
}

// readTypeObject reads the TypeObject that precedes every object body in
// the stream. Its framing is: BeginPrivateObject, then a NullReference
// tag standing in for "the type of this type object" (TypeObjects are
// never themselves typed), then Version, MinReaderVersion, TypeName, then
// EndObject closing the TypeObject itself. The caller is left positioned
// at the start of the object's body, which is closed by its own,
// separate EndObject.
func readTypeObject(c *cursor) (objectType, error) {
	if err := expectTag(c, tagBeginPrivateObject); err != nil {
		return objectType{}, err
	}
	if err := expectTag(c, tagNullReference); err != nil {
		return objectType{}, err
	}

	version, err := readI32(c)
	if err != nil {
		return objectType{}, err
	}
	minReaderVersion, err := readI32(c)
	if err != nil {
		return objectType{}, err
	}
	name, err := readASCIIString(c)
	if err != nil {
		return objectType{}, err
	}
	if err := expectTag(c, tagEndObject); err != nil {
		return objectType{}, err
	}
	return objectType{version, minReaderVersion, name}, nil
}

// readObjectEnd consumes the EndObject tag that closes an object body.
func readObjectEnd(c *cursor) error {
	return expectTag(c, tagEndObject)
}

// beginObject reads BeginPrivateObject followed by the object's
// TypeObject header, returning the parsed type so the caller can
// dispatch on its name.
func beginObject(c *cursor) (objectType, error) {
	if err := expectTag(c, tagBeginPrivateObject); err != nil {
		return objectType{}, err
	}
	return readTypeObject(c)
}

func readI32(c *cursor) (int32, error) {
	b, err := c.readFull(4)
	if err != nil {
		return 0, errIO(err)
	}
	return int32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24), nil
}

func readI16(c *cursor) (int16, error) {
	b, err := c.readFull(2)
	if err != nil {
		return 0, errIO(err)
	}
	return int16(uint16(b[0]) | uint16(b[1])<<8), nil
}

func readI64(c *cursor) (int64, error) {
	b, err := c.readFull(8)
	if err != nil {
		return 0, errIO(err)
	}
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return int64(v), nil
}

// readASCIIString reads a nettrace type name: an unsigned 32-bit length
// followed by that many raw bytes (ASCII in every recognized type name).
func readASCIIString(c *cursor) (string, error) {
	n, err := readUvarint32FromFixed(c)
	if err != nil {
		return "", err
	}
	b, err := c.readFull(int(n))
	if err != nil {
		return "", errIO(err)
	}
	return string(b), nil
}

// readUvarint32FromFixed reads a fixed 4-byte little-endian length
// field, as used by TypeObject's type name (not a LEB128 varint).
func readUvarint32FromFixed(c *cursor) (uint32, error) {
	b, err := c.readFull(4)
	if err != nil {
		return 0, errIO(err)
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}
