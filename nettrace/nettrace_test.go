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

// encodeObject wraps a parsed-object body in the full BeginPrivateObject
// + TypeObject + body + EndObject framing that beginObjectOrEnd expects.
func encodeObject(version, minReaderVersion int32, name string, body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(tagBeginPrivateObject))
	buf.Write(encodeTypeObject(version, minReaderVersion, name))
	buf.Write(body)
	buf.WriteByte(byte(tagEndObject))
	return buf.Bytes()
}

// encodeBlockBody wraps a blob region (the concatenation of however many
// blob entries) in the size-prefixed, fixed 20-byte eventBlockHeader
// framing shared by MetadataBlock, StackBlock, and EventBlock objects.
func encodeBlockBody(flags uint16, blobRegion []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(eventBlockHeaderFixedSize+len(blobRegion)))
	binary.Write(&buf, binary.LittleEndian, uint16(eventBlockHeaderFixedSize))
	binary.Write(&buf, binary.LittleEndian, flags)
	binary.Write(&buf, binary.LittleEndian, uint64(0)) // MinTimestamp
	binary.Write(&buf, binary.LittleEndian, uint64(0)) // MaxTimestamp
	buf.Write(blobRegion)
	return buf.Bytes()
}

func encodeMethodLoadUnloadPayload(version uint32, verbose bool, namespace, name, signature string) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint64(1))          // MethodID
	binary.Write(&buf, binary.LittleEndian, uint64(0xAA))       // ModuleID
	binary.Write(&buf, binary.LittleEndian, uint64(0x7fff0000)) // MethodStartAddress
	binary.Write(&buf, binary.LittleEndian, uint32(64))         // MethodSize
	binary.Write(&buf, binary.LittleEndian, uint32(0))          // MethodToken
	binary.Write(&buf, binary.LittleEndian, uint32(0))          // MethodFlags
	if verbose {
		writeUTF16CString(&buf, namespace)
		writeUTF16CString(&buf, name)
		writeUTF16CString(&buf, signature)
	}
	if version >= 1 {
		binary.Write(&buf, binary.LittleEndian, uint16(0)) // ClrInstanceID
	}
	return buf.Bytes()
}

func TestParserMinimalTrace(t *testing.T) {
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
	buf.Write(encodeMagic())
	traceBody := append(encodeTraceBody(want), byte(tagEndObject)) // readTraceObject consumes its own EndObject
	buf.Write(encodeObjectNoEndObject(4, 0, "Trace", traceBody))
	buf.WriteByte(byte(tagNullReference)) // end of stream

	p, err := Open(&buf)
	require.NoError(t, err)

	got, err := p.TraceInfo()
	require.NoError(t, err)
	require.Equal(t, want, got)

	require.False(t, p.Next())
	require.NoError(t, p.Err())
}

// encodeObjectNoEndObject is like encodeObject, but the body is expected
// to supply its own closing EndObject tag (as TraceInfo's wire body
// does: readTraceObject reads the EndObject itself).
func encodeObjectNoEndObject(version, minReaderVersion int32, name string, body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(tagBeginPrivateObject))
	buf.Write(encodeTypeObject(version, minReaderVersion, name))
	buf.Write(body)
	return buf.Bytes()
}

func TestParserMethodLoadVerbose(t *testing.T) {
	metaBlob := encodeMetadataBlob(metadataBlobOpts{
		id:       7,
		provider: "Microsoft-Windows-DotNETRuntime",
		eventID:  143,
		version:  1,
	})
	metadataBlockBody := encodeBlockBody(0, encodeUncompressedBlob(eventBlobHeader{PayloadSize: uint32(len(metaBlob))}, metaBlob))

	eventPayload := encodeMethodLoadUnloadPayload(1, true, "Foo", "Bar", "()V")
	eventHdr := eventBlobHeader{
		RawMetadataID: 7,
		ThreadID:      55,
		PayloadSize:   uint32(len(eventPayload)),
	}
	eventBlockBody := encodeBlockBody(0, encodeUncompressedBlob(eventHdr, eventPayload))

	var buf bytes.Buffer
	buf.Write(encodeMagic())
	buf.Write(encodeObjectNoEndObject(4, 0, "Trace", append(encodeTraceBody(TraceInfo{}), byte(tagEndObject))))
	buf.Write(encodeObject(2, 0, "MetadataBlock", metadataBlockBody))
	buf.Write(encodeObject(2, 0, "EventBlock", eventBlockBody))
	buf.WriteByte(byte(tagNullReference))

	p, err := Open(&buf)
	require.NoError(t, err)

	require.True(t, p.Next())
	meta, event := p.Metadata(), p.Event()
	require.EqualValues(t, 55, meta.ThreadID)
	require.False(t, meta.IsRundown)

	load, ok := event.(NormalizedMethodLoad)
	require.True(t, ok)
	require.EqualValues(t, 0xAA, load.ModuleID)
	require.EqualValues(t, 0x7fff0000, load.StartAddress)
	require.Equal(t, "Bar", load.Name.Name)
	require.Equal(t, "Foo", load.Name.Namespace)

	require.False(t, p.Next())
	require.NoError(t, p.Err())
}

func TestParserMethodDCEndVerboseOnRundown(t *testing.T) {
	metaBlob := encodeMetadataBlob(metadataBlobOpts{
		id:       3,
		provider: "Microsoft-Windows-DotNETRuntimeRundown",
		eventID:  144,
		version:  1,
	})
	metadataBlockBody := encodeBlockBody(0, encodeUncompressedBlob(eventBlobHeader{PayloadSize: uint32(len(metaBlob))}, metaBlob))

	eventPayload := encodeMethodLoadUnloadPayload(1, true, "Foo", "Bar", "()V")
	eventHdr := eventBlobHeader{RawMetadataID: 3, PayloadSize: uint32(len(eventPayload))}
	eventBlockBody := encodeBlockBody(0, encodeUncompressedBlob(eventHdr, eventPayload))

	var buf bytes.Buffer
	buf.Write(encodeMagic())
	buf.Write(encodeObjectNoEndObject(4, 0, "Trace", append(encodeTraceBody(TraceInfo{}), byte(tagEndObject))))
	buf.Write(encodeObject(2, 0, "MetadataBlock", metadataBlockBody))
	buf.Write(encodeObject(2, 0, "EventBlock", eventBlockBody))
	buf.WriteByte(byte(tagNullReference))

	p, err := Open(&buf)
	require.NoError(t, err)

	require.True(t, p.Next())
	meta, event := p.Metadata(), p.Event()
	require.True(t, meta.IsRundown)
	_, ok := event.(NormalizedMethodLoad)
	require.True(t, ok, "event id 144 on the rundown provider normalizes to a method load, not an unload")
}

func TestParserStackResolution(t *testing.T) {
	stackBody := encodeStackBlock(5, [][]uint64{{0x1000, 0x2000, 0x3000}})
	stackBlockBody := encodeBlockBody(0, stackBody)

	metaBlob := encodeMetadataBlob(metadataBlobOpts{
		id:       1,
		provider: "Microsoft-Windows-DotNETRuntime",
		eventID:  35, // GCTriggered
		version:  0,
	})
	metadataBlockBody := encodeBlockBody(0, encodeUncompressedBlob(eventBlobHeader{PayloadSize: uint32(len(metaBlob))}, metaBlob))

	var eventPayload bytes.Buffer
	binary.Write(&eventPayload, binary.LittleEndian, uint32(1)) // Reason
	binary.Write(&eventPayload, binary.LittleEndian, uint16(0)) // ClrInstanceID
	eventHdr := eventBlobHeader{RawMetadataID: 1, StackID: 5, PayloadSize: uint32(eventPayload.Len())}
	eventBlockBody := encodeBlockBody(0, encodeUncompressedBlob(eventHdr, eventPayload.Bytes()))

	var buf bytes.Buffer
	buf.Write(encodeMagic())
	buf.Write(encodeObjectNoEndObject(4, 0, "Trace", append(encodeTraceBody(TraceInfo{}), byte(tagEndObject))))
	buf.Write(encodeObject(2, 0, "StackBlock", stackBlockBody))
	buf.Write(encodeObject(2, 0, "MetadataBlock", metadataBlockBody))
	buf.Write(encodeObject(2, 0, "EventBlock", eventBlockBody))
	buf.WriteByte(byte(tagNullReference))

	p, err := Open(&buf)
	require.NoError(t, err)

	require.True(t, p.Next())
	meta, event := p.Metadata(), p.Event()
	require.Equal(t, []uint64{0x1000, 0x2000, 0x3000}, meta.Stack)
	_, ok := event.(NormalizedGcTriggered)
	require.True(t, ok)

	require.False(t, p.Next())
	require.NoError(t, p.Err())
}
