// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nettrace

import "github.com/google/uuid"

// eventBlockHeader is the fixed-size header that precedes every blob
// payload region in an EventBlock or MetadataBlock object: a 20-byte
// HeaderSize/Flags/MinTimestamp/MaxTimestamp prefix, possibly followed
// by additional reserved bytes up to HeaderSize.
type eventBlockHeader struct {
	HeaderSize   uint16
	Flags        uint16
	MinTimestamp uint64
	MaxTimestamp uint64
}

const eventBlockHeaderFixedSize = 2 + 2 + 8 + 8 // 20

// eventBlockHeaderFlagCompressed marks that the blobs in this block use
// the delta-compressed header encoding rather than the fixed-width one.
const eventBlockHeaderFlagCompressed = 1

// readEventBlockHeader reads the object's total size (a uint32, used by
// the caller to compute how many blob bytes follow) and the fixed
// 20-byte block header, then skips any extra reserved bytes the header
// claims beyond those 20.
func readEventBlockHeader(c *cursor) (size uint32, header eventBlockHeader, err error) {
	size, err = readU32(c)
	if err != nil {
		return 0, eventBlockHeader{}, err
	}

	b, err := c.readFull(eventBlockHeaderFixedSize)
	if err != nil {
		return 0, eventBlockHeader{}, errIO(err)
	}
	d := NewPayloadDecoder(b)
	header = eventBlockHeader{
		HeaderSize:   d.U16(),
		Flags:        d.U16(),
		MinTimestamp: d.U64(),
		MaxTimestamp: d.U64(),
	}
	if extra := int(header.HeaderSize) - eventBlockHeaderFixedSize; extra > 0 {
		if err := c.discard(extra); err != nil {
			return 0, eventBlockHeader{}, errIO(err)
		}
	}
	return size, header, nil
}

func readU32(c *cursor) (uint32, error) {
	b, err := c.readFull(4)
	if err != nil {
		return 0, errIO(err)
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

// eventBlobHeader is the per-blob header that precedes every event (or
// metadata-definition) payload within a block's blob region.
type eventBlobHeader struct {
	RawMetadataID     uint32
	MetadataID        uint32
	IsSorted          bool
	SequenceNumber    uint32
	ThreadID          uint64
	CaptureThreadID   uint64
	ProcessorNumber   uint32
	StackID           uint32
	Timestamp         uint64
	ActivityID        uuid.UUID
	RelatedActivityID uuid.UUID
	PayloadSize       uint32
}

// ProcessorNumberUnknown is the sentinel ProcessorNumber value meaning
// "no processor number recorded for this event".
const ProcessorNumberUnknown = ^uint32(0)

// eventBlockIterator walks the blob region of a single EventBlock or
// MetadataBlock, yielding (header, payload) pairs. It mirrors the
// buffered-reader idiom used throughout this package: the block's
// entire blob region is read into memory up front (its size is known
// from the enclosing object framing), then decoded incrementally.
type eventBlockIterator struct {
	d          *PayloadDecoder
	compressed bool
	prev       eventBlobHeader
}

func newEventBlockIterator(body []byte, header eventBlockHeader) *eventBlockIterator {
	return &eventBlockIterator{
		d:          NewPayloadDecoder(body),
		compressed: header.Flags&eventBlockHeaderFlagCompressed != 0,
	}
}

// next returns the next (header, payload) pair, or ok == false once the
// blob region is exhausted.
func (it *eventBlockIterator) next() (hdr eventBlobHeader, payload []byte, ok bool, err error) {
	if it.d.Len() == 0 {
		return eventBlobHeader{}, nil, false, nil
	}

	if it.compressed {
		hdr, err = it.parseCompressedHeader()
	} else {
		hdr, err = it.parseUncompressedHeader()
	}
	if err != nil {
		return eventBlobHeader{}, nil, false, err
	}

	payload = it.d.take(int(hdr.PayloadSize))
	if err := it.d.Err(); err != nil {
		return eventBlobHeader{}, nil, false, err
	}

	if !it.compressed {
		if pad := hdr.PayloadSize & 3; pad != 0 {
			it.d.Skip(int(4 - pad))
		}
	}

	it.prev = hdr
	return hdr, payload, true, it.d.Err()
}

func (it *eventBlockIterator) parseUncompressedHeader() (eventBlobHeader, error) {
	d := it.d
	var h eventBlobHeader
	// EventBlobHeader's wire layout carries metadata_id/is_sorted as a
	// single raw_metadata_id field, right after the leading size field.
	size := d.U32()
	_ = size // header size field, not needed once every field is read directly
	h.RawMetadataID = d.U32()
	h.SequenceNumber = d.U32()
	h.ThreadID = d.U64()
	h.CaptureThreadID = d.U64()
	h.ProcessorNumber = d.U32()
	h.StackID = d.U32()
	h.Timestamp = d.U64()
	h.ActivityID = d.GUID()
	h.RelatedActivityID = d.GUID()
	h.PayloadSize = d.U32()
	h.MetadataID = h.RawMetadataID &^ (1 << 31)
	h.IsSorted = h.RawMetadataID&(1<<31) != 0
	return h, d.Err()
}

// parseCompressedHeader decodes a delta-compressed blob header: a flags
// byte selects which fields are present, and every absent field is
// copied from prev. The timestamp is always present as a delta from
// prev's, and the sequence number is incremented by one for any blob
// whose metadata id is non-zero.
func (it *eventBlockIterator) parseCompressedHeader() (eventBlobHeader, error) {
	d := it.d
	flags := d.U8()
	isSet := func(bit uint) bool { return flags&(1<<bit) != 0 }

	prev := it.prev
	var h eventBlobHeader

	if isSet(0) {
		h.MetadataID = d.Uvarint32()
	} else {
		h.MetadataID = prev.MetadataID
	}

	if isSet(1) {
		delta := d.Varint32()
		h.SequenceNumber = uint32(int32(prev.SequenceNumber) + delta)
		h.CaptureThreadID = d.Uvarint64()
		h.ProcessorNumber = d.Uvarint32()
	} else {
		h.SequenceNumber = prev.SequenceNumber
		h.CaptureThreadID = prev.CaptureThreadID
		h.ProcessorNumber = prev.ProcessorNumber
	}

	if h.MetadataID != 0 {
		h.SequenceNumber++
	}

	if isSet(2) {
		h.ThreadID = d.Uvarint64()
	} else {
		h.ThreadID = prev.ThreadID
	}

	if isSet(3) {
		h.StackID = d.Uvarint32()
	} else {
		h.StackID = prev.StackID
	}

	tsDelta := d.Varint64()
	h.Timestamp = uint64(int64(prev.Timestamp) + tsDelta)

	if isSet(4) {
		h.ActivityID = d.GUID()
	} else {
		h.ActivityID = prev.ActivityID
	}

	if isSet(5) {
		h.RelatedActivityID = d.GUID()
	} else {
		h.RelatedActivityID = prev.RelatedActivityID
	}

	h.IsSorted = isSet(6)

	if isSet(7) {
		h.PayloadSize = d.Uvarint32()
	} else {
		h.PayloadSize = prev.PayloadSize
	}

	if h.IsSorted {
		h.RawMetadataID = h.MetadataID | (1 << 31)
	} else {
		h.RawMetadataID = h.MetadataID
	}

	return h, d.Err()
}
