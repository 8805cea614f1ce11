// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nettrace

import (
	"slices"

	"github.com/google/uuid"
)

// RawEvent is a single event as decoded by the raw-event dispatcher: its
// schema fields resolved from the metadata registry and its stack
// resolved from the stack registry, but its payload left undecoded for
// the typed payload decoder.
type RawEvent struct {
	ProviderName string
	EventID      uint32
	EventName    string // empty if the schema carried no name
	Keywords     uint64
	Version      uint32
	Level        uint32
	Opcode       *uint8

	SequenceNumber    uint32
	ThreadID          uint64
	CaptureThreadID   uint64
	ProcessorNumber   *uint32 // nil if the header's value was the unknown sentinel
	Stack             []uint64
	Timestamp         uint64
	ActivityID        uuid.UUID
	RelatedActivityID uuid.UUID

	Payload []byte
}

func newRawEvent(schema *EventSchema, hdr eventBlobHeader, stack []uint64, payload []byte) RawEvent {
	ev := RawEvent{
		ProviderName:      schema.ProviderName,
		EventID:           schema.EventID,
		EventName:         schema.EventName,
		Keywords:          schema.Keywords,
		Version:           schema.Version,
		Level:             schema.Level,
		Opcode:            schema.Opcode,
		SequenceNumber:    hdr.SequenceNumber,
		ThreadID:          hdr.ThreadID,
		CaptureThreadID:   hdr.CaptureThreadID,
		Stack:             slices.Clone(stack),
		Timestamp:         hdr.Timestamp,
		ActivityID:        hdr.ActivityID,
		RelatedActivityID: hdr.RelatedActivityID,
		Payload:           payload,
	}
	if hdr.ProcessorNumber != ProcessorNumberUnknown {
		p := hdr.ProcessorNumber
		ev.ProcessorNumber = &p
	}
	return ev
}
