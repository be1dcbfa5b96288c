// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bootstrap hand-codes the MiniTables the code generator (out of
// scope per spec §1) needs to parse its own inputs: a subset of
// descriptor.proto, sufficient to represent FileDescriptorProto trees, and
// of plugin.proto, sufficient to speak CodeGeneratorRequest/Response (spec
// §6.3, §2 component G).
//
// These are proto2 messages: every singular scalar and submessage field
// has explicit (hasbit-tracked) presence, never proto3 implicit presence.
// Options messages (FileOptions, MessageOptions, FieldOptions, ...),
// extension ranges, reserved ranges, and source_code_info are
// omitted -- a code generator reading only names, types, and nesting
// structure never needs them, and every field this package does not lay
// out is simply skipped as unknown by the decoder (spec §4.5 step 3),
// which is always safe for a well-formed descriptor.
package bootstrap

import "github.com/nizox/minipb"

// layout assigns sequential, non-overlapping offsets to a message's fields,
// mirroring how a real descriptor-to-MiniTable generator would lay out
// storage (spec §3.5, §9 "Dynamic field layout without reflection").
//
// Fields are laid out relative to offset 0 as they're added; once every
// field is known, finish() shifts them all down by the final hasbit
// region's width, since that width isn't known until every scalar/message
// field (each of which claims one hasbit) has been declared.
type layout struct {
	hasbits int
	offset  uint32
	fields  []minipb.MiniTableField
}

func newLayout() *layout { return &layout{} }

func (l *layout) add(f minipb.MiniTableField) minipb.MiniTableField {
	f.Offset = l.offset
	l.offset += f.StorageSize()
	l.fields = append(l.fields, f)
	return f
}

// scalar declares a proto2 explicit-presence scalar/string field.
func (l *layout) scalar(n uint32, ft minipb.FieldType) {
	l.hasbits++
	l.add(minipb.MiniTableField{
		Number:      n,
		FieldType:   ft,
		Mode:        minipb.Scalar,
		Presence:    int32(l.hasbits),
		SubmsgIndex: minipb.NoSubmessage,
	})
}

// message declares a proto2 explicit-presence singular MESSAGE field whose
// type is submessages[submsgIndex] in the enclosing MiniTable's own
// Submessages array.
func (l *layout) message(n uint32, submsgIndex uint16) {
	l.hasbits++
	l.add(minipb.MiniTableField{
		Number:      n,
		FieldType:   minipb.Message,
		Mode:        minipb.Scalar,
		Presence:    int32(l.hasbits),
		SubmsgIndex: submsgIndex,
	})
}

// repeated declares a repeated scalar/string field (implicit presence --
// "has" is count > 0, spec §4.3).
func (l *layout) repeated(n uint32, ft minipb.FieldType) {
	l.add(minipb.MiniTableField{
		Number:      n,
		FieldType:   ft,
		Mode:        minipb.Repeated,
		SubmsgIndex: minipb.NoSubmessage,
	})
}

// repeatedMessage declares a repeated MESSAGE field.
func (l *layout) repeatedMessage(n uint32, submsgIndex uint16) {
	l.add(minipb.MiniTableField{
		Number:      n,
		FieldType:   minipb.Message,
		Mode:        minipb.Repeated,
		SubmsgIndex: submsgIndex,
	})
}

// finish shifts every field's offset down by the hasbit region's width and
// returns the final field list and total message size, ready to hand to
// MiniTable.Populate.
func (l *layout) finish() (fields []minipb.MiniTableField, size uint32, hasbitBytes uint8) {
	hb := uint8((l.hasbits + 7) / 8)
	out := make([]minipb.MiniTableField, len(l.fields))
	for i, f := range l.fields {
		f.Offset += uint32(hb)
		out[i] = f
	}
	return out, l.offset + uint32(hb), hb
}
