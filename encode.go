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

package minipb

import (
	"github.com/nizox/minipb/internal/arena"
	"github.com/nizox/minipb/internal/wire"
)

// Encode serializes msg in ascending field-number order, per spec §4.6.
// The returned byte slice is allocated from a.
//
// The encoder serializes each submessage into its own buffer first and
// then emits tag, exact length, and that payload into the parent; there is
// no separate size-computation pass. spec §4.6 is explicit that the
// testable property is byte-identical output, not a particular algorithm.
func Encode(msg *Message, a *arena.Arena, opts ...EncodeOption) ([]byte, error) {
	o := newEncodeOptions(opts)
	e := &encoder{opts: o}
	buf, err := e.appendMessage(nil, msg, 0)
	if err != nil {
		return nil, encodeErr(err)
	}
	// Keep the result reachable from the arena, matching "output is
	// written into an arena-allocated buffer" (spec §4.6 entry point).
	out := a.Alloc(len(buf))
	copy(out, buf)
	a.KeepAlive(buf)
	return out[:len(buf)], nil
}

type encoder struct {
	opts EncodeOptions
}

// appendMessage appends msg's wire-format encoding to buf and returns the
// result.
func (e *encoder) appendMessage(buf []byte, msg *Message, depth uint32) ([]byte, error) {
	if depth > e.opts.MaxDepth {
		return nil, ErrDepthExceeded
	}

	t := msg.table
	for i := range t.Fields {
		f := &t.Fields[i]
		var err error
		buf, err = e.appendField(buf, msg, f, depth)
		if err != nil {
			return nil, err
		}
	}

	// Supplemental (SPEC_FULL.md §4): verbatim unknown-field bytes
	// preserved during decode are re-emitted after the known fields.
	buf = append(buf, msg.unknown...)

	return buf, nil
}

func (e *encoder) appendField(buf []byte, msg *Message, f *MiniTableField, depth uint32) ([]byte, error) {
	switch f.Mode {
	case Scalar:
		return e.appendScalarField(buf, msg, f, depth)
	case Repeated:
		return e.appendRepeatedField(buf, msg, f, depth)
	default:
		return buf, nil
	}
}

func (e *encoder) appendScalarField(buf []byte, msg *Message, f *MiniTableField, depth uint32) ([]byte, error) {
	if !msg.Has(f) {
		return buf, nil
	}

	switch f.FieldType {
	case String, Bytes:
		v := msg.GetString(f)
		buf = wire.AppendTag(buf, int32(f.Number), wire.Bytes)
		return wire.AppendBytes(buf, v.Bytes()), nil

	case Message:
		child := msg.GetSubmessage(f)
		if child == nil {
			return buf, nil
		}
		payload, err := e.appendMessage(nil, child, depth+1)
		if err != nil {
			return nil, err
		}
		buf = wire.AppendTag(buf, int32(f.Number), wire.Bytes)
		return wire.AppendBytes(buf, payload), nil

	default:
		return appendScalarValue(buf, msg, f), nil
	}
}

func (e *encoder) appendRepeatedField(buf []byte, msg *Message, f *MiniTableField, depth uint32) ([]byte, error) {
	r := msg.GetRepeated(f)
	if r.Len() == 0 {
		return buf, nil
	}

	switch f.FieldType {
	case String, Bytes:
		for i := 0; i < r.Len(); i++ {
			v := repeatedAt[StringView](r, i)
			buf = wire.AppendTag(buf, int32(f.Number), wire.Bytes)
			buf = wire.AppendBytes(buf, v.Bytes())
		}
		return buf, nil

	case Message:
		for i := 0; i < r.Len(); i++ {
			child := repeatedAt[*Message](r, i)
			payload, err := e.appendMessage(nil, child, depth+1)
			if err != nil {
				return nil, err
			}
			buf = wire.AppendTag(buf, int32(f.Number), wire.Bytes)
			buf = wire.AppendBytes(buf, payload)
		}
		return buf, nil

	default:
		if f.IsPacked && f.FieldType.Packable() {
			var payload []byte
			for i := 0; i < r.Len(); i++ {
				payload = appendPackedElement(payload, f.FieldType, r, i)
			}
			buf = wire.AppendTag(buf, int32(f.Number), wire.Bytes)
			return wire.AppendBytes(buf, payload), nil
		}
		for i := 0; i < r.Len(); i++ {
			buf = wire.AppendTag(buf, int32(f.Number), f.FieldType.WireType())
			buf = appendUnpackedElement(buf, f.FieldType, r, i)
		}
		return buf, nil
	}
}

// appendScalarValue appends tag+value for a non-string/bytes/message
// scalar field that is known to be present.
func appendScalarValue(buf []byte, msg *Message, f *MiniTableField) []byte {
	wt := f.FieldType.WireType()
	buf = wire.AppendTag(buf, int32(f.Number), wt)
	switch f.FieldType {
	case Double:
		return wire.AppendFixed64(buf, float64Bits(GetScalar[float64](msg, f)))
	case Float:
		return wire.AppendFixed32(buf, float32Bits(GetScalar[float32](msg, f)))
	case Fixed64, Sfixed64:
		return wire.AppendFixed64(buf, GetScalar[uint64](msg, f))
	case Fixed32, Sfixed32:
		return wire.AppendFixed32(buf, GetScalar[uint32](msg, f))
	case Bool:
		v := uint64(0)
		if GetScalar[bool](msg, f) {
			v = 1
		}
		return wire.AppendVarint(buf, v)
	case Int32, Enum:
		// Negative int32/enum values are sign-extended to 64 bits before
		// varint encoding, per the wire format: -1 is the 10-byte varint
		// 0xFFFFFFFFFFFFFFFFFFFF's low 10 bytes, not the 5-byte pattern
		// you'd get from zero-extending the stored uint32 bit pattern.
		return wire.AppendVarint(buf, uint64(int64(int32(GetScalar[uint32](msg, f)))))
	case Uint32:
		return wire.AppendVarint(buf, uint64(GetScalar[uint32](msg, f)))
	case Int64, Uint64:
		return wire.AppendVarint(buf, GetScalar[uint64](msg, f))
	case Sint32:
		return wire.AppendVarint(buf, uint64(wire.EncodeZigZag32(GetScalar[int32](msg, f))))
	case Sint64:
		return wire.AppendVarint(buf, wire.EncodeZigZag64(GetScalar[int64](msg, f)))
	default:
		return buf
	}
}

func appendPackedElement(buf []byte, ft FieldType, r *RepeatedField, i int) []byte {
	switch ft {
	case Double:
		return wire.AppendFixed64(buf, float64Bits(repeatedAt[float64](r, i)))
	case Float:
		return wire.AppendFixed32(buf, float32Bits(repeatedAt[float32](r, i)))
	case Fixed64, Sfixed64:
		return wire.AppendFixed64(buf, repeatedAt[uint64](r, i))
	case Fixed32, Sfixed32:
		return wire.AppendFixed32(buf, repeatedAt[uint32](r, i))
	case Bool:
		v := uint64(0)
		if repeatedAt[bool](r, i) {
			v = 1
		}
		return wire.AppendVarint(buf, v)
	case Int32, Enum:
		return wire.AppendVarint(buf, uint64(int64(int32(repeatedAt[uint32](r, i)))))
	case Uint32:
		return wire.AppendVarint(buf, uint64(repeatedAt[uint32](r, i)))
	case Int64, Uint64:
		return wire.AppendVarint(buf, repeatedAt[uint64](r, i))
	case Sint32:
		return wire.AppendVarint(buf, uint64(wire.EncodeZigZag32(repeatedAt[int32](r, i))))
	case Sint64:
		return wire.AppendVarint(buf, wire.EncodeZigZag64(repeatedAt[int64](r, i)))
	default:
		return buf
	}
}

func appendUnpackedElement(buf []byte, ft FieldType, r *RepeatedField, i int) []byte {
	return appendPackedElement(buf, ft, r, i)
}
