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
	"unicode/utf8"

	"github.com/nizox/minipb/internal/arena"
	"github.com/nizox/minipb/internal/dbg"
	"github.com/nizox/minipb/internal/wire"
)

// Decode parses buf according to msg's MiniTable, per spec §4.5. All
// variable-length storage (submessages, repeated backing arrays, copied
// strings) is allocated from a. msg must already exist (see NewMessage);
// decoding into a non-empty Message merges into it, per spec's MESSAGE
// merge semantics.
func Decode(buf []byte, msg *Message, a *arena.Arena, opts ...DecodeOption) error {
	o := newDecodeOptions(opts)
	d := &decoder{arena: a, opts: o}
	return d.run(buf, msg, 0)
}

type decoder struct {
	arena *arena.Arena
	opts  DecodeOptions
}

// run decodes buf into msg at the given recursion depth.
func (d *decoder) run(buf []byte, msg *Message, depth uint32) error {
	pos := 0
	for pos < len(buf) {
		tagStart := pos
		number, wt, n, code := wire.ConsumeTag(buf[pos:])
		if code != wire.OK {
			return decodeErr(codeToErr(code), pos)
		}
		pos += n

		logDecode("tag", "field=%d wire=%d depth=%d", number, wt, depth)

		field := msg.table.FieldByNumber(uint32(number))
		if field == nil {
			np, err := d.skip(buf, pos, wt)
			if err != nil {
				return decodeErr(err, pos)
			}
			if d.opts.PreserveUnknown {
				msg.unknown = append(msg.unknown, buf[tagStart:np]...)
			}
			pos = np
			continue
		}

		np, err := d.dispatch(buf, pos, msg, field, wt, depth)
		if err != nil {
			if de, ok := err.(*DecodeError); ok {
				// Already relative to buf (a nested submessage error,
				// rebased by the dispatch helper that produced it).
				return de
			}
			return decodeErr(err, pos)
		}
		if np < 0 {
			// Wire-type mismatch against a known field: treat exactly like
			// an unknown field (spec §4.5 step 5, upb parity).
			np, err = d.skip(buf, pos, wt)
			if err != nil {
				return decodeErr(err, pos)
			}
			if d.opts.PreserveUnknown {
				msg.unknown = append(msg.unknown, buf[tagStart:np]...)
			}
		}
		pos = np
	}
	return nil
}

// dispatch decodes one occurrence of field whose tag has already been
// consumed (pos points just past the tag). Returns the new position, or a
// negative position (no error) to signal a wire-type mismatch that should
// be treated as an unknown field.
func (d *decoder) dispatch(buf []byte, pos int, msg *Message, f *MiniTableField, wt wire.Type, depth uint32) (int, error) {
	switch f.Mode {
	case Scalar:
		return d.dispatchScalar(buf, pos, msg, f, wt, depth)
	case Repeated:
		return d.dispatchRepeated(buf, pos, msg, f, wt, depth)
	default:
		// Map fields are a deferred extension of the repeated path (spec
		// §3.2); a MiniTable should never declare FieldMode Map without
		// one, but if it does, treat it as unknown rather than panic.
		return -1, nil
	}
}

func (d *decoder) dispatchScalar(buf []byte, pos int, msg *Message, f *MiniTableField, wt wire.Type, depth uint32) (int, error) {
	switch f.FieldType {
	case String, Bytes:
		if wt != wire.Bytes {
			return -1, nil
		}
		payload, n, code := wire.ConsumeBytes(buf[pos:])
		if code != wire.OK {
			return 0, codeToErr(code)
		}
		if f.FieldType == String && d.opts.CheckUTF8 && !utf8.Valid(payload) {
			return 0, ErrBadUTF8
		}
		msg.SetString(f, d.view(payload))
		return pos + n, nil

	case Message:
		if wt != wire.Bytes {
			return -1, nil
		}
		payload, n, code := wire.ConsumeBytes(buf[pos:])
		if code != wire.OK {
			return 0, codeToErr(code)
		}
		if depth+1 > d.opts.MaxDepth {
			return 0, ErrRecursionLimit
		}
		child, err := d.childFor(msg, f)
		if err != nil {
			return 0, err
		}
		payloadStart := pos + n - len(payload)
		if err := d.run(payload, child, depth+1); err != nil {
			// Propagate with the inner offset rebased onto the outer
			// buffer so callers see one coherent offset space.
			if de, ok := err.(*DecodeError); ok {
				return 0, rebase(de, payloadStart)
			}
			return 0, err
		}
		return pos + n, nil

	default:
		if wt != f.FieldType.WireType() {
			return -1, nil
		}
		n, err := d.decodeScalarInto(msg, f, buf, pos, wt)
		if err != nil {
			return 0, err
		}
		return pos + n, nil
	}
}

func (d *decoder) dispatchRepeated(buf []byte, pos int, msg *Message, f *MiniTableField, wt wire.Type, depth uint32) (int, error) {
	switch f.FieldType {
	case String, Bytes:
		if wt != wire.Bytes {
			return -1, nil
		}
		payload, n, code := wire.ConsumeBytes(buf[pos:])
		if code != wire.OK {
			return 0, codeToErr(code)
		}
		if f.FieldType == String && d.opts.CheckUTF8 && !utf8.Valid(payload) {
			return 0, ErrBadUTF8
		}
		r := msg.GetRepeated(f)
		if !repeatedAppend[StringView](r, d.arena, d.view(payload)) {
			return 0, ErrOutOfMemory
		}
		return pos + n, nil

	case Message:
		if wt != wire.Bytes {
			return -1, nil
		}
		payload, n, code := wire.ConsumeBytes(buf[pos:])
		if code != wire.OK {
			return 0, codeToErr(code)
		}
		if depth+1 > d.opts.MaxDepth {
			return 0, ErrRecursionLimit
		}
		child := NewMessage(d.arena, msg.table.Submessage(f))
		if child == nil {
			return 0, ErrOutOfMemory
		}
		payloadStart := pos + n - len(payload)
		if err := d.run(payload, child, depth+1); err != nil {
			if de, ok := err.(*DecodeError); ok {
				return 0, rebase(de, payloadStart)
			}
			return 0, err
		}
		r := msg.GetRepeated(f)
		if !repeatedAppend[*Message](r, d.arena, child) {
			return 0, ErrOutOfMemory
		}
		msg.setPresence(f)
		// child is stored into the repeated field's arena-backed array as
		// an unsafe.Pointer, which the GC does not scan; keep it reachable
		// independently (see SetSubmessage).
		d.arena.KeepAlive(child)
		return pos + n, nil

	default:
		// Packed/unpacked acceptance (spec §4.5): a LEN-wire-type
		// occurrence of a packable scalar is always accepted as packed,
		// regardless of the field's declared is_packed.
		if wt == wire.Bytes && f.FieldType.Packable() {
			blob, n, code := wire.ConsumeBytes(buf[pos:])
			if code != wire.OK {
				return 0, codeToErr(code)
			}
			if err := d.decodePacked(msg, f, blob, pos); err != nil {
				return 0, err
			}
			return pos + n, nil
		}
		if wt != f.FieldType.WireType() {
			return -1, nil
		}
		n, err := d.appendRepeatedScalar(msg, f, buf, pos, wt)
		if err != nil {
			return 0, err
		}
		return pos + n, nil
	}
}

func (d *decoder) decodePacked(msg *Message, f *MiniTableField, blob []byte, base int) error {
	off := 0
	for off < len(blob) {
		n, err := d.appendRepeatedScalar(msg, f, blob, off, f.FieldType.WireType())
		if err != nil {
			return err
		}
		off += n
	}
	return nil
}

// appendRepeatedScalar decodes one scalar element starting at buf[pos]
// (according to wt, which must equal f.FieldType.WireType()) and appends
// it to f's RepeatedField. Returns the number of bytes consumed.
func (d *decoder) appendRepeatedScalar(msg *Message, f *MiniTableField, buf []byte, pos int, wt wire.Type) (int, error) {
	r := msg.GetRepeated(f)
	ok, n, err := decodeScalarAppend(f.FieldType, r, d.arena, buf, pos)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrOutOfMemory
	}
	msg.setPresence(f) // implicit presence only; repeated fields have Presence == 0
	return n, nil
}

// decodeScalarInto decodes one scalar value of f's type at buf[pos] and
// writes it via SetScalar (last-wins, spec §4.5/§8 item 4).
func (d *decoder) decodeScalarInto(msg *Message, f *MiniTableField, buf []byte, pos int, wt wire.Type) (int, error) {
	switch f.FieldType {
	case Double:
		v, n, code := wire.ConsumeFixed64(buf[pos:])
		if code != wire.OK {
			return 0, codeToErr(code)
		}
		SetScalar(msg, f, float64FromBits(v))
		return n, nil
	case Float:
		v, n, code := wire.ConsumeFixed32(buf[pos:])
		if code != wire.OK {
			return 0, codeToErr(code)
		}
		SetScalar(msg, f, float32FromBits(v))
		return n, nil
	case Fixed64, Sfixed64:
		v, n, code := wire.ConsumeFixed64(buf[pos:])
		if code != wire.OK {
			return 0, codeToErr(code)
		}
		SetScalar(msg, f, v)
		return n, nil
	case Fixed32, Sfixed32:
		v, n, code := wire.ConsumeFixed32(buf[pos:])
		if code != wire.OK {
			return 0, codeToErr(code)
		}
		SetScalar(msg, f, v)
		return n, nil
	case Bool:
		v, n, code := wire.ConsumeVarint(buf[pos:])
		if code != wire.OK {
			return 0, codeToErr(code)
		}
		SetScalar(msg, f, v != 0)
		return n, nil
	case Int32, Uint32, Enum:
		v, n, code := wire.ConsumeVarint(buf[pos:])
		if code != wire.OK {
			return 0, codeToErr(code)
		}
		SetScalar(msg, f, uint32(v))
		return n, nil
	case Int64, Uint64:
		v, n, code := wire.ConsumeVarint(buf[pos:])
		if code != wire.OK {
			return 0, codeToErr(code)
		}
		SetScalar(msg, f, v)
		return n, nil
	case Sint32:
		v, n, code := wire.ConsumeVarint(buf[pos:])
		if code != wire.OK {
			return 0, codeToErr(code)
		}
		SetScalar(msg, f, wire.DecodeZigZag32(uint32(v)))
		return n, nil
	case Sint64:
		v, n, code := wire.ConsumeVarint(buf[pos:])
		if code != wire.OK {
			return 0, codeToErr(code)
		}
		SetScalar(msg, f, wire.DecodeZigZag64(v))
		return n, nil
	default:
		return 0, ErrInvalidTable
	}
}

// decodeScalarAppend is decodeScalarInto's repeated-field counterpart: it
// decodes one element and appends it to r instead of calling SetScalar.
func decodeScalarAppend(ft FieldType, r *RepeatedField, a *arena.Arena, buf []byte, pos int) (ok bool, n int, err error) {
	switch ft {
	case Double:
		v, n, code := wire.ConsumeFixed64(buf[pos:])
		if code != wire.OK {
			return false, 0, codeToErr(code)
		}
		return repeatedAppend(r, a, float64FromBits(v)), n, nil
	case Float:
		v, n, code := wire.ConsumeFixed32(buf[pos:])
		if code != wire.OK {
			return false, 0, codeToErr(code)
		}
		return repeatedAppend(r, a, float32FromBits(v)), n, nil
	case Fixed64, Sfixed64:
		v, n, code := wire.ConsumeFixed64(buf[pos:])
		if code != wire.OK {
			return false, 0, codeToErr(code)
		}
		return repeatedAppend(r, a, v), n, nil
	case Fixed32, Sfixed32:
		v, n, code := wire.ConsumeFixed32(buf[pos:])
		if code != wire.OK {
			return false, 0, codeToErr(code)
		}
		return repeatedAppend(r, a, v), n, nil
	case Bool:
		v, n, code := wire.ConsumeVarint(buf[pos:])
		if code != wire.OK {
			return false, 0, codeToErr(code)
		}
		return repeatedAppend(r, a, v != 0), n, nil
	case Int32, Uint32, Enum:
		v, n, code := wire.ConsumeVarint(buf[pos:])
		if code != wire.OK {
			return false, 0, codeToErr(code)
		}
		return repeatedAppend(r, a, uint32(v)), n, nil
	case Int64, Uint64:
		v, n, code := wire.ConsumeVarint(buf[pos:])
		if code != wire.OK {
			return false, 0, codeToErr(code)
		}
		return repeatedAppend(r, a, v), n, nil
	case Sint32:
		v, n, code := wire.ConsumeVarint(buf[pos:])
		if code != wire.OK {
			return false, 0, codeToErr(code)
		}
		return repeatedAppend(r, a, wire.DecodeZigZag32(uint32(v))), n, nil
	case Sint64:
		v, n, code := wire.ConsumeVarint(buf[pos:])
		if code != wire.OK {
			return false, 0, codeToErr(code)
		}
		return repeatedAppend(r, a, wire.DecodeZigZag64(v)), n, nil
	default:
		return false, 0, ErrInvalidTable
	}
}

// childFor resolves the child Message for a scalar MESSAGE field,
// allocating one if this is the first occurrence, and correctly handling
// the oneof case where the storage slot is shared among sibling members
// (spec §4.7, §9 "Oneof storage overwrite"): switching to a different
// member discards (orphans, in the arena) whatever was there.
func (d *decoder) childFor(msg *Message, f *MiniTableField) (*Message, error) {
	var child *Message
	if idx, isOneof := f.OneofIndex(); isOneof {
		if msg.oneofCase(idx) == f.Number {
			child = msg.GetSubmessage(f)
		}
	} else {
		child = msg.GetSubmessage(f)
	}

	if child != nil {
		msg.setPresence(f)
		return child, nil
	}

	child = NewMessage(d.arena, msg.table.Submessage(f))
	if child == nil {
		return nil, ErrOutOfMemory
	}
	msg.SetSubmessage(f, child)
	return child, nil
}

// view constructs a StringView over payload, aliasing the input buffer or
// copying into the arena depending on options.
func (d *decoder) view(payload []byte) StringView {
	if d.opts.AliasString {
		d.arena.KeepAlive(payload)
		return viewOf(payload)
	}
	return copyToArena(d.arena, payload)
}

// skip advances past one unknown field's payload, given its wire type.
func (d *decoder) skip(buf []byte, pos int, wt wire.Type) (int, error) {
	switch wt {
	case wire.Varint:
		_, n, code := wire.ConsumeVarint(buf[pos:])
		if code != wire.OK {
			return 0, codeToErr(code)
		}
		return pos + n, nil
	case wire.Fixed32:
		if len(buf)-pos < 4 {
			return 0, ErrTruncated
		}
		return pos + 4, nil
	case wire.Fixed64:
		if len(buf)-pos < 8 {
			return 0, ErrTruncated
		}
		return pos + 8, nil
	case wire.Bytes:
		_, n, code := wire.ConsumeBytes(buf[pos:])
		if code != wire.OK {
			return 0, codeToErr(code)
		}
		return pos + n, nil
	default:
		return 0, ErrUnsupportedGroup
	}
}

func codeToErr(c wire.Code) error {
	switch c {
	case wire.ErrTruncated:
		return ErrTruncated
	case wire.ErrMalformedVarint:
		return ErrMalformedVarint
	case wire.ErrUnsupportedGroup:
		return ErrUnsupportedGroup
	case wire.ErrInvalidTag:
		return ErrInvalidTag
	default:
		return ErrTruncated
	}
}

// rebase re-anchors a *DecodeError produced by a nested d.run call (whose
// Offset is relative to that call's own buffer) onto the offset space of
// the enclosing buffer, given where the nested buffer started within it.
func rebase(inner *DecodeError, base int) *DecodeError {
	return decodeErr(inner.err, base+inner.Offset)
}

func logDecode(op, format string, args ...any) { dbg.Log(nil, op, format, args...) }

func float32FromBits(b uint32) float32 { return float32FromBitsImpl(b) }
func float64FromBits(b uint64) float64 { return float64FromBitsImpl(b) }
