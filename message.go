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
	"unsafe"

	"github.com/nizox/minipb/internal/arena"
)

// StringView is a {ptr, len} view over bytes owned either by the decoder's
// input buffer (alias-string mode) or by an Arena (copied mode). It backs
// every STRING and BYTES field, per spec §3.5.
type StringView struct {
	ptr *byte
	len int
}

// Bytes returns the viewed bytes. Mutating the result is undefined
// behavior if the view aliases the decoder's input.
func (s StringView) Bytes() []byte {
	if s.len == 0 {
		return nil
	}
	return unsafe.Slice(s.ptr, s.len)
}

// String returns the viewed bytes as a string, performing no copy.
func (s StringView) String() string {
	if s.len == 0 {
		return ""
	}
	return unsafe.String(s.ptr, s.len)
}

// Len reports the length of the view.
func (s StringView) Len() int { return s.len }

// viewOf constructs a StringView directly over b (aliasing it).
func viewOf(b []byte) StringView {
	if len(b) == 0 {
		return StringView{}
	}
	return StringView{ptr: &b[0], len: len(b)}
}

// copyToArena constructs a StringView over an arena-owned copy of b.
func copyToArena(a *arena.Arena, b []byte) StringView {
	if len(b) == 0 {
		return StringView{}
	}
	dst := a.Alloc(len(b))
	if dst == nil {
		return StringView{}
	}
	copy(dst, b)
	return viewOf(dst[:len(b)])
}

// RepeatedField is the in-place header for a dynamic array of repeated
// elements, stored directly in a Message's byte buffer (spec §3.5):
// {ptr, count, capacity, element_size}.
type RepeatedField struct {
	ptr      unsafe.Pointer
	count    uint32
	capacity uint32
	elemSize uint32
}

// Len returns the number of live elements.
func (r *RepeatedField) Len() int { return int(r.count) }

// repeatedAt returns the i'th element, reinterpreted as T. The caller is
// responsible for T matching the field's declared element size (this is
// the "layout is the single source of truth" contract of spec §9).
func repeatedAt[T any](r *RepeatedField, i int) T {
	base := uintptr(r.ptr) + uintptr(i)*uintptr(r.elemSize)
	return *(*T)(unsafe.Pointer(base)) //nolint:govet
}

// repeatedSet overwrites the i'th element.
func repeatedSet[T any](r *RepeatedField, i int, v T) {
	base := uintptr(r.ptr) + uintptr(i)*uintptr(r.elemSize)
	*(*T)(unsafe.Pointer(base)) = v //nolint:govet
}

// repeatedAppend appends v, growing the backing array by doubling
// (min 4 elements) when capacity is exhausted, per spec §4.5. The old
// backing array, if any, is abandoned in the arena until teardown.
func repeatedAppend[T any](r *RepeatedField, a *arena.Arena, v T) bool {
	var zero T
	elemSize := uint32(unsafe.Sizeof(zero))
	if r.elemSize != 0 && r.elemSize != elemSize {
		panic("minipb: repeated element size mismatch")
	}
	r.elemSize = elemSize

	if r.count == r.capacity {
		newCap := max(4, r.capacity*2)
		raw := a.Alloc(int(newCap) * int(elemSize))
		if raw == nil {
			return false
		}
		newPtr := unsafe.Pointer(&raw[0])
		if r.count > 0 {
			oldBytes := unsafe.Slice((*byte)(r.ptr), int(r.count)*int(elemSize))
			newBytes := unsafe.Slice((*byte)(newPtr), int(r.count)*int(elemSize))
			copy(newBytes, oldBytes)
		}
		r.ptr = newPtr
		r.capacity = newCap
	}

	repeatedSet[T](r, int(r.count), v)
	r.count++
	return true
}

var (
	stringViewSize    = uint32(unsafe.Sizeof(StringView{}))
	pointerSize       = uint32(unsafe.Sizeof(uintptr(0)))
	repeatedFieldSize = uint32(unsafe.Sizeof(RepeatedField{}))
)

// FieldStorageSize returns the width, in bytes, that a field of this
// FieldType/FieldMode occupies in a Message's byte buffer: a RepeatedField
// header for repeated/map fields, regardless of element type, or the
// scalar/StringView/pointer width from FieldType.StorageSize() otherwise.
// MiniTable builders (see internal/bootstrap and the test fixtures) use
// this to lay out non-overlapping field offsets.
func FieldStorageSize(f *MiniTableField) uint32 {
	if f.Mode == Repeated || f.Mode == Map {
		return repeatedFieldSize
	}
	return f.FieldType.StorageSize()
}

// Message is an arena-allocated, MiniTable-described byte buffer (spec
// §3.5). A Message is only ever valid for as long as its owning Arena has
// not been freed.
type Message struct {
	buf   []byte
	table *MiniTable
	arena *arena.Arena

	// unknown holds verbatim skipped tag+payload bytes when
	// DecodeOptions.PreserveUnknown is set (SPEC_FULL.md §4, supplemental
	// to spec.md, which discards unknown fields by default).
	unknown []byte
}

// NewMessage allocates a zeroed Message of the given MiniTable's size from
// a. Returns nil if the arena is out of memory.
func NewMessage(a *arena.Arena, t *MiniTable) *Message {
	buf := a.Alloc(int(t.Size))
	if buf == nil && t.Size != 0 {
		return nil
	}
	return &Message{buf: buf, table: t, arena: a}
}

// Table returns this message's MiniTable.
func (m *Message) Table() *MiniTable { return m.table }

// Unknown returns the verbatim bytes of any unknown fields preserved
// during decode (empty unless DecodeOptions.PreserveUnknown was set).
func (m *Message) Unknown() []byte { return m.unknown }

// --- hasbits ---

func (m *Message) hasbitSet(idx int) bool {
	byteIdx, bit := idx/8, uint(idx%8)
	return m.buf[byteIdx]&(1<<bit) != 0
}

func (m *Message) setHasbit(idx int) {
	byteIdx, bit := idx/8, uint(idx%8)
	m.buf[byteIdx] |= 1 << bit
}

func (m *Message) clearHasbit(idx int) {
	byteIdx, bit := idx/8, uint(idx%8)
	m.buf[byteIdx] &^= 1 << bit
}

// --- oneof case tags ---

func (m *Message) oneofCase(groupIdx int) uint32 {
	off := m.table.OneofOffset(groupIdx)
	return load[uint32](m.buf, off)
}

func (m *Message) setOneofCase(groupIdx int, fieldNumber uint32) {
	off := m.table.OneofOffset(groupIdx)
	store(m.buf, off, fieldNumber)
}

// --- raw byte-offset load/store helpers ---
//
// These are the "explicit byte-level reads/writes" spec §9 calls for: a
// Message's storage is a raw buffer whose layout is entirely described by
// (offset, type) pairs from the MiniTable, not by Go struct fields.

func load[T any](buf []byte, offset uint32) T {
	return *(*T)(unsafe.Pointer(&buf[offset]))
}

func store[T any](buf []byte, offset uint32, v T) {
	*(*T)(unsafe.Pointer(&buf[offset])) = v
}

// --- field accessors (spec §4.3) ---

// Has reports whether f is "present": hasbit set, oneof case matches, or
// (for submessages/repeated) the stored pointer/count is non-nil/nonzero.
func (m *Message) Has(f *MiniTableField) bool {
	if idx, ok := f.OneofIndex(); ok {
		return m.oneofCase(idx) == f.Number
	}
	if idx, ok := f.HasbitIndex(); ok {
		return m.hasbitSet(idx)
	}
	switch f.Mode {
	case Repeated, Map:
		return load[RepeatedField](m.buf, f.Offset).Len() > 0
	}
	if f.FieldType == Message {
		return load[unsafe.Pointer](m.buf, f.Offset) != nil
	}
	// Proto3 implicit-presence scalar: "has" means non-default.
	return !m.isDefaultScalar(f)
}

func (m *Message) isDefaultScalar(f *MiniTableField) bool {
	switch f.FieldType {
	case String, Bytes:
		return load[StringView](m.buf, f.Offset).Len() == 0
	case Bool:
		return !load[bool](m.buf, f.Offset)
	case Float:
		return load[float32](m.buf, f.Offset) == 0
	case Double:
		return load[float64](m.buf, f.Offset) == 0
	default:
		switch f.FieldType.StorageSize() {
		case 4:
			return load[uint32](m.buf, f.Offset) == 0
		case 8:
			return load[uint64](m.buf, f.Offset) == 0
		}
	}
	return true
}

// setPresence marks f present: sets its hasbit, or sets its oneof group's
// case tag to f.Number (clearing whatever sibling may have been set, per
// spec §3.5's "at most one member present" invariant and §4.7's state
// machine).
func (m *Message) setPresence(f *MiniTableField) {
	if idx, ok := f.OneofIndex(); ok {
		m.setOneofCase(idx, f.Number)
		return
	}
	if idx, ok := f.HasbitIndex(); ok {
		m.setHasbit(idx)
	}
}

// ClearOneof clears group groupIdx, leaving no member present.
func (m *Message) ClearOneof(groupIdx int) { m.setOneofCase(groupIdx, 0) }

// SetScalar writes value at f's offset and records presence.
func SetScalar[T any](m *Message, f *MiniTableField, value T) {
	store(m.buf, f.Offset, value)
	m.setPresence(f)
}

// GetScalar reads the native-width value at f's offset. The caller is
// responsible for checking presence first via Has, per spec §4.3.
func GetScalar[T any](m *Message, f *MiniTableField) T {
	return load[T](m.buf, f.Offset)
}

// SetString stores view at f's offset and records presence.
func (m *Message) SetString(f *MiniTableField, view StringView) {
	store(m.buf, f.Offset, view)
	m.setPresence(f)
}

// GetString reads the StringView at f's offset.
func (m *Message) GetString(f *MiniTableField) StringView {
	return load[StringView](m.buf, f.Offset)
}

// GetSubmessage returns the child Message pointer at f's offset, or nil.
func (m *Message) GetSubmessage(f *MiniTableField) *Message {
	p := load[unsafe.Pointer](m.buf, f.Offset)
	if p == nil {
		return nil
	}
	return (*Message)(p)
}

// SetSubmessage stores a child Message pointer at f's offset and records
// presence. Overwriting a previously-set pointer orphans the old child in
// the arena (spec §4.7, §9 "Oneof storage overwrite").
//
// child is also registered with the arena via KeepAlive: m.buf is an
// ordinary []byte, which the garbage collector does not scan for pointers,
// so a child reachable only through this stored unsafe.Pointer would
// otherwise be collectible out from under the parent.
func (m *Message) SetSubmessage(f *MiniTableField, child *Message) {
	store(m.buf, f.Offset, unsafe.Pointer(child))
	m.setPresence(f)
	m.arena.KeepAlive(child)
}

// GetRepeated returns a pointer to the in-place RepeatedField record at
// f's offset.
func (m *Message) GetRepeated(f *MiniTableField) *RepeatedField {
	return (*RepeatedField)(unsafe.Pointer(&m.buf[f.Offset]))
}
