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
	"math"
	"sort"

	"github.com/nizox/minipb/internal/wire"
)

// FieldType is the closed set of protobuf scalar/compound field types
// (spec §3.1). GROUP is listed for completeness but is never a legal
// field_type in a constructed MiniTable; NewMiniTable rejects it.
type FieldType uint8

const (
	_ FieldType = iota
	Double
	Float
	Int64
	Uint64
	Int32
	Fixed64
	Fixed32
	Bool
	String
	Group // unsupported; rejected by NewMiniTable
	Message
	Bytes
	Uint32
	Enum
	Sfixed32
	Sfixed64
	Sint32
	Sint64
)

// WireType returns the canonical wire type used to encode a scalar/compound
// value of this FieldType when unpacked.
func (t FieldType) WireType() wire.Type {
	switch t {
	case Int64, Uint64, Int32, Bool, Enum, Sint32, Sint64, Uint32:
		return wire.Varint
	case Fixed64, Double, Sfixed64:
		return wire.Fixed64
	case Fixed32, Float, Sfixed32:
		return wire.Fixed32
	case String, Bytes, Message, Group:
		return wire.Bytes
	default:
		return wire.Varint
	}
}

// Packable reports whether repeated fields of this type may use the packed
// wire encoding (scalar numeric types only; strings/bytes/messages cannot
// be packed).
func (t FieldType) Packable() bool {
	switch t {
	case Double, Float, Int64, Uint64, Int32, Fixed64, Fixed32, Bool,
		Uint32, Enum, Sfixed32, Sfixed64, Sint32, Sint64:
		return true
	default:
		return false
	}
}

// StorageSize returns the size in bytes of one scalar/compound value of
// this type as stored in a Message's byte buffer (spec §3.5).
func (t FieldType) StorageSize() uint32 {
	switch t {
	case Double, Int64, Uint64, Fixed64, Sfixed64, Sint64:
		return 8
	case Float, Int32, Fixed32, Bool, Uint32, Enum, Sfixed32, Sint32:
		return 4
	case String, Bytes:
		return stringViewSize
	case Message:
		return pointerSize
	default:
		return 0
	}
}

func (t FieldType) String() string {
	names := [...]string{
		"", "double", "float", "int64", "uint64", "int32", "fixed64",
		"fixed32", "bool", "string", "group", "message", "bytes",
		"uint32", "enum", "sfixed32", "sfixed64", "sint32", "sint64",
	}
	if int(t) < len(names) {
		return names[t]
	}
	return "invalid"
}

// FieldMode is one of scalar, repeated, or map (spec §3.2). A Map field is
// given RepeatedField-header storage (see FieldStorageSize), but Decode
// skips its occurrences as unknown fields and Encode emits nothing for it.
type FieldMode uint8

const (
	Scalar FieldMode = iota
	Repeated
	Map
)

func (m FieldMode) String() string {
	switch m {
	case Scalar:
		return "scalar"
	case Repeated:
		return "repeated"
	case Map:
		return "map"
	default:
		return "invalid"
	}
}

// noSubmessage is the sentinel submsg_index value for fields that are not
// of MESSAGE type.
const noSubmessage = math.MaxUint16

// NoSubmessage is noSubmessage's exported form, for table builders outside
// this package (see internal/bootstrap) that construct MiniTableField
// literals directly instead of through a field-builder helper.
const NoSubmessage = noSubmessage

// MiniTableField is the immutable descriptor of one field (spec §3.3).
type MiniTableField struct {
	Number      uint32
	Offset      uint32
	Presence    int32 // 0 = implicit; >0 = 1-based hasbit index; <0 = -(oneof_index+1)
	SubmsgIndex uint16
	FieldType   FieldType
	Mode        FieldMode
	IsPacked    bool
}

// HasbitIndex returns the 0-based hasbit index for a field with explicit
// presence, and ok == false otherwise.
func (f *MiniTableField) HasbitIndex() (idx int, ok bool) {
	if f.Presence > 0 {
		return int(f.Presence - 1), true
	}
	return 0, false
}

// OneofIndex returns the 0-based oneof group index for a oneof member
// field, and ok == false otherwise.
func (f *MiniTableField) OneofIndex() (idx int, ok bool) {
	if f.Presence < 0 {
		return int(-f.Presence - 1), true
	}
	return 0, false
}

// IsImplicit reports whether this is a proto3-implicit-presence field: no
// hasbit, no oneof, presence determined by "is the value non-default".
func (f *MiniTableField) IsImplicit() bool { return f.Presence == 0 }

// HasSubmessage reports whether this field carries a submessage-type index.
func (f *MiniTableField) HasSubmessage() bool {
	return f.FieldType == Message && f.SubmsgIndex != noSubmessage
}

// StorageSize returns the width, in bytes, this field occupies in a
// Message's byte buffer: a RepeatedField header for Repeated/Map mode
// regardless of element type, or FieldType.StorageSize() otherwise. Table
// builders (internal/bootstrap, test fixtures) use this to assign
// non-overlapping field offsets.
func (f *MiniTableField) StorageSize() uint32 {
	return FieldStorageSize(f)
}

// MiniTable is the compact, runtime-interpretable schema for one message
// type (spec §3.4). MiniTables are immutable once constructed and are
// typically static: hand-coded (see internal/bootstrap) or produced ahead
// of time by an external generator, never mutated during decode/encode.
type MiniTable struct {
	Fields      []MiniTableField // sorted strictly ascending by Number
	Submessages []*MiniTable     // one entry per distinct submessage type; may self-reference
	Size        uint32           // total message-storage size in bytes
	HasbitBytes uint8
	OneofCount  uint8
	DenseBelow  uint8 // prefix length for which Fields[i].Number == i+1
}

// A Message's byte layout, per spec §3.5:
//
//	[0 .. HasbitBytes)                 hasbit bitmap
//	[HasbitBytes .. +4*OneofCount)      oneof case tags (uint32 each)
//	[... up to Size)                   field storage
const oneofTagSize = 4

// OneofOffset returns the byte offset of oneof group i's 4-byte case tag.
func (t *MiniTable) OneofOffset(i int) uint32 {
	return uint32(t.HasbitBytes) + uint32(i)*oneofTagSize
}

// NewMiniTable builds a MiniTable from a field list and submessage table,
// validating spec.md's invariants. fields need not be pre-sorted; they are
// sorted by Number and dense_below is computed automatically. size must be
// at least large enough to hold the hasbit/oneof regions and every field's
// storage at its declared offset; callers (the bootstrap tables, or tests)
// are responsible for assigning non-overlapping offsets.
func NewMiniTable(fields []MiniTableField, submessages []*MiniTable, size uint32, hasbitBytes, oneofCount uint8) *MiniTable {
	t := &MiniTable{}
	t.Populate(fields, submessages, size, hasbitBytes, oneofCount)
	return t
}

// Populate fills in a previously-declared MiniTable in place. This is the
// "declare, then wire up references" pattern spec §9 calls for: a set of
// mutually- or self-referential message types first allocates one
// *MiniTable per type (each a valid, empty pointer), builds every type's
// field list against those pointers, then calls Populate on each once all
// submessage references are resolvable. See internal/bootstrap.
func (t *MiniTable) Populate(fields []MiniTableField, submessages []*MiniTable, size uint32, hasbitBytes, oneofCount uint8) {
	sorted := append([]MiniTableField(nil), fields...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	for i := range sorted {
		if sorted[i].FieldType == Group {
			panic("minipb: group wire encoding is not supported (spec §1 Non-goals)")
		}
		if i > 0 && sorted[i].Number == sorted[i-1].Number {
			panic("minipb: duplicate field number in MiniTable")
		}
	}

	dense := 0
	for dense < len(sorted) && sorted[dense].Number == uint32(dense+1) {
		dense++
	}

	t.Fields = sorted
	t.Submessages = submessages
	t.Size = size
	t.HasbitBytes = hasbitBytes
	t.OneofCount = oneofCount
	t.DenseBelow = uint8(min(dense, math.MaxUint8))
}

// FieldByNumber returns the field with the given number, or nil.
//
// If number <= DenseBelow, this is an O(1) indexed lookup; otherwise it
// binary-searches the (sorted) remainder. See spec §4.2.
func (t *MiniTable) FieldByNumber(number uint32) *MiniTableField {
	if number >= 1 && number <= uint32(t.DenseBelow) {
		return &t.Fields[number-1]
	}

	lo, hi := int(t.DenseBelow), len(t.Fields)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case t.Fields[mid].Number == number:
			return &t.Fields[mid]
		case t.Fields[mid].Number < number:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return nil
}

// Submessage returns the MiniTable referenced by f's submsg_index. Panics
// if f is not a MESSAGE field with a submessage index set; callers should
// check HasSubmessage first.
func (t *MiniTable) Submessage(f *MiniTableField) *MiniTable {
	return t.Submessages[f.SubmsgIndex]
}
