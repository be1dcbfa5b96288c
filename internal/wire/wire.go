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

// Package wire implements the wire-reader primitives of spec §4.4: bounds
// checked varint, fixed32/64, length-delimited, and tag parsing over the
// canonical protobuf binary format, plus the corresponding append-side
// helpers used by the encoder.
//
// The heavy lifting is delegated to google.golang.org/protobuf/encoding/
// protowire, the same low-level varint/tag codec the wider protobuf-go
// ecosystem (and the protocolbuffers-protobuf-go example in this corpus)
// is built on; this package adds the field-number-range and
// reserved-wire-type validation spec.md requires at the tag level, which
// protowire itself leaves to its callers.
package wire

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Type is a wire type, one of Varint, Fixed64, Bytes, Fixed32. Group wire
// types (3, 4) are never constructed by this package; see ConsumeTag.
type Type = protowire.Type

const (
	Varint  = protowire.VarintType
	Fixed64 = protowire.Fixed64Type
	Bytes   = protowire.BytesType
	Fixed32 = protowire.Fixed32Type
)

// Code distinguishes the ways parsing a primitive can fail, mirroring
// spec §7's decoder error taxonomy at the primitive level.
type Code int

const (
	OK Code = iota
	ErrTruncated
	ErrMalformedVarint
	ErrInvalidTag
	ErrUnsupportedGroup
)

// MinFieldNumber and MaxFieldNumber bound valid protobuf field numbers,
// per spec §4.4.
const (
	MinFieldNumber = 1
	MaxFieldNumber = 1<<29 - 1
)

// ConsumeTag reads one field tag, validating the field number range and
// rejecting reserved/group wire types. Returns the number of bytes
// consumed and a nonzero Code on failure; n is always <= 0 on failure.
func ConsumeTag(b []byte) (num int32, typ Type, n int, code Code) {
	number, t, sz := protowire.ConsumeTag(b)
	if sz < 0 {
		return 0, 0, 0, codeFromProtowire(sz)
	}
	if number < MinFieldNumber || number > MaxFieldNumber {
		return 0, 0, 0, ErrInvalidTag
	}
	switch t {
	case protowire.VarintType, protowire.Fixed32Type, protowire.Fixed64Type, protowire.BytesType:
		return int32(number), t, sz, OK
	case protowire.StartGroupType, protowire.EndGroupType:
		return 0, 0, 0, ErrUnsupportedGroup
	default:
		return 0, 0, 0, ErrInvalidTag
	}
}

// ConsumeVarint reads one varint, per spec §4.4: at most 10 bytes, and the
// 10th byte must not have its continuation bit set.
func ConsumeVarint(b []byte) (v uint64, n int, code Code) {
	v, sz := protowire.ConsumeVarint(b)
	if sz < 0 {
		return 0, 0, codeFromProtowire(sz)
	}
	return v, sz, OK
}

// ConsumeFixed32 reads a 4-byte little-endian value.
func ConsumeFixed32(b []byte) (v uint32, n int, code Code) {
	v, sz := protowire.ConsumeFixed32(b)
	if sz < 0 {
		return 0, 0, codeFromProtowire(sz)
	}
	return v, sz, OK
}

// ConsumeFixed64 reads an 8-byte little-endian value.
func ConsumeFixed64(b []byte) (v uint64, n int, code Code) {
	v, sz := protowire.ConsumeFixed64(b)
	if sz < 0 {
		return 0, 0, codeFromProtowire(sz)
	}
	return v, sz, OK
}

// ConsumeBytes reads a varint length followed by that many bytes, and
// returns the payload as a subslice of b (no copy).
func ConsumeBytes(b []byte) (v []byte, n int, code Code) {
	v, sz := protowire.ConsumeBytes(b)
	if sz < 0 {
		return nil, 0, codeFromProtowire(sz)
	}
	return v, sz, OK
}

func codeFromProtowire(n int) Code {
	switch n {
	case protowire.ErrCodeTruncated:
		return ErrTruncated
	case protowire.ErrCodeFieldNumber:
		return ErrInvalidTag
	case protowire.ErrCodeOverflow:
		return ErrMalformedVarint
	case protowire.ErrCodeReserved:
		return ErrUnsupportedGroup
	case protowire.ErrCodeEndGroup:
		return ErrUnsupportedGroup
	default:
		return ErrTruncated
	}
}

// --- append-side helpers, used by the encoder ---

func AppendTag(b []byte, num int32, typ Type) []byte {
	return protowire.AppendTag(b, protowire.Number(num), typ)
}

func AppendVarint(b []byte, v uint64) []byte       { return protowire.AppendVarint(b, v) }
func AppendFixed32(b []byte, v uint32) []byte      { return protowire.AppendFixed32(b, v) }
func AppendFixed64(b []byte, v uint64) []byte      { return protowire.AppendFixed64(b, v) }
func AppendBytes(b []byte, v []byte) []byte        { return protowire.AppendBytes(b, v) }

func SizeTag(num int32) int       { return protowire.SizeTag(protowire.Number(num)) }
func SizeVarint(v uint64) int     { return protowire.SizeVarint(v) }
func SizeFixed32() int            { return 4 }
func SizeFixed64() int            { return 8 }
func SizeBytes(n int) int         { return protowire.SizeBytes(n) }

// EncodeZigZag32/64 and DecodeZigZag32/64 implement the ZigZag transform
// spec §4.4 specifies for SINT32/SINT64: (n << 1) ^ (n >> 31/63) to encode,
// (n >> 1) ^ -(n & 1) to decode.
func EncodeZigZag64(v int64) uint64 { return protowire.EncodeZigZag(v) }
func DecodeZigZag64(v uint64) int64 { return protowire.DecodeZigZag(v) }

func EncodeZigZag32(v int32) uint32 { return uint32(protowire.EncodeZigZag(int64(v))) }
func DecodeZigZag32(v uint32) int32 { return int32(protowire.DecodeZigZag(uint64(v))) }
