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

// Package minipb is a schema-driven Protocol Buffers codec modeled on
// micro-protobuf (upb): one compact runtime schema, the MiniTable, drives
// both decoding and encoding of an arbitrary message type without
// generated per-message code on the hot path.
//
// A MiniTable describes a message's fields -- their numbers, wire types,
// storage offsets, and presence tracking -- and a Message is nothing more
// than a zeroed, arena-allocated byte buffer interpreted through that
// description. Decode and Encode walk the MiniTable to read and write
// field storage directly, using explicit byte offsets rather than
// reflection or generated struct fields.
//
//	a := arena.New()
//	msg := minipb.NewMessage(a, personTable)
//	if err := minipb.Decode(wireBytes, msg, a); err != nil {
//		// err is a *minipb.DecodeError wrapping one of the Err* sentinels.
//	}
//	out, err := minipb.Encode(msg, a)
//
// Messages, MiniTables, and the StringView/RepeatedField storage headers
// are not safe for concurrent mutation; a Message belongs to exactly one
// Arena for its entire lifetime, and that Arena is not safe to share
// across goroutines. MiniTables themselves are immutable once built and
// may be shared freely.
//
// internal/bootstrap hand-codes the MiniTables for a subset of
// descriptor.proto and plugin.proto, which is all a descriptor-to-MiniTable
// generator (itself outside this package's scope) needs to parse its own
// input using this same codec.
package minipb
