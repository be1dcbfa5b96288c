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

package minipb_test

import (
	"testing"

	"github.com/nizox/minipb"
	"github.com/nizox/minipb/internal/arena"
	"github.com/nizox/minipb/internal/bootstrap"
)

// FuzzDecode exercises spec §8 item 8: decode either succeeds or returns a
// typed error for any input -- it never panics, crashes, or reads out of
// bounds. It runs every random input against several distinct schemas
// (nested and self-referential) since a bug may only be reachable
// through a particular field-type/mode combination.
func FuzzDecode(f *testing.F) {
	for _, seed := range [][]byte{
		nil,
		{0x08, 0x96, 0x01},
		{0x08, 0x2A, 0xB8, 0x3E, 0x07},
		{0x0A, 0x0C, 0x01, 0x96, 0x01},
		{0x72, 0x02, 0xFF, 0xFE},
	} {
		f.Add(seed)
	}

	tables := []*minipb.MiniTable{
		bootstrap.FileDescriptorProto,
		bootstrap.DescriptorProto,
		bootstrap.CodeGeneratorRequest,
		bootstrap.CodeGeneratorResponse,
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		for _, table := range tables {
			a := arena.New()
			msg := minipb.NewMessage(a, table)
			_ = minipb.Decode(data, msg, a)
		}
	})
}

// FuzzDecodeEncodeRoundTrip additionally checks that anything which
// decodes successfully can be re-encoded without erroring (spec §8 items
// 1-2: structural round-trip / idempotence), using the real bootstrap
// FileDescriptorProto schema.
func FuzzDecodeEncodeRoundTrip(f *testing.F) {
	f.Add([]byte{0x0A, 0x03, 0x66, 0x6F, 0x6F}) // name = "foo"

	f.Fuzz(func(t *testing.T, data []byte) {
		a := arena.New()
		msg := minipb.NewMessage(a, bootstrap.FileDescriptorProto)
		if err := minipb.Decode(data, msg, a); err != nil {
			return
		}
		if _, err := minipb.Encode(msg, a); err != nil {
			t.Fatalf("re-encoding a successfully decoded message must not fail: %v", err)
		}
	})
}
