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

// Package testutil provides wire-format fixture helpers shared by this
// module's tests: assembling protoscope text into raw bytes (so test
// cases can be written as readable field/value pairs instead of literal
// hex), and loading YAML-described MiniTable schema fixtures.
package testutil

import (
	"fmt"
	"os"

	"github.com/protocolbuffers/protoscope"
	"gopkg.in/yaml.v3"

	"github.com/nizox/minipb"
)

// Assemble compiles protoscope source text into the wire bytes it
// describes. Panics on malformed input since it is only ever used to build
// table-driven test fixtures with fixed, known-good source.
func Assemble(src string) []byte {
	s := protoscope.NewScanner(src)
	b, err := s.Exec()
	if err != nil {
		panic(fmt.Sprintf("testutil: invalid protoscope fixture: %v", err))
	}
	return b
}

// Disassemble renders raw wire bytes as protoscope text, for failure
// messages that need to show what was actually produced/consumed.
func Disassemble(b []byte) string {
	return protoscope.Write(b, protoscope.WriterOptions{})
}

// SchemaFixture is the YAML shape of a hand-described MiniTable used by
// decode_test.go: just enough to build one flat
// message's field list without pulling in the full bootstrap/descriptor
// machinery.
type SchemaFixture struct {
	Name   string `yaml:"name"`
	Fields []struct {
		Number   uint32 `yaml:"number"`
		Type     string `yaml:"type"`
		Mode     string `yaml:"mode"`
		Packed   bool   `yaml:"packed"`
		OneofIdx *int   `yaml:"oneof_index"`
	} `yaml:"fields"`
}

// LoadSchema reads and parses a SchemaFixture from path.
func LoadSchema(path string) (SchemaFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SchemaFixture{}, err
	}
	var f SchemaFixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return SchemaFixture{}, err
	}
	return f, nil
}

var fieldTypeNames = map[string]minipb.FieldType{
	"double": minipb.Double, "float": minipb.Float,
	"int64": minipb.Int64, "uint64": minipb.Uint64, "int32": minipb.Int32,
	"fixed64": minipb.Fixed64, "fixed32": minipb.Fixed32, "bool": minipb.Bool,
	"string": minipb.String, "message": minipb.Message, "bytes": minipb.Bytes,
	"uint32": minipb.Uint32, "enum": minipb.Enum,
	"sfixed32": minipb.Sfixed32, "sfixed64": minipb.Sfixed64,
	"sint32": minipb.Sint32, "sint64": minipb.Sint64,
}

// Build lays out f's fields sequentially (in declaration order, each
// scalar field getting its own hasbit unless part of a oneof; repeated
// and map fields get none) and returns the resulting
// MiniTable. It does not support MESSAGE-typed fields -- fixtures needing
// submessages build their MiniTables directly rather than through YAML,
// since expressing the submessage graph in this flat format would just
// reinvent internal/bootstrap's Go-level "declare, then wire" pattern.
func (f SchemaFixture) Build() *minipb.MiniTable {
	var fields []minipb.MiniTableField
	hasbit := 0
	oneofCount := 0
	for _, spec := range f.Fields {
		ft, ok := fieldTypeNames[spec.Type]
		if !ok {
			panic(fmt.Sprintf("testutil: unknown field type %q in fixture %q", spec.Type, f.Name))
		}
		mf := minipb.MiniTableField{
			Number:      spec.Number,
			FieldType:   ft,
			IsPacked:    spec.Packed,
			SubmsgIndex: minipb.NoSubmessage,
		}
		switch spec.Mode {
		case "repeated":
			mf.Mode = minipb.Repeated
		case "map":
			mf.Mode = minipb.Map
		default:
			mf.Mode = minipb.Scalar
		}
		if spec.OneofIdx != nil {
			mf.Presence = int32(-(*spec.OneofIdx) - 1)
			if *spec.OneofIdx+1 > oneofCount {
				oneofCount = *spec.OneofIdx + 1
			}
		} else if mf.Mode == minipb.Scalar {
			hasbit++
			mf.Presence = int32(hasbit)
		}
		fields = append(fields, mf)
	}

	hasbitBytes := uint8((hasbit + 7) / 8)
	offset := uint32(hasbitBytes) + uint32(oneofCount)*4
	for i := range fields {
		fields[i].Offset = offset
		offset += fields[i].StorageSize()
	}

	return minipb.NewMiniTable(fields, nil, offset, hasbitBytes, uint8(oneofCount))
}
