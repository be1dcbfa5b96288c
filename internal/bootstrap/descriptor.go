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

package bootstrap

import "github.com/nizox/minipb"

// Field numbers below are exactly google/protobuf/descriptor.proto's; this
// package exists to parse real descriptor bytes, and those numbers are not
// ours to choose.
const (
	fileName           = 1
	filePackage         = 2
	fileDependency      = 3
	fileMessageType     = 4
	fileEnumType        = 5
	fileExtension       = 7
	filePublicDep       = 10
	fileWeakDep         = 11
	fileSyntax          = 12

	dMsgName          = 1
	dMsgField         = 2
	dMsgNestedType    = 3
	dMsgEnumType      = 4
	dMsgExtension     = 6
	dMsgOneofDecl     = 8
	dMsgReservedName  = 10

	fieldName         = 1
	fieldExtendee     = 2
	fieldNumber       = 3
	fieldLabel        = 4
	fieldType         = 5
	fieldTypeName     = 6
	fieldDefaultValue = 7
	fieldOneofIndex   = 9
	fieldJSONName     = 10
	fieldProto3Opt    = 17

	enumName  = 1
	enumValue = 2

	enumValName   = 1
	enumValNumber = 2

	oneofName = 1
)

// The message types of this subset, declared up front (spec §9 "declare,
// then wire up references") so DescriptorProto's self-reference (via
// nested_type) and every cross-reference between these types resolve to a
// stable pointer regardless of build order.
var (
	FileDescriptorProto      = new(minipb.MiniTable)
	DescriptorProto          = new(minipb.MiniTable)
	FieldDescriptorProto     = new(minipb.MiniTable)
	OneofDescriptorProto     = new(minipb.MiniTable)
	EnumDescriptorProto      = new(minipb.MiniTable)
	EnumValueDescriptorProto = new(minipb.MiniTable)
)

func init() {
	buildEnumValueDescriptorProto()
	buildOneofDescriptorProto()
	buildFieldDescriptorProto()
	buildEnumDescriptorProto()
	buildDescriptorProto()
	buildFileDescriptorProto()
}

func buildEnumValueDescriptorProto() {
	l := newLayout()
	l.scalar(enumValName, minipb.String)
	l.scalar(enumValNumber, minipb.Int32)
	fields, size, hb := l.finish()
	EnumValueDescriptorProto.Populate(fields, nil, size, hb, 0)
}

func buildOneofDescriptorProto() {
	l := newLayout()
	l.scalar(oneofName, minipb.String)
	fields, size, hb := l.finish()
	OneofDescriptorProto.Populate(fields, nil, size, hb, 0)
}

func buildFieldDescriptorProto() {
	l := newLayout()
	l.scalar(fieldName, minipb.String)
	l.scalar(fieldExtendee, minipb.String)
	l.scalar(fieldNumber, minipb.Int32)
	l.scalar(fieldLabel, minipb.Enum)
	l.scalar(fieldType, minipb.Enum)
	l.scalar(fieldTypeName, minipb.String)
	l.scalar(fieldDefaultValue, minipb.String)
	l.scalar(fieldOneofIndex, minipb.Int32)
	l.scalar(fieldJSONName, minipb.String)
	l.scalar(fieldProto3Opt, minipb.Bool)
	fields, size, hb := l.finish()
	FieldDescriptorProto.Populate(fields, nil, size, hb, 0)
}

func buildEnumDescriptorProto() {
	l := newLayout()
	l.scalar(enumName, minipb.String)
	l.repeatedMessage(enumValue, 0)
	fields, size, hb := l.finish()
	EnumDescriptorProto.Populate(fields, []*minipb.MiniTable{EnumValueDescriptorProto}, size, hb, 0)
}

func buildDescriptorProto() {
	l := newLayout()
	l.scalar(dMsgName, minipb.String)
	l.repeatedMessage(dMsgField, 0)
	l.repeatedMessage(dMsgNestedType, 1) // self-reference: DescriptorProto
	l.repeatedMessage(dMsgEnumType, 2)
	l.repeatedMessage(dMsgExtension, 0)
	l.repeatedMessage(dMsgOneofDecl, 3)
	l.repeated(dMsgReservedName, minipb.String)
	fields, size, hb := l.finish()
	DescriptorProto.Populate(fields, []*minipb.MiniTable{
		FieldDescriptorProto,
		DescriptorProto, // cycle: resolves because the pointer was allocated above
		EnumDescriptorProto,
		OneofDescriptorProto,
	}, size, hb, 0)
}

func buildFileDescriptorProto() {
	l := newLayout()
	l.scalar(fileName, minipb.String)
	l.scalar(filePackage, minipb.String)
	l.repeated(fileDependency, minipb.String)
	l.repeatedMessage(fileMessageType, 0)
	l.repeatedMessage(fileEnumType, 1)
	l.repeatedMessage(fileExtension, 2)
	l.repeated(filePublicDep, minipb.Int32)
	l.repeated(fileWeakDep, minipb.Int32)
	l.scalar(fileSyntax, minipb.String)
	fields, size, hb := l.finish()
	FileDescriptorProto.Populate(fields, []*minipb.MiniTable{
		DescriptorProto,
		EnumDescriptorProto,
		FieldDescriptorProto,
	}, size, hb, 0)
}
