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

package bootstrap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nizox/minipb"
	"github.com/nizox/minipb/internal/arena"
	"github.com/nizox/minipb/internal/bootstrap"
	"github.com/nizox/minipb/internal/testutil"
)

func TestFileDescriptorProtoParsesOneMessageType(t *testing.T) {
	// A minimal FileDescriptorProto: name="x.proto", one message_type
	// named "M" with one field "f" (number 1, type TYPE_INT32=5).
	fieldDesc := testutil.Assemble(`1: {"f"} 3: 1 5: 5`) // FieldDescriptorProto{name,number,type}

	var message []byte // DescriptorProto{name: "M", field: [fieldDesc]}
	message = append(message, 0x0A, 1)
	message = append(message, []byte("M")...)
	message = append(message, 0x12, byte(len(fieldDesc))) // field 2 (field), LEN
	message = append(message, fieldDesc...)

	var file []byte
	file = append(file, 0x0A, 7) // field 1 (name), len 7
	file = append(file, []byte("x.proto")...)
	file = append(file, 0x22, byte(len(message))) // field 4 (message_type), LEN
	file = append(file, message...)

	a := arena.New()
	msg := minipb.NewMessage(a, bootstrap.FileDescriptorProto)
	require.NoError(t, minipb.Decode(file, msg, a))

	nameField := bootstrap.FileDescriptorProto.FieldByNumber(1)
	require.Equal(t, "x.proto", msg.GetString(nameField).String())

	msgTypeField := bootstrap.FileDescriptorProto.FieldByNumber(4)
	r := msg.GetRepeated(msgTypeField)
	require.Equal(t, 1, r.Len())
}

func TestDescriptorProtoSelfReferenceForNestedTypes(t *testing.T) {
	require.Same(t, bootstrap.DescriptorProto, bootstrap.DescriptorProto.Submessages[1])
}

func TestCodeGeneratorRequestReferencesFileDescriptorProto(t *testing.T) {
	require.Same(t, bootstrap.FileDescriptorProto, bootstrap.CodeGeneratorRequest.Submessages[0])
	require.Same(t, bootstrap.Version, bootstrap.CodeGeneratorRequest.Submessages[1])
}

func TestCodeGeneratorResponseRoundTrip(t *testing.T) {
	inner := testutil.Assemble(`1: {"out.go"} 15: {"package foo\n"}`)
	var resp []byte
	resp = append(resp, 0x7A, byte(len(inner))) // field 15 (file), LEN
	resp = append(resp, inner...)

	a := arena.New()
	msg := minipb.NewMessage(a, bootstrap.CodeGeneratorResponse)
	require.NoError(t, minipb.Decode(resp, msg, a))

	out, err := minipb.Encode(msg, a)
	require.NoError(t, err)
	require.Equal(t, resp, out)
}
