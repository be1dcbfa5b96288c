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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nizox/minipb"
	"github.com/nizox/minipb/internal/arena"
	"github.com/nizox/minipb/internal/testutil"
	"github.com/nizox/minipb/internal/wire"
)

func scalarInt32Table(t *testing.T) *minipb.MiniTable {
	t.Helper()
	f, err := testutil.LoadSchema("testdata/schemas/scalar_int32.yaml")
	require.NoError(t, err)
	return f.Build()
}

func packedInt32Table(t *testing.T) *minipb.MiniTable {
	t.Helper()
	f, err := testutil.LoadSchema("testdata/schemas/packed_int32.yaml")
	require.NoError(t, err)
	return f.Build()
}

func stringFieldTable(t *testing.T) *minipb.MiniTable {
	t.Helper()
	f, err := testutil.LoadSchema("testdata/schemas/string_field.yaml")
	require.NoError(t, err)
	return f.Build()
}

// S1: empty message.
func TestDecodeEmptyMessage(t *testing.T) {
	table := scalarInt32Table(t)
	a := arena.New()
	msg := minipb.NewMessage(a, table)

	require.NoError(t, minipb.Decode(nil, msg, a))

	out, err := minipb.Encode(msg, a)
	require.NoError(t, err)
	require.Empty(t, out)
}

// S2: single int32 = 150, field 1 -> `08 96 01`.
func TestDecodeSingleInt32(t *testing.T) {
	table := scalarInt32Table(t)
	field := table.FieldByNumber(1)
	a := arena.New()
	msg := minipb.NewMessage(a, table)

	input := []byte{0x08, 0x96, 0x01}
	require.NoError(t, minipb.Decode(input, msg, a))
	require.True(t, msg.Has(field))
	require.EqualValues(t, 150, minipb.GetScalar[uint32](msg, field))

	out, err := minipb.Encode(msg, a)
	require.NoError(t, err)
	require.Equal(t, input, out)
}

// S3: last-wins scalar -- field 1 = 10, then field 1 = 20.
func TestDecodeLastWinsScalar(t *testing.T) {
	table := scalarInt32Table(t)
	field := table.FieldByNumber(1)
	a := arena.New()
	msg := minipb.NewMessage(a, table)

	input := []byte{0x08, 0x0A, 0x08, 0x14}
	require.NoError(t, minipb.Decode(input, msg, a))
	require.EqualValues(t, 20, minipb.GetScalar[uint32](msg, field))

	out, err := minipb.Encode(msg, a)
	require.NoError(t, err)
	require.Equal(t, []byte{0x08, 0x14}, out)
}

// S4: packed repeated int32 [1, 150, -1], field 1.
func TestDecodePackedRepeatedInt32(t *testing.T) {
	table := packedInt32Table(t)
	field := table.FieldByNumber(1)
	a := arena.New()
	msg := minipb.NewMessage(a, table)

	input := []byte{
		0x0A, 0x0D,
		0x01,
		0x96, 0x01,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01,
	}
	require.NoError(t, minipb.Decode(input, msg, a))

	r := msg.GetRepeated(field)
	require.Equal(t, 3, r.Len())

	out, err := minipb.Encode(msg, a)
	require.NoError(t, err)
	require.Equal(t, input, out)
}

// S5: unknown field skip -- field 1 = 42, field 999 = 7; schema knows field 1
// only.
func TestDecodeUnknownFieldSkip(t *testing.T) {
	table := scalarInt32Table(t)
	field := table.FieldByNumber(1)
	a := arena.New()
	msg := minipb.NewMessage(a, table)

	input := []byte{0x08, 0x2A, 0xB8, 0x3E, 0x07}
	require.NoError(t, minipb.Decode(input, msg, a))
	require.EqualValues(t, 42, minipb.GetScalar[uint32](msg, field))

	out, err := minipb.Encode(msg, a)
	require.NoError(t, err)
	require.Equal(t, []byte{0x08, 0x2A}, out)
}

// S6: truncated varint.
func TestDecodeTruncatedVarint(t *testing.T) {
	table := scalarInt32Table(t)
	a := arena.New()
	msg := minipb.NewMessage(a, table)

	err := minipb.Decode([]byte{0x08, 0x80}, msg, a)
	require.Error(t, err)
	require.True(t, errors.Is(err, minipb.ErrTruncated))

	var de *minipb.DecodeError
	require.ErrorAs(t, err, &de)
}

// S7: UTF-8 check on a STRING field.
func TestDecodeUTF8Validation(t *testing.T) {
	table := stringFieldTable(t)
	field := table.FieldByNumber(14)

	input := []byte{0x72, 0x02, 0xFF, 0xFE}

	a := arena.New()
	msg := minipb.NewMessage(a, table)
	err := minipb.Decode(input, msg, a, minipb.WithCheckUTF8(true))
	require.Error(t, err)
	require.True(t, errors.Is(err, minipb.ErrBadUTF8))

	a2 := arena.New()
	msg2 := minipb.NewMessage(a2, table)
	require.NoError(t, minipb.Decode(input, msg2, a2, minipb.WithCheckUTF8(false)))
	require.True(t, msg2.Has(field))
	require.Equal(t, []byte{0xFF, 0xFE}, msg2.GetString(field).Bytes())
}

// S8: recursion bound -- N=101 levels of nesting against max_depth=100.
func TestDecodeRecursionLimit(t *testing.T) {
	// Self-referential MiniTable, built via the declare-then-wire-up
	// pattern (spec §9): field 1 recurses into the table itself, so N
	// levels of nesting is just N nested length-delimited field-1 payloads.
	table := new(minipb.MiniTable)
	table.Populate([]minipb.MiniTableField{
		{Number: 1, FieldType: minipb.Message, Mode: minipb.Scalar, Offset: 0, SubmsgIndex: 0},
	}, []*minipb.MiniTable{table}, 8, 0, 0)

	// 101 nested field-1 wrappers: the innermost is an empty message (no
	// further tag to parse), so this chain asks the decoder to recurse
	// 101 times past depth 0 -- one past the default max_depth of 100.
	var body []byte
	for i := 0; i < 101; i++ {
		var wrapped []byte
		wrapped = wire.AppendTag(wrapped, 1, wire.Bytes)
		wrapped = wire.AppendBytes(wrapped, body)
		body = wrapped
	}

	a := arena.New()
	msg := minipb.NewMessage(a, table)
	err := minipb.Decode(body, msg, a)
	require.Error(t, err)
	require.True(t, errors.Is(err, minipb.ErrRecursionLimit))
}

func TestDecodeAliasStringSharesBackingArray(t *testing.T) {
	table := stringFieldTable(t)
	field := table.FieldByNumber(14)

	input := testutil.Assemble(`14: {"hello"}`)
	a := arena.New()
	msg := minipb.NewMessage(a, table)
	require.NoError(t, minipb.Decode(input, msg, a, minipb.WithAliasString(true)))

	view := msg.GetString(field)
	require.Equal(t, "hello", view.String())
	// The payload starts after the 2-byte tag+length prefix; an aliased
	// view points at those input bytes rather than at an arena copy.
	require.Same(t, &input[2], &view.Bytes()[0])
}
