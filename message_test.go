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

	"github.com/stretchr/testify/require"

	"github.com/nizox/minipb"
	"github.com/nizox/minipb/internal/arena"
)

func TestHasExplicitPresence(t *testing.T) {
	table := minipb.NewMiniTable([]minipb.MiniTableField{
		{Number: 1, FieldType: minipb.Int32, Mode: minipb.Scalar, Offset: 1, Presence: 1},
	}, nil, 5, 1, 0)
	field := table.FieldByNumber(1)

	a := arena.New()
	msg := minipb.NewMessage(a, table)
	require.False(t, msg.Has(field))

	minipb.SetScalar(msg, field, uint32(0))
	require.True(t, msg.Has(field), "explicit presence means the hasbit, not the value, governs Has")
}

func TestHasImplicitPresence(t *testing.T) {
	table := minipb.NewMiniTable([]minipb.MiniTableField{
		{Number: 1, FieldType: minipb.Int32, Mode: minipb.Scalar, Offset: 0},
	}, nil, 4, 0, 0)
	field := table.FieldByNumber(1)

	a := arena.New()
	msg := minipb.NewMessage(a, table)
	require.False(t, msg.Has(field))

	minipb.SetScalar(msg, field, uint32(0))
	require.False(t, msg.Has(field), "implicit presence: zero value is absent")

	minipb.SetScalar(msg, field, uint32(7))
	require.True(t, msg.Has(field))
}

func TestRepeatedAppendGrowsByDoubling(t *testing.T) {
	table := minipb.NewMiniTable([]minipb.MiniTableField{
		{Number: 1, FieldType: minipb.Int32, Mode: minipb.Repeated, Offset: 0},
	}, nil, 24, 0, 0)
	field := table.FieldByNumber(1)

	a := arena.New()
	msg := minipb.NewMessage(a, table)
	r := msg.GetRepeated(field)
	require.Equal(t, 0, r.Len())

	input := []byte{}
	for i := uint32(0); i < 10; i++ {
		v := []byte{0x08, byte(i)}
		input = append(input, v...)
	}
	require.NoError(t, minipb.Decode(input, msg, a))
	require.Equal(t, 10, r.Len())
}

func TestOneofSwitchingOrphansSubmessage(t *testing.T) {
	child := minipb.NewMiniTable([]minipb.MiniTableField{
		{Number: 1, FieldType: minipb.Int32, Mode: minipb.Scalar, Offset: 0},
	}, nil, 4, 0, 0)

	table := minipb.NewMiniTable([]minipb.MiniTableField{
		{Number: 1, FieldType: minipb.Message, Mode: minipb.Scalar, Offset: 4, Presence: -1, SubmsgIndex: 0},
		{Number: 2, FieldType: minipb.Int32, Mode: minipb.Scalar, Offset: 4, Presence: -1},
	}, []*minipb.MiniTable{child}, 12, 0, 1)

	msgField, intField := table.FieldByNumber(1), table.FieldByNumber(2)

	a := arena.New()
	msg := minipb.NewMessage(a, table)

	sub := minipb.NewMessage(a, child)
	msg.SetSubmessage(msgField, sub)
	require.True(t, msg.Has(msgField))

	minipb.SetScalar(msg, intField, uint32(5))
	require.False(t, msg.Has(msgField), "switching the oneof member must clear the old member's presence")
	require.True(t, msg.Has(intField))
}

func TestClearOneof(t *testing.T) {
	table := minipb.NewMiniTable([]minipb.MiniTableField{
		{Number: 1, FieldType: minipb.Int32, Mode: minipb.Scalar, Offset: 4, Presence: -1},
	}, nil, 8, 0, 1)
	field := table.FieldByNumber(1)

	a := arena.New()
	msg := minipb.NewMessage(a, table)
	minipb.SetScalar(msg, field, uint32(1))
	require.True(t, msg.Has(field))

	msg.ClearOneof(0)
	require.False(t, msg.Has(field))
}

func TestSubmessageMergeAcrossRepeatedOccurrences(t *testing.T) {
	child := minipb.NewMiniTable([]minipb.MiniTableField{
		{Number: 1, FieldType: minipb.Int32, Mode: minipb.Scalar, Offset: 0},
		{Number: 2, FieldType: minipb.Int32, Mode: minipb.Scalar, Offset: 4},
	}, nil, 8, 0, 0)

	table := minipb.NewMiniTable([]minipb.MiniTableField{
		{Number: 1, FieldType: minipb.Message, Mode: minipb.Scalar, Offset: 0, SubmsgIndex: 0},
	}, []*minipb.MiniTable{child}, 8, 0, 0)
	field := table.FieldByNumber(1)
	childF1, childF2 := child.FieldByNumber(1), child.FieldByNumber(2)

	// Two occurrences of field 1, each setting a different child field:
	// they must merge into the same submessage instance.
	first := []byte{0x0A, 0x02, 0x08, 0x05}  // {1: 5}
	second := []byte{0x0A, 0x02, 0x10, 0x09} // {2: 9}
	input := append(append([]byte{}, first...), second...)

	a := arena.New()
	msg := minipb.NewMessage(a, table)
	require.NoError(t, minipb.Decode(input, msg, a))

	sub := msg.GetSubmessage(field)
	require.NotNil(t, sub)
	require.EqualValues(t, 5, minipb.GetScalar[uint32](sub, childF1))
	require.EqualValues(t, 9, minipb.GetScalar[uint32](sub, childF2))
}
