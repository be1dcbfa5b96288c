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

package arena_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nizox/minipb/internal/arena"
)

func TestAllocReturnsZeroedAlignedBytes(t *testing.T) {
	a := arena.New()
	b := a.Alloc(3)
	require.Len(t, b, 3)
	for _, v := range b {
		require.Zero(t, v)
	}
}

func TestAllocDistinctRegionsDoNotOverlap(t *testing.T) {
	a := arena.New()
	first := a.Alloc(8)
	second := a.Alloc(8)

	first[0] = 0xFF
	require.Zero(t, second[0])
}

func TestAllocWithoutFallbackFailsCleanly(t *testing.T) {
	a := &arena.Arena{}
	a.Init(make([]byte, 8), nil)

	require.NotNil(t, a.Alloc(8))
	require.Nil(t, a.Alloc(1), "out-of-memory must return nil, not panic")
}

func TestAllocGrowsPastInitialBlock(t *testing.T) {
	a := &arena.Arena{}
	a.Init(make([]byte, 8), arena.GoAllocator{})

	require.NotNil(t, a.Alloc(8))
	b := a.Alloc(64)
	require.Len(t, b, 64)
}

func TestFreeAllowsReuse(t *testing.T) {
	a := arena.New()
	first := a.Alloc(16)
	first[0] = 1

	a.Free()
	second := a.Alloc(16)
	require.Zero(t, second[0], "Free must zero reused blocks")
}

func TestKeepAliveDoesNotPanic(t *testing.T) {
	a := arena.New()
	v := make([]byte, 4)
	require.NotPanics(t, func() { a.KeepAlive(v) })
}
