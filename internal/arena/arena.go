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

// Package arena provides a bump allocator for decoded-message storage.
//
// # Design
//
// A decode (or encode) operation creates many small, short-lived
// allocations -- field storage, repeated-field backing arrays, copied
// strings, submessages -- whose collective lifetime is exactly the
// lifetime of the top-level message. An Arena amortizes all of those into
// a handful of calls into the Go allocator, and lets the whole tree be
// released in a single Free call instead of walking it field by field.
//
// Unlike the bump allocator this package was modeled on, Arena hands out
// ordinary (GC-visible) []byte slices rather than raw addresses into
// untraced memory: the data here is small and short-lived enough that
// there is no benefit to hiding it from the collector, and it lets every
// allocation stay an ordinary, bounds-checked Go slice instead of needing
// a parallel "pointer back to the arena" trick to stay reachable.
package arena

import (
	"github.com/google/uuid"

	"github.com/nizox/minipb/internal/dbg"
)

// Align is the alignment granularity for all arena allocations.
const Align = 8

// Allocator is a fallback block source an Arena can grow into once its own
// blocks are exhausted. If an Arena is constructed without one, it still
// works, but Alloc fails cleanly (returns nil) instead of growing forever.
type Allocator interface {
	// Alloc returns a new block of at least size bytes, or false if one
	// could not be produced.
	Alloc(size int) ([]byte, bool)
}

// GoAllocator is an Allocator backed by the ordinary Go heap. It never
// fails.
type GoAllocator struct{}

// Alloc implements Allocator.
func (GoAllocator) Alloc(size int) ([]byte, bool) { return make([]byte, size), true }

// Arena is a bump allocator over one or more blocks of memory.
//
// The zero Arena is not ready to use; construct one with New, or call Init
// directly.
type Arena struct {
	id       string // debug-only correlation tag, see SetID
	cur      []byte // current block
	off      int    // bump offset into cur
	fallback Allocator
	blocks   [][]byte // every block ever allocated, retained for reuse across Free
	nextBlk  int      // index into blocks to hand out on next Grow
	keep     []any    // arbitrary values kept alive alongside this arena
}

// New returns a ready-to-use Arena that grows using the ordinary Go heap.
// It is tagged with a fresh UUID so concurrent arenas are distinguishable
// in debug traces (see SetID, internal/dbg).
func New() *Arena {
	a := &Arena{}
	a.Init(nil, GoAllocator{})
	a.SetID(uuid.NewString())
	return a
}

// Init (re-)initializes an arena to use buf as its first block (used in
// place, not copied) and fallback as its block source once buf, and any
// previously reused blocks, are exhausted.
//
// A nil fallback means the arena cannot grow past its preloaded blocks: any
// Alloc beyond their combined capacity fails with a nil return, per the
// "fails cleanly" contract of spec §3.6/§4.1.
func (a *Arena) Init(buf []byte, fallback Allocator) {
	a.cur = buf
	a.off = 0
	a.fallback = fallback
	a.blocks = a.blocks[:0]
	if buf != nil {
		a.blocks = append(a.blocks, buf)
	}
	a.nextBlk = len(a.blocks)
	a.keep = nil
}

// SetID tags this arena for debug logging. Only meaningful when dbg.Enabled.
func (a *Arena) SetID(id string) { a.id = id }

// Alloc returns n zeroed bytes, starting at an Align-aligned address
// within this arena's current block, or nil if the arena (and its
// fallback, if any) could not produce them. The returned slice has
// exactly length n; bookkeeping internally rounds up to keep the next
// allocation's start address aligned, but that padding is never exposed
// to the caller.
func (a *Arena) Alloc(n int) []byte {
	aligned := alignUp(n, Align)

	if a.off+aligned > len(a.cur) {
		if !a.grow(aligned) {
			a.log("oom", "%d bytes", n)
			return nil
		}
	}

	p := a.cur[a.off : a.off+n : a.off+aligned]
	a.off += aligned
	a.log("alloc", "%d bytes, %d left", n, len(a.cur)-a.off)
	return p
}

// KeepAlive ties the lifetime of v to this arena. Use this when storing a
// reference (e.g. the input buffer under alias-string decoding) that must
// outlive a Free call but isn't itself arena-allocated.
func (a *Arena) KeepAlive(v any) {
	a.keep = append(a.keep, v)
}

// Free releases this arena's blocks for reuse by a subsequent decode or
// encode using the same Arena value. Any data previously allocated from it
// must not be referenced afterwards.
func (a *Arena) Free() {
	// Blocks already grown are kept around (but zeroed) so the next
	// operation on this Arena doesn't have to go back to the allocator;
	// this is the amortization the whole package exists for.
	for _, b := range a.blocks {
		clear(b)
	}
	if len(a.blocks) > 0 {
		a.cur = a.blocks[0]
	} else {
		a.cur = nil
	}
	a.off = 0
	a.nextBlk = min(1, len(a.blocks))
	a.keep = nil
}

// grow tries to make at least n more bytes available in a.cur, either by
// reusing a previously-allocated block or by asking the fallback for a new
// one.
func (a *Arena) grow(n int) bool {
	if a.nextBlk < len(a.blocks) {
		if b := a.blocks[a.nextBlk]; len(b) >= n {
			a.nextBlk++
			a.cur, a.off = b, 0
			return true
		}
	}

	if a.fallback == nil {
		return false
	}

	size := n
	if prev := len(a.cur); prev > 0 {
		size = max(n, prev*2)
	} else {
		size = max(n, 64)
	}

	b, ok := a.fallback.Alloc(size)
	if !ok {
		return false
	}

	a.blocks = append(a.blocks, b)
	a.nextBlk = len(a.blocks)
	a.cur, a.off = b, 0
	a.log("grow", "%d bytes", size)
	return true
}

func (a *Arena) log(op, format string, args ...any) {
	dbg.Log([]any{"[arena %s]", a.id}, op, format, args...)
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
