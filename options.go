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

package minipb

// DecodeOptions configures Decode, per spec §4.5/§6.4.
//
// Like the teacher's own options.go, these are plain option-struct
// closures rather than an options interface: boxing every call site
// behind an interface defeats inlining on what is meant to be a hot path.
type DecodeOptions struct {
	MaxDepth       uint32
	CheckUTF8      bool
	AliasString    bool
	DiscardUnknown bool

	// PreserveUnknown is a supplemental option (SPEC_FULL.md §4): when
	// true, skipped unknown tag/payload bytes are appended verbatim to
	// Message.unknown instead of being dropped. Off by default, matching
	// spec.md's choice to discard unknown fields.
	PreserveUnknown bool
}

// DefaultDecodeOptions matches spec §4.5's defaults.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{
		MaxDepth:  100,
		CheckUTF8: true,
	}
}

// DecodeOption configures a DecodeOptions value.
type DecodeOption struct{ apply func(*DecodeOptions) }

// WithMaxDepth sets the maximum nested-submessage depth. Large values
// enable a potential stack-exhaustion DoS vector; see spec §5.
func WithMaxDepth(depth uint32) DecodeOption {
	return DecodeOption{func(o *DecodeOptions) { o.MaxDepth = depth }}
}

// WithCheckUTF8 sets whether STRING fields must be valid UTF-8.
func WithCheckUTF8(check bool) DecodeOption {
	return DecodeOption{func(o *DecodeOptions) { o.CheckUTF8 = check }}
}

// WithAliasString sets whether STRING/BYTES values alias the input buffer
// instead of being copied into the arena. The caller must guarantee the
// input outlives the decoded Message; see spec §9.
func WithAliasString(alias bool) DecodeOption {
	return DecodeOption{func(o *DecodeOptions) { o.AliasString = alias }}
}

// WithDiscardUnknown sets DecodeOptions.DiscardUnknown, analogous to the
// teacher's own WithDiscardUnknown. Decode does not read this flag: unknown
// fields are always tag-parsed and skipped per their wire type (so
// malformed skipped bytes still fail the decode), and their bytes are kept
// only when PreserveUnknown is set.
func WithDiscardUnknown(discard bool) DecodeOption {
	return DecodeOption{func(o *DecodeOptions) { o.DiscardUnknown = discard }}
}

// WithPreserveUnknown enables the supplemental unknown-field round-trip
// side buffer described in SPEC_FULL.md §4.
func WithPreserveUnknown(preserve bool) DecodeOption {
	return DecodeOption{func(o *DecodeOptions) { o.PreserveUnknown = preserve }}
}

func newDecodeOptions(opts []DecodeOption) DecodeOptions {
	o := DefaultDecodeOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}

// EncodeOptions configures Encode, per spec §4.6/§6.4.
type EncodeOptions struct {
	MaxDepth uint32
}

// DefaultEncodeOptions mirrors DefaultDecodeOptions' depth limit, since the
// encoder enforces the same bound (spec §5).
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{MaxDepth: 100}
}

// EncodeOption configures an EncodeOptions value.
type EncodeOption struct{ apply func(*EncodeOptions) }

// WithEncodeMaxDepth sets the encoder's maximum submessage depth.
func WithEncodeMaxDepth(depth uint32) EncodeOption {
	return EncodeOption{func(o *EncodeOptions) { o.MaxDepth = depth }}
}

func newEncodeOptions(opts []EncodeOption) EncodeOptions {
	o := DefaultEncodeOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}
