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

import (
	"errors"
	"fmt"
)

// The decoder error taxonomy, spec §7. Each sentinel is returned wrapped
// in a *DecodeError, which also carries the byte offset at which the
// failure occurred, or in an *EncodeError, which carries no offset; use
// errors.Is against these to classify a failure and (*DecodeError).Offset
// to locate a decode failure.
var (
	ErrTruncated        = errors.New("minipb: buffer ended mid-value")
	ErrMalformedVarint  = errors.New("minipb: varint ran past 10 bytes or reserved high bits set")
	ErrUnsupportedGroup = errors.New("minipb: group wire encoding is not supported")
	ErrInvalidTag       = errors.New("minipb: invalid field number or wire type")
	ErrBadUTF8          = errors.New("minipb: string field is not valid UTF-8")
	ErrRecursionLimit   = errors.New("minipb: max submessage depth exceeded")
	ErrOutOfMemory      = errors.New("minipb: arena allocation failed")
	ErrInvalidTable     = errors.New("minipb: MiniTable inconsistency detected at access time")

	// ErrDepthExceeded is the encoder's analogue of ErrRecursionLimit,
	// raised when a submessage chain is deeper than the configured limit
	// (e.g. a self-referential MiniTable whose message tree, constructed
	// by hand rather than by decoding, actually cycles).
	ErrDepthExceeded = errors.New("minipb: max encode depth exceeded")
)

// DecodeError is returned by Decode. It always identifies the byte offset
// within the top-level input at which parsing stopped.
type DecodeError struct {
	err    error
	Offset int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("minipb: decode error at offset %d (%#x): %v", e.Offset, e.Offset, e.err)
}

// Unwrap allows errors.Is(err, ErrTruncated) and friends.
func (e *DecodeError) Unwrap() error { return e.err }

func decodeErr(err error, offset int) *DecodeError {
	return &DecodeError{err: err, Offset: offset}
}

// EncodeError is returned by Encode.
type EncodeError struct {
	err error
}

func (e *EncodeError) Error() string { return fmt.Sprintf("minipb: encode error: %v", e.err) }
func (e *EncodeError) Unwrap() error { return e.err }

func encodeErr(err error) *EncodeError { return &EncodeError{err: err} }
